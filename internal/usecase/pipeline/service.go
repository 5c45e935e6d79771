// Package pipeline orchestrates the call processing lifecycle: submission
// to the transcription provider, webhook-driven completion, enrichment,
// scoring and the status transitions between them. All transitions go
// through the repository's compare-and-swap, so duplicate callbacks and
// racing operators cannot double-apply a stage.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	apperrors "github.com/callpulse-hq/callpulse/errors"
	"github.com/callpulse-hq/callpulse/internal/domain/entities"
	"github.com/callpulse-hq/callpulse/internal/domain/repositories"
	"github.com/callpulse-hq/callpulse/internal/usecase/scoring"
)

// TranscriptProvider submits audio for transcription and fetches results
type TranscriptProvider interface {
	Submit(ctx context.Context, audioURL, webhookURL string) (string, error)
	GetTranscript(ctx context.Context, id string) (*aai.Transcript, error)
}

// AnalysisProvider generates the LLM analysis for a formatted transcript
type AnalysisProvider interface {
	GenerateCallAnalysis(ctx context.Context, formattedTranscript string) (string, error)
}

// ObjectStore is the slice of object storage the pipeline needs: a
// presigned URL the transcription provider can fetch, and removal on
// record deletion.
type ObjectStore interface {
	PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	Remove(ctx context.Context, key string) error
}

// WebhookDeduper short-circuits duplicate provider callbacks. Best effort
// only; the repository CAS is what actually guarantees a single effective
// transition.
type WebhookDeduper interface {
	// MarkProcessed returns false when the event was already marked.
	MarkProcessed(ctx context.Context, event string) (bool, error)
	Release(ctx context.Context, event string)
}

// Service is the pipeline orchestrator
type Service struct {
	repo        repositories.CallRepository
	transcripts TranscriptProvider
	analysis    AnalysisProvider
	storage     ObjectStore
	deduper     WebhookDeduper
	weights     scoring.Weights
	webhookURL  string
	logger      *zap.Logger
}

// audioURLExpiry bounds how long the provider can fetch the presigned
// audio URL. Generous because the provider queues jobs.
const audioURLExpiry = 2 * time.Hour

// NewService creates the pipeline orchestrator. deduper may be nil when no
// cache is configured.
func NewService(
	repo repositories.CallRepository,
	transcripts TranscriptProvider,
	analysis AnalysisProvider,
	storage ObjectStore,
	deduper WebhookDeduper,
	weights scoring.Weights,
	webhookURL string,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:        repo,
		transcripts: transcripts,
		analysis:    analysis,
		storage:     storage,
		deduper:     deduper,
		weights:     weights,
		webhookURL:  webhookURL,
		logger:      logger,
	}
}

// Weights returns the configured scoring weights. Callers building a
// per-request override start from these so configured thresholds carry over.
func (s *Service) Weights() scoring.Weights {
	return s.weights
}

// CreateCall stores a new record in queued status and immediately starts
// processing it
func (s *Service) CreateCall(ctx context.Context, record *entities.CallRecord) error {
	if err := s.repo.Create(ctx, record); err != nil {
		return apperrors.ErrDBQueryFailed(err)
	}
	return s.Start(ctx, record.ID)
}

// Start claims a queued record and submits its audio for transcription.
// The claim is a CAS from queued to processing; a record in any other
// status is rejected, so two racing starts cannot both submit.
func (s *Service) Start(ctx context.Context, id uuid.UUID) error {
	record, err := s.getRecord(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now()
	claimed, err := s.repo.TransitionStatus(ctx, id, entities.CallStatusQueued, entities.CallStatusProcessing, map[string]interface{}{
		"processing_started_at": now,
	})
	if err != nil {
		return apperrors.ErrDBQueryFailed(err)
	}
	if !claimed {
		return apperrors.ErrInvalidStateTransition(string(record.Status), "start")
	}

	audioURL, err := s.storage.PresignedGetURL(ctx, record.File.StorageKey, audioURLExpiry)
	if err != nil {
		s.failProcessing(ctx, id, fmt.Sprintf("failed to presign audio url: %v", err))
		return apperrors.ErrStorageFailed("presign audio url", err)
	}

	jobID, err := s.transcripts.Submit(ctx, audioURL, s.webhookURL)
	if err != nil {
		s.failProcessing(ctx, id, fmt.Sprintf("transcription submission rejected: %v", err))
		return err
	}

	if err := s.repo.UpdateFields(ctx, id, map[string]interface{}{
		"provider_job_id": jobID,
	}); err != nil {
		return apperrors.ErrDBQueryFailed(err)
	}

	s.logger.Info("call submitted for transcription",
		zap.String("call_id", id.String()),
		zap.String("provider_job_id", jobID),
	)
	return nil
}

// HandleTranscriptionCallback processes a provider webhook. The callback
// body carries only the job id and status; on completion the full
// transcript is fetched back from the provider. Unknown job handles and
// records no longer in processing are acknowledged as no-ops. A returned
// error means the provider should retry the delivery.
func (s *Service) HandleTranscriptionCallback(ctx context.Context, jobID, status string) error {
	if jobID == "" {
		return apperrors.ErrInvalidPayload()
	}

	record, err := s.repo.GetByProviderJobID(ctx, jobID)
	if err != nil {
		return apperrors.ErrDBQueryFailed(err)
	}
	if record == nil {
		s.logger.Warn("callback for unknown transcription job", zap.String("provider_job_id", jobID))
		return nil
	}
	if record.Status != entities.CallStatusProcessing {
		s.logger.Info("callback for settled record ignored",
			zap.String("call_id", record.ID.String()),
			zap.String("status", string(record.Status)),
		)
		return nil
	}

	event := jobID + ":" + status
	if s.deduper != nil {
		fresh, err := s.deduper.MarkProcessed(ctx, event)
		if err == nil && !fresh {
			s.logger.Info("duplicate callback short-circuited", zap.String("provider_job_id", jobID))
			return nil
		}
	}

	switch status {
	case "completed":
		if err := s.complete(ctx, record, jobID); err != nil {
			if s.deduper != nil {
				s.deduper.Release(ctx, event)
			}
			return err
		}
		return nil
	case "error":
		if err := s.failFromProvider(ctx, record, jobID); err != nil {
			if s.deduper != nil {
				s.deduper.Release(ctx, event)
			}
			return err
		}
		return nil
	default:
		// queued/processing progress notifications carry nothing actionable
		return nil
	}
}

// complete fetches the finished transcript, runs enrichment and scoring,
// and commits everything in a single CAS to completed. Enrichment failure
// is recorded but does not block completion; the sentiment component just
// falls back to neutral.
func (s *Service) complete(ctx context.Context, record *entities.CallRecord, jobID string) error {
	transcript, err := s.transcripts.GetTranscript(ctx, jobID)
	if err != nil {
		// transient fetch failure: keep processing and let the provider
		// redeliver the callback
		return apperrors.ErrUpstreamUnavailable(err)
	}

	transcription, err := normalizeTranscript(transcript)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrorCode_TRANSCRIPTION_FAILED) {
			return s.transitionToError(ctx, record.ID, err.Error())
		}
		return err
	}

	debug := map[string]interface{}{}
	enrichment := s.enrich(ctx, transcription, debug)

	var elapsed time.Duration
	if record.ProcessingStartedAt != nil {
		elapsed = time.Since(*record.ProcessingStartedAt)
	}
	metrics := scoring.Compute(transcription, enrichment, elapsed, s.weights)

	now := time.Now()
	fields := map[string]interface{}{
		"transcription": transcription,
		"metrics":       &metrics,
		"completed_at":  now,
		"error":         nil,
	}
	if enrichment != nil {
		fields["enrichment"] = enrichment
	}
	if len(debug) > 0 {
		fields["debug"] = debug
	}

	applied, err := s.repo.TransitionStatus(ctx, record.ID, entities.CallStatusProcessing, entities.CallStatusCompleted, fields)
	if err != nil {
		return apperrors.ErrDBQueryFailed(err)
	}
	if !applied {
		s.logger.Info("completion lost the transition race", zap.String("call_id", record.ID.String()))
		return nil
	}

	s.logger.Info("call completed",
		zap.String("call_id", record.ID.String()),
		zap.Float64("quality_score", metrics.OverallQualityScore),
		zap.Bool("enriched", enrichment != nil),
	)
	return nil
}

// enrich runs the LLM analysis. Any failure, transport or malformed
// output, leaves enrichment nil and files the reason under debug.
func (s *Service) enrich(ctx context.Context, transcription *entities.TranscriptionResult, debug map[string]interface{}) *entities.EnrichmentResult {
	content, err := s.analysis.GenerateCallAnalysis(ctx, formatTranscriptForAnalysis(transcription))
	if err != nil {
		s.logger.Warn("enrichment request failed", zap.Error(err))
		debug["enrichment_error"] = err.Error()
		return nil
	}

	enrichment, err := parseAnalysisResponse(content)
	if err != nil {
		s.logger.Warn("enrichment response malformed", zap.Error(err))
		debug["enrichment_error"] = err.Error()
		debug["enrichment_raw"] = truncate(content, 2000)
		return nil
	}
	return enrichment
}

// failFromProvider settles a record whose transcription job ended in error
func (s *Service) failFromProvider(ctx context.Context, record *entities.CallRecord, jobID string) error {
	reason := "transcription failed"
	if transcript, err := s.transcripts.GetTranscript(ctx, jobID); err == nil && transcript.Error != nil && *transcript.Error != "" {
		reason = *transcript.Error
	}
	return s.transitionToError(ctx, record.ID, reason)
}

func (s *Service) transitionToError(ctx context.Context, id uuid.UUID, reason string) error {
	now := time.Now()
	applied, err := s.repo.TransitionStatus(ctx, id, entities.CallStatusProcessing, entities.CallStatusError, map[string]interface{}{
		"error":        reason,
		"completed_at": now,
	})
	if err != nil {
		return apperrors.ErrDBQueryFailed(err)
	}
	if !applied {
		s.logger.Info("error transition lost the race", zap.String("call_id", id.String()))
		return nil
	}
	s.logger.Warn("call failed", zap.String("call_id", id.String()), zap.String("reason", reason))
	return nil
}

// failProcessing is transitionToError for paths that already hold the
// processing claim and only log secondary failures
func (s *Service) failProcessing(ctx context.Context, id uuid.UUID, reason string) {
	if err := s.transitionToError(ctx, id, reason); err != nil {
		s.logger.Error("failed to settle record as error",
			zap.String("call_id", id.String()),
			zap.Error(err),
		)
	}
}

// Recompute re-runs enrichment and scoring against the stored transcription
// of a settled record. The record briefly re-enters processing and settles
// back to completed; it never returns to queued and the audio is never
// re-transcribed. A nil weights override keeps the configured weights.
func (s *Service) Recompute(ctx context.Context, id uuid.UUID, override *scoring.Weights) error {
	record, err := s.getRecord(ctx, id)
	if err != nil {
		return err
	}
	if !record.CanRecompute() {
		return apperrors.ErrInvalidStateTransition(string(record.Status), "recompute")
	}

	now := time.Now()
	claimed, err := s.repo.TransitionStatus(ctx, id, record.Status, entities.CallStatusProcessing, map[string]interface{}{
		"processing_started_at": now,
	})
	if err != nil {
		return apperrors.ErrDBQueryFailed(err)
	}
	if !claimed {
		return apperrors.ErrInvalidStateTransition(string(record.Status), "recompute")
	}

	debug := map[string]interface{}{}
	enrichment := s.enrich(ctx, record.Transcription, debug)
	if enrichment == nil {
		// keep the previous enrichment rather than discard a good one over
		// a transient analysis failure
		enrichment = record.Enrichment
	}

	weights := s.weights
	if override != nil {
		weights = *override
	}
	metrics := scoring.Compute(record.Transcription, enrichment, time.Since(now), weights)

	fields := map[string]interface{}{
		"metrics":      &metrics,
		"completed_at": time.Now(),
		"error":        nil,
	}
	if enrichment != nil {
		fields["enrichment"] = enrichment
	}
	if len(debug) > 0 {
		fields["debug"] = debug
	}

	applied, err := s.repo.TransitionStatus(ctx, id, entities.CallStatusProcessing, entities.CallStatusCompleted, fields)
	if err != nil {
		return apperrors.ErrDBQueryFailed(err)
	}
	if !applied {
		return apperrors.ErrInvalidStateTransition(string(entities.CallStatusProcessing), "recompute")
	}

	s.logger.Info("call rescored",
		zap.String("call_id", id.String()),
		zap.Float64("quality_score", metrics.OverallQualityScore),
	)
	return nil
}

// CorrectSpeakers applies manual speaker relabeling to any record that has
// a transcription and refreshes the derived metrics. Only labels change;
// utterance text and timing are untouched, so this is a plain field update,
// not a transition, and the record keeps its status.
func (s *Service) CorrectSpeakers(ctx context.Context, id uuid.UUID, edits []entities.SpeakerEdit) (*entities.CallRecord, error) {
	record, err := s.getRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Transcription == nil {
		return nil, apperrors.ErrInvalidStateTransition(string(record.Status), "correct speakers")
	}
	if len(edits) == 0 {
		return nil, apperrors.ErrInvalidArgument("no speaker edits provided")
	}

	transcription := *record.Transcription
	transcription.Utterances = append([]entities.Utterance(nil), record.Transcription.Utterances...)

	for _, edit := range edits {
		if edit.Index < 0 || edit.Index >= len(transcription.Utterances) {
			return nil, apperrors.ErrInvalidArgument(fmt.Sprintf("utterance index %d out of range", edit.Index))
		}
		if edit.Speaker == "" {
			return nil, apperrors.ErrInvalidArgument(fmt.Sprintf("empty speaker label for index %d", edit.Index))
		}
		transcription.Utterances[edit.Index].Speaker = edit.Speaker
	}

	fields := map[string]interface{}{
		"transcription": &transcription,
	}
	// metrics only exist once the record completed at least once; a record
	// that errored before scoring keeps none to refresh
	if record.Metrics != nil {
		metrics := scoring.Compute(&transcription, record.Enrichment, 0, s.weights)
		metrics.ProcessingDurationSec = record.Metrics.ProcessingDurationSec
		fields["metrics"] = &metrics
		record.Metrics = &metrics
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, apperrors.ErrDBQueryFailed(err)
	}

	record.Transcription = &transcription
	return record, nil
}

// GetCall returns a record scoped to its owner. Cross-owner lookups report
// not found rather than leaking the record's existence.
func (s *Service) GetCall(ctx context.Context, owner string, id uuid.UUID) (*entities.CallRecord, error) {
	record, err := s.getRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Owner != owner {
		return nil, apperrors.ErrNotFound("call record")
	}
	return record, nil
}

// ListCalls returns the owner's records, newest first
func (s *Service) ListCalls(ctx context.Context, owner string, filter repositories.CallFilter) ([]entities.CallRecord, error) {
	records, err := s.repo.ListByOwner(ctx, owner, filter)
	if err != nil {
		return nil, apperrors.ErrDBQueryFailed(err)
	}
	return records, nil
}

// UpdateMetadata updates the descriptive fields of a record. Lifecycle
// fields are not reachable from here.
func (s *Service) UpdateMetadata(ctx context.Context, owner string, id uuid.UUID, agent, customer *entities.ContactInfo, tags []string) (*entities.CallRecord, error) {
	record, err := s.GetCall(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if agent != nil {
		fields["agent"] = agent
		record.Agent = agent
	}
	if customer != nil {
		fields["customer"] = customer
		record.Customer = customer
	}
	if tags != nil {
		fields["tags"] = tags
		record.Tags = tags
	}
	if len(fields) == 0 {
		return record, nil
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, apperrors.ErrDBQueryFailed(err)
	}
	return record, nil
}

// DeleteCall removes a record and its stored audio. The storage removal is
// best effort; a dangling object is preferable to a record that cannot be
// deleted.
func (s *Service) DeleteCall(ctx context.Context, owner string, id uuid.UUID) error {
	record, err := s.GetCall(ctx, owner, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.ErrDBQueryFailed(err)
	}

	if record.File.StorageKey != "" {
		if err := s.storage.Remove(ctx, record.File.StorageKey); err != nil {
			s.logger.Warn("failed to remove audio object",
				zap.String("call_id", id.String()),
				zap.String("storage_key", record.File.StorageKey),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *Service) getRecord(ctx context.Context, id uuid.UUID) (*entities.CallRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.ErrDBQueryFailed(err)
	}
	if record == nil {
		return nil, apperrors.ErrNotFound("call record")
	}
	return record, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
