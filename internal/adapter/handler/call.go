package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/callpulse-hq/callpulse/errors"
	dto "github.com/callpulse-hq/callpulse/internal/adapter/dto/call"
	"github.com/callpulse-hq/callpulse/internal/domain/entities"
	"github.com/callpulse-hq/callpulse/internal/domain/repositories"
	"github.com/callpulse-hq/callpulse/internal/infrastructure/http/middleware"
	"github.com/callpulse-hq/callpulse/internal/usecase/pipeline"
	"github.com/callpulse-hq/callpulse/internal/usecase/scoring"
)

// AudioUploader stores uploaded audio streams
type AudioUploader interface {
	UploadAudio(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
}

// Call handles the call record endpoints
type Call struct {
	service  *pipeline.Service
	uploader AudioUploader
	logger   *zap.Logger
}

// NewCall creates the call handler
func NewCall(service *pipeline.Service, uploader AudioUploader, logger *zap.Logger) *Call {
	return &Call{service: service, uploader: uploader, logger: logger}
}

// maxUploadSize bounds a single audio upload
const maxUploadSize = 512 << 20 // 512 MiB

// Upload accepts a multipart audio upload, stores it and kicks off the
// processing pipeline. The response carries the record in whatever status
// the kick-off reached; a rejected submission shows up as status error.
func (h *Call) Upload(c echo.Context) error {
	owner, ok := middleware.OwnerFromContext(c)
	if !ok {
		return HandleError(h.logger, c, apperrors.ErrUnauthenticated())
	}

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("missing audio file"))
	}
	if fileHeader.Size <= 0 || fileHeader.Size > maxUploadSize {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("audio file size out of bounds"))
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !isAudioContentType(contentType) {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument(fmt.Sprintf("unsupported content type %q", contentType)))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInternal(err))
	}
	defer src.Close()

	record := entities.NewCallRecord(owner, entities.FileInfo{
		Name:        fileHeader.Filename,
		Size:        fileHeader.Size,
		ContentType: contentType,
	})
	record.File.StorageKey = fmt.Sprintf("calls/%s/%s", record.ID, path.Base(fileHeader.Filename))
	record.Agent = contactFromForm(c, "agent")
	record.Customer = contactFromForm(c, "customer")
	if tags := c.FormValue("tags"); tags != "" {
		record.Tags = splitTags(tags)
	}

	ctx := c.Request().Context()
	if err := h.uploader.UploadAudio(ctx, record.File.StorageKey, src, fileHeader.Size, contentType); err != nil {
		return HandleError(h.logger, c, apperrors.ErrStorageFailed("upload audio", err))
	}

	if err := h.service.CreateCall(ctx, record); err != nil {
		// the record exists even when the kick-off failed; report its
		// settled state instead of hiding it behind an error
		h.logger.Warn("pipeline kick-off failed",
			zap.String("call_id", record.ID.String()),
			zap.Error(err),
		)
	}

	stored, err := h.service.GetCall(ctx, owner, record.ID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, http.StatusAccepted, dto.FromEntity(stored))
}

// List returns the caller's call records
func (h *Call) List(c echo.Context) error {
	owner, ok := middleware.OwnerFromContext(c)
	if !ok {
		return HandleError(h.logger, c, apperrors.ErrUnauthenticated())
	}

	var req dto.ListCallsRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument(err.Error()))
	}

	records, err := h.service.ListCalls(c.Request().Context(), owner, repositories.CallFilter{
		Status: entities.CallStatus(req.Status),
		Tag:    req.Tag,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	limit := req.Limit
	if limit == 0 {
		limit = 50
	}
	return HandleSuccess(h.logger, c, http.StatusOK, dto.ListCallsResponse{
		Calls:  dto.FromEntities(records),
		Limit:  limit,
		Offset: req.Offset,
	})
}

// Get returns one call record
func (h *Call) Get(c echo.Context) error {
	owner, id, err := h.ownerAndID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	record, err := h.service.GetCall(c.Request().Context(), owner, id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, http.StatusOK, dto.FromEntity(record))
}

// Update patches the descriptive metadata of a record
func (h *Call) Update(c echo.Context) error {
	owner, id, err := h.ownerAndID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req dto.UpdateCallRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument(err.Error()))
	}

	record, err := h.service.UpdateMetadata(c.Request().Context(), owner, id,
		contactFromPayload(req.Agent), contactFromPayload(req.Customer), req.Tags)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, http.StatusOK, dto.FromEntity(record))
}

// Delete removes a record and its audio
func (h *Call) Delete(c echo.Context) error {
	owner, id, err := h.ownerAndID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	if err := h.service.DeleteCall(c.Request().Context(), owner, id); err != nil {
		return HandleError(h.logger, c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Recompute re-runs enrichment and scoring for a settled record
func (h *Call) Recompute(c echo.Context) error {
	owner, id, err := h.ownerAndID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req dto.RecomputeRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument(err.Error()))
	}

	ctx := c.Request().Context()
	// ownership check before touching the record
	if _, err := h.service.GetCall(ctx, owner, id); err != nil {
		return HandleError(h.logger, c, err)
	}

	if err := h.service.Recompute(ctx, id, overrideWeights(h.service.Weights(), req.Weights)); err != nil {
		return HandleError(h.logger, c, err)
	}

	record, err := h.service.GetCall(ctx, owner, id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, http.StatusOK, dto.FromEntity(record))
}

// CorrectSpeakers applies manual speaker relabeling
func (h *Call) CorrectSpeakers(c echo.Context) error {
	owner, id, err := h.ownerAndID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req dto.CorrectSpeakersRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument(err.Error()))
	}

	ctx := c.Request().Context()
	if _, err := h.service.GetCall(ctx, owner, id); err != nil {
		return HandleError(h.logger, c, err)
	}

	edits := make([]entities.SpeakerEdit, 0, len(req.Edits))
	for _, e := range req.Edits {
		edits = append(edits, entities.SpeakerEdit{Index: e.Index, Speaker: e.Speaker})
	}

	record, err := h.service.CorrectSpeakers(ctx, id, edits)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, http.StatusOK, dto.FromEntity(record))
}

func (h *Call) ownerAndID(c echo.Context) (string, uuid.UUID, error) {
	owner, ok := middleware.OwnerFromContext(c)
	if !ok {
		return "", uuid.Nil, apperrors.ErrUnauthenticated()
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return "", uuid.Nil, apperrors.ErrInvalidArgument("invalid call id")
	}
	return owner, id, nil
}

func contactFromForm(c echo.Context, prefix string) *entities.ContactInfo {
	contact := entities.ContactInfo{
		Name:  c.FormValue(prefix + "_name"),
		Email: c.FormValue(prefix + "_email"),
		Phone: c.FormValue(prefix + "_phone"),
	}
	if contact.Name == "" && contact.Email == "" && contact.Phone == "" {
		return nil
	}
	return &contact
}

// overrideWeights builds a per-request weights override from the configured
// weights, so only the weight components change and the configured
// thresholds carry over. A nil payload means no override.
func overrideWeights(base scoring.Weights, p *dto.WeightsPayload) *scoring.Weights {
	if p == nil {
		return nil
	}
	base.Clarity = p.Clarity
	base.Sentiment = p.Sentiment
	base.Balance = p.Balance
	base.Safety = p.Safety
	return &base
}

func contactFromPayload(p *dto.ContactPayload) *entities.ContactInfo {
	if p == nil {
		return nil
	}
	return &entities.ContactInfo{Name: p.Name, Email: p.Email, Phone: p.Phone}
}

func splitTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func isAudioContentType(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.HasPrefix(contentType, "audio/") || contentType == "application/octet-stream"
}
