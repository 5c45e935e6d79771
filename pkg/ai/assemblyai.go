package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	apperrors "github.com/callpulse-hq/callpulse/errors"
	"github.com/callpulse-hq/callpulse/pkg/config"
)

// AssemblyAIClient submits audio for transcription and fetches completed
// transcripts. Submission uses the raw REST endpoint so the webhook
// parameters stay explicit; fetching uses the official SDK.
type AssemblyAIClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	sdk     *aai.Client
}

// NewAssemblyAIClient creates an AssemblyAI client using the provided config.
// If cfg is nil, falls back to environment variables.
func NewAssemblyAIClient(cfg *config.AssemblyAIConfig) *AssemblyAIClient {
	var apiKey, base string
	if cfg != nil {
		apiKey = cfg.APIKey
		base = cfg.BaseURL
	}
	if apiKey == "" {
		apiKey = os.Getenv("ASSEMBLYAI_API_KEY")
	}
	if base == "" {
		base = "https://api.assemblyai.com"
	}

	return &AssemblyAIClient{
		apiKey:  apiKey,
		baseURL: base,
		client:  &http.Client{Timeout: 30 * time.Second},
		sdk:     aai.NewClient(apiKey),
	}
}

// TranscribeRequest is the payload for /v2/transcript
type TranscribeRequest struct {
	AudioURL        string `json:"audio_url"`
	SpeakerLabels   bool   `json:"speaker_labels,omitempty"`
	EntityDetection bool   `json:"entity_detection,omitempty"`
	AutoChapters    bool   `json:"auto_chapters,omitempty"`
	ContentSafety   bool   `json:"content_safety,omitempty"`
	WebhookURL      string `json:"webhook_url,omitempty"`
}

// TranscribeResponse is the minimal submission response
type TranscribeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Submit requests transcription of an external audio URL and returns the
// provider job id. A rejected submission (bad audio, auth failure, quota)
// maps to ErrUpstreamUnavailable; the caller decides what that means for
// the record. No retries happen here.
func (c *AssemblyAIClient) Submit(ctx context.Context, audioURL, webhookURL string) (string, error) {
	payload := TranscribeRequest{
		AudioURL:        audioURL,
		SpeakerLabels:   true,
		EntityDetection: true,
		AutoChapters:    true,
		ContentSafety:   true,
		WebhookURL:      webhookURL,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/transcript", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperrors.ErrUpstreamUnavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return "", apperrors.ErrUpstreamUnavailable(
			fmt.Errorf("assemblyai returned status %d: %s", resp.StatusCode, string(body)))
	}

	var tr TranscribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", apperrors.ErrUpstreamUnavailable(err)
	}
	if tr.ID == "" {
		return "", apperrors.ErrUpstreamUnavailable(fmt.Errorf("assemblyai returned no transcript id"))
	}
	return tr.ID, nil
}

// GetTranscript fetches the full transcript for a job id. The webhook body
// only carries the id and status, so completion handling always goes
// through here.
func (c *AssemblyAIClient) GetTranscript(ctx context.Context, id string) (*aai.Transcript, error) {
	transcript, err := c.sdk.Transcripts.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transcript %s: %w", id, err)
	}
	return &transcript, nil
}
