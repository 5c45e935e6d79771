package call

import (
	"time"

	"github.com/callpulse-hq/callpulse/internal/domain/entities"
)

// CallResponse is the API shape of a call record
type CallResponse struct {
	ID     string `json:"id"`
	Owner  string `json:"owner"`
	Status string `json:"status"`

	Agent    *ContactPayload `json:"agent,omitempty"`
	Customer *ContactPayload `json:"customer,omitempty"`
	Tags     []string        `json:"tags,omitempty"`

	File FilePayload `json:"file"`

	Transcription *entities.TranscriptionResult `json:"transcription,omitempty"`
	Metrics       *entities.CallMetrics         `json:"metrics,omitempty"`
	Enrichment    *entities.EnrichmentResult    `json:"enrichment,omitempty"`

	Error *string `json:"error,omitempty"`

	ProcessingStartedAt *time.Time `json:"processing_started_at,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// FilePayload describes the stored audio artifact
type FilePayload struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// ListCallsResponse wraps a page of call records
type ListCallsResponse struct {
	Calls  []CallResponse `json:"calls"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// FromEntity maps a call record to its API shape
func FromEntity(record *entities.CallRecord) CallResponse {
	resp := CallResponse{
		ID:     record.ID.String(),
		Owner:  record.Owner,
		Status: string(record.Status),
		Tags:   record.Tags,
		File: FilePayload{
			Name:        record.File.Name,
			Size:        record.File.Size,
			ContentType: record.File.ContentType,
		},
		Transcription:       record.Transcription,
		Metrics:             record.Metrics,
		Enrichment:          record.Enrichment,
		Error:               record.Error,
		ProcessingStartedAt: record.ProcessingStartedAt,
		CompletedAt:         record.CompletedAt,
		CreatedAt:           record.CreatedAt,
		UpdatedAt:           record.UpdatedAt,
	}
	if record.Agent != nil {
		resp.Agent = &ContactPayload{Name: record.Agent.Name, Email: record.Agent.Email, Phone: record.Agent.Phone}
	}
	if record.Customer != nil {
		resp.Customer = &ContactPayload{Name: record.Customer.Name, Email: record.Customer.Email, Phone: record.Customer.Phone}
	}
	return resp
}

// FromEntities maps a slice of call records
func FromEntities(records []entities.CallRecord) []CallResponse {
	out := make([]CallResponse, 0, len(records))
	for i := range records {
		out = append(out, FromEntity(&records[i]))
	}
	return out
}
