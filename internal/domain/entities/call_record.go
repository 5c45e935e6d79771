package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CallStatus is the lifecycle status of a call record
type CallStatus string

const (
	CallStatusQueued     CallStatus = "queued"     // Created, audio stored, not yet submitted
	CallStatusProcessing CallStatus = "processing" // Submitted to the transcription provider
	CallStatusCompleted  CallStatus = "completed"  // Transcription and metrics present
	CallStatusError      CallStatus = "error"      // A load-bearing stage failed
)

// ContactInfo is free-form descriptive metadata for a call party
type ContactInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// FileInfo describes the uploaded audio artifact. Set once at creation.
type FileInfo struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	StorageKey  string `json:"storage_key"`
}

// CallRecord is the single authoritative record for one uploaded call
type CallRecord struct {
	ID     uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	Owner  string     `json:"owner" gorm:"type:varchar(255);not null;index"`
	Status CallStatus `json:"status" gorm:"type:varchar(20);not null;index;default:'queued'"`

	Agent    *ContactInfo `json:"agent,omitempty" gorm:"type:jsonb;serializer:json"`
	Customer *ContactInfo `json:"customer,omitempty" gorm:"type:jsonb;serializer:json"`
	File     FileInfo     `json:"file" gorm:"type:jsonb;serializer:json"`
	Tags     []string     `json:"tags,omitempty" gorm:"type:jsonb;serializer:json"`

	// ProviderJobID is the job handle correlating the transcription
	// submission with its webhook callback. Durable so the at-most-one
	// transition guarantee survives process restarts.
	ProviderJobID *string `json:"provider_job_id,omitempty" gorm:"type:varchar(255);index"`

	Transcription *TranscriptionResult `json:"transcription,omitempty" gorm:"type:jsonb;serializer:json"`
	Metrics       *CallMetrics         `json:"metrics,omitempty" gorm:"type:jsonb;serializer:json"`
	Enrichment    *EnrichmentResult    `json:"enrichment,omitempty" gorm:"type:jsonb;serializer:json"`

	Error *string                                    `json:"error,omitempty" gorm:"type:text"`
	Debug datatypes.JSONType[map[string]interface{}] `json:"debug,omitempty" gorm:"type:jsonb"`

	ProcessingStartedAt *time.Time `json:"processing_started_at,omitempty" gorm:"type:timestamp"`
	CompletedAt         *time.Time `json:"completed_at,omitempty" gorm:"type:timestamp"`
	CreatedAt           time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt           time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (CallRecord) TableName() string {
	return "call_records"
}

// NewCallRecord creates a call record in queued status
func NewCallRecord(owner string, file FileInfo) *CallRecord {
	now := time.Now()
	return &CallRecord{
		ID:        uuid.New(),
		Owner:     owner,
		Status:    CallStatusQueued,
		File:      file,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsTerminal reports whether the record is in a terminal status
func (c *CallRecord) IsTerminal() bool {
	return c.Status == CallStatusCompleted || c.Status == CallStatusError
}

// CanRecompute reports whether the recompute operation is legal.
// Recompute re-runs enrichment and scoring against the stored transcription,
// so it also needs a transcription to exist.
func (c *CallRecord) CanRecompute() bool {
	return c.IsTerminal() && c.Transcription != nil
}

// IsStale reports whether a processing record has waited for its callback
// longer than threshold. The periodic sweeper uses this predicate; the core
// owns no per-record timer.
func (c *CallRecord) IsStale(threshold time.Duration, now time.Time) bool {
	if c.Status != CallStatusProcessing {
		return false
	}
	return now.Sub(c.UpdatedAt) > threshold
}
