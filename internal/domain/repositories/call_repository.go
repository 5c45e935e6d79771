package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/callpulse-hq/callpulse/internal/domain/entities"
)

// CallFilter narrows list queries
type CallFilter struct {
	Status entities.CallStatus
	Tag    string
	Limit  int
	Offset int
}

// CallRepository is the keyed store for call records. It is the single
// source of truth for record state; no caller caches record state across
// requests.
type CallRepository interface {
	Create(ctx context.Context, record *entities.CallRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.CallRecord, error)
	GetByProviderJobID(ctx context.Context, jobID string) (*entities.CallRecord, error)
	ListByOwner(ctx context.Context, owner string, filter CallFilter) ([]entities.CallRecord, error)
	ListByStatus(ctx context.Context, status entities.CallStatus, limit int) ([]entities.CallRecord, error)

	// UpdateFields applies plain field-level writes (tags, agent/customer
	// metadata, speaker-corrected transcription). Not for stage transitions.
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error

	// TransitionStatus atomically moves a record from one status to another
	// together with the given field updates. It reports false when the record
	// was no longer in the expected status, which implements the
	// at-most-one-effective-transition guarantee.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to entities.CallStatus, fields map[string]interface{}) (bool, error)

	Delete(ctx context.Context, id uuid.UUID) error
}
