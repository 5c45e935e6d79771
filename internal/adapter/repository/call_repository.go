package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/callpulse-hq/callpulse/internal/domain/entities"
	"github.com/callpulse-hq/callpulse/internal/domain/repositories"
)

// CallRepository is the gorm-backed store for call records
type CallRepository struct {
	db *gorm.DB
}

// NewCallRepository creates a new call repository
func NewCallRepository(db *gorm.DB) *CallRepository {
	return &CallRepository{db: db}
}

var _ repositories.CallRepository = (*CallRepository)(nil)

// Create inserts a new call record
func (r *CallRepository) Create(ctx context.Context, record *entities.CallRecord) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// GetByID retrieves a call record by ID
func (r *CallRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.CallRecord, error) {
	var record entities.CallRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetByProviderJobID retrieves a call record by the transcription job handle
func (r *CallRepository) GetByProviderJobID(ctx context.Context, jobID string) (*entities.CallRecord, error) {
	var record entities.CallRecord
	if err := r.db.WithContext(ctx).Where("provider_job_id = ?", jobID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// ListByOwner retrieves the owner's call records, newest first
func (r *CallRepository) ListByOwner(ctx context.Context, owner string, filter repositories.CallFilter) ([]entities.CallRecord, error) {
	limit := filter.Limit
	if limit == 0 {
		limit = 50
	}

	query := r.db.WithContext(ctx).Where("owner = ?", owner)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Tag != "" {
		// jsonb containment against the GIN-indexed tags column
		tagJSON, err := json.Marshal([]string{filter.Tag})
		if err != nil {
			return nil, err
		}
		query = query.Where("tags @> ?", string(tagJSON))
	}

	var records []entities.CallRecord
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ListByStatus retrieves records in a status, oldest update first. The
// sweeper uses this to find callbacks that never arrived.
func (r *CallRepository) ListByStatus(ctx context.Context, status entities.CallStatus, limit int) ([]entities.CallRecord, error) {
	if limit == 0 {
		limit = 100
	}
	var records []entities.CallRecord
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("updated_at ASC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// jsonColumns are the jsonb columns of call_records. Map-based Updates
// bypass the gorm serializer, so values for these columns get marshaled
// explicitly.
var jsonColumns = map[string]bool{
	"agent":         true,
	"customer":      true,
	"file":          true,
	"tags":          true,
	"transcription": true,
	"metrics":       true,
	"enrichment":    true,
	"debug":         true,
}

func marshalJSONColumns(fields map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if jsonColumns[k] && v != nil {
			b, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			out[k] = datatypes.JSON(b)
			continue
		}
		out[k] = v
	}
	return out, nil
}

// UpdateFields applies plain field-level writes
func (r *CallRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	updates, err := marshalJSONColumns(fields)
	if err != nil {
		return err
	}
	updates["updated_at"] = time.Now()
	return r.db.WithContext(ctx).
		Model(&entities.CallRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// TransitionStatus performs a compare-and-swap on status. Only one of any
// number of racing callers observes true; the rest find the record already
// moved on and report false.
func (r *CallRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to entities.CallStatus, fields map[string]interface{}) (bool, error) {
	updates, err := marshalJSONColumns(fields)
	if err != nil {
		return false, err
	}
	updates["status"] = to
	updates["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).
		Model(&entities.CallRecord{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Delete removes a call record
func (r *CallRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entities.CallRecord{}, "id = ?", id).Error
}
