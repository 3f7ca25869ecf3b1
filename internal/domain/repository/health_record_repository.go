package repository

import (
	"context"
	"time"

	"github.com/oksasatya/medtracker/internal/domain/entity"
)

// HealthRecordRepository persists daily health snapshots. Every read excludes
// soft-deleted records.
type HealthRecordRepository interface {
	// FindLiveForUserOnDate returns ErrNotFound when the user has no live
	// record for day.
	FindLiveForUserOnDate(ctx context.Context, userID string, day time.Time) (*entity.HealthRecord, error)
	Insert(ctx context.Context, r *entity.HealthRecord) error
	Update(ctx context.Context, r *entity.HealthRecord) error
	GetByID(ctx context.Context, id, userID string) (*entity.HealthRecord, error)
	// ListByUser returns live records newest first.
	ListByUser(ctx context.Context, userID string) ([]entity.HealthRecord, error)
	SoftDelete(ctx context.Context, id, userID string) (bool, error)

	// WithinDay runs fn in a transaction holding a lock on (userID, day).
	// The repository passed to fn is bound to that transaction.
	WithinDay(ctx context.Context, userID string, day time.Time, fn func(HealthRecordRepository) error) error
}
