package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/medtracker/internal/domain/entity"
	"github.com/oksasatya/medtracker/internal/domain/repository"
)

const recordColumns = `id, user_id, height, weight, blood_pressure_systolic, blood_pressure_diastolic,
		blood_sugar, heart_rate, cholesterol, bmi, hemoglobin, rbc_count, wbc_count, platelet_count,
		record_date, created_at, updated_at, deleted_at`

type HealthRecordRepository struct {
	db DB
}

func NewHealthRecordRepository(db DB) *HealthRecordRepository {
	return &HealthRecordRepository{db: db}
}

func scanRecord(row pgx.Row) (*entity.HealthRecord, error) {
	h := &entity.HealthRecord{}
	if err := row.Scan(&h.ID, &h.UserID, &h.Height, &h.Weight, &h.SystolicBP, &h.DiastolicBP,
		&h.BloodSugar, &h.HeartRate, &h.Cholesterol, &h.BMI,
		&h.Hemoglobin, &h.RBCCount, &h.WBCCount, &h.PlateletCount,
		&h.RecordDate, &h.CreatedAt, &h.UpdatedAt, &h.DeletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, mapKeyErr(err)
	}
	return h, nil
}

func (r *HealthRecordRepository) FindLiveForUserOnDate(ctx context.Context, userID string, day time.Time) (*entity.HealthRecord, error) {
	return scanRecord(r.db.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM health_records
		WHERE user_id = $1 AND record_date = $2 AND deleted_at IS NULL
		LIMIT 1
	`, userID, dayString(day)))
}

func (r *HealthRecordRepository) Insert(ctx context.Context, h *entity.HealthRecord) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO health_records (user_id, height, weight, blood_pressure_systolic, blood_pressure_diastolic,
			blood_sugar, heart_rate, cholesterol, bmi, hemoglobin, rbc_count, wbc_count, platelet_count, record_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at
	`, h.UserID, h.Height, h.Weight, h.SystolicBP, h.DiastolicBP, h.BloodSugar, h.HeartRate, h.Cholesterol,
		h.BMI, h.Hemoglobin, h.RBCCount, h.WBCCount, h.PlateletCount, dayString(h.RecordDate))

	if err := row.Scan(&h.ID, &h.CreatedAt); err != nil {
		return mapWriteErr(err)
	}
	return nil
}

// Update overwrites every measurement field and BMI, and stamps updated_at.
func (r *HealthRecordRepository) Update(ctx context.Context, h *entity.HealthRecord) error {
	now := time.Now()
	res, err := r.db.Exec(ctx, `
		UPDATE health_records
		SET height = $1, weight = $2, blood_pressure_systolic = $3, blood_pressure_diastolic = $4,
			blood_sugar = $5, heart_rate = $6, cholesterol = $7, bmi = $8,
			hemoglobin = $9, rbc_count = $10, wbc_count = $11, platelet_count = $12, updated_at = $13
		WHERE id = $14 AND user_id = $15 AND deleted_at IS NULL
	`, h.Height, h.Weight, h.SystolicBP, h.DiastolicBP, h.BloodSugar, h.HeartRate, h.Cholesterol, h.BMI,
		h.Hemoglobin, h.RBCCount, h.WBCCount, h.PlateletCount, now, h.ID, h.UserID)
	if err != nil {
		return mapKeyErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	h.UpdatedAt = &now
	return nil
}

func (r *HealthRecordRepository) GetByID(ctx context.Context, id, userID string) (*entity.HealthRecord, error) {
	return scanRecord(r.db.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM health_records
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`, id, userID))
}

func (r *HealthRecordRepository) ListByUser(ctx context.Context, userID string) ([]entity.HealthRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+recordColumns+`
		FROM health_records
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY record_date DESC, created_at DESC
	`, userID)
	if err != nil {
		return nil, mapKeyErr(err)
	}
	defer rows.Close()

	out := make([]entity.HealthRecord, 0)
	for rows.Next() {
		h, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	return out, rows.Err()
}

func (r *HealthRecordRepository) SoftDelete(ctx context.Context, id, userID string) (bool, error) {
	res, err := r.db.Exec(ctx, `
		UPDATE health_records SET deleted_at = now()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`, id, userID)
	if err != nil {
		if err = mapKeyErr(err); errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// WithinDay serialises writers for one (user, day) with a transaction-scoped
// advisory lock; the lock is released on commit or rollback.
func (r *HealthRecordRepository) WithinDay(ctx context.Context, userID string, day time.Time, fn func(repository.HealthRecordRepository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, userID+"|"+dayString(day)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := fn(&HealthRecordRepository{db: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func dayString(t time.Time) string {
	return t.Format("2006-01-02")
}

var _ repository.HealthRecordRepository = (*HealthRecordRepository)(nil)
