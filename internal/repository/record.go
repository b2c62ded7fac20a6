package repository

import (
	"context"
	"time"

	"shoe-market-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const recordColumns = `id, date, delivered, user_id, shoe_ids`

// RecordRepository handles database operations for purchase records
type RecordRepository struct {
	base
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *pgxpool.Pool, timeout time.Duration) *RecordRepository {
	return &RecordRepository{base: base{db: db, timeout: timeout}}
}

// Create creates a new record
func (r *RecordRepository) Create(ctx context.Context, record *models.Record) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO records (id, date, delivered, user_id, shoe_ids)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query,
		record.ID, record.Date, record.Delivered, record.UserID, record.ShoeIDs,
	)
	return classify("failed to create record", err)
}

// GetByID retrieves a record by ID
func (r *RecordRepository) GetByID(ctx context.Context, id string) (*models.Record, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRow(ctx, `SELECT `+recordColumns+` FROM records WHERE id = $1`, id)
	record, err := scanRecord(row)
	if err != nil {
		return nil, classify("failed to get record", err)
	}
	return record, nil
}

// List returns every record, oldest first
func (r *RecordRepository) List(ctx context.Context) ([]*models.Record, error) {
	return r.query(ctx, "failed to list records",
		`SELECT `+recordColumns+` FROM records ORDER BY date, id`)
}

// ListByUser returns the records owned by a user
func (r *RecordRepository) ListByUser(ctx context.Context, userID string) ([]*models.Record, error) {
	return r.query(ctx, "failed to list records by user",
		`SELECT `+recordColumns+` FROM records WHERE user_id = $1 ORDER BY date, id`, userID)
}

// ListByShoe returns the records referencing a listing
func (r *RecordRepository) ListByShoe(ctx context.Context, shoeID string) ([]*models.Record, error) {
	return r.query(ctx, "failed to list records by shoe",
		`SELECT `+recordColumns+` FROM records WHERE $1 = ANY(shoe_ids) ORDER BY date, id`, shoeID)
}

// Update writes the delivered flag and shoe ids. It reports whether this write
// moved the record from pending to delivered; the row lock serializes racing updates.
func (r *RecordRepository) Update(ctx context.Context, record *models.Record) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		WITH prev AS (
			SELECT id, delivered FROM records WHERE id = $1 FOR UPDATE
		)
		UPDATE records r
		SET delivered = r.delivered OR $2, shoe_ids = $3
		FROM prev
		WHERE r.id = prev.id
		RETURNING r.delivered, r.delivered AND NOT prev.delivered
	`
	var flipped bool
	err := r.db.QueryRow(ctx, query, record.ID, record.Delivered, record.ShoeIDs).Scan(&record.Delivered, &flipped)
	if err != nil {
		return false, classify("failed to update record", err)
	}
	return flipped, nil
}

// Delete deletes a record and returns the removed row
func (r *RecordRepository) Delete(ctx context.Context, id string) (*models.Record, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRow(ctx, `DELETE FROM records WHERE id = $1 RETURNING `+recordColumns, id)
	record, err := scanRecord(row)
	if err != nil {
		return nil, classify("failed to delete record", err)
	}
	return record, nil
}

func (r *RecordRepository) query(ctx context.Context, op, query string, args ...any) ([]*models.Record, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	records := []*models.Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return records, nil
}

func scanRecord(row pgx.Row) (*models.Record, error) {
	var record models.Record
	err := row.Scan(&record.ID, &record.Date, &record.Delivered, &record.UserID, &record.ShoeIDs)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
