package repository

import (
	"context"
	"fmt"
	"time"

	"shoe-market-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const shoeColumns = `id, price::text, category, sub_category, sizes, image_ref, record_refs, created_at`

// ShoeRepository handles database operations for shoe listings
type ShoeRepository struct {
	base
}

// NewShoeRepository creates a new shoe repository
func NewShoeRepository(db *pgxpool.Pool, timeout time.Duration) *ShoeRepository {
	return &ShoeRepository{base: base{db: db, timeout: timeout}}
}

// Create creates a new listing
func (r *ShoeRepository) Create(ctx context.Context, shoe *models.Shoe) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO shoes (id, price, category, sub_category, sizes, image_ref, record_refs, created_at)
		VALUES ($1, $2::numeric, $3, $4, $5, $6, $7, $8)
	`
	refs := shoe.RecordRefs
	if refs == nil {
		refs = []string{}
	}
	_, err := r.db.Exec(ctx, query,
		shoe.ID, shoe.Price.String(), shoe.Category, shoe.SubCategory,
		shoe.Sizes, shoe.ImageRef, refs, shoe.CreatedAt,
	)
	return classify("failed to create shoe", err)
}

// GetByID retrieves a listing by ID
func (r *ShoeRepository) GetByID(ctx context.Context, id string) (*models.Shoe, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRow(ctx, `SELECT `+shoeColumns+` FROM shoes WHERE id = $1`, id)
	shoe, err := scanShoe(row)
	if err != nil {
		return nil, classify("failed to get shoe", err)
	}
	return shoe, nil
}

// List returns every listing
func (r *ShoeRepository) List(ctx context.Context) ([]*models.Shoe, error) {
	return r.query(ctx, "failed to list shoes",
		`SELECT `+shoeColumns+` FROM shoes ORDER BY created_at, id`)
}

// ListByCategory returns listings in a category, optionally narrowed to a sub-category
func (r *ShoeRepository) ListByCategory(ctx context.Context, category, subCategory string) ([]*models.Shoe, error) {
	if subCategory == "" {
		return r.query(ctx, "failed to list shoes by category",
			`SELECT `+shoeColumns+` FROM shoes WHERE category = $1 ORDER BY created_at, id`, category)
	}
	return r.query(ctx, "failed to list shoes by sub-category",
		`SELECT `+shoeColumns+` FROM shoes WHERE category = $1 AND sub_category = $2 ORDER BY created_at, id`,
		category, subCategory)
}

// ExistingIDs returns the ids among the given ones that exist
func (r *ShoeRepository) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT id FROM shoes WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, classify("failed to check shoe ids", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, classify("failed to check shoe ids", err)
	}
	return found, nil
}

// Update overwrites the listing's catalog fields
func (r *ShoeRepository) Update(ctx context.Context, shoe *models.Shoe) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		UPDATE shoes
		SET price = $2::numeric, category = $3, sub_category = $4, sizes = $5, image_ref = $6
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query,
		shoe.ID, shoe.Price.String(), shoe.Category, shoe.SubCategory, shoe.Sizes, shoe.ImageRef,
	)
	if err != nil {
		return classify("failed to update shoe", err)
	}
	if result.RowsAffected() == 0 {
		return classify("failed to update shoe", pgx.ErrNoRows)
	}
	return nil
}

// Delete deletes a listing and returns the removed row. Records are left untouched.
func (r *ShoeRepository) Delete(ctx context.Context, id string) (*models.Shoe, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRow(ctx, `DELETE FROM shoes WHERE id = $1 RETURNING `+shoeColumns, id)
	shoe, err := scanShoe(row)
	if err != nil {
		return nil, classify("failed to delete shoe", err)
	}
	return shoe, nil
}

// AppendRecordRef adds a record id to the listing's back-reference list
func (r *ShoeRepository) AppendRecordRef(ctx context.Context, shoeID, recordID string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `UPDATE shoes SET record_refs = array_append(record_refs, $2) WHERE id = $1`
	result, err := r.db.Exec(ctx, query, shoeID, recordID)
	if err != nil {
		return classify("failed to append shoe record ref", err)
	}
	if result.RowsAffected() == 0 {
		return classify("failed to append shoe record ref", pgx.ErrNoRows)
	}
	return nil
}

func (r *ShoeRepository) query(ctx context.Context, op, query string, args ...any) ([]*models.Shoe, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	shoes := []*models.Shoe{}
	for rows.Next() {
		shoe, err := scanShoe(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		shoes = append(shoes, shoe)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return shoes, nil
}

func scanShoe(row pgx.Row) (*models.Shoe, error) {
	var shoe models.Shoe
	var price string
	err := row.Scan(
		&shoe.ID, &price, &shoe.Category, &shoe.SubCategory,
		&shoe.Sizes, &shoe.ImageRef, &shoe.RecordRefs, &shoe.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	shoe.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("invalid stored price %q: %w", price, err)
	}
	return &shoe, nil
}
