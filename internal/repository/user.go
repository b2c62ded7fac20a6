package repository

import (
	"context"
	"time"

	"shoe-market-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, user_name, phone_number, password_hash, is_admin, push_token, record_refs, created_at`

// UserRepository handles database operations for users
type UserRepository struct {
	base
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool, timeout time.Duration) *UserRepository {
	return &UserRepository{base: base{db: db, timeout: timeout}}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO users (id, user_name, phone_number, password_hash, is_admin, push_token, record_refs, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	refs := user.RecordRefs
	if refs == nil {
		refs = []string{}
	}
	_, err := r.db.Exec(ctx, query,
		user.ID, user.UserName, user.PhoneNumber, user.PasswordHash,
		user.IsAdmin, user.PushToken, refs, user.CreatedAt,
	)
	return classify("failed to create user", err)
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, classify("failed to get user", err)
	}
	return user, nil
}

// GetByPhone retrieves a user by phone number
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number = $1`, phone)
	user, err := scanUser(row)
	if err != nil {
		return nil, classify("failed to get user by phone", err)
	}
	return user, nil
}

// List returns every user ordered by creation time
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, classify("failed to list users", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, classify("failed to scan user", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("error iterating users", err)
	}
	return users, nil
}

// Update overwrites the mutable profile fields of a user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		UPDATE users
		SET user_name = $2, phone_number = $3, password_hash = $4, is_admin = $5, push_token = $6
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query,
		user.ID, user.UserName, user.PhoneNumber, user.PasswordHash, user.IsAdmin, user.PushToken,
	)
	if err != nil {
		return classify("failed to update user", err)
	}
	if result.RowsAffected() == 0 {
		return classify("failed to update user", pgx.ErrNoRows)
	}
	return nil
}

// Delete deletes a user and returns the removed row
func (r *UserRepository) Delete(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRow(ctx, `DELETE FROM users WHERE id = $1 RETURNING `+userColumns, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, classify("failed to delete user", err)
	}
	return user, nil
}

// AppendRecordRef adds a record id to the user's back-reference list
func (r *UserRepository) AppendRecordRef(ctx context.Context, userID, recordID string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `UPDATE users SET record_refs = array_append(record_refs, $2) WHERE id = $1`
	result, err := r.db.Exec(ctx, query, userID, recordID)
	if err != nil {
		return classify("failed to append user record ref", err)
	}
	if result.RowsAffected() == 0 {
		return classify("failed to append user record ref", pgx.ErrNoRows)
	}
	return nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.UserName, &user.PhoneNumber, &user.PasswordHash,
		&user.IsAdmin, &user.PushToken, &user.RecordRefs, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
