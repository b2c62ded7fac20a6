package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shoe-market-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserStore persists user accounts. Phone numbers are unique.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) (*models.User, error)
	AppendRecordRef(ctx context.Context, userID, recordID string) error
}

// ShoeStore persists shoe listings
type ShoeStore interface {
	Create(ctx context.Context, shoe *models.Shoe) error
	GetByID(ctx context.Context, id string) (*models.Shoe, error)
	List(ctx context.Context) ([]*models.Shoe, error)
	// ListByCategory filters by category, and by subCategory when it is non-empty
	ListByCategory(ctx context.Context, category, subCategory string) ([]*models.Shoe, error)
	// ExistingIDs returns the subset of ids that exist
	ExistingIDs(ctx context.Context, ids []string) ([]string, error)
	Update(ctx context.Context, shoe *models.Shoe) error
	Delete(ctx context.Context, id string) (*models.Shoe, error)
	AppendRecordRef(ctx context.Context, shoeID, recordID string) error
}

// RecordStore persists purchase records
type RecordStore interface {
	Create(ctx context.Context, record *models.Record) error
	GetByID(ctx context.Context, id string) (*models.Record, error)
	List(ctx context.Context) ([]*models.Record, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Record, error)
	ListByShoe(ctx context.Context, shoeID string) ([]*models.Record, error)
	// Update writes delivered and shoe ids. A delivered record never reverts to pending.
	// The bool is true only for the write that moved the record to delivered.
	Update(ctx context.Context, record *models.Record) (bool, error)
	Delete(ctx context.Context, id string) (*models.Record, error)
}

// Ensure the Postgres repositories satisfy the store interfaces at compile time.
var (
	_ UserStore   = (*UserRepository)(nil)
	_ ShoeStore   = (*ShoeRepository)(nil)
	_ RecordStore = (*RecordRepository)(nil)
)

// Stores bundles the three stores behind one handle
type Stores struct {
	Users   UserStore
	Shoes   ShoeStore
	Records RecordStore
	Close   func()
}

// Open connects to PostgreSQL, applies migrations and returns the stores
func Open(ctx context.Context, dsn string, maxConns int32, timeout time.Duration) (*Stores, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &Stores{
		Users:   NewUserRepository(pool, timeout),
		Shoes:   NewShoeRepository(pool, timeout),
		Records: NewRecordRepository(pool, timeout),
		Close:   pool.Close,
	}, nil
}

// base carries the pool and the per-call timeout shared by every repository
type base struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func (b base) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.timeout)
}

// classify maps driver errors onto the model error taxonomy
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return fmt.Errorf("%s: %w: %s", op, models.ErrConflict, pgErr.ConstraintName)
		case pgErr.Code == "23514":
			return fmt.Errorf("%s: %w: %s", op, models.ErrValidation, pgErr.ConstraintName)
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08", pgErr.Code == "57P01", pgErr.Code == "57014":
			return fmt.Errorf("%s: %w: %w", op, models.ErrStoreUnavailable, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var connErr *pgconn.ConnectError
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || errors.As(err, &connErr) {
		return fmt.Errorf("%s: %w: %w", op, models.ErrStoreUnavailable, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
