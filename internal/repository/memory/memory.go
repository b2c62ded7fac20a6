// Package memory implements the repository stores in process memory.
// It backs the "memory" database driver and the service and handler tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"shoe-market-backend/internal/models"
	"shoe-market-backend/internal/repository"
)

var (
	_ repository.UserStore   = (*UserStore)(nil)
	_ repository.ShoeStore   = (*ShoeStore)(nil)
	_ repository.RecordStore = (*RecordStore)(nil)
)

// New returns empty in-memory stores
func New() *repository.Stores {
	return &repository.Stores{
		Users:   NewUserStore(),
		Shoes:   NewShoeStore(),
		Records: NewRecordStore(),
		Close:   func() {},
	}
}

// table is an insertion-ordered map guarded by a mutex
type table[T any] struct {
	mu   sync.RWMutex
	seq  int64
	rows map[string]*entry[T]
}

type entry[T any] struct {
	seq int64
	val T
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]*entry[T])}
}

func (t *table[T]) sorted(keep func(T) bool, clone func(T) T) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entries := make([]*entry[T], 0, len(t.rows))
	for _, e := range t.rows {
		if keep == nil || keep(e.val) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]T, 0, len(entries))
	for _, e := range entries {
		out = append(out, clone(e.val))
	}
	return out
}

// checkCtx reports a cancelled or expired context the way the Postgres stores do
func checkCtx(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w: %w", op, models.ErrStoreUnavailable, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, models.ErrNotFound)
}

// UserStore keeps users in memory
type UserStore struct {
	t *table[*models.User]
}

// NewUserStore creates an empty user store
func NewUserStore() *UserStore {
	return &UserStore{t: newTable[*models.User]()}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.RecordRefs = append([]string{}, u.RecordRefs...)
	if u.PushToken != nil {
		token := *u.PushToken
		c.PushToken = &token
	}
	return &c
}

func (s *UserStore) phoneTaken(phone, exceptID string) bool {
	for id, e := range s.t.rows {
		if id != exceptID && e.val.PhoneNumber == phone {
			return true
		}
	}
	return false
}

// Create stores a new user
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	const op = "failed to create user"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	s.t.mu.Lock()
	defer s.t.mu.Unlock()

	if _, ok := s.t.rows[user.ID]; ok {
		return fmt.Errorf("%s: %w: duplicate id", op, models.ErrConflict)
	}
	if s.phoneTaken(user.PhoneNumber, "") {
		return fmt.Errorf("%s: %w: users_phone_number_unique_idx", op, models.ErrConflict)
	}
	s.t.seq++
	s.t.rows[user.ID] = &entry[*models.User]{seq: s.t.seq, val: cloneUser(user)}
	return nil
}

// GetByID retrieves a user by ID
func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	const op = "failed to get user"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()

	e, ok := s.t.rows[id]
	if !ok {
		return nil, notFound(op)
	}
	return cloneUser(e.val), nil
}

// GetByPhone retrieves a user by phone number
func (s *UserStore) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	const op = "failed to get user by phone"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()

	for _, e := range s.t.rows {
		if e.val.PhoneNumber == phone {
			return cloneUser(e.val), nil
		}
	}
	return nil, notFound(op)
}

// List returns users in insertion order
func (s *UserStore) List(ctx context.Context) ([]*models.User, error) {
	if err := checkCtx(ctx, "failed to list users"); err != nil {
		return nil, err
	}
	return s.t.sorted(nil, cloneUser), nil
}

// Update overwrites a user's profile fields, keeping record refs
func (s *UserStore) Update(ctx context.Context, user *models.User) error {
	const op = "failed to update user"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	s.t.mu.Lock()
	defer s.t.mu.Unlock()

	e, ok := s.t.rows[user.ID]
	if !ok {
		return notFound(op)
	}
	if s.phoneTaken(user.PhoneNumber, user.ID) {
		return fmt.Errorf("%s: %w: users_phone_number_unique_idx", op, models.ErrConflict)
	}
	updated := cloneUser(user)
	updated.RecordRefs = e.val.RecordRefs
	updated.CreatedAt = e.val.CreatedAt
	e.val = updated
	return nil
}

// Delete removes a user
func (s *UserStore) Delete(ctx context.Context, id string) (*models.User, error) {
	const op = "failed to delete user"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.t.mu.Lock()
	defer s.t.mu.Unlock()

	e, ok := s.t.rows[id]
	if !ok {
		return nil, notFound(op)
	}
	delete(s.t.rows, id)
	return e.val, nil
}

// AppendRecordRef adds a record id to the user's back-references
func (s *UserStore) AppendRecordRef(ctx context.Context, userID, recordID string) error {
	const op = "failed to append user record ref"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	s.t.mu.Lock()
	defer s.t.mu.Unlock()

	e, ok := s.t.rows[userID]
	if !ok {
		return notFound(op)
	}
	e.val.RecordRefs = append(e.val.RecordRefs, recordID)
	return nil
}

// ShoeStore keeps shoe listings in memory
type ShoeStore struct {
	t *table[*models.Shoe]
}

// NewShoeStore creates an empty shoe store
func NewShoeStore() *ShoeStore {
	return &ShoeStore{t: newTable[*models.Shoe]()}
}

func cloneShoe(s *models.Shoe) *models.Shoe {
	c := *s
	c.Sizes = append([]float64{}, s.Sizes...)
	c.RecordRefs = append([]string{}, s.RecordRefs...)
	return &c
}

// Create stores a new listing
func (s *ShoeStore) Create(ctx context.Context, shoe *models.Shoe) error {
	const op = "failed to create shoe"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	s.t.mu.Lock()
	defer s.t.mu.Unlock()

	if _, ok := s.t.rows[shoe.ID]; ok {
		return fmt.Errorf("%s: %w: duplicate id", op, models.ErrConflict)
	}
	s.t.seq++
	s.t.rows[shoe.ID] = &entry[*models.Shoe]{seq: s.t.seq, val: cloneShoe(shoe)}
	return nil
}

// GetByID retrieves a listing by ID
func (s *ShoeStore) GetByID(ctx context.Context, id string) (*models.Shoe, error) {
	const op = "failed to get shoe"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()

	e, ok := s.t.rows[id]
	if !ok {
		return nil, notFound(op)
	}
	return cloneShoe(e.val), nil
}

// List returns listings in insertion order
func (s *ShoeStore) List(ctx context.Context) ([]*models.Shoe, error) {
	if err := checkCtx(ctx, "failed to list shoes"); err != nil {
		return nil, err
	}
	return s.t.sorted(nil, cloneShoe), nil
}

// ListByCategory filters listings by category and optional sub-category
func (s *ShoeStore) ListByCategory(ctx context.Context, category, subCategory string) ([]*models.Shoe, error) {
	if err := checkCtx(ctx, "failed to list shoes by category"); err != nil {
		return nil, err
	}
	return s.t.sorted(func(shoe *models.Shoe) bool {
		return shoe.Category == category && (subCategory == "" || shoe.SubCategory == subCategory)
	}, cloneShoe), nil
}

// ExistingIDs returns the ids that exist
func (s *ShoeStore) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	if err := checkCtx(ctx, "failed to check shoe ids"); err != nil {
		return nil, err
	}
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()

	found := []string{}
	for _, id := range ids {
		if _, ok := s.t.rows[id]; ok && !slices.Contains(found, id) {
			found = append(found, id)
		}
	}
	return found, nil
}

// Update overwrites a listing's catalog fields, keeping record refs
func (s *ShoeStore) Update(ctx context.Context, shoe *models.Shoe) error {
	const op = "failed to update shoe"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	s.t.mu.Lock()
	defer s.t.mu.Unlock()

	e, ok := s.t.rows[shoe.ID]
	if !ok {
		return notFound(op)
	}
	updated := cloneShoe(shoe)
	updated.RecordRefs = e.val.RecordRefs
	updated.CreatedAt = e.val.CreatedAt
	e.val = updated
	return nil
}

// Delete removes a listing
func (s *ShoeStore) Delete(ctx context.Context, id string) (*models.Shoe, error) {
	const op = "failed to delete shoe"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.t.mu.Lock()
	defer s.t.mu.Unlock()

	e, ok := s.t.rows[id]
	if !ok {
		return nil, notFound(op)
	}
	delete(s.t.rows, id)
	return e.val, nil
}

// AppendRecordRef adds a record id to the listing's back-references
func (s *ShoeStore) AppendRecordRef(ctx context.Context, shoeID, recordID string) error {
	const op = "failed to append shoe record ref"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	s.t.mu.Lock()
	defer s.t.mu.Unlock()

	e, ok := s.t.rows[shoeID]
	if !ok {
		return notFound(op)
	}
	e.val.RecordRefs = append(e.val.RecordRefs, recordID)
	return nil
}

// RecordStore keeps purchase records in memory
type RecordStore struct {
	t *table[*models.Record]
}

// NewRecordStore creates an empty record store
func NewRecordStore() *RecordStore {
	return &RecordStore{t: newTable[*models.Record]()}
}

func cloneRecord(r *models.Record) *models.Record {
	c := *r
	c.ShoeIDs = append([]string{}, r.ShoeIDs...)
	return &c
}

// Create stores a new record
func (s *RecordStore) Create(ctx context.Context, record *models.Record) error {
	const op = "failed to create record"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	s.t.mu.Lock()
	defer s.t.mu.Unlock()

	if _, ok := s.t.rows[record.ID]; ok {
		return fmt.Errorf("%s: %w: duplicate id", op, models.ErrConflict)
	}
	s.t.seq++
	s.t.rows[record.ID] = &entry[*models.Record]{seq: s.t.seq, val: cloneRecord(record)}
	return nil
}

// GetByID retrieves a record by ID
func (s *RecordStore) GetByID(ctx context.Context, id string) (*models.Record, error) {
	const op = "failed to get record"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()

	e, ok := s.t.rows[id]
	if !ok {
		return nil, notFound(op)
	}
	return cloneRecord(e.val), nil
}

// List returns records in insertion order
func (s *RecordStore) List(ctx context.Context) ([]*models.Record, error) {
	if err := checkCtx(ctx, "failed to list records"); err != nil {
		return nil, err
	}
	return s.t.sorted(nil, cloneRecord), nil
}

// ListByUser returns the records owned by userID
func (s *RecordStore) ListByUser(ctx context.Context, userID string) ([]*models.Record, error) {
	if err := checkCtx(ctx, "failed to list records by user"); err != nil {
		return nil, err
	}
	return s.t.sorted(func(r *models.Record) bool { return r.UserID == userID }, cloneRecord), nil
}

// ListByShoe returns the records referencing shoeID
func (s *RecordStore) ListByShoe(ctx context.Context, shoeID string) ([]*models.Record, error) {
	if err := checkCtx(ctx, "failed to list records by shoe"); err != nil {
		return nil, err
	}
	return s.t.sorted(func(r *models.Record) bool { return slices.Contains(r.ShoeIDs, shoeID) }, cloneRecord), nil
}

// Update writes delivered and shoe ids; delivered never reverts
func (s *RecordStore) Update(ctx context.Context, record *models.Record) (bool, error) {
	const op = "failed to update record"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}
	s.t.mu.Lock()
	defer s.t.mu.Unlock()

	e, ok := s.t.rows[record.ID]
	if !ok {
		return false, notFound(op)
	}
	flipped := !e.val.Delivered && record.Delivered
	e.val.Delivered = e.val.Delivered || record.Delivered
	e.val.ShoeIDs = append([]string{}, record.ShoeIDs...)
	record.Delivered = e.val.Delivered
	return flipped, nil
}

// Delete removes a record
func (s *RecordStore) Delete(ctx context.Context, id string) (*models.Record, error) {
	const op = "failed to delete record"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.t.mu.Lock()
	defer s.t.mu.Unlock()

	e, ok := s.t.rows[id]
	if !ok {
		return nil, notFound(op)
	}
	delete(s.t.rows, id)
	return e.val, nil
}
