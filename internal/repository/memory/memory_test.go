package memory

import (
	"context"
	"testing"
	"time"

	"shoe-market-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserStore_PhoneUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()

	require.NoError(t, s.Create(ctx, &models.User{ID: "u1", PhoneNumber: "555000"}))
	require.NoError(t, s.Create(ctx, &models.User{ID: "u2", PhoneNumber: "555001"}))

	err := s.Create(ctx, &models.User{ID: "u3", PhoneNumber: "555000"})
	assert.ErrorIs(t, err, models.ErrConflict)

	// Keeping your own phone is not a collision
	require.NoError(t, s.Update(ctx, &models.User{ID: "u1", PhoneNumber: "555000", UserName: "renamed"}))

	err = s.Update(ctx, &models.User{ID: "u2", PhoneNumber: "555000"})
	assert.ErrorIs(t, err, models.ErrConflict)

	err = s.Update(ctx, &models.User{ID: "missing", PhoneNumber: "1"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()
	require.NoError(t, s.Create(ctx, &models.User{ID: "u1", PhoneNumber: "1"}))

	u, err := s.GetByID(ctx, "u1")
	require.NoError(t, err)
	u.RecordRefs = append(u.RecordRefs, "r-injected")

	again, err := s.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, again.RecordRefs)

	require.NoError(t, s.AppendRecordRef(ctx, "u1", "r1"))
	again, err = s.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, again.RecordRefs)
}

func TestShoeStore_CategoryAndExistingIDs(t *testing.T) {
	ctx := context.Background()
	s := NewShoeStore()
	price := decimal.RequireFromString("49.99")

	require.NoError(t, s.Create(ctx, &models.Shoe{ID: "s1", Price: price, Category: "sneakers", SubCategory: "male", Sizes: []float64{42}}))
	require.NoError(t, s.Create(ctx, &models.Shoe{ID: "s2", Price: price, Category: "sneakers", SubCategory: "female", Sizes: []float64{38}}))
	require.NoError(t, s.Create(ctx, &models.Shoe{ID: "s3", Price: price, Category: "classic", SubCategory: "male", Sizes: []float64{44}}))

	sneakers, err := s.ListByCategory(ctx, "sneakers", "")
	require.NoError(t, err)
	assert.Len(t, sneakers, 2)

	female, err := s.ListByCategory(ctx, "sneakers", "female")
	require.NoError(t, err)
	require.Len(t, female, 1)
	assert.Equal(t, "s2", female[0].ID)

	found, err := s.ExistingIDs(ctx, []string{"s1", "nope", "s3", "s1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s3"}, found)
}

func TestRecordStore_QueriesAndMonotonicDelivery(t *testing.T) {
	ctx := context.Background()
	s := NewRecordStore()

	require.NoError(t, s.Create(ctx, &models.Record{ID: "r1", UserID: "u1", ShoeIDs: []string{"s1", "s2"}, Date: time.Now()}))
	require.NoError(t, s.Create(ctx, &models.Record{ID: "r2", UserID: "u2", ShoeIDs: []string{"s2"}, Date: time.Now()}))

	byUser, err := s.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, "r1", byUser[0].ID)

	byShoe, err := s.ListByShoe(ctx, "s2")
	require.NoError(t, err)
	assert.Len(t, byShoe, 2)

	none, err := s.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	delivered := &models.Record{ID: "r1", Delivered: true, ShoeIDs: []string{"s1"}}
	flipped, err := s.Update(ctx, delivered)
	require.NoError(t, err)
	assert.True(t, flipped)

	flipped, err = s.Update(ctx, &models.Record{ID: "r1", Delivered: true, ShoeIDs: []string{"s1"}})
	require.NoError(t, err)
	assert.False(t, flipped, "already delivered")

	revert := &models.Record{ID: "r1", Delivered: false, ShoeIDs: []string{"s1"}}
	flipped, err = s.Update(ctx, revert)
	require.NoError(t, err)
	assert.False(t, flipped)
	assert.True(t, revert.Delivered)

	got, err := s.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, got.Delivered)
	assert.Equal(t, []string{"s1"}, got.ShoeIDs)
}

func TestStores_ExpiredContextIsUnavailable(t *testing.T) {
	stores := New()
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := stores.Records.List(ctx)
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)

	_, err = stores.Users.GetByID(ctx, "u1")
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
}

func TestDelete_NotFound(t *testing.T) {
	stores := New()
	ctx := context.Background()

	_, err := stores.Records.Delete(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = stores.Shoes.Delete(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = stores.Users.Delete(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
