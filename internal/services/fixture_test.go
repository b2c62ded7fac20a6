package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"shoe-market-backend/internal/models"
	"shoe-market-backend/internal/repository"
	"shoe-market-backend/internal/repository/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const adminPhone = "5550000"

var adminClaim = models.Claim{Subject: "admin-1", IsAdmin: true}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) PublishRecordEvent(eventType string, record *models.Record) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType+":"+record.ID)
}

func (p *recordingPublisher) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

type recordingNotifier struct {
	mu        sync.Mutex
	delivered []string
}

func (n *recordingNotifier) NotifyDelivered(_ context.Context, user *models.User, record *models.Record) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.delivered = append(n.delivered, user.ID+":"+record.ID)
	return nil
}

func (n *recordingNotifier) Delivered() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.delivered...)
}

type fixture struct {
	stores     *repository.Stores
	tokens     *TokenManager
	users      *UserService
	auth       *AuthService
	shoes      *ShoeService
	records    *RecordService
	bookkeeper *Bookkeeper
	events     *recordingPublisher
	push       *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithStores(t, memory.New())
}

func newFixtureWithStores(t *testing.T, stores *repository.Stores) *fixture {
	t.Helper()

	hasher := NewPasswordHasher(bcrypt.MinCost)
	tokens := NewTokenManager("test-secret", "shoe-market-test", time.Hour)
	users := NewUserService(stores.Users, hasher)
	bookkeeper := NewBookkeeper(2, 64, time.Second)
	t.Cleanup(bookkeeper.Close)

	f := &fixture{
		stores:     stores,
		tokens:     tokens,
		users:      users,
		auth:       NewAuthService(users, hasher, tokens, []string{adminPhone}),
		shoes:      NewShoeService(stores.Shoes),
		bookkeeper: bookkeeper,
		events:     &recordingPublisher{},
		push:       &recordingNotifier{},
	}
	f.records = NewRecordService(stores.Records, stores.Users, stores.Shoes, bookkeeper, f.events, f.push)
	return f
}

func (f *fixture) signup(t *testing.T, name, phone string) *models.User {
	t.Helper()
	user, err := f.auth.Signup(context.Background(), SignupRequest{
		UserName:    name,
		PhoneNumber: phone,
		Password:    "secret123",
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) addShoe(t *testing.T, category, subCategory string) *models.Shoe {
	t.Helper()
	shoe, err := f.shoes.CreateShoe(context.Background(), CreateShoeRequest{
		Price:       decimal.RequireFromString("79.90"),
		Category:    category,
		SubCategory: subCategory,
		Sizes:       []float64{40, 41, 42.5},
		ImageRef:    "https://images.example.com/" + category + ".jpg",
	}, adminClaim)
	require.NoError(t, err)
	return shoe
}

func claimFor(user *models.User) models.Claim {
	return models.Claim{Subject: user.ID, PhoneNumber: user.PhoneNumber, IsAdmin: user.IsAdmin}
}

func boolPtr(b bool) *bool {
	return &b
}

func strPtr(s string) *string {
	return &s
}
