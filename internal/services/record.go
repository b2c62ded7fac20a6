package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"shoe-market-backend/internal/models"
	"shoe-market-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Record event types published to connected clients
const (
	EventRecordCreated = "record_created"
	EventRecordUpdated = "record_updated"
	EventRecordDeleted = "record_deleted"
)

// RecordEventPublisher fans record changes out to interested clients
type RecordEventPublisher interface {
	PublishRecordEvent(eventType string, record *models.Record)
}

// PushNotifier tells a user's device that a purchase was delivered
type PushNotifier interface {
	NotifyDelivered(ctx context.Context, user *models.User, record *models.Record) error
}

// CreateRecordRequest is the body of POST /records
type CreateRecordRequest struct {
	UserID  string   `json:"userId" validate:"required"`
	ShoeIDs []string `json:"shoeIds" validate:"required,min=1,dive,required"`
}

// UpdateRecordRequest is the body of PUT /records/{id}. At least one field must be present.
type UpdateRecordRequest struct {
	Delivered *bool    `json:"delivered"`
	ShoeIDs   []string `json:"shoeIds" validate:"omitempty,dive,required"`
}

// RecordService is the purchase ledger
type RecordService struct {
	records    repository.RecordStore
	users      repository.UserStore
	shoes      repository.ShoeStore
	bookkeeper *Bookkeeper
	events     RecordEventPublisher
	push       PushNotifier
}

// NewRecordService creates the ledger. events and push may be nil.
func NewRecordService(
	records repository.RecordStore,
	users repository.UserStore,
	shoes repository.ShoeStore,
	bookkeeper *Bookkeeper,
	events RecordEventPublisher,
	push PushNotifier,
) *RecordService {
	if push == nil {
		push = NoopNotifier{}
	}
	return &RecordService{
		records:    records,
		users:      users,
		shoes:      shoes,
		bookkeeper: bookkeeper,
		events:     events,
		push:       push,
	}
}

// CreateRecord records a purchase of shoeIds by userId.
// Nothing is written unless the user and every shoe exist.
func (s *RecordService) CreateRecord(ctx context.Context, req CreateRecordRequest, claim models.Claim) (*models.Record, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.ShoeIDs = trimIDs(req.ShoeIDs)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if !claim.CanActFor(req.UserID) {
		return nil, fmt.Errorf("%w: cannot record a purchase for another user", models.ErrForbidden)
	}

	if err := s.checkShoes(ctx, req.ShoeIDs); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, &models.InvalidReferenceError{Kind: "user", IDs: []string{req.UserID}}
		}
		return nil, err
	}

	record := &models.Record{
		ID:        uuid.New().String(),
		Date:      time.Now().UTC(),
		Delivered: false,
		UserID:    req.UserID,
		ShoeIDs:   req.ShoeIDs,
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create record: %w", err)
	}

	log.Info().
		Str("record_id", record.ID).
		Str("user_id", record.UserID).
		Int("shoes", len(record.ShoeIDs)).
		Msg("Purchase recorded")

	s.linkUser(record.UserID, record.ID)
	s.linkShoes(record.ShoeIDs, record.ID)
	s.publish(EventRecordCreated, record)

	return record, nil
}

// GetRecord returns a record by id
func (s *RecordService) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	return s.records.GetByID(ctx, id)
}

// ListAll returns every record; admins only
func (s *RecordService) ListAll(ctx context.Context, claim models.Claim) ([]*models.Record, error) {
	if !claim.IsAdmin {
		return nil, fmt.Errorf("%w: admin only", models.ErrForbidden)
	}
	return s.records.List(ctx)
}

// ListByUser returns a user's records. The result is empty, not an error, when there are none.
func (s *RecordService) ListByUser(ctx context.Context, userID string, claim models.Claim) ([]*models.Record, error) {
	if !claim.CanActFor(userID) {
		return nil, fmt.Errorf("%w: cannot list another user's records", models.ErrForbidden)
	}
	return s.records.ListByUser(ctx, userID)
}

// ListByShoe returns every record referencing shoeID; admins only
func (s *RecordService) ListByShoe(ctx context.Context, shoeID string, claim models.Claim) ([]*models.Record, error) {
	if !claim.IsAdmin {
		return nil, fmt.Errorf("%w: admin only", models.ErrForbidden)
	}
	return s.records.ListByShoe(ctx, shoeID)
}

// UpdateRecord changes delivery status and/or the shoe list.
// delivered only moves from pending to delivered.
func (s *RecordService) UpdateRecord(ctx context.Context, id string, req UpdateRecordRequest, claim models.Claim) (*models.Record, error) {
	if req.Delivered == nil && req.ShoeIDs == nil {
		return nil, models.NewValidationError("body", "must include delivered or shoeIds")
	}
	if req.ShoeIDs != nil {
		req.ShoeIDs = trimIDs(req.ShoeIDs)
		if len(req.ShoeIDs) == 0 {
			return nil, models.NewValidationError("shoeIds", "must contain at least 1 item(s)")
		}
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !claim.CanActFor(record.UserID) {
		return nil, fmt.Errorf("%w: cannot update another user's record", models.ErrForbidden)
	}
	if req.Delivered != nil && !*req.Delivered && record.Delivered {
		return nil, fmt.Errorf("%w: record %s is already delivered", models.ErrInvalidTransition, record.ID)
	}

	var added []string
	if req.ShoeIDs != nil {
		if err := s.checkShoes(ctx, req.ShoeIDs); err != nil {
			return nil, err
		}
		for _, shoeID := range req.ShoeIDs {
			if !slices.Contains(record.ShoeIDs, shoeID) {
				added = append(added, shoeID)
			}
		}
		record.ShoeIDs = req.ShoeIDs
	}

	if req.Delivered != nil {
		record.Delivered = *req.Delivered
	}

	delivered, err := s.records.Update(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to update record: %w", err)
	}

	s.linkShoes(added, record.ID)
	if delivered {
		log.Info().Str("record_id", record.ID).Msg("Purchase delivered")
		s.notifyDelivered(record)
	}
	s.publish(EventRecordUpdated, record)

	return record, nil
}

// DeleteRecord removes a record; admins only. Back-references to it are left in place.
func (s *RecordService) DeleteRecord(ctx context.Context, id string, claim models.Claim) (*models.Record, error) {
	if !claim.IsAdmin {
		return nil, fmt.Errorf("%w: only admins may delete records", models.ErrForbidden)
	}
	record, err := s.records.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(EventRecordDeleted, record)
	return record, nil
}

// checkShoes fails with an InvalidReferenceError naming every unknown id
func (s *RecordService) checkShoes(ctx context.Context, ids []string) error {
	existing, err := s.shoes.ExistingIDs(ctx, ids)
	if err != nil {
		return err
	}

	var missing []string
	for _, id := range ids {
		if !slices.Contains(existing, id) && !slices.Contains(missing, id) {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return &models.InvalidReferenceError{Kind: "shoe", IDs: missing}
	}
	return nil
}

func (s *RecordService) linkUser(userID, recordID string) {
	if s.bookkeeper == nil {
		return
	}
	s.bookkeeper.Submit(BookkeepingJob{
		Kind:     "user",
		TargetID: userID,
		RecordID: recordID,
		Run: func(ctx context.Context) error {
			return s.users.AppendRecordRef(ctx, userID, recordID)
		},
	})
}

func (s *RecordService) linkShoes(shoeIDs []string, recordID string) {
	if s.bookkeeper == nil {
		return
	}
	seen := make(map[string]struct{}, len(shoeIDs))
	for _, shoeID := range shoeIDs {
		if _, ok := seen[shoeID]; ok {
			continue
		}
		seen[shoeID] = struct{}{}

		s.bookkeeper.Submit(BookkeepingJob{
			Kind:     "shoe",
			TargetID: shoeID,
			RecordID: recordID,
			Run: func(ctx context.Context) error {
				return s.shoes.AppendRecordRef(ctx, shoeID, recordID)
			},
		})
	}
}

func (s *RecordService) notifyDelivered(record *models.Record) {
	if s.bookkeeper == nil {
		return
	}
	snapshot := *record
	s.bookkeeper.Submit(BookkeepingJob{
		Kind:     "push",
		TargetID: record.UserID,
		RecordID: record.ID,
		Run: func(ctx context.Context) error {
			user, err := s.users.GetByID(ctx, snapshot.UserID)
			if err != nil {
				return err
			}
			if user.PushToken == nil {
				return nil
			}
			return s.push.NotifyDelivered(ctx, user, &snapshot)
		},
	})
}

func (s *RecordService) publish(eventType string, record *models.Record) {
	if s.events == nil {
		return
	}
	s.events.PublishRecordEvent(eventType, record)
}

func trimIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strings.TrimSpace(id)
	}
	return out
}
