package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"shoe-market-backend/internal/models"
	"shoe-market-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateShoeRequest is the body of POST /shoes
type CreateShoeRequest struct {
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category" validate:"required,oneof=sneakers sandals classic"`
	SubCategory string          `json:"subCategory" validate:"required,oneof=male female child"`
	Sizes       []float64       `json:"sizes" validate:"required,min=1,dive,gt=0"`
	ImageRef    string          `json:"imageRef" validate:"required"`
}

// UpdateShoeRequest is the body of PUT /shoes/{id}. Absent fields are left unchanged.
type UpdateShoeRequest struct {
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category" validate:"omitempty,oneof=sneakers sandals classic"`
	SubCategory *string          `json:"subCategory" validate:"omitempty,oneof=male female child"`
	Sizes       []float64        `json:"sizes" validate:"omitempty,min=1,dive,gt=0"`
	ImageRef    *string          `json:"imageRef" validate:"omitempty,min=1"`
}

// ShoeService manages the listing catalog
type ShoeService struct {
	shoeRepo repository.ShoeStore
}

// NewShoeService creates a new shoe service
func NewShoeService(shoeRepo repository.ShoeStore) *ShoeService {
	return &ShoeService{shoeRepo: shoeRepo}
}

// CreateShoe adds a listing; admins only
func (s *ShoeService) CreateShoe(ctx context.Context, req CreateShoeRequest, claim models.Claim) (*models.Shoe, error) {
	req.ImageRef = strings.TrimSpace(req.ImageRef)
	if err := validateShoe(req); err != nil {
		return nil, err
	}
	if !claim.IsAdmin {
		return nil, fmt.Errorf("%w: only admins may create listings", models.ErrForbidden)
	}

	shoe := &models.Shoe{
		ID:          uuid.New().String(),
		Price:       req.Price,
		Category:    req.Category,
		SubCategory: req.SubCategory,
		Sizes:       req.Sizes,
		ImageRef:    req.ImageRef,
		RecordRefs:  []string{},
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.shoeRepo.Create(ctx, shoe); err != nil {
		return nil, fmt.Errorf("failed to create shoe: %w", err)
	}
	return shoe, nil
}

// GetShoe returns a listing by id
func (s *ShoeService) GetShoe(ctx context.Context, id string) (*models.Shoe, error) {
	return s.shoeRepo.GetByID(ctx, id)
}

// ListShoes returns the whole catalog
func (s *ShoeService) ListShoes(ctx context.Context) ([]*models.Shoe, error) {
	return s.shoeRepo.List(ctx)
}

// ListByCategory returns listings in a category, narrowed by subCategory when it is set
func (s *ShoeService) ListByCategory(ctx context.Context, category, subCategory string) ([]*models.Shoe, error) {
	if !slices.Contains(models.Categories, category) {
		return nil, models.NewValidationError("category", "must be one of: "+strings.Join(models.Categories, ", "))
	}
	if subCategory != "" && !slices.Contains(models.SubCategories, subCategory) {
		return nil, models.NewValidationError("subCategory", "must be one of: "+strings.Join(models.SubCategories, ", "))
	}
	return s.shoeRepo.ListByCategory(ctx, category, subCategory)
}

// UpdateShoe changes a listing; admins only
func (s *ShoeService) UpdateShoe(ctx context.Context, id string, req UpdateShoeRequest, claim models.Claim) (*models.Shoe, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.Price != nil {
		if msg := priceProblem(*req.Price); msg != "" {
			return nil, models.NewValidationError("price", msg)
		}
	}
	if req.Sizes != nil && len(req.Sizes) == 0 {
		return nil, models.NewValidationError("sizes", "must contain at least 1 item(s)")
	}
	if !claim.IsAdmin {
		return nil, fmt.Errorf("%w: only admins may update listings", models.ErrForbidden)
	}

	shoe, err := s.shoeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Price != nil {
		shoe.Price = *req.Price
	}
	if req.Category != nil {
		shoe.Category = *req.Category
	}
	if req.SubCategory != nil {
		shoe.SubCategory = *req.SubCategory
	}
	if req.Sizes != nil {
		shoe.Sizes = req.Sizes
	}
	if req.ImageRef != nil {
		shoe.ImageRef = strings.TrimSpace(*req.ImageRef)
	}

	if err := s.shoeRepo.Update(ctx, shoe); err != nil {
		return nil, fmt.Errorf("failed to update shoe: %w", err)
	}
	return shoe, nil
}

// AttachImage points a listing at a newly uploaded image
func (s *ShoeService) AttachImage(ctx context.Context, id, imageRef string, claim models.Claim) (*models.Shoe, error) {
	return s.UpdateShoe(ctx, id, UpdateShoeRequest{ImageRef: &imageRef}, claim)
}

// DeleteShoe removes a listing; admins only. Records referencing it are left alone.
func (s *ShoeService) DeleteShoe(ctx context.Context, id string, claim models.Claim) (*models.Shoe, error) {
	if !claim.IsAdmin {
		return nil, fmt.Errorf("%w: only admins may delete listings", models.ErrForbidden)
	}
	return s.shoeRepo.Delete(ctx, id)
}

func validateShoe(req CreateShoeRequest) error {
	err := validateStruct(req)
	msg := priceProblem(req.Price)
	if msg == "" {
		return err
	}
	if err == nil {
		return models.NewValidationError("price", msg)
	}
	if ve, ok := err.(*models.ValidationError); ok {
		ve.Fields["price"] = msg
	}
	return err
}

// maxPrice is the first value that no longer fits NUMERIC(12,2)
var maxPrice = decimal.New(1, 10)

// priceProblem returns why a price is unacceptable, or "" when it is fine.
// Prices are whole cents so both stores keep exactly what was sent.
func priceProblem(price decimal.Decimal) string {
	switch {
	case !price.IsPositive():
		return "must be greater than 0"
	case !price.Equal(price.Round(2)):
		return "must have at most 2 decimal places"
	case price.GreaterThanOrEqual(maxPrice):
		return "must be less than " + maxPrice.String()
	}
	return ""
}
