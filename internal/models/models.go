package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Shoe categories accepted by the catalog
const (
	CategorySneakers = "sneakers"
	CategorySandals  = "sandals"
	CategoryClassic  = "classic"
)

// Shoe sub-categories accepted by the catalog
const (
	SubCategoryMale   = "male"
	SubCategoryFemale = "female"
	SubCategoryChild  = "child"
)

func init() {
	// Prices are written as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// Categories lists every valid listing category
var Categories = []string{CategorySneakers, CategorySandals, CategoryClassic}

// SubCategories lists every valid listing sub-category
var SubCategories = []string{SubCategoryMale, SubCategoryFemale, SubCategoryChild}

// User represents a registered account
type User struct {
	ID           string    `json:"id"`
	UserName     string    `json:"userName"`
	PhoneNumber  string    `json:"phoneNumber"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	PushToken    *string   `json:"pushToken,omitempty"`
	RecordRefs   []string  `json:"recordRefs"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Shoe represents a shoe listing in the catalog
type Shoe struct {
	ID          string          `json:"id"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	SubCategory string          `json:"subCategory"`
	Sizes       []float64       `json:"sizes"`
	ImageRef    string          `json:"imageRef"`
	RecordRefs  []string        `json:"recordRefs"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Record represents a purchase of one or more listings by a user.
// RecordRefs on User and Shoe point back here but carry no authority;
// the records table queried by user_id / shoe_ids is the source of truth.
type Record struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Delivered bool      `json:"delivered"`
	UserID    string    `json:"userId"`
	ShoeIDs   []string  `json:"shoeIds"`
}

// Claim is the verified identity carried by a bearer token
type Claim struct {
	Subject     string    `json:"sub"`
	PhoneNumber string    `json:"phoneNumber"`
	IsAdmin     bool      `json:"isAdmin"`
	ExpiresAt   time.Time `json:"exp"`
}

// CanActFor reports whether the claim may act on behalf of userID
func (c Claim) CanActFor(userID string) bool {
	return c.IsAdmin || (c.Subject != "" && c.Subject == userID)
}
