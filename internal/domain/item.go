package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item represents a priced, categorized catalog record
type Item struct {
	ID          int64           `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Category    string          `json:"category" db:"category"`
	Price       decimal.Decimal `json:"price" db:"price"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// ItemFields carries the writable fields of an Item. A nil field was not
// supplied by the caller.
type ItemFields struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
}

// Apply copies every supplied field onto item.
func (f ItemFields) Apply(item *Item) {
	if f.Name != nil {
		item.Name = *f.Name
	}
	if f.Description != nil {
		item.Description = *f.Description
	}
	if f.Category != nil {
		item.Category = *f.Category
	}
	if f.Price != nil {
		item.Price = *f.Price
	}
}
