package transport

import (
	"bytes"
	"encoding/json"
	"time"

	"item-catalog/internal/domain"

	"github.com/shopspring/decimal"
)

// ItemResponse is the JSON representation of an item
type ItemResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       string    `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewItemResponse converts a domain item into its response form
func NewItemResponse(item *domain.Item) ItemResponse {
	return ItemResponse{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Category:    item.Category,
		Price:       domain.FormatPrice(item.Price),
		CreatedAt:   item.CreatedAt.UTC(),
		UpdatedAt:   item.UpdatedAt.UTC(),
	}
}

// parseItemFields extracts the writable item fields from a decoded JSON
// object. Read-only and unknown members are ignored.
func parseItemFields(raw map[string]json.RawMessage) (domain.ItemFields, error) {
	var fields domain.ItemFields
	verr := &domain.ValidationError{}

	fields.Name = parseString(raw, "name", verr)
	fields.Description = parseString(raw, "description", verr)
	fields.Category = parseString(raw, "category", verr)

	if value, ok := raw["price"]; ok {
		if price, msg := parsePrice(value); msg != "" {
			verr.Add("price", msg)
		} else {
			fields.Price = &price
		}
	}

	return fields, verr.Err()
}

func parseString(raw map[string]json.RawMessage, field string, verr *domain.ValidationError) *string {
	value, ok := raw[field]
	if !ok {
		return nil
	}
	if isNull(value) {
		verr.Add(field, "This field may not be null.")
		return nil
	}

	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		verr.Add(field, "Not a valid string.")
		return nil
	}
	return &s
}

func parsePrice(value json.RawMessage) (decimal.Decimal, string) {
	if isNull(value) {
		return decimal.Decimal{}, "This field may not be null."
	}

	var literal string
	trimmed := bytes.TrimSpace(value)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '"':
		if err := json.Unmarshal(trimmed, &literal); err != nil {
			return decimal.Decimal{}, "A valid number is required."
		}
	default:
		var number json.Number
		if err := json.Unmarshal(trimmed, &number); err != nil {
			return decimal.Decimal{}, "A valid number is required."
		}
		literal = number.String()
	}

	price, err := domain.ParsePrice(literal)
	if err != nil {
		return decimal.Decimal{}, err.Error()
	}
	return price, ""
}

func isNull(value json.RawMessage) bool {
	return string(bytes.TrimSpace(value)) == "null"
}
