package domain

import (
	"sort"
	"strings"
)

// OrderField is a field Items may be sorted by
type OrderField string

const (
	OrderByName      OrderField = "name"
	OrderByPrice     OrderField = "price"
	OrderByCreatedAt OrderField = "created_at"
)

var orderFields = map[OrderField]bool{
	OrderByName:      true,
	OrderByPrice:     true,
	OrderByCreatedAt: true,
}

// OrderTerm is a single sort key
type OrderTerm struct {
	Field OrderField
	Desc  bool
}

// ItemQuery describes a filtered, searched and ordered listing
type ItemQuery struct {
	Category    string
	SearchTerms []string
	Ordering    []OrderTerm
}

// DefaultOrdering lists newest Items first.
func DefaultOrdering() []OrderTerm {
	return []OrderTerm{{Field: OrderByCreatedAt, Desc: true}}
}

// ParseOrdering parses a comma separated ordering expression such as
// "-price,name" or "price:desc". An empty expression yields the default.
func ParseOrdering(raw string) ([]OrderTerm, error) {
	var terms []OrderTerm
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		term := OrderTerm{}
		switch {
		case strings.HasPrefix(part, "-"):
			term.Desc = true
			part = part[1:]
		case strings.HasPrefix(part, "+"):
			part = part[1:]
		}

		if name, dir, ok := strings.Cut(part, ":"); ok {
			switch strings.ToLower(dir) {
			case "asc":
				if term.Desc {
					return nil, NewValidationError("ordering", "Conflicting sort direction in \""+part+"\".")
				}
			case "desc":
				term.Desc = true
			default:
				return nil, NewValidationError("ordering", "Unknown sort direction \""+dir+"\".")
			}
			part = name
		}

		term.Field = OrderField(part)
		if !orderFields[term.Field] {
			return nil, NewValidationError("ordering", "Cannot order by \""+part+"\"; allowed fields are name, price, created_at.")
		}
		terms = append(terms, term)
	}

	if len(terms) == 0 {
		return DefaultOrdering(), nil
	}
	return terms, nil
}

// ParseSearchTerms splits a search expression on whitespace and commas.
func ParseSearchTerms(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}

// Matches reports whether item satisfies the category filter and every
// search term.
func (q ItemQuery) Matches(item *Item) bool {
	if q.Category != "" && item.Category != q.Category {
		return false
	}
	if len(q.SearchTerms) == 0 {
		return true
	}
	name := strings.ToLower(item.Name)
	description := strings.ToLower(item.Description)
	for _, term := range q.SearchTerms {
		term = strings.ToLower(term)
		if !strings.Contains(name, term) && !strings.Contains(description, term) {
			return false
		}
	}
	return true
}

// Sort orders items in place according to q.Ordering, breaking ties by id.
func (q ItemQuery) Sort(items []*Item) {
	ordering := q.Ordering
	if len(ordering) == 0 {
		ordering = DefaultOrdering()
	}
	tieDesc := ordering[len(ordering)-1].Desc

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		for _, term := range ordering {
			c := compareItems(a, b, term.Field)
			if c == 0 {
				continue
			}
			if term.Desc {
				return c > 0
			}
			return c < 0
		}
		if tieDesc {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})
}

func compareItems(a, b *Item, field OrderField) int {
	switch field {
	case OrderByName:
		return strings.Compare(a.Name, b.Name)
	case OrderByPrice:
		return a.Price.Cmp(b.Price)
	case OrderByCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return 0
}
