package repository

import (
	"context"
	"testing"
	"time"

	"item-catalog/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newItem(name, description, category, price string, createdAt time.Time) *domain.Item {
	return &domain.Item{
		Name:        name,
		Description: description,
		Category:    category,
		Price:       decimal.RequireFromString(price),
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func assertSameItem(t *testing.T, want, got *domain.Item) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Description, got.Description)
	assert.Equal(t, want.Category, got.Category)
	assert.True(t, want.Price.Equal(got.Price), "price: want %s, got %s", want.Price, got.Price)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at: want %s, got %s", want.CreatedAt, got.CreatedAt)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updated_at: want %s, got %s", want.UpdatedAt, got.UpdatedAt)
}

func itemIDs(items []*domain.Item) []int64 {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

// runItemRepositoryContract exercises the behaviour every ItemRepository
// backend must share. newRepo must return an empty repository.
func runItemRepositoryContract(t *testing.T, newRepo func(t *testing.T) ItemRepository) {
	ctx := context.Background()

	t.Run("create then find returns identical fields", func(t *testing.T) {
		repo := newRepo(t)
		item := newItem("Desk", "Solid oak", "Furniture", "129.99", baseTime)

		require.NoError(t, repo.Create(ctx, item))
		assert.Positive(t, item.ID)

		got, err := repo.FindByID(ctx, item.ID)
		require.NoError(t, err)
		assertSameItem(t, item, got)
		assert.Equal(t, "129.99", domain.FormatPrice(got.Price))
	})

	t.Run("ids are unique and never reused", func(t *testing.T) {
		repo := newRepo(t)

		first := newItem("A", "", "X", "1.00", baseTime)
		second := newItem("B", "", "X", "2.00", baseTime)
		require.NoError(t, repo.Create(ctx, first))
		require.NoError(t, repo.Create(ctx, second))
		assert.Greater(t, second.ID, first.ID)

		require.NoError(t, repo.Delete(ctx, second.ID))

		third := newItem("C", "", "X", "3.00", baseTime)
		require.NoError(t, repo.Create(ctx, third))
		assert.Greater(t, third.ID, second.ID)
	})

	t.Run("find missing item", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.FindByID(ctx, 999)
		assert.ErrorIs(t, err, domain.ErrItemNotFound)
	})

	t.Run("update overwrites mutable fields only", func(t *testing.T) {
		repo := newRepo(t)
		item := newItem("Desk", "", "Furniture", "129.99", baseTime)
		require.NoError(t, repo.Create(ctx, item))

		changed := *item
		changed.Name = "Standing desk"
		changed.Description = "Adjustable"
		changed.Price = decimal.RequireFromString("499.50")
		changed.UpdatedAt = baseTime.Add(time.Minute)
		changed.CreatedAt = baseTime.Add(time.Hour) // ignored
		require.NoError(t, repo.Update(ctx, &changed))

		got, err := repo.FindByID(ctx, item.ID)
		require.NoError(t, err)

		changed.CreatedAt = item.CreatedAt
		assertSameItem(t, &changed, got)
	})

	t.Run("update missing item", func(t *testing.T) {
		repo := newRepo(t)
		item := newItem("Ghost", "", "None", "1.00", baseTime)
		item.ID = 12345
		assert.ErrorIs(t, repo.Update(ctx, item), domain.ErrItemNotFound)
	})

	t.Run("delete is not idempotent", func(t *testing.T) {
		repo := newRepo(t)
		item := newItem("Desk", "", "Furniture", "129.99", baseTime)
		require.NoError(t, repo.Create(ctx, item))

		require.NoError(t, repo.Delete(ctx, item.ID))

		_, err := repo.FindByID(ctx, item.ID)
		assert.ErrorIs(t, err, domain.ErrItemNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, item.ID), domain.ErrItemNotFound)
	})

	t.Run("list queries", func(t *testing.T) {
		repo := newRepo(t)

		fixtures := []*domain.Item{
			newItem("Desk lamp", "Warm light", "Lighting", "39.90", baseTime),
			newItem("Oak desk", "Solid wood", "Furniture", "129.99", baseTime.Add(1*time.Minute)),
			newItem("Go in Action", "A book about Go", "Books", "9.99", baseTime.Add(2*time.Minute)),
			newItem("Reading chair", "Pairs with a LAMP", "Furniture", "10.00", baseTime.Add(3*time.Minute)),
			newItem("Cookbook", "100% vegan_recipes", "Books", "24.50", baseTime.Add(4*time.Minute)),
		}
		for _, item := range fixtures {
			require.NoError(t, repo.Create(ctx, item))
		}
		lamp, desk, goBook, chair, cookbook := fixtures[0].ID, fixtures[1].ID, fixtures[2].ID, fixtures[3].ID, fixtures[4].ID

		tests := []struct {
			name  string
			query domain.ItemQuery
			want  []int64
		}{
			{
				name:  "default newest first",
				query: domain.ItemQuery{},
				want:  []int64{cookbook, chair, goBook, desk, lamp},
			},
			{
				name:  "category exact match",
				query: domain.ItemQuery{Category: "Books"},
				want:  []int64{cookbook, goBook},
			},
			{
				name:  "category is case sensitive",
				query: domain.ItemQuery{Category: "books"},
				want:  []int64{},
			},
			{
				name:  "search name or description ignoring case",
				query: domain.ItemQuery{SearchTerms: []string{"lamp"}},
				want:  []int64{chair, lamp},
			},
			{
				name:  "every search term must match",
				query: domain.ItemQuery{SearchTerms: []string{"desk", "wood"}},
				want:  []int64{desk},
			},
			{
				name:  "wildcards are literal",
				query: domain.ItemQuery{SearchTerms: []string{"100%"}},
				want:  []int64{cookbook},
			},
			{
				name:  "underscore is literal",
				query: domain.ItemQuery{SearchTerms: []string{"n_r"}},
				want:  []int64{cookbook},
			},
			{
				name:  "underscore does not match any character",
				query: domain.ItemQuery{SearchTerms: []string{"o_k"}},
				want:  []int64{},
			},
			{
				name:  "order by price numerically",
				query: domain.ItemQuery{Ordering: []domain.OrderTerm{{Field: domain.OrderByPrice}}},
				want:  []int64{goBook, chair, cookbook, lamp, desk},
			},
			{
				name:  "order by price descending",
				query: domain.ItemQuery{Ordering: []domain.OrderTerm{{Field: domain.OrderByPrice, Desc: true}}},
				want:  []int64{desk, lamp, cookbook, chair, goBook},
			},
			{
				name:  "order by name",
				query: domain.ItemQuery{Ordering: []domain.OrderTerm{{Field: domain.OrderByName}}},
				want:  []int64{cookbook, lamp, goBook, desk, chair},
			},
			{
				name:  "order by created_at ascending",
				query: domain.ItemQuery{Ordering: []domain.OrderTerm{{Field: domain.OrderByCreatedAt}}},
				want:  []int64{lamp, desk, goBook, chair, cookbook},
			},
			{
				name: "filter, search and order combined",
				query: domain.ItemQuery{
					Category:    "Furniture",
					SearchTerms: []string{"a"},
					Ordering:    []domain.OrderTerm{{Field: domain.OrderByPrice}},
				},
				want: []int64{chair, desk},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				items, err := repo.List(ctx, tt.query)
				require.NoError(t, err)
				assert.Equal(t, tt.want, itemIDs(items))
			})
		}
	})

	t.Run("search folds non-ASCII case", func(t *testing.T) {
		repo := newRepo(t)
		eclair := newItem("Éclair lamp", "", "Lighting", "15.00", baseTime)
		plain := newItem("Plain lamp", "Straße edition", "Lighting", "12.00", baseTime.Add(time.Minute))
		require.NoError(t, repo.Create(ctx, eclair))
		require.NoError(t, repo.Create(ctx, plain))

		for term, want := range map[string][]int64{
			"éclair":  {eclair.ID},
			"ÉCLAIR":  {eclair.ID},
			"STRASSE": {},
			"straße":  {plain.ID},
			"STRAßE":  {plain.ID},
		} {
			items, err := repo.List(ctx, domain.ItemQuery{SearchTerms: []string{term}})
			require.NoError(t, err)
			assert.Equal(t, want, itemIDs(items), "search %q", term)
		}
	})

	t.Run("list breaks created_at ties by id", func(t *testing.T) {
		repo := newRepo(t)
		first := newItem("First", "", "X", "1.00", baseTime)
		second := newItem("Second", "", "X", "1.00", baseTime)
		require.NoError(t, repo.Create(ctx, first))
		require.NoError(t, repo.Create(ctx, second))

		items, err := repo.List(ctx, domain.ItemQuery{Ordering: domain.DefaultOrdering()})
		require.NoError(t, err)
		assert.Equal(t, []int64{second.ID, first.ID}, itemIDs(items))
	})
}
