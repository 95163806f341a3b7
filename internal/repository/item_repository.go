package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"item-catalog/internal/domain"
)

// ItemRepository defines the interface for item data access
type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	Update(ctx context.Context, item *domain.Item) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.Item, error)
	List(ctx context.Context, query domain.ItemQuery) ([]*domain.Item, error)
}

const itemColumns = "id, name, description, category, price, created_at, updated_at"

type itemRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewItemRepository creates a new SQL backed ItemRepository
func NewItemRepository(db *sql.DB, dialect Dialect) ItemRepository {
	return &itemRepository{db: db, dialect: dialect}
}

// Create inserts a new item and stores the generated id on it
func (r *itemRepository) Create(ctx context.Context, item *domain.Item) error {
	args := &argList{dialect: r.dialect}
	query := fmt.Sprintf(`
		INSERT INTO items (name, description, category, price, created_at, updated_at)
		VALUES (%s, %s, %s, %s, %s, %s)
		RETURNING id
	`,
		args.add(item.Name),
		args.add(item.Description),
		args.add(item.Category),
		args.add(r.dialect.bindPrice(item.Price)),
		args.add(r.dialect.bindTime(item.CreatedAt)),
		args.add(r.dialect.bindTime(item.UpdatedAt)),
	)

	if err := r.db.QueryRowContext(ctx, query, args.args...).Scan(&item.ID); err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	return nil
}

// Update overwrites the mutable columns of an existing item
func (r *itemRepository) Update(ctx context.Context, item *domain.Item) error {
	args := &argList{dialect: r.dialect}
	query := fmt.Sprintf(`
		UPDATE items
		SET name = %s, description = %s, category = %s, price = %s, updated_at = %s
		WHERE id = %s
	`,
		args.add(item.Name),
		args.add(item.Description),
		args.add(item.Category),
		args.add(r.dialect.bindPrice(item.Price)),
		args.add(r.dialect.bindTime(item.UpdatedAt)),
		args.add(item.ID),
	)

	result, err := r.db.ExecContext(ctx, query, args.args...)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrItemNotFound
	}

	return nil
}

// Delete removes an item
func (r *itemRepository) Delete(ctx context.Context, id int64) error {
	args := &argList{dialect: r.dialect}
	query := fmt.Sprintf(`DELETE FROM items WHERE id = %s`, args.add(id))

	result, err := r.db.ExecContext(ctx, query, args.args...)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrItemNotFound
	}

	return nil
}

// FindByID retrieves an item by id
func (r *itemRepository) FindByID(ctx context.Context, id int64) (*domain.Item, error) {
	args := &argList{dialect: r.dialect}
	query := fmt.Sprintf(`SELECT %s FROM items WHERE id = %s`, itemColumns, args.add(id))

	item, err := scanItem(r.db.QueryRowContext(ctx, query, args.args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find item by ID: %w", err)
	}

	return item, nil
}

// List retrieves items matching the category filter and search terms in the
// requested order
func (r *itemRepository) List(ctx context.Context, q domain.ItemQuery) ([]*domain.Item, error) {
	args := &argList{dialect: r.dialect}
	var conditions []string

	if q.Category != "" {
		conditions = append(conditions, "category = "+args.add(q.Category))
	}

	for _, term := range q.SearchTerms {
		pattern := likePattern(term)
		conditions = append(conditions, fmt.Sprintf("(%s OR %s)",
			r.dialect.search("name", args.add(pattern)),
			r.dialect.search("description", args.add(pattern)),
		))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT %s FROM items %s ORDER BY %s`, itemColumns, whereClause, r.orderClause(q.Ordering))

	rows, err := r.db.QueryContext(ctx, query, args.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := []*domain.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// orderClause only emits expressions from the dialect's allow-list
func (r *itemRepository) orderClause(ordering []domain.OrderTerm) string {
	if len(ordering) == 0 {
		ordering = domain.DefaultOrdering()
	}

	parts := make([]string, 0, len(ordering)+1)
	for _, term := range ordering {
		expr, ok := r.dialect.orderExprs[term.Field]
		if !ok {
			continue
		}
		parts = append(parts, expr+" "+direction(term.Desc))
	}
	if len(parts) == 0 {
		parts = append(parts, r.dialect.orderExprs[domain.OrderByCreatedAt]+" DESC")
		return strings.Join(append(parts, "id DESC"), ", ")
	}

	return strings.Join(append(parts, "id "+direction(ordering[len(ordering)-1].Desc)), ", ")
}

func direction(desc bool) string {
	if desc {
		return "DESC"
	}
	return "ASC"
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	item := &domain.Item{}
	var createdAt, updatedAt timestamp

	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.Category,
		&item.Price,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.CreatedAt = createdAt.Time
	item.UpdatedAt = updatedAt.Time
	return item, nil
}
