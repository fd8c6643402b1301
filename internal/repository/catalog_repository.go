package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/learningneeds/shop/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"
)

type CatalogStore struct {
	db *sql.DB
}

func NewCatalogStore(dbPath string) (*CatalogStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// sqlite serialises writers anyway; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return &CatalogStore{db: db}, nil
}

func (r *CatalogStore) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

const selectCatalogItem = `SELECT id, category, title, image_ref, original_price, discount_price, stock, created_at
	FROM catalog_items`

func scanCatalogItem(row interface{ Scan(...any) error }) (*domain.CatalogItem, error) {
	var (
		item          domain.CatalogItem
		originalPrice string
		discountPrice string
	)
	if err := row.Scan(&item.ID, &item.Category, &item.Title, &item.ImageRef,
		&originalPrice, &discountPrice, &item.Stock, &item.CreatedAt); err != nil {
		return nil, err
	}

	var err error
	if item.OriginalPrice, err = decimal.NewFromString(originalPrice); err != nil {
		return nil, fmt.Errorf("item %d original price: %w", item.ID, err)
	}
	if item.DiscountPrice, err = decimal.NewFromString(discountPrice); err != nil {
		return nil, fmt.Errorf("item %d discount price: %w", item.ID, err)
	}
	return &item, nil
}

func (r *CatalogStore) GetItem(ctx context.Context, id int64) (*domain.CatalogItem, error) {
	item, err := scanCatalogItem(r.db.QueryRowContext(ctx, selectCatalogItem+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog item: %w", err)
	}
	return item, nil
}

// GetItems resolves many ids in one query. Unknown ids are absent from the map.
func (r *CatalogStore) GetItems(ctx context.Context, ids []int64) (map[int64]*domain.CatalogItem, error) {
	out := make(map[int64]*domain.CatalogItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	rows, err := r.db.QueryContext(ctx, selectCatalogItem+` WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanCatalogItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog item: %w", err)
		}
		out[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func (r *CatalogStore) ListItems(ctx context.Context) ([]*domain.CatalogItem, error) {
	rows, err := r.db.QueryContext(ctx, selectCatalogItem+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog items: %w", err)
	}
	defer rows.Close()

	var items []*domain.CatalogItem
	for rows.Next() {
		item, err := scanCatalogItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

// UpsertItem inserts or replaces a catalog entry. Used for seeding; the catalog
// is otherwise maintained outside this service.
func (r *CatalogStore) UpsertItem(ctx context.Context, item *domain.CatalogItem) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO catalog_items (id, category, title, image_ref, original_price, discount_price, stock)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     category = excluded.category,
		     title = excluded.title,
		     image_ref = excluded.image_ref,
		     original_price = excluded.original_price,
		     discount_price = excluded.discount_price,
		     stock = excluded.stock`,
		item.ID, string(item.Category), item.Title, item.ImageRef,
		item.OriginalPrice.String(), item.DiscountPrice.String(), item.Stock)
	if err != nil {
		return fmt.Errorf("failed to upsert catalog item %d: %w", item.ID, err)
	}
	return nil
}

type catalogSeed struct {
	Items []struct {
		ID            int64  `yaml:"id"`
		Category      string `yaml:"category"`
		Title         string `yaml:"title"`
		ImageRef      string `yaml:"image_ref"`
		OriginalPrice string `yaml:"original_price"`
		DiscountPrice string `yaml:"discount_price"`
		Stock         int    `yaml:"stock"`
	} `yaml:"items"`
}

// SeedFromYAML upserts every item listed in the seed file and returns how many
// were written. A missing discount price defaults to the original price.
func (r *CatalogStore) SeedFromYAML(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read catalog seed: %w", err)
	}

	var seed catalogSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("parse catalog seed: %w", err)
	}

	for i, s := range seed.Items {
		original, err := decimal.NewFromString(s.OriginalPrice)
		if err != nil {
			return i, fmt.Errorf("seed item %d original_price: %w", s.ID, err)
		}
		discount := original
		if s.DiscountPrice != "" {
			if discount, err = decimal.NewFromString(s.DiscountPrice); err != nil {
				return i, fmt.Errorf("seed item %d discount_price: %w", s.ID, err)
			}
		}

		item := &domain.CatalogItem{
			ID:            s.ID,
			Category:      domain.Category(s.Category),
			Title:         s.Title,
			ImageRef:      s.ImageRef,
			OriginalPrice: original,
			DiscountPrice: discount,
			Stock:         s.Stock,
		}
		if err := r.UpsertItem(ctx, item); err != nil {
			return i, err
		}
	}
	return len(seed.Items), nil
}

func (r *CatalogStore) Close() error {
	return r.db.Close()
}
