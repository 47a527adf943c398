package products

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mariellesantos/floracart-backend/pkg/db/models"
	"github.com/mariellesantos/floracart-backend/pkg/pagination"
)

func setupProductsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	categories := `
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  image_url TEXT,
  sort_order INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  category_id TEXT,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  price NUMERIC NOT NULL,
  image_url TEXT NOT NULL,
  gallery_urls TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  is_featured INTEGER NOT NULL DEFAULT 0,
  stock_qty INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(categories).Error)
	require.NoError(t, db.Exec(products).Error)
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, opts func(*models.Product)) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:       uuid.New(),
		Name:     name,
		Slug:     Slugify(name),
		Price:    decimal.NewFromInt(1200),
		ImageURL: "https://img.example.com/" + Slugify(name) + ".jpg",
		IsActive: true,
		StockQty: 10,
	}
	if opts != nil {
		opts(product)
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestRepositoryFindBySlug(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	seeded := seedProduct(t, db, "Sunrise Tulip Bouquet", nil)

	found, err := repo.FindBySlug(context.Background(), "sunrise-tulip-bouquet")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)
	assert.Equal(t, "Sunrise Tulip Bouquet", found.Name)
}

func TestRepositoryListFiltersInactive(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	seedProduct(t, db, "Visible Roses", nil)
	seedProduct(t, db, "Hidden Roses", func(p *models.Product) { p.IsActive = false })

	rows, err := repo.List(context.Background(), ListFilter{}, 10, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Visible Roses", rows[0].Name)

	rows, err = repo.List(context.Background(), ListFilter{IncludeInactive: true}, 10, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRepositoryListByCategorySlug(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)

	category := &models.Category{ID: uuid.New(), Name: "Bouquets", Slug: "bouquets"}
	require.NoError(t, db.Create(category).Error)
	seedProduct(t, db, "Peony Mix", func(p *models.Product) { p.CategoryID = &category.ID })
	seedProduct(t, db, "Uncategorized Vase", nil)

	rows, err := repo.List(context.Background(), ListFilter{CategorySlug: "bouquets"}, 10, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Peony Mix", rows[0].Name)
}

func TestRepositoryListSearch(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	seedProduct(t, db, "Red Rose Dozen", nil)
	seedProduct(t, db, "White Lily Stand", nil)

	rows, err := repo.List(context.Background(), ListFilter{Search: "rose"}, 10, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Red Rose Dozen", rows[0].Name)
}

func TestRepositoryListCursorPagination(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		created := base.Add(time.Duration(i) * time.Minute)
		seedProduct(t, db, "Bouquet "+string(rune('A'+i)), func(p *models.Product) {
			p.CreatedAt = created
			p.UpdatedAt = created
		})
	}

	first, err := repo.List(context.Background(), ListFilter{}, 2, nil)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "Bouquet C", first[0].Name)

	cursor := &pagination.Cursor{CreatedAt: first[1].CreatedAt, ID: first[1].ID}
	second, err := repo.List(context.Background(), ListFilter{}, 2, cursor)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "Bouquet A", second[0].Name)
}

func TestRepositoryDecrementStock(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	product := seedProduct(t, db, "Limited Orchid", func(p *models.Product) { p.StockQty = 2 })

	affected, err := repo.DecrementStock(context.Background(), product.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = repo.DecrementStock(context.Background(), product.ID, 1)
	require.NoError(t, err)
	assert.Zero(t, affected, "oversell must not match any row")
}

func TestRepositoryListCategoriesOrdered(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)

	require.NoError(t, db.Create(&models.Category{ID: uuid.New(), Name: "Wreaths", Slug: "wreaths", SortOrder: 2}).Error)
	require.NoError(t, db.Create(&models.Category{ID: uuid.New(), Name: "Bouquets", Slug: "bouquets", SortOrder: 1}).Error)

	rows, err := repo.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Bouquets", rows[0].Name)
}
