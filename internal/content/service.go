package content

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mariellesantos/floracart-backend/pkg/db/models"
	pkgerrors "github.com/mariellesantos/floracart-backend/pkg/errors"
	"github.com/mariellesantos/floracart-backend/pkg/logger"
)

// Well-known content keys the storefront reads.
const (
	KeyHomeBanner   = "home_banner"
	KeyAboutPage    = "about_page"
	KeyShopSettings = "shop_settings"
	KeyFAQ          = "faq"
)

// Service exposes the free-form page content the storefront renders.
type Service interface {
	Get(ctx context.Context, key string) (*models.ContentEntry, error)
	List(ctx context.Context) ([]models.ContentEntry, error)
	Upsert(ctx context.Context, key string, value json.RawMessage) (*models.ContentEntry, error)
	Delete(ctx context.Context, key string) error
}

// Repository defines content persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByKey(ctx context.Context, key string) (*models.ContentEntry, error)
	ListAll(ctx context.Context) ([]models.ContentEntry, error)
	Upsert(ctx context.Context, entry *models.ContentEntry) error
	Delete(ctx context.Context, key string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a content repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByKey(ctx context.Context, key string) (*models.ContentEntry, error) {
	var entry models.ContentEntry
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.ContentEntry, error) {
	var rows []models.ContentEntry
	err := r.db.WithContext(ctx).Order("key ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Upsert(ctx context.Context, entry *models.ContentEntry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(entry).Error
}

func (r *repository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("key = ?", key).Delete(&models.ContentEntry{}).Error
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires the content service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "content repository required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, key string) (*models.ContentEntry, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content key required")
	}
	entry, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "content entry not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load content entry")
	}
	return entry, nil
}

func (s *service) List(ctx context.Context) ([]models.ContentEntry, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list content entries")
	}
	return rows, nil
}

func (s *service) Upsert(ctx context.Context, key string, value json.RawMessage) (*models.ContentEntry, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content key required")
	}
	if !json.Valid(value) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content value must be valid JSON")
	}

	entry := &models.ContentEntry{Key: key, Value: value}
	if err := s.repo.Upsert(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save content entry")
	}

	logCtx := s.logg.WithField(ctx, "content_key", key)
	s.logg.Info(logCtx, "content entry saved")
	return entry, nil
}

func (s *service) Delete(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "content key required")
	}
	if err := s.repo.Delete(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete content entry")
	}
	return nil
}
