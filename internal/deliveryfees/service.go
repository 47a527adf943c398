package deliveryfees

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mariellesantos/floracart-backend/pkg/db/models"
	pkgerrors "github.com/mariellesantos/floracart-backend/pkg/errors"
	"github.com/mariellesantos/floracart-backend/pkg/logger"
)

// Service resolves and manages the flat delivery fee table.
type Service interface {
	// Quote returns the fee for the locality. A barangay-specific row wins
	// over the city-wide row when both exist.
	Quote(ctx context.Context, city, barangay string) (int, error)
	List(ctx context.Context) ([]models.DeliveryFee, error)
	Upsert(ctx context.Context, input Input) (*models.DeliveryFee, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Input carries one fee row.
type Input struct {
	City     string
	Barangay *string
	FeeCents int
	IsActive bool
}

// Repository defines delivery fee persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindForLocality(ctx context.Context, city, barangay string) (*models.DeliveryFee, error)
	ListAll(ctx context.Context) ([]models.DeliveryFee, error)
	Save(ctx context.Context, fee *models.DeliveryFee) error
	FindByLocalityExact(ctx context.Context, city string, barangay *string) (*models.DeliveryFee, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a delivery fee repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindForLocality prefers the barangay override row, then the city row.
func (r *repository) FindForLocality(ctx context.Context, city, barangay string) (*models.DeliveryFee, error) {
	var fee models.DeliveryFee
	query := r.db.WithContext(ctx).
		Where("LOWER(city) = LOWER(?) AND is_active = ?", city, true)
	if barangay != "" {
		query = query.Where("barangay IS NULL OR LOWER(barangay) = LOWER(?)", barangay).
			Order("barangay IS NULL ASC")
	} else {
		query = query.Where("barangay IS NULL")
	}
	err := query.First(&fee).Error
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.DeliveryFee, error) {
	var rows []models.DeliveryFee
	err := r.db.WithContext(ctx).
		Order("city ASC, barangay ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Save(ctx context.Context, fee *models.DeliveryFee) error {
	if fee.ID == uuid.Nil {
		fee.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Save(fee).Error
}

func (r *repository) FindByLocalityExact(ctx context.Context, city string, barangay *string) (*models.DeliveryFee, error) {
	var fee models.DeliveryFee
	query := r.db.WithContext(ctx).Where("LOWER(city) = LOWER(?)", city)
	if barangay == nil {
		query = query.Where("barangay IS NULL")
	} else {
		query = query.Where("LOWER(barangay) = LOWER(?)", *barangay)
	}
	err := query.First(&fee).Error
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.DeliveryFee{}).Error
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires the delivery fee service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "delivery fee repository required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Quote(ctx context.Context, city, barangay string) (int, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "city required")
	}
	fee, err := s.repo.FindForLocality(ctx, city, strings.TrimSpace(barangay))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "delivery not available for this locality")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "quote delivery fee")
	}
	return fee.FeeCents, nil
}

func (s *service) List(ctx context.Context) ([]models.DeliveryFee, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list delivery fees")
	}
	return rows, nil
}

// Upsert updates the row for the exact locality if one exists, otherwise
// inserts a new one.
func (s *service) Upsert(ctx context.Context, input Input) (*models.DeliveryFee, error) {
	city := strings.TrimSpace(input.City)
	if city == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "city required")
	}
	if input.FeeCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fee cannot be negative")
	}
	var barangay *string
	if input.Barangay != nil {
		trimmed := strings.TrimSpace(*input.Barangay)
		if trimmed != "" {
			barangay = &trimmed
		}
	}

	fee, err := s.repo.FindByLocalityExact(ctx, city, barangay)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup delivery fee")
	}
	if fee == nil {
		fee = &models.DeliveryFee{City: city, Barangay: barangay}
	}
	fee.FeeCents = input.FeeCents
	fee.IsActive = input.IsActive

	if err := s.repo.Save(ctx, fee); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save delivery fee")
	}

	logCtx := s.logg.WithField(ctx, "city", city)
	s.logg.Info(logCtx, "delivery fee saved")
	return fee, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery fee id required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete delivery fee")
	}
	return nil
}
