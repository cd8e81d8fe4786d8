package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-scheduler-api/internal/dto"
	"github.com/noah-isme/uni-scheduler-api/internal/models"
	"github.com/noah-isme/uni-scheduler-api/pkg/database"
	appErrors "github.com/noah-isme/uni-scheduler-api/pkg/errors"
)

type venueRepository interface {
	List(ctx context.Context) ([]models.Venue, error)
	FindByID(ctx context.Context, id int64) (*models.Venue, error)
	Create(ctx context.Context, venue *models.Venue) error
	Update(ctx context.Context, venue *models.Venue) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error
}

type venueUsage interface {
	CountByVenue(ctx context.Context, exec sqlx.ExtContext, venueID int64) (int, error)
}

// VenueService manages bookable venues.
type VenueService struct {
	repo      venueRepository
	usage     venueUsage
	tx        txRunner
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewVenueService creates a venue service. cache may be nil.
func NewVenueService(repo venueRepository, usage venueUsage, tx txRunner, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *VenueService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VenueService{repo: repo, usage: usage, tx: tx, cache: cache, validator: validate, logger: logger}
}

// List returns every venue ordered by name. The bool reports a cache hit.
func (s *VenueService) List(ctx context.Context) ([]models.Venue, bool, error) {
	var venues []models.Venue
	hit, err := s.cache.Remember(ctx, cachePrefixVenues+"list", &venues, func() (interface{}, error) {
		loaded, err := s.repo.List(ctx)
		if loaded == nil {
			loaded = []models.Venue{}
		}
		return loaded, err
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list venues")
	}
	return venues, hit, nil
}

// Get returns a venue by id.
func (s *VenueService) Get(ctx context.Context, id int64) (*models.Venue, error) {
	venue, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "venue not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load venue")
	}
	return venue, nil
}

// Create adds a venue. Names are unique.
func (s *VenueService) Create(ctx context.Context, req dto.VenueRequest) (*models.Venue, error) {
	venue, err := s.build(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, venue); err != nil {
		return nil, s.mapError("create", err)
	}
	s.invalidate(ctx)
	return venue, nil
}

// Update replaces a venue's attributes. Existing bookings are not re-checked when
// allowConflict is switched off; the flag only governs future writes.
func (s *VenueService) Update(ctx context.Context, id int64, req dto.VenueRequest) (*models.Venue, error) {
	venue, err := s.build(req)
	if err != nil {
		return nil, err
	}
	venue.ID = id
	if err := s.repo.Update(ctx, venue); err != nil {
		return nil, s.mapError("update", err)
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// Delete removes a venue that no event or exam references.
func (s *VenueService) Delete(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, sql.LevelReadCommitted, func(tx *sqlx.Tx) error {
		count, err := s.usage.CountByVenue(ctx, tx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return appErrors.Clone(appErrors.ErrVenueInUse, fmt.Sprintf("venue is assigned to %d booking(s)", count))
		}
		return s.repo.Delete(ctx, tx, id)
	})
	if err != nil {
		return s.mapError("delete", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *VenueService) build(req dto.VenueRequest) (*models.Venue, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid venue payload")
	}
	return &models.Venue{
		Name:          req.Name,
		Type:          req.Type,
		Capacity:      req.Capacity,
		BuildingID:    req.BuildingID,
		AllowConflict: req.AllowConflict,
	}, nil
}

func (s *VenueService) mapError(op string, err error) error {
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "venue not found")
	case database.IsUniqueViolation(err):
		return appErrors.Clone(appErrors.ErrDuplicate, "venue name already exists")
	case database.IsForeignKeyViolation(err) && op == "delete":
		// a booking slipped in between the count and the delete
		return appErrors.Clone(appErrors.ErrVenueInUse, appErrors.ErrVenueInUse.Message)
	case database.IsForeignKeyViolation(err):
		return appErrors.Clone(appErrors.ErrNotFound, "building not found")
	}
	s.logger.Error("venue write failed", zap.String("operation", op), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to %s venue", op))
}

func (s *VenueService) invalidate(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, cachePrefixVenues+"*")
	// booking listings embed venue names
	_ = s.cache.Invalidate(ctx, cachePrefixBookings+"*")
}
