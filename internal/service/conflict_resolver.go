package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-scheduler-api/internal/models"
	"github.com/noah-isme/uni-scheduler-api/pkg/config"
	"github.com/noah-isme/uni-scheduler-api/pkg/timeutil"
)

type overlapFinder interface {
	FindVenueOverlaps(ctx context.Context, exec sqlx.ExtContext, venueID int64, window timeutil.Window, exclude *models.BookingRef) ([]models.BookingConflict, error)
	FindBatchOverlaps(ctx context.Context, exec sqlx.ExtContext, batchID int64, window timeutil.Window, includeUnscoped bool, exclude *models.BookingRef) ([]models.BookingConflict, error)
	FindCampusOverlaps(ctx context.Context, exec sqlx.ExtContext, window timeutil.Window, exclude *models.BookingRef) ([]models.BookingConflict, error)
	FindAllInWindow(ctx context.Context, exec sqlx.ExtContext, window timeutil.Window, exclude *models.BookingRef) ([]models.BookingConflict, error)
}

// ConflictCandidate is a booking under evaluation. Venue is nil when the venue does not exist.
type ConflictCandidate struct {
	VenueID      int64
	BatchID      *int64
	DepartmentID *int64
	Window       timeutil.Window
	Venue        *models.VenueLock
}

// ConflictResolver applies the booking conflict policy:
// venue overlaps are tolerated only when the venue allows conflicts,
// batch overlaps never are, and Campus scope widens the batch check to every booking in the window.
type ConflictResolver struct {
	overlaps     overlapFinder
	classifier   *CampusClassifier
	unscopedMode string
}

// NewConflictResolver constructs a resolver. Unknown modes fall back to isolated.
func NewConflictResolver(overlaps overlapFinder, classifier *CampusClassifier, unscopedMode string) *ConflictResolver {
	if unscopedMode != config.UnscopedBatchUniversal {
		unscopedMode = config.UnscopedBatchIsolated
	}
	return &ConflictResolver{overlaps: overlaps, classifier: classifier, unscopedMode: unscopedMode}
}

// UnscopedMode returns the effective policy for bookings without a batch.
func (r *ConflictResolver) UnscopedMode() string {
	return r.unscopedMode
}

// Resolve evaluates the candidate and always returns both overlap lists, whatever the verdict.
// When venue and batch both fail the verdict is VenueConflict.
func (r *ConflictResolver) Resolve(ctx context.Context, exec sqlx.ExtContext, candidate ConflictCandidate, exclude *models.BookingRef) (*models.ConflictReport, error) {
	if err := candidate.Window.Validate(); err != nil {
		return nil, err
	}

	venueOverlaps, err := r.overlaps.FindVenueOverlaps(ctx, exec, candidate.VenueID, candidate.Window, exclude)
	if err != nil {
		return nil, err
	}

	campus, err := r.classifier.Scope(ctx, exec, candidate.BatchID, candidate.DepartmentID)
	if err != nil {
		return nil, err
	}

	batchOverlaps, err := r.batchOverlaps(ctx, exec, candidate, campus, exclude)
	if err != nil {
		return nil, err
	}

	report := &models.ConflictReport{
		Verdict:      models.VerdictOK,
		CampusScoped: campus,
		Conflicts: models.ConflictSet{
			Venue: sortConflicts(venueOverlaps),
			Batch: sortConflicts(dedupeConflicts(batchOverlaps)),
		}.Normalize(),
	}
	if candidate.Venue != nil {
		report.AllowConflict = candidate.Venue.AllowConflict
	}

	switch {
	case len(report.Conflicts.Venue) > 0 && (candidate.Venue == nil || !candidate.Venue.AllowConflict):
		report.Verdict = models.VerdictVenueConflict
	case len(report.Conflicts.Batch) > 0:
		report.Verdict = models.VerdictBatchConflict
	}
	return report, nil
}

func (r *ConflictResolver) batchOverlaps(ctx context.Context, exec sqlx.ExtContext, candidate ConflictCandidate, campus bool, exclude *models.BookingRef) ([]models.BookingConflict, error) {
	universal := r.unscopedMode == config.UnscopedBatchUniversal
	switch {
	case campus:
		return r.overlaps.FindAllInWindow(ctx, exec, candidate.Window, exclude)
	case candidate.BatchID != nil:
		return r.overlaps.FindBatchOverlaps(ctx, exec, *candidate.BatchID, candidate.Window, universal, exclude)
	case universal:
		// an unscoped booking is institution wide under this policy
		return r.overlaps.FindAllInWindow(ctx, exec, candidate.Window, exclude)
	default:
		// unscoped bookings ignore each other but are still blocked by Campus bookings
		return r.overlaps.FindCampusOverlaps(ctx, exec, candidate.Window, exclude)
	}
}

func dedupeConflicts(conflicts []models.BookingConflict) []models.BookingConflict {
	if len(conflicts) < 2 {
		return conflicts
	}
	seen := make(map[models.BookingRef]struct{}, len(conflicts))
	out := make([]models.BookingConflict, 0, len(conflicts))
	for _, c := range conflicts {
		if _, ok := seen[c.Ref()]; ok {
			continue
		}
		seen[c.Ref()] = struct{}{}
		out = append(out, c)
	}
	return out
}

func sortConflicts(conflicts []models.BookingConflict) []models.BookingConflict {
	sort.SliceStable(conflicts, func(i, j int) bool {
		a, b := conflicts[i], conflicts[j]
		if !a.StartUTC.Equal(b.StartUTC) {
			return a.StartUTC.Before(b.StartUTC)
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.ID < b.ID
	})
	return conflicts
}

// conflictMessage renders a short human readable rejection reason.
func conflictMessage(report *models.ConflictReport) string {
	switch report.Verdict {
	case models.VerdictVenueConflict:
		return fmt.Sprintf("venue is already booked by %d overlapping booking(s)", len(report.Conflicts.Venue))
	case models.VerdictBatchConflict:
		if report.CampusScoped {
			return fmt.Sprintf("campus wide booking overlaps %d existing booking(s)", len(report.Conflicts.Batch))
		}
		return fmt.Sprintf("batch already has %d overlapping booking(s)", len(report.Conflicts.Batch))
	default:
		return "no blocking conflicts"
	}
}
