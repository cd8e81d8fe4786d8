package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/uni-scheduler-api/pkg/errors"
	"github.com/noah-isme/uni-scheduler-api/pkg/export"
	"github.com/noah-isme/uni-scheduler-api/pkg/timeutil"
)

// Supported export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type scheduleLister interface {
	ListAll(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, bool, error)
}

type renderer interface {
	ContentType() string
	Extension() string
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
	Rows        int
}

// ExportService renders the unified schedule as a downloadable file.
type ExportService struct {
	schedule  scheduleLister
	renderers map[string]renderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService with the CSV and PDF renderers.
func NewExportService(schedule scheduleLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		schedule: schedule,
		renderers: map[string]renderer{
			ExportFormatCSV: export.NewCSVExporter(),
			ExportFormatPDF: export.NewPDFExporter(),
		},
		logger: logger,
		now:    time.Now,
	}
}

var scheduleHeaders = []string{"Kind", "ID", "Title", "Venue", "Batch", "Department", "Start (UTC)", "End (UTC)", "Minutes"}

// Export renders the bookings matching filter in the requested format.
func (s *ExportService) Export(ctx context.Context, filter models.BookingFilter, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	r, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	bookings, _, err := s.schedule.ListAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	generated := s.now().UTC()
	dataset := export.Dataset{
		Title:   "Schedule generated " + generated.Format(time.RFC3339),
		Headers: scheduleHeaders,
		Rows:    make([]map[string]string, 0, len(bookings)),
	}
	for _, b := range bookings {
		window := timeutil.Window{Start: b.StartUTC, End: b.EndUTC}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Kind":        b.Kind.Label(),
			"ID":          strconv.FormatInt(b.ID, 10),
			"Title":       b.Title,
			"Venue":       b.VenueName,
			"Batch":       deref(b.BatchName),
			"Department":  deref(b.DepartmentName),
			"Start (UTC)": timeutil.FormatSQL(b.StartUTC),
			"End (UTC)":   timeutil.FormatSQL(b.EndUTC),
			"Minutes":     strconv.Itoa(int(window.Duration().Minutes())),
		})
	}

	payload, err := r.Render(dataset)
	if err != nil {
		s.logger.Error("schedule export failed", zap.String("format", format), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to render schedule")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("schedule-%s.%s", generated.Format("20060102-150405"), r.Extension()),
		ContentType: r.ContentType(),
		Payload:     payload,
		Rows:        len(bookings),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
