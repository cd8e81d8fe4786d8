package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-scheduler-api/internal/dto"
	"github.com/noah-isme/uni-scheduler-api/internal/middleware"
	"github.com/noah-isme/uni-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/uni-scheduler-api/pkg/errors"
	"github.com/noah-isme/uni-scheduler-api/pkg/response"
	"github.com/noah-isme/uni-scheduler-api/pkg/timeutil"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.CurrentClaims(c)
}

func actorFromContext(c *gin.Context) models.Actor {
	return models.ActorFromClaims(claimsFromContext(c))
}

// pathID parses the :id segment; an invalid id is reported as NOT_FOUND, matching a missing row.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "resource not found"))
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// bookingFilter reads listing filters from the query string.
func bookingFilter(c *gin.Context) (models.BookingFilter, bool) {
	var query dto.BookingListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return models.BookingFilter{}, false
	}
	filter, err := filterFromQuery(query)
	if err != nil {
		response.Error(c, err)
		return models.BookingFilter{}, false
	}
	return filter, true
}

func filterFromQuery(query dto.BookingListQuery) (models.BookingFilter, error) {
	filter := models.BookingFilter{
		VenueID:      query.VenueID,
		BatchID:      query.BatchID,
		DepartmentID: query.DepartmentID,
		Limit:        query.Limit,
	}
	if query.Kind != "" {
		kind, err := models.ParseBookingKind(query.Kind)
		if err != nil {
			return filter, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "kind must be event or exam")
		}
		filter.Kind = &kind
	}
	for _, bound := range []struct {
		raw  string
		dest **time.Time
	}{{query.From, &filter.From}, {query.To, &filter.To}} {
		if bound.raw == "" {
			continue
		}
		ts, err := timeutil.ParseInstant(bound.raw)
		if err != nil {
			return filter, appErrors.Wrap(err, appErrors.ErrInvalidTimestamp.Code, appErrors.ErrInvalidTimestamp.Status, "from and to must be ISO-8601 timestamps")
		}
		*bound.dest = &ts
	}
	return filter, nil
}

// writeError renders err; booking rejections carry both conflict lists in meta.
func writeError(c *gin.Context, err error) {
	var conflict *models.BookingConflictError
	if errors.As(err, &conflict) {
		response.Error(c, err, map[string]interface{}{
			"conflicts":     conflict.Conflicts.Normalize(),
			"conflict_type": conflict.Type,
		})
		return
	}
	response.Error(c, err)
}
