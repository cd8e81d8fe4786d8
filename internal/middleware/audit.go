package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-scheduler-api/internal/models"
)

// AuditRecorder accepts audit entries without blocking the request.
type AuditRecorder interface {
	Record(ctx context.Context, entry models.AuditLog)
}

// Audit records one entry after each successful write on a reference resource.
// Booking writes are audited by the booking service itself.
func Audit(recorder AuditRecorder, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if recorder == nil || c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		var (
			auditType models.AuditType
			verb      string
		)
		switch c.Request.Method {
		case http.MethodPost:
			auditType, verb = models.AuditTypeCreate, "Created"
		case http.MethodPut, http.MethodPatch:
			auditType, verb = models.AuditTypeUpdate, "Updated"
		case http.MethodDelete:
			auditType, verb = models.AuditTypeDelete, "Deleted"
		default:
			return
		}

		actor := CurrentActor(c).DisplayName()
		refType := resource
		entry := models.AuditLog{
			Title:   fmt.Sprintf("%s %s", verb, resource),
			Type:    auditType,
			Actor:   &actor,
			RefType: &refType,
		}
		if id := c.Param("id"); id != "" {
			entry.Title = fmt.Sprintf("%s %s ID %s", verb, resource, id)
			entry.RefID = &id
		}
		recorder.Record(c.Request.Context(), entry)
	}
}
