package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-clinic-api/internal/models"
)

// ActivityRecorder persists activity log entries.
type ActivityRecorder interface {
	Record(ctx context.Context, actor models.Actor, action, resource, resourceID, description string)
}

// Audit records an activity entry after successful requests. Routes whose services
// already record their own activity should not use it.
func Audit(recorder ActivityRecorder, action, resource, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if recorder == nil || c.Writer.Status() >= 400 {
			return
		}

		actor, ok := CurrentActor(c)
		if !ok {
			actor = models.Actor{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
		}
		resourceID := ""
		if param != "" {
			resourceID = c.Param(param)
		}
		desc := fmt.Sprintf("%s %s -> %d in %dms", c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start).Milliseconds())
		recorder.Record(c.Request.Context(), actor, action, resource, resourceID, desc)
	}
}
