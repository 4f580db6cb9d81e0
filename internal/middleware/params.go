package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appErrors "github.com/noah-isme/campus-clinic-api/pkg/errors"
	"github.com/noah-isme/campus-clinic-api/pkg/response"
)

// UUIDParams rejects a request when any of the named path parameters or query
// values is present but is not a canonical UUID. Every primary key is a UUID
// column, so a malformed id never reaches the database.
func UUIDParams(names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range names {
			for _, value := range []string{c.Param(name), strings.TrimSpace(c.Query(name))} {
				if value == "" || isCanonicalUUID(value) {
					continue
				}
				response.Error(c, appErrors.Clone(appErrors.ErrValidation, name+" must be a valid UUID"))
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// uuid.Parse also accepts the braced, urn and unhyphenated forms.
func isCanonicalUUID(value string) bool {
	if len(value) != 36 {
		return false
	}
	_, err := uuid.Parse(value)
	return err == nil
}
