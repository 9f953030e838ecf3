package handler

import (
	"log"
	"net/http"
	"strconv"

	"backend/pkg/apperror"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

// abortWithError maps a domain error onto the wire: one status, one
// envelope. Rate-limited errors also carry a Retry-After header.
// Internal errors are logged here so services do not have to.
func abortWithError(c *gin.Context, err error) {
	appErr := apperror.From(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	if appErr.RetryAfterSeconds > 0 {
		c.Header("Retry-After", strconv.Itoa(appErr.RetryAfterSeconds))
	}
	c.AbortWithStatusJSON(appErr.StatusCode, response.FromError(err))
}
