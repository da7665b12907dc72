package handler

import (
	"log"
	"net/http"

	"backend/pkg/apperror"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error to an HTTP status by its kind. Internal
// errors are logged and their detail suppressed from the response body.
func respondError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case apperror.KindValidation, apperror.KindBusinessRule:
		status = http.StatusBadRequest
	case apperror.KindNotFound:
		status = http.StatusNotFound
	case apperror.KindConflict:
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		c.JSON(status, response.Error("internal server error"))
		return
	}
	c.JSON(status, response.Error(err.Error()))
}

// bindError reports a gin binding failure as a validation error.
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error("invalid request payload: "+err.Error()))
}

// currentUserID returns the authenticated user id stashed by the auth
// middleware, or an empty string for unauthenticated routes.
func currentUserID(c *gin.Context) string {
	if v, exists := c.Get("userID"); exists {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// listPayload is the standard shape for paginated collections.
func listPayload(key string, items interface{}, total int64, page, limit int) map[string]interface{} {
	return map[string]interface{}{
		key:           items,
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": pagination.TotalPages(total, limit),
	}
}
