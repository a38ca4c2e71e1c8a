package httpapi

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendanceportal/internal/apperr"
)

// respondError maps the error taxonomy onto HTTP statuses. Unclassified
// errors are logged and hidden behind a generic 500; nothing is fatal to the
// process.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := err.Error()
	switch apperr.KindOf(err) {
	case apperr.KindInvalid:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindAlreadyInState:
		status = http.StatusUnprocessableEntity
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
	default:
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		msg = "internal server error"
	}
	c.JSON(status, gin.H{"message": msg})
}
