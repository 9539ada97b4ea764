package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mhui/eventbuddy/internal/core/model"
	log "github.com/sirupsen/logrus"
)

// writeError maps a core error to an HTTP status. Rule violations travel with
// their message verbatim so the client can show it unchanged.
func writeError(c *gin.Context, err error) {
	switch {
	case model.IsValidation(err), errors.Is(err, model.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	case errors.Is(err, model.ErrNotCreator):
		c.JSON(http.StatusForbidden, gin.H{"message": err.Error()})
	case model.IsRuleViolation(err):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	default:
		log.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	}
}
