package handlers

import (
	"errors"
	"net/http"
	"order_manager/internal/services"
	"strconv"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto HTTP status codes and the JSON
// error envelope {"error": kind, "message": text}.
func respondError(c *gin.Context, err error) {
	var (
		validation   *services.ValidationError
		notFound     *services.NotFoundError
		conflict     *services.ConflictError
		unauthorized *services.UnauthorizedError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": validation.Message})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": notFound.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict", "message": conflict.Message})
	case errors.As(err, &unauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": unauthorized.Message})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "internal server error"})
	}
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": message})
}

// uintParam parses a numeric path parameter, answering 400 when it is malformed.
func uintParam(c *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(value), true
}
