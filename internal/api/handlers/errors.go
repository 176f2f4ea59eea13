package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindInvalidRequest:
		return http.StatusBadRequest
	case domain.KindInsufficientData:
		return http.StatusUnprocessableEntity
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := StatusFor(err)

	var body gin.H
	var de *domain.Error
	if errors.As(err, &de) {
		body = gin.H{"error": domain.MessageOf(err), "kind": de.Kind}
		if de.Err != nil {
			body["details"] = de.Err.Error()
		}
	} else {
		body = gin.H{"error": "internal server error", "details": err.Error()}
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("api: request failed")
	}
	c.JSON(status, body)
}

func badBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid request body",
		"kind":    domain.KindInvalidRequest,
		"details": err.Error(),
	})
}
