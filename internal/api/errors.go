package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quillhq/promptforge/pkg/apperr"
)

// errorStatus maps an apperr.Kind to the HTTP status the façade returns
// (spec.md §6.3, §7).
var errorStatus = map[apperr.Kind]int{
	apperr.KindInvalidInput:         http.StatusBadRequest,
	apperr.KindGeneratorUnavailable: http.StatusBadGateway,
	apperr.KindGeneratorTimeout:     http.StatusGatewayTimeout,
	apperr.KindRetrievalUnavailable: http.StatusBadGateway,
	apperr.KindOverloaded:           http.StatusServiceUnavailable,
	apperr.KindInvalidOutput:        http.StatusUnprocessableEntity,
	apperr.KindGoldenSetInvalid:     http.StatusBadRequest,
	apperr.KindInternal:             http.StatusInternalServerError,
}

// writeError emits the §6.3 error envelope: {error: {kind, message, retriable}}.
func writeError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status, ok := errorStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	c.JSON(status, gin.H{"error": gin.H{
		"kind":      string(kind),
		"message":   err.Error(),
		"retriable": apperr.IsRetriable(err),
	}})
}
