package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gastroflow/ledger"
)

// Response is the envelope of every reply.
type Response struct {
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Error describes a failed request.
type Error struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Data: data})
}

func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Error: &Error{Kind: http.StatusText(status), Message: message}})
}

// statusOf maps a ledger error kind to its HTTP status.
func statusOf(kind string) int {
	switch kind {
	case "validation":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "conflict":
		return http.StatusConflict
	case "insufficient_stock":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err. Internal failures are logged and reported without detail.
func (h *Handler) fail(c *gin.Context, err error) {
	kind := ledger.Kind(err)
	status := statusOf(kind)
	if status == http.StatusInternalServerError {
		h.logger.Error("api: request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		c.JSON(status, Response{Error: &Error{Kind: "internal", Message: "internal error"}})
		return
	}

	e := &Error{Kind: kind, Message: err.Error()}
	var ve *ledger.ValidationError
	if errors.As(err, &ve) {
		e.Field = ve.Field
	}
	c.JSON(status, Response{Error: e})
}

// badRequest reports an undecodable body or query.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{Error: &Error{Kind: "validation", Message: err.Error()}})
}
