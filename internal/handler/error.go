package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/errs"
)

// errorBody is the uniform error envelope: a machine-readable kind plus a
// human message.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var errorKinds = []struct {
	sentinel error
	kind     string
	status   int
}{
	{errs.ErrValidation, "validation_error", http.StatusBadRequest},
	{errs.ErrInvalidTransition, "invalid_transition", http.StatusBadRequest},
	{errs.ErrForbiddenCategory, "forbidden_category", http.StatusForbidden},
	{errs.ErrForbidden, "forbidden", http.StatusForbidden},
	{errs.ErrNotFound, "not_found", http.StatusNotFound},
	{errs.ErrAlreadyTaken, "already_taken", http.StatusConflict},
}

// respondError translates a domain error into its HTTP representation.
// Unrecognized errors are logged and surface as 500.
func respondError(c *gin.Context, err error) {
	for _, k := range errorKinds {
		if errors.Is(err, k.sentinel) {
			c.JSON(k.status, errorBody{Error: k.kind, Message: err.Error()})
			return
		}
	}
	log.Printf("handler: unhandled error: %v", err)
	c.JSON(http.StatusInternalServerError, errorBody{Error: "internal_error", Message: "internal server error"})
}

func respondValidation(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorBody{Error: "validation_error", Message: message})
}
