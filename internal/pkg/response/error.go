package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/lodging-booking-backend/internal/pkg/apperror"
)

// ErrorResponse defines the JSON structure for error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// Error sends a JSON error response.
// It checks if the error is an AppError to determine the status code.
// If it's not an AppError, it defaults to 500 Internal Server Error.
// Persistence failures and exhausted code generation are always logged.
func Error(c *gin.Context, logger *zap.Logger, err error) {
	if apperror.IsOperational(err) && logger != nil {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("kind", string(apperror.KindOf(err))),
			zap.Error(err),
		)
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.Code, ErrorResponse{Error: appErr.Message, Kind: string(appErr.Kind)})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Kind: string(apperror.KindPersistenceFailure)})
}

// BadRequest sends a 400 response for binding and validation failures.
func BadRequest(c *gin.Context, message string, err error) {
	body := gin.H{"error": message, "kind": string(apperror.KindInvalidRequest)}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}
