package apperrors

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the envelope for every error body.
type ErrorResponse struct {
	Error *AppError `json:"error"`
}

type GinErrorHandler struct {
	Debug bool
}

func (h *GinErrorHandler) HandleGinError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
		if !h.Debug {
			appErr.Details = nil
		}
	}

	if appErr.HTTPCode >= 500 {
		slog.Error("Server error",
			slog.String("code", string(appErr.Code)),
			slog.String("path", c.Request.URL.Path),
			slog.Any("error", appErr.Unwrap()),
		)
	}

	c.JSON(appErr.HTTPCode, ErrorResponse{Error: appErr})
}

// Debug controls whether non-AppError details reach the client.
var Debug = true

func HandleError(c *gin.Context, err error) {
	handler := &GinErrorHandler{Debug: Debug}
	handler.HandleGinError(c, err)
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
