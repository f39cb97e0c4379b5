package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "gomix/internal/errors"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
}

func (s *Server) writeError(c *gin.Context, err error) {
	appErr := apperrors.Classify(err)
	status := apperrors.HTTPStatus(appErr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("rid=%s %s: %v", RID(c), c.Request.URL.Path, err)
	} else {
		s.logger.Debug("rid=%s %s: %v", RID(c), c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, errorResponse{
		Error:     appErr.Error(),
		Code:      appErr.Code,
		RequestID: RID(c),
	})
}

func invalidInput(message string) error {
	return apperrors.InvalidInput(message)
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
