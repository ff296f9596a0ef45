package response

import (
	"net/http"

	"venuely/internal/shared/apperrors"
	"venuely/pkg/logger"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondSuccess writes a 200 envelope
func RespondSuccess(c *gin.Context, message string, data interface{}) {
	RespondJSON(c, "success", http.StatusOK, message, data, nil)
}

// RespondError maps err onto its HTTP status and writes an error envelope.
// Server side failures are logged and their details withheld from the client.
func RespondError(c *gin.Context, message string, err error) {
	code := apperrors.StatusCode(err)
	if code >= http.StatusInternalServerError {
		logger.GetDefault().LogHTTPError(c, err, code)
		RespondJSON(c, "error", code, message, nil, http.StatusText(code))
		return
	}
	RespondJSON(c, "error", code, message, nil, err.Error())
}

// RespondPlainError writes the flat {"error": ...} body used by the booking endpoints.
// notFound replaces the message of a 404; a capacity rejection also reports what remains.
func RespondPlainError(c *gin.Context, err error, notFound string) {
	code := apperrors.StatusCode(err)
	var body PlainError
	switch {
	case code >= http.StatusInternalServerError:
		logger.GetDefault().LogHTTPError(c, err, code)
		body.Error = http.StatusText(code)
	case code == http.StatusNotFound && notFound != "":
		body.Error = notFound
	default:
		body.Error = err.Error()
	}
	if ce, ok := apperrors.AsCapacityExceeded(err); ok {
		remaining := ce.Remaining
		body.Remaining = &remaining
	}
	c.JSON(code, body)
}
