// internal/interfaces/http/handlers/respond.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/pcstore-backend/internal/pkg/apperr"
)

// statusFor maps an error kind to its HTTP status
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidAmount,
		apperr.KindValidation,
		apperr.KindTotalMismatch,
		apperr.KindPaymentAmountMismatch,
		apperr.KindInvalidPaymentStatus:
		return http.StatusBadRequest
	case apperr.KindNotAuthorized:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindPaymentRequired:
		return http.StatusPaymentRequired
	case apperr.KindAlreadyFinalized, apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error", "code", "details"}. Errors outside
// the business taxonomy are reported with a generic message.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind == apperr.KindInternal {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
			"code":  "internal",
		})
		return
	}

	body := gin.H{
		"error": appErr.Message,
		"code":  appErr.Code,
	}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	c.JSON(statusFor(appErr.Kind), body)
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"code":    "invalid_request",
		"details": err.Error(),
	})
}

func respondOK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{
		"message": message,
		"data":    data,
	})
}

// uintParam parses a positive integer path parameter
func uintParam(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || n == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
			"code":  "invalid_request",
		})
		return 0, false
	}
	return uint(n), true
}
