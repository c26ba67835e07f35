package handler

import (
	"errors"
	"net/http"

	"shopstock/internal/calendar"
	"shopstock/internal/repository"
	"shopstock/internal/service"
	"shopstock/internal/validate"

	"github.com/gin-gonic/gin"

	"shopstock/pkg/response"
)

// statusFor maps service-layer sentinel errors to HTTP status codes.
// Unknown errors are treated as internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSaleNotFound),
		errors.Is(err, service.ErrPurchaseNotFound),
		errors.Is(err, service.ErrReturnNotFound),
		errors.Is(err, service.ErrVariantNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrSupplierNotFound),
		errors.Is(err, service.ErrCustomerNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrStockWouldGoNegative),
		errors.Is(err, service.ErrReturnExceedsAvailable),
		errors.Is(err, service.ErrPurchaseNotModifiable),
		errors.Is(err, service.ErrPurchaseHasReturns),
		errors.Is(err, service.ErrInvalidStatusChange),
		errors.Is(err, service.ErrSupplierInUse),
		errors.Is(err, service.ErrProductHasSales),
		errors.Is(err, service.ErrDuplicateVariant):
		return http.StatusConflict
	case errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, validate.ErrInvalidNumber),
		errors.Is(err, validate.ErrInvalidPrice),
		errors.Is(err, validate.ErrInvalidEnum),
		errors.Is(err, calendar.ErrInvalidDate),
		errors.Is(err, repository.ErrInvalidFilter):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the standard error envelope for a service error, hiding
// internal error details behind a generic message.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Internal server error"
	}
	c.JSON(status, response.Error(status, msg))
}
