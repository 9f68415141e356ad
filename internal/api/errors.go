package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ticketbari/internal/auth"
	"ticketbari/internal/booking"
	"ticketbari/internal/checkout"
	"ticketbari/internal/circuitbreaker"
	"ticketbari/internal/client"
	"ticketbari/internal/moderation"
	"ticketbari/internal/vendor"
)

const loginPath = "/login"

type errorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

var (
	badRequest = []error{
		auth.ErrInvalidEmail, auth.ErrWeakPassword, auth.ErrMissingName,
		booking.ErrInvalidQuantity, booking.ErrQuantityExceedsStock,
		vendor.ErrTitleRequired, vendor.ErrRouteRequired, vendor.ErrInvalidTransport,
		vendor.ErrNegativePrice, vendor.ErrNegativeQuantity, vendor.ErrDepartureRequired,
		vendor.ErrImageRequired, checkout.ErrMissingSession,
	}
	loginRequired = []error{
		auth.ErrNoSession, auth.ErrSessionExpired, booking.ErrLoginRequired,
	}
	conflict = []error{
		auth.ErrEmailExists,
		booking.ErrDeparturePassed, booking.ErrSoldOut,
		vendor.ErrTicketRejected, vendor.ErrConfirmationRequired,
		moderation.ErrNotPending, moderation.ErrNotApproved, moderation.ErrNotVendor, moderation.ErrAlreadyFraud,
		checkout.ErrCannotPay, checkout.ErrAlreadyConfirmed, checkout.ErrNotPaid,
	}
	notFound = []error{moderation.ErrUnknownTicket, moderation.ErrUnknownUser, errBookingNotFound}
)

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	if circuitbreaker.IsBreakerError(err) {
		status, _ := circuitbreaker.HTTPStatus(err)
		return status
	}
	switch {
	case isAny(err, badRequest):
		return http.StatusBadRequest
	case isAny(err, loginRequired), errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidState):
		return http.StatusUnauthorized
	case errors.Is(err, vendor.ErrNotOwner):
		return http.StatusForbidden
	case isAny(err, notFound):
		return http.StatusNotFound
	case isAny(err, conflict):
		return http.StatusConflict
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status
		}
		return http.StatusBadGateway
	}
	var provErr *auth.ProviderError
	if errors.As(err, &provErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	body := errorResponse{Error: err.Error()}

	switch {
	case circuitbreaker.IsBreakerError(err):
		_, body.Error = circuitbreaker.HTTPStatus(err)
	case isAny(err, loginRequired):
		body.Redirect = loginPath
	case status == http.StatusInternalServerError:
		logger.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		body.Error = "Internal server error"
	}
	c.AbortWithStatusJSON(status, body)
}

func badInput(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: msg})
}
