package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ticketbari/internal/checkout"
	"ticketbari/internal/dashboard"
	"ticketbari/internal/models"
)

var errBookingNotFound = errors.New("booking not found")

// Statistics is the dashboard landing page: the chart series of the
// caller's role.
func (h *Handler) Statistics(c *gin.Context) {
	ctx := c.Request.Context()
	s := session(c)
	role, err := h.roles.Role(ctx, s)
	if err != nil {
		respondError(c, err)
		return
	}
	ts := h.auth.TokenSource(s)

	var view any
	switch role {
	case models.RoleAdmin:
		view, err = h.stats.Admin(ctx, ts)
	case models.RoleVendor:
		view, err = h.stats.Vendor(ctx, ts, s.User.Email)
	default:
		view, err = h.stats.Customer(ctx, ts)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": role, "nav": dashboard.Nav(role), "stats": view})
}

func (h *Handler) Profile(c *gin.Context) {
	s := session(c)
	role, err := h.roles.Role(c.Request.Context(), s)
	if err != nil {
		respondError(c, err)
		return
	}
	user := s.User
	user.Role = role
	c.JSON(http.StatusOK, gin.H{"user": user, "nav": dashboard.Nav(role)})
}

func (h *Handler) MyBookings(c *gin.Context) {
	s := session(c)
	rows, err := h.booking.MyBookings(c.Request.Context(), h.auth.TokenSource(s), s.User.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// PayBooking starts the provider checkout for one of the caller's bookings
// and redirects the browser to it.
func (h *Handler) PayBooking(c *gin.Context) {
	ctx := c.Request.Context()
	s := session(c)
	ts := h.auth.TokenSource(s)

	rows, err := h.booking.MyBookings(ctx, ts, s.User.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	var target *models.Booking
	for i := range rows {
		if rows[i].ID == c.Param("id") {
			target = &rows[i].Booking
			break
		}
	}
	if target == nil {
		respondError(c, errBookingNotFound)
		return
	}

	url, err := h.checkout.Begin(ctx, ts, *target, s.User.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, url)
}

func (h *Handler) Transactions(c *gin.Context) {
	s := session(c)
	txs, err := h.checkout.Transactions(c.Request.Context(), h.auth.TokenSource(s), s.User.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

// PaymentSuccess is where the payment provider sends the browser back.
func (h *Handler) PaymentSuccess(c *gin.Context) {
	s := session(c)
	res, err := h.checkout.Confirm(c.Request.Context(), h.auth.TokenSource(s), s.User, c.Query("session_id"))
	if errors.Is(err, checkout.ErrAlreadyConfirmed) {
		c.JSON(http.StatusOK, gin.H{"message": "Payment already confirmed"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "Payment successful",
		"transactionId": res.TransactionID,
		"bookingId":     res.BookingID,
		"amount":        res.Amount,
	})
}
