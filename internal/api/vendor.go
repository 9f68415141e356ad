package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"ticketbari/internal/models"
	"ticketbari/internal/vendor"
)

// departureLayouts are the accepted departure formats: RFC 3339 and the
// browser's datetime-local value.
var departureLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02T15:04:05"}

func parseDeparture(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range departureLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid departure time %q", s)
}

// ticketRequest is the multipart ticket submission. Binding checks shape;
// vendor.Form.Validate keeps the rules that need the parsed values.
type ticketRequest struct {
	Title         string                `form:"title" binding:"required"`
	From          string                `form:"from" binding:"required"`
	To            string                `form:"to" binding:"required"`
	TransportType string                `form:"transport_type" binding:"required,oneof=bus train launch plane"`
	Price         string                `form:"price" binding:"required,numeric"`
	Quantity      int                   `form:"ticket_quantity" binding:"gte=0"`
	Perks         string                `form:"perks"`
	Description   string                `form:"description"`
	DepartureTime string                `form:"departure_date_time" binding:"required"`
	Image         *multipart.FileHeader `form:"image"`
}

// ticketForm binds a ticket submission. The returned close func releases the
// uploaded file.
func ticketForm(c *gin.Context) (vendor.Form, func(), error) {
	nop := func() {}
	var req ticketRequest
	if err := c.ShouldBind(&req); err != nil {
		return vendor.Form{}, nop, fmt.Errorf("invalid ticket form: %w", err)
	}

	f := vendor.Form{
		Title:         req.Title,
		From:          req.From,
		To:            req.To,
		TransportType: models.TransportType(req.TransportType),
		Quantity:      req.Quantity,
		Perks:         req.Perks,
		Description:   req.Description,
	}
	var err error
	if f.Price, err = decimal.NewFromString(strings.TrimSpace(req.Price)); err != nil {
		return f, nop, fmt.Errorf("invalid price: %w", err)
	}
	if f.DepartureTime, err = parseDeparture(req.DepartureTime); err != nil {
		return f, nop, err
	}

	if req.Image == nil {
		return f, nop, nil
	}
	file, err := req.Image.Open()
	if err != nil {
		return f, nop, err
	}
	f.ImageName, f.Image = req.Image.Filename, file
	return f, func() { file.Close() }, nil
}

func (h *Handler) AddTicket(c *gin.Context) {
	f, closeFile, err := ticketForm(c)
	defer closeFile()
	if err != nil {
		badInput(c, err.Error())
		return
	}

	s := session(c)
	p, err := h.vendor.Add(c.Request.Context(), h.auth.TokenSource(s), s.User, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdateTicket(c *gin.Context) {
	f, closeFile, err := ticketForm(c)
	defer closeFile()
	if err != nil {
		badInput(c, err.Error())
		return
	}

	s := session(c)
	p, err := h.vendor.Update(c.Request.Context(), h.auth.TokenSource(s), s.User, c.Param("id"), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeleteTicket needs ?confirm=true. Without it the answer is 409 with the
// confirmation prompt and nothing is deleted.
func (h *Handler) DeleteTicket(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	s := session(c)
	err := h.vendor.Delete(c.Request.Context(), h.auth.TokenSource(s), s.User, c.Param("id"), confirmed)
	if errors.Is(err, vendor.ErrConfirmationRequired) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "confirm": true})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ticket deleted"})
}

func (h *Handler) VendorTickets(c *gin.Context) {
	s := session(c)
	rows, err := h.vendor.MyTickets(c.Request.Context(), h.auth.TokenSource(s), s.User.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) VendorBookings(c *gin.Context) {
	s := session(c)
	bookings, err := h.vendor.Bookings(c.Request.Context(), h.auth.TokenSource(s), s.User.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *Handler) AcceptBooking(c *gin.Context) {
	s := session(c)
	if err := h.vendor.Accept(c.Request.Context(), h.auth.TokenSource(s), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.BookingAccepted})
}

func (h *Handler) RejectBooking(c *gin.Context) {
	s := session(c)
	if err := h.vendor.Reject(c.Request.Context(), h.auth.TokenSource(s), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.BookingRejected})
}

func (h *Handler) VendorRevenue(c *gin.Context) {
	s := session(c)
	view, err := h.stats.Revenue(c.Request.Context(), h.auth.TokenSource(s))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
