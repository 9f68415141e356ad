package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ticketbari/internal/booking"
	"ticketbari/internal/client"
	"ticketbari/internal/listing"
	"ticketbari/internal/models"
	"ticketbari/internal/monitoring"
)

// parseQuery reads transport, sort and page from the query string.
func parseQuery(c *gin.Context) (listing.Query, error) {
	transport, err := listing.ParseTransport(c.Query("transport"))
	if err != nil {
		return listing.Query{}, err
	}
	order, err := listing.ParseSortOrder(c.Query("sort"))
	if err != nil {
		return listing.Query{}, err
	}
	page := 1
	if p := c.Query("page"); p != "" {
		if page, err = strconv.Atoi(p); err != nil {
			return listing.Query{}, err
		}
	}
	return listing.Query{Transport: transport, Sort: order, Page: page}, nil
}

// reader identifies the signed-in user to the listing cache and carries
// their upstream token. Anonymous requests get the zero Reader.
func (h *Handler) reader(c *gin.Context) listing.Reader {
	s := session(c)
	if s == nil {
		return listing.Reader{}
	}
	return listing.Reader{Email: s.User.Email, Token: h.auth.TokenSource(s)}
}

// token is the upstream credential of the current session, nil when anonymous.
func (h *Handler) token(c *gin.Context) client.TokenSource {
	if s := session(c); s != nil {
		return h.auth.TokenSource(s)
	}
	return nil
}

func (h *Handler) ListTickets(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		badInput(c, err.Error())
		return
	}
	page, err := h.listing.List(c.Request.Context(), h.reader(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) SearchTickets(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		badInput(c, err.Error())
		return
	}
	criteria := models.SearchCriteria{From: c.Query("from"), To: c.Query("to"), Date: c.Query("date")}
	page, err := h.listing.Search(c.Request.Context(), h.reader(c), criteria, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) LatestTickets(c *gin.Context) {
	tickets, err := h.listing.Latest(c.Request.Context(), h.reader(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tickets)
}

func (h *Handler) AdvertisedTickets(c *gin.Context) {
	tickets, err := h.listing.Advertised(c.Request.Context(), h.reader(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tickets)
}

func (h *Handler) TicketDetail(c *gin.Context) {
	d, err := h.booking.Detail(c.Request.Context(), h.token(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d.View(h.now()))
}

// Countdown streams the time left until departure as server-sent events,
// one per second, ending with the departure-passed label. The stream stops
// when the client goes away.
func (h *Handler) Countdown(c *gin.Context) {
	ctx := c.Request.Context()
	d, err := h.booking.Detail(ctx, h.token(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	done := monitoring.CountdownOpened()
	defer done()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	cd := booking.Countdown{Departure: d.Ticket().DepartureTime}
	err = cd.Start(ctx, func(label string) error {
		c.SSEvent("countdown", label)
		c.Writer.Flush()
		return nil
	})
	if err != nil && ctx.Err() == nil {
		logger.Printf("Countdown for %s ended: %v", c.Param("id"), err)
	}
}

type bookRequest struct {
	Quantity int `json:"quantity" form:"quantity"`
}

func (h *Handler) BookTicket(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBind(&req); err != nil {
		badInput(c, "Invalid request: "+err.Error())
		return
	}

	var user *models.User
	if s := session(c); s != nil {
		u := s.User
		user = &u
	}

	res, err := h.booking.Book(c.Request.Context(), h.token(c), user, c.Param("id"), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
