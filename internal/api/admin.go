package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"ticketbari/internal/client"
	"ticketbari/internal/models"
)

func (h *Handler) ManageTickets(c *gin.Context) {
	tickets, err := h.moderation.Tickets(c.Request.Context(), h.auth.TokenSource(session(c)))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tickets)
}

func (h *Handler) AdvertiseCandidates(c *gin.Context) {
	tickets, err := h.moderation.AdvertiseCandidates(c.Request.Context(), h.auth.TokenSource(session(c)))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tickets)
}

func (h *Handler) ManageUsers(c *gin.Context) {
	users, err := h.moderation.Users(c.Request.Context(), h.auth.TokenSource(session(c)))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

type ticketAction func(ctx context.Context, ts client.TokenSource, id string) (models.Ticket, error)

type userAction func(ctx context.Context, ts client.TokenSource, email string) (models.User, error)

// ticketChange answers with the ticket as it stands after the action, which
// is the rolled back value when the action failed.
func (h *Handler) ticketChange(action ticketAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := action(c.Request.Context(), h.auth.TokenSource(session(c)), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

func (h *Handler) userChange(action userAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := action(c.Request.Context(), h.auth.TokenSource(session(c)), c.Param("email"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}
