package api

import (
	"github.com/gin-gonic/gin"

	"ticketbari/internal/dashboard"
	"ticketbari/internal/monitoring"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	r.GET("/health", h.Health)
	if h.metrics {
		r.GET("/metrics", gin.WrapH(monitoring.Handler()))
	}

	r.Use(h.loadSession)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/signup", h.Signup)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/me", h.Me)
		authGroup.GET("/google", h.GoogleStart)
		authGroup.GET("/google/callback", h.GoogleCallback)
	}

	tickets := r.Group("/tickets")
	{
		tickets.GET("/latest", h.LatestTickets)
		tickets.GET("/advertised", h.AdvertisedTickets)
		tickets.POST("/:id/book", h.BookTicket)

		tickets.GET("", h.requireLogin, h.ListTickets)
		tickets.GET("/search", h.requireLogin, h.SearchTickets)
		tickets.GET("/:id", h.requireLogin, h.TicketDetail)
		tickets.GET("/:id/countdown", h.requireLogin, h.Countdown)
	}

	r.GET("/payment-success", h.requireLogin, h.PaymentSuccess)

	dash := r.Group(dashboard.Root, h.requireLogin, h.requireRole)
	{
		dash.GET("", h.Statistics)
		dash.GET("/profile", h.Profile)

		// customer
		dash.GET("/bookings", h.MyBookings)
		dash.POST("/bookings/:id/pay", h.PayBooking)
		dash.GET("/transactions", h.Transactions)

		// vendor
		dash.POST("/add-ticket", h.AddTicket)
		dash.GET("/my-tickets", h.VendorTickets)
		dash.PUT("/my-tickets/:id", h.UpdateTicket)
		dash.DELETE("/my-tickets/:id", h.DeleteTicket)
		dash.GET("/vendor-bookings", h.VendorBookings)
		dash.PATCH("/vendor-bookings/:id/accept", h.AcceptBooking)
		dash.PATCH("/vendor-bookings/:id/reject", h.RejectBooking)
		dash.GET("/vendor-revenue", h.VendorRevenue)

		// admin
		dash.GET("/manage-tickets", h.ManageTickets)
		dash.PATCH("/manage-tickets/:id/approve", h.ticketChange(h.moderation.Approve))
		dash.PATCH("/manage-tickets/:id/reject", h.ticketChange(h.moderation.Reject))
		dash.GET("/manage-users", h.ManageUsers)
		dash.PATCH("/manage-users/:email/make-admin", h.userChange(h.moderation.MakeAdmin))
		dash.PATCH("/manage-users/:email/make-vendor", h.userChange(h.moderation.MakeVendor))
		dash.PATCH("/manage-users/:email/mark-fraud", h.userChange(h.moderation.MarkFraud))
		dash.GET("/advertise-tickets", h.AdvertiseCandidates)
		dash.PATCH("/advertise-tickets/:id/toggle", h.ticketChange(h.moderation.ToggleAdvertise))
	}
}
