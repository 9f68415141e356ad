package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"ticketbari/internal/auth"
	"ticketbari/internal/booking"
	"ticketbari/internal/checkout"
	"ticketbari/internal/dashboard"
	"ticketbari/internal/imagehost"
	"ticketbari/internal/listing"
	"ticketbari/internal/moderation"
	"ticketbari/internal/stats"
	"ticketbari/internal/vendor"
)

var logger = log.New(os.Stdout, "WEB: ", log.LstdFlags|log.Lshortfile)

const sessionKey = "session"

// Options wires the handler to its services.
type Options struct {
	Auth         *auth.Manager
	Google       *auth.GoogleSignIn
	Images       imagehost.Uploader
	Listing      *listing.Service
	Booking      *booking.Service
	Roles        *dashboard.RoleResolver
	Vendor       *vendor.Service
	Moderation   *moderation.Service
	Checkout     *checkout.Service
	Stats        *stats.Service
	Health       func(ctx context.Context) error
	CookieSecure bool
	Metrics      bool
}

type Handler struct {
	auth       *auth.Manager
	google     *auth.GoogleSignIn
	images     imagehost.Uploader
	listing    *listing.Service
	booking    *booking.Service
	roles      *dashboard.RoleResolver
	vendor     *vendor.Service
	moderation *moderation.Service
	checkout   *checkout.Service
	stats      *stats.Service
	health     func(ctx context.Context) error
	secure     bool
	metrics    bool
	now        func() time.Time
}

func NewHandler(o Options) *Handler {
	return &Handler{
		auth:       o.Auth,
		google:     o.Google,
		images:     o.Images,
		listing:    o.Listing,
		booking:    o.Booking,
		roles:      o.Roles,
		vendor:     o.Vendor,
		moderation: o.Moderation,
		checkout:   o.Checkout,
		stats:      o.Stats,
		health:     o.Health,
		secure:     o.CookieSecure,
		metrics:    o.Metrics,
		now:        time.Now,
	}
}

// loadSession attaches the caller's session, if any, to the request.
func (h *Handler) loadSession(c *gin.Context) {
	cookie, err := c.Cookie(auth.CookieName)
	if err != nil || cookie == "" {
		c.Next()
		return
	}

	s, err := h.auth.Load(c.Request.Context(), cookie)
	switch {
	case err == nil:
		c.Set(sessionKey, s)
	case errors.Is(err, auth.ErrNoSession):
		h.clearCookie(c)
	default:
		logger.Printf("Session lookup failed: %v", err)
	}
	c.Next()
}

func session(c *gin.Context) *auth.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*auth.Session)
	return s
}

// requireLogin sends anonymous callers to the login page.
func (h *Handler) requireLogin(c *gin.Context) {
	if session(c) == nil {
		c.Redirect(http.StatusSeeOther, loginPath)
		c.Abort()
		return
	}
	c.Next()
}

// requireRole lets the request through only when the caller's role may open
// the dashboard page that owns the path. Others go back to the home page.
func (h *Handler) requireRole(c *gin.Context) {
	s := session(c)
	if s == nil {
		c.Redirect(http.StatusSeeOther, loginPath)
		c.Abort()
		return
	}

	role, err := h.roles.Role(c.Request.Context(), s)
	if err != nil {
		respondError(c, err)
		return
	}
	if !dashboard.Allowed(role, c.Request.URL.Path) {
		c.Redirect(http.StatusSeeOther, "/")
		c.Abort()
		return
	}
	c.Next()
}

func (h *Handler) setCookie(c *gin.Context, s *auth.Session) error {
	value, err := h.auth.Cookie(s)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, value, int(h.auth.CookieTTL().Seconds()), "/", "", h.secure, true)
	return nil
}

func (h *Handler) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, "", -1, "/", "", h.secure, true)
}

func (h *Handler) Health(c *gin.Context) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
