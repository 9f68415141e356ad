package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ticketbari/internal/auth"
	"ticketbari/internal/imagehost"
)

type loginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

type signupRequest struct {
	Name     string `json:"name" form:"name" binding:"required"`
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
	Photo    string `json:"photo" form:"photo"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		badInput(c, "Invalid request: "+err.Error())
		return
	}

	s, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.started(c, s, http.StatusOK)
}

// Signup accepts JSON with a photo URL, or a multipart form whose "image"
// file is uploaded to the image host first.
func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBind(&req); err != nil {
		badInput(c, "Invalid request: "+err.Error())
		return
	}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		url, err := h.uploadFormImage(c)
		if err != nil && !errors.Is(err, imagehost.ErrNoImage) {
			respondError(c, err)
			return
		}
		if url != "" {
			req.Photo = url
		}
	}

	s, err := h.auth.SignUp(c.Request.Context(), req.Name, req.Email, req.Password, req.Photo)
	if err != nil {
		respondError(c, err)
		return
	}
	h.started(c, s, http.StatusCreated)
}

func (h *Handler) started(c *gin.Context, s *auth.Session, status int) {
	if err := h.setCookie(c, s); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, gin.H{"user": s.User})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.auth.LogOut(c.Request.Context(), session(c)); err != nil {
		respondError(c, err)
		return
	}
	h.clearCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns the signed-in user.
func (h *Handler) Me(c *gin.Context) {
	s := session(c)
	if s == nil {
		respondError(c, auth.ErrNoSession)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": s.User})
}

func (h *Handler) GoogleStart(c *gin.Context) {
	if h.google == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "Google sign-in is not configured"})
		return
	}
	state, err := h.auth.BeginOAuth(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, h.google.AuthURL(state))
}

func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.google == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "Google sign-in is not configured"})
		return
	}
	ctx := c.Request.Context()

	if err := h.auth.ConsumeOAuth(ctx, c.Query("state")); err != nil {
		respondError(c, err)
		return
	}
	code := c.Query("code")
	if code == "" {
		badInput(c, "missing authorization code")
		return
	}

	idToken, err := h.google.Exchange(ctx, code)
	if err != nil {
		logger.Printf("Google code exchange failed: %v", err)
		respondError(c, err)
		return
	}
	s, err := h.auth.SignInWithGoogle(ctx, idToken)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.setCookie(c, s); err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) uploadFormImage(c *gin.Context) (string, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return "", imagehost.ErrNoImage
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return h.images.Upload(c.Request.Context(), fh.Filename, f)
}
