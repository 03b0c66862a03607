package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/clutch-social/backend/internal/models"
	"github.com/clutch-social/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// TokenVerifier checks a Firebase ID token. Satisfied by *auth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthHandler handles profile registration for accounts created on the
// identity platform.
type AuthHandler struct {
	userRepository repositories.UserRepository
	firebaseAuth   TokenVerifier
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userRepo repositories.UserRepository, firebaseAuthClient TokenVerifier) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		firebaseAuth:   firebaseAuthClient,
	}
}

// RegisterAuthRoutes registers authentication-related routes.
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/register", h.Register)
	g.GET("/username-available", h.UsernameAvailable)
}

// Register verifies the Firebase ID token, reserves the requested username
// and creates the profile document.
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	genres, err := checkGenres(req.Genres)
	if err != nil {
		return err
	}

	token, err := h.firebaseAuth.VerifyIDToken(c.Request().Context(), req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	ctx := c.Request().Context()
	if err := h.userRepository.ReserveUsername(ctx, req.Username, token.UID); err != nil {
		return httpError(err)
	}

	now := time.Now().UTC()
	user := &models.User{
		UID:         token.UID,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		Genres:      genres,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, user)
}

// UsernameAvailable checks whether a username is still unreserved. The check
// is advisory: reservation itself is what settles a race.
func (h *AuthHandler) UsernameAvailable(c echo.Context) error {
	username := strings.TrimSpace(c.QueryParam("username"))
	if username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Query parameter 'username' is required")
	}

	available, err := h.userRepository.IsUsernameAvailable(c.Request().Context(), username)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"username": username, "available": available})
}

// checkGenres lowercases the submitted tags and rejects anything outside the
// genre vocabulary.
func checkGenres(genres []string) ([]string, error) {
	out := make([]string, 0, len(genres))
	for _, g := range genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if !models.ValidGenre(g) {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "Unknown gaming genre: "+g)
		}
		out = append(out, g)
	}
	return out, nil
}
