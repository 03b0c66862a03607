package handlers

import (
	"net/http"
	"strconv"

	"github.com/clutch-social/backend/internal/friends"
	"github.com/labstack/echo/v4"
)

// SuggestionHandler handles HTTP requests for friend suggestions.
type SuggestionHandler struct {
	friendsService *friends.Service
}

// NewSuggestionHandler creates a new SuggestionHandler.
func NewSuggestionHandler(friendsService *friends.Service) *SuggestionHandler {
	return &SuggestionHandler{friendsService: friendsService}
}

// RegisterSuggestionRoutes registers suggestion-related routes.
func (h *SuggestionHandler) RegisterSuggestionRoutes(g *echo.Group) {
	g.GET("/suggestions", h.GetSuggestions)
}

// GetSuggestions returns the ranked friend-suggestion page for the caller.
func (h *SuggestionHandler) GetSuggestions(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid limit")
		}
		limit = n
	}

	candidates, err := h.friendsService.Suggestions(c.Request().Context(), firebaseUID, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, candidates)
}
