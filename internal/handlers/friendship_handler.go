package handlers

import (
	"net/http"

	"github.com/clutch-social/backend/internal/friends"
	"github.com/clutch-social/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// FriendshipHandler handles HTTP requests related to the friend graph.
type FriendshipHandler struct {
	friendsService *friends.Service
}

// NewFriendshipHandler creates a new FriendshipHandler.
func NewFriendshipHandler(friendsService *friends.Service) *FriendshipHandler {
	return &FriendshipHandler{friendsService: friendsService}
}

// RegisterFriendshipRoutes registers friendship-related routes.
func (h *FriendshipHandler) RegisterFriendshipRoutes(g *echo.Group) {
	g.POST("/friends/request", h.SendFriendRequest)
	g.GET("/friends/requests/incoming", h.GetIncomingRequests)
	g.GET("/friends/requests/outgoing", h.GetOutgoingRequests)
	g.POST("/friends/request/:id/accept", h.AcceptFriendRequest)
	g.POST("/friends/request/:id/decline", h.DeclineFriendRequest)
	g.POST("/friends/request/:id/cancel", h.CancelFriendRequest)
	g.GET("/friends", h.GetFriends)
	g.DELETE("/friends/:id", h.RemoveFriend)
	g.GET("/friends/status/:id", h.GetFriendshipStatus)
	g.GET("/friends/mutual/:id", h.GetMutualFriendsCount)
}

// SendFriendRequest handles sending a friend request.
func (h *FriendshipHandler) SendFriendRequest(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	var req models.SendFriendRequestBody
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	created, err := h.friendsService.SendRequest(c.Request().Context(), firebaseUID, req.ToUserID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

// GetIncomingRequests lists pending requests addressed to the caller.
func (h *FriendshipHandler) GetIncomingRequests(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	requests, err := h.friendsService.IncomingRequests(c.Request().Context(), firebaseUID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, requests)
}

// GetOutgoingRequests lists pending requests the caller has sent.
func (h *FriendshipHandler) GetOutgoingRequests(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	requests, err := h.friendsService.OutgoingRequests(c.Request().Context(), firebaseUID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, requests)
}

// AcceptFriendRequest accepts an incoming friend request.
func (h *FriendshipHandler) AcceptFriendRequest(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	if err := h.friendsService.AcceptRequest(c.Request().Context(), c.Param("id"), firebaseUID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeclineFriendRequest declines an incoming friend request.
func (h *FriendshipHandler) DeclineFriendRequest(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	if err := h.friendsService.DeclineRequest(c.Request().Context(), c.Param("id"), firebaseUID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CancelFriendRequest withdraws an outgoing friend request.
func (h *FriendshipHandler) CancelFriendRequest(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	if err := h.friendsService.CancelRequest(c.Request().Context(), c.Param("id"), firebaseUID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetFriends retrieves the caller's friend profiles.
func (h *FriendshipHandler) GetFriends(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	users, err := h.friendsService.Friends(c.Request().Context(), firebaseUID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, users)
}

// RemoveFriend handles unfriending.
func (h *FriendshipHandler) RemoveFriend(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	if err := h.friendsService.RemoveFriend(c.Request().Context(), firebaseUID, c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetFriendshipStatus returns the caller-relative relationship status with
// another user.
func (h *FriendshipHandler) GetFriendshipStatus(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	status, err := h.friendsService.Status(c.Request().Context(), firebaseUID, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": status})
}

// GetMutualFriendsCount returns the number of friends the caller shares with
// another user.
func (h *FriendshipHandler) GetMutualFriendsCount(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	count, err := h.friendsService.MutualFriendsCount(c.Request().Context(), firebaseUID, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"mutual_friends": count})
}
