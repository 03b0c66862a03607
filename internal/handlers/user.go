package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/clutch-social/backend/internal/models"
	"github.com/clutch-social/backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const uploadURLExpiry = 15 * time.Minute

// UserHandler handles HTTP requests related to user profiles and their media.
type UserHandler struct {
	userRepository repositories.UserRepository
	bucket         *gcs.BucketHandle
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userRepo repositories.UserRepository, bucket *gcs.BucketHandle) *UserHandler {
	return &UserHandler{userRepository: userRepo, bucket: bucket}
}

// RegisterProfileRoutes registers user profile-related routes.
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.PUT("/presence", h.UpdatePresence)
	g.GET("/users/:id", h.GetUser)
	g.GET("/users/search", h.SearchUsers)
	g.POST("/media/:field/upload-url", h.MediaUploadURL)
	g.PUT("/media/:field", h.CommitMedia)
}

// GetProfile retrieves the authenticated user's profile.
func (h *UserHandler) GetProfile(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	user, err := h.userRepository.GetUserByID(c.Request().Context(), firebaseUID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// GetUser retrieves another user's profile by id.
func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.userRepository.GetUserByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile applies a field-level patch to the authenticated user's
// profile. Absent fields stay untouched.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Genres != nil {
		genres, err := checkGenres(*req.Genres)
		if err != nil {
			return err
		}
		req.Genres = &genres
	}

	ctx := c.Request().Context()
	if err := h.userRepository.UpdateProfile(ctx, firebaseUID, &req); err != nil {
		return httpError(err)
	}

	user, err := h.userRepository.GetUserByID(ctx, firebaseUID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdatePresence is the heartbeat endpoint flipping the system-owned presence
// substructure.
func (h *UserHandler) UpdatePresence(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	var req models.UpdatePresenceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	if err := h.userRepository.UpdatePresence(c.Request().Context(), firebaseUID, req.Online); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SearchUsers searches profiles by username prefix, excluding the caller.
func (h *UserHandler) SearchUsers(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query 'q' is required")
	}
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 50 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid limit")
		}
		limit = n
	}

	users, err := h.userRepository.SearchUsers(c.Request().Context(), query, firebaseUID, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, users)
}

// MediaUploadURL issues a short-lived signed URL the client PUTs the avatar
// or banner bytes to. The object path is returned so the client can commit it
// afterwards.
func (h *UserHandler) MediaUploadURL(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	field, err := mediaField(c.Param("field"))
	if err != nil {
		return err
	}
	contentType := c.QueryParam("content_type")
	if !strings.HasPrefix(contentType, "image/") {
		return echo.NewHTTPError(http.StatusBadRequest, "content_type must be an image type")
	}

	objectPath := fmt.Sprintf("%ss/%s/%s", field, firebaseUID, uuid.NewString())
	url, err := h.bucket.SignedURL(objectPath, &gcs.SignedURLOptions{
		Method:      http.MethodPut,
		Expires:     time.Now().Add(uploadURLExpiry),
		ContentType: contentType,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to sign upload URL")
	}

	return c.JSON(http.StatusOK, echo.Map{"upload_url": url, "path": objectPath})
}

// CommitMedia records the uploaded object as the new avatar or banner
// reference and best-effort deletes the object it replaced.
func (h *UserHandler) CommitMedia(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	field, err := mediaField(c.Param("field"))
	if err != nil {
		return err
	}

	var ref models.MediaRef
	if err := c.Bind(&ref); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	prefix := field + "s/" + firebaseUID + "/"
	if !strings.HasPrefix(ref.Path, prefix) {
		return echo.NewHTTPError(http.StatusBadRequest, "Media path does not belong to this user")
	}

	ctx := c.Request().Context()
	previous, err := h.userRepository.SetMediaRef(ctx, firebaseUID, field, &ref)
	if err != nil {
		return httpError(err)
	}

	if previous != nil && previous.Path != ref.Path {
		if err := h.bucket.Object(previous.Path).Delete(ctx); err != nil {
			log.Printf("Failed to delete replaced media object %s: %v", previous.Path, err)
		}
	}

	user, err := h.userRepository.GetUserByID(ctx, firebaseUID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

func mediaField(field string) (string, error) {
	if field != "avatar" && field != "banner" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "Media field must be avatar or banner")
	}
	return field, nil
}
