package repositories

import (
	"context"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/clutch-social/backend/internal/apperror"
	"github.com/clutch-social/backend/internal/models"
	"google.golang.org/api/iterator"
)

const (
	usersCollection     = "users"
	usernamesCollection = "usernames"

	// Firestore caps array-contains-any at ten values per query.
	maxGenreFilters = 10
)

// UserRepository defines the interface for user profile data operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, uid string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, uids []string) ([]*models.User, error)
	UpdateProfile(ctx context.Context, uid string, patch *models.UpdateProfileRequest) error
	UpdatePresence(ctx context.Context, uid string, online bool) error
	SetMediaRef(ctx context.Context, uid, field string, ref *models.MediaRef) (*models.MediaRef, error)
	ReserveUsername(ctx context.Context, username, uid string) error
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
	SearchUsers(ctx context.Context, query, excludeUID string, limit int) ([]*models.User, error)
	UsersByGenres(ctx context.Context, genres []string, limit int) ([]*models.User, error)
	RecentUsers(ctx context.Context, limit int) ([]*models.User, error)
}

// FirestoreUserRepository implements UserRepository against Firestore.
type FirestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository creates a new FirestoreUserRepository.
func NewFirestoreUserRepository(client *firestore.Client) *FirestoreUserRepository {
	return &FirestoreUserRepository{client: client}
}

// CreateUser writes the profile document at users/{uid}.
func (r *FirestoreUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	user.UsernameLower = strings.ToLower(user.Username)
	if _, err := r.client.Collection(usersCollection).Doc(user.UID).Create(ctx, user); err != nil {
		if isAlreadyExists(err) {
			return apperror.Conflict("user", user.UID)
		}
		return mapStoreError("create user", err)
	}
	return nil
}

// GetUserByID reads the profile document at users/{uid}.
func (r *FirestoreUserRepository) GetUserByID(ctx context.Context, uid string) (*models.User, error) {
	doc, err := r.client.Collection(usersCollection).Doc(uid).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("user", uid)
		}
		return nil, mapStoreError("get user", err)
	}
	return userFromDoc(doc)
}

// GetUsersByIDs reads several profiles in one batched call. Missing documents
// are skipped rather than failing the batch.
func (r *FirestoreUserRepository) GetUsersByIDs(ctx context.Context, uids []string) ([]*models.User, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	refs := make([]*firestore.DocumentRef, 0, len(uids))
	for _, uid := range uids {
		refs = append(refs, r.client.Collection(usersCollection).Doc(uid))
	}
	docs, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, mapStoreError("batch get users", err)
	}
	users := make([]*models.User, 0, len(docs))
	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		user, err := userFromDoc(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// UpdateProfile applies a field-level patch to users/{uid}. Only the fields
// present in the patch are touched, so concurrent edits to other fields
// survive.
func (r *FirestoreUserRepository) UpdateProfile(ctx context.Context, uid string, patch *models.UpdateProfileRequest) error {
	updates := []firestore.Update{
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	}
	if patch.DisplayName != nil {
		updates = append(updates, firestore.Update{Path: "displayName", Value: *patch.DisplayName})
	}
	if patch.Bio != nil {
		updates = append(updates, firestore.Update{Path: "bio", Value: *patch.Bio})
	}
	if patch.Genres != nil {
		updates = append(updates, firestore.Update{Path: "genres", Value: *patch.Genres})
	}

	if _, err := r.client.Collection(usersCollection).Doc(uid).Update(ctx, updates); err != nil {
		if isNotFound(err) {
			return apperror.NotFound("user", uid)
		}
		return mapStoreError("update profile", err)
	}
	return nil
}

// UpdatePresence flips the system-owned presence substructure.
func (r *FirestoreUserRepository) UpdatePresence(ctx context.Context, uid string, online bool) error {
	updates := []firestore.Update{
		{Path: "presence.online", Value: online},
		{Path: "presence.lastSeenAt", Value: firestore.ServerTimestamp},
	}
	if _, err := r.client.Collection(usersCollection).Doc(uid).Update(ctx, updates); err != nil {
		if isNotFound(err) {
			return apperror.NotFound("user", uid)
		}
		return mapStoreError("update presence", err)
	}
	return nil
}

// SetMediaRef swaps the avatar or banner reference on users/{uid} and
// returns the reference it replaced so the caller can clean up the old
// object.
func (r *FirestoreUserRepository) SetMediaRef(ctx context.Context, uid, field string, ref *models.MediaRef) (*models.MediaRef, error) {
	user, err := r.GetUserByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	var previous *models.MediaRef
	switch field {
	case "avatar":
		previous = user.Avatar
	case "banner":
		previous = user.Banner
	default:
		return nil, apperror.Validation("media field must be avatar or banner")
	}

	updates := []firestore.Update{
		{Path: field, Value: ref},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	}
	if _, err := r.client.Collection(usersCollection).Doc(uid).Update(ctx, updates); err != nil {
		return nil, mapStoreError("set media ref", err)
	}
	return previous, nil
}

// ReserveUsername claims usernames/{username} (lowercased) for uid. The
// create precondition makes the reservation atomic: the losing side of a race
// gets a conflict instead of overwriting. Re-claiming a name uid already owns
// succeeds, so a registration retry after a transient failure can proceed
// past a reservation that already went through.
func (r *FirestoreUserRepository) ReserveUsername(ctx context.Context, username, uid string) error {
	name := strings.ToLower(username)
	_, err := r.client.Collection(usernamesCollection).Doc(name).Create(ctx, map[string]interface{}{
		"uid":        uid,
		"reservedAt": firestore.ServerTimestamp,
	})
	if err != nil {
		if isAlreadyExists(err) {
			doc, getErr := r.client.Collection(usernamesCollection).Doc(name).Get(ctx)
			if getErr != nil {
				return mapStoreError("reserve username", getErr)
			}
			if owner, _ := doc.DataAt("uid"); owner == uid {
				return nil
			}
			return apperror.Conflict("username", name)
		}
		return mapStoreError("reserve username", err)
	}
	return nil
}

// IsUsernameAvailable checks whether usernames/{username} is unclaimed.
func (r *FirestoreUserRepository) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	name := strings.ToLower(username)
	_, err := r.client.Collection(usernamesCollection).Doc(name).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return true, nil
		}
		return false, mapStoreError("check username", err)
	}
	return false, nil
}

// SearchUsers runs a case-insensitive prefix match on usernames, excluding
// the requesting user from the results.
func (r *FirestoreUserRepository) SearchUsers(ctx context.Context, query, excludeUID string, limit int) ([]*models.User, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	iter := r.client.Collection(usersCollection).
		Where("usernameLower", ">=", q).
		Where("usernameLower", "<", q+"\uf8ff").
		Limit(limit + 1).
		Documents(ctx)
	users, err := collectUsers(iter, "search users")
	if err != nil {
		return nil, err
	}
	results := make([]*models.User, 0, len(users))
	for _, user := range users {
		if user.UID == excludeUID {
			continue
		}
		results = append(results, user)
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

// UsersByGenres returns users declaring at least one of the given genres.
func (r *FirestoreUserRepository) UsersByGenres(ctx context.Context, genres []string, limit int) ([]*models.User, error) {
	if len(genres) == 0 {
		return nil, nil
	}
	filters := normalizeGenres(genres)
	if len(filters) > maxGenreFilters {
		filters = filters[:maxGenreFilters]
	}
	iter := r.client.Collection(usersCollection).
		Where("genres", "array-contains-any", filters).
		Limit(limit).
		Documents(ctx)
	return collectUsers(iter, "users by genres")
}

// RecentUsers is the fallback candidate pool when the viewer has declared no
// interests.
func (r *FirestoreUserRepository) RecentUsers(ctx context.Context, limit int) ([]*models.User, error) {
	iter := r.client.Collection(usersCollection).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	return collectUsers(iter, "recent users")
}

func userFromDoc(doc *firestore.DocumentSnapshot) (*models.User, error) {
	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, mapStoreError("decode user", err)
	}
	user.UID = doc.Ref.ID
	return &user, nil
}

func collectUsers(iter *firestore.DocumentIterator, op string) ([]*models.User, error) {
	defer iter.Stop()
	var users []*models.User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, mapStoreError(op, err)
		}
		user, err := userFromDoc(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func normalizeGenres(genres []string) []string {
	seen := make(map[string]struct{}, len(genres))
	out := make([]string, 0, len(genres))
	for _, g := range genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == "" {
			continue
		}
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}
