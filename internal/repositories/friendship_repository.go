package repositories

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/clutch-social/backend/internal/apperror"
	"github.com/clutch-social/backend/internal/models"
	"google.golang.org/api/iterator"
)

const (
	friendsSubcollection     = "friends"
	friendRequestsCollection = "friendRequests"
)

// FriendshipRepository defines the data operations behind the friend graph:
// the per-user edge documents at users/{uid}/friends/{fid} and the flat
// friendRequests collection. It is intentionally thin; transition rules live
// in the friends service.
type FriendshipRepository interface {
	GetFriendIDs(ctx context.Context, uid string) (map[string]struct{}, error)
	HasFriendEdge(ctx context.Context, ownerID, friendID string) (bool, error)
	WriteFriendEdge(ctx context.Context, ownerID, friendID string, since time.Time) error
	DeleteFriendEdge(ctx context.Context, ownerID, friendID string) error

	CreateFriendRequest(ctx context.Context, req *models.FriendRequest) error
	GetFriendRequest(ctx context.Context, id string) (*models.FriendRequest, error)
	FindPendingRequest(ctx context.Context, fromID, toID string) (*models.FriendRequest, error)
	ListIncomingRequests(ctx context.Context, uid string) ([]*models.FriendRequest, error)
	ListOutgoingRequests(ctx context.Context, uid string) ([]*models.FriendRequest, error)
	SetFriendRequestStatus(ctx context.Context, id string, status models.RequestStatus) error
}

// FirestoreFriendshipRepository implements FriendshipRepository against
// Firestore.
type FirestoreFriendshipRepository struct {
	client *firestore.Client
}

// NewFirestoreFriendshipRepository creates a new FirestoreFriendshipRepository.
func NewFirestoreFriendshipRepository(client *firestore.Client) *FirestoreFriendshipRepository {
	return &FirestoreFriendshipRepository{client: client}
}

func (r *FirestoreFriendshipRepository) friendDoc(ownerID, friendID string) *firestore.DocumentRef {
	return r.client.Collection(usersCollection).Doc(ownerID).Collection(friendsSubcollection).Doc(friendID)
}

// GetFriendIDs reads the owner's friends subcollection. An empty set is a
// valid answer, not an error.
func (r *FirestoreFriendshipRepository) GetFriendIDs(ctx context.Context, uid string) (map[string]struct{}, error) {
	iter := r.client.Collection(usersCollection).Doc(uid).Collection(friendsSubcollection).Documents(ctx)
	defer iter.Stop()

	ids := make(map[string]struct{})
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, mapStoreError("get friend ids", err)
		}
		ids[doc.Ref.ID] = struct{}{}
	}
	return ids, nil
}

// HasFriendEdge checks a single side of the friendship.
func (r *FirestoreFriendshipRepository) HasFriendEdge(ctx context.Context, ownerID, friendID string) (bool, error) {
	_, err := r.friendDoc(ownerID, friendID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, mapStoreError("check friend edge", err)
	}
	return true, nil
}

// WriteFriendEdge sets one side of the friendship. Set is idempotent, so
// retries after a partial two-sided write are safe.
func (r *FirestoreFriendshipRepository) WriteFriendEdge(ctx context.Context, ownerID, friendID string, since time.Time) error {
	edge := &models.FriendEdge{FriendID: friendID, Since: since}
	if _, err := r.friendDoc(ownerID, friendID).Set(ctx, edge); err != nil {
		return mapStoreError("write friend edge", err)
	}
	return nil
}

// DeleteFriendEdge removes one side of the friendship. Deleting a missing
// document is not an error.
func (r *FirestoreFriendshipRepository) DeleteFriendEdge(ctx context.Context, ownerID, friendID string) error {
	if _, err := r.friendDoc(ownerID, friendID).Delete(ctx); err != nil {
		return mapStoreError("delete friend edge", err)
	}
	return nil
}

// CreateFriendRequest writes a new request document keyed by its ID.
func (r *FirestoreFriendshipRepository) CreateFriendRequest(ctx context.Context, req *models.FriendRequest) error {
	if _, err := r.client.Collection(friendRequestsCollection).Doc(req.ID).Create(ctx, req); err != nil {
		if isAlreadyExists(err) {
			return apperror.Conflict("friend request", req.ID)
		}
		return mapStoreError("create friend request", err)
	}
	return nil
}

// GetFriendRequest reads friendRequests/{id}.
func (r *FirestoreFriendshipRepository) GetFriendRequest(ctx context.Context, id string) (*models.FriendRequest, error) {
	doc, err := r.client.Collection(friendRequestsCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("friend request", id)
		}
		return nil, mapStoreError("get friend request", err)
	}
	return requestFromDoc(doc)
}

// FindPendingRequest returns the active request for the ordered (from, to)
// pair, or nil when none exists.
func (r *FirestoreFriendshipRepository) FindPendingRequest(ctx context.Context, fromID, toID string) (*models.FriendRequest, error) {
	iter := r.client.Collection(friendRequestsCollection).
		Where("fromUserId", "==", fromID).
		Where("toUserId", "==", toID).
		Where("status", "==", string(models.StatusPending)).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, mapStoreError("find pending request", err)
	}
	return requestFromDoc(doc)
}

// ListIncomingRequests returns the pending requests addressed to uid.
func (r *FirestoreFriendshipRepository) ListIncomingRequests(ctx context.Context, uid string) ([]*models.FriendRequest, error) {
	iter := r.client.Collection(friendRequestsCollection).
		Where("toUserId", "==", uid).
		Where("status", "==", string(models.StatusPending)).
		Documents(ctx)
	return collectRequests(iter, "list incoming requests")
}

// ListOutgoingRequests returns the pending requests sent by uid.
func (r *FirestoreFriendshipRepository) ListOutgoingRequests(ctx context.Context, uid string) ([]*models.FriendRequest, error) {
	iter := r.client.Collection(friendRequestsCollection).
		Where("fromUserId", "==", uid).
		Where("status", "==", string(models.StatusPending)).
		Documents(ctx)
	return collectRequests(iter, "list outgoing requests")
}

// SetFriendRequestStatus moves a request to a terminal state. The document is
// kept so the state is an explicit field rather than inferred from absence.
func (r *FirestoreFriendshipRepository) SetFriendRequestStatus(ctx context.Context, id string, status models.RequestStatus) error {
	updates := []firestore.Update{{Path: "status", Value: string(status)}}
	if _, err := r.client.Collection(friendRequestsCollection).Doc(id).Update(ctx, updates); err != nil {
		if isNotFound(err) {
			return apperror.NotFound("friend request", id)
		}
		return mapStoreError("set friend request status", err)
	}
	return nil
}

func requestFromDoc(doc *firestore.DocumentSnapshot) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := doc.DataTo(&req); err != nil {
		return nil, mapStoreError("decode friend request", err)
	}
	req.ID = doc.Ref.ID
	return &req, nil
}

func collectRequests(iter *firestore.DocumentIterator, op string) ([]*models.FriendRequest, error) {
	defer iter.Stop()
	var requests []*models.FriendRequest
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, mapStoreError(op, err)
		}
		req, err := requestFromDoc(doc)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, nil
}
