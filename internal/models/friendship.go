package models

import (
	"time"

	"github.com/clutch-social/backend/internal/apperror"
)

// FriendEdge is one side of a friendship, stored at users/{uid}/friends/{fid}.
// The symmetric document under the other user is written independently, so a
// transient one-sided edge is possible and tolerated.
type FriendEdge struct {
	FriendID string    `firestore:"friendId" json:"friend_id"`
	Since    time.Time `firestore:"since" json:"since"`
}

// RequestStatus is the explicit lifecycle field on a friend request document.
// Only StatusPending counts as active; the terminal states are kept for
// auditability rather than inferred from document absence.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusAccepted  RequestStatus = "accepted"
	StatusDeclined  RequestStatus = "declined"
	StatusCancelled RequestStatus = "cancelled"
)

// FriendRequest is a directed proposal stored at friendRequests/{rid}.
type FriendRequest struct {
	ID         string        `firestore:"-" json:"id"`
	FromUserID string        `firestore:"fromUserId" json:"from_user_id"`
	ToUserID   string        `firestore:"toUserId" json:"to_user_id"`
	Status     RequestStatus `firestore:"status" json:"status"`
	CreatedAt  time.Time     `firestore:"createdAt" json:"created_at"`
}

// SendFriendRequestBody defines the request body for sending a friend request.
type SendFriendRequestBody struct {
	ToUserID string `json:"to_user_id" validate:"required"`
}

// FriendshipStatus is the viewer-relative relationship state. It is always
// derived from edges and pending requests, never stored.
type FriendshipStatus string

const (
	StatusSelf            FriendshipStatus = "self"
	StatusFriends         FriendshipStatus = "friends"
	StatusPendingSent     FriendshipStatus = "pending_sent"
	StatusPendingReceived FriendshipStatus = "pending_received"
	StatusNone            FriendshipStatus = "none"
)

// RelationshipAction names the operations that move a pair of users between
// relationship states.
type RelationshipAction string

const (
	ActionSendRequest RelationshipAction = "send_request"
	ActionCancel      RelationshipAction = "cancel"
	ActionAccept      RelationshipAction = "accept"
	ActionDecline     RelationshipAction = "decline"
	ActionRemove      RelationshipAction = "remove"
)

// Transition returns the status reached by applying action to the viewer's
// current status. Illegal combinations yield an InvalidTransition error; the
// caller must check this before issuing any store write.
func Transition(current FriendshipStatus, action RelationshipAction) (FriendshipStatus, error) {
	switch current {
	case StatusNone:
		if action == ActionSendRequest {
			return StatusPendingSent, nil
		}
	case StatusPendingSent:
		if action == ActionCancel {
			return StatusNone, nil
		}
	case StatusPendingReceived:
		switch action {
		case ActionAccept:
			return StatusFriends, nil
		case ActionDecline:
			return StatusNone, nil
		}
	case StatusFriends:
		if action == ActionRemove {
			return StatusNone, nil
		}
	case StatusSelf:
		// self is a fixed point
	}
	return current, apperror.InvalidTransition(string(current), string(action))
}
