package friends

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/clutch-social/backend/internal/apperror"
	"github.com/clutch-social/backend/internal/models"
	"github.com/clutch-social/backend/internal/repositories"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Config tunes the suggestion aggregator.
type Config struct {
	// PageSize caps the suggestion list returned to a client.
	PageSize int
	// ExcludeIncomingPending drops candidates who already sent the viewer a
	// pending request. They surface on the requests screen instead of being
	// suggested twice.
	ExcludeIncomingPending bool
}

// DefaultConfig matches the production behaviour.
func DefaultConfig() Config {
	return Config{PageSize: 20, ExcludeIncomingPending: true}
}

// Service owns the friend-relationship rules: status derivation, the request
// state machine, the two-sided edge writes and the suggestion pipeline. All
// store access goes through the injected repository interfaces.
type Service struct {
	users       repositories.UserRepository
	friendships repositories.FriendshipRepository
	cfg         Config
}

// NewService creates a friends Service.
func NewService(users repositories.UserRepository, friendships repositories.FriendshipRepository, cfg Config) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultConfig().PageSize
	}
	return &Service{users: users, friendships: friendships, cfg: cfg}
}

// Status derives the viewer-relative relationship state, checking in priority
// order: identity, friend edge, outgoing pending request, incoming pending
// request. The first match wins.
func (s *Service) Status(ctx context.Context, viewerID, targetID string) (models.FriendshipStatus, error) {
	if viewerID == targetID {
		return models.StatusSelf, nil
	}

	isFriend, err := s.friendships.HasFriendEdge(ctx, viewerID, targetID)
	if err != nil {
		return models.StatusNone, err
	}
	if isFriend {
		return models.StatusFriends, nil
	}

	outgoing, err := s.friendships.FindPendingRequest(ctx, viewerID, targetID)
	if err != nil {
		return models.StatusNone, err
	}
	if outgoing != nil {
		return models.StatusPendingSent, nil
	}

	incoming, err := s.friendships.FindPendingRequest(ctx, targetID, viewerID)
	if err != nil {
		return models.StatusNone, err
	}
	if incoming != nil {
		return models.StatusPendingReceived, nil
	}

	return models.StatusNone, nil
}

// SendRequest creates a pending friend request after checking every
// precondition. No store write happens unless the transition is legal and the
// target exists.
func (s *Service) SendRequest(ctx context.Context, fromID, toID string) (*models.FriendRequest, error) {
	if fromID == toID {
		return nil, apperror.SelfRequest(fromID)
	}

	status, err := s.Status(ctx, fromID, toID)
	if err != nil {
		return nil, err
	}
	if status == models.StatusPendingSent {
		return nil, apperror.DuplicateRequest(fromID, toID)
	}
	if _, err := models.Transition(status, models.ActionSendRequest); err != nil {
		return nil, err
	}

	if _, err := s.users.GetUserByID(ctx, toID); err != nil {
		return nil, err
	}

	req := &models.FriendRequest{
		ID:         uuid.NewString(),
		FromUserID: fromID,
		ToUserID:   toID,
		Status:     models.StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.friendships.CreateFriendRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// AcceptRequest turns a pending request into a friendship. The two edge
// writes are not atomic; each side is written only if missing, so retrying
// after a partial failure completes the edge without duplicating the side
// that already succeeded.
func (s *Service) AcceptRequest(ctx context.Context, requestID, acceptorID string) error {
	req, err := s.friendships.GetFriendRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.ToUserID != acceptorID {
		return apperror.Permission("accept friend request", apperror.ErrPermission)
	}
	// Accepted is allowed through so a retry after a partial edge write can
	// finish the job; declined and cancelled requests stay terminal.
	if req.Status != models.StatusPending && req.Status != models.StatusAccepted {
		return apperror.InvalidTransition(string(req.Status), string(models.ActionAccept))
	}

	since := time.Now().UTC()
	if err := s.ensureEdge(ctx, req.FromUserID, req.ToUserID, since); err != nil {
		return err
	}
	if err := s.ensureEdge(ctx, req.ToUserID, req.FromUserID, since); err != nil {
		return apperror.PartialWrite("accept friend request", err)
	}

	if req.Status == models.StatusAccepted {
		return nil
	}
	return s.friendships.SetFriendRequestStatus(ctx, requestID, models.StatusAccepted)
}

func (s *Service) ensureEdge(ctx context.Context, ownerID, friendID string, since time.Time) error {
	has, err := s.friendships.HasFriendEdge(ctx, ownerID, friendID)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	return s.friendships.WriteFriendEdge(ctx, ownerID, friendID, since)
}

// DeclineRequest rejects an incoming pending request. No edge is created.
func (s *Service) DeclineRequest(ctx context.Context, requestID, declinerID string) error {
	return s.closeRequest(ctx, requestID, declinerID, models.StatusDeclined)
}

// CancelRequest withdraws an outgoing pending request.
func (s *Service) CancelRequest(ctx context.Context, requestID, senderID string) error {
	return s.closeRequest(ctx, requestID, senderID, models.StatusCancelled)
}

func (s *Service) closeRequest(ctx context.Context, requestID, actorID string, terminal models.RequestStatus) error {
	req, err := s.friendships.GetFriendRequest(ctx, requestID)
	if err != nil {
		return err
	}
	switch terminal {
	case models.StatusDeclined:
		if req.ToUserID != actorID {
			return apperror.Permission("decline friend request", apperror.ErrPermission)
		}
	case models.StatusCancelled:
		if req.FromUserID != actorID {
			return apperror.Permission("cancel friend request", apperror.ErrPermission)
		}
	}
	if req.Status != models.StatusPending {
		return apperror.InvalidTransition(string(req.Status), string(terminal))
	}
	return s.friendships.SetFriendRequestStatus(ctx, requestID, terminal)
}

// RemoveFriend deletes both sides of the edge. A one-sided leftover from an
// earlier partial removal still counts as a friendship to dismantle, so the
// guard passes when either side exists.
func (s *Service) RemoveFriend(ctx context.Context, userID, otherID string) error {
	hasOwn, err := s.friendships.HasFriendEdge(ctx, userID, otherID)
	if err != nil {
		return err
	}
	hasOther, err := s.friendships.HasFriendEdge(ctx, otherID, userID)
	if err != nil {
		return err
	}
	if !hasOwn && !hasOther {
		return apperror.InvalidTransition(string(models.StatusNone), string(models.ActionRemove))
	}

	if hasOwn {
		if err := s.friendships.DeleteFriendEdge(ctx, userID, otherID); err != nil {
			return err
		}
	}
	if hasOther {
		if err := s.friendships.DeleteFriendEdge(ctx, otherID, userID); err != nil {
			return apperror.PartialWrite("remove friend", err)
		}
	}
	return nil
}

// Friends returns the user's friend profiles, hydrated in one batched read.
func (s *Service) Friends(ctx context.Context, userID string) ([]*models.User, error) {
	ids, err := s.friendships.GetFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.users.GetUsersByIDs(ctx, sortedIDs(ids))
}

// IncomingRequests lists the pending requests addressed to the user.
func (s *Service) IncomingRequests(ctx context.Context, userID string) ([]*models.FriendRequest, error) {
	return s.friendships.ListIncomingRequests(ctx, userID)
}

// OutgoingRequests lists the pending requests the user has sent.
func (s *Service) OutgoingRequests(ctx context.Context, userID string) ([]*models.FriendRequest, error) {
	return s.friendships.ListOutgoingRequests(ctx, userID)
}

// MutualFriendsCount returns the size of the intersection of both users'
// friend sets.
func (s *Service) MutualFriendsCount(ctx context.Context, userID, otherID string) (int, error) {
	setA, err := s.friendships.GetFriendIDs(ctx, userID)
	if err != nil {
		return 0, err
	}
	setB, err := s.friendships.GetFriendIDs(ctx, otherID)
	if err != nil {
		return 0, err
	}
	return intersectionSize(setA, setB), nil
}

// BatchMutualFriendsCount computes mutual counts for several candidates while
// fetching the anchor set only once. Candidate sets are fetched concurrently;
// a failed candidate read degrades that count to zero instead of failing the
// batch.
func (s *Service) BatchMutualFriendsCount(ctx context.Context, userID string, otherIDs []string) (map[string]int, error) {
	anchor, err := s.friendships.GetFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(otherIDs))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, otherID := range otherIDs {
		g.Go(func() error {
			set, err := s.friendships.GetFriendIDs(gctx, otherID)
			n := 0
			if err == nil {
				n = intersectionSize(anchor, set)
			}
			mu.Lock()
			counts[otherID] = n
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

func intersectionSize(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for id := range a {
		if _, ok := b[id]; ok {
			n++
		}
	}
	return n
}

func sortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
