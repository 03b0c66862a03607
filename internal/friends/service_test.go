package friends

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clutch-social/backend/internal/apperror"
	"github.com/clutch-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(users *fakeUserRepo, friendships *fakeFriendshipRepo) *Service {
	return NewService(users, friendships, DefaultConfig())
}

func user(uid string, genres ...string) *models.User {
	return &models.User{UID: uid, Username: uid, Genres: genres, CreatedAt: time.Now()}
}

func pendingRequest(id, from, to string) *models.FriendRequest {
	return &models.FriendRequest{
		ID:         id,
		FromUserID: from,
		ToUserID:   to,
		Status:     models.StatusPending,
		CreatedAt:  time.Now(),
	}
}

func TestStatusPriorityOrder(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo(user("alice"), user("bob"))
	repo := newFakeFriendshipRepo()
	svc := newTestService(users, repo)

	status, err := svc.Status(ctx, "alice", "alice")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSelf, status)

	status, err = svc.Status(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, models.StatusNone, status)

	require.NoError(t, repo.CreateFriendRequest(ctx, pendingRequest("r1", "alice", "bob")))
	status, err = svc.Status(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingSent, status)

	status, err = svc.Status(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingReceived, status)

	// An edge outranks any pending request.
	repo.addEdge("alice", "bob")
	status, err = svc.Status(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFriends, status)
}

func TestStatusIsDeterministic(t *testing.T) {
	ctx := context.Background()
	repo := newFakeFriendshipRepo()
	repo.addEdge("alice", "bob")
	svc := newTestService(newFakeUserRepo(), repo)

	for i := 0; i < 5; i++ {
		status, err := svc.Status(ctx, "alice", "bob")
		require.NoError(t, err)
		assert.Equal(t, models.StatusFriends, status)
	}
}

func TestSendRequestGuardsIssueNoWrites(t *testing.T) {
	ctx := context.Background()

	t.Run("self request", func(t *testing.T) {
		repo := newFakeFriendshipRepo()
		svc := newTestService(newFakeUserRepo(user("alice")), repo)

		_, err := svc.SendRequest(ctx, "alice", "alice")
		assert.ErrorIs(t, err, apperror.ErrSelfRequest)
		assert.Zero(t, repo.writes())
	})

	t.Run("already friends", func(t *testing.T) {
		repo := newFakeFriendshipRepo()
		repo.addEdge("alice", "bob")
		svc := newTestService(newFakeUserRepo(user("alice"), user("bob")), repo)

		_, err := svc.SendRequest(ctx, "alice", "bob")
		assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
		assert.Zero(t, repo.writes())
	})

	t.Run("duplicate pending outgoing", func(t *testing.T) {
		repo := newFakeFriendshipRepo()
		svc := newTestService(newFakeUserRepo(user("alice"), user("bob")), repo)
		require.NoError(t, repo.CreateFriendRequest(ctx, pendingRequest("r1", "alice", "bob")))
		writesBefore := repo.writes()

		_, err := svc.SendRequest(ctx, "alice", "bob")
		assert.ErrorIs(t, err, apperror.ErrDuplicateRequest)
		assert.ErrorIs(t, err, apperror.ErrInvalidTransition,
			"a duplicate send is also an illegal transition")
		assert.Equal(t, writesBefore, repo.writes())
	})

	t.Run("incoming already pending", func(t *testing.T) {
		repo := newFakeFriendshipRepo()
		svc := newTestService(newFakeUserRepo(user("alice"), user("bob")), repo)
		require.NoError(t, repo.CreateFriendRequest(ctx, pendingRequest("r1", "bob", "alice")))
		writesBefore := repo.writes()

		_, err := svc.SendRequest(ctx, "alice", "bob")
		assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
		assert.Equal(t, writesBefore, repo.writes())
	})

	t.Run("target does not exist", func(t *testing.T) {
		repo := newFakeFriendshipRepo()
		svc := newTestService(newFakeUserRepo(user("alice")), repo)

		_, err := svc.SendRequest(ctx, "alice", "ghost")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
		assert.Zero(t, repo.writes())
	})
}

func TestSendRequestCreatesPendingRequest(t *testing.T) {
	ctx := context.Background()
	repo := newFakeFriendshipRepo()
	svc := newTestService(newFakeUserRepo(user("alice"), user("bob")), repo)

	req, err := svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, "alice", req.FromUserID)
	assert.Equal(t, "bob", req.ToUserID)
	assert.Equal(t, models.StatusPending, req.Status)

	status, err := svc.Status(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingSent, status)
}

func TestAcceptRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("creates both edge sides", func(t *testing.T) {
		repo := newFakeFriendshipRepo()
		svc := newTestService(newFakeUserRepo(user("alice"), user("bob")), repo)
		require.NoError(t, repo.CreateFriendRequest(ctx, pendingRequest("r1", "alice", "bob")))

		require.NoError(t, svc.AcceptRequest(ctx, "r1", "bob"))

		hasAB, _ := repo.HasFriendEdge(ctx, "alice", "bob")
		hasBA, _ := repo.HasFriendEdge(ctx, "bob", "alice")
		assert.True(t, hasAB)
		assert.True(t, hasBA)
		assert.Equal(t, models.StatusAccepted, repo.requests["r1"].Status)
	})

	t.Run("only the target may accept", func(t *testing.T) {
		repo := newFakeFriendshipRepo()
		svc := newTestService(newFakeUserRepo(user("alice"), user("bob")), repo)
		require.NoError(t, repo.CreateFriendRequest(ctx, pendingRequest("r1", "alice", "bob")))

		err := svc.AcceptRequest(ctx, "r1", "alice")
		assert.ErrorIs(t, err, apperror.ErrPermission)
		assert.Zero(t, repo.writeEdgeCalls)
	})

	t.Run("declined request stays terminal", func(t *testing.T) {
		repo := newFakeFriendshipRepo()
		svc := newTestService(newFakeUserRepo(user("alice"), user("bob")), repo)
		req := pendingRequest("r1", "alice", "bob")
		req.Status = models.StatusDeclined
		require.NoError(t, repo.CreateFriendRequest(ctx, req))

		err := svc.AcceptRequest(ctx, "r1", "bob")
		assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
		assert.Zero(t, repo.writeEdgeCalls)
	})
}

func TestAcceptRequestIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newFakeFriendshipRepo()
	svc := newTestService(newFakeUserRepo(user("alice"), user("bob")), repo)
	require.NoError(t, repo.CreateFriendRequest(ctx, pendingRequest("r1", "alice", "bob")))

	require.NoError(t, svc.AcceptRequest(ctx, "r1", "bob"))
	edgeWrites := repo.writeEdgeCalls

	// Second accept: both sides already exist, so nothing is rewritten and
	// nothing errors.
	require.NoError(t, svc.AcceptRequest(ctx, "r1", "bob"))
	assert.Equal(t, edgeWrites, repo.writeEdgeCalls)
	assert.Len(t, repo.edges["alice"], 1)
	assert.Len(t, repo.edges["bob"], 1)
}

func TestAcceptRequestPartialWriteIsRetryable(t *testing.T) {
	ctx := context.Background()
	repo := newFakeFriendshipRepo()
	svc := newTestService(newFakeUserRepo(user("alice"), user("bob")), repo)
	require.NoError(t, repo.CreateFriendRequest(ctx, pendingRequest("r1", "alice", "bob")))

	// The second (receiver-side) edge write fails.
	repo.failEdgeWrite["bob"] = apperror.Network("write friend edge", errors.New("unavailable"))

	err := svc.AcceptRequest(ctx, "r1", "bob")
	require.ErrorIs(t, err, apperror.ErrPartialWrite)
	assert.True(t, apperror.Retryable(err))

	hasAB, _ := repo.HasFriendEdge(ctx, "alice", "bob")
	hasBA, _ := repo.HasFriendEdge(ctx, "bob", "alice")
	assert.True(t, hasAB, "completed side must not be rolled back")
	assert.False(t, hasBA)
	assert.Equal(t, models.StatusPending, repo.requests["r1"].Status)

	// Retry after the outage: only the missing side is written.
	delete(repo.failEdgeWrite, "bob")
	edgeWrites := repo.writeEdgeCalls
	require.NoError(t, svc.AcceptRequest(ctx, "r1", "bob"))
	assert.Equal(t, edgeWrites+1, repo.writeEdgeCalls)

	hasBA, _ = repo.HasFriendEdge(ctx, "bob", "alice")
	assert.True(t, hasBA)
	assert.Equal(t, models.StatusAccepted, repo.requests["r1"].Status)
}

func TestDeclineAndCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("decline by target", func(t *testing.T) {
		repo := newFakeFriendshipRepo()
		svc := newTestService(newFakeUserRepo(user("alice"), user("bob")), repo)
		require.NoError(t, repo.CreateFriendRequest(ctx, pendingRequest("r1", "alice", "bob")))

		require.NoError(t, svc.DeclineRequest(ctx, "r1", "bob"))
		assert.Equal(t, models.StatusDeclined, repo.requests["r1"].Status)
		assert.Zero(t, repo.writeEdgeCalls, "decline must not create edges")
	})

	t.Run("decline by sender is forbidden", func(t *testing.T) {
		repo := newFakeFriendshipRepo()
		svc := newTestService(newFakeUserRepo(user("alice"), user("bob")), repo)
		require.NoError(t, repo.CreateFriendRequest(ctx, pendingRequest("r1", "alice", "bob")))

		err := svc.DeclineRequest(ctx, "r1", "alice")
		assert.ErrorIs(t, err, apperror.ErrPermission)
	})

	t.Run("cancel by sender", func(t *testing.T) {
		repo := newFakeFriendshipRepo()
		svc := newTestService(newFakeUserRepo(user("alice"), user("bob")), repo)
		require.NoError(t, repo.CreateFriendRequest(ctx, pendingRequest("r1", "alice", "bob")))

		require.NoError(t, svc.CancelRequest(ctx, "r1", "alice"))
		assert.Equal(t, models.StatusCancelled, repo.requests["r1"].Status)
	})

	t.Run("cancel by target is forbidden", func(t *testing.T) {
		repo := newFakeFriendshipRepo()
		svc := newTestService(newFakeUserRepo(user("alice"), user("bob")), repo)
		require.NoError(t, repo.CreateFriendRequest(ctx, pendingRequest("r1", "alice", "bob")))

		err := svc.CancelRequest(ctx, "r1", "bob")
		assert.ErrorIs(t, err, apperror.ErrPermission)
	})

	t.Run("closing a non-pending request fails", func(t *testing.T) {
		repo := newFakeFriendshipRepo()
		svc := newTestService(newFakeUserRepo(user("alice"), user("bob")), repo)
		req := pendingRequest("r1", "alice", "bob")
		req.Status = models.StatusAccepted
		require.NoError(t, repo.CreateFriendRequest(ctx, req))

		err := svc.DeclineRequest(ctx, "r1", "bob")
		assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	})
}

func TestRemoveFriend(t *testing.T) {
	ctx := context.Background()

	t.Run("removes both sides", func(t *testing.T) {
		repo := newFakeFriendshipRepo()
		repo.addEdge("alice", "bob")
		repo.addEdge("bob", "alice")
		svc := newTestService(newFakeUserRepo(), repo)

		require.NoError(t, svc.RemoveFriend(ctx, "alice", "bob"))
		hasAB, _ := repo.HasFriendEdge(ctx, "alice", "bob")
		hasBA, _ := repo.HasFriendEdge(ctx, "bob", "alice")
		assert.False(t, hasAB)
		assert.False(t, hasBA)
	})

	t.Run("not friends is an invalid transition", func(t *testing.T) {
		repo := newFakeFriendshipRepo()
		svc := newTestService(newFakeUserRepo(), repo)

		err := svc.RemoveFriend(ctx, "alice", "bob")
		assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
		assert.Zero(t, repo.writes())
	})

	t.Run("partial removal is retryable", func(t *testing.T) {
		repo := newFakeFriendshipRepo()
		repo.addEdge("alice", "bob")
		repo.addEdge("bob", "alice")
		repo.failEdgeDelete["bob"] = apperror.Network("delete friend edge", errors.New("unavailable"))
		svc := newTestService(newFakeUserRepo(), repo)

		err := svc.RemoveFriend(ctx, "alice", "bob")
		require.ErrorIs(t, err, apperror.ErrPartialWrite)

		// The asymmetric leftover still counts as a friendship to dismantle.
		delete(repo.failEdgeDelete, "bob")
		require.NoError(t, svc.RemoveFriend(ctx, "alice", "bob"))
		hasBA, _ := repo.HasFriendEdge(ctx, "bob", "alice")
		assert.False(t, hasBA)
	})
}

func TestMutualFriendsCount(t *testing.T) {
	ctx := context.Background()
	repo := newFakeFriendshipRepo()
	for _, friend := range []string{"a", "b", "x", "y"} {
		repo.addEdge("u", friend)
	}
	repo.addEdge("a", "x")
	repo.addEdge("a", "y")
	repo.addEdge("a", "u")
	repo.addEdge("b", "x")
	svc := newTestService(newFakeUserRepo(), repo)

	count, err := svc.MutualFriendsCount(ctx, "u", "a")
	require.NoError(t, err)
	assert.Equal(t, 2, count) // x and y

	count, err = svc.MutualFriendsCount(ctx, "u", "b")
	require.NoError(t, err)
	assert.Equal(t, 1, count) // x

	count, err = svc.MutualFriendsCount(ctx, "u", "c")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestBatchMutualFriendsCountMatchesIndividualCalls(t *testing.T) {
	ctx := context.Background()
	repo := newFakeFriendshipRepo()
	for _, friend := range []string{"a", "b", "c", "x", "y"} {
		repo.addEdge("u", friend)
	}
	repo.addEdge("a", "x")
	repo.addEdge("a", "y")
	repo.addEdge("b", "x")
	repo.addEdge("c", "z")
	svc := newTestService(newFakeUserRepo(), repo)

	others := []string{"a", "b", "c"}
	batch, err := svc.BatchMutualFriendsCount(ctx, "u", others)
	require.NoError(t, err)

	for _, other := range others {
		individual, err := svc.MutualFriendsCount(ctx, "u", other)
		require.NoError(t, err)
		assert.Equal(t, individual, batch[other], "mismatch for %s", other)
	}
}

func TestBatchMutualFriendsCountDegradesFailedReads(t *testing.T) {
	ctx := context.Background()
	repo := newFakeFriendshipRepo()
	repo.addEdge("u", "x")
	repo.addEdge("a", "x")
	repo.failFriendReads["b"] = apperror.Network("get friend ids", errors.New("unavailable"))
	svc := newTestService(newFakeUserRepo(), repo)

	counts, err := svc.BatchMutualFriendsCount(ctx, "u", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 1, counts["a"])
	assert.Equal(t, 0, counts["b"], "failed candidate read degrades to zero")
}

func TestBatchMutualFriendsCountAnchorFailurePropagates(t *testing.T) {
	ctx := context.Background()
	repo := newFakeFriendshipRepo()
	repo.failFriendReads["u"] = apperror.Network("get friend ids", errors.New("unavailable"))
	svc := newTestService(newFakeUserRepo(), repo)

	_, err := svc.BatchMutualFriendsCount(ctx, "u", []string{"a"})
	assert.ErrorIs(t, err, apperror.ErrNetwork)
}

func TestFriendsHydratesProfiles(t *testing.T) {
	ctx := context.Background()
	repo := newFakeFriendshipRepo()
	repo.addEdge("alice", "bob")
	repo.addEdge("alice", "carol")
	svc := newTestService(newFakeUserRepo(user("alice"), user("bob"), user("carol")), repo)

	friends, err := svc.Friends(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, friends, 2)
	assert.Equal(t, "bob", friends[0].UID)
	assert.Equal(t, "carol", friends[1].UID)
}
