package friends

import (
	"context"
	"sort"
	"time"

	"github.com/clutch-social/backend/internal/apperror"
	"github.com/clutch-social/backend/internal/models"
)

// fakeUserRepo is an in-memory stand-in for the Firestore user repository.
type fakeUserRepo struct {
	users  map[string]*models.User
	recent []*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		r.users[u.UID] = u
	}
	return r
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *models.User) error {
	r.users[user.UID] = user
	return nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, uid string) (*models.User, error) {
	user, ok := r.users[uid]
	if !ok {
		return nil, apperror.NotFound("user", uid)
	}
	return user, nil
}

func (r *fakeUserRepo) GetUsersByIDs(_ context.Context, uids []string) ([]*models.User, error) {
	var out []*models.User
	for _, uid := range uids {
		if user, ok := r.users[uid]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, uid string, _ *models.UpdateProfileRequest) error {
	if _, ok := r.users[uid]; !ok {
		return apperror.NotFound("user", uid)
	}
	return nil
}

func (r *fakeUserRepo) UpdatePresence(_ context.Context, uid string, _ bool) error {
	if _, ok := r.users[uid]; !ok {
		return apperror.NotFound("user", uid)
	}
	return nil
}

func (r *fakeUserRepo) SetMediaRef(_ context.Context, uid, _ string, _ *models.MediaRef) (*models.MediaRef, error) {
	if _, ok := r.users[uid]; !ok {
		return nil, apperror.NotFound("user", uid)
	}
	return nil, nil
}

func (r *fakeUserRepo) ReserveUsername(context.Context, string, string) error {
	return nil
}

func (r *fakeUserRepo) IsUsernameAvailable(context.Context, string) (bool, error) {
	return true, nil
}

func (r *fakeUserRepo) SearchUsers(_ context.Context, _, _ string, _ int) ([]*models.User, error) {
	return nil, nil
}

// UsersByGenres mimics the array-contains-any pool: any user declaring at
// least one of the given genres, in uid order.
func (r *fakeUserRepo) UsersByGenres(_ context.Context, genres []string, limit int) ([]*models.User, error) {
	want := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		want[g] = struct{}{}
	}
	var out []*models.User
	for _, user := range r.sortedUsers() {
		for _, g := range user.Genres {
			if _, ok := want[g]; ok {
				out = append(out, user)
				break
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeUserRepo) RecentUsers(_ context.Context, limit int) ([]*models.User, error) {
	if len(r.recent) > limit {
		return r.recent[:limit], nil
	}
	return r.recent, nil
}

func (r *fakeUserRepo) sortedUsers() []*models.User {
	uids := make([]string, 0, len(r.users))
	for uid := range r.users {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	out := make([]*models.User, 0, len(uids))
	for _, uid := range uids {
		out = append(out, r.users[uid])
	}
	return out
}

// fakeFriendshipRepo is an in-memory friend graph with write counters and
// per-user failure injection, so tests can assert that guard failures issue
// no writes and that partial two-sided writes surface correctly.
type fakeFriendshipRepo struct {
	edges    map[string]map[string]time.Time
	requests map[string]*models.FriendRequest

	writeEdgeCalls     int
	deleteEdgeCalls    int
	createRequestCalls int
	statusWrites       int

	failEdgeWrite   map[string]error // keyed by owner uid
	failEdgeDelete  map[string]error // keyed by owner uid
	failFriendReads map[string]error // keyed by uid
}

func newFakeFriendshipRepo() *fakeFriendshipRepo {
	return &fakeFriendshipRepo{
		edges:           make(map[string]map[string]time.Time),
		requests:        make(map[string]*models.FriendRequest),
		failEdgeWrite:   make(map[string]error),
		failEdgeDelete:  make(map[string]error),
		failFriendReads: make(map[string]error),
	}
}

func (r *fakeFriendshipRepo) writes() int {
	return r.writeEdgeCalls + r.deleteEdgeCalls + r.createRequestCalls + r.statusWrites
}

func (r *fakeFriendshipRepo) addEdge(ownerID, friendID string) {
	if r.edges[ownerID] == nil {
		r.edges[ownerID] = make(map[string]time.Time)
	}
	r.edges[ownerID][friendID] = time.Now()
}

func (r *fakeFriendshipRepo) GetFriendIDs(_ context.Context, uid string) (map[string]struct{}, error) {
	if err := r.failFriendReads[uid]; err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(r.edges[uid]))
	for id := range r.edges[uid] {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (r *fakeFriendshipRepo) HasFriendEdge(_ context.Context, ownerID, friendID string) (bool, error) {
	_, ok := r.edges[ownerID][friendID]
	return ok, nil
}

func (r *fakeFriendshipRepo) WriteFriendEdge(_ context.Context, ownerID, friendID string, since time.Time) error {
	r.writeEdgeCalls++
	if err := r.failEdgeWrite[ownerID]; err != nil {
		return err
	}
	if r.edges[ownerID] == nil {
		r.edges[ownerID] = make(map[string]time.Time)
	}
	r.edges[ownerID][friendID] = since
	return nil
}

func (r *fakeFriendshipRepo) DeleteFriendEdge(_ context.Context, ownerID, friendID string) error {
	r.deleteEdgeCalls++
	if err := r.failEdgeDelete[ownerID]; err != nil {
		return err
	}
	delete(r.edges[ownerID], friendID)
	return nil
}

func (r *fakeFriendshipRepo) CreateFriendRequest(_ context.Context, req *models.FriendRequest) error {
	r.createRequestCalls++
	if _, ok := r.requests[req.ID]; ok {
		return apperror.Conflict("friend request", req.ID)
	}
	stored := *req
	r.requests[req.ID] = &stored
	return nil
}

func (r *fakeFriendshipRepo) GetFriendRequest(_ context.Context, id string) (*models.FriendRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, apperror.NotFound("friend request", id)
	}
	return req, nil
}

func (r *fakeFriendshipRepo) FindPendingRequest(_ context.Context, fromID, toID string) (*models.FriendRequest, error) {
	for _, req := range r.requests {
		if req.FromUserID == fromID && req.ToUserID == toID && req.Status == models.StatusPending {
			return req, nil
		}
	}
	return nil, nil
}

func (r *fakeFriendshipRepo) ListIncomingRequests(_ context.Context, uid string) ([]*models.FriendRequest, error) {
	return r.listRequests(func(req *models.FriendRequest) bool {
		return req.ToUserID == uid && req.Status == models.StatusPending
	}), nil
}

func (r *fakeFriendshipRepo) ListOutgoingRequests(_ context.Context, uid string) ([]*models.FriendRequest, error) {
	return r.listRequests(func(req *models.FriendRequest) bool {
		return req.FromUserID == uid && req.Status == models.StatusPending
	}), nil
}

func (r *fakeFriendshipRepo) listRequests(match func(*models.FriendRequest) bool) []*models.FriendRequest {
	var out []*models.FriendRequest
	for _, req := range r.requests {
		if match(req) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeFriendshipRepo) SetFriendRequestStatus(_ context.Context, id string, status models.RequestStatus) error {
	r.statusWrites++
	req, ok := r.requests[id]
	if !ok {
		return apperror.NotFound("friend request", id)
	}
	req.Status = status
	return nil
}
