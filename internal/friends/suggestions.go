package friends

import (
	"context"
	"sort"

	"github.com/clutch-social/backend/internal/models"
)

// Candidate pools are fetched a few pages deep so the exclusion filters still
// leave a full page.
const poolMultiplier = 3

// Suggestions builds the ranked friend-suggestion page for a viewer. The pool
// comes from genre overlap when the viewer declared interests, otherwise from
// recent signups. Self, existing friends and both directions of pending
// requests are excluded, every survivor is annotated with mutual-friend count
// and genre similarity, and the result is sorted by (similarity, mutual
// count) descending with the candidate id as a deterministic tiebreaker.
func (s *Service) Suggestions(ctx context.Context, viewerID string, limit int) ([]*models.SuggestionCandidate, error) {
	if limit <= 0 || limit > s.cfg.PageSize {
		limit = s.cfg.PageSize
	}

	viewer, err := s.users.GetUserByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	var pool []*models.User
	if len(viewer.Genres) > 0 {
		pool, err = s.users.UsersByGenres(ctx, viewer.Genres, limit*poolMultiplier)
	} else {
		pool, err = s.users.RecentUsers(ctx, limit*poolMultiplier)
	}
	if err != nil {
		return nil, err
	}

	exclude, err := s.exclusionSet(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(pool))
	candidates := make([]*models.User, 0, len(pool))
	for _, user := range pool {
		if _, ok := exclude[user.UID]; ok {
			continue
		}
		if _, ok := seen[user.UID]; ok {
			continue
		}
		seen[user.UID] = struct{}{}
		candidates = append(candidates, user)
	}
	// An empty page is still a page; clients get a JSON list, not null.
	if len(candidates) == 0 {
		return []*models.SuggestionCandidate{}, nil
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.UID)
	}
	mutualCounts, err := s.BatchMutualFriendsCount(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}

	results := make([]*models.SuggestionCandidate, 0, len(candidates))
	for _, user := range candidates {
		shared, score := GenreSimilarity(viewer.Genres, user.Genres)
		candidate := &models.SuggestionCandidate{
			User:          user,
			MutualFriends: mutualCounts[user.UID],
			Similarity:    score,
			SharedGenres:  shared,
			Reason:        suggestionReason(score, mutualCounts[user.UID]),
		}
		results = append(results, candidate)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		if results[i].MutualFriends != results[j].MutualFriends {
			return results[i].MutualFriends > results[j].MutualFriends
		}
		return results[i].User.UID < results[j].User.UID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// exclusionSet collects the user ids that must never be suggested to the
// viewer: the viewer, current friends, targets of outgoing pending requests
// and, by policy, senders of incoming ones.
func (s *Service) exclusionSet(ctx context.Context, viewerID string) (map[string]struct{}, error) {
	exclude := map[string]struct{}{viewerID: {}}

	friendIDs, err := s.friendships.GetFriendIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	for id := range friendIDs {
		exclude[id] = struct{}{}
	}

	outgoing, err := s.friendships.ListOutgoingRequests(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	for _, req := range outgoing {
		exclude[req.ToUserID] = struct{}{}
	}

	if s.cfg.ExcludeIncomingPending {
		incoming, err := s.friendships.ListIncomingRequests(ctx, viewerID)
		if err != nil {
			return nil, err
		}
		for _, req := range incoming {
			exclude[req.FromUserID] = struct{}{}
		}
	}

	return exclude, nil
}

func suggestionReason(score float64, mutual int) models.SuggestionReason {
	if score > 0 {
		return models.ReasonGaming
	}
	if mutual > 0 {
		return models.ReasonMutual
	}
	return models.ReasonContact
}
