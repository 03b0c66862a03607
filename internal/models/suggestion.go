package models

// SuggestionReason labels why a candidate was surfaced.
type SuggestionReason string

const (
	ReasonGaming  SuggestionReason = "gaming"
	ReasonMutual  SuggestionReason = "mutual"
	ReasonContact SuggestionReason = "contact"
)

// SuggestionCandidate is an ephemeral, per-viewer annotation of a user.
// Candidates are recomputed on demand and never persisted.
type SuggestionCandidate struct {
	User          *User            `json:"user"`
	MutualFriends int              `json:"mutual_friends"`
	Similarity    float64          `json:"similarity"`
	SharedGenres  []string         `json:"shared_genres,omitempty"`
	Reason        SuggestionReason `json:"reason"`
}
