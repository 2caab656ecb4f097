package bidpacket

import "context"

// Recommendation is a structured bid-strategy suggestion built from a
// crew member's preferences and the packet's sequences.
type Recommendation struct {
	Strategy        string   `json:"strategy"`
	SequenceNumbers []string `json:"sequence_numbers,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

// Recommender turns free-text preferences and a parsed sequence list into
// a recommendation. No implementation ships in this repository; callers
// supply their own.
type Recommender interface {
	Recommend(ctx context.Context, preferences string, sequences []Sequence) (*Recommendation, error)
}
