package recommend

//go:generate mockgen -source=recommend.go -destination=mocks/mock_engine.go -package=mocks

import (
	"context"
	"errors"
)

// ErrMalformed is returned when the engine answers with nothing usable
var ErrMalformed = errors.New("malformed recommendation response")

type Request struct {
	Text          string   `json:"text"`
	UserID        string   `json:"user_id"`
	RecentHistory []string `json:"recent_history"`
}

type Item struct {
	Name    string   `json:"name"`
	Reasons []string `json:"reasons"`
}

type Result struct {
	Message           string   `json:"message"`
	Recommendations   []Item   `json:"recommendations"`
	FollowUpQuestions []string `json:"follow_up_questions"`
}

// Validate rejects results with neither a message nor recommendations
func (r *Result) Validate() error {
	if r == nil || (r.Message == "" && len(r.Recommendations) == 0) {
		return ErrMalformed
	}
	for _, item := range r.Recommendations {
		if item.Name == "" {
			return ErrMalformed
		}
	}
	return nil
}

// Engine answers open-ended food questions. Calls may fail or time out.
type Engine interface {
	Recommend(ctx context.Context, req Request) (*Result, error)
}
