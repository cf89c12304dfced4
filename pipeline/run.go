package pipeline

import (
	"time"

	"github.com/ajhous44/BloggyBlogger/generator"
	"github.com/ajhous44/BloggyBlogger/publisher"
	"github.com/google/uuid"
)

// Run is the state of one invocation. It owns the token counter and feature
// switches and is passed to every stage; nothing here is process-global.
type Run struct {
	ID            uuid.UUID
	Keyword       string
	PostToSocials bool
	Usage         *generator.Usage
	StartedAt     time.Time

	Title       string
	Outline     generator.Outline
	Dir         string
	Post        *publisher.Post
	SocialPosts []string
}

// NewRun starts a run with a fresh usage counter.
func NewRun(keyword string, postToSocials bool) *Run {
	return &Run{
		ID:            uuid.New(),
		Keyword:       keyword,
		PostToSocials: postToSocials,
		Usage:         &generator.Usage{},
		StartedAt:     time.Now(),
	}
}

type summary struct {
	ID            string            `json:"id"`
	Keyword       string            `json:"keyword"`
	Title         string            `json:"title"`
	Outline       generator.Outline `json:"outline"`
	Tokens        int64             `json:"tokens"`
	EstimatedCost float64           `json:"estimated_cost_usd"`
	Post          *publisher.Post   `json:"post,omitempty"`
	SocialPosts   []string          `json:"social_posts,omitempty"`
	StartedAt     time.Time         `json:"started_at"`
}

func (r *Run) summary(costPer1K float64) summary {
	return summary{
		ID:            r.ID.String(),
		Keyword:       r.Keyword,
		Title:         r.Title,
		Outline:       r.Outline,
		Tokens:        r.Usage.Total(),
		EstimatedCost: r.Usage.EstimatedCost(costPer1K),
		Post:          r.Post,
		SocialPosts:   r.SocialPosts,
		StartedAt:     r.StartedAt,
	}
}
