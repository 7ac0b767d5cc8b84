package journal

import (
	"time"
)

// Notice is a feed entry that mentions a watched directive.
type Notice struct {
	GUID        string    `json:"guid"`
	Directive   string    `json:"directive"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Standards   []string  `json:"standards,omitempty"`
	Known       bool      `json:"known"` // published on a recorded amendment date
}
