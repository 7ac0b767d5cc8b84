package config

import (
	"time"

	"github.com/lysyi3m/standards-comb/app/standards"
)

// GetRefreshInterval returns the refresh interval as time.Duration
func (s *DirectiveSettings) GetRefreshInterval() time.Duration {
	if s.RefreshInterval <= 0 {
		return 3600 * time.Second
	}
	return time.Duration(s.RefreshInterval) * time.Second
}

// GetTimeout returns the timeout as time.Duration
func (s *DirectiveSettings) GetTimeout() time.Duration {
	if s.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.Timeout) * time.Second
}

func (p *Patterns) ExtractorOptions() standards.ExtractorOptions {
	return standards.ExtractorOptions{
		ContextWidth:     p.Extraction.ContextWidth,
		DescriptionWidth: p.Extraction.DescriptionWidth,
	}
}
