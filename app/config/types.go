package config

import (
	"github.com/lysyi3m/standards-comb/app/standards"
)

// Patterns is the extraction and matching configuration read from patterns.yml.
type Patterns struct {
	Normalization standards.Policy          `yaml:"normalization"`
	Extraction    Extraction                `yaml:"extraction"`
	Families      []standards.FamilyPattern `yaml:"families"` // extraction order
}

type Extraction struct {
	ContextWidth     int `yaml:"context_width"`     // runes
	DescriptionWidth int `yaml:"description_width"` // runes
}

// Directive describes one EU directive and where its harmonised list lives.
type Directive struct {
	Code           string            `yaml:"-" json:"code"` // Derived from filename (without .yml extension)
	Name           string            `yaml:"name" json:"name"`
	Directive      string            `yaml:"directive" json:"directive"`
	Decision       string            `yaml:"decision" json:"decision,omitempty"`
	URL            string            `yaml:"url" json:"url"`
	JournalFeedURL string            `yaml:"journal_feed_url" json:"journal_feed_url,omitempty"`
	Amendments     []string          `yaml:"amendments" json:"amendments,omitempty"`
	Settings       DirectiveSettings `yaml:"settings" json:"settings"`
}

type DirectiveSettings struct {
	Enabled         bool `yaml:"enabled" json:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval" json:"refresh_interval"` // seconds
	Timeout         int  `yaml:"timeout" json:"timeout"`                   // seconds
}
