package api

import (
	"context"

	"github.com/lysyi3m/standards-comb/app/checker"
	"github.com/lysyi3m/standards-comb/app/config"
	"github.com/lysyi3m/standards-comb/app/database"
	"github.com/lysyi3m/standards-comb/app/journal"
	"github.com/lysyi3m/standards-comb/app/standards"
	"github.com/lysyi3m/standards-comb/app/tasks"
)

// CheckerInterface is what the handlers need from checker.Checker.
type CheckerInterface interface {
	tasks.Checker
	Directives() []*config.Directive
	OfficialStandards(ctx context.Context, code string) ([]standards.OfficialStandard, error)
	Search(ctx context.Context, query, code string) ([]standards.OfficialStandard, error)
	ScopeFromUpload(name string, data []byte) (standards.AccreditationScope, error)
	ScopeFromText(text, source string) standards.AccreditationScope
	Compare(ctx context.Context, code string, scope standards.AccreditationScope) (*checker.Outcome, error)
	CompareAll(ctx context.Context, scope standards.AccreditationScope) (map[string]standards.ComparisonResult, error)
	ReadNotices(ctx context.Context, notices []journal.Notice) []journal.Notice
	History(code string, limit int) ([]database.Comparison, error)
	Comparison(id string) (*database.Comparison, error)
}

var _ CheckerInterface = (*checker.Checker)(nil)

type Handler struct {
	checker    CheckerInterface
	directives *config.DirectiveCache
	scheduler  tasks.TaskSchedulerInterface
	maxUpload  int64
}

type textRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

type comparisonResponse struct {
	ID        string                     `json:"id,omitempty"`
	Directive string                     `json:"directive"`
	Source    string                     `json:"source"`
	Summary   standards.Summary          `json:"summary"`
	Gaps      standards.Gaps             `json:"gaps"`
	Result    standards.ComparisonResult `json:"result"`
}
