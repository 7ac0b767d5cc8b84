package checker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lysyi3m/standards-comb/app/cache"
	"github.com/lysyi3m/standards-comb/app/config"
	"github.com/lysyi3m/standards-comb/app/database"
	"github.com/lysyi3m/standards-comb/app/document"
	"github.com/lysyi3m/standards-comb/app/journal"
	"github.com/lysyi3m/standards-comb/app/standards"
)

var (
	ErrNoStandards   = errors.New("no standards found")
	ErrNoJournalFeed = errors.New("directive has no journal feed")
)

const (
	// maxDocuments bounds how many linked PDFs are read per official page.
	maxDocuments = 10
	// summaryRunes bounds the article excerpt kept on a read notice.
	summaryRunes = 400
)

type Fetcher interface {
	Run(ctx context.Context, url string) ([]byte, error)
}

// Checker answers questions about directives: what the official list is,
// what a certificate covers and how the two compare. Fetched lists and
// extracted scopes go through the cache.
type Checker struct {
	directives *config.DirectiveCache
	fetcher    Fetcher
	cache      *cache.Cache
	ttl        time.Duration
	history    database.ComparisonRepository

	extractor  *standards.Extractor
	dedup      *standards.Deduplicator
	comparator *standards.Comparator
	official   *document.OfficialParser
	journal    *journal.Parser

	now func() time.Time
}

// New builds a Checker. Patterns that fail to compile are logged and
// skipped. history may be nil, in which case comparisons are not recorded.
func New(patterns *config.Patterns, directives *config.DirectiveCache, fetcher Fetcher, c *cache.Cache, history database.ComparisonRepository, ttl time.Duration) *Checker {
	extractor, err := standards.NewExtractor(patterns.Families, patterns.ExtractorOptions())
	if err != nil {
		slog.Warn("Some extraction patterns were skipped", "error", err)
	}

	normalizer := standards.NewNormalizer(patterns.Normalization)
	dedup := standards.NewDeduplicator(normalizer)

	return &Checker{
		directives: directives,
		fetcher:    fetcher,
		cache:      c,
		ttl:        ttl,
		history:    history,
		extractor:  extractor,
		dedup:      dedup,
		comparator: standards.NewComparator(normalizer),
		official:   document.NewOfficialParser(extractor, dedup),
		journal:    journal.NewParser(extractor, dedup),
		now:        time.Now,
	}
}

// Directives returns the configured directives sorted by code.
func (c *Checker) Directives() []*config.Directive {
	codes := c.directives.Codes()
	list := make([]*config.Directive, 0, len(codes))
	for _, code := range codes {
		if d, err := c.directives.GetConfig(code); err == nil {
			list = append(list, d)
		}
	}
	return list
}

// OfficialStandards returns the harmonised standards published for a
// directive, served from the cache while fresh.
func (c *Checker) OfficialStandards(ctx context.Context, code string) ([]standards.OfficialStandard, error) {
	directive, err := c.directives.GetConfig(code)
	if err != nil {
		return nil, err
	}

	key := cache.Key("official", directive.Code, directive.URL)
	return cache.GetOrCompute(c.cache, key, c.ttl, func() ([]standards.OfficialStandard, error) {
		return c.fetchOfficial(ctx, directive)
	})
}

// RefreshOfficial fetches a directive's official list even when a fresh copy
// is cached and replaces the cached copy. A failed fetch leaves the cached
// copy in place.
func (c *Checker) RefreshOfficial(ctx context.Context, code string) ([]standards.OfficialStandard, error) {
	directive, err := c.directives.GetConfig(code)
	if err != nil {
		return nil, err
	}

	key := cache.Key("official", directive.Code, directive.URL)
	return cache.Refresh(c.cache, key, c.ttl, func() ([]standards.OfficialStandard, error) {
		return c.fetchOfficial(ctx, directive)
	})
}

func (c *Checker) fetchOfficial(ctx context.Context, directive *config.Directive) ([]standards.OfficialStandard, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, directive.Settings.GetTimeout())
	defer cancel()

	data, err := c.fetcher.Run(ctx, directive.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch official list for %s: %w", directive.Code, err)
	}

	list, err := c.official.Run(data, directive.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to parse official list for %s: %w", directive.Code, err)
	}

	links, err := document.DocumentLinks(data, directive.URL, ".pdf")
	if err != nil {
		slog.Warn("Failed to collect document links", "directive", directive.Code, "error", err)
	}
	if len(links) > maxDocuments {
		links = links[:maxDocuments]
	}

	for _, link := range links {
		found, err := c.parseLinkedPDF(ctx, link, directive.Code)
		if err != nil {
			slog.Warn("Failed to parse document", "directive", directive.Code, "url", link, "error", err)
			continue
		}
		list = append(list, found...)
	}

	list = document.Unique(list)
	if len(list) == 0 {
		return nil, fmt.Errorf("%w for directive %s", ErrNoStandards, directive.Code)
	}

	for i := range list {
		list[i].Reference = directive.Decision
	}

	slog.Info("Official list fetched", "directive", directive.Code, "standards", len(list), "documents", len(links), "duration", time.Since(start))
	return list, nil
}

func (c *Checker) parseLinkedPDF(ctx context.Context, link, code string) ([]standards.OfficialStandard, error) {
	data, err := c.fetcher.Run(ctx, link)
	if err != nil {
		return nil, err
	}

	text, err := document.PDFText(data)
	if err != nil {
		return nil, err
	}

	return c.official.FromText(text, code), nil
}

// Search filters the official lists by a case-insensitive substring of the
// number or title. An empty code searches every enabled directive.
func (c *Checker) Search(ctx context.Context, query, code string) ([]standards.OfficialStandard, error) {
	codes := []string{code}
	if code == "" {
		codes = c.enabledCodes()
	}

	query = strings.ToLower(strings.TrimSpace(query))
	results := make([]standards.OfficialStandard, 0)

	for _, code := range codes {
		list, err := c.OfficialStandards(ctx, code)
		if err != nil {
			if len(codes) == 1 {
				return nil, err
			}
			slog.Warn("Skipping directive in search", "directive", code, "error", err)
			continue
		}

		for _, std := range list {
			if strings.Contains(strings.ToLower(std.Number), query) || strings.Contains(strings.ToLower(std.Title), query) {
				results = append(results, std)
			}
		}
	}

	return results, nil
}

// ScopeFromFile extracts the accreditation scope of a certificate file.
// PDF and HTML files are converted to text first; anything else is read as
// plain text. Results are cached per path and modification time.
func (c *Checker) ScopeFromFile(path string) (standards.AccreditationScope, error) {
	info, err := os.Stat(path)
	if err != nil {
		return standards.AccreditationScope{}, fmt.Errorf("failed to read certificate %s: %w", path, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	key := cache.Key("scope", absPath, strconv.FormatInt(info.ModTime().UnixNano(), 10))
	return cache.GetOrCompute(c.cache, key, c.ttl, func() (standards.AccreditationScope, error) {
		text, err := fileText(path)
		if err != nil {
			return standards.AccreditationScope{}, err
		}
		return c.ScopeFromText(text, path), nil
	})
}

// ScopeFromUpload extracts the scope of an uploaded certificate. The file
// name only selects the text conversion. Results are cached by content.
func (c *Checker) ScopeFromUpload(name string, data []byte) (standards.AccreditationScope, error) {
	hash := sha256.Sum256(data)

	key := cache.Key("scope", "upload", hex.EncodeToString(hash[:]))
	return cache.GetOrCompute(c.cache, key, c.ttl, func() (standards.AccreditationScope, error) {
		text, err := bytesText(name, data)
		if err != nil {
			return standards.AccreditationScope{}, err
		}
		return c.ScopeFromText(text, name), nil
	})
}

// ScopeFromText extracts and deduplicates the standards in text.
func (c *Checker) ScopeFromText(text, source string) standards.AccreditationScope {
	return standards.BuildScope(standards.Document{Text: text, Source: source}, c.extractor, c.dedup, c.now())
}

// Outcome is one comparison of a certificate against a directive.
type Outcome struct {
	ID        string                     `json:"id,omitempty"`
	Directive string                     `json:"directive"`
	Source    string                     `json:"source"`
	Result    standards.ComparisonResult `json:"result"`
}

// Compare matches scope against the official list of a directive and
// records the result when a history repository is configured.
func (c *Checker) Compare(ctx context.Context, code string, scope standards.AccreditationScope) (*Outcome, error) {
	official, err := c.OfficialStandards(ctx, code)
	if err != nil {
		return nil, err
	}

	directive, err := c.directives.GetConfig(code)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		Directive: directive.Code,
		Source:    scope.Source,
		Result:    c.comparator.Run(official, scope.Standards),
	}

	if c.history != nil {
		id, err := c.history.SaveComparison(outcome.Directive, outcome.Source, outcome.Result)
		if err != nil {
			slog.Warn("Failed to record comparison", "directive", outcome.Directive, "error", err)
		} else {
			outcome.ID = id
		}
	}

	slog.Info("Comparison completed", "directive", outcome.Directive, "coverage", outcome.Result.Coverage, "matched", len(outcome.Result.Matched))
	return outcome, nil
}

// CompareAll compares scope against every enabled directive. Directives
// whose official list cannot be loaded are skipped; it fails only when none
// could be loaded.
func (c *Checker) CompareAll(ctx context.Context, scope standards.AccreditationScope) (map[string]standards.ComparisonResult, error) {
	official := make(map[string][]standards.OfficialStandard)
	var errs []error

	for _, code := range c.enabledCodes() {
		list, err := c.OfficialStandards(ctx, code)
		if err != nil {
			slog.Warn("Skipping directive", "directive", code, "error", err)
			errs = append(errs, err)
			continue
		}
		official[code] = list
	}

	if len(official) == 0 {
		if len(errs) == 0 {
			return nil, fmt.Errorf("%w: no enabled directives", ErrNoStandards)
		}
		return nil, errors.Join(errs...)
	}

	return c.comparator.BatchRun(official, scope.Standards), nil
}

// JournalNotices returns the journal feed entries that concern a directive.
func (c *Checker) JournalNotices(ctx context.Context, code string) ([]journal.Notice, error) {
	directive, err := c.directives.GetConfig(code)
	if err != nil {
		return nil, err
	}
	if directive.JournalFeedURL == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoJournalFeed, directive.Code)
	}

	key := cache.Key("journal", directive.Code, directive.JournalFeedURL)
	ttl := min(c.ttl, directive.Settings.GetRefreshInterval())

	return cache.GetOrCompute(c.cache, key, ttl, func() ([]journal.Notice, error) {
		ctx, cancel := context.WithTimeout(ctx, directive.Settings.GetTimeout())
		defer cancel()

		data, err := c.fetcher.Run(ctx, directive.JournalFeedURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch journal feed for %s: %w", directive.Code, err)
		}
		return c.journal.Run(data, directive)
	})
}

// ReadNotice fetches the page a notice links to and fills in its summary
// and standards from the article text. Pages are cached for the TTL.
func (c *Checker) ReadNotice(ctx context.Context, notice journal.Notice) (journal.Notice, error) {
	if notice.Link == "" {
		return notice, nil
	}

	key := cache.Key("notice", notice.Link)
	article, err := cache.GetOrCompute(c.cache, key, c.ttl, func() (document.Article, error) {
		data, err := c.fetcher.Run(ctx, notice.Link)
		if err != nil {
			return document.Article{}, fmt.Errorf("failed to fetch notice %s: %w", notice.Link, err)
		}
		a, err := document.ArticleText(data, notice.Link)
		if err != nil {
			return document.Article{}, err
		}
		return *a, nil
	})
	if err != nil {
		return notice, err
	}

	notice.Summary = excerpt(article.Text, summaryRunes)

	seen := make(map[string]bool, len(notice.Standards))
	for _, id := range notice.Standards {
		seen[id] = true
	}
	for _, id := range c.journal.Standards(article.Text) {
		if !seen[id] {
			seen[id] = true
			notice.Standards = append(notice.Standards, id)
		}
	}

	return notice, nil
}

// ReadNotices reads every notice in turn. Notices whose page cannot be read
// are returned unchanged.
func (c *Checker) ReadNotices(ctx context.Context, notices []journal.Notice) []journal.Notice {
	results := make([]journal.Notice, 0, len(notices))
	for _, notice := range notices {
		read, err := c.ReadNotice(ctx, notice)
		if err != nil {
			slog.Warn("Failed to read notice", "link", notice.Link, "error", err)
		}
		results = append(results, read)
	}
	return results
}

func excerpt(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit])) + "..."
}

// History lists recorded comparisons, newest first.
func (c *Checker) History(code string, limit int) ([]database.Comparison, error) {
	if c.history == nil {
		return []database.Comparison{}, nil
	}
	if code != "" {
		directive, err := c.directives.GetConfig(code)
		if err != nil {
			return nil, err
		}
		code = directive.Code
	}
	return c.history.GetComparisons(code, limit)
}

func (c *Checker) Comparison(id string) (*database.Comparison, error) {
	if c.history == nil {
		return nil, fmt.Errorf("%w: comparison %s", database.ErrNotFound, id)
	}
	return c.history.GetComparison(id)
}

// PurgeCache drops expired cache entries.
func (c *Checker) PurgeCache() (int, error) {
	return c.cache.Purge()
}

func (c *Checker) enabledCodes() []string {
	enabled := c.directives.GetEnabledConfigs()
	codes := make([]string, 0, len(enabled))
	for code := range enabled {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
