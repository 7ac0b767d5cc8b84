package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lysyi3m/standards-comb/app/config"
	"github.com/lysyi3m/standards-comb/app/database"
	"github.com/lysyi3m/standards-comb/app/journal"
	"github.com/lysyi3m/standards-comb/app/standards"
)

const (
	statusMatched         = "Matched"
	statusOfficialOnly    = "Official Only"
	statusCertificateOnly = "Certificate Only"
)

// Writer renders results to out in one output format.
type Writer struct {
	out    io.Writer
	format Format
}

func NewWriter(out io.Writer, format Format) *Writer {
	return &Writer{out: out, format: format}
}

func (w *Writer) Comparison(directive string, result standards.ComparisonResult) error {
	if w.format == FormatJSON {
		return w.json(struct {
			Directive  string                             `json:"directive"`
			Summary    standards.Summary                  `json:"summary"`
			Categories map[string]standards.CategoryCount `json:"categories"`
			Gaps       standards.Gaps                     `json:"gaps"`
			Result     standards.ComparisonResult         `json:"result"`
		}{directive, result.Summary(), result.Categories(), result.Gaps(), result})
	}

	g := comparisonGrid(result)

	if w.format == FormatCSV {
		return g.render(w.out, w.format)
	}

	summary := result.Summary()
	fmt.Fprintf(w.out, "Directive: %s\n", directive)
	fmt.Fprintf(w.out, "Compared at: %s\n", result.ComparedAt.Format(time.RFC3339))
	fmt.Fprintf(w.out, "Coverage: %.1f%%\n", summary.Coverage)
	fmt.Fprintf(w.out, "Matched: %d, Official only: %d, Certificate only: %d\n\n",
		summary.Matched, summary.OfficialOnly, summary.CertificateOnly)

	if err := g.render(w.out, w.format); err != nil {
		return err
	}

	categories := result.Categories()
	if len(categories) > 0 {
		names := make([]string, 0, len(categories))
		for name := range categories {
			names = append(names, name)
		}
		sort.Strings(names)

		cg := &grid{
			headers: []string{"Category", "Matched", "Certificate Only"},
			aligns:  []columnAlignment{alignLeft, alignRight, alignRight},
		}
		for _, name := range names {
			c := categories[name]
			cg.add(name, strconv.Itoa(c.Matched), strconv.Itoa(c.CertificateOnly))
		}
		fmt.Fprintln(w.out)
		if err := cg.render(w.out, w.format); err != nil {
			return err
		}
	}

	for _, suggestion := range result.Gaps().Suggestions {
		fmt.Fprintf(w.out, "- %s\n", suggestion)
	}
	return nil
}

func comparisonGrid(result standards.ComparisonResult) *grid {
	g := &grid{headers: []string{
		"Status", "Official Standard", "Official Version", "Official Title",
		"Certificate Standard", "Certificate Version", "Category", "Description",
	}}

	for _, pair := range result.Matched {
		o, e := pair.Official, pair.Extracted
		g.add(statusMatched, o.Number, o.Version, o.Title, e.Raw, e.Version, e.Category, e.Description)
	}
	for _, o := range result.OfficialOnly {
		g.add(statusOfficialOnly, o.Number, o.Version, o.Title, "", "", "", "")
	}
	for _, e := range result.CertificateOnly {
		g.add(statusCertificateOnly, "", "", "", e.Raw, e.Version, e.Category, e.Description)
	}
	return g
}

// Batch summarizes one certificate compared against several directives.
func (w *Writer) Batch(results map[string]standards.ComparisonResult) error {
	best := standards.BestDirective(results)

	if w.format == FormatJSON {
		summaries := make(map[string]standards.Summary, len(results))
		for directive, result := range results {
			summaries[directive] = result.Summary()
		}
		return w.json(struct {
			BestDirective string                       `json:"best_directive"`
			Directives    map[string]standards.Summary `json:"directives"`
		}{best, summaries})
	}

	directives := make([]string, 0, len(results))
	for directive := range results {
		directives = append(directives, directive)
	}
	sort.Strings(directives)

	g := &grid{
		headers: []string{"Directive", "Coverage", "Matched", "Official Only", "Certificate Only", "Best"},
		aligns:  []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	}
	for _, directive := range directives {
		s := results[directive].Summary()
		mark := ""
		if directive == best {
			mark = "*"
		}
		g.add(directive, fmt.Sprintf("%.1f%%", s.Coverage), strconv.Itoa(s.Matched),
			strconv.Itoa(s.OfficialOnly), strconv.Itoa(s.CertificateOnly), mark)
	}
	return g.render(w.out, w.format)
}

// Directives lists the configured directives.
func (w *Writer) Directives(list []*config.Directive) error {
	if w.format == FormatJSON {
		return w.json(list)
	}

	g := &grid{headers: []string{"Code", "Name", "Directive", "Decision", "Journal", "Enabled"}}
	for _, d := range list {
		feed := "no"
		if d.JournalFeedURL != "" {
			feed = "yes"
		}
		g.add(d.Code, d.Name, d.Directive, orDash(d.Decision), feed, strconv.FormatBool(d.Settings.Enabled))
	}
	return g.render(w.out, w.format)
}

func (w *Writer) Official(directive string, list []standards.OfficialStandard) error {
	if w.format == FormatJSON {
		return w.json(struct {
			Directive string                       `json:"directive"`
			Standards []standards.OfficialStandard `json:"standards"`
		}{directive, list})
	}

	g := &grid{headers: []string{"Number", "Version", "Title", "Published", "Supersedes", "Status"}}
	for _, std := range list {
		g.add(std.Number, std.Version, std.Title, std.PublishedOn, std.Supersedes, std.Status)
	}
	return g.render(w.out, w.format)
}

func (w *Writer) Scope(scope standards.AccreditationScope) error {
	if w.format == FormatJSON {
		return w.json(scope)
	}

	if w.format != FormatCSV {
		cert := scope.Certificate
		fmt.Fprintf(w.out, "Source: %s\n", scope.Source)
		fmt.Fprintf(w.out, "Certificate: %s\n", orDash(cert.Number))
		fmt.Fprintf(w.out, "Organization: %s\n", orDash(cert.Organization))
		fmt.Fprintf(w.out, "Accreditation body: %s\n", orDash(cert.AccreditationBody))
		fmt.Fprintf(w.out, "Valid until: %s\n", orDash(cert.ValidUntil))
		fmt.Fprintf(w.out, "Standards: %d\n\n", len(scope.Standards))
	}

	g := &grid{headers: []string{"Standard", "Version", "Family", "Category", "Description"}}
	for _, std := range scope.Standards {
		g.add(std.Raw, std.Version, string(std.Family), std.Category, std.Description)
	}
	return g.render(w.out, w.format)
}

func (w *Writer) Notices(notices []journal.Notice) error {
	if w.format == FormatJSON {
		return w.json(notices)
	}

	g := &grid{headers: []string{"Published", "Directive", "Title", "Standards", "New"}}
	for _, n := range notices {
		published := ""
		if !n.PublishedAt.IsZero() {
			published = n.PublishedAt.Format("2006-01-02")
		}
		fresh := "yes"
		if n.Known {
			fresh = "no"
		}
		g.add(published, n.Directive, n.Title, strings.Join(n.Standards, "; "), fresh)
	}
	return g.render(w.out, w.format)
}

func (w *Writer) History(comparisons []database.Comparison) error {
	if w.format == FormatJSON {
		return w.json(comparisons)
	}

	g := &grid{
		headers: []string{"ID", "Directive", "Source", "Coverage", "Matched", "Compared At"},
		aligns:  []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	}
	for _, c := range comparisons {
		g.add(c.ID, c.Directive, c.Source, fmt.Sprintf("%.1f%%", c.Coverage),
			strconv.Itoa(c.Matched), c.ComparedAt.Format(time.RFC3339))
	}
	return g.render(w.out, w.format)
}

func (w *Writer) json(v any) error {
	encoder := json.NewEncoder(w.out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
