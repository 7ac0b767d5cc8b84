package document

import (
	"testing"

	"github.com/lysyi3m/standards-comb/app/config"
	"github.com/lysyi3m/standards-comb/app/standards"
)

func newTestOfficialParser(t *testing.T) *OfficialParser {
	t.Helper()

	patterns := config.DefaultPatterns()
	extractor, err := standards.NewExtractor(patterns.Families, patterns.ExtractorOptions())
	if err != nil {
		t.Fatal(err)
	}
	return NewOfficialParser(extractor, standards.NewDeduplicator(standards.NewNormalizer(patterns.Normalization)))
}

func TestOfficialParser_Run_Table(t *testing.T) {
	parser := newTestOfficialParser(t)

	html := `<html><body>
	<table>
		<tr>
			<th>No</th>
			<th>Reference and title of the standard</th>
			<th>Reference of superseded standard</th>
			<th>Date of publication</th>
		</tr>
		<tr>
			<td>1</td>
			<td>EN 300 328 V2.2.2 Wideband transmission systems; Data transmission equipment</td>
			<td>EN 300 328 V2.1.1</td>
			<td>2019-07-15</td>
		</tr>
		<tr>
			<td>2</td>
			<td>ETSI EN 301 489-17 V3.2.4 ElectroMagnetic Compatibility (EMC) standard for radio equipment</td>
			<td></td>
			<td>2021-03-01</td>
		</tr>
		<tr>
			<td>3</td>
			<td>Notes only</td>
			<td></td>
			<td></td>
		</tr>
	</table>
	</body></html>`

	got, err := parser.Run([]byte(html), "RE")
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 2 {
		t.Fatalf("Expected 2 standards, got %d: %+v", len(got), got)
	}

	first := got[0]
	if first.Number != "EN 300 328" || first.Version != "V2.2.2" {
		t.Errorf("Unexpected first standard %s %s", first.Number, first.Version)
	}
	if first.Title != "Wideband transmission systems; Data transmission equipment" {
		t.Errorf("Unexpected title %q", first.Title)
	}
	if first.Supersedes != "EN 300 328 V2.1.1" {
		t.Errorf("Expected supersedes 'EN 300 328 V2.1.1', got %q", first.Supersedes)
	}
	if first.PublishedOn != "2019-07-15" {
		t.Errorf("Expected publication date, got %q", first.PublishedOn)
	}
	if first.Directive != "RE" || first.Status != standards.StatusActive {
		t.Errorf("Unexpected directive/status %q/%q", first.Directive, first.Status)
	}

	second := got[1]
	if second.Number != "ETSI EN 301 489-17" || second.Version != "V3.2.4" {
		t.Errorf("Unexpected second standard %s %s", second.Number, second.Version)
	}
	if second.Supersedes != "" {
		t.Errorf("Expected no superseded standard, got %q", second.Supersedes)
	}
}

func TestOfficialParser_Run_SeparateColumns(t *testing.T) {
	parser := newTestOfficialParser(t)

	html := `<table>
		<tr><td>Standard</td><td>Title</td><td>Version</td></tr>
		<tr><td>EN 62368-1</td><td>Audio/video, information and communication technology equipment</td><td>2014</td></tr>
	</table>`

	got, err := parser.Run([]byte(html), "LVD")
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 1 {
		t.Fatalf("Expected 1 standard, got %d", len(got))
	}
	if got[0].Version != "2014" {
		t.Errorf("Expected version from the version column, got %q", got[0].Version)
	}
	if got[0].Title != "Audio/video, information and communication technology equipment" {
		t.Errorf("Expected title from the title column, got %q", got[0].Title)
	}
}

func TestOfficialParser_Run_TextFallback(t *testing.T) {
	parser := newTestOfficialParser(t)

	html := `<html><body>
		<h2>Harmonised standards</h2>
		<p>EN 62368-1:2014 Audio/video equipment</p>
		<p>EN 60335-1:2012 Household appliances</p>
	</body></html>`

	got, err := parser.Run([]byte(html), "LVD")
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 2 {
		t.Fatalf("Expected 2 standards, got %d: %+v", len(got), got)
	}
	if got[0].Number != "EN 62368-1" || got[0].Version != "2014" {
		t.Errorf("Unexpected first standard %+v", got[0])
	}
	if got[0].Title != "Audio/video equipment" {
		t.Errorf("Expected rest of line as title, got %q", got[0].Title)
	}
}

func TestOfficialParser_FromText_Deduplicates(t *testing.T) {
	parser := newTestOfficialParser(t)

	text := "EN 55032:2015 Multimedia equipment\n" +
		"EN 55035:2017 Immunity\n" +
		"EN 55032:2015 Multimedia equipment - emission requirements"

	got := parser.FromText(text, "EMC")

	if len(got) != 2 {
		t.Fatalf("Expected 2 standards, got %d: %+v", len(got), got)
	}
	if got[0].Title != "Multimedia equipment - emission requirements" {
		t.Errorf("Expected the longest description to be kept, got %q", got[0].Title)
	}
}

func TestOfficialParser_FromText_Empty(t *testing.T) {
	parser := newTestOfficialParser(t)

	got := parser.FromText("no identifiers", "EMC")
	if got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", got)
	}
}
