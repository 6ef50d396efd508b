package towerlens

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/towerlens/verify"
	"github.com/tsawler/towerlens/xlsx"
)

// createTowerXLSX writes a small two-layer tower workbook to disk and
// returns its path.
func createTowerXLSX(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tower.xlsx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	write := func(name, content string) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to create %s in zip: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	write("[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/>
  <Override PartName="/xl/worksheets/sheet1.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"/>
</Types>`)

	write("_rels/.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="xl/workbook.xml"/>
</Relationships>`)

	write("xl/_rels/workbook.xml.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/>
</Relationships>`)

	write("xl/workbook.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets>
  <sheet name="Tower" sheetId="1" r:id="rId1"/>
</sheets>
</workbook>`)

	// Two layers: $50M split Chubb/AIG, $25M held by Zurich. Column E is
	// the broker's bound premium summary.
	write("xl/worksheets/sheet1.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<sheetData>
  <row r="1">
    <c r="A1" t="str"><v>Layer</v></c>
    <c r="B1" t="str"><v>Carrier</v></c>
    <c r="C1" t="str"><v>Share</v></c>
    <c r="D1" t="str"><v>Premium</v></c>
    <c r="E1" t="str"><v>Bound Premium</v></c>
  </row>
  <row r="2">
    <c r="A2" t="str"><v>$50M</v></c>
    <c r="B2" t="str"><v>Chubb</v></c>
    <c r="C2"><v>0.6</v></c>
    <c r="D2"><v>240000</v></c>
    <c r="E2"><v>410000</v></c>
  </row>
  <row r="3">
    <c r="B3" t="str"><v>AIG</v></c>
    <c r="C3"><v>0.4</v></c>
    <c r="D3"><v>160000</v></c>
  </row>
  <row r="4">
    <c r="A4" t="str"><v>$25M</v></c>
    <c r="B4" t="str"><v>Zurich</v></c>
    <c r="C4"><v>1</v></c>
    <c r="D4"><v>500000</v></c>
  </row>
</sheetData>
</worksheet>`)

	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip writer: %v", err)
	}
	return path
}

func TestEntries_EndToEnd(t *testing.T) {
	entries, err := Open(createTowerXLSX(t)).Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3: %+v", len(entries), entries)
	}
	if entries[0].Carrier != "Chubb" || entries[0].LayerLimit != "$50M" {
		t.Errorf("entries[0] = %+v, want Chubb in $50M", entries[0])
	}
	if entries[2].Carrier != "Zurich" || entries[2].LayerLimit != "$25M" {
		t.Errorf("entries[2] = %+v, want Zurich in $25M", entries[2])
	}
	if entries[0].Premium == nil || *entries[0].Premium != 240000 {
		t.Errorf("Chubb premium = %v, want 240000", entries[0].Premium)
	}
}

func TestEntriesWithSummaries(t *testing.T) {
	_, summaries, err := Open(createTowerXLSX(t)).EntriesWithSummaries()
	if err != nil {
		t.Fatalf("EntriesWithSummaries: %v", err)
	}

	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	s0 := summaries[0]
	if s0.Participation == nil || *s0.Participation != 1.0 {
		t.Errorf("layer 0 participation = %v, want 1.0", s0.Participation)
	}
	if s0.DeclaredPremium == nil || *s0.DeclaredPremium != 410000 {
		t.Errorf("layer 0 declared premium = %v, want 410000", s0.DeclaredPremium)
	}
}

func TestPreflight_EndToEnd(t *testing.T) {
	path := createTowerXLSX(t)
	pf, err := Open(path).Preflight()
	if err != nil {
		t.Fatalf("Preflight: %v", err)
	}

	if !pf.CanExtract {
		t.Errorf("CanExtract = false, issues: %v", pf.Issues)
	}
	if pf.FileName != filepath.Base(path) {
		t.Errorf("FileName = %q, want %q", pf.FileName, filepath.Base(path))
	}
	if pf.SheetName != "Tower" {
		t.Errorf("SheetName = %q, want Tower", pf.SheetName)
	}
	if pf.LayersFound != 2 {
		t.Errorf("LayersFound = %d, want 2", pf.LayersFound)
	}
}

// The threshold bears on Preflight's verdict only; extraction runs
// regardless and records degradation in its results.
func TestPreflightThreshold_DoesNotGateExtraction(t *testing.T) {
	path := createTowerXLSX(t)

	pf, err := Open(path).PreflightThreshold(1.0).Preflight()
	if err != nil {
		t.Fatalf("Preflight: %v", err)
	}
	if pf.CanExtract {
		t.Error("CanExtract = true at an unreachable threshold")
	}

	entries, err := Open(path).PreflightThreshold(1.0).Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("got %d entries, want 3", len(entries))
	}
}

func TestVerify_LocalOnly(t *testing.T) {
	result, err := Open(createTowerXLSX(t)).Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if !result.Metadata.FallbackUsed {
		t.Error("FallbackUsed = false without a checker")
	}
	if result.Metadata.ParsingMethod != "local" {
		t.Errorf("ParsingMethod = %q, want local", result.Metadata.ParsingMethod)
	}
	// The sheet's declared premium is 2.5% above the computed sum, inside
	// the default tolerance.
	if result.Score != 1.0 {
		t.Errorf("Score = %v, issues: %v", result.Score, result.Issues)
	}
}

type stubChecker struct {
	finding *verify.Finding
	err     error
}

func (s stubChecker) Check(ctx context.Context, req verify.Request) (*verify.Finding, error) {
	return s.finding, s.err
}

func TestVerify_WithChecker(t *testing.T) {
	checker := stubChecker{finding: &verify.Finding{
		Score:         0.8,
		Summary:       "looks right",
		ParsingMethod: "structured",
	}}

	result, err := Open(createTowerXLSX(t)).WithChecker(checker).Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if result.Metadata.FallbackUsed {
		t.Error("FallbackUsed = true after successful check")
	}
	if result.Score != 0.9 {
		t.Errorf("Score = %v, want blended 0.9", result.Score)
	}
	if result.Metadata.ParsingMethod != "structured" {
		t.Errorf("ParsingMethod = %q", result.Metadata.ParsingMethod)
	}
}

func TestOpen_MissingFile(t *testing.T) {
	if _, err := Open("no-such-file.xlsx").Entries(); err == nil {
		t.Error("Entries on missing file succeeded, want error")
	}
	if _, err := Open("no-such-file.xlsx").Preflight(); err == nil {
		t.Error("Preflight on missing file succeeded, want error")
	}
}

func TestOpen_NoFilename(t *testing.T) {
	if _, err := Open("").Entries(); err == nil {
		t.Error("Entries without filename succeeded, want error")
	}
}

func TestExtractor_UnknownSheet(t *testing.T) {
	_, err := Open(createTowerXLSX(t)).Sheet("Budget").Entries()
	if err == nil {
		t.Fatal("unknown sheet succeeded, want error")
	}
	if !strings.Contains(err.Error(), "Budget") {
		t.Errorf("error %q does not name the sheet", err)
	}
}

// Configuration methods must not mutate the extractor they are called on.
func TestExtractor_Immutable(t *testing.T) {
	base := Open("tower.xlsx")
	derived := base.Sheet("Tower").PreflightThreshold(0.9).PremiumTolerance(0.2)

	if base.options.sheetName != "" {
		t.Errorf("base sheetName mutated to %q", base.options.sheetName)
	}
	if base.options.preflightThreshold == 0.9 {
		t.Error("base preflightThreshold mutated")
	}
	if derived.options.sheetName != "Tower" || derived.options.preflightThreshold != 0.9 {
		t.Errorf("derived options = %+v", derived.options)
	}
	if derived.options.tolerances.Premium != 0.2 {
		t.Errorf("derived premium tolerance = %v", derived.options.tolerances.Premium)
	}
	// Untouched tolerance fields keep their defaults.
	if derived.options.tolerances.Participation != verify.DefaultTolerances().Participation {
		t.Errorf("participation tolerance = %v", derived.options.tolerances.Participation)
	}
}

func TestFromReader(t *testing.T) {
	r, err := xlsx.Open(createTowerXLSX(t))
	if err != nil {
		t.Fatalf("xlsx.Open: %v", err)
	}
	defer r.Close()

	entries, err := FromReader(r).Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("got %d entries, want 3", len(entries))
	}

	// The extractor does not own the reader; it stays usable.
	if names := r.SheetNames(); len(names) != 1 || names[0] != "Tower" {
		t.Errorf("SheetNames after extraction = %v", names)
	}
}

func TestSheetNames(t *testing.T) {
	ext := Open(createTowerXLSX(t))
	defer ext.Close()

	names, err := ext.SheetNames()
	if err != nil {
		t.Fatalf("SheetNames: %v", err)
	}
	if len(names) != 1 || names[0] != "Tower" {
		t.Errorf("names = %v, want [Tower]", names)
	}
}

func TestMust(t *testing.T) {
	if got := Must(42, nil); got != 42 {
		t.Errorf("Must = %v, want 42", got)
	}

	defer func() {
		if recover() == nil {
			t.Error("Must did not panic on error")
		}
	}()
	Must(Open("no-such-file.xlsx").Entries())
}
