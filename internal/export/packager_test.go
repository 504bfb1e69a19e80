package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopshot/shopshot/pkg/models"
)

var fixedNow = func() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func dataURI(payload string) string {
	return "data:image/png;base64," + payload
}

func readZip(t *testing.T, buf *bytes.Buffer) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	entries := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		entries[f.Name] = data
	}
	return entries
}

func TestPackage_DeterministicNaming(t *testing.T) {
	p := New(WithNow(fixedNow))

	assets := []models.GeneratedAsset{
		{ID: "1", URL: dataURI("QUJD"), ShotType: "Front View", FileName: "Photo 1"},
		{ID: "2", URL: dataURI("REVG"), ShotType: "Back View", FileName: "Photo 2"},
	}

	var buf bytes.Buffer
	result, err := p.Package(context.Background(), &buf, Request{
		Assets:  assets,
		BaseSKU: "X",
		Bulk:    true,
	})
	if err != nil {
		t.Fatalf("Package: %v", err)
	}

	if result.ArchiveName != "ShopShot_Bulk_Export_2025-06-01.zip" {
		t.Errorf("archive name = %q", result.ArchiveName)
	}

	// Bulk SKU derives from the source file name, whitespace hyphenated.
	wantRows := []struct{ sku, file string }{
		{"X-Photo-1", "X-Photo-1_front-view_1.png"},
		{"X-Photo-2", "X-Photo-2_back-view_2.png"},
	}
	if len(result.Manifest) != len(wantRows) {
		t.Fatalf("manifest has %d rows, want %d", len(result.Manifest), len(wantRows))
	}
	for i, want := range wantRows {
		if result.Manifest[i].SKU != want.sku {
			t.Errorf("row %d SKU = %q, want %q", i, result.Manifest[i].SKU, want.sku)
		}
		if result.Manifest[i].ImageFileName != want.file {
			t.Errorf("row %d file = %q, want %q", i, result.Manifest[i].ImageFileName, want.file)
		}
	}

	entries := readZip(t, &buf)
	for _, want := range wantRows {
		if _, ok := entries[want.file]; !ok {
			t.Errorf("archive missing entry %q (has %v)", want.file, keys(entries))
		}
	}
	if _, ok := entries["shopshot_export_2025-06-01.csv"]; !ok {
		t.Error("archive missing manifest CSV")
	}
}

func TestPackage_SingleCollectionNaming(t *testing.T) {
	p := New(WithNow(fixedNow))

	assets := []models.GeneratedAsset{
		{ID: "1", URL: dataURI("QUJD"), ShotType: "Hero Shot", FileName: "mug.png"},
		{ID: "2", URL: dataURI("REVG"), ShotType: "Hero Shot", FileName: "mug.png"},
		{ID: "3", URL: dataURI("R0hJ"), ShotType: "", FileName: "mug.png"},
	}

	var buf bytes.Buffer
	result, err := p.Package(context.Background(), &buf, Request{Assets: assets, BaseSKU: "MUG-001"})
	if err != nil {
		t.Fatalf("Package: %v", err)
	}

	if result.ArchiveName != "MUG-001_collection.zip" {
		t.Errorf("archive name = %q", result.ArchiveName)
	}

	// Same SKU throughout, index keeps entries distinct; empty shot type
	// falls back to "asset".
	want := []string{
		"MUG-001_hero-shot_1.png",
		"MUG-001_hero-shot_2.png",
		"MUG-001_asset_3.png",
	}
	for i, w := range want {
		if result.Manifest[i].ImageFileName != w {
			t.Errorf("row %d file = %q, want %q", i, result.Manifest[i].ImageFileName, w)
		}
		if result.Manifest[i].SKU != "MUG-001" {
			t.Errorf("row %d SKU = %q, want MUG-001", i, result.Manifest[i].SKU)
		}
	}
}

func TestPackage_GeneratedSKUStem(t *testing.T) {
	p := New(WithNow(fixedNow))

	var buf bytes.Buffer
	result, err := p.Package(context.Background(), &buf, Request{
		Assets: []models.GeneratedAsset{{ID: "1", URL: dataURI("QUJD"), ShotType: "Hero", FileName: "a"}},
	})
	if err != nil {
		t.Fatalf("Package: %v", err)
	}

	if !strings.HasPrefix(result.BaseSKU, "SHOPSHOT-2025-06-01-") {
		t.Errorf("generated SKU stem = %q", result.BaseSKU)
	}
	suffix := strings.TrimPrefix(result.BaseSKU, "SHOPSHOT-2025-06-01-")
	if len(suffix) != 4 || suffix != strings.ToUpper(suffix) {
		t.Errorf("SKU token = %q, want 4 uppercase chars", suffix)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Photo 1", "Photo-1"},
		{"Photo  \t 1", "Photo-1"},
		{" Photo 1", "-Photo-1"},
		{"Photo 1 ", "Photo-1-"},
		{"General", "General"},
	}
	for _, tc := range cases {
		if got := collapseWhitespace(tc.in); got != tc.want {
			t.Errorf("collapseWhitespace(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPackage_FetchFailureKeepsManifestRow(t *testing.T) {
	p := New(WithNow(fixedNow))

	assets := []models.GeneratedAsset{
		{ID: "1", URL: dataURI("QUJD"), ShotType: "Hero", FileName: "a"},
		{ID: "2", URL: "data:image/png;notbase64,xxx", ShotType: "Hero", FileName: "a"}, // undecodable
		{ID: "3", URL: dataURI("R0hJ"), ShotType: "Hero", FileName: "a"},
	}

	var buf bytes.Buffer
	result, err := p.Package(context.Background(), &buf, Request{Assets: assets, BaseSKU: "K"})
	if err != nil {
		t.Fatalf("Package should degrade, not fail: %v", err)
	}

	// All three rows survive in the manifest.
	if len(result.Manifest) != 3 {
		t.Fatalf("manifest rows = %d, want 3", len(result.Manifest))
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != "K_hero_2.png" {
		t.Errorf("skipped = %v, want [K_hero_2.png]", result.Skipped)
	}

	// The archive holds only the fetchable payloads plus the CSV.
	entries := readZip(t, &buf)
	if _, ok := entries["K_hero_2.png"]; ok {
		t.Error("unfetchable payload present in archive")
	}
	if _, ok := entries["K_hero_1.png"]; !ok {
		t.Error("archive missing first entry")
	}
	if _, ok := entries["K_hero_3.png"]; !ok {
		t.Error("archive missing third entry; index must not shift after a skip")
	}

	// CSV carries the skipped row too.
	records := parseManifest(t, entries["shopshot_export_2025-06-01.csv"])
	if len(records) != 4 { // header + 3 rows
		t.Fatalf("CSV rows = %d, want 4", len(records))
	}
	if records[2][1] != "K_hero_2.png" {
		t.Errorf("CSV row for skipped asset = %v", records[2])
	}
}

func TestPackage_ManifestFallbacks(t *testing.T) {
	p := New(WithNow(fixedNow))

	assets := []models.GeneratedAsset{
		{ID: "1", URL: dataURI("QUJD"), ShotType: "Detail Closeup", FileName: ""},
		{
			ID: "2", URL: dataURI("REVG"), ShotType: "Hero", FileName: "ring.png",
			Analysis: &models.ProductAnalysis{
				ProductTitle:   "Gold Plated Ring",
				SEODescription: "Elegant gold plated ring",
				SEOKeywords:    []string{"ring", "gold"},
				Tags:           []string{"jewellery", "festive"},
			},
		},
	}

	var buf bytes.Buffer
	result, err := p.Package(context.Background(), &buf, Request{Assets: assets, BaseSKU: "S"})
	if err != nil {
		t.Fatalf("Package: %v", err)
	}

	bare := result.Manifest[0]
	if bare.Title != "Marketplace Product" {
		t.Errorf("fallback title = %q", bare.Title)
	}
	if bare.Keywords != "e-commerce, ai" {
		t.Errorf("fallback keywords = %q", bare.Keywords)
	}
	if bare.Tags != "detail-closeup" {
		t.Errorf("fallback tags = %q, want sanitized shot type", bare.Tags)
	}
	if bare.BatchGroupID != "General" {
		t.Errorf("fallback batch group = %q, want General", bare.BatchGroupID)
	}

	rich := result.Manifest[1]
	if rich.Title != "Gold Plated Ring" {
		t.Errorf("title = %q", rich.Title)
	}
	if rich.Keywords != "ring, gold" {
		t.Errorf("keywords = %q", rich.Keywords)
	}
	if rich.Tags != "jewellery, festive" {
		t.Errorf("tags = %q", rich.Tags)
	}
	if rich.BatchGroupID != "ring.png" {
		t.Errorf("batch group = %q", rich.BatchGroupID)
	}
}

func parseManifest(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	return records
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
