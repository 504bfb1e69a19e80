// Package export builds marketplace-ready bundles: a zip archive of the
// generated assets plus a CSV manifest describing every asset, including
// the ones whose payload could not be retrieved.
package export

import (
	"archive/zip"
	"context"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shopshot/shopshot/pkg/models"
)

// manifestHeader is the fixed column set marketplaces ingest. Order is
// part of the format.
var manifestHeader = []string{
	"SKU", "Image_File_Name", "Product_Title", "SEO_Description",
	"Keywords", "Tags", "Shot_Type", "Batch_ID",
}

// PackagingError wraps a failure that aborts the whole bundle. A single
// asset whose payload cannot be fetched is not a PackagingError: it is
// skipped from the archive and kept in the manifest.
type PackagingError struct {
	Stage string
	Err   error
}

func (e *PackagingError) Error() string { return "export " + e.Stage + ": " + e.Err.Error() }
func (e *PackagingError) Unwrap() error { return e.Err }

// Packager assembles export bundles. Zero value is not usable; construct
// with New.
type Packager struct {
	httpClient *http.Client
	now        func() time.Time
	token      func() string
}

// Option configures a Packager.
type Option func(*Packager)

// WithHTTPClient overrides the client used for non-data-URI payloads.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Packager) { p.httpClient = c }
}

// WithNow overrides the wall clock used for archive and SKU dates.
func WithNow(now func() time.Time) Option {
	return func(p *Packager) { p.now = now }
}

// New builds a Packager.
func New(opts ...Option) *Packager {
	p := &Packager{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
		token: func() string {
			return strings.ToUpper(uuid.New().String()[:4])
		},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Request describes one export bundle.
type Request struct {
	Assets []models.GeneratedAsset

	// BaseSKU overrides the generated SKU stem. Optional.
	BaseSKU string

	// Bulk groups assets by source file: each group gets its own SKU
	// derived from the stem, and the archive takes the bulk name.
	Bulk bool
}

// Result summarizes a written bundle.
type Result struct {
	ArchiveName string
	BaseSKU     string
	Manifest    []models.ManifestRow

	// Skipped lists archive entry names whose payload fetch failed.
	// Their manifest rows are still present.
	Skipped []string
}

// archiveName resolves the bundle file name and the effective SKU stem
// for req. The stem is random when the request does not pin one, so the
// resolution happens exactly once per bundle.
func (p *Packager) archiveName(req Request) (string, string) {
	date := p.now().UTC().Format("2006-01-02")
	baseSKU := strings.TrimSpace(req.BaseSKU)
	if baseSKU == "" {
		baseSKU = fmt.Sprintf("SHOPSHOT-%s-%s", date, p.token())
	}
	if req.Bulk {
		return "ShopShot_Bulk_Export_" + date + ".zip", baseSKU
	}
	return baseSKU + "_collection.zip", baseSKU
}

// Package writes the zip bundle for req to w and returns its manifest.
// Assets are fetched sequentially so entry indexes and manifest rows stay
// aligned with export order.
func (p *Packager) Package(ctx context.Context, w io.Writer, req Request) (*Result, error) {
	archiveName, baseSKU := p.archiveName(req)
	date := p.now().UTC().Format("2006-01-02")

	zw := zip.NewWriter(w)
	result := &Result{ArchiveName: archiveName, BaseSKU: baseSKU}

	for idx, asset := range req.Assets {
		groupKey := asset.FileName
		if groupKey == "" {
			groupKey = "General"
		}

		sku := baseSKU
		if req.Bulk {
			sku = baseSKU + "-" + collapseWhitespace(groupKey)
		}

		shotType := asset.ShotType
		if shotType == "" {
			shotType = "asset"
		}
		sanitizedType := collapseWhitespace(strings.ToLower(shotType))

		entryName := fmt.Sprintf("%s_%s_%d.png", sku, sanitizedType, idx+1)

		payload, err := p.fetchPayload(ctx, asset.URL)
		if err != nil {
			// Degraded bundle, not a failed one: the manifest row below
			// still describes the asset.
			log.Warn().Err(err).Str("entry", entryName).Msg("Export payload fetch failed, skipping archive entry")
			result.Skipped = append(result.Skipped, entryName)
		} else {
			f, err := zw.Create(entryName)
			if err != nil {
				return nil, &PackagingError{Stage: "archive entry", Err: err}
			}
			if _, err := f.Write(payload); err != nil {
				return nil, &PackagingError{Stage: "archive entry", Err: err}
			}
		}

		result.Manifest = append(result.Manifest, manifestRow(asset, sku, entryName, sanitizedType, groupKey))
	}

	mf, err := zw.Create("shopshot_export_" + date + ".csv")
	if err != nil {
		return nil, &PackagingError{Stage: "manifest", Err: err}
	}
	if err := writeManifest(mf, result.Manifest); err != nil {
		return nil, &PackagingError{Stage: "manifest", Err: err}
	}

	if err := zw.Close(); err != nil {
		return nil, &PackagingError{Stage: "archive close", Err: err}
	}

	log.Info().
		Str("archive", archiveName).
		Int("assets", len(req.Assets)).
		Int("skipped", len(result.Skipped)).
		Msg("Export bundle written")
	return result, nil
}

// manifestRow derives one CSV line, applying the documented fallbacks for
// assets with missing or partial analysis.
func manifestRow(asset models.GeneratedAsset, sku, entryName, sanitizedType, groupKey string) models.ManifestRow {
	row := models.ManifestRow{
		SKU:           sku,
		ImageFileName: entryName,
		Title:         "Marketplace Product",
		Description:   "Product asset generated by ShopShot",
		Keywords:      "e-commerce, ai",
		Tags:          sanitizedType,
		ShotType:      sanitizedType,
		BatchGroupID:  groupKey,
	}
	if a := asset.Analysis; a != nil {
		if a.ProductTitle != "" {
			row.Title = a.ProductTitle
		} else if a.ProductName != "" {
			row.Title = a.ProductName
		}
		if a.SEODescription != "" {
			row.Description = a.SEODescription
		}
		if len(a.SEOKeywords) > 0 {
			row.Keywords = strings.Join(a.SEOKeywords, ", ")
		}
		if len(a.Tags) > 0 {
			row.Tags = strings.Join(a.Tags, ", ")
		}
	}
	return row
}

func writeManifest(w io.Writer, rows []models.ManifestRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(manifestHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.SKU, r.ImageFileName, r.Title, r.Description,
			r.Keywords, r.Tags, r.ShotType, r.BatchGroupID,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// fetchPayload resolves an asset URL to raw bytes. Generated assets are
// data URIs; history imported from elsewhere may carry plain URLs.
func (p *Packager) fetchPayload(ctx context.Context, url string) ([]byte, error) {
	if strings.HasPrefix(url, "data:") {
		rest, ok := strings.CutPrefix(url, "data:")
		if !ok {
			return nil, fmt.Errorf("malformed data URI")
		}
		meta, encoded, found := strings.Cut(rest, ",")
		if !found {
			return nil, fmt.Errorf("malformed data URI")
		}
		if !strings.HasSuffix(meta, ";base64") {
			return nil, fmt.Errorf("unsupported data URI encoding %q", meta)
		}
		return base64.StdEncoding.DecodeString(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payload fetch: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// collapseWhitespace replaces every whitespace run with a single hyphen.
// Leading and trailing runs become hyphens too, so names round-trip
// byte-for-byte against SKUs minted by earlier exports.
func collapseWhitespace(s string) string {
	return whitespaceRun.ReplaceAllString(s, "-")
}
