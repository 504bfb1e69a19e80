// Package models defines the shared domain types for the ShopShot
// production backend: batch items, analysis results, generated assets,
// plans, and the enumerated configuration values used when building
// generation requests.
package models

import (
	"fmt"
	"time"
)

// ── Batch Item ───────────────────────────────────────────────

type ItemStatus string

const (
	ItemStatusPending    ItemStatus = "pending"
	ItemStatusAnalyzing  ItemStatus = "analyzing"
	ItemStatusReady      ItemStatus = "ready"
	ItemStatusGenerating ItemStatus = "generating"
	ItemStatusCompleted  ItemStatus = "completed"
	ItemStatusError      ItemStatus = "error"
)

// BatchItem is one uploaded product photo moving through the production
// lifecycle. Status is mutated only by the orchestrator:
//
//	pending → analyzing → {ready | error}
//	ready → generating → {completed | error}
//
// completed and error are terminal for a production run; an errored item
// may re-enter generating in a later run.
type BatchItem struct {
	ID           string           `json:"id"`
	FileName     string           `json:"file_name"`
	SourceImage  string           `json:"source_image"` // data URI
	Analysis     *ProductAnalysis `json:"analysis,omitempty"`
	Status       ItemStatus       `json:"status"`
	Error        string           `json:"error,omitempty"`
	SelectedAngle CameraAngle     `json:"selected_angle"`
	WearableMode WearableMode     `json:"wearable_mode"`
	CreatedAt    time.Time        `json:"created_at"`
}

// ── Analysis ─────────────────────────────────────────────────

// ProductAnalysis is produced once by the remote capability client.
// Field-level user overrides are allowed; the shape never changes.
type ProductAnalysis struct {
	ProductName     string       `json:"product_name"`
	MainCategory    MainCategory `json:"main_category"`
	IsWearable      bool         `json:"is_wearable"`
	SuggestedPrompt string       `json:"suggested_prompt"`
	ConfidenceScore float64      `json:"confidence_score"`
	ProductTitle    string       `json:"product_title,omitempty"`
	SEODescription  string       `json:"seo_description,omitempty"`
	SEOKeywords     []string     `json:"seo_keywords,omitempty"`
	Tags            []string     `json:"tags,omitempty"`
}

// ── Generated Assets ─────────────────────────────────────────

// GeneratedAsset is one rendered shot. Append-only: once in history it is
// never mutated, only referenced for export or deleted outright.
type GeneratedAsset struct {
	ID         string           `json:"id"`
	URL        string           `json:"url"` // data URI or fetchable URL
	PromptUsed string           `json:"prompt_used"`
	ShotType   string           `json:"shot_type"`
	FileName   string           `json:"file_name"` // originating source file
	Analysis   *ProductAnalysis `json:"analysis,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// GeneratedVideo is a rendered motion asset.
type GeneratedVideo struct {
	ID           string           `json:"id"`
	URL          string           `json:"url"`
	ThumbnailURL string           `json:"thumbnail_url"`
	PromptUsed   string           `json:"prompt_used"`
	PresetUsed   string           `json:"preset_used"`
	AspectRatio  string           `json:"aspect_ratio"`
	FileName     string           `json:"file_name"`
	Analysis     *ProductAnalysis `json:"analysis,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// ── Eligibility ──────────────────────────────────────────────

// Eligibility is the result of the pre-video safety check. The capability
// client fails closed to ineligible: an unverifiable product never slips
// through as eligible.
type Eligibility struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

// ── Enumerated configuration values ──────────────────────────

type AspectRatio string

const (
	RatioSquare     AspectRatio = "1:1"
	RatioPortrait   AspectRatio = "3:4"
	RatioLandscape  AspectRatio = "4:3"
	RatioMobile     AspectRatio = "9:16"
	RatioWidescreen AspectRatio = "16:9"
)

func (r AspectRatio) Valid() bool {
	switch r {
	case RatioSquare, RatioPortrait, RatioLandscape, RatioMobile, RatioWidescreen:
		return true
	}
	return false
}

// VideoRatio maps a canvas ratio to the two ratios the video model
// supports: landscape canvases become 16:9, everything else 9:16.
func (r AspectRatio) VideoRatio() string {
	if r == RatioLandscape || r == RatioWidescreen {
		return "16:9"
	}
	return "9:16"
}

type WearableMode string

const (
	WearAuto        WearableMode = "auto"
	WearHuman       WearableMode = "human"
	WearProductOnly WearableMode = "product_only"
)

func (m WearableMode) Valid() bool {
	switch m {
	case WearAuto, WearHuman, WearProductOnly:
		return true
	}
	return false
}

type LogoPosition string

const (
	LogoTopLeft     LogoPosition = "top-left"
	LogoTopCenter   LogoPosition = "top-center"
	LogoTopRight    LogoPosition = "top-right"
	LogoBottomLeft  LogoPosition = "bottom-left"
	LogoBottomRight LogoPosition = "bottom-right"
)

func (p LogoPosition) Valid() bool {
	switch p {
	case LogoTopLeft, LogoTopCenter, LogoTopRight, LogoBottomLeft, LogoBottomRight:
		return true
	}
	return false
}

type CameraAngle string

const (
	AngleFront   CameraAngle = "front"
	AngleBack    CameraAngle = "back"
	AngleLeft    CameraAngle = "left"
	AngleRight   CameraAngle = "right"
	Angle45Left  CameraAngle = "45_degree_left"
	Angle45Right CameraAngle = "45_degree_right"
)

func (a CameraAngle) Valid() bool {
	switch a {
	case AngleFront, AngleBack, AngleLeft, AngleRight, Angle45Left, Angle45Right:
		return true
	}
	return false
}

type MainCategory string

const (
	CategoryFashion     MainCategory = "Fashion"
	CategoryJewellery   MainCategory = "Jewellery"
	CategoryElectronics MainCategory = "Electronics"
	CategoryBeauty      MainCategory = "Beauty"
	CategoryFMCG        MainCategory = "FMCG"
	CategoryHome        MainCategory = "Home"
	CategoryFootwear    MainCategory = "Footwear"
	CategoryOther       MainCategory = "Other"
)

// ── Plans ────────────────────────────────────────────────────

type PlanID string

const (
	PlanFree    PlanID = "free"
	PlanPro     PlanID = "pro"
	PlanPremium PlanID = "premium"
)

func (p PlanID) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanPremium:
		return true
	}
	return false
}

// PlanFeatures are the per-plan capability switches.
type PlanFeatures struct {
	Kit             bool `json:"kit"`
	Angles          bool `json:"angles"`
	Zip             bool `json:"zip"`
	SEO             bool `json:"seo"`
	CSV             bool `json:"csv"`
	SKUNaming       bool `json:"sku_naming"`
	VideoGeneration bool `json:"video_generation"`
}

// PlanConfig is a read-only lookup during a production run. Changing the
// active plan takes effect for subsequent runs only, never retroactively
// for in-flight items.
type PlanConfig struct {
	ID         PlanID       `json:"id"`
	Name       string       `json:"name"`
	Price      int          `json:"price"`
	TokenGrant int          `json:"token_grant"`
	Watermark  bool         `json:"watermark"`
	CanTopUp   bool         `json:"can_top_up"`
	Features   PlanFeatures `json:"features"`
}

// ── Video presets ────────────────────────────────────────────

// VideoPreset is a pre-authored motion style for video production.
type VideoPreset struct {
	ID          string       `json:"id"`
	Label       string       `json:"label"`
	Description string       `json:"description"`
	Category    MainCategory `json:"category"` // CategoryOther acts as "All"
	Prompt      string       `json:"prompt"`
}

// ── Export ───────────────────────────────────────────────────

// ManifestRow is one CSV line of an export bundle, derived at export time
// and never persisted independently.
type ManifestRow struct {
	SKU           string
	ImageFileName string
	Title         string
	Description   string
	Keywords      string
	Tags          string
	ShotType      string
	BatchGroupID  string
}

// ── Validation helpers ───────────────────────────────────────

// ValidateRunConfig checks the enumerated fields of a generation request
// once, at construction.
func ValidateRunConfig(ratio AspectRatio, logoPos LogoPosition, mode WearableMode) error {
	if !ratio.Valid() {
		return fmt.Errorf("unrecognized aspect ratio %q", ratio)
	}
	if !logoPos.Valid() {
		return fmt.Errorf("unrecognized logo position %q", logoPos)
	}
	if !mode.Valid() {
		return fmt.Errorf("unrecognized wearable mode %q", mode)
	}
	return nil
}
