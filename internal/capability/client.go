// Package capability defines the contract with the remote AI services the
// orchestrator drives: product analysis, styled shot generation, background
// removal, video eligibility checks, and long-running video production.
//
// Each call is a single request/response with no implicit retry. Failures
// are typed so the orchestrator can distinguish per-item recoverable
// conditions from the video path's transport-auth condition, which permits
// exactly one retry of the same request.
package capability

import (
	"context"

	"github.com/shopshot/shopshot/pkg/models"
)

// GenerationParams carries everything a single shot render needs. The
// enumerated fields are validated once, when the production run is
// constructed, not per call.
type GenerationParams struct {
	Prompt       string // global background/style prompt, may be empty
	AspectRatio  models.AspectRatio
	ShotType     string // preset name or kit angle label
	Analysis     *models.ProductAnalysis
	BrandLogo    string // data URI, empty when no brand kit
	LogoPosition models.LogoPosition
	CameraAngle  models.CameraAngle
	KitMode      bool
	WearableMode models.WearableMode
	Watermark    bool // derived from the active plan
}

// VideoOperation is the handle for a long-running video render. Callers
// poll until Done; a done operation carries either a video URI or an
// error message, never both.
type VideoOperation struct {
	Name     string // server-side operation name, used for polling
	Done     bool
	VideoURI string
	ErrMsg   string
}

// Client is the remote capability contract. One in-flight call per
// invocation; rate limiting is the provider's concern.
type Client interface {
	// Analyze inspects a product image and returns marketplace metadata.
	// Failures are *AnalysisError: recoverable per item, the batch
	// continues.
	Analyze(ctx context.Context, image string) (*models.ProductAnalysis, error)

	// Generate renders one styled shot and returns the asset as a data
	// URI. Failures are *GenerationError: recoverable at item
	// granularity, partial kit results are preserved.
	Generate(ctx context.Context, image string, p GenerationParams) (string, error)

	// RemoveBackground returns the product cut out on a transparent
	// background, as a data URI.
	RemoveBackground(ctx context.Context, image string) (string, error)

	// CheckEligibility runs the pre-video safety audit. Implementations
	// convert their own failures into {Eligible:false} rather than
	// returning an error; callers that do receive an error must treat it
	// the same way. An unverifiable product is never eligible.
	CheckEligibility(ctx context.Context, image string) (models.Eligibility, error)

	// StartVideo submits a long-running video render and returns its
	// handle. An entity-not-found transport condition surfaces as
	// *TransportAuthError.
	StartVideo(ctx context.Context, image, prompt string, ratio models.AspectRatio) (*VideoOperation, error)

	// PollVideo refreshes the operation state. Same error contract as
	// StartVideo.
	PollVideo(ctx context.Context, op *VideoOperation) (*VideoOperation, error)

	// FetchVideo downloads a finished render and returns it as a data
	// URI.
	FetchVideo(ctx context.Context, uri string) (string, error)
}
