package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/shopshot/shopshot/internal/capability"
	"github.com/shopshot/shopshot/pkg/models"
)

// videoTokenCost is the metered price of one finished video. Charged only
// on success; an aborted or failed render costs nothing.
const videoTokenCost = 5

// videoPollInterval is the fixed wait between operation polls.
const videoPollInterval = 10 * time.Second

// videoStatusMessages rotate through the OnStatus callback while the
// render is in flight, one per poll cycle.
var videoStatusMessages = []string{
	"Analyzing commercial product textures...",
	"Applying high-end studio lighting...",
	"Synthesizing cinematic motion path...",
	"Performing final MP4 assembly...",
	"Running commercial safety audit...",
}

// VideoParams is the full context of one video production.
type VideoParams struct {
	Image       string // data URI of the source still
	FileName    string
	PresetID    string
	AspectRatio models.AspectRatio
	Analysis    *models.ProductAnalysis
	Plan        models.PlanID

	// OnStatus receives human-readable progress lines. Optional.
	OnStatus func(status string)
}

// videoPhase tracks the poll state machine. Transitions are strictly
// forward: submitted → polling → {succeeded, failed}.
type videoPhase string

const (
	phaseSubmitted videoPhase = "submitted"
	phasePolling   videoPhase = "polling"
	phaseSucceeded videoPhase = "succeeded"
	phaseFailed    videoPhase = "failed"
)

// CheckVideoEligibility runs the pre-video safety audit for one image.
// Any failure of the check itself reads as ineligible.
func (o *Orchestrator) CheckVideoEligibility(ctx context.Context, image string) models.Eligibility {
	elig, err := o.client.CheckEligibility(ctx, image)
	if err != nil {
		log.Warn().Err(err).Msg("Eligibility check failed, treating as ineligible")
		return models.Eligibility{Eligible: false, Reason: "Unable to verify product eligibility. Please try again."}
	}
	return elig
}

// ProduceVideo renders one commercial video from a product still and
// appends it to history. The call blocks through the whole poll loop;
// cancel ctx to abandon the render without charge.
func (o *Orchestrator) ProduceVideo(ctx context.Context, p VideoParams) (*models.GeneratedVideo, error) {
	ctx, span := tracer.Start(ctx, "production.video")
	defer span.End()

	if !o.catalog.Plan(p.Plan).Features.VideoGeneration {
		return nil, &PlanFeatureError{Feature: "video generation"}
	}

	preset, ok := o.catalog.VideoPreset(p.PresetID)
	if !ok {
		return nil, &EligibilityError{Reason: "unknown motion preset " + p.PresetID}
	}

	elig := o.CheckVideoEligibility(ctx, p.Image)
	if !elig.Eligible {
		return nil, &EligibilityError{Reason: elig.Reason}
	}

	if !o.ledger.Reserve(videoTokenCost) {
		return nil, &BudgetError{Required: videoTokenCost, Balance: o.ledger.Balance()}
	}

	span.SetAttributes(
		attribute.String("video.preset", preset.ID),
		attribute.String("video.ratio", string(p.AspectRatio)),
	)
	o.status(p, "Initializing video production engine...")

	phase := phaseSubmitted
	op, err := o.startVideoWithRetry(ctx, p.Image, preset.Prompt, p.AspectRatio)
	if err != nil {
		return nil, err
	}
	log.Info().Str("operation", op.Name).Str("phase", string(phase)).Msg("Video render submitted")

	statusIdx := 0
	for !op.Done {
		phase = phasePolling
		o.status(p, videoStatusMessages[statusIdx%len(videoStatusMessages)])
		statusIdx++

		if err := o.clock.Sleep(ctx, videoPollInterval); err != nil {
			return nil, err
		}
		op, err = o.pollVideoWithRetry(ctx, op)
		if err != nil {
			return nil, err
		}
		if op.ErrMsg != "" {
			phase = phaseFailed
			log.Warn().Str("reason", op.ErrMsg).Str("phase", string(phase)).Msg("Video render failed")
			return nil, &capability.VideoFailedError{Reason: op.ErrMsg}
		}
	}

	if op.ErrMsg != "" {
		phase = phaseFailed
		log.Warn().Str("reason", op.ErrMsg).Str("phase", string(phase)).Msg("Video render failed")
		return nil, &capability.VideoFailedError{Reason: op.ErrMsg}
	}
	if op.VideoURI == "" {
		phase = phaseFailed
		return nil, &capability.VideoFailedError{Reason: "no download link in completed operation"}
	}

	o.status(p, "Retrieving finished render...")
	url, err := o.client.FetchVideo(ctx, op.VideoURI)
	if err != nil {
		return nil, err
	}
	phase = phaseSucceeded

	video := &models.GeneratedVideo{
		ID:           uuid.New().String(),
		URL:          url,
		ThumbnailURL: p.Image,
		PromptUsed:   preset.Prompt,
		PresetUsed:   preset.ID,
		AspectRatio:  p.AspectRatio.VideoRatio(),
		FileName:     p.FileName,
		Analysis:     p.Analysis,
		CreatedAt:    o.clock.Now().UTC(),
	}
	if err := o.store.AppendVideo(ctx, video); err != nil {
		return nil, err
	}

	// Settlement only now: the reservation was a gate, not a charge.
	o.ledger.Debit(videoTokenCost)

	log.Info().
		Str("video", video.ID).
		Str("preset", preset.ID).
		Str("phase", string(phase)).
		Int("balance", o.ledger.Balance()).
		Msg("Video production completed")
	return video, nil
}

// startVideoWithRetry submits the render, repeating the identical request
// once when the transport reports an auth-scoped entity-not-found. The
// client resolves credentials per call, so the retry picks up a newly
// selected key.
func (o *Orchestrator) startVideoWithRetry(ctx context.Context, image, prompt string, ratio models.AspectRatio) (*capability.VideoOperation, error) {
	op, err := o.client.StartVideo(ctx, image, prompt, ratio)
	var authErr *capability.TransportAuthError
	if errors.As(err, &authErr) {
		log.Warn().Err(err).Msg("Video start hit credential mismatch, retrying once")
		return o.client.StartVideo(ctx, image, prompt, ratio)
	}
	return op, err
}

func (o *Orchestrator) pollVideoWithRetry(ctx context.Context, op *capability.VideoOperation) (*capability.VideoOperation, error) {
	next, err := o.client.PollVideo(ctx, op)
	var authErr *capability.TransportAuthError
	if errors.As(err, &authErr) {
		log.Warn().Err(err).Str("operation", op.Name).Msg("Video poll hit credential mismatch, retrying once")
		return o.client.PollVideo(ctx, op)
	}
	return next, err
}

func (o *Orchestrator) status(p VideoParams, msg string) {
	if p.OnStatus != nil {
		p.OnStatus(msg)
	}
}
