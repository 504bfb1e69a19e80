// Package orchestrator implements the batch production engine.
//
// It drives uploaded items through the analysis and generation lifecycle:
//
//  1. Upload creates items and fires one analysis call per item,
//     concurrently and independently across items.
//  2. A production run reserves the full token cost up front, then
//     processes items strictly in insertion order, shots strictly in
//     order within an item.
//  3. Each successful shot appends an immutable asset to history; a shot
//     failure errors that item only and the batch continues.
//  4. Settlement debits the shots actually completed, never the
//     reserved estimate.
package orchestrator

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/shopshot/shopshot/internal/capability"
	"github.com/shopshot/shopshot/internal/catalog"
	"github.com/shopshot/shopshot/internal/ledger"
	"github.com/shopshot/shopshot/internal/store"
	"github.com/shopshot/shopshot/pkg/models"
)

var tracer = otel.Tracer("shopshot-orchestrator")

// Orchestrator owns the item lifecycle, the token accounting of
// production runs, and the video poll loop. All collaborators are
// injected; it keeps no ambient globals.
type Orchestrator struct {
	store   store.Store
	ledger  *ledger.Ledger
	client  capability.Client
	catalog *catalog.Catalog
	clock   Clock

	// runMu serializes production runs: item N+1 must never begin while
	// item N's shots are unresolved, and token settlement must not
	// interleave across runs.
	runMu sync.Mutex

	// defaultCategory follows the most recent successful analysis as a
	// convenience default for the UI. Non-binding.
	catMu           sync.Mutex
	defaultCategory models.MainCategory
}

// New wires an orchestrator.
func New(s store.Store, l *ledger.Ledger, c capability.Client, cat *catalog.Catalog, clock Clock) *Orchestrator {
	if clock == nil {
		clock = RealClock()
	}
	return &Orchestrator{
		store:           s,
		ledger:          l,
		client:          c,
		catalog:         cat,
		clock:           clock,
		defaultCategory: models.CategoryFashion,
	}
}

// Balance exposes the running token balance for the telemetry surface.
func (o *Orchestrator) Balance() int { return o.ledger.Balance() }

// DefaultCategory returns the current convenience default.
func (o *Orchestrator) DefaultCategory() models.MainCategory {
	o.catMu.Lock()
	defer o.catMu.Unlock()
	return o.defaultCategory
}

// ── Upload & analysis ────────────────────────────────────────

// Upload is one incoming file: name plus data-URI payload.
type Upload struct {
	FileName string
	Image    string
}

// AddItems creates pending batch items and fires their analysis calls in
// the background, one per item, with no cross-item ordering guarantee.
func (o *Orchestrator) AddItems(ctx context.Context, uploads []Upload) ([]models.BatchItem, error) {
	created := make([]models.BatchItem, 0, len(uploads))
	for _, up := range uploads {
		item := models.BatchItem{
			ID:            uuid.New().String(),
			FileName:      up.FileName,
			SourceImage:   up.Image,
			Status:        models.ItemStatusPending,
			SelectedAngle: models.AngleFront,
			WearableMode:  models.WearAuto,
			CreatedAt:     o.clock.Now().UTC(),
		}
		if err := o.store.CreateItem(ctx, &item); err != nil {
			return created, err
		}
		created = append(created, item)
	}

	for i := range created {
		go o.analyzeItem(context.Background(), created[i].ID)
	}

	log.Info().Int("items", len(created)).Msg("Batch items queued for analysis")
	return created, nil
}

// analyzeItem runs the pending → analyzing → {ready|error} leg for one
// item. Analysis failure is recoverable per item: the item is skipped by
// the generation pass but stays visible with its error reason.
func (o *Orchestrator) analyzeItem(ctx context.Context, itemID string) {
	item, err := o.store.GetItem(ctx, itemID)
	if err != nil {
		log.Warn().Err(err).Str("item", itemID).Msg("Analysis skipped: item vanished")
		return
	}

	if err := o.store.MutateItem(ctx, itemID, func(it *models.BatchItem) error {
		it.Status = models.ItemStatusAnalyzing
		return nil
	}); err != nil {
		return
	}

	analysis, err := o.client.Analyze(ctx, item.SourceImage)
	if err != nil {
		o.store.MutateItem(ctx, itemID, func(it *models.BatchItem) error {
			it.Status = models.ItemStatusError
			it.Error = "Analysis failed"
			return nil
		})
		log.Warn().Err(err).Str("item", itemID).Msg("Item analysis failed")
		return
	}

	// Scoped write: only the analysis fields change, so an edit made
	// while the remote call was in flight survives.
	if err := o.store.MutateItem(ctx, itemID, func(it *models.BatchItem) error {
		it.Analysis = analysis
		it.Status = models.ItemStatusReady
		it.Error = ""
		return nil
	}); err != nil {
		return
	}

	if analysis.MainCategory != "" {
		o.catMu.Lock()
		o.defaultCategory = analysis.MainCategory
		o.catMu.Unlock()
	}

	log.Info().
		Str("item", itemID).
		Str("category", string(analysis.MainCategory)).
		Float64("confidence", analysis.ConfidenceScore).
		Msg("Item analyzed")
}

// ── Production run ───────────────────────────────────────────

// RunParams is the full context of a production run. Enumerated fields
// are validated once via models.ValidateRunConfig before the run starts.
type RunParams struct {
	Prompt       string
	AspectRatio  models.AspectRatio
	Category     models.MainCategory
	Preset       string
	KitMode      bool
	KitSize      int
	BrandLogo    string
	LogoPosition models.LogoPosition
	Plan         models.PlanID
}

// ItemOutcome is the per-item result of a run.
type ItemOutcome struct {
	ItemID   string            `json:"item_id"`
	FileName string            `json:"file_name"`
	Status   models.ItemStatus `json:"status"`
	Shots    int               `json:"shots"`
	Error    string            `json:"error,omitempty"`
}

// RunResult summarizes a completed production run.
type RunResult struct {
	RunID          string                  `json:"run_id"`
	Generated      []models.GeneratedAsset `json:"generated"`
	Outcomes       []ItemOutcome           `json:"outcomes"`
	TokensConsumed int                     `json:"tokens_consumed"`
	Balance        int                     `json:"balance"`
	DurationMs     int64                   `json:"duration_ms"`
}

// Run executes the production pass over every item not already completed
// or errored. The entire run cost is reserved before the first remote
// call; settlement debits only the shots that actually completed.
func (o *Orchestrator) Run(ctx context.Context, p RunParams) (*RunResult, error) {
	o.runMu.Lock()
	defer o.runMu.Unlock()

	ctx, span := tracer.Start(ctx, "production.run")
	defer span.End()

	start := o.clock.Now()
	runID := uuid.New().String()

	items, err := o.store.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	var eligible []models.BatchItem
	for _, it := range items {
		if it.Status == models.ItemStatusCompleted || it.Status == models.ItemStatusError {
			continue
		}
		eligible = append(eligible, it)
	}

	shotsPerItem := 1
	if p.KitMode {
		shotsPerItem = p.KitSize
	}
	required := len(eligible) * shotsPerItem

	// No eligible items is a successful no-op, not a budget failure.
	if required > 0 && !o.ledger.Reserve(required) {
		return nil, &BudgetError{Required: required, Balance: o.ledger.Balance()}
	}

	span.SetAttributes(
		attribute.Int("run.items", len(eligible)),
		attribute.Int("run.reserved", required),
		attribute.Bool("run.kit_mode", p.KitMode),
	)

	log.Info().
		Str("run_id", runID).
		Int("items", len(eligible)).
		Int("reserved", required).
		Bool("kit_mode", p.KitMode).
		Msg("Production run started")

	watermark := o.catalog.Plan(p.Plan).Watermark

	result := &RunResult{RunID: runID}
	consumed := 0

	// Strictly sequential: item N's shots all resolve before item N+1
	// begins, so status transitions and token accounting never
	// interleave across items.
	for _, item := range eligible {
		outcome := o.runItem(ctx, runID, &item, p, watermark, result)
		consumed += outcome.Shots
		result.Outcomes = append(result.Outcomes, outcome)
	}

	// Settlement: the reservation was a gate, not a charge.
	o.ledger.Debit(consumed)

	result.TokensConsumed = consumed
	result.Balance = o.ledger.Balance()
	result.DurationMs = o.clock.Now().Sub(start).Milliseconds()

	log.Info().
		Str("run_id", runID).
		Int("assets", len(result.Generated)).
		Int("tokens_consumed", consumed).
		Int("balance", result.Balance).
		Int64("duration_ms", result.DurationMs).
		Msg("Production run completed")

	return result, nil
}

// runItem drives one item through generating → {completed|error},
// appending every successful shot to history as it lands. A shot failure
// aborts the item's remaining shots; shots already produced stay.
func (o *Orchestrator) runItem(ctx context.Context, runID string, item *models.BatchItem, p RunParams, watermark bool, result *RunResult) ItemOutcome {
	outcome := ItemOutcome{ItemID: item.ID, FileName: item.FileName}

	item.Status = models.ItemStatusGenerating
	if err := o.store.UpdateItem(ctx, item); err != nil {
		outcome.Status = models.ItemStatusError
		outcome.Error = err.Error()
		return outcome
	}

	category := p.Category
	if category == "" && item.Analysis != nil {
		category = item.Analysis.MainCategory
	}

	var shots []string
	if p.KitMode {
		shots = o.catalog.KitShots(category, p.KitSize)
	} else {
		shots = []string{p.Preset}
	}

	wearableMode := item.WearableMode
	if wearableMode == "" {
		wearableMode = models.WearAuto
	}

	var session []models.GeneratedAsset
	var shotErr error

	for _, shot := range shots {
		url, err := o.client.Generate(ctx, item.SourceImage, capability.GenerationParams{
			Prompt:       p.Prompt,
			AspectRatio:  p.AspectRatio,
			ShotType:     shot,
			Analysis:     item.Analysis,
			BrandLogo:    p.BrandLogo,
			LogoPosition: p.LogoPosition,
			CameraAngle:  item.SelectedAngle,
			KitMode:      p.KitMode,
			WearableMode: wearableMode,
			Watermark:    watermark,
		})
		if err != nil {
			shotErr = err
			break
		}

		promptUsed := shot
		if p.KitMode {
			promptUsed = "Kit: " + shot
		}
		session = append(session, models.GeneratedAsset{
			ID:         uuid.New().String(),
			URL:        url,
			PromptUsed: promptUsed,
			ShotType:   shot,
			FileName:   item.FileName,
			Analysis:   item.Analysis,
			CreatedAt:  o.clock.Now().UTC(),
		})
	}

	// No rollback: shots completed before a failure stay in history and
	// are charged at settlement.
	if len(session) > 0 {
		if err := o.store.AppendAssets(ctx, session); err != nil {
			log.Error().Err(err).Str("item", item.ID).Msg("Failed to append run assets")
		} else {
			result.Generated = append(result.Generated, session...)
		}
	}
	outcome.Shots = len(session)

	if shotErr != nil {
		item.Status = models.ItemStatusError
		item.Error = shotErr.Error()
		o.store.UpdateItem(ctx, item)
		outcome.Status = models.ItemStatusError
		outcome.Error = shotErr.Error()
		log.Warn().
			Err(shotErr).
			Str("run_id", runID).
			Str("item", item.ID).
			Int("shots_completed", len(session)).
			Msg("Item errored mid-run, continuing batch")
		return outcome
	}

	item.Status = models.ItemStatusCompleted
	item.Error = ""
	o.store.UpdateItem(ctx, item)
	outcome.Status = models.ItemStatusCompleted
	return outcome
}

// ── Background removal ───────────────────────────────────────

// backgroundRemovalCost is the metered price of one background removal.
const backgroundRemovalCost = 1

// RemoveBackground runs the one-shot background extraction tool. The
// token is charged only when the remote call succeeds.
func (o *Orchestrator) RemoveBackground(ctx context.Context, image string) (string, error) {
	if !o.ledger.Reserve(backgroundRemovalCost) {
		return "", &BudgetError{Required: backgroundRemovalCost, Balance: o.ledger.Balance()}
	}
	result, err := o.client.RemoveBackground(ctx, image)
	if err != nil {
		return "", err
	}
	o.ledger.Debit(backgroundRemovalCost)
	return result, nil
}
