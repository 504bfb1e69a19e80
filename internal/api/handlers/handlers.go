// Package handlers implements the HTTP handlers for the ShopShot
// production backend. Handlers stay thin: decode, delegate to the
// orchestrator or store, map typed errors to status codes.
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/shopshot/shopshot/internal/capability"
	"github.com/shopshot/shopshot/internal/catalog"
	"github.com/shopshot/shopshot/internal/export"
	"github.com/shopshot/shopshot/internal/ledger"
	"github.com/shopshot/shopshot/internal/orchestrator"
	"github.com/shopshot/shopshot/internal/store"
	"github.com/shopshot/shopshot/pkg/models"
)

// Handlers holds all handler dependencies.
type Handlers struct {
	Store        store.Store
	Orchestrator *orchestrator.Orchestrator
	Ledger       *ledger.Ledger
	Catalog      *catalog.Catalog
	Packager     *export.Packager

	// Active plan. Switching applies to subsequent operations only,
	// never retroactively to in-flight work.
	planMu     sync.Mutex
	activePlan models.PlanID
}

// New creates a new Handlers instance with all dependencies.
func New(s store.Store, o *orchestrator.Orchestrator, l *ledger.Ledger, cat *catalog.Catalog, pkg *export.Packager, plan models.PlanID) *Handlers {
	if !plan.Valid() {
		plan = models.PlanFree
	}
	return &Handlers{
		Store:        s,
		Orchestrator: o,
		Ledger:       l,
		Catalog:      cat,
		Packager:     pkg,
		activePlan:   plan,
	}
}

func (h *Handlers) plan() models.PlanID {
	h.planMu.Lock()
	defer h.planMu.Unlock()
	return h.activePlan
}

// ── Batch items ──────────────────────────────────────────────

type uploadRequest struct {
	Files []struct {
		FileName string `json:"file_name"`
		Image    string `json:"image"` // data URI
	} `json:"files"`
}

func (h *Handlers) UploadItems(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Files) == 0 {
		respondError(w, http.StatusBadRequest, "No files in request")
		return
	}

	uploads := make([]orchestrator.Upload, 0, len(req.Files))
	for _, f := range req.Files {
		if f.Image == "" {
			respondError(w, http.StatusBadRequest, "File "+f.FileName+" has no image payload")
			return
		}
		uploads = append(uploads, orchestrator.Upload{FileName: f.FileName, Image: f.Image})
	}

	items, err := h.Orchestrator.AddItems(r.Context(), uploads)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, items)
}

func (h *Handlers) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListItems(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []models.BatchItem{}
	}
	respondJSON(w, http.StatusOK, items)
}

type patchItemRequest struct {
	SelectedAngle string                  `json:"selected_angle,omitempty"`
	WearableMode  string                  `json:"wearable_mode,omitempty"`
	Analysis      *models.ProductAnalysis `json:"analysis,omitempty"`
}

func (h *Handlers) PatchItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	var req patchItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var angle models.CameraAngle
	if req.SelectedAngle != "" {
		angle = models.CameraAngle(req.SelectedAngle)
		if !angle.Valid() {
			respondError(w, http.StatusBadRequest, "Unrecognized camera angle "+req.SelectedAngle)
			return
		}
	}
	var mode models.WearableMode
	if req.WearableMode != "" {
		mode = models.WearableMode(req.WearableMode)
		if !mode.Valid() {
			respondError(w, http.StatusBadRequest, "Unrecognized wearable mode "+req.WearableMode)
			return
		}
	}

	// The edit merges onto the latest stored state under the store lock,
	// so it cannot clobber, or be clobbered by, the analysis write-back.
	var updated models.BatchItem
	err := h.Store.MutateItem(r.Context(), itemID, func(it *models.BatchItem) error {
		if angle != "" {
			it.SelectedAngle = angle
		}
		if mode != "" {
			it.WearableMode = mode
		}
		if req.Analysis != nil {
			it.Analysis = req.Analysis
		}
		updated = *it
		return nil
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handlers) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	if err := h.Store.DeleteItem(r.Context(), itemID); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Production run ───────────────────────────────────────────

type runRequest struct {
	Prompt       string `json:"prompt,omitempty"`
	AspectRatio  string `json:"aspect_ratio,omitempty"`
	Category     string `json:"category,omitempty"`
	Preset       string `json:"preset,omitempty"`
	KitMode      bool   `json:"kit_mode,omitempty"`
	KitSize      int    `json:"kit_size,omitempty"`
	BrandLogo    string `json:"brand_logo,omitempty"`
	LogoPosition string `json:"logo_position,omitempty"`
}

func (h *Handlers) RunBatch(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ratio := models.AspectRatio(req.AspectRatio)
	if req.AspectRatio == "" {
		ratio = models.RatioSquare
	}
	logoPos := models.LogoPosition(req.LogoPosition)
	if req.LogoPosition == "" {
		logoPos = models.LogoBottomRight
	}
	if err := models.ValidateRunConfig(ratio, logoPos, models.WearAuto); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.KitMode && req.Preset == "" {
		respondError(w, http.StatusBadRequest, "Either kit_mode or a preset is required")
		return
	}
	if req.KitMode && req.KitSize <= 0 {
		req.KitSize = 5
	}

	result, err := h.Orchestrator.Run(r.Context(), orchestrator.RunParams{
		Prompt:       req.Prompt,
		AspectRatio:  ratio,
		Category:     models.MainCategory(req.Category),
		Preset:       req.Preset,
		KitMode:      req.KitMode,
		KitSize:      req.KitSize,
		BrandLogo:    req.BrandLogo,
		LogoPosition: logoPos,
		Plan:         h.plan(),
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ── History ──────────────────────────────────────────────────

func (h *Handlers) ListHistory(w http.ResponseWriter, r *http.Request) {
	assets, err := h.Store.ListAssets(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if assets == nil {
		assets = []models.GeneratedAsset{}
	}
	respondJSON(w, http.StatusOK, assets)
}

func (h *Handlers) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetID")
	if err := h.Store.DeleteAsset(r.Context(), assetID); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Export ───────────────────────────────────────────────────

type exportRequest struct {
	AssetIDs []string `json:"asset_ids,omitempty"` // empty = whole history
	BaseSKU  string   `json:"base_sku,omitempty"`
	Bulk     bool     `json:"bulk,omitempty"`
}

func (h *Handlers) ExportBundle(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	assets, err := h.selectAssets(r, req.AssetIDs)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if len(assets) == 0 {
		respondError(w, http.StatusBadRequest, "Nothing to export")
		return
	}

	// CSV manifest detail is a paid feature; the bundle itself is not.
	features := h.Catalog.Plan(h.plan()).Features
	if req.Bulk && !features.CSV {
		respondError(w, http.StatusForbidden, "Bulk CSV export requires a paid plan")
		return
	}

	// Buffer the archive so the name, which may carry a generated SKU
	// stem, is known before headers go out.
	var buf bytes.Buffer
	result, err := h.Packager.Package(r.Context(), &buf, export.Request{
		Assets:  assets,
		BaseSKU: req.BaseSKU,
		Bulk:    req.Bulk,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+result.ArchiveName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Warn().Err(err).Msg("Export stream interrupted")
	}
}

func (h *Handlers) selectAssets(r *http.Request, ids []string) ([]models.GeneratedAsset, error) {
	all, err := h.Store.ListAssets(r.Context())
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return all, nil
	}

	byID := make(map[string]models.GeneratedAsset, len(all))
	for _, a := range all {
		byID[a.ID] = a
	}
	selected := make([]models.GeneratedAsset, 0, len(ids))
	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			return nil, &store.ErrNotFound{Entity: "asset", Key: id}
		}
		selected = append(selected, a)
	}
	return selected, nil
}

// ── Video production ─────────────────────────────────────────

type videoRequest struct {
	Image       string                  `json:"image"` // data URI of the source still
	FileName    string                  `json:"file_name,omitempty"`
	PresetID    string                  `json:"preset_id"`
	AspectRatio string                  `json:"aspect_ratio,omitempty"`
	Analysis    *models.ProductAnalysis `json:"analysis,omitempty"`
}

type videoResponse struct {
	Video    *models.GeneratedVideo `json:"video"`
	Progress []string               `json:"progress"`
	Balance  int                    `json:"balance"`
}

func (h *Handlers) ProduceVideo(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Image == "" || req.PresetID == "" {
		respondError(w, http.StatusBadRequest, "image and preset_id are required")
		return
	}

	ratio := models.AspectRatio(req.AspectRatio)
	if req.AspectRatio == "" {
		ratio = models.RatioMobile
	}
	if !ratio.Valid() {
		respondError(w, http.StatusBadRequest, "Unrecognized aspect ratio "+req.AspectRatio)
		return
	}

	fileName := req.FileName
	if fileName == "" {
		fileName = "product_video"
	}

	// The render blocks through the poll loop; progress lines land in
	// the response record.
	var progress []string
	var progressMu sync.Mutex

	video, err := h.Orchestrator.ProduceVideo(r.Context(), orchestrator.VideoParams{
		Image:       req.Image,
		FileName:    fileName,
		PresetID:    req.PresetID,
		AspectRatio: ratio,
		Analysis:    req.Analysis,
		Plan:        h.plan(),
		OnStatus: func(status string) {
			progressMu.Lock()
			progress = append(progress, status)
			progressMu.Unlock()
		},
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, videoResponse{
		Video:    video,
		Progress: progress,
		Balance:  h.Ledger.Balance(),
	})
}

type eligibilityRequest struct {
	Image string `json:"image"`
}

func (h *Handlers) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	var req eligibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Image == "" {
		respondError(w, http.StatusBadRequest, "image is required")
		return
	}
	respondJSON(w, http.StatusOK, h.Orchestrator.CheckVideoEligibility(r.Context(), req.Image))
}

func (h *Handlers) ListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := h.Store.ListVideos(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if videos == nil {
		videos = []models.GeneratedVideo{}
	}
	respondJSON(w, http.StatusOK, videos)
}

func (h *Handlers) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	if err := h.Store.DeleteVideo(r.Context(), videoID); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Background removal ───────────────────────────────────────

type backgroundRemovalRequest struct {
	Image string `json:"image"`
}

func (h *Handlers) RemoveBackground(w http.ResponseWriter, r *http.Request) {
	var req backgroundRemovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Image == "" {
		respondError(w, http.StatusBadRequest, "image is required")
		return
	}

	url, err := h.Orchestrator.RemoveBackground(r.Context(), req.Image)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"url":     url,
		"balance": h.Ledger.Balance(),
	})
}

// ── Plans & tokens ───────────────────────────────────────────

func (h *Handlers) ListPlans(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"plans":  h.Catalog.Plans(),
		"active": h.plan(),
	})
}

type activatePlanRequest struct {
	Plan string `json:"plan"`
}

func (h *Handlers) ActivatePlan(w http.ResponseWriter, r *http.Request) {
	var req activatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id := models.PlanID(req.Plan)
	if !id.Valid() {
		respondError(w, http.StatusBadRequest, "Unrecognized plan "+req.Plan)
		return
	}

	plan := h.Catalog.Plan(id)

	h.planMu.Lock()
	h.activePlan = id
	h.planMu.Unlock()

	// Activation credits the plan's token grant.
	h.Ledger.Credit(plan.TokenGrant)

	log.Info().Str("plan", string(id)).Int("granted", plan.TokenGrant).Msg("Plan activated")
	respondJSON(w, http.StatusOK, map[string]any{
		"plan":    plan,
		"balance": h.Ledger.Balance(),
	})
}

type topupRequest struct {
	Tokens int `json:"tokens"`
}

func (h *Handlers) TopUpTokens(w http.ResponseWriter, r *http.Request) {
	var req topupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Tokens <= 0 {
		respondError(w, http.StatusBadRequest, "tokens must be positive")
		return
	}
	if !h.Catalog.Plan(h.plan()).CanTopUp {
		respondError(w, http.StatusForbidden, "Active plan does not allow top-ups")
		return
	}

	h.Ledger.Credit(req.Tokens)
	respondJSON(w, http.StatusOK, map[string]int{"balance": h.Ledger.Balance()})
}

func (h *Handlers) GetBalance(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"balance": h.Ledger.Balance(),
		"plan":    h.plan(),
	})
}

// ── Response helpers ─────────────────────────────────────────

// respondDomainError maps the typed orchestrator and capability errors to
// HTTP status codes.
func respondDomainError(w http.ResponseWriter, err error) {
	var budgetErr *orchestrator.BudgetError
	var eligErr *orchestrator.EligibilityError
	var planErr *orchestrator.PlanFeatureError
	var videoErr *capability.VideoFailedError

	switch {
	case errors.As(err, &budgetErr):
		respondError(w, http.StatusPaymentRequired, err.Error())
	case errors.As(err, &eligErr):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &planErr):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &videoErr):
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func respondStoreError(w http.ResponseWriter, err error) {
	var notFound *store.ErrNotFound
	if errors.As(err, &notFound) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, err.Error())
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
