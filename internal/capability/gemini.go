package capability

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/shopshot/shopshot/pkg/models"
)

// Model names used by the Gemini-backed client. Analysis runs on the
// reasoning model; image work runs on the image model.
const (
	defaultAnalysisModel = "gemini-1.5-pro"
	defaultImageModel    = "gemini-2.0-flash-exp"
)

// GeminiClient implements Client against the Google Generative Language
// API. Image and analysis calls go through the official SDK; the
// long-running video operations (see video.go) use a raw HTTP client
// because the SDK does not expose them.
//
// A fresh SDK client is created per call so a credential re-selection
// between calls always takes effect — the video path depends on this.
type GeminiClient struct {
	apiKey        func() string
	analysisModel string
	imageModel    string
	videoModel    string
	videoBaseURL  string
}

// GeminiOption customizes a GeminiClient.
type GeminiOption func(*GeminiClient)

// WithModels overrides the analysis and image model names.
func WithModels(analysis, image string) GeminiOption {
	return func(g *GeminiClient) {
		if analysis != "" {
			g.analysisModel = analysis
		}
		if image != "" {
			g.imageModel = image
		}
	}
}

// WithVideoModel overrides the long-running video model name.
func WithVideoModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		if model != "" {
			g.videoModel = model
		}
	}
}

// NewGeminiClient builds a client. apiKey is called before every request
// so rotated or re-selected keys are picked up without restarting.
func NewGeminiClient(apiKey func() string, opts ...GeminiOption) *GeminiClient {
	g := &GeminiClient{
		apiKey:        apiKey,
		analysisModel: defaultAnalysisModel,
		imageModel:    defaultImageModel,
		videoModel:    defaultVideoModel,
		videoBaseURL:  defaultVideoBaseURL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GeminiClient) newSDK(ctx context.Context) (*genai.Client, error) {
	key := g.apiKey()
	if key == "" {
		return nil, fmt.Errorf("no API key configured")
	}
	return genai.NewClient(ctx, option.WithAPIKey(key))
}

// Analyze implements Client.
func (g *GeminiClient) Analyze(ctx context.Context, image string) (*models.ProductAnalysis, error) {
	mime, data, err := decodeDataURI(image)
	if err != nil {
		return nil, &AnalysisError{Err: err}
	}

	client, err := g.newSDK(ctx)
	if err != nil {
		return nil, &AnalysisError{Err: err}
	}
	defer client.Close()

	model := client.GenerativeModel(g.analysisModel)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx,
		genai.Blob{MIMEType: mime, Data: data},
		genai.Text(analyzeInstruction),
	)
	if err != nil {
		return nil, &AnalysisError{Err: err}
	}

	text, err := firstText(resp)
	if err != nil {
		return nil, &AnalysisError{Err: err}
	}

	var analysis models.ProductAnalysis
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &analysis); err != nil {
		return nil, &AnalysisError{Err: fmt.Errorf("malformed analysis response: %w", err)}
	}
	if analysis.MainCategory == "" {
		analysis.MainCategory = models.CategoryOther
	}
	return &analysis, nil
}

// Generate implements Client.
func (g *GeminiClient) Generate(ctx context.Context, image string, p GenerationParams) (string, error) {
	mime, data, err := decodeDataURI(image)
	if err != nil {
		return "", &GenerationError{ShotType: p.ShotType, Err: err}
	}

	client, err := g.newSDK(ctx)
	if err != nil {
		return "", &GenerationError{ShotType: p.ShotType, Err: err}
	}
	defer client.Close()

	parts := []genai.Part{genai.Blob{MIMEType: mime, Data: data}}
	if p.BrandLogo != "" {
		logoMime, logoData, err := decodeDataURI(p.BrandLogo)
		if err != nil {
			return "", &GenerationError{ShotType: p.ShotType, Err: fmt.Errorf("brand logo: %w", err)}
		}
		parts = append(parts, genai.Blob{MIMEType: logoMime, Data: logoData})
	}
	parts = append(parts, genai.Text(shotInstruction(p)))

	model := client.GenerativeModel(g.imageModel)
	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", &GenerationError{ShotType: p.ShotType, Err: err}
	}

	uri, err := firstImage(resp)
	if err != nil {
		return "", &GenerationError{ShotType: p.ShotType, Err: err}
	}
	return uri, nil
}

// RemoveBackground implements Client.
func (g *GeminiClient) RemoveBackground(ctx context.Context, image string) (string, error) {
	mime, data, err := decodeDataURI(image)
	if err != nil {
		return "", &GenerationError{Err: err}
	}

	client, err := g.newSDK(ctx)
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	defer client.Close()

	model := client.GenerativeModel(g.imageModel)
	resp, err := model.GenerateContent(ctx,
		genai.Blob{MIMEType: mime, Data: data},
		genai.Text(removeBackgroundInstruction),
	)
	if err != nil {
		return "", &GenerationError{Err: err}
	}

	uri, err := firstImage(resp)
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	return uri, nil
}

// CheckEligibility implements Client. Any internal failure degrades to
// ineligible with a human-readable reason — never to an error, so an
// unverifiable product cannot slip through the gate.
func (g *GeminiClient) CheckEligibility(ctx context.Context, image string) (models.Eligibility, error) {
	failedClosed := models.Eligibility{Eligible: false, Reason: "verification unavailable"}

	mime, data, err := decodeDataURI(image)
	if err != nil {
		log.Warn().Err(err).Msg("eligibility check: bad image payload")
		return failedClosed, nil
	}

	client, err := g.newSDK(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("eligibility check: client init failed")
		return failedClosed, nil
	}
	defer client.Close()

	model := client.GenerativeModel(g.analysisModel)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx,
		genai.Blob{MIMEType: mime, Data: data},
		genai.Text(eligibilityInstruction),
	)
	if err != nil {
		log.Warn().Err(err).Msg("eligibility check failed")
		return failedClosed, nil
	}

	text, err := firstText(resp)
	if err != nil {
		return failedClosed, nil
	}
	var result models.Eligibility
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &result); err != nil {
		return failedClosed, nil
	}
	return result, nil
}

// ── Response helpers ─────────────────────────────────────────

func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response")
	}
	c := resp.Candidates[0]
	if c.Content == nil || len(c.Content.Parts) == 0 {
		return "", fmt.Errorf("response has no content")
	}
	for _, part := range c.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt), nil
		}
	}
	return "", fmt.Errorf("no text part in response")
}

func firstImage(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response")
	}
	c := resp.Candidates[0]
	if c.Content == nil || len(c.Content.Parts) == 0 {
		return "", fmt.Errorf("response has no content")
	}
	for _, part := range c.Content.Parts {
		if blob, ok := part.(genai.Blob); ok {
			return encodeDataURI(blob.MIMEType, blob.Data), nil
		}
	}
	return "", fmt.Errorf("no image data in response")
}

// ── Data URI helpers ─────────────────────────────────────────

// decodeDataURI splits a "data:<mime>;base64,<payload>" string. Image
// payloads travel as data URIs end to end so the store never touches the
// filesystem.
func decodeDataURI(uri string) (mime string, data []byte, err error) {
	const scheme = "data:"
	if !strings.HasPrefix(uri, scheme) {
		return "", nil, fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(uri[len(scheme):], ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URI")
	}
	mime = strings.TrimSuffix(meta, ";base64")
	if mime == "" {
		mime = "image/png"
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URI: %w", err)
	}
	return mime, data, nil
}

func encodeDataURI(mime string, data []byte) string {
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
