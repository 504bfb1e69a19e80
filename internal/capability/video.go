package capability

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopshot/shopshot/pkg/models"
)

// The SDK has no surface for the long-running video models, so this path
// talks to the Generative Language API directly.
const (
	defaultVideoModel   = "veo-2.0-generate-001"
	defaultVideoBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	videoRequestTimeout = 2 * time.Minute
)

var videoHTTPClient = &http.Client{Timeout: videoRequestTimeout}

type videoStartRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParameters `json:"parameters"`
}

type videoInstance struct {
	Prompt string      `json:"prompt"`
	Image  *videoImage `json:"image,omitempty"`
}

type videoImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type videoParameters struct {
	AspectRatio string `json:"aspectRatio"`
	Resolution  string `json:"resolution"`
	SampleCount int    `json:"sampleCount"`
}

type videoOperationResponse struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Response *struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
}

// StartVideo implements Client.
func (g *GeminiClient) StartVideo(ctx context.Context, image, prompt string, ratio models.AspectRatio) (*VideoOperation, error) {
	mime, data, err := decodeDataURI(image)
	if err != nil {
		return nil, fmt.Errorf("video source image: %w", err)
	}

	reqBody := videoStartRequest{
		Instances: []videoInstance{{
			Prompt: videoSafetyPreamble + prompt,
			Image: &videoImage{
				BytesBase64Encoded: base64.StdEncoding.EncodeToString(data),
				MimeType:           mime,
			},
		}},
		Parameters: videoParameters{
			AspectRatio: ratio.VideoRatio(),
			Resolution:  "720p",
			SampleCount: 1,
		},
	}

	url := fmt.Sprintf("%s/models/%s:predictLongRunning", g.videoBaseURL, g.videoModel)
	var opResp videoOperationResponse
	if err := g.videoCall(ctx, http.MethodPost, url, &reqBody, &opResp); err != nil {
		return nil, err
	}
	op := operationFromResponse(&opResp)
	if op.Done && op.ErrMsg != "" {
		return nil, &VideoFailedError{Reason: op.ErrMsg}
	}
	return op, nil
}

// PollVideo implements Client.
func (g *GeminiClient) PollVideo(ctx context.Context, op *VideoOperation) (*VideoOperation, error) {
	url := fmt.Sprintf("%s/%s", g.videoBaseURL, op.Name)
	var opResp videoOperationResponse
	if err := g.videoCall(ctx, http.MethodGet, url, nil, &opResp); err != nil {
		return nil, err
	}
	next := operationFromResponse(&opResp)
	if next.Name == "" {
		next.Name = op.Name
	}
	return next, nil
}

// FetchVideo implements Client. Veo download links require the API key as
// a query parameter.
func (g *GeminiClient) FetchVideo(ctx context.Context, uri string) (string, error) {
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri+sep+"key="+g.apiKey(), nil)
	if err != nil {
		return "", fmt.Errorf("create video fetch request: %w", err)
	}
	resp, err := videoHTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("video file retrieval failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("video file retrieval failed: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read video payload: %w", err)
	}
	return encodeDataURI("video/mp4", data), nil
}

func (g *GeminiClient) videoCall(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode video request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create video request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey())

	resp, err := videoHTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("video request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read video response: %w", err)
	}

	// Entity-not-found means the active key cannot see the model or the
	// operation: a credential problem, not a render failure.
	if resp.StatusCode == http.StatusNotFound || strings.Contains(string(raw), "Requested entity was not found") {
		return &TransportAuthError{Err: fmt.Errorf("requested entity was not found (status %d)", resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("video request failed: status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode video response: %w", err)
	}
	return nil
}

func operationFromResponse(r *videoOperationResponse) *VideoOperation {
	op := &VideoOperation{Name: r.Name, Done: r.Done}
	if r.Error != nil {
		op.ErrMsg = r.Error.Message
	}
	if r.Response != nil {
		samples := r.Response.GenerateVideoResponse.GeneratedSamples
		if len(samples) > 0 {
			op.VideoURI = samples[0].Video.URI
		}
	}
	return op
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
