package capability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopshot/shopshot/pkg/models"
)

func testVideoClient(baseURL string) *GeminiClient {
	g := NewGeminiClient(func() string { return "test-key" })
	g.videoBaseURL = baseURL
	return g
}

func TestStartVideo_SubmitsLongRunningOperation(t *testing.T) {
	var gotPath, gotKey string
	var gotBody videoStartRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(videoOperationResponse{Name: "operations/abc", Done: false})
	}))
	defer srv.Close()

	g := testVideoClient(srv.URL)
	op, err := g.StartVideo(context.Background(), "data:image/png;base64,QUJD", "slow turntable", models.RatioMobile)
	if err != nil {
		t.Fatalf("StartVideo: %v", err)
	}

	if op.Name != "operations/abc" || op.Done {
		t.Errorf("op = %+v", op)
	}
	if !strings.HasSuffix(gotPath, ":predictLongRunning") {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q", gotKey)
	}
	if len(gotBody.Instances) != 1 {
		t.Fatalf("instances = %+v", gotBody.Instances)
	}
	if !strings.Contains(gotBody.Instances[0].Prompt, "slow turntable") {
		t.Errorf("prompt = %q", gotBody.Instances[0].Prompt)
	}
	if !strings.HasPrefix(gotBody.Instances[0].Prompt, "CATALOG QUALITY STANDARDS") {
		t.Errorf("prompt missing safety preamble: %q", gotBody.Instances[0].Prompt)
	}
	if gotBody.Parameters.AspectRatio != "9:16" {
		t.Errorf("aspect ratio = %q, want 9:16", gotBody.Parameters.AspectRatio)
	}
	if gotBody.Instances[0].Image.BytesBase64Encoded != "QUJD" {
		t.Errorf("image payload = %q", gotBody.Instances[0].Image.BytesBase64Encoded)
	}
}

func TestStartVideo_ImmediateErrorIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := videoOperationResponse{Name: "operations/abc", Done: true}
		resp.Error = &struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}{Code: 3, Message: "prompt rejected"}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	g := testVideoClient(srv.URL)
	_, err := g.StartVideo(context.Background(), "data:image/png;base64,QUJD", "x", models.RatioMobile)

	var failed *VideoFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("err = %v, want *VideoFailedError", err)
	}
	if failed.Reason != "prompt rejected" {
		t.Errorf("reason = %q", failed.Reason)
	}
}

func TestVideoCall_EntityNotFoundIsTransportAuth(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"status 404", http.StatusNotFound, `{}`},
		{"error body", http.StatusBadRequest, `{"error":{"message":"Requested entity was not found."}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			g := testVideoClient(srv.URL)
			_, err := g.PollVideo(context.Background(), &VideoOperation{Name: "operations/abc"})

			var authErr *TransportAuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("err = %v, want *TransportAuthError", err)
			}
		})
	}
}

func TestPollVideo_ExtractsDownloadURI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"name": "operations/abc",
			"done": true,
			"response": {
				"generateVideoResponse": {
					"generatedSamples": [{"video": {"uri": "https://dl.example.test/v.mp4?alt=media"}}]
				}
			}
		}`))
	}))
	defer srv.Close()

	g := testVideoClient(srv.URL)
	op, err := g.PollVideo(context.Background(), &VideoOperation{Name: "operations/abc"})
	if err != nil {
		t.Fatalf("PollVideo: %v", err)
	}
	if !op.Done || op.VideoURI != "https://dl.example.test/v.mp4?alt=media" {
		t.Errorf("op = %+v", op)
	}
}

func TestFetchVideo_AppendsKeyAndWrapsPayload(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte("MP4"))
	}))
	defer srv.Close()

	g := testVideoClient(srv.URL)
	uri, err := g.FetchVideo(context.Background(), srv.URL+"/file?alt=media")
	if err != nil {
		t.Fatalf("FetchVideo: %v", err)
	}

	if !strings.Contains(gotQuery, "key=test-key") {
		t.Errorf("query = %q, want key appended", gotQuery)
	}
	if uri != "data:video/mp4;base64,TVA0" {
		t.Errorf("data URI = %q", uri)
	}
}
