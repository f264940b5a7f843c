package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aeon-video/sceneforge/internal/batch"
)

func testDescriptor() Descriptor {
	return Descriptor{
		ID:                 "kling",
		UpstreamModel:      "kwaivgi/kling-v1.6-standard",
		MaxUnitDurationSec: 10,
	}
}

func testSubmitRequest() SubmitRequest {
	return SubmitRequest{
		UnitIndex: 0,
		Prompt:    "a red fox in snowfall",
		Params:    VideoParams{DurationSec: 5, Width: 576, Height: 1024, Quality: "high"},
	}
}

func TestReplicateSubmit_Success(t *testing.T) {
	var gotReq predictionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/predictions" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Token tok-123" {
			t.Errorf("unexpected auth header: %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": "pred-9", "status": "starting"})
	}))
	defer srv.Close()

	client := NewReplicateClient(testDescriptor(), "tok-123", WithBaseURL(srv.URL))

	id, err := client.Submit(context.Background(), testSubmitRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "pred-9" {
		t.Errorf("expected prediction id pred-9, got %q", id)
	}
	if gotReq.Version != "kwaivgi/kling-v1.6-standard" {
		t.Errorf("expected model version in payload, got %q", gotReq.Version)
	}
	if gotReq.Input["prompt"] != "a red fox in snowfall" {
		t.Errorf("prompt not forwarded: %v", gotReq.Input["prompt"])
	}
	if gotReq.Input["aspect_ratio"] != "576:1024" {
		t.Errorf("aspect ratio not derived: %v", gotReq.Input["aspect_ratio"])
	}
}

func TestReplicateSubmit_MissingToken(t *testing.T) {
	client := NewReplicateClient(testDescriptor(), "")

	_, err := client.Submit(context.Background(), testSubmitRequest())
	if batch.KindOf(err) != batch.KindProviderUnavailable {
		t.Fatalf("expected provider_unavailable, got %v", err)
	}
}

func TestReplicateSubmit_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewReplicateClient(testDescriptor(), "tok", WithBaseURL(srv.URL))

	_, err := client.Submit(context.Background(), testSubmitRequest())
	if batch.KindOf(err) != batch.KindProviderUnavailable {
		t.Fatalf("expected provider_unavailable, got %v", err)
	}
}

func TestReplicateSubmit_RejectsInvalidParams(t *testing.T) {
	client := NewReplicateClient(testDescriptor(), "tok")

	req := testSubmitRequest()
	req.Params.DurationSec = 30 // over kling's 10s cap

	_, err := client.Submit(context.Background(), req)
	if batch.KindOf(err) != batch.KindProviderUnavailable {
		t.Fatalf("expected boundary validation failure, got %v", err)
	}
}

func TestReplicatePoll_TerminalStates(t *testing.T) {
	cases := []struct {
		name       string
		body       map[string]any
		wantStatus Status
		wantURL    string
		wantErrMsg string
	}{
		{
			name:       "succeeded with list output",
			body:       map[string]any{"id": "p", "status": "succeeded", "output": []string{"https://cdn/clip.mp4"}},
			wantStatus: StatusSucceeded,
			wantURL:    "https://cdn/clip.mp4",
		},
		{
			name:       "succeeded with string output",
			body:       map[string]any{"id": "p", "status": "succeeded", "output": "https://cdn/one.mp4"},
			wantStatus: StatusSucceeded,
			wantURL:    "https://cdn/one.mp4",
		},
		{
			name:       "failed with message",
			body:       map[string]any{"id": "p", "status": "failed", "error": "nsfw"},
			wantStatus: StatusFailed,
			wantErrMsg: "nsfw",
		},
		{
			name:       "canceled maps to failed",
			body:       map[string]any{"id": "p", "status": "canceled"},
			wantStatus: StatusFailed,
			wantErrMsg: "generation canceled",
		},
		{
			name:       "processing maps to pending",
			body:       map[string]any{"id": "p", "status": "processing"},
			wantStatus: StatusPending,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/predictions/p" {
					t.Errorf("unexpected poll path %s", r.URL.Path)
				}
				json.NewEncoder(w).Encode(tc.body)
			}))
			defer srv.Close()

			client := NewReplicateClient(testDescriptor(), "tok", WithBaseURL(srv.URL))

			res, err := client.Poll(context.Background(), "p")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Status != tc.wantStatus {
				t.Errorf("expected status %s, got %s", tc.wantStatus, res.Status)
			}
			if res.ArtifactURL != tc.wantURL {
				t.Errorf("expected url %q, got %q", tc.wantURL, res.ArtifactURL)
			}
			if res.Error != tc.wantErrMsg {
				t.Errorf("expected error %q, got %q", tc.wantErrMsg, res.Error)
			}
		})
	}
}
