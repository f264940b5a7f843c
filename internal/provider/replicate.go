package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aeon-video/sceneforge/internal/batch"
	"github.com/aeon-video/sceneforge/internal/metrics"
)

// DefaultReplicateBaseURL is the production prediction API endpoint.
const DefaultReplicateBaseURL = "https://api.replicate.com"

// ReplicateClient talks to a Replicate-style prediction API: POST a
// prediction, then GET its status until it reaches a terminal state.
type ReplicateClient struct {
	desc    Descriptor
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

// ReplicateOption customizes a ReplicateClient.
type ReplicateOption func(*ReplicateClient)

// WithBaseURL points the client at a non-default endpoint (tests,
// proxies).
func WithBaseURL(url string) ReplicateOption {
	return func(c *ReplicateClient) { c.baseURL = url }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) ReplicateOption {
	return func(c *ReplicateClient) { c.http = h }
}

// WithLogger attaches a structured logger.
func WithLogger(log zerolog.Logger) ReplicateOption {
	return func(c *ReplicateClient) { c.log = log }
}

// NewReplicateClient creates a client for one provider descriptor.
// The token authenticates every request; an empty token is allowed
// here and fails at submit time as provider_unavailable.
func NewReplicateClient(desc Descriptor, token string, opts ...ReplicateOption) *ReplicateClient {
	c := &ReplicateClient{
		desc:    desc,
		baseURL: DefaultReplicateBaseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Descriptor returns the static metadata for this backend.
func (c *ReplicateClient) Descriptor() Descriptor {
	return c.desc
}

// predictionRequest is the submit wire format.
type predictionRequest struct {
	Version string         `json:"version"`
	Input   map[string]any `json:"input"`
}

// predictionResponse is the shared response shape for submit and poll.
type predictionResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Output any    `json:"output"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
	Error string `json:"error"`
}

// Submit starts a prediction and returns its external job id.
func (c *ReplicateClient) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if c.token == "" {
		metrics.Submits.WithLabelValues(c.desc.ID, "error").Inc()
		return "", &batch.Error{
			Kind:     batch.KindProviderUnavailable,
			Provider: c.desc.ID,
			Msg:      "api token not configured",
		}
	}

	if err := req.Params.Validate(c.desc); err != nil {
		metrics.Submits.WithLabelValues(c.desc.ID, "error").Inc()
		return "", &batch.Error{
			Kind:     batch.KindProviderUnavailable,
			Provider: c.desc.ID,
			Msg:      "invalid parameters",
			Err:      err,
		}
	}

	input := map[string]any{
		"prompt":       req.Prompt,
		"duration":     req.Params.DurationSec,
		"width":        req.Params.Width,
		"height":       req.Params.Height,
		"aspect_ratio": req.Params.AspectRatio(),
		"quality":      req.Params.Quality,
	}
	for k, v := range req.Params.Extra {
		input[k] = v
	}

	body, err := json.Marshal(predictionRequest{
		Version: c.desc.UpstreamModel,
		Input:   input,
	})
	if err != nil {
		return "", fmt.Errorf("marshal prediction request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/predictions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create submit request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Token "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")

	c.log.Debug().
		Str("provider", c.desc.ID).
		Str("model", c.desc.UpstreamModel).
		Int("unit", req.UnitIndex).
		Msg("submitting generation")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.Submits.WithLabelValues(c.desc.ID, "error").Inc()
		return "", &batch.Error{
			Kind:     batch.KindProviderUnavailable,
			Provider: c.desc.ID,
			Msg:      "submit transport failure",
			Err:      err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		metrics.Submits.WithLabelValues(c.desc.ID, "error").Inc()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warn().
			Str("provider", c.desc.ID).
			Int("status", resp.StatusCode).
			Msg("submit rejected")
		return "", &batch.Error{
			Kind:     batch.KindProviderUnavailable,
			Provider: c.desc.ID,
			Msg:      fmt.Sprintf("submit returned %d: %s", resp.StatusCode, snippet),
		}
	}

	var pr predictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		metrics.Submits.WithLabelValues(c.desc.ID, "error").Inc()
		return "", &batch.Error{
			Kind:     batch.KindProviderUnavailable,
			Provider: c.desc.ID,
			Msg:      "decode submit response",
			Err:      err,
		}
	}
	if pr.ID == "" {
		metrics.Submits.WithLabelValues(c.desc.ID, "error").Inc()
		return "", &batch.Error{
			Kind:     batch.KindProviderUnavailable,
			Provider: c.desc.ID,
			Msg:      "submit response missing prediction id",
		}
	}

	metrics.Submits.WithLabelValues(c.desc.ID, "ok").Inc()
	return pr.ID, nil
}

// Poll reports the current state of a prediction.
func (c *ReplicateClient) Poll(ctx context.Context, externalJobID string) (PollResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/predictions/"+externalJobID, nil)
	if err != nil {
		return PollResult{}, fmt.Errorf("create poll request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Token "+c.token)

	metrics.Polls.WithLabelValues(c.desc.ID).Inc()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return PollResult{}, fmt.Errorf("poll transport failure: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return PollResult{}, fmt.Errorf("poll returned %d", resp.StatusCode)
	}

	var pr predictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return PollResult{}, fmt.Errorf("decode poll response: %w", err)
	}

	return c.toPollResult(pr), nil
}

// toPollResult maps upstream prediction states onto the submit/poll
// contract. "starting" and "processing" are non-terminal; everything
// unknown is treated as still pending so the attempt budget, not a
// decoding surprise, decides when to stop.
func (c *ReplicateClient) toPollResult(pr predictionResponse) PollResult {
	switch pr.Status {
	case "succeeded":
		return PollResult{Status: StatusSucceeded, ArtifactURL: firstOutputURL(pr.Output)}
	case "failed", "canceled":
		msg := pr.Error
		if msg == "" {
			msg = "generation " + pr.Status
		}
		return PollResult{Status: StatusFailed, Error: msg}
	default:
		return PollResult{Status: StatusPending}
	}
}

// firstOutputURL extracts the artifact URL from a prediction output,
// which upstream returns either as a bare string or a list of URLs.
func firstOutputURL(output any) string {
	switch v := output.(type) {
	case string:
		return v
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}
