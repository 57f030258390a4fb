package pose

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single detection call.
const DefaultTimeout = 30 * time.Second

// HTTPSource calls a MediaPipe sidecar that exposes
// POST {BaseURL}/v1/pose {"image_url": "..."}.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSource creates a source with connection and request timeouts set.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

type detectRequest struct {
	ImageURL string `json:"image_url"`
}

type detectResponse struct {
	ImageWidth  int        `json:"image_width"`
	ImageHeight int        `json:"image_height"`
	Landmarks   []Landmark `json:"landmarks"`
	Error       string     `json:"error,omitempty"`
}

// Detect processes the requested views one after another. A failed view
// fails the whole call, so optional views belong in a separate call.
func (s *HTTPSource) Detect(ctx context.Context, reqs []Request) (map[View]*Result, error) {
	out := make(map[View]*Result, len(reqs))
	for _, req := range reqs {
		res, err := s.detectOne(ctx, req)
		if err != nil {
			return nil, err
		}
		out[req.View] = res
	}
	return out, nil
}

func (s *HTTPSource) detectOne(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(detectRequest{ImageURL: req.ImageURL})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/v1/pose", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVisionUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrVisionUnavailable, req.View, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %s: status %d: %s", ErrVisionUnavailable, req.View, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var dr detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("%w: %s: decode: %v", ErrVisionUnavailable, req.View, err)
	}
	if dr.Error != "" {
		return nil, fmt.Errorf("%w: %s: %s", ErrVisionUnavailable, req.View, dr.Error)
	}
	if len(dr.Landmarks) == 0 {
		return nil, fmt.Errorf("%w: %s: no person detected", ErrVisionUnavailable, req.View)
	}

	return &Result{
		View:        req.View,
		ImageWidth:  dr.ImageWidth,
		ImageHeight: dr.ImageHeight,
		Landmarks:   dr.Landmarks,
	}, nil
}
