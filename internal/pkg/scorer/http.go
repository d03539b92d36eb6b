package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// HTTPScorer calls a remote inference service over HTTP.
type HTTPScorer struct {
	baseURL string
	token   string
	http    *http.Client
}

type httpScoreResponse struct {
	Detected   bool    `json:"detected"`
	Confidence float64 `json:"confidence"`
	Damage     string  `json:"damage"`
	CNNScore   float64 `json:"cnn_score"`
	MLScore    float64 `json:"ml_score"`
}

// NewHTTPScorer creates an inference service client.
func NewHTTPScorer(baseURL, token string, timeout time.Duration) *HTTPScorer {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &HTTPScorer{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Score submits the photo and attributes and returns the verdict.
func (s *HTTPScorer) Score(ctx context.Context, in Input) (*Result, error) {
	if strings.TrimSpace(s.baseURL) == "" {
		return nil, fmt.Errorf("scorer config error: base_url is empty")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", "photo.jpg")
	if err != nil {
		return nil, fmt.Errorf("scorer request error: %w", err)
	}
	if _, err := part.Write(in.Photo); err != nil {
		return nil, fmt.Errorf("scorer request error: %w", err)
	}

	fields := map[string]string{
		"brand":       in.Brand,
		"ram":         strconv.Itoa(in.RAM),
		"storage":     strconv.Itoa(in.Storage),
		"age":         strconv.Itoa(in.AgeYears),
		"body_broken": strconv.FormatBool(in.BodyBroken),
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("scorer request error: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("scorer request error: %w", err)
	}

	url := s.baseURL + "/score"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("scorer request error: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scorer network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr != nil {
			return nil, fmt.Errorf("scorer http error: status=%d body=<failed to read body: %v>", resp.StatusCode, readErr)
		}
		return nil, fmt.Errorf("scorer http error: status=%d body=%s", resp.StatusCode, string(raw))
	}

	var out httpScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("scorer response error: %w", err)
	}

	return &Result{
		Detected:   out.Detected,
		Confidence: out.Confidence,
		Damage:     out.Damage,
		CNNScore:   out.CNNScore,
		MLScore:    out.MLScore,
	}, nil
}
