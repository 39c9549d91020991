// Package glowscan is the client for the GlowScan service, which runs OCR on
// ingredient label photos and analyzes ingredient lists.
package glowscan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is where the service listens when run locally.
	DefaultBaseURL = "http://localhost:8000"

	extractPath = "/extract"
	analyzePath = "/analyze"

	requestIDHeader = "X-Request-Id"
)

// Config configures a Client.
type Config struct {
	// BaseURL of the service, without a trailing slash.
	BaseURL string
	// Timeout bounds a single call. Zero means no timeout; callers can still
	// cancel through the context.
	Timeout time.Duration
	// UserAgent is sent with every request when set.
	UserAgent string
}

// Image is an uploaded label photo.
type Image struct {
	Name        string
	Data        []byte
	ContentType string
}

// Extraction is the outcome of a successful extract call.
type Extraction struct {
	Ingredients string `json:"ingredients"`
	Warning     string `json:"warning,omitempty"`
}

// SoftWarning returns the warning as an error, or nil when the extraction
// carried none.
func (e *Extraction) SoftWarning() error {
	if e.Warning == "" {
		return nil
	}
	return &SoftWarning{Message: e.Warning}
}

// Analysis is the outcome of a successful analyze call. Result is an HTML
// fragment.
type Analysis struct {
	Result string `json:"result"`
}

type analyzeRequest struct {
	Ingredients string      `json:"ingredients"`
	ProductType ProductType `json:"product_type"`
}

// Client talks to the GlowScan service. Calls are not retried and responses
// are not cached.
type Client struct {
	http    *resty.Client
	baseURL string
}

// NewClient creates a client for the service at cfg.BaseURL.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	rc := resty.New().
		SetDebug(false).
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		rc.SetHeader("User-Agent", cfg.UserAgent)
	}

	return &Client{http: rc, baseURL: baseURL}
}

// BaseURL returns the service address the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ExtractIngredients uploads a label photo for OCR.
//
// A successful response may carry a Warning instead of (or next to) the
// ingredients; that is not an error.
func (c *Client) ExtractIngredients(ctx context.Context, img Image, productType ProductType) (*Extraction, error) {
	contentType := img.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(img.Data)
	}

	req := c.newRequest(ctx).
		SetMultipartField("image", img.Name, contentType, bytes.NewReader(img.Data)).
		SetMultipartFormData(map[string]string{"product_type": string(productType)})

	res, err := c.do(req, extractPath)
	if err != nil {
		return nil, err
	}
	if !res.IsSuccess() {
		return nil, newServiceError(res, func(b errorBody) string { return b.Error })
	}

	var out Extraction
	if err := json.Unmarshal(res.Body(), &out); err != nil {
		return nil, fmt.Errorf("glowscan: decoding extract response: %w", err)
	}
	return &out, nil
}

// AnalyzeIngredients submits an ingredient list for analysis.
func (c *Client) AnalyzeIngredients(ctx context.Context, ingredients string, productType ProductType) (*Analysis, error) {
	req := c.newRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(analyzeRequest{Ingredients: ingredients, ProductType: productType})

	res, err := c.do(req, analyzePath)
	if err != nil {
		return nil, err
	}
	if !res.IsSuccess() {
		// The analyze endpoint reports failures in the result field.
		return nil, newServiceError(res, func(b errorBody) string { return b.Result })
	}

	var out Analysis
	if err := json.Unmarshal(res.Body(), &out); err != nil {
		return nil, fmt.Errorf("glowscan: decoding analyze response: %w", err)
	}
	return &out, nil
}

func (c *Client) newRequest(ctx context.Context) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetHeader(requestIDHeader, uuid.New().String())
}

func (c *Client) do(req *resty.Request, path string) (*resty.Response, error) {
	requestID := req.Header.Get(requestIDHeader)
	start := time.Now()

	res, err := req.Post(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Str("requestId", requestID).Msg("glowscan request failed")
		return nil, &NetworkError{Op: "POST " + path, Err: err}
	}

	log.Info().
		Str("path", path).
		Str("requestId", requestID).
		Int("status", res.StatusCode()).
		Dur("duration", time.Since(start)).
		Msg("glowscan request done")
	return res, nil
}

type errorBody struct {
	Error  string `json:"error"`
	Result string `json:"result"`
}

func newServiceError(res *resty.Response, pick func(errorBody) string) *ServiceError {
	msg := ""
	var body errorBody
	if err := json.Unmarshal(res.Body(), &body); err == nil {
		msg = pick(body)
	}
	if msg == "" {
		msg = statusFallback(res.StatusCode())
	}
	return &ServiceError{Status: res.StatusCode(), Message: msg}
}
