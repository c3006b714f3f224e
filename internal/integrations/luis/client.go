// Package luis is a focused client for the LUIS v2 prediction endpoint. It
// turns one message into a top-scoring intent plus extracted entities.
package luis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"groovyfox-agent/internal/domain"
)

// predictionResponse is the minimal response shape of the prediction endpoint.
type predictionResponse struct {
	Query            string `json:"query"`
	TopScoringIntent struct {
		Intent string  `json:"intent"`
		Score  float64 `json:"score"`
	} `json:"topScoringIntent"`
	Entities []predictionEntity `json:"entities"`
}

type predictionEntity struct {
	Entity     string `json:"entity"`
	Type       string `json:"type"`
	Resolution struct {
		Value  string   `json:"value"`
		Values []string `json:"values"`
	} `json:"resolution"`
}

type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("luis: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client calls the LUIS prediction endpoint for one app.
type Client struct {
	baseURL     string
	appID       string
	httpClient  *http.Client
	getter      Getter
	paramPrefix string

	keyOnce sync.Once
	key     string
	keyErr  error
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client backed by the given paramstore Getter for
// subscription-key retrieval. The key is fetched on the first Recognize call
// and reused for the lifetime of the process.
func NewClient(ps Getter, paramPrefix, appID string, opts ...Option) (*Client, error) {
	if ps == nil {
		return nil, errors.New("luis: paramstore getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("luis: parameter prefix must not be empty")
	}
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return nil, errors.New("luis: app id must not be empty")
	}
	c := &Client{
		baseURL:     "https://westeurope.api.cognitive.microsoft.com",
		appID:       appID,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		getter:      ps,
		paramPrefix: paramPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) keyParameterName() string {
	return c.paramPrefix + "/luis-subscription-key"
}

func (c *Client) resolveKey(ctx context.Context) (string, error) {
	c.keyOnce.Do(func() {
		c.key, c.keyErr = fetchKeyFromParamStore(ctx, c.getter, c.keyParameterName())
	})
	return c.key, c.keyErr
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (c *Client) predictionURL(key, query string) string {
	base := strings.TrimRight(c.baseURL, "/")
	params := url.Values{}
	params.Set("subscription-key", key)
	params.Set("verbose", "true")
	params.Set("q", query)
	return fmt.Sprintf("%s/luis/v2.0/apps/%s?%s", base, c.appID, params.Encode())
}

// Recognize classifies one message. An empty top-scoring intent maps to None.
func (c *Client) Recognize(ctx context.Context, text string) (domain.Recognition, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Recognition{}, errors.New("luis: text must not be empty")
	}

	key, err := c.resolveKey(ctx)
	if err != nil {
		return domain.Recognition{}, err
	}

	reqURL := c.predictionURL(key, text)
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if reqErr != nil {
		return domain.Recognition{}, fmt.Errorf("luis: create request: %w", reqErr)
	}

	raw, err := c.doJSONRequest(req, reqURL)
	if err != nil {
		return domain.Recognition{}, fmt.Errorf("luis: request failed: %w", err)
	}

	var payload predictionResponse
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return domain.Recognition{}, fmt.Errorf("luis: decode response: %w", decErr)
	}
	return toRecognition(payload), nil
}

func toRecognition(payload predictionResponse) domain.Recognition {
	intent := domain.Intent(payload.TopScoringIntent.Intent)
	if intent == "" {
		intent = domain.IntentNone
	}
	entities := make(map[string][]string, len(payload.Entities))
	for _, ent := range payload.Entities {
		kind := entityKind(ent.Type)
		entities[kind] = append(entities[kind], entityValues(ent)...)
	}
	return domain.Recognition{TopIntent: intent, Entities: entities}
}

// entityKind normalizes LUIS builtin type names to the entity kinds the
// router dispatches on: builtin.number becomes number, builtin.geographyV2.*
// becomes geographyV2_*. List entity types pass through unchanged.
func entityKind(entityType string) string {
	switch {
	case entityType == "builtin.number":
		return domain.EntityNumber
	case strings.HasPrefix(entityType, "builtin.geographyV2."):
		return "geographyV2_" + strings.TrimPrefix(entityType, "builtin.geographyV2.")
	default:
		return entityType
	}
}

// entityValues prefers the resolved values over the raw matched text.
func entityValues(ent predictionEntity) []string {
	if len(ent.Resolution.Values) > 0 {
		return ent.Resolution.Values
	}
	if ent.Resolution.Value != "" {
		return []string{ent.Resolution.Value}
	}
	return []string{ent.Entity}
}

func (c *Client) doJSONRequest(req *http.Request, reqURL string) ([]byte, error) {
	res, doErr := c.resolvedHTTPClient().Do(req)
	if doErr != nil {
		return nil, doErr
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        reqURL,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}

func fetchKeyFromParamStore(ctx context.Context, getter Getter, name string) (string, error) {
	if getter == nil {
		return "", errors.New("luis: paramstore getter is nil")
	}
	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("luis: fetch subscription key from paramstore: %w", err)
	}
	key := strings.TrimSpace(raw)
	if key == "" {
		return "", errors.New("luis: subscription key is empty")
	}
	return key, nil
}
