package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"drawbom/internal"
	"drawbom/internal/config"
)

// Client calls the Gemini generateContent endpoint with a prompt, a response
// schema and the inline page payloads of one document.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
	log        *zap.Logger
}

func NewClient(cfg config.Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.GeminiTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.GeminiRateLimitRPS),
		log:        log,
	}
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// GenerateJSON sends one consolidated request for a whole document and
// returns the raw JSON body of the model's answer.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, schema map[string]any, units []internal.PageUnit) ([]byte, error) {
	if strings.TrimSpace(c.cfg.GeminiAPIKey) == "" {
		return nil, errors.New("missing GEMINI_API_KEY")
	}

	rid := uuid.New().String()
	start := time.Now()
	c.log.Info("inference.generate.start",
		zap.String("req_id", rid),
		zap.String("model", c.cfg.GeminiModel),
		zap.Int("page_units", len(units)),
	)

	parts := make([]map[string]any, 0, len(units)+1)
	parts = append(parts, map[string]any{"text": prompt})
	for _, unit := range units {
		parts = append(parts, map[string]any{
			"inline_data": map[string]any{
				"mime_type": unit.MIMEType,
				"data":      base64.StdEncoding.EncodeToString(unit.Data),
			},
		})
	}

	body := map[string]any{
		"contents": []map[string]any{
			{"role": "user", "parts": parts},
		},
		"generationConfig": map[string]any{
			"temperature":        0,
			"response_mime_type": "application/json",
			"response_schema":    schema,
		},
	}

	url := strings.TrimRight(c.cfg.GeminiAPIBaseURL, "/") + "/models/" + c.cfg.GeminiModel + ":generateContent"
	raw, err := c.post(ctx, url, body)
	if err != nil {
		c.log.Error("inference.generate.error",
			zap.String("req_id", rid),
			zap.Error(err),
			zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
		)
		return nil, err
	}

	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("no candidates in gemini response")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	answer := strings.TrimSpace(text.String())
	if answer == "" {
		return nil, errors.New("empty answer in gemini response")
	}

	c.log.Info("inference.generate.ok",
		zap.String("req_id", rid),
		zap.Int("answer_bytes", len(answer)),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
	)
	return []byte(answer), nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		if err := c.limiter.WaitTurn(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.cfg.GeminiAPIKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		raw, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < 5 {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
				lastErr = fmt.Errorf("gemini status %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("gemini api error: status=%d body=%s", resp.StatusCode, string(raw))
		}
		return raw, nil
	}

	if lastErr == nil {
		lastErr = errors.New("gemini request failed")
	}
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
