package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GoogleClient calls the Gemini generateContent REST API.
type GoogleClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
}

// GoogleConfig holds Gemini client configuration.
type GoogleConfig struct {
	APIKey  string
	Model   string // e.g. "gemini-2.0-flash"
	BaseURL string // default https://generativelanguage.googleapis.com
	Timeout time.Duration
}

// NewGoogleClient creates a Gemini gateway client.
func NewGoogleClient(cfg GoogleConfig) (*GoogleClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gateway API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	return &GoogleClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		timeout:    timeout,
	}, nil
}

type googlePart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *googleInlineData `json:"inline_data,omitempty"`
}

type googleInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type googleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type googleGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type googleRequest struct {
	SystemInstruction *googleContent         `json:"system_instruction,omitempty"`
	Contents          []googleContent        `json:"contents"`
	GenerationConfig  googleGenerationConfig `json:"generationConfig"`
}

type googleResponse struct {
	Candidates []struct {
		Content      googleContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate calls generateContent and maps failures to the package's typed
// errors.
func (c *GoogleClient) Generate(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return "", fmt.Errorf("marshal gateway request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", c.statusError(resp.StatusCode, respBody)
	}

	var gr googleResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return "", fmt.Errorf("decode gateway response: %w", err)
	}

	if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked: %s", ErrSafetyBlocked, gr.PromptFeedback.BlockReason)
	}
	if len(gr.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	cand := gr.Candidates[0]
	if strings.EqualFold(cand.FinishReason, "SAFETY") {
		return "", ErrSafetyBlocked
	}

	var text strings.Builder
	for _, part := range cand.Content.Parts {
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return text.String(), nil
}

func (c *GoogleClient) buildRequest(req Request) googleRequest {
	out := googleRequest{
		GenerationConfig: googleGenerationConfig{
			Temperature:     req.Config.Temperature,
			TopP:            req.Config.TopP,
			TopK:            req.Config.TopK,
			MaxOutputTokens: req.Config.MaxOutputTokens,
		},
	}

	if req.Instructions != "" {
		out.SystemInstruction = &googleContent{Parts: []googlePart{{Text: req.Instructions}}}
	}

	for _, turn := range req.Turns {
		out.Contents = append(out.Contents, googleContent{
			Role:  string(turn.Role),
			Parts: []googlePart{{Text: turn.Text}},
		})
	}

	// Current query goes last, with the image attached to the same turn.
	current := googleContent{Role: string(RoleUser)}
	if req.Query != "" {
		current.Parts = append(current.Parts, googlePart{Text: req.Query})
	}
	if req.Image != nil {
		current.Parts = append(current.Parts, googlePart{
			InlineData: &googleInlineData{
				MIMEType: req.Image.MIMEType,
				Data:     base64.StdEncoding.EncodeToString(req.Image.Data),
			},
		})
	}
	if len(current.Parts) > 0 {
		out.Contents = append(out.Contents, current)
	}

	return out
}

func (c *GoogleClient) statusError(status int, body []byte) error {
	var gr googleResponse
	detail := ""
	if err := json.Unmarshal(body, &gr); err == nil && gr.Error != nil {
		detail = gr.Error.Message
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", ErrAuth, status, detail)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrQuota, detail)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrNetwork, status, detail)
	}
}

var _ Model = (*GoogleClient)(nil)
