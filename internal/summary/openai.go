package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/FranksOps/prospect/internal/metrics"
	"github.com/FranksOps/prospect/pkg/httpclient"
)

const (
	// DefaultBaseURL points at the OpenAI API.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is the chat model used for company profiles.
	DefaultModel = "gpt-4o-mini-2024-07-18"

	defaultMaxTokens   = 750
	defaultTemperature = 0.7

	// maxContentChars bounds how much site text is sent per request.
	maxContentChars = 12000
)

// profileSections are the headings the model is asked to fill in.
var profileSections = []string{
	"Company Size",
	"Years in Business",
	"Types of Products",
	"Client Portfolio",
	"Industry Certifications",
	"Product Catalogues",
	"Manufacturing Capabilities",
	"Quality Standards",
	"Export Information",
	"Contact Details",
}

// Config holds the OpenAI client settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	Logger      *slog.Logger
}

// OpenAI summarizes company sites through the chat completions API.
type OpenAI struct {
	cfg    Config
	client *httpclient.Client
	logger *slog.Logger
}

// ensure OpenAI implements Summarizer
var _ Summarizer = (*OpenAI)(nil)

// NewOpenAI creates the API-backed summarizer. ErrNoAPIKey is returned when
// cfg carries no key.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: 3,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}

	return &OpenAI{cfg: cfg, client: client, logger: cfg.Logger}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Summarize asks the model for a structured company profile.
func (c *OpenAI) Summarize(ctx context.Context, req Request) (string, error) {
	s, err := c.summarize(ctx, req)
	if err != nil {
		metrics.RecordSummary("openai", "error")
		return "", err
	}
	metrics.RecordSummary("openai", "ok")
	return s, nil
}

func (c *OpenAI) summarize(ctx context.Context, req Request) (string, error) {
	content := req.Content
	if len(content) > maxContentChars {
		content = content[:maxContentChars]
	}

	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a lead generation analyst. Answer with the requested sections only."},
			{Role: "user", Content: buildPrompt(req.Name, req.Website, content)},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(ctx, httpReq)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close response body", "err", cerr)
		}
	}()

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if decoded.Error != nil {
			return "", fmt.Errorf("openai http %d: %s", resp.StatusCode, decoded.Error.Message)
		}
		return "", fmt.Errorf("openai http %d", resp.StatusCode)
	}

	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}

func buildPrompt(name, website, content string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the website content of the company %q", name)
	if website != "" {
		fmt.Fprintf(&b, " (%s)", website)
	}
	b.WriteString(" and write a concise profile with exactly these sections:\n")
	for _, s := range profileSections {
		b.WriteString("- ")
		b.WriteString(s)
		b.WriteString("\n")
	}
	b.WriteString("Use \"Not specified\" for any section the content does not cover.\n\nWebsite content:\n")
	b.WriteString(content)
	return b.String()
}
