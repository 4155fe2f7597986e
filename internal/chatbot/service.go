package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNoAPIKey means the generative API fallback is not configured.
	ErrNoAPIKey = errors.New("generative api key not configured")
	// ErrUpstream covers transport failures and malformed upstream replies.
	ErrUpstream = errors.New("generative api failure")
)

// faqResponses is the static keyword table consulted before any API call.
var faqResponses = map[string]string{
	"what services do you offer?":   "We offer Telecom Infrastructure, Geospatial & GIS Solutions, Skill Development, and Consultancy & Business Incubation.",
	"what are your business hours?": "Our business hours are Monday - Sunday, from 9:00 AM to 8:00 PM.",
	"how do i contact support?":     "You can contact our support team via email at info@digitalindian.co.in or by calling +91 7908735132.",
	"how can i book a meeting?":     "You can book a meeting by using the 'View Calendar' option on our contact page to schedule a time that works for you.",
}

type Config struct {
	APIKey string
	Model  string
	// BaseURL of the generative language API; overridable for tests.
	BaseURL string
	Timeout time.Duration
}

func ConfigFromEnv() Config {
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.5-flash-preview-05-20"
	}
	return Config{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		Model:   model,
		BaseURL: "https://generativelanguage.googleapis.com",
		Timeout: 15 * time.Second,
	}
}

// Service answers chat messages. Stateless per request: a keyword table
// first, then the generative API.
type Service struct {
	cfg    Config
	client *http.Client
	logger *zap.SugaredLogger
}

func NewService(cfg Config, logger *zap.SugaredLogger) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Service{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Reply resolves one message. Date questions and FAQ entries are answered
// locally; everything else goes to the generative API.
func (s *Service) Reply(ctx context.Context, message string) (string, error) {
	msg := strings.ToLower(strings.TrimSpace(message))

	if strings.Contains(msg, "date") || strings.Contains(msg, "today") {
		return "Hello! Today is " + time.Now().Format("Monday, January 2, 2006") + ".", nil
	}

	if reply, ok := faqResponses[msg]; ok {
		return reply, nil
	}

	return s.generate(ctx, msg)
}

// generate calls the generative language API with the company persona
// prompt wrapped around the user's message.
func (s *Service) generate(ctx context.Context, message string) (string, error) {
	if s.cfg.APIKey == "" {
		return "", ErrNoAPIKey
	}

	prompt := fmt.Sprintf("You are an AI assistant for the company 'Digital Indian'. "+
		"Your goal is to be friendly and helpful. If a user asks a question, provide a "+
		"concise and professional response. The user asked: %q.", message)

	payload := map[string]any{
		"contents": []map[string]any{
			{
				"role":  "user",
				"parts": []map[string]string{{"text": prompt}},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", s.cfg.BaseURL, s.cfg.Model, s.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		s.logger.Warnw("invalid generative api response", "status", resp.StatusCode)
		return "", fmt.Errorf("%w: empty response", ErrUpstream)
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
