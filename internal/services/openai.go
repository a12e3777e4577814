package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

type openAIService struct {
	client *resty.Client
	apiKey string
	model  string
}

// NewOpenAIService talks to any OpenAI-compatible chat-completions endpoint.
func NewOpenAIService(apiKey, baseURL, model string, timeout time.Duration) GenerationService {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}

	return &openAIService{client: client, apiKey: apiKey, model: model}
}

func (s *openAIService) Name() string {
	return "openai"
}

func (s *openAIService) Configured() bool {
	return s.apiKey != ""
}

func (s *openAIService) GenerateText(ctx context.Context, prompt string) (*Generation, error) {
	if err := checkPrompt(prompt, s.Configured()); err != nil {
		return nil, err
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"model": s.model,
			"messages": []map[string]string{
				{"role": "system", "content": counselorInstruction},
				{"role": "user", "content": prompt},
			},
			"temperature": generationTemperature,
			"max_tokens":  generationMaxTokens,
		}).
		Post("/chat/completions")
	if err != nil {
		log.Printf("❌ OpenAI request error: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	body := resp.Body()
	if resp.IsError() {
		msg := gjson.GetBytes(body, "error.message").String()
		if msg == "" {
			msg = resp.Status()
		}
		log.Printf("❌ OpenAI API error (%d): %s", resp.StatusCode(), msg)
		return nil, fmt.Errorf("%w: %s", ErrGenerationFailed, msg)
	}

	text := gjson.GetBytes(body, "choices.0.message.content").String()
	if text == "" {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, errors.New("no response from model"))
	}

	model := gjson.GetBytes(body, "model").String()
	if model == "" {
		model = s.model
	}

	log.Printf("📊 OpenAI response received (%d chars)", len(text))
	return &Generation{
		Text:       text,
		Model:      model,
		TokensUsed: int(gjson.GetBytes(body, "usage.total_tokens").Int()),
	}, nil
}
