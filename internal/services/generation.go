package services

import (
	"context"
	"errors"
	"strings"
	"time"
)

const (
	generationTemperature float32 = 0.7
	generationMaxTokens   int32   = 2000

	counselorInstruction = "You are an expert college admissions counselor specializing in Ivy League universities. You must respond ONLY with valid JSON, no markdown formatting, no extra text."
)

var (
	ErrEmptyPrompt            = errors.New("prompt is required")
	ErrGeneratorNotConfigured = errors.New("generation service API key not configured")
	ErrGenerationFailed       = errors.New("generation request failed")
)

// Generation is the raw reply of one model call.
type Generation struct {
	Text       string
	Model      string
	TokensUsed int
}

type GenerationService interface {
	GenerateText(ctx context.Context, prompt string) (*Generation, error)
	Name() string
	Configured() bool
}

// checkPrompt runs the checks that must fail before any network call.
func checkPrompt(prompt string, configured bool) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	if !configured {
		return ErrGeneratorNotConfigured
	}
	return nil
}

func withGenerationTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}
