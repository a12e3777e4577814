package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"
	"unicode/utf8"

	"google.golang.org/genai"
)

type GeminiService interface {
	GenerationService
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type geminiService struct {
	client     *genai.Client
	modelName  string
	embedModel string
	timeout    time.Duration
}

// NewGeminiService returns an unconfigured service when apiKey is empty; every
// call on it then fails with ErrGeneratorNotConfigured.
func NewGeminiService(apiKey, model, embedModel string, timeout time.Duration) (GeminiService, error) {
	svc := &geminiService{
		modelName:  model,
		embedModel: embedModel,
		timeout:    timeout,
	}
	if apiKey == "" {
		return svc, nil
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	svc.client = client

	return svc, nil
}

func (g *geminiService) Name() string {
	return "gemini"
}

func (g *geminiService) Configured() bool {
	return g.client != nil
}

// GenerateEmbedding implements GeminiService.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if g.client == nil {
		return nil, ErrGeneratorNotConfigured
	}

	// Truncate text if too long (max ~10000 tokens for embedding)
	text = truncateUTF8(text, maxEmbeddingBytes)

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, errors.New("empty embedding result")
	}

	for i, val := range result.Embeddings[0].Values {
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return nil, fmt.Errorf("invalid embedding value at index %d", i)
		}
	}

	return result.Embeddings[0].Values, nil
}

// GenerateText implements GenerationService.
func (g *geminiService) GenerateText(ctx context.Context, prompt string) (*Generation, error) {
	if err := checkPrompt(prompt, g.Configured()); err != nil {
		return nil, err
	}

	ctx, cancel := withGenerationTimeout(ctx, g.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(generationTemperature),
		MaxOutputTokens:   generationMaxTokens,
		SystemInstruction: genai.NewContentFromText(counselorInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		log.Printf("❌ Gemini API error: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		log.Println("❌ Gemini API returned no candidates")
		return nil, fmt.Errorf("%w: no candidates in response", ErrGenerationFailed)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: no text content in response", ErrGenerationFailed)
	}

	generation := &Generation{Text: text, Model: g.modelName}
	if resp.UsageMetadata != nil {
		generation.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}

	log.Printf("📊 Gemini response received (%d chars)", len(text))
	return generation, nil
}

const maxEmbeddingBytes = 40000

// truncateUTF8 cuts s to at most limit bytes without splitting a rune.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
