package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"ivyx/readiness-api/internal/metrics"
	"ivyx/readiness-api/internal/models"
)

var ErrMalformedAssessment = errors.New("malformed assessment")

// GeneratedAssessment is what the generator hands back to callers. Model and
// TokensUsed describe the call even when the fallback result was used.
type GeneratedAssessment struct {
	Result        models.AssessmentResult
	IsAIGenerated bool
	Model         string
	TokensUsed    int
	Raw           string
}

type AssessmentGenerator struct {
	generator GenerationService
	metrics   *metrics.Manager
}

func NewAssessmentGenerator(generator GenerationService, m *metrics.Manager) *AssessmentGenerator {
	return &AssessmentGenerator{generator: generator, metrics: m}
}

// Generate calls the model and parses its reply. A reply that cannot be parsed
// yields the fallback result and no error; a failed call returns the error.
func (g *AssessmentGenerator) Generate(ctx context.Context, prompt string) (*GeneratedAssessment, error) {
	start := time.Now()

	generation, err := g.generator.GenerateText(ctx, prompt)
	if err != nil {
		if errors.Is(err, ErrGenerationFailed) {
			g.metrics.RecordGeneration(g.generator.Name(), metrics.OutcomeError, time.Since(start))
		}
		return nil, err
	}

	out := &GeneratedAssessment{
		Model:      generation.Model,
		TokensUsed: generation.TokensUsed,
		Raw:        generation.Text,
	}

	result, err := ParseAssessment(generation.Text)
	if err != nil {
		log.Printf("⚠️ Model reply unusable, using fallback assessment: %v", err)
		g.metrics.RecordGeneration(g.generator.Name(), metrics.OutcomeFallback, time.Since(start))
		out.Result = FallbackAssessment()
		return out, nil
	}

	g.metrics.RecordGeneration(g.generator.Name(), metrics.OutcomeSuccess, time.Since(start))
	out.Result = *result
	out.IsAIGenerated = true
	return out, nil
}

// rawAssessment mirrors AssessmentResult with pointers so absent keys can be
// told apart from zero values.
type rawAssessment struct {
	OverallScore         *json.RawMessage   `json:"overallScore"`
	AcademicScore        *json.RawMessage   `json:"academicScore"`
	ExtracurricularScore *json.RawMessage   `json:"extracurricularScore"`
	Summary              *string            `json:"summary"`
	Strengths            *[]string          `json:"strengths"`
	Improvements         *[]string          `json:"improvements"`
	Recommendations      *[]string          `json:"recommendations"`
	TargetSchools        *[]rawTargetSchool `json:"targetSchools"`
}

type rawTargetSchool struct {
	Name      *string `json:"name"`
	Reasoning *string `json:"reasoning"`
}

// ParseAssessment strips code fences, isolates the first JSON object and
// validates every field. Unknown keys, missing keys, non-integer scores and
// scores outside [0,100] are all rejected with ErrMalformedAssessment.
func ParseAssessment(raw string) (*models.AssessmentResult, error) {
	body, ok := extractJSONObject(stripCodeFences(raw))
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedAssessment)
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()

	var parsed rawAssessment
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAssessment, err)
	}

	overall, err := score("overallScore", parsed.OverallScore)
	if err != nil {
		return nil, err
	}
	academic, err := score("academicScore", parsed.AcademicScore)
	if err != nil {
		return nil, err
	}
	extracurricular, err := score("extracurricularScore", parsed.ExtracurricularScore)
	if err != nil {
		return nil, err
	}

	if parsed.Summary == nil || strings.TrimSpace(*parsed.Summary) == "" {
		return nil, fmt.Errorf("%w: summary is missing", ErrMalformedAssessment)
	}

	lists := map[string]*[]string{
		"strengths":       parsed.Strengths,
		"improvements":    parsed.Improvements,
		"recommendations": parsed.Recommendations,
	}
	for key, list := range lists {
		if list == nil {
			return nil, fmt.Errorf("%w: %s is missing", ErrMalformedAssessment, key)
		}
	}

	if parsed.TargetSchools == nil {
		return nil, fmt.Errorf("%w: targetSchools is missing", ErrMalformedAssessment)
	}
	schools := make([]models.TargetSchool, 0, len(*parsed.TargetSchools))
	for i, s := range *parsed.TargetSchools {
		if s.Name == nil || strings.TrimSpace(*s.Name) == "" || s.Reasoning == nil {
			return nil, fmt.Errorf("%w: targetSchools[%d] needs name and reasoning", ErrMalformedAssessment, i)
		}
		schools = append(schools, models.TargetSchool{Name: *s.Name, Reasoning: *s.Reasoning})
	}

	return &models.AssessmentResult{
		OverallScore:         overall,
		AcademicScore:        academic,
		ExtracurricularScore: extracurricular,
		Summary:              *parsed.Summary,
		Strengths:            *parsed.Strengths,
		Improvements:         *parsed.Improvements,
		Recommendations:      *parsed.Recommendations,
		TargetSchools:        schools,
	}, nil
}

// score accepts only a JSON number literal; quoted numbers are rejected.
func score(key string, raw *json.RawMessage) (int, error) {
	if raw == nil {
		return 0, fmt.Errorf("%w: %s is missing", ErrMalformedAssessment, key)
	}
	literal := bytes.TrimSpace(*raw)
	if len(literal) == 0 || (literal[0] != '-' && (literal[0] < '0' || literal[0] > '9')) {
		return 0, fmt.Errorf("%w: %s must be a number", ErrMalformedAssessment, key)
	}
	var n json.Number
	if err := json.Unmarshal(literal, &n); err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", ErrMalformedAssessment, key)
	}
	v, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil || f != float64(int64(f)) {
			return 0, fmt.Errorf("%w: %s must be a whole number", ErrMalformedAssessment, key)
		}
		v = int64(f)
	}
	if v < 0 || v > 100 {
		return 0, fmt.Errorf("%w: %s out of range: %d", ErrMalformedAssessment, key, v)
	}
	return int(v), nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// language tag such as "json"
	if i := strings.IndexByte(s, '\n'); i != -1 {
		if tag := strings.TrimSpace(s[:i]); len(tag) < 20 && !strings.ContainsAny(tag, "{[") {
			s = s[i+1:]
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// extractJSONObject returns the first balanced {...} in s, skipping braces
// inside string literals.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// ParseSubmittedResult validates a result posted by a client with the same
// rules applied to model output.
func ParseSubmittedResult(raw json.RawMessage) (*models.AssessmentResult, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: results are required", ErrMalformedAssessment)
	}
	return ParseAssessment(string(trimmed))
}

// FallbackAssessment is the fixed result served when the model reply is unusable.
func FallbackAssessment() models.AssessmentResult {
	return models.AssessmentResult{
		OverallScore:         75,
		AcademicScore:        80,
		ExtracurricularScore: 70,
		Summary:              "Based on the provided information, you show strong academic foundation with room for growth in extracurricular depth and standardized testing.",
		Strengths: []string{
			"Consistent academic performance across grades",
			"Demonstrated commitment to education",
			"Well-rounded profile with multiple interests",
			"Clear potential for growth",
		},
		Improvements: []string{
			"Increase depth in 2-3 key extracurricular activities",
			"Develop stronger leadership roles with measurable impact",
			"Focus on SAT/ACT preparation to reach 1500+ range",
			"Build a more distinctive specialized excellence area",
		},
		Recommendations: []string{
			"Take 4-6 AP courses in areas aligned with your intended major",
			"Seek leadership positions in your top 2 extracurriculars",
			"Start a passion project that demonstrates innovation",
			"Dedicate 3-4 months to intensive SAT prep",
		},
		TargetSchools: []models.TargetSchool{
			{Name: "Top State Universities (UC Berkeley, UMich, UVA)", Reasoning: "Strong match for current profile"},
			{Name: "Selective Liberal Arts Colleges", Reasoning: "Holistic admissions may favor your approach"},
			{Name: "Target Ivy League Schools (Cornell, Brown)", Reasoning: "Competitive with improvements"},
			{Name: "Honors Programs at Strong Universities", Reasoning: "Excellent opportunities with merit aid"},
		},
	}
}
