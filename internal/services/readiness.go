package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"ivyx/readiness-api/internal/models"
)

// ValidateProfile applies the form rules: at least one of grades 9 to 11,
// grades are percentages and the SAT score is in 400-1600 when given.
func ValidateProfile(p *models.Profile) error {
	if p == nil {
		return fmt.Errorf("%w: profile is required", ErrValidation)
	}
	if strings.TrimSpace(p.Grade9) == "" && strings.TrimSpace(p.Grade10) == "" && strings.TrimSpace(p.Grade11) == "" {
		return fmt.Errorf("%w: please enter at least one grade (9, 10 or 11)", ErrValidation)
	}

	grades := []struct{ label, value string }{
		{"grade9", p.Grade9},
		{"grade10", p.Grade10},
		{"grade11", p.Grade11},
		{"grade12", p.Grade12},
	}
	for _, g := range grades {
		if err := checkRange(g.label, g.value, 0, 100); err != nil {
			return err
		}
	}
	return checkRange("satScore", p.SATScore, 400, 1600)
}

// plainDecimal is digits with an optional point. ParseFloat alone also takes NaN and hex.
var plainDecimal = regexp.MustCompile(`^-?[0-9]*\.?[0-9]+$`)

func checkRange(label, value string, lo, hi float64) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if !plainDecimal.MatchString(value) {
		return fmt.Errorf("%w: %s must be a number", ErrValidation, label)
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%w: %s must be a number", ErrValidation, label)
	}
	if v < lo || v > hi {
		return fmt.Errorf("%w: %s must be between %g and %g", ErrValidation, label, lo, hi)
	}
	return nil
}

type ReadinessOutcome struct {
	Generated        *GeneratedAssessment
	Saved            *models.Assessment
	TotalAssessments int64
	ReferencesUsed   int
}

// ReadinessService runs the whole assessment flow for a signed-in user.
type ReadinessService struct {
	prompts    *PromptBuilder
	generator  *AssessmentGenerator
	history    *HistoryService
	references ReferenceLibrary
}

func NewReadinessService(prompts *PromptBuilder, generator *AssessmentGenerator, history *HistoryService, references ReferenceLibrary) *ReadinessService {
	if references == nil {
		references = NewDisabledReferenceLibrary()
	}
	return &ReadinessService{
		prompts:    prompts,
		generator:  generator,
		history:    history,
		references: references,
	}
}

func (s *ReadinessService) Assess(ctx context.Context, user *models.User, profile *models.Profile, save bool) (*ReadinessOutcome, error) {
	if err := ValidateProfile(profile); err != nil {
		return nil, err
	}

	var notes []SearchResult
	if s.references.Enabled() {
		found, err := s.references.Retrieve(ctx, s.prompts.BuildReferenceQuery(*profile))
		if err != nil {
			log.Printf("⚠️ Reference retrieval failed, continuing without notes: %v", err)
		} else {
			notes = found
		}
	}

	identity := models.Identity{FullName: user.FullName, Country: user.Country}
	prompt := s.prompts.BuildAssessmentPromptWithReferences(*profile, identity, notes)

	generated, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	outcome := &ReadinessOutcome{Generated: generated, ReferencesUsed: len(notes)}
	if !save {
		return outcome, nil
	}

	saved, err := s.history.Save(ctx, user.ID, profile, &generated.Result, generated.IsAIGenerated)
	if err != nil {
		return nil, err
	}
	outcome.Saved = saved.Assessment
	outcome.TotalAssessments = saved.TotalAssessments
	return outcome, nil
}
