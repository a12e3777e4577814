package services

import (
	"fmt"
	"strings"

	"ivyx/readiness-api/internal/models"
)

const notProvided = "Not provided"

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildAssessmentPrompt renders a profile into the scoring instruction. The
// output depends only on its inputs.
func (pb *PromptBuilder) BuildAssessmentPrompt(profile models.Profile, identity models.Identity) string {
	country := strings.TrimSpace(identity.Country)
	if country == "" {
		country = "Not specified"
	}

	return fmt.Sprintf(`You are an expert college admissions counselor specializing in Ivy League and prestigious universities. Analyze this student profile and provide a comprehensive assessment.

STUDENT: %s from %s

ACADEMIC PERFORMANCE:
- Grade 9: %s
- Grade 10: %s
- Grade 11: %s
- Grade 12 (Projected): %s
- Advanced Courses: %s
- Scholar Awards: %s
- SAT Score: %s

EXTRACURRICULAR & ADDITIONAL INFO:
- Extracurricular Activities: %s
- Leadership Roles: %s
- Volunteer Work: %s
- Unique Skills/Achievements: %s
- International Experience: %s

IMPORTANT: You MUST respond with ONLY a valid JSON object (no markdown, no extra text). Use this exact structure and no other keys:
{
  "overallScore": <number 0-100>,
  "academicScore": <number 0-100>,
  "extracurricularScore": <number 0-100>,
  "summary": "<2-3 sentence overall assessment>",
  "strengths": ["<strength 1>", "<strength 2>", "<strength 3>", "<strength 4>"],
  "improvements": ["<improvement 1>", "<improvement 2>", "<improvement 3>", "<improvement 4>"],
  "recommendations": ["<detailed action step 1>", "<detailed action step 2>", "<detailed action step 3>", "<detailed action step 4>"],
  "targetSchools": [
    {"name": "<University Name>", "reasoning": "<brief explanation why this school matches their profile>"},
    {"name": "<University Name>", "reasoning": "<brief explanation>"},
    {"name": "<University Name>", "reasoning": "<brief explanation>"},
    {"name": "<University Name>", "reasoning": "<brief explanation>"}
  ]
}`,
		strings.TrimSpace(identity.FullName), country,
		percentOrPlaceholder(profile.Grade9),
		percentOrPlaceholder(profile.Grade10),
		percentOrPlaceholder(profile.Grade11),
		percentOrPlaceholder(profile.Grade12),
		valueOrPlaceholder(profile.AdvancedCourses),
		valueOrPlaceholder(profile.ScholarAwards),
		valueOrPlaceholder(profile.SATScore),
		valueOrPlaceholder(profile.Extracurriculars),
		valueOrPlaceholder(profile.Leadership),
		valueOrPlaceholder(profile.VolunteerWork),
		valueOrPlaceholder(profile.UniqueSkills),
		valueOrPlaceholder(profile.InternationalExperience),
	)
}

// BuildAssessmentPromptWithReferences appends retrieved reference notes. With
// no notes it returns exactly BuildAssessmentPrompt.
func (pb *PromptBuilder) BuildAssessmentPromptWithReferences(profile models.Profile, identity models.Identity, notes []SearchResult) string {
	prompt := pb.BuildAssessmentPrompt(profile, identity)
	if len(notes) == 0 {
		return prompt
	}

	return prompt + "\n\nREFERENCE NOTES (admissions guidance to consider, do not quote verbatim):\n" + FormatReferenceNotes(notes)
}

// BuildReferenceQuery condenses a profile into the text embedded for retrieval.
func (pb *PromptBuilder) BuildReferenceQuery(profile models.Profile) string {
	var parts []string
	for _, field := range []struct{ label, value string }{
		{"Advanced courses", profile.AdvancedCourses},
		{"Awards", profile.ScholarAwards},
		{"SAT", profile.SATScore},
		{"Extracurriculars", profile.Extracurriculars},
		{"Leadership", profile.Leadership},
		{"Volunteer work", profile.VolunteerWork},
		{"Skills", profile.UniqueSkills},
		{"International experience", profile.InternationalExperience},
	} {
		if v := strings.TrimSpace(field.value); v != "" {
			parts = append(parts, field.label+": "+v)
		}
	}
	if len(parts) == 0 {
		return "College admissions readiness guidance for a high school student"
	}
	return "College admissions guidance for a student with " + strings.Join(parts, "; ")
}

func FormatReferenceNotes(results []SearchResult) string {
	var parts []string
	for i, result := range results {
		parts = append(parts, fmt.Sprintf("--- Note %d ---\n%s", i+1, strings.TrimSpace(result.Text)))
	}
	return strings.Join(parts, "\n\n")
}

func valueOrPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return notProvided
	}
	return v
}

func percentOrPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return notProvided
	}
	return v + "%"
}
