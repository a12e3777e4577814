package models

// Profile is one submission of the readiness form. Every field is optional and
// kept exactly as the student typed it.
type Profile struct {
	Grade9                  string `json:"grade9"`
	Grade10                 string `json:"grade10"`
	Grade11                 string `json:"grade11"`
	Grade12                 string `json:"grade12"`
	AdvancedCourses         string `json:"advancedCourses"`
	ScholarAwards           string `json:"scholarAwards"`
	SATScore                string `json:"satScore"`
	Extracurriculars        string `json:"extracurriculars"`
	Leadership              string `json:"leadership"`
	VolunteerWork           string `json:"volunteerWork"`
	UniqueSkills            string `json:"uniqueSkills"`
	InternationalExperience string `json:"internationalExperience"`
}

// Identity is the display information woven into the prompt.
type Identity struct {
	FullName string
	Country  string
}

type TargetSchool struct {
	Name      string `json:"name"`
	Reasoning string `json:"reasoning"`
}

// AssessmentResult is the scored output for a Profile. Scores are whole numbers in [0,100].
type AssessmentResult struct {
	OverallScore         int            `json:"overallScore"`
	AcademicScore        int            `json:"academicScore"`
	ExtracurricularScore int            `json:"extracurricularScore"`
	Summary              string         `json:"summary"`
	Strengths            []string       `json:"strengths"`
	Improvements         []string       `json:"improvements"`
	Recommendations      []string       `json:"recommendations"`
	TargetSchools        []TargetSchool `json:"targetSchools"`
}
