package services

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"ivyx/readiness-api/internal/models"
)

func TestPromptBuilder(t *testing.T) {
	Convey("Given a prompt builder", t, func() {
		pb := NewPromptBuilder()
		identity := models.Identity{FullName: "Maya Chen", Country: "Canada"}

		Convey("When every profile field is empty", func() {
			prompt := pb.BuildAssessmentPrompt(models.Profile{}, models.Identity{FullName: "Sam"})

			Convey("Then every field is named as not provided", func() {
				So(strings.Count(prompt, "Not provided"), ShouldEqual, 12)
				So(prompt, ShouldContainSubstring, "- Grade 12 (Projected): Not provided\n")
				So(prompt, ShouldContainSubstring, "- International Experience: Not provided\n")
			})

			Convey("And the missing country is marked", func() {
				So(prompt, ShouldContainSubstring, "STUDENT: Sam from Not specified")
			})

			Convey("And the output contract is still present", func() {
				for _, key := range []string{
					"overallScore", "academicScore", "extracurricularScore", "summary",
					"strengths", "improvements", "recommendations", "targetSchools",
				} {
					So(prompt, ShouldContainSubstring, `"`+key+`"`)
				}
				So(prompt, ShouldContainSubstring, "no markdown, no extra text")
			})
		})

		Convey("When a whitespace-only field is given", func() {
			prompt := pb.BuildAssessmentPrompt(models.Profile{Leadership: "   "}, identity)
			So(prompt, ShouldContainSubstring, "- Leadership Roles: Not provided\n")
		})

		Convey("When the same input is rendered twice", func() {
			profile := models.Profile{Grade9: "88", Leadership: "Robotics lead"}
			So(pb.BuildAssessmentPrompt(profile, identity), ShouldEqual, pb.BuildAssessmentPrompt(profile, identity))
		})

		Convey("When rendering the documented example profile", func() {
			profile := models.Profile{
				Grade9:           "85",
				Grade10:          "90",
				Grade11:          "91",
				Grade12:          "",
				SATScore:         "1450",
				Extracurriculars: "Debate captain",
			}
			prompt := pb.BuildAssessmentPrompt(profile, identity)

			Convey("Then the values appear verbatim", func() {
				So(prompt, ShouldContainSubstring, "- Grade 9: 85%")
				So(prompt, ShouldContainSubstring, "- Grade 10: 90%")
				So(prompt, ShouldContainSubstring, "- Grade 11: 91%")
				So(prompt, ShouldContainSubstring, "- Grade 12 (Projected): Not provided")
				So(prompt, ShouldContainSubstring, "- SAT Score: 1450")
				So(prompt, ShouldContainSubstring, "- Extracurricular Activities: Debate captain")
				So(prompt, ShouldContainSubstring, "STUDENT: Maya Chen from Canada")
			})
		})

		Convey("When reference notes are supplied", func() {
			profile := models.Profile{Grade9: "90"}
			plain := pb.BuildAssessmentPrompt(profile, identity)

			Convey("Then no notes leaves the prompt unchanged", func() {
				So(pb.BuildAssessmentPromptWithReferences(profile, identity, nil), ShouldEqual, plain)
			})

			Convey("Then notes are appended after the contract", func() {
				prompt := pb.BuildAssessmentPromptWithReferences(profile, identity, []SearchResult{
					{Text: "  Early decision rates are higher.  "},
					{Text: "Demonstrated interest matters."},
				})
				So(prompt, ShouldStartWith, plain)
				So(prompt, ShouldContainSubstring, "REFERENCE NOTES")
				So(prompt, ShouldContainSubstring, "--- Note 1 ---\nEarly decision rates are higher.")
				So(prompt, ShouldContainSubstring, "--- Note 2 ---\nDemonstrated interest matters.")
			})
		})

		Convey("When building a retrieval query", func() {
			So(pb.BuildReferenceQuery(models.Profile{}), ShouldEqual, "College admissions readiness guidance for a high school student")
			So(pb.BuildReferenceQuery(models.Profile{SATScore: "1500", Leadership: "Class president"}),
				ShouldEqual, "College admissions guidance for a student with SAT: 1500; Leadership: Class president")
		})
	})
}
