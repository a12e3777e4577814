package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"

	"ivyx/readiness-api/internal/metrics"
)

func TestParseAssessment(t *testing.T) {
	Convey("Given model replies", t, func() {
		Convey("A plain valid object parses", func() {
			result, err := ParseAssessment(validReply)
			So(err, ShouldBeNil)
			So(result.OverallScore, ShouldEqual, 82)
			So(result.AcademicScore, ShouldEqual, 88)
			So(result.ExtracurricularScore, ShouldEqual, 75)
			So(result.Summary, ShouldEqual, "Strong academically.")
			So(result.Strengths, ShouldResemble, []string{"A", "B"})
			So(result.TargetSchools[0].Name, ShouldEqual, "X")
			So(result.TargetSchools[0].Reasoning, ShouldEqual, "Y")
		})

		Convey("A fenced object parses", func() {
			result, err := ParseAssessment("```json\n" + validReply + "\n```")
			So(err, ShouldBeNil)
			So(result.OverallScore, ShouldEqual, 82)
		})

		Convey("A fence without a language tag parses", func() {
			_, err := ParseAssessment("```\n" + validReply + "\n```")
			So(err, ShouldBeNil)
		})

		Convey("Narrative around the object is ignored", func() {
			_, err := ParseAssessment("Here is the assessment:\n" + validReply + "\nGood luck!")
			So(err, ShouldBeNil)
		})

		Convey("Braces inside strings do not end the object", func() {
			reply := `{"overallScore":60,"academicScore":61,"extracurricularScore":62,"summary":"Use {curly} notes}","strengths":[],"improvements":[],"recommendations":[],"targetSchools":[]}`
			result, err := ParseAssessment(reply)
			So(err, ShouldBeNil)
			So(result.Summary, ShouldEqual, "Use {curly} notes}")
		})

		Convey("A whole-number float score is accepted", func() {
			reply := `{"overallScore":82.0,"academicScore":88,"extracurricularScore":75,"summary":"s","strengths":[],"improvements":[],"recommendations":[],"targetSchools":[]}`
			result, err := ParseAssessment(reply)
			So(err, ShouldBeNil)
			So(result.OverallScore, ShouldEqual, 82)
		})

		rejected := map[string]string{
			"unparseable text":  "I cannot help with that.",
			"truncated object":  `{"overallScore":82,"academicScore":88`,
			"missing key":       `{"overallScore":82,"academicScore":88,"summary":"s","strengths":[],"improvements":[],"recommendations":[],"targetSchools":[]}`,
			"unknown key":       `{"overallScore":82,"academicScore":88,"extracurricularScore":75,"summary":"s","strengths":[],"improvements":[],"recommendations":[],"targetSchools":[],"mood":"happy"}`,
			"score above range": `{"overallScore":182,"academicScore":88,"extracurricularScore":75,"summary":"s","strengths":[],"improvements":[],"recommendations":[],"targetSchools":[]}`,
			"negative score":    `{"overallScore":82,"academicScore":-1,"extracurricularScore":75,"summary":"s","strengths":[],"improvements":[],"recommendations":[],"targetSchools":[]}`,
			"fractional score":  `{"overallScore":82.5,"academicScore":88,"extracurricularScore":75,"summary":"s","strengths":[],"improvements":[],"recommendations":[],"targetSchools":[]}`,
			"string score":      `{"overallScore":"82","academicScore":88,"extracurricularScore":75,"summary":"s","strengths":[],"improvements":[],"recommendations":[],"targetSchools":[]}`,
			"all scores quoted": `{"overallScore":"82","academicScore":"88","extracurricularScore":"75","summary":"s","strengths":[],"improvements":[],"recommendations":[],"targetSchools":[]}`,
			"null score":        `{"overallScore":null,"academicScore":88,"extracurricularScore":75,"summary":"s","strengths":[],"improvements":[],"recommendations":[],"targetSchools":[]}`,
			"boolean score":     `{"overallScore":true,"academicScore":88,"extracurricularScore":75,"summary":"s","strengths":[],"improvements":[],"recommendations":[],"targetSchools":[]}`,
			"non-string list":   `{"overallScore":82,"academicScore":88,"extracurricularScore":75,"summary":"s","strengths":[1],"improvements":[],"recommendations":[],"targetSchools":[]}`,
			"school sans name":  `{"overallScore":82,"academicScore":88,"extracurricularScore":75,"summary":"s","strengths":[],"improvements":[],"recommendations":[],"targetSchools":[{"reasoning":"r"}]}`,
			"null list":         `{"overallScore":82,"academicScore":88,"extracurricularScore":75,"summary":"s","strengths":null,"improvements":[],"recommendations":[],"targetSchools":[]}`,
			"blank summary":     `{"overallScore":82,"academicScore":88,"extracurricularScore":75,"summary":"  ","strengths":[],"improvements":[],"recommendations":[],"targetSchools":[]}`,
		}
		for name, reply := range rejected {
			Convey(fmt.Sprintf("A reply with %s is rejected", name), func() {
				_, err := ParseAssessment(reply)
				So(errors.Is(err, ErrMalformedAssessment), ShouldBeTrue)
			})
		}
	})
}

func TestParseSubmittedResult(t *testing.T) {
	Convey("Given a submitted result", t, func() {
		Convey("Null and empty results are rejected", func() {
			_, err := ParseSubmittedResult(json.RawMessage("null"))
			So(errors.Is(err, ErrMalformedAssessment), ShouldBeTrue)
			_, err = ParseSubmittedResult(nil)
			So(errors.Is(err, ErrMalformedAssessment), ShouldBeTrue)
		})

		Convey("The fallback result round-trips", func() {
			raw, err := json.Marshal(FallbackAssessment())
			So(err, ShouldBeNil)
			result, err := ParseSubmittedResult(raw)
			So(err, ShouldBeNil)
			So(*result, ShouldResemble, FallbackAssessment())
		})
	})
}

func TestAssessmentGenerator(t *testing.T) {
	Convey("Given an assessment generator", t, func() {
		ctx := context.Background()
		m := metrics.NewManager()
		fake := &fakeGenerator{}
		gen := NewAssessmentGenerator(fake, m)

		Convey("When the model returns fenced valid JSON", func() {
			fake.reply = "```json\n" + validReply + "\n```"
			out, err := gen.Generate(ctx, "prompt")

			Convey("Then the parsed result is AI generated", func() {
				So(err, ShouldBeNil)
				So(out.IsAIGenerated, ShouldBeTrue)
				So(out.Result.OverallScore, ShouldEqual, 82)
				So(out.Model, ShouldEqual, "fake-model")
				So(out.TokensUsed, ShouldEqual, 42)
			})
		})

		Convey("When the model returns unparseable text", func() {
			fake.reply = "Sorry, I am not able to score this."
			out, err := gen.Generate(ctx, "prompt")

			Convey("Then the fallback is returned without error", func() {
				So(err, ShouldBeNil)
				So(out.IsAIGenerated, ShouldBeFalse)
				So(out.Result, ShouldResemble, FallbackAssessment())
				So(out.Result.OverallScore, ShouldEqual, 75)
				So(out.Result.AcademicScore, ShouldEqual, 80)
				So(out.Result.ExtracurricularScore, ShouldEqual, 70)
			})

			Convey("And the fallback is counted", func() {
				So(gatheredValue(m.Registry(), "readiness_assessment_fallbacks_total"), ShouldEqual, 1.0)
			})
		})

		Convey("When a score is out of range", func() {
			fake.reply = `{"overallScore":101,"academicScore":88,"extracurricularScore":75,"summary":"s","strengths":[],"improvements":[],"recommendations":[],"targetSchools":[]}`
			out, err := gen.Generate(ctx, "prompt")
			So(err, ShouldBeNil)
			So(out.IsAIGenerated, ShouldBeFalse)
		})

		Convey("When the service call fails", func() {
			fake.err = fmt.Errorf("%w: upstream 503", ErrGenerationFailed)
			out, err := gen.Generate(ctx, "prompt")

			Convey("Then the failure propagates", func() {
				So(out, ShouldBeNil)
				So(errors.Is(err, ErrGenerationFailed), ShouldBeTrue)
				So(errors.Is(err, ErrMalformedAssessment), ShouldBeFalse)
			})
		})

		Convey("When the prompt is blank", func() {
			_, err := gen.Generate(ctx, "   ")
			So(err, ShouldEqual, ErrEmptyPrompt)
		})
	})
}

func TestStripCodeFences(t *testing.T) {
	Convey("Fence stripping", t, func() {
		So(stripCodeFences("  {\"a\":1}  "), ShouldEqual, `{"a":1}`)
		So(stripCodeFences("```json\n{\"a\":1}\n```"), ShouldEqual, `{"a":1}`)
		So(stripCodeFences("```{\"a\":1}```"), ShouldEqual, `{"a":1}`)
	})
}

// gatheredValue sums every sample of a counter family.
func gatheredValue(registry *prometheus.Registry, name string) float64 {
	families, err := registry.Gather()
	if err != nil {
		return -1
	}
	total := 0.0
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}
