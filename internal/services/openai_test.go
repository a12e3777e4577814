package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestOpenAIService(t *testing.T) {
	Convey("Given an OpenAI-compatible endpoint", t, func() {
		var (
			hits     atomic.Int32
			lastAuth string
			lastBody map[string]interface{}
			status   = http.StatusOK
			reply    = `{"model":"gpt-test","choices":[{"message":{"role":"assistant","content":"hello there"}}],"usage":{"total_tokens":17}}`
		)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			lastAuth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&lastBody)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(reply))
		}))
		defer server.Close()

		service := NewOpenAIService("sk-test", server.URL, "gpt-default", 5*time.Second)
		ctx := context.Background()

		Convey("When the call succeeds", func() {
			gen, err := service.GenerateText(ctx, "Assess me")

			Convey("Then the reply text and usage are returned", func() {
				So(err, ShouldBeNil)
				So(gen.Text, ShouldEqual, "hello there")
				So(gen.Model, ShouldEqual, "gpt-test")
				So(gen.TokensUsed, ShouldEqual, 17)
			})

			Convey("Then the request carries the key and the fixed settings", func() {
				So(lastAuth, ShouldEqual, "Bearer sk-test")
				So(lastBody["model"], ShouldEqual, "gpt-default")
				So(lastBody["max_tokens"], ShouldEqual, 2000.0)
				So(lastBody["temperature"], ShouldAlmostEqual, 0.7, 0.0001)

				messages := lastBody["messages"].([]interface{})
				So(len(messages), ShouldEqual, 2)
				So(messages[0].(map[string]interface{})["content"], ShouldEqual, counselorInstruction)
				So(messages[1].(map[string]interface{})["content"], ShouldEqual, "Assess me")
			})
		})

		Convey("When the endpoint returns an error status", func() {
			status = http.StatusTooManyRequests
			reply = `{"error":{"message":"rate limited"}}`
			_, err := service.GenerateText(ctx, "Assess me")

			So(errors.Is(err, ErrGenerationFailed), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "rate limited")
		})

		Convey("When the reply has no choices", func() {
			reply = `{"choices":[]}`
			_, err := service.GenerateText(ctx, "Assess me")
			So(errors.Is(err, ErrGenerationFailed), ShouldBeTrue)
		})

		Convey("When the prompt is blank no request is made", func() {
			_, err := service.GenerateText(ctx, "  ")
			So(err, ShouldEqual, ErrEmptyPrompt)
			So(hits.Load(), ShouldEqual, int32(0))
		})

		Convey("When no API key is configured no request is made", func() {
			bare := NewOpenAIService("", server.URL, "gpt-default", time.Second)
			So(bare.Configured(), ShouldBeFalse)

			_, err := bare.GenerateText(ctx, "Assess me")
			So(err, ShouldEqual, ErrGeneratorNotConfigured)
			So(hits.Load(), ShouldEqual, int32(0))
		})
	})
}
