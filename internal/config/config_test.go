package config_test

import (
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"ivyx/readiness-api/internal/config"
)

func TestConfig_Load(t *testing.T) {
	convey.Convey("Given an environment with only defaults", t, func() {
		cfg := config.Load()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Server.Port, convey.ShouldEqual, "5000")
			convey.So(cfg.Database.Driver, convey.ShouldEqual, config.StoreDriverPostgres)
			convey.So(cfg.LLM.Provider, convey.ShouldEqual, config.ProviderOpenAI)
			convey.So(cfg.LLM.OpenAI.Model, convey.ShouldEqual, "gpt-4o-mini")
			convey.So(cfg.LLM.Timeout, convey.ShouldEqual, 60*time.Second)
			convey.So(cfg.Auth.AccessTokenTTL, convey.ShouldEqual, 24*time.Hour)
			convey.So(cfg.Qdrant.VectorSize, convey.ShouldEqual, uint64(768))
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given overrides in the environment", t, func() {
		t.Setenv("STORE_DRIVER", "MEMORY")
		t.Setenv("LLM_PROVIDER", "gemini")
		t.Setenv("GEMINI_API_KEY", "g-key")
		t.Setenv("LLM_TIMEOUT", "not-a-duration")
		t.Setenv("ADMIN_EMAILS", " Root@Example.com, ,ops@example.com")
		t.Setenv("RATE_LIMIT_MAX", "abc")

		cfg := config.Load()

		convey.Convey("Then values are normalised and bad ones fall back", func() {
			convey.So(cfg.Database.Driver, convey.ShouldEqual, config.StoreDriverMemory)
			convey.So(cfg.GeneratorAPIKey(), convey.ShouldEqual, "g-key")
			convey.So(cfg.LLM.Timeout, convey.ShouldEqual, 60*time.Second)
			convey.So(cfg.Auth.AdminEmails, convey.ShouldResemble, []string{"root@example.com", "ops@example.com"})
			convey.So(cfg.Server.RateLimitMax, convey.ShouldEqual, 60)
			convey.So(cfg.ReferencesEnabled(), convey.ShouldBeFalse)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a loaded config", t, func() {
		cfg := config.Load()

		convey.Convey("An unknown store driver is rejected", func() {
			cfg.Database.Driver = "mongo"
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("An unknown provider is rejected", func() {
			cfg.LLM.Provider = "llama"
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("Production requires a JWT secret", func() {
			cfg.Server.Env = "production"
			cfg.Auth.JWTSecret = ""
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)

			cfg.Auth.JWTSecret = "s3cret"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
