package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/hairhealth/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":5000")
			convey.So(cfg.ArtifactDir, convey.ShouldEqual, "artifacts")
			convey.So(cfg.ScoreThreshold, convey.ShouldEqual, 40.0)
			convey.So(cfg.Seed, convey.ShouldEqual, int64(42))
			convey.So(cfg.TestFraction, convey.ShouldEqual, 0.2)
			convey.So(cfg.SessionTTL(), convey.ShouldEqual, 30*time.Minute)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs that break an invariant", t, func() {
		cases := map[string]func(*config.Config){
			"addr":              func(c *config.Config) { c.Addr = "" },
			"artifact_dir":      func(c *config.Config) { c.ArtifactDir = "" },
			"session_ttl":       func(c *config.Config) { c.SessionTTLSeconds = 0 },
			"test_fraction":     func(c *config.Config) { c.TestFraction = 1 },
			"trees":             func(c *config.Config) { c.Trees = 0 },
			"max_depth":         func(c *config.Config) { c.MaxDepth = -1 },
			"min_samples_split": func(c *config.Config) { c.MinSamplesSplit = 1 },
			"report_font_size":  func(c *config.Config) { c.ReportFontSize = -1 },
		}

		for name, mutate := range cases {
			convey.Convey("When "+name+" is out of range", func() {
				cfg := config.New()
				mutate(cfg)
				err := cfg.Validate()

				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, name)
			})
		}
	})
}
