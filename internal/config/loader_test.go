package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/demoworks/rota/internal/config"
)

func clearConfigEnvVars() {
	for _, key := range []string{
		"ROTA_CONFIG",
		"ROTA_LOG_LEVEL",
		"ROTA_DATABASE_PATH",
		"ROTA_TIME_LIMIT_SECONDS",
		"ROTA_WORKERS",
		"ROTA_SEED",
		"ROTA_LEAD_DAYS",
		"ROTA_HORIZON_WEEKS",
		"ROTA_WEEKLY_CORE_CEILING",
		"ROTA_JUICER_WEEKLY_SOFT_CAP",
	} {
		_ = os.Unsetenv(key)
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
				convey.So(cfg.DatabasePath, convey.ShouldEqual, "rota.db")
				convey.So(cfg.TimeLimitSeconds, convey.ShouldEqual, 60)
				convey.So(cfg.LeadDays, convey.ShouldEqual, 2)
				convey.So(cfg.HorizonWeeks, convey.ShouldEqual, 3)
				convey.So(cfg.WeeklyCoreCeiling, convey.ShouldEqual, 6)
				convey.So(cfg.Weights.Scheduled, convey.ShouldEqual, 10_000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			clearConfigEnvVars()
			_ = os.Setenv("ROTA_DATABASE_PATH", "/tmp/test-rota.db")
			_ = os.Setenv("ROTA_TIME_LIMIT_SECONDS", "15")
			_ = os.Setenv("ROTA_LEAD_DAYS", "1")
			_ = os.Setenv("ROTA_WEEKLY_CORE_CEILING", "5")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then the environment overrides the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DatabasePath, convey.ShouldEqual, "/tmp/test-rota.db")
				convey.So(cfg.TimeLimitSeconds, convey.ShouldEqual, 15)
				convey.So(cfg.LeadDays, convey.ShouldEqual, 1)
				convey.So(cfg.Rules().WeeklyCoreCeiling, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When the configuration is invalid", func() {
			clearConfigEnvVars()
			_ = os.Setenv("ROTA_TIME_LIMIT_SECONDS", "0")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with the invalid-config kind", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "time_limit_seconds")
			})
		})
	})
}

func TestConfigDerivedValues(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("Then the time limit converts to a duration", func() {
			convey.So(cfg.TimeLimit().Seconds(), convey.ShouldEqual, 60)
		})

		convey.Convey("Then rules carry the configured ceilings", func() {
			cfg.WeeklyCoreCeiling = 4
			cfg.JuicerWeeklySoftCap = 2
			rules := cfg.Rules()
			convey.So(rules.WeeklyCoreCeiling, convey.ShouldEqual, 4)
			convey.So(rules.JuicerWeeklySoftCap, convey.ShouldEqual, 2)
			convey.So(rules.ShiftBlocks, convey.ShouldEqual, 3)
		})
	})
}
