package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/hairhealth/internal/adapters/artifacts"
	"github.com/okian/hairhealth/internal/adapters/dataset"
	"github.com/okian/hairhealth/internal/adapters/repository"
	"github.com/okian/hairhealth/internal/config"
	"github.com/okian/hairhealth/internal/domain/forest"
	"github.com/okian/hairhealth/internal/synth"
	"github.com/okian/hairhealth/internal/training"
	"github.com/okian/hairhealth/pkg/logger"
)

func init() {
	if err := logger.InitWith(&bytes.Buffer{}, logger.FormatText); err != nil {
		panic(err)
	}
}

// writeArtifacts trains small forests and stores them in dir.
func writeArtifacts(t *testing.T, dir string, withReport bool) {
	t.Helper()
	ctx := context.Background()
	enc, err := dataset.Encode(synth.NewGenerator(5).Records(200))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	res, err := training.NewTrainer(training.WithForestOptions(forest.WithTrees(8))).Train(ctx, enc)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	store := artifacts.NewStore(dir)
	if err := store.Save(ctx, res.Bundle); err != nil {
		t.Fatalf("save: %v", err)
	}
	if withReport {
		if err := store.SaveReport(ctx, res.Report); err != nil {
			t.Fatalf("save report: %v", err)
		}
	}
}

func TestNewHTTPServer(t *testing.T) {
	convey.Convey("Given stored artifacts", t, func() {
		dir := t.TempDir()
		writeArtifacts(t, dir, true)

		cfg := config.New()
		cfg.ArtifactDir = dir
		cfg.Addr = ":0"
		sessions := repository.NewMemoryStore()
		defer sessions.Close()

		convey.Convey("When the server is built", func() {
			srv, err := newHTTPServer(context.Background(), cfg, sessions)
			convey.So(err, convey.ShouldBeNil)
			convey.So(srv.Addr, convey.ShouldEqual, ":0")
			convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)

			ts := httptest.NewServer(srv.Handler)
			defer ts.Close()

			convey.Convey("Then the health check reports loaded models", func() {
				resp, err := http.Get(ts.URL + "/healthz")
				convey.So(err, convey.ShouldBeNil)
				_ = resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			})

			convey.Convey("Then the API docs are mounted", func() {
				resp, err := http.Get(ts.URL + "/openapi.yaml")
				convey.So(err, convey.ShouldBeNil)
				_ = resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			})
		})

		convey.Convey("When the cookie block key has the wrong size", func() {
			cfg.SessionBlockKey = "too-short"
			_, err := newHTTPServer(context.Background(), cfg, sessions)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given artifacts without a training report", t, func() {
		dir := t.TempDir()
		writeArtifacts(t, dir, false)
		cfg := config.New()
		cfg.ArtifactDir = dir

		convey.Convey("Then the server still starts", func() {
			_, err := newHTTPServer(context.Background(), cfg, repository.NewMemoryStore())
			convey.So(err, convey.ShouldBeNil)
		})
	})

	convey.Convey("Given an empty artifact directory", t, func() {
		cfg := config.New()
		cfg.ArtifactDir = t.TempDir()

		convey.Convey("Then startup fails", func() {
			_, err := newHTTPServer(context.Background(), cfg, repository.NewMemoryStore())
			convey.So(errors.Is(err, artifacts.ErrMissingArtifact), convey.ShouldBeTrue)
		})
	})
}

func TestUpdateSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.So(updateSystemMetrics, convey.ShouldNotPanic)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			startSystemMetricsUpdater(ctx)
			close(done)
		}()
		cancel()
		<-done
	})
}

func TestRunFailsWithoutModels(t *testing.T) {
	convey.Convey("Given an artifact directory with no models", t, func() {
		dir := t.TempDir()
		t.Setenv("HAIR_ARTIFACT_DIR", dir)
		t.Setenv("HAIR_ADDR", "127.0.0.1:0")

		convey.Convey("Then run returns the load error", func() {
			err := run(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, artifacts.ErrMissingArtifact), convey.ShouldBeTrue)
		})
	})
}
