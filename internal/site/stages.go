package site

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *buildState) error

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names.
const (
	StagePrepare   StageName = "prepare"
	StageDiscover  StageName = "discover"
	StageTransform StageName = "transform"
	StageRender    StageName = "render"
	StageAggregate StageName = "aggregate"
	StageWrite     StageName = "write"
	StageVerify    StageName = "verify"
)

// StageDef pairs a stage name with its function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal error. Context cancellation is checked between stages.
func runStages(ctx context.Context, bs *buildState, stages []StageDef) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.Name, ctx.Err())
			bs.recorder.IncStageResult(string(st.Name), metrics.ResultCanceled)
			return se
		default:
		}

		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)

		bs.report.StageDurations[string(st.Name)] = dur
		bs.recorder.ObserveStageDuration(string(st.Name), dur)

		if err != nil {
			bs.recorder.IncStageResult(string(st.Name), metrics.ResultFatal)
			slog.Error("Stage failed", logfields.Stage(string(st.Name)), logfields.Error(err))
			if se, ok := err.(*StageError); ok {
				return se
			}
			return newFatalStageError(st.Name, err)
		}

		bs.recorder.IncStageResult(string(st.Name), metrics.ResultSuccess)
		slog.Debug("Stage complete",
			logfields.Stage(string(st.Name)),
			logfields.DurationMS(float64(dur.Milliseconds())))
	}
	return nil
}
