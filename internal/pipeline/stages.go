package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-git/go-billy/v5"

	ferrors "git.home.luguber.info/inful/mantree/internal/foundation/errors"
	"git.home.luguber.info/inful/mantree/internal/logfields"
	"git.home.luguber.info/inful/mantree/internal/metrics"
	"git.home.luguber.info/inful/mantree/internal/pathcodec"
	"git.home.luguber.info/inful/mantree/internal/publish"
	"git.home.luguber.info/inful/mantree/internal/tree"
)

// StageName is a strongly-typed identifier for a pipeline stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StageGenerate StageName = "generate"
	StageDecode   StageName = "decode"
	StageRewrite  StageName = "rewrite"
	StageAssemble StageName = "assemble"
	StagePublish  StageName = "publish"
)

// Stage is a discrete unit of work in a build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// BuildState is the mutable state threaded through the stages of one run.
type BuildState struct {
	StagingDir string
	Staging    billy.Filesystem
	RawNames   []string
	Pages      []pathcodec.DecodedPage
	Indices    []tree.Index
	Published  *publish.Report
	Report     *BuildReport
}

// runStages executes stages in order, recording timing and stopping on the
// first error. Cancellation is only observed between stages so a stage never
// leaves the staging or published tree half written.
func runStages(ctx context.Context, bs *BuildState, stages []StageDef, rec metrics.Recorder) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			rec.IncStageResult(string(st.Name), metrics.ResultCanceled)
			bs.Report.fail(st.Name, OutcomeCanceled, err)
			return err
		}

		slog.Debug("Stage started", logfields.Stage(string(st.Name)), logfields.BuildID(bs.Report.BuildID))
		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)

		bs.Report.StageDurations[st.Name] = dur
		rec.ObserveStageDuration(string(st.Name), dur)

		if err != nil {
			err = stageError(st.Name, err)
			rec.IncStageResult(string(st.Name), metrics.ResultFatal)
			bs.Report.fail(st.Name, OutcomeFailed, err)
			return err
		}
		rec.IncStageResult(string(st.Name), metrics.ResultSuccess)
		slog.Debug("Stage completed",
			logfields.Stage(string(st.Name)),
			logfields.DurationMS(float64(dur.Microseconds())/1000))
	}
	return nil
}

// stageError tags err with the stage it came from, classifying unknown
// errors as internal.
func stageError(stage StageName, err error) error {
	if ce, ok := ferrors.AsClassified(err); ok {
		if ce.Stage() != "" {
			return err
		}
		return ce.WithContext(ferrors.ContextKeyStage, string(stage))
	}
	return ferrors.WrapError(err, ferrors.CategoryInternal, "stage failed").
		Fatal().
		WithStage(string(stage)).
		Build()
}
