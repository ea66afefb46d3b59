// Package pipeline runs the mantree build: generate raw pages, decode flat
// names into a tree, rewrite page content, append navigation indices and
// publish changed pages.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/mantree/internal/config"
	ferrors "git.home.luguber.info/inful/mantree/internal/foundation/errors"
	"git.home.luguber.info/inful/mantree/internal/history"
	"git.home.luguber.info/inful/mantree/internal/logfields"
	"git.home.luguber.info/inful/mantree/internal/metrics"
	"git.home.luguber.info/inful/mantree/internal/notify"
	"git.home.luguber.info/inful/mantree/internal/pagesource"
	"git.home.luguber.info/inful/mantree/internal/publish"
	"git.home.luguber.info/inful/mantree/internal/workspace"
)

// Builder runs the pipeline for one configuration. A Builder may be reused
// for several runs but not concurrently.
type Builder struct {
	cfg       *config.Config
	generator pagesource.Generator
	staging   *workspace.Manager
	target    billy.Filesystem
	recorder  metrics.Recorder
	history   history.Store
	notifier  notify.Notifier
	revision  func() string
	dryRun    bool
	now       func() time.Time
	newID     func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithGenerator replaces the configured binary generator.
func WithGenerator(g pagesource.Generator) Option { return func(b *Builder) { b.generator = g } }

// WithStaging sets the staging directory manager.
func WithStaging(m *workspace.Manager) Option { return func(b *Builder) { b.staging = m } }

// WithTarget sets the published tree filesystem.
func WithTarget(fs billy.Filesystem) Option { return func(b *Builder) { b.target = fs } }

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(b *Builder) { b.recorder = r } }

// WithHistory records every run in s.
func WithHistory(s history.Store) Option { return func(b *Builder) { b.history = s } }

// WithNotifier announces changed pages after successful runs.
func WithNotifier(n notify.Notifier) Option { return func(b *Builder) { b.notifier = n } }

// WithRevision sets a function returning the source revision to stamp on runs.
func WithRevision(fn func() string) Option { return func(b *Builder) { b.revision = fn } }

// WithDryRun computes the publish report without writing the published tree.
func WithDryRun(dry bool) Option { return func(b *Builder) { b.dryRun = dry } }

// New returns a Builder. Unset collaborators default to the configured
// staging directory, an OS filesystem at publish.root, and no-op metrics and
// notifications.
func New(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:      cfg,
		recorder: metrics.NoopRecorder{},
		notifier: notify.NoopNotifier{},
		revision: func() string { return "" },
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.staging == nil {
		b.staging = workspace.NewPersistent(cfg.Generator.StagingDir)
	}
	return b
}

func (b *Builder) stages() []StageDef {
	return []StageDef{
		{StageGenerate, b.stageGenerate},
		{StageDecode, b.stageDecode},
		{StageRewrite, b.stageRewrite},
		{StageAssemble, b.stageAssemble},
		{StagePublish, b.stagePublish},
	}
}

// Run executes every stage once. The returned report is always non-nil; err
// is the classified error of the failing stage.
func (b *Builder) Run(ctx context.Context) (*BuildReport, error) {
	report := newBuildReport(b.newID(), b.now(), b.dryRun)
	report.Revision = b.revision()
	log := slog.With(logfields.BuildID(report.BuildID))
	log.Info("Build started", "dry_run", b.dryRun)

	err := b.run(ctx, report)
	report.End = b.now()
	if err == nil {
		report.Outcome = OutcomeSuccess
	}
	b.finish(ctx, report)

	if err != nil {
		log.Error("Build failed", logfields.Stage(string(report.FailedStage)), logfields.Error(err))
		return report, err
	}
	log.Info("Build completed",
		logfields.Written(len(report.Written())),
		logfields.Unchanged(report.Count(publish.ActionUnchanged)),
		logfields.DurationMS(float64(report.Duration().Milliseconds())))
	return report, nil
}

func (b *Builder) run(ctx context.Context, report *BuildReport) error {
	if err := b.staging.Create(); err != nil {
		report.fail(StageGenerate, OutcomeFailed, err)
		return stageError(StageGenerate, err)
	}
	defer func() {
		if err := b.staging.Cleanup(); err != nil {
			slog.Warn("Failed to remove staging directory", logfields.Error(err))
		}
	}()
	stagingFS, err := b.staging.FS()
	if err != nil {
		report.fail(StageGenerate, OutcomeFailed, err)
		return stageError(StageGenerate, err)
	}
	if b.target == nil {
		if !b.dryRun {
			if err := os.MkdirAll(b.cfg.Publish.Root, 0o755); err != nil {
				werr := ferrors.WrapError(err, ferrors.CategoryFileSystem, "create publish root").
					Fatal().
					WithContext("dir", b.cfg.Publish.Root).
					Build()
				report.fail(StagePublish, OutcomeFailed, werr)
				return stageError(StagePublish, werr)
			}
		}
		b.target = osfs.New(b.cfg.Publish.Root)
	}

	bs := &BuildState{
		StagingDir: b.staging.Path(),
		Staging:    stagingFS,
		Report:     report,
	}
	defer dropRootPages(bs)
	return runStages(ctx, bs, b.stages(), b.recorder)
}

// dropRootPages removes this run's root pages from staging. They are
// rewritten in place, so a copy left behind would be listed as generator
// output by the next run. Only the generator may put root pages there.
func dropRootPages(bs *BuildState) {
	for _, p := range bs.Pages {
		if !p.IsRoot() {
			continue
		}
		if err := bs.Staging.Remove(p.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("Failed to remove staged root page", logfields.Path(p.Path()), logfields.Error(err))
		}
	}
}
