package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-git/go-billy/v5/util"

	"git.home.luguber.info/inful/mantree/internal/config"
	"git.home.luguber.info/inful/mantree/internal/logfields"
	"git.home.luguber.info/inful/mantree/internal/markdown"
	"git.home.luguber.info/inful/mantree/internal/pagesource"
	"git.home.luguber.info/inful/mantree/internal/pathcodec"
	"git.home.luguber.info/inful/mantree/internal/publish"
	"git.home.luguber.info/inful/mantree/internal/rewrite"
	"git.home.luguber.info/inful/mantree/internal/tree"
)

func (b *Builder) resolveGenerator(ctx context.Context) (pagesource.Generator, error) {
	if b.generator != nil {
		return b.generator, nil
	}
	g := b.cfg.Generator
	bin, err := pagesource.ResolveCommand(ctx, g.Command, g.LocalBuild)
	if err != nil {
		return nil, pagesource.Result{Command: []string{g.Command}, ExitCode: -1, Err: err}.AsError()
	}
	b.generator = &pagesource.BinaryGenerator{Command: bin, Subcommand: g.Subcommand, Format: g.Format}
	return b.generator, nil
}

func (b *Builder) stageGenerate(ctx context.Context, bs *BuildState) error {
	gen, err := b.resolveGenerator(ctx)
	if err != nil {
		return err
	}
	res := gen.Generate(ctx, bs.StagingDir)
	if !res.OK() {
		return res.AsError()
	}
	if strings.TrimSpace(res.Stdout) != "" {
		slog.Debug("generator output", "output", res.Stdout)
	}

	names, err := pagesource.ListRawPages(bs.Staging, b.cfg.Layout.Extension, b.cfg.Generator.Exclude)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		bs.Report.warn("generator produced no pages in %s", bs.StagingDir)
		slog.Warn("Generator produced no pages", logfields.Dir(bs.StagingDir))
	}
	bs.RawNames = names
	bs.Report.RawPages = len(names)
	return nil
}

func (b *Builder) stageDecode(_ context.Context, bs *BuildState) error {
	pages, err := pathcodec.DecodeAll(bs.RawNames, b.cfg.Layout.Delimiter)
	if err != nil {
		return err
	}
	bs.Pages = pages
	bs.Report.Pages = len(pages)
	slog.Debug("Decoded pages", logfields.Count(len(pages)))
	return nil
}

func (b *Builder) stageRewrite(_ context.Context, bs *BuildState) error {
	r := rewrite.New(b.cfg.Rewrite.BoilerplateMarker)
	if err := r.ApplyAll(bs.Staging, bs.Pages); err != nil {
		return err
	}
	if b.cfg.Rewrite.CheckLinks {
		b.checkLinks(bs)
	}
	return nil
}

func (b *Builder) stageAssemble(_ context.Context, bs *BuildState) error {
	a := &tree.Assembler{
		FS:        bs.Staging,
		Extension: b.cfg.Layout.Extension,
		Options:   directiveOptions(b.cfg.Toctree),
	}
	indices, err := a.Assemble(bs.Pages)
	if err != nil {
		return err
	}
	bs.Indices = indices
	bs.Report.Indices = len(indices)
	return nil
}

func (b *Builder) stagePublish(_ context.Context, bs *BuildState) error {
	paths := make([]string, len(bs.Pages))
	for i, p := range bs.Pages {
		paths[i] = p.Path()
	}
	p := &publish.Publisher{
		Source: bs.Staging,
		Target: b.target,
		DryRun: b.dryRun,
		Prune:  b.cfg.Publish.Prune,
	}
	rep, err := p.Publish(paths)
	if rep != nil {
		bs.Published = rep
		bs.Report.Changes = rep.Changes
	}
	if err != nil {
		return err
	}
	for _, path := range rep.Written() {
		content, err := util.ReadFile(bs.Staging, path)
		if err != nil {
			continue
		}
		if title := markdown.Title(content); title != "" {
			bs.Report.Titles[path] = title
		}
	}
	return nil
}

func directiveOptions(t config.ToctreeConfig) tree.DirectiveOptions {
	return tree.DirectiveOptions{
		TitlesOnly: config.Enabled(t.TitlesOnly),
		Glob:       config.Enabled(t.Glob),
		Hidden:     config.Enabled(t.Hidden),
	}
}
