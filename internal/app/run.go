package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/projweave/internal/composer"
	"github.com/vk/projweave/internal/ctxlog"
	"github.com/vk/projweave/internal/descriptor"
	"github.com/vk/projweave/internal/emit"
	"github.com/vk/projweave/internal/fsutil"
	"github.com/vk/projweave/internal/hcl"
	"github.com/vk/projweave/internal/report"
	"github.com/vk/projweave/internal/watch"
)

// ErrStrict is returned when strict mode is on and warnings were reported.
var ErrStrict = errors.New("warnings reported in strict mode")

// Run executes the main application logic based on the provided configuration.
// In watch mode it blocks until ctx is cancelled and only fails on setup
// errors; otherwise it performs a single cycle.
func (a *App) Run(ctx context.Context) error {
	ctx = a.context(ctx)
	a.logger.Debug("App.Run method started.", "project", a.config.ProjectPath, "watch", a.config.Watch)

	if !a.config.Watch {
		_, _, err := a.Cycle(ctx)
		return err
	}

	return watch.Run(ctx, a.config.WatchDelay, func(ctx context.Context) []string {
		_, files, err := a.Cycle(ctx)
		if err != nil {
			report.Error(a.errW, err)
		}
		return files
	})
}

// Cycle composes the project once, reports diagnostics, compares against the
// previous manifest when configured, and emits the result. It returns the
// project files that took part, which are also meaningful on failure.
func (a *App) Cycle(ctx context.Context) (*descriptor.Manifest, []string, error) {
	ctx = a.context(ctx)
	logger := ctxlog.FromContext(ctx)

	c := composer.New(a.loader)
	m, err := c.Compose(ctx, a.config.ProjectPath)
	if err != nil {
		return nil, a.fallbackFiles(c), fmt.Errorf("composition failed: %w", err)
	}

	report.Diagnostics(a.errW, m.Diagnostics)
	report.Summary(a.errW, m)

	if a.config.Strict && descriptor.HasWarnings(m.Diagnostics) {
		return m, m.Files, fmt.Errorf("%w: %d warning(s)", ErrStrict, len(m.Diagnostics))
	}

	if a.config.ComparePath != "" {
		if err := a.compare(m); err != nil {
			return m, m.Files, err
		}
	}

	if err := a.emitter.Emit(ctx, m); err != nil {
		return m, m.Files, fmt.Errorf("failed to emit manifest: %w", err)
	}
	logger.Info("Composition finished.", "project", m.Name, "files", len(m.Files))
	return m, m.Files, nil
}

func (a *App) compare(m *descriptor.Manifest) error {
	prev, err := emit.DecodeFile(a.config.ComparePath, a.config.Format)
	if err != nil {
		return fmt.Errorf("failed to read manifest to compare against: %w", err)
	}
	diff, err := report.Diff(a.config.ComparePath, m.Name, prev, m)
	if err != nil {
		return err
	}
	report.WriteDiff(a.errW, diff)
	return nil
}

// fallbackFiles lists what is worth watching after a failed composition: every
// project file that made it into the inclusion graph, or at least the root.
func (a *App) fallbackFiles(c *composer.Composer) []string {
	if nodes := c.Graph().Nodes(); len(nodes) > 0 {
		return nodes
	}
	file, err := fsutil.FindProjectFile(a.config.ProjectPath, hcl.DefaultFileName)
	if err != nil {
		return nil
	}
	return []string{file}
}
