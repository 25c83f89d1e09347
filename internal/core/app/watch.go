package app

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"actiongen/internal/core/config"
	"actiongen/internal/core/ports"
	"actiongen/internal/core/watcher"
	"actiongen/internal/shared/util"
)

var _ ports.WatchService = (*App)(nil)

// watchSettings is the part of the configuration the file watcher is built
// from. A reload that changes it rebuilds the watcher.
type watchSettings struct {
	paths        []string
	excludeDirs  []string
	excludeFiles []string
	ignore       []string
	debounce     time.Duration
}

func settingsFor(cfg *config.Config, explicit []string) watchSettings {
	s := watchSettings{
		paths:        cfg.Input.Paths,
		excludeDirs:  cfg.Input.ExcludeDirs,
		excludeFiles: cfg.Input.ExcludeFiles,
		ignore:       []string{cfg.Output.Path},
		debounce:     cfg.Watch.Debounce,
	}
	if len(explicit) > 0 {
		s.paths = explicit
	}
	if cfg.Manifest.Path != "" {
		s.ignore = append(s.ignore, cfg.Manifest.Path)
	}
	return s
}

func (s watchSettings) equal(o watchSettings) bool {
	return slices.Equal(s.paths, o.paths) &&
		slices.Equal(s.excludeDirs, o.excludeDirs) &&
		slices.Equal(s.excludeFiles, o.excludeFiles) &&
		slices.Equal(s.ignore, o.ignore) &&
		s.debounce == o.debounce
}

// Watch runs once, then again for every debounced batch of source changes
// until ctx ends. onRun receives the outcome of each run. When ConfigPath is
// set, edits to that file take effect from the next run, and changed inputs,
// excludes or debounce rebuild the file watcher.
func (a *App) Watch(ctx context.Context, req ports.GenerateRequest, onRun func(ports.Report, error)) error {
	explicit := req.Paths
	cfg := a.Config()
	current := settingsFor(cfg, explicit)

	report, err := a.Generate(ctx, ports.GenerateRequest{Paths: current.paths, DryRun: req.DryRun})
	onRun(report, err)

	// One pending rerun is enough: a run picks up every change made before it
	// starts.
	trigger := make(chan struct{}, 1)
	notify := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	w, err := a.newSourceWatcher(current, notify)
	if err != nil {
		return err
	}
	defer func() { w.Close() }()

	if a.ConfigPath != "" {
		cw := config.NewWatcher(a.ConfigPath, func(next *config.Config) {
			if a.Overrides != nil {
				a.Overrides(next)
			}
			a.SetConfig(next)
			slog.Info("configuration reloaded", "path", a.ConfigPath)
			notify()
		})
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config watcher unavailable", "path", a.ConfigPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	limiter := util.NewLimiter(cfg.Watch.MaxRunsPerSecond, 1)
	slog.Info("watching for changes", "paths", current.paths, "debounce", current.debounce)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-trigger:
		}

		if next := settingsFor(a.Config(), explicit); !next.equal(current) {
			rebuilt, err := a.newSourceWatcher(next, notify)
			if err != nil {
				slog.Warn("keeping previous file watcher", "error", err)
			} else {
				w.Close()
				w, current = rebuilt, next
				slog.Info("file watcher rebuilt", "paths", current.paths, "debounce", current.debounce)
			}
		}

		if err := limiter.Wait(ctx, 1); err != nil {
			return nil
		}
		report, err := a.Generate(ctx, ports.GenerateRequest{Paths: current.paths, DryRun: req.DryRun})
		if ctx.Err() != nil {
			return nil
		}
		onRun(report, err)
	}
}

func (a *App) newSourceWatcher(s watchSettings, notify func()) (*watcher.Watcher, error) {
	w, err := watcher.NewWatcher(s.debounce, s.excludeDirs, s.excludeFiles, func(paths []string) {
		slog.Debug("sources changed", "files", len(paths), "first", paths[0])
		notify()
	})
	if err != nil {
		return nil, err
	}
	w.SetExtensions(a.parser.SupportedExtensions())
	w.Ignore(s.ignore...)
	if err := w.Watch(s.paths); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}
