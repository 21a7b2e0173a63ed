package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"slate/config"
	"slate/state"
)

// Watcher reports changed stylesheet sources under a directory tree (or a
// single source file). Changes are collected until nothing happens for the
// debounce interval and then reported as a single batch.
type Watcher struct {
	fsw *fsnotify.Watcher
	log *zap.Logger

	root string
	// set when watching single file
	file string

	cfg        *config.CompilerConfig
	debounce   time.Duration
	withHidden bool
}

// NewWatcher starts watching path, which must be a directory or a source
// file.
func NewWatcher(path string, cfg *config.Config, log *zap.Logger) (*Watcher, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("unable to watch: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("unable to create file system watcher: %w", err)
	}

	w := &Watcher{
		fsw:        fsw,
		log:        log.Named("watch"),
		root:       path,
		cfg:        &cfg.Compiler,
		debounce:   cfg.Watch.Debounce,
		withHidden: !cfg.Watch.SkipHidden,
	}

	switch {
	case fi.IsDir():
		err = w.addTree(path, nil)
	case fi.Mode().IsRegular():
		// editors often replace files instead of writing them, so watch
		// directory and filter
		w.root, w.file = filepath.Dir(path), path
		err = fsw.Add(w.root)
	default:
		err = fmt.Errorf("unexpected path mode for (%s)", path)
	}
	if err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// addTree watches dir and all directories under it. When pending is not nil
// sources already present are added to it: they could have been written
// before watch was established.
func (w *Watcher) addTree(dir string, pending map[string]struct{}) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path != dir && !w.withHidden && config.IsHidden(path) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				return fmt.Errorf("unable to watch directory %q: %w", path, err)
			}
			w.log.Debug("Watching directory", zap.String("path", path))
			return nil
		}
		if pending != nil && w.cfg.IsSource(filepath.Ext(path)) {
			pending[path] = struct{}{}
		}
		return nil
	})
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if len(w.file) > 0 {
		return ev.Name == w.file
	}
	if !w.withHidden && config.IsHidden(ev.Name) {
		return false
	}
	return w.cfg.IsSource(filepath.Ext(ev.Name))
}

// Run blocks until context is cancelled calling onChange for every batch of
// changed sources, paths are in natural order. Removed sources are reported
// too, onChange should check.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, paths []string)) error {
	var (
		pending = make(map[string]struct{})
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
		} else {
			timer.Reset(w.debounce)
		}
		fire = timer.C
	}

	w.log.Info("Watching for changes", zap.String("path", w.root), zap.Duration("debounce", w.debounce))
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Watching stopped")
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if len(w.file) == 0 && ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if w.withHidden || !config.IsHidden(ev.Name) {
						if err := w.addTree(ev.Name, pending); err != nil {
							w.log.Warn("Unable to watch new directory", zap.String("path", ev.Name), zap.Error(err))
						}
						schedule()
					}
					continue
				}
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug("Change detected", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
			pending[ev.Name] = struct{}{}
			schedule()

		case <-fire:
			fire = nil
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for path := range pending {
				batch = append(batch, path)
			}
			clear(pending)
			sort.Sort(natural.StringSlice(batch))
			onChange(ctx, batch)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.log.Warn("Watcher error", zap.Error(err))
		}
	}
}

// Watch compiles sources once and then recompiles them whenever they change
// until interrupted. Existing results are always overwritten.
func Watch(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("watch")

	src, dst, err := resolvePaths(cmd, log)
	if err != nil {
		return err
	}
	if err := prepareEnv(cmd, env, log); err != nil {
		return err
	}
	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), true

	if ok, err := isArchiveFile(src); err == nil && ok {
		return fmt.Errorf("archives could not be watched (%s)", src)
	}

	if err := openCache(env, log); err != nil {
		return err
	}
	defer closeCache(env, log)

	w, err := NewWatcher(src, env.Cfg, log)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := process(ctx, src, dst, log); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		log.Warn("Initial compilation incomplete", zap.Error(err))
	}

	return w.Run(ctx, func(ctx context.Context, paths []string) {
		recompile(ctx, w, paths, dst, log)
	})
}

// recompile processes changed sources, errors are logged and watching goes
// on.
func recompile(ctx context.Context, w *Watcher, paths []string, dst string, log *zap.Logger) {
	env := state.EnvFromContext(ctx)

	t := &tally{}
	for _, path := range paths {
		if ctx.Err() != nil {
			return
		}
		if _, err := os.Stat(path); err != nil {
			log.Debug("Source is gone", zap.String("path", path))
			if err := env.Builds.Forget(path); err != nil {
				log.Warn("Unable to update build cache", zap.String("path", path), zap.Error(err))
			}
			continue
		}
		processFile(ctx, path, w.relative(path), dst, t, log)
	}
	if err := t.result(); err != nil {
		log.Warn("Recompilation incomplete", zap.Error(err))
	}
}

func (w *Watcher) relative(path string) string {
	if len(w.file) > 0 {
		return filepath.Base(path)
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(path)
	}
	return rel
}
