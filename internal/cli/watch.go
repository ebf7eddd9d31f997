package cli

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/toyz/strata/internal/config"
	"github.com/toyz/strata/internal/errors"
	"github.com/toyz/strata/internal/utils"
)

// PassFunc runs one generation pass
type PassFunc func(ctx context.Context) error

// Watcher reruns generation after every burst of source changes
type Watcher struct {
	dirs        []string
	debounce    time.Duration
	pass        PassFunc
	diagnostics *utils.DiagnosticSystem
	dirFilter   utils.DirectoryFilter
}

// NewWatcher creates a watcher over dirs. Every pass runs debounce after the
// last change of a burst.
func NewWatcher(dirs []string, debounce time.Duration, pass PassFunc, diag *utils.DiagnosticSystem) *Watcher {
	if diag == nil {
		diag = utils.NewQuietDiagnostics()
	}
	return &Watcher{
		dirs:        dirs,
		debounce:    debounce,
		pass:        pass,
		diagnostics: diag,
		dirFilter:   utils.DefaultDirectoryFilter(),
	}
}

// Run runs a pass immediately and then after every change until ctx is
// done. Failing passes are reported and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapWithOperation("create", "file watcher", err)
	}
	defer fsw.Close()

	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			return errors.WrapFileSystemError("watch", dir, err)
		}
		w.diagnostics.Debug("Watching %s", dir)
	}

	w.runPass(ctx)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				w.follow(fsw, event.Name)
			}
			if !Relevant(event.Name) {
				continue
			}
			w.diagnostics.Debug("%s %s", event.Op, event.Name)
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.diagnostics.Warn("File watcher error: %v", err)

		case <-fire:
			fire = nil
			w.runPass(ctx)
		}
	}
}

func (w *Watcher) runPass(ctx context.Context) {
	if err := w.pass(ctx); err != nil {
		w.diagnostics.Error("Generation failed: %v", err)
		return
	}
	w.diagnostics.Info("Waiting for changes...")
}

// follow starts watching a directory created below a watched one
func (w *Watcher) follow(fsw *fsnotify.Watcher, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if !w.dirFilter(path, fs.FileInfoToDirEntry(info)) {
		return
	}
	if err := fsw.Add(path); err != nil {
		w.diagnostics.Warn("Failed to watch %s: %v", path, err)
	}
}

// Relevant reports whether a change to path can alter generated output.
// Generated files are skipped so a pass never retriggers itself.
func Relevant(path string) bool {
	name := filepath.Base(path)
	if name == config.FileName || name == "go.mod" {
		return true
	}
	return strings.HasSuffix(name, ".go") &&
		!strings.HasSuffix(name, "_test.go") &&
		!strings.HasPrefix(name, utils.GeneratedPrefix) &&
		!strings.HasPrefix(name, ".")
}
