// Package project maintains an index of the project's scene and script
// files. The index refreshes on filesystem events when a watcher is
// available and falls back to on-demand rescans otherwise.
package project

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/slighter12/godot-agent-tools/logger"
)

// DefaultExtensions are indexed when no explicit list is configured.
var DefaultExtensions = []string{".tscn", ".gd", ".tres"}

const refreshDebounce = 300 * time.Millisecond

// Index is a snapshot-refreshing list of project files.
type Index struct {
	root       string
	extensions map[string]struct{}

	mu    sync.RWMutex
	files []string
	stale bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewIndex scans root immediately and starts a filesystem watcher when
// one can be created. Watcher startup failure degrades to rescan-on-read.
func NewIndex(root string, extensions []string) (*Index, error) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	extSet := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extSet[strings.ToLower(ext)] = struct{}{}
	}

	idx := &Index{
		root:       root,
		extensions: extSet,
		done:       make(chan struct{}),
	}
	if err := idx.rescan(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("File watcher unavailable, falling back to rescans", "error", err)
		idx.stale = true
		return idx, nil
	}
	idx.watcher = watcher
	if err := idx.watchDirs(); err != nil {
		logger.Warn("File watcher setup incomplete", "error", err)
	}
	go idx.watchLoop()
	return idx, nil
}

// Close stops the watcher goroutine. Safe when no watcher was started.
func (idx *Index) Close() error {
	if idx.watcher == nil {
		return nil
	}
	close(idx.done)
	return idx.watcher.Close()
}

// Files returns indexed paths relative to the project root, as res://
// paths, optionally filtered to one extension and one directory prefix.
func (idx *Index) Files(dir, ext string) []string {
	idx.refreshIfStale()

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	dir = strings.TrimPrefix(dir, "res://")
	dir = strings.Trim(dir, "/")

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []string
	for _, rel := range idx.files {
		if ext != "" && !strings.EqualFold(filepath.Ext(rel), ext) {
			continue
		}
		if dir != "" && !strings.HasPrefix(rel, dir+"/") && filepath.Dir(rel) != dir {
			continue
		}
		out = append(out, "res://"+rel)
	}
	return out
}

// Contains reports whether a res:// path is currently indexed.
func (idx *Index) Contains(resPath string) bool {
	rel := strings.TrimPrefix(resPath, "res://")
	idx.refreshIfStale()
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	for _, f := range idx.files {
		if f == rel {
			return true
		}
	}
	return false
}

// Refresh forces a full rescan.
func (idx *Index) Refresh() error {
	return idx.rescan()
}

func (idx *Index) refreshIfStale() {
	idx.mu.RLock()
	stale := idx.stale
	idx.mu.RUnlock()
	if !stale {
		return
	}
	if err := idx.rescan(); err != nil {
		logger.Warn("Project rescan failed", "root", idx.root, "error", err)
	}
}

func (idx *Index) rescan() error {
	var files []string
	err := filepath.WalkDir(idx.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != idx.root {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := idx.extensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		rel, err := filepath.Rel(idx.root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return err
	}
	sort.Strings(files)

	idx.mu.Lock()
	idx.files = files
	// With a live watcher a completed scan is authoritative until the
	// next event; without one every read must rescan.
	idx.stale = idx.watcher == nil
	idx.mu.Unlock()
	return nil
}

// watchDirs registers the root and every subdirectory. fsnotify watches
// are not recursive.
func (idx *Index) watchDirs() error {
	return filepath.WalkDir(idx.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != idx.root {
			return filepath.SkipDir
		}
		return idx.watcher.Add(path)
	})
}

func (idx *Index) watchLoop() {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-idx.done:
			return
		case event, ok := <-idx.watcher.Events:
			if !ok {
				return
			}
			if !idx.relevant(event) {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = idx.watcher.Add(event.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(refreshDebounce)
				timerC = timer.C
			} else {
				timer.Reset(refreshDebounce)
			}
		case err, ok := <-idx.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("File watcher error", "error", err)
		case <-timerC:
			timer = nil
			timerC = nil
			if err := idx.rescan(); err != nil {
				logger.Warn("Project rescan failed", "root", idx.root, "error", err)
			} else {
				logger.Debug("Project index refreshed", "root", idx.root)
			}
		}
	}
}

func (idx *Index) relevant(event fsnotify.Event) bool {
	if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		ext := strings.ToLower(filepath.Ext(event.Name))
		if _, ok := idx.extensions[ext]; ok {
			return true
		}
		// Directory create/remove changes the watch set and may carry
		// indexed files with it.
		return filepath.Ext(event.Name) == ""
	}
	return false
}
