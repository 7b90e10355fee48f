package watcher

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"appbuilder/internal/domain"
)

// DefinitionHandler is called with the parsed document whenever the watched
// file changes.
type DefinitionHandler func(doc domain.AppDefinition)

// DefinitionWatcher treats a JSON file on disk as the owning application
// definition and reports every rewrite of it.
type DefinitionWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	handle  DefinitionHandler
	log     *zap.Logger

	done chan struct{}
	once sync.Once
}

// New starts watching path. The file does not need to exist yet; its
// directory does.
func New(path string, handle DefinitionHandler, log *zap.Logger) (*DefinitionWatcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: editors replace files by rename, which drops a
	// watch placed on the file itself.
	if err := w.Add(filepath.Dir(absPath)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(absPath), err)
	}

	dw := &DefinitionWatcher{
		watcher: w,
		path:    absPath,
		handle:  handle,
		log:     log.Named("watcher").With(zap.String("file", absPath)),
		done:    make(chan struct{}),
	}
	go dw.watchLoop()
	return dw, nil
}

// Path returns the absolute path being watched.
func (dw *DefinitionWatcher) Path() string {
	return dw.path
}

// Close stops the watcher and waits for its loop to exit.
func (dw *DefinitionWatcher) Close() error {
	var err error
	dw.once.Do(func() {
		err = dw.watcher.Close()
		<-dw.done
	})
	return err
}

func (dw *DefinitionWatcher) watchLoop() {
	defer close(dw.done)
	for {
		select {
		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if absPath, _ := filepath.Abs(event.Name); absPath != dw.path {
				continue
			}
			doc, err := ReadDefinition(dw.path)
			if err != nil {
				// Partial writes show up as parse errors; the next event retries.
				dw.log.Debug("skipping unreadable definition", zap.Error(err))
				continue
			}
			if dw.handle != nil {
				dw.handle(*doc)
			}
		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			dw.log.Warn("watcher error", zap.Error(err))
		}
	}
}

// ReadDefinition parses an application definition file.
func ReadDefinition(path string) (*domain.AppDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc domain.AppDefinition
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("parse %s: missing id", path)
	}
	if doc.Components == nil {
		doc.Components = domain.Components{}
	}
	return &doc, nil
}

// WriteDefinition writes doc to path atomically (temp file + rename).
func WriteDefinition(path string, doc domain.AppDefinition) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode definition: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".appdef-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write definition: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace definition: %w", err)
	}
	return nil
}
