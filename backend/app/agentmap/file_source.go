package agentmap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"compliance-feed/backend/app/history"
	"compliance-feed/backend/global"

	"github.com/fsnotify/fsnotify"
)

// FileSource serves the agent map loaded from a YAML file. Readers always
// see one whole snapshot; a reload swaps it atomically.
type FileSource struct {
	path    string
	current atomic.Pointer[Snapshot]
}

// NewFileSource loads path once. A missing or invalid file at startup is an
// error; later reload failures keep the previous snapshot.
func NewFileSource(path string) (*FileSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	s := &FileSource{path: abs}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileSource) Lookup(id history.AgentID) (*AgentInfo, bool) {
	return s.current.Load().Lookup(id)
}

func (s *FileSource) Snapshot() *Snapshot {
	return s.current.Load()
}

// Reload rereads the file and publishes the new snapshot.
func (s *FileSource) Reload() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read agent map: %w", err)
	}
	snap, err := ParseSnapshot(b)
	if err != nil {
		return err
	}
	s.current.Store(snap)
	return nil
}

// Watch reloads the map whenever its file changes, until ctx is done. The
// containing directory is watched so editors that replace the file by
// rename are picked up.
func (s *FileSource) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watch agent map: %w", err)
	}
	global.Logger.Info().Str("path", s.path).Msg("watching agent map")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			prev := s.current.Load().Version
			if err := s.Reload(); err != nil {
				global.Logger.Warn().Err(err).Int64("version", prev).Msg("agent map reload failed, keeping previous snapshot")
				continue
			}
			global.Logger.Info().Int64("from", prev).Int64("to", s.current.Load().Version).Msg("agent map reloaded")
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			global.Logger.Error().Err(err).Msg("agent map watcher error")
		}
	}
}
