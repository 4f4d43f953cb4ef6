package settings

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("easyref.settings")

// Watcher reloads a settings file whenever it is written.
type Watcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Watch calls onChange with the settings from path overlaid on base() after
// every write to the file. The directory is watched so that editors which
// replace the file on save are seen too.
func Watch(path string, base func() Settings, onChange func(Settings, error)) (*Watcher, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	w := &Watcher{watcher: fw, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				log.Infof("reloading %s", path)
				onChange(LoadFile(base(), path))
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				log.Errorf("watch %s: %v", path, err)
			}
		}
	}()
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
