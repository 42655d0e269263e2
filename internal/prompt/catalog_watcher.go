package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"mockmate/internal/errors"
)

// CatalogWatcher watches the focus catalog file and reloads it on change,
// so focus-area edits take effect without a restart.
type CatalogWatcher struct {
	mu sync.RWMutex

	path    string
	catalog *Catalog

	lastModTime time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	logger *errors.Logger

	running bool
}

// NewCatalogWatcher creates a watcher for the given catalog file
func NewCatalogWatcher(path string, catalog *Catalog, debounceDelay time.Duration, logger *errors.Logger) *CatalogWatcher {
	if debounceDelay == 0 {
		debounceDelay = time.Second
	}

	return &CatalogWatcher{
		path:          path,
		catalog:       catalog,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1), // Buffered to prevent blocking
		logger:        logger,
	}
}

// Start loads the catalog file and begins watching it for changes
func (cw *CatalogWatcher) Start() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.running {
		return fmt.Errorf("catalog watcher is already running")
	}

	if err := cw.catalog.LoadFile(cw.path); err != nil {
		return err
	}
	if stat, err := os.Stat(cw.path); err == nil {
		cw.lastModTime = stat.ModTime()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	cw.fsWatcher = watcher

	if err := cw.fsWatcher.Add(cw.path); err != nil {
		cw.cleanupWatcher()
		return fmt.Errorf("failed to watch catalog file %s: %w", cw.path, err)
	}
	// Also watch the directory to catch atomic writes (rename operations)
	dir := filepath.Dir(cw.path)
	if err := cw.fsWatcher.Add(dir); err != nil && cw.logger != nil {
		cw.logger.Warn("Failed to watch directory for atomic writes",
			"directory", dir, "error", err)
	}

	cw.running = true
	go cw.watchLoop()

	if cw.logger != nil {
		cw.logger.Info("Focus catalog watcher started",
			"file", cw.path,
			"debounce_delay", cw.debounceDelay)
	}
	return nil
}

// Stop stops the catalog watcher
func (cw *CatalogWatcher) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running {
		return nil
	}

	close(cw.stopChan)

	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}

	if cw.fsWatcher != nil {
		if err := cw.fsWatcher.Close(); err != nil {
			if cw.logger != nil {
				cw.logger.LogError(err, "Failed to close file system watcher")
			}
			return err
		}
	}

	cw.running = false

	if cw.logger != nil {
		cw.logger.Info("Focus catalog watcher stopped")
	}
	return nil
}

func (cw *CatalogWatcher) cleanupWatcher() {
	if cw.fsWatcher != nil {
		if closeErr := cw.fsWatcher.Close(); closeErr != nil && cw.logger != nil {
			cw.logger.LogError(closeErr, "Failed to close file watcher during cleanup")
		}
	}
}

// watchLoop is the main event loop for file watching
func (cw *CatalogWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-cw.fsWatcher.Events:
			if !ok {
				return
			}
			if cw.shouldProcessEvent(event) {
				cw.scheduleReload()
			}

		case err, ok := <-cw.fsWatcher.Errors:
			if !ok {
				return
			}
			if cw.logger != nil {
				cw.logger.LogError(err, "Catalog watcher error")
			}

		case <-cw.reloadChan:
			if cw.hasFileChanged() {
				cw.reload()
			}

		case <-cw.stopChan:
			return
		}
	}
}

// shouldProcessEvent reports whether an event concerns the catalog file
func (cw *CatalogWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Name != cw.path && filepath.Base(event.Name) != filepath.Base(cw.path) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// hasFileChanged checks if the file has been modified since last check
func (cw *CatalogWatcher) hasFileChanged() bool {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	stat, err := os.Stat(cw.path)
	if err != nil {
		return false
	}
	if stat.ModTime().After(cw.lastModTime) {
		cw.lastModTime = stat.ModTime()
		return true
	}
	return false
}

func (cw *CatalogWatcher) reload() {
	if err := cw.catalog.LoadFile(cw.path); err != nil {
		// Keep serving the previous catalog on a bad edit
		if cw.logger != nil {
			cw.logger.LogError(err, "Failed to reload focus catalog, keeping previous entries",
				"file", cw.path)
		}
		return
	}
	if cw.logger != nil {
		cw.logger.Info("Focus catalog reloaded", "file", cw.path)
	}
}

// scheduleReload schedules a debounced reload
func (cw *CatalogWatcher) scheduleReload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}

	cw.debounceTimer = time.AfterFunc(cw.debounceDelay, func() {
		select {
		case cw.reloadChan <- struct{}{}:
		default:
			// Reload already scheduled
		}
	})
}

// IsRunning returns whether the watcher is currently running
func (cw *CatalogWatcher) IsRunning() bool {
	cw.mu.RLock()
	defer cw.mu.RUnlock()
	return cw.running
}
