// Package plugins keeps the named run-log backends the service can open.
package plugins

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kilianp07/groupbalance/config"
	"github.com/kilianp07/groupbalance/core/runlog"
)

// RunLogFactory opens a run history store from its configuration.
type RunLogFactory func(cfg config.RunLogConfig) (runlog.Store, error)

var (
	mu      sync.RWMutex
	runLogs = map[string]RunLogFactory{}
)

// RegisterRunLog adds a backend under name, replacing any previous one.
func RegisterRunLog(name string, f RunLogFactory) {
	mu.Lock()
	defer mu.Unlock()
	runLogs[name] = f
}

// RunLogBackends lists the registered backend names.
func RunLogBackends() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(runLogs))
	for n := range runLogs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// OpenRunLog opens the store selected by cfg.Backend. The "none" backend
// yields a nil store.
func OpenRunLog(cfg config.RunLogConfig) (runlog.Store, error) {
	if cfg.Backend == config.RunLogNone {
		return nil, nil
	}
	mu.RLock()
	f, ok := runLogs[cfg.Backend]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown run log backend %q", cfg.Backend)
	}
	return f(cfg)
}
