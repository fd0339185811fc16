package plugins

import (
	"github.com/kilianp07/groupbalance/config"
	"github.com/kilianp07/groupbalance/core/runlog"
)

func init() {
	RegisterRunLog(config.RunLogJSONL, func(cfg config.RunLogConfig) (runlog.Store, error) {
		return runlog.NewJSONLStore(cfg.Path)
	})
	RegisterRunLog(config.RunLogJSONLRotating, func(cfg config.RunLogConfig) (runlog.Store, error) {
		return runlog.NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	})
	RegisterRunLog(config.RunLogSQLite, func(cfg config.RunLogConfig) (runlog.Store, error) {
		return runlog.NewSQLiteStore(cfg.Path)
	})
}
