package history

import (
	"time"

	"codeberg.org/mutker/vupdated/internal/errors"
)

const (
	// File system permissions and paths
	defaultDirPerm = 0o755
	defaultDBPath  = "/var/lib/vupdated/history.db"
	backupDirName  = "backups"

	defaultBatchSize     = 32
	defaultFlushInterval = 30 * time.Second
)

type Config struct {
	Enabled       bool
	DBPath        string
	BatchSize     int
	FlushInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		DBPath:        defaultDBPath,
		BatchSize:     defaultBatchSize,
		FlushInterval: defaultFlushInterval,
		Enabled:       false, // Disabled by default
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	// Only validate storage settings if history is enabled
	if !c.Enabled {
		return nil
	}
	if c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	if c.BatchSize <= 0 {
		return errFactory.WithData(ErrInvalidConfig, "batch size must be positive")
	}

	return nil
}
