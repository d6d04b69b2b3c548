package store

import (
	"fmt"
	"log/slog"
)

// Options selects the BlockStore backend.
type Options struct {
	Driver      string // "postgres", "sqlite", or "" (in-memory)
	PostgresDSN string
	SQLitePath  string
}

// Open creates the BlockStore for the given options. With no driver
// configured the bot runs with an empty in-memory block list, matching
// the optional-database behaviour of the block feature.
func Open(opts Options) (BlockStore, error) {
	switch opts.Driver {
	case "postgres":
		if opts.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres driver selected but no DSN configured")
		}
		return OpenPG(opts.PostgresDSN)
	case "sqlite":
		path := opts.SQLitePath
		if path == "" {
			path = "dilbot.db"
		}
		return OpenSQLite(path)
	case "":
		slog.Info("no database configured, block list disabled")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", opts.Driver)
	}
}
