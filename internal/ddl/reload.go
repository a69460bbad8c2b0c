package ddl

// reload.go keeps a schema catalog in step with DDL files on disk.
//
// The reloader is long-running and context-aware. A failed parse is
// logged and the catalog keeps its previous tables until the files parse
// again.

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/JonMunkholm/sqlimport/internal/core"
)

// Reloader re-parses a set of DDL files into a catalog when any of them
// changes.
type Reloader struct {
	catalog *core.SchemaCatalog
	paths   []string
	mtimes  map[string]time.Time
}

func NewReloader(catalog *core.SchemaCatalog, paths ...string) *Reloader {
	return &Reloader{
		catalog: catalog,
		paths:   paths,
		mtimes:  make(map[string]time.Time, len(paths)),
	}
}

// Reload parses the files if any modification time differs from the last
// successful load and puts the tables in the catalog. It reports whether
// the catalog was updated.
func (r *Reloader) Reload() (bool, error) {
	current := make(map[string]time.Time, len(r.paths))
	changed := false
	for _, p := range r.paths {
		fi, err := os.Stat(p)
		if err != nil {
			return false, err
		}
		current[p] = fi.ModTime()
		if !fi.ModTime().Equal(r.mtimes[p]) {
			changed = true
		}
	}
	if !changed {
		return false, nil
	}

	tables, err := ParseFiles(r.paths...)
	if err != nil {
		return false, err
	}
	r.catalog.PutAll(tables)
	r.mtimes = current
	return true, nil
}

// Run reloads immediately, then every interval, until ctx is done.
func (r *Reloader) Run(ctx context.Context, interval time.Duration) {
	slog.Info("schema reloader started", "files", len(r.paths), "interval", interval)

	r.runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("schema reloader stopped")
			return
		case <-ticker.C:
			r.runOnce()
		}
	}
}

func (r *Reloader) runOnce() {
	start := time.Now()
	updated, err := r.Reload()
	if err != nil {
		slog.Error("schema reload failed", "error", err)
		return
	}
	if updated {
		slog.Info("schemas reloaded",
			"tables", r.catalog.Len(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
