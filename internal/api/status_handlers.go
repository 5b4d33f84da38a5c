package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/pulsedeck/pulsedeck/internal/engine"
	"github.com/pulsedeck/pulsedeck/internal/models"
	"github.com/pulsedeck/pulsedeck/internal/stats"
	"github.com/pulsedeck/pulsedeck/internal/store"
)

// StatusSource serves the live aggregate view the reconciliation loop
// maintains.
type StatusSource interface {
	Result(ctx context.Context) (engine.Result, error)
}

// HandleGetStatus returns the full derived view: per-endpoint snapshots, the
// system-wide series and status, and the active incident set. The default
// span is answered from the live aggregate state; historical spans, and any
// failure of the live path, recompute from the store.
func HandleGetStatus(live StatusSource, st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		span := parseSpan(r.URL.Query().Get("span"), 24*time.Hour)

		if live != nil && span == 24*time.Hour {
			result, err := live.Result(r.Context())
			if err == nil {
				result.Snapshots = roundSnapshots(result.Snapshots)
				writeJSON(w, http.StatusOK, result)
				return
			}
			log.Printf("Live status unavailable, recomputing from store: %v", err)
		}

		ds, err := st.FetchAll(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load dataset")
			return
		}

		result := engine.Compute(ds.Endpoints, ds.CheckResults, ds.Incidents, engine.Window{
			Now:  time.Now().UTC(),
			Span: span,
		})
		result.Snapshots = roundSnapshots(result.Snapshots)

		writeJSON(w, http.StatusOK, result)
	}
}

// parseSpan maps a span query value to a duration, falling back to def.
func parseSpan(value string, def time.Duration) time.Duration {
	switch value {
	case "":
		return def
	case "24h":
		return 24 * time.Hour
	case "7d":
		return 7 * 24 * time.Hour
	case "30d":
		return 30 * 24 * time.Hour
	case "90d":
		return 90 * 24 * time.Hour
	default:
		return def
	}
}

// roundSnapshots applies display rounding at the render boundary. Engine
// state stays full precision.
func roundSnapshots(snapshots []models.StatusSnapshot) []models.StatusSnapshot {
	out := make([]models.StatusSnapshot, len(snapshots))
	for i, snap := range snapshots {
		snap.UptimeToday = stats.Round1(snap.UptimeToday)
		snap.Uptime30d = stats.Round1(snap.Uptime30d)
		snap.Uptime90d = stats.Round1(snap.Uptime90d)
		snap.AvgResponseTimeMS = stats.Round1(snap.AvgResponseTimeMS)
		out[i] = snap
	}
	return out
}
