package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pulsedeck/pulsedeck/internal/engine"
	"github.com/pulsedeck/pulsedeck/internal/ingest"
	"github.com/pulsedeck/pulsedeck/internal/models"
	"github.com/pulsedeck/pulsedeck/internal/store"
	"github.com/pulsedeck/pulsedeck/internal/timeseries"
	"github.com/pulsedeck/pulsedeck/internal/websocket"
)

// HandleGetEndpoints returns all endpoint configurations
func HandleGetEndpoints(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		endpoints, err := st.ListEndpoints(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list endpoints")
			return
		}
		writeJSON(w, http.StatusOK, endpoints)
	}
}

// HandleGetEndpoint returns one endpoint configuration
func HandleGetEndpoint(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ep, err := st.GetEndpoint(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				writeError(w, http.StatusNotFound, "Endpoint not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to load endpoint")
			return
		}
		writeJSON(w, http.StatusOK, ep)
	}
}

// HandleCreateEndpoint creates an endpoint and broadcasts endpoint_created
func HandleCreateEndpoint(st *store.Store, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ep models.Endpoint
		if err := json.NewDecoder(r.Body).Decode(&ep); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if ep.Name == "" {
			writeError(w, http.StatusBadRequest, "Name is required")
			return
		}
		if ep.ID == "" {
			ep.ID = uuid.NewString()
		}
		applyEndpointDefaults(&ep)

		if err := st.SaveEndpoint(r.Context(), &ep); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to create endpoint")
			return
		}

		hub.Broadcast(string(ingest.KindEndpointCreated), ep)
		writeJSON(w, http.StatusCreated, ep)
	}
}

// HandleUpdateEndpoint updates an endpoint and broadcasts endpoint_updated
func HandleUpdateEndpoint(st *store.Store, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		existing, err := st.GetEndpoint(r.Context(), id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				writeError(w, http.StatusNotFound, "Endpoint not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to load endpoint")
			return
		}

		var ep models.Endpoint
		if err := json.NewDecoder(r.Body).Decode(&ep); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		ep.ID = id
		ep.CreatedAt = existing.CreatedAt
		applyEndpointDefaults(&ep)

		if err := st.SaveEndpoint(r.Context(), &ep); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to update endpoint")
			return
		}

		hub.Broadcast(string(ingest.KindEndpointUpdated), ep)
		writeJSON(w, http.StatusOK, ep)
	}
}

// HandleDeleteEndpoint removes an endpoint and broadcasts endpoint_deleted
func HandleDeleteEndpoint(st *store.Store, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := st.DeleteEndpoint(r.Context(), id); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to delete endpoint")
			return
		}

		hub.Broadcast(string(ingest.KindEndpointDeleted), models.Endpoint{ID: id})
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleGetEndpointSeries returns bucketed check outcomes for charts. Spans
// up to 24h use hourly buckets over raw checks; longer spans fold the
// persisted hourly rollups into daily buckets so they never scan raw history.
func HandleGetEndpointSeries(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		span := parseSpan(r.URL.Query().Get("span"), 24*time.Hour)
		now := time.Now().UTC()

		width := timeseries.BucketWidthFor(span)
		count := timeseries.BucketCount(span, width)

		if width > time.Hour {
			// Hour alignment keeps every hourly rollup row wholly inside
			// one daily bucket.
			now = now.Truncate(time.Hour)
			from := now.Add(-width * time.Duration(count))
			rows, err := st.RollupsInRange(r.Context(), id, store.GranularityHourly, from, now)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to load rollups")
				return
			}
			if len(rows) > 0 {
				writeJSON(w, http.StatusOK, seriesFromRollups(rows, now, width, count))
				return
			}
			// No rollups yet (fresh deployment): fall through to raw checks.
		}

		checks, err := st.CheckResultsInRange(r.Context(), id, now.Add(-width*time.Duration(count)), now)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load check results")
			return
		}

		writeJSON(w, http.StatusOK, engine.ComputeSeries(checks, width, count, now))
	}
}

// seriesFromRollups folds hourly rollup rows into the bucket grid. Averages
// are weighted by each row's successful-check count, the population its
// latency figures were computed over.
func seriesFromRollups(rows []store.RollupRow, now time.Time, width time.Duration, count int) []models.TimeSeriesPoint {
	windowStart := now.Add(-width * time.Duration(count))
	points := make([]models.TimeSeriesPoint, count)
	latSums := make([]float64, count)
	latCnts := make([]int, count)
	for i := range points {
		points[i].BucketStart = windowStart.Add(width * time.Duration(i))
	}

	for _, row := range rows {
		i := timeseries.BucketIndex(row.BucketStart, now, width, count)
		if i < 0 {
			continue
		}
		points[i].SuccessCount += row.SuccessfulChecks
		points[i].FailureCount += row.TotalChecks - row.SuccessfulChecks
		if row.SuccessfulChecks > 0 && row.AvgResponseMS > 0 {
			latSums[i] += row.AvgResponseMS * float64(row.SuccessfulChecks)
			latCnts[i] += row.SuccessfulChecks
		}
	}

	for i := range points {
		if latCnts[i] > 0 {
			points[i].AvgResponseTimeMS = latSums[i] / float64(latCnts[i])
		}
	}
	return points
}

// HandleGetEndpointChecks returns recent raw check results for an endpoint
func HandleGetEndpointChecks(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks, err := st.RecentCheckResults(r.Context(), chi.URLParam(r, "id"), 100)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load check results")
			return
		}
		writeJSON(w, http.StatusOK, checks)
	}
}

// HandleIngestCheck accepts one check result from the external prober,
// persists it and broadcasts status_update.
func HandleIngestCheck(st *store.Store, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var check models.CheckResult
		if err := json.NewDecoder(r.Body).Decode(&check); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		check.EndpointID = chi.URLParam(r, "id")
		if check.Timestamp.IsZero() {
			check.Timestamp = time.Now().UTC()
		}
		if err := ingest.NormalizeCheck(&check); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := st.AppendCheckResult(r.Context(), &check); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to store check result")
			return
		}

		hub.Broadcast("status_update", check)
		writeJSON(w, http.StatusCreated, check)
	}
}

func applyEndpointDefaults(ep *models.Endpoint) {
	if ep.ExpectedStatusCode == 0 {
		ep.ExpectedStatusCode = 200
	}
	if ep.TimeoutSeconds == 0 {
		ep.TimeoutSeconds = 30
	}
	if ep.CheckIntervalSeconds == 0 {
		ep.CheckIntervalSeconds = 60
	}
}
