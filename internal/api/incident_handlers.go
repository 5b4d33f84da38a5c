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
	"github.com/pulsedeck/pulsedeck/internal/websocket"
)

// HandleGetIncidents returns incidents; ?active=true narrows the list to the
// live projection.
func HandleGetIncidents(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		incidents, err := st.ListIncidents(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list incidents")
			return
		}
		if r.URL.Query().Get("active") == "true" {
			incidents = engine.ActiveIncidents(incidents)
		}
		writeJSON(w, http.StatusOK, incidents)
	}
}

// HandleCreateIncident creates an incident and broadcasts incident_created
func HandleCreateIncident(st *store.Store, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var inc models.Incident
		if err := json.NewDecoder(r.Body).Decode(&inc); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if inc.ID == "" {
			inc.ID = uuid.NewString()
		}
		if inc.Status == "" {
			inc.Status = models.IncidentOpen
		}
		if inc.StartTime.IsZero() {
			inc.StartTime = time.Now().UTC()
		}
		if err := ingest.ValidateIncident(&inc, false); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := st.SaveIncident(r.Context(), &inc); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to create incident")
			return
		}

		hub.Broadcast(string(ingest.KindIncidentCreated), inc)
		writeJSON(w, http.StatusCreated, inc)
	}
}

// HandleUpdateIncident updates an incident and broadcasts incident_updated.
// Moving the status into resolved or closed stamps the end time.
func HandleUpdateIncident(st *store.Store, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		existing, err := st.GetIncident(r.Context(), id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				writeError(w, http.StatusNotFound, "Incident not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to load incident")
			return
		}

		var inc models.Incident
		if err := json.NewDecoder(r.Body).Decode(&inc); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		inc.ID = id
		inc.CreatedAt = existing.CreatedAt
		if inc.StartTime.IsZero() {
			inc.StartTime = existing.StartTime
		}
		if err := ingest.ValidateIncident(&inc, false); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !inc.Active() && inc.EndTime == nil {
			now := time.Now().UTC()
			inc.EndTime = &now
		}

		if err := st.SaveIncident(r.Context(), &inc); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to update incident")
			return
		}

		hub.Broadcast(string(ingest.KindIncidentUpdated), inc)
		writeJSON(w, http.StatusOK, inc)
	}
}

// HandleDeleteIncident removes an incident and broadcasts incident_deleted
func HandleDeleteIncident(st *store.Store, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := st.DeleteIncident(r.Context(), id); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to delete incident")
			return
		}

		hub.Broadcast(string(ingest.KindIncidentDeleted), models.Incident{ID: id})
		w.WriteHeader(http.StatusNoContent)
	}
}
