package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MahMoudMostaAfa/azkar/internal/catalog"
	"github.com/MahMoudMostaAfa/azkar/internal/router"
)

const maxBodyBytes = 1 << 20

// handleCommand accepts a raw playback command envelope and dispatches
// it. Unrecognized commands get no reply body, mirroring the silent
// no-op convention of the message router.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	reply, ok := s.deps.Router.DispatchRaw(r.Context(), raw)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	reply, _ := s.deps.Router.Dispatch(r.Context(), router.GetState{})
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Settings.Load(r.Context()))
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	old := s.deps.Settings.Load(ctx)

	updated := old
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&updated); err != nil {
		writeError(w, http.StatusBadRequest, "decode settings: "+err.Error())
		return
	}
	if updated.Interval < 1 {
		updated.Interval = 30
	}

	if err := s.deps.Settings.Save(ctx, updated); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if s.deps.OnSettingsSaved != nil {
		s.deps.OnSettingsSaved(ctx, old, updated)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleSaveLocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var loc struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Method    int     `json:"method"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&loc); err != nil {
		writeError(w, http.StatusBadRequest, "decode location: "+err.Error())
		return
	}
	if loc.Method == 0 {
		loc.Method = 4
	}

	old := s.deps.Settings.Load(ctx)
	updated := old
	updated.Location.Latitude = loc.Latitude
	updated.Location.Longitude = loc.Longitude
	updated.Location.Method = loc.Method

	if err := s.deps.Settings.Save(ctx, updated); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if s.deps.OnSettingsSaved != nil {
		s.deps.OnSettingsSaved(ctx, old, updated)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	summary, err := s.deps.Progress.Summary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleRecordProgress(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DhikrID string `json:"dhikrId"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "decode body: "+err.Error())
		return
	}

	if err := s.deps.Progress.Record(r.Context(), body.DhikrID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Categories)
}

func (s *Server) handleAzkar(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Catalog.Data(r.Context()))
}

func (s *Server) handleAzkarCategory(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["category"]
	items := s.deps.Catalog.ItemsForCategory(r.Context(), key)
	if items == nil {
		items = []catalog.Dhikr{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleRandomDhikr(w http.ResponseWriter, r *http.Request) {
	cfg := s.deps.Settings.Load(r.Context())
	writeJSON(w, http.StatusOK, s.deps.Catalog.Random(r.Context(), cfg.EnabledCategories))
}

func (s *Server) handleListCustom(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Catalog.CustomAzkar(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []catalog.Dhikr{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleAddCustom(w http.ResponseWriter, r *http.Request) {
	var d catalog.Dhikr
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "decode dhikr: "+err.Error())
		return
	}

	added, err := s.deps.Catalog.AddCustom(r.Context(), d)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleDeleteCustom(w http.ResponseWriter, r *http.Request) {
	err := s.deps.Catalog.DeleteCustom(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handlePrayerTimings(w http.ResponseWriter, r *http.Request) {
	cfg := s.deps.Settings.Load(r.Context())
	timings, err := s.deps.Prayer.TimingsForToday(r.Context(), cfg.Location)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, timings)
}

func (s *Server) handleHijri(w http.ResponseWriter, r *http.Request) {
	cfg := s.deps.Settings.Load(r.Context())
	hijri, err := s.deps.Prayer.HijriToday(r.Context(), cfg.Location)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, hijri)
}

func (s *Server) handleRemind(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Reminder.RemindNow(r.Context()))
}
