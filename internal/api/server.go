// Package api exposes the daemon over HTTP: playback commands, session
// state, an SSE event stream, and the settings/progress/catalog surface
// the UI clients consume.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/MahMoudMostaAfa/azkar/internal/bus"
	"github.com/MahMoudMostaAfa/azkar/internal/catalog"
	"github.com/MahMoudMostaAfa/azkar/internal/prayer"
	"github.com/MahMoudMostaAfa/azkar/internal/progress"
	"github.com/MahMoudMostaAfa/azkar/internal/reminder"
	"github.com/MahMoudMostaAfa/azkar/internal/router"
	"github.com/MahMoudMostaAfa/azkar/internal/settings"
)

// Deps collects everything the HTTP surface talks to.
type Deps struct {
	Router   *router.Router
	Bus      *bus.Broadcaster
	Settings settings.Store
	Progress *progress.Manager
	Catalog  *catalog.Manager
	Prayer   *prayer.Manager
	Reminder *reminder.Service

	// OnSettingsSaved runs after a successful settings save, with the
	// previous and new values. The daemon re-arms the reminder alarm and
	// invalidates the prayer cache on location changes.
	OnSettingsSaved func(ctx context.Context, old, updated settings.Settings)
}

// Server is the daemon's HTTP server.
type Server struct {
	deps   Deps
	server *http.Server
}

// New builds the server for the given listen address.
func New(addr string, deps Deps) *Server {
	s := &Server{deps: deps}

	r := mux.NewRouter().StrictSlash(false)
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(s.recoverMiddleware)

	apiRouter.HandleFunc("/is_alive", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	apiRouter.HandleFunc("/command", s.handleCommand).Methods("POST")
	apiRouter.HandleFunc("/state", s.handleState).Methods("GET")
	apiRouter.HandleFunc("/events", s.handleEvents).Methods("GET")

	apiRouter.HandleFunc("/settings", s.handleGetSettings).Methods("GET")
	apiRouter.HandleFunc("/settings", s.handleSaveSettings).Methods("PUT")
	apiRouter.HandleFunc("/location", s.handleSaveLocation).Methods("PUT")

	apiRouter.HandleFunc("/progress", s.handleGetProgress).Methods("GET")
	apiRouter.HandleFunc("/progress", s.handleRecordProgress).Methods("POST")

	apiRouter.HandleFunc("/categories", s.handleCategories).Methods("GET")
	apiRouter.HandleFunc("/azkar", s.handleAzkar).Methods("GET")
	apiRouter.HandleFunc("/azkar/random", s.handleRandomDhikr).Methods("GET")
	apiRouter.HandleFunc("/azkar/{category}", s.handleAzkarCategory).Methods("GET")

	apiRouter.HandleFunc("/custom", s.handleListCustom).Methods("GET")
	apiRouter.HandleFunc("/custom", s.handleAddCustom).Methods("POST")
	apiRouter.HandleFunc("/custom/{id}", s.handleDeleteCustom).Methods("DELETE")

	apiRouter.HandleFunc("/prayer/timings", s.handlePrayerTimings).Methods("GET")
	apiRouter.HandleFunc("/hijri", s.handleHijri).Methods("GET")

	apiRouter.HandleFunc("/remind", s.handleRemind).Methods("POST")

	originsOk := handlers.AllowedOrigins([]string{"*"})
	headersOk := handlers.AllowedHeaders([]string{"Content-Type"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})

	s.server = &http.Server{
		Addr:        addr,
		Handler:     handlers.CompressHandler(handlers.CORS(originsOk, headersOk, methodsOk)(r)),
		ReadTimeout: 30 * time.Second,
		// No write timeout: /api/events streams indefinitely.
		IdleTimeout: 120 * time.Second,
	}
	return s
}

// Start launches the listener in a goroutine.
func (s *Server) Start() {
	logrus.WithField("addr", s.server.Addr).Info("api: listening")
	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("api: server stopped")
		}
	}()
}

// Shutdown drains connections and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the root handler for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logrus.WithField("panic", rec).
					Errorf("api: recovered from panic\n%s", debug.Stack())
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("api: response encode failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
