package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"kickoff.ai/internal/protocol"
	"kickoff.ai/internal/render/geo"
	"kickoff.ai/internal/sim/world"
	"kickoff.ai/internal/transport/observer"
	"kickoff.ai/internal/transport/ws"
)

type routeDeps struct {
	world     *world.World
	matchID   string
	logger    *log.Logger
	validator *protocol.Validator
	idx       runtimeIndex

	enableAdmin bool
	enablePprof bool
}

func newRouter(d routeDeps) *mux.Router {
	router := mux.NewRouter()
	w := d.world

	router.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	router.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, d.matchID, w, d.idx)
	}).Methods(http.MethodGet)
	router.HandleFunc("/v1/frame.geojson", func(rw http.ResponseWriter, r *http.Request) {
		fc := geo.Frame(w.Frame())
		if r.URL.Query().Get("pitch") == "1" {
			fc = geo.Merge(w.Bootstrap(), w.Frame())
		}
		b, err := fc.MarshalJSON()
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		rw.Header().Set("Content-Type", "application/geo+json")
		_, _ = rw.Write(b)
	}).Methods(http.MethodGet)
	router.HandleFunc("/v1/ws", ws.NewServer(w, d.logger, d.validator).Handler())

	if d.enableAdmin {
		// Local-only admin endpoints (do not affect simulation determinism).
		admin := router.PathPrefix("/admin/v1").Subrouter()
		admin.Use(loopbackOnly)

		admin.HandleFunc("/state", func(rw http.ResponseWriter, r *http.Request) {
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				MatchID string             `json:"match_id"`
				Tick    uint64             `json:"tick"`
				Metrics world.WorldMetrics `json:"metrics"`
			}{
				MatchID: d.matchID,
				Tick:    w.CurrentTick(),
				Metrics: w.Metrics(),
			}
			_ = json.NewEncoder(rw).Encode(resp)
		}).Methods(http.MethodGet)
		admin.HandleFunc("/players/{team:[12]}/{index:[0-5]}", func(rw http.ResponseWriter, r *http.Request) {
			vars := mux.Vars(r)
			team, _ := strconv.Atoi(vars["team"])
			index, _ := strconv.Atoi(vars["index"])
			for _, p := range w.Frame().Players {
				if p.Team == team && p.Index == index {
					rw.Header().Set("Content-Type", "application/json")
					_ = json.NewEncoder(rw).Encode(p)
					return
				}
			}
			http.NotFound(rw, r)
		}).Methods(http.MethodGet)
		admin.HandleFunc("/snapshot", func(rw http.ResponseWriter, r *http.Request) {
			ctx2, cancel2 := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel2()
			tick, err := w.RequestSnapshot(ctx2)
			rw.Header().Set("Content-Type", "application/json")
			if err != nil {
				rw.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "tick": tick, "error": err.Error()})
				return
			}
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "tick": tick})
		}).Methods(http.MethodPost)

		// A method mismatch inside a subrouter falls through to 404; answer it
		// explicitly. Registered last so the method-constrained routes win.
		admin.HandleFunc("/state", methodNotAllowed(http.MethodGet))
		admin.HandleFunc("/players/{team:[12]}/{index:[0-5]}", methodNotAllowed(http.MethodGet))
		admin.HandleFunc("/snapshot", methodNotAllowed(http.MethodPost))

		obsSrv := observer.NewServer(w, d.logger)
		admin.HandleFunc("/observer/bootstrap", obsSrv.BootstrapHandler())
		admin.HandleFunc("/observer/frame", obsSrv.FrameHandler())
		admin.HandleFunc("/observer/ws", obsSrv.WSHandler())
	} else if d.logger != nil {
		d.logger.Printf("admin endpoints disabled (KO_ENABLE_ADMIN_HTTP=false)")
	}

	if d.enablePprof {
		router.HandleFunc("/debug/pprof/", pprof.Index)
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else if d.logger != nil {
		d.logger.Printf("pprof endpoints disabled (KO_ENABLE_PPROF_HTTP=false)")
	}
	return router
}

func methodNotAllowed(allow string) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Allow", allow)
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func loopbackOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(rw, r)
	})
}

// wrapHandler adds panic recovery and, when enabled, a combined-format access log.
func wrapHandler(h http.Handler, logger *log.Logger, accessLog bool) http.Handler {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if accessLog {
		h = handlers.CombinedLoggingHandler(logger.Writer(), h)
	}
	return handlers.RecoveryHandler(handlers.RecoveryLogger(logger))(h)
}
