package httpctrl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Agrid-Dev/copcalc/internal/controllers/dto"
	"github.com/Agrid-Dev/copcalc/internal/heatpump"
	"github.com/Agrid-Dev/copcalc/internal/logger"
	"github.com/Agrid-Dev/copcalc/internal/ports"
)

type Server struct {
	svc      ports.HeatPumpService
	srv      *http.Server
	deviceID string
	log      *logger.Logger
}

// New returns a runnable server. A nil log discards output.
func New(svc ports.HeatPumpService, addr string, deviceID string, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	mux := http.NewServeMux()
	s := &Server{svc: svc, deviceID: deviceID, log: log.With("controller", "http")}

	// Read
	mux.HandleFunc("GET /v1", s.handleGet)
	mux.HandleFunc("GET /v1/sweep", s.handleSweep)
	mux.HandleFunc("GET /v1/seasonal", s.handleSeasonal)

	// Stateless what-if
	mux.HandleFunc("POST /v1/compute", s.handleCompute)

	// Write: one endpoint per variable
	for _, p := range heatpump.Parameters {
		mux.HandleFunc("POST /v1/"+p.String(), s.handlePostParameter(p))
	}
	for _, f := range heatpump.Features {
		mux.HandleFunc("POST /v1/"+f.String(), s.handlePostFeature(f))
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	s.log.Infow("listening", "addr", s.srv.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// ---- Handlers ----

func (s *Server) handleGet(w http.ResponseWriter, _ *http.Request) {
	s.respondSnapshot(w)
}

func (s *Server) handlePostParameter(p heatpump.Parameter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postValue(s, w, r, func(v float64) error {
			return s.svc.SetParameter(p, v)
		})
	}
}

func (s *Server) handlePostFeature(f heatpump.Feature) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postValue(s, w, r, func(v bool) error {
			return s.svc.SetFeature(f, v)
		})
	}
}

// handleCompute evaluates a what-if input without touching the live state.
// Fields missing from the body keep their current values.
func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	req := dto.FromInput(s.svc.Get().Input)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	in := req.ToInput()
	res := heatpump.Compute(in)
	writeJSON(w, http.StatusOK, dto.Snapshot{
		Input:     dto.FromInput(in),
		Result:    dto.FromResult(res),
		Breakdown: dto.FromBreakdown(heatpump.Explain(in, res)),
	})
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	rng := heatpump.DefaultSweepRange()
	q := r.URL.Query()
	var err error
	if v := q.Get("from"); v != "" {
		if rng.From, err = strconv.ParseFloat(v, 64); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid 'from'")
			return
		}
	}
	if v := q.Get("to"); v != "" {
		if rng.To, err = strconv.ParseFloat(v, 64); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid 'to'")
			return
		}
	}
	if v := q.Get("points"); v != "" {
		if rng.Points, err = strconv.Atoi(v); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid 'points'")
			return
		}
	}

	in := s.svc.Get().Input
	points, err := heatpump.Sweep(in, rng)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	resp := dto.Sweep{Points: dto.FromSweep(points)}
	if lo, hi, ok := heatpump.DefrostRiskBand(in); ok {
		resp.DefrostRisk = &dto.Band{Low: lo, High: hi}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSeasonal(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dto.FromSeasonal(heatpump.Seasonal(s.svc.Get().Input)))
}

// ---- generic helpers ----
func (s *Server) respondSnapshot(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, dto.FromSnapshot(s.deviceID, s.svc.Get()))
}

func postValue[T any](s *Server, w http.ResponseWriter, r *http.Request, apply func(T) error) {
	dec := json.NewDecoder(r.Body)
	var req struct {
		Value *T `json:"value"`
	}
	if err := dec.Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Value == nil {
		writeErr(w, http.StatusBadRequest, "missing field 'value'")
		return
	}

	if err := apply(*req.Value); err != nil {
		s.log.Warnw("rejected update", "path", r.URL.Path, "err", err)
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	s.respondSnapshot(w)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
