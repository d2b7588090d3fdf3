// Package status serves the vessel table and pipeline counters over
// HTTP for dashboards and debugging.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/seastack/marlin/pkg/marlin/track"
)

// Stats is a point-in-time view of the pipeline counters.
type Stats struct {
	Records        uint64            `json:"records"`
	SkippedOutputs uint64            `json:"skipped_outputs"`
	Errors         map[string]uint64 `json:"errors"`
	PendingGroups  int               `json:"pending_groups"`
	Vessels        int               `json:"vessels"`
}

// VesselSource is the tracker side of the server.
type VesselSource interface {
	Snapshot() ([]track.Vessel, error)
	OwnShip() (track.OwnShip, error)
}

// StatsSource is the engine side of the server.
type StatsSource interface {
	Stats() Stats
}

type Server struct {
	srv     *http.Server
	vessels VesselSource
	stats   StatsSource
}

func NewServer(port int, vessels VesselSource, stats StatsSource) *Server {
	s := &Server{
		vessels: vessels,
		stats:   stats,
	}

	router := httprouter.New()
	router.GET("/vessels", s.handleVessels)
	router.GET("/ownship", s.handleOwnShip)
	router.GET("/stats", s.handleStats)

	s.srv = &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: router}
	return s
}

func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.srv.Shutdown(context.Background())
	}()

	if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}

func (s *Server) handleVessels(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	vessels, err := s.vessels.Snapshot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, vessels)
}

func (s *Server) handleOwnShip(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fix, err := s.vessels.OwnShip()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, fix)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, s.stats.Stats())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
