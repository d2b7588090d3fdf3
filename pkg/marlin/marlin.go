// Package marlin wires line feeds through the AIS decoding core and fans
// decoded records out to outputs, the vessel tracker, and metrics.
package marlin

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/seastack/marlin/pkg/ais"
	"github.com/seastack/marlin/pkg/marlin/feed"
	"github.com/seastack/marlin/pkg/marlin/status"
	"github.com/seastack/marlin/pkg/marlin/track"
	"github.com/seastack/marlin/pkg/util"
)

const lineBuffer = 64

type Marlin struct {
	feeds      []feed.Feed
	opts       Options
	writeAPI   api.WriteAPI
	lineChan   chan feed.Line
	pipelines  map[string]*ais.Pipeline
	tracker    *track.Tracker
	statusPort int
	logger     zerolog.Logger

	mu             sync.Mutex
	records        uint64
	skippedOutputs uint64
	errorCounts    map[ais.ErrorKind]uint64

	cancel context.CancelFunc
	ctx    context.Context
}

type MarlinOption func(m *Marlin) error

func WithInfluxDB(influxClient api.WriteAPI) MarlinOption {
	return func(m *Marlin) error {
		m.writeAPI = influxClient
		return nil
	}
}

func WithStatusServer(port int) MarlinOption {
	return func(m *Marlin) error {
		m.statusPort = port
		return nil
	}
}

func WithLogger(logger zerolog.Logger) MarlinOption {
	return func(m *Marlin) error {
		m.logger = logger
		return nil
	}
}

func New(feeds []feed.Feed, options Options, opts ...MarlinOption) (*Marlin, error) {
	m := &Marlin{
		feeds:       feeds,
		opts:        options,
		writeAPI:    &util.MockWriteAPI{}, // overwritten with option
		lineChan:    make(chan feed.Line, lineBuffer),
		pipelines:   make(map[string]*ais.Pipeline),
		errorCounts: make(map[ais.ErrorKind]uint64),
		logger:      log.Logger,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	if len(feeds) == 0 {
		return nil, fmt.Errorf("must specify at least one feed")
	}
	for _, f := range feeds {
		if _, ok := m.pipelines[f.Name()]; ok {
			return nil, fmt.Errorf("duplicate feed name %q", f.Name())
		}
		// One pipeline per feed: sentences stay ordered per source and one
		// feed's partial groups never combine with another's. Groups a
		// feed leaves behind are dropped by the reassembly sweep.
		m.pipelines[f.Name()] = ais.NewPipeline(m.opts.Decoder, m.observe, m.logger)
	}

	m.tracker = track.NewTracker(m.opts.Decoder.LockTimeout, m.logger)
	return m, nil
}

func (m *Marlin) Stop() error {
	m.cancel()
	var err error
	for _, f := range m.feeds {
		if stopErr := f.Stop(); stopErr != nil {
			err = stopErr
		}
	}
	return err
}

// Tracker exposes the vessel table, e.g. for embedding callers.
func (m *Marlin) Tracker() *track.Tracker {
	return m.tracker
}

func (m *Marlin) Start(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	m.ctx, m.cancel = context.WithCancel(ctx)

	for _, f := range m.feeds {
		thisFeed := f
		eg.Go(func() error {
			return thisFeed.Start(m.ctx, m.lineChan)
		})
	}

	eg.Go(m.processLines)
	eg.Go(m.sweepReassembly)

	for _, output := range m.opts.Outputs {
		thisOutput := output
		eg.Go(func() error {
			return thisOutput.Start(m.ctx)
		})
	}

	if m.statusPort > 0 {
		srv := status.NewServer(m.statusPort, m.tracker, m)
		eg.Go(func() error {
			return srv.Run(m.ctx)
		})
	}

	log.Info().
		Int("feeds", len(m.feeds)).
		Int("outputs", len(m.opts.Outputs)).
		Msg("Starting")

	return eg.Wait()
}

func (m *Marlin) processLines() error {
	for {
		select {
		case <-m.ctx.Done():
			return m.ctx.Err()
		case line := <-m.lineChan:
			m.handleLine(line)
		}
	}
}

func (m *Marlin) handleLine(line feed.Line) {
	text := strings.TrimSpace(line.Text)
	if text == "" {
		return
	}
	if text[0] == '$' {
		m.handleGNSS(line.Feed, text)
		return
	}

	p := m.pipelines[line.Feed]
	if p == nil {
		return
	}

	var rec ais.Record
	var err error
	micros := util.TimeOperationMicroseconds(func() {
		rec, err = p.Process(text)
	})
	if err != nil {
		m.logger.Debug().Err(err).Str("feed", line.Feed).Str("sentence", text).Msg("sentence rejected")
		return
	}
	if rec == nil {
		// Fragment parked for reassembly.
		return
	}
	m.dispatch(line.Feed, rec, micros)
}

func (m *Marlin) dispatch(feedName string, rec ais.Record, micros int64) {
	m.mu.Lock()
	m.records++
	m.mu.Unlock()

	if err := m.tracker.Update(rec); err != nil {
		m.logger.Error().Err(err).Msg("tracker update failed")
	}

	skippedOutputs := 0
	for _, output := range m.opts.Outputs {
		select {
		case output.Receive() <- rec:
			// We will not wait on blocked channels.
		default:
			skippedOutputs++
		}
	}
	if skippedOutputs > 0 {
		m.mu.Lock()
		m.skippedOutputs += uint64(skippedOutputs)
		m.mu.Unlock()
	}

	go m.writeAPI.WritePoint(influxdb2.NewPoint("ais.record.decoded",
		map[string]string{
			"feed":         feedName,
			"message_type": strconv.Itoa(rec.MessageType()),
		},
		map[string]interface{}{
			"decode_micros":   micros,
			"skipped_outputs": skippedOutputs,
		}, time.Now()))
}

// observe is the core's error hook: count, then ship a point per kind.
func (m *Marlin) observe(kind ais.ErrorKind, sentence string) {
	m.mu.Lock()
	m.errorCounts[kind]++
	m.mu.Unlock()

	go m.writeAPI.WritePoint(influxdb2.NewPoint("ais.decode.error",
		map[string]string{"kind": string(kind)},
		map[string]interface{}{"count": 1}, time.Now()))
}

// handleGNSS consumes the receiver's interleaved '$' sentences; an RMC
// fix becomes the own-ship position.
func (m *Marlin) handleGNSS(feedName, text string) {
	sentence, err := nmea.Parse(text)
	if err != nil {
		m.observe(ais.KindNotAISSentence, text)
		return
	}

	switch s := sentence.(type) {
	case nmea.RMC:
		if s.Validity != nmea.ValidRMC {
			return
		}
		fix := track.OwnShip{
			Lat:   s.Latitude,
			Lon:   s.Longitude,
			SOG:   s.Speed,
			COG:   s.Course,
			Time:  s.Time.String(),
			Valid: true,
		}
		if err := m.tracker.SetOwnShip(fix); err != nil {
			m.logger.Error().Err(err).Msg("own-ship update failed")
			return
		}
		m.logger.Debug().Str("feed", feedName).Float64("lat", fix.Lat).Float64("lon", fix.Lon).Msg("own-ship fix")
	default:
		// Other GNSS sentence types carry nothing we track.
	}
}

func (m *Marlin) sweepReassembly() error {
	interval := m.opts.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return m.ctx.Err()
		case <-ticker.C:
			for name, p := range m.pipelines {
				if dropped := p.SweepReassembly(); dropped > 0 {
					m.logger.Warn().Str("feed", name).Int("groups", dropped).Msg("dropped aged partial groups")
				}
			}
		}
	}
}

// Stats snapshots the pipeline counters for the status server.
func (m *Marlin) Stats() status.Stats {
	m.mu.Lock()
	errs := make(map[string]uint64, len(m.errorCounts))
	for kind, n := range m.errorCounts {
		errs[string(kind)] = n
	}
	st := status.Stats{
		Records:        m.records,
		SkippedOutputs: m.skippedOutputs,
		Errors:         errs,
	}
	m.mu.Unlock()

	for _, p := range m.pipelines {
		st.PendingGroups += p.PendingGroups()
	}
	st.Vessels = m.tracker.Len()
	return st
}
