// Package track correlates decoded AIS records into long-lived vessel
// entries keyed by MMSI, merging static and voyage data with position
// reports as they arrive on any feed.
package track

import (
	"net"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/seastack/marlin/pkg/ais"
	"github.com/seastack/marlin/pkg/util"
)

// Not-available sentinels from the wire format, after scaling.
const (
	lonNotAvailable     = 181.0
	latNotAvailable     = 91.0
	sogNotAvailable     = 102.3
	cogNotAvailable     = 360.0
	headingNotAvailable = 511
)

// Vessel is the tracked state for one MMSI.
type Vessel struct {
	MMSI        uint32    `json:"mmsi"`
	MAC         string    `json:"mac"`
	Name        string    `json:"name,omitempty"`
	Callsign    string    `json:"callsign,omitempty"`
	IMONumber   uint32    `json:"imo_number,omitempty"`
	ShipType    uint32    `json:"ship_type,omitempty"`
	NavStatus   int       `json:"nav_status"`
	Destination string    `json:"destination,omitempty"`
	ETA         string    `json:"eta,omitempty"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	HasPosition bool      `json:"has_position"`
	SOG         float64   `json:"sog"`
	COG         float64   `json:"cog"`
	Heading     int       `json:"heading"`
	LastSeen    time.Time `json:"last_seen"`
	Messages    uint64    `json:"messages"`
}

// OwnShip is the receiver's own GNSS fix, when the feed interleaves one.
type OwnShip struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	SOG   float64 `json:"sog"`
	COG   float64 `json:"cog"`
	Time  string  `json:"time"`
	Valid bool    `json:"valid"`
}

// Tracker holds the vessel table. It is shared between the pipeline and
// the status server, so it carries a bounded-acquisition lock: a stuck
// reader must not wedge decoding.
type Tracker struct {
	mu      *util.TimedMutex
	vessels map[uint32]*Vessel
	ownShip OwnShip
	logger  zerolog.Logger
	now     func() time.Time
}

func NewTracker(lockTimeout time.Duration, logger zerolog.Logger) *Tracker {
	return &Tracker{
		mu:      util.NewTimedMutex("vessel_table", lockTimeout),
		vessels: make(map[uint32]*Vessel),
		logger:  logger,
		now:     time.Now,
	}
}

// Update folds one decoded record into the vessel table. Records without
// an MMSI are ignored.
func (t *Tracker) Update(rec ais.Record) error {
	mmsi, ok := rec.MMSI()
	if !ok {
		return nil
	}

	if err := t.mu.Lock("tracker_update"); err != nil {
		return err
	}
	defer t.mu.Unlock()

	v, ok := t.vessels[mmsi]
	if !ok {
		v = &Vessel{
			MMSI:      mmsi,
			MAC:       MACFromMMSI(mmsi).String(),
			NavStatus: -1,
			Heading:   -1,
		}
		t.vessels[mmsi] = v
		t.logger.Info().Uint32("mmsi", mmsi).Str("mac", v.MAC).Msg("new vessel")
	}
	v.Messages++
	v.LastSeen = t.now()

	if lat, ok := rec.Float(ais.FieldLat); ok {
		if lon, ok := rec.Float(ais.FieldLon); ok && lat != latNotAvailable && lon != lonNotAvailable {
			v.Lat, v.Lon = lat, lon
			v.HasPosition = true
		}
	}
	if sog, ok := rec.Float(ais.FieldSOG); ok && sog != sogNotAvailable {
		v.SOG = sog
	}
	if cog, ok := rec.Float(ais.FieldCOG); ok && cog < cogNotAvailable {
		v.COG = cog
	}
	if hdg, ok := rec.Uint(ais.FieldTrueHeading); ok && hdg != headingNotAvailable {
		v.Heading = int(hdg)
	}
	if ns, ok := rec.Uint(ais.FieldNavStatus); ok {
		v.NavStatus = int(ns)
	}

	if name, ok := rec.String(ais.FieldVesselName); ok && name != "" {
		if v.Name == "" {
			t.logger.Info().Uint32("mmsi", mmsi).Str("name", name).Msg("vessel identified")
		}
		v.Name = name
	}
	if callsign, ok := rec.String(ais.FieldCallsign); ok && callsign != "" {
		v.Callsign = callsign
	}
	if imo, ok := rec.Uint(ais.FieldIMONumber); ok && imo > 0 {
		v.IMONumber = uint32(imo)
	}
	if st, ok := rec.Uint(ais.FieldShipType); ok && st > 0 {
		v.ShipType = uint32(st)
	}
	if dest, ok := rec.String(ais.FieldDestination); ok && dest != "" {
		v.Destination = dest
	}
	if eta, ok := rec.String(ais.FieldETAStr); ok {
		v.ETA = eta
	}
	return nil
}

// SetOwnShip records the receiver's own GNSS fix.
func (t *Tracker) SetOwnShip(fix OwnShip) error {
	if err := t.mu.Lock("set_own_ship"); err != nil {
		return err
	}
	defer t.mu.Unlock()
	t.ownShip = fix
	return nil
}

// OwnShip returns the last own-ship fix.
func (t *Tracker) OwnShip() (OwnShip, error) {
	if err := t.mu.Lock("get_own_ship"); err != nil {
		return OwnShip{}, err
	}
	defer t.mu.Unlock()
	return t.ownShip, nil
}

// Snapshot copies the vessel table, ordered by MMSI.
func (t *Tracker) Snapshot() ([]Vessel, error) {
	if err := t.mu.Lock("snapshot"); err != nil {
		return nil, err
	}
	defer t.mu.Unlock()

	out := make([]Vessel, 0, len(t.vessels))
	for _, v := range t.vessels {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MMSI < out[j].MMSI })
	return out, nil
}

// Len reports the number of tracked vessels.
func (t *Tracker) Len() int {
	if err := t.mu.Lock("len"); err != nil {
		return 0
	}
	defer t.mu.Unlock()
	return len(t.vessels)
}

// MACFromMMSI derives the locally administered synthetic MAC for a
// vessel: the fixed prefix 02:41:49 followed by the low three bytes of
// the MMSI.
func MACFromMMSI(mmsi uint32) net.HardwareAddr {
	return net.HardwareAddr{0x02, 0x41, 0x49, byte(mmsi >> 16), byte(mmsi >> 8), byte(mmsi)}
}
