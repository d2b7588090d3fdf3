package ais

import (
	"time"

	"github.com/rs/zerolog"
)

// Config bounds the decoder's only mutable state. Zero values pick the
// defaults.
type Config struct {
	ReassemblyTimeout time.Duration
	MaxPendingGroups  int
	MaxPayloadChars   int
	LockTimeout       time.Duration
}

// Observer receives every classified failure together with the offending
// line. It is called synchronously and must be fast.
type Observer func(kind ErrorKind, sentence string)

// Pipeline turns NMEA lines into records: framer, reassembly, armor
// decode, message-type dispatch, envelope merge. Any failure aborts the
// current line only.
type Pipeline struct {
	cfg      Config
	reasm    *Reassembler
	observer Observer
	logger   zerolog.Logger
}

func NewPipeline(cfg Config, observer Observer, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		reasm:    NewReassembler(cfg.ReassemblyTimeout, cfg.MaxPendingGroups, cfg.LockTimeout),
		observer: observer,
		logger:   logger,
	}
}

// Process decodes one line. (nil, nil) means the line was consumed
// without producing a record yet: a fragment parked for reassembly.
func (p *Pipeline) Process(line string) (Record, error) {
	s, err := ParseSentence(line)
	if err != nil {
		return nil, p.fail(err, line)
	}

	full, err := p.reasm.Offer(s)
	if err != nil {
		return nil, p.fail(err, line)
	}
	if full == nil {
		return nil, nil
	}

	rec, err := Decode(full, p.cfg.MaxPayloadChars)
	if err != nil {
		return nil, p.fail(err, line)
	}
	return rec, nil
}

func (p *Pipeline) fail(err error, line string) error {
	if kind := KindOf(err); kind != "" && p.observer != nil {
		p.observer(kind, line)
	}
	return err
}

// SweepReassembly drops aged partial groups and reports each to the
// observer as a reassembly timeout.
func (p *Pipeline) SweepReassembly() int {
	dropped, err := p.reasm.Sweep()
	if err != nil {
		p.logger.Error().Err(err).Msg("reassembly sweep failed")
		return 0
	}
	if p.observer != nil {
		for _, g := range dropped {
			p.observer(KindReassemblyTimeout, g)
		}
	}
	return len(dropped)
}

// PendingGroups reports incomplete multi-fragment groups awaiting more
// fragments.
func (p *Pipeline) PendingGroups() int {
	return p.reasm.Pending()
}
