package output

import (
	"context"
	"encoding/json"
	"io"

	"github.com/seastack/marlin/pkg/ais"
)

// SimpleRecordOutput writes newline-delimited JSON records to a writer,
// optionally filtered to a set of message types.
type SimpleRecordOutput struct {
	dest       io.Writer
	recvChan   chan ais.Record
	typeFilter map[int]struct{}
}

func NewSimpleRecordOutput(dest io.Writer, messageTypes []int) *SimpleRecordOutput {
	ret := &SimpleRecordOutput{
		dest:     dest,
		recvChan: make(chan ais.Record, receiveBuffer),
	}
	if len(messageTypes) > 0 {
		ret.typeFilter = make(map[int]struct{})
		for _, mt := range messageTypes {
			ret.typeFilter[mt] = struct{}{}
		}
	}
	return ret
}

func (s *SimpleRecordOutput) Receive() chan<- ais.Record {
	return s.recvChan
}

func (s *SimpleRecordOutput) Start(ctx context.Context) error {
	enc := json.NewEncoder(s.dest)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec := <-s.recvChan:
			if s.typeFilter != nil {
				if _, ok := s.typeFilter[rec.MessageType()]; !ok {
					continue
				}
			}
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
	}
}
