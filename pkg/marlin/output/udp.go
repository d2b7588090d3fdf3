// Package output implements sinks for decoded AIS records.
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/rs/zerolog/log"

	"github.com/seastack/marlin/pkg/ais"
)

const receiveBuffer = 8

// Destination is one UDP receiver of the JSON record stream.
type Destination struct {
	Host string
	Port int
}

// RecordUDPOutput sends each record as one JSON-lines datagram to every
// destination.
type RecordUDPOutput struct {
	dests    []Destination
	recvChan chan ais.Record
	metrics  api.WriteAPI
}

func NewRecordUDPOutput(dests []Destination, metrics api.WriteAPI) *RecordUDPOutput {
	return &RecordUDPOutput{
		dests:    dests,
		recvChan: make(chan ais.Record, receiveBuffer),
		metrics:  metrics,
	}
}

func (o *RecordUDPOutput) Receive() chan<- ais.Record {
	return o.recvChan
}

func (o *RecordUDPOutput) Start(ctx context.Context) error {
	destAddrs := make([]*net.UDPAddr, 0, len(o.dests))
	for _, dest := range o.dests {
		ips, err := net.LookupIP(dest.Host)
		if err != nil {
			return err
		}
		if len(ips) == 0 {
			return fmt.Errorf("no IPs returned for %s", dest.Host)
		}

		destAddr := &net.UDPAddr{IP: ips[0], Port: dest.Port}
		destAddrs = append(destAddrs, destAddr)
		log.Info().IPAddr("dest_ip", destAddr.IP).Int("port", dest.Port).Msg("udp record output starting")
	}

	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec := <-o.recvChan:
			encoded, err := json.Marshal(rec)
			if err != nil {
				log.Warn().Err(err).Msg("error marshaling record")
				continue
			}
			encoded = append(encoded, '\n')

			success := true
			var bytesWritten int
			for _, destAddr := range destAddrs {
				bytesWritten, err = conn.WriteToUDP(encoded, destAddr)
				if err != nil {
					log.Error().Err(err).Msg("error writing record datagram")
					success = false
				}
			}

			go o.metrics.WritePoint(influxdb2.NewPoint("ais.record.sent",
				map[string]string{
					"output":       "udp",
					"message_type": strconv.Itoa(rec.MessageType()),
				},
				map[string]interface{}{
					"bytes_written": bytesWritten,
					"sent": func() int {
						if success {
							return 1
						}
						return 0
					}(),
					"dropped": func() int {
						if success {
							return 0
						}
						return 1
					}(),
				}, time.Now()))
		}
	}
}
