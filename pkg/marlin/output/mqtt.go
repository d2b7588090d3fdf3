package output

import (
	"context"
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/rs/zerolog/log"

	"github.com/seastack/marlin/pkg/ais"
)

const disconnectQuiesceMillis = 250

// MQTTOutput publishes each record as JSON to one topic.
type MQTTOutput struct {
	broker   string
	clientID string
	topic    string
	recvChan chan ais.Record
	metrics  api.WriteAPI
}

func NewMQTTOutput(broker, clientID, topic string, metrics api.WriteAPI) *MQTTOutput {
	if clientID == "" {
		clientID = "marlin-ais"
	}
	return &MQTTOutput{
		broker:   broker,
		clientID: clientID,
		topic:    topic,
		recvChan: make(chan ais.Record, receiveBuffer),
		metrics:  metrics,
	}
}

func (o *MQTTOutput) Receive() chan<- ais.Record {
	return o.recvChan
}

func (o *MQTTOutput) Start(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(o.broker).
		SetClientID(o.clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(disconnectQuiesceMillis)
	log.Info().Str("broker", o.broker).Str("topic", o.topic).Msg("mqtt record output connected")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec := <-o.recvChan:
			payload, err := json.Marshal(rec)
			if err != nil {
				log.Warn().Err(err).Msg("error marshaling record")
				continue
			}

			token := client.Publish(o.topic, 0, false, payload)
			token.Wait()
			published := 1
			if err := token.Error(); err != nil {
				log.Warn().Err(err).Str("topic", o.topic).Msg("mqtt publish failed")
				published = 0
			}

			go o.metrics.WritePoint(influxdb2.NewPoint("ais.record.sent",
				map[string]string{"output": "mqtt"},
				map[string]interface{}{
					"bytes_written": len(payload),
					"sent":          published,
					"dropped":       1 - published,
				}, time.Now()))
		}
	}
}
