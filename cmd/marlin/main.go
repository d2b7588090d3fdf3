package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"golang.org/x/sync/errgroup"

	"github.com/seastack/marlin/pkg/ais"
	"github.com/seastack/marlin/pkg/marlin"
	"github.com/seastack/marlin/pkg/marlin/config"
	"github.com/seastack/marlin/pkg/marlin/feed"
	filefeed "github.com/seastack/marlin/pkg/marlin/feed/file"
	serialfeed "github.com/seastack/marlin/pkg/marlin/feed/serial"
	tcpfeed "github.com/seastack/marlin/pkg/marlin/feed/tcp"
	wsfeed "github.com/seastack/marlin/pkg/marlin/feed/ws"
	"github.com/seastack/marlin/pkg/marlin/output"
	"github.com/seastack/marlin/pkg/util"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)
	configFile := flag.String("config", "marlin.yaml", "YAML config file")
	debug := flag.Bool("debug", false, "debug logging")

	flag.Parse()
	if configFile == nil {
		flag.Usage()
		os.Exit(1)
	}
	if *debug {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	}

	configContents, err := os.ReadFile(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("error reading config file")
	}
	var opts config.Config
	if err := yaml.Unmarshal(configContents, &opts); err != nil {
		log.Fatal().Err(err).Msg("error unmarshaling yaml file")
	}

	feeds, err := buildFeeds(opts.Feeds)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build feeds")
	}

	var writeAPI api.WriteAPI = &util.MockWriteAPI{}
	if opts.InfluxDB.Host != "" {
		writeAPI = influxdb2.NewClient(opts.InfluxDB.Host, "").WriteAPI(opts.InfluxDB.Organization, opts.InfluxDB.Bucket)
	}

	var outputs []marlin.Output
	if len(opts.Outputs.UDP) > 0 {
		dests := make([]output.Destination, 0, len(opts.Outputs.UDP))
		for _, d := range opts.Outputs.UDP {
			dests = append(dests, output.Destination{Host: d.Host, Port: d.Port})
		}
		outputs = append(outputs, output.NewRecordUDPOutput(dests, writeAPI))
	}
	if opts.Outputs.MQTT.Broker != "" {
		outputs = append(outputs, output.NewMQTTOutput(
			opts.Outputs.MQTT.Broker,
			opts.Outputs.MQTT.ClientID,
			opts.Outputs.MQTT.Topic,
			writeAPI))
	}
	if opts.Outputs.Stdout {
		outputs = append(outputs, output.NewSimpleRecordOutput(os.Stdout, opts.Outputs.StdoutTypes))
	}

	engine, err := marlin.New(feeds,
		marlin.Options{
			Outputs: outputs,
			Decoder: ais.Config{
				ReassemblyTimeout: opts.Decoder.ReassemblyTimeout.Std(),
				MaxPendingGroups:  opts.Decoder.MaxPendingGroups,
				MaxPayloadChars:   opts.Decoder.MaxPayloadChars,
				LockTimeout:       opts.Decoder.LockTimeout.Std(),
			},
			SweepInterval: opts.Decoder.SweepInterval.Std(),
		},
		marlin.WithInfluxDB(writeAPI),
		marlin.WithStatusServer(opts.StatusServer.Port),
		marlin.WithLogger(log.Logger))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create engine")
	}

	eg, ctx := errgroup.WithContext(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	eg.Go(func() error {
		select {
		case <-sigChan:
		case <-ctx.Done():
		}

		return engine.Stop()
	})

	eg.Go(func() error {
		return engine.Start(ctx)
	})

	if err := eg.Wait(); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("exited program")
	}
}

func buildFeeds(cfgs []config.Feed) ([]feed.Feed, error) {
	var feeds []feed.Feed
	for i, fc := range cfgs {
		name := fc.Name
		if name == "" {
			name = fmt.Sprintf("%s%d", fc.Type, i)
		}
		switch fc.Type {
		case "tcp":
			feeds = append(feeds, tcpfeed.New(name, fc.Addr, fc.RetryWait.Std(), log.Logger))
		case "file":
			f, err := filefeed.New(name, fc.Path, fc.LineDelay.Std())
			if err != nil {
				return nil, err
			}
			feeds = append(feeds, f)
		case "serial":
			feeds = append(feeds, serialfeed.New(name, fc.Device, fc.Baud, log.Logger))
		case "ws":
			feeds = append(feeds, wsfeed.New(name, fc.URL, fc.RetryWait.Std(), log.Logger))
		default:
			return nil, fmt.Errorf("unrecognized feed type: %s", fc.Type)
		}
	}
	return feeds, nil
}
