package config

import "time"

// Duration lets config files use "60s" style values; yaml.v2 has no
// native time.Duration support.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	Feeds        []Feed  `yaml:"feeds"`
	Outputs      Outputs `yaml:"outputs"`
	Decoder      Decoder `yaml:"decoder"`
	StatusServer struct {
		Port int `yaml:"port"`
	} `yaml:"status_server"`
	InfluxDB struct {
		Host         string `yaml:"host"`
		Organization string `yaml:"organization"`
		Bucket       string `yaml:"bucket"`
	} `yaml:"influxdb"`
}

// Feed selects and parameterizes one line feed. Type is one of "tcp",
// "file", "serial", "ws"; the remaining fields apply per type.
type Feed struct {
	Type string `yaml:"type"`
	Name string `yaml:"name"`

	// tcp
	Addr      string   `yaml:"addr"`
	RetryWait Duration `yaml:"retry_wait"`

	// file
	Path      string   `yaml:"path"`
	LineDelay Duration `yaml:"line_delay"`

	// serial
	Device string `yaml:"device"`
	Baud   uint   `yaml:"baud"`

	// ws
	URL string `yaml:"url"`
}

type Outputs struct {
	UDP         []Destination `yaml:"udp"`
	MQTT        MQTT          `yaml:"mqtt"`
	Stdout      bool          `yaml:"stdout"`
	StdoutTypes []int         `yaml:"stdout_types,flow"`
}

type Destination struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type MQTT struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
}

type Decoder struct {
	ReassemblyTimeout Duration `yaml:"reassembly_timeout"`
	MaxPendingGroups  int      `yaml:"max_pending_groups"`
	MaxPayloadChars   int      `yaml:"max_payload_chars"`
	LockTimeout       Duration `yaml:"lock_timeout"`
	SweepInterval     Duration `yaml:"sweep_interval"`
}
