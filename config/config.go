package config

import (
	"io"
	"io/ioutil"
	"os"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/Ganesh-Jaishi/Samsung-IOT/pubsub"
	"github.com/Ganesh-Jaishi/Samsung-IOT/util"
)

type DeviceConf struct {
	Id       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Group    string   `json:"group"`
	Location string   `json:"location"`
	Aliases  []string `json:"aliases"`
	Caps     []string `json:"caps"`
	Cap      map[string]bool `json:"-" yaml:"-"`
}

func (device *DeviceConf) IsSwitchable() bool {
	return device.Cap["switch"] || device.Cap["buzzer"]
}

type EndpointsConf struct {
	Mqtt struct {
		Broker string
	}
	Api string
}

// Duration wraps time.Duration for yaml config values like '250ms'.
type Duration struct {
	Duration time.Duration
}

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var value string
	if err := unmarshal(&value); err != nil {
		return err
	}
	val, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	d.Duration = val
	return nil
}

type PinsConf struct {
	Pir     int
	Trigger int
	Echo    int
	Buzzer  int
}

type MonitorConf struct {
	Pins         PinsConf
	Threshold    float64
	Max_Range    float64
	Interval     *Duration
	Echo_Timeout *Duration
	Every        *Duration
}

// Hardware poll defaults, used when the config leaves them out.
const (
	DefaultInterval    = 200 * time.Millisecond
	DefaultEchoTimeout = 30 * time.Millisecond
	DefaultEvery       = 5 * time.Second
	DefaultMaxRange    = 400 // cm, HC-SR04 rated limit
)

func (conf *MonitorConf) PollInterval() time.Duration {
	if conf.Interval != nil {
		return conf.Interval.Duration
	}
	return DefaultInterval
}

func (conf *MonitorConf) EchoTimeout() time.Duration {
	if conf.Echo_Timeout != nil {
		return conf.Echo_Timeout.Duration
	}
	return DefaultEchoTimeout
}

func (conf *MonitorConf) EmitEvery() time.Duration {
	if conf.Every != nil {
		return conf.Every.Duration
	}
	return DefaultEvery
}

func (conf *MonitorConf) MaxRange() float64 {
	max := float64(DefaultMaxRange)
	if conf.Max_Range > 0 {
		max = conf.Max_Range
	}
	// the echo timeout sentinel must never read as proximity
	if max < conf.Threshold {
		return conf.Threshold
	}
	return max
}

type AlarmConf struct {
	Automata string
	Siren    string
}

type WatchdogConf struct {
	Devices map[string]string
}

// Configuration structure
type Config struct {
	Devices   map[string]DeviceConf
	Protocols map[string]map[string]string
	Endpoints EndpointsConf
	Monitor   MonitorConf
	Alarm     AlarmConf
	Watchdog  WatchdogConf
}

// Open configuration from disk.
func Open() (*Config, error) {
	file, err := os.Open(ConfigPath("sentry.yml"))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return OpenReader(file)
}

// Open configuration from a reader.
func OpenReader(r io.Reader) (*Config, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return OpenRaw(data)
}

// Open configuration from []byte.
func OpenRaw(data []byte) (*Config, error) {
	self := &Config{}
	err := yaml.Unmarshal(data, self)
	if err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}

	for id, device := range self.Devices {
		device.Id = id
		if len(device.Caps) == 0 {
			major := strings.Split(id, ".")[0]
			device.Caps = []string{major}
		}
		device.Type = device.Caps[0]
		device.Cap = map[string]bool{}
		for _, c := range device.Caps {
			device.Cap[c] = true
		}
		self.Devices[id] = device
	}

	return self, nil
}

func Must(config *Config, err error) *Config {
	if err != nil {
		panic(err)
	}
	return config
}

// LookupDeviceName resolves the device name for an event: an explicit device
// field wins, otherwise the protocol mapping resolves source, falling back
// to the raw source.
func (self *Config) LookupDeviceName(ev *pubsub.Event) string {
	if device := ev.Device(); device != "" {
		return device
	}
	source := ev.Source()
	ps := strings.SplitN(source, ".", 2)
	if len(ps) == 2 {
		if device := self.Protocols[ps[0]][ps[1]]; device != "" {
			return device
		}
	}
	return source
}

func (self *Config) AddDeviceToEvent(ev *pubsub.Event) {
	device := self.LookupDeviceName(ev)
	if device != "" {
		ev.SetField("device", device)
	}
}

// Find the protocol and identifier by device name
func (self *Config) LookupDeviceProtocol(matchName string) map[string]string {
	ret := map[string]string{}
	for protocol, value := range self.Protocols {
		for id, name := range value {
			if name == matchName {
				ret[protocol] = id
			}
		}
	}
	return ret
}

// helpers

// Resolve a configuration file under .config/sentry
func ConfigPath(p string) string {
	config := os.Getenv("XDG_CONFIG_HOME")
	if config == "" {
		config = path.Join(os.Getenv("HOME"), ".config")
	}
	return path.Join(config, "sentry", p)
}

// Get path to a log file
func LogPath(p string) string {
	return path.Join(util.ExpandUser("~/sentry/log"), p)
}
