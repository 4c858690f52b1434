package config

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Ganesh-Jaishi/Samsung-IOT/pubsub"
)

var yml = `
monitor:
  threshold: 45
  interval: 150ms
protocols:
  gpio:
    pir: pir.porch
`

func ExampleOpenRaw() {
	config, _ := OpenRaw([]byte(yml))
	fmt.Println(config.Monitor.Threshold)
	fmt.Println(config.Monitor.PollInterval())
	// Output:
	// 45
	// 150ms
}

func Example_lookupDeviceName() {
	config, _ := OpenRaw([]byte(yml))
	fields := pubsub.Fields{"source": "gpio.pir"}
	ev := pubsub.NewEvent("motion", fields)
	fmt.Println(config.LookupDeviceName(ev))
	// Output:
	// pir.porch
}

func Example_lookupDeviceNameMissing() {
	config, _ := OpenRaw([]byte(yml))
	fields := pubsub.Fields{"source": "gpio.sonar"}
	ev := pubsub.NewEvent("distance", fields)
	fmt.Println(config.LookupDeviceName(ev))
	// Output:
	// gpio.sonar
}

func Example_lookupDeviceProtocol() {
	config := ExampleConfig
	m := config.LookupDeviceProtocol("buzzer.hall")
	s, _ := json.Marshal(m)
	fmt.Println(string(s))
	// Output:
	// {"gpio":"buzzer"}
}

func TestExampleConfig(t *testing.T) {
	conf := ExampleConfig
	assert.Equal(t, 17, conf.Monitor.Pins.Pir)
	assert.Equal(t, 23, conf.Monitor.Pins.Trigger)
	assert.Equal(t, 24, conf.Monitor.Pins.Echo)
	assert.Equal(t, 18, conf.Monitor.Pins.Buzzer)
	assert.Equal(t, float64(30), conf.Monitor.Threshold)
	assert.Equal(t, 200*time.Millisecond, conf.Monitor.PollInterval())
	assert.Equal(t, 30*time.Millisecond, conf.Monitor.EchoTimeout())
	assert.Equal(t, float64(400), conf.Monitor.MaxRange())
	assert.Equal(t, "buzzer.hall", conf.Alarm.Siren)
	assert.NotEmpty(t, conf.Alarm.Automata)
}

func TestDeviceCaps(t *testing.T) {
	conf := ExampleConfig
	dev := conf.Devices["buzzer.hall"]
	assert.Equal(t, "buzzer.hall", dev.Id)
	assert.Equal(t, "buzzer", dev.Type)
	assert.True(t, dev.Cap["buzzer"])
	assert.True(t, dev.IsSwitchable())
	pir := conf.Devices["pir.hall"]
	assert.False(t, pir.IsSwitchable())
}

func TestDefaults(t *testing.T) {
	conf, err := OpenRaw([]byte(`monitor: {threshold: 30}`))
	assert.NoError(t, err)
	assert.Equal(t, DefaultInterval, conf.Monitor.PollInterval())
	assert.Equal(t, DefaultEchoTimeout, conf.Monitor.EchoTimeout())
	assert.Equal(t, DefaultEvery, conf.Monitor.EmitEvery())
	assert.Equal(t, float64(DefaultMaxRange), conf.Monitor.MaxRange())
}

func TestMaxRangeBelowThreshold(t *testing.T) {
	conf, err := OpenRaw([]byte(`monitor: {threshold: 30, max_range: 20}`))
	assert.NoError(t, err)
	assert.Equal(t, float64(30), conf.Monitor.MaxRange())

	conf, err = OpenRaw([]byte(`monitor: {threshold: 30, max_range: 400}`))
	assert.NoError(t, err)
	assert.Equal(t, float64(400), conf.Monitor.MaxRange())
}

func TestBadYaml(t *testing.T) {
	_, err := OpenRaw([]byte("monitor: ["))
	assert.Error(t, err)
}

func TestBadDuration(t *testing.T) {
	_, err := OpenRaw([]byte("monitor: {interval: xyz}"))
	assert.Error(t, err)
}
