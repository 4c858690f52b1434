package monitor

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Ganesh-Jaishi/Samsung-IOT/config"
	"github.com/Ganesh-Jaishi/Samsung-IOT/pubsub"
	"github.com/Ganesh-Jaishi/Samsung-IOT/pubsub/dummy"
	"github.com/Ganesh-Jaishi/Samsung-IOT/services"
)

type fakeHardware struct {
	motion   bool
	distance float64
	buzzer   bool
	closed   bool
}

func (hw *fakeHardware) ReadMotion() bool         { return hw.motion }
func (hw *fakeHardware) MeasureDistance() float64 { return hw.distance }
func (hw *fakeHardware) SetBuzzer(on bool)        { hw.buzzer = on }
func (hw *fakeHardware) Close()                   { hw.closed = true }

var (
	t0 = time.Date(2014, 1, 4, 16, 0, 0, 0, time.UTC)
	t1 = time.Date(2014, 1, 4, 16, 10, 0, 0, time.UTC)
)

var (
	hw      *fakeHardware
	em      *dummy.Publisher
	service *Service
)

func Setup() {
	services.Config = config.ExampleConfig
	hw = &fakeHardware{distance: 400}
	em = &dummy.Publisher{}
	service = &Service{}
	service.Initialize(hw, em, 30)
}

func Example_interfaces() {
	var _ services.Service = (*Service)(nil)
	var _ services.Queryable = (*Service)(nil)
	// Output:
}

func TestEvaluate(t *testing.T) {
	// distance below threshold alerts regardless of motion
	for _, motion := range []bool{false, true} {
		alert, _ := evaluate(motion, 20, 30)
		assert.True(t, alert)
	}
	// motion alerts regardless of distance
	for _, distance := range []float64{10, 50, 400} {
		alert, status := evaluate(true, distance, 30)
		assert.True(t, alert)
		assert.Equal(t, statusMotion, status)
	}
	// neither condition
	alert, status := evaluate(false, 30, 30)
	assert.False(t, alert)
	assert.Equal(t, statusMonitoring, status)
}

func TestPulseToDistance(t *testing.T) {
	// 1750µs round trip is ~30cm
	d := pulseToDistance(1750*time.Microsecond, 400)
	assert.InDelta(t, 30.0, d, 0.1)

	// long pulses clamp to max range, which never reads as proximity
	d = pulseToDistance(time.Second, 400)
	assert.Equal(t, 400.0, d)
	alert, _ := evaluate(false, d, 30)
	assert.False(t, alert)
}

func TestEchoTimeoutBelowThreshold(t *testing.T) {
	// a max range configured under the threshold must not turn every echo
	// timeout into a proximity alert
	conf, err := config.OpenRaw([]byte(`monitor: {threshold: 30, max_range: 20}`))
	assert.NoError(t, err)
	d := pulseToDistance(time.Second, conf.Monitor.MaxRange())
	assert.Equal(t, 30.0, d)
	alert, status := evaluate(false, d, conf.Monitor.Threshold)
	assert.False(t, alert)
	assert.Equal(t, statusMonitoring, status)
}

func TestScenario(t *testing.T) {
	Setup()

	steps := []struct {
		motion   bool
		distance float64
		buzzer   bool
		status   string
	}{
		{false, 50, false, statusMonitoring},
		{false, 20, true, statusTooClose},
		{true, 50, true, statusMotion},
		{false, 50, false, statusMonitoring},
	}
	for i, step := range steps {
		hw.motion = step.motion
		hw.distance = step.distance
		service.iterate(t0.Add(time.Duration(i) * time.Second))
		assert.Equal(t, step.buzzer, hw.buzzer, "step %d buzzer", i)
		assert.Equal(t, step.status, service.status, "step %d status", i)
	}

	// every status change gets a state event, including the trigger change
	// while already alerting at step 3
	var states, triggers []string
	for _, ev := range em.Events {
		if ev.Topic == "state" {
			states = append(states, ev.State())
			triggers = append(triggers, ev.StringField("trigger"))
		}
	}
	assert.Equal(t, []string{"Alerting", "Alerting", "Monitoring"}, states)
	assert.Equal(t, []string{statusTooClose, statusMotion, statusMonitoring}, triggers)
}

func TestMotionEvents(t *testing.T) {
	Setup()
	hw.motion = true
	service.iterate(t0)
	hw.motion = false
	service.iterate(t0.Add(time.Second))

	var commands []string
	for _, ev := range em.Events {
		if ev.Topic == "motion" {
			commands = append(commands, ev.Command())
			assert.Equal(t, "pir.hall", ev.Device())
		}
	}
	assert.Equal(t, []string{"on", "off"}, commands)
}

func TestHeartbeatBeforeFirstPoll(t *testing.T) {
	Setup()

	// the scheduler can fire before the first poll tick - no reading yet
	service.heartbeat()
	assert.Empty(t, em.Events)

	hw.distance = 50
	service.iterate(t0)
	service.heartbeat()
	var distances []float64
	for _, ev := range em.Events {
		if ev.Topic == "distance" {
			distances = append(distances, ev.FloatField("distance"))
		}
	}
	assert.Equal(t, []float64{50}, distances)
}

func TestSirenCommand(t *testing.T) {
	Setup()
	service.iterate(t0)
	assert.False(t, hw.buzzer)

	on := pubsub.NewCommand("buzzer.hall", "on")
	service.handleCommand(on)
	assert.True(t, hw.buzzer)

	// the latch holds across iterations without an alert
	service.iterate(t0.Add(time.Second))
	assert.True(t, hw.buzzer)

	off := pubsub.NewCommand("buzzer.hall", "off")
	service.handleCommand(off)
	assert.False(t, hw.buzzer)

	// commands for other devices are ignored
	other := pubsub.NewCommand("light.porch", "on")
	service.handleCommand(other)
	assert.False(t, hw.buzzer)
}

func TestShutdownSilencesBuzzer(t *testing.T) {
	Setup()
	hw.motion = true
	service.iterate(t0)
	assert.True(t, hw.buzzer)

	// interrupt during ALERTING: buzzer must end off, pins released
	service.shutdown()
	assert.False(t, hw.buzzer)
	assert.True(t, hw.closed)
}

func ExampleService_Status() {
	Setup()
	hw.distance = 50
	service.iterate(t0)
	fmt.Println(service.Status(t0))
	hw.distance = 20
	service.iterate(t0)
	fmt.Println(service.Status(t1))
	// Output:
	// Monitoring for unknown
	// motion: false
	// distance: 50.0cm [alert below 30cm]
	// Alerting for 10m
	// motion: false
	// distance: 20.0cm [alert below 30cm]
}

func Example_queryStatusJson() {
	Setup()
	Clock = func() time.Time { return t1 }
	hw.distance = 20
	service.iterate(t0)
	q := services.Question{Verb: "status"}
	data := service.queryStatus(q).Json
	s, _ := json.Marshal(data)
	fmt.Println(string(s))
	// Output:
	// {"changed":"2014-01-04T16:00:00Z","distance":20,"motion":false,"state":"Alerting","status":"Object too close!","threshold":30}
}
