package watchdog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Ganesh-Jaishi/Samsung-IOT/config"
	"github.com/Ganesh-Jaishi/Samsung-IOT/pubsub"
	"github.com/Ganesh-Jaishi/Samsung-IOT/pubsub/dummy"
	"github.com/Ganesh-Jaishi/Samsung-IOT/services"
)

func Example_interfaces() {
	var _ services.Service = (*Service)(nil)
	var _ services.Queryable = (*Service)(nil)
	// Output:
}

var now = time.Date(2017, 9, 26, 19, 24, 22, 0, time.UTC)

func Setup() *dummy.Publisher {
	services.Config = config.ExampleConfig
	em := &dummy.Publisher{}
	services.Publisher = em
	Clock = func() time.Time { return now }
	setup()
	return em
}

func TestSetup(t *testing.T) {
	Setup()
	assert.Len(t, devices, 2)
	assert.Equal(t, "Hallway PIR", devices["pir.hall"].Name)
	assert.Equal(t, 12*time.Hour, devices["pir.hall"].Timeout)
	assert.Equal(t, time.Minute, devices["sonar.hall"].Timeout)
	assert.Equal(t, now, devices["pir.hall"].LastEvent)
}

func TestHeartbeatName(t *testing.T) {
	Setup()
	services.Config.Watchdog.Devices["heartbeat.monitor"] = "121s"
	defer delete(services.Config.Watchdog.Devices, "heartbeat.monitor")
	setup()
	assert.Equal(t, "Service monitor", devices["heartbeat.monitor"].Name)
	assert.Equal(t, 121*time.Second, devices["heartbeat.monitor"].Timeout)
}

func TestCheckEvent(t *testing.T) {
	Setup()
	ev := pubsub.NewEvent("distance", pubsub.Fields{"source": "gpio.sonar", "distance": 45.0, "timestamp": "2017-09-26 19:25:00.000"})
	checkEvent(ev)
	assert.Equal(t, ev.Timestamp, devices["sonar.hall"].LastEvent)
	// untracked devices are ignored
	checkEvent(pubsub.NewEvent("motion", pubsub.Fields{"device": "pir.landing", "command": "on"}))
}

func TestTimeoutAndRecover(t *testing.T) {
	em := Setup()

	// within the timeout - quiet
	now = now.Add(30 * time.Second)
	checkTimeouts()
	assert.Empty(t, em.Events)

	// sonar falls silent past its 1m timeout
	now = now.Add(2 * time.Minute)
	checkTimeouts()
	assert.Len(t, em.Events, 1)
	alert := em.Events[0]
	assert.Equal(t, "alert", alert.Topic)
	assert.Contains(t, alert.StringField("message"), "PROBLEM")
	assert.Contains(t, alert.StringField("message"), "Hallway rangefinder")
	assert.True(t, devices["sonar.hall"].Alerted)

	// no repeat within the repeat interval
	now = now.Add(time.Minute)
	checkTimeouts()
	assert.Len(t, em.Events, 1)

	// an event from the device recovers it
	ev := pubsub.NewEvent("distance", pubsub.Fields{"source": "gpio.sonar", "distance": 45.0})
	ev.Timestamp = now
	checkEvent(ev)
	assert.False(t, devices["sonar.hall"].Alerted)
	assert.Len(t, em.Events, 2)
	assert.Contains(t, em.Events[1].StringField("message"), "RECOVERED")
}

func TestAlertsIgnored(t *testing.T) {
	Setup()
	before := devices["sonar.hall"].LastEvent
	checkEvent(pubsub.NewEvent("alert", pubsub.Fields{"source": "gpio.sonar", "message": "PROBLEM"}))
	assert.Equal(t, before, devices["sonar.hall"].LastEvent)
}

func TestQueryStatus(t *testing.T) {
	Setup()
	now = now.Add(5 * time.Minute)
	service := &Service{}
	out := service.queryStatus(services.Question{})
	assert.Contains(t, out, "Hallway PIR")
	assert.Contains(t, out, "Hallway rangefinder")
	assert.Contains(t, out, "5m")
}
