// Service polling the PIR motion sensor and the HC-SR04 ultrasonic
// rangefinder, sounding the buzzer when motion is seen or an object comes
// closer than the configured threshold.
//
// Each poll reads both sensors, recomputes the alert state and drives the
// buzzer to match. Sensor changes and alert transitions are published on the
// bus for the alarm, display, api and watchdog services.
package monitor

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ganesh-Jaishi/Samsung-IOT/pubsub"
	"github.com/Ganesh-Jaishi/Samsung-IOT/services"
	"github.com/Ganesh-Jaishi/Samsung-IOT/util"
)

var Clock = func() time.Time {
	return time.Now()
}

const (
	statusMotion     = "Motion Detected!"
	statusTooClose   = "Object too close!"
	statusMonitoring = "Monitoring..."
)

// evaluate combines the instantaneous readings into the alert state and its
// status line. Motion wins the wording when both conditions hold.
func evaluate(motion bool, distance float64, threshold float64) (bool, string) {
	switch {
	case motion:
		return true, statusMotion
	case distance < threshold:
		return true, statusTooClose
	default:
		return false, statusMonitoring
	}
}

// Service monitor
type Service struct {
	Threshold    float64
	Alerting     bool
	StateChanged time.Time

	hw        Hardware
	publisher pubsub.Publisher
	motion    bool
	distance  float64
	status    string
	siren     bool
}

// ID of the service
func (self *Service) ID() string {
	return "monitor"
}

func (self *Service) Initialize(hw Hardware, publisher pubsub.Publisher, threshold float64) {
	self.hw = hw
	self.publisher = publisher
	self.Threshold = threshold
	self.status = statusMonitoring
	self.distance = -1
}

func (self *Service) emitMotion(motion bool) {
	command := "off"
	if motion {
		command = "on"
	}
	fields := pubsub.Fields{
		"source":  "gpio.pir",
		"command": command,
	}
	ev := pubsub.NewEvent("motion", fields)
	services.Config.AddDeviceToEvent(ev)
	self.publisher.Emit(ev)
}

func (self *Service) emitDistance() {
	fields := pubsub.Fields{
		"source":   "gpio.sonar",
		"distance": self.distance,
	}
	ev := pubsub.NewEvent("distance", fields)
	services.Config.AddDeviceToEvent(ev)
	self.publisher.Emit(ev)
}

func (self *Service) emitState(status string) {
	fields := pubsub.Fields{
		"source":  "gpio.monitor",
		"state":   self.stateName(),
		"trigger": status,
	}
	ev := pubsub.NewEvent("state", fields)
	services.Config.AddDeviceToEvent(ev)
	self.publisher.Emit(ev)
}

func (self *Service) stateName() string {
	if self.Alerting {
		return "Alerting"
	}
	return "Monitoring"
}

// iterate is one pass of the monitor loop: sample, evaluate, act.
func (self *Service) iterate(now time.Time) {
	motion := self.hw.ReadMotion()
	distance := self.hw.MeasureDistance()

	if motion != self.motion {
		self.motion = motion
		self.emitMotion(motion)
	}
	self.distance = distance

	alert, status := evaluate(motion, distance, self.Threshold)
	if alert != self.Alerting {
		self.Alerting = alert
		self.StateChanged = now
	}
	// a trigger change while already alerting still gets a line, eg
	// "Object too close!" followed by "Motion Detected!"
	if status != self.status {
		self.status = status
		log.Println(status)
		self.emitState(status)
	}

	// the buzzer tracks the alert state every iteration; the siren latch is
	// OR-ed in so the alarm service can hold it on through a cooldown
	self.hw.SetBuzzer(alert || self.siren)
}

// heartbeat emits the periodic distance reading and cycle line. Before the
// first poll there is no reading to emit.
func (self *Service) heartbeat() {
	if self.distance < 0 {
		return
	}
	self.emitDistance()
	log.Printf("motion=%v distance=%.1fcm alerting=%v", self.motion, self.distance, self.Alerting)
}

// handleCommand latches the siren on command events addressed to the buzzer
// device.
func (self *Service) handleCommand(ev *pubsub.Event) {
	device := services.Config.LookupDeviceName(ev)
	if ident, ok := services.Config.LookupDeviceProtocol(device)["gpio"]; !ok || ident != "buzzer" {
		return
	}
	self.siren = ev.Command() == "on"
	log.Println("Siren switched", ev.Command())
	self.hw.SetBuzzer(self.Alerting || self.siren)
}

func (self *Service) shutdown() {
	self.siren = false
	self.hw.SetBuzzer(false)
	self.hw.Close()
}

// Run the service
func (self *Service) Run() error {
	conf := services.Config.Monitor
	hw, err := OpenHardware(conf)
	if err != nil {
		return err
	}
	self.Initialize(hw, services.Publisher, conf.Threshold)
	defer self.shutdown()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(conf.PollInterval())
	defer ticker.Stop()
	heartbeat := util.NewScheduler(0, conf.EmitEvery())
	commands := services.Subscriber.Subscribe(pubsub.Prefix("command"))

	log.Printf("Monitoring (threshold: %vcm)", self.Threshold)
	for {
		select {
		case <-ticker.C:
			self.iterate(Clock())
		case <-heartbeat.C:
			self.heartbeat()
		case ev := <-commands:
			self.handleCommand(ev)
		case <-sig:
			log.Println("Interrupted, releasing pins")
			return nil
		}
	}
}

func (self *Service) Status(now time.Time) string {
	du := "unknown"
	if !self.StateChanged.IsZero() {
		du = util.ShortDuration(now.Sub(self.StateChanged))
	}
	msg := fmt.Sprintf("%s for %s", self.stateName(), du)
	msg += fmt.Sprintf("\nmotion: %v", self.motion)
	if self.distance < 0 {
		msg += fmt.Sprintf("\ndistance: unknown [alert below %vcm]", self.Threshold)
	} else {
		msg += fmt.Sprintf("\ndistance: %.1fcm [alert below %vcm]", self.distance, self.Threshold)
	}
	return msg
}

func (self *Service) Json(now time.Time) interface{} {
	data := map[string]interface{}{
		"state":     self.stateName(),
		"status":    self.status,
		"motion":    self.motion,
		"threshold": self.Threshold,
	}
	if !self.StateChanged.IsZero() {
		data["changed"] = self.StateChanged
	}
	if self.distance >= 0 {
		data["distance"] = self.distance
	}
	return data
}

func (self *Service) QueryHandlers() services.QueryHandlers {
	return services.QueryHandlers{
		"status": self.queryStatus,
		"help":   services.StaticHandler("status: get status\n"),
	}
}

func (self *Service) queryStatus(q services.Question) services.Answer {
	now := Clock()
	return services.Answer{
		Text: self.Status(now),
		Json: self.Json(now),
	}
}
