// Service for monitoring devices to ensure they're still alive and emitting
// events. Watches a given list of device ids, and alerts if an event has not
// been seen from a device in a configurable time period. Service heartbeats
// can be watched the same way, under their heartbeat.<service> device ids.
//
// Alerts go out on the bus, so they show up on the display and the api event
// feed rather than disappearing into a mailbox nobody reads.
package watchdog

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/Ganesh-Jaishi/Samsung-IOT/pubsub"
	"github.com/Ganesh-Jaishi/Samsung-IOT/services"
	"github.com/Ganesh-Jaishi/Samsung-IOT/util"
)

var Clock = func() time.Time {
	return time.Now()
}

type WatchdogDevice struct {
	Name        string
	Timeout     time.Duration
	Alerted     bool
	LastAlerted time.Time
	LastEvent   time.Time
}

type WatchdogDevices []*WatchdogDevice

func (self WatchdogDevices) Less(i, j int) bool {
	return self[i].LastEvent.Before(self[j].LastEvent)
}

func (self WatchdogDevices) Len() int {
	return len(self)
}

func (self WatchdogDevices) Swap(i, j int) {
	self[i], self[j] = self[j], self[i]
}

var devices map[string]*WatchdogDevice
var repeatInterval = 12 * time.Hour

func sendAlert(name, state string, since time.Time) {
	log.Printf("Sending %s watchdog alert for: %s\n", state, name)
	duration := Clock().Sub(since)
	msg := fmt.Sprintf("%s: %s since %s (%s ago)", state, name,
		since.Local().Format(time.Stamp), util.ShortDuration(duration))
	services.SendAlert(msg, "watchdog", "", 0)
}

func checkEvent(ev *pubsub.Event) {
	// ignore alerts, or our own problem reports feed back in
	if ev.Topic == "alert" {
		return
	}
	device := services.Config.LookupDeviceName(ev)
	w := devices[device]
	if w == nil {
		return
	}

	// recovered?
	if w.Alerted {
		w.Alerted = false
		sendAlert(w.Name, "RECOVERED", w.LastEvent)
	}
	w.LastEvent = ev.Timestamp
}

func checkTimeouts() {
	now := Clock()
	timeouts := []string{}
	var lastEvent time.Time
	for _, w := range devices {
		if w.Alerted {
			// check if should repeat
			if now.Sub(w.LastAlerted) > repeatInterval {
				timeouts = append(timeouts, w.Name)
				lastEvent = w.LastEvent
				w.LastAlerted = now
			}
		} else if now.Sub(w.LastEvent) > w.Timeout {
			// first alert
			timeouts = append(timeouts, w.Name)
			lastEvent = w.LastEvent
			w.Alerted = true
			w.LastAlerted = now
		}
	}

	// send a single alert for multiple devices
	if len(timeouts) > 0 {
		sort.Strings(timeouts)
		sendAlert(strings.Join(timeouts, ", "), "PROBLEM", lastEvent)
	}
}

func setup() {
	devices = map[string]*WatchdogDevice{}
	// give devices a grace period for their first event
	now := Clock()
	for device, timeout := range services.Config.Watchdog.Devices {
		duration, err := time.ParseDuration(timeout)
		if err != nil {
			log.Println("Failed to parse:", timeout)
			continue
		}
		name := device
		if dev, ok := services.Config.Devices[device]; ok && dev.Name != "" {
			name = dev.Name
		} else if strings.HasPrefix(device, "heartbeat.") {
			name = fmt.Sprintf("Service %s", strings.TrimPrefix(device, "heartbeat."))
		}
		devices[device] = &WatchdogDevice{
			Name:      name,
			Timeout:   duration,
			LastEvent: now,
		}
	}
}

// Service watchdog
type Service struct{}

func (self *Service) ID() string {
	return "watchdog"
}

func (self *Service) Run() error {
	setup()

	ticker := time.NewTicker(time.Minute)
	events := services.Subscriber.Subscribe(pubsub.All())
	for {
		select {
		case ev := <-events:
			checkEvent(ev)
		case <-ticker.C:
			checkTimeouts()
		}
	}
}

func (self *Service) QueryHandlers() services.QueryHandlers {
	return services.QueryHandlers{
		"status": services.TextHandler(self.queryStatus),
		"help":   services.StaticHandler("status: get status\n"),
	}
}

func (self *Service) queryStatus(q services.Question) string {
	var out string
	var list WatchdogDevices
	for _, device := range devices {
		list = append(list, device)
	}
	// return oldest last
	sort.Sort(sort.Reverse(list))

	now := Clock()
	for _, w := range list {
		problem := ""
		if w.Alerted {
			problem = " PROBLEM"
		}
		ago := util.ShortDuration(now.Sub(w.LastEvent))
		out += fmt.Sprintf("- %-6s %s%s\n", ago, w.Name, problem)
	}
	return out
}
