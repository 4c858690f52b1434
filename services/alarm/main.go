// Service for state machine driven alarm behaviour, layered over the raw
// monitor loop. The instantaneous alert state from the sensors is latched,
// escalated and cooled down by small automata configured in yaml, eg:
//
//	alarm.hall:
//	  start: Monitoring
//	  states:
//	    Monitoring: {}
//	    Alerting:
//	      entering:
//	      - Siren(true)
//	      - Alert('Intruder alert in $name')
//	      - StartTimer('alarm.cooldown', 10)
//	      leaving:
//	      - Siren(false)
//	  transitions:
//	    Monitoring->Alerting:
//	    - when: device=='pir.hall' && command=='on'
//	    Alerting->Monitoring:
//	    - when: device=='alarm.cooldown' && command=='on'
//
// Automata state is persisted to the store, so a restart resumes where it
// left off.
package alarm

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/barnybug/gofsm"

	"github.com/Ganesh-Jaishi/Samsung-IOT/config"
	"github.com/Ganesh-Jaishi/Samsung-IOT/pubsub"
	"github.com/Ganesh-Jaishi/Samsung-IOT/services"
	"github.com/Ganesh-Jaishi/Samsung-IOT/util"
)

var eventsLogPath = config.LogPath("events.log")

var automata *gofsm.Automata

func openLogFile() *os.File {
	logfile, err := os.OpenFile(eventsLogPath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		log.Println("Couldn't open events.log:", err)
		logfile, _ = os.Open(os.DevNull)
		return logfile
	}
	return logfile
}

// Service alarm
type Service struct {
	timers  map[string]*time.Timer
	persist chan string
	log     *os.File
}

func (self *Service) ID() string {
	return "alarm"
}

func loadAutomata() (*gofsm.Automata, error) {
	data := services.Config.Alarm.Automata
	if data == "" {
		return nil, fmt.Errorf("no automata configured under alarm")
	}
	return gofsm.Load([]byte(data))
}

func (self *Service) PersistStore(aut *gofsm.Automata, automaton string) {
	state := aut.Persist()
	v := state[automaton]
	key := "sentry/state/automata/" + automaton
	value, _ := json.Marshal(v)
	err := services.Stor.Set(key, string(value))
	if err != nil {
		log.Println("Persisting automata state to store failed:", err)
	}
}

func (self *Service) RestoreStore(aut *gofsm.Automata) {
	p := gofsm.AutomataState{}
	for name := range aut.Automaton {
		key := "sentry/state/automata/" + name
		value, err := services.Stor.Get(key)
		if err != nil {
			continue
		}
		var ps gofsm.AutomatonState
		if err := json.Unmarshal([]byte(value), &ps); err != nil {
			log.Println("Restoring automata state from store failed:", err)
			continue
		}
		p[name] = ps
	}
	aut.Restore(p)
}

var reAction = regexp.MustCompile(`^(\w+)\((.*)\)$`)

// parseArgs splits an action argument list, understanding single quoted
// strings, booleans and numbers.
func parseArgs(s string) []interface{} {
	var args []interface{}
	var current strings.Builder
	inQuote := false
	flush := func() {
		raw := strings.TrimSpace(current.String())
		current.Reset()
		if raw == "" {
			return
		}
		if strings.HasPrefix(raw, "'") {
			args = append(args, strings.Trim(raw, "'"))
		} else if raw == "true" || raw == "false" {
			args = append(args, raw == "true")
		} else if n, err := strconv.ParseFloat(raw, 64); err == nil {
			args = append(args, n)
		} else {
			args = append(args, raw)
		}
	}
	for _, c := range s {
		switch {
		case c == '\'':
			inQuote = !inQuote
			current.WriteRune(c)
		case c == ',' && !inQuote:
			flush()
		default:
			current.WriteRune(c)
		}
	}
	flush()
	return args
}

var reSub = regexp.MustCompile(`\$(\w+)`)

func substitute(s string, vals map[string]string) string {
	return reSub.ReplaceAllStringFunc(s, func(k string) string {
		if v, ok := vals[k[1:]]; ok {
			return v
		}
		return k
	})
}

func (self *Service) substitute(msg string, trigger EventWrapper, change gofsm.Change) string {
	device := services.Config.LookupDeviceName(trigger.event)
	name := device
	if dev, ok := services.Config.Devices[device]; ok && dev.Name != "" {
		name = dev.Name
	}
	now := time.Now()
	vals := map[string]string{
		"name":      name,
		"device":    device,
		"duration":  util.FriendlyDuration(change.Duration),
		"timestamp": now.Format(time.Kitchen),
		"datetime":  now.Format(time.StampMilli),
	}
	return substitute(msg, vals)
}

func (self *Service) dispatch(action gofsm.Action) error {
	m := reAction.FindStringSubmatch(action.Name)
	if m == nil {
		return fmt.Errorf("action not understood: %s", action.Name)
	}
	name := m[1]
	args := parseArgs(m[2])
	trigger := action.Trigger.(EventWrapper)

	switch name {
	case "Siren":
		on, _ := args[0].(bool)
		return self.actionSiren(on)
	case "Alert":
		if len(args) != 1 {
			return fmt.Errorf("Alert requires a message")
		}
		msg, _ := args[0].(string)
		msg = self.substitute(msg, trigger, action.Change)
		log.Println("Alert:", msg)
		services.SendAlert(msg, "alarm", "", 0)
	case "Log":
		if len(args) != 1 {
			return fmt.Errorf("Log requires a message")
		}
		msg, _ := args[0].(string)
		msg = self.substitute("$datetime: "+msg, trigger, action.Change)
		fmt.Fprintln(self.log, msg)
	case "StartTimer":
		if len(args) != 2 {
			return fmt.Errorf("StartTimer requires a name and seconds")
		}
		timer, _ := args[0].(string)
		secs, _ := args[1].(float64)
		self.actionStartTimer(timer, secs)
	default:
		return fmt.Errorf("action %s not found", name)
	}
	return nil
}

func (self *Service) actionSiren(on bool) error {
	device := services.Config.Alarm.Siren
	if device == "" {
		return fmt.Errorf("no siren device configured under alarm")
	}
	command := "off"
	if on {
		command = "on"
	}
	log.Println("Switching siren", command)
	ev := pubsub.NewCommand(device, command)
	services.Publisher.Emit(ev)
	return nil
}

func (self *Service) actionStartTimer(name string, secs float64) {
	if timer, ok := self.timers[name]; ok {
		// cancel any existing
		timer.Stop()
	}
	duration := time.Duration(secs * float64(time.Second))
	self.timers[name] = time.AfterFunc(duration, func() {
		// emit timer event
		fields := pubsub.Fields{
			"source":  name,
			"command": "on",
		}
		ev := pubsub.NewEvent("timer", fields)
		services.Publisher.Emit(ev)
	})
}

func (self *Service) handleChange(change gofsm.Change) {
	trigger := change.Trigger.(EventWrapper)
	s := fmt.Sprintf("%-17s %s->%s", "["+change.Automaton+"]", change.Old, change.New)
	log.Printf("%-40s (event: %s)", s, trigger)
	self.persist <- change.Automaton

	if !strings.Contains(change.Automaton, ".") {
		return
	}
	// emit event
	ps := strings.SplitN(change.Automaton, ".", 2)
	fields := pubsub.Fields{
		"source":  ps[1],
		"state":   change.New,
		"trigger": trigger.String(),
	}
	ev := pubsub.NewEvent(ps[0], fields)
	services.Publisher.Emit(ev)
}

// relevant filters the events worth feeding to the automata.
func relevant(ev *pubsub.Event) bool {
	if strings.HasPrefix(ev.Topic, "_") {
		return false
	}
	switch ev.Topic {
	case "alert", "query", "heartbeat", "log":
		return false
	}
	return true
}

func (self *Service) Run() error {
	self.log = openLogFile()
	defer self.log.Close()
	self.timers = map[string]*time.Timer{}
	self.persist = make(chan string, 32)

	var err error
	automata, err = loadAutomata()
	if err != nil {
		return err
	}

	// persistence can take a while, run it off the main loop
	go func() {
		for automaton := range self.persist {
			self.PersistStore(automata, automaton)
		}
	}()

	self.RestoreStore(automata)
	log.Printf("Initial states: %s", automata)

	configService := services.WaitForConfig()
	ch := services.Subscriber.Subscribe(pubsub.All())
	for {
		select {
		case ev := <-ch:
			if !relevant(ev) {
				continue
			}
			automata.Process(NewEventWrapper(ev))

		case change := <-automata.Changes:
			self.handleChange(change)

		case action := <-automata.Actions:
			if err := self.dispatch(action); err != nil {
				log.Println("Error:", err)
			}

		case <-configService.Updated:
			// live reload the automata
			log.Println("Config updated, reloading automata")
			updated, err := loadAutomata()
			if err != nil {
				log.Println("Failed to reload automata:", err)
				continue
			}
			self.RestoreStore(updated)
			automata = updated
			log.Println("Automata reloaded successfully")
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
	if automata == nil {
		return "not running"
	}
	var keys []string
	for k := range automata.Automaton {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out string
	now := time.Now()
	for _, name := range keys {
		device := name
		if dev, ok := services.Config.Devices[name]; ok {
			device = dev.Name
		}
		aut := automata.Automaton[name]
		du := util.ShortDuration(now.Sub(aut.Since))
		out += fmt.Sprintf("- %s: %s for %s\n", device, aut.State.Name, du)
	}
	return out
}
