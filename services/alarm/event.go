package alarm

import (
	"fmt"

	"github.com/Knetic/govaluate"

	"github.com/Ganesh-Jaishi/Samsung-IOT/pubsub"
	"github.com/Ganesh-Jaishi/Samsung-IOT/services"
)

// EventWrapper adapts bus events to the state machine Event interface,
// matching transition conditions written as govaluate expressions, eg:
//
//	device=='pir.hall' && command=='on'
//	device=='sonar.hall' && distance < 30
//	type=='motion'
//	State('alarm.hall')=='Alerting'
type EventWrapper struct {
	event  *pubsub.Event
	params map[string]interface{}
}

func NewEventWrapper(event *pubsub.Event) EventWrapper {
	params := map[string]interface{}{}
	for key, value := range event.Fields {
		params[key] = value
	}
	device := services.Config.LookupDeviceName(event)
	params["device"] = device
	params["topic"] = event.Topic
	if dev, ok := services.Config.Devices[device]; ok {
		params["type"] = dev.Type
	}
	return EventWrapper{event: event, params: params}
}

var functions = map[string]govaluate.ExpressionFunction{
	// State('name') looks up the current state of another automaton
	"State": func(args ...interface{}) (interface{}, error) {
		if automata == nil || len(args) != 1 {
			return nil, fmt.Errorf("State() requires a single automaton name")
		}
		name, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("State() requires a string argument")
		}
		aut, ok := automata.Automaton[name]
		if !ok {
			return nil, fmt.Errorf("State(): automaton %s not found", name)
		}
		return aut.State.Name, nil
	},
}

func (self EventWrapper) Match(when string) bool {
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(when, functions)
	if err != nil {
		return false
	}
	result, err := expr.Evaluate(self.params)
	if err != nil {
		// missing parameters mean no match
		return false
	}
	b, ok := result.(bool)
	return ok && b
}

func (self EventWrapper) String() string {
	device := services.Config.LookupDeviceName(self.event)
	s := device
	if self.event.Command() != "" {
		s += fmt.Sprintf(" command=%s", self.event.Command())
	} else if self.event.State() != "" {
		s += fmt.Sprintf(" state=%s", self.event.State())
	}
	return s
}
