package mqtt

import (
	"log"

	MQTT "github.com/eclipse/paho.mqtt.golang"

	"github.com/Ganesh-Jaishi/Samsung-IOT/pubsub"
)

// Publisher for mqtt
type Publisher struct {
	broker string
	client MQTT.Client
}

// ID of Publisher
func (pub *Publisher) ID() string {
	return "mqtt: " + pub.broker
}

// Emit an event
func (pub *Publisher) Emit(ev *pubsub.Event) {
	topic := Prefix + ev.Topic
	token := pub.client.Publish(topic, 1, ev.Retained, ev.Bytes())
	if token.Wait() && token.Error() != nil {
		log.Println("Error publishing:", token.Error())
	}
	ev.Published.Set()
}

func (pub *Publisher) Close() {
	pub.client.Disconnect(250)
}
