package mqtt

import (
	"fmt"
	"log"
	"math/rand"
	"os"

	MQTT "github.com/eclipse/paho.mqtt.golang"

	"github.com/Ganesh-Jaishi/Samsung-IOT/pubsub"
)

// Prefix namespaces all bus topics on the shared mqtt broker.
const Prefix = "sentry/"

type Broker struct {
	broker     string
	client     MQTT.Client
	subscriber *Subscriber
}

func NewBroker(broker string, name string) *Broker {
	self := &Broker{broker: broker}

	// generate a unique client id
	hostname, _ := os.Hostname()
	clientId := fmt.Sprintf("%s%s-%s-%d-%d", Prefix, name, hostname, os.Getpid(), rand.Int31())
	opts := MQTT.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientId)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(self.connectHandler)
	opts.SetDefaultPublishHandler(self.publishHandler)

	self.client = MQTT.NewClient(opts)
	if token := self.client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln("Couldn't connect to mqtt:", token.Error())
	}
	return self
}

func (self *Broker) Id() string {
	return "mqtt: " + self.broker
}

func (self *Broker) publishHandler(client MQTT.Client, msg MQTT.Message) {
	if self.subscriber != nil {
		self.subscriber.publishHandler(client, msg)
	}
}

func (self *Broker) connectHandler(client MQTT.Client) {
	if self.subscriber != nil {
		self.subscriber.connectHandler(client)
	}
}

func (self *Broker) Subscriber() pubsub.Subscriber {
	if self.subscriber == nil {
		self.subscriber = NewSubscriber(self)
	}
	return self.subscriber
}

func (self *Broker) Publisher() pubsub.Publisher {
	return &Publisher{broker: self.broker, client: self.client}
}
