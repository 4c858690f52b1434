package mqtt

import (
	"log"
	"sync"

	MQTT "github.com/eclipse/paho.mqtt.golang"

	"github.com/Ganesh-Jaishi/Samsung-IOT/pubsub"
)

type eventChannel struct {
	C      chan *pubsub.Event
	topics []pubsub.Topic
}

// Subscriber struct
type Subscriber struct {
	broker         *Broker
	channels       []eventChannel
	channelsLock   sync.Mutex
	topicCount     map[string]int
	topicCountLock sync.RWMutex
}

func NewSubscriber(broker *Broker) *Subscriber {
	return &Subscriber{broker: broker, topicCount: map[string]int{}}
}

func (self *Subscriber) ID() string {
	return self.broker.Id()
}

func (self *Subscriber) publishHandler(client MQTT.Client, msg MQTT.Message) {
	topic := msg.Topic()[len(Prefix):]
	body := string(msg.Payload())
	event := pubsub.Parse(body, topic)
	if event == nil {
		return
	}
	event.SetRetained(msg.Retained())
	self.channelsLock.Lock()
	for _, ch := range self.channels {
		for _, t := range ch.topics {
			if t.Match(topic) {
				ch.C <- event
				break
			}
		}
	}
	self.channelsLock.Unlock()
}

func (self *Subscriber) connectHandler(client MQTT.Client) {
	// (re)subscribe when (re)connected
	subs := map[string]byte{}
	self.topicCountLock.RLock()
	for topic := range self.topicCount {
		subs[topic] = 1 // QOS
	}
	self.topicCountLock.RUnlock()

	if len(subs) > 0 {
		// nil = all messages go to the default handler
		log.Println("Connected, subscribing:", subs)
		if token := self.broker.client.SubscribeMultiple(subs, nil); token.Wait() && token.Error() != nil {
			log.Println("Error subscribing:", token.Error())
		}
	}
}

func topicToMqtt(topic pubsub.Topic) string {
	switch topic := topic.(type) {
	case *pubsub.AllTopic:
		return Prefix + "#"
	case *pubsub.ExactTopic:
		return Prefix + topic.Exact
	case *pubsub.PrefixTopic:
		return Prefix + topic.Prefix + "/#"
	default:
		log.Panicln("Topic type unsupported")
	}
	return ""
}

func (self *Subscriber) addChannel(topics []pubsub.Topic) eventChannel {
	// subscribe topics not yet subscribed to
	subs := map[string]byte{}
	self.topicCountLock.Lock()
	for _, topic := range topics {
		t := topicToMqtt(topic)
		if _, exists := self.topicCount[t]; !exists {
			subs[t] = 1 // QOS
		}
		self.topicCount[t] += 1
	}
	self.topicCountLock.Unlock()

	ch := eventChannel{
		C:      make(chan *pubsub.Event, 16),
		topics: topics,
	}
	self.channelsLock.Lock()
	self.channels = append(self.channels, ch)
	self.channelsLock.Unlock()

	if len(subs) > 0 {
		// nil = all messages go to the default handler
		if token := self.broker.client.SubscribeMultiple(subs, nil); token.Wait() && token.Error() != nil {
			log.Println("Error subscribing:", token.Error())
		}
	}

	return ch
}

func (self *Subscriber) Subscribe(topics ...pubsub.Topic) <-chan *pubsub.Event {
	ch := self.addChannel(topics)
	return ch.C
}

func (self *Subscriber) Close(channel <-chan *pubsub.Event) {
	var channels []eventChannel
	self.channelsLock.Lock()
	defer self.channelsLock.Unlock()
	for _, ch := range self.channels {
		if channel == ch.C {
			for _, topic := range ch.topics {
				t := topicToMqtt(topic)
				self.topicCountLock.Lock()
				self.topicCount[t] -= 1
				current := self.topicCount[t]
				if current == 0 {
					delete(self.topicCount, t)
				}
				self.topicCountLock.Unlock()
				if current == 0 {
					if token := self.broker.client.Unsubscribe(t); token.Wait() && token.Error() != nil {
						log.Println("Error unsubscribing:", token.Error())
					}
				}
			}
			close(ch.C)
		} else {
			channels = append(channels, ch)
		}
	}
	self.channels = channels
}
