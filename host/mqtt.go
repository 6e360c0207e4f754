package host

import (
	"encoding/json"
	"fmt"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"partyrace/racing"
	"partyrace/server"
)

// at least once
const qos = 1

// MQTTOptions say where race events go.
type MQTTOptions struct {
	Broker   string
	ClientID string
	// Topic is the prefix; events go to <Topic>/<kind>, standings to
	// <Topic>/standings (retained).
	Topic string
}

// MQTTPublisher sends race events to an MQTT broker. Messages are handed to
// the client in call order; only the wait for the broker's ack runs in the
// background.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	wg     sync.WaitGroup
}

// DialMQTT connects to the broker and waits for the connection.
func DialMQTT(o MQTTOptions) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(o.Broker)
	opts.SetClientID(o.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		server.Log.Warnw("mqtt connection lost, reconnecting", "broker", o.Broker, "err", err)
	})
	opts.SetOnConnectHandler(func(mqtt.Client) {
		server.Log.Infow("connected to mqtt broker", "broker", o.Broker, "client_id", o.ClientID)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("host: connect mqtt broker %s: %w", o.Broker, token.Error())
	}
	return NewMQTTPublisher(client, o.Topic), nil
}

// NewMQTTPublisher publishes through an already connected client.
func NewMQTTPublisher(client mqtt.Client, topic string) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: topic}
}

func (p *MQTTPublisher) PublishEvent(e racing.Event) {
	p.publish(p.topic+"/"+string(e.Kind), e, false)
}

func (p *MQTTPublisher) PublishStandings(s racing.Snapshot) {
	p.publish(p.topic+"/standings", s, true)
}

func (p *MQTTPublisher) publish(topic string, v any, retained bool) {
	payload, err := json.Marshal(v)
	if err != nil {
		server.Log.Errorw("encode mqtt payload", "topic", topic, "err", err)
		return
	}
	token := p.client.Publish(topic, qos, retained, payload)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if token.Wait() && token.Error() != nil {
			server.Log.Errorw("mqtt publish failed", "topic", topic, "err", token.Error())
		}
	}()
}

// Close waits for in-flight publishes and disconnects.
func (p *MQTTPublisher) Close() {
	p.wg.Wait()
	p.client.Disconnect(250)
}
