package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jypelle/inkpanel/internal/srv/model"
	"github.com/sirupsen/logrus"
)

// Bus is the publish/subscribe surface the MQTT-backed services rely on.
type Bus interface {
	Publish(topic string, retained bool, payload interface{}) error
	Subscribe(topic string, handler func(payload []byte)) error
	TopicPrefix() string
}

var (
	ErrNotConnected   = errors.New("mqtt: not connected")
	ErrPublishTimeout = errors.New("mqtt: publish timed out")
)

type MqttConfig struct {
	Broker         string
	ClientId       string
	Username       string
	Password       string
	TopicPrefix    string
	ConnectTimeout time.Duration
	// PublishTimeout bounds how long a command publish may block its caller.
	PublishTimeout time.Duration
}

// MqttLink owns the broker connection. Subscriptions survive reconnections:
// they are replayed by the connect handler.
type MqttLink struct {
	notifier
	config MqttConfig
	client mqtt.Client

	subLock       sync.Mutex
	subscriptions map[string]func(payload []byte)

	reconnecting atomic.Bool
}

func NewMqttLink(config MqttConfig) *MqttLink {
	l := &MqttLink{
		config:        config,
		subscriptions: make(map[string]func(payload []byte)),
	}
	l.connection = model.DISCONNECTED_CONNECTION
	if l.config.PublishTimeout <= 0 {
		l.config.PublishTimeout = 500 * time.Millisecond
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientId)
	if config.Username != "" {
		opts.SetUsername(config.Username)
		opts.SetPassword(config.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetWill(l.AvailabilityTopic(), "offline", 0, true)
	opts.SetOnConnectHandler(l.onConnect)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logrus.Warnf("MQTT connection lost: %v", err)
		l.setConnection(model.ERROR_CONNECTION)
	})
	opts.SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
		l.setConnection(model.CONNECTING_CONNECTION)
	})
	l.client = mqtt.NewClient(opts)
	return l
}

func (l *MqttLink) Name() string {
	return "mqtt"
}

func (l *MqttLink) Start() error {
	logrus.Infof("Start mqtt link to %s", l.config.Broker)
	l.setConnection(model.CONNECTING_CONNECTION)
	token := l.client.Connect()
	if !token.WaitTimeout(l.config.ConnectTimeout) {
		// Connect retry keeps going in the background.
		logrus.Warnf("MQTT broker %s not reachable yet", l.config.Broker)
		return nil
	}
	if err := token.Error(); err != nil {
		l.setConnection(model.ERROR_CONNECTION)
		return fmt.Errorf("mqtt: connect to %s: %w", l.config.Broker, err)
	}
	return nil
}

func (l *MqttLink) Stop() {
	logrus.Infof("Stop mqtt link")
	if l.client.IsConnected() {
		l.client.Publish(l.AvailabilityTopic(), 0, true, "offline").WaitTimeout(time.Second)
	}
	l.client.Disconnect(250)
	l.setConnection(model.DISCONNECTED_CONNECTION)
}

// Reconnect drops the current session and opens a new one in the
// background. It returns at once; the outcome shows in Connection.
func (l *MqttLink) Reconnect() error {
	if !l.reconnecting.CompareAndSwap(false, true) {
		return nil
	}
	logrus.Infof("Reconnect mqtt link")
	go func() {
		defer l.reconnecting.Store(false)
		l.client.Disconnect(250)
		if err := l.Start(); err != nil {
			logrus.Warnf("Unable to reconnect: %v", err)
		}
	}()
	return nil
}

func (l *MqttLink) TopicPrefix() string {
	return l.config.TopicPrefix
}

func (l *MqttLink) AvailabilityTopic() string {
	return fmt.Sprintf("%s/status", l.config.TopicPrefix)
}

func (l *MqttLink) Publish(topic string, retained bool, payload interface{}) error {
	var payloadBytes []byte
	switch v := payload.(type) {
	case string:
		payloadBytes = []byte(v)
	case []byte:
		payloadBytes = v
	default:
		var err error
		payloadBytes, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("mqtt: marshal payload: %w", err)
		}
	}
	// Commands are never queued while the broker is away.
	if !l.client.IsConnectionOpen() {
		return fmt.Errorf("publish %s: %w", topic, ErrNotConnected)
	}
	token := l.client.Publish(topic, 0, retained, payloadBytes)
	if !token.WaitTimeout(l.config.PublishTimeout) {
		return fmt.Errorf("publish %s: %w", topic, ErrPublishTimeout)
	}
	return token.Error()
}

// Subscribe registers handler for topic. When the link is down the
// subscription is only recorded and made on the next connection.
func (l *MqttLink) Subscribe(topic string, handler func(payload []byte)) error {
	l.subLock.Lock()
	l.subscriptions[topic] = handler
	l.subLock.Unlock()
	if !l.client.IsConnected() {
		return nil
	}
	return l.subscribe(topic, handler)
}

func (l *MqttLink) subscribe(topic string, handler func(payload []byte)) error {
	token := l.client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Payload())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: subscribe %s: %w", topic, err)
	}
	return nil
}

func (l *MqttLink) onConnect(c mqtt.Client) {
	logrus.Infof("Connected to MQTT broker %s", l.config.Broker)
	c.Publish(l.AvailabilityTopic(), 0, true, "online")

	l.subLock.Lock()
	subscriptions := make(map[string]func(payload []byte), len(l.subscriptions))
	for topic, handler := range l.subscriptions {
		subscriptions[topic] = handler
	}
	l.subLock.Unlock()

	// Runs on the paho callback goroutine: tokens must not be waited here.
	for topic, handler := range subscriptions {
		handler := handler
		c.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			handler(msg.Payload())
		})
	}
	l.setConnection(model.CONNECTED_CONNECTION)
}
