package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stable_dashboard/internal/logger"
	"stable_dashboard/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const mqttPublishTimeout = 5 * time.Second

// MQTTConfig holds broker settings for alert publishing.
type MQTTConfig struct {
	Broker   string
	Topic    string
	ClientID string
	QoS      byte
}

// publisher is the slice of mqtt.Client used here.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTNotifier publishes one message per alert to <topic>/<entity_id>.
type MQTTNotifier struct {
	client publisher
	cfg    MQTTConfig
	log    *logger.Logger
}

// DialMQTT connects to the broker and returns a notifier plus a close func.
func DialMQTT(cfg MQTTConfig, log *logger.Logger) (*MQTTNotifier, func(), error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return nil, nil, fmt.Errorf("mqtt connect to %s: timeout", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}
	closeFn := func() { client.Disconnect(250) }
	return NewMQTTNotifier(client, cfg, log), closeFn, nil
}

func NewMQTTNotifier(client publisher, cfg MQTTConfig, log *logger.Logger) *MQTTNotifier {
	return &MQTTNotifier{client: client, cfg: cfg, log: logger.OrNop(log).Named("notify.mqtt")}
}

func (n *MQTTNotifier) topicFor(a models.TriggeredAlert) string {
	return strings.TrimRight(n.cfg.Topic, "/") + "/" + a.EntityID
}

func (n *MQTTNotifier) Notify(ctx context.Context, alerts []models.TriggeredAlert) error {
	for _, a := range alerts {
		payload, err := encode(a)
		if err != nil {
			return fmt.Errorf("encode alert %s: %w", a.ID, err)
		}

		topic := n.topicFor(a)
		token := n.client.Publish(topic, n.cfg.QoS, false, payload)

		wait := mqttPublishTimeout
		if dl, ok := ctx.Deadline(); ok {
			if d := time.Until(dl); d < wait {
				wait = d
			}
		}
		if !token.WaitTimeout(wait) {
			return fmt.Errorf("publish alert %s to %s: timeout", a.ID, topic)
		}
		if err := token.Error(); err != nil {
			n.log.Errorw("mqtt_publish_failed", "alert_id", a.ID, "topic", topic, "error", err)
			return fmt.Errorf("publish alert %s to %s: %w", a.ID, topic, err)
		}
		n.log.Debugw("mqtt_published", "alert_id", a.ID, "topic", topic)
	}
	return nil
}
