// internal/publisher/publisher.go
package publisher

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/tamzrod/sma2mqtt/internal/config"
	"github.com/tamzrod/sma2mqtt/internal/poller"
	"github.com/tamzrod/sma2mqtt/internal/status"
)

const publishTimeout = 10 * time.Second

// disconnect quiesce in milliseconds, gives in-flight messages a chance
const disconnectQuiesce = 250

// Client is the slice of the paho client the publisher needs.
// *paho.client satisfies it.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
	IsConnected() bool
}

// Publisher turns poll results into MQTT messages. Not safe for
// concurrent use; the orchestrator is the only caller.
type Publisher struct {
	cfg  config.MQTTConfig
	disc config.DiscoveryConfig
	log  zerolog.Logger

	client Client

	// announced maps "<inverter>/<measurement>" to its discovery config
	// topic. A pair present here is never announced again.
	announced map[string]string
}

// New assembles a publisher from parts. Use Build to get one wired to a
// real broker.
func New(m config.MQTTConfig, d config.DiscoveryConfig, client Client, log zerolog.Logger) *Publisher {
	return &Publisher{
		cfg:       m,
		disc:      d,
		log:       log,
		client:    client,
		announced: make(map[string]string),
	}
}

// Build connects to the broker and returns a ready publisher.
// Startup fails fast; later connection drops are healed by paho's
// auto-reconnect while the will keeps the status topic honest.
func Build(b config.BridgeConfig, log zerolog.Logger) (*Publisher, error) {
	m := b.MQTT

	opts := mqtt.NewClientOptions().
		AddBroker(m.Broker).
		SetClientID(m.ClientID)
	if m.Username != "" {
		opts.SetUsername(m.Username)
		opts.SetPassword(m.Password)
	}
	opts.SetKeepAlive(30 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetWill(m.TopicPrefix+"/status", status.BridgeInterrupted, m.QoS, true)
	opts.OnConnect = func(c mqtt.Client) {
		log.Info().Str("broker", m.Broker).Msg("mqtt connected")
		c.Publish(m.TopicPrefix+"/status", m.QoS, true, status.BridgeOnline).Wait()
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt connection lost")
	}

	cli := mqtt.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("publisher: connect %s: %w", m.Broker, token.Error())
	}

	return New(m, b.Discovery, cli, log), nil
}

// PublishResult publishes one successful poll result: either one message
// per measurement or a single aggregate document per inverter.
func (p *Publisher) PublishResult(res poller.PollResult) error {
	if p.cfg.Aggregate {
		return p.publishAggregate(res)
	}
	return p.publishEach(res)
}

func (p *Publisher) publishEach(res poller.PollResult) error {
	for i, r := range res.Readings {
		if i > 0 && p.cfg.RateMs > 0 {
			time.Sleep(time.Duration(p.cfg.RateMs) * time.Millisecond)
		}
		topic := p.cfg.TopicPrefix + "/" + res.Inverter + "/" + r.Descriptor.Name
		if err := p.publish(topic, r.Value.String(), p.cfg.Retain); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) publishAggregate(res poller.PollResult) error {
	doc := make(map[string]interface{}, len(res.Readings)+2)
	doc["timestamp"] = res.At.Unix()
	doc["counter"] = res.Counter
	for _, r := range res.Readings {
		doc[r.Descriptor.Name] = r.Value.Any()
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("publisher: encode aggregate for %s: %w", res.Inverter, err)
	}
	return p.publish(p.cfg.TopicPrefix+"/"+res.Inverter, string(payload), p.cfg.Retain)
}

// PublishBridgeStatus publishes the retained bridge status payload.
func (p *Publisher) PublishBridgeStatus(payload string) error {
	return p.publish(p.cfg.TopicPrefix+"/status", payload, true)
}

// PublishInverterStatus publishes the retained per-inverter availability.
func (p *Publisher) PublishInverterStatus(id string, st status.State) error {
	return p.publish(p.cfg.TopicPrefix+"/"+id+"/status", string(st), true)
}

// PublishVersion publishes the retained bridge version.
func (p *Publisher) PublishVersion(version string) error {
	return p.publish(p.cfg.TopicPrefix+"/sw-version", version, true)
}

// Close publishes the retained offline status and disconnects cleanly, so
// the broker never fires the will on an orderly shutdown.
func (p *Publisher) Close() {
	if err := p.PublishBridgeStatus(status.BridgeOffline); err != nil {
		p.log.Warn().Err(err).Msg("offline status not delivered")
	}
	p.client.Disconnect(disconnectQuiesce)
}

func (p *Publisher) publish(topic, payload string, retain bool) error {
	t := p.client.Publish(topic, p.cfg.QoS, retain, payload)
	if !t.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publisher: %s: publish timed out", topic)
	}
	if err := t.Error(); err != nil {
		return fmt.Errorf("publisher: %s: %w", topic, err)
	}
	return nil
}
