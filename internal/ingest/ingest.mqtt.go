// FilePath: internal/ingest/ingest.mqtt.go
package ingest

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	nuts "github.com/vaudience/go-nuts"
)

// MQTTOptions configures the broker connection.
type MQTTOptions struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
}

// MQTTClient is a thin wrapper around a paho client.
type MQTTClient struct {
	raw mqtt.Client
}

// NewMQTTClient connects to the broker, retrying in the background.
func NewMQTTClient(opts MQTTOptions) (*MQTTClient, error) {
	o := mqtt.NewClientOptions()
	o.AddBroker(opts.BrokerURL)
	o.SetClientID(opts.ClientID)
	o.SetUsername(opts.Username)
	o.SetPassword(opts.Password)
	o.SetAutoReconnect(true)
	o.SetConnectRetry(true)
	o.SetConnectRetryInterval(2 * time.Second)
	o.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		nuts.L.Warnf("[Ingest] Connection to %s lost: %v", opts.BrokerURL, err)
	})
	c := mqtt.NewClient(o)

	token := c.Connect()
	if !token.WaitTimeout(30 * time.Second) {
		return nil, fmt.Errorf("timed out connecting to %s", opts.BrokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("error connecting to %s: %w", opts.BrokerURL, err)
	}
	nuts.L.Infof("[Ingest] Connected to %s as %s", opts.BrokerURL, opts.ClientID)
	return &MQTTClient{raw: c}, nil
}

func (c *MQTTClient) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	token := c.raw.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	token.Wait()
	return token.Error()
}

func (c *MQTTClient) Close() {
	c.raw.Disconnect(250)
}
