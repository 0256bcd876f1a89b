package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/wheelibin/dusk/internal/models"
)

// Subscriber feeds locations published on an MQTT topic, as {"latitude":..,"longitude":..}, to onLocation
type Subscriber struct {
	logger     *log.Logger
	client     pahomqtt.Client
	broker     string
	topic      string
	onLocation func(models.Coordinates)
}

func NewSubscriber(logger *log.Logger, broker string, clientID string, topic string, onLocation func(models.Coordinates)) *Subscriber {
	s := &Subscriber{
		logger:     logger,
		broker:     broker,
		topic:      topic,
		onLocation: onLocation,
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(broker)
	if clientID != "" {
		opts.SetClientID(clientID)
	} else {
		opts.SetClientID(fmt.Sprintf("duskd-%d", time.Now().Unix()))
	}

	// Connection settings
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	// a clean session forgets subscriptions, so subscribe on every connect
	opts.OnConnect = func(c pahomqtt.Client) {
		logger.Info("Connected to MQTT broker", "broker", broker)
		token := c.Subscribe(topic, 1, s.HandleMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			logger.Error("Error subscribing to location topic", "topic", topic, "err", err)
			return
		}
		logger.Info("Listening for locations", "topic", topic)
	}
	opts.OnConnectionLost = func(c pahomqtt.Client, err error) {
		logger.Warn("MQTT connection lost", "err", err)
	}

	s.client = pahomqtt.NewClient(opts)
	return s
}

// Connect waits for the first connection to the broker
func (s *Subscriber) Connect(ctx context.Context) error {
	s.logger.Info("Connecting to MQTT broker", "broker", s.broker)

	token := s.client.Connect()

	select {
	case <-token.Done():
		if token.Error() != nil {
			return fmt.Errorf("Error connecting to MQTT broker: %w", token.Error())
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("Error connecting to MQTT broker: %w", ctx.Err())
	}
}

func (s *Subscriber) Disconnect() {
	s.logger.Info("Disconnecting from MQTT broker")
	s.client.Disconnect(250)
}

// HandleMessage is the subscription's message handler
func (s *Subscriber) HandleMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	location, err := ParseLocation(msg.Payload())
	if err != nil {
		s.logger.Warn("Ignoring location message", "topic", msg.Topic(), "err", err)
		return
	}
	s.logger.Debug("Location received", "latitude", location.Latitude, "longitude", location.Longitude)
	s.onLocation(location)
}

type locationMessage struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// ParseLocation decodes a location message, both coordinates are required
func ParseLocation(payload []byte) (models.Coordinates, error) {
	var msg locationMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return models.Coordinates{}, fmt.Errorf("Error parsing location: %w", err)
	}
	if msg.Latitude == nil || msg.Longitude == nil {
		return models.Coordinates{}, errors.New("Error parsing location: latitude and longitude are required")
	}
	return models.Coordinates{Latitude: *msg.Latitude, Longitude: *msg.Longitude}, nil
}
