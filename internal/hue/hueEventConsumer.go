package hue

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/charmbracelet/log"
	sse "github.com/r3labs/sse/v2"
	"github.com/wheelibin/dusk/internal/constants"
	"github.com/wheelibin/dusk/internal/devices"
)

type registry interface {
	Add(output devices.Output)
}

// HueEventConsumer listens to the bridge event stream and registers lights as they appear
type HueEventConsumer struct {
	logger   *log.Logger
	api      *HueAPIService
	registry registry

	client       *sse.Client
	eventChannel chan *sse.Event

	mu sync.Mutex
	// zigbee connectivity id -> light
	lightsByZigbeeID map[string]*Light
}

func NewHueEventConsumer(logger *log.Logger, api *HueAPIService, registry registry) *HueEventConsumer {
	return &HueEventConsumer{
		logger:           logger,
		api:              api,
		registry:         registry,
		lightsByZigbeeID: map[string]*Light{},
	}
}

// AddLights registers lights found at startup
func (h *HueEventConsumer) AddLights(lights []*Light) {
	for _, light := range lights {
		h.addLight(light)
	}
}

func (h *HueEventConsumer) addLight(light *Light) {
	if light.ZigbeeID() != "" {
		h.mu.Lock()
		h.lightsByZigbeeID[light.ZigbeeID()] = light
		h.mu.Unlock()
	}
	h.registry.Add(light)
}

func (h *HueEventConsumer) Subscribe(eventChannel chan *sse.Event) {

	h.eventChannel = eventChannel
	h.client = sse.NewClient(h.api.baseURL + "/eventstream/clip/v2")

	h.client.Connection.Transport = h.api.client.Transport
	h.client.Headers["hue-application-key"] = h.api.applicationKey

	h.client.OnConnect(func(_ *sse.Client) {
		h.logger.Info("Connected to HUE bridge, listening for events...")
	})
	h.client.OnDisconnect(func(c *sse.Client) {
		h.logger.Info("Disconnected from HUE bridge")
	})

	if err := h.client.SubscribeChan("", h.eventChannel); err != nil {
		h.logger.Errorf("error subscribing to hue bridge events: %s", err)
	}

}

func (h *HueEventConsumer) Unsubscribe() {
	h.logger.Debug("Unsubscribe events")
	if h.client != nil {
		h.client.Unsubscribe(h.eventChannel)
	}
}

// Run handles bridge events until ctx is done
func (h *HueEventConsumer) Run(ctx context.Context) {
	eventChannel := make(chan *sse.Event)
	h.Subscribe(eventChannel)
	defer h.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-eventChannel:
			h.HandleEvent(event)
		}
	}
}

func (h *HueEventConsumer) HandleEvent(event *sse.Event) {
	if event == nil || len(event.Data) == 0 {
		return
	}

	events := []HueEvent{}
	if err := json.Unmarshal(event.Data, &events); err != nil {
		h.logger.Error("Error parsing hue bridge event", "err", err)
		return
	}

	for _, evt := range events {
		for _, eventData := range evt.Data {
			switch {

			case evt.Type == constants.EventBatchTypeAdd && eventData.Type == constants.EventTypeLight:
				light, ok, err := h.api.GetLight(eventData.Id)
				if err != nil {
					h.logger.Error(err)
					continue
				}
				if !ok {
					h.logger.Debug("New light has no colour temperature, ignoring", "id", eventData.Id)
					continue
				}
				h.logger.Info("New hue light", "name", light.Name())
				h.addLight(light)

			case evt.Type == constants.EventBatchTypeUpdate && eventData.Type == constants.EventTypeZigbeeConnectivity:
				if eventData.Status != constants.EventStatusConnected {
					continue
				}
				h.mu.Lock()
				light, found := h.lightsByZigbeeID[eventData.Id]
				h.mu.Unlock()
				if !found {
					continue
				}
				// powered back on at the wall, it has forgotten its temperature
				h.logger.Debugf("light (%s) was just powered on", light.Name())
				h.registry.Add(light)
			}
		}
	}
}
