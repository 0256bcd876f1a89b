package api

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	sse "github.com/r3labs/sse/v2"
	"github.com/wheelibin/dusk/internal/nightlight"
)

const eventStream = "events"

// Broadcaster relays change events to every /events client
type Broadcaster struct {
	logger *log.Logger
	server *sse.Server
	events chan nightlight.Event
}

func NewBroadcaster(logger *log.Logger) *Broadcaster {
	server := sse.New()
	// clients only get events from when they connect
	server.AutoReplay = false
	server.CreateStream(eventStream)

	return &Broadcaster{
		logger: logger,
		server: server,
		events: make(chan nightlight.Event, 64),
	}
}

// Publish never blocks, the event is dropped if the broadcaster can't keep up
func (b *Broadcaster) Publish(event nightlight.Event) {
	select {
	case b.events <- event:
	default:
		b.logger.Warn("Event stream is falling behind, dropping event", "kind", event.Kind)
	}
}

// Run relays events until ctx is done
func (b *Broadcaster) Run(ctx context.Context) {
	defer b.server.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-b.events:
			data, err := json.Marshal(event)
			if err != nil {
				b.logger.Error("Error encoding event", "err", err)
				continue
			}
			b.server.Publish(eventStream, &sse.Event{
				Event: []byte(event.Kind.String()),
				Data:  data,
			})
		}
	}
}

func (h *Handler) streamEvents(c *gin.Context) {
	q := c.Request.URL.Query()
	q.Set("stream", eventStream)
	c.Request.URL.RawQuery = q.Encode()
	h.events.server.ServeHTTP(c.Writer, c.Request)
}
