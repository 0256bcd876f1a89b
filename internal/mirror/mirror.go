package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/wheelibin/dusk/internal/nightlight"
)

const StateKey = "dusk:state"
const EventChannel = "dusk:events"

const writeTimeout = 2 * time.Second

type redisClient interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Mirror copies the scheduler state into a redis hash and publishes every change event.
// Publish never blocks, writes happen on the mirror's own goroutine.
type Mirror struct {
	logger *log.Logger
	client redisClient
	events chan nightlight.Event
}

func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func NewMirror(logger *log.Logger, client redisClient) *Mirror {
	return &Mirror{
		logger: logger,
		client: client,
		events: make(chan nightlight.Event, 64),
	}
}

func (m *Mirror) Publish(event nightlight.Event) {
	select {
	case m.events <- event:
	default:
		m.logger.Warn("Redis mirror is falling behind, dropping event", "kind", event.Kind)
	}
}

// Run writes events until ctx is done
func (m *Mirror) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-m.events:
			if err := m.write(ctx, event); err != nil {
				m.logger.Warn("Error mirroring state to redis", "err", err)
			}
		}
	}
}

func (m *Mirror) write(ctx context.Context, event nightlight.Event) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := m.client.HSet(ctx, StateKey, Fields(event.State)).Err(); err != nil {
		return fmt.Errorf("Error writing %s: %w", StateKey, err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("Error encoding event: %w", err)
	}
	if err := m.client.Publish(ctx, EventChannel, payload).Err(); err != nil {
		return fmt.Errorf("Error publishing to %s: %w", EventChannel, err)
	}
	return nil
}

// Fields flattens a snapshot into hash fields
func Fields(s nightlight.Snapshot) map[string]string {
	return map[string]string{
		"enabled":                     strconv.FormatBool(s.Enabled),
		"running":                     strconv.FormatBool(s.Running),
		"inhibited":                   strconv.FormatBool(s.Inhibited),
		"mode":                        string(s.Mode),
		"currentTemperature":          strconv.Itoa(s.CurrentTemperature),
		"targetTemperature":           strconv.Itoa(s.TargetTemperature),
		"daylight":                    strconv.FormatBool(s.Daylight),
		"previousTransitionStart":     formatTime(s.Previous.Start),
		"previousTransitionDuration":  strconv.Itoa(int(s.Previous.Duration.Seconds())),
		"scheduledTransitionStart":    formatTime(s.Scheduled.Start),
		"scheduledTransitionDuration": strconv.Itoa(int(s.Scheduled.Duration.Seconds())),
		"previewing":                  strconv.FormatBool(s.Previewing),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
