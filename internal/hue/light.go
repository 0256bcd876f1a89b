package hue

import (
	"math"

	"github.com/samber/lo"
)

// Light drives the colour temperature of one hue light
type Light struct {
	api      *HueAPIService
	id       string
	name     string
	deviceID string
	zigbeeID string
	minMirek int
	maxMirek int
}

func (l *Light) ID() string       { return "hue-" + l.id }
func (l *Light) Name() string     { return l.name }
func (l *Light) LightID() string  { return l.id }
func (l *Light) ZigbeeID() string { return l.zigbeeID }

// Mirek converts kelvin to the light's unit, limited to what the light can show
func (l *Light) Mirek(kelvin int) int {
	mirek := int(math.Round(1e6 / float64(kelvin)))
	if l.minMirek == 0 && l.maxMirek == 0 {
		return mirek
	}
	return lo.Clamp(mirek, l.minMirek, l.maxMirek)
}

func (l *Light) SetTemperature(temperature int) error {
	return l.api.SetColourTemperature(l.id, l.Mirek(temperature))
}
