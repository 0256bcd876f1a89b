package hue

import (
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
)

// GetLights returns every light on the bridge that supports a colour temperature
func (h *HueAPIService) GetLights() ([]*Light, error) {

	body, err := h.GET("/clip/v2/resource/light")
	if err != nil {
		return nil, fmt.Errorf("Error reading lights from hue bridge: %w", err)
	}

	respBody := LightResponse{}
	if err := json.Unmarshal(body, &respBody); err != nil {
		return nil, fmt.Errorf("Error parsing light response: %w", err)
	}

	lights := lo.FilterMap(respBody.Data, func(light HueLight, _ int) (*Light, bool) {
		if light.ColorTemperature == nil {
			h.logger.Debug("Skipping light without colour temperature", "name", light.Metadata.Name)
			return nil, false
		}
		return h.newLight(light), true
	})

	// best effort, the zigbee id only lets us spot the light coming back online
	for _, light := range lights {
		zigbeeID, err := h.GetZigbeeID(light.deviceID)
		if err != nil {
			h.logger.Warn("Unable to read device for light", "light", light.name, "err", err)
			continue
		}
		light.zigbeeID = zigbeeID
	}

	return lights, nil
}

// GetLight returns the light, or false if it has no colour temperature
func (h *HueAPIService) GetLight(id string) (*Light, bool, error) {

	body, err := h.GET(fmt.Sprintf("/clip/v2/resource/light/%s", id))
	if err != nil {
		return nil, false, fmt.Errorf("Error reading light (%s): %w", id, err)
	}
	lresp := LightResponse{}
	if err := json.Unmarshal(body, &lresp); err != nil {
		return nil, false, fmt.Errorf("Error parsing light (%s) response: %w", id, err)
	}
	if len(lresp.Data) == 0 {
		return nil, false, fmt.Errorf("Error reading light (%s): no data", id)
	}

	light := lresp.Data[0]
	if light.ColorTemperature == nil {
		return nil, false, nil
	}
	l := h.newLight(light)

	zigbeeID, err := h.GetZigbeeID(light.Owner.RID)
	if err != nil {
		h.logger.Warn("Unable to read device for light", "light", l.name, "err", err)
	} else {
		l.zigbeeID = zigbeeID
	}

	return l, true, nil
}

// GetZigbeeID returns the id of the device's zigbee connectivity service
func (h *HueAPIService) GetZigbeeID(deviceID string) (string, error) {

	body, err := h.GET(fmt.Sprintf("/clip/v2/resource/device/%s", deviceID))
	if err != nil {
		return "", err
	}
	dresp := DevicesResponse{}
	if err := json.Unmarshal(body, &dresp); err != nil {
		return "", fmt.Errorf("Error parsing device (%s) response: %w", deviceID, err)
	}
	if len(dresp.Data) == 0 {
		return "", fmt.Errorf("Error reading device (%s): no data", deviceID)
	}

	zbService, found := lo.Find(dresp.Data[0].Services, func(s HueDeviceService) bool {
		return s.RType == "zigbee_connectivity"
	})
	if !found {
		return "", fmt.Errorf("Error reading device (%s): no zigbee connectivity service", deviceID)
	}
	return zbService.RID, nil
}

func (h *HueAPIService) SetColourTemperature(lightID string, mirek int) error {
	requestBody := []byte(fmt.Sprintf(`{ "color_temperature": { "mirek": %v } }`, mirek))

	_, err := h.PUT(fmt.Sprintf("/clip/v2/resource/light/%s", lightID), requestBody)
	if err != nil {
		return err
	}
	return nil
}

func (h *HueAPIService) newLight(light HueLight) *Light {
	return &Light{
		api:      h,
		id:       light.Id,
		name:     light.Metadata.Name,
		deviceID: light.Owner.RID,
		minMirek: light.ColorTemperature.MirekSchema.Minimum,
		maxMirek: light.ColorTemperature.MirekSchema.Maximum,
	}
}
