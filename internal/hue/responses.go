package hue

import "time"

type HueDeviceService struct {
	RID   string `json:"rid"`
	RType string `json:"rtype"`
}

type HueDevice struct {
	Id       string `json:"id"`
	Metadata struct {
		Name string `json:"name"`
		Type string `json:"archetype"`
	} `json:"metadata"`
	Services []HueDeviceService `json:"services"`
}

type HueLight struct {
	Id    string           `json:"id"`
	Owner HueDeviceService `json:"owner"`
	On    struct {
		On bool `json:"on"`
	} `json:"on"`
	Metadata struct {
		Name string `json:"name"`
	} `json:"metadata"`
	// nil for lights without a white colour temperature
	ColorTemperature *struct {
		Mirek       *int `json:"mirek"`
		MirekValid  bool `json:"mirek_valid"`
		MirekSchema struct {
			Minimum int `json:"mirek_minimum"`
			Maximum int `json:"mirek_maximum"`
		} `json:"mirek_schema"`
	} `json:"color_temperature"`
}

type DevicesResponse struct {
	Errors []interface{} `json:"errors"`
	Data   []HueDevice   `json:"data"`
}

type LightResponse struct {
	Errors []interface{} `json:"errors"`
	Data   []HueLight    `json:"data"`
}

// one batch of the bridge event stream
type HueEvent struct {
	CreationTime time.Time      `json:"creationtime"`
	Data         []HueEventData `json:"data"`
	Type         string         `json:"type"`
}

type HueEventData struct {
	Id     string            `json:"id"`
	Owner  *HueDeviceService `json:"owner"`
	Type   string            `json:"type"`
	Status string            `json:"status"`
}
