package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wheelibin/dusk/internal/api"
	"github.com/wheelibin/dusk/internal/models"
	"github.com/wheelibin/dusk/internal/nightlight"
)

// ErrUnknownToken is returned when uninhibiting with a token the daemon doesn't hold
var ErrUnknownToken = errors.New("unknown inhibition token")

const requestTimeout = 10 * time.Second

// Client talks to the duskd control API
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
	}
}

func (c *Client) State() (nightlight.Snapshot, error) {
	var state nightlight.Snapshot
	err := c.do(http.MethodGet, "/state", nil, &state)
	return state, err
}

func (c *Client) Devices() ([]models.DeviceStatus, error) {
	var devices []models.DeviceStatus
	err := c.do(http.MethodGet, "/devices", nil, &devices)
	return devices, err
}

func (c *Client) Toggle() (bool, error) {
	var resp api.ToggleResponse
	err := c.do(http.MethodPost, "/toggle", nil, &resp)
	return resp.Inhibited, err
}

func (c *Client) Inhibit(name string) (nightlight.Token, error) {
	var resp api.InhibitResponse
	err := c.do(http.MethodPost, "/inhibit", api.InhibitRequest{Name: name}, &resp)
	return resp.Token, err
}

func (c *Client) Uninhibit(token string) error {
	err := c.do(http.MethodDelete, "/inhibit/"+token, nil, nil)
	var status statusError
	if errors.As(err, &status) && status.code == http.StatusNotFound {
		return ErrUnknownToken
	}
	return err
}

func (c *Client) Preview(temperature int) (nightlight.Snapshot, error) {
	var state nightlight.Snapshot
	err := c.do(http.MethodPost, "/preview", api.PreviewRequest{Temperature: temperature}, &state)
	return state, err
}

func (c *Client) StopPreview() (nightlight.Snapshot, error) {
	var state nightlight.Snapshot
	err := c.do(http.MethodDelete, "/preview", nil, &state)
	return state, err
}

type statusError struct {
	code    int
	message string
}

func (e statusError) Error() string {
	if e.message == "" {
		return fmt.Sprintf("duskd returned %d", e.code)
	}
	return fmt.Sprintf("duskd returned %d: %s", e.code, e.message)
}

func (c *Client) do(method string, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("Error encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("Error calling duskd: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return statusError{code: resp.StatusCode, message: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("Error parsing duskd response: %w", err)
	}
	return nil
}
