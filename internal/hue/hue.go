package hue

import (
	"bytes"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// ErrUnreachable is returned when the bridge accepted a request but couldn't reach the light
var ErrUnreachable = errors.New("unreachable")

const requestTimeout = 10 * time.Second

type HueAPIService struct {
	logger         *log.Logger
	baseURL        string
	applicationKey string
	client         *http.Client
}

func NewHueAPIService(logger *log.Logger, bridgeIP string, applicationKey string) *HueAPIService {
	// the bridge uses a self signed certificate
	tr := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	return &HueAPIService{
		logger:         logger,
		baseURL:        fmt.Sprintf("https://%s", bridgeIP),
		applicationKey: applicationKey,
		client:         &http.Client{Transport: tr, Timeout: requestTimeout},
	}
}

// WithBaseURL points the service somewhere other than https://<bridge>, e.g. a test server
func (h *HueAPIService) WithBaseURL(baseURL string, client *http.Client) *HueAPIService {
	h.baseURL = baseURL
	h.client = client
	return h
}

func (h *HueAPIService) GET(url string) ([]byte, error) {
	return h.makeRequest("GET", url, nil)
}

func (h *HueAPIService) PUT(url string, body []byte) ([]byte, error) {
	return h.makeRequest("PUT", url, body)
}

func (h *HueAPIService) makeRequest(verb string, url string, body []byte) ([]byte, error) {

	bodyReader := bytes.NewReader(body)
	req, err := http.NewRequest(verb, h.baseURL+url, bodyReader)
	if err != nil {
		return nil, err
	}

	// set headers
	req.Header.Set("hue-application-key", h.applicationKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// make the request
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Error calling hue bridge (%s %s): %w", verb, url, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		responseBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("Error reading hue bridge response (%s): %w", url, err)
		}
		return responseBody, nil
	case http.StatusMultiStatus:
		// the bridge returns this when the light is powered off at the wall
		return nil, ErrUnreachable
	default:
		h.logger.Debug("Error making Hue API call", "url", url, "status", resp.Status)
		return nil, fmt.Errorf("Error calling hue bridge (%s %s): %s", verb, url, resp.Status)
	}

}
