package lifaair

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog/log"
)

const (
	disconnected uint32 = 0
	connecting   uint32 = 1
	connected    uint32 = 2
)

// NotificationCallback is invoked for every state snapshot the device pushes
// over the notification websocket.
type NotificationCallback func(state DeviceState)

// Client is the interface to the LIFAair monitor local API, the interface is
// primarily to allow mocking tests.
type Client interface {
	// Connect opens the notification websocket against the device.
	Connect() error
	// Disconnect closes the websocket and any idle HTTP connection.
	Disconnect() error

	// GetState fetches the current device state.
	GetState() (*DeviceState, error)
	// SetFanMode requests the given operating mode. The response carries the
	// refreshed device state.
	SetFanMode(mode FanMode) (*DeviceState, error)
	// SetFanSpeed requests the given speed on the 0-121 device scale. The
	// response carries the refreshed device state.
	SetFanSpeed(speed int) (*DeviceState, error)

	// NotificationSubscribe registers a callback for pushed state snapshots.
	NotificationSubscribe(id string, callback NotificationCallback) error
	// NotificationUnsubscribe removes a previously registered callback.
	NotificationUnsubscribe(id string) error
}

// client implements the Client interface.
type client struct {
	status uint32

	httpClient          *http.Client
	options             ClientOptions
	websocketConnection *websocket.Conn

	// callbacksMutex protects the callback map: the websocket reader fans
	// out notifications while subscribers come and go.
	callbacksMutex        sync.Mutex
	notificationCallbacks map[string]NotificationCallback
}

// NewClient will create a LIFAair client with all the options specified in
// the provided ClientOptions. The client must have the Connect() method
// called on it before it may be used.
func NewClient(options *ClientOptions) Client {
	return &client{
		status:                disconnected,
		httpClient:            &http.Client{},
		options:               *options,
		notificationCallbacks: map[string]NotificationCallback{},
	}
}

func (c *client) Connect() error {
	if c.status == connected {
		// Already connected to the device.
		return nil
	}
	c.status = connecting

	websocketHost := "ws://" + c.options.Host + ":" + strconv.Itoa(c.options.Port) + "/api/v1/notifications"
	log.Trace().Str("host", websocketHost).Msg("Connecting to websocket")
	ws, _, err := websocket.DefaultDialer.Dial(websocketHost, nil)
	if err != nil {
		return fmt.Errorf("unable to connect to notification websocket: %w", err)
	}
	c.websocketConnection = ws
	// initiate the notification stream
	err = c.websocketConnection.WriteJSON(WebsocketInitMessage{
		Protocol: "json",
		Version:  1,
	})
	if err != nil {
		return fmt.Errorf("error writing to websocket: %w", err)
	}

	go func() {
		firstMessage := true
		for {
			var notif WebsocketNotification
			err := c.websocketConnection.ReadJSON(&notif)
			if err != nil {
				log.Error().Err(err).Msg("Websocket reading error")
				break
			} else if len(notif.Arguments) == 0 {
				if !firstMessage {
					log.Warn().Msg("No argument received in notification")
				}
			} else {
				state, err := wrapApiResponse[DeviceState](notif.Arguments[0], nil)
				if err != nil {
					log.Error().Err(err).Msg("Error decoding notification state")
				} else {
					c.notifyCallbacks(*state)
					log.Trace().Str("target", notif.Target).Msg("Websocket notification received")
				}
			}
			firstMessage = false
		}
		log.Warn().Msg("Closing websocket reader")
	}()

	c.status = connected
	return nil
}

func (c *client) Disconnect() error {
	if c.status == disconnected {
		// Already disconnected.
		return nil
	}

	c.httpClient.CloseIdleConnections()
	c.websocketConnection.Close()

	c.status = disconnected
	return nil
}

func (c *client) GetState() (*DeviceState, error) {
	response, err := c.getRequest("api/v1/state")
	return wrapApiResponse[DeviceState](response, err)
}

func (c *client) SetFanMode(mode FanMode) (*DeviceState, error) {
	response, err := c.postRequest("api/v1/fan/mode", SetFanModeRequest{FanMode: mode})
	return wrapApiResponse[DeviceState](response, err)
}

func (c *client) SetFanSpeed(speed int) (*DeviceState, error) {
	if speed < 0 || speed > MaxFanSpeed {
		return nil, fmt.Errorf("fan speed %d out of range [0,%d]", speed, MaxFanSpeed)
	}
	response, err := c.postRequest("api/v1/fan/speed", SetFanSpeedRequest{FanSpeed: speed})
	return wrapApiResponse[DeviceState](response, err)
}

func (c *client) NotificationSubscribe(id string, callback NotificationCallback) error {
	c.callbacksMutex.Lock()
	defer c.callbacksMutex.Unlock()

	_, exists := c.notificationCallbacks[id]
	if exists {
		return errors.New("Notification callback with id " + id + " already exists")
	}
	c.notificationCallbacks[id] = callback
	return nil
}

func (c *client) NotificationUnsubscribe(id string) error {
	c.callbacksMutex.Lock()
	defer c.callbacksMutex.Unlock()

	_, exists := c.notificationCallbacks[id]
	if !exists {
		return errors.New("Notification callback with id " + id + " does not exist")
	}
	delete(c.notificationCallbacks, id)
	return nil
}

// notifyCallbacks fans a pushed snapshot out to the registered callbacks. The
// map is copied under the lock so callbacks run without holding it.
func (c *client) notifyCallbacks(state DeviceState) {
	c.callbacksMutex.Lock()
	callbacks := make([]NotificationCallback, 0, len(c.notificationCallbacks))
	for _, callback := range c.notificationCallbacks {
		callbacks = append(callbacks, callback)
	}
	c.callbacksMutex.Unlock()

	for _, callback := range callbacks {
		callback(state)
	}
}

func (c *client) doRequest(method string, path string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader = nil
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = strings.NewReader(string(jsonBody))
	}
	callUrl := "http://" + c.options.Host + ":" + strconv.Itoa(c.options.Port) + "/" + path

	request, err := http.NewRequest(method, callUrl, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error building the request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+c.options.ApiKey)
	if bodyReader != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("error doing the request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, fmt.Errorf("error reading the response: %w", readErr)
	}

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("error response from device, httpStatus=%d: %s", resp.StatusCode, responseBody)
	}

	log.Debug().
		Str("url", callUrl).
		Str("status", resp.Status).
		Msg("Response received")
	log.Trace().
		Str("body", string(responseBody)).
		Msg("Response body")

	return responseBody, nil
}

// getRequest performs a GET request against the device and returns the
// `data` item of the JSON response.
func (c *client) getRequest(path string) (interface{}, error) {
	body, err := c.doRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return unwrapData(path, body)
}

// postRequest performs a POST request against the device and returns the
// `data` item of the JSON response.
func (c *client) postRequest(path string, body interface{}) (interface{}, error) {
	responseBody, err := c.doRequest(http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	return unwrapData(path, responseBody)
}

func unwrapData(path string, body []byte) (interface{}, error) {
	var jsonResponse map[string]interface{}
	if err := json.Unmarshal(body, &jsonResponse); err != nil {
		return nil, fmt.Errorf("error parsing response for path %s: %w", path, err)
	}
	data, ok := jsonResponse["data"]
	if !ok {
		return nil, errors.New("no 'data' field present, cannot get data from request")
	}
	return data, nil
}

// wrapApiResponse takes a generic response interface and maps it to the given
// structure. This is used to decode the responses from the device API into
// explicit structs.
func wrapApiResponse[T any](response interface{}, err error) (*T, error) {
	// Handle original error coming from the response.
	if err != nil {
		return nil, err
	}

	// Decode the response into the given struct type.
	res := new(T)
	config := &mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           res,
		WeaklyTypedInput: true,
		ErrorUnset:       false,
	}
	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return nil, fmt.Errorf("error building decoder: %w", err)
	}
	if err = decoder.Decode(response); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}
	return res, nil
}
