package lifaair

// ClientOptions contains configurable options for a LIFAair client.
type ClientOptions struct {
	Host   string
	Port   int
	ApiKey string
}

// NewClientOptions will create a new ClientOptions type with some default
// values.
//
//	Host: lifaair.local
//	Port: 8080
func NewClientOptions() *ClientOptions {
	return &ClientOptions{
		Host:   "lifaair.local",
		Port:   8080,
		ApiKey: "",
	}
}

// SetHost will set the address of the purifier monitor to connect to.
func (o *ClientOptions) SetHost(host string) *ClientOptions {
	o.Host = host
	return o
}

// SetPort will set the port of the purifier monitor to connect to.
func (o *ClientOptions) SetPort(port int) *ClientOptions {
	o.Port = port
	return o
}

// SetApiKey will set the key used to authenticate against the local device
// API.
func (o *ClientOptions) SetApiKey(key string) *ClientOptions {
	o.ApiKey = key
	return o
}
