package positions

import (
	"net/http"
	"strings"
)

// Method is the HTTP verb of a dispatched request
type Method string

// HTTP methods the backend accepts
const (
	GET     Method = http.MethodGet     // Retrieve resources
	POST    Method = http.MethodPost    // Create resources or authenticate
	PUT     Method = http.MethodPut     // Replace a resource
	DELETE  Method = http.MethodDelete  // Remove a resource
	OPTIONS Method = http.MethodOptions // Preflight
)

// DefaultProxyPrefix is the same-origin route that forwards to the remote backend
const DefaultProxyPrefix = "/api/proxy/"

// valid reports whether m is one of the supported methods.
func (m Method) valid() bool {
	switch m {
	case GET, POST, PUT, DELETE, OPTIONS:
		return true
	}
	return false
}

// Header is a single name/value pair sent with every request to a backend
type Header struct {
	// Name is the HTTP header name (e.g. "X-API-Key")
	Name string `json:"name" yaml:"name"`

	// Value is sent verbatim
	Value string `json:"value" yaml:"value"`
}

// RequestOptions describes one call made through the dispatcher
type RequestOptions struct {
	// Method defaults to GET when empty
	Method Method

	// Headers are merged over the defaults. Authorization is always
	// recomputed from the token store and cannot be set here.
	Headers map[string]string

	// Body is the serialized payload, sent as is
	Body []byte
}

func (o *RequestOptions) method() Method {
	if o == nil || o.Method == "" {
		return GET
	}
	return Method(strings.ToUpper(string(o.Method)))
}

// joinProxyPath appends endpoint to prefix with exactly one slash between them.
func joinProxyPath(prefix, endpoint string) string {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + strings.TrimPrefix(endpoint, "/")
}
