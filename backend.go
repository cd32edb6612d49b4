package positions

// Backend defines the remote HTTP backend
type Backend struct {
	// BaseURL is prepended to every endpoint when not in proxy mode
	BaseURL string `json:"base_url" yaml:"base_url"`

	// DefaultHeaders are sent with every request, below caller headers
	// and above Content-Type. Authorization set here is ignored.
	DefaultHeaders []*Header `json:"default_headers,omitempty" yaml:"default_headers,omitempty"`

	// Timeout bounds a whole exchange at the transport layer. Zero disables it.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

func (b *Backend) headerMap() map[string]string {
	if len(b.DefaultHeaders) == 0 {
		return nil
	}
	headers := make(map[string]string, len(b.DefaultHeaders))
	for _, h := range b.DefaultHeaders {
		headers[h.Name] = h.Value
	}
	return headers
}
