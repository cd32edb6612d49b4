package positions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	r := Resolver{
		RemoteBase: "https://api.example.com",
		DevPort:    "3000",
		DevHosts:   []string{"dev.internal"},
	}

	tests := []struct {
		name string
		env  Environment
		want string
	}{
		{"server side", Environment{}, "https://api.example.com"},
		{"server side ignores host", Environment{Hostname: "localhost"}, "https://api.example.com"},
		{"localhost", Environment{Browser: true, Hostname: "localhost", Port: "8080"}, ""},
		{"localhost uppercase", Environment{Browser: true, Hostname: "LOCALHOST"}, ""},
		{"loopback", Environment{Browser: true, Hostname: "127.0.0.1"}, ""},
		{"loopback range", Environment{Browser: true, Hostname: "127.0.1.1"}, ""},
		{"ipv6 loopback", Environment{Browser: true, Hostname: "::1"}, ""},
		{"private 192.168", Environment{Browser: true, Hostname: "192.168.1.20"}, ""},
		{"private 10", Environment{Browser: true, Hostname: "10.105.252.84"}, ""},
		{"private 172.16", Environment{Browser: true, Hostname: "172.16.0.4"}, ""},
		{"private 172.31", Environment{Browser: true, Hostname: "172.31.255.1"}, ""},
		{"dev port on public host", Environment{Browser: true, Hostname: "app.example.com", Port: "3000"}, ""},
		{"configured dev host", Environment{Browser: true, Hostname: "dev.internal"}, ""},
		{"public host", Environment{Browser: true, Hostname: "app.example.com"}, "https://api.example.com"},
		{"public host other port", Environment{Browser: true, Hostname: "app.example.com", Port: "8443"}, "https://api.example.com"},
		{"public ip", Environment{Browser: true, Hostname: "8.8.8.8"}, "https://api.example.com"},
		{"outside 172.16/12", Environment{Browser: true, Hostname: "172.32.0.1"}, "https://api.example.com"},
		{"hostname with private prefix", Environment{Browser: true, Hostname: "10.example.com"}, "https://api.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, r.Resolve(tt.env))
		})
	}
}

func TestResolver_ResolveIsDeterministic(t *testing.T) {
	t.Parallel()

	r := DefaultResolver()
	env := Environment{Browser: true, Hostname: "app.example.com", Port: "443"}

	first := r.Resolve(env)
	for range 10 {
		assert.Equal(t, first, r.Resolve(env))
	}
	assert.Equal(t, DefaultRemoteBase, first)
}

func TestEnvironmentFromURL(t *testing.T) {
	t.Parallel()

	env, err := EnvironmentFromURL("http://localhost:3000/positions")
	require.NoError(t, err)
	assert.Equal(t, Environment{Browser: true, Scheme: "http", Hostname: "localhost", Port: "3000"}, env)
	assert.Equal(t, "http://localhost:3000", env.Origin())

	env, err = EnvironmentFromURL("https://[::1]/")
	require.NoError(t, err)
	assert.Equal(t, "::1", env.Hostname)
	assert.Equal(t, "https://[::1]", env.Origin())

	_, err = EnvironmentFromURL("/relative/only")
	assert.Error(t, err)

	_, err = EnvironmentFromURL("http://%zz")
	assert.Error(t, err)
}

func TestEnvironment_Origin(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", Environment{}.Origin())
	assert.Equal(t, "http://app.local", Environment{Browser: true, Hostname: "app.local"}.Origin())
	assert.Equal(t, "https://app.local:8443", Environment{Browser: true, Scheme: "https", Hostname: "app.local", Port: "8443"}.Origin())
}
