package main

import (
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		arg  string
		host string
		port int
	}{
		{arg: "clip.example.com", host: "clip.example.com", port: 443},
		{arg: "clip.example.com:8443", host: "clip.example.com", port: 8443},
		{arg: "192.168.1.10", host: "192.168.1.10", port: 443},
		{arg: "192.168.1.10:9000", host: "192.168.1.10", port: 9000},
		{arg: "[::1]:8443", host: "::1", port: 8443},
		{arg: "[::1]", host: "::1", port: 443},
		{arg: "::1", host: "::1", port: 443},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			host, port, err := splitEndpoint(tt.arg)
			require.NoError(t, err)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.port, port)

			// The host must re-join cleanly for dialing.
			joined := net.JoinHostPort(host, strconv.Itoa(port))
			rehost, _, err := net.SplitHostPort(joined)
			require.NoError(t, err)
			assert.Equal(t, tt.host, rehost)
		})
	}
}

func TestSplitEndpointInvalidPort(t *testing.T) {
	_, _, err := splitEndpoint("clip.example.com:notaport")
	assert.Error(t, err)

	_, _, err = splitEndpoint("clip.example.com:70000")
	assert.Error(t, err)
}
