package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientKey(t *testing.T) {
	tests := []struct {
		name string
		ip   string
		want string
	}{
		{name: "ipv4", ip: "203.0.113.7", want: "203.0.113.7"},
		{name: "ipv6", ip: "2001:db8::1", want: "2001:db8::1"},
		{name: "ipv6 zone", ip: "fe80::1%eth0", want: "fe80::1"},
		{name: "padded", ip: " 10.0.0.1 ", want: "10.0.0.1"},
		{name: "empty", ip: "", want: UnknownClient},
		{name: "hostname", ip: "localhost", want: UnknownClient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClientKey(tt.ip))
		})
	}
}

func TestIsValidIP(t *testing.T) {
	assert.True(t, IsValidIP("127.0.0.1"))
	assert.False(t, IsValidIP("127.0.0.256"))
	assert.False(t, IsValidIP(""))
}
