package clientip

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRealClientIP(t *testing.T) {
	t.Cleanup(func() { TrustProxyHeaders(false) })

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:41234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Set("X-Real-IP", "198.51.100.3")

	assert.Equal(t, "10.0.0.5", RealClientIP(req), "headers are ignored by default")

	TrustProxyHeaders(true)
	assert.Equal(t, "203.0.113.9", RealClientIP(req))

	req.Header.Set("X-Forwarded-For", "garbage")
	assert.Equal(t, "198.51.100.3", RealClientIP(req))

	req.Header.Del("X-Forwarded-For")
	req.Header.Del("X-Real-IP")
	assert.Equal(t, "10.0.0.5", RealClientIP(req))

	req.RemoteAddr = "no-port"
	assert.Equal(t, "no-port", RealClientIP(req))
}
