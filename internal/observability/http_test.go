package observability

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeviceIDFromRequestHeader(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws/rooms/1?device_id=query-device", nil)
	req.Header.Set("X-Device-Id", "header-device")

	assert.Equal(t, "header-device", DeviceIDFromRequest(req))
}

func TestDeviceIDFromRequestQueryFallback(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws/rooms/1?device_id=query-device", nil)

	assert.Equal(t, "query-device", DeviceIDFromRequest(req))
}

func TestIPFromRequestForwardedFor(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	assert.Equal(t, "203.0.113.9", IPFromRequest(req))
}

func TestIPFromRequestRemoteAddr(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.4:51234"

	assert.Equal(t, "192.0.2.4", IPFromRequest(req))
}
