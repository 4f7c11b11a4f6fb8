package tracing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseHeaders(t *testing.T) {
	got := parseHeaders(" api-key = abc ,tenant=t1,broken, =empty")

	assert.Equal(t, map[string]string{"api-key": "abc", "tenant": "t1"}, got)
	assert.Empty(t, parseHeaders(""))
}

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{"", defaultTimeout},
		{"1500", 1500 * time.Millisecond},
		{"3s", 3 * time.Second},
		{"-5", defaultTimeout},
		{"soon", defaultTimeout},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseTimeout(tt.raw, defaultTimeout), tt.raw)
	}
}

func TestIsInsecure(t *testing.T) {
	assert.True(t, isInsecure("", " TRUE "))
	assert.False(t, isInsecure("false", ""))
}

func TestServiceName(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")
	assert.Equal(t, defaultServiceName, serviceName())

	t.Setenv("OTEL_SERVICE_NAME", "checkout")
	assert.Equal(t, "checkout", serviceName())
}
