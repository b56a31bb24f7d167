package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "fly header wins", headers: map[string]string{"Fly-Client-IP": "198.51.100.7", "X-Forwarded-For": "203.0.113.5"}, remote: "10.0.0.1:443", want: "198.51.100.7"},
		{name: "forwarded-for chain uses first hop", headers: map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.2"}, remote: "10.0.0.1:443", want: "203.0.113.5"},
		{name: "real-ip fallback", headers: map[string]string{"X-Real-IP": "192.0.2.44"}, remote: "10.0.0.1:443", want: "192.0.2.44"},
		{name: "socket fallback strips port", remote: "192.0.2.9:51234", want: "192.0.2.9"},
		{name: "garbage header skipped", headers: map[string]string{"X-Forwarded-For": "not-an-ip"}, remote: "192.0.2.9:51234", want: "192.0.2.9"},
		{name: "ipv6 socket", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := resolveClientIP(req); got != tt.want {
				t.Fatalf("resolveClientIP()=%q, want %q", got, tt.want)
			}
		})
	}
}
