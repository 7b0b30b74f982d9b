package util

import (
	"net/http/httptest"
	"testing"
)

func TestClientIPDirectPeer(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.9:4567"
	if got := ClientIP(req); got != "203.0.113.9" {
		t.Fatalf("direct peer expected, got %q", got)
	}
}

func TestClientIPHonorsForwardedForFromProxy(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "127.0.0.1:4567"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := ClientIP(req); got != "203.0.113.9" {
		t.Fatalf("first forwarded hop expected, got %q", got)
	}
}

func TestClientIPIgnoresForwardedForFromPublicPeer(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "198.51.100.7:4567"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	if got := ClientIP(req); got != "198.51.100.7" {
		t.Fatalf("spoofable header must be ignored for public peers, got %q", got)
	}
}

func TestClientIPIgnoresGarbageForwardedFor(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "127.0.0.1:4567"
	req.Header.Set("X-Forwarded-For", "not-an-ip")
	if got := ClientIP(req); got != "127.0.0.1" {
		t.Fatalf("garbage header should fall back to the peer, got %q", got)
	}
}
