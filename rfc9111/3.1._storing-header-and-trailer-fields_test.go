package rfc9111

import (
	"net/http"
	"testing"
)

func TestStorableHeader(t *testing.T) {
	header := http.Header{}
	header.Set("Connection", "X-Hop")
	header.Set("X-Hop", "1")
	header.Set("Keep-Alive", "timeout=5")
	header.Set("Content-Type", "text/html")
	header.Set("Proxy-Authenticate", "Basic")

	h := StorableHeader(header)

	for _, name := range []string{"Connection", "X-Hop", "Keep-Alive", "Proxy-Authenticate"} {
		if h.Get(name) != "" {
			t.Fatalf("%s should not be stored", name)
		}
	}
	if h.Get("Content-Type") != "text/html" {
		t.Fatalf("Content-Type is %s", h.Get("Content-Type"))
	}
	if header.Get("X-Hop") != "1" {
		t.Fatal("Original header should not be modified")
	}
}
