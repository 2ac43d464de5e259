package rfc9110

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func representation(etag, lastModified string) http.Header {
	header := http.Header{}
	if etag != "" {
		header.Set("ETag", etag)
	}
	if lastModified != "" {
		header.Set("Last-Modified", lastModified)
	}
	header.Set("Cache-Control", "max-age=600")
	header.Set("Expires", "Sun, 17 Jul 2016 10:10:00 GMT")
	header.Set("Content-Type", "text/plain")
	return header
}

func TestNotModified(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		requestField string
		requestValue string
		etag         string
		lastModified string
		want         bool
	}{
		{"matching etag", "GET", "If-None-Match", `"etag"`, `"etag"`, "", true},
		{"unquoted etag", "GET", "If-None-Match", "etag", `"etag"`, "", true},
		{"weak comparison", "GET", "If-None-Match", `W/"etag"`, `"etag"`, "", true},
		{"list", "GET", "If-None-Match", `"a", "etag"`, `"etag"`, "", true},
		{"star", "HEAD", "If-None-Match", "*", `"etag"`, "", true},
		{"other etag", "GET", "If-None-Match", `"another_etag"`, `"etag"`, "", false},
		{"no current etag", "GET", "If-None-Match", `"etag"`, "", "", false},
		{"post", "POST", "If-None-Match", `"etag"`, `"etag"`, "", false},
		{"not modified since", "GET", "If-Modified-Since", "Sun, 17 Jul 2016 09:55:00 GMT", "", "Sun, 17 Jul 2016 09:55:00 GMT", true},
		{"modified since", "GET", "If-Modified-Since", "Sun, 17 Jul 2016 09:50:00 GMT", "", "Sun, 17 Jul 2016 09:55:00 GMT", false},
		{"invalid date", "GET", "If-Modified-Since", "yesterday", "", "Sun, 17 Jul 2016 09:55:00 GMT", false},
		{"no last modified", "GET", "If-Modified-Since", "Sun, 17 Jul 2016 09:55:00 GMT", "", "", false},
		{"if-match ignored", "GET", "If-Match", `"other"`, `"etag"`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set(tt.requestField, tt.requestValue)
			if got := NotModified(req, representation(tt.etag, tt.lastModified)); got != tt.want {
				t.Fatalf("NotModified is %v", got)
			}
		})
	}
}

func TestIfNoneMatchDominatesIfModifiedSince(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("If-None-Match", `"another_etag"`)
	req.Header.Set("If-Modified-Since", "Sun, 17 Jul 2016 09:55:00 GMT")
	if NotModified(req, representation(`"etag"`, "Sun, 17 Jul 2016 09:55:00 GMT")) {
		t.Fatal("If-Modified-Since must be ignored when If-None-Match is present")
	}
}

func TestNegotiateNotModified(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("If-None-Match", `"etag"`)
	header := representation(`"etag"`, "")
	header.Set("Vary", "If-None-Match")
	header.Set("Content-Location", "/page")

	status, h := Negotiate(req, http.StatusOK, header)

	if status != http.StatusNotModified {
		t.Fatalf("Status is %d", status)
	}
	for _, name := range []string{"ETag", "Vary", "Cache-Control", "Expires", "Content-Location"} {
		if h.Get(name) != header.Get(name) {
			t.Fatalf("%s is %q", name, h.Get(name))
		}
	}
	if h.Get("Content-Type") != "" {
		t.Fatalf("Content-Type should not be copied: %v", h)
	}
	if h.Get("Last-Modified") != "" {
		t.Fatalf("Last-Modified should not be invented: %v", h)
	}
}

func TestNegotiateKeepsNonOK(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("If-None-Match", `"etag"`)
	header := representation(`"etag"`, "")
	status, h := Negotiate(req, http.StatusNotFound, header)
	if status != http.StatusNotFound || h.Get("Content-Type") != "text/plain" {
		t.Fatalf("Status is %d, header %v", status, h)
	}
}

func TestNotModifiedOnlyForRetrieval(t *testing.T) {
	header := representation(`"etag"`, "Sun, 17 Jul 2016 09:55:00 GMT")
	for _, method := range []string{"POST", "PUT", "DELETE"} {
		for _, field := range []string{"If-None-Match", "If-Modified-Since"} {
			req := httptest.NewRequest(method, "/", nil)
			if field == "If-None-Match" {
				req.Header.Set(field, `"etag"`)
			} else {
				req.Header.Set(field, "Sun, 17 Jul 2016 09:55:00 GMT")
			}
			if NotModified(req, header) {
				t.Fatalf("%s with matching %s evaluated to 304", method, field)
			}
		}
	}
}

func TestNotModifiedHeaderCanonicalKeys(t *testing.T) {
	h := NotModifiedHeader(representation(`"etag"`, ""))
	if len(h["Etag"]) != 1 || h["ETag"] != nil {
		t.Fatalf("ETag stored under non-canonical key: %v", h)
	}
	// adding to the copy must not create a second field
	h.Set("ETag", `"other"`)
	if values := h.Values("ETag"); len(values) != 1 {
		t.Fatalf("ETag values are %v", values)
	}
}
