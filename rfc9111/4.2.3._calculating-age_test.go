package rfc9111

import (
	"net/http"
	"testing"
	"time"
)

func TestRefreshForReuse(t *testing.T) {
	header := http.Header{}
	header.Set("Expires", "Sun, 17 Jul 2016 10:10:00 GMT")
	header.Set("Cache-Control", "max-age=600")
	now := time.Unix(1468749900, 0) // 10:05:00

	remaining, ok := RefreshForReuse(header, now)

	if !ok || remaining != 300*time.Second {
		t.Fatalf("Remaining is %v (%v)", remaining, ok)
	}
	if cc := header.Get("Cache-Control"); cc != "max-age=300" {
		t.Fatalf("Cache-Control is %s", cc)
	}
	if age := header.Get("Age"); age != "300" {
		t.Fatalf("Age is %s", age)
	}
}

func TestRefreshForReuseExpired(t *testing.T) {
	header := http.Header{}
	header.Set("Expires", "Sun, 17 Jul 2016 10:10:00 GMT")
	header.Set("Cache-Control", "max-age=600")
	remaining, ok := RefreshForReuse(header, time.Unix(1468750800, 0))
	if !ok || remaining != 0 {
		t.Fatalf("Remaining is %v (%v)", remaining, ok)
	}
	if cc := header.Get("Cache-Control"); cc != "max-age=0" {
		t.Fatalf("Cache-Control is %s", cc)
	}
	if age := header.Get("Age"); age != "600" {
		t.Fatalf("Age is %s", age)
	}
}

func TestRefreshForReuseWithoutMaxAge(t *testing.T) {
	header := http.Header{}
	header.Set("Expires", "Sun, 17 Jul 2016 10:10:00 GMT")
	header.Set("Age", "12")
	if _, ok := RefreshForReuse(header, time.Unix(1468749900, 0)); !ok {
		t.Fatal("Expires should be usable")
	}
	if age := header.Get("Age"); age != "" {
		t.Fatalf("Age is %s", age)
	}
}

func TestRefreshForReuseMalformedExpires(t *testing.T) {
	header := http.Header{}
	header.Set("Expires", "0")
	header.Set("Cache-Control", "max-age=600")
	if _, ok := RefreshForReuse(header, time.Unix(1468749900, 0)); ok {
		t.Fatal("Malformed Expires should be skipped")
	}
	if cc := header.Get("Cache-Control"); cc != "max-age=600" {
		t.Fatalf("Cache-Control is %s", cc)
	}
}
