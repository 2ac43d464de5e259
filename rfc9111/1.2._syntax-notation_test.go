package rfc9111

import (
	"testing"
	"time"
)

func TestToDeltaSeconds(t *testing.T) {
	fiveSeconds := 5 * time.Second
	if s := toDeltaSeconds(fiveSeconds); s != "5" {
		t.Fatalf("Delta seconds is %s", s)
	}
	if s := toDeltaSeconds(-time.Second); s != "0" {
		t.Fatalf("Negative delta seconds is %s", s)
	}
}

func TestDeltaSecondsMalformed(t *testing.T) {
	for _, value := range []string{"", "-1", "1.5", "abc", "60s"} {
		if _, ok := deltaSeconds(value); ok {
			t.Fatalf("Value %q should not parse", value)
		}
	}
}

func TestDeltaSecondsOverflow(t *testing.T) {
	d, ok := deltaSeconds("99999999999999999999999")
	if !ok || d != maxDeltaSeconds*time.Second {
		t.Fatalf("Delta seconds is %v (%v)", d, ok)
	}
}
