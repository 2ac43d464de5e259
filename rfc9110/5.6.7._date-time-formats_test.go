package rfc9110

import (
	"testing"
	"time"
)

func TestHttpDateIMF(t *testing.T) {
	date, err := HttpDate("Sun, 17 Jul 2016 10:10:00 GMT")
	if err != nil {
		t.Fatalf("Error parsing date %+v", err)
	}
	if date.Unix() != 1468750200 {
		t.Fatalf("Date is %v", date)
	}
}

func TestHttpDateRFC850(t *testing.T) {
	_, err := HttpDate("Thursday, 18-Aug-50 02:01:18 GMT")
	if err != nil {
		t.Fatalf("Error parsing date %+v", err)
	}
}

func TestHttpDateANSIC(t *testing.T) {
	date, err := HttpDate("Sun Jul 17 10:10:00 2016")
	if err != nil {
		t.Fatalf("Error parsing date %+v", err)
	}
	if date.Unix() != 1468750200 {
		t.Fatalf("Date is %v", date)
	}
}

func TestHttpDateTZCase(t *testing.T) {
	_, err := HttpDate("Thu, 18 Aug 2050 02:01:18 gMT")
	if err != nil {
		t.Fatalf("Error parsing date %+v", err)
	}
}

func TestHttpDateMalformed(t *testing.T) {
	for _, value := range []string{"", "0", "tomorrow", "Sun, 17 Jul 2016 10:10:00 +0200"} {
		if _, err := HttpDate(value); err == nil {
			t.Fatalf("Date %q should not parse", value)
		}
	}
}

func TestFormatHttpDate(t *testing.T) {
	loc := time.FixedZone("EEST", 3*60*60)
	formatted := FormatHttpDate(time.Date(2016, 7, 17, 13, 10, 0, 0, loc))
	if formatted != "Sun, 17 Jul 2016 10:10:00 GMT" {
		t.Fatalf("Formatted date is %s", formatted)
	}
}
