package rfc9110

import (
	"net/http"
	"testing"
)

func TestGetListHeaderMultipleLines(t *testing.T) {
	header := http.Header{}
	header.Add("Vary", "Accept-Encoding, ,Cookie")
	header.Add("Vary", "X-Header")
	list := GetListHeader(header, "vary")
	if len(list) != 3 || list[0] != "Accept-Encoding" || list[1] != "Cookie" || list[2] != "X-Header" {
		t.Fatalf("List is %#v", list)
	}
}

func TestAddListMembers(t *testing.T) {
	header := http.Header{}
	header.Set("Vary", "Header")
	AddListMembers(header, "Vary", "If-None-Match", "header")
	if vary := header.Values("Vary"); len(vary) != 1 || vary[0] != "Header, If-None-Match" {
		t.Fatalf("Vary is %#v", vary)
	}
}

func TestAddListMembersEmpty(t *testing.T) {
	header := http.Header{}
	AddListMembers(header, "Vary")
	if _, ok := header["Vary"]; ok {
		t.Fatal("Vary should not be set")
	}
}

func TestHasListMember(t *testing.T) {
	header := http.Header{}
	header.Set("Connection", "keep-alive, Upgrade")
	if !HasListMember(header, "Connection", "upgrade") {
		t.Fatal("Connection should contain upgrade")
	}
	if HasListMember(header, "Connection", "close") {
		t.Fatal("Connection should not contain close")
	}
}
