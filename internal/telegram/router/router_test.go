package router

import (
	"errors"
	"fmt"
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallback(t *testing.T) {
	cases := []struct {
		name    string
		cb      *tele.Callback
		key     string
		payload string
	}{
		{"nil", nil, "", ""},
		{"unique set", &tele.Callback{Unique: "ord_tier", Data: "basic"}, "ord_tier", "basic"},
		{"raw with payload", &tele.Callback{Data: "\ford_addon|video"}, "ord_addon", "video"},
		{"raw without payload", &tele.Callback{Data: "\ford_confirm"}, "ord_confirm", ""},
		{"escaped prefix", &tele.Callback{Data: "\\ford_cancel|x"}, "ord_cancel", "x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, payload := ParseCallback(tc.cb)
			if key != tc.key || payload != tc.payload {
				t.Fatalf("got (%q, %q), want (%q, %q)", key, payload, tc.key, tc.payload)
			}
		})
	}
}

func TestTrimSlash(t *testing.T) {
	if got := trimSlash("/Start"); got != "start" {
		t.Fatalf("got %q", got)
	}
	if got := trimSlash("  /orders "); got != "orders" {
		t.Fatalf("got %q", got)
	}
}

func TestErrCodeUsesRootCause(t *testing.T) {
	root := errors.New("order: not found")
	wrapped := fmt.Errorf("handling callback: %w", root)
	if got := errCode(wrapped); got != "ORDER" {
		t.Fatalf("got %q", got)
	}
	if got := errCode(errors.New("plain failure")); got != "PLAIN_FAILURE" {
		t.Fatalf("got %q", got)
	}
}
