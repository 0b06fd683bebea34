package telegram

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegisterCommandValidation(t *testing.T) {
	r := NewRegistry()

	r.RegisterCommand("/start", Command{Handler: noop, Description: "start"})
	r.RegisterCommand("start", Command{Handler: noop})  // missing slash
	r.RegisterCommand("/nil", Command{Handler: nil})    // no handler
	r.RegisterCommand("/start", Command{Handler: noop}) // duplicate

	if len(r.Commands()) != 1 {
		t.Fatalf("expected 1 command, got %d", len(r.Commands()))
	}
}

func TestLookupCommand(t *testing.T) {
	r := NewRegistry()
	r.RegisterCommand("/orders", Command{Handler: noop, AdminOnly: true})

	for _, input := range []string{"/orders", "orders", "/orders pending"} {
		key, cmd, ok := r.LookupCommand(input)
		if !ok {
			t.Fatalf("lookup %q failed", input)
		}
		if key != "/orders" || !cmd.AdminOnly {
			t.Fatalf("lookup %q = %q", input, key)
		}
	}

	if _, _, ok := r.LookupCommand("/unknown"); ok {
		t.Fatal("unexpected hit")
	}
}

func TestRegisterCallback(t *testing.T) {
	r := NewRegistry()

	if err := r.RegisterCallback("ord_tier", noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.RegisterCallback("ord_tier", noop); err == nil {
		t.Fatal("duplicate registration accepted")
	}
	if err := r.RegisterCallback("", noop); err == nil {
		t.Fatal("empty key accepted")
	}

	if _, ok := r.Callback("ord_tier"); !ok {
		t.Fatal("callback lost")
	}
	keys := r.CallbackKeys()
	if len(keys) != 1 || keys[0] != "ord_tier" {
		t.Fatalf("keys = %v", keys)
	}
}
