package common

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestSlotSetOnce(t *testing.T) {
	var s Slot[string]

	if _, ok := s.Get(); ok {
		t.Fatalf("new slot should be absent")
	}

	if !s.Set("enode://a") {
		t.Fatalf("first Set should succeed")
	}

	if s.Set("enode://b") {
		t.Fatalf("second Set should fail")
	}

	v, ok := s.Get()
	if !ok || v != "enode://a" {
		t.Fatalf("slot should hold the first value, got %q, %v", v, ok)
	}
}

func TestIsRunThroughWrapping(t *testing.T) {
	inner := NewRunErr("node 1", ProtocolError, "eth.accounts[0]", errors.New("EOF"))
	wrapped := fmt.Errorf("spawning: %w", inner)

	if !IsRun(wrapped, ProtocolError) {
		t.Fatalf("wrapped RunErr should match its type")
	}
	if IsRun(wrapped, ValidationError) {
		t.Fatalf("wrapped RunErr should not match another type")
	}
	if IsProgramming(wrapped) {
		t.Fatalf("protocol errors are not programming errors")
	}

	msg := wrapped.Error()
	for _, part := range []string{"node 1", "eth.accounts[0]", "Protocol Error", "EOF"} {
		if !strings.Contains(msg, part) {
			t.Fatalf("error message %q should contain %q", msg, part)
		}
	}
}

func TestIsProgramming(t *testing.T) {
	for _, et := range []RunErrType{AlreadyInitialized, NotInitialized, AlreadyRun, ConcurrentRequest} {
		if !IsProgramming(NewRunErr("x", et, "op", nil)) {
			t.Fatalf("type %d should be a programming error", et)
		}
	}
	if IsProgramming(errors.New("plain")) {
		t.Fatalf("plain errors are not programming errors")
	}
}

func TestRandomHex(t *testing.T) {
	src := bytes.NewReader([]byte{0xde, 0xad, 0xbe, 0xef})

	h, err := RandomHex(src, 4)
	if err != nil {
		t.Fatal(err)
	}
	if h != "0xdeadbeef" {
		t.Fatalf("expected 0xdeadbeef, got %s", h)
	}

	empty, err := RandomHex(src, 0)
	if err != nil {
		t.Fatal(err)
	}
	if empty != "0x" {
		t.Fatalf("expected 0x, got %s", empty)
	}

	if _, err := RandomHex(src, 1); err == nil {
		t.Fatalf("exhausted source should fail")
	}
}
