package enrich

import (
	"testing"
	"time"
)

func TestBody_Precedence(t *testing.T) {
	fields := map[string]any{
		"amount":     4.99,
		"category":   "spoofed",
		"v":          9,
		"user_id":    "attacker",
		"session_id": "other",
		"build":      "0.0.1",
	}
	context := map[string]any{
		"user_id":    "u1",
		"session_id": "s1",
		"platform":   "ios",
	}

	body := Body("business", fields, Meta{Build: "1.2.3"}, context, 1700000000)

	want := map[string]any{
		"amount":      4.99,
		"category":    "business",
		"v":           ProtocolVersion,
		"sdk_version": SDKVersion,
		"client_ts":   int64(1700000000),
		"build":       "1.2.3",
		"user_id":     "u1",
		"session_id":  "s1",
		"platform":    "ios",
	}
	if len(body) != len(want) {
		t.Fatalf("body has %d fields, want %d: %v", len(body), len(want), body)
	}
	for k, v := range want {
		if body[k] != v {
			t.Errorf("body[%q] = %v, want %v", k, body[k], v)
		}
	}
}

func TestBody_DoesNotMutateInputs(t *testing.T) {
	fields := map[string]any{"event_id": "menu"}
	context := map[string]any{"user_id": "u1"}

	Body("design", fields, Meta{}, context, 1)

	if len(fields) != 1 || len(context) != 1 {
		t.Errorf("inputs mutated: fields=%v context=%v", fields, context)
	}
}

func TestBody_OmitsEmptyBuild(t *testing.T) {
	body := Body("design", map[string]any{"build": "from-event"}, Meta{}, nil, 1)
	if _, ok := body["build"]; ok {
		t.Errorf("body[build] = %v, want omitted when no build is configured", body["build"])
	}
}

func TestSnapshot_DefaultsAndIdentity(t *testing.T) {
	snap := Snapshot("u1", "s1", map[string]any{
		"platform":   "android",
		"ip":         "",
		"gender":     nil,
		"user_id":    "ignored",
		"session_id": "ignored",
		"custom_01":  "ninja",
	})

	want := map[string]any{
		"platform":     "android",
		"device":       DefaultDevice,
		"manufacturer": DefaultManufacturer,
		"user_id":      "u1",
		"session_id":   "s1",
		"custom_01":    "ninja",
	}
	if len(snap) != len(want) {
		t.Fatalf("snapshot = %v, want %v", snap, want)
	}
	for k, v := range want {
		if snap[k] != v {
			t.Errorf("snapshot[%q] = %v, want %v", k, snap[k], v)
		}
	}
}

func TestSnapshot_KeepsExplicitDevice(t *testing.T) {
	snap := Snapshot("u1", "s1", map[string]any{"device": "Pixel 7", "manufacturer": "Google"})
	if snap["device"] != "Pixel 7" || snap["manufacturer"] != "Google" {
		t.Errorf("snapshot = %v, want explicit device and manufacturer kept", snap)
	}
}

func TestInitBody(t *testing.T) {
	body := InitBody("ios", "ios 17.2")
	if body["platform"] != "ios" || body["os_version"] != "ios 17.2" || body["sdk_version"] != SDKVersion {
		t.Errorf("InitBody() = %v", body)
	}

	if body := InitBody("", ""); len(body) != 1 {
		t.Errorf("InitBody(empty) = %v, want only sdk_version", body)
	}
}

func TestOffsetAndClientTS(t *testing.T) {
	local := time.Unix(1700000000, 0)

	offset := Offset(local, 1700000042)
	if offset != 42 {
		t.Fatalf("Offset() = %d, want 42", offset)
	}

	later := local.Add(5 * time.Second)
	if got := ClientTS(later, offset); got != Unix(later)+42 {
		t.Errorf("ClientTS() = %d, want local + offset = %d", got, Unix(later)+42)
	}

	if got := Offset(local, 1699999990); got != -10 {
		t.Errorf("Offset() = %d, want -10 for a server clock behind local", got)
	}
}

func TestUnix_Rounds(t *testing.T) {
	if got := Unix(time.Unix(100, 499*int64(time.Millisecond))); got != 100 {
		t.Errorf("Unix(100.499) = %d, want 100", got)
	}
	if got := Unix(time.Unix(100, 500*int64(time.Millisecond))); got != 101 {
		t.Errorf("Unix(100.5) = %d, want 101", got)
	}
}

func TestCopy(t *testing.T) {
	src := map[string]any{"a": 1}
	dst := Copy(src)
	dst["b"] = 2
	if len(src) != 1 {
		t.Errorf("Copy() shares storage with source: %v", src)
	}
}
