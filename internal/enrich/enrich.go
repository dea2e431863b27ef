// Package enrich assembles GameAnalytics request bodies from caller event
// fields, protocol metadata, and the immutable session context.
package enrich

import "time"

// Protocol metadata attached to every enriched body.
const (
	ProtocolVersion = 2
	SDKVersion      = "rest api v2"
)

// Defaults applied to the session context when the caller leaves them unset.
const (
	DefaultDevice       = "unknown"
	DefaultManufacturer = "unknown"
)

// Meta carries the per-client protocol values that are not session specific.
type Meta struct {
	// Build is the game build identifier. Omitted from bodies when empty.
	Build string
}

// Body merges event fields, protocol metadata, and session context into one
// flat map. Later layers win: event fields are overwritten by protocol
// metadata, which is overwritten by session context, so event data can never
// change the identity of the session it is reported against. Neither fields
// nor context are modified.
func Body(category string, fields map[string]any, meta Meta, context map[string]any, clientTS int64) map[string]any {
	body := make(map[string]any, len(fields)+len(context)+5)
	for k, v := range fields {
		body[k] = v
	}

	body["category"] = category
	body["v"] = ProtocolVersion
	body["sdk_version"] = SDKVersion
	body["client_ts"] = clientTS
	if meta.Build != "" {
		body["build"] = meta.Build
	} else {
		delete(body, "build")
	}

	for k, v := range context {
		body[k] = v
	}
	return body
}

// InitBody returns the body of the init handshake request.
func InitBody(platform, osVersion string) map[string]any {
	body := map[string]any{"sdk_version": SDKVersion}
	if platform != "" {
		body["platform"] = platform
	}
	if osVersion != "" {
		body["os_version"] = osVersion
	}
	return body
}

// Snapshot builds the immutable session context from caller-supplied fields.
// Nil and empty-string values are dropped, device and manufacturer default to
// "unknown", and user_id/session_id are always set.
func Snapshot(userID, sessionID string, fields map[string]any) map[string]any {
	snapshot := make(map[string]any, len(fields)+4)
	for k, v := range fields {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		snapshot[k] = v
	}

	if _, ok := snapshot["device"]; !ok {
		snapshot["device"] = DefaultDevice
	}
	if _, ok := snapshot["manufacturer"]; !ok {
		snapshot["manufacturer"] = DefaultManufacturer
	}
	snapshot["user_id"] = userID
	snapshot["session_id"] = sessionID

	return snapshot
}

// Copy returns a shallow copy of m.
func Copy(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Unix returns t in epoch seconds rounded to the nearest second.
func Unix(t time.Time) int64 {
	return t.Round(time.Second).Unix()
}

// ClientTS returns the server-aligned client timestamp for an event created
// at now, given the session's server offset in seconds.
func ClientTS(now time.Time, offset int64) int64 {
	return Unix(now) + offset
}

// Offset computes the server offset from the backend's server_ts and the
// local time at which the init response arrived. Adding it to a local
// timestamp yields the backend's clock.
func Offset(local time.Time, serverTS int64) int64 {
	return serverTS - Unix(local)
}
