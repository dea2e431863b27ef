package gameanalytics

import "github.com/SebastienMelki/gameanalytics/internal/schema"

// Event categories accepted by Track.
const (
	CategoryBusiness    = schema.CategoryBusiness
	CategoryResource    = schema.CategoryResource
	CategoryProgression = schema.CategoryProgression
	CategoryDesign      = schema.CategoryDesign
	CategoryError       = schema.CategoryError
)

// ContextInput describes the player and device of a new session. Every field
// is optional. Unset fields are omitted from events; Device and Manufacturer
// default to "unknown". When Platform or OSVersion is empty and UserAgent is
// set, they are inferred from the user agent.
type ContextInput struct {
	UserAgent string
	IP        string

	Platform     string
	OSVersion    string
	Device       string
	Manufacturer string

	SessionNum int
	Gender     string
	BirthYear  int

	Custom01 string
	Custom02 string
	Custom03 string

	EngineVersion  string
	ConnectionType string

	LimitAdTracking *bool
	LogonGamecenter *bool
	LogonGameplay   *bool
	Jailbroken      *bool

	AndroidID    string
	GoogleplusID string
	FacebookID   string
	IOSIDFV      string
	IOSIDFA      string
	GoogleAID    string
}

// fields returns the GameAnalytics field map of the input. Zero values are
// left in place for the snapshot builder to drop.
func (in ContextInput) fields() map[string]any {
	m := map[string]any{
		"ip":              in.IP,
		"platform":        in.Platform,
		"os_version":      in.OSVersion,
		"device":          in.Device,
		"manufacturer":    in.Manufacturer,
		"gender":          in.Gender,
		"custom_01":       in.Custom01,
		"custom_02":       in.Custom02,
		"custom_03":       in.Custom03,
		"engine_version":  in.EngineVersion,
		"connection_type": in.ConnectionType,
		"android_id":      in.AndroidID,
		"googleplus_id":   in.GoogleplusID,
		"facebook_id":     in.FacebookID,
		"ios_idfv":        in.IOSIDFV,
		"ios_idfa":        in.IOSIDFA,
		"google_aid":      in.GoogleAID,
	}

	if in.SessionNum > 0 {
		m["session_num"] = in.SessionNum
	}
	if in.BirthYear > 0 {
		m["birth_year"] = in.BirthYear
	}

	flags := map[string]*bool{
		"limit_ad_tracking": in.LimitAdTracking,
		"logon_gamecenter":  in.LogonGamecenter,
		"logon_gameplay":    in.LogonGameplay,
		"jailbroken":        in.Jailbroken,
	}
	for k, v := range flags {
		if v != nil {
			m[k] = *v
		}
	}

	return m
}

// SessionInfo is returned by StartSession once the handshake completes.
type SessionInfo struct {
	// Start is the session start in epoch seconds.
	Start int64
	// Data is a copy of the session context attached to every event.
	Data map[string]any
	// Offset is the server clock offset in seconds: client_ts is the local
	// time plus Offset.
	Offset int64
}

// SessionID returns the session id from Data.
func (s *SessionInfo) SessionID() string {
	id, _ := s.Data["session_id"].(string)
	return id
}
