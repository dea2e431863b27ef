// Package useragent maps a browser or client user-agent string to the platform
// and os_version values GameAnalytics expects.
package useragent

import (
	"regexp"
	"strings"

	"github.com/mssola/useragent"
)

// Platform values produced by Classify.
const (
	PlatformWindowsPhone = "windows_phone"
	PlatformWindows      = "windows"
	PlatformIOS          = "ios"
	PlatformAndroid      = "android"
	PlatformBlackBerry   = "blackberry"
	PlatformMacOSX       = "mac_osx"
	PlatformTizen        = "tizen"
	PlatformLinux        = "linux"
	PlatformUnknown      = "unknown"
)

const defaultVersion = "0.0.0"

var (
	versionPattern      = regexp.MustCompile(`^[0-9]{1,5}(\.[0-9]{1,5}){0,2}`)
	windowsPhonePattern = regexp.MustCompile(`Windows Phone(?: OS)? ([0-9][0-9._]*)`)
)

// Info holds the signals the decision table looks at.
type Info struct {
	// OSName is the parsed operating system family (e.g. "Windows", "Android").
	OSName string

	// OSVersion is the parsed operating system version, possibly empty.
	OSVersion string

	// Mobile is true for phone- or tablet-class devices.
	Mobile bool

	// Raw is the user-agent string as received.
	Raw string
}

// Parse extracts Info from a user-agent string.
func Parse(ua string) Info {
	parsed := useragent.New(ua)
	os := parsed.OSInfo()

	return Info{
		OSName:    os.Name,
		OSVersion: os.Version,
		Mobile:    parsed.Mobile(),
		Raw:       ua,
	}
}

// Classify maps parsed signals to a platform. The first matching row wins, so
// more specific families are listed before the families they imitate
// (Windows Phone UAs mention Android and iPhone, Android UAs mention Linux).
func Classify(info Info) string {
	name := info.OSName
	raw := info.Raw

	switch {
	case strings.Contains(raw, "Windows Phone"),
		strings.HasPrefix(name, "Windows") && info.Mobile:
		return PlatformWindowsPhone
	case strings.HasPrefix(name, "Windows"), strings.Contains(raw, "Windows NT"):
		return PlatformWindows
	case name == "iOS", name == "iPhone OS",
		strings.Contains(raw, "iPhone"), strings.Contains(raw, "iPad"), strings.Contains(raw, "iPod"):
		return PlatformIOS
	case strings.HasPrefix(name, "Android"), strings.Contains(raw, "Android"), strings.Contains(raw, "CrOS"):
		return PlatformAndroid
	case strings.HasPrefix(name, "BlackBerry"), strings.Contains(raw, "BlackBerry"), strings.Contains(raw, "BB10"):
		return PlatformBlackBerry
	case strings.HasPrefix(name, "Mac OS"), strings.Contains(raw, "Macintosh"):
		return PlatformMacOSX
	case strings.Contains(raw, "Tizen"):
		return PlatformTizen
	case strings.Contains(raw, "Linux"):
		return PlatformLinux
	default:
		return PlatformUnknown
	}
}

// Version normalises a parsed OS version to at most three numeric parts.
// Windows Vista reports its marketing name and Chrome OS reports its
// architecture; both are rewritten to the numeric versions GameAnalytics
// accepts.
func Version(raw string) string {
	v := strings.Replace(raw, "Vista", "6.0", 1)
	v = strings.Replace(v, "x86_64", "8.0", 1)
	v = strings.ReplaceAll(v, "_", ".")

	if m := versionPattern.FindString(v); m != "" {
		return m
	}
	return defaultVersion
}

// OSVersion formats the GameAnalytics os_version value ("<platform> <version>").
func OSVersion(platform, version string) string {
	return platform + " " + Version(version)
}

// Result is the outcome of Infer.
type Result struct {
	Platform  string
	OSVersion string
}

// Infer parses ua and returns its platform and os_version. Explicit values
// take precedence: a non-empty platform or osVersion is returned unchanged.
func Infer(ua, platform, osVersion string) Result {
	if ua == "" {
		return Result{Platform: platform, OSVersion: osVersion}
	}

	info := Parse(ua)
	if platform == "" {
		platform = Classify(info)
	}
	if osVersion == "" {
		osVersion = OSVersion(platform, platformVersion(platform, info))
	}

	return Result{Platform: platform, OSVersion: osVersion}
}

// platformVersion picks the raw version for platform. Windows Phone UAs also
// claim Android or iOS versions, and the parser leaves the phone version
// empty, so it is read from the UA token directly.
func platformVersion(platform string, info Info) string {
	if platform == PlatformWindowsPhone {
		if m := windowsPhonePattern.FindStringSubmatch(info.Raw); m != nil {
			return m[1]
		}
	}
	return info.OSVersion
}
