package schema

import "regexp"

// Event categories with a rule table.
const (
	CategoryBusiness    = "business"
	CategoryResource    = "resource"
	CategoryProgression = "progression"
	CategoryDesign      = "design"
	CategoryError       = "error"
)

// Categories lists every category accepted by Validate.
var Categories = []string{
	CategoryBusiness,
	CategoryResource,
	CategoryProgression,
	CategoryDesign,
	CategoryError,
}

// Platforms lists the platform values GameAnalytics accepts, plus "unknown".
var Platforms = []string{
	"ios", "android", "windows", "windows_phone", "blackberry", "roku", "tizen",
	"nacl", "mac_osx", "webplayer", "ps3", "ps4", "psm", "psvita", "wiiu",
	"xbox360", "xboxone", "linux", "uwp_mobile", "uwp_desktop", "uwp_console",
	"uwp_iot", "uwp_surfacehub", "webgl", "unknown",
}

const part = `[A-Za-z0-9\s\-_.()!?]{1,64}`

var (
	sessionIDPattern   = regexp.MustCompile(`^[a-z0-9]{8}-[a-z0-9]{4}-[a-z0-9]{4}-[a-z0-9]{4}-[a-z0-9]{12}$`)
	osVersionPattern   = regexp.MustCompile(`^[a-z_]+ [0-9]{0,5}(\.[0-9]{0,5}){0,2}$`)
	sdkVersionPattern  = regexp.MustCompile(`^rest api v2$`)
	currencyPattern    = regexp.MustCompile(`^[A-Z]{3}$`)
	businessIDPattern  = regexp.MustCompile(`^` + part + `:` + part + `$`)
	resourceIDPattern  = regexp.MustCompile(`^(Sink|Source):[A-Za-z]{1,64}:` + part + `:` + part + `$`)
	progressIDPattern  = regexp.MustCompile(`^(Start|Fail|Complete):` + part + `(:` + part + `){0,2}$`)
	designIDPattern    = regexp.MustCompile(`^` + part + `(:` + part + `){0,4}$`)
	customFieldPattern = regexp.MustCompile(`^[A-Za-z0-9\s\-_.()!?]{1,32}$`)
)

// baseRules covers the protocol metadata and session context fields every
// category carries.
var baseRules = RuleSet{
	"v":                 {Type: KindNumber, Required: true, Minimum: minimum(2)},
	"user_id":           {Type: KindString, Required: true, MaxLength: 64},
	"session_id":        {Type: KindString, Required: true, Pattern: sessionIDPattern},
	"client_ts":         {Type: KindNumber, Required: true, Minimum: minimum(0)},
	"sdk_version":       {Type: KindString, Required: true, Pattern: sdkVersionPattern},
	"category":          {Type: KindString, Required: true, Enum: Categories},
	"platform":          {Type: KindString, Enum: Platforms},
	"os_version":        {Type: KindString, Pattern: osVersionPattern},
	"device":            {Type: KindString, MaxLength: 64},
	"manufacturer":      {Type: KindString, MaxLength: 64},
	"build":             {Type: KindString, MaxLength: 32},
	"session_num":       {Type: KindNumber, Minimum: minimum(0)},
	"custom_01":         {Type: KindString, Pattern: customFieldPattern},
	"custom_02":         {Type: KindString, Pattern: customFieldPattern},
	"custom_03":         {Type: KindString, Pattern: customFieldPattern},
	"limit_ad_tracking": {Type: KindBoolean},
	"logon_gamecenter":  {Type: KindBoolean},
	"logon_gameplay":    {Type: KindBoolean},
	"jailbroken":        {Type: KindBoolean},
	"android_id":        {Type: KindString},
	"googleplus_id":     {Type: KindString},
	"facebook_id":       {Type: KindString},
	"ios_idfv":          {Type: KindString},
	"ios_idfa":          {Type: KindString},
	"google_aid":        {Type: KindString},
	"gender":            {Type: KindString, Enum: []string{"male", "female"}},
	"birth_year":        {Type: KindNumber, Minimum: minimum(0)},
	"engine_version":    {Type: KindString, MaxLength: 64},
	"connection_type":   {Type: KindString, Enum: []string{"offline", "wwan", "wifi", "lan"}},
	"ip":                {Type: KindString},
}

var categoryRules = map[string]RuleSet{
	CategoryBusiness: {
		"amount":          {Type: KindNumber, Required: true},
		"currency":        {Type: KindString, Required: true, Pattern: currencyPattern},
		"event_id":        {Type: KindString, Required: true, Pattern: businessIDPattern},
		"cart_type":       {Type: KindString, MaxLength: 32},
		"transaction_num": {Type: KindNumber, Required: true, Minimum: minimum(0)},
		"receipt_info":    {Type: KindObject},
	},
	CategoryResource: {
		"event_id": {Type: KindString, Required: true, Pattern: resourceIDPattern},
		"amount":   {Type: KindNumber, Required: true},
	},
	CategoryProgression: {
		"event_id":    {Type: KindString, Required: true, Pattern: progressIDPattern},
		"attempt_num": {Type: KindNumber, Minimum: minimum(0)},
		"score":       {Type: KindNumber},
	},
	CategoryDesign: {
		"event_id": {Type: KindString, Required: true, Pattern: designIDPattern},
		"value":    {Type: KindNumber},
	},
	CategoryError: {
		"severity": {Type: KindString, Required: true, Enum: []string{"debug", "info", "warning", "error", "critical"}},
		"message":  {Type: KindString, Required: true, MaxLength: 8192},
	},
}
