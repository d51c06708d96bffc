package timezone

// Reference tables for the coarse lookup. Order matters for coordinate
// resolution: ties keep the earlier entry.
var defaultCities = []RefCity{
	// Europe
	{Lat: 52.5, Lng: 13.4, TZID: "Europe/Berlin", Country: "DE"},
	{Lat: 48.9, Lng: 2.3, TZID: "Europe/Paris", Country: "FR"},
	{Lat: 51.5, Lng: -0.1, TZID: "Europe/London", Country: "GB"},
	{Lat: 41.9, Lng: 12.5, TZID: "Europe/Rome", Country: "IT"},
	{Lat: 40.4, Lng: -3.7, TZID: "Europe/Madrid", Country: "ES"},
	{Lat: 50.1, Lng: 8.7, TZID: "Europe/Berlin", Country: "DE"},
	{Lat: 50.4, Lng: 30.5, TZID: "Europe/Kiev", Country: "UA"},
	{Lat: 55.8, Lng: 37.6, TZID: "Europe/Moscow", Country: "RU"},

	// North America
	{Lat: 40.7, Lng: -74.0, TZID: "America/New_York", Country: "US"},
	{Lat: 34.1, Lng: -118.2, TZID: "America/Los_Angeles", Country: "US"},
	{Lat: 41.9, Lng: -87.6, TZID: "America/Chicago", Country: "US"},
	{Lat: 43.7, Lng: -79.4, TZID: "America/Toronto", Country: "CA"},

	// Asia
	{Lat: 35.7, Lng: 139.7, TZID: "Asia/Tokyo", Country: "JP"},
	{Lat: 39.9, Lng: 116.4, TZID: "Asia/Shanghai", Country: "CN"},
	{Lat: 37.6, Lng: 127.0, TZID: "Asia/Seoul", Country: "KR"},
	{Lat: 28.6, Lng: 77.2, TZID: "Asia/Kolkata", Country: "IN"},
	{Lat: 1.3, Lng: 103.8, TZID: "Asia/Singapore", Country: "SG"},

	// Australia
	{Lat: -33.9, Lng: 151.2, TZID: "Australia/Sydney", Country: "AU"},
	{Lat: -37.8, Lng: 144.9, TZID: "Australia/Melbourne", Country: "AU"},
}

var defaultCityNames = map[string]Result{
	"berlin":      {TZID: "Europe/Berlin", Country: "DE"},
	"paris":       {TZID: "Europe/Paris", Country: "FR"},
	"london":      {TZID: "Europe/London", Country: "GB"},
	"rome":        {TZID: "Europe/Rome", Country: "IT"},
	"madrid":      {TZID: "Europe/Madrid", Country: "ES"},
	"kiev":        {TZID: "Europe/Kiev", Country: "UA"},
	"kyiv":        {TZID: "Europe/Kiev", Country: "UA"},
	"moscow":      {TZID: "Europe/Moscow", Country: "RU"},
	"new york":    {TZID: "America/New_York", Country: "US"},
	"los angeles": {TZID: "America/Los_Angeles", Country: "US"},
	"chicago":     {TZID: "America/Chicago", Country: "US"},
	"toronto":     {TZID: "America/Toronto", Country: "CA"},
	"tokyo":       {TZID: "Asia/Tokyo", Country: "JP"},
	"beijing":     {TZID: "Asia/Shanghai", Country: "CN"},
	"shanghai":    {TZID: "Asia/Shanghai", Country: "CN"},
	"seoul":       {TZID: "Asia/Seoul", Country: "KR"},
	"mumbai":      {TZID: "Asia/Kolkata", Country: "IN"},
	"delhi":       {TZID: "Asia/Kolkata", Country: "IN"},
	"singapore":   {TZID: "Asia/Singapore", Country: "SG"},
	"sydney":      {TZID: "Australia/Sydney", Country: "AU"},
	"melbourne":   {TZID: "Australia/Melbourne", Country: "AU"},
}

var defaultCountryTZ = map[string]string{
	"DE": "Europe/Berlin",
	"FR": "Europe/Paris",
	"GB": "Europe/London",
	"IT": "Europe/Rome",
	"ES": "Europe/Madrid",
	"UA": "Europe/Kiev",
	"RU": "Europe/Moscow",
	"US": "America/New_York",
	"CA": "America/Toronto",
	"JP": "Asia/Tokyo",
	"CN": "Asia/Shanghai",
	"KR": "Asia/Seoul",
	"IN": "Asia/Kolkata",
	"SG": "Asia/Singapore",
	"AU": "Australia/Sydney",
}
