package logic

import (
	"net"
	"time"

	"github.com/avct/uasurfer"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/geoip"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
)

// ResolvePlatform parses a raw User-Agent string into the coarse os/device
// names the target-category predicates match against, using the uasurfer
// library. Clients that know their platform (the in-store app does) can send
// it explicitly instead; this is the fallback for plain web requests.
func ResolvePlatform(uaString string) (osName, device string) {
	if uaString == "" {
		return "", ""
	}
	u := uasurfer.Parse(uaString)

	switch u.DeviceType {
	case uasurfer.DeviceComputer:
		device = "desktop"
	case uasurfer.DevicePhone:
		device = "mobile"
	case uasurfer.DeviceTablet:
		device = "tablet"
	default:
		device = "other"
	}

	switch u.OS.Name {
	case uasurfer.OSAndroid:
		osName = "android"
	case uasurfer.OSiOS:
		osName = "ios"
	case uasurfer.OSWindows:
		osName = "windows"
	case uasurfer.OSMacOSX:
		osName = "macos"
	case uasurfer.OSLinux:
		osName = "linux"
	default:
		osName = ""
	}
	return osName, device
}

// ResolveLocation maps the request IP to a city name through the GeoIP
// resolver. Unknown or private addresses resolve to the empty string, which
// makes location-targeted banners ineligible for that request.
func ResolveLocation(g *geoip.GeoIP, ipString string) string {
	if g == nil {
		return ""
	}
	ip := net.ParseIP(ipString)
	if ip == nil {
		return ""
	}
	return g.City(ip)
}

// TimeContext captures the hour-of-day and weekday name the time predicates
// evaluate against. A single capture at the start of the request keeps every
// banner in one fill consistent.
func TimeContext(now time.Time) (hour int, day string) {
	return now.Hour(), now.Weekday().String()
}

// NewViewerContext assembles the full evaluation context for one request.
// Purchase categories and frequencies are left nil for the filler to bulk
// load.
func NewViewerContext(viewerID int, gender string, age *int, location, os, device string, now time.Time) *models.ViewerContext {
	hour, day := TimeContext(now)
	return &models.ViewerContext{
		ViewerID: viewerID,
		Gender:   gender,
		Age:      age,
		Location: location,
		OS:       os,
		Device:   device,
		Hour:     hour,
		Day:      day,
		Date:     now,
	}
}
