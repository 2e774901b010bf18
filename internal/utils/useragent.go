package utils

import (
	"strings"

	ua "github.com/mssola/user_agent"
)

// DescribeDevice condenses a User-Agent string into a short device label
// for the payment audit trail, e.g. "mobile / Android 13 / Chrome".
func DescribeDevice(userAgent string) string {
	if userAgent == "" || userAgent == "Unknown" {
		return "unknown"
	}

	parser := ua.New(userAgent)
	if parser.Bot() {
		return "bot"
	}

	deviceType := "desktop"
	if parser.Mobile() {
		deviceType = "mobile"
		if isTablet(userAgent) {
			deviceType = "tablet"
		}
	}

	osInfo := parser.OSInfo()
	os := osInfo.Name
	if os == "" {
		os = "Unknown"
	} else if osInfo.Version != "" {
		os = os + " " + osInfo.Version
	}

	browser, _ := parser.Browser()
	if browser == "" {
		browser = "Unknown"
	}

	return deviceType + " / " + os + " / " + browser
}

func isTablet(userAgent string) bool {
	lower := strings.ToLower(userAgent)
	for _, indicator := range []string{"ipad", "tablet", "kindle", "nexus 7", "nexus 9", "nexus 10", "sm-t"} {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
