package guard

import "strings"

// Well-known navigation targets.
const (
	PathLogin          = "/login"
	PathRegister       = "/register"
	PathDashboard      = "/dashboard"
	PathChangePassword = "/change-password"
)

// PathClass partitions every path into exactly one guard treatment.
type PathClass int

const (
	// ClassExcluded paths pass through with no auth logic at all.
	ClassExcluded PathClass = iota
	// ClassAuth paths are login/register style pages.
	ClassAuth
	// ClassProtected paths require a valid session.
	ClassProtected
)

func (c PathClass) String() string {
	switch c {
	case ClassExcluded:
		return "excluded"
	case ClassAuth:
		return "auth"
	case ClassProtected:
		return "protected"
	default:
		return "unknown"
	}
}

// excludedPrefixes are paths the guard never touches: public pages, static
// assets, health/metrics, and API calls (the proxy layer handles those).
var excludedPrefixes = []string{
	"/health",
	"/metrics",
	"/static/",
	"/favicon.ico",
	"/api/",
	"/sanctum/",
}

var authPaths = map[string]bool{
	PathLogin:    true,
	PathRegister: true,
}

// Classify maps a request path into its guard class. The three classes are
// disjoint; the home page is public and therefore excluded.
func Classify(path string) PathClass {
	if path == "/" {
		return ClassExcluded
	}
	for _, prefix := range excludedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return ClassExcluded
		}
	}
	if authPaths[path] {
		return ClassAuth
	}
	return ClassProtected
}
