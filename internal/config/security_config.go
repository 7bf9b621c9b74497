package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAdmin                       // Admin access token required
)

// RouteSecurityConfig maps HTTP route names to their required security level
var RouteSecurityConfig = map[string]SecurityLevel{
	"JoinWaitlist":        SecurityPublic,
	"LatestRelease":       SecurityPublic,
	"Download":            SecurityPublic,
	"Health":              SecurityPublic,
	"Metrics":             SecurityPublic,
	"AdminLogin":          SecurityPublic,
	"SendWaveInvitations": SecurityAdmin,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := RouteSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown routes
	return SecurityAdmin
}
