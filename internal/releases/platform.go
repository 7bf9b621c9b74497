package releases

import (
	"strings"

	"vesta-waitlist-backend/internal/domain"
)

var platformLabels = map[domain.Platform]string{
	domain.PlatformWindows: "Windows",
	domain.PlatformMacOS:   "macOS",
	domain.PlatformLinux:   "Linux",
	domain.PlatformUnknown: "Other",
}

var archLabels = map[domain.Arch]string{
	domain.ArchX86_64:  "x64",
	domain.ArchAarch64: "ARM64",
	domain.ArchUnknown: "",
}

// PlatformKey maps a detected platform to its manifest key, e.g. darwin-aarch64
func PlatformKey(platform domain.Platform, arch domain.Arch) string {
	p := string(platform)
	if platform == domain.PlatformMacOS {
		p = "darwin"
	}
	return p + "-" + string(arch)
}

// DetectPlatform guesses the visitor's OS and CPU architecture from a User-Agent
func DetectPlatform(userAgent string) domain.PlatformInfo {
	ua := strings.ToLower(userAgent)

	platform := domain.PlatformUnknown
	switch {
	case strings.Contains(ua, "win"):
		platform = domain.PlatformWindows
	case strings.Contains(ua, "mac"):
		platform = domain.PlatformMacOS
	case strings.Contains(ua, "linux"):
		platform = domain.PlatformLinux
	}

	arch := domain.ArchX86_64
	if strings.Contains(ua, "arm") || strings.Contains(ua, "aarch64") {
		arch = domain.ArchAarch64
	}

	return NewPlatformInfo(platform, arch)
}

func NewPlatformInfo(platform domain.Platform, arch domain.Arch) domain.PlatformInfo {
	return domain.PlatformInfo{
		Platform: platform,
		Arch:     arch,
		Label:    strings.TrimSpace(platformLabels[platform] + " " + archLabels[arch]),
	}
}

// ParsePlatform accepts the names used in download links; darwin is an alias of macos
func ParsePlatform(s string) (domain.Platform, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "windows", "win":
		return domain.PlatformWindows, true
	case "macos", "mac", "darwin":
		return domain.PlatformMacOS, true
	case "linux":
		return domain.PlatformLinux, true
	}
	return domain.PlatformUnknown, false
}

func ParseArch(s string) (domain.Arch, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x86_64", "x64", "amd64":
		return domain.ArchX86_64, true
	case "aarch64", "arm64":
		return domain.ArchAarch64, true
	}
	return domain.ArchUnknown, false
}

// AssetURL returns the download URL for platform/arch, if the manifest has one
func AssetURL(m *domain.ReleaseManifest, platform domain.Platform, arch domain.Arch) (string, bool) {
	if m == nil || platform == domain.PlatformUnknown {
		return "", false
	}
	asset, ok := m.Platforms[PlatformKey(platform, arch)]
	if !ok || asset.URL == "" {
		return "", false
	}
	return asset.URL, true
}
