package domain

import "encoding/json"

// ReleaseManifest is the updater manifest published with every launcher release.
// Fields it does not model are kept in Extra and written back out unchanged.
type ReleaseManifest struct {
	Version   string                     `json:"version"`
	Notes     string                     `json:"notes"`
	PubDate   string                     `json:"pub_date"`
	Platforms map[string]PlatformAsset   `json:"platforms"`
	Extra     map[string]json.RawMessage `json:"-"`
}

// PlatformAsset is a downloadable binary for one "<os>-<arch>" key
type PlatformAsset struct {
	URL       string                     `json:"url"`
	Signature string                     `json:"signature"`
	Extra     map[string]json.RawMessage `json:"-"`
}

func (m *ReleaseManifest) UnmarshalJSON(data []byte) error {
	type plain ReleaseManifest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownFields(data, "version", "notes", "pub_date", "platforms")
	if err != nil {
		return err
	}
	p.Extra = extra
	*m = ReleaseManifest(p)
	return nil
}

func (m ReleaseManifest) MarshalJSON() ([]byte, error) {
	type plain ReleaseManifest
	return withUnknownFields(plain(m), m.Extra)
}

func (a *PlatformAsset) UnmarshalJSON(data []byte) error {
	type plain PlatformAsset
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownFields(data, "url", "signature")
	if err != nil {
		return err
	}
	p.Extra = extra
	*a = PlatformAsset(p)
	return nil
}

func (a PlatformAsset) MarshalJSON() ([]byte, error) {
	type plain PlatformAsset
	return withUnknownFields(plain(a), a.Extra)
}

func unknownFields(data []byte, known ...string) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for _, key := range known {
		delete(raw, key)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

// withUnknownFields marshals v and adds extra keys that v does not already set
func withUnknownFields(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for key, value := range extra {
		if _, ok := merged[key]; !ok {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

type Platform string

const (
	PlatformWindows Platform = "windows"
	PlatformMacOS   Platform = "macos"
	PlatformLinux   Platform = "linux"
	PlatformUnknown Platform = "unknown"
)

type Arch string

const (
	ArchX86_64  Arch = "x86_64"
	ArchAarch64 Arch = "aarch64"
	ArchUnknown Arch = "unknown"
)

// PlatformInfo is the result of user agent detection
type PlatformInfo struct {
	Platform Platform `json:"platform"`
	Arch     Arch     `json:"arch"`
	Label    string   `json:"label"`
}
