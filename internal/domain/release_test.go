package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReleaseManifest_KeepsUnknownFields(t *testing.T) {
	in := `{
		"version": "0.3.1",
		"notes": "n",
		"pub_date": "2026-05-01T12:00:00Z",
		"channel": "alpha",
		"min_os": {"macos": "12.0"},
		"platforms": {
			"linux-x86_64": {"url": "https://cdn.example/Vesta.AppImage", "signature": "s", "size": 1024}
		}
	}`

	var m ReleaseManifest
	require.NoError(t, json.Unmarshal([]byte(in), &m))
	assert.Equal(t, "0.3.1", m.Version)
	assert.JSONEq(t, `"alpha"`, string(m.Extra["channel"]))
	assert.JSONEq(t, `1024`, string(m.Platforms["linux-x86_64"].Extra["size"]))

	asset := m.Platforms["linux-x86_64"]
	asset.URL = "https://cdn.example/other.AppImage"
	m.Platforms["linux-x86_64"] = asset

	out, err := json.Marshal(&m)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"version": "0.3.1",
		"notes": "n",
		"pub_date": "2026-05-01T12:00:00Z",
		"channel": "alpha",
		"min_os": {"macos": "12.0"},
		"platforms": {
			"linux-x86_64": {"url": "https://cdn.example/other.AppImage", "signature": "s", "size": 1024}
		}
	}`, string(out))
}

func TestReleaseManifest_NoExtraWhenFullyModelled(t *testing.T) {
	var m ReleaseManifest
	require.NoError(t, json.Unmarshal([]byte(`{"version":"1","notes":"","pub_date":"","platforms":{}}`), &m))
	assert.Nil(t, m.Extra)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"1","notes":"","pub_date":"","platforms":{}}`, string(out))
}
