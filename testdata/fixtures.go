// Package testdata provides recorded hand poses for tests.
package testdata

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/ayusman/ffbridge/internal/curl"
	"github.com/ayusman/ffbridge/internal/skeleton"
)

//go:embed poses/*.json references.json
var posesFS embed.FS

// LoadPose loads a test pose by name, e.g. "fist" or "pinch".
func LoadPose(name string) (skeleton.Pose, error) {
	data, err := posesFS.ReadFile("poses/" + name + ".json")
	if err != nil {
		return skeleton.Pose{}, fmt.Errorf("load pose %s: %w", name, err)
	}

	var pose skeleton.Pose
	if err := json.Unmarshal(data, &pose); err != nil {
		return skeleton.Pose{}, fmt.Errorf("decode pose %s: %w", name, err)
	}

	return pose, nil
}

// References loads the recorded open and closed reference poses.
func References() (curl.References, error) {
	data, err := posesFS.ReadFile("references.json")
	if err != nil {
		return curl.References{}, err
	}
	return curl.ReadReferences(bytes.NewReader(data))
}

// ReferencesJSON returns the raw references document.
func ReferencesJSON() []byte {
	data, _ := posesFS.ReadFile("references.json")
	return data
}
