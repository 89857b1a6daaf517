package database

import (
	"encoding/json"
	"fmt"
)

// Envelope wraps a versioned document
type Envelope struct {
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// UpgradeFunc converts the payload of version n into the payload of version n+1
type UpgradeFunc func(data json.RawMessage) (json.RawMessage, error)

// Schema describes the current version of a document and how to reach it
type Schema struct {
	Current  int
	Upgrades map[int]UpgradeFunc // keyed by the version being upgraded from
}

// Decode unwraps raw into the current version's payload. A document without
// an envelope is a legacy version 1 payload.
func (s Schema) Decode(raw []byte) (json.RawMessage, error) {
	env, err := unwrap(raw)
	if err != nil {
		return nil, err
	}
	if env.Version > s.Current {
		return nil, fmt.Errorf("document version %d is newer than supported %d", env.Version, s.Current)
	}
	data := env.Data
	for v := env.Version; v < s.Current; v++ {
		up, ok := s.Upgrades[v]
		if !ok {
			return nil, fmt.Errorf("no upgrade from version %d", v)
		}
		if data, err = up(data); err != nil {
			return nil, fmt.Errorf("upgrade from version %d: %w", v, err)
		}
	}
	return data, nil
}

// Encode wraps payload in an envelope at the current version
func (s Schema) Encode(payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Version: s.Current, Data: data})
}

func unwrap(raw []byte) (Envelope, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Envelope{}, fmt.Errorf("decode document: %w", err)
	}
	versionRaw, hasVersion := probe["version"]
	dataRaw, hasData := probe["data"]
	if !hasVersion || !hasData || len(probe) != 2 {
		return Envelope{Version: 1, Data: raw}, nil
	}
	var env Envelope
	if err := json.Unmarshal(versionRaw, &env.Version); err != nil {
		return Envelope{Version: 1, Data: raw}, nil
	}
	env.Data = dataRaw
	return env, nil
}
