package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"act-companion/internal/domain/model"
)

// record is a stored session decoded without a schema, so that older shapes
// can be rewritten before typed validation.
type record = map[string]any

// MigrationStep upgrades a record from version From to From+1.
type MigrationStep struct {
	From  int
	Apply func(r record, now time.Time) record
}

// Migrations are applied in order until the record reaches the current version.
var Migrations = []MigrationStep{
	{From: 1, Apply: migrateV1},
}

// storedVersion reads schemaVersion. Records written before versioning carry none and count as v1.
func storedVersion(r record) (int, error) {
	v, ok := r["schemaVersion"]
	if !ok || v == nil {
		return 1, nil
	}
	f, ok := v.(float64)
	if !ok || f != float64(int(f)) {
		return 0, fmt.Errorf("schemaVersion %v is not an integer", v)
	}
	return int(f), nil
}

// migrate upgrades raw to the current schema. It reports whether any step ran.
func migrate(raw []byte, steps []MigrationStep, now time.Time) ([]byte, bool, error) {
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, false, fmt.Errorf("decode session: %w", err)
	}
	if r == nil {
		return nil, false, fmt.Errorf("decode session: not an object")
	}
	version, err := storedVersion(r)
	if err != nil {
		return nil, false, err
	}
	if version == model.CurrentSchemaVersion {
		return raw, false, nil
	}
	if version > model.CurrentSchemaVersion || version < 1 {
		return nil, false, fmt.Errorf("unknown schema version %d", version)
	}
	for version < model.CurrentSchemaVersion {
		step, ok := findStep(steps, version)
		if !ok {
			return nil, false, fmt.Errorf("no migration from schema version %d", version)
		}
		r = step.Apply(r, now)
		version++
		r["schemaVersion"] = version
	}
	out, err := json.Marshal(r)
	if err != nil {
		return nil, false, fmt.Errorf("encode migrated session: %w", err)
	}
	return out, true, nil
}

func findStep(steps []MigrationStep, from int) (MigrationStep, bool) {
	for _, s := range steps {
		if s.From == from {
			return s, true
		}
	}
	return MigrationStep{}, false
}

// migrateV1 fills in the fields the pre-versioned shape lacked.
func migrateV1(r record, now time.Time) record {
	r["ritualState"] = nil
	r["privacyMode"] = string(model.PrivacyPersist)
	r["finalMetrics"] = nil
	r["initialMetrics"] = nil
	if d, ok := r["diagnosis"].(map[string]any); ok {
		if in, ok := d["intensity"]; ok {
			ts := now
			if c, ok := r["createdAt"].(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, c); err == nil {
					ts = t
				}
			}
			r["initialMetrics"] = map[string]any{"intensity": in, "timestamp": ts}
		}
	}
	if entries, ok := r["dialogue"].([]any); ok {
		for _, e := range entries {
			if m, ok := e.(map[string]any); ok {
				m["isAiGenerated"] = false
			}
		}
	} else {
		r["dialogue"] = []any{}
	}
	if _, ok := r["tags"].([]any); !ok {
		r["tags"] = []any{}
	}
	r["expiresAt"] = now.Add(model.SessionRetention)
	return r
}
