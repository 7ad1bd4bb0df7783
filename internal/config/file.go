package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// durationKeys are the top-level JSON keys holding a time.Duration.
var durationKeys = []string{"access_token_ttl", "store_timeout"}

// LoadFile overlays the settings found in path onto cfg. Files ending in
// .yaml or .yml are decoded as YAML, everything else as JSON. Keys absent
// from the file keep their current value. An empty path is a no-op.
func LoadFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, cfg)
	default:
		err = decodeJSON(b, cfg)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// decodeJSON accepts durations written as "5s" as well as integer
// nanoseconds, the way yaml.v3 does natively.
func decodeJSON(b []byte, cfg *Config) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	for _, key := range durationKeys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(v, &s) != nil {
			continue // already a number
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		raw[key] = json.RawMessage(strconv.FormatInt(int64(d), 10))
	}

	normalized, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(normalized, cfg)
}
