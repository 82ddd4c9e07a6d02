package env

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

var (
	fileMu     sync.RWMutex
	fileValues map[string]string
)

// LoadFile reads a TOML file whose keys become fallbacks for the helpers in this
// package. Nested tables are flattened with "_" and keys are upper-cased, so
//
//	[mme.api]
//	url = "http://backend:3000"
//
// answers String("MME_API_URL", ...). An empty path is a no-op.
func LoadFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	values, err := ParseFile(b)
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	fileMu.Lock()
	fileValues = values
	fileMu.Unlock()
	return nil
}

// ParseFile flattens a TOML document into environment-style keys.
func ParseFile(b []byte) (map[string]string, error) {
	var doc map[string]any
	if err := toml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	out := make(map[string]string)
	if err := flatten("", doc, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ResetFile drops values loaded by LoadFile.
func ResetFile() {
	fileMu.Lock()
	fileValues = nil
	fileMu.Unlock()
}

// FileKeys lists the keys loaded from the config file, sorted.
func FileKeys() []string {
	fileMu.RLock()
	defer fileMu.RUnlock()
	keys := make([]string, 0, len(fileValues))
	for k := range fileValues {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fileValue(key string) (string, bool) {
	fileMu.RLock()
	defer fileMu.RUnlock()
	v, ok := fileValues[key]
	return v, ok
}

func flatten(prefix string, in map[string]any, out map[string]string) error {
	for k, v := range in {
		key := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(k), "-", "_"))
		if prefix != "" {
			key = prefix + "_" + key
		}
		switch val := v.(type) {
		case map[string]any:
			if err := flatten(key, val, out); err != nil {
				return err
			}
		case string:
			out[key] = val
		case bool:
			out[key] = strconv.FormatBool(val)
		case int64:
			out[key] = strconv.FormatInt(val, 10)
		case float64:
			out[key] = strconv.FormatFloat(val, 'f', -1, 64)
		case time.Time:
			out[key] = val.Format(time.RFC3339)
		case []any:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				parts = append(parts, fmt.Sprint(item))
			}
			out[key] = strings.Join(parts, ",")
		default:
			return fmt.Errorf("unsupported value for %s: %T", key, v)
		}
	}
	return nil
}
