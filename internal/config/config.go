package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store is an immutable view of the process configuration: a YAML file
// organized as section -> key -> value, with environment overrides of the
// form REDACTSHOT_<SECTION>_<KEY>. Hot reload between redaction calls is a
// matter of calling Load again and swapping the pointer.
type Store struct {
	sections map[string]map[string]string
}

// Load reads the optional YAML file at path and applies environment
// overrides. A missing file yields a defaults-only store, not an error.
func Load(path string) (*Store, error) {
	loadDotEnv()

	sections := make(map[string]map[string]string)

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults-only store.
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			var raw map[string]map[string]interface{}
			if err := yaml.Unmarshal(data, &raw); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
			for section, keys := range raw {
				section = strings.ToLower(section)
				sections[section] = make(map[string]string, len(keys))
				for key, value := range keys {
					sections[section][strings.ToLower(key)] = stringify(value)
				}
			}
		}
	}

	return &Store{sections: sections}, nil
}

// loadDotEnv tries the working directory first, then the executable's
// directory, mirroring how the tool is launched from either place.
func loadDotEnv() {
	envPaths := []string{".env"}
	if execPath, err := os.Executable(); err == nil {
		envPaths = append(envPaths, filepath.Join(filepath.Dir(execPath), ".env"))
	}
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			godotenv.Load(envPath)
			break
		}
	}
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(v)
	}
}

func (s *Store) lookup(section, key string) (string, bool) {
	envKey := "REDACTSHOT_" + strings.ToUpper(section) + "_" + strings.ToUpper(key)
	if value, ok := os.LookupEnv(envKey); ok {
		return value, true
	}

	keys, ok := s.sections[strings.ToLower(section)]
	if !ok {
		return "", false
	}
	value, ok := keys[strings.ToLower(key)]
	return value, ok
}

// GetString returns the configured value or fallback when absent.
func (s *Store) GetString(section, key, fallback string) string {
	if value, ok := s.lookup(section, key); ok {
		return value
	}
	return fallback
}

// GetBool returns the configured value or fallback when absent or malformed.
func (s *Store) GetBool(section, key string, fallback bool) bool {
	value, ok := s.lookup(section, key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(value)))
	if err != nil {
		return fallback
	}
	return parsed
}

// GetInt returns the configured value or fallback when absent or malformed.
func (s *Store) GetInt(section, key string, fallback int) int {
	value, ok := s.lookup(section, key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

// GetFloat returns the configured value or fallback when absent or malformed.
func (s *Store) GetFloat(section, key string, fallback float64) float64 {
	value, ok := s.lookup(section, key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}
