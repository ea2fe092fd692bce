package config

import (
	"os"
	"strings"
)

// KeySource says where a configured credential was read from.
type KeySource string

const (
	KeySourceEnv    KeySource = "env"
	KeySourceConfig KeySource = "config"
	KeySourceNone   KeySource = "none"
)

// KeyStatus describes one credential without revealing it.
type KeyStatus struct {
	Name   string    `json:"name"             yaml:"name"`
	Source KeySource `json:"source"           yaml:"source"`
	IsSet  bool      `json:"is_set"           yaml:"is_set"`
	Env    string    `json:"env,omitempty"    yaml:"env,omitempty"`
	Masked string    `json:"masked,omitempty" yaml:"masked,omitempty"`
}

// fmpKeyEnv lists the variables that can carry the FMP key, highest
// precedence first.
var fmpKeyEnv = []string{APIKeyEnv, EnvPrefix + "_FMP_API_KEY"}

// CheckAPIKeys reports the FMP key's status.
func CheckAPIKeys(cfg *Config) []KeyStatus {
	return []KeyStatus{keyStatus("FMP API Key", cfg.FMP.APIKey, fmpKeyEnv)}
}

func keyStatus(name, value string, env []string) KeyStatus {
	value = strings.TrimSpace(value)
	if value == "" {
		return KeyStatus{Name: name, Source: KeySourceNone}
	}
	st := KeyStatus{Name: name, Source: KeySourceConfig, IsSet: true, Masked: maskKey(value)}
	for _, v := range env {
		if strings.TrimSpace(os.Getenv(v)) == value {
			st.Source, st.Env = KeySourceEnv, v
			break
		}
	}
	return st
}

// maskKey keeps three characters at each end of keys longer than eight.
func maskKey(key string) string {
	const keep = 3
	if len(key) <= 8 {
		return "***"
	}
	return key[:keep] + "..." + key[len(key)-keep:]
}
