package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// ConfigMode selects whether a config edit is kept in memory or written out.
type ConfigMode uint8

const (
	// ConfigModePreview keeps the patch in memory until the store is flushed.
	ConfigModePreview ConfigMode = iota
	// ConfigModePersist replaces the stored patch and writes the document.
	ConfigModePersist
)

func (m ConfigMode) String() string {
	if m == ConfigModePersist {
		return "persist"
	}
	return "preview"
}

// ParseConfigMode accepts "preview", "persist" and the empty string (preview).
func ParseConfigMode(s string) (ConfigMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "preview":
		return ConfigModePreview, nil
	case "persist":
		return ConfigModePersist, nil
	default:
		return ConfigModePreview, zerr.With(ErrInvalidConfigMode, "mode", s)
	}
}

// ConfigMeta describes a unit next to its editable config.
type ConfigMeta struct {
	Kind                    string   `json:"kind"`
	CacheStrategy           string   `json:"cacheStrategyDescription"`
	DependencyIDs           []string `json:"dependencyIds"`
	HasOwnConfigStore       bool     `json:"hasOwnConfigStore"`
	HasInheritedConfigStore bool     `json:"hasInheritedConfigStore"`
}

// ConfigView is the editable configuration of a unit.
// Editable never contains structural fields or base keys.
type ConfigView struct {
	ID       string         `json:"id"`
	Editable map[string]any `json:"editable"`
	Meta     ConfigMeta     `json:"meta"`
}
