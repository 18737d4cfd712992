package manifest

import "go.trai.ch/kiln/internal/core/domain"

// Document is the top-level structure of kiln.yaml.
type Document struct {
	// ConfigStore is the project-wide override file, relative to the root.
	ConfigStore string `yaml:"configStore"`
	// UseDefaultConfigStore enables kiln.overrides.json when ConfigStore is empty.
	UseDefaultConfigStore bool   `yaml:"useDefaultConfigStore"`
	Units                 []Unit `yaml:"units" validate:"dive"`
}

// Unit declares one unit.
type Unit struct {
	ID           string         `yaml:"id" validate:"required"`
	Kind         string         `yaml:"kind" validate:"required"`
	Cache        *Cache         `yaml:"cache"`
	Dependencies []string       `yaml:"dependencies" validate:"dive,required"`
	ConfigStore  string         `yaml:"configStore"`
	Config       map[string]any `yaml:"config"`
}

// Cache declares a unit's cache strategy. Omitting it disables caching.
type Cache struct {
	Kind  string `yaml:"kind" validate:"omitempty,oneof=none memory file"`
	Limit int    `yaml:"limit" validate:"gte=0"`
	Check string `yaml:"check" validate:"omitempty,oneof=AllOnUse"`
}

func (u Unit) toSpec() (domain.UnitSpec, error) {
	strategy := domain.NoCache
	if u.Cache != nil {
		kind, err := domain.ParseCacheKind(u.Cache.Kind)
		if err != nil {
			return domain.UnitSpec{}, err
		}
		strategy = domain.CacheStrategy{
			Kind:       kind,
			Durability: domain.Durability{Limit: u.Cache.Limit},
			Check:      domain.CheckAllOnUse,
		}
		if err := strategy.Validate(); err != nil {
			return domain.UnitSpec{}, err
		}
	}

	return domain.UnitSpec{
		ID:           u.ID,
		Kind:         u.Kind,
		Strategy:     strategy,
		Dependencies: u.Dependencies,
		ConfigStore:  u.ConfigStore,
		Config:       u.Config,
	}, nil
}
