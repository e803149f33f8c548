package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"fitout/internal"
	"fitout/internal/config"
)

// rolePriority is the resolution order for column roles. Profiles may swap
// keyword lists but never the order.
var rolePriority = []internal.ColumnRole{
	internal.RoleItem,
	internal.RoleDescription,
	internal.RoleSpecification,
	internal.RoleUnit,
	internal.RolePrice,
	internal.RoleCurrency,
	internal.RolePhoto,
}

type Profile struct {
	HeaderScanRows  int                 `yaml:"headerScanRows"`
	MinHeaderHits   int                 `yaml:"minHeaderHits"`
	HeaderKeywords  []string            `yaml:"headerKeywords"`
	RoleKeywords    map[string][]string `yaml:"roleKeywords"`
	MatchThreshold  float64             `yaml:"matchThreshold"`
	DefaultCurrency string              `yaml:"defaultCurrency"`
}

func DefaultProfile() Profile {
	return Profile{
		HeaderScanRows: 0,
		MinHeaderHits:  3,
		HeaderKeywords: []string{"item", "description", "spec", "unit", "qty", "price", "vendor", "article", "photo"},
		RoleKeywords: map[string][]string{
			string(internal.RoleItem):          {"item", "name", "product", "title", "sku", "code", "article"},
			string(internal.RoleDescription):   {"desc", "description", "details"},
			string(internal.RoleSpecification): {"spec", "specification", "standard"},
			string(internal.RoleUnit):          {"unit", "uom", "measure"},
			string(internal.RolePrice):         {"price", "cost", "rate", "amount"},
			string(internal.RoleCurrency):      {"currency", "curr"},
			string(internal.RolePhoto):         {"photo", "image", "picture", "pic"},
		},
		MatchThreshold:  0.55,
		DefaultCurrency: "USD",
	}
}

// LoadProfile resolves the effective ingestion profile: built-in defaults,
// then env settings, then the optional YAML profile file on top.
func LoadProfile(cfg config.Config) (Profile, error) {
	prof := DefaultProfile()
	if cfg.HeaderScanRows > 0 {
		prof.HeaderScanRows = cfg.HeaderScanRows
	}
	if cfg.MatchThreshold > 0 {
		prof.MatchThreshold = cfg.MatchThreshold
	}
	if cfg.DefaultCurrency != "" {
		prof.DefaultCurrency = cfg.DefaultCurrency
	}
	if cfg.ProfilePath == "" {
		return prof, nil
	}

	blob, err := os.ReadFile(cfg.ProfilePath)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	var override Profile
	if err := yaml.Unmarshal(blob, &override); err != nil {
		return Profile{}, fmt.Errorf("parse profile %s: %w", cfg.ProfilePath, err)
	}

	if override.HeaderScanRows > 0 {
		prof.HeaderScanRows = override.HeaderScanRows
	}
	if override.MinHeaderHits > 0 {
		prof.MinHeaderHits = override.MinHeaderHits
	}
	if len(override.HeaderKeywords) > 0 {
		prof.HeaderKeywords = override.HeaderKeywords
	}
	for role, words := range override.RoleKeywords {
		if len(words) > 0 {
			prof.RoleKeywords[role] = words
		}
	}
	if override.MatchThreshold > 0 {
		prof.MatchThreshold = override.MatchThreshold
	}
	if override.DefaultCurrency != "" {
		prof.DefaultCurrency = override.DefaultCurrency
	}
	return prof, nil
}
