package pipeline

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"fitout/internal"
	"fitout/internal/config"
)

func TestDefaultProfile(t *testing.T) {
	prof := DefaultProfile()
	if prof.HeaderScanRows != 0 || prof.MinHeaderHits != 3 {
		t.Fatalf("unexpected scan settings: %+v", prof)
	}
	if prof.MatchThreshold != 0.55 || prof.DefaultCurrency != "USD" {
		t.Fatalf("unexpected defaults: %+v", prof)
	}
	for _, role := range rolePriority {
		if len(prof.RoleKeywords[string(role)]) == 0 {
			t.Fatalf("no keywords for role %s", role)
		}
	}
}

func TestLoadProfileDefaults(t *testing.T) {
	prof, err := LoadProfile(config.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(prof, DefaultProfile()) {
		t.Fatalf("profile=%+v", prof)
	}
}

func TestLoadProfileEnvSettings(t *testing.T) {
	cfg := config.Config{MatchThreshold: 0.7, HeaderScanRows: 5, DefaultCurrency: "GBP"}
	prof, err := LoadProfile(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if prof.MatchThreshold != 0.7 || prof.HeaderScanRows != 5 || prof.DefaultCurrency != "GBP" {
		t.Fatalf("profile=%+v", prof)
	}
}

func TestLoadProfileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	blob := "matchThreshold: 0.7\nminHeaderHits: 2\ndefaultCurrency: EUR\nroleKeywords:\n  item: [artikel, pos]\n"
	if err := os.WriteFile(path, []byte(blob), 0o644); err != nil {
		t.Fatal(err)
	}

	prof, err := LoadProfile(config.Config{ProfilePath: path})
	if err != nil {
		t.Fatal(err)
	}
	if prof.MatchThreshold != 0.7 || prof.MinHeaderHits != 2 || prof.DefaultCurrency != "EUR" {
		t.Fatalf("profile=%+v", prof)
	}
	if got := prof.RoleKeywords[string(internal.RoleItem)]; len(got) != 2 || got[0] != "artikel" {
		t.Fatalf("item keywords=%v", got)
	}
	// untouched sections keep their defaults
	if !reflect.DeepEqual(prof.RoleKeywords[string(internal.RolePrice)], DefaultProfile().RoleKeywords[string(internal.RolePrice)]) {
		t.Fatalf("price keywords=%v", prof.RoleKeywords[string(internal.RolePrice)])
	}
	if len(prof.HeaderKeywords) != len(DefaultProfile().HeaderKeywords) {
		t.Fatalf("header keywords=%v", prof.HeaderKeywords)
	}
}

func TestLoadProfileMissingFile(t *testing.T) {
	if _, err := LoadProfile(config.Config{ProfilePath: "/nope/profile.yaml"}); err == nil {
		t.Fatal("expected error")
	}
}
