package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Portal describes one CKAN catalog to harvest.
type Portal struct {
	Name        string `toml:"name"`
	URL         string `toml:"url"`
	Type        string `toml:"type"`
	Enabled     bool   `toml:"enabled"`
	Description string `toml:"description,omitempty"`
}

type portalFile struct {
	Portals []Portal `toml:"portals"`
}

const portalTemplate = `# Ceres portal catalog.
# Add one [[portals]] entry per CKAN-compatible data portal to harvest.

[[portals]]
name = "example"
url = "https://catalog.example.gov"
type = "ckan"
enabled = true
description = "Replace this with a real portal"
`

// LoadPortals reads the portal catalog from path. If path is empty, the
// default location (<user-config-dir>/ceres/portals.toml) is used, and if
// that default file does not exist, it is created from a template and an
// error asking the user to edit that template is returned instead of a
// plain missing-file error. An explicit, non-default path that does not
// exist is a plain not-found error with no side effect. An entry that omits
// type gets "ckan", and one that omits enabled is enabled.
func LoadPortals(path string) ([]Portal, error) {
	usingDefault := path == ""
	if usingDefault {
		path = Get().Portals.ConfigPath
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if !usingDefault {
			return nil, fmt.Errorf("portal config not found at %s", path)
		}
		if err := createPortalTemplate(path); err != nil {
			return nil, fmt.Errorf("failed to create portal template at %s: %w", path, err)
		}
		return nil, fmt.Errorf("no portal catalog found; created a template at %s — edit it and re-run", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read portal catalog %s: %w", path, err)
	}

	var file portalFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse portal catalog %s: %w", path, err)
	}

	var presence struct {
		Portals []struct {
			Enabled *bool `toml:"enabled"`
		} `toml:"portals"`
	}
	_ = toml.Unmarshal(data, &presence)
	for i := range file.Portals {
		if file.Portals[i].Type == "" {
			file.Portals[i].Type = "ckan"
		}
		if i < len(presence.Portals) && presence.Portals[i].Enabled == nil {
			file.Portals[i].Enabled = true
		}
	}

	return file.Portals, nil
}

func createPortalTemplate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(portalTemplate), 0o644)
}

// FindPortal looks up a portal by case-insensitive name.
func FindPortal(portals []Portal, name string) (Portal, bool) {
	for _, p := range portals {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Portal{}, false
}

// EnabledPortals filters a portal list down to enabled entries.
func EnabledPortals(portals []Portal) []Portal {
	var out []Portal
	for _, p := range portals {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out
}
