package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/duetcmp/duet/pkg/duet/engine"
)

// Profile is a saved comparison session: a pair of roots plus the engine
// options used to compare them.
type Profile struct {
	Name     string         `yaml:"name"`
	Left     string         `yaml:"left"`
	Right    string         `yaml:"right"`
	Options  engine.Options `yaml:"options"`
	SavedAt  time.Time      `yaml:"saved_at"`
	LastUsed time.Time      `yaml:"last_used,omitempty"`
}

type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

func profilesPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "profiles.yaml"), nil
}

// LoadProfiles reads all saved profiles, sorted by name. A missing
// profiles file yields an empty list.
func LoadProfiles() ([]Profile, error) {
	path, err := profilesPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}

	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}

	sort.Slice(file.Profiles, func(i, j int) bool {
		return file.Profiles[i].Name < file.Profiles[j].Name
	})
	return file.Profiles, nil
}

// SaveProfile adds or replaces a profile by name.
func SaveProfile(p Profile) error {
	if p.Name == "" {
		return fmt.Errorf("profile name cannot be empty")
	}
	profiles, err := LoadProfiles()
	if err != nil {
		return err
	}

	p.SavedAt = time.Now()
	replaced := false
	for i := range profiles {
		if profiles[i].Name == p.Name {
			profiles[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		profiles = append(profiles, p)
	}
	return writeProfiles(profiles)
}

// DeleteProfile removes a profile by name. Deleting a profile that does
// not exist is an error so typos surface.
func DeleteProfile(name string) error {
	profiles, err := LoadProfiles()
	if err != nil {
		return err
	}
	for i := range profiles {
		if profiles[i].Name == name {
			return writeProfiles(append(profiles[:i], profiles[i+1:]...))
		}
	}
	return fmt.Errorf("no profile named %q", name)
}

func writeProfiles(profiles []Profile) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := profilesPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(profileFile{Profiles: profiles})
	if err != nil {
		return fmt.Errorf("encode profiles: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
