package pit

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the project configuration filename.
const ConfigFile = ".pit.yaml"

// SystemDir holds the database, bisect and stash state.
const SystemDir = ".pit"

// Config is the project-level configuration loaded from .pit.yaml.
type Config struct {
	Project ProjectConfig `yaml:"project"`
	Storage StorageConfig `yaml:"storage"`
	Watch   WatchConfig   `yaml:"watch"`
}

// ProjectConfig names the project and its default commit author.
type ProjectConfig struct {
	Name          string `yaml:"name"`
	DefaultAuthor string `yaml:"default_author,omitempty"`
}

// StorageConfig selects the persistence driver.
type StorageConfig struct {
	// Driver is "sqlite" (default) or "memory".
	Driver string `yaml:"driver"`
}

// WatchConfig configures the auto-commit watcher.
type WatchConfig struct {
	// Globs are doublestar patterns for prompt files, relative to the
	// project root.
	Globs []string `yaml:"globs,omitempty"`
	// DebounceMillis collapses bursts of filesystem events.
	DebounceMillis int `yaml:"debounce_millis,omitempty"`
}

// DefaultConfig returns the configuration written by Init.
func DefaultConfig(name string) Config {
	return Config{
		Project: ProjectConfig{Name: name},
		Storage: StorageConfig{Driver: "sqlite"},
		Watch:   WatchConfig{Globs: []string{"prompts/**/*.txt", "prompts/**/*.md"}},
	}
}

// LoadConfig reads .pit.yaml from root, falling back to defaults when
// the file does not exist.
func LoadConfig(root string) (Config, error) {
	data, err := os.ReadFile(filepath.Join(root, ConfigFile))
	if os.IsNotExist(err) {
		return DefaultConfig(filepath.Base(root)), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig(filepath.Base(root))
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to .pit.yaml under root.
func (c Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(filepath.Join(root, ConfigFile), data, 0644)
}
