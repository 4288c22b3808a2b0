// Package config loads the CLI's optional briar.toml file. A missing
// file is not an error - every field simply keeps its zero value.
package config

import (
	"errors"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds the settings the briar CLI reads before running a
// script. None of it is consulted by package interp itself.
type Config struct {
	// SearchPath lists extra directories the module loader searches
	// after the working directory.
	SearchPath []string `toml:"search_path"`
	// Demo is the source run when no file argument is given.
	Demo string `toml:"demo"`
	// HistoryPath is where run history is recorded; empty disables it.
	HistoryPath string `toml:"history_path"`
}

// Load reads path if it exists and decodes it as TOML. A missing file
// returns a zero Config and a nil error.
func Load(path string) (Config, error) {
	var cfg Config
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
