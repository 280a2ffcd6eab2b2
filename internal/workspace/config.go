package workspace

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/mmr-tortoise/shipyard/internal/model"
)

// ConfigFileName is the optional workspace configuration file at the
// repository root.
const ConfigFileName = ".shipyard.jsonc"

// Config is the parsed workspace configuration. Every field is optional:
// an absent file behaves exactly like an empty one, and discovery fills
// the gaps by scanning and inference.
type Config struct {
	// Packages lists package directories relative to the repository root
	// ("." for a package rooted at the repository itself). When empty,
	// discovery scans the tree for manifest files instead.
	Packages []string `json:"packages,omitempty"`

	// Primary overrides primary-package inference with an explicit
	// package name.
	Primary string `json:"primary,omitempty"`
}

// LoadConfig reads and parses the workspace configuration file. The file
// format is JSONC (JSON with comments), so comments are stripped with
// tidwall/jsonc before parsing with the standard encoding/json. A missing
// file yields the zero Config; a malformed file is an error so a typo
// cannot silently change which packages get released.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to read %s", path), err)
	}

	var cfg Config
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to parse %s", path), err)
	}
	return &cfg, nil
}
