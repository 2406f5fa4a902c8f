package domain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ethosworks/ethos-engine/pkg/apperrors"
)

// LoadFromDir loads the configuration for a domain code from
// "<dir>/<code>.yaml". Missing fields fall back to the compiled-in defaults
// so a domain file only needs to override what differs. The "engineering"
// code resolves to the defaults when no file exists for it.
func LoadFromDir(dir, code string) (*Config, error) {
	path := filepath.Join(dir, code+".yaml")

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if code == Default().Code {
			return Default(), nil
		}
		return nil, fmt.Errorf("domain %q: %w", code, apperrors.ErrUnknownDomain)
	}
	if err != nil {
		return nil, fmt.Errorf("read domain config %s: %w", path, err)
	}

	cfg := Default()
	cfg.Code = code
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse domain config %s: %w", path, err)
	}

	return cfg, nil
}
