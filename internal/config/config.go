// Package config provides configuration management for beiwagen.
// Settings come from environment variables, command line flags and an
// optional beiwagen.toml (or YAML) file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rouhim/beiwagen/internal/model"
	"github.com/rouhim/beiwagen/internal/util"
)

// FileName is the config file looked up next to the executable.
const FileName = "beiwagen.toml"

// DefaultBaseURL is the resource site.
const DefaultBaseURL = "https://www.beamng.com"

// DefaultWorkers is the default number of parallel transfers.
const DefaultWorkers = 4

// ErrInvalidModID is returned for a mod value that is neither an id nor a
// resource URL.
var ErrInvalidModID = errors.New("invalid mod value")

// Config is the effective configuration of a run.
type Config struct {
	// ModsDir is the BeamNG client mods directory, e.g. /path/to/BeamNG.drive/client-mods
	ModsDir string `toml:"client_mods_dir" yaml:"client_mods_dir" env:"BW_CLIENT_MODS_DIR" validate:"required"`

	// Mods lists the wanted resource ids.
	Mods []string `toml:"mods" yaml:"mods" env:"BW_MODS" envSeparator:"," validate:"min=1,dive,numeric"`

	// Outdated is how outdated resources are handled: ignore, skip or delete.
	Outdated string `toml:"outdated" yaml:"outdated" env:"BW_OUTDATED"`

	// Unsupported is how unsupported resources are handled: ignore, skip or delete.
	Unsupported string `toml:"unsupported" yaml:"unsupported" env:"BW_UNSUPPORTED"`

	// Workers bounds parallel transfers and lookups.
	Workers int `toml:"workers" yaml:"workers" env:"BW_WORKERS" validate:"min=1,max=64"`

	// BaseURL is the resource site.
	BaseURL string `toml:"base_url" yaml:"base_url" env:"BW_BASE_URL" validate:"required,url"`

	// DeleteInvalid removes archives that are not valid zip files.
	DeleteInvalid bool `toml:"delete_invalid" yaml:"delete_invalid" env:"BW_DELETE_INVALID"`

	// DryRun computes the plan without touching the mods directory.
	DryRun bool `toml:"-" yaml:"-"`

	// SelfUpdate checks for a newer release before syncing.
	SelfUpdate bool `toml:"-" yaml:"-"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Workers: DefaultWorkers,
		BaseURL: DefaultBaseURL,
	}
}

// FilePath returns the default config file path next to the executable.
func FilePath() string {
	return filepath.Join(util.ExecutableDir(), FileName)
}

// LoadOptions controls Load.
type LoadOptions struct {
	// Path is an explicit config file. A missing explicit file is an error.
	// When empty, FilePath() is tried and may be absent.
	Path string

	// DotEnv is a .env file loaded into the environment before reading it.
	// Existing variables win. A missing file is ignored.
	DotEnv string

	// Flags holds values given on the command line.
	Flags Config
}

// Load builds the effective configuration.
func Load(opts LoadOptions) (*Config, error) {
	if opts.DotEnv != "" {
		if err := godotenv.Load(opts.DotEnv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", opts.DotEnv, err)
		}
	}

	path, explicit := opts.Path, opts.Path != ""
	if !explicit {
		path = FilePath()
	}
	file, err := LoadFromPath(path)
	switch {
	case err == nil:
	case !explicit && errors.Is(err, fs.ErrNotExist):
		file = &Config{}
	default:
		return nil, err
	}

	fromEnv, err := FromEnvironment()
	if err != nil {
		return nil, err
	}

	return Merge(fromEnv, &opts.Flags, file)
}

// LoadFromPath reads a config file. Files ending in .yaml or .yml are YAML,
// everything else is TOML.
func LoadFromPath(path string) (*Config, error) {
	// #nosec G304 - path is provided by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnvironment reads the BW_* environment variables.
func FromEnvironment() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return cfg, nil
}

// Merge combines configurations, earlier ones taking precedence. Mods are
// concatenated in order, normalized to ids and de-duplicated.
func Merge(layers ...*Config) (*Config, error) {
	cfg := Default()

	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		if l == nil {
			continue
		}
		if l.ModsDir != "" {
			cfg.ModsDir = l.ModsDir
		}
		if l.Outdated != "" {
			cfg.Outdated = l.Outdated
		}
		if l.Unsupported != "" {
			cfg.Unsupported = l.Unsupported
		}
		if l.Workers != 0 {
			cfg.Workers = l.Workers
		}
		if l.BaseURL != "" {
			cfg.BaseURL = strings.TrimRight(l.BaseURL, "/")
		}
		cfg.DeleteInvalid = cfg.DeleteInvalid || l.DeleteInvalid
		cfg.DryRun = cfg.DryRun || l.DryRun
		cfg.SelfUpdate = cfg.SelfUpdate || l.SelfUpdate
	}

	seen := make(map[string]bool)
	cfg.Mods = nil
	for _, l := range layers {
		if l == nil {
			continue
		}
		for _, v := range l.Mods {
			for _, part := range strings.Split(v, ",") {
				part = strings.TrimSpace(part)
				if part == "" {
					continue
				}
				id, err := NormalizeModID(part)
				if err != nil {
					return nil, err
				}
				if !seen[id] {
					seen[id] = true
					cfg.Mods = append(cfg.Mods, id)
				}
			}
		}
	}

	cfg.ModsDir = util.ExpandPath(cfg.ModsDir)
	return cfg, nil
}

// resourceURL matches https://www.beamng.com/resources/<slug>.<id>/
var resourceURL = regexp.MustCompile(`^https?://(?:www\.)?beamng\.com/resources/(?:[^/?#]*\.)?(\d+)(?:[/?#].*)?$`)

// NormalizeModID turns a mod value into a canonical resource id. Numeric
// values lose leading zeros, resource URLs yield the id they end in. Zero is
// never a resource.
func NormalizeModID(v string) (string, error) {
	v = strings.TrimSpace(v)
	raw := v
	if m := resourceURL.FindStringSubmatch(v); m != nil {
		raw = m[1]
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidModID, v)
	}
	return strconv.FormatUint(id, 10), nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field, _, _ := strings.Cut(fe.StructField(), "[")
	switch field {
	case "ModsDir":
		return "client mods directory is required (--client-mods-dir, BW_CLIENT_MODS_DIR or client_mods_dir)"
	case "Mods":
		if fe.Tag() == "min" {
			return "at least one mod is required (--mods, BW_MODS or mods)"
		}
		return fmt.Sprintf("mod %v is not a resource id", fe.Value())
	case "Workers":
		return fmt.Sprintf("workers must be between 1 and 64, got %v", fe.Value())
	case "BaseURL":
		return fmt.Sprintf("base url %q is not a URL", fe.Value())
	default:
		return fe.Error()
	}
}

// Policy returns the handling of outdated and unsupported resources.
func (c *Config) Policy() model.Policy {
	return model.Policy{
		Outdated:    model.ParseDeltaAction(c.Outdated),
		Unsupported: model.ParseDeltaAction(c.Unsupported),
	}
}

// SaveToPath writes the configuration as TOML, or YAML for .yaml/.yml paths.
func (c *Config) SaveToPath(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	data, err := c.Marshal(filepath.Ext(path))
	if err != nil {
		return err
	}

	// #nosec G306 - config file should be readable by user
	return os.WriteFile(path, data, 0o644)
}

// Marshal encodes the configuration in the format matching ext.
func (c *Config) Marshal(ext string) ([]byte, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return yaml.Marshal(c)
	default:
		var b strings.Builder
		if err := toml.NewEncoder(&b).Encode(c); err != nil {
			return nil, err
		}
		return []byte(b.String()), nil
	}
}
