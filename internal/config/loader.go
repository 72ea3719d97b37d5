package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "CIVICPULSE"

var (
	// ErrConfigFileNotFound is returned when an explicit config path does not exist.
	ErrConfigFileNotFound = errors.New("config file not found")
	// ErrConfigParseError is returned when the file or the merged values cannot be decoded.
	ErrConfigParseError = errors.New("config parse error")
	// ErrConfigInvalid is returned when the merged configuration fails Validate.
	ErrConfigInvalid = errors.New("config invalid")
)

var (
	globalMu  sync.RWMutex
	globalCfg *Config
)

// Get returns the configuration produced by the most recent successful Load.
func Get() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalCfg
}

func setGlobal(cfg *Config) {
	globalMu.Lock()
	globalCfg = cfg
	globalMu.Unlock()
}

type loadOptions struct {
	configPath  string
	searchPaths []string
	overrides   map[string]interface{}
}

// LoadOption customises Load.
type LoadOption func(*loadOptions)

// WithConfigPath names an explicit config file; it must exist.
func WithConfigPath(path string) LoadOption {
	return func(o *loadOptions) { o.configPath = path }
}

// WithSearchPaths replaces the default search locations with dirs, each
// probed for civicpulse.yaml then config.yaml.
func WithSearchPaths(dirs ...string) LoadOption {
	return func(o *loadOptions) {
		o.searchPaths = o.searchPaths[:0]
		for _, d := range dirs {
			o.searchPaths = append(o.searchPaths,
				filepath.Join(d, "civicpulse.yaml"),
				filepath.Join(d, "config.yaml"))
		}
	}
}

// WithOverrides sets keys with the highest precedence, above env and file.
// The CLI maps its flags through this.
func WithOverrides(values map[string]interface{}) LoadOption {
	return func(o *loadOptions) {
		if o.overrides == nil {
			o.overrides = make(map[string]interface{}, len(values))
		}
		for k, v := range values {
			o.overrides[k] = v
		}
	}
}

func defaultSearchPaths() []string {
	paths := []string{"civicpulse.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".civicpulse", "config.yaml"))
	}
	return append(paths, filepath.Join(string(filepath.Separator), "etc", "civicpulse", "config.yaml"))
}

// newViper builds a Viper instance with YAML file type, the CIVICPULSE_ env
// prefix and a "." → "_" key replacer, so "redis.addr" resolves to
// CIVICPULSE_REDIS_ADDR. Every default is registered so that env variables
// apply to keys the file does not mention.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	registerDefaults(v, "", reflect.ValueOf(Defaults()).Elem())
	return v
}

// registerDefaults walks cfg by mapstructure tag. Squashed embeds share the
// parent prefix.
func registerDefaults(v *viper.Viper, prefix string, rv reflect.Value) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("mapstructure")
		name, opts, _ := strings.Cut(tag, ",")
		fv := rv.Field(i)
		if opts == "squash" {
			registerDefaults(v, prefix, fv)
			continue
		}
		if name == "" || name == "-" {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		switch fv.Kind() {
		case reflect.Struct:
			registerDefaults(v, key, fv)
		case reflect.Slice, reflect.Map:
			if !fv.IsNil() {
				v.SetDefault(key, fv.Interface())
			}
		default:
			v.SetDefault(key, fv.Interface())
		}
	}
}

// Load resolves the config file (explicit path, then the search paths),
// merges CIVICPULSE_* environment overrides and any WithOverrides values on
// top of the defaults, and validates the result. No file at all is fine:
// the service then runs on env and defaults.
func Load(opts ...LoadOption) (*Config, error) {
	o := &loadOptions{searchPaths: defaultSearchPaths()}
	for _, opt := range opts {
		opt(o)
	}

	v := newViper()
	path, err := resolveConfigFile(o)
	if err != nil {
		return nil, err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: reading %q: %v", ErrConfigParseError, path, err)
		}
	}
	for k, val := range o.overrides {
		v.Set(k, val)
	}

	cfg, err := unmarshalAndFinalize(v)
	if err != nil {
		return nil, err
	}
	setGlobal(cfg)
	return cfg, nil
}

// LoadFromFile is shorthand for Load(WithConfigPath(path)).
func LoadFromFile(path string) (*Config, error) {
	return Load(WithConfigPath(path))
}

// LoadFromEnv builds a Config from CIVICPULSE_* variables and defaults only.
//
//	CIVICPULSE_<SECTION>_<FIELD>   e.g.  CIVICPULSE_REDIS_ADDR, CIVICPULSE_ANALYSIS_EPS_METERS
func LoadFromEnv() (*Config, error) {
	return Load(WithSearchPaths())
}

func resolveConfigFile(o *loadOptions) (string, error) {
	if o.configPath != "" {
		if _, err := os.Stat(o.configPath); err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, o.configPath)
			}
			return "", fmt.Errorf("%w: %s: %v", ErrConfigParseError, o.configPath, err)
		}
		return o.configPath, nil
	}
	for _, p := range o.searchPaths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", nil
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	return cfg, nil
}

// Watch re-reads configPath whenever it changes on disk and passes each
// valid result to onChange. Invalid edits are reported to onError, when
// set, and otherwise ignored so the running process keeps its last good
// configuration. Watch returns after the initial read; the watcher runs on
// viper's goroutine.
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: reading %q: %v", ErrConfigParseError, configPath, err)
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		setGlobal(cfg)
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad wraps Load and panics on error. Meant for main().
func MustLoad(opts ...LoadOption) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending
