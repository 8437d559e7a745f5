package config

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Service loads and validates the process configuration.
type Service interface {
	Load(ctx context.Context) (*Config, error)
	Validate(config *Config) error
	Current() *Config
}

// loader implements Service over koanf with env-var overrides.
type loader struct {
	koanf         *koanf.Koanf
	validator     *validator.Validate
	currentConfig atomic.Value // stores *Config
}

// NewService creates a new configuration service with validation support.
func NewService() Service {
	return &loader{
		koanf:     koanf.New("."),
		validator: validator.New(),
	}
}

// Load builds the configuration from defaults overridden by environment
// variables, then validates it. It is called once at startup.
func (l *loader) Load(_ context.Context) (*Config, error) {
	if err := l.loadDefaults(); err != nil {
		return nil, err
	}
	if err := l.loadEnvironment(); err != nil {
		return nil, err
	}
	config, err := l.unmarshalAndValidate()
	if err != nil {
		return nil, err
	}
	l.currentConfig.Store(config)
	return config, nil
}

// Current returns the most recently loaded configuration, or nil before Load.
func (l *loader) Current() *Config {
	if c, ok := l.currentConfig.Load().(*Config); ok {
		return c
	}
	return nil
}

// loadDefaults seeds koanf from the Default() struct so defaults and
// overrides flow through the same unmarshal path.
func (l *loader) loadDefaults() error {
	if err := l.koanf.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return fmt.Errorf("failed to load defaults: %w", err)
	}
	return nil
}

// loadEnvironment applies environment variables using the env struct tags
// declared on Config fields.
func (l *loader) loadEnvironment() error {
	envToPath := generateEnvMappings()
	if err := l.koanf.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			if configPath, exists := envToPath[key]; exists {
				return configPath, value
			}
			// Unmapped variables are ignored rather than guessed at.
			return "", nil
		},
	}), nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}
	return nil
}

// sensitiveStringDecodeHook converts strings to SensitiveString during unmarshal.
func sensitiveStringDecodeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(SensitiveString("")) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return SensitiveString(v), nil
	case []byte:
		return SensitiveString(v), nil
	default:
		return data, nil
	}
}

func (l *loader) unmarshalAndValidate() (*Config, error) {
	var config Config
	if err := l.koanf.UnmarshalWithConf("", &config, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &config,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				sensitiveStringDecodeHook,
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := l.Validate(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// Validate checks struct tags plus cross-field constraints.
func (l *loader) Validate(config *Config) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if err := l.validator.Struct(config); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return l.validateCustom(config)
}

func (l *loader) validateCustom(config *Config) error {
	if config.Database.ConnString == "" {
		if config.Database.Host == "" || config.Database.Port == "" ||
			config.Database.User == "" || config.Database.DBName == "" {
			return fmt.Errorf("database configuration incomplete: either conn_string or individual components required")
		}
	}
	if config.Retention.DefaultDays > config.Retention.MaxDays {
		return fmt.Errorf("retention default_days must not exceed max_days")
	}
	if config.Engine.PersistTimeout > config.Engine.RunTimeout {
		return fmt.Errorf("engine persist_timeout must not exceed run_timeout")
	}
	return nil
}

// generateEnvMappings walks Config struct tags and returns env var -> koanf path.
func generateEnvMappings() map[string]string {
	result := make(map[string]string)
	collectEnvMappings(reflect.TypeOf(Config{}), "", result)
	return result
}

func collectEnvMappings(t reflect.Type, prefix string, out map[string]string) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		koanfTag := field.Tag.Get("koanf")
		if koanfTag == "" || koanfTag == "-" {
			continue
		}
		configPath := koanfTag
		if prefix != "" {
			configPath = prefix + "." + koanfTag
		}
		if envTag := field.Tag.Get("env"); envTag != "" && envTag != "-" {
			out[envTag] = configPath
		}
		if field.Type.Kind() == reflect.Struct && !strings.HasPrefix(field.Type.PkgPath(), "time") {
			collectEnvMappings(field.Type, configPath, out)
		}
	}
}
