// Package settings loads runtime settings from .kiln/settings.yaml and KILN_*
// environment variables.
package settings

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// EnvPrefix is the prefix of environment overrides, e.g. KILN_LOG_FORMAT.
const EnvPrefix = "KILN"

// Settings holds process-level options. Unit configuration lives in the
// manifest and config stores instead.
type Settings struct {
	// Manifest is the manifest path relative to the project root.
	Manifest string `mapstructure:"manifest" validate:"required"`

	Log       LogSettings       `mapstructure:"log"`
	Admin     AdminSettings     `mapstructure:"admin"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
}

// LogSettings selects the log output format.
type LogSettings struct {
	Format string `mapstructure:"format" validate:"required,oneof=pretty json"`
}

// AdminSettings configures the admin HTTP surface.
type AdminSettings struct {
	Listen          string        `mapstructure:"listen" validate:"required,hostname_port"`
	Metrics         bool          `mapstructure:"metrics"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// TelemetrySettings toggles span reporting.
type TelemetrySettings struct {
	Enabled bool `mapstructure:"enabled"`
}

// Loader reads Settings.
type Loader struct {
	validate *validator.Validate
}

// NewLoader creates a Loader.
func NewLoader() *Loader {
	return &Loader{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Load reads settings for the project at root.
//
// Precedence, highest first: KILN_* environment variables, the settings file,
// defaults. A missing settings file is not an error.
func (l *Loader) Load(root string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := filepath.Join(root, domain.DefaultSettingsPath())
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrSettingsReadFailed.Error()), "path", path)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s, viper.DecodeHook(decodeHooks())); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrSettingsInvalid.Error()), "path", path)
	}
	if err := l.validate.Struct(&s); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrSettingsInvalid.Error()), "path", path)
	}
	return &s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("manifest", domain.ManifestFileName)
	v.SetDefault("log.format", "pretty")
	v.SetDefault("admin.listen", "127.0.0.1:7417")
	v.SetDefault("admin.metrics", true)
	v.SetDefault("admin.shutdown_timeout", "5s")
	v.SetDefault("telemetry.enabled", false)
}

func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// durationDecodeHook accepts "30s" style strings and raw nanosecond numbers.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeFor[time.Duration]() {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}
