package cli

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds settings shared by all commands. Precedence (lowest to
// highest): defaults < config file < TRIGGERTREE_* env vars < flags.
type Config struct {
	Format   string    `mapstructure:"format"`
	Verbose  bool      `mapstructure:"verbose"`
	Database string    `mapstructure:"database"`
	Log      LogConfig `mapstructure:"log"`
}

// LogConfig configures the diagnostic logger on stderr.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("format", "text")
	v.SetDefault("verbose", false)
	v.SetDefault("database", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
}

// newViper initializes Viper with env binding and defaults.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("TRIGGERTREE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// flagKeys maps persistent flag names to config keys.
var flagKeys = map[string]string{
	"format":     "format",
	"verbose":    "verbose",
	"db":         "database",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// bindFlags ties the persistent flags to their config keys so a flag set on
// the command line overrides every other source.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return errors.Wrapf(err, "bind flag --%s", name)
		}
	}
	return nil
}

// LoadConfig reads the optional config file and returns the merged
// configuration.
func LoadConfig(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", configFile)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, nil
}
