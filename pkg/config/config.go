package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-go-golems/subwatch/pkg/blink"
	"github.com/go-go-golems/subwatch/pkg/longpoll"
	"github.com/go-go-golems/subwatch/pkg/notify"
	"github.com/go-go-golems/subwatch/pkg/relay"
	"github.com/go-go-golems/subwatch/pkg/submit"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "SUBWATCH"

	DefaultBaseURL        = "http://localhost:8080"
	DefaultRequestTimeout = 30 * time.Second
	DefaultTitle          = "Submissions"
	DefaultLogLevel       = "info"
)

type Config struct {
	BaseURL        string        `mapstructure:"base-url" yaml:"base-url"`
	Title          string        `mapstructure:"title" yaml:"title"`
	ErrorSleep     time.Duration `mapstructure:"error-sleep" yaml:"error-sleep"`
	BlinkInterval  time.Duration `mapstructure:"blink-interval" yaml:"blink-interval"`
	RequestTimeout time.Duration `mapstructure:"request-timeout" yaml:"request-timeout"`
	MarkerMode     string        `mapstructure:"marker-mode" yaml:"marker-mode"`
	RelayClass     string        `mapstructure:"relay-class" yaml:"relay-class"`
	SubmitPath     string        `mapstructure:"submit-path" yaml:"submit-path"`
	LogLevel       string        `mapstructure:"log-level" yaml:"log-level"`
	LogFile        string        `mapstructure:"log-file" yaml:"log-file"`
}

func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "subwatch", "config.yml")
}

func DefaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "subwatch", "subwatch.log")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base-url", DefaultBaseURL)
	v.SetDefault("title", DefaultTitle)
	v.SetDefault("error-sleep", longpoll.DefaultErrorSleep)
	v.SetDefault("blink-interval", blink.DefaultInterval)
	v.SetDefault("request-timeout", DefaultRequestTimeout)
	v.SetDefault("marker-mode", string(notify.ModeLoose))
	v.SetDefault("relay-class", relay.DefaultClass)
	v.SetDefault("submit-path", submit.DefaultAction)
	v.SetDefault("log-level", DefaultLogLevel)
	v.SetDefault("log-file", DefaultLogFile())
}

// AddFlags registers the persistent flags that override config keys.
func AddFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (default is $HOME/.config/subwatch/config.yml)")
	fs.String("base-url", DefaultBaseURL, "submissions server base URL")
	fs.String("title", DefaultTitle, "window title")
	fs.Duration("error-sleep", longpoll.DefaultErrorSleep, "wait after a failed poll")
	fs.Duration("blink-interval", blink.DefaultInterval, "title blink interval")
	fs.Duration("request-timeout", DefaultRequestTimeout, "timeout for fragment, relay and submit requests")
	fs.String("marker-mode", string(notify.ModeLoose), "new-item marker matching: loose or strict")
	fs.String("relay-class", relay.DefaultClass, "class marking links to relay instead of follow")
	fs.String("submit-path", submit.DefaultAction, "form action for submissions")
	fs.String("log-level", DefaultLogLevel, "log level (trace, debug, info, warn, error)")
	fs.String("log-file", DefaultLogFile(), "log file used while the TUI owns the terminal")
}

// Load merges defaults, the config file, SUBWATCH_* environment variables
// and any flags that were set explicitly, in increasing priority.
func Load(fs *pflag.FlagSet) (Config, error) {
	var cfg Config

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	configPath := ""
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			configPath = f.Value.String()
		}
	}
	if configPath == "" {
		configPath = DefaultPath()
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !stderrors.As(err, &notFound) && !stderrors.Is(err, os.ErrNotExist) {
				return cfg, errors.Wrapf(err, "read config %s", configPath)
			}
		}
	}

	if fs != nil {
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			if f.Name == "config" || !f.Changed || bindErr != nil {
				return
			}
			bindErr = v.BindPFlag(f.Name, f)
		})
		if bindErr != nil {
			return cfg, errors.Wrap(bindErr, "bind flags")
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "decode config")
	}
	// The title is never empty; the blinker derives its alternate from it.
	if strings.TrimSpace(cfg.Title) == "" {
		cfg.Title = DefaultTitle
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base-url required")
	}
	if c.ErrorSleep <= 0 {
		return errors.New("error-sleep must be positive")
	}
	if c.BlinkInterval <= 0 {
		return errors.New("blink-interval must be positive")
	}
	if _, err := notify.ParseMode(c.MarkerMode); err != nil {
		return err
	}
	return nil
}

func (c Config) Marker() notify.Mode {
	m, _ := notify.ParseMode(c.MarkerMode)
	return m
}

// MarshalYAML writes durations as strings ("10s") so the output can be
// read back as a config file.
func (c Config) MarshalYAML() (any, error) {
	type plain struct {
		BaseURL        string `yaml:"base-url"`
		Title          string `yaml:"title"`
		ErrorSleep     string `yaml:"error-sleep"`
		BlinkInterval  string `yaml:"blink-interval"`
		RequestTimeout string `yaml:"request-timeout"`
		MarkerMode     string `yaml:"marker-mode"`
		RelayClass     string `yaml:"relay-class"`
		SubmitPath     string `yaml:"submit-path"`
		LogLevel       string `yaml:"log-level"`
		LogFile        string `yaml:"log-file"`
	}
	return plain{
		BaseURL:        c.BaseURL,
		Title:          c.Title,
		ErrorSleep:     c.ErrorSleep.String(),
		BlinkInterval:  c.BlinkInterval.String(),
		RequestTimeout: c.RequestTimeout.String(),
		MarkerMode:     c.MarkerMode,
		RelayClass:     c.RelayClass,
		SubmitPath:     c.SubmitPath,
		LogLevel:       c.LogLevel,
		LogFile:        c.LogFile,
	}, nil
}
