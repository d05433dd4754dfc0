package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var logFile *os.File

func setViperDefaults() {
	viper.SetDefault("loglevel", "info")
	viper.SetDefault("logfile", "")
	viper.SetDefault("tempo", 1.0)
	viper.SetDefault("buffersize", 4096)
	viper.SetDefault("samplerate", 0)
	viper.SetDefault("periodframes", 1024)
	viper.SetDefault("realtime", false)
}

func mustBind(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

// loadConfig reads the optional config file. A missing file is not an error.
func loadConfig(path string) error {
	setViperDefaults()

	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			slog.Debug("no config file found", "configFilePath", path)
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// configureDefaultLogger installs the process-wide slog logger. Logs go to
// stdout as text, or to logFile as JSON. The returned file, if any, must be
// closed by the caller.
func configureDefaultLogger(logLevel, logFile string, opts slog.HandlerOptions) (*os.File, error) {
	switch logLevel {
	case "none":
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		return nil, nil
	case "error":
		opts.Level = slog.LevelError
	case "warn":
		opts.Level = slog.LevelWarn
	case "info":
		opts.Level = slog.LevelInfo
	case "debug":
		opts.Level = slog.LevelDebug
	default:
		return nil, fmt.Errorf("unexpected log level %q", logLevel)
	}

	if logFile == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &opts)))
		return nil, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(f, &opts)))
	return f, nil
}

func setup() error {
	if err := loadConfig(cfgFile); err != nil {
		return err
	}

	f, err := configureDefaultLogger(viper.GetString("loglevel"), viper.GetString("logfile"), slog.HandlerOptions{})
	if err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}
	logFile = f
	return nil
}

func teardown() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}
