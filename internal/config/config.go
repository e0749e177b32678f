package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. ANONYMIZER_REDACT_KERNEL_SIZE.
const EnvPrefix = "ANONYMIZER"

// Load loads configuration from file and environment variables.
//
// Defaults come from GetDefaults. A missing config file is not an error; an
// explicitly named file that cannot be read is.
func Load(configPath string) (*Config, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return decode(v)
}

// Watch reloads the configuration file whenever it changes and hands the new,
// validated configuration to callback. Invalid edits are reported to onError
// and otherwise ignored so a typo does not take a running server down.
func Watch(configPath string, callback func(*Config), onError func(error)) error {
	if configPath == "" {
		return errors.New("watch requires an explicit config file")
	}

	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		callback(cfg)
	})
	v.WatchConfig()

	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("anonymizer")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("$HOME/.image-anonymizer/")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, GetDefaults())
	return v
}

// setDefaults registers every key so AutomaticEnv can override keys that are
// absent from the config file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("ocr.tessdata_path", d.OCR.TessdataPath)
	v.SetDefault("ocr.language", d.OCR.Language)
	v.SetDefault("ocr.page_seg_mode", d.OCR.PageSegMode)

	v.SetDefault("text.band_fraction", d.Text.BandFraction)
	v.SetDefault("text.region_mode", d.Text.RegionMode)

	v.SetDefault("objects.enabled", d.Objects.Enabled)
	v.SetDefault("objects.model_path", d.Objects.ModelPath)
	v.SetDefault("objects.shared_library_path", d.Objects.SharedLibraryPath)
	v.SetDefault("objects.confidence", d.Objects.Confidence)
	v.SetDefault("objects.iou", d.Objects.IoU)

	v.SetDefault("redact.kernel_size", d.Redact.KernelSize)
	v.SetDefault("redact.coalesce_overlaps", d.Redact.CoalesceOverlaps)

	v.SetDefault("heatmap.color", d.Heatmap.Color)
	v.SetDefault("heatmap.original_weight", d.Heatmap.OriginalWeight)
	v.SetDefault("heatmap.overlay_weight", d.Heatmap.OverlayWeight)

	v.SetDefault("metrics.seed", d.Metrics.Seed)

	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.jpeg_quality", d.Output.JPEGQuality)

	v.SetDefault("pipeline.workers", d.Pipeline.Workers)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
}

func decode(v *viper.Viper) (*Config, error) {
	config := GetDefaults()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func Validate(config *Config) error {
	if config.OCR.Language == "" {
		return errors.New("ocr language must not be empty")
	}
	if config.OCR.PageSegMode < 0 || config.OCR.PageSegMode > 13 {
		return fmt.Errorf("invalid ocr page_seg_mode: %d (must be 0-13)", config.OCR.PageSegMode)
	}

	if config.Text.BandFraction <= 0 || config.Text.BandFraction > 1 {
		return fmt.Errorf("invalid text band_fraction: %g (must be in (0, 1])", config.Text.BandFraction)
	}
	if config.Text.RegionMode != "band" && config.Text.RegionMode != "lines" {
		return fmt.Errorf("invalid text region_mode: %s (must be band or lines)", config.Text.RegionMode)
	}

	if config.Objects.Enabled {
		if config.Objects.ModelPath == "" {
			return errors.New("objects model_path is required when objects are enabled")
		}
		if config.Objects.Confidence < 0 || config.Objects.Confidence > 1 {
			return fmt.Errorf("invalid objects confidence: %g (must be in [0, 1])", config.Objects.Confidence)
		}
		if config.Objects.IoU <= 0 || config.Objects.IoU > 1 {
			return fmt.Errorf("invalid objects iou: %g (must be in (0, 1])", config.Objects.IoU)
		}
	}

	if config.Redact.KernelSize < 1 || config.Redact.KernelSize%2 == 0 {
		return fmt.Errorf("invalid redact kernel_size: %d (must be a positive odd number)", config.Redact.KernelSize)
	}

	if config.Heatmap.OriginalWeight < 0 || config.Heatmap.OverlayWeight < 0 {
		return errors.New("heatmap weights must not be negative")
	}
	if config.Heatmap.OriginalWeight+config.Heatmap.OverlayWeight > 1.0+1e-9 {
		return fmt.Errorf("heatmap weights sum to %g (must be <= 1.0)",
			config.Heatmap.OriginalWeight+config.Heatmap.OverlayWeight)
	}

	if config.Output.JPEGQuality < 1 || config.Output.JPEGQuality > 100 {
		return fmt.Errorf("invalid output jpeg_quality: %d (must be 1-100)", config.Output.JPEGQuality)
	}

	if config.Pipeline.Workers < 1 {
		return fmt.Errorf("invalid pipeline workers: %d (must be >= 1)", config.Pipeline.Workers)
	}

	switch config.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.Logging.Level)
	}

	if config.Logging.Format != "json" && config.Logging.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", config.Logging.Format)
	}

	return nil
}
