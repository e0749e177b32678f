package config

// Config represents the main configuration structure
type Config struct {
	OCR      OCRConfig      `yaml:"ocr" mapstructure:"ocr"`
	Text     TextConfig     `yaml:"text" mapstructure:"text"`
	Objects  ObjectsConfig  `yaml:"objects" mapstructure:"objects"`
	Redact   RedactConfig   `yaml:"redact" mapstructure:"redact"`
	Heatmap  HeatmapConfig  `yaml:"heatmap" mapstructure:"heatmap"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
}

// OCRConfig contains Tesseract engine configuration
type OCRConfig struct {
	TessdataPath string `yaml:"tessdata_path" mapstructure:"tessdata_path"` // empty uses the system default
	Language     string `yaml:"language" mapstructure:"language"`
	PageSegMode  int    `yaml:"page_seg_mode" mapstructure:"page_seg_mode"`
}

// TextConfig contains text region detector configuration
type TextConfig struct {
	BandFraction float64 `yaml:"band_fraction" mapstructure:"band_fraction"`
	RegionMode   string  `yaml:"region_mode" mapstructure:"region_mode"` // band or lines
}

// ObjectsConfig contains object region detector configuration
type ObjectsConfig struct {
	Enabled           bool    `yaml:"enabled" mapstructure:"enabled"`
	ModelPath         string  `yaml:"model_path" mapstructure:"model_path"`
	SharedLibraryPath string  `yaml:"shared_library_path" mapstructure:"shared_library_path"`
	Confidence        float64 `yaml:"confidence" mapstructure:"confidence"`
	IoU               float64 `yaml:"iou" mapstructure:"iou"`
}

// RedactConfig contains redaction engine configuration
type RedactConfig struct {
	KernelSize       int  `yaml:"kernel_size" mapstructure:"kernel_size"`
	CoalesceOverlaps bool `yaml:"coalesce_overlaps" mapstructure:"coalesce_overlaps"`
}

// HeatmapConfig contains heatmap renderer configuration
type HeatmapConfig struct {
	Color          string  `yaml:"color" mapstructure:"color"`
	OriginalWeight float64 `yaml:"original_weight" mapstructure:"original_weight"`
	OverlayWeight  float64 `yaml:"overlay_weight" mapstructure:"overlay_weight"`
}

// MetricsConfig contains metrics estimator configuration
type MetricsConfig struct {
	Seed uint64 `yaml:"seed" mapstructure:"seed"` // 0 seeds from the clock
}

// OutputConfig contains artifact output configuration
type OutputConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	JPEGQuality int    `yaml:"jpeg_quality" mapstructure:"jpeg_quality"`
}

// PipelineConfig contains batch processing configuration
type PipelineConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   string `yaml:"file" mapstructure:"file"`
}

// GetDefaults returns the default configuration
func GetDefaults() *Config {
	return &Config{
		OCR: OCRConfig{
			Language:    "eng",
			PageSegMode: 6, // uniform block of text
		},
		Text: TextConfig{
			BandFraction: 0.2,
			RegionMode:   "band",
		},
		Objects: ObjectsConfig{
			Enabled:    true,
			ModelPath:  "yolov8n.onnx",
			Confidence: 0.25,
			IoU:        0.7,
		},
		Redact: RedactConfig{
			KernelSize: 51,
		},
		Heatmap: HeatmapConfig{
			Color:          "#FF0000",
			OriginalWeight: 0.7,
			OverlayWeight:  0.3,
		},
		Output: OutputConfig{
			Dir:         "output",
			JPEGQuality: 95,
		},
		Pipeline: PipelineConfig{
			Workers: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
