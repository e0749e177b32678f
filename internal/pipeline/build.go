package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ironsheep/image-anonymizer/internal/config"
	"github.com/ironsheep/image-anonymizer/internal/detection"
	"github.com/ironsheep/image-anonymizer/internal/logger"
	"github.com/ironsheep/image-anonymizer/internal/metrics"
	"github.com/ironsheep/image-anonymizer/internal/ocr"
	"github.com/ironsheep/image-anonymizer/internal/redact"
)

// Build creates a production pipeline from configuration: Tesseract for text,
// an ONNX YOLO model for objects (when enabled), and the placeholder metrics.
//
// Missing engines or models are fatal here rather than per image. The caller
// must Close the pipeline to release the model.
func Build(cfg *config.Config, log *logger.Logger) (*Pipeline, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	mode := detection.RegionMode(cfg.Text.RegionMode)

	engine, err := ocr.NewTesseract(ocr.Options{
		Language:     cfg.OCR.Language,
		TessdataPath: cfg.OCR.TessdataPath,
		PageSegMode:  cfg.OCR.PageSegMode,
		WithLines:    mode == detection.RegionModeLines,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDetectorUnavailable, err)
	}
	log.Info("OCR engine ready",
		zap.String("tesseract", engine.Version()),
		zap.String("language", cfg.OCR.Language),
	)

	text, err := detection.NewTextDetector(engine,
		detection.WithBandFraction(cfg.Text.BandFraction),
		detection.WithRegionMode(mode),
	)
	if err != nil {
		return nil, err
	}

	blurrer, err := redact.NewBlurrer(cfg.Redact.KernelSize)
	if err != nil {
		return nil, err
	}

	heatmap, err := redact.NewHeatmapRenderer(cfg.Heatmap.Color, cfg.Heatmap.OriginalWeight, cfg.Heatmap.OverlayWeight)
	if err != nil {
		return nil, err
	}

	writer, err := NewArtifactWriter(cfg.Output.JPEGQuality)
	if err != nil {
		return nil, err
	}

	opts := Options{
		Text:      text,
		Blurrer:   blurrer,
		Heatmap:   heatmap,
		Estimator: metrics.NewPlaceholder(cfg.Metrics.Seed),
		Writer:    writer,
		OCR:       engine,
		Coalesce:  cfg.Redact.CoalesceOverlaps,
		Logger:    log,
	}

	var objects *detection.ObjectDetector
	if cfg.Objects.Enabled {
		model, err := detection.NewONNXModel(detection.ONNXOptions{
			ModelPath:         cfg.Objects.ModelPath,
			SharedLibraryPath: cfg.Objects.SharedLibraryPath,
			Confidence:        cfg.Objects.Confidence,
			IoU:               cfg.Objects.IoU,
		}, log.WithComponent("onnx").Logger)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDetectorUnavailable, err)
		}
		if objects, err = detection.NewObjectDetector(model); err != nil {
			model.Close()
			return nil, fmt.Errorf("%w: %w", ErrDetectorUnavailable, err)
		}
		opts.Objects = objects
	} else {
		log.Warn("object detection disabled; only text regions will be redacted")
	}

	p, err := New(opts)
	if err != nil {
		if objects != nil {
			objects.Close()
		}
		return nil, err
	}
	if objects != nil {
		p.closers = append(p.closers, objects.Close)
	}

	return p, nil
}
