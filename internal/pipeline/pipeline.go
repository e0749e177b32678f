package pipeline

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ironsheep/image-anonymizer/internal/detection"
	"github.com/ironsheep/image-anonymizer/internal/imaging"
	"github.com/ironsheep/image-anonymizer/internal/logger"
	"github.com/ironsheep/image-anonymizer/internal/metrics"
	"github.com/ironsheep/image-anonymizer/internal/ocr"
	"github.com/ironsheep/image-anonymizer/internal/redact"
)

// Options wires the components of a Pipeline.
type Options struct {
	// Text is the text region detector. Required.
	Text detection.Detector

	// Objects is the object region detector. Nil disables object detection.
	Objects detection.Detector

	Blurrer   *redact.Blurrer
	Heatmap   *redact.HeatmapRenderer
	Estimator metrics.Estimator
	Writer    *ArtifactWriter

	// OCR is exposed to callers that want raw recognized text. Optional.
	OCR ocr.Engine

	// Coalesce merges overlapping regions after the merge stage.
	Coalesce bool

	Logger *logger.Logger
}

// Pipeline runs detection, redaction, visualization and reporting for one
// image at a time. A Pipeline is safe for concurrent use.
type Pipeline struct {
	text      detection.Detector
	objects   detection.Detector
	blurrer   *redact.Blurrer
	heatmap   *redact.HeatmapRenderer
	estimator metrics.Estimator
	writer    *ArtifactWriter
	ocr       ocr.Engine
	coalesce  bool
	logger    *logger.Logger
	closers   []func() error
}

// New creates a pipeline from its components.
func New(opts Options) (*Pipeline, error) {
	if opts.Text == nil {
		return nil, errors.New("pipeline requires a text detector")
	}
	if opts.Blurrer == nil || opts.Heatmap == nil {
		return nil, errors.New("pipeline requires a blurrer and a heatmap renderer")
	}
	if opts.Estimator == nil {
		return nil, errors.New("pipeline requires a metrics estimator")
	}
	if opts.Writer == nil {
		w, err := NewArtifactWriter(DefaultJPEGQuality)
		if err != nil {
			return nil, err
		}
		opts.Writer = w
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}

	return &Pipeline{
		text:      opts.Text,
		objects:   opts.Objects,
		blurrer:   opts.Blurrer,
		heatmap:   opts.Heatmap,
		estimator: opts.Estimator,
		writer:    opts.Writer,
		ocr:       opts.OCR,
		coalesce:  opts.Coalesce,
		logger:    opts.Logger.WithComponent("pipeline"),
	}, nil
}

// Detection is the output of the detect and merge stages.
type Detection struct {
	Text    *detection.Result `json:"text"`
	Objects *detection.Result `json:"objects"`

	// Regions is text regions followed by object regions.
	Regions []imaging.Region `json:"regions"`
}

// Sensitive reports whether either detector found something.
func (d *Detection) Sensitive() bool {
	return d.Text.Sensitive || d.Objects.Sensitive
}

// Outcome is the result of anonymizing one image.
type Outcome struct {
	Image  string `json:"image"`
	Width  int    `json:"width"`
	Height int    `json:"height"`

	Detection

	Metrics   metrics.Metrics `json:"metrics"`
	Artifacts *ArtifactSet    `json:"artifacts,omitempty"`
	Duration  time.Duration   `json:"duration_ns"`

	Blurred *image.NRGBA `json:"-"`
	Heatmap *image.NRGBA `json:"-"`
}

// OCR returns the OCR engine the pipeline was built with, or nil.
func (p *Pipeline) OCR() ocr.Engine {
	return p.ocr
}

// Detect runs both detectors and merges their regions.
// The name is only used to label errors.
func (p *Pipeline) Detect(img image.Image, name string) (*Detection, error) {
	text, err := p.text.Detect(img)
	if err != nil {
		return nil, stageError(StageDetect, name, detectKind(err), err)
	}
	if text == nil {
		text = detection.Empty()
	}

	objects := detection.Empty()
	if p.objects != nil {
		objects, err = p.objects.Detect(img)
		if err != nil {
			return nil, stageError(StageDetect, name, detectKind(err), err)
		}
		if objects == nil {
			objects = detection.Empty()
		}
	}

	regions := detection.Merge(text, objects)
	if p.coalesce {
		regions = imaging.Coalesce(regions)
	}

	return &Detection{Text: text, Objects: objects, Regions: regions}, nil
}

// Run performs every in-memory stage for one image and returns the redacted
// and heatmap images along with fresh metrics. Nothing is written.
func (p *Pipeline) Run(img image.Image, name string) (*Outcome, error) {
	start := time.Now()
	log := p.logger.WithImage(name)

	det, err := p.Detect(img, name)
	if err != nil {
		return nil, err
	}
	log.Debug("detection complete",
		zap.Int("text_regions", len(det.Text.Regions)),
		zap.Int("object_regions", len(det.Objects.Regions)),
		zap.Int("regions", len(det.Regions)),
	)

	blurred, err := p.blurrer.Apply(img, det.Regions)
	if err != nil {
		kind := ErrDetectionFailed
		if errors.Is(err, imaging.ErrRegionBounds) {
			kind = ErrRegionBounds
		}
		return nil, stageError(StageRedact, name, kind, err)
	}

	heat := p.heatmap.Render(img, det.Regions)

	ms := p.estimator.Estimate(det.Text.Sensitive, det.Objects.Sensitive)

	b := img.Bounds()
	return &Outcome{
		Image:     name,
		Width:     b.Dx(),
		Height:    b.Dy(),
		Detection: *det,
		Metrics:   ms,
		Duration:  time.Since(start),
		Blurred:   blurred,
		Heatmap:   heat,
	}, nil
}

// Anonymize runs the pipeline on an in-memory image and writes its artifacts
// to outDir under name.
func (p *Pipeline) Anonymize(img image.Image, name, outDir string) (*Outcome, error) {
	start := time.Now()

	out, err := p.Run(img, name)
	if err != nil {
		p.logger.WithImage(name).Warn("anonymization failed", zap.Error(err))
		return nil, err
	}

	set, err := p.writer.Write(outDir, name, img, out.Blurred, out.Heatmap, out.Metrics)
	if err != nil {
		serr := stageError(StageWrite, name, ErrArtifactWrite, err)
		p.logger.WithImage(name).Warn("anonymization failed", zap.Error(serr))
		return nil, serr
	}
	out.Artifacts = set
	out.Duration = time.Since(start)

	p.logger.WithImage(name).Info("image anonymized",
		zap.Int("regions", len(out.Regions)),
		zap.Bool("text_found", out.Text.Sensitive),
		zap.Bool("objects_found", out.Objects.Sensitive),
		zap.String("output_dir", outDir),
		zap.Duration("duration", out.Duration),
	)

	return out, nil
}

// Process loads the image at path and anonymizes it into outDir. Artifacts
// are named after the file's base name, extension included.
func (p *Pipeline) Process(path, outDir string) (*Outcome, error) {
	name := filepath.Base(path)

	img, err := imaging.Load(path)
	if err != nil {
		serr := stageError(StageLoad, name, ErrImageDecode, err)
		p.logger.WithImage(name).Warn("anonymization failed", zap.Error(serr))
		return nil, serr
	}

	return p.Anonymize(img, name, outDir)
}

// Close releases detector resources such as the object model.
func (p *Pipeline) Close() error {
	var err error
	for _, c := range p.closers {
		err = multierr.Append(err, c())
	}
	p.closers = nil
	if err != nil {
		return fmt.Errorf("failed to close pipeline: %w", err)
	}
	return nil
}

func detectKind(err error) error {
	if errors.Is(err, detection.ErrUnavailable) {
		return ErrDetectorUnavailable
	}
	return ErrDetectionFailed
}
