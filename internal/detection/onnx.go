package detection

import (
	"fmt"
	"image"
	"os"
	"sync"

	imgproc "github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
)

// defaultInputSize is used when the model declares dynamic spatial dimensions.
const defaultInputSize = 640

// ONNXOptions configures an ONNX object detection model.
type ONNXOptions struct {
	// ModelPath is the path to a YOLOv8-style .onnx export.
	ModelPath string

	// SharedLibraryPath points at libonnxruntime. Empty falls back to the
	// ONNXRUNTIME_SHARED_LIB environment variable, then the library default.
	SharedLibraryPath string

	// Confidence is the minimum class score for a candidate box.
	Confidence float64

	// IoU is the overlap threshold for non-max suppression.
	IoU float64
}

// ONNXModel implements Model using ONNX Runtime (via yalue/onnxruntime_go).
//
// A single session is shared by all callers; ONNX Runtime allows concurrent
// Run calls on one session.
type ONNXModel struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	inWidth    int
	inHeight   int
	conf       float64
	iou        float64
	logger     *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// NewONNXModel loads the model and prepares an inference session.
//
// Failures wrap ErrUnavailable: a model that cannot be loaded is fatal at
// startup, not per image.
func NewONNXModel(opts ONNXOptions, logger *zap.Logger) (*ONNXModel, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Confidence <= 0 {
		opts.Confidence = DefaultConfidence
	}
	if opts.IoU <= 0 {
		opts.IoU = DefaultIoU
	}

	if _, err := os.Stat(opts.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: model %s: %w", ErrUnavailable, opts.ModelPath, err)
	}

	if err := acquireEnvironment(opts.SharedLibraryPath); err != nil {
		return nil, fmt.Errorf("%w: onnx runtime init: %w", ErrUnavailable, err)
	}
	model, err := newONNXModel(opts, logger)
	if err != nil {
		releaseEnvironment()
		return nil, err
	}
	return model, nil
}

func newONNXModel(opts ONNXOptions, logger *zap.Logger) (*ONNXModel, error) {
	inputsInfo, outputsInfo, err := ort.GetInputOutputInfo(opts.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: inspect model io: %w", ErrUnavailable, err)
	}
	if len(inputsInfo) == 0 || len(outputsInfo) == 0 {
		return nil, fmt.Errorf("%w: model %s declares no inputs or outputs", ErrUnavailable, opts.ModelPath)
	}

	in := inputsInfo[0]
	inHeight, inWidth := defaultInputSize, defaultInputSize
	if dims := in.Dimensions; len(dims) == 4 {
		if dims[2] > 0 {
			inHeight = int(dims[2])
		}
		if dims[3] > 0 {
			inWidth = int(dims[3])
		}
	}

	sess, err := ort.NewDynamicAdvancedSession(opts.ModelPath, []string{in.Name}, []string{outputsInfo[0].Name}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: session creation: %w", ErrUnavailable, err)
	}

	logger.Info("ONNX object model ready",
		zap.String("model", opts.ModelPath),
		zap.String("input", in.Name),
		zap.String("output", outputsInfo[0].Name),
		zap.Int("input_width", inWidth),
		zap.Int("input_height", inHeight),
	)

	return &ONNXModel{
		session:    sess,
		inputName:  in.Name,
		outputName: outputsInfo[0].Name,
		inWidth:    inWidth,
		inHeight:   inHeight,
		conf:       opts.Confidence,
		iou:        opts.IoU,
		logger:     logger,
	}, nil
}

// Predict resizes the image to the model input, runs one inference pass and
// decodes the boxes back into source-image coordinates.
func (m *ONNXModel) Predict(img image.Image) ([]Box, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, fmt.Errorf("%w: model closed", ErrUnavailable)
	}

	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("cannot run inference on an empty image")
	}

	input, err := ort.NewTensor(ort.NewShape(1, 3, int64(m.inHeight), int64(m.inWidth)), toCHW(img, m.inWidth, m.inHeight))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer input.Destroy()

	// One output; let ORT allocate it
	outputs := make([]ort.Value, 1)
	if err := m.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("onnx run failed: %w", err)
	}
	if outputs[0] == nil {
		return nil, fmt.Errorf("onnx returned no outputs")
	}
	defer outputs[0].Destroy()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type (want float32 tensor)")
	}

	scaleX := float64(b.Dx()) / float64(m.inWidth)
	scaleY := float64(b.Dy()) / float64(m.inHeight)

	boxes, err := decodeYOLO(out.GetData(), out.GetShape(), m.conf, m.iou, scaleX, scaleY)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("object inference complete", zap.Int("boxes", len(boxes)))
	return boxes, nil
}

// Close releases the session and the ONNX Runtime environment.
func (m *ONNXModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	if err := m.session.Destroy(); err != nil {
		releaseEnvironment()
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return releaseEnvironment()
}

// The ONNX Runtime environment is process-wide. Models share it and the last
// one closed tears it down, so a replacement model can be loaded before the
// old one is closed.
var (
	envMu   sync.Mutex
	envRefs int
)

func acquireEnvironment(sharedLibraryPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 && !ort.IsInitialized() {
		// Allow the shared library path to come from the environment.
		if sharedLibraryPath != "" {
			ort.SetSharedLibraryPath(sharedLibraryPath)
		} else if shlib := os.Getenv("ONNXRUNTIME_SHARED_LIB"); shlib != "" {
			ort.SetSharedLibraryPath(shlib)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return err
		}
	}
	envRefs++
	return nil
}

func releaseEnvironment() error {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 {
		return nil
	}
	envRefs--
	if envRefs == 0 {
		return ort.DestroyEnvironment()
	}
	return nil
}

// toCHW resizes img to width x height and lays it out as normalized RGB planes.
func toCHW(img image.Image, width, height int) []float32 {
	resized := imgproc.Resize(img, width, height, imgproc.Linear)

	plane := width * height
	data := make([]float32, 3*plane)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := resized.PixOffset(x, y)
			p := y*width + x
			data[p] = float32(resized.Pix[i]) / 255
			data[plane+p] = float32(resized.Pix[i+1]) / 255
			data[2*plane+p] = float32(resized.Pix[i+2]) / 255
		}
	}
	return data
}
