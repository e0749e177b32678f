package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ironsheep/image-anonymizer/internal/detection"
	"github.com/ironsheep/image-anonymizer/internal/imaging"
	"github.com/ironsheep/image-anonymizer/internal/ocr"
	"github.com/ironsheep/image-anonymizer/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "anonymize_image").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool call failed", zap.String("tool", params.Name), zap.Error(err))
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// The pipeline read lock is held for the whole call so a configuration reload
// never closes a pipeline that is still in use.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.pipeline == nil {
		return nil, fmt.Errorf("%w: server is shutting down", pipeline.ErrDetectorUnavailable)
	}

	switch name {
	case "anonymize_image":
		return s.handleAnonymizeImage(args)
	case "detect_regions":
		return s.handleDetectRegions(args)
	case "ocr_text":
		return s.handleOCRText(args)
	case "list_images":
		return s.handleListImages(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// A marshal error yields an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

type pathArgs struct {
	Path string `json:"path"`
}

func parseArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return errors.New("missing arguments")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// === Anonymization Handlers ===

type anonymizeImageArgs struct {
	Path      string `json:"path"`
	OutputDir string `json:"output_dir"`
}

func (s *Server) handleAnonymizeImage(args json.RawMessage) (interface{}, error) {
	var a anonymizeImageArgs
	if err := parseArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	if a.OutputDir == "" {
		a.OutputDir = s.outputDir
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrImageDecode, err)
	}

	return s.pipeline.Anonymize(img, filepath.Base(a.Path), a.OutputDir)
}

type detectRegionsArgs struct {
	Path    string `json:"path"`
	Preview bool   `json:"preview"`
	Color   string `json:"color"`
}

// DetectRegionsResult is the detect_regions tool output.
type DetectRegionsResult struct {
	Image        string                 `json:"image"`
	Width        int                    `json:"width"`
	Height       int                    `json:"height"`
	Regions      []imaging.Region       `json:"regions"`
	TextFound    bool                   `json:"text_found"`
	ObjectsFound bool                   `json:"objects_found"`
	Preview      *imaging.OutlineResult `json:"preview,omitempty"`
}

func (s *Server) handleDetectRegions(args json.RawMessage) (interface{}, error) {
	var a detectRegionsArgs
	if err := parseArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	if a.Color == "" {
		a.Color = imaging.DefaultIndicatorColor
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrImageDecode, err)
	}

	name := filepath.Base(a.Path)
	det, err := s.pipeline.Detect(img, name)
	if err != nil {
		return nil, err
	}

	result := &DetectRegionsResult{
		Image:        name,
		Width:        img.Bounds().Dx(),
		Height:       img.Bounds().Dy(),
		Regions:      det.Regions,
		TextFound:    det.Text.Sensitive,
		ObjectsFound: det.Objects.Sensitive,
	}

	if a.Preview {
		result.Preview, err = imaging.Outline(img, det.Regions, a.Color)
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// OCRTextResult is the ocr_text tool output.
type OCRTextResult struct {
	Text       string         `json:"text"`
	Lines      []ocr.TextLine `json:"lines,omitempty"`
	Categories []string       `json:"matched_categories"`
}

func (s *Server) handleOCRText(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := parseArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}

	engine := s.pipeline.OCR()
	if engine == nil {
		return nil, fmt.Errorf("%w: no OCR engine configured", pipeline.ErrDetectorUnavailable)
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrImageDecode, err)
	}

	res, err := engine.Recognize(img)
	if err != nil {
		return nil, err
	}

	result := &OCRTextResult{
		Text:       res.Text,
		Lines:      res.Lines,
		Categories: []string{},
	}
	for _, p := range detection.DefaultPatterns() {
		if p.Matches(res.Text) {
			result.Categories = append(result.Categories, p.Category)
		}
	}

	return result, nil
}

type listImagesArgs struct {
	Dir string `json:"dir"`
}

// ListImagesResult is the list_images tool output.
type ListImagesResult struct {
	Directory string              `json:"directory"`
	Count     int                 `json:"count"`
	Images    []imaging.ImageInfo `json:"images"`
	Skipped   []string            `json:"skipped,omitempty"`
}

func (s *Server) handleListImages(args json.RawMessage) (interface{}, error) {
	var a listImagesArgs
	if err := parseArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Dir == "" {
		return nil, errors.New("dir is required")
	}

	paths, err := imaging.ListImages(a.Dir)
	if err != nil {
		return nil, err
	}

	result := &ListImagesResult{
		Directory: a.Dir,
		Images:    make([]imaging.ImageInfo, 0, len(paths)),
	}
	for _, path := range paths {
		info, err := imaging.LoadImageInfo(path)
		if err != nil {
			// Unreadable files are reported, not fatal
			result.Skipped = append(result.Skipped, filepath.Base(path))
			continue
		}
		result.Images = append(result.Images, *info)
	}
	result.Count = len(result.Images)

	return result, nil
}
