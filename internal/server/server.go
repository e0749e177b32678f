package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/ironsheep/image-anonymizer/internal/imaging"
	"github.com/ironsheep/image-anonymizer/internal/logger"
	"github.com/ironsheep/image-anonymizer/internal/pipeline"
)

// ServerName is reported to clients during the initialize handshake.
const ServerName = "image-anonymizer"

// Server handles MCP protocol communication
type Server struct {
	mu       sync.RWMutex
	pipeline *pipeline.Pipeline

	cache     *imaging.ImageCache
	outputDir string
	version   string
	logger    *logger.Logger
}

// Options configures a Server.
type Options struct {
	// OutputDir is where anonymize_image writes artifacts unless the call names
	// its own directory.
	OutputDir string

	// Version is reported in serverInfo.
	Version string

	Logger *logger.Logger
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server around an anonymization pipeline.
func New(p *pipeline.Pipeline, opts Options) *Server {
	if opts.OutputDir == "" {
		opts.OutputDir = "output"
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Server{
		pipeline:  p,
		cache:     imaging.NewImageCache(),
		outputDir: opts.OutputDir,
		version:   opts.Version,
		logger:    opts.Logger.WithComponent("server"),
	}
}

// SetPipeline swaps in a new pipeline, for example after a configuration
// reload, and returns the previous one. It waits for in-flight tool calls,
// so the caller may close the returned pipeline immediately.
func (s *Server) SetPipeline(p *pipeline.Pipeline) *pipeline.Pipeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.pipeline
	s.pipeline = p
	return old
}

// SetOutputDir changes the default artifact directory for anonymize_image.
// Empty values are ignored.
func (s *Server) SetOutputDir(dir string) {
	if dir == "" {
		return
	}
	s.mu.Lock()
	s.outputDir = dir
	s.mu.Unlock()
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads newline-delimited JSON-RPC requests from r and writes responses to w
// until r is exhausted.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("failed to parse request", zap.Error(err))
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("failed to encode response", zap.Error(err))
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    ServerName,
				"version": s.version,
			},
		},
	}
}
