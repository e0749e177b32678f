// Package server implements the MCP (Model Context Protocol) server for the
// image anonymization pipeline.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - anonymize_image: Run the full pipeline and write the artifact set
//   - detect_regions: Report the regions that would be redacted, with an optional outlined preview
//   - ocr_text: Show the raw OCR text and which sensitive patterns it matches
//   - list_images: Enumerate candidate images in a directory
//
// # Image Caching
//
// Images are cached by path and reused across tool calls, so running
// detect_regions and then anonymize_image on the same file decodes it once.
// The cache persists for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string, which names the failing stage and image
//
// # Usage
//
//	p, err := pipeline.Build(cfg, log)
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	srv := server.New(p, server.Options{OutputDir: cfg.Output.Dir, Logger: log})
//	if err := srv.Run(); err != nil {
//	    return err
//	}
package server
