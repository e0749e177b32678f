package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name: "anonymize_image",
			Description: "Detect addresses and license plates in an image, blur them, and write the original copy, " +
				"blurred image, heatmap, and anonymization report to the output directory. " +
				"Returns the flagged regions, metrics, and artifact paths.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Optional destination directory. Defaults to the server's configured output directory.",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "detect_regions",
			Description: "Run text and object detection without redacting. Returns the merged regions in redaction order and, optionally, a PNG preview with the regions outlined.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"preview": map[string]interface{}{
						"type":        "boolean",
						"description": "Include a base64 PNG with each region outlined. Default false",
						"default":     false,
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Outline color as hex (e.g., '#00FF00'). Default '#FF0000'",
						"default":     "#FF0000",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "ocr_text",
			Description: "Extract the raw text the OCR engine reads from an image, as seen by the text detector, and list which sensitive patterns it matches.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "list_images",
			Description: "List the PNG and JPEG images directly inside a directory with their dimensions and file sizes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dir": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the directory",
					},
				},
				"required": []string{"dir"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
