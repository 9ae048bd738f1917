package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperty is the schema of the "path" argument shared by most tools.
func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

// withRegion adds the optional region arguments to a tool's properties.
// A region is either x1,y1,x2,y2 or a named quadrant, never both.
func withRegion(props map[string]interface{}) map[string]interface{} {
	props["x1"] = map[string]interface{}{
		"type":        "integer",
		"description": "Optional region left edge X coordinate (0-based)",
	}
	props["y1"] = map[string]interface{}{
		"type":        "integer",
		"description": "Optional region top edge Y coordinate (0-based)",
	}
	props["x2"] = map[string]interface{}{
		"type":        "integer",
		"description": "Optional region right edge X coordinate (exclusive)",
	}
	props["y2"] = map[string]interface{}{
		"type":        "integer",
		"description": "Optional region bottom edge Y coordinate (exclusive)",
	}
	props["quadrant"] = map[string]interface{}{
		"type":        "string",
		"enum":        []string{"top-left", "top-right", "bottom-left", "bottom-right", "top-half", "bottom-half", "left-half", "right-half", "center"},
		"description": "Optional named region, instead of x1/y1/x2/y2",
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and file size. The image stays cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_cache_evict",
			Description: "Drop a cached image so the next call rereads it from disk, e.g. after the file changed. Without a path the whole cache is cleared.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Image path to evict. Omit to clear every cached image",
					},
				},
			},
		},

		// Mosaic Detection
		{
			Name: "mosaic_detect",
			Description: "Estimate the block size of a pixelation (mosaic) pattern in an image. " +
				"Returns the detected size (4-27), 26 when no reliable grid was found, or -1 for unusable input, " +
				"together with the match count per block size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withRegion(map[string]interface{}{
					"path": pathProperty(),
					"include_candidates": map[string]interface{}{
						"type":        "boolean",
						"description": "Include per-block-size template details (default false)",
						"default":     false,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "mosaic_overlay",
			Description: "Render every grid-template match as an opaque rectangle on a transparent canvas the size of the image (or region). Returns base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withRegion(map[string]interface{}{
					"path": pathProperty(),
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Rectangle colour as #RRGGBB (default #000000)",
						"default":     "#000000",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "mosaic_edge_map",
			Description: "Return the preprocessed edge map templates are matched against: inverted Canny edges, lightly blurred. Returns base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withRegion(map[string]interface{}{
					"path": pathProperty(),
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "mosaic_pattern",
			Description: "Render the synthetic grid template for one mask size (block size). Returns base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"mask_size": map[string]interface{}{
						"type":        "integer",
						"description": "Mask size to render, within the configured range (4-27 by default)",
					},
				},
				"required": []string{"mask_size"},
			},
		},

		// Visual Verification
		{
			Name:        "image_grid_overlay",
			Description: "Draw a grid over the image to check a block size visually. Without grid_spacing the detected block size is used.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"grid_spacing": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels between grid lines. 0 or omitted runs mosaic detection and uses its result",
					},
					"offset_x": map[string]interface{}{
						"type":        "integer",
						"description": "Horizontal grid offset in pixels (default 0)",
					},
					"offset_y": map[string]interface{}{
						"type":        "integer",
						"description": "Vertical grid offset in pixels (default 0)",
					},
					"show_coordinates": map[string]interface{}{
						"type":        "boolean",
						"description": "Label intersections with coordinates (default false)",
						"default":     false,
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Grid line colour as #RRGGBB (default #FF0000)",
						"default":     "#FF0000",
					},
					"opacity": map[string]interface{}{
						"type":        "number",
						"description": "Grid line opacity in (0, 1] (default 0.5)",
						"default":     0.5,
					},
				},
				"required": []string{"path"},
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
