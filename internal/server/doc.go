// Package server implements the MCP (Model Context Protocol) server for
// mosaic detection tools.
//
// This package provides a JSON-RPC 2.0 server that exposes mosaic block-size
// detection and its diagnostics through the MCP protocol, so an MCP client
// can ask how coarsely an image was pixelated and check the answer visually.
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
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//   - image_cache_evict: Drop one cached image, or all of them
//
// Mosaic Detection:
//   - mosaic_detect: Estimate the mosaic block size, with the per-size match counts
//   - mosaic_overlay: Render every template match as an opaque rectangle
//   - mosaic_edge_map: Return the preprocessed edge map templates are matched against
//   - mosaic_pattern: Render the synthetic grid template for one mask size
//
// Visual Verification:
//   - image_grid_overlay: Draw a grid, by default at the detected line period
//
// The detection tools accept an optional region, either as x1/y1/x2/y2 or
// as a named quadrant, and work on that crop only.
//
// # Image Caching
//
// The server maintains an in-memory cache of loaded images. Images are cached
// by path and reused across multiple tool calls until image_cache_evict
// drops them.
//
// # Error Handling
//
// Tool errors are returned as JSON-RPC error responses with:
//   - code: -32602 for bad arguments, -32000 for tool execution failure,
//     -32700 for unparsable requests
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	srv := server.New(cfg)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
