package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/ironsheep/mosaic-mcp/internal/imaging"
	"github.com/ironsheep/mosaic-mcp/internal/mosaic"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "mosaic_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// errInvalidArgs marks argument errors so they map to -32602 instead of a
// tool failure.
var errInvalidArgs = errors.New("invalid arguments")

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Malformed arguments return -32602; tool execution errors return -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		if errors.Is(err, errInvalidArgs) {
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		log.Printf("Tool %s failed: %v", params.Name, err)
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_cache_evict":
		return s.handleImageCacheEvict(args)

	// Mosaic Detection
	case "mosaic_detect":
		return s.handleMosaicDetect(args)
	case "mosaic_overlay":
		return s.handleMosaicOverlay(args)
	case "mosaic_edge_map":
		return s.handleMosaicEdgeMap(args)
	case "mosaic_pattern":
		return s.handleMosaicPattern(args)

	// Visual Verification
	case "image_grid_overlay":
		return s.handleImageGridOverlay(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   e,
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments, tagging failures as invalid params.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return nil
}

func requirePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: path is required", errInvalidArgs)
	}
	return nil
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// CacheEvictResult is the image_cache_evict response.
type CacheEvictResult struct {
	// Evicted is the path dropped from the cache, or "all" after a clear.
	Evicted string `json:"evicted"`

	// Cached is the number of images still cached.
	Cached int `json:"cached"`
}

func (s *Server) handleImageCacheEvict(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	evicted := a.Path
	if a.Path == "" {
		s.cache.Clear()
		evicted = "all"
	} else {
		s.cache.Evict(a.Path)
	}
	return &CacheEvictResult{Evicted: evicted, Cached: s.cache.Len()}, nil
}

// === Region Handling ===

// regionArgs selects part of an image: explicit corners or a named quadrant.
type regionArgs struct {
	X1       *int   `json:"x1"`
	Y1       *int   `json:"y1"`
	X2       *int   `json:"x2"`
	Y2       *int   `json:"y2"`
	Quadrant string `json:"quadrant"`
}

// RegionResult reports the rectangle a tool worked on, in source image
// coordinates.
type RegionResult struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// loadRegion loads path and crops it to the requested region. Without a
// region the whole image is returned and the RegionResult is nil.
//
// # Errors
//
// These wrap errInvalidArgs and surface as -32602:
//   - a missing path
//   - only some of x1, y1, x2, y2 given, or corners together with a quadrant
//   - an unknown quadrant name
//   - a rectangle that is empty or leaves the image
//
// Load failures are returned unwrapped and become tool errors (-32000).
func (s *Server) loadRegion(path string, r regionArgs) (image.Image, *RegionResult, error) {
	if err := requirePath(path); err != nil {
		return nil, nil, err
	}

	corners := 0
	for _, v := range []*int{r.X1, r.Y1, r.X2, r.Y2} {
		if v != nil {
			corners++
		}
	}
	if corners != 0 && corners != 4 {
		return nil, nil, fmt.Errorf("%w: region needs all of x1, y1, x2, y2", errInvalidArgs)
	}
	if corners == 4 && r.Quadrant != "" {
		return nil, nil, fmt.Errorf("%w: use either x1/y1/x2/y2 or quadrant, not both", errInvalidArgs)
	}

	img, err := s.cache.Load(path)
	if err != nil {
		return nil, nil, err
	}

	var reg RegionResult
	switch {
	case corners == 4:
		reg = RegionResult{*r.X1, *r.Y1, *r.X2, *r.Y2}
	case r.Quadrant != "":
		b := img.Bounds()
		x1, y1, x2, y2, err := imaging.QuadrantBounds(r.Quadrant, b.Dx(), b.Dy())
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
		}
		reg = RegionResult{x1, y1, x2, y2}
	default:
		return img, nil, nil
	}

	cropped, err := imaging.CropRegion(img, reg.X1, reg.Y1, reg.X2, reg.Y2)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return cropped, &reg, nil
}

// === Mosaic Detection Handlers ===

type mosaicDetectArgs struct {
	Path              string `json:"path"`
	IncludeCandidates bool   `json:"include_candidates"`
	regionArgs
}

// DetectResult is the mosaic_detect response.
type DetectResult struct {
	Path   string        `json:"path"`
	Region *RegionResult `json:"region,omitempty"`

	// MatchesBySize maps each tested block size to its match count.
	MatchesBySize map[int]int `json:"matches_by_size,omitempty"`

	*mosaic.Report
}

func (s *Server) handleMosaicDetect(args json.RawMessage) (interface{}, error) {
	var a mosaicDetectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, region, err := s.loadRegion(a.Path, a.regionArgs)
	if err != nil {
		return nil, err
	}

	report := s.detector.Analyze(mosaic.FromImage(img))
	if !a.IncludeCandidates {
		report.Candidates = nil
	}

	result := &DetectResult{Path: a.Path, Region: region, Report: report}
	if report.Status != mosaic.StatusInvalid {
		p := s.detector.Params
		result.MatchesBySize = make(map[int]int)
		for m := p.MinMaskSize(); m <= p.MaxMaskSize(); m++ {
			result.MatchesBySize[m] = report.CountFor(m)
		}
	}
	return result, nil
}

type mosaicOverlayArgs struct {
	Path  string `json:"path"`
	Color string `json:"color"`
	regionArgs
}

// OverlayResult is the mosaic_overlay response.
type OverlayResult struct {
	*imaging.EncodedImage
	Resolution   int `json:"resolution"`
	TotalMatches int `json:"total_matches"`
}

func (s *Server) handleMosaicOverlay(args json.RawMessage) (interface{}, error) {
	var a mosaicOverlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Color == "" {
		a.Color = "#000000"
	}
	fill, err := imaging.ParseColor(a.Color, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	img, _, err := s.loadRegion(a.Path, a.regionArgs)
	if err != nil {
		return nil, err
	}

	d := *s.detector
	d.CollectMatches = true
	report := d.Analyze(mosaic.FromImage(img))
	if report.Status == mosaic.StatusInvalid {
		return nil, fmt.Errorf("mosaic detection failed: %s", report.Reason)
	}

	b := img.Bounds()
	overlay := mosaic.BuildOverlay(b.Dx(), b.Dy(), report.Candidates, fill)
	enc, err := imaging.EncodePNG(overlay)
	if err != nil {
		return nil, err
	}
	return &OverlayResult{
		EncodedImage: enc,
		Resolution:   report.Resolution,
		TotalMatches: report.TotalMatches,
	}, nil
}

type mosaicEdgeMapArgs struct {
	Path string `json:"path"`
	regionArgs
}

func (s *Server) handleMosaicEdgeMap(args json.RawMessage) (interface{}, error) {
	var a mosaicEdgeMapArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, _, err := s.loadRegion(a.Path, a.regionArgs)
	if err != nil {
		return nil, err
	}

	edges, err := s.detector.EdgeMap(mosaic.FromImage(img))
	if err != nil {
		return nil, fmt.Errorf("edge map failed: %w", err)
	}
	return imaging.EncodePNG(edges)
}

type mosaicPatternArgs struct {
	MaskSize int `json:"mask_size"`
}

// PatternResult is the mosaic_pattern response.
type PatternResult struct {
	*imaging.EncodedImage
	MaskSize   int `json:"mask_size"`
	LinePeriod int `json:"line_period"`
}

func (s *Server) handleMosaicPattern(args json.RawMessage) (interface{}, error) {
	var a mosaicPatternArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p := s.detector.Params
	if a.MaskSize < p.MinMaskSize() || a.MaskSize > p.MaxMaskSize() {
		return nil, fmt.Errorf("%w: mask_size %d outside [%d, %d]",
			errInvalidArgs, a.MaskSize, p.MinMaskSize(), p.MaxMaskSize())
	}

	enc, err := imaging.EncodePNG(mosaic.RenderPattern(a.MaskSize))
	if err != nil {
		return nil, err
	}
	return &PatternResult{
		EncodedImage: enc,
		MaskSize:     a.MaskSize,
		LinePeriod:   mosaic.LinePeriod(a.MaskSize),
	}, nil
}

// === Visual Verification Handlers ===

type imageGridOverlayArgs struct {
	Path            string  `json:"path"`
	GridSpacing     int     `json:"grid_spacing"`
	OffsetX         int     `json:"offset_x"`
	OffsetY         int     `json:"offset_y"`
	ShowCoordinates bool    `json:"show_coordinates"`
	Color           string  `json:"color"`
	Opacity         float64 `json:"opacity"`
}

// GridOverlayResult is the image_grid_overlay response.
type GridOverlayResult struct {
	*imaging.EncodedImage
	GridSpacing int `json:"grid_spacing"`

	// Detected is set when the spacing came from mosaic detection.
	Detected bool `json:"detected,omitempty"`
}

func (s *Server) handleImageGridOverlay(args json.RawMessage) (interface{}, error) {
	var a imageGridOverlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.GridSpacing < 0 {
		return nil, fmt.Errorf("%w: grid_spacing must not be negative", errInvalidArgs)
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	detected := false
	if a.GridSpacing == 0 {
		report := s.detector.Analyze(mosaic.FromImage(img))
		if report.Status != mosaic.StatusDetected {
			return nil, fmt.Errorf("no mosaic grid detected (%s); pass grid_spacing explicitly", report.Status)
		}
		a.GridSpacing = report.LinePeriod
		detected = true
	}

	grid, err := imaging.GridOverlay(img, imaging.GridOptions{
		Spacing:         a.GridSpacing,
		Offset:          image.Pt(a.OffsetX, a.OffsetY),
		Color:           a.Color,
		Opacity:         a.Opacity,
		ShowCoordinates: a.ShowCoordinates,
	})
	if err != nil {
		return nil, err
	}
	enc, err := imaging.EncodePNG(grid)
	if err != nil {
		return nil, err
	}
	return &GridOverlayResult{EncodedImage: enc, GridSpacing: a.GridSpacing, Detected: detected}, nil
}
