package imaging

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"golang.org/x/image/bmp"
)

// createTestImage writes a solid width x height PNG into a per-test temp
// directory and returns its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	return writeTestImage(t, "test-image.png", solidImage(width, height, c))
}

func writeTestImage(t *testing.T, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func solidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 100, 80, color.RGBA{255, 0, 0, 255})

	img1, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	bounds := img1.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 80 {
		t.Errorf("unexpected dimensions: got %dx%d, want 100x80", bounds.Dx(), bounds.Dy())
	}

	img2, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load did not return cached image")
	}
	if cache.Len() != 1 {
		t.Errorf("Len: got %d, want 1", cache.Len())
	}
}

func TestImageCache_Load_BMP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "block.bmp")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if err := bmp.Encode(f, solidImage(12, 9, color.RGBA{10, 20, 30, 255})); err != nil {
		t.Fatalf("failed to encode bmp: %v", err)
	}
	f.Close()

	img, err := NewImageCache().Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 9 {
		t.Errorf("unexpected dimensions: got %dx%d, want 12x9", b.Dx(), b.Dy())
	}
}

func TestImageCache_Load_Errors(t *testing.T) {
	invalid := filepath.Join(t.TempDir(), "invalid.png")
	if err := os.WriteFile(invalid, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"non-existent", "/nonexistent/path/to/image.png"},
		{"invalid data", invalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewImageCache()
			if _, err := cache.Load(tt.path); err == nil {
				t.Error("Load should fail")
			}
			if cache.Len() != 0 {
				t.Error("failed load should not be cached")
			}
		})
	}
}

func TestImageCache_Load_NotExist(t *testing.T) {
	_, err := NewImageCache().Load(filepath.Join(t.TempDir(), "missing.png"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load error %v should wrap fs.ErrNotExist", err)
	}
}

func TestImageCache_EvictRereads(t *testing.T) {
	cache := NewImageCache()
	path := writeTestImage(t, "changing.png", solidImage(10, 10, color.Black))
	if _, err := cache.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to rewrite file: %v", err)
	}
	if err := png.Encode(f, solidImage(30, 20, color.White)); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	f.Close()

	img, _ := cache.Load(path)
	if img.Bounds().Dx() != 10 {
		t.Errorf("cached load: width %d, want stale 10", img.Bounds().Dx())
	}

	cache.Evict(path)
	img, err = cache.Load(path)
	if err != nil {
		t.Fatalf("Load after Evict failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 30 || b.Dy() != 20 {
		t.Errorf("reloaded size %dx%d, want 30x20", b.Dx(), b.Dy())
	}
}

func TestImageCache_ClearAndEvict(t *testing.T) {
	cache := NewImageCache()
	a := createTestImage(t, 20, 20, color.RGBA{0, 255, 0, 255})
	b := writeTestImage(t, "other.png", solidImage(10, 10, color.Black))

	for _, p := range []string{a, b} {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}

	cache.Evict(a)
	cache.mu.RLock()
	_, exists := cache.images[a]
	cache.mu.RUnlock()
	if exists {
		t.Error("Evict did not remove image from cache")
	}
	if cache.Len() != 1 {
		t.Errorf("Len after Evict: got %d, want 1", cache.Len())
	}

	cache.Evict("/nonexistent/path")
	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Clear did not empty cache: %d images remain", cache.Len())
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 50, 50, color.RGBA{128, 128, 128, 255})

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(imgPath); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
}

func TestLoadImageInfo(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 200, 150, color.RGBA{255, 128, 64, 255})

	info, err := LoadImageInfo(cache, imgPath)
	if err != nil {
		t.Fatalf("LoadImageInfo failed: %v", err)
	}
	if info.Width != 200 || info.Height != 150 {
		t.Errorf("dimensions: got %dx%d, want 200x150", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
	if info.ColorDepth != "8-bit" {
		t.Errorf("ColorDepth: got %s, want 8-bit", info.ColorDepth)
	}
	if info.FileSizeBytes <= 0 {
		t.Error("FileSizeBytes should be positive")
	}
}

func TestLoadImageInfo_FormatDetection(t *testing.T) {
	tests := []struct {
		ext    string
		format string
	}{
		{".png", "png"},
		{".jpg", "jpeg"},
		{".jpeg", "jpeg"},
		{".gif", "gif"},
		{".bmp", "bmp"},
		{".tif", "tiff"},
		{".webp", "webp"},
		{".xyz", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			// PNG content regardless of extension; decoding sniffs the data.
			path := writeTestImage(t, "test-format"+tt.ext, image.NewRGBA(image.Rect(0, 0, 10, 10)))

			info, err := LoadImageInfo(NewImageCache(), path)
			if err != nil {
				t.Fatalf("LoadImageInfo failed: %v", err)
			}
			if info.Format != tt.format {
				t.Errorf("Format for %s: got %s, want %s", tt.ext, info.Format, tt.format)
			}
		})
	}
}

func TestGetDimensions(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 300, 200, color.RGBA{100, 100, 100, 255})

	dims, err := GetDimensions(cache, imgPath)
	if err != nil {
		t.Fatalf("GetDimensions failed: %v", err)
	}
	if dims.Width != 300 || dims.Height != 200 {
		t.Errorf("dimensions: got %dx%d, want 300x200", dims.Width, dims.Height)
	}

	if _, err := GetDimensions(cache, "/nonexistent/image.png"); err == nil {
		t.Error("GetDimensions should fail for non-existent file")
	}
}
