package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/ironsheep/mosaic-mcp/internal/config"
	"github.com/ironsheep/mosaic-mcp/internal/imaging"
	"github.com/ironsheep/mosaic-mcp/internal/mosaic"
	"github.com/ironsheep/mosaic-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("mosaic-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage(os.Stdout)
			return
		case "detect":
			os.Exit(runDetect(os.Args[2:], os.Stdout))
		}
	}

	fs := pflag.NewFlagSet("mosaic-mcp", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "YAML file with detector settings")
	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	setupLogging()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if cfg.Debug() {
		log.Printf("Mosaic MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	if Version != "dev" {
		server.Version = Version
	}
	srv := server.New(cfg)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "mosaic-mcp - MCP server for mosaic (pixelation) block-size detection")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  mosaic-mcp [--config file]                   Run the MCP server on stdin/stdout")
	fmt.Fprintln(w, "  mosaic-mcp detect [options] <image>...       Print the block size of each image")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  --version, -v    Print version information")
	fmt.Fprintln(w, "  --help, -h       Print this help message")
	fmt.Fprintln(w, "  --config, -c     YAML file with detector settings")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Detect options:")
	fmt.Fprintln(w, "  --overlay, -o    Write the match overlay of a single image to this PNG")
	fmt.Fprintln(w, "  --quiet, -q      Suppress detector logging")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintf(w, "  %s=debug    Enable debug logging\n", config.EnvLogLevel)
	fmt.Fprintf(w, "  %s=N          Bound concurrent template matching\n", config.EnvWorkers)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Results: 4-27 is the detected block size, 26 means inconclusive, -1 invalid input.")
}

func setupLogging() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
}

// loadConfig layers an optional file and the environment over the defaults.
func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runDetect implements the detect subcommand and returns the exit code.
// Every image is processed; the code is 1 if any of them was invalid.
func runDetect(args []string, out io.Writer) int {
	fs := pflag.NewFlagSet("detect", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "YAML file with detector settings")
	overlayPath := fs.StringP("overlay", "o", "", "write the match overlay to this PNG")
	quiet := fs.BoolP("quiet", "q", false, "suppress detector logging")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	paths := fs.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "detect: no images given")
		return 2
	}
	if *overlayPath != "" && len(paths) > 1 {
		fmt.Fprintln(os.Stderr, "detect: --overlay needs exactly one image")
		return 2
	}

	setupLogging()
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "detect: %v\n", err)
		return 2
	}

	d := &mosaic.Detector{
		Params:         cfg.Params(),
		Verbose:        cfg.Debug(),
		CollectMatches: *overlayPath != "",
	}
	if *quiet {
		d.Logger = log.New(io.Discard, "", 0)
	}

	cache := imaging.NewImageCache()
	code := 0
	for _, path := range paths {
		img, err := cache.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "detect: %v\n", err)
			code = 1
			continue
		}

		report := d.Analyze(mosaic.FromImage(img))
		if report.Status == mosaic.StatusInvalid {
			code = 1
		}
		if len(paths) == 1 {
			fmt.Fprintln(out, report.Resolution)
		} else {
			fmt.Fprintf(out, "%s: %d\n", path, report.Resolution)
		}

		if *overlayPath != "" && report.Status != mosaic.StatusInvalid {
			b := img.Bounds()
			overlay := mosaic.BuildOverlay(b.Dx(), b.Dy(), report.Candidates, nil)
			if err := imaging.Save(overlay, *overlayPath); err != nil {
				fmt.Fprintf(os.Stderr, "detect: %v\n", err)
				code = 1
			}
		}
		// Each file is analysed once; a long batch must not hold every decoded image.
		cache.Evict(path)
	}
	return code
}
