package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/linefield-mcp/internal/config"
	"github.com/ironsheep/linefield-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("linefield-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("linefield-mcp - MCP server for line drawings and their fields")
			fmt.Println()
			fmt.Println("Usage: linefield-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  LINEFIELD_LOG_LEVEL=debug              Enable debug logging")
			fmt.Println("  LINEFIELD_ANGLE_TOLERANCE_DEG=4        Duplicate angle tolerance")
			fmt.Println("  LINEFIELD_DISTANCE_TOLERANCE=10        Duplicate distance tolerance")
			fmt.Println("  LINEFIELD_SNAP_TOLERANCE=10            Endpoint snapping tolerance")
			fmt.Println("  LINEFIELD_EXCLUSION_RADIUS=10          Field exclusion radius")
			fmt.Println("  LINEFIELD_RESOLUTION=41x41x21          Field grid resolution")
			fmt.Println("  LINEFIELD_HOUGH_THRESHOLD=50           Minimum Hough votes")
			fmt.Println("  LINEFIELD_MIN_LENGTH=10                Minimum segment length")
			fmt.Println("  LINEFIELD_MAX_GAP=2                    Largest bridged gap")
			fmt.Println("  LINEFIELD_MAX_LINES=100                Maximum detected segments")
			fmt.Println("  LINEFIELD_PREPROCESS=threshold         threshold or canny")
			fmt.Println("  LINEFIELD_FOREGROUND_LEVEL=128         Ink threshold (0-255)")
			fmt.Println("  LINEFIELD_PREVIEW_SIZE=800             Maximum preview size")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := log.New(io.Discard, "", 0)
	if cfg.Debug() {
		logger = log.New(os.Stderr, "pipeline: ", log.Ldate|log.Ltime|log.Lmsgprefix)
		log.Printf("Linefield MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, logger)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Server error: %v", err)
	}
}
