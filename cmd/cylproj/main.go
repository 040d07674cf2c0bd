// Command cylproj reprojects a rectilinear video onto a cylinder:
//
//	cylproj FOCAL_LENGTH INPUT_FILENAME OUTPUT_FILENAME
//
// FOCAL_LENGTH is the 35mm-equivalent focal length the footage was shot at.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/framewright/cylproj/internal/infra/config"
	"github.com/framewright/cylproj/internal/infra/ffmpeg"
	"github.com/framewright/cylproj/internal/infra/nona"
	"github.com/framewright/cylproj/internal/projection"
	"github.com/framewright/cylproj/internal/usecase"
	"github.com/framewright/cylproj/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) != 3 {
		fmt.Fprintln(stderr, "usage: cylproj FOCAL_LENGTH INPUT_FILENAME OUTPUT_FILENAME")
		return 1
	}

	focalLength, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		fmt.Fprintf(stderr, "invalid focal length %q\n", args[0])
		return 1
	}
	inputPath, outputPath := args[1], args[2]

	if err := projection.ValidateFocalLength(focalLength); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if err := projection.ValidateOutputName(outputPath); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if _, err := os.Stat(inputPath); err != nil {
		fmt.Fprintf(stderr, "cannot read input file %q: %v\n", inputPath, err)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "init logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workDir, err := os.MkdirTemp("", "cylproj-*")
	if err != nil {
		fmt.Fprintf(stderr, "create work directory: %v\n", err)
		return 1
	}

	reprojector := usecase.NewReprojector(
		ffmpeg.NewProber(log),
		ffmpeg.NewExtractor(log),
		nona.NewWarper(cfg.WarpConcurrency, log),
		ffmpeg.NewEncoder(log),
		log,
	)

	result, err := reprojector.Run(ctx, focalLength, inputPath, outputPath, workDir)
	if err != nil {
		fmt.Fprintf(stderr, "reprojection failed: %v\n", err)
		fmt.Fprintf(stderr, "intermediate frames kept in %s\n", workDir)
		return 1
	}

	fmt.Fprintf(stdout, "wrote %s: %dx%d, hfov %.1f°, %d frames\n",
		outputPath,
		result.Geometry.OutputWidth, result.Geometry.OutputHeight,
		result.Geometry.HFOV, result.FrameCount,
	)

	if confirm(stdin, stdout, fmt.Sprintf("remove intermediate frames in %s? [y/N] ", workDir)) {
		if err := os.RemoveAll(workDir); err != nil {
			fmt.Fprintf(stderr, "cleanup failed: %v\n", err)
		}
	} else {
		fmt.Fprintf(stdout, "intermediate frames kept in %s\n", workDir)
	}
	return 0
}

func confirm(stdin io.Reader, stdout io.Writer, prompt string) bool {
	fmt.Fprint(stdout, prompt)
	sc := bufio.NewScanner(stdin)
	if !sc.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(sc.Text()))
	return answer == "y" || answer == "yes"
}
