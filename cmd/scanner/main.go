/**
 * PhotoScan scanner CLI - entry point
 *
 * Runs the capture -> recognition -> extraction pipeline over a file-backed
 * camera: an image file (or directory of image files) stands in for the
 * device camera, Tesseract provides recognition, and copy actions surface on
 * stdout. This is the composition root; all pipeline semantics live in the
 * internal packages.
 */

package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/adverant/nexus/photoscan/internal/capture"
	"github.com/adverant/nexus/photoscan/internal/config"
	"github.com/adverant/nexus/photoscan/internal/logging"
	"github.com/adverant/nexus/photoscan/internal/recognize"
	"github.com/adverant/nexus/photoscan/internal/workflow"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	app := &cli.App{
		Name:    "scanner",
		Usage:   "Capture a photo, recognize its text, and extract number tokens",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Usage: "Load environment from this file before reading configuration"},
		},
		Before: func(c *cli.Context) error {
			if path := c.String("env-file"); path != "" {
				if err := godotenv.Load(path); err != nil {
					return fmt.Errorf("load env file: %w", err)
				}
			} else if err := godotenv.Load(); err == nil {
				log.Printf("Loaded environment from .env")
			}
			return nil
		},
		Commands: []*cli.Command{
			scanCmd(),
			devicesCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func scanCmd() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Run the full pipeline over an image file or directory",
		ArgsUsage: "",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "Image file or directory standing in for the camera"},
			&cli.StringFlag{Name: "lang", Aliases: []string{"l"}, Usage: "Recognition language (overrides SCANNER_LANGUAGE)"},
			&cli.BoolFlag{Name: "show-progress", Usage: "Print recognition progress events"},
			&cli.Float64Flag{Name: "lat", Usage: "Fixed latitude to attach to the scan"},
			&cli.Float64Flag{Name: "lon", Usage: "Fixed longitude to attach to the scan"},
			&cli.BoolFlag{Name: "copy", Usage: "Copy the recognized text (printed to stdout)"},
		},
		Action: runScan,
	}
}

func runScan(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	language := cfg.Language
	if c.String("lang") != "" {
		language = c.String("lang")
	}

	level := logging.ParseLevel(cfg.LogLevel)
	cameraLog := logging.NewLoggerWithOutput("camera", level, os.Stderr)
	workflowLog := logging.NewLoggerWithOutput("workflow", level, os.Stderr)

	devices, err := capture.NewFileDevices(c.String("input"))
	if err != nil {
		return err
	}

	camera := capture.NewSession(devices, capture.NewImageSink(), cameraLog)

	var locator workflow.Locator
	if c.IsSet("lat") && c.IsSet("lon") {
		locator = workflow.FixedLocator{Pos: workflow.Position{
			Latitude:  c.Float64("lat"),
			Longitude: c.Float64("lon"),
		}}
	}

	wf := workflow.New(workflow.Config{
		Language: language,
		Constraints: capture.Constraints{
			Facing:      capture.Facing(cfg.CameraFacing),
			IdealWidth:  cfg.CameraIdealWidth,
			IdealHeight: cfg.CameraIdealHeight,
		},
		LocationTimeout: time.Duration(cfg.LocationTimeoutMs) * time.Millisecond,
		MinTokenRun:     cfg.MinTokenRun,
	}, camera, recognize.TesseractFactory(recognize.TesseractConfig{
		DataPath: cfg.TesseractDataPath,
	}), locator, workflow.WriterClipboard{Out: c.App.Writer}, nil, workflowLog)
	defer wf.Close()

	if c.Bool("show-progress") {
		done := make(chan struct{})
		defer close(done)
		go func() {
			for {
				select {
				case p := <-wf.Progress():
					fmt.Fprintf(os.Stderr, "  ... %s %d%% (%s)\n", p.Phase, p.Percent, p.Message)
				case <-done:
					return
				}
			}
		}()
	}

	if err := wf.StartCamera(c.Context); err != nil {
		return exitWithStage(wf)
	}
	if err := wf.CapturePhoto(); err != nil {
		return exitWithStage(wf)
	}
	if err := wf.Process(c.Context); err != nil {
		return exitWithStage(wf)
	}

	snap := wf.Snapshot()
	fmt.Fprintf(c.App.Writer, "Confidence: %.1f%%\n", snap.Result.Confidence)
	fmt.Fprintf(c.App.Writer, "Language:   %s\n", snap.Result.Language)
	if snap.Location != nil {
		fmt.Fprintf(c.App.Writer, "Location:   %.6f, %.6f\n", snap.Location.Latitude, snap.Location.Longitude)
	}
	fmt.Fprintln(c.App.Writer, "---")
	fmt.Fprintln(c.App.Writer, snap.Result.Text)
	if len(snap.Tokens) > 0 {
		fmt.Fprintln(c.App.Writer, "---")
		fmt.Fprintln(c.App.Writer, "Extracted numbers:")
		for i, tok := range snap.Tokens {
			fmt.Fprintf(c.App.Writer, "  %d. %s\n", i+1, tok)
		}
	}

	if c.Bool("copy") {
		if err := wf.CopyText(c.Context); err != nil {
			fmt.Fprintln(os.Stderr, "Warning: clipboard write failed:", err)
		}
	}

	return nil
}

// exitWithStage reports the workflow's user-facing error message with a
// non-zero exit code
func exitWithStage(wf *workflow.Workflow) error {
	snap := wf.Snapshot()
	if snap.Stage == workflow.StageError && snap.ErrorMessage != "" {
		return cli.Exit(snap.ErrorMessage, 1)
	}
	return cli.Exit("scan failed", 1)
}

func devicesCmd() *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "List enumerable video inputs for an input path",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "Image file or directory standing in for the camera"},
		},
		Action: func(c *cli.Context) error {
			devices, err := capture.NewFileDevices(c.String("input"))
			if err != nil {
				return err
			}
			infos, err := devices.EnumerateVideoInputs(c.Context)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(c.App.Writer, "No video inputs found")
				return nil
			}
			for _, info := range infos {
				fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\n", info.ID, info.Label, info.Facing)
			}
			return nil
		},
	}
}
