package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pixelflow/pkg/model"
)

func ImageCommands(root *rootOpts) *cobra.Command {
	imageCmd := &cobra.Command{
		Use:     "image",
		Short:   "Runs the external processor on local images",
		Example: "pixelflow image process --image in.jpg --operation rotate --mode parallel --output out.jpg",
	}

	imageCmd.AddCommand(processImageCommand(root), demoImageCommand(root))
	return imageCmd
}

type processImageOpts struct {
	sourceImage string
	outputImage string
	operation   string
	mode        string
}

func processImageCommand(root *rootOpts) *cobra.Command {
	opts := processImageOpts{}

	command := &cobra.Command{
		Use:     "process",
		Example: "pixelflow image process --image in.jpg --operation grayscale --mode serial --output out.jpg",
		Short:   "Apply one operation to an image",
		RunE: func(cmd *cobra.Command, args []string) error {
			operation, err := model.ParseOperation(opts.operation)
			if err != nil {
				return err
			}
			mode, err := model.ParseMode(opts.mode)
			if err != nil {
				return err
			}
			imageBytes, err := os.ReadFile(opts.sourceImage)
			if err != nil {
				return err
			}

			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			orch, err := buildOrchestrator(cfg)
			if err != nil {
				return err
			}

			result, err := orch.Process(cmd.Context(), model.ProcessingRequest{ImageBytes: imageBytes, Operation: operation, Mode: mode})
			if err != nil {
				return err
			}
			if err = os.WriteFile(opts.outputImage, result.OutputBytes, 0o644); err != nil {
				return err
			}

			printProcessingResult(cmd.OutOrStdout(), opts.outputImage, result)
			return nil
		},
	}

	command.Flags().StringVar(&opts.sourceImage, "image", "", "Image to process")
	command.Flags().StringVar(&opts.outputImage, "output", "", "Where to write the processed image")
	command.Flags().StringVar(&opts.operation, "operation", "", "Operation to apply. Options are flip, rotate, grayscale")
	command.Flags().StringVar(&opts.mode, "mode", string(model.ModeSerial), "Execution mode. Options are serial, parallel")

	MarkFlagsRequired(command, "image", "output", "operation")

	return command
}

func demoImageCommand(root *rootOpts) *cobra.Command {
	var sourceImage string
	var quiet bool

	command := &cobra.Command{
		Use:     "demo",
		Example: "pixelflow image demo --image in.jpg",
		Short:   "Benchmark every operation in serial and parallel mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			imageBytes, err := os.ReadFile(sourceImage)
			if err != nil {
				return err
			}
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			orch, err := buildOrchestrator(cfg)
			if err != nil {
				return err
			}

			s := NewSpinner()
			s.Writer = cmd.ErrOrStderr()
			s.Prefix = "Running benchmark "
			if !quiet {
				s.Start()
			}
			report, err := orch.Demo(cmd.Context(), imageBytes, func(done, total int, result *model.ProcessingResult) {
				s.Lock()
				s.Prefix = fmt.Sprintf("Finished %s/%s (%d/%d) ", result.Operation, result.Mode, done, total)
				s.Unlock()
			})
			if !quiet {
				s.Stop()
			}
			if err != nil {
				return err
			}

			printDemoReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	command.Flags().StringVar(&sourceImage, "image", "", "Image to benchmark with")
	command.Flags().BoolVar(&quiet, "quiet", false, "Do not show progress")

	MarkFlagsRequired(command, "image")

	return command
}

func printProcessingResult(w io.Writer, outputPath string, result *model.ProcessingResult) {
	_, _ = fmt.Fprintf(w, "Wrote %s (%s, %s)\n", outputPath, result.Metadata.ImageSize(), humanize.Bytes(uint64(len(result.OutputBytes))))
	_, _ = fmt.Fprintf(w, "Processing time: %s\n", seconds(result.Metadata.ProcessingTime))
	if result.Mode == model.ModeParallel {
		_, _ = fmt.Fprintf(w, "Speedup: %.2fx\n", result.Metadata.Speedup)
	}
}

func printDemoReport(w io.Writer, report *model.DemoReport) {
	_, _ = fmt.Fprintf(w, "Image size: %s\n", report.ImageSize)
	_, _ = fmt.Fprintf(w, "%-10s %14s %14s %8s\n", "OPERATION", "SERIAL", "PARALLEL", "SPEEDUP")
	for _, c := range report.Results {
		_, _ = fmt.Fprintf(w, "%-10s %14s %14s %7.2fx\n", c.Operation, seconds(c.SerialTime), seconds(c.ParallelTime), c.Speedup)
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second)).Round(time.Microsecond)
}
