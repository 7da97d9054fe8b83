package main

import (
	"fmt"
	"runtime"

	"github.com/esimov/tropic"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tropic",
	Short: "Max-plus convolution, distance transforms and landmark detection maps.",
	Long:  fmt.Sprintf(helpBanner, Version),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

var distanceCmd = &cobra.Command{
	Use:   "distance",
	Short: "Distance of every pixel to the nearest foreground pixel of the thresholded image.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, tropic.ModeDistance, nil)
	},
}

var signedCmd = &cobra.Command{
	Use:   "signed",
	Short: "Signed distance to the boundary of the thresholded image (negative inside).",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, tropic.ModeSigned, nil)
	},
}

var edgesCmd = &cobra.Command{
	Use:   "edges",
	Short: "Distance of every pixel to the nearest Sobel edge.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, tropic.ModeEdges, nil)
	},
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Face detection map pre-convolved with a Gaussian displacement noise.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, tropic.ModeDetect, func(p *tropic.Processor) error {
			fd, err := tropic.LoadFaceDetector(GetString(cmd, "cascade"))
			if err != nil {
				return err
			}
			fd.MinSize = GetInt(cmd, "min-size")
			fd.Angle = GetFloat(cmd, "angle")
			fd.MinScore = float32(GetFloat(cmd, "min-score"))
			p.FaceDetector = fd
			return nil
		})
	},
}

// run builds the processor from the command flags and executes it.
func run(cmd *cobra.Command, mode tropic.Mode, setup func(*tropic.Processor) error) error {
	var cm tropic.Colormap
	if name := GetString(cmd, "colormap"); name != "" {
		var err error
		if cm, err = tropic.ParseColormap(name); err != nil {
			return err
		}
	}

	proc := &tropic.Processor{
		Mode:       mode,
		BlurRadius: GetInt(cmd, "blur"),
		MaxSize:    GetInt(cmd, "max-size"),
		Colormap:   cm,
		Workers:    GetInt(cmd, "threads"),
		Debug:      GetFlag(cmd, "debug"),
	}
	if cmd.Flags().Lookup("threshold") != nil {
		proc.Threshold = GetFloat(cmd, "threshold")
		proc.Invert = GetFlag(cmd, "invert")
	}
	if mode == tropic.ModeDetect {
		proc.Sigma = GetFloat(cmd, "sigma")
		proc.FalsePositive = GetFloat(cmd, "fp")
		proc.FalseNegative = GetFloat(cmd, "fn")
	}
	if setup != nil {
		if err := setup(proc); err != nil {
			return err
		}
	}

	return proc.Execute(&tropic.Ops{
		Src:      GetString(cmd, "in"),
		Dst:      GetString(cmd, "out"),
		PipeName: pipeName,
		Workers:  GetInt(cmd, "conc"),
	})
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("in", "i", pipeName, "Source image, directory or URL")
	pf.StringP("out", "o", pipeName, "Destination image or directory")
	pf.Int("blur", 0, "Blur radius applied before computing the field")
	pf.Int("max-size", 0, "Downscale the source so that it fits in a square of this size")
	pf.String("colormap", "", "Colormap: gray, heat or diverging (default depends on the command)")
	pf.Int("threads", runtime.NumCPU(), "Number of rows or columns convolved concurrently")
	pf.Int("conc", runtime.NumCPU(), "Number of files to process concurrently")
	pf.Bool("debug", false, "Draw the field over the source image")
	pf.BoolP("verbose", "v", false, "Verbose logging")

	for _, c := range []*cobra.Command{distanceCmd, signedCmd} {
		c.Flags().Float64("threshold", 127, "Luminance threshold separating foreground from background")
		c.Flags().Bool("invert", false, "Use the dark pixels as foreground")
	}
	edgesCmd.Flags().Float64("threshold", 50, "Gradient magnitude threshold for edge pixels")
	edgesCmd.Flags().Bool("invert", false, "Measure the distance to the non edge pixels")

	detectCmd.Flags().StringP("cascade", "c", "", "Pigo face cascade classifier")
	detectCmd.Flags().Float64("sigma", 2, "Standard deviation of the landmark displacement noise in pixels")
	detectCmd.Flags().Float64("fp", 0, "Detector false positive rate")
	detectCmd.Flags().Float64("fn", 0, "Detector false negative rate")
	detectCmd.Flags().Float64("angle", 0, "Plane rotated faces angle")
	detectCmd.Flags().Int("min-size", 20, "Minimum face size in pixels")
	detectCmd.Flags().Float64("min-score", 0, "Minimum detection score")
	_ = detectCmd.MarkFlagRequired("cascade")

	rootCmd.AddCommand(distanceCmd, signedCmd, edgesCmd, detectCmd)
}
