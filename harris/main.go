// Command harris circles strong Harris corners in a live feed and saves
// numbered snapshots on request.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	"checkercam/capture"
	"checkercam/controls"
	"checkercam/corners"
	"checkercam/detection"
	"checkercam/logging"
	"checkercam/overlay"
	"checkercam/pattern"
	"checkercam/snapshot"
)

var (
	device      = flag.Int("device", 0, "Camera device index used when neither -input nor -image is given")
	inputStream = flag.String("input", "", "Video file or stream URL")
	imagePath   = flag.String("image", "", "Still image re-read every frame")
	blockSize   = flag.Int("block-size", 2, "Neighbourhood size summed for the corner response")
	harrisK     = flag.Float64("k", 0.04, "Harris free parameter")
	threshold   = flag.Float64("threshold", 200, "Normalised response (0-255) a pixel must exceed to be circled")
	snapshotDir = flag.String("snapshot-dir", "", "Directory for harris000.png, harris001.png, ... (default current directory)")
	keyBindings = flag.String("keys", "", "Key overrides as action=key pairs\n\t\tExample: -keys=snapshot=x")
	debugMode   = flag.Bool("debug", false, "Enable verbose debug output")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "\n📐 harris - Harris corner detection on a live feed\n")
	fmt.Fprintln(flag.CommandLine.Output(), "================================================================")
	fmt.Fprintln(flag.CommandLine.Output(), "\n💡 USAGE EXAMPLES:")
	fmt.Fprintln(flag.CommandLine.Output(), "  Circle corners from the default camera:")
	fmt.Fprintln(flag.CommandLine.Output(), "    ./harris")
	fmt.Fprintln(flag.CommandLine.Output(), "  Only keep the strongest corners of a still image:")
	fmt.Fprintln(flag.CommandLine.Output(), "    ./harris -image=data/checkerboard.png -threshold=230")
	fmt.Fprintln(flag.CommandLine.Output(), "  Save snapshots into a directory:")
	fmt.Fprintln(flag.CommandLine.Output(), "    ./harris -snapshot-dir=shots")
	fmt.Fprintln(flag.CommandLine.Output(), "\n⌨️  KEYS (defaults):")
	fmt.Fprintf(flag.CommandLine.Output(), "    %s\n", controls.DefaultHarrisKeys())
	fmt.Fprintln(flag.CommandLine.Output(), "\n🔧 FLAGS:")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	os.Exit(run())
}

func run() int {
	logging.Init("harris", *debugMode)
	defer logging.Sync()
	capture.SetDebugFunction(logging.DebugMsg)
	detection.SetDebugFunction(logging.DebugMsgVerbose)

	params := corners.DefaultParams()
	params.BlockSize = *blockSize
	params.K = *harrisK
	params.Threshold = *threshold
	if *threshold < 0 || *threshold > 255 {
		fmt.Printf("❌ Configuration Error: -threshold must be within 0-255, got %g\n", *threshold)
		return 2
	}
	keys, err := controls.ParseKeyMap(*keyBindings, controls.DefaultHarrisKeys())
	if err != nil {
		fmt.Printf("❌ Configuration Error: invalid -keys: %v\n", err)
		return 2
	}
	if *snapshotDir != "" {
		if err := os.MkdirAll(*snapshotDir, 0o755); err != nil {
			fmt.Printf("❌ Configuration Error: failed to create directory '%s': %v\n", *snapshotDir, err)
			return 2
		}
	}
	detector, err := detection.NewHarrisDetector(params)
	if err != nil {
		fmt.Printf("❌ Configuration Error: %v\n", err)
		return 2
	}

	if err := detection.Check(detector); err != nil {
		logging.ErrorMsg("HARRIS", err.Error())
	}

	var src capture.Source
	switch {
	case *imagePath != "":
		src, err = capture.OpenImage(*imagePath)
	case *inputStream != "":
		src, err = capture.OpenStream(*inputStream)
	default:
		src, err = capture.OpenCamera(*device)
	}
	if err != nil {
		_ = detector.Close()
		fmt.Printf("Unable to open video device: %v\n", err)
		return -1
	}

	window := gocv.NewWindow("Harris corners")
	defer func() {
		if err := multierr.Combine(detector.Close(), window.Close(), src.Close()); err != nil {
			logging.ErrorMsg("SYSTEM", fmt.Sprintf("error releasing resources: %v", err))
		}
	}()

	// a board is not used here; the renderer only circles points
	renderer := overlay.NewRenderer(pattern.DefaultBoard())
	seq, err := snapshot.NewSequence(*snapshotDir, "harris%03d.png")
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return 2
	}
	logging.DebugMsg("HARRIS", fmt.Sprintf("🚀 %s, keys %s", detector.Info(), keys))

	frame := gocv.NewMat()
	defer frame.Close()

	for {
		if !src.Read(&frame) || frame.Empty() {
			fmt.Println("frame is empty")
			break
		}

		res, err := detector.Detect(frame)
		if err != nil {
			logging.DebugMsgVerbose("HARRIS", fmt.Sprintf("detection failed: %v", err))
		} else {
			renderer.DrawHarrisCorners(&frame, res.Points)
		}

		window.IMShow(frame)
		switch keys.Lookup(window.WaitKey(10)) {
		case controls.Quit:
			fmt.Println("Terminating")
			return 0
		case controls.Snapshot:
			name := seq.Next()
			if err := capture.Save(name, frame); err != nil {
				logging.ErrorMsg("SNAPSHOT", err.Error())
				continue
			}
			fmt.Printf("Image written: %s\n", name)
		}
	}

	fmt.Println("Terminating")
	return 0
}
