// Command pixelscale reports the field of view and the pixel scale at a set
// of distances for intrinsics saved by checkercam.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"checkercam/calibration"
)

var (
	cameraMatrixPath = flag.String("camera-matrix", calibration.DefaultCameraMatrixFile, "Camera matrix file")
	distCoeffsPath   = flag.String("dist-coeffs", calibration.DefaultDistCoeffsFile, "Distortion coefficients file")
	frameWidth       = flag.Int("width", 0, "Frame width in pixels (default twice the principal point x)")
	frameHeight      = flag.Int("height", 0, "Frame height in pixels (default twice the principal point y)")
	distanceList     = flag.String("distances", "10,20,40,80", "Comma-separated distances in board units")
	jsonPath         = flag.String("json", "pixel-scale.json", "Results file (empty disables)")
)

func parseDistances(s string) ([]float64, error) {
	var out []float64
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		d, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("bad distance %q: %v", f, err)
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no distances given")
	}
	return out, nil
}

func displayScaleTable(rows []calibration.ScaleRow) {
	fmt.Printf("📋 PIXEL SCALE TABLE\n")
	fmt.Printf("┌──────────┬─────────────────┬─────────────────┬───────────────┐\n")
	fmt.Printf("│ Distance │  Pixels/unit X  │  Pixels/unit Y  │ Visible width │\n")
	fmt.Printf("├──────────┼─────────────────┼─────────────────┼───────────────┤\n")
	for _, r := range rows {
		fmt.Printf("│ %8.2f │ %15.3f │ %15.3f │ %13.3f │\n", r.Distance, r.PixelsPerX, r.PixelsPerY, r.VisibleWidth)
	}
	fmt.Printf("└──────────┴─────────────────┴─────────────────┴───────────────┘\n")
}

func main() {
	flag.Parse()

	fmt.Printf("📏 PIXEL SCALE REPORT\n")
	fmt.Printf("====================\n\n")

	store := calibration.NewFileStore(*cameraMatrixPath, *distCoeffsPath)
	in, err := store.Load()
	if err != nil {
		fmt.Printf("❌ Unable to read intrinsics: %v\n", err)
		os.Exit(1)
	}
	distances, err := parseDistances(*distanceList)
	if err != nil {
		fmt.Printf("❌ Configuration Error: %v\n", err)
		os.Exit(2)
	}

	size := image.Point{X: *frameWidth, Y: *frameHeight}
	if size.X == 0 {
		size.X = int(math.Round(2 * in.Cx()))
	}
	if size.Y == 0 {
		size.Y = int(math.Round(2 * in.Cy()))
	}

	fmt.Printf("📷 Intrinsics: %s\n", in)
	fmt.Printf("📏 Frame: %dx%d pixels\n", size.X, size.Y)
	hfov, vfov, err := in.FieldOfView(size)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("🔭 Field of view: %.2f° x %.2f°\n\n", hfov, vfov)

	rows, err := in.ScaleTable(size, distances)
	if err != nil {
		fmt.Printf("❌ Configuration Error: %v\n", err)
		os.Exit(2)
	}
	displayScaleTable(rows)

	if *jsonPath == "" {
		return
	}
	results := map[string]interface{}{
		"report_type":      "pixel_scale",
		"timestamp":        time.Now(),
		"frame_dimensions": map[string]int{"width": size.X, "height": size.Y},
		"camera_matrix":    *cameraMatrixPath,
		"dist_coeffs":      *distCoeffsPath,
		"fov_degrees":      map[string]float64{"horizontal": hfov, "vertical": vfov},
		"scale":            rows,
	}
	jsonData, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		fmt.Printf("❌ failed to marshal results: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*jsonPath, jsonData, 0o644); err != nil {
		fmt.Printf("❌ failed to save results: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Results saved to: %s\n", *jsonPath)
}
