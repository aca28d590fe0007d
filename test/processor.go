package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	fakeProcessorEnv = "PIXELFLOW_FAKE_PROCESSOR"
	directivePrefix  = "FAKE:"
)

// RunFakeProcessorIfRequested must be the first call in a package's TestMain.
// The test binary then doubles as the external processor: when re-executed by
// the code under test it behaves like the real executable and exits.
func RunFakeProcessorIfRequested() {
	if os.Getenv(fakeProcessorEnv) == "1" {
		os.Exit(runFakeProcessor(os.Args[1:]))
	}
	if err := os.Setenv(fakeProcessorEnv, "1"); err != nil {
		panic(err)
	}
}

// FakeProcessorPath is the executable to configure as the processor path.
func FakeProcessorPath() string {
	path, err := os.Executable()
	if err != nil {
		return os.Args[0]
	}
	return path
}

// WithDirective appends a control trailer understood by the fake processor.
// Image decoders stop at the end-of-image marker, so the result still sniffs
// and decodes as the original image. Supported directives, separated by commas:
//
//	exit=N             exit with status N without output
//	garbage            print a non-JSON line
//	missing-field      omit speedup from the output
//	no-output          print metadata but do not write the output file
//	empty-output       print metadata but leave the output file empty
//	text-output        print metadata but write plain text as the output file
//	fail-on=OP/MODE    exit 1 only for that combination
//	size=WxH           report these dimensions instead of the real ones
//	sleep=DURATION     sleep before doing anything
func WithDirective(directive string, img []byte) []byte {
	out := append([]byte{}, img...)
	return append(out, []byte("\n"+directivePrefix+directive)...)
}

// JPEG returns an encoded width x height gradient.
func JPEG(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / width), G: uint8(y * 255 / height), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// DecodeSize returns the dimensions of an encoded image.
func DecodeSize(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

type directives map[string]string

func parseDirectives(data []byte) directives {
	d := directives{}
	i := bytes.LastIndex(data, []byte("\n"+directivePrefix))
	if i < 0 {
		return d
	}
	for _, part := range strings.Split(string(data[i+1+len(directivePrefix):]), ",") {
		key, value, _ := strings.Cut(strings.TrimSpace(part), "=")
		d[key] = value
	}
	return d
}

func runFakeProcessor(args []string) int {
	if len(args) != 4 {
		fmt.Fprintf(os.Stderr, "Usage: processor <input_image> <operation> <output_image> <mode>\n")
		return 1
	}
	inputPath, operation, outputPath, mode := args[0], args[1], args[2], args[3]

	data, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading image: %v\n", err)
		return 1
	}
	d := parseDirectives(data)

	if v, ok := d["sleep"]; ok {
		if dur, err := time.ParseDuration(v); err == nil {
			time.Sleep(dur)
		}
	}
	if v, ok := d["exit"]; ok {
		code, _ := strconv.Atoi(v)
		fmt.Fprintf(os.Stderr, "forced exit %d\n", code)
		return code
	}
	if d["fail-on"] == operation+"/"+mode {
		fmt.Fprintf(os.Stderr, "forced failure for %s/%s\n", operation, mode)
		return 1
	}
	if _, ok := d["garbage"]; ok {
		fmt.Println("Segmentation fault (core dumped)")
		return 0
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading image\n")
		return 1
	}

	parallel := mode == "parallel"
	start := time.Now()
	out, err := apply(src, operation, parallel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	elapsed := seconds(time.Since(start))

	if _, ok := d["text-output"]; ok {
		if err = os.WriteFile(outputPath, []byte("processed pixels went here\n"), 0o600); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	} else if _, ok := d["empty-output"]; ok {
		if err = os.WriteFile(outputPath, nil, 0o600); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	} else if _, ok := d["no-output"]; !ok {
		f, err := os.Create(outputPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if err = jpeg.Encode(f, out, &jpeg.Options{Quality: 100}); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		_ = f.Close()
	}

	speedup := 0.0
	if parallel {
		serialStart := time.Now()
		_, _ = apply(src, operation, false)
		speedup = seconds(time.Since(serialStart)) / elapsed
	}

	width, height := out.Bounds().Dx(), out.Bounds().Dy()
	if v, ok := d["size"]; ok {
		fmt.Sscanf(v, "%dx%d", &width, &height)
	}

	result := map[string]any{
		"width":          width,
		"height":         height,
		"channels":       3,
		"processingTime": elapsed,
		"speedup":        speedup,
	}
	if _, ok := d["missing-field"]; ok {
		delete(result, "speedup")
	}
	line, _ := json.Marshal(result)
	fmt.Println(string(line))
	return 0
}

func seconds(d time.Duration) float64 {
	if s := d.Seconds(); s > 0 {
		return s
	}
	return 1e-9
}

func apply(src image.Image, operation string, parallel bool) (*image.RGBA, error) {
	b := src.Bounds()
	in := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(in, in.Bounds(), src, b.Min, draw.Src)
	w, h := b.Dx(), b.Dy()

	var out *image.RGBA
	var row func(y int)
	switch operation {
	case "flip":
		out = image.NewRGBA(image.Rect(0, 0, w, h))
		row = func(y int) {
			for x := 0; x < w; x++ {
				out.SetRGBA(w-x-1, y, in.RGBAAt(x, y))
			}
		}
	case "rotate":
		out = image.NewRGBA(image.Rect(0, 0, h, w))
		row = func(y int) {
			for x := 0; x < w; x++ {
				out.SetRGBA(h-y-1, x, in.RGBAAt(x, y))
			}
		}
	case "grayscale":
		out = image.NewRGBA(image.Rect(0, 0, w, h))
		row = func(y int) {
			for x := 0; x < w; x++ {
				c := in.RGBAAt(x, y)
				g := uint8(0.2989*float64(c.R) + 0.5870*float64(c.G) + 0.1140*float64(c.B))
				out.SetRGBA(x, y, color.RGBA{R: g, G: g, B: g, A: c.A})
			}
		}
	default:
		return nil, fmt.Errorf("unknown operation: %s", operation)
	}

	if !parallel {
		for y := 0; y < h; y++ {
			row(y)
		}
		return out, nil
	}

	var wg sync.WaitGroup
	for y := 0; y < h; y++ {
		wg.Add(1)
		go func(y int) {
			defer wg.Done()
			row(y)
		}(y)
	}
	wg.Wait()
	return out, nil
}
