// renderer is a batch path tracer.  It renders a built-in scene or a scene
// file and writes the image as a PPM or PNG.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	rpprof "runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/golang/glog"

	"row-major/pathtracer/camera"
	"row-major/pathtracer/pixmap"
	"row-major/pathtracer/progress"
	"row-major/pathtracer/rendermetrics"
	"row-major/pathtracer/sampledb"
	"row-major/pathtracer/scene"
	"row-major/pathtracer/scenepack"
	"row-major/pathtracer/vmath/vec3"
)

// vecFlag parses "x,y,z".
type vecFlag struct {
	v vec3.T
}

func (f *vecFlag) String() string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%g,%g,%g", f.v[0], f.v[1], f.v[2])
}

func (f *vecFlag) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return fmt.Errorf("want three comma-separated numbers, got %q", s)
	}
	for i, p := range parts {
		x, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fmt.Errorf("while parsing component %d: %w", i, err)
		}
		f.v[i] = x
	}
	return nil
}

var (
	sceneName  = flag.String("scene", "three-spheres", fmt.Sprintf("Built-in scene to render, one of %v", scenepack.Names()))
	sceneFile  = flag.String("scene-file", "", "JSON scene file to render instead of a built-in scene")
	outputFile = flag.String("output-file", "output.ppm", "Output image file, or - for stdout")
	format     = flag.String("format", "ppm", "Output image format: ppm or png")

	checkpointFile = flag.String("checkpoint-file", "", "Sample database to save accumulated samples to")
	resume         = flag.Bool("resume", false, "Should we re-open the checkpoint file to add more samples?")

	imageWidth      = flag.Int("image-width", 0, "Image width in pixels (overrides the scene)")
	aspectRatio     = flag.Float64("aspect-ratio", 0, "Image width over height (overrides the scene)")
	samplesPerPixel = flag.Int("samples-per-pixel", 0, "Samples to collect for each pixel (overrides the scene)")
	maxDepth        = flag.Int("max-depth", 0, "Maximum number of bounces to consider (overrides the scene)")
	vfov            = flag.Float64("vfov", 0, "Vertical field of view in degrees (overrides the scene)")
	defocusAngle    = flag.Float64("defocus-angle", 0, "Aperture cone angle in degrees; 0 disables depth of field (overrides the scene)")
	focusDist       = flag.Float64("focus-dist", 0, "Distance to the plane of perfect focus (overrides the scene)")
	lookFrom        = &vecFlag{}
	lookAt          = &vecFlag{}
	vup             = &vecFlag{}

	environment = flag.String("environment", "", "Override the scene background: sky or banded")

	seed    = flag.Int64("seed", 1, "Base seed for the per-row random sources")
	workers = flag.Int("workers", runtime.NumCPU(), "Number of rows to render concurrently")

	debugListen = flag.String("debug-listen", "", "Server address:port for the progress and pprof endpoints.  Disabled if empty.")

	cpuprofile = flag.String("cpu-profile", "", "write cpu profile to `file`")
	memprofile = flag.String("mem-profile", "", "write memory profile to `file`")
)

func init() {
	flag.Var(lookFrom, "lookfrom", "Camera position as x,y,z (overrides the scene)")
	flag.Var(lookAt, "lookat", "Point the camera looks at as x,y,z (overrides the scene)")
	flag.Var(vup, "vup", "Camera-relative up direction as x,y,z (overrides the scene)")
}

func main() {
	flag.Parse()

	glog.CopyStandardLogTo("INFO")

	glog.Infof("flags:")
	flag.VisitAll(func(f *flag.Flag) {
		glog.Infof("%s: %v", f.Name, f.Value)
	})

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			glog.Fatalf("could not create CPU profile: %v", err)
		}
		defer f.Close()
		if err := rpprof.StartCPUProfile(f); err != nil {
			glog.Fatalf("could not start CPU profile: %v", err)
		}
		defer rpprof.StopCPUProfile()
	}

	if err := do(); err != nil {
		glog.Errorf("Error: %+v", err)
		glog.Flush()
		os.Exit(1)
	}

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			glog.Fatalf("could not create memory profile: %v", err)
		}
		defer f.Close()
		if err := rpprof.WriteHeapProfile(f); err != nil {
			glog.Fatalf("could not write memory profile: %v", err)
		}
	}

	glog.Flush()
}

func loadPreset() (*scenepack.Preset, error) {
	if *sceneFile != "" {
		return scenepack.LoadScene(*sceneFile)
	}
	return scenepack.Builtin(*sceneName)
}

// applyOverrides copies every camera flag given on the command line into cfg.
func applyOverrides(cfg camera.Config) camera.Config {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "image-width":
			cfg.ImageWidth = *imageWidth
		case "aspect-ratio":
			cfg.AspectRatio = *aspectRatio
		case "samples-per-pixel":
			cfg.SamplesPerPixel = *samplesPerPixel
		case "max-depth":
			cfg.MaxDepth = *maxDepth
		case "vfov":
			cfg.VFov = *vfov
		case "defocus-angle":
			cfg.DefocusAngle = *defocusAngle
		case "focus-dist":
			cfg.FocusDist = *focusDist
		case "lookfrom":
			cfg.LookFrom = lookFrom.v
		case "lookat":
			cfg.LookAt = lookAt.v
		case "vup":
			cfg.VUp = vup.v
		}
	})
	return cfg
}

func environmentOverride(name string) (scene.Environment, error) {
	switch name {
	case "sky":
		return scene.DefaultSky(), nil
	case "banded":
		return scene.BandedSky(), nil
	default:
		return nil, fmt.Errorf("unknown environment %q", name)
	}
}

func openSampleDB(frame *camera.Frame) (*sampledb.SampleDB, error) {
	if *resume {
		if *checkpointFile == "" {
			return nil, fmt.Errorf("resumption requested, but no checkpoint file given")
		}
		db, err := sampledb.ReadSampleDBFromFile(*checkpointFile)
		if err != nil {
			return nil, fmt.Errorf("resumption requested, but encountered error loading existing file: %w", err)
		}
		if db.RowSize != frame.ImageHeight {
			return nil, fmt.Errorf("resumption requested, but the existing sample database doesn't have the right number of rows (got %d, want %d)", db.RowSize, frame.ImageHeight)
		}
		if db.ColSize != frame.Config.ImageWidth {
			return nil, fmt.Errorf("resumption requested, but the existing sample database doesn't have the right number of columns (got %d, want %d)", db.ColSize, frame.Config.ImageWidth)
		}
		return db, nil
	}

	if *checkpointFile != "" {
		// Check that the checkpoint doesn't exist, to avoid blowing away hours
		// of render time.
		if _, err := os.Stat(*checkpointFile); err == nil {
			return nil, fmt.Errorf("resumption not requested, but checkpoint file exists")
		}
	}

	return sampledb.New(frame.ImageHeight, frame.Config.ImageWidth), nil
}

func writeImage(w io.Writer, db *sampledb.SampleDB) error {
	switch *format {
	case "ppm":
		return pixmap.WritePPM(w, db)
	case "png":
		return pixmap.WritePNG(w, db)
	default:
		return fmt.Errorf("unknown output format %q", *format)
	}
}

func writeOutput(db *sampledb.SampleDB) error {
	if *outputFile == "-" {
		return writeImage(os.Stdout, db)
	}

	out, err := os.Create(*outputFile)
	if err != nil {
		return fmt.Errorf("while opening output file: %w", err)
	}
	if err := writeImage(out, db); err != nil {
		out.Close()
		return fmt.Errorf("while writing image: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("while closing output file: %w", err)
	}
	return nil
}

func startDebugServer(tracker *progress.Tracker) *http.Server {
	debugServeMux := http.NewServeMux()
	debugServeMux.Handle("/progress", tracker)
	debugServeMux.HandleFunc("/debug/pprof/", pprof.Index)
	debugServeMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	debugServeMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	debugServeMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	debugServeMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	debugServer := &http.Server{
		Addr:    *debugListen,
		Handler: debugServeMux,

		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		if err := debugServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			glog.Errorf("Debug server died: %v", err)
		}
	}()

	return debugServer
}

func do() error {
	preset, err := loadPreset()
	if err != nil {
		return fmt.Errorf("while loading scene: %w", err)
	}

	if *environment != "" {
		env, err := environmentOverride(*environment)
		if err != nil {
			return err
		}
		preset.Scene.Environment = env
	}

	frame, err := camera.Prepare(applyOverrides(preset.Camera))
	if err != nil {
		return fmt.Errorf("while preparing camera: %w", err)
	}

	sampleDB, err := openSampleDB(frame)
	if err != nil {
		return err
	}

	metrics := rendermetrics.New(preset.Name)
	if err := metrics.RegisterMetrics(); err != nil {
		return fmt.Errorf("while registering metrics: %w", err)
	}
	defer metrics.UnregisterMetrics()

	tracker := progress.New(os.Stderr, preset.Name)

	if *debugListen != "" {
		debugServer := startDebugServer(tracker)
		defer debugServer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	options := &scene.RenderOptions{
		Workers: *workers,
		Seed:    *seed,
		Metrics: metrics,
	}

	renderErr := scene.RenderScene(ctx, preset.Scene, frame, options, sampleDB, tracker.Update)
	if renderErr == nil {
		tracker.Finish()
	}

	// An interrupted render still saves what it collected, so it can be
	// resumed.
	if *checkpointFile != "" {
		if err := sampledb.WriteSampleDBToFile(sampleDB, *checkpointFile); err != nil {
			return fmt.Errorf("while writing checkpoint: %w", err)
		}
		glog.Infof("Wrote checkpoint %s", *checkpointFile)
	}

	if renderErr != nil {
		return renderErr
	}

	if err := writeOutput(sampleDB); err != nil {
		return err
	}

	return nil
}
