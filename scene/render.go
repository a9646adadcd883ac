package scene

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"row-major/pathtracer/camera"
	"row-major/pathtracer/rendermetrics"
	"row-major/pathtracer/sampledb"
)

// RowWorker renders a single image row into its own slice of the sample
// database.
type RowWorker struct {
	sampleDB *sampledb.SampleDB
	rng      *rand.Rand

	maxDepth      int
	targetSamples int

	row   int
	frame *camera.Frame
	scene *Scene
}

// Render tops up every pixel in the row to the target sample count, and
// returns the number of samples taken.
func (w *RowWorker) Render() int {
	samplesCollected := 0
	for c := 0; c < w.sampleDB.ColSize; c++ {
		samp := w.sampleDB.ReadSample(0, c)
		if int(samp.SampleCount) >= w.targetSamples {
			continue
		}
		samplesToAdd := w.targetSamples - int(samp.SampleCount)

		for cs := 0; cs < samplesToAdd; cs++ {
			curQuery := w.frame.ImageToRay(w.row, c, w.rng)
			w.sampleDB.RecordSample(0, c, w.scene.SampleRay(curQuery, w.rng, w.maxDepth))
			samplesCollected++
		}
	}
	return samplesCollected
}

// RowSeed derives the random seed for a row.  existing is the number of
// samples the row already holds, so that a resumed render does not repeat the
// random choices it made the first time.
func RowSeed(seed int64, row, existing int) int64 {
	return seed ^ (int64(row) << 32) ^ int64(existing)
}

type RenderOptions struct {
	// Workers is the number of rows rendered concurrently.  Zero means one
	// per CPU.
	Workers int

	Seed int64

	// Metrics may be nil.
	Metrics *rendermetrics.Recorder
}

// ProgressFunction receives the number of rows done and the total.
type ProgressFunction func(int, int)

// RenderScene collects samples for every pixel of sampleDB until each holds
// frame.Config.SamplesPerPixel of them.  Rows are rendered in parallel and
// written back at their own position, so completion order does not matter.
//
// Cancelling ctx stops the render between rows.
func RenderScene(ctx context.Context, s *Scene, frame *camera.Frame, options *RenderOptions, sampleDB *sampledb.SampleDB, progressFunction ProgressFunction) error {
	if sampleDB.RowSize != frame.ImageHeight || sampleDB.ColSize != frame.Config.ImageWidth {
		return fmt.Errorf("sample database is %dx%d, but the camera wants %dx%d",
			sampleDB.ColSize, sampleDB.RowSize, frame.Config.ImageWidth, frame.ImageHeight)
	}

	if options == nil {
		options = &RenderOptions{}
	}

	tracer := otel.Tracer("row-major/pathtracer/scene")
	ctx, span := tracer.Start(ctx, "RenderScene")
	defer span.End()

	workerCount := options.Workers
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}

	glog.V(1).Infof("Rendering %dx%d at %d samples per pixel with %d workers",
		sampleDB.ColSize, sampleDB.RowSize, frame.Config.SamplesPerPixel, workerCount)

	// dbMutex locks both curProgress and sampleDB.
	dbMutex := sync.Mutex{}
	curProgress := 0

	g, ctx := errgroup.WithContext(ctx)

	rows := make(chan int)
	g.Go(func() error {
		defer close(rows)
		for r := 0; r < sampleDB.RowSize; r++ {
			select {
			case rows <- r:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < workerCount; i++ {
		g.Go(func() error {
			for r := range rows {
				if err := ctx.Err(); err != nil {
					return err
				}

				dbMutex.Lock()
				rowDB := sampleDB.Cut(r, r+1, 0, sampleDB.ColSize)
				dbMutex.Unlock()

				worker := &RowWorker{
					sampleDB:      rowDB,
					rng:           rand.New(rand.NewSource(RowSeed(options.Seed, r, rowDB.TotalSamples(0, 1)))),
					maxDepth:      frame.Config.MaxDepth,
					targetSamples: frame.Config.SamplesPerPixel,
					row:           r,
					frame:         frame,
					scene:         s,
				}
				samples := worker.Render()

				dbMutex.Lock()
				sampleDB.Paste(rowDB, r, 0)
				curProgress++
				if progressFunction != nil {
					progressFunction(curProgress, sampleDB.RowSize)
				}
				dbMutex.Unlock()

				options.Metrics.RecordRow(ctx, samples)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("while rendering: %w", err)
	}

	glog.V(1).Infof("Render finished")
	return nil
}
