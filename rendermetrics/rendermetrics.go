package rendermetrics

import (
	"context"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var sceneKey = tag.MustNewKey("scene")

type Recorder struct {
	sceneName string

	rowsRendered     *stats.Int64Measure
	rowsRenderedView *view.View

	samplesTaken     *stats.Int64Measure
	samplesTakenView *view.View
}

func New(sceneName string) *Recorder {
	r := &Recorder{sceneName: sceneName}

	r.rowsRendered = stats.Int64("rows_rendered", "Image rows completed", stats.UnitDimensionless)
	r.rowsRenderedView = &view.View{
		Name:        "rows_rendered",
		Description: "Counter of image rows that have been rendered",

		TagKeys: []tag.Key{sceneKey},

		Measure:     r.rowsRendered,
		Aggregation: view.Count(),
	}

	r.samplesTaken = stats.Int64("samples_taken", "Radiance samples collected", stats.UnitDimensionless)
	r.samplesTakenView = &view.View{
		Name:        "samples_taken",
		Description: "Sum of radiance samples collected",

		TagKeys: []tag.Key{sceneKey},

		Measure:     r.samplesTaken,
		Aggregation: view.Sum(),
	}

	return r
}

func (r *Recorder) RegisterMetrics() error {
	return view.Register(r.rowsRenderedView, r.samplesTakenView)
}

func (r *Recorder) UnregisterMetrics() {
	view.Unregister(r.rowsRenderedView, r.samplesTakenView)
}

// RecordRow notes that one row finished after taking samples new samples.
func (r *Recorder) RecordRow(ctx context.Context, samples int) {
	if r == nil {
		return
	}
	stats.RecordWithOptions(
		ctx,
		stats.WithTags(tag.Insert(sceneKey, r.sceneName)),
		stats.WithMeasurements(r.rowsRendered.M(1), r.samplesTaken.M(int64(samples))))
}
