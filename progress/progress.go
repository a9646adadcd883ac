// Package progress reports how much of a render has completed.
package progress

import (
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/term"
)

type Tracker struct {
	Lock sync.Mutex

	out         io.Writer
	interactive bool
	start       time.Time
	now         func() time.Time

	rowsDone    int
	rowsTotal   int
	lastDecile  int
	finished    bool
	sceneName   string
	elapsedDone time.Duration
}

// New creates a tracker writing to out.  When out is a terminal, progress is
// redrawn in place; otherwise it is logged in tenths.
func New(out io.Writer, sceneName string) *Tracker {
	interactive := false
	if f, ok := out.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}
	return &Tracker{
		out:         out,
		interactive: interactive,
		start:       time.Now(),
		now:         time.Now,
		lastDecile:  -1,
		sceneName:   sceneName,
	}
}

// Update records that done of total rows are finished.
func (t *Tracker) Update(done, total int) {
	t.Lock.Lock()
	defer t.Lock.Unlock()

	t.rowsDone = done
	t.rowsTotal = total

	if t.interactive {
		fmt.Fprintf(t.out, "\rScanlines remaining: %d ", total-done)
		return
	}

	if total == 0 {
		return
	}
	decile := 10 * done / total
	if decile != t.lastDecile {
		t.lastDecile = decile
		glog.Infof("Rendered %d/%d rows (%d%%)", done, total, 100*done/total)
	}
}

// Finish marks the render complete.
func (t *Tracker) Finish() {
	t.Lock.Lock()
	defer t.Lock.Unlock()

	t.finished = true
	t.elapsedDone = t.now().Sub(t.start)

	if t.interactive {
		fmt.Fprintf(t.out, "\rDone.                    \n")
		return
	}
	glog.Infof("Done in %v", t.elapsedDone)
}

// Snapshot returns rows done, rows total, and whether the render finished.
func (t *Tracker) Snapshot() (int, int, bool) {
	t.Lock.Lock()
	defer t.Lock.Unlock()
	return t.rowsDone, t.rowsTotal, t.finished
}

var progressTemplate = template.Must(template.New("progress").Parse(`
<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="utf-8">
    <title>Render Progress</title>
  </head>
  <body>
    <h1>Render Progress</h1>
    <table>
      <tbody>
        <tr><td>Scene</td><td>{{.SceneName}}</td></tr>
        <tr><td>Elapsed</td><td>{{.Elapsed}}</td></tr>
        <tr><td>Rows Done</td><td>{{.RowsDone}}</td></tr>
        <tr><td>Rows Total</td><td>{{.RowsTotal}}</td></tr>
        <tr><td>Finished</td><td>{{.Finished}}</td></tr>
      </tbody>
    </table>
  </body>
  {{if not .Finished}}<script>setTimeout(function() {location.reload();}, 5000);</script>{{end}}
</html>
`))

type ProgressTemplateVars struct {
	SceneName string
	Elapsed   time.Duration
	RowsDone  int
	RowsTotal int
	Finished  bool
}

func (t *Tracker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t.Lock.Lock()
	vars := ProgressTemplateVars{
		SceneName: t.sceneName,
		Elapsed:   t.now().Sub(t.start).Round(time.Second),
		RowsDone:  t.rowsDone,
		RowsTotal: t.rowsTotal,
		Finished:  t.finished,
	}
	if t.finished {
		vars.Elapsed = t.elapsedDone.Round(time.Second)
	}
	t.Lock.Unlock()

	if err := progressTemplate.Execute(w, vars); err != nil {
		glog.Errorf("Error while executing template: %v", err)
	}
}
