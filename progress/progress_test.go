package progress

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestUpdateAndFinish(t *testing.T) {
	out := &bytes.Buffer{}
	tr := New(out, "three-spheres")
	start := tr.start
	tr.now = func() time.Time { return start.Add(90 * time.Second) }

	for i := 1; i <= 20; i++ {
		tr.Update(i, 20)
	}
	done, total, finished := tr.Snapshot()
	if done != 20 || total != 20 || finished {
		t.Errorf("Snapshot() = (%d, %d, %v), want (20, 20, false)", done, total, finished)
	}

	tr.Finish()
	if _, _, finished := tr.Snapshot(); !finished {
		t.Errorf("Tracker not finished after Finish()")
	}
	if tr.elapsedDone != 90*time.Second {
		t.Errorf("Elapsed = %v, want 1m30s", tr.elapsedDone)
	}

	// A buffer is not a terminal, so nothing is redrawn into it.
	if out.Len() != 0 {
		t.Errorf("Non-interactive tracker wrote %q", out.String())
	}
}

func TestServeHTTP(t *testing.T) {
	tr := New(&bytes.Buffer{}, "three-spheres")
	tr.Update(3, 10)

	rec := httptest.NewRecorder()
	tr.ServeHTTP(rec, httptest.NewRequest("GET", "/progress", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"<td>three-spheres</td>",
		"<tr><td>Rows Done</td><td>3</td></tr>",
		"<tr><td>Rows Total</td><td>10</td></tr>",
		"location.reload",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Progress page does not contain %q:\n%s", want, body)
		}
	}

	tr.Finish()
	rec = httptest.NewRecorder()
	tr.ServeHTTP(rec, httptest.NewRequest("GET", "/progress", nil))
	if strings.Contains(rec.Body.String(), "location.reload") {
		t.Errorf("Finished progress page still reloads itself")
	}
}
