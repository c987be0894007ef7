package basin

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gosuri/uiprogress"
)

// Observer is told of every finished basin, with the count of basins done so
// far. Calls are serialised by the pipeline.
type Observer interface {
	Observe(done, total int, r *Record, err error)
}

// ProgressBar renders pipeline progress on the terminal.
type ProgressBar struct {
	bar  *uiprogress.Bar
	mu   sync.Mutex
	last string
}

// NewProgressBar starts a progress bar over total basins.
func NewProgressBar(total int) *ProgressBar {
	uiprogress.Start()
	p := &ProgressBar{}
	p.bar = uiprogress.AddBar(total).AppendCompleted().PrependElapsed()
	p.bar.PrependFunc(func(b *uiprogress.Bar) string {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.last
	})
	return p
}

func (p *ProgressBar) Observe(done, total int, r *Record, err error) {
	p.mu.Lock()
	switch {
	case err != nil:
		p.last = "failed"
	case r != nil:
		p.last = fmt.Sprintf("basin %d", r.ID)
	}
	p.mu.Unlock()
	p.bar.Incr()
}

// Stop halts rendering.
func (p *ProgressBar) Stop() { uiprogress.Stop() }

// LogObserver logs every finished basin.
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) Observe(done, total int, r *Record, err error) {
	l := o.Logger
	if l == nil {
		l = slog.Default()
	}
	if err != nil {
		l.Warn("basin failed", "done", done, "total", total, "err", err)
		return
	}
	l.Info("basin done", "done", done, "total", total, "id", r.ID,
		"area_km2", r.DrainageArea, "ksn", r.Ksn.Mean, "method", r.KsnMethod)
}
