package governor

import "time"

// durationRing is a bounded FIFO of durations.
type durationRing struct {
	buf []time.Duration
	cap int
}

func newDurationRing(capacity int) *durationRing {
	return &durationRing{cap: capacity}
}

func (r *durationRing) push(d time.Duration) {
	if len(r.buf) == r.cap {
		copy(r.buf, r.buf[1:])
		r.buf[len(r.buf)-1] = d
		return
	}
	r.buf = append(r.buf, d)
}

func (r *durationRing) len() int {
	return len(r.buf)
}

// tail returns up to n most recent entries.
func (r *durationRing) tail(n int) []time.Duration {
	if n > len(r.buf) {
		n = len(r.buf)
	}
	return r.buf[len(r.buf)-n:]
}

func (r *durationRing) avg() time.Duration {
	if len(r.buf) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range r.buf {
		sum += d
	}
	return sum / time.Duration(len(r.buf))
}

func (r *durationRing) clear() {
	r.buf = r.buf[:0]
}

// sampleWindow is the rolling per-frame timing history. Owned by the
// governor; the orchestrator only writes through RecordFrame.
type sampleWindow struct {
	frameTimes  *durationRing
	detectTimes *durationRing
	renderTimes *durationRing

	framesProcessed uint64
	framesSkipped   uint64
}

func newSampleWindow() *sampleWindow {
	return &sampleWindow{
		frameTimes:  newDurationRing(60),
		detectTimes: newDurationRing(30),
		renderTimes: newDurationRing(30),
	}
}

func (w *sampleWindow) record(wall, detect, render time.Duration, skipped bool) {
	if skipped {
		w.framesSkipped++
		return
	}
	w.framesProcessed++
	w.frameTimes.push(wall)
	if detect > 0 {
		w.detectTimes.push(detect)
	}
	if render > 0 {
		w.renderTimes.push(render)
	}
}

// fps computes throughput over up to the last 30 frame times. Requires at
// least 2 samples, otherwise reports 0.
func (w *sampleWindow) fps() float64 {
	if w.frameTimes.len() < 2 {
		return 0
	}
	recent := w.frameTimes.tail(30)
	var total time.Duration
	for _, d := range recent {
		total += d
	}
	if total <= 0 {
		return 0
	}
	return float64(len(recent)) / total.Seconds()
}
