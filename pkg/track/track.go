package track

import (
	"math"
	"sync"
	"time"

	"github.com/itohio/pwmc/pkg/config"
	"github.com/itohio/pwmc/pkg/sample"
)

var _ LockTracker = (*Tracker)(nil)

// Lock is a stretch of samples where the probe followed the generator within
// tolerance.
type Lock struct {
	StartIndex      int       // Start sample index in buffer (0 if the start left the window)
	EndIndex        int       // End sample index in buffer (updated while the lock holds)
	StartTime       time.Time // When the probe first matched
	EndTime         time.Time // Latest matching sample
	FrequencyHz     float64   // Mean measured frequency over the lock
	MaxErrorPercent float64   // Largest absolute frequency error seen
}

// Duration returns how long the lock has held.
func (l Lock) Duration() time.Duration {
	return l.EndTime.Sub(l.StartTime)
}

// LockTracker processes samples, keeps a time window of them and detects locks.
type LockTracker interface {
	ProcessSamples(input <-chan sample.Sample)
	// Samples returns the current window, oldest first.
	Samples() []sample.Sample
	Locks() []Lock
	// Locked reports whether the latest sample extends a lock.
	Locked() bool
	OnUpdate(func(samples []sample.Sample, locks []Lock))
}

// Tracker implements LockTracker.
type Tracker struct {
	samples []sample.Sample
	locks   []Lock

	// current run of matching samples
	runStart     int // index of first matching sample, -1 when not matching
	runStartTime time.Time
	runLock      int // index into locks once the run is long enough, -1 otherwise

	mu sync.RWMutex

	callbacks []func(samples []sample.Sample, locks []Lock)
	cbMu      sync.RWMutex

	windowDuration  time.Duration
	tolerance       float64
	minLockDuration time.Duration

	// Set when the input channel closes, prevents further callbacks
	shutdown bool
}

// New creates a new Tracker from the track section of cfg.
func New(cfg *config.Config) *Tracker {
	window := seconds(cfg.Track.WindowSeconds)
	if window <= 0 {
		// a cutoff after the newest sample would never trim
		window = seconds(config.Default().Track.WindowSeconds)
	}
	return &Tracker{
		samples:         make([]sample.Sample, 0),
		locks:           make([]Lock, 0),
		runStart:        -1,
		runLock:         -1,
		windowDuration:  window,
		tolerance:       cfg.Track.TolerancePercent,
		minLockDuration: cfg.Track.MinLockDuration,
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// ProcessSamples consumes samples until the input channel closes. Once it
// closes no more callbacks are sent until ResetShutdown.
func (t *Tracker) ProcessSamples(input <-chan sample.Sample) {
	for s := range input {
		t.processSample(s)
	}
	t.mu.Lock()
	t.shutdown = true
	t.mu.Unlock()
}

func (t *Tracker) processSample(s sample.Sample) {
	t.mu.Lock()

	t.samples = append(t.samples, s)
	t.trim(s.Timestamp.Add(-t.windowDuration))
	t.updateLocks()

	shouldNotify := !t.shutdown
	t.mu.Unlock()

	if shouldNotify {
		t.notifyCallbacks()
	}
}

// trim drops samples at or before cutoff and shifts every index that points
// into the buffer.
func (t *Tracker) trim(cutoff time.Time) {
	cutoffIndex := 0
	for i, s := range t.samples {
		if s.Timestamp.After(cutoff) {
			cutoffIndex = i
			break
		}
	}
	if cutoffIndex == 0 {
		return
	}

	t.samples = t.samples[cutoffIndex:]

	valid := t.locks[:0]
	dropped := 0
	for _, l := range t.locks {
		l.StartIndex -= cutoffIndex
		l.EndIndex -= cutoffIndex
		if l.EndIndex < 0 {
			dropped++
			continue
		}
		if l.StartIndex < 0 {
			l.StartIndex = 0
		}
		valid = append(valid, l)
	}
	t.locks = valid

	if t.runLock >= 0 {
		t.runLock -= dropped
	}
	if t.runStart >= 0 {
		t.runStart = max(t.runStart-cutoffIndex, 0)
	}
}

func (t *Tracker) matches(s sample.Sample) bool {
	return s.HasSignal() && math.Abs(s.ErrorPercent) <= t.tolerance
}

func (t *Tracker) updateLocks() {
	last := len(t.samples) - 1
	s := t.samples[last]

	if !t.matches(s) {
		t.runStart = -1
		t.runLock = -1
		return
	}

	if t.runStart < 0 {
		t.runStart = last
		t.runStartTime = s.Timestamp
		t.runLock = -1
	}

	if s.Timestamp.Sub(t.runStartTime) < t.minLockDuration {
		return
	}

	if t.runLock < 0 {
		t.locks = append(t.locks, Lock{
			StartIndex: t.runStart,
			StartTime:  t.runStartTime,
		})
		t.runLock = len(t.locks) - 1
	}

	l := &t.locks[t.runLock]
	l.EndIndex = last
	l.EndTime = s.Timestamp

	var sum, worst float64
	for _, r := range t.samples[t.runStart : last+1] {
		sum += r.MeasuredHz
		worst = max(worst, math.Abs(r.ErrorPercent))
	}
	l.FrequencyHz = sum / float64(last-t.runStart+1)
	l.MaxErrorPercent = worst
}

// Samples returns a copy of the current samples buffer.
func (t *Tracker) Samples() []sample.Sample {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]sample.Sample, len(t.samples))
	copy(result, t.samples)
	return result
}

// Locks returns a copy of the current locks.
func (t *Tracker) Locks() []Lock {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]Lock, len(t.locks))
	copy(result, t.locks)
	return result
}

// Locked reports whether the latest sample extends a lock.
func (t *Tracker) Locked() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.runLock >= 0
}

// OnUpdate registers a callback invoked after every processed sample.
// The callback should copy data quickly and return as fast as possible.
func (t *Tracker) OnUpdate(callback func(samples []sample.Sample, locks []Lock)) {
	t.cbMu.Lock()
	defer t.cbMu.Unlock()
	t.callbacks = append(t.callbacks, callback)
}

// ResetShutdown allows callbacks again. Call it before starting a new chain.
func (t *Tracker) ResetShutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shutdown = false
}

func (t *Tracker) notifyCallbacks() {
	samples := t.Samples()
	locks := t.Locks()

	t.cbMu.RLock()
	callbacks := make([]func(samples []sample.Sample, locks []Lock), len(t.callbacks))
	copy(callbacks, t.callbacks)
	t.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(samples, locks)
		}
	}
}
