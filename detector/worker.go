package detector

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/swdee/go-objectdash"
	"github.com/swdee/go-objectdash/tracker"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

var (
	// ErrBusy is returned by Dispatch while a frame is still being detected
	ErrBusy = errors.New("detector worker busy")
	// ErrStopped is returned by Dispatch once the worker has been stopped
	ErrStopped = errors.New("detector worker stopped")
	// ErrStopTimeout is returned by Stop when the worker goroutine did not
	// exit in time, the detector must then not be closed
	ErrStopTimeout = errors.New("detector worker did not stop in time")
)

// Result is the outcome of detecting one dispatched frame
type Result struct {
	// Seq is the sequence number Dispatch returned for the frame
	Seq   uint64
	Batch tracker.Batch
	Err   error
	// Latency is the time spent in the detector
	Latency time.Duration
}

// job is a frame handed to the worker goroutine, the frame is a private copy
// owned by the worker until it is returned to the pool
type job struct {
	seq   uint64
	frame gocv.Mat
}

// Worker runs a Detector on its own OS thread.  Frames go in through
// Dispatch and results come back through Poll, neither of which block.  At
// most one frame is in flight at a time.
type Worker struct {
	det      Detector
	frames   chan job
	results  chan Result
	pool     *objectdash.MatPool
	seq      uint64
	pending  bool
	stopping atomic.Bool
	stopOnce sync.Once
	stopErr  error
	done     chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	cpuMask  uintptr
	timeout  time.Duration
	log      *zap.Logger
}

// WorkerOption configures a Worker
type WorkerOption func(*Worker)

// WithCPUMask pins the worker OS thread to the cores in mask
func WithCPUMask(mask uintptr) WorkerOption {
	return func(w *Worker) {
		w.cpuMask = mask
	}
}

// WithStopTimeout bounds how long Stop waits for the worker goroutine
func WithStopTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		w.timeout = d
	}
}

// WithWorkerLogger sets the logger
func WithWorkerLogger(l *zap.Logger) WorkerOption {
	return func(w *Worker) {
		if l != nil {
			w.log = l
		}
	}
}

// NewWorker starts the worker goroutine for det
func NewWorker(det Detector, opts ...WorkerOption) *Worker {

	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		det:     det,
		frames:  make(chan job, 1),
		results: make(chan Result, 1),
		pool:    objectdash.NewMatPool(2),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		timeout: 5 * time.Second,
		log:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(w)
	}

	go w.run()

	return w
}

// run is the worker goroutine, it exits when the frame channel is closed
func (w *Worker) run() {

	// the detector gets a thread to itself so native inference code does
	// not share it with other goroutines
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	defer close(w.done)

	if w.cpuMask != 0 {
		if err := objectdash.SetCPUAffinity(w.cpuMask); err != nil {
			w.log.Warn("Failed to set detector CPU affinity", zap.Error(err))
		}
	}

	w.log.Debug("Detector worker started")

	for j := range w.frames {

		// a frame queued before Stop is not detected
		if w.stopping.Load() {
			w.pool.Return(j.frame)
			continue
		}

		start := time.Now()
		batch, err := w.detect(j.frame)
		latency := time.Since(start)

		w.pool.Return(j.frame)

		if err != nil {
			w.log.Debug("Detection failed", zap.Uint64("seq", j.seq), zap.Error(err))
		}

		// never blocks as only one frame is in flight
		w.results <- Result{
			Seq:     j.seq,
			Batch:   batch,
			Err:     err,
			Latency: latency,
		}
	}

	w.log.Debug("Detector worker stopped")
}

// detect calls the detector turning a panic into an error so a faulty
// detector can not take down the worker
func (w *Worker) detect(frame gocv.Mat) (batch tracker.Batch, err error) {

	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()

	return w.det.Detect(w.ctx, frame)
}

// Dispatch hands a copy of frame to the worker and returns its sequence
// number.  The caller keeps ownership of frame.
func (w *Worker) Dispatch(frame gocv.Mat) (uint64, error) {

	if w.stopping.Load() {
		return 0, ErrStopped
	}

	if w.pending {
		return 0, ErrBusy
	}

	w.seq++
	j := job{seq: w.seq, frame: w.pool.Clone(frame)}

	select {
	case w.frames <- j:
		w.pending = true
		return j.seq, nil
	default:
		w.pool.Return(j.frame)
		return 0, ErrBusy
	}
}

// Poll returns the next result if one is ready
func (w *Worker) Poll() (Result, bool) {
	select {
	case res := <-w.results:
		w.pending = false
		return res, true
	default:
		return Result{}, false
	}
}

// Pending reports whether a dispatched frame has not been polled yet
func (w *Worker) Pending() bool {
	return w.pending
}

// Stop signals the worker to finish and waits for it to exit.  It is safe to
// call more than once, only the first call sends the signal.
func (w *Worker) Stop() error {

	w.stopOnce.Do(func() {
		w.stopping.Store(true)
		close(w.frames)
		w.cancel()

		select {
		case <-w.done:
			w.pool.Close()
		case <-time.After(w.timeout):
			w.stopErr = ErrStopTimeout
			w.log.Warn("Detector worker did not stop", zap.Duration("timeout", w.timeout))
		}
	})

	return w.stopErr
}

// Done is closed when the worker goroutine has exited
func (w *Worker) Done() <-chan struct{} {
	return w.done
}
