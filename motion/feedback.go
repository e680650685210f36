package motion

import (
	"sync"
	"time"

	"github.com/bep/debounce"

	"github.com/parol6/console/logging"
	"github.com/parol6/console/referenceframe"
	"github.com/parol6/console/utils"
)

// displayDebounce coalesces bursts of feedback into one display refresh.
const displayDebounce = 100 * time.Millisecond

// FeedbackReconciler is the entry point for asynchronous hardware position
// reports. Samples arrive in degrees at irregular intervals; the reconciler
// converts them to radians, hands them to the store's resynchronization rule,
// and notifies the display listener, debounced.
type FeedbackReconciler struct {
	store     *Store
	logger    logging.Logger
	debounced func(func())

	mu       sync.Mutex
	listener func()
}

// NewFeedbackReconciler wires the reconciler to the shared store.
func NewFeedbackReconciler(store *Store, logger logging.Logger) *FeedbackReconciler {
	return &FeedbackReconciler{
		store:     store,
		logger:    logger,
		debounced: debounce.New(displayDebounce),
	}
}

// SetDisplayListener registers the function called after feedback updates.
// The presentation layer owns any fan-out to multiple displays.
func (f *FeedbackReconciler) SetDisplayListener(listener func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listener = listener
}

// OnFeedback records one full feedback sample, J1..J6 in degrees. Samples of
// the wrong length are dropped.
func (f *FeedbackReconciler) OnFeedback(degrees []float64) {
	if len(degrees) != referenceframe.NumJoints {
		f.logger.Warnw("dropping malformed feedback sample", "values", len(degrees))
		return
	}
	joints := referenceframe.FloatsToInputs(utils.DegreesToRadians(degrees))
	if resynced := f.store.ApplyFeedback(joints); len(resynced) > 0 {
		f.logger.Debugw("commanded joints resynchronized to feedback", "joints", resynced)
	}

	f.mu.Lock()
	listener := f.listener
	f.mu.Unlock()
	if listener != nil {
		f.debounced(listener)
	}
}
