package ordinal

import "encoding/json"

// NotifyFunc is the single registered callback shape from the Notification
// Hook component: event kind, JSON payload, block height, tx index.
type NotifyFunc func(eventKind string, payloadJSON string, height uint64, txIndex uint64)

// Notifier fans a single callback out to external observers. It is
// invoked synchronously from inside the state-machine operations;
// exceptions (panics) from the callback must not propagate, so the driver
// keeps indexing even if an observer misbehaves.
type Notifier struct {
	cb NotifyFunc
	// suppress silences emission during a cold rebuild, matching the
	// original's gating of notifications while OrdinalIndex::init() is
	// replaying history.
	suppress bool
}

func NewNotifier(cb NotifyFunc) *Notifier {
	return &Notifier{cb: cb}
}

func (n *Notifier) SetSuppressed(v bool) { n.suppress = v }

func (n *Notifier) Emit(kind EventKind, payload any, height, txIndex uint64) {
	if n == nil || n.cb == nil || n.suppress {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("notify: failed to marshal %s payload: %v", kind, err)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("notify: callback panicked on %s: %v", kind, r)
		}
	}()
	n.cb(string(kind), string(data), height, txIndex)
}
