// Package draft keeps an in-progress form's data in a key-value store while the
// user edits it, so an abandoned form can be offered for restore later.
//
// An AutoSaver is bound to one store key. Every Observe after the first one
// (re)starts a debounce timer; when the timer fires the latest observed value is
// written. Persistence failures are reported to a Diagnostics sink and never
// returned to the observing code path.
package draft

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pders01/draftkeeper/internal/kv"
	"github.com/pders01/draftkeeper/internal/models"
)

const (
	// DefaultDebounce is the quiet period before a write.
	DefaultDebounce = time.Second
	// DefaultWriteTimeout bounds a timer-triggered write.
	DefaultWriteTimeout = 5 * time.Second
)

// Diagnostics receives persistence failures. Implementations must not panic.
type Diagnostics interface {
	Report(msg string, err error)
}

type nopDiagnostics struct{}

func (nopDiagnostics) Report(string, error) {}

// State is the caller-visible status of an AutoSaver.
type State struct {
	IsSaving  bool
	LastSaved *time.Time
	HasDraft  bool
}

// Phase is the position in the save cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePendingWrite
	PhaseSaved
)

func (p Phase) String() string {
	switch p {
	case PhasePendingWrite:
		return "pending-write"
	case PhaseSaved:
		return "saved"
	default:
		return "idle"
	}
}

// Option configures an AutoSaver.
type Option func(*AutoSaver)

// WithEnabled turns auto-save on or off. Disabled savers never schedule writes
// and skip the existing-draft check; edit forms use this so a loaded entity is
// not overwritten by a stale draft.
func WithEnabled(enabled bool) Option {
	return func(s *AutoSaver) { s.enabled = enabled }
}

// WithDebounce sets the quiet period after the last Observe before writing.
func WithDebounce(d time.Duration) Option {
	return func(s *AutoSaver) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithOnRestore registers a callback invoked with the payload on Restore.
func WithOnRestore(fn func(payload any)) Option {
	return func(s *AutoSaver) { s.onRestore = fn }
}

// WithDiagnostics sets the sink persistence failures are reported to.
func WithDiagnostics(d Diagnostics) Option {
	return func(s *AutoSaver) {
		if d != nil {
			s.diag = d
		}
	}
}

// WithEntity records the entity type in stored envelopes.
func WithEntity(entity string) Option {
	return func(s *AutoSaver) { s.entity = strings.TrimSpace(entity) }
}

// WithWriteTimeout bounds writes triggered by the debounce timer.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *AutoSaver) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// WithClock overrides time.Now for saved-at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *AutoSaver) {
		if now != nil {
			s.now = now
		}
	}
}

// AutoSaver maintains a debounced snapshot of one form's data under one key.
type AutoSaver struct {
	store        kv.Store
	key          string
	entity       string
	enabled      bool
	debounce     time.Duration
	writeTimeout time.Duration
	onRestore    func(any)
	diag         Diagnostics
	now          func() time.Time

	mu           sync.Mutex
	observedOnce bool
	latest       any
	generation   uint64
	timer        *time.Timer
	inflight     int
	lastSaved    *time.Time
	hasDraft     bool
	closed       bool
	seq          uint64 // numbers writes in the order they were requested
	epoch        uint64 // bumped by Clear; writes from an older epoch are dropped

	// guards store access; written is the seq of the last payload stored
	writeMu sync.Mutex
	written uint64
}

// ticket identifies one requested write.
type ticket struct {
	seq   uint64
	epoch uint64
}

// New creates an AutoSaver for key and, when enabled, checks the store for an
// existing draft.
func New(store kv.Store, key string, opts ...Option) (*AutoSaver, error) {
	if store == nil {
		return nil, fmt.Errorf("draft: store required")
	}
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("draft: key required")
	}
	s := &AutoSaver{
		store:        store,
		key:          key,
		enabled:      true,
		debounce:     DefaultDebounce,
		writeTimeout: DefaultWriteTimeout,
		diag:         nopDiagnostics{},
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	s.CheckForExisting(ctx)

	return s, nil
}

// Key returns the store key.
func (s *AutoSaver) Key() string {
	return s.key
}

// Enabled reports whether auto-save is on.
func (s *AutoSaver) Enabled() bool {
	return s.enabled
}

// Observe hands the saver the form's current data. The first observation is
// the untouched initial state and is never written. Later observations cancel
// any pending write and schedule a new one after the debounce period.
func (s *AutoSaver) Observe(data any) {
	if !s.enabled {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.latest = data
	if !s.observedOnce {
		s.observedOnce = true
		return
	}

	s.generation++
	gen := s.generation
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() { s.fire(gen, data) })
}

func (s *AutoSaver) fire(gen uint64, data any) {
	s.mu.Lock()
	if s.closed || gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	t := s.beginLocked()
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	_ = s.save(ctx, data, t)
}

// Save writes payload under the key now. Failures are reported to the
// diagnostics sink and also returned. When saves overlap, the one requested
// last is the one left in the store.
func (s *AutoSaver) Save(ctx context.Context, payload any) error {
	s.mu.Lock()
	t := s.beginLocked()
	s.mu.Unlock()
	return s.save(ctx, payload, t)
}

// beginLocked counts a write as in flight and numbers it.
func (s *AutoSaver) beginLocked() ticket {
	s.inflight++
	s.seq++
	return ticket{seq: s.seq, epoch: s.epoch}
}

func (s *AutoSaver) save(ctx context.Context, payload any, t ticket) error {
	savedAt := s.now()
	stored, err := s.write(ctx, payload, savedAt, t)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	if err != nil {
		return err
	}
	if !stored || t.epoch != s.epoch {
		return nil
	}
	at := savedAt
	s.lastSaved = &at
	s.hasDraft = true
	return nil
}

// write stores payload unless a later write already landed or the draft was
// cleared after this write was requested.
func (s *AutoSaver) write(ctx context.Context, payload any, savedAt time.Time, t ticket) (bool, error) {
	value, err := Encode(s.key, s.entity, payload, savedAt)
	if err != nil {
		err = s.classify(KindSerialization, err)
		s.diag.Report("error saving draft", err)
		return false, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if t.seq < s.written || t.epoch != s.currentEpoch() {
		return false, nil
	}
	if err := s.store.Set(ctx, s.key, value); err != nil {
		err = s.classify(KindStorageWrite, err)
		s.diag.Report("error saving draft", err)
		return false, err
	}
	s.written = t.seq
	return true, nil
}

func (s *AutoSaver) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// CheckForExisting looks for a stored draft and sets HasDraft if one is found.
// It does nothing while auto-save is disabled. Read failures count as no draft.
func (s *AutoSaver) CheckForExisting(ctx context.Context) bool {
	if !s.enabled {
		return false
	}
	_, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		s.diag.Report("error checking for draft", s.classify(KindStorageRead, err))
		return false
	}
	if ok {
		s.mu.Lock()
		s.hasDraft = true
		s.mu.Unlock()
	}
	return ok
}

// Restore reads the stored draft, marks HasDraft, calls the OnRestore callback
// and returns the payload. It returns (nil, false) and leaves the state alone
// when there is no draft or it cannot be read.
func (s *AutoSaver) Restore(ctx context.Context) (any, bool) {
	snap, ok := s.load(ctx)
	if !ok {
		return nil, false
	}
	s.markRestored()
	if s.onRestore != nil {
		s.onRestore(snap.Payload)
	}
	return snap.Payload, true
}

// RestoreInto decodes the stored draft into dst. The OnRestore callback is not
// called.
func (s *AutoSaver) RestoreInto(ctx context.Context, dst any) bool {
	value, ok := s.read(ctx)
	if !ok {
		return false
	}
	if err := DecodeInto(s.key, value, dst); err != nil {
		s.diag.Report("error restoring draft", s.classify(KindDeserialization, err))
		return false
	}
	s.markRestored()
	return true
}

func (s *AutoSaver) load(ctx context.Context) (models.Snapshot, bool) {
	value, ok := s.read(ctx)
	if !ok {
		return models.Snapshot{}, false
	}
	snap, err := Decode(s.key, value)
	if err != nil {
		s.diag.Report("error restoring draft", s.classify(KindDeserialization, err))
		return models.Snapshot{}, false
	}
	return snap, true
}

func (s *AutoSaver) read(ctx context.Context) (string, bool) {
	value, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		s.diag.Report("error restoring draft", s.classify(KindStorageRead, err))
		return "", false
	}
	return value, ok
}

func (s *AutoSaver) markRestored() {
	s.mu.Lock()
	s.hasDraft = true
	s.mu.Unlock()
}

// Clear removes the stored draft and resets HasDraft and LastSaved. The state
// is reset even when the store fails, so the caller is not left offering a
// stale restore; the failure is reported and returned.
func (s *AutoSaver) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.epoch++
	s.mu.Unlock()

	s.writeMu.Lock()
	err := s.store.Remove(ctx, s.key)
	s.writeMu.Unlock()

	s.mu.Lock()
	s.hasDraft = false
	s.lastSaved = nil
	s.mu.Unlock()

	if err != nil {
		err = s.classify(KindStorageRemove, err)
		s.diag.Report("error clearing draft", err)
		return err
	}
	return nil
}

// Submit runs the owning workflow's submit with the latest observed data. On
// success any pending write is cancelled and the draft is cleared. A failed
// submit leaves the draft and any pending write untouched.
func (s *AutoSaver) Submit(ctx context.Context, submit func(ctx context.Context, payload any) error) error {
	s.mu.Lock()
	data := s.latest
	s.mu.Unlock()

	if err := submit(ctx, data); err != nil {
		return err
	}

	s.mu.Lock()
	s.cancelPendingLocked()
	s.mu.Unlock()

	// the submission already succeeded; a clear failure has been reported
	_ = s.Clear(ctx)
	return nil
}

// State returns the current status triple.
func (s *AutoSaver) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		IsSaving: s.timer != nil || s.inflight > 0,
		HasDraft: s.hasDraft,
	}
	if s.lastSaved != nil {
		t := *s.lastSaved
		st.LastSaved = &t
	}
	return st
}

// Phase returns the position in the save cycle.
func (s *AutoSaver) Phase() Phase {
	st := s.State()
	switch {
	case st.IsSaving:
		return PhasePendingWrite
	case st.HasDraft:
		return PhaseSaved
	default:
		return PhaseIdle
	}
}

// Close cancels a pending write without performing it. Observe is a no-op
// afterwards. A write already in progress is allowed to finish.
func (s *AutoSaver) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cancelPendingLocked()
}

func (s *AutoSaver) cancelPendingLocked() {
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *AutoSaver) classify(kind Kind, err error) error {
	return keyed(kind, s.key, err)
}
