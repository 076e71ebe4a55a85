package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"tab_chat_sync/internal/chat/domain"
	"tab_chat_sync/internal/chat/repository"
	"tab_chat_sync/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ChangeListener receive a fresh view after every state change
// It may be called from the merge loop and from facade callers concurrently.
type ChangeListener func(domain.View)

// SyncEngine owns one context's in-memory view and reconciles it with the shared store
type SyncEngine struct {
	mu    sync.Mutex
	polls singleflight.Group

	store     repository.Store
	feed      repository.ChangeFeed
	contextID string
	now       func() int64
	identity  func() domain.Identity
	rooms     []domain.Room
	listener  ChangeListener
	log       *logger.LogInfo

	messages         map[string]domain.Message
	ordered          []domain.Message
	users            map[string]domain.User
	currentUser      *domain.User
	currentRoomID    string
	lastAppliedClock int64
	lastTimestamp    int64
	degraded         bool
	// keys whose last write-through failed; the next successful write or poll flushes them
	pending writeFields
	sealed  bool
}

// EngineOption configure a SyncEngine
type EngineOption func(*SyncEngine)

// WithContextID set the id stamped on published change events
func WithContextID(id string) EngineOption {
	return func(e *SyncEngine) { e.contextID = id }
}

// WithChangeFeed publish every write to feed
func WithChangeFeed(feed repository.ChangeFeed) EngineOption {
	return func(e *SyncEngine) { e.feed = feed }
}

// WithClock replace the epoch-millis time source
func WithClock(now func() int64) EngineOption {
	return func(e *SyncEngine) { e.now = now }
}

// WithIdentityGenerator replace NewIdentity
func WithIdentityGenerator(gen func() domain.Identity) EngineOption {
	return func(e *SyncEngine) { e.identity = gen }
}

// WithRooms replace the default room set; the first room is the initial one
func WithRooms(rooms []domain.Room) EngineOption {
	return func(e *SyncEngine) {
		if len(rooms) > 0 {
			e.rooms = rooms
		}
	}
}

// WithChangeListener set the change callback
func WithChangeListener(l ChangeListener) EngineOption {
	return func(e *SyncEngine) { e.listener = l }
}

// NewSyncEngine create a SyncEngine; call Init before use
func NewSyncEngine(store repository.Store, opts ...EngineOption) *SyncEngine {
	e := &SyncEngine{
		store:     store,
		contextID: uuid.NewString(),
		now:       func() int64 { return time.Now().UnixMilli() },
		identity:  NewIdentity,
		rooms:     domain.DefaultRooms(),
		messages:  make(map[string]domain.Message),
		users:     make(map[string]domain.User),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.currentRoomID = e.rooms[0].ID
	e.log = logger.Log.With(zap.String("context", e.contextID))
	return e
}

// ContextID id of the context owning this engine
func (e *SyncEngine) ContextID() string {
	return e.contextID
}

// Init load the store, adopt the persisted identity or generate and persist a new one
func (e *SyncEngine) Init(ctx context.Context) {
	snap, err := e.store.ReadAll(ctx)

	e.mu.Lock()
	if err != nil {
		e.degradeLocked("init read", err)
	}

	generated := false
	var cu domain.User
	if snap.CurrentUser != nil {
		cu = *snap.CurrentUser
	} else {
		id := e.identity()
		cu = domain.User{ID: id.ID, DisplayName: id.DisplayName, LastActiveAt: e.now()}
		generated = true
	}
	e.currentUser = &cu

	e.absorbLocked(snap)
	e.lastAppliedClock = snap.Clock

	switch {
	case generated && err == nil:
		e.persistIdentityLocked(ctx)
	case generated:
		e.pending |= writeUsers
	}
	e.log.Info("sync engine initialized",
		zap.String("user", cu.ID),
		zap.String("name", cu.DisplayName),
		zap.Bool("new_identity", generated),
		zap.Int64("clock", e.lastAppliedClock),
		zap.Int("messages", len(e.ordered)),
	)
	view := e.viewLocked()
	e.mu.Unlock()

	e.notify(view)
}

func (e *SyncEngine) persistIdentityLocked(ctx context.Context) {
	cu := *e.currentUser
	changes, err := e.store.Write(ctx, domain.PartialSnapshot{CurrentUser: &cu})
	if err != nil {
		e.degradeLocked("persist identity", err)
		return
	}
	e.recoverLocked()
	e.publishLocked(ctx, changes)
}

// MergeFromStore fold an observed snapshot into memory
// A snapshot whose clock is not newer than the last applied one is ignored.
func (e *SyncEngine) MergeFromStore(observed domain.Snapshot) bool {
	e.mu.Lock()
	changed := e.mergeLocked(observed)
	view := e.viewLocked()
	e.mu.Unlock()

	if changed {
		e.notify(view)
	}
	return changed
}

func (e *SyncEngine) mergeLocked(observed domain.Snapshot) bool {
	if observed.Clock <= e.lastAppliedClock {
		return false
	}
	changed := e.absorbLocked(observed)
	e.lastAppliedClock = observed.Clock
	return changed
}

// Poll read the store, union its messages whatever the clock says, and merge the rest when the clock moved
// When the stored message set lacks messages this context holds, or an earlier write failed,
// the union is written back. Concurrent callers share one store read.
func (e *SyncEngine) Poll(ctx context.Context) bool {
	v, _, _ := e.polls.Do("poll", func() (interface{}, error) {
		return e.poll(ctx), nil
	})
	return v.(bool)
}

func (e *SyncEngine) poll(ctx context.Context) bool {
	snap, err := e.store.ReadAll(ctx)

	e.mu.Lock()
	if err != nil {
		e.degradeLocked("poll read", err)
		e.mu.Unlock()
		return false
	}

	changed := e.unionMessagesLocked(snap.Messages)
	if e.mergeLocked(snap) {
		changed = true
	}

	repair := e.pending
	if e.storeLacksMessagesLocked(snap.Messages) {
		repair |= writeMessages
	}
	switch {
	case e.sealed:
	case repair != 0:
		e.log.Debug("writing back local state missing from the store", zap.Int("fields", int(repair)))
		e.writeThroughLocked(ctx, repair)
	default:
		e.recoverLocked()
	}
	view := e.viewLocked()
	e.mu.Unlock()

	if changed {
		e.notify(view)
	}
	return changed
}

// ApplyChange handle a change event from another context
// Message sets are unioned straight from the event value, then the clock decides the rest.
func (e *SyncEngine) ApplyChange(ctx context.Context, ev domain.ChangeEvent) bool {
	changed := false
	if ev.Key == e.store.Keys().Messages {
		msgs, err := repository.DecodeMessages(ev.NewValue)
		if err != nil {
			e.log.Warn("ignore malformed messages event", zap.Error(err))
		} else {
			e.mu.Lock()
			changed = e.unionMessagesLocked(msgs)
			view := e.viewLocked()
			e.mu.Unlock()
			if changed {
				e.notify(view)
			}
		}
	}
	if e.Poll(ctx) {
		changed = true
	}
	return changed
}

// SendMessage append a message to the current room and write it through
// Blank text or a missing current user is a no-op.
func (e *SyncEngine) SendMessage(ctx context.Context, text string) (domain.Message, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Message{}, false
	}

	e.mu.Lock()
	if e.currentUser == nil || e.sealed {
		e.mu.Unlock()
		return domain.Message{}, false
	}

	ts := e.nextTimestampLocked()
	msg := domain.Message{
		ID:         fmt.Sprintf("msg_%d_%s", ts, uuid.NewString()),
		Text:       text,
		AuthorID:   e.currentUser.ID,
		AuthorName: e.currentUser.DisplayName,
		RoomID:     e.currentRoomID,
		Timestamp:  ts,
	}
	e.unionMessagesLocked([]domain.Message{msg})
	e.writeThroughLocked(ctx, writeMessages)
	view := e.viewLocked()
	e.mu.Unlock()

	e.notify(view)
	return msg, true
}

// SetDisplayName rename the current user; blank names are ignored
func (e *SyncEngine) SetDisplayName(ctx context.Context, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	e.mu.Lock()
	if e.currentUser == nil || e.sealed {
		e.mu.Unlock()
		return false
	}
	e.currentUser.DisplayName = name
	e.users[e.currentUser.ID] = *e.currentUser
	e.writeThroughLocked(ctx, writeUsers)
	view := e.viewLocked()
	e.mu.Unlock()

	e.notify(view)
	return true
}

// SetPresence set the current user's online flag and activity time
func (e *SyncEngine) SetPresence(ctx context.Context, online bool) bool {
	e.mu.Lock()
	if e.currentUser == nil || e.sealed {
		e.mu.Unlock()
		return false
	}
	e.currentUser.IsOnline = online
	e.currentUser.LastActiveAt = e.now()
	e.users[e.currentUser.ID] = *e.currentUser
	e.writeThroughLocked(ctx, writeUsers)
	view := e.viewLocked()
	e.mu.Unlock()

	e.notify(view)
	return true
}

// JoinRoom switch the active room of this context only; unknown rooms are ignored
func (e *SyncEngine) JoinRoom(roomID string) bool {
	roomID = strings.TrimSpace(roomID)

	e.mu.Lock()
	known := false
	for _, r := range e.rooms {
		if r.ID == roomID {
			known = true
			break
		}
	}
	if !known || roomID == e.currentRoomID {
		e.mu.Unlock()
		return false
	}
	e.currentRoomID = roomID
	view := e.viewLocked()
	e.mu.Unlock()

	e.notify(view)
	return true
}

// Seed add fixture users and messages when the shared message set is still empty
func (e *SyncEngine) Seed(ctx context.Context, users []domain.User, msgs []domain.Message) bool {
	e.mu.Lock()
	if len(e.messages) > 0 || e.sealed {
		e.mu.Unlock()
		return false
	}
	for _, u := range users {
		if e.currentUser != nil && u.ID == e.currentUser.ID {
			continue
		}
		e.users[u.ID] = u
	}
	e.unionMessagesLocked(msgs)
	e.writeThroughLocked(ctx, writeMessages|writeUsers)
	view := e.viewLocked()
	e.mu.Unlock()

	e.notify(view)
	return true
}

// Seal refuse every later store write; called once the final offline write is done
func (e *SyncEngine) Seal() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sealed = true
}

// Sealed report whether Seal was called
func (e *SyncEngine) Sealed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sealed
}

// View copy of the current state
func (e *SyncEngine) View() domain.View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

// LastAppliedClock highest store clock folded into memory
func (e *SyncEngine) LastAppliedClock() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastAppliedClock
}

// Degraded report whether the last store operation failed
func (e *SyncEngine) Degraded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.degraded
}

type writeFields int

const (
	writeMessages writeFields = 1 << iota
	writeUsers
)

// writeThroughLocked fold the stored state in, then write the requested keys and a bumped clock
// The store commits only if no other context moved the clock since the read, so every
// committed clock value is unique and no concurrent write is overwritten blind.
// Memory already holds the local change, so a failure only costs durability until the next flush.
func (e *SyncEngine) writeThroughLocked(ctx context.Context, fields writeFields) {
	fields |= e.pending

	var clock int64
	changes, err := e.store.Update(ctx, func(observed domain.Snapshot) domain.PartialSnapshot {
		e.absorbLocked(observed)

		clock = max(observed.Clock, e.lastAppliedClock) + 1
		p := domain.PartialSnapshot{Clock: &clock}
		if fields&writeMessages != 0 {
			p.Messages = append([]domain.Message{}, e.ordered...)
		}
		if fields&writeUsers != 0 && e.currentUser != nil {
			p.Users = e.userListLocked()
			cu := *e.currentUser
			p.CurrentUser = &cu
		}
		return p
	})
	if err != nil {
		e.pending = fields
		if errors.Is(err, domain.ErrWriteConflict) {
			e.log.Warn("write-through kept losing to other writers, flushing on next poll", zap.Error(err))
			return
		}
		e.degradeLocked("write-through", err)
		return
	}
	e.pending = 0
	e.lastAppliedClock = clock
	e.recoverLocked()
	e.publishLocked(ctx, changes)
}

// storeLacksMessagesLocked report whether memory holds messages the stored set does not
// Called after stored has been unioned in, so memory is a superset of it.
func (e *SyncEngine) storeLacksMessagesLocked(stored []domain.Message) bool {
	ids := make(map[string]struct{}, len(stored))
	for _, m := range stored {
		if m.ID != "" {
			ids[m.ID] = struct{}{}
		}
	}
	return len(e.messages) > len(ids)
}

func (e *SyncEngine) publishLocked(ctx context.Context, changes []domain.ChangeEvent) {
	if e.feed == nil {
		return
	}
	for _, ev := range changes {
		ev.Origin = e.contextID
		if err := e.feed.Publish(ctx, ev); err != nil {
			e.log.Warn("publish change event failed", zap.String("key", ev.Key), zap.Error(err))
		}
	}
}

// absorbLocked union messages and take remote users, keeping this context's own record
func (e *SyncEngine) absorbLocked(observed domain.Snapshot) bool {
	changed := e.unionMessagesLocked(observed.Messages)

	for _, u := range observed.Users {
		if u.ID == "" {
			continue
		}
		if e.currentUser != nil && u.ID == e.currentUser.ID {
			continue
		}
		if cur, ok := e.users[u.ID]; !ok || cur != u {
			e.users[u.ID] = u
			changed = true
		}
	}

	if e.currentUser != nil {
		if cur, ok := e.users[e.currentUser.ID]; !ok || cur != *e.currentUser {
			e.users[e.currentUser.ID] = *e.currentUser
			changed = true
		}
	}
	return changed
}

func (e *SyncEngine) unionMessagesLocked(msgs []domain.Message) bool {
	added := false
	for _, m := range msgs {
		if m.ID == "" {
			continue
		}
		if _, ok := e.messages[m.ID]; ok {
			continue
		}
		e.messages[m.ID] = m
		added = true
	}
	if !added {
		return false
	}

	ordered := make([]domain.Message, 0, len(e.messages))
	for _, m := range e.messages {
		ordered = append(ordered, m)
	}
	domain.SortMessages(ordered)
	e.ordered = ordered
	return true
}

func (e *SyncEngine) nextTimestampLocked() int64 {
	ts := e.now()
	if ts <= e.lastTimestamp {
		ts = e.lastTimestamp + 1
	}
	e.lastTimestamp = ts
	return ts
}

func (e *SyncEngine) degradeLocked(op string, err error) {
	if !e.degraded {
		e.log.Warn("store unavailable, continuing in memory only", zap.String("op", op), zap.Error(err))
	} else {
		e.log.Debug("store still unavailable", zap.String("op", op), zap.Error(err))
	}
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		e.log.Error("unexpected store error", zap.String("op", op), zap.Error(err))
	}
	e.degraded = true
}

func (e *SyncEngine) recoverLocked() {
	if e.degraded {
		e.log.Info("store available again")
		e.degraded = false
	}
}

func (e *SyncEngine) userListLocked() []domain.User {
	out := make([]domain.User, 0, len(e.users))
	for _, u := range e.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].DisplayName), strings.ToLower(out[j].DisplayName)
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (e *SyncEngine) viewLocked() domain.View {
	v := domain.View{
		Messages:      append([]domain.Message{}, e.ordered...),
		Users:         e.userListLocked(),
		Rooms:         append([]domain.Room{}, e.rooms...),
		CurrentRoomID: e.currentRoomID,
		Clock:         e.lastAppliedClock,
		Degraded:      e.degraded,
	}
	if e.currentUser != nil {
		cu := *e.currentUser
		v.CurrentUser = &cu
	}
	return v
}

func (e *SyncEngine) notify(v domain.View) {
	if e.listener != nil {
		e.listener(v)
	}
}
