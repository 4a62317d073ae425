// Package rooms is the in-memory Room Store of the relay. It holds the three
// room kinds (video, collaboration chat and build rooms) and implements their
// lifecycle rules: creation, joining, leaving with host/owner succession,
// deletion on empty, the chat log and the build-room pull request workflow.
//
// A Store is not safe for concurrent use. The hub owns one and touches it from
// a single goroutine, which makes every operation atomic with respect to the
// others.
package rooms

import (
	"fmt"
	"math/rand"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"
)

// Store maps room ids to room state. The maps are never exposed; callers get
// copies.
type Store struct {
	video      map[string]*videoRoom
	chat       map[string]*chatRoom
	build      map[string]*buildRoom
	buildOrder []string

	newID        func() string
	now          func() time.Time
	displayName  func(userID string) string
	historyLimit int
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides the generator used for build room and message ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithClock overrides the time source used for message timestamps.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// WithDisplayNames overrides how existing participants are named on join.
func WithDisplayNames(fn func(userID string) string) Option {
	return func(s *Store) { s.displayName = fn }
}

// WithChatHistoryLimit caps every chat log at n messages, evicting the oldest.
// Zero keeps logs unbounded.
func WithChatHistoryLimit(n int) Option {
	return func(s *Store) {
		if n >= 0 {
			s.historyLimit = n
		}
	}
}

// NewStore returns an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		video:       make(map[string]*videoRoom),
		chat:        make(map[string]*chatRoom),
		build:       make(map[string]*buildRoom),
		newID:       func() string { return ulid.Make().String() },
		now:         time.Now,
		displayName: randomDisplayName,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Counts returns the number of live video, chat and build rooms.
func (s *Store) Counts() (video, chat, build int) {
	return len(s.video), len(s.chat), len(s.build)
}

func randomDisplayName(string) string {
	return fmt.Sprintf("User%d", rand.Intn(1000))
}

func (s *Store) removeBuildOrder(roomID string) {
	if i := slices.Index(s.buildOrder, roomID); i >= 0 {
		s.buildOrder = slices.Delete(s.buildOrder, i, i+1)
	}
}
