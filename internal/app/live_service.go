package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"liveclass-admin/internal/domain"
	"liveclass-admin/internal/metrics"
)

const archiveDateLayout = "1/2/2006"

// LiveService moves the singleton live record between idle and live.
type LiveService struct {
	store   *guardedStore
	now     func() time.Time
	loc     *time.Location
	metrics *metrics.Metrics
	feed    *liveFeed
}

func NewLiveService(store DocumentStore, cfg ServiceConfig) *LiveService {
	cfg = cfg.withDefaults()
	return &LiveService{
		store:   guard(store, cfg),
		now:     cfg.Now,
		loc:     cfg.Location,
		metrics: cfg.Metrics,
		feed:    newLiveFeed(),
	}
}

// StartLive overwrites the live record with the embed URL of rawLink.
// Invalid links fail before any write. Starting while already live overwrites.
func (s *LiveService) StartLive(ctx context.Context, rawLink string) (domain.LiveStreamState, error) {
	videoID, ok := ExtractVideoID(rawLink)
	if !ok {
		s.metrics.LiveTransition("start", domain.ErrInvalidLink)
		return domain.LiveStreamState{}, domain.ErrInvalidLink
	}

	state := domain.LiveStreamState{
		URL:       EmbedURL(videoID),
		IsLive:    true,
		Timestamp: domain.NewTimestamp(s.now()),
	}
	data, err := json.Marshal(state)
	if err != nil {
		return domain.LiveStreamState{}, err
	}
	if err := s.store.Set(ctx, domain.CollectionLiveStream, domain.KeyCurrentLive, data); err != nil {
		s.metrics.LiveTransition("start", err)
		return domain.LiveStreamState{}, err
	}

	s.metrics.LiveTransition("start", nil)
	s.feed.publish(state)
	return state, nil
}

// EndLive archives the current stream and then clears the live record.
// The archive is appended first; if that fails the live record is left as is.
func (s *LiveService) EndLive(ctx context.Context) (domain.ArchivedClass, error) {
	var archived domain.ArchivedClass
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx DocumentStore) error {
		var err error
		archived, err = s.endLive(ctx, tx)
		return err
	})
	s.metrics.LiveTransition("end", err)
	if err != nil {
		return domain.ArchivedClass{}, err
	}

	s.feed.publish(domain.LiveStreamState{})
	return archived, nil
}

func (s *LiveService) endLive(ctx context.Context, store DocumentStore) (domain.ArchivedClass, error) {
	current, found, err := readLiveState(ctx, store)
	if err != nil {
		return domain.ArchivedClass{}, err
	}
	if !found || current.URL == "" {
		return domain.ArchivedClass{}, domain.ErrNoActiveStream
	}

	now := s.now()
	archived := domain.ArchivedClass{
		URL:   current.URL,
		Title: "Class on " + now.In(s.loc).Format(archiveDateLayout),
		Date:  now,
	}
	data, err := json.Marshal(archived)
	if err != nil {
		return domain.ArchivedClass{}, err
	}
	id, err := store.Append(ctx, domain.CollectionPastClasses, data)
	if err != nil {
		return domain.ArchivedClass{}, err
	}
	archived.ID = id

	cleared, err := json.Marshal(domain.LiveStreamState{})
	if err != nil {
		return domain.ArchivedClass{}, err
	}
	if err := store.Set(ctx, domain.CollectionLiveStream, domain.KeyCurrentLive, cleared); err != nil {
		return domain.ArchivedClass{}, err
	}
	return archived, nil
}

// Current returns the live record, or the idle state when none was ever written.
func (s *LiveService) Current(ctx context.Context) (domain.LiveStreamState, error) {
	state, _, err := readLiveState(ctx, s.store)
	return state, err
}

// Subscribe returns a channel that receives the current state followed by every change.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *LiveService) Subscribe(ctx context.Context) (<-chan domain.LiveStreamState, func(), error) {
	version := s.feed.currentVersion()
	state, err := s.Current(ctx)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.feed.subscribe(version, state)
	return ch, cancel, nil
}

func readLiveState(ctx context.Context, store DocumentStore) (domain.LiveStreamState, bool, error) {
	doc, found, err := store.Get(ctx, domain.CollectionLiveStream, domain.KeyCurrentLive)
	if err != nil || !found {
		return domain.LiveStreamState{}, false, err
	}
	var state domain.LiveStreamState
	if err := json.Unmarshal(doc.Data, &state); err != nil {
		return domain.LiveStreamState{}, false, persistenceErr("decode live state", err)
	}
	return state, true, nil
}

// liveFeed fans state changes out to websocket subscribers.
type liveFeed struct {
	mu          sync.Mutex
	version     uint64
	last        domain.LiveStreamState
	subscribers map[chan domain.LiveStreamState]struct{}
}

func newLiveFeed() *liveFeed {
	return &liveFeed{subscribers: make(map[chan domain.LiveStreamState]struct{})}
}

func (f *liveFeed) currentVersion() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version
}

// subscribe registers a subscriber. initial was read at readVersion; if a publish
// happened since, the published state is newer and is sent instead.
func (f *liveFeed) subscribe(readVersion uint64, initial domain.LiveStreamState) (<-chan domain.LiveStreamState, func()) {
	ch := make(chan domain.LiveStreamState, 8)

	f.mu.Lock()
	if f.version != readVersion {
		initial = f.last
	}
	f.subscribers[ch] = struct{}{}
	ch <- initial
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

func (f *liveFeed) publish(state domain.LiveStreamState) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.version++
	f.last = state
	for ch := range f.subscribers {
		select {
		case ch <- state:
		default:
			// Slow subscriber: drop the oldest queued state so the newest always lands.
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
}
