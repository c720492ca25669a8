package signal

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/sleepsense/sleepview/pkg/schema"
)

// Store owns the current recording snapshot. Readers call Snapshot and never
// see a partially appended batch. Appends are serialised by the store.
type Store struct {
	logger   *zap.Logger
	source   string
	channels []schema.Channel

	current atomic.Pointer[Recording]

	mu     sync.Mutex
	times  []float64
	values map[schema.Channel][]float64
}

// AppendResult reports how many samples of a batch were kept.
type AppendResult struct {
	Accepted int
	Dropped  int
}

// NewStore wraps a loaded recording for finite mode, or seeds a growing store.
func NewStore(logger *zap.Logger, source string, initial *Recording) *Store {
	s := &Store{
		logger: logger,
		source: source,
		values: make(map[schema.Channel][]float64),
	}
	if initial != nil {
		s.channels = append(s.channels, initial.Channels()...)
		s.times = initial.Times()
		for _, ch := range s.channels {
			s.values[ch] = initial.Values(ch)
		}
		s.current.Store(initial)
	}
	return s
}

// NewEmptyStore creates a growing store for the given channels.
func NewEmptyStore(logger *zap.Logger, source string, channels []schema.Channel) *Store {
	s := &Store{
		logger:   logger,
		source:   source,
		channels: append([]schema.Channel(nil), channels...),
		values:   make(map[schema.Channel][]float64, len(channels)),
	}
	cols := make(map[schema.Channel][]float64, len(channels))
	for _, ch := range channels {
		cols[ch] = nil
	}
	rec, _ := newRecording(source, nil, cols)
	s.current.Store(rec)
	return s
}

// Snapshot returns the most recently published recording.
func (s *Store) Snapshot() *Recording {
	return s.current.Load()
}

func (s *Store) Source() string {
	return s.source
}

func (s *Store) Channels() []schema.Channel {
	return s.channels
}

// Append adds samples in time order and publishes a new snapshot. Samples that
// lack a store channel or go back in time are dropped.
func (s *Store) Append(samples []schema.Sample) AppendResult {
	var res AppendResult
	if len(samples) == 0 {
		return res
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	last := 0.0
	hasLast := len(s.times) > 0
	if hasLast {
		last = s.times[len(s.times)-1]
	}

	for _, smp := range samples {
		t := smp.Seconds()
		if hasLast && t < last {
			res.Dropped++
			continue
		}
		if !s.complete(smp) {
			res.Dropped++
			continue
		}
		s.times = append(s.times, t)
		for _, ch := range s.channels {
			s.values[ch] = append(s.values[ch], smp.Values[ch])
		}
		last, hasLast = t, true
		res.Accepted++
	}

	if res.Accepted > 0 {
		cols := make(map[schema.Channel][]float64, len(s.channels))
		for _, ch := range s.channels {
			cols[ch] = s.values[ch]
		}
		rec, err := newRecording(s.source, s.times, cols)
		if err != nil {
			s.logger.Error("Failed to publish snapshot", zap.String("source", s.source), zap.Error(err))
			return res
		}
		s.current.Store(rec)
	}

	if res.Dropped > 0 {
		s.logger.Debug("Dropped samples on append",
			zap.String("source", s.source),
			zap.Int("dropped", res.Dropped),
			zap.Int("accepted", res.Accepted))
	}
	return res
}

func (s *Store) complete(smp schema.Sample) bool {
	for _, ch := range s.channels {
		if _, ok := smp.Values[ch]; !ok {
			return false
		}
	}
	return true
}
