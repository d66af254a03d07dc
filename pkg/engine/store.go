// ABOUTME: Sample store holding decoded buffers keyed by sound
// ABOUTME: Copy-on-write map published atomically so the audio path never locks
package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
	"github.com/Resonate-Protocol/casino-audio/pkg/audio/decode"
	"github.com/Resonate-Protocol/casino-audio/pkg/audio/resample"
	"github.com/Resonate-Protocol/casino-audio/pkg/mixer"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultLoaders is the number of concurrent decoders used by LoadCatalog
const DefaultLoaders = 4

type bufferMap map[mixer.SoundID]*audio.Buffer

// SampleStore owns every decoded buffer. Buffers are converted to the
// engine rate on insert and never modified afterwards.
type SampleStore struct {
	sampleRate int
	loaders    int
	open       func(string) (io.ReadCloser, error)

	mu      sync.Mutex // serializes writers
	buffers atomic.Pointer[bufferMap]
}

// NewSampleStore creates an empty store for the given engine rate
func NewSampleStore(sampleRate, loaders int) *SampleStore {
	if loaders <= 0 {
		loaders = DefaultLoaders
	}
	s := &SampleStore{
		sampleRate: sampleRate,
		loaders:    loaders,
		open:       func(path string) (io.ReadCloser, error) { return os.Open(path) },
	}
	empty := bufferMap{}
	s.buffers.Store(&empty)
	return s
}

// SetOpener replaces the file opener used by Load and LoadCatalog
func (s *SampleStore) SetOpener(open func(string) (io.ReadCloser, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = open
}

// Put publishes a buffer, resampling it to the engine rate when needed
func (s *SampleStore) Put(id mixer.SoundID, buf *audio.Buffer) error {
	if buf == nil || buf.Channels < 1 || buf.Frames() == 0 {
		return fmt.Errorf("%w: %s", ErrInvalidBuffer, id)
	}
	buf = resample.Buffer(buf, s.sampleRate)

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := *s.buffers.Load()
	next := make(bufferMap, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	next[id] = buf
	s.buffers.Store(&next)
	return nil
}

// Get returns the buffer for a sound
func (s *SampleStore) Get(id mixer.SoundID) (*audio.Buffer, bool) {
	buf, ok := (*s.buffers.Load())[id]
	return buf, ok
}

// Has reports whether a sound is loaded
func (s *SampleStore) Has(id mixer.SoundID) bool {
	_, ok := s.Get(id)
	return ok
}

// Len returns the number of loaded sounds
func (s *SampleStore) Len() int {
	return len(*s.buffers.Load())
}

// IDs returns the loaded sounds in sorted order
func (s *SampleStore) IDs() []mixer.SoundID {
	m := *s.buffers.Load()
	ids := make([]mixer.SoundID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Load decodes a single asset and publishes it
func (s *SampleStore) Load(id mixer.SoundID, path string) error {
	s.mu.Lock()
	open := s.open
	s.mu.Unlock()

	buf, err := decode.DecodeFile(open, path, audio.Format{})
	if err != nil {
		return err
	}
	if err := s.Put(id, buf); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"sound":    id,
		"path":     path,
		"duration": buf.Duration(),
	}).Debug("Loaded sound")
	return nil
}

// LoadCatalog decodes every catalog entry under root on a bounded set of
// workers. A failed entry is logged and left absent; only cancellation of
// ctx is reported as an error.
func (s *SampleStore) LoadCatalog(ctx context.Context, cat mixer.Catalog, root string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.loaders)

	var failed atomic.Int32
	for _, id := range cat.IDs() {
		path := filepath.Join(root, cat[id])
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.Load(id, path); err != nil {
				failed.Add(1)
				log.WithFields(logrus.Fields{
					"sound": id,
					"path":  path,
					"error": err,
				}).Warn("Failed to load sound")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("catalog load cancelled: %w", err)
	}

	log.WithFields(logrus.Fields{
		"loaded": len(cat) - int(failed.Load()),
		"failed": failed.Load(),
	}).Info("Catalog loaded")
	return nil
}
