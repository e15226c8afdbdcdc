package census

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.vocdoni.io/dvote/db"

	"github.com/promisethread/zkvote/log"
	"github.com/promisethread/zkvote/types"
)

var (
	// ErrNoPublishedSet is returned when no anonymity set has been
	// published yet.
	ErrNoPublishedSet = fmt.Errorf("no anonymity set published")
	// ErrSetNotFound is returned when a set for the requested epoch is not
	// in the local database.
	ErrSetNotFound = fmt.Errorf("anonymity set not found in the local database")
)

// currentSetKey points at the epoch of the currently published set.
var currentSetKey = []byte("current")

// Store keeps the published anonymity sets in the key-value database and
// holds the currently published one behind an atomic pointer. Publication is
// an atomic swap: a request either observes the previous complete set or the
// new complete set, never a half-built one.
type Store struct {
	buildMu sync.Mutex // serializes build+publish cycles
	db      db.Database
	current atomic.Pointer[PublishedSet]
}

// NewStore opens the store over the given database and loads the currently
// published set, if any. The caller is expected to hand over a dedicated
// (usually prefixed) database.
func NewStore(d db.Database) (*Store, error) {
	s := &Store{db: d}
	epoch, err := s.db.Get(currentSetKey)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return s, nil
		}
		return nil, fmt.Errorf("load current epoch: %w", err)
	}
	set, err := s.loadSet(epoch)
	if err != nil {
		return nil, err
	}
	s.current.Store(set)
	log.Infow("loaded published anonymity set",
		"epoch", set.Epoch.String(), "root", set.Root.String(), "size", set.Size)
	return s, nil
}

// BuildAndPublish runs a full registry epoch: builds the anonymity set from
// the given snapshot and publishes it, replacing the current one. Builds are
// exclusive; concurrent readers keep observing the previous set until the
// new one is completely persisted.
func (s *Store) BuildAndPublish(entries []RegistryEntry, depth int) (*PublishedSet, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	set, err := BuildSet(entries, depth)
	if err != nil {
		return nil, err
	}
	if err := s.publish(set); err != nil {
		return nil, err
	}
	return set, nil
}

// publish persists the set and swaps the current pointer. Proofs generated
// against the previous root become stale and are rejected by the verifier
// from this point on.
func (s *Store) publish(set *PublishedSet) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(set); err != nil {
		return fmt.Errorf("encode anonymity set: %w", err)
	}
	wTx := s.db.WriteTx()
	defer wTx.Discard()
	if err := wTx.Set(set.Epoch[:], buf.Bytes()); err != nil {
		return err
	}
	if err := wTx.Set(currentSetKey, set.Epoch[:]); err != nil {
		return err
	}
	if err := wTx.Commit(); err != nil {
		return err
	}
	s.current.Store(set)
	log.Infow("published anonymity set",
		"epoch", set.Epoch.String(), "root", set.Root.String(), "size", set.Size)
	return nil
}

// Current returns the currently published set, or ErrNoPublishedSet if no
// epoch has been built yet.
func (s *Store) Current() (*PublishedSet, error) {
	set := s.current.Load()
	if set == nil {
		return nil, ErrNoPublishedSet
	}
	return set, nil
}

// Root returns the currently published root, or nil if there is none.
func (s *Store) Root() types.HexBytes {
	if set := s.current.Load(); set != nil {
		return set.Root
	}
	return nil
}

func (s *Store) loadSet(epoch []byte) (*PublishedSet, error) {
	data, err := s.db.Get(epoch)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %x", ErrSetNotFound, epoch)
		}
		return nil, err
	}
	set := &PublishedSet{}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(set); err != nil {
		return nil, fmt.Errorf("decode anonymity set: %w", err)
	}
	return set, nil
}
