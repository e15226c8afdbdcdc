// Package storage persists every artifact of the anonymous voting core in a
// single prefixed key-value database. The following prefixes are used:
//   - 'pr/' for promises (ballot items with their vote aggregates)
//   - 'nf/' for spent nullifiers (promiseID + nullifier -> vote record)
//   - 'vn/' for the nullifier index (nullifier + promiseID, reverse lookup)
//   - 'cr/' for anonymous credentials (nullifier -> session token)
//   - 'sq/' for monotonic sequence counters
//   - 'cs_' prefix for the census database (anonymity set snapshots)
//
// The nullifier entries double as the double-vote guard: reserving a
// nullifier and updating the promise aggregate happen in the same write
// transaction, so a crash can never leave a counted vote without its spent
// nullifier or vice versa.
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/promisethread/zkvote/census"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrNullifierUsed     = errors.New("nullifier already used")
	ErrGracePeriodActive = errors.New("grace period active")
	ErrVotingClosed      = errors.New("voting closed")

	// Prefixes for the keys in the database.
	promisePrefix        = []byte("pr/")
	nullifierPrefix      = []byte("nf/")
	nullifierIndexPrefix = []byte("vn/")
	credentialPrefix     = []byte("cr/")
	sequencePrefix       = []byte("sq/")
	censusDBprefix       = []byte("cs_")
)

// promiseSeqKey is the sequence counter used to assign promise IDs.
var promiseSeqKey = []byte("promise")

// Storage is the persistence layer of the voting core. All mutating
// operations serialize on globalLock so that check-and-insert sequences
// observe a consistent view of the database.
type Storage struct {
	db         db.Database
	censusDB   *census.Store
	globalLock sync.Mutex
}

// New creates a new Storage instance on top of the given database. The
// census store is mounted on its own prefixed sub-database.
func New(database db.Database) (*Storage, error) {
	censusDB, err := census.NewStore(prefixeddb.NewPrefixedDatabase(database, censusDBprefix))
	if err != nil {
		return nil, fmt.Errorf("could not open census store: %w", err)
	}
	return &Storage{
		db:       database,
		censusDB: censusDB,
	}, nil
}

// Census returns the census store instance.
func (s *Storage) Census() *census.Store {
	return s.censusDB
}

// Close closes the storage.
func (s *Storage) Close() {
	if err := s.db.Close(); err != nil {
		fmt.Printf("failed to close storage: %v", err)
	}
}

// nextSequence increments and returns the named monotonic counter. The first
// value returned for a fresh counter is 1.
func (s *Storage) nextSequence(name []byte) (uint64, error) {
	wTx := prefixeddb.NewPrefixedWriteTx(s.db.WriteTx(), sequencePrefix)
	defer wTx.Discard()

	var next uint64 = 1
	if data, err := wTx.Get(name); err == nil {
		next = binary.BigEndian.Uint64(data) + 1
	} else if !errors.Is(err, db.ErrKeyNotFound) {
		return 0, err
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next)
	if err := wTx.Set(name, buf); err != nil {
		return 0, err
	}
	return next, wTx.Commit()
}

// setArtifact helper function stores any kind of artifact in the storage,
// under the prefix and key provided.
func (s *Storage) setArtifact(prefix []byte, key []byte, artifact any) error {
	data, err := encodeArtifact(artifact)
	if err != nil {
		return err
	}
	wTx := prefixeddb.NewPrefixedWriteTx(s.db.WriteTx(), prefix)
	defer wTx.Discard()
	if err := wTx.Set(key, data); err != nil {
		return err
	}
	return wTx.Commit()
}

// getArtifact helper function retrieves an artifact from the storage and
// decodes it into out. It returns ErrNotFound if the key does not exist.
func (s *Storage) getArtifact(prefix []byte, key []byte, out any) error {
	data, err := prefixeddb.NewPrefixedReader(s.db, prefix).Get(key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := decodeArtifact(data, out); err != nil {
		return fmt.Errorf("could not decode artifact: %w", err)
	}
	return nil
}

// listArtifacts retrieves all the keys for a given prefix.
func (s *Storage) listArtifacts(prefix []byte) ([][]byte, error) {
	var keys [][]byte
	if err := prefixeddb.NewPrefixedReader(s.db, prefix).Iterate(nil, func(k, _ []byte) bool {
		kcopy := make([]byte, len(k))
		copy(kcopy, k)
		keys = append(keys, kcopy)
		return true
	}); err != nil {
		return nil, err
	}
	return keys, nil
}
