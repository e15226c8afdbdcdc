package storage

import (
	"errors"
	"fmt"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/promisethread/zkvote/log"
	"github.com/promisethread/zkvote/types"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// PromiseHash returns the content hash that pins a promise to its published
// wording. Votes aggregate against this hash, so editing the text would be
// detectable by any client that recorded it.
func PromiseHash(title, description string) types.HexBytes {
	return ethcrypto.Keccak256([]byte(title + ":" + description))
}

// NewPromise stores a new promise with the next sequential ID and returns it.
// The vote counters start at zero and the promise stays in its grace period
// until gracePeriodEnd.
func (s *Storage) NewPromise(title, description string, gracePeriodEnd time.Time) (*types.Promise, error) {
	if title == "" {
		return nil, fmt.Errorf("empty promise title")
	}
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	id, err := s.nextSequence(promiseSeqKey)
	if err != nil {
		return nil, fmt.Errorf("could not assign promise id: %w", err)
	}
	p := &types.Promise{
		ID:             id,
		Title:          title,
		Description:    description,
		PromiseHash:    PromiseHash(title, description),
		GracePeriodEnd: gracePeriodEnd.Unix(),
	}
	if err := s.setArtifact(promisePrefix, promiseKey(p.ID), p); err != nil {
		return nil, err
	}
	log.Infow("promise created", "id", p.ID, "title", p.Title, "hash", p.PromiseHash.String())
	return p, nil
}

// Promise retrieves a promise from the storage.
// It returns ErrNotFound if the promise does not exist.
func (s *Storage) Promise(id uint64) (*types.Promise, error) {
	p := &types.Promise{}
	if err := s.getArtifact(promisePrefix, promiseKey(id), p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPromises returns all stored promises ordered by ID.
func (s *Storage) ListPromises() ([]*types.Promise, error) {
	keys, err := s.listArtifacts(promisePrefix)
	if err != nil {
		return nil, err
	}
	promises := make([]*types.Promise, 0, len(keys))
	for _, key := range keys {
		p := &types.Promise{}
		if err := s.getArtifact(promisePrefix, key, p); err != nil {
			return nil, err
		}
		promises = append(promises, p)
	}
	return promises, nil
}

// FinalizePromise marks a promise as finalized, freezing its aggregates.
// Finalization is terminal and idempotent.
func (s *Storage) FinalizePromise(id uint64) (*types.Promise, error) {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	p := &types.Promise{}
	if err := s.getArtifact(promisePrefix, promiseKey(id), p); err != nil {
		return nil, err
	}
	if p.Finalized {
		return p, nil
	}
	p.Finalized = true
	if err := s.setArtifact(promisePrefix, promiseKey(id), p); err != nil {
		return nil, err
	}
	log.Infow("promise finalized", "id", p.ID, "kept", p.Kept, "broken", p.Broken)
	return p, nil
}

// CastVote spends the nullifier on the promise and updates the aggregate in
// a single write transaction. It returns ErrNotFound if the promise does not
// exist, ErrGracePeriodActive or ErrVotingClosed when the promise is not
// accepting votes, and ErrNullifierUsed when the nullifier has already voted
// on this promise. A retry after a committed vote therefore reports
// ErrNullifierUsed rather than double counting.
func (s *Storage) CastVote(promiseID uint64, nullifier types.HexBytes, kind types.VoteKind, now time.Time) error {
	if !kind.Valid() {
		return fmt.Errorf("invalid vote kind %q", kind)
	}
	if len(nullifier) != types.DigestLen {
		return fmt.Errorf("invalid nullifier length %d", len(nullifier))
	}
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	p := &types.Promise{}
	if err := s.getArtifact(promisePrefix, promiseKey(promiseID), p); err != nil {
		return err
	}
	switch p.Status(now) {
	case types.PromiseStatusFinalized:
		return ErrVotingClosed
	case types.PromiseStatusGracePeriod:
		return ErrGracePeriodActive
	}

	wTx := s.db.WriteTx()
	defer wTx.Discard()

	if err := s.reserveNullifier(wTx, promiseID, nullifier, kind, now); err != nil {
		return err
	}
	switch kind {
	case types.VoteKept:
		p.Kept++
	case types.VoteBroken:
		p.Broken++
	}
	data, err := encodeArtifact(p)
	if err != nil {
		return err
	}
	if err := prefixeddb.NewPrefixedWriteTx(wTx, promisePrefix).Set(promiseKey(promiseID), data); err != nil {
		return err
	}
	if err := wTx.Commit(); err != nil {
		return fmt.Errorf("could not commit vote: %w", err)
	}
	log.Debugw("vote cast", "promise", promiseID, "kind", string(kind))
	return nil
}

// reserveNullifier performs the check-and-insert of the spent nullifier and
// its reverse index entry inside the caller's transaction. The caller must
// hold globalLock.
func (s *Storage) reserveNullifier(wTx db.WriteTx, promiseID uint64, nullifier types.HexBytes, kind types.VoteKind, now time.Time) error {
	nfTx := prefixeddb.NewPrefixedWriteTx(wTx, nullifierPrefix)
	if _, err := nfTx.Get(nullifierKey(promiseID, nullifier)); err == nil {
		return ErrNullifierUsed
	} else if !errors.Is(err, db.ErrKeyNotFound) {
		return fmt.Errorf("could not check nullifier: %w", err)
	}
	record, err := encodeArtifact(&VoteRecord{
		PromiseID: promiseID,
		Kind:      kind,
		CastAt:    now.Unix(),
	})
	if err != nil {
		return err
	}
	if err := nfTx.Set(nullifierKey(promiseID, nullifier), record); err != nil {
		return err
	}
	return prefixeddb.NewPrefixedWriteTx(wTx, nullifierIndexPrefix).
		Set(nullifierIndexKey(nullifier, promiseID), record)
}

// NullifierUsed reports whether the nullifier has already voted on the promise.
func (s *Storage) NullifierUsed(promiseID uint64, nullifier types.HexBytes) (bool, error) {
	_, err := prefixeddb.NewPrefixedReader(s.db, nullifierPrefix).Get(nullifierKey(promiseID, nullifier))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// VotesByNullifier lists the vote records spent by a nullifier across all
// promises, using the reverse index.
func (s *Storage) VotesByNullifier(nullifier types.HexBytes) ([]*VoteRecord, error) {
	var records []*VoteRecord
	var decodeErr error
	if err := prefixeddb.NewPrefixedReader(s.db, nullifierIndexPrefix).Iterate(nullifier, func(_, value []byte) bool {
		r := &VoteRecord{}
		if decodeErr = decodeArtifact(value, r); decodeErr != nil {
			return false
		}
		records = append(records, r)
		return true
	}); err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("could not decode vote record: %w", decodeErr)
	}
	return records, nil
}
