package storage

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/promisethread/zkvote/log"
	"github.com/promisethread/zkvote/types"
)

// RegisterCredential issues an anonymous session credential for a verified
// nullifier. Registration is idempotent: proving eligibility again returns
// the credential issued the first time instead of minting a second token.
func (s *Storage) RegisterCredential(nullifier types.HexBytes, now time.Time) (*Credential, error) {
	if len(nullifier) != types.DigestLen {
		return nil, fmt.Errorf("invalid nullifier length %d", len(nullifier))
	}
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	existing := &Credential{}
	err := s.getArtifact(credentialPrefix, nullifier, existing)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	cred := &Credential{
		Nullifier: nullifier,
		Token:     uuid.New().String(),
		IssuedAt:  now.Unix(),
	}
	if err := s.setArtifact(credentialPrefix, nullifier, cred); err != nil {
		return nil, err
	}
	log.Debugw("credential issued", "nullifier", nullifier.String())
	return cred, nil
}

// Credential retrieves the credential bound to a nullifier.
// It returns ErrNotFound if no credential has been issued for it.
func (s *Storage) Credential(nullifier types.HexBytes) (*Credential, error) {
	cred := &Credential{}
	if err := s.getArtifact(credentialPrefix, nullifier, cred); err != nil {
		return nil, err
	}
	return cred, nil
}

// AuthenticateCredential checks that the token presented for a nullifier
// matches the issued credential. It returns ErrNotFound when no credential
// exists and false on token mismatch.
func (s *Storage) AuthenticateCredential(nullifier types.HexBytes, token string) (bool, error) {
	cred, err := s.Credential(nullifier)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(cred.Token), []byte(token)) == 1, nil
}
