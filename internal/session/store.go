package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

var ErrChallengeNotFound = errors.New("challenge not found or expired")

// ChallengeStore keeps one pending login nonce per address, expiring after ttl.
type ChallengeStore struct {
	db     *badger.DB
	ttl    time.Duration
	logger zerolog.Logger
}

// OpenBadger opens the store directory, or an in-memory store when dir is empty.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return db, nil
}

func NewChallengeStore(db *badger.DB, ttl time.Duration, logger zerolog.Logger) *ChallengeStore {
	return &ChallengeStore{db: db, ttl: ttl, logger: logger}
}

func challengeKey(address string) []byte {
	return []byte("challenge:" + address)
}

func (s *ChallengeStore) Put(address, nonce string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(challengeKey(address), []byte(nonce)).WithTTL(s.ttl)
		return txn.SetEntry(e)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("address", address).Msg("Failed to store challenge")
		return err
	}
	return nil
}

// Peek returns the pending nonce for address without consuming it.
func (s *ChallengeStore) Peek(address string) (string, error) {
	var nonce string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(challengeKey(address))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		nonce = string(val)
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrChallengeNotFound
	}
	if err != nil {
		s.logger.Error().Err(err).Str("address", address).Msg("Failed to load challenge")
		return "", err
	}
	return nonce, nil
}

// Take returns the pending nonce for address and deletes it.
func (s *ChallengeStore) Take(address string) (string, error) {
	var nonce string
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(challengeKey(address))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		nonce = string(val)
		return txn.Delete(challengeKey(address))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrChallengeNotFound
	}
	if err != nil {
		s.logger.Error().Err(err).Str("address", address).Msg("Failed to load challenge")
		return "", err
	}
	return nonce, nil
}
