package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	conversationsBucket = []byte("conversations")
	seenBucket          = []byte("seen_messages")
)

const maxConversationTurns = 20

// ConversationTurn is one message of an assistant conversation (user or assistant).
type ConversationTurn struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// BoltStore keeps assistant conversation history and recently seen webhook
// message ids.
type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(conversationsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(seenBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) GetHistory(phone string) ([]ConversationTurn, error) {
	var turns []ConversationTurn
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(conversationsBucket).Get([]byte(phone))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &turns)
	})
	return turns, err
}

func (s *BoltStore) SaveHistory(phone string, turns []ConversationTurn) error {
	if len(turns) > maxConversationTurns {
		turns = turns[len(turns)-maxConversationTurns:]
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(turns)
		if err != nil {
			return err
		}
		return tx.Bucket(conversationsBucket).Put([]byte(phone), data)
	})
}

// MarkSeen records a webhook message id. It returns false if the id was
// already recorded.
func (s *BoltStore) MarkSeen(messageID string, at time.Time) (bool, error) {
	first := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(seenBucket)
		if b.Get([]byte(messageID)) != nil {
			return nil
		}
		first = true
		v := make([]byte, 8)
		binary.BigEndian.PutUint64(v, uint64(at.UnixNano()))
		return b.Put([]byte(messageID), v)
	})
	return first, err
}

// PruneSeen deletes message ids recorded before the given time.
func (s *BoltStore) PruneSeen(before time.Time) (int, error) {
	cutoff := before.UnixNano()
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(seenBucket)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			if len(v) != 8 || int64(binary.BigEndian.Uint64(v)) < cutoff {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
