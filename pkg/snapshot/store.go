package snapshot

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/prudhvigodithi/shardmetrics/pkg/types"
)

// rawStore is the per-window embedded KV store backing a WindowBuffer.
// Every WindowBuffer gets its own in-memory instance, opened and torn
// down with the window it belongs to.
type rawStore struct {
	db *badger.DB
}

// row is the serialized form of a HalfEvent as stored in badger.
type row struct {
	Seq   uint64
	Event types.HalfEvent
}

func newRawStore() (*rawStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory badger store: %w", err)
	}

	return &rawStore{db: db}, nil
}

// put appends a serialized HalfEvent keyed by its sequence number. No
// deduplication: the same (rid, op) may legitimately appear under
// multiple sequence numbers (one start row, one end row, or more).
func (s *rawStore) put(seq uint64, ev types.HalfEvent) error {
	r := row{Seq: seq, Event: ev}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal half-event: %w", err)
	}

	key := seqKey(seq)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// fetchAll returns every raw row in the store, in no particular order,
// backing the FetchAll debug dump.
func (s *rawStore) fetchAll() ([]types.HalfEvent, error) {
	var events []types.HalfEvent

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var r row
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return fmt.Errorf("failed to decode row: %w", err)
			}
			events = append(events, r.Event)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan store: %w", err)
	}

	return events, nil
}

// close destroys the store. Once closed a rawStore must not be reused,
// matching the WindowBuffer invariant that a buffer's lifetime equals
// exactly one window.
func (s *rawStore) close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func seqKey(seq uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	return buf
}
