package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"point-service/internal/models"
)

var (
	pointsBucket    = []byte("user_points")
	historiesBucket = []byte("point_histories")
)

// Bolt keeps one record per user in user_points and one nested bucket per
// user under point_histories. The histories bucket sequence numbers entries
// across all users.
type Bolt struct {
	bdb *bbolt.DB
}

func NewBolt(bdb *bbolt.DB) (*Bolt, error) {
	err := bdb.Update(func(btx *bbolt.Tx) error {
		if _, err := btx.CreateBucketIfNotExists(pointsBucket); err != nil {
			return err
		}
		_, err := btx.CreateBucketIfNotExists(historiesBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}
	return &Bolt{bdb: bdb}, nil
}

func OpenBolt(path string) (*Bolt, error) {
	bdb, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	b, err := NewBolt(bdb)
	if err != nil {
		bdb.Close()
		return nil, err
	}
	return b, nil
}

func (b *Bolt) Balances() BalanceStore { return boltTables{run: b.run} }

func (b *Bolt) Ledger() LedgerStore { return boltTables{run: b.run} }

func (b *Bolt) Close() error { return b.bdb.Close() }

func (b *Bolt) InTx(ctx context.Context, fn func(BalanceStore, LedgerStore) error) error {
	return b.bdb.Update(func(btx *bbolt.Tx) error {
		tables := boltTables{run: func(_ bool, f func(*bbolt.Tx) error) error {
			return f(btx)
		}}
		return fn(tables, tables)
	})
}

func (b *Bolt) run(writable bool, fn func(*bbolt.Tx) error) error {
	if writable {
		return b.bdb.Update(fn)
	}
	return b.bdb.View(fn)
}

type boltTables struct {
	run func(writable bool, fn func(*bbolt.Tx) error) error
}

func (t boltTables) Read(_ context.Context, userID int64) (models.UserPoint, bool, error) {
	var row models.UserPoint
	var found bool

	err := t.run(false, func(btx *bbolt.Tx) error {
		v := btx.Bucket(pointsBucket).Get(encodeID(userID))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &row)
	})
	if err != nil {
		return models.UserPoint{}, false, fmt.Errorf("failed to fetch point: %w", err)
	}
	return row, found, nil
}

func (t boltTables) Write(_ context.Context, userID, point, updateMillis int64) error {
	data, err := json.Marshal(models.UserPoint{ID: userID, Point: point, UpdateMillis: updateMillis})
	if err != nil {
		return err
	}

	err = t.run(true, func(btx *bbolt.Tx) error {
		return btx.Bucket(pointsBucket).Put(encodeID(userID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to update point: %w", err)
	}
	return nil
}

func (t boltTables) Append(_ context.Context, userID, point int64, kind models.TransactionType, updateMillis int64) (int64, error) {
	if !kind.Valid() {
		return 0, ErrInvalidType
	}

	var id int64
	err := t.run(true, func(btx *bbolt.Tx) error {
		root := btx.Bucket(historiesBucket)
		seq, err := root.NextSequence()
		if err != nil {
			return err
		}

		user, err := root.CreateBucketIfNotExists(encodeID(userID))
		if err != nil {
			return err
		}

		id = int64(seq)
		data, err := json.Marshal(models.PointHistory{
			ID:           id,
			UserID:       userID,
			Amount:       point,
			Type:         kind,
			UpdateMillis: updateMillis,
		})
		if err != nil {
			return err
		}
		return user.Put(encodeID(id), data)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to record point history: %w", err)
	}
	return id, nil
}

func (t boltTables) ReadAll(_ context.Context, userID int64) ([]models.PointHistory, error) {
	histories := []models.PointHistory{}

	err := t.run(false, func(btx *bbolt.Tx) error {
		user := btx.Bucket(historiesBucket).Bucket(encodeID(userID))
		if user == nil {
			return nil
		}

		// keys are big-endian ids, so cursor order is sequence order
		return user.ForEach(func(_, v []byte) error {
			var h models.PointHistory
			if err := json.Unmarshal(v, &h); err != nil {
				return err
			}
			histories = append(histories, h)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch point histories: %w", err)
	}
	return histories, nil
}

func encodeID(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}
