package store

import (
	"context"
	"sync"

	"point-service/internal/models"
)

// UserPointTable keeps the latest balance record per user.
type UserPointTable struct {
	mu   sync.RWMutex
	rows map[int64]models.UserPoint
}

func NewUserPointTable() *UserPointTable {
	return &UserPointTable{rows: make(map[int64]models.UserPoint)}
}

func (t *UserPointTable) Read(_ context.Context, userID int64) (models.UserPoint, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	row, ok := t.rows[userID]
	return row, ok, nil
}

func (t *UserPointTable) Write(_ context.Context, userID, point, updateMillis int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rows[userID] = models.UserPoint{ID: userID, Point: point, UpdateMillis: updateMillis}
	return nil
}

// PointHistoryTable is an append-only ledger. Sequence ids are shared by all
// users and strictly increasing.
type PointHistoryTable struct {
	mu   sync.RWMutex
	seq  int64
	rows map[int64][]models.PointHistory
}

func NewPointHistoryTable() *PointHistoryTable {
	return &PointHistoryTable{rows: make(map[int64][]models.PointHistory)}
}

func (t *PointHistoryTable) Append(_ context.Context, userID, point int64, kind models.TransactionType, updateMillis int64) (int64, error) {
	if !kind.Valid() {
		return 0, ErrInvalidType
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	t.appendLocked(models.PointHistory{
		ID:           t.seq,
		UserID:       userID,
		Amount:       point,
		Type:         kind,
		UpdateMillis: updateMillis,
	})
	return t.seq, nil
}

func (t *PointHistoryTable) appendLocked(entry models.PointHistory) {
	t.rows[entry.UserID] = append(t.rows[entry.UserID], entry)
}

func (t *PointHistoryTable) nextID() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	return t.seq
}

func (t *PointHistoryTable) ReadAll(_ context.Context, userID int64) ([]models.PointHistory, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rows := t.rows[userID]
	out := make([]models.PointHistory, len(rows))
	copy(out, rows)
	return out, nil
}

// Memory is the process-wide in-memory store. Nothing survives a restart.
type Memory struct {
	points    *UserPointTable
	histories *PointHistoryTable
}

func NewMemory() *Memory {
	return &Memory{
		points:    NewUserPointTable(),
		histories: NewPointHistoryTable(),
	}
}

func (m *Memory) Balances() BalanceStore { return m.points }

func (m *Memory) Ledger() LedgerStore { return m.histories }

func (m *Memory) Close() error { return nil }

// InTx stages writes in a memTx and applies them only when fn succeeds.
func (m *Memory) InTx(ctx context.Context, fn func(BalanceStore, LedgerStore) error) error {
	tx := &memTx{m: m}
	if err := fn(tx, tx); err != nil {
		return err
	}
	m.commit(tx)
	return nil
}

func (m *Memory) commit(tx *memTx) {
	if len(tx.points) == 0 && len(tx.entries) == 0 {
		return
	}

	m.histories.mu.Lock()
	for _, e := range tx.entries {
		m.histories.appendLocked(e)
	}
	m.histories.mu.Unlock()

	m.points.mu.Lock()
	for _, p := range tx.points {
		m.points.rows[p.ID] = p
	}
	m.points.mu.Unlock()
}

type memTx struct {
	m       *Memory
	points  []models.UserPoint
	entries []models.PointHistory
}

func (tx *memTx) Read(ctx context.Context, userID int64) (models.UserPoint, bool, error) {
	for i := len(tx.points) - 1; i >= 0; i-- {
		if tx.points[i].ID == userID {
			return tx.points[i], true, nil
		}
	}
	return tx.m.points.Read(ctx, userID)
}

func (tx *memTx) Write(_ context.Context, userID, point, updateMillis int64) error {
	tx.points = append(tx.points, models.UserPoint{ID: userID, Point: point, UpdateMillis: updateMillis})
	return nil
}

func (tx *memTx) Append(_ context.Context, userID, point int64, kind models.TransactionType, updateMillis int64) (int64, error) {
	if !kind.Valid() {
		return 0, ErrInvalidType
	}

	id := tx.m.histories.nextID()
	tx.entries = append(tx.entries, models.PointHistory{
		ID:           id,
		UserID:       userID,
		Amount:       point,
		Type:         kind,
		UpdateMillis: updateMillis,
	})
	return id, nil
}

func (tx *memTx) ReadAll(ctx context.Context, userID int64) ([]models.PointHistory, error) {
	out, err := tx.m.histories.ReadAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, e := range tx.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}
