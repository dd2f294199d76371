package services

import (
	"context"
	"fmt"
	"time"

	"point-service/internal/models"
	"point-service/internal/store"

	"github.com/rs/zerolog"
)

// PointQueryService serves read-only lookups. It does not take the per-user
// locks, so a read racing a charge or use may see the previous balance.
type PointQueryService struct {
	balances store.BalanceStore
	ledger   store.LedgerStore
	logger   zerolog.Logger
	now      func() int64
}

func NewPointQueryService(balances store.BalanceStore, ledger store.LedgerStore, logger zerolog.Logger) *PointQueryService {
	return &PointQueryService{
		balances: balances,
		ledger:   ledger,
		logger:   logger,
		now:      func() int64 { return time.Now().UnixMilli() },
	}
}

// GetPoint returns the stored record, or a zero balance stamped with the
// current time for a user who has never transacted.
func (s *PointQueryService) GetPoint(ctx context.Context, userID int64) (models.UserPoint, error) {
	point, ok, err := s.balances.Read(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Error fetching point")
		return models.UserPoint{}, fmt.Errorf("database error: %w", err)
	}
	if !ok {
		return models.UserPoint{ID: userID, Point: 0, UpdateMillis: s.now()}, nil
	}
	return point, nil
}

func (s *PointQueryService) GetHistories(ctx context.Context, userID int64) ([]models.PointHistory, error) {
	histories, err := s.ledger.ReadAll(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Error fetching point histories")
		return nil, fmt.Errorf("database error: %w", err)
	}
	if histories == nil {
		histories = []models.PointHistory{}
	}
	return histories, nil
}

// GetPointAt returns the balance left by the highest-id entry stamped at or
// before atMillis, or 0 if there is none. Timestamps come from callers and
// are not ordered by id, so every entry is checked.
func (s *PointQueryService) GetPointAt(ctx context.Context, userID, atMillis int64) (int64, error) {
	histories, err := s.GetHistories(ctx, userID)
	if err != nil {
		return 0, err
	}

	var point, lastID int64
	found := false
	for _, h := range histories {
		if h.UpdateMillis > atMillis {
			continue
		}
		if !found || h.ID > lastID {
			point, lastID, found = h.Amount, h.ID, true
		}
	}
	return point, nil
}

type Reconciliation struct {
	UserID      int64 `json:"userId"`
	StoredPoint int64 `json:"storedPoint"`
	LedgerPoint int64 `json:"ledgerPoint"`
	Entries     int   `json:"entries"`
	Consistent  bool  `json:"consistent"`
}

// Reconcile compares the stored balance with the balance recorded by the
// user's last ledger entry.
func (s *PointQueryService) Reconcile(ctx context.Context, userID int64) (Reconciliation, error) {
	current, err := s.GetPoint(ctx, userID)
	if err != nil {
		return Reconciliation{}, err
	}

	histories, err := s.GetHistories(ctx, userID)
	if err != nil {
		return Reconciliation{}, err
	}

	result := Reconciliation{
		UserID:      userID,
		StoredPoint: current.Point,
		Entries:     len(histories),
	}
	if n := len(histories); n > 0 {
		result.LedgerPoint = histories[n-1].Amount
	}
	result.Consistent = result.StoredPoint == result.LedgerPoint

	if !result.Consistent {
		s.logger.Warn().
			Int64("user_id", userID).
			Int64("stored_point", result.StoredPoint).
			Int64("ledger_point", result.LedgerPoint).
			Msg("Point discrepancy detected")
	}
	return result, nil
}
