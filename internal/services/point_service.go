package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"point-service/internal/metrics"
	"point-service/internal/models"
	"point-service/internal/store"

	"github.com/rs/zerolog"
)

var errUnknownTransactionType = errors.New("unknown transaction type")

// PointService owns every write to the balance and ledger stores. Charges
// and uses for one user run one at a time; different users never contend.
type PointService struct {
	store  store.Transactor
	logger zerolog.Logger
	mu     sync.Map
}

func NewPointService(s store.Transactor, logger zerolog.Logger) *PointService {
	return &PointService{
		store:  s,
		logger: logger,
	}
}

func (s *PointService) getMutex(userID int64) *sync.Mutex {
	mu, _ := s.mu.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *PointService) Charge(ctx context.Context, userID, amount, now int64) (models.Outcome, error) {
	return s.updatePoint(ctx, userID, amount, now, models.TransactionTypeCharge)
}

func (s *PointService) Use(ctx context.Context, userID, amount, now int64) (models.Outcome, error) {
	return s.updatePoint(ctx, userID, amount, now, models.TransactionTypeUse)
}

func (s *PointService) updatePoint(ctx context.Context, userID, amount, now int64, kind models.TransactionType) (models.Outcome, error) {
	start := time.Now()

	outcome, err := s.applyLocked(ctx, userID, amount, now, kind)

	label := outcome.String()
	if err != nil {
		label = "error"
	}
	metrics.RecordPointOperation(string(kind), label, time.Since(start))

	if err != nil {
		s.logger.Error().Err(err).
			Int64("user_id", userID).
			Int64("amount", amount).
			Str("type", string(kind)).
			Msg("Error updating point")
		return outcome, err
	}

	if outcome != models.OutcomeSuccess {
		s.logger.Warn().
			Int64("user_id", userID).
			Int64("amount", amount).
			Str("type", string(kind)).
			Str("outcome", outcome.String()).
			Msg("Point update rejected")
	}
	return outcome, nil
}

func (s *PointService) applyLocked(ctx context.Context, userID, amount, now int64, kind models.TransactionType) (models.Outcome, error) {
	if !IsValidAmount(amount) {
		return models.OutcomeInvalidAmount, nil
	}

	mu := s.getMutex(userID)
	mu.Lock()
	defer mu.Unlock()

	outcome := models.OutcomeUnknown
	var entry models.PointHistory
	err := s.store.InTx(ctx, func(balances store.BalanceStore, ledger store.LedgerStore) error {
		var err error
		outcome, entry, err = s.updatePointInTx(ctx, balances, ledger, userID, amount, now, kind)
		return err
	})
	if err != nil {
		return models.OutcomeUnknown, fmt.Errorf("failed to update point: %w", err)
	}

	if outcome == models.OutcomeSuccess {
		s.logger.Info().
			Int64("user_id", userID).
			Int64("amount", amount).
			Int64("point", entry.Amount).
			Int64("history_id", entry.ID).
			Str("type", string(kind)).
			Msg("Point updated successfully")
	}
	return outcome, nil
}

// updatePointInTx runs read, validate, append, write. Rejections return
// before either write.
func (s *PointService) updatePointInTx(ctx context.Context, balances store.BalanceStore, ledger store.LedgerStore, userID, amount, now int64, kind models.TransactionType) (models.Outcome, models.PointHistory, error) {
	var entry models.PointHistory

	current, _, err := balances.Read(ctx, userID)
	if err != nil {
		return models.OutcomeUnknown, entry, err
	}

	var newPoint int64
	switch kind {
	case models.TransactionTypeCharge:
		if IsExceedingMax(current.Point, amount) {
			return models.OutcomeExceed, entry, nil
		}
		newPoint = current.Point + amount
	case models.TransactionTypeUse:
		if HasInsufficientBalance(current.Point, amount) {
			return models.OutcomeInsufficient, entry, nil
		}
		newPoint = current.Point - amount
	default:
		return models.OutcomeUnknown, entry, errUnknownTransactionType
	}

	historyID, err := ledger.Append(ctx, userID, newPoint, kind, now)
	if err != nil {
		return models.OutcomeUnknown, entry, err
	}

	if err := balances.Write(ctx, userID, newPoint, now); err != nil {
		return models.OutcomeUnknown, entry, err
	}

	entry = models.PointHistory{
		ID:           historyID,
		UserID:       userID,
		Amount:       newPoint,
		Type:         kind,
		UpdateMillis: now,
	}
	return models.OutcomeSuccess, entry, nil
}
