package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/excing/credits-starter-kit/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BalanceCache is an optional display-layer cache of account balances. It is
// never consulted for correctness decisions; the store row stays
// authoritative and the cache is invalidated after every mutation.
type BalanceCache interface {
	GetBalance(ctx context.Context, userID uint64) (int64, bool)
	SetBalance(ctx context.Context, userID uint64, balance int64)
	Invalidate(ctx context.Context, userID uint64)
}

// Ledger owns account balances and the append-only transaction log.
type Ledger struct {
	db    *gorm.DB
	cache BalanceCache // Optional, may be nil.
}

// New constructs a Ledger backed by GORM.
func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithCache attaches a display-layer balance cache.
func (l *Ledger) WithCache(cache BalanceCache) *Ledger {
	l.cache = cache
	return l
}

// Balance reads the authoritative balance from the store.
func (l *Ledger) Balance(ctx context.Context, userID uint64) (int64, error) {
	var user models.User
	if errFind := l.db.WithContext(ctx).
		Select("credit_balance").
		First(&user, userID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return 0, ErrAccountNotFound
		}
		return 0, errFind
	}
	return user.CreditBalance, nil
}

// DisplayBalance reads the balance through the cache when one is configured.
// Callers needing correctness guarantees use Balance instead.
func (l *Ledger) DisplayBalance(ctx context.Context, userID uint64) (int64, error) {
	if l.cache != nil {
		if balance, ok := l.cache.GetBalance(ctx, userID); ok {
			return balance, nil
		}
	}
	balance, errBalance := l.Balance(ctx, userID)
	if errBalance != nil {
		return 0, errBalance
	}
	if l.cache != nil {
		l.cache.SetBalance(ctx, userID, balance)
	}
	return balance, nil
}

// DebitInput captures the parameters of a usage debit.
type DebitInput struct {
	UserID      uint64
	Amount      int64
	Description string
	Metadata    map[string]any
	Endpoint    string // Route that triggered the charge.
}

// DebitResult reports a successful debit.
type DebitResult struct {
	TransactionID uint64
	NewBalance    int64
}

// Debit atomically subtracts credits and appends one usage transaction.
//
// The balance check and mutation are a single conditional UPDATE
// ("subtract only if credit_balance >= amount"), so concurrent debits
// against a low balance serialize at the store: the loser affects zero rows
// and gets ErrInsufficientBalance. Balance update and transaction insert
// commit or roll back together.
func (l *Ledger) Debit(ctx context.Context, input DebitInput) (DebitResult, error) {
	if input.Amount <= 0 {
		return DebitResult{}, ErrInvalidAmount
	}

	metadata := map[string]any{}
	for k, v := range input.Metadata {
		metadata[k] = v
	}
	metadata["endpoint"] = input.Endpoint
	metadata["deducted_at"] = time.Now().UTC().Format(time.RFC3339)

	var result DebitResult
	errTx := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND credit_balance >= ?", input.UserID, input.Amount).
			Update("credit_balance", gorm.Expr("credit_balance - ?", input.Amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if errCount := tx.Model(&models.User{}).
				Where("id = ?", input.UserID).
				Count(&count).Error; errCount != nil {
				return errCount
			}
			if count == 0 {
				return ErrAccountNotFound
			}
			// Lost the conditional update: logged distinctly from the plain
			// precheck rejection so reconciliation can tell races apart.
			log.WithFields(log.Fields{
				"user_id":  input.UserID,
				"amount":   input.Amount,
				"endpoint": input.Endpoint,
			}).Warn("ledger: debit lost conditional update, insufficient balance")
			return ErrInsufficientBalance
		}

		row, errRow := appendTransaction(tx, transactionRow{
			userID:      input.UserID,
			amount:      -input.Amount,
			kind:        models.TransactionKindUsage,
			description: input.Description,
			metadata:    metadata,
		})
		if errRow != nil {
			return errRow
		}
		result.TransactionID = row.ID

		var user models.User
		if errFind := tx.Select("credit_balance").First(&user, input.UserID).Error; errFind != nil {
			return errFind
		}
		result.NewBalance = user.CreditBalance
		return nil
	})
	if errTx != nil {
		return DebitResult{}, errTx
	}

	l.invalidate(ctx, input.UserID)
	return result, nil
}

// CreditInput captures the parameters of a credit grant.
type CreditInput struct {
	UserID      uint64
	Amount      int64
	Kind        string // redemption or refund-reversal kinds.
	ReferenceID *uint64
	Description string
	Metadata    map[string]any
}

// CreditResult reports a successful credit.
type CreditResult struct {
	TransactionID uint64
	NewBalance    int64
}

// Credit atomically adds credits and appends one transaction with a
// positive signed amount.
func (l *Ledger) Credit(ctx context.Context, input CreditInput) (CreditResult, error) {
	if input.Amount <= 0 {
		return CreditResult{}, ErrInvalidAmount
	}

	var result CreditResult
	errTx := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ?", input.UserID).
			Update("credit_balance", gorm.Expr("credit_balance + ?", input.Amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAccountNotFound
		}

		row, errRow := appendTransaction(tx, transactionRow{
			userID:      input.UserID,
			amount:      input.Amount,
			kind:        input.Kind,
			referenceID: input.ReferenceID,
			description: input.Description,
			metadata:    input.Metadata,
		})
		if errRow != nil {
			return errRow
		}
		result.TransactionID = row.ID

		var user models.User
		if errFind := tx.Select("credit_balance").First(&user, input.UserID).Error; errFind != nil {
			return errFind
		}
		result.NewBalance = user.CreditBalance
		return nil
	})
	if errTx != nil {
		return CreditResult{}, errTx
	}

	l.invalidate(ctx, input.UserID)
	return result, nil
}

// Transactions returns the most recent ledger entries for an account.
func (l *Ledger) Transactions(ctx context.Context, userID uint64, limit int) ([]models.CreditTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []models.CreditTransaction
	if errFind := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error; errFind != nil {
		return nil, errFind
	}
	return rows, nil
}

// transactionRow is the internal shape of a ledger append.
type transactionRow struct {
	userID      uint64
	amount      int64
	kind        string
	referenceID *uint64
	description string
	metadata    map[string]any
}

// appendTransaction inserts one immutable transaction row inside tx.
func appendTransaction(tx *gorm.DB, row transactionRow) (*models.CreditTransaction, error) {
	var metadata datatypes.JSON
	if len(row.metadata) > 0 {
		payload, errMarshal := json.Marshal(row.metadata)
		if errMarshal != nil {
			return nil, errMarshal
		}
		metadata = datatypes.JSON(payload)
	}

	userID := row.userID
	record := models.CreditTransaction{
		UserID:      &userID,
		Amount:      row.amount,
		Kind:        row.kind,
		ReferenceID: row.referenceID,
		Description: row.description,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	}
	if errCreate := tx.Create(&record).Error; errCreate != nil {
		return nil, errCreate
	}
	return &record, nil
}

// invalidate drops the cached display balance after a mutation.
func (l *Ledger) invalidate(ctx context.Context, userID uint64) {
	if l.cache != nil {
		l.cache.Invalidate(ctx, userID)
	}
}
