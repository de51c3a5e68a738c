package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/excing/credits-starter-kit/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestLedger(t *testing.T) (*Ledger, *gorm.DB) {
	t.Helper()
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	sqlDB, errDB := conn.DB()
	if errDB != nil {
		t.Fatalf("sql db: %v", errDB)
	}
	// A single in-memory connection keeps every session on the same database
	// and serializes concurrent transactions.
	sqlDB.SetMaxOpenConns(1)

	if errMigrate := conn.AutoMigrate(
		&models.User{},
		&models.CreditPackage{},
		&models.RedemptionCode{},
		&models.CreditTransaction{},
	); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return New(conn), conn
}

func seedUser(t *testing.T, conn *gorm.DB, balance int64) uint64 {
	t.Helper()
	user := models.User{
		Email:         "user@example.com",
		Name:          "Test User",
		PasswordHash:  "x",
		CreditBalance: balance,
	}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("seed user: %v", errCreate)
	}
	return user.ID
}

func TestDebitAppendsUsageTransaction(t *testing.T) {
	l, conn := openTestLedger(t)
	userID := seedUser(t, conn, 100)

	result, errDebit := l.Debit(context.Background(), DebitInput{
		UserID:      userID,
		Amount:      30,
		Description: "Chat completion charge",
		Endpoint:    "/api/chat",
	})
	if errDebit != nil {
		t.Fatalf("debit: %v", errDebit)
	}
	if result.NewBalance != 70 {
		t.Fatalf("new balance: got %d want 70", result.NewBalance)
	}

	var row models.CreditTransaction
	if errFind := conn.First(&row, result.TransactionID).Error; errFind != nil {
		t.Fatalf("find transaction: %v", errFind)
	}
	if row.Amount != -30 {
		t.Fatalf("amount: got %d want -30", row.Amount)
	}
	if row.Kind != models.TransactionKindUsage {
		t.Fatalf("kind: got %s", row.Kind)
	}
	if len(row.Metadata) == 0 {
		t.Fatal("metadata not recorded")
	}
}

func TestDebitInsufficientBalance(t *testing.T) {
	l, conn := openTestLedger(t)
	userID := seedUser(t, conn, 10)

	if _, errDebit := l.Debit(context.Background(), DebitInput{
		UserID: userID,
		Amount: 20,
	}); errDebit != ErrInsufficientBalance {
		t.Fatalf("got %v want ErrInsufficientBalance", errDebit)
	}

	balance, errBalance := l.Balance(context.Background(), userID)
	if errBalance != nil {
		t.Fatalf("balance: %v", errBalance)
	}
	if balance != 10 {
		t.Fatalf("balance changed on failed debit: got %d", balance)
	}

	var count int64
	if errCount := conn.Model(&models.CreditTransaction{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count: %v", errCount)
	}
	if count != 0 {
		t.Fatalf("failed debit left %d transactions", count)
	}
}

func TestDebitExactBalanceAllowed(t *testing.T) {
	l, conn := openTestLedger(t)
	userID := seedUser(t, conn, 50)

	result, errDebit := l.Debit(context.Background(), DebitInput{UserID: userID, Amount: 50})
	if errDebit != nil {
		t.Fatalf("debit: %v", errDebit)
	}
	if result.NewBalance != 0 {
		t.Fatalf("new balance: got %d want 0", result.NewBalance)
	}
}

func TestDebitRejectsNonPositiveAmount(t *testing.T) {
	l, conn := openTestLedger(t)
	userID := seedUser(t, conn, 100)

	for _, amount := range []int64{0, -5} {
		if _, errDebit := l.Debit(context.Background(), DebitInput{UserID: userID, Amount: amount}); errDebit != ErrInvalidAmount {
			t.Fatalf("amount %d: got %v want ErrInvalidAmount", amount, errDebit)
		}
	}
}

func TestDebitUnknownAccount(t *testing.T) {
	l, _ := openTestLedger(t)

	if _, errDebit := l.Debit(context.Background(), DebitInput{UserID: 999, Amount: 10}); errDebit != ErrAccountNotFound {
		t.Fatalf("got %v want ErrAccountNotFound", errDebit)
	}
}

func TestConcurrentDebitsSingleWinner(t *testing.T) {
	l, conn := openTestLedger(t)
	userID := seedUser(t, conn, 100)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = l.Debit(context.Background(), DebitInput{UserID: userID, Amount: 75})
		}(i)
	}
	wg.Wait()

	var succeeded, insufficient int
	for _, errDebit := range results {
		switch errDebit {
		case nil:
			succeeded++
		case ErrInsufficientBalance:
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", errDebit)
		}
	}
	if succeeded != 1 || insufficient != 1 {
		t.Fatalf("got %d successes and %d rejections, want exactly one of each", succeeded, insufficient)
	}

	balance, errBalance := l.Balance(context.Background(), userID)
	if errBalance != nil {
		t.Fatalf("balance: %v", errBalance)
	}
	if balance != 25 {
		t.Fatalf("final balance: got %d want 25", balance)
	}
}

func TestTransactionSumMatchesBalance(t *testing.T) {
	l, conn := openTestLedger(t)
	userID := seedUser(t, conn, 0)
	ctx := context.Background()

	if _, errCredit := l.Credit(ctx, CreditInput{UserID: userID, Amount: 200, Kind: models.TransactionKindRedemption}); errCredit != nil {
		t.Fatalf("credit: %v", errCredit)
	}
	if _, errDebit := l.Debit(ctx, DebitInput{UserID: userID, Amount: 40}); errDebit != nil {
		t.Fatalf("debit: %v", errDebit)
	}
	if _, errDebit := l.Debit(ctx, DebitInput{UserID: userID, Amount: 15}); errDebit != nil {
		t.Fatalf("debit: %v", errDebit)
	}

	var sum int64
	if errSum := conn.Model(&models.CreditTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error; errSum != nil {
		t.Fatalf("sum: %v", errSum)
	}

	balance, errBalance := l.Balance(ctx, userID)
	if errBalance != nil {
		t.Fatalf("balance: %v", errBalance)
	}
	if sum != balance {
		t.Fatalf("ledger sum %d does not match balance %d", sum, balance)
	}
	if balance != 145 {
		t.Fatalf("balance: got %d want 145", balance)
	}
}

func TestTransactionsNewestFirst(t *testing.T) {
	l, conn := openTestLedger(t)
	userID := seedUser(t, conn, 100)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, errDebit := l.Debit(ctx, DebitInput{UserID: userID, Amount: 1, Description: "charge"}); errDebit != nil {
			t.Fatalf("debit: %v", errDebit)
		}
	}

	rows, errList := l.Transactions(ctx, userID, 2)
	if errList != nil {
		t.Fatalf("transactions: %v", errList)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows want 2", len(rows))
	}
	if rows[0].ID < rows[1].ID {
		t.Fatal("transactions not ordered newest first")
	}
}

func TestDisplayBalanceUsesCache(t *testing.T) {
	l, conn := openTestLedger(t)
	userID := seedUser(t, conn, 42)

	fake := &fakeCache{balances: map[uint64]int64{}}
	l = l.WithCache(fake)
	ctx := context.Background()

	balance, errBalance := l.DisplayBalance(ctx, userID)
	if errBalance != nil {
		t.Fatalf("display balance: %v", errBalance)
	}
	if balance != 42 {
		t.Fatalf("balance: got %d want 42", balance)
	}
	if fake.balances[userID] != 42 {
		t.Fatal("cache not populated on miss")
	}

	// A stale cached value is served as-is; the display path never rereads.
	fake.balances[userID] = 7
	balance, _ = l.DisplayBalance(ctx, userID)
	if balance != 7 {
		t.Fatalf("cached balance: got %d want 7", balance)
	}

	if _, errDebit := l.Debit(ctx, DebitInput{UserID: userID, Amount: 10}); errDebit != nil {
		t.Fatalf("debit: %v", errDebit)
	}
	if _, ok := fake.balances[userID]; ok {
		t.Fatal("debit did not invalidate cache")
	}
}

type fakeCache struct {
	mu       sync.Mutex
	balances map[uint64]int64
}

func (c *fakeCache) GetBalance(_ context.Context, userID uint64) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	balance, ok := c.balances[userID]
	return balance, ok
}

func (c *fakeCache) SetBalance(_ context.Context, userID uint64, balance int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[userID] = balance
}

func (c *fakeCache) Invalidate(_ context.Context, userID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.balances, userID)
}
