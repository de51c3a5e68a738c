package ledger

import (
	"context"
	"testing"

	"github.com/excing/credits-starter-kit/internal/models"
)

func redeemForRefund(t *testing.T, l *Ledger, userID uint64, codeStr string) RedeemResult {
	t.Helper()
	result, errRedeem := l.Redeem(context.Background(), userID, codeStr)
	if errRedeem != nil {
		t.Fatalf("redeem: %v", errRedeem)
	}
	return result
}

func TestRefundReversesRedemption(t *testing.T) {
	l, conn := openTestLedger(t)
	userID := seedUser(t, conn, 0)
	pkgID := seedPackage(t, conn, 300, true)
	code := seedCode(t, conn, pkgID, nil)
	redeemed := redeemForRefund(t, l, userID, code.Code)
	ctx := context.Background()

	result, errRefund := l.Refund(ctx, redeemed.TransactionID)
	if errRefund != nil {
		t.Fatalf("refund: %v", errRefund)
	}
	if result.CreditsDeducted != 300 || result.NewBalance != 0 {
		t.Fatalf("got deducted=%d balance=%d want 300/0", result.CreditsDeducted, result.NewBalance)
	}

	var row models.CreditTransaction
	if errFind := conn.First(&row, result.TransactionID).Error; errFind != nil {
		t.Fatalf("find refund transaction: %v", errFind)
	}
	if row.Kind != models.TransactionKindRefund {
		t.Fatalf("kind: got %s", row.Kind)
	}
	if row.Amount != -300 {
		t.Fatalf("amount: got %d want -300", row.Amount)
	}
	if row.ReferenceID == nil || *row.ReferenceID != redeemed.TransactionID {
		t.Fatal("refund does not reference the redemption")
	}

	var updated models.RedemptionCode
	if errFind := conn.First(&updated, code.ID).Error; errFind != nil {
		t.Fatalf("find code: %v", errFind)
	}
	if updated.CurrentRedemptions != 0 {
		t.Fatalf("counter after refund: got %d want 0", updated.CurrentRedemptions)
	}
}

func TestRefundTwiceRejected(t *testing.T) {
	l, conn := openTestLedger(t)
	userID := seedUser(t, conn, 0)
	pkgID := seedPackage(t, conn, 100, true)
	code := seedCode(t, conn, pkgID, nil)
	redeemed := redeemForRefund(t, l, userID, code.Code)
	ctx := context.Background()

	if _, errRefund := l.Refund(ctx, redeemed.TransactionID); errRefund != nil {
		t.Fatalf("first refund: %v", errRefund)
	}
	if _, errRefund := l.Refund(ctx, redeemed.TransactionID); errRefund != ErrAlreadyRefunded {
		t.Fatalf("got %v want ErrAlreadyRefunded", errRefund)
	}

	balance, _ := l.Balance(ctx, userID)
	if balance != 0 {
		t.Fatalf("balance after rejected refund: got %d want 0", balance)
	}
}

func TestRefundDebitsBelowZero(t *testing.T) {
	l, conn := openTestLedger(t)
	userID := seedUser(t, conn, 0)
	pkgID := seedPackage(t, conn, 100, true)
	code := seedCode(t, conn, pkgID, nil)
	redeemed := redeemForRefund(t, l, userID, code.Code)
	ctx := context.Background()

	// Spend most of the granted credits, then refund the grant. The refund
	// debit is unconditional, so the balance goes negative.
	if _, errDebit := l.Debit(ctx, DebitInput{UserID: userID, Amount: 80}); errDebit != nil {
		t.Fatalf("debit: %v", errDebit)
	}

	result, errRefund := l.Refund(ctx, redeemed.TransactionID)
	if errRefund != nil {
		t.Fatalf("refund: %v", errRefund)
	}
	if result.NewBalance != -80 {
		t.Fatalf("balance: got %d want -80", result.NewBalance)
	}
}

func TestRefundRejectsNonRedemption(t *testing.T) {
	l, conn := openTestLedger(t)
	userID := seedUser(t, conn, 100)
	ctx := context.Background()

	debited, errDebit := l.Debit(ctx, DebitInput{UserID: userID, Amount: 10})
	if errDebit != nil {
		t.Fatalf("debit: %v", errDebit)
	}

	if _, errRefund := l.Refund(ctx, debited.TransactionID); errRefund != ErrNotARedemption {
		t.Fatalf("got %v want ErrNotARedemption", errRefund)
	}
}

func TestRefundUnknownTransaction(t *testing.T) {
	l, _ := openTestLedger(t)

	if _, errRefund := l.Refund(context.Background(), 12345); errRefund != ErrTransactionNotFound {
		t.Fatalf("got %v want ErrTransactionNotFound", errRefund)
	}
}
