package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/excing/credits-starter-kit/internal/ledger"
	"github.com/excing/credits-starter-kit/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newHandlerEnv(t *testing.T) (*gorm.DB, *ledger.Ledger) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	sqlDB, _ := conn.DB()
	sqlDB.SetMaxOpenConns(1)
	if errMigrate := conn.AutoMigrate(
		&models.User{},
		&models.CreditPackage{},
		&models.RedemptionCode{},
		&models.CreditTransaction{},
	); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn, ledger.New(conn)
}

func seedAuthedUser(t *testing.T, conn *gorm.DB, balance int64) uint64 {
	t.Helper()
	user := models.User{Email: "front@example.com", PasswordHash: "x", CreditBalance: balance}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("seed user: %v", errCreate)
	}
	return user.ID
}

func authedEngine(userID uint64) *gin.Engine {
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		if userID != 0 {
			c.Set("userID", userID)
		}
	})
	return engine
}

func TestBalanceEndpoint(t *testing.T) {
	conn, l := newHandlerEnv(t)
	userID := seedAuthedUser(t, conn, 77)

	engine := authedEngine(userID)
	engine.GET("/api/credits/balance", NewCreditsHandler(l).Balance)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/credits/balance", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var payload struct {
		Balance int64 `json:"balance"`
	}
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &payload); errDecode != nil {
		t.Fatalf("decode: %v", errDecode)
	}
	if payload.Balance != 77 {
		t.Fatalf("balance: got %d want 77", payload.Balance)
	}
}

func TestBalanceEndpointUnauthenticated(t *testing.T) {
	_, l := newHandlerEnv(t)

	engine := authedEngine(0)
	engine.GET("/api/credits/balance", NewCreditsHandler(l).Balance)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/credits/balance", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d want 401", rec.Code)
	}
}

func TestRedeemEndpointStatusMapping(t *testing.T) {
	conn, l := newHandlerEnv(t)
	userID := seedAuthedUser(t, conn, 0)

	pkg := models.CreditPackage{Name: "Starter", Credits: 250, IsActive: true}
	if errCreate := conn.Create(&pkg).Error; errCreate != nil {
		t.Fatalf("seed package: %v", errCreate)
	}
	code := models.RedemptionCode{Code: "GOOD-CODE-AAAA", PackageID: pkg.ID, IsActive: true}
	if errCreate := conn.Create(&code).Error; errCreate != nil {
		t.Fatalf("seed code: %v", errCreate)
	}

	engine := authedEngine(userID)
	engine.POST("/api/credits/redeem", NewCreditsHandler(l).Redeem)

	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/credits/redeem", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		engine.ServeHTTP(rec, req)
		return rec
	}

	if rec := post(`{"code":"NOPE-NOPE-NOPE"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown code: got %d want 404", rec.Code)
	}

	rec := post(`{"code":"GOOD-CODE-AAAA"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("redeem: got %d body %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		CreditsAdded int64 `json:"credits_added"`
		NewBalance   int64 `json:"new_balance"`
	}
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &payload); errDecode != nil {
		t.Fatalf("decode: %v", errDecode)
	}
	if payload.CreditsAdded != 250 || payload.NewBalance != 250 {
		t.Fatalf("payload: got %+v", payload)
	}

	// Second attempt by the same account conflicts.
	if rec := post(`{"code":"GOOD-CODE-AAAA"}`); rec.Code != http.StatusConflict {
		t.Fatalf("double redeem: got %d want 409", rec.Code)
	}

	if rec := post(`{"code":""}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty code: got %d want 400", rec.Code)
	}
}

func TestTransactionsEndpoint(t *testing.T) {
	conn, l := newHandlerEnv(t)
	userID := seedAuthedUser(t, conn, 100)

	if _, errDebit := l.Debit(httptest.NewRequest(http.MethodGet, "/", nil).Context(), ledger.DebitInput{
		UserID: userID, Amount: 10, Description: "charge", Endpoint: "/api/chat",
	}); errDebit != nil {
		t.Fatalf("debit: %v", errDebit)
	}

	engine := authedEngine(userID)
	engine.GET("/api/credits/transactions", NewCreditsHandler(l).Transactions)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/credits/transactions?limit=10", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var payload struct {
		Transactions []models.CreditTransaction `json:"transactions"`
	}
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &payload); errDecode != nil {
		t.Fatalf("decode: %v", errDecode)
	}
	if len(payload.Transactions) != 1 || payload.Transactions[0].Amount != -10 {
		t.Fatalf("transactions: got %+v", payload.Transactions)
	}
}
