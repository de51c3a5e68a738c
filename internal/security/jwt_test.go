package security

import (
	"testing"
	"time"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, errGen := GenerateToken("secret", 42, "user@example.com", "User", time.Hour)
	if errGen != nil {
		t.Fatalf("generate: %v", errGen)
	}

	claims, errParse := ParseToken("secret", token)
	if errParse != nil {
		t.Fatalf("parse: %v", errParse)
	}
	if claims.UserID != 42 || claims.Email != "user@example.com" {
		t.Fatalf("claims: got %+v", claims)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret", 1, "a@b.c", "", time.Hour)

	if _, errParse := ParseToken("other", token); errParse != ErrInvalidToken {
		t.Fatalf("got %v want ErrInvalidToken", errParse)
	}
}

func TestParseExpiredToken(t *testing.T) {
	token, _ := GenerateToken("secret", 1, "a@b.c", "", -time.Minute)

	if _, errParse := ParseToken("secret", token); errParse != ErrExpiredToken {
		t.Fatalf("got %v want ErrExpiredToken", errParse)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, errHash := HashPassword("correct horse battery staple")
	if errHash != nil {
		t.Fatalf("hash: %v", errHash)
	}
	if !CheckPassword(hash, "correct horse battery staple") {
		t.Fatal("valid password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("invalid password accepted")
	}
}
