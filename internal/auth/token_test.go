package auth

import (
	"errors"
	"testing"
	"time"
)

func TestMintAndVerify(t *testing.T) {
	secret := []byte("test-secret")

	token, err := Mint(secret, "lab-uploader", time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	subject, err := Verify(secret, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if subject != "lab-uploader" {
		t.Fatalf("expected subject lab-uploader, got %q", subject)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := Mint([]byte("secret-a"), "lab-uploader", time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	_, err = Verify([]byte("secret-b"), token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := Mint(secret, "lab-uploader", time.Millisecond)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	_, err = Verify(secret, token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := Verify([]byte("test-secret"), "not-a-token")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestMintValidation(t *testing.T) {
	if _, err := Mint(nil, "s", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := Mint([]byte("x"), " ", time.Hour); err == nil {
		t.Fatal("expected error for empty subject")
	}
	if _, err := Mint([]byte("x"), "s", 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}

func TestFromAuthorizationHeader(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer abc", "abc", true},
		{"Basic dXNlcg==", "", false},
		{"", "", false},
		{"Bearer ", "", false},
	}
	for _, tc := range tests {
		got, ok := FromAuthorizationHeader(tc.header)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("header %q: got (%q, %v), want (%q, %v)", tc.header, got, ok, tc.want, tc.ok)
		}
	}
}
