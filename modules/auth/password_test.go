package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	hasher := NewPasswordHasherWithCost(bcrypt.MinCost)

	hash, err := hasher.Hash("password123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "password123" {
		t.Error("Hash() returned the plain password")
	}

	if !hasher.Verify("password123", hash) {
		t.Error("Verify() = false for the correct password")
	}
	if hasher.Verify("wrongpassword", hash) {
		t.Error("Verify() = true for a wrong password")
	}
}

func TestPasswordHasher_DistinctSalts(t *testing.T) {
	hasher := NewPasswordHasherWithCost(bcrypt.MinCost)

	h1, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	h2, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password are identical")
	}
}

func TestPasswordHasher_Cost(t *testing.T) {
	if got := NewPasswordHasher().cost; got != DefaultBcryptCost {
		t.Errorf("default cost = %d, want %d", got, DefaultBcryptCost)
	}
	if got := NewPasswordHasherWithCost(100).cost; got != bcrypt.DefaultCost {
		t.Errorf("out of range cost = %d, want %d", got, bcrypt.DefaultCost)
	}
}

func TestPasswordHasher_VerifyGarbageHash(t *testing.T) {
	hasher := NewPasswordHasherWithCost(bcrypt.MinCost)
	if hasher.Verify("password123", "not-a-hash") {
		t.Error("Verify() = true for a malformed hash")
	}
}
