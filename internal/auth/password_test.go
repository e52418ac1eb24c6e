package auth

import "testing"

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := ComparePassword(hash, "correct horse battery"); err != nil {
		t.Errorf("ComparePassword on matching password: %v", err)
	}
	if err := ComparePassword(hash, "wrong password"); err == nil {
		t.Error("ComparePassword accepted a wrong password")
	}
}

func TestHashPasswordCostFallback(t *testing.T) {
	for _, cost := range []int{-1, 0, 99} {
		hash, err := HashPassword("correct horse battery", cost)
		if err != nil {
			t.Fatalf("HashPassword(cost=%d): %v", cost, err)
		}
		if err := ComparePassword(hash, "correct horse battery"); err != nil {
			t.Errorf("ComparePassword(cost=%d): %v", cost, err)
		}
	}
}
