package security

import "testing"

func TestHashAndVerify(t *testing.T) {
	a := New()

	encoded, err := a.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	ok, err := a.Verify("correct horse battery staple", encoded)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected the right password to verify")
	}

	ok, err = a.Verify("wrong password", encoded)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if ok {
		t.Fatal("expected the wrong password to fail")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	a := New()

	if _, err := a.Verify("whatever", "not-a-hash"); err == nil {
		t.Fatal("expected an error for a malformed hash")
	}
}
