package secrets

import (
	"encoding/base64"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	box, err := New(key)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ct, err := box.Encrypt("s3cret-p@ss")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if ct == "s3cret-p@ss" {
		t.Fatal("ciphertext equals plaintext")
	}

	pt, err := box.Decrypt(ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}

	if pt != "s3cret-p@ss" {
		t.Fatalf("got %q", pt)
	}
}

func TestEncryptNonceUnique(t *testing.T) {
	key, _ := GenerateKey()
	box, _ := New(key)

	a, _ := box.Encrypt("same")
	b, _ := box.Encrypt("same")

	if a == b {
		t.Fatal("two encryptions produced identical ciphertext")
	}
}

func TestDecryptWrongKey(t *testing.T) {
	k1, _ := GenerateKey()
	k2, _ := GenerateKey()
	b1, _ := New(k1)
	b2, _ := New(k2)

	ct, _ := b1.Encrypt("payload")

	if _, err := b2.Decrypt(ct); err == nil {
		t.Fatal("decrypt with wrong key should fail")
	}
}

func TestNewInvalidKey(t *testing.T) {
	cases := []string{
		"",
		"not-base64!!!",
		base64.StdEncoding.EncodeToString([]byte("short")),
	}

	for _, c := range cases {
		if _, err := New(c); err == nil {
			t.Fatalf("key %q should be rejected", c)
		}
	}
}
