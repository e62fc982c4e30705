package password

import (
	"strings"
	"testing"
)

var cheap = Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 16, SaltLen: 8}

func TestHashAndVerify(t *testing.T) {
	encoded, err := HashWith("s3cret-pass", cheap)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected encoding %q", encoded)
	}
	if !Verify("s3cret-pass", encoded) {
		t.Fatalf("expected password to verify")
	}
	if Verify("wrong-pass", encoded) {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestVerifyRejectsMalformedHashes(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plain",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$!!$a2V5",
	} {
		if Verify("anything", encoded) {
			t.Fatalf("expected %q to be rejected", encoded)
		}
	}
}

func TestHashUsesFreshSalt(t *testing.T) {
	a, _ := HashWith("same", cheap)
	b, _ := HashWith("same", cheap)
	if a == b {
		t.Fatalf("expected distinct salts")
	}
}
