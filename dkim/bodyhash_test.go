package dkim

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestComputeBodyHash(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		canon    Canonicalization
		limit    int64
		wantHash string
		wantSize int64
	}{
		{"relaxed empty", "", CanonRelaxed, -1, "47DEQpj8HBSa+/TImW+5JCeuQeRkm5NMpJWZG3hSuFU=", 0},
		{"simple empty", "", CanonSimple, -1, "frcCV1k9oG9oKj3dpUqdJg1PxRT2RSN/XKdLCPjaYaY=", 2},
		{"simple text", "Hello World\r\n\r\n", CanonSimple, -1, "sIAi0xXPHrEtJmW97Q5q9AZTwKC+l1Iy+0m8vQIc/DY=", 13},
		{"relaxed text", "Hello   World \r\n", CanonRelaxed, -1, "sIAi0xXPHrEtJmW97Q5q9AZTwKC+l1Iy+0m8vQIc/DY=", 13},
		{"limit", "Hello World\r\n", CanonSimple, 5, "GF+NsyJx/iX1Yab8k4suJkMG7DBO2lGAB9F2SCY4GWk=", 13},
		{"limit zero", "Hello World\r\n", CanonRelaxed, 0, "47DEQpj8HBSa+/TImW+5JCeuQeRkm5NMpJWZG3hSuFU=", 13},
		{"limit beyond body", "Hello World\r\n", CanonSimple, 100, "sIAi0xXPHrEtJmW97Q5q9AZTwKC+l1Iy+0m8vQIc/DY=", 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, size, err := computeBodyHash(HashSHA256, tt.canon, tt.limit, strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("computeBodyHash: %v", err)
			}
			if got := base64.StdEncoding.EncodeToString(sum); got != tt.wantHash {
				t.Errorf("hash = %s, want %s", got, tt.wantHash)
			}
			if size != tt.wantSize {
				t.Errorf("size = %d, want %d", size, tt.wantSize)
			}
		})
	}
}

func TestValidateBodyHash(t *testing.T) {
	newSig := func(bh string, length int64) *Signature {
		sig := newSignature("")
		sig.Hash = HashSHA256
		sig.BodyCanon = CanonSimple
		sig.Length = length
		sig.BodyHash, _ = base64.StdEncoding.DecodeString(bh)
		return sig
	}

	t.Run("match", func(t *testing.T) {
		sig := newSig("sIAi0xXPHrEtJmW97Q5q9AZTwKC+l1Iy+0m8vQIc/DY=", -1)
		if err := ValidateBodyHash(sig, strings.NewReader("Hello World\r\n")); err != nil {
			t.Fatalf("ValidateBodyHash: %v", err)
		}
		if sig.Status != StatusNone || sig.truncated {
			t.Errorf("status = %s, truncated = %v", sig.Status, sig.truncated)
		}
	})

	t.Run("mismatch", func(t *testing.T) {
		sig := newSig("sIAi0xXPHrEtJmW97Q5q9AZTwKC+l1Iy+0m8vQIc/DY=", -1)
		err := ValidateBodyHash(sig, strings.NewReader("Hello Moon\r\n"))
		if !errors.Is(err, ErrBodyHashMismatch) {
			t.Fatalf("err = %v, want body hash mismatch", err)
		}
		if sig.Status != StatusFailed || sig.Detail != "body hash mismatch" {
			t.Errorf("status = %s, detail = %q", sig.Status, sig.Detail)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		sig := newSig("GF+NsyJx/iX1Yab8k4suJkMG7DBO2lGAB9F2SCY4GWk=", 5)
		if err := ValidateBodyHash(sig, strings.NewReader("Hello World\r\n")); err != nil {
			t.Fatalf("ValidateBodyHash: %v", err)
		}
		if !sig.truncated {
			t.Error("signature not flagged as truncated")
		}
		if sig.Detail != "" {
			t.Errorf("detail set before verification finished: %q", sig.Detail)
		}
	})

	t.Run("exact length", func(t *testing.T) {
		sig := newSig("sIAi0xXPHrEtJmW97Q5q9AZTwKC+l1Iy+0m8vQIc/DY=", 13)
		if err := ValidateBodyHash(sig, strings.NewReader("Hello World\r\n")); err != nil {
			t.Fatalf("ValidateBodyHash: %v", err)
		}
		if sig.truncated {
			t.Error("l= covering the whole body flagged as truncated")
		}
	})

	t.Run("already failed", func(t *testing.T) {
		sig := newSig("", -1)
		sig.fail(ErrFromNotSigned)
		if err := ValidateBodyHash(sig, strings.NewReader("")); !errors.Is(err, ErrFromNotSigned) {
			t.Errorf("err = %v, want the earlier failure", err)
		}
	})
}

func TestLimitedWriter(t *testing.T) {
	var b strings.Builder
	w := &limitedWriter{W: &b, N: 4}
	for _, chunk := range []string{"ab", "cde", "fg"} {
		n, err := w.Write([]byte(chunk))
		if err != nil || n != len(chunk) {
			t.Fatalf("Write(%q) = %d, %v", chunk, n, err)
		}
	}
	if b.String() != "abcd" {
		t.Errorf("written = %q, want abcd", b.String())
	}
}
