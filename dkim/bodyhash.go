package dkim

import (
	"bytes"
	"fmt"
	"io"
)

// limitedWriter passes at most N bytes to W and silently discards the rest.
type limitedWriter struct {
	W io.Writer
	N int64
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if int64(len(p)) > w.N {
		p = p[:w.N]
	}
	if len(p) > 0 {
		if _, err := w.W.Write(p); err != nil {
			return 0, err
		}
		w.N -= int64(len(p))
	}
	return n, nil
}

// countingWriter counts the canonical body size.
type countingWriter struct {
	n int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	return len(p), nil
}

// computeBodyHash streams body through the canonicalizer into the digest,
// capped at limit bytes when limit >= 0. It returns the digest and the full
// canonical body size.
func computeBodyHash(h HashAlg, c Canonicalization, limit int64, body io.Reader) ([]byte, int64, error) {
	digest := h.Crypto().New()
	var dst io.Writer = digest
	if limit >= 0 {
		dst = &limitedWriter{W: digest, N: limit}
	}
	size := &countingWriter{}

	wc := NewBodyCanonicalizer(io.MultiWriter(dst, size), c)
	if _, err := io.Copy(wc, body); err != nil {
		return nil, 0, fmt.Errorf("reading body: %w", err)
	}
	if err := wc.Close(); err != nil {
		return nil, 0, err
	}
	return digest.Sum(nil), size.n, nil
}

// ValidateBodyHash compares the bh= tag against the canonicalized body read
// from body, and fails sig on mismatch. When l= covers less than the whole
// canonical body the signature is flagged for a warning, which is only
// reported if the rest of verification succeeds.
func ValidateBodyHash(sig *Signature, body io.Reader) error {
	if sig.Failed() {
		return sig.Err
	}

	sum, size, err := computeBodyHash(sig.Hash, sig.BodyCanon, sig.Length, body)
	if err != nil {
		sig.fail(err)
		return err
	}
	if !bytes.Equal(sum, sig.BodyHash) {
		sig.fail(ErrBodyHashMismatch)
		return ErrBodyHashMismatch
	}
	if sig.Length >= 0 && sig.Length < size {
		sig.truncated = true
	}
	return nil
}
