package term

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"
)

// Compress encodes t and deflates the result. Used by tables opened
// with the compressed option (spec §6); equality on a compressed entry
// decompresses the stored entry (and the candidate too, when it is also
// compressed) and compares structurally as usual, it never compares
// compressed bytes directly.
func Compress(t Term) ([]byte, error) {
	raw := Encode(nil, t)

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("term: Compress: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("term: Compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("term: Compress: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress and decodes the resulting wire bytes
// back into a Term.
func Decompress(compressed []byte) (Term, error) {
	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("term: Decompress: %w", err)
	}

	t, _, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("term: Decompress: %w", err)
	}
	return t, nil
}
