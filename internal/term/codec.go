package term

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Wire tags for the compact self-describing binary format used by
// Encode/Decode. These are independent of the internal tagAtom..tagList
// hash-mixing constants in hash.go.
const (
	wireAtom byte = iota + 1
	wireInt
	wireFloat
	wireBinary
	wireTuple
	wireList
)

// Encode appends t's wire representation to dst and returns the result.
func Encode(dst []byte, t Term) []byte {
	switch v := t.(type) {
	case Atom:
		dst = append(dst, wireAtom)
		dst = appendString(dst, v.text)
	case Int64:
		dst = append(dst, wireInt)
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(v))
		dst = append(dst, buf[:]...)
	case Float64:
		dst = append(dst, wireFloat)
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(float64(v)))
		dst = append(dst, buf[:]...)
	case Binary:
		dst = append(dst, wireBinary)
		dst = appendBytes(dst, v)
	case Tuple:
		dst = append(dst, wireTuple)
		dst = appendUvarint(dst, uint64(len(v)))
		for _, e := range v {
			dst = Encode(dst, e)
		}
	case List:
		dst = append(dst, wireList)
		dst = appendUvarint(dst, uint64(len(v)))
		for _, e := range v {
			dst = Encode(dst, e)
		}
	default:
		panic(fmt.Sprintf("term: Encode: unknown term type %T", t))
	}
	return dst
}

// Decode reads a single term from src and returns it along with the
// number of bytes consumed.
func Decode(src []byte) (Term, int, error) {
	if len(src) == 0 {
		return nil, 0, fmt.Errorf("term: Decode: empty input")
	}

	tag := src[0]
	rest := src[1:]
	consumed := 1

	switch tag {
	case wireAtom:
		s, n, err := readString(rest)
		if err != nil {
			return nil, 0, err
		}
		return Intern(s), consumed + n, nil
	case wireInt:
		if len(rest) < 8 {
			return nil, 0, fmt.Errorf("term: Decode: truncated int")
		}
		return Int64(binary.BigEndian.Uint64(rest[:8])), consumed + 8, nil
	case wireFloat:
		if len(rest) < 8 {
			return nil, 0, fmt.Errorf("term: Decode: truncated float")
		}
		return Float64(math.Float64frombits(binary.BigEndian.Uint64(rest[:8]))), consumed + 8, nil
	case wireBinary:
		b, n, err := readBytes(rest)
		if err != nil {
			return nil, 0, err
		}
		return Binary(b), consumed + n, nil
	case wireTuple:
		elems, n, err := readSeq(rest)
		if err != nil {
			return nil, 0, err
		}
		return Tuple(elems), consumed + n, nil
	case wireList:
		elems, n, err := readSeq(rest)
		if err != nil {
			return nil, 0, err
		}
		return List(elems), consumed + n, nil
	default:
		return nil, 0, fmt.Errorf("term: Decode: unknown wire tag %d", tag)
	}
}

func readSeq(src []byte) ([]Term, int, error) {
	count, n, err := readUvarint(src)
	if err != nil {
		return nil, 0, err
	}
	consumed := n
	elems := make([]Term, 0, count)
	for i := uint64(0); i < count; i++ {
		t, m, err := Decode(src[consumed:])
		if err != nil {
			return nil, 0, err
		}
		elems = append(elems, t)
		consumed += m
	}
	return elems, consumed, nil
}

func appendUvarint(dst []byte, v uint64) []byte {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	return append(dst, buf[:n]...)
}

func readUvarint(src []byte) (uint64, int, error) {
	v, n := binary.Uvarint(src)
	if n <= 0 {
		return 0, 0, fmt.Errorf("term: Decode: malformed varint")
	}
	return v, n, nil
}

func appendString(dst []byte, s string) []byte {
	dst = appendUvarint(dst, uint64(len(s)))
	return append(dst, s...)
}

func readString(src []byte) (string, int, error) {
	n, consumed, err := readUvarint(src)
	if err != nil {
		return "", 0, err
	}
	if uint64(len(src)-consumed) < n {
		return "", 0, fmt.Errorf("term: Decode: truncated string")
	}
	return string(src[consumed : uint64(consumed)+n]), consumed + int(n), nil
}

func appendBytes(dst []byte, b []byte) []byte {
	dst = appendUvarint(dst, uint64(len(b)))
	return append(dst, b...)
}

func readBytes(src []byte) ([]byte, int, error) {
	n, consumed, err := readUvarint(src)
	if err != nil {
		return nil, 0, err
	}
	if uint64(len(src)-consumed) < n {
		return nil, 0, fmt.Errorf("term: Decode: truncated bytes")
	}
	out := make([]byte, n)
	copy(out, src[consumed:uint64(consumed)+n])
	return out, consumed + int(n), nil
}
