// Package dtypes defines the data types a decompiler infers for machine
// values. Unlike a source-language type system, every type carries an
// explicit bit width: decompiled code deals in machine words, and widths
// are facts recovered from the binary, not properties of a target ABI.
package dtypes

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is the interface for all inferred types
type Type interface {
	implType()
	String() string
	BitSize() int // width of a value of this type, in bits
}

// Signedness represents signed/unsigned for integer types
type Signedness int

const (
	Signed Signedness = iota
	Unsigned
)

func (s Signedness) String() string {
	if s == Signed {
		return "signed"
	}
	return "unsigned"
}

// Tvoid represents the absence of a value
type Tvoid struct{}

// Tint represents integer types of an explicit width
type Tint struct {
	Bits int
	Sign Signedness
}

// Tfloat represents floating-point types of an explicit width
type Tfloat struct {
	Bits int
}

// Tword represents an uninterpreted machine word: a value whose width is
// known but whose interpretation has not been recovered yet
type Tword struct {
	Bits int
}

// Tpointer represents a pointer type. Bits is the width of the pointer
// value itself, carried explicitly rather than taken from any global
// architecture setting.
type Tpointer struct {
	Elem Type
	Bits int
}

// Marker methods for Type interface
func (Tvoid) implType()    {}
func (Tint) implType()     {}
func (Tfloat) implType()   {}
func (Tword) implType()    {}
func (Tpointer) implType() {}

func (Tvoid) BitSize() int      { return 0 }
func (t Tint) BitSize() int     { return t.Bits }
func (t Tfloat) BitSize() int   { return t.Bits }
func (t Tword) BitSize() int    { return t.Bits }
func (t Tpointer) BitSize() int { return t.Bits }

func (Tvoid) String() string { return "void" }

func (t Tint) String() string {
	if t.Sign == Unsigned {
		return fmt.Sprintf("uint%d", t.Bits)
	}
	return fmt.Sprintf("int%d", t.Bits)
}

func (t Tfloat) String() string { return fmt.Sprintf("real%d", t.Bits) }
func (t Tword) String() string  { return fmt.Sprintf("word%d", t.Bits) }

func (t Tpointer) String() string {
	if t.Elem == nil {
		return fmt.Sprintf("ptr%d", t.Bits)
	}
	return fmt.Sprintf("ptr%d<%s>", t.Bits, t.Elem)
}

// ByteSize returns the storage size of t in bytes, rounding partial
// bytes up.
func ByteSize(t Type) int64 {
	return int64((t.BitSize() + 7) / 8)
}

// Constructor helpers

func Void() Type                 { return Tvoid{} }
func Int8() Type                 { return Tint{Bits: 8, Sign: Signed} }
func Int16() Type                { return Tint{Bits: 16, Sign: Signed} }
func Int32() Type                { return Tint{Bits: 32, Sign: Signed} }
func Int64() Type                { return Tint{Bits: 64, Sign: Signed} }
func UInt8() Type                { return Tint{Bits: 8, Sign: Unsigned} }
func UInt16() Type               { return Tint{Bits: 16, Sign: Unsigned} }
func UInt32() Type               { return Tint{Bits: 32, Sign: Unsigned} }
func UInt64() Type               { return Tint{Bits: 64, Sign: Unsigned} }
func Int(bits int) Type          { return Tint{Bits: bits, Sign: Signed} }
func Real32() Type               { return Tfloat{Bits: 32} }
func Real64() Type               { return Tfloat{Bits: 64} }
func Word(bits int) Type         { return Tword{Bits: bits} }
func Ptr(elem Type, bits int) Type { return Tpointer{Elem: elem, Bits: bits} }

// Parse converts the textual form used in procedure description files
// back into a Type. Accepted forms: "void", "intN", "uintN", "wordN",
// "realN", "ptrN" and "ptrN<elem>".
func Parse(s string) (Type, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "void":
		return Tvoid{}, nil
	case strings.HasPrefix(s, "ptr"):
		rest := s[len("ptr"):]
		elemSpec := ""
		if i := strings.IndexByte(rest, '<'); i >= 0 {
			if !strings.HasSuffix(rest, ">") {
				return nil, fmt.Errorf("dtypes: malformed pointer type %q", s)
			}
			elemSpec = rest[i+1 : len(rest)-1]
			rest = rest[:i]
		}
		bits, err := parseBits(s, rest)
		if err != nil {
			return nil, err
		}
		var elem Type
		if elemSpec != "" {
			elem, err = Parse(elemSpec)
			if err != nil {
				return nil, err
			}
		}
		return Tpointer{Elem: elem, Bits: bits}, nil
	case strings.HasPrefix(s, "uint"):
		bits, err := parseBits(s, s[len("uint"):])
		if err != nil {
			return nil, err
		}
		return Tint{Bits: bits, Sign: Unsigned}, nil
	case strings.HasPrefix(s, "int"):
		bits, err := parseBits(s, s[len("int"):])
		if err != nil {
			return nil, err
		}
		return Tint{Bits: bits, Sign: Signed}, nil
	case strings.HasPrefix(s, "word"):
		bits, err := parseBits(s, s[len("word"):])
		if err != nil {
			return nil, err
		}
		return Tword{Bits: bits}, nil
	case strings.HasPrefix(s, "real"):
		bits, err := parseBits(s, s[len("real"):])
		if err != nil {
			return nil, err
		}
		return Tfloat{Bits: bits}, nil
	}
	return nil, fmt.Errorf("dtypes: unknown type %q", s)
}

func parseBits(whole, digits string) (int, error) {
	bits, err := strconv.Atoi(digits)
	if err != nil || bits <= 0 {
		return 0, fmt.Errorf("dtypes: bad bit width in %q", whole)
	}
	return bits, nil
}
