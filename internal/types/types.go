// Package types is the process-wide data-type registry: the fixed set of
// primitive types a schema leaf may carry, their text<->binary
// conversions, null sentinels, and comparisons.
//
// The registry is populated once at package init and is read-only
// thereafter, so it needs no locking even though it is shared across
// every schema tree and column in the process (spec.md section 5).
package types

import (
	"fmt"
	"math"
)

// ID identifies a primitive type. Values are a dense range starting at
// Invalid=0; the on-disk "type letter" used in column-path encoding
// (spec.md section 6) is 'A'+ID.
type ID int

const (
	Invalid ID = iota
	Boolean
	Int8
	Int16
	Int32
	Int64
	Float
	Double
	String
	Bytes
	maxID
)

// BytesFixedSize is the fixed width of the Bytes primitive type.
const BytesFixedSize = 12

// Letter returns the on-disk type letter used by column-path encoding.
func (id ID) Letter() byte { return byte('A') + byte(id) }

func (id ID) String() string {
	if int(id) < 0 || id >= maxID {
		return "invalid"
	}
	return registry[id].name
}

// Type is the behavior every primitive type exposes to the rest of the
// engine: fixed-width types report a positive DefaultSize, the one
// variable-length type (String) reports 0, and Invalid reports -1.
type Type interface {
	ID() ID
	Name() string

	// DefaultSize is the storage width used to size a BinaryValueArray
	// slot: >0 for fixed types, 0 for the variable type, <0 for Invalid.
	DefaultSize() int

	// NullBinary returns the sentinel binary representation used for a
	// null value of this type (numerics: minimum representable value;
	// String: empty text).
	NullBinary() []byte

	// ToBinary converts a JSON-ish text value into this type's binary
	// representation.
	ToBinary(text string) ([]byte, error)

	// ToText converts a binary value back into JSON-ish text form
	// (strings are double-quoted, matching JSON scalar syntax).
	ToText(bin []byte) (string, error)

	Equal(a, b []byte) bool
	// Compare returns <0, 0, >0 as a<b, a==b, a>b.
	Compare(a, b []byte) int

	// BinarySize reports the logical length in bytes of a decoded
	// value: for fixed types this is always DefaultSize(); for String
	// it is the length of the text, excluding any sentinel.
	BinarySize(bin []byte) int
}

var registry [maxID]entry

type entry struct {
	name string
	typ  Type
}

func init() {
	registry[Invalid] = entry{"invalid", invalidType{}}
	registry[Boolean] = entry{"boolean", boolType{}}
	registry[Int8] = entry{"int8", numericType[int8]{}}
	registry[Int16] = entry{"int16", numericType[int16]{}}
	registry[Int32] = entry{"int32", numericType[int32]{}}
	registry[Int64] = entry{"int64", numericType[int64]{}}
	registry[Float] = entry{"float", floatType[float32]{}}
	registry[Double] = entry{"double", floatType[float64]{}}
	registry[String] = entry{"string", stringType{}}
	registry[Bytes] = entry{"bytes", bytesType{}}
}

// Get returns the Type instance for id. It is a schema-miss style error
// (spec.md section 7, kind 2) if id is out of range — callers that hit
// this have a corrupted schema image or a programming error, never a
// legitimate runtime condition.
func Get(id ID) (Type, error) {
	if id < 0 || id >= maxID {
		return nil, fmt.Errorf("types: unknown type id %d", int(id))
	}
	return registry[id].typ, nil
}

// MustGet is Get without the error return, for call sites that already
// validated id came from the registry (e.g. iterating ID values 1..maxID).
func MustGet(id ID) Type {
	t, err := Get(id)
	if err != nil {
		panic(err)
	}
	return t
}

// Max returns the number of defined ids, including Invalid.
func Max() int { return int(maxID) }

// --- invalid -----------------------------------------------------------

type invalidType struct{}

func (invalidType) ID() ID                     { return Invalid }
func (invalidType) Name() string                { return "invalid" }
func (invalidType) DefaultSize() int            { return -1 }
func (invalidType) NullBinary() []byte          { return nil }
func (invalidType) ToBinary(string) ([]byte, error) {
	return nil, fmt.Errorf("types: cannot convert text for invalid type")
}
func (invalidType) ToText([]byte) (string, error) {
	return "", fmt.Errorf("types: cannot render text for invalid type")
}
func (invalidType) Equal(a, b []byte) bool { return len(a) == 0 && len(b) == 0 }
func (invalidType) Compare(a, b []byte) int { return 0 }
func (invalidType) BinarySize([]byte) int   { return -1 }

// --- boolean -------------------------------------------------------------

// boolNullSentinel is an out-of-domain byte value (booleans only occupy
// 0/1) used as the null representation, the boolean analogue of the
// numeric types' "minimum representable value" null convention.
const boolNullSentinel = byte(2)

type boolType struct{}

func (boolType) ID() ID          { return Boolean }
func (boolType) Name() string     { return "boolean" }
func (boolType) DefaultSize() int { return 1 }
func (boolType) NullBinary() []byte {
	return []byte{boolNullSentinel}
}

func (boolType) ToBinary(text string) ([]byte, error) {
	switch text {
	case "true":
		return []byte{1}, nil
	case "false":
		return []byte{0}, nil
	default:
		return nil, fmt.Errorf("types: invalid boolean text %q", text)
	}
}

func (boolType) ToText(bin []byte) (string, error) {
	if len(bin) != 1 {
		return "", fmt.Errorf("types: invalid boolean binary length %d", len(bin))
	}
	switch bin[0] {
	case 0:
		return "false", nil
	case 1:
		return "true", nil
	default:
		return "null", nil
	}
}

func (boolType) Equal(a, b []byte) bool  { return len(a) == 1 && len(b) == 1 && a[0] == b[0] }
func (boolType) Compare(a, b []byte) int { return int(a[0]) - int(b[0]) }
func (boolType) BinarySize([]byte) int   { return 1 }

// --- string (the only variable-length type) -------------------------------

type stringType struct{}

func (stringType) ID() ID          { return String }
func (stringType) Name() string     { return "string" }
func (stringType) DefaultSize() int { return 0 }
func (stringType) NullBinary() []byte {
	return []byte{}
}

func (stringType) ToBinary(text string) ([]byte, error) {
	return []byte(text), nil
}

func (stringType) ToText(bin []byte) (string, error) {
	return fmt.Sprintf("%q", string(bin)), nil
}

func (stringType) Equal(a, b []byte) bool { return string(a) == string(b) }
func (stringType) Compare(a, b []byte) int {
	as, bs := string(a), string(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}
func (stringType) BinarySize(bin []byte) int { return len(bin) }

// --- bytes (12-byte fixed) -------------------------------------------------

type bytesType struct{}

func (bytesType) ID() ID          { return Bytes }
func (bytesType) Name() string     { return "bytes" }
func (bytesType) DefaultSize() int { return BytesFixedSize }
func (bytesType) NullBinary() []byte {
	return make([]byte, BytesFixedSize)
}

func (bytesType) ToBinary(text string) ([]byte, error) {
	out := make([]byte, BytesFixedSize)
	n := copy(out, text)
	_ = n
	return out, nil
}

func (bytesType) ToText(bin []byte) (string, error) {
	return fmt.Sprintf("%q", string(bin)), nil
}

func (bytesType) Equal(a, b []byte) bool  { return string(a) == string(b) }
func (bytesType) Compare(a, b []byte) int { return stringType{}.Compare(a, b) }
func (bytesType) BinarySize([]byte) int   { return BytesFixedSize }

// --- numeric (signed integer) types, generic over width --------------------

type signedInt interface {
	~int8 | ~int16 | ~int32 | ~int64
}

type numericType[T signedInt] struct{}

func (numericType[T]) ID() ID {
	var zero T
	switch any(zero).(type) {
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	default:
		return Int64
	}
}

func (n numericType[T]) Name() string {
	switch n.ID() {
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	default:
		return "int64"
	}
}

func (numericType[T]) DefaultSize() int {
	var zero T
	return sizeofInt(zero)
}

func sizeofInt[T signedInt](zero T) int {
	switch any(zero).(type) {
	case int8:
		return 1
	case int16:
		return 2
	case int32:
		return 4
	default:
		return 8
	}
}

func (n numericType[T]) NullBinary() []byte {
	out := make([]byte, n.DefaultSize())
	putInt(out, minOf[T]())
	return out
}

func minOf[T signedInt]() int64 {
	var zero T
	switch any(zero).(type) {
	case int8:
		return math.MinInt8
	case int16:
		return math.MinInt16
	case int32:
		return math.MinInt32
	default:
		return math.MinInt64
	}
}

func putInt(dst []byte, v int64) {
	for i := range dst {
		dst[i] = byte(v >> (8 * i))
	}
}

func getInt(src []byte) int64 {
	var v int64
	for i := len(src) - 1; i >= 0; i-- {
		v = (v << 8) | int64(src[i])
	}
	// sign-extend from the stored width
	shift := uint(64 - 8*len(src))
	return (v << shift) >> shift
}

func (n numericType[T]) ToBinary(text string) ([]byte, error) {
	var v int64
	if _, err := fmt.Sscanf(text, "%d", &v); err != nil {
		return nil, fmt.Errorf("types: invalid %s text %q: %w", n.Name(), text, err)
	}
	out := make([]byte, n.DefaultSize())
	putInt(out, v)
	return out, nil
}

func (n numericType[T]) ToText(bin []byte) (string, error) {
	if len(bin) != n.DefaultSize() {
		return "", fmt.Errorf("types: invalid %s binary length %d", n.Name(), len(bin))
	}
	return fmt.Sprintf("%d", getInt(bin)), nil
}

func (numericType[T]) Equal(a, b []byte) bool  { return getInt(a) == getInt(b) }
func (numericType[T]) Compare(a, b []byte) int { return int(getInt(a) - getInt(b)) }
func (n numericType[T]) BinarySize([]byte) int { return n.DefaultSize() }

// --- floating-point types, generic over width -------------------------------

type floatKind interface {
	~float32 | ~float64
}

type floatType[T floatKind] struct{}

func (floatType[T]) ID() ID {
	var zero T
	if _, ok := any(zero).(float32); ok {
		return Float
	}
	return Double
}

func (f floatType[T]) Name() string {
	if f.ID() == Float {
		return "float"
	}
	return "double"
}

func (floatType[T]) DefaultSize() int {
	var zero T
	if _, ok := any(zero).(float32); ok {
		return 4
	}
	return 8
}

func (f floatType[T]) NullBinary() []byte {
	out := make([]byte, f.DefaultSize())
	if f.DefaultSize() == 4 {
		putFloat32(out, -math.MaxFloat32)
	} else {
		putFloat64(out, -math.MaxFloat64)
	}
	return out
}

func putFloat32(dst []byte, v float32) {
	bits := math.Float32bits(v)
	putInt(dst, int64(bits))
}

func putFloat64(dst []byte, v float64) {
	bits := math.Float64bits(v)
	putInt(dst, int64(bits))
}

func getFloat32(src []byte) float32 {
	return math.Float32frombits(uint32(getUint(src)))
}

func getFloat64(src []byte) float64 {
	return math.Float64frombits(uint64(getUint(src)))
}

func getUint(src []byte) uint64 {
	var v uint64
	for i := len(src) - 1; i >= 0; i-- {
		v = (v << 8) | uint64(src[i])
	}
	return v
}

func (f floatType[T]) ToBinary(text string) ([]byte, error) {
	var v float64
	if _, err := fmt.Sscanf(text, "%g", &v); err != nil {
		return nil, fmt.Errorf("types: invalid %s text %q: %w", f.Name(), text, err)
	}
	out := make([]byte, f.DefaultSize())
	if f.DefaultSize() == 4 {
		putFloat32(out, float32(v))
	} else {
		putFloat64(out, v)
	}
	return out, nil
}

func (f floatType[T]) ToText(bin []byte) (string, error) {
	if len(bin) != f.DefaultSize() {
		return "", fmt.Errorf("types: invalid %s binary length %d", f.Name(), len(bin))
	}
	if f.DefaultSize() == 4 {
		return fmt.Sprintf("%g", getFloat32(bin)), nil
	}
	return fmt.Sprintf("%g", getFloat64(bin)), nil
}

func (f floatType[T]) Equal(a, b []byte) bool { return f.Compare(a, b) == 0 }

func (f floatType[T]) Compare(a, b []byte) int {
	var av, bv float64
	if f.DefaultSize() == 4 {
		av, bv = float64(getFloat32(a)), float64(getFloat32(b))
	} else {
		av, bv = getFloat64(a), getFloat64(b)
	}
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	default:
		return 0
	}
}

func (f floatType[T]) BinarySize([]byte) int { return f.DefaultSize() }
