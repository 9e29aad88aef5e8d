package signature

import (
	"strings"

	"github.com/wippyai/jni-bridge/errors"
)

// StringClass is the class path of the managed string type.
const StringClass = "java/lang/String"

// ObjectClass is the root of the class hierarchy.
const ObjectClass = "java/lang/Object"

// ReferenceSize is the native width of any reference slot.
const ReferenceSize = 8

// Descriptor describes one value category. Descriptors are immutable.
type Descriptor struct {
	// Elem is the element descriptor of an array.
	Elem *Descriptor
	// Class is the slash-separated class path of an object reference.
	Class      string
	Token      string
	NativeSize uint32
	Category   Category
}

// IsPrimitive reports whether d is carried by value.
func (d *Descriptor) IsPrimitive() bool {
	return d.Category.IsPrimitive()
}

// IsPrimitiveArray reports whether d is an array of a primitive category.
func (d *Descriptor) IsPrimitiveArray() bool {
	return d.Category == CategoryArray && d.Elem.IsPrimitive()
}

// Equal reports whether d and o describe the same category.
func (d *Descriptor) Equal(o *Descriptor) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.Token == o.Token
}

// String returns the Java source spelling of d.
func (d *Descriptor) String() string {
	switch d.Category {
	case CategoryString:
		return "String"
	case CategoryObject:
		return strings.ReplaceAll(d.Class, "/", ".")
	case CategoryArray:
		return d.Elem.String() + "[]"
	default:
		return d.Category.String()
	}
}

func primitive(c Category, token string, size uint32) *Descriptor {
	return &Descriptor{Category: c, Token: token, NativeSize: size}
}

func arrayOf(elem *Descriptor) *Descriptor {
	return &Descriptor{
		Category:   CategoryArray,
		Elem:       elem,
		Token:      "[" + elem.Token,
		NativeSize: ReferenceSize,
	}
}

var (
	Boolean = primitive(CategoryBool, "Z", 1)
	Byte    = primitive(CategoryByte, "B", 1)
	Char    = primitive(CategoryChar, "C", 2)
	Short   = primitive(CategoryShort, "S", 2)
	Int     = primitive(CategoryInt, "I", 4)
	Long    = primitive(CategoryLong, "J", 8)
	Float   = primitive(CategoryFloat, "F", 4)
	Double  = primitive(CategoryDouble, "D", 8)
	Void    = primitive(CategoryVoid, "V", 0)
	String  = &Descriptor{
		Category:   CategoryString,
		Class:      StringClass,
		Token:      "L" + StringClass + ";",
		NativeSize: ReferenceSize,
	}

	BooleanArray = arrayOf(Boolean)
	ByteArray    = arrayOf(Byte)
	CharArray    = arrayOf(Char)
	ShortArray   = arrayOf(Short)
	IntArray     = arrayOf(Int)
	LongArray    = arrayOf(Long)
	FloatArray   = arrayOf(Float)
	DoubleArray  = arrayOf(Double)
	StringArray  = arrayOf(String)
)

// table holds every fixed token. Object tokens are parsed structurally.
var table = func() map[string]*Descriptor {
	m := make(map[string]*Descriptor, 20)
	for _, d := range []*Descriptor{
		Boolean, Byte, Char, Short, Int, Long, Float, Double, String,
		BooleanArray, ByteArray, CharArray, ShortArray, IntArray,
		LongArray, FloatArray, DoubleArray, StringArray,
	} {
		m[d.Token] = d
	}
	return m
}()

// Object returns the descriptor of a reference to class, given as a
// slash-separated class path. The managed string class yields String.
func Object(class string) *Descriptor {
	if class == StringClass {
		return String
	}
	return &Descriptor{
		Category:   CategoryObject,
		Class:      class,
		Token:      "L" + class + ";",
		NativeSize: ReferenceSize,
	}
}

// ArrayOf returns the one-level array descriptor of elem.
func ArrayOf(elem *Descriptor) (*Descriptor, error) {
	if elem.Category == CategoryArray {
		return nil, errors.UnsupportedNesting("["+elem.Token, 2)
	}
	if elem.Category == CategoryVoid {
		return nil, errors.UnknownSignature("[" + elem.Token)
	}
	if d, ok := table["["+elem.Token]; ok {
		return d, nil
	}
	return arrayOf(elem), nil
}

// Resolve maps a single value token to its descriptor.
// "V" is not a value token; use ParseMethod for return positions.
func Resolve(token string) (*Descriptor, error) {
	if d, ok := table[token]; ok {
		return d, nil
	}
	d, n, err := parseValue(token, 0)
	if err != nil {
		return nil, err
	}
	if n != len(token) {
		return nil, errors.UnknownSignature(token)
	}
	return d, nil
}

// parseValue parses one value token starting at pos and returns the
// position after it.
func parseValue(s string, pos int) (*Descriptor, int, error) {
	start := pos
	depth := 0
	for pos < len(s) && s[pos] == '[' {
		depth++
		pos++
	}
	if pos >= len(s) {
		return nil, pos, errors.UnknownSignature(s[start:])
	}

	var elem *Descriptor
	switch s[pos] {
	case 'Z':
		elem = Boolean
	case 'B':
		elem = Byte
	case 'C':
		elem = Char
	case 'S':
		elem = Short
	case 'I':
		elem = Int
	case 'J':
		elem = Long
	case 'F':
		elem = Float
	case 'D':
		elem = Double
	case 'L':
		end := strings.IndexByte(s[pos:], ';')
		if end <= 1 {
			return nil, pos, errors.UnknownSignature(s[start:])
		}
		class := s[pos+1 : pos+end]
		if strings.ContainsAny(class, "[();.") {
			return nil, pos, errors.UnknownSignature(s[start : pos+end+1])
		}
		elem = Object(class)
		pos += end
	default:
		return nil, pos, errors.UnknownSignature(s[start : pos+1])
	}
	pos++

	switch depth {
	case 0:
		return elem, pos, nil
	case 1:
		d, err := ArrayOf(elem)
		return d, pos, err
	default:
		return nil, pos, errors.UnsupportedNesting(s[start:pos], depth)
	}
}
