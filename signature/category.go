package signature

// Category is the value category of a boundary value.
type Category uint8

const (
	CategoryBool Category = iota
	CategoryByte
	CategoryChar
	CategoryShort
	CategoryInt
	CategoryLong
	CategoryFloat
	CategoryDouble
	CategoryString
	CategoryObject
	CategoryArray
	CategoryVoid
)

var categoryNames = [...]string{
	CategoryBool:   "boolean",
	CategoryByte:   "byte",
	CategoryChar:   "char",
	CategoryShort:  "short",
	CategoryInt:    "int",
	CategoryLong:   "long",
	CategoryFloat:  "float",
	CategoryDouble: "double",
	CategoryString: "string",
	CategoryObject: "object",
	CategoryArray:  "array",
	CategoryVoid:   "void",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// IsPrimitive reports whether values of c are carried by value.
func (c Category) IsPrimitive() bool {
	return c <= CategoryDouble
}

// IsReference reports whether values of c are carried by reference.
func (c Category) IsReference() bool {
	return c == CategoryString || c == CategoryObject || c == CategoryArray
}
