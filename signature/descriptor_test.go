package signature

import (
	"errors"
	"testing"

	jerrors "github.com/wippyai/jni-bridge/errors"
)

func TestResolve_Primitives(t *testing.T) {
	tests := []struct {
		token string
		cat   Category
		size  uint32
	}{
		{"Z", CategoryBool, 1},
		{"B", CategoryByte, 1},
		{"C", CategoryChar, 2},
		{"S", CategoryShort, 2},
		{"I", CategoryInt, 4},
		{"J", CategoryLong, 8},
		{"F", CategoryFloat, 4},
		{"D", CategoryDouble, 8},
		{"Ljava/lang/String;", CategoryString, ReferenceSize},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			d, err := Resolve(tt.token)
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.token, err)
			}
			if d.Category != tt.cat {
				t.Errorf("Category = %v, want %v", d.Category, tt.cat)
			}
			if d.NativeSize != tt.size {
				t.Errorf("NativeSize = %d, want %d", d.NativeSize, tt.size)
			}
			if d.Token != tt.token {
				t.Errorf("Token = %q, want %q", d.Token, tt.token)
			}
		})
	}
}

func TestResolve_SharedDescriptors(t *testing.T) {
	a, _ := Resolve("[I")
	b, _ := Resolve("[I")
	if a != b || a != IntArray {
		t.Error("fixed tokens should resolve to the shared descriptor")
	}
	if IntArray.Elem != Int {
		t.Error("IntArray element should be Int")
	}
}

func TestResolve_Arrays(t *testing.T) {
	tests := []struct {
		token string
		elem  Category
	}{
		{"[Z", CategoryBool},
		{"[B", CategoryByte},
		{"[C", CategoryChar},
		{"[S", CategoryShort},
		{"[I", CategoryInt},
		{"[J", CategoryLong},
		{"[F", CategoryFloat},
		{"[D", CategoryDouble},
		{"[Ljava/lang/String;", CategoryString},
		{"[Ljava/lang/Integer;", CategoryObject},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			d, err := Resolve(tt.token)
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.token, err)
			}
			if d.Category != CategoryArray {
				t.Fatalf("Category = %v, want array", d.Category)
			}
			if d.Elem.Category != tt.elem {
				t.Errorf("Elem = %v, want %v", d.Elem.Category, tt.elem)
			}
		})
	}
}

func TestResolve_Object(t *testing.T) {
	d, err := Resolve("Ljava/lang/Integer;")
	if err != nil {
		t.Fatal(err)
	}
	if d.Category != CategoryObject || d.Class != "java/lang/Integer" {
		t.Errorf("got %v %q", d.Category, d.Class)
	}
	if d.String() != "java.lang.Integer" {
		t.Errorf("String() = %q", d.String())
	}
	if !d.Equal(Object("java/lang/Integer")) {
		t.Error("equal class descriptors should compare equal")
	}
	if d.Equal(Object("java/lang/Number")) {
		t.Error("different classes should not compare equal")
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		token string
		want  *jerrors.Error
	}{
		{"", jerrors.ErrUnknownSignature},
		{"Q", jerrors.ErrUnknownSignature},
		{"V", jerrors.ErrUnknownSignature},
		{"II", jerrors.ErrUnknownSignature},
		{"Ljava/lang/String", jerrors.ErrUnknownSignature},
		{"L;", jerrors.ErrUnknownSignature},
		{"[", jerrors.ErrUnknownSignature},
		{"[V", jerrors.ErrUnknownSignature},
		{"[[I", jerrors.ErrUnsupportedNesting},
		{"[[Ljava/lang/String;", jerrors.ErrUnsupportedNesting},
		{"[[[D", jerrors.ErrUnsupportedNesting},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			_, err := Resolve(tt.token)
			if err == nil {
				t.Fatalf("Resolve(%q) should fail", tt.token)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Resolve(%q) = %v, want kind %v", tt.token, err, tt.want.Kind)
			}
		})
	}
}

func TestArrayOf(t *testing.T) {
	d, err := ArrayOf(Long)
	if err != nil || d != LongArray {
		t.Fatalf("ArrayOf(Long) = %v, %v", d, err)
	}
	if _, err := ArrayOf(IntArray); !errors.Is(err, jerrors.ErrUnsupportedNesting) {
		t.Errorf("ArrayOf(array) = %v, want UnsupportedNesting", err)
	}
	obj, err := ArrayOf(Object("a/B"))
	if err != nil || obj.Token != "[La/B;" {
		t.Errorf("ArrayOf(object) = %v, %v", obj, err)
	}
}

func TestDescriptor_String(t *testing.T) {
	if IntArray.String() != "int[]" {
		t.Errorf("IntArray.String() = %q", IntArray.String())
	}
	if StringArray.String() != "String[]" {
		t.Errorf("StringArray.String() = %q", StringArray.String())
	}
	if Category(200).String() != "unknown" {
		t.Error("out of range category should print unknown")
	}
}
