package signature

import (
	"strings"

	"github.com/wippyai/jni-bridge/errors"
)

// ConstructorName is the member name of instance constructors.
const ConstructorName = "<init>"

// MethodSignature is a parsed "(params)return" signature.
type MethodSignature struct {
	Return *Descriptor
	Raw    string
	Params []*Descriptor
}

// IsVoid reports whether the method returns nothing.
func (m *MethodSignature) IsVoid() bool {
	return m.Return.Category == CategoryVoid
}

// ParseMethod parses a method signature such as "(I[BLjava/lang/String;)V".
func ParseMethod(sig string) (*MethodSignature, error) {
	if len(sig) < 3 || sig[0] != '(' {
		return nil, errors.UnknownSignature(sig)
	}
	closeIdx := strings.IndexByte(sig, ')')
	if closeIdx < 0 {
		return nil, errors.UnknownSignature(sig)
	}

	m := &MethodSignature{Raw: sig}
	pos := 1
	for pos < closeIdx {
		d, next, err := parseValue(sig[:closeIdx], pos)
		if err != nil {
			return nil, err
		}
		m.Params = append(m.Params, d)
		pos = next
	}

	ret := sig[closeIdx+1:]
	if ret == "V" {
		m.Return = Void
		return m, nil
	}
	d, err := Resolve(ret)
	if err != nil {
		return nil, err
	}
	m.Return = d
	return m, nil
}

// MethodSignatureOf composes a method signature from descriptors.
// A nil ret means void.
func MethodSignatureOf(ret *Descriptor, params ...*Descriptor) string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range params {
		b.WriteString(p.Token)
	}
	b.WriteByte(')')
	if ret == nil {
		ret = Void
	}
	b.WriteString(ret.Token)
	return b.String()
}

// ParseField parses a field signature: exactly one value token.
func ParseField(sig string) (*Descriptor, error) {
	if sig == "V" {
		return nil, errors.UnknownSignature(sig)
	}
	return Resolve(sig)
}
