// Package signature is the type descriptor table of the bridge.
//
// Every value that crosses the boundary has a Category. The table maps the
// compact JNI signature tokens to immutable Descriptors:
//
//	Token                 Category   Native size
//	─────────────────────────────────────────────
//	Z                     boolean    1
//	B                     byte       1
//	C                     char       2
//	S                     short      2
//	I                     int        4
//	J                     long       8
//	F                     float      4
//	D                     double     8
//	Ljava/lang/String;    string     8 (reference)
//	L<class>;             object     8 (reference)
//	[<token>              array      8 (reference)
//	V                     void       0 (return position only)
//
// Arrays nest one level only. "[[I" resolves to an UnsupportedNesting error.
//
// Method signatures use the usual "(params)return" form:
//
//	sig, err := signature.ParseMethod("(ZBCSIJFDLjava/lang/String;)V")
//
// The table is populated at package init and never mutated, so descriptors
// are shared by all goroutines without locking.
package signature
