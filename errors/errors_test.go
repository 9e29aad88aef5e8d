package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:    PhaseDispatch,
				Kind:     KindTypeMismatch,
				Member:   "lv/gusc/jni/tests/StaticClass.setInt(I)V",
				Path:     []string{"arg0"},
				Category: "int",
				Detail:   "got Go type string",
			},
			contains: []string{"[dispatch]", "type_mismatch", "StaticClass.setInt(I)V", "arg0", "int", "got Go type string"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseBridge,
				Kind:  KindDoubleRelease,
			},
			contains: []string{"[bridge]", "double_release"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseNative,
				Kind:   KindNativeInvocationFailed,
				Detail: "entry point failed",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[native]", "native_invocation_failed", "entry point failed", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NativeInvocationFailed("A.b()V", cause)

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseRegistry,
		Kind:  KindUseAfterRelease,
	}

	if !err.Is(&Error{Phase: PhaseRegistry, Kind: KindUseAfterRelease}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseBridge, Kind: KindUseAfterRelease}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseRegistry, Kind: KindDoubleRelease}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, ErrUseAfterRelease) {
		t.Error("sentinel without phase should match on kind")
	}
	if errors.Is(err, ErrDoubleRelease) {
		t.Error("sentinel of another kind should not match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseMarshal, KindConversionOverflow).
		Member("C.m(B)V").
		Path("arg0").
		Category("byte").
		Value(300).
		Cause(cause).
		Detail("value %d overflows %s", 300, "byte").
		Build()

	if err.Phase != PhaseMarshal {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseMarshal)
	}
	if err.Kind != KindConversionOverflow {
		t.Errorf("Kind = %v, want %v", err.Kind, KindConversionOverflow)
	}
	if err.Member != "C.m(B)V" {
		t.Errorf("Member = %v", err.Member)
	}
	if len(err.Path) != 1 || err.Path[0] != "arg0" {
		t.Errorf("Path = %v, want [arg0]", err.Path)
	}
	if err.Category != "byte" {
		t.Errorf("Category = %v, want byte", err.Category)
	}
	if err.Value != 300 {
		t.Errorf("Value = %v, want 300", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "value 300 overflows byte" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		err  *Error
		kind Kind
	}{
		{UnknownSignature("Q"), KindUnknownSignature},
		{UnsupportedNesting("[[I", 2), KindUnsupportedNesting},
		{TypeMismatch(PhaseMarshal, nil, "string", "int"), KindTypeMismatch},
		{Overflow(PhaseMarshal, nil, 70000, "short"), KindConversionOverflow},
		{DoubleRelease(PhaseBridge, 3), KindDoubleRelease},
		{UseAfterRelease(PhaseRegistry, 3), KindUseAfterRelease},
		{BindingNotFound("method", "A.b()V"), KindBindingNotFound},
		{ArityMismatch("A.b(I)V", 1, 0), KindArityMismatch},
		{NullTarget("A.b()V"), KindNullTargetForInstanceMember},
		{NonNullTarget("A.b()V"), KindNonNullTargetForStaticMember},
		{NativeInvocationFailed("A.b()V", errors.New("x")), KindNativeInvocationFailed},
		{ReentrantAcquire("same array"), KindReentrantAcquire},
		{AllocationFailed(16, 8, nil), KindAllocation},
		{OutOfBounds(PhaseBridge, nil, 10, 5), KindOutOfBounds},
		{InvalidInput(PhaseBuild, "empty"), KindInvalidInput},
		{DuplicateBinding("A.b()V"), KindDuplicateBinding},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if tt.err.Error() == "" {
				t.Error("empty message")
			}
		})
	}
}

func TestUnrecoverable(t *testing.T) {
	if !DoubleRelease(PhaseBridge, 1).Unrecoverable() {
		t.Error("DoubleRelease should be unrecoverable")
	}
	if !UseAfterRelease(PhaseRegistry, 1).Unrecoverable() {
		t.Error("UseAfterRelease should be unrecoverable")
	}
	if ArityMismatch("m", 1, 2).Unrecoverable() {
		t.Error("ArityMismatch should be recoverable")
	}

	wrapped := fmt.Errorf("release: %w", DoubleRelease(PhaseBridge, 1))
	if !IsUnrecoverable(wrapped) {
		t.Error("IsUnrecoverable should look through wrapping")
	}

	joined := errors.Join(errors.New("entry failed"), UseAfterRelease(PhaseRegistry, 2))
	if !IsUnrecoverable(joined) {
		t.Error("IsUnrecoverable should look through joined errors")
	}

	if IsUnrecoverable(nil) {
		t.Error("nil is not unrecoverable")
	}
}
