package dispatch

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/jni-bridge/errors"
	"github.com/wippyai/jni-bridge/handle"
	"github.com/wippyai/jni-bridge/heap"
	"github.com/wippyai/jni-bridge/managed"
	"github.com/wippyai/jni-bridge/marshal"
	"github.com/wippyai/jni-bridge/refs"
	"github.com/wippyai/jni-bridge/signature"
)

const (
	calc  = "test/Calc"
	point = "test/Point"
	base  = "test/Base"
)

type harness struct {
	d    *Dispatcher
	heap *heap.Heap
	reg  *refs.Registry
}

func newHarness(t *testing.T, table *Table) *harness {
	t.Helper()
	ctx := context.Background()
	h, err := heap.New(ctx, nil)
	if err != nil {
		t.Fatalf("heap.New: %v", err)
	}
	t.Cleanup(func() { h.Close(ctx) })
	reg := refs.NewRegistry()
	return &harness{
		d:    New(table, marshal.New(h, nil, marshal.EncodingModifiedUTF8), reg),
		heap: h,
		reg:  reg,
	}
}

// assertClean fails if any view, local or heap buffer survived a call.
func (h *harness) assertClean(t *testing.T) {
	t.Helper()
	if n := h.d.Bridge().Live(); n != 0 {
		t.Errorf("%d views still live", n)
	}
	if n := h.reg.LiveLocal(); n != 0 {
		t.Errorf("%d locals still live", n)
	}
	if n := h.heap.Live(); n != 0 {
		t.Errorf("%d heap buffers still live", n)
	}
}

func key(owner, name, sig string) Key {
	return Key{Owner: owner, Name: name, Signature: sig}
}

func mustBuild(t *testing.T, b *Builder) *Table {
	t.Helper()
	table, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return table
}

// calcTable registers a small class with one member per dispatch path.
func calcTable(t *testing.T, calls *int) *Table {
	b := NewBuilder()
	b.Class(calc).
		StaticField("total", "J", int64(-1)).
		StaticField("name", "Ljava/lang/String;", "calc").
		StaticMethod("add", "(JJ)J", func(_ context.Context, _ *Env, _ marshal.Native, args []marshal.Native) (marshal.Native, error) {
			*calls++
			return marshal.Long(args[0].Long() + args[1].Long()), nil
		}).
		StaticMethod("concat", "(Ljava/lang/String;Ljava/lang/String;)Ljava/lang/String;", func(_ context.Context, env *Env, _ marshal.Native, args []marshal.Native) (marshal.Native, error) {
			*calls++
			a, err := env.String(args[0])
			if err != nil {
				return marshal.Native{}, err
			}
			b, err := env.String(args[1])
			if err != nil {
				return marshal.Native{}, err
			}
			return env.NewString(a + b)
		}).
		StaticMethod("double", "([I)V", func(_ context.Context, env *Env, _ marshal.Native, args []marshal.Native) (marshal.Native, error) {
			*calls++
			v, err := env.View(args[0])
			if err != nil {
				return marshal.Native{}, err
			}
			n, _ := v.Len()
			for i := 0; i < n; i++ {
				x, _ := v.Get(i)
				if err := v.Set(i, x.(int32)*2); err != nil {
					return marshal.Native{}, err
				}
			}
			return marshal.Void, nil
		}).
		StaticMethod("sumBoth", "([I[I)I", func(_ context.Context, env *Env, _ marshal.Native, args []marshal.Native) (marshal.Native, error) {
			*calls++
			if args[0].View != args[1].View {
				return marshal.Native{}, fmt.Errorf("same array got two views")
			}
			v, _ := env.View(args[0])
			n, _ := v.Len()
			var sum int32
			for i := 0; i < n; i++ {
				x, _ := v.Get(i)
				sum += x.(int32)
			}
			return marshal.Int(sum * 2), nil
		}).
		StaticMethod("fail", "([ILjava/lang/String;)V", func(_ context.Context, env *Env, _ marshal.Native, args []marshal.Native) (marshal.Native, error) {
			*calls++
			v, _ := env.View(args[0])
			v.Set(0, int32(999))
			return marshal.Native{}, fmt.Errorf("boom")
		}).
		StaticMethod("narrow", "(B)B", func(_ context.Context, _ *Env, _ marshal.Native, args []marshal.Native) (marshal.Native, error) {
			*calls++
			return args[0], nil
		}).
		StaticMethod("wrongReturn", "()I", func(context.Context, *Env, marshal.Native, []marshal.Native) (marshal.Native, error) {
			*calls++
			return marshal.Long(1), nil
		}).
		StaticMethod("untypedString", "()Ljava/lang/String;", func(context.Context, *Env, marshal.Native, []marshal.Native) (marshal.Native, error) {
			*calls++
			return marshal.Native{}, nil
		}).
		StaticMethod("untypedInt", "()I", func(context.Context, *Env, marshal.Native, []marshal.Native) (marshal.Native, error) {
			*calls++
			return marshal.Native{Bits: 5}, nil
		}).
		StaticMethod("nullInt", "()I", func(context.Context, *Env, marshal.Native, []marshal.Native) (marshal.Native, error) {
			*calls++
			return marshal.NullOf(signature.Int), nil
		})
	return mustBuild(t, b)
}

func TestInvoke_Static(t *testing.T) {
	calls := 0
	h := newHarness(t, calcTable(t, &calls))
	ctx := context.Background()

	v, err := h.d.Invoke(ctx, key(calc, "add", "(JJ)J"), nil, int64(math.MaxInt64), int64(1))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if v != int64(math.MinInt64) {
		t.Fatalf("add = %v", v)
	}

	v, err = h.d.Invoke(ctx, key(calc, "concat", "(Ljava/lang/String;Ljava/lang/String;)Ljava/lang/String;"), nil, "héllo ", "wörld\x00!")
	if err != nil {
		t.Fatalf("concat: %v", err)
	}
	if v != "héllo wörld\x00!" {
		t.Fatalf("concat = %q", v)
	}
	h.assertClean(t)
}

func TestInvoke_DoubleArrayWriteBack(t *testing.T) {
	calls := 0
	h := newHarness(t, calcTable(t, &calls))

	arr := managed.Ints(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	if _, err := h.d.Invoke(context.Background(), key(calc, "double", "([I)V"), nil, arr); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !arr.Equal(managed.Ints(0, 2, 4, 6, 8, 10, 12, 14, 16, 18)) {
		t.Fatalf("array = %v", arr)
	}
	h.assertClean(t)
}

func TestInvoke_SharedView(t *testing.T) {
	calls := 0
	h := newHarness(t, calcTable(t, &calls))

	arr := managed.Ints(1, 2, 3)
	v, err := h.d.Invoke(context.Background(), key(calc, "sumBoth", "([I[I)I"), nil, arr, arr)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if v != int32(12) {
		t.Fatalf("sumBoth = %v", v)
	}
	h.assertClean(t)
}

func TestInvoke_EntryFailureReleasesWithoutWriteBack(t *testing.T) {
	calls := 0
	h := newHarness(t, calcTable(t, &calls))

	var events []handle.Event
	h.d.Bridge().Subscribe(handle.ObserverFunc(func(e handle.Event) { events = append(events, e) }))

	arr := managed.Ints(1, 2)
	_, err := h.d.Invoke(context.Background(), key(calc, "fail", "([ILjava/lang/String;)V"), nil, arr, "s")
	if !stderrors.Is(err, errors.ErrNativeInvocationFailed) {
		t.Fatalf("got %v, want NativeInvocationFailed", err)
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Cause == nil || e.Cause.Error() != "boom" {
		t.Fatalf("cause not preserved: %v", err)
	}
	if !arr.Equal(managed.Ints(1, 2)) {
		t.Fatalf("failed call wrote back: %v", arr)
	}

	// Two views, released most recent first.
	var created, released []handle.Handle
	for _, ev := range events {
		switch ev.Type {
		case handle.EventCreated:
			created = append(created, ev.Handle)
		case handle.EventReleased:
			released = append(released, ev.Handle)
		}
	}
	if len(created) != 2 || len(released) != 2 {
		t.Fatalf("created=%d released=%d", len(created), len(released))
	}
	if released[0] != created[1] || released[1] != created[0] {
		t.Fatalf("release order %v, acquire order %v", released, created)
	}
	h.assertClean(t)
}

func TestInvoke_ValidationHasNoSideEffects(t *testing.T) {
	calls := 0
	h := newHarness(t, calcTable(t, &calls))
	ctx := context.Background()
	target := managed.NewObject(calc, nil)

	tests := []struct {
		name   string
		key    Key
		target any
		args   []any
		want   *errors.Error
	}{
		{"unknown method", key(calc, "nope", "()V"), nil, nil, errors.ErrBindingNotFound},
		{"unknown signature", key(calc, "add", "(II)I"), nil, []any{int32(1), int32(2)}, errors.ErrBindingNotFound},
		{"too few", key(calc, "add", "(JJ)J"), nil, []any{int64(1)}, errors.ErrArityMismatch},
		{"too many", key(calc, "add", "(JJ)J"), nil, []any{int64(1), int64(2), int64(3)}, errors.ErrArityMismatch},
		{"wrong type", key(calc, "add", "(JJ)J"), nil, []any{int64(1), "2"}, errors.ErrTypeMismatch},
		{"array for string", key(calc, "fail", "([ILjava/lang/String;)V"), nil, []any{managed.Ints(1), managed.Ints(1)}, errors.ErrTypeMismatch},
		{"float for long", key(calc, "add", "(JJ)J"), nil, []any{int64(1), 1.5}, errors.ErrTypeMismatch},
		{"unsigned for long", key(calc, "add", "(JJ)J"), nil, []any{uint64(math.MaxUint64), int64(1)}, errors.ErrTypeMismatch},
		{"int for byte", key(calc, "narrow", "(B)B"), nil, []any{int32(5)}, errors.ErrTypeMismatch},
		{"char for byte", key(calc, "narrow", "(B)B"), nil, []any{uint16('z')}, errors.ErrTypeMismatch},
		{"long for byte", key(calc, "narrow", "(B)B"), nil, []any{int64(5)}, errors.ErrTypeMismatch},
		{"go int for byte", key(calc, "narrow", "(B)B"), nil, []any{5}, errors.ErrTypeMismatch},
		{"unsigned byte", key(calc, "narrow", "(B)B"), nil, []any{uint8(0xFF)}, errors.ErrTypeMismatch},
		{"null for byte", key(calc, "narrow", "(B)B"), nil, []any{nil}, errors.ErrTypeMismatch},
		{"float32 for long", key(calc, "add", "(JJ)J"), nil, []any{float32(1), int64(1)}, errors.ErrTypeMismatch},
		{"static with target", key(calc, "add", "(JJ)J"), target, []any{int64(1), int64(2)}, errors.ErrNonNullTargetForStaticMember},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.d.Invoke(ctx, tt.key, tt.target, tt.args...)
			if !stderrors.Is(err, tt.want) {
				t.Fatalf("got %v, want %s", err, tt.want.Kind)
			}
		})
	}
	if calls != 0 {
		t.Fatalf("entry points ran %d times", calls)
	}
	h.assertClean(t)
}

func TestInvoke_ArgumentPathInError(t *testing.T) {
	calls := 0
	h := newHarness(t, calcTable(t, &calls))

	_, err := h.d.Invoke(context.Background(), key(calc, "add", "(JJ)J"), nil, int64(1), "x")
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("not a structured error: %v", err)
	}
	if len(e.Path) != 1 || e.Path[0] != "arg[1]" {
		t.Fatalf("path = %v", e.Path)
	}
	if e.Member != "test/Calc.add(JJ)J" {
		t.Fatalf("member = %q", e.Member)
	}
}

func TestInvoke_ByteBitPattern(t *testing.T) {
	calls := 0
	h := newHarness(t, calcTable(t, &calls))
	for _, in := range []int8{-1, math.MinInt8, math.MaxInt8} {
		v, err := h.d.Invoke(context.Background(), key(calc, "narrow", "(B)B"), nil, in)
		if err != nil {
			t.Fatal(err)
		}
		if v != in {
			t.Fatalf("narrow(%d) = %#v", in, v)
		}
	}
}

func TestInvoke_WrongReturnType(t *testing.T) {
	calls := 0
	h := newHarness(t, calcTable(t, &calls))
	_, err := h.d.Invoke(context.Background(), key(calc, "wrongReturn", "()I"), nil)
	if !stderrors.Is(err, errors.ErrTypeMismatch) {
		t.Fatalf("got %v, want TypeMismatch", err)
	}
	h.assertClean(t)
}

func TestInvoke_UntypedReturnRejected(t *testing.T) {
	calls := 0
	h := newHarness(t, calcTable(t, &calls))

	for _, k := range []Key{
		key(calc, "untypedString", "()Ljava/lang/String;"),
		key(calc, "untypedInt", "()I"),
		key(calc, "nullInt", "()I"),
	} {
		v, err := h.d.Invoke(context.Background(), k, nil)
		if !stderrors.Is(err, errors.ErrTypeMismatch) {
			t.Fatalf("%s = %#v, %v; want TypeMismatch", k.Name, v, err)
		}
		var e *errors.Error
		if !stderrors.As(err, &e) || len(e.Path) != 1 || e.Path[0] != "return" {
			t.Fatalf("%s: path of %v", k.Name, err)
		}
	}
	if calls != 3 {
		t.Fatalf("entry points ran %d times", calls)
	}
	h.assertClean(t)
}

func TestStaticField_LongAllBits(t *testing.T) {
	calls := 0
	h := newHarness(t, calcTable(t, &calls))
	ctx := context.Background()
	total := key(calc, "total", "J")

	v, err := h.d.GetField(ctx, total, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(-1) {
		t.Fatalf("total = %v", v)
	}

	if err := h.d.SetField(ctx, total, nil, int64(7)); err != nil {
		t.Fatal(err)
	}
	v, _ = h.d.GetField(ctx, total, nil)
	if v != int64(7) {
		t.Fatalf("after set: %#v", v)
	}

	if err := h.d.SetField(ctx, total, nil, int64(-1)); err != nil {
		t.Fatal(err)
	}
	v, _ = h.d.GetField(ctx, total, nil)
	if uint64(v.(int64)) != math.MaxUint64 {
		t.Fatalf("after all-bits set: %#x", uint64(v.(int64)))
	}

	for _, in := range []any{7, int32(7), uint64(math.MaxUint64)} {
		if err := h.d.SetField(ctx, total, nil, in); !stderrors.Is(err, errors.ErrTypeMismatch) {
			t.Fatalf("SetField(%T) = %v, want TypeMismatch", in, err)
		}
	}
	if v, _ = h.d.GetField(ctx, total, nil); v != int64(-1) {
		t.Fatalf("rejected set changed field: %#v", v)
	}
}

func TestField_Validation(t *testing.T) {
	calls := 0
	h := newHarness(t, calcTable(t, &calls))
	ctx := context.Background()

	if _, err := h.d.GetField(ctx, key(calc, "total", "I"), nil); !stderrors.Is(err, errors.ErrBindingNotFound) {
		t.Fatalf("wrong signature: %v", err)
	}
	if _, err := h.d.GetField(ctx, key(calc, "total", "J"), managed.NewObject(calc, nil)); !stderrors.Is(err, errors.ErrNonNullTargetForStaticMember) {
		t.Fatalf("static with target: %v", err)
	}
	if err := h.d.SetField(ctx, key(calc, "name", "Ljava/lang/String;"), nil, 5); !stderrors.Is(err, errors.ErrTypeMismatch) {
		t.Fatalf("int into string: %v", err)
	}
	if v, _ := h.d.GetField(ctx, key(calc, "name", "Ljava/lang/String;"), nil); v != "calc" {
		t.Fatalf("failed set changed field: %v", v)
	}
	if err := h.d.SetField(ctx, key(calc, "name", "Ljava/lang/String;"), nil, nil); err != nil {
		t.Fatal(err)
	}
	if v, _ := h.d.GetField(ctx, key(calc, "name", "Ljava/lang/String;"), nil); v != nil {
		t.Fatalf("null string = %#v", v)
	}
}

// pointTable registers an instance class with a superclass.
func pointTable(t *testing.T) *Table {
	b := NewBuilder()
	b.Class(base).
		Field("id", "I", int32(42)).
		Method("describe", "()Ljava/lang/String;", func(_ context.Context, env *Env, _ marshal.Native, _ []marshal.Native) (marshal.Native, error) {
			return env.NewString("base")
		})
	b.Class(point).
		Extends(base).
		Field("x", "I", nil).
		Field("tags", "[I", managed.Ints(1, 2)).
		Constructor("(I)V", func(_ context.Context, env *Env, this marshal.Native, args []marshal.Native) (marshal.Native, error) {
			return marshal.Void, env.SetField(key(point, "x", "I"), this, args[0])
		}).
		Method("getX", "()I", func(_ context.Context, env *Env, this marshal.Native, _ []marshal.Native) (marshal.Native, error) {
			return env.GetField(key(point, "x", "I"), this)
		}).
		Method("describe", "()Ljava/lang/String;", func(_ context.Context, env *Env, _ marshal.Native, _ []marshal.Native) (marshal.Native, error) {
			return env.NewString("point")
		}).
		Method("self", "()Ltest/Point;", func(_ context.Context, _ *Env, this marshal.Native, _ []marshal.Native) (marshal.Native, error) {
			return this, nil
		}).
		Method("keep", "()V", func(_ context.Context, env *Env, this marshal.Native, _ []marshal.Native) (marshal.Native, error) {
			_, err := env.NewPersistent(this)
			return marshal.Void, err
		})
	return mustBuild(t, b)
}

func TestInstance_ConstructAndCall(t *testing.T) {
	h := newHarness(t, pointTable(t))
	ctx := context.Background()

	p, err := h.d.NewObject(ctx, point, "(I)V", int32(5))
	if err != nil {
		t.Fatalf("NewObject: %v", err)
	}
	v, err := h.d.Invoke(ctx, key(point, "getX", "()I"), p)
	if err != nil || v != int32(5) {
		t.Fatalf("getX = %v, %v", v, err)
	}

	// Inherited field with its initial value.
	v, err = h.d.GetField(ctx, key(point, "id", "I"), p)
	if err != nil || v != int32(42) {
		t.Fatalf("id = %v, %v", v, err)
	}

	// Returning this yields the same object.
	v, err = h.d.Invoke(ctx, key(point, "self", "()Ltest/Point;"), p)
	if err != nil || v != p {
		t.Fatalf("self = %v, %v", v, err)
	}
	h.assertClean(t)
}

func TestInstance_TargetChecks(t *testing.T) {
	h := newHarness(t, pointTable(t))
	ctx := context.Background()
	getX := key(point, "getX", "()I")

	if _, err := h.d.Invoke(ctx, getX, nil); !stderrors.Is(err, errors.ErrNullTargetForInstanceMember) {
		t.Fatalf("nil target: %v", err)
	}
	var nilObj *managed.Object
	if _, err := h.d.Invoke(ctx, getX, nilObj); !stderrors.Is(err, errors.ErrNullTargetForInstanceMember) {
		t.Fatalf("typed nil target: %v", err)
	}
	if _, err := h.d.Invoke(ctx, getX, managed.NewObject("test/Other", nil)); !stderrors.Is(err, errors.ErrTypeMismatch) {
		t.Fatalf("foreign target: %v", err)
	}
	if _, err := h.d.GetField(ctx, key(point, "x", "I"), nil); !stderrors.Is(err, errors.ErrNullTargetForInstanceMember) {
		t.Fatalf("instance field without target: %v", err)
	}
}

func TestInstance_VirtualDispatch(t *testing.T) {
	h := newHarness(t, pointTable(t))
	ctx := context.Background()

	p, _ := h.d.NewObject(ctx, point, "(I)V", int32(1))
	b, err := h.d.NewObject(ctx, base, "()V")
	if err != nil {
		t.Fatalf("default constructor: %v", err)
	}

	describe := key(base, "describe", "()Ljava/lang/String;")
	if v, _ := h.d.Invoke(ctx, describe, p); v != "point" {
		t.Fatalf("override not used: %v", v)
	}
	if v, _ := h.d.Invoke(ctx, describe, b); v != "base" {
		t.Fatalf("base describe = %v", v)
	}
}

func TestInstance_ArrayFieldsArePerObject(t *testing.T) {
	h := newHarness(t, pointTable(t))
	ctx := context.Background()
	tags := key(point, "tags", "[I")

	p1, _ := h.d.NewObject(ctx, point, "(I)V", int32(1))
	p2, _ := h.d.NewObject(ctx, point, "(I)V", int32(2))
	a1, _ := h.d.GetField(ctx, tags, p1)
	a2, _ := h.d.GetField(ctx, tags, p2)
	if a1.(*managed.Array) == a2.(*managed.Array) {
		t.Fatal("instances share an initial array")
	}
}

func TestNewObject_Errors(t *testing.T) {
	h := newHarness(t, pointTable(t))
	ctx := context.Background()

	if _, err := h.d.NewObject(ctx, "test/Missing", "()V"); !stderrors.Is(err, errors.ErrBindingNotFound) {
		t.Fatalf("missing class: %v", err)
	}
	if _, err := h.d.NewObject(ctx, point, "()V"); !stderrors.Is(err, errors.ErrBindingNotFound) {
		t.Fatalf("missing constructor: %v", err)
	}
	if _, err := h.d.NewObject(ctx, point, "(I)V"); !stderrors.Is(err, errors.ErrArityMismatch) {
		t.Fatalf("constructor arity: %v", err)
	}
	if _, err := h.d.NewObject(ctx, base, "()V", 1); !stderrors.Is(err, errors.ErrArityMismatch) {
		t.Fatalf("default constructor arity: %v", err)
	}
}

func TestEnv_PersistentSurvivesCall(t *testing.T) {
	h := newHarness(t, pointTable(t))
	ctx := context.Background()

	p, _ := h.d.NewObject(ctx, point, "(I)V", int32(1))
	if _, err := h.d.Invoke(ctx, key(point, "keep", "()V"), p); err != nil {
		t.Fatal(err)
	}
	if h.reg.LivePersistent() != 1 {
		t.Fatalf("LivePersistent = %d", h.reg.LivePersistent())
	}
	h.assertClean(t)
}

func TestBuilder_Errors(t *testing.T) {
	entry := func(context.Context, *Env, marshal.Native, []marshal.Native) (marshal.Native, error) {
		return marshal.Void, nil
	}

	tests := []struct {
		name  string
		build func(b *Builder)
		want  errors.Kind
	}{
		{"duplicate method", func(b *Builder) {
			b.Class("a/A").StaticMethod("m", "()V", entry).StaticMethod("m", "()V", entry)
		}, errors.KindDuplicateBinding},
		{"duplicate field", func(b *Builder) {
			b.Class("a/A").StaticField("f", "I", 1).Field("f", "I", 2)
		}, errors.KindDuplicateBinding},
		{"bad signature", func(b *Builder) {
			b.Class("a/A").StaticMethod("m", "(Q)V", entry)
		}, errors.KindUnknownSignature},
		{"nested array", func(b *Builder) {
			b.Class("a/A").StaticField("f", "[[I", nil)
		}, errors.KindUnsupportedNesting},
		{"initial overflow", func(b *Builder) {
			b.Class("a/A").StaticField("f", "B", 1000)
		}, errors.KindConversionOverflow},
		{"initial mismatch", func(b *Builder) {
			b.Class("a/A").StaticField("f", "Ljava/lang/String;", 1)
		}, errors.KindTypeMismatch},
		{"constructor returns", func(b *Builder) {
			b.Class("a/A").Constructor("()I", entry)
		}, errors.KindInvalidInput},
		{"missing entry", func(b *Builder) {
			b.Class("a/A").StaticMethod("m", "()V", nil)
		}, errors.KindInvalidInput},
		{"hidden field", func(b *Builder) {
			b.Class("p/Super").Field("x", "Ljava/lang/String;", nil)
			b.Class("p/Sub").Extends("p/Super").Field("x", "I", int32(7))
		}, errors.KindInvalidInput},
		{"hidden field two levels up", func(b *Builder) {
			b.Class("p/Top").Field("x", "I", nil)
			b.Class("p/Mid").Extends("p/Top")
			b.Class("p/Sub").Extends("p/Mid").Field("x", "I", nil)
		}, errors.KindInvalidInput},
		{"hierarchy cycle", func(b *Builder) {
			b.Class("a/A").Extends("a/B")
			b.Class("a/B").Extends("a/A")
		}, errors.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			tt.build(b)
			_, err := b.Build()
			var e *errors.Error
			if !stderrors.As(err, &e) || e.Kind != tt.want {
				t.Fatalf("got %v, want %s", err, tt.want)
			}
		})
	}
}

func TestBuilder_FieldNamesAcrossClasses(t *testing.T) {
	b := NewBuilder()
	b.Class("p/Super").Field("x", "Ljava/lang/String;", "super")
	b.Class("p/Sub").Extends("p/Super").StaticField("x", "I", int32(7))
	b.Class("p/Other").Field("x", "I", int32(1))
	table := mustBuild(t, b)
	h := newHarness(t, table)
	ctx := context.Background()

	sub, err := h.d.NewObject(ctx, "p/Sub", "()V")
	if err != nil {
		t.Fatal(err)
	}
	if v, err := h.d.GetField(ctx, key("p/Super", "x", "Ljava/lang/String;"), sub); err != nil || v != "super" {
		t.Fatalf("inherited x = %#v, %v", v, err)
	}
	if v, err := h.d.GetField(ctx, key("p/Sub", "x", "I"), nil); err != nil || v != int32(7) {
		t.Fatalf("static x = %#v, %v", v, err)
	}
}

func TestTable_Lookup(t *testing.T) {
	table := pointTable(t)

	m, err := table.Method(key(point, "describe", "()Ljava/lang/String;"))
	if err != nil || m.Owner != point {
		t.Fatalf("own method: %v, %v", m, err)
	}
	f, err := table.Field(key(point, "id", "I"))
	if err != nil || f.Owner != base {
		t.Fatalf("inherited field: %v, %v", f, err)
	}
	if _, err := table.Method(key(point, signature.ConstructorName, "()V")); !stderrors.Is(err, errors.ErrBindingNotFound) {
		t.Fatalf("constructors are not inherited: %v", err)
	}
	if !table.IsAssignable(point, base) || table.IsAssignable(base, point) {
		t.Fatal("assignability wrong")
	}
	if !table.IsAssignable("test/Anything", signature.ObjectClass) {
		t.Fatal("everything is an Object")
	}
	if len(table.Classes()) != 2 {
		t.Fatalf("Classes = %d", len(table.Classes()))
	}
}

func TestTable_BindingsAreCopies(t *testing.T) {
	table := pointTable(t)
	h := newHarness(t, table)
	ctx := context.Background()

	for _, m := range table.Methods() {
		m.Entry = nil
		m.Static = true
	}
	getX, _ := table.Method(key(point, "getX", "()I"))
	getX.Owner = base
	for _, f := range table.Fields() {
		f.Initial = int32(-1)
	}
	tags, _ := table.Field(key(point, "tags", "[I"))
	tags.Initial.(*managed.Array).Set(0, int32(100))
	if c, _ := table.Class(point); c != nil {
		c.Super = ""
	}

	p, err := h.d.NewObject(ctx, point, "(I)V", int32(3))
	if err != nil {
		t.Fatal(err)
	}
	if v, err := h.d.Invoke(ctx, key(point, "getX", "()I"), p); err != nil || v != int32(3) {
		t.Fatalf("getX = %#v, %v", v, err)
	}
	if v, _ := h.d.GetField(ctx, key(point, "id", "I"), p); v != int32(42) {
		t.Fatalf("id = %#v", v)
	}
	v, _ := h.d.GetField(ctx, key(point, "tags", "[I"), p)
	if !v.(*managed.Array).Equal(managed.Ints(1, 2)) {
		t.Fatalf("tags = %v", v)
	}
	if !table.IsAssignable(point, base) {
		t.Fatal("class copy changed the hierarchy")
	}
}

func nativeTable(t *testing.T) *Table {
	b := NewBuilder()
	b.Class("test/N").
		StaticNativeMethod("twice", "(I)I").
		StaticMethod("plain", "()V", func(context.Context, *Env, marshal.Native, []marshal.Native) (marshal.Native, error) {
			return marshal.Void, nil
		})
	return mustBuild(t, b)
}

func TestRegisterNatives(t *testing.T) {
	table := nativeTable(t)
	h := newHarness(t, table)
	ctx := context.Background()
	twice := key("test/N", "twice", "(I)I")

	if got := table.UnboundNatives(); len(got) != 1 || got[0] != twice {
		t.Fatalf("UnboundNatives = %v", got)
	}
	if _, err := h.d.Invoke(ctx, twice, nil, int32(2)); !stderrors.Is(err, errors.ErrBindingNotFound) {
		t.Fatalf("unbound native: %v", err)
	}

	table2 := nativeTable(t)
	h2 := newHarness(t, table2)
	entry := func(_ context.Context, _ *Env, _ marshal.Native, args []marshal.Native) (marshal.Native, error) {
		return marshal.Int(args[0].Int() * 2), nil
	}
	if err := table2.RegisterNatives("test/N", NativeMethod{Name: "plain", Signature: "()V", Entry: entry}); err == nil {
		t.Fatal("registered a non-native method")
	}
	if err := table2.RegisterNatives("test/N", NativeMethod{Name: "missing", Signature: "()V", Entry: entry}); !stderrors.Is(err, errors.ErrBindingNotFound) {
		t.Fatalf("missing native: %v", err)
	}
	if err := table2.RegisterNatives("test/N", NativeMethod{Name: "twice", Signature: "(I)I", Entry: entry}); err != nil {
		t.Fatal(err)
	}
	v, err := h2.d.Invoke(ctx, twice, nil, int32(21))
	if err != nil || v != int32(42) {
		t.Fatalf("twice = %v, %v", v, err)
	}

	// Sealed after the first call.
	if err := table2.RegisterNatives("test/N", NativeMethod{Name: "twice", Signature: "(I)I", Entry: entry}); err == nil {
		t.Fatal("RegisterNatives after first call succeeded")
	}
}

func TestEnv_CallbackIntoManaged(t *testing.T) {
	b := NewBuilder()
	b.Class("test/Outer").
		StaticMethod("inner", "([I)[I", func(_ context.Context, env *Env, _ marshal.Native, args []marshal.Native) (marshal.Native, error) {
			v, _ := env.View(args[0])
			n, _ := v.Len()
			out, err := env.NewArray(signature.Int, n)
			if err != nil {
				return marshal.Native{}, err
			}
			ov, _ := env.View(out)
			for i := 0; i < n; i++ {
				x, _ := v.Get(i)
				ov.Set(i, x.(int32)+1)
			}
			return out, nil
		}).
		StaticMethod("outer", "([I)[I", func(_ context.Context, env *Env, _ marshal.Native, args []marshal.Native) (marshal.Native, error) {
			return env.Call(key("test/Outer", "inner", "([I)[I"), marshal.NullOf(nil), args...)
		})
	h := newHarness(t, mustBuild(t, b))

	in := managed.Ints(1, 2, 3)
	v, err := h.d.Invoke(context.Background(), key("test/Outer", "outer", "([I)[I"), nil, in)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	out := v.(*managed.Array)
	if !out.Equal(managed.Ints(2, 3, 4)) {
		t.Fatalf("result = %v", out)
	}
	if !in.Equal(managed.Ints(1, 2, 3)) {
		t.Fatalf("input changed: %v", in)
	}
	h.assertClean(t)
}

func TestDispatch_LogsEntryFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := Logger()
	SetLogger(zap.New(core))
	defer SetLogger(prev)

	calls := 0
	h := newHarness(t, calcTable(t, &calls))
	h.d.Invoke(context.Background(), key(calc, "fail", "([ILjava/lang/String;)V"), nil, managed.Ints(1), "x")

	entries := logs.FilterMessage("entry point failed").All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d", len(entries))
	}
	if entries[0].ContextMap()["member"] != "test/Calc.fail([ILjava/lang/String;)V" {
		t.Fatalf("member field = %v", entries[0].ContextMap()["member"])
	}
}
