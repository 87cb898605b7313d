package invoke

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tungetti/gauntlet/internal/errors"
	"github.com/tungetti/gauntlet/internal/extension"
	"github.com/tungetti/gauntlet/internal/failure"
)

type typeResolver struct {
	name  string
	typ   string
	value interface{}
	err   error
}

func (r typeResolver) Name() string { return r.name }

func (r typeResolver) SupportsParameter(p extension.Parameter, _ *extension.Context) bool {
	return p.Type == r.typ
}

func (r typeResolver) ResolveParameter(extension.Parameter, *extension.Context) (interface{}, error) {
	return r.value, r.err
}

func newRegistry(t *testing.T, exts ...extension.Extension) *extension.Registry {
	t.Helper()
	reg := extension.NewRegistry(nil)
	require.NoError(t, reg.RegisterAll(exts...))
	return reg
}

func TestExecutable_Signature(t *testing.T) {
	exe := Executable{
		Name: "adds",
		Parameters: []extension.Parameter{
			{Index: 0, Name: "a", Type: "int"},
			{Index: 1, Name: "label"},
		},
	}
	assert.Equal(t, "adds(int, label)", exe.Signature())
	assert.Equal(t, "empty()", Executable{Name: "empty"}.Signature())
}

func TestInvoke(t *testing.T) {
	ec := extension.NewContext()

	t.Run("passes instance and resolved args", func(t *testing.T) {
		reg := newRegistry(t,
			typeResolver{name: "ints", typ: "int", value: 42},
			typeResolver{name: "strings", typ: "string", value: "hello"},
		)
		var gotInstance interface{}
		var gotArgs []interface{}
		exe := Executable{
			Name: "body",
			Parameters: []extension.Parameter{
				{Index: 0, Name: "n", Type: "int"},
				{Index: 1, Name: "s", Type: "string"},
			},
			Fn: func(_ context.Context, instance interface{}, args []interface{}) error {
				gotInstance = instance
				gotArgs = args
				return nil
			},
		}

		require.NoError(t, New().Invoke(context.Background(), exe, "instance", ec, reg))
		assert.Equal(t, "instance", gotInstance)
		assert.Equal(t, []interface{}{42, "hello"}, gotArgs)
	})

	t.Run("returns body error", func(t *testing.T) {
		boom := stderrors.New("assertion failed")
		exe := Executable{Name: "body", Fn: func(context.Context, interface{}, []interface{}) error {
			return boom
		}}
		err := New().Invoke(context.Background(), exe, nil, ec, extension.NewRegistry(nil))
		assert.Same(t, boom, err)
	})

	t.Run("captures panic", func(t *testing.T) {
		exe := Executable{Name: "body", Fn: func(context.Context, interface{}, []interface{}) error {
			panic("unexpected")
		}}
		err := New().Invoke(context.Background(), exe, nil, ec, extension.NewRegistry(nil))
		var pe *failure.PanicError
		require.True(t, stderrors.As(err, &pe))
		assert.Equal(t, "unexpected", pe.Value)
	})

	t.Run("rejects missing body", func(t *testing.T) {
		err := New().Invoke(context.Background(), Executable{Name: "none"}, nil, ec, nil)
		assert.True(t, errors.IsCode(err, errors.Validation))
	})
}

func TestInvoke_Timeout(t *testing.T) {
	ec := extension.NewContext()
	reg := extension.NewRegistry(nil)

	t.Run("deadline exceeded", func(t *testing.T) {
		exe := Executable{Name: "slow", Fn: func(ctx context.Context, _ interface{}, _ []interface{}) error {
			<-ctx.Done()
			time.Sleep(50 * time.Millisecond)
			return nil
		}}
		inv := New(WithTimeout(20 * time.Millisecond))
		assert.Equal(t, 20*time.Millisecond, inv.Timeout())

		err := inv.Invoke(context.Background(), exe, nil, ec, reg)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.Timeout))
		assert.True(t, stderrors.Is(err, context.DeadlineExceeded))
	})

	t.Run("finishes in time", func(t *testing.T) {
		exe := Executable{Name: "fast", Fn: func(ctx context.Context, _ interface{}, _ []interface{}) error {
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			return nil
		}}
		assert.NoError(t, New(WithTimeout(time.Second)).Invoke(context.Background(), exe, nil, ec, reg))
	})

	t.Run("panic under timeout", func(t *testing.T) {
		exe := Executable{Name: "panicky", Fn: func(context.Context, interface{}, []interface{}) error {
			panic("inside goroutine")
		}}
		err := New(WithTimeout(time.Second)).Invoke(context.Background(), exe, nil, ec, reg)
		var pe *failure.PanicError
		assert.True(t, stderrors.As(err, &pe))
	})

	t.Run("parent cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		exe := Executable{Name: "blocked", Fn: func(ctx context.Context, _ interface{}, _ []interface{}) error {
			<-ctx.Done()
			time.Sleep(50 * time.Millisecond)
			return nil
		}}
		err := New(WithTimeout(time.Second)).Invoke(ctx, exe, nil, ec, reg)
		require.Error(t, err)
		assert.False(t, errors.IsCode(err, errors.Timeout))
		assert.True(t, errors.IsCode(err, errors.Cancelled))
		assert.True(t, stderrors.Is(err, context.Canceled))
	})
}

func TestResolveArguments(t *testing.T) {
	ec := extension.NewContext()
	param := []extension.Parameter{{Index: 0, Name: "n", Type: "int"}}
	exe := Executable{Name: "body", Parameters: param}

	t.Run("no parameters", func(t *testing.T) {
		args, err := ResolveArguments(Executable{Name: "body"}, ec, nil)
		require.NoError(t, err)
		assert.Nil(t, args)
	})

	t.Run("no resolver", func(t *testing.T) {
		reg := newRegistry(t, typeResolver{name: "strings", typ: "string"})
		_, err := ResolveArguments(exe, ec, reg)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ParameterResolution))
		assert.Contains(t, err.Error(), "no resolver registered for parameter [int]")
	})

	t.Run("competing resolvers", func(t *testing.T) {
		reg := newRegistry(t,
			typeResolver{name: "first", typ: "int"},
			typeResolver{name: "second", typ: "int"},
		)
		_, err := ResolveArguments(exe, ec, reg)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ParameterResolution))
		assert.Contains(t, err.Error(), "first, second")
	})

	t.Run("resolver error", func(t *testing.T) {
		cause := stderrors.New("no database")
		reg := newRegistry(t, typeResolver{name: "ints", typ: "int", err: cause})
		_, err := ResolveArguments(exe, ec, reg)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ParameterResolution))
		assert.True(t, stderrors.Is(err, cause))
	})

	t.Run("nil value allowed", func(t *testing.T) {
		reg := newRegistry(t, typeResolver{name: "ints", typ: "int"})
		args, err := ResolveArguments(exe, ec, reg)
		require.NoError(t, err)
		assert.Equal(t, []interface{}{nil}, args)
	})
}
