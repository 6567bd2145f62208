package registry

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/st-keller/hostfacts/fact"
)

func static(name string, value any, calls *atomic.Int32) Definition {
	return Definition{
		Name: name,
		Provider: func(context.Context, *Cache) []fact.Resolved {
			if calls != nil {
				calls.Add(1)
			}
			return []fact.Resolved{fact.New(name, value)}
		},
	}
}

func TestRegister(t *testing.T) {
	r := New()

	def := static("os.name", "Ubuntu", nil)
	def.Aliases = []string{"operatingsystem"}
	require.NoError(t, r.Register(def))

	got, ok := r.Lookup("operatingsystem")
	require.True(t, ok)
	assert.Equal(t, "os.name", got.Name)
	assert.Equal(t, []string{"operatingsystem", "os.name"}, r.Names())
	assert.Len(t, r.Definitions(), 1)

	err := r.Register(static("operatingsystem", "x", nil))
	assert.ErrorIs(t, err, ErrDuplicate)

	assert.ErrorIs(t, r.Register(Definition{Name: "x"}), ErrInvalidDefinition)
	assert.ErrorIs(t, r.Register(Definition{Provider: def.Provider}), ErrInvalidDefinition)

	bad := static("y", 1, nil)
	bad.Aliases = []string{""}
	assert.ErrorIs(t, r.Register(bad), ErrInvalidDefinition)
	_, ok = r.Lookup("y")
	assert.False(t, ok)
}

func TestRegisterCopiesAliases(t *testing.T) {
	r := New()
	aliases := []string{"hostname"}
	def := static("networking.hostname", "web1", nil)
	def.Aliases = aliases
	require.NoError(t, r.Register(def))

	aliases[0] = "changed"
	_, ok := r.Lookup("hostname")
	assert.True(t, ok)
}

func TestCollect(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := New()
	var calls atomic.Int32
	for _, name := range []string{"a", "b", "c", "d"} {
		require.NoError(t, r.Register(static(name, name, &calls)))
	}
	a, _ := r.Lookup("a")
	c, _ := r.Lookup("c")
	d, _ := r.Lookup("d")

	facts := r.Collect(context.Background(), NewCache(nil, nil), []*Definition{d, a, c, a}, 2)

	require.Len(t, facts, 3)
	assert.Equal(t, "d", facts[0].Name)
	assert.Equal(t, "a", facts[1].Name)
	assert.Equal(t, "c", facts[2].Name)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCollectSharesTheCache(t *testing.T) {
	r := New()
	var probes atomic.Int32
	uname := Func("uname", func(context.Context) (map[string]any, error) {
		probes.Add(1)
		return map[string]any{"sysname": "Linux", "machine": "x86_64"}, nil
	})
	for _, key := range []string{"sysname", "machine"} {
		require.NoError(t, r.Register(Definition{
			Name: key,
			Provider: func(ctx context.Context, cache *Cache) []fact.Resolved {
				return []fact.Resolved{fact.New(key, cache.Lookup(ctx, uname, key))}
			},
		}))
	}

	facts := r.Collect(context.Background(), NewCache(nil, nil), r.Definitions(), 0)
	require.Len(t, facts, 2)
	assert.Equal(t, "Linux", facts[0].Value)
	assert.Equal(t, "x86_64", facts[1].Value)
	assert.Equal(t, int32(1), probes.Load())
}

func TestCollectSurvivesPanickingProvider(t *testing.T) {
	defer goleak.VerifyNone(t)

	core, logs := observer.New(zapcore.ErrorLevel)
	r := New()
	require.NoError(t, r.Register(static("a", "a", nil)))
	require.NoError(t, r.Register(Definition{
		Name: "app.broken",
		Provider: func(context.Context, *Cache) []fact.Resolved {
			panic("boom")
		},
	}))
	require.NoError(t, r.Register(static("c", "c", nil)))

	facts := r.Collect(context.Background(), NewCache(zap.New(core), nil), r.Definitions(), 0)

	require.Len(t, facts, 2)
	assert.Equal(t, "a", facts[0].Name)
	assert.Equal(t, "c", facts[1].Name)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "fact provider panicked", entry.Message)
	assert.Equal(t, "app.broken", entry.ContextMap()["fact"])
}
