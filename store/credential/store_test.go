package credential

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/blaze/log"
)

type failing struct{ err error }

func (f failing) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failing) Set(context.Context, string, string) error         { return f.err }
func (f failing) Delete(context.Context, ...string) error           { return f.err }

func newStore(b Backend) (*Store, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(b, WithLogger(log.NewWriter(&buf))), &buf
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(NewMemory())

	_, ok := s.Get(ctx, KindAccess)
	assert.False(t, ok)

	require.True(t, s.Set(ctx, KindAccess, "t1"))
	require.True(t, s.Set(ctx, KindRefresh, "r1"))

	tok, ok := s.Get(ctx, KindAccess)
	assert.True(t, ok)
	assert.Equal(t, "t1", tok)
	tok, ok = s.Get(ctx, KindRefresh)
	assert.True(t, ok)
	assert.Equal(t, "r1", tok)
}

func TestStoreClearRemovesBothKinds(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(NewMemory())
	s.Set(ctx, KindAccess, "t1")
	s.Set(ctx, KindRefresh, "r1")
	s.SetUser(ctx, map[string]string{"id": "u1"})

	require.True(t, s.Clear(ctx))

	for _, k := range []Kind{KindAccess, KindRefresh} {
		_, ok := s.Get(ctx, k)
		assert.False(t, ok, k.String())
	}
	var u map[string]string
	assert.True(t, s.User(ctx, &u), "clear keeps the user record")

	require.True(t, s.ClearAll(ctx))
	assert.False(t, s.User(ctx, &u))
}

func TestStoreNamespacedKeys(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	s := New(m, WithNamespace("rider"))
	s.Set(ctx, KindAccess, "t1")

	v, ok, err := m.Get(ctx, "rider.auth_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "t1", v)
}

func TestStoreEmptyTokenDeletes(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(NewMemory())
	s.Set(ctx, KindAccess, "t1")
	require.True(t, s.Set(ctx, KindAccess, ""))

	_, ok := s.Get(ctx, KindAccess)
	assert.False(t, ok)
}

func TestStoreFailsOpen(t *testing.T) {
	ctx := context.Background()
	s, buf := newStore(failing{errors.New("keychain locked")})

	_, ok := s.Get(ctx, KindAccess)
	assert.False(t, ok)
	assert.False(t, s.Set(ctx, KindAccess, "t1"))
	assert.False(t, s.Clear(ctx))
	var u map[string]any
	assert.False(t, s.User(ctx, &u))

	assert.Contains(t, buf.String(), "keychain locked")
	assert.NotContains(t, buf.String(), "t1")
}

func TestStoreInvalidKind(t *testing.T) {
	s, buf := newStore(NewMemory())
	_, ok := s.Get(context.Background(), Kind(7))
	assert.False(t, ok)
	assert.False(t, s.Set(context.Background(), Kind(7), "x"))
	assert.Contains(t, buf.String(), "invalid credential kind")
}

func TestStoreUnparseableUser(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	s, _ := newStore(m)
	m.Set(ctx, s.Key(KeyUser), "{not json")

	var u struct{ ID string }
	assert.False(t, s.User(ctx, &u))
}

func TestStoreConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(NewMemory())

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Set(ctx, KindAccess, string(rune('a'+i)))
		}()
	}
	wg.Wait()

	_, ok := s.Get(ctx, KindAccess)
	assert.True(t, ok)
}

func TestStoreCompareAndSetTokens(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(NewMemory())
	require.True(t, s.Set(ctx, KindAccess, "t1"))
	require.True(t, s.Set(ctx, KindRefresh, "r1"))

	gen := s.Generation()
	assert.True(t, s.CompareAndSetTokens(ctx, gen, "t2", "r2"))
	tok, _ := s.Get(ctx, KindAccess)
	assert.Equal(t, "t2", tok)
	tok, _ = s.Get(ctx, KindRefresh)
	assert.Equal(t, "r2", tok)

	// 登出之后，旧代数的提交被拒绝
	gen = s.Generation()
	require.True(t, s.ClearAll(ctx))
	assert.False(t, s.CompareAndSetTokens(ctx, gen, "t3", "r3"))
	_, ok := s.Get(ctx, KindAccess)
	assert.False(t, ok)
	_, ok = s.Get(ctx, KindRefresh)
	assert.False(t, ok)
}

func TestStoreCompareAndClear(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(NewMemory())
	require.True(t, s.Set(ctx, KindAccess, "old"))
	gen := s.Generation()

	// 重新登录推进代数，过期的清除不生效
	require.True(t, s.Set(ctx, KindAccess, "new"))
	assert.False(t, s.CompareAndClear(ctx, gen))
	tok, ok := s.Get(ctx, KindAccess)
	assert.True(t, ok)
	assert.Equal(t, "new", tok)

	assert.True(t, s.CompareAndClear(ctx, s.Generation()))
	_, ok = s.Get(ctx, KindAccess)
	assert.False(t, ok)
}

func TestStoreUserWritesKeepGeneration(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(NewMemory())
	gen := s.Generation()
	require.True(t, s.SetUser(ctx, map[string]string{"id": "u1"}))
	require.True(t, s.ClearUser(ctx))
	assert.Equal(t, gen, s.Generation())
}
