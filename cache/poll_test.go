package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ride struct {
	ID     string
	Status string
}

func TestPollStopsWhenValueBecomesNil(t *testing.T) {
	c, _ := newCache(t)
	key := K("rides", "active")
	c.SetValue(key, &ride{ID: "r1", Status: "ACCEPTED"})

	var calls atomic.Int32
	producer := func(context.Context) (*ride, error) {
		if calls.Add(1) < 2 {
			return &ride{ID: "r1", Status: "ON_ROUTE"}, nil
		}
		return nil, nil
	}

	p, err := Poll(c, key, producer, 10*time.Millisecond)
	require.NoError(t, err)

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
	assert.EqualValues(t, 2, calls.Load())

	v, ok := Get[*ride](c, key)
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestPollStopsWhenAbsent(t *testing.T) {
	c, _ := newCache(t)
	var calls atomic.Int32
	p, err := Poll(c, K("rides", "active"), func(context.Context) (*ride, error) {
		calls.Add(1)
		return &ride{}, nil
	}, 10*time.Millisecond)
	require.NoError(t, err)

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
	assert.EqualValues(t, 0, calls.Load())
}

func TestPollExplicitStop(t *testing.T) {
	c, _ := newCache(t)
	key := K("rides", "active")
	c.SetValue(key, &ride{ID: "r1"})

	var calls atomic.Int32
	p, err := Poll(c, key, func(context.Context) (*ride, error) {
		calls.Add(1)
		return &ride{ID: "r1"}, nil
	}, 10*time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	p.Stop()
	p.Stop()
	<-p.Done()

	n := calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, calls.Load(), n+1)
}

func TestPollAfterClose(t *testing.T) {
	c, _ := newCache(t)
	c.Close()

	_, err := Poll(c, K("rides", "active"), func(context.Context) (*ride, error) { return nil, nil }, time.Second)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCloseStopsPollers(t *testing.T) {
	c, _ := newCache(t)
	key := K("rides", "active")
	c.SetValue(key, &ride{ID: "r1"})
	p, err := Poll(c, key, func(context.Context) (*ride, error) { return &ride{ID: "r1"}, nil }, time.Hour)
	require.NoError(t, err)

	c.Close()
	select {
	case <-p.Done():
	default:
		t.Fatal("poller still running after Close")
	}
}

func TestIsNil(t *testing.T) {
	var r *ride
	var s []string
	assert.True(t, isNil(nil))
	assert.True(t, isNil(r))
	assert.True(t, isNil(s))
	assert.False(t, isNil(&ride{}))
	assert.False(t, isNil(0))
}
