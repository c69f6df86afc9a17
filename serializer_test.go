package memo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializerRunsOpsOneAtATime(t *testing.T) {
	b := NewBackend(0)
	s := NewSerializer(b)
	defer s.Close()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Do(context.Background(), func(*Backend) (interface{}, error) {
				mu.Lock()
				active++
				if active > maxSeen {
					maxSeen = active
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return nil, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen, "no two ops should ever run concurrently")
}

func TestSerializerPropagatesOpError(t *testing.T) {
	b := NewBackend(0)
	s := NewSerializer(b)
	defer s.Close()

	_, err := s.Do(context.Background(), func(*Backend) (interface{}, error) {
		return nil, assertErr
	})
	assert.ErrorIs(t, err, assertErr)
}

func TestSerializerDoAfterCloseReturnsErrClosed(t *testing.T) {
	b := NewBackend(0)
	s := NewSerializer(b)
	require.NoError(t, s.Close())

	_, err := s.Do(context.Background(), func(*Backend) (interface{}, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSerializerCloseIsIdempotent(t *testing.T) {
	b := NewBackend(0)
	s := NewSerializer(b)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestSerializerDoRespectsContextCancellation(t *testing.T) {
	b := NewBackend(0)
	s := NewSerializer(b)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	block := make(chan struct{})
	defer close(block)
	// Occupy the serializer so the cancelled Do has to wait on ctx.Done
	// rather than finding the goroutine idle.
	go s.Do(context.Background(), func(*Backend) (interface{}, error) {
		<-block
		return nil, nil
	})
	time.Sleep(5 * time.Millisecond)

	_, err := s.Do(ctx, func(*Backend) (interface{}, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

var assertErr = errNew("boom")

type errString string

func (e errString) Error() string { return string(e) }

func errNew(s string) error { return errString(s) }
