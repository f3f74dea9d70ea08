package returns

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/domain/returns"
)

// countingSequencer hands out the number of codes reserved so far, which is
// what the production query computes from stored rows.
type countingSequencer struct {
	mu       sync.Mutex
	reserved []string
}

func (s *countingSequencer) MaxCodeSequence(ctx context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reserved), nil
}

func (s *countingSequencer) reserve(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reserved = append(s.reserved, code)
}

type failingSequencer struct{ err error }

func (s failingSequencer) MaxCodeSequence(ctx context.Context, prefix string) (int, error) {
	return 0, s.err
}

type failingLocker struct{ err error }

func (l failingLocker) WithLock(ctx context.Context, scope string, fn func() error) error {
	return l.err
}

func TestCodeGenerator(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("issues sequential codes per category prefix", func(t *testing.T) {
		seq := &countingSequencer{}
		gen := NewCodeGenerator(seq, newMemoryLocker(), logger)

		var got GeneratedCode
		err := gen.WithNextCode(ctx, returns.CategorySupplier, func(code GeneratedCode) error {
			got = code
			seq.reserve(code.Code)
			return nil
		})
		require.NoError(t, err)

		prefix := "RET-SUPP-" + time.Now().Format("0601") + "-"
		assert.Equal(t, prefix+"0001", got.Code)
		assert.False(t, got.Fallback)

		err = gen.WithNextCode(ctx, returns.CategorySupplier, func(code GeneratedCode) error {
			got = code
			seq.reserve(code.Code)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, prefix+"0002", got.Code)
	})

	t.Run("category prefixes differ", func(t *testing.T) {
		seq := &countingSequencer{}
		gen := NewCodeGenerator(seq, newMemoryLocker(), logger)

		categories := map[returns.ReturnCategory]string{
			returns.CategoryCustomer: "RET-CUST-",
			returns.CategorySupplier: "RET-SUPP-",
			returns.CategoryInternal: "RET-INT-",
		}
		for category, prefix := range categories {
			err := gen.WithNextCode(ctx, category, func(code GeneratedCode) error {
				assert.True(t, strings.HasPrefix(code.Code, prefix), "code %s", code.Code)
				return nil
			})
			require.NoError(t, err)
		}
	})

	t.Run("unknown category fails", func(t *testing.T) {
		gen := NewCodeGenerator(&countingSequencer{}, newMemoryLocker(), logger)
		err := gen.WithNextCode(ctx, returns.ReturnCategory("OTHER"), func(GeneratedCode) error {
			t.Fatal("reserve must not run")
			return nil
		})
		require.Error(t, err)
	})

	t.Run("sequence lookup failure degrades to a time-based code", func(t *testing.T) {
		gen := NewCodeGenerator(failingSequencer{err: errors.New("db down")}, newMemoryLocker(), logger)

		var got GeneratedCode
		err := gen.WithNextCode(ctx, returns.CategoryCustomer, func(code GeneratedCode) error {
			got = code
			return nil
		})
		require.NoError(t, err)
		assert.True(t, got.Fallback)
		assert.True(t, strings.HasPrefix(got.Code, "RET-CUST-"))
	})

	t.Run("lock failure degrades to a time-based code", func(t *testing.T) {
		gen := NewCodeGenerator(&countingSequencer{}, failingLocker{err: errors.New("redis down")}, logger)

		var got GeneratedCode
		err := gen.WithNextCode(ctx, returns.CategoryCustomer, func(code GeneratedCode) error {
			got = code
			return nil
		})
		require.NoError(t, err)
		assert.True(t, got.Fallback)
	})

	t.Run("reserve errors propagate", func(t *testing.T) {
		gen := NewCodeGenerator(&countingSequencer{}, newMemoryLocker(), logger)
		wantErr := errors.New("insert failed")
		err := gen.WithNextCode(ctx, returns.CategoryCustomer, func(GeneratedCode) error {
			return wantErr
		})
		require.ErrorIs(t, err, wantErr)
	})

	t.Run("concurrent generation yields unique codes", func(t *testing.T) {
		seq := &countingSequencer{}
		gen := NewCodeGenerator(seq, newMemoryLocker(), logger)

		const n = 50
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := gen.WithNextCode(ctx, returns.CategoryInternal, func(code GeneratedCode) error {
					seq.reserve(code.Code)
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		seen := make(map[string]bool)
		for _, code := range seq.reserved {
			require.False(t, seen[code], fmt.Sprintf("duplicate code %s", code))
			seen[code] = true
		}
		assert.Len(t, seen, n)
	})
}
