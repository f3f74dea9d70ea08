package returns

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wms/backend/internal/domain/returns"
	"github.com/wms/backend/internal/domain/shared"
)

// CodeSequencer looks up the highest issued sequence number for a code
// prefix. Satisfied by returns.ReturnRepository.
type CodeSequencer interface {
	MaxCodeSequence(ctx context.Context, prefix string) (int, error)
}

// ScopeLocker serializes critical sections by scope key. Implementations
// back this with Redis in multi-instance deployments or a process-local
// mutex map otherwise.
type ScopeLocker interface {
	WithLock(ctx context.Context, scope string, fn func() error) error
}

// GeneratedCode is the outcome of code generation. Fallback is set when
// the sequential path was unavailable and a time-based code was issued
// instead.
type GeneratedCode struct {
	Code     string
	Fallback bool
}

// CodeGenerator issues return codes of the form PREFIX-YYMM-NNNN, e.g.
// RET-CUST-2608-0001. The NNNN sequence restarts every month per category.
type CodeGenerator struct {
	sequencer CodeSequencer
	locker    ScopeLocker
	logger    *zap.Logger
	now       func() time.Time
}

// NewCodeGenerator creates a new CodeGenerator
func NewCodeGenerator(sequencer CodeSequencer, locker ScopeLocker, logger *zap.Logger) *CodeGenerator {
	return &CodeGenerator{
		sequencer: sequencer,
		locker:    locker,
		logger:    logger,
		now:       time.Now,
	}
}

// WithNextCode issues the next code for the given category and invokes
// reserve with it. The scope lock is held across both the sequence lookup
// and the reserve call, so two concurrent submissions in the same category
// and month can never be handed the same sequence number: the first one
// persists its code before the second one reads the sequence.
//
// When the sequence lookup or the lock itself is unavailable the generator
// degrades to a unique time-based code rather than blocking submission.
func (g *CodeGenerator) WithNextCode(ctx context.Context, category returns.ReturnCategory, reserve func(GeneratedCode) error) error {
	if !category.IsValid() {
		return shared.NewDomainError("INVALID_CATEGORY", "Unknown return category")
	}

	prefix := fmt.Sprintf("%s-%s-", category.CodePrefix(), g.now().Format("0601"))

	var reserveErr error
	err := g.locker.WithLock(ctx, "return-code:"+prefix, func() error {
		code := GeneratedCode{}
		seq, err := g.sequencer.MaxCodeSequence(ctx, prefix)
		if err != nil {
			code = g.fallback(prefix, err)
		} else {
			code.Code = fmt.Sprintf("%s%04d", prefix, seq+1)
		}
		reserveErr = reserve(code)
		return nil
	})
	if err != nil {
		// Lock acquisition failed; a sequential code would race, so issue
		// a time-based one instead.
		return reserve(g.fallback(prefix, err))
	}
	return reserveErr
}

func (g *CodeGenerator) fallback(prefix string, cause error) GeneratedCode {
	code := fmt.Sprintf("%sT%d", prefix, g.now().UnixNano())
	g.logger.Warn("sequential return code unavailable, issuing time-based code",
		zap.String("prefix", prefix),
		zap.String("code", code),
		zap.Error(cause),
	)
	return GeneratedCode{Code: code, Fallback: true}
}
