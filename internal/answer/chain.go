// Package answer resolves free-text vehicle questions through an ordered
// list of answer sources.
package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Question is what every answer source receives. Sources that have no use
// for the vehicle model ignore it.
type Question struct {
	Text         string
	VehicleModel string
}

// Answerer is a single answer source. An empty answer with a nil error
// means the source had nothing to say.
type Answerer interface {
	Name() string
	Answer(ctx context.Context, q Question) (string, error)
}

// Func adapts a plain function to the Answerer interface.
type Func struct {
	SourceName string
	Fn         func(ctx context.Context, q Question) (string, error)
}

func (f Func) Name() string { return f.SourceName }

func (f Func) Answer(ctx context.Context, q Question) (string, error) {
	return f.Fn(ctx, q)
}

// PlaceholderSource is reported as the source when no answerer produced text.
const PlaceholderSource = "placeholder"

// Placeholder is the deterministic reply used when every source came up empty.
func Placeholder(question string) string {
	return fmt.Sprintf("(임시응답) 질문을 받았습니다: %s", strings.TrimSpace(question))
}

// Result is the chain's answer and which source produced it.
type Result struct {
	Text   string
	Source string
}

// Chain asks its answerers one at a time, in order, and stops at the first
// non-blank answer.
type Chain struct {
	answerers []Answerer
	timeout   time.Duration
	logger    *zap.Logger
}

// NewChain builds a chain. A zero timeout leaves each call bounded only by
// the caller's context.
func NewChain(logger *zap.Logger, timeout time.Duration, answerers ...Answerer) *Chain {
	return &Chain{
		answerers: answerers,
		timeout:   timeout,
		logger:    logger,
	}
}

// Answer never fails: source errors, panics and timeouts count as "no
// answer" and the chain moves on to the next source.
func (c *Chain) Answer(ctx context.Context, q Question) Result {
	for _, a := range c.answerers {
		text := c.try(ctx, a, q)
		if text != "" {
			return Result{Text: text, Source: a.Name()}
		}
		if ctx.Err() != nil {
			break
		}
	}
	return Result{Text: Placeholder(q.Text), Source: PlaceholderSource}
}

func (c *Chain) try(ctx context.Context, a Answerer, q Question) (text string) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Answer source panicked",
				zap.String("source", a.Name()),
				zap.Any("panic", r))
			text = ""
		}
	}()

	res, err := a.Answer(ctx, q)
	if err != nil {
		c.logger.Warn("Answer source failed",
			zap.String("source", a.Name()),
			zap.Error(err))
		return ""
	}
	return strings.TrimSpace(res)
}
