package logstore

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rzbill/lodge/pkg/log"
	"golang.org/x/time/rate"
)

// reporter sends storage failures to the logging front-end. Reports are rate
// limited so a failing disk cannot flood the log it is failing to write.
type reporter struct {
	mu         sync.RWMutex
	logger     log.Logger
	limiter    *rate.Limiter
	suppressed atomic.Uint64
}

func newReporter(logger log.Logger) *reporter {
	if logger == nil {
		logger = log.NewLogger(log.WithFormatter(&log.TextFormatter{}))
	}
	return &reporter{
		logger:  logger.WithComponent("logstore"),
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

func (r *reporter) setLogger(l log.Logger) {
	if l == nil {
		return
	}
	r.mu.Lock()
	r.logger = l.WithComponent("logstore")
	r.mu.Unlock()
}

func (r *reporter) get() log.Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.logger
}

func (r *reporter) error(msg string, err error, fields ...log.Field) {
	if !r.limiter.Allow() {
		r.suppressed.Add(1)
		return
	}
	if n := r.suppressed.Swap(0); n > 0 {
		fields = append(fields, log.Uint64("suppressed", n))
	}
	r.get().WithError(err).Error(msg, fields...)
}

func (r *reporter) warn(msg, dir string) {
	r.get().Warn(msg, log.Str("dir", dir))
}
