// Package stream drives the receive, classify and publish cycle over the quote bus.
package stream

import (
	"context"
	"errors"
	"time"

	"quotesignal/internal/application/service/signal"
	"quotesignal/internal/domain/entity/quote"
	"quotesignal/internal/domain/interfaces"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// State is the outcome of a single loop iteration.
type State int

const (
	StateIdle State = iota
	StateProcessing
	StateDecodeFailed
	StatePublishFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProcessing:
		return "processing"
	case StateDecodeFailed:
		return "decode_failed"
	case StatePublishFailed:
		return "publish_failed"
	default:
		return "unknown"
	}
}

// Observer is notified of loop outcomes, typically to export metrics.
type Observer interface {
	ObserveProcessed(verdict quote.Verdict, processingTimeMs float64)
	ObserveDecodeFailure()
	ObservePublishFailure()
	ObserveRecorderFailure()
	ObserveReceiveFailure()
}

// Loop pulls quotes one at a time, runs them through the engine and publishes
// the enriched record. The engine is owned by the goroutine calling Run or Step.
type Loop struct {
	sub       interfaces.Subscriber
	pub       interfaces.Publisher
	engine    *signal.Engine
	recorders []interfaces.Recorder
	observer  Observer
	logger    *logrus.Entry
}

type Option func(*Loop)

// WithRecorders registers sinks that receive every successfully published record.
func WithRecorders(recorders ...interfaces.Recorder) Option {
	return func(l *Loop) {
		l.recorders = append(l.recorders, recorders...)
	}
}

func WithObserver(observer Observer) Option {
	return func(l *Loop) {
		l.observer = observer
	}
}

func NewLoop(sub interfaces.Subscriber, pub interfaces.Publisher, engine *signal.Engine, logger logrus.FieldLogger, opts ...Option) *Loop {
	l := &Loop{
		sub:      sub,
		pub:      pub,
		engine:   engine,
		observer: nopObserver{},
		logger:   logger.WithField("component", "stream_loop"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run iterates until the context is cancelled or the subscription closes.
// Per-message failures are reported and never stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("stream loop started")
	for {
		if err := ctx.Err(); err != nil {
			l.logger.Info("stream loop stopped")
			return err
		}
		if _, err := l.Step(ctx); err != nil {
			return err
		}
	}
}

// Step performs one iteration. The returned error is non-nil only when the
// loop cannot continue: the context is done or the subscription is closed.
func (l *Loop) Step(ctx context.Context) (State, error) {
	payload, ok, err := l.sub.TryReceive(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return StateIdle, ctxErr
		}
		if errors.Is(err, interfaces.ErrSubscriptionClosed) {
			return StateIdle, err
		}
		l.observer.ObserveReceiveFailure()
		l.logger.WithError(err).Warn("receive failed")
		return StateIdle, nil
	}
	if !ok {
		return StateIdle, nil
	}

	q, err := quote.Decode(payload)
	if err != nil {
		l.observer.ObserveDecodeFailure()
		l.logger.WithError(err).WithField("size", len(payload)).Warn("dropping malformed payload")
		return StateDecodeFailed, nil
	}
	return l.process(ctx, q), nil
}

func (l *Loop) process(ctx context.Context, q quote.Quote) State {
	start := time.Now()
	features, verdict := l.engine.Evaluate(q)
	record := quote.Record{
		ID:               uuid.New(),
		Quote:            q,
		Verdict:          verdict,
		Spread:           features.Spread,
		Imbalance:        features.Imbalance,
		ReceivedAt:       start.UTC(),
		ProcessingTimeMs: float64(time.Since(start)) / float64(time.Millisecond),
	}

	log := l.logger.WithFields(logrus.Fields{
		"symbol": record.Symbol,
		"signal": record.Signal,
	})

	body, err := quote.Encode(record)
	if err == nil {
		err = l.pub.TryPublish(ctx, body)
	}
	if err != nil {
		l.observer.ObservePublishFailure()
		log.WithError(err).Warn("publish failed")
		return StatePublishFailed
	}
	l.observer.ObserveProcessed(verdict, record.ProcessingTimeMs)
	log.WithField("processing_time_ms", record.ProcessingTimeMs).Debug("published record")

	for _, recorder := range l.recorders {
		if err := recorder.Record(ctx, record); err != nil {
			l.observer.ObserveRecorderFailure()
			log.WithError(err).Warn("record failed")
		}
	}
	return StateProcessing
}

type nopObserver struct{}

func (nopObserver) ObserveProcessed(quote.Verdict, float64) {}
func (nopObserver) ObserveDecodeFailure()                   {}
func (nopObserver) ObservePublishFailure()                  {}
func (nopObserver) ObserveRecorderFailure()                 {}
func (nopObserver) ObserveReceiveFailure()                  {}
