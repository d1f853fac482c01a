package core

import (
	"context"
	"time"

	"tesim/pkg/genome"
)

// MetricsRecorder receives one observation per service operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer starts a span per service operation.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan terminates a traced operation. err is nil on success.
type TraceSpan interface {
	End(err error)
}

// Service wraps a genome with observability. Every operation is forwarded to
// the underlying representation unchanged and reported to the configured
// recorders and tracer.
//
// The service inherits the genome's single-owner precondition: operations on
// one Service must not run concurrently. The recorders themselves are
// internally synchronized and may be shared between services.
type Service struct {
	genome  genome.Genome
	metrics []MetricsRecorder
	tracer  Tracer
}

// ServiceOption configures optional observers on a Service.
type ServiceOption func(*Service)

// WithMetricsRecorder attaches a metrics recorder. May be given repeatedly.
func WithMetricsRecorder(rec MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if rec != nil {
			s.metrics = append(s.metrics, rec)
		}
	}
}

// WithTracer attaches an operation tracer.
func WithTracer(tr Tracer) ServiceOption {
	return func(s *Service) { s.tracer = tr }
}

// NewService constructs a service over the supplied genome.
func NewService(g genome.Genome, opts ...ServiceOption) *Service {
	s := &Service{genome: g}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Genome returns the underlying representation.
func (s *Service) Genome() genome.Genome { return s.genome }

// InsertTE inserts a fresh TE and reports the operation.
func (s *Service) InsertTE(ctx context.Context, pos, length int) (int, error) {
	var id int
	err := s.observe(ctx, "insert_te", func() error {
		var err error
		id, err = s.genome.InsertTE(pos, length)
		return err
	})
	return id, err
}

// CopyTE copies an active TE and reports the operation. A contract no-op
// (unknown or disabled identifier) is reported as a success.
func (s *Service) CopyTE(ctx context.Context, te, offset int) (int, error) {
	var id int
	err := s.observe(ctx, "copy_te", func() error {
		var err error
		id, err = s.genome.CopyTE(te, offset)
		return err
	})
	return id, err
}

// DisableTE disables a TE and reports the operation.
func (s *Service) DisableTE(ctx context.Context, te int) {
	_ = s.observe(ctx, "disable_te", func() error {
		s.genome.DisableTE(te)
		return nil
	})
}

// ActiveTEs reports and returns the ascending active identifier list.
func (s *Service) ActiveTEs(ctx context.Context) []int {
	var ids []int
	_ = s.observe(ctx, "active_tes", func() error {
		ids = s.genome.ActiveTEs()
		return nil
	})
	return ids
}

// Length reports and returns the current site count.
func (s *Service) Length(ctx context.Context) int {
	var n int
	_ = s.observe(ctx, "length", func() error {
		n = s.genome.Len()
		return nil
	})
	return n
}

// Render reports and returns the marker string.
func (s *Service) Render(ctx context.Context) string {
	var out string
	_ = s.observe(ctx, "render", func() error {
		out = s.genome.Render()
		return nil
	})
	return out
}

func (s *Service) observe(ctx context.Context, operation string, fn func() error) error {
	var span TraceSpan
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operation)
	}
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	for _, rec := range s.metrics {
		rec.Observe(ctx, operation, err == nil, elapsed)
	}
	if span != nil {
		span.End(err)
	}
	return err
}
