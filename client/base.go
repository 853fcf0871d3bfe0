package client

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"

	"pkt.systems/pslog"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/internal/clock"
	"pkt.systems/robocore/internal/loggingutil"
	"pkt.systems/robocore/processor"
	"pkt.systems/robocore/status"
)

// Method describes one RPC of a service.
type Method[Req api.Request, Resp api.Response] struct {
	// Name is the bare method name, e.g. "AcquireLease".
	Name string
	// New allocates an empty response.
	New func() Resp
	// Check interprets the application status of a response that passed the
	// response processors. Optional; it runs on the completing goroutine and
	// may carry side effects such as updating a lease wallet.
	Check func(Resp) status.Status
}

func (m Method[Req, Resp]) newResponse() Resp {
	if m.New == nil {
		var zero Resp
		return zero
	}
	return m.New()
}

// Base is shared by every service client: it owns the transport handle and
// the processor chain.
type Base struct {
	conn     grpc.ClientConnInterface
	service  string
	chain    *processor.Chain
	logger   pslog.Logger
	clock    clock.Clock
	tracer   trace.Tracer
	metrics  *rpcMetrics
	callOpts []grpc.CallOption
}

// Option customises a Base.
type Option func(*Base)

// WithChain installs the processor chain. Without it calls run with the
// always-installed processors only and an empty client name.
func WithChain(chain *processor.Chain) Option {
	return func(b *Base) {
		if chain != nil {
			b.chain = chain
		}
	}
}

// WithLogger supplies a logger for call diagnostics.
func WithLogger(logger pslog.Logger) Option {
	return func(b *Base) {
		b.logger = logger
	}
}

// WithClock overrides the clock used for call timing.
func WithClock(c clock.Clock) Option {
	return func(b *Base) {
		b.clock = c
	}
}

// WithCallOptions appends gRPC call options to every call.
func WithCallOptions(opts ...grpc.CallOption) Option {
	return func(b *Base) {
		b.callOpts = append(b.callOpts, opts...)
	}
}

// NewBase returns a Base that calls service (the fully qualified gRPC service
// name) over conn.
func NewBase(conn grpc.ClientConnInterface, service string, opts ...Option) *Base {
	b := &Base{
		conn:    conn,
		service: strings.Trim(service, "/"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	b.logger = loggingutil.Subsystem(b.logger, "client.rpc").With("service", b.service)
	b.clock = clock.Or(b.clock)
	if b.chain == nil {
		b.chain = processor.Default("", b.clock)
	}
	b.tracer = otel.Tracer("pkt.systems/robocore/client")
	b.metrics = sharedMetrics(b.logger)
	b.callOpts = append([]grpc.CallOption{CodecOption()}, b.callOpts...)
	return b
}

// Service returns the fully qualified service name.
func (b *Base) Service() string { return b.service }

// Chain returns the processor chain used by calls.
func (b *Base) Chain() *processor.Chain { return b.chain }

// ExtendChain replaces the chain with a copy extended by fn, so a service
// client can add its own processors without touching the chain it shares
// with other clients. Call it before the first RPC.
func (b *Base) ExtendChain(fn func(*processor.Chain)) {
	c := b.chain.Clone()
	fn(c)
	b.chain = c
}

// Logger returns the call logger.
func (b *Base) Logger() pslog.Logger { return b.logger }

// Conn returns the transport handle.
func (b *Base) Conn() grpc.ClientConnInterface { return b.conn }

// FullMethod returns "/<service>/<name>".
func (b *Base) FullMethod(name string) string {
	return "/" + b.service + "/" + name
}

type callState struct {
	base    *Base
	call    processor.Call
	params  Params
	ctx     context.Context
	cancel  context.CancelFunc
	span    trace.Span
	started time.Time
}

func (b *Base) begin(ctx context.Context, name string, params Params) *callState {
	cs := &callState{
		base:    b,
		call:    callFor(b, name, params),
		params:  params,
		started: b.clock.Now(),
	}
	cs.ctx, cs.cancel = context.WithTimeout(ctx, params.EffectiveTimeout())
	cs.ctx, cs.span = b.tracer.Start(cs.ctx, cs.call.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("rpc.system", "grpc"),
			attribute.String("rpc.service", b.service),
			attribute.String("rpc.method", name),
		),
	)
	if !params.DisableLogging {
		b.logger.Trace("client.rpc.start", "method", cs.call.Method, "timeout", params.EffectiveTimeout())
	}
	return cs
}

func (cs *callState) finish(st status.Status) {
	defer cs.cancel()
	elapsed := cs.base.clock.Now().Sub(cs.started)
	if st.OK() {
		cs.span.SetStatus(otelcodes.Ok, "")
	} else {
		cs.span.SetStatus(otelcodes.Error, st.Message())
		cs.span.SetAttributes(attribute.String("robocore.status", st.Code().String()))
	}
	cs.span.End()
	cs.base.metrics.record(cs.ctx, cs.call.Method, st, elapsed)
	if cs.params.DisableLogging {
		return
	}
	if st.OK() {
		cs.base.logger.Debug("client.rpc.complete", "method", cs.call.Method, "elapsed", elapsed)
		return
	}
	cs.base.logger.Debug("client.rpc.failed",
		"method", cs.call.Method,
		"elapsed", elapsed,
		"code", st.Code().String(),
		"retryable", st.IsRetryable(),
		"error", st.Message(),
	)
}

// processResponse runs the response processors and then the method check.
func processResponse[Req api.Request, Resp api.Response](cs *callState, m Method[Req, Resp], resp Resp) status.Status {
	if err := cs.base.chain.ProcessResponse(cs.ctx, cs.call, resp); err != nil {
		return status.FromError(err)
	}
	if m.Check != nil {
		return m.Check(resp)
	}
	return status.OK
}

// Unary runs request processors synchronously, then issues the call in the
// background. A request processor failure resolves the Future immediately
// without touching the transport.
func Unary[Req api.Request, Resp api.Response](ctx context.Context, b *Base, m Method[Req, Resp], req Req, params Params) *Future[Resp] {
	if err := b.chain.ProcessRequest(ctx, callFor(b, m.Name, params), req); err != nil {
		return Resolved(Result[Resp]{Status: status.FromError(err), Response: m.newResponse()})
	}
	f := newFuture[Resp]()
	go func() {
		cs := b.begin(ctx, m.Name, params)
		resp := m.newResponse()
		st := status.OK
		if err := b.conn.Invoke(cs.ctx, cs.call.Method, req, resp, b.callOpts...); err != nil {
			st = status.FromError(err)
		} else {
			st = processResponse(cs, m, resp)
		}
		cs.finish(st)
		f.resolve(Result[Resp]{Status: st, Response: resp})
	}()
	return f
}

// Call is Unary followed by Get.
func Call[Req api.Request, Resp api.Response](ctx context.Context, b *Base, m Method[Req, Resp], req Req, params Params) (Resp, error) {
	return Unary(ctx, b, m, req, params).Get(ctx)
}
