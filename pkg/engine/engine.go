// Package engine is the thin façade a caller actually builds against: it
// wires the implementation registry, both kernel packages, and the worker
// façades together behind one constructor, and re-exports every primitive
// kind's Create factory bound to that registry.
package engine

import (
	"go.uber.org/zap"

	"github.com/hyperifyio/nnrt/internal/engineconfig"
	"github.com/hyperifyio/nnrt/internal/enginelog"
	"github.com/hyperifyio/nnrt/pkg/async"
	"github.com/hyperifyio/nnrt/pkg/graph"
	"github.com/hyperifyio/nnrt/pkg/kernel/optimized"
	"github.com/hyperifyio/nnrt/pkg/kernel/reference"
	"github.com/hyperifyio/nnrt/pkg/memory"
	"github.com/hyperifyio/nnrt/pkg/registry"
	"github.com/hyperifyio/nnrt/pkg/worker"
)

// Engine owns the process's implementation registry and logger. It is safe
// for concurrent use once constructed: the registry guards Register and
// Lookup with its own lock.
type Engine struct {
	registry *registry.Registry
	logger   *zap.Logger
	config   engineconfig.Config
}

// Option configures New.
type Option func(*options)

type options struct {
	logger        *zap.Logger
	logLevel      enginelog.Level
	logLevelSet   bool
	skipOptimized bool
	configPath    string
}

// WithLogger installs a caller-supplied logger instead of building one from
// WithLogLevel or the loaded config.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithLogLevel sets the minimum severity for the logger New builds, if
// WithLogger wasn't also given. It overrides whatever log_level engineconfig
// loaded.
func WithLogLevel(level enginelog.Level) Option {
	return func(o *options) { o.logLevel = level; o.logLevelSet = true }
}

// WithConfigPath points New at an explicit engineconfig file instead of the
// default search path (./nnrt.yaml, /etc/nnrt/nnrt.yaml).
func WithConfigPath(path string) Option {
	return func(o *options) { o.configPath = path }
}

// WithoutOptimizedKernels registers only the reference kernels, useful for
// tests that want to pin dispatch to the slow-but-simple path.
func WithoutOptimizedKernels() Option {
	return func(o *options) { o.skipOptimized = true }
}

// New builds a Engine with a fresh registry, registering the reference
// kernels and then (unless disabled) the optimized kernels, so optimized
// entries win wherever both target the same dispatch key (spec §4.6). It
// loads engineconfig defaults (thread-pool size, log level, GPU backend);
// an absent config file is not an error, and an explicit WithLogLevel or
// WithLogger always takes priority over the loaded log_level.
func New(opts ...Option) (*Engine, error) {
	cfg := options{logLevel: enginelog.Info}
	for _, opt := range opts {
		opt(&cfg)
	}

	econf, err := engineconfig.Load(cfg.configPath)
	if err != nil {
		return nil, err
	}

	logger := cfg.logger
	if logger == nil {
		level := cfg.logLevel
		if !cfg.logLevelSet {
			level = enginelog.ParseLevel(econf.LogLevel)
		}
		built, err := enginelog.New(level)
		if err != nil {
			return nil, err
		}
		logger = built
	}

	r := registry.New()
	reference.RegisterDefaultKernels(r)
	if !cfg.skipOptimized {
		optimized.RegisterOptimizedKernels(r)
	}

	return &Engine{registry: r, logger: logger, config: *econf}, nil
}

// Registry exposes the underlying implementation registry, for callers that
// want to Query or Register their own kernels alongside the defaults.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Logger exposes the engine's structured logger.
func (e *Engine) Logger() *zap.Logger { return e.logger }

// Config exposes the engineconfig defaults New loaded.
func (e *Engine) Config() engineconfig.Config { return e.config }

// CPUWorker builds a CPU worker façade with threads workers. A caller that
// passes 0 defers to the loaded thread_pool_size config (itself 0 = hardware
// concurrency, worker.NewCPU's own default).
func (e *Engine) CPUWorker(threads int, lazy bool) *worker.CPU {
	if threads == 0 {
		threads = e.config.ThreadPoolSize
	}
	e.logger.Debug("engine: building cpu worker", zap.Int("threads", threads), zap.Bool("lazy", lazy))
	return worker.NewCPU(threads, lazy)
}

// GPUConfig parametrizes GPUWorker.
type GPUConfig struct {
	ProfilingEnabled bool
	Lazy             bool
}

// GPUWorker builds a GPU worker façade per cfg.
func (e *Engine) GPUWorker(cfg GPUConfig) *worker.GPU {
	e.logger.Debug("engine: building gpu worker", zap.Bool("profiling", cfg.ProfilingEnabled), zap.Bool("lazy", cfg.Lazy), zap.String("backend", e.config.GPUBackend))
	return worker.NewGPU(cfg.ProfilingEnabled, cfg.Lazy)
}

// Execute hands nodes to workers via async.Execute, re-exported so callers
// never need to import pkg/async directly.
func (e *Engine) Execute(nodes []*graph.Node, workers []worker.Worker) (*async.Result, error) {
	e.logger.Debug("engine: submitting node sequence", zap.Int("nodes", len(nodes)), zap.Int("workers", len(workers)))
	res, err := async.Execute(nodes, workers)
	if err != nil {
		e.logger.Warn("engine: submission failed", zap.Error(err))
	}
	return res, err
}

// dispatched logs the outcome of a graph.CreateX call: Debug on success
// (naming the kind that was dispatched to a kernel), Warn on failure.
func (e *Engine) dispatched(kind string, err error) {
	if err != nil {
		e.logger.Warn("engine: dispatch failed", zap.String("kind", kind), zap.Error(err))
		return
	}
	e.logger.Debug("engine: dispatched kernel", zap.String("kind", kind))
}

// The remaining methods re-export graph.CreateX bound to this engine's
// registry, so a caller only imports pkg/engine and pkg/graph (for the
// argument/At types) to build a graph.

func (e *Engine) CreateMemory(buf *memory.Buffer) *graph.Node { return graph.CreateMemory(buf) }

func (e *Engine) CreateFile(args graph.FileArgs) (*graph.Node, error) { return graph.CreateFile(args) }

func (e *Engine) CreateReorder(eng worker.Engine, input graph.At, output *memory.Buffer) (*graph.Node, error) {
	n, err := graph.CreateReorder(e.registry, eng, input, output)
	e.dispatched("reorder", err)
	return n, err
}

func (e *Engine) CreateDepthConcatenate(eng worker.Engine, inputs []graph.At, output *memory.Buffer) (*graph.Node, error) {
	n, err := graph.CreateDepthConcatenate(e.registry, eng, inputs, output)
	e.dispatched("depth_concatenate", err)
	return n, err
}

func (e *Engine) CreateRelu(eng worker.Engine, args graph.ReluArgs, input graph.At, output *memory.Buffer) (*graph.Node, error) {
	n, err := graph.CreateRelu(e.registry, eng, args, input, output)
	e.dispatched("relu", err)
	return n, err
}

func (e *Engine) CreateReluBackward(eng worker.Engine, args graph.ReluBackwardArgs, xFwd, dy graph.At, dx *memory.Buffer) (*graph.Node, error) {
	n, err := graph.CreateReluBackward(e.registry, eng, args, xFwd, dy, dx)
	e.dispatched("relu_backward", err)
	return n, err
}

func (e *Engine) CreatePooling(eng worker.Engine, args graph.PoolingArgs, input graph.At, output *memory.Buffer) (*graph.Node, error) {
	n, err := graph.CreatePooling(e.registry, eng, args, input, output)
	e.dispatched("pooling", err)
	return n, err
}

func (e *Engine) CreateConvolution(eng worker.Engine, args graph.ConvolutionArgs, input, weights, bias graph.At, output *memory.Buffer) (*graph.Node, error) {
	n, err := graph.CreateConvolution(e.registry, eng, args, input, weights, bias, output)
	e.dispatched("convolution", err)
	return n, err
}

func (e *Engine) CreateConvolutionRelu(eng worker.Engine, args graph.ConvolutionArgs, input, weights, bias graph.At, output *memory.Buffer) (*graph.Node, error) {
	n, err := graph.CreateConvolutionRelu(e.registry, eng, args, input, weights, bias, output)
	e.dispatched("convolution_relu", err)
	return n, err
}

func (e *Engine) CreateConvolutionBackward(eng worker.Engine, args graph.ConvolutionArgs, dOutput, inputFwd, weights, bias graph.At, dInput, dWeight, dBias *memory.Buffer) (*graph.Node, error) {
	n, err := graph.CreateConvolutionBackward(e.registry, eng, args, dOutput, inputFwd, weights, bias, dInput, dWeight, dBias)
	e.dispatched("convolution_backward", err)
	return n, err
}

func (e *Engine) CreateResponse(eng worker.Engine, args graph.ResponseArgs, input graph.At, output *memory.Buffer) (*graph.Node, error) {
	n, err := graph.CreateResponse(e.registry, eng, args, input, output)
	e.dispatched("response", err)
	return n, err
}

func (e *Engine) CreateSoftmax(eng worker.Engine, input graph.At, output *memory.Buffer) (*graph.Node, error) {
	n, err := graph.CreateSoftmax(e.registry, eng, input, output)
	e.dispatched("softmax", err)
	return n, err
}

func (e *Engine) CreateBatchTrainingForward(eng worker.Engine, args graph.BatchTrainingForwardArgs, x, scale, bias graph.At, outputs [5]*memory.Buffer) (*graph.Node, error) {
	n, err := graph.CreateBatchTrainingForward(e.registry, eng, args, x, scale, bias, outputs)
	e.dispatched("batch_training_forward", err)
	return n, err
}

func (e *Engine) CreateBatchTrainingBackward(eng worker.Engine, args graph.BatchTrainingBackwardArgs, xFwd, scaleFwd, biasFwd, dy, currentMean, currentInvStdDev graph.At, outputs [3]*memory.Buffer) (*graph.Node, error) {
	n, err := graph.CreateBatchTrainingBackward(e.registry, eng, args, xFwd, scaleFwd, biasFwd, dy, currentMean, currentInvStdDev, outputs)
	e.dispatched("batch_training_backward", err)
	return n, err
}

func (e *Engine) CreateBatchInference(eng worker.Engine, x, scale, bias, mean, invStdDev graph.At, y *memory.Buffer) (*graph.Node, error) {
	n, err := graph.CreateBatchInference(e.registry, eng, x, scale, bias, mean, invStdDev, y)
	e.dispatched("batch_inference", err)
	return n, err
}
