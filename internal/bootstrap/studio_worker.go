package bootstrap

import (
	"context"
	"os"
	"sync"
	"time"

	"studio_server/adapter/in/worker"
	"studio_server/adapter/out/messaging"
	"studio_server/config"
	"studio_server/core/port/out"
	"studio_server/pkg/logger"

	"github.com/rs/zerolog"
)

// Worker runs the generation pipeline: a Redis Stream consumer feeding a
// worker pool that calls the image and video backends.
type Worker struct {
	pool     *worker.Pool
	consumer *messaging.Consumer
	drainer  *worker.Drainer
	deps     *Dependencies
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	zlog     zerolog.Logger
}

func NewWorker(cfg *config.Config) (*Worker, func(), error) {
	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		return nil, nil, err
	}

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		With().Timestamp().Str("component", "worker").Logger()

	// Interface fields stay nil when a backend is not configured; a typed
	// nil pointer would defeat the processor's nil checks.
	var (
		images    out.ImageBackend
		videos    out.VideoBackend
		optimizer out.PromptOptimizer
	)
	if deps.ImageClient != nil {
		images = deps.ImageClient
		optimizer = deps.ImageClient
	}
	if deps.VideoClient != nil {
		videos = deps.VideoClient
	}

	processor := worker.NewGenerationProcessor(
		deps.QueueService,
		images,
		videos,
		optimizer,
		deps.Protector,
		zlog,
	)
	handler := worker.NewHandler(processor, zlog)

	defaultConfig := worker.DefaultPoolConfig()
	poolConfig := &worker.PoolConfig{
		MaxWorkers:       cfg.WorkerMax,
		QueueSize:        cfg.WorkerQueueSize,
		JobTimeout:       defaultConfig.JobTimeout,
		BatchSize:        defaultConfig.BatchSize,
		WorkerChanSize:   defaultConfig.WorkerChanSize,
		JobTimeoutByType: map[worker.JobType]time.Duration{
			worker.JobImageGeneration: cfg.ImageTimeout,
			worker.JobVideoGeneration: cfg.VideoTimeout,
		},
	}
	if poolConfig.MaxWorkers == 0 {
		poolConfig.MaxWorkers = defaultConfig.MaxWorkers
	}
	if poolConfig.QueueSize == 0 {
		poolConfig.QueueSize = defaultConfig.QueueSize
	}

	pool := worker.NewPool(handler, poolConfig, zlog)

	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		pool:   pool,
		deps:   deps,
		ctx:    ctx,
		cancel: cancel,
		zlog:   zlog,
	}

	// Redis Stream consumer, or a direct queue drain loop when Redis is
	// absent so single-process deployments still make progress.
	if deps.Redis != nil {
		streams := []string{
			messaging.StreamGenerationPriority,
			messaging.StreamGeneration,
		}
		w.consumer = messaging.NewConsumer(deps.Redis, &messaging.ConsumerConfig{
			Group:                cfg.ConsumerGroup,
			Consumer:             cfg.WorkerID,
			Streams:              streams,
			Handler:              worker.NewStreamHandler(pool, zlog),
			Logger:               zlog,
			PendingCheckInterval: time.Duration(cfg.ConsumerPendingCheckSec) * time.Second,
			PendingIdleTime:      time.Duration(cfg.ConsumerPendingIdleSec) * time.Second,
			MaxDeliveries:        cfg.ConsumerMaxDeliveries,
		})
		logger.Info("Redis Stream consumer configured for %d streams", len(streams))
	} else {
		w.drainer = worker.NewDrainer(deps.QueueService, pool, zlog)
		logger.Warn("Redis not available, draining the in-memory queue directly")
	}

	return w, cleanup, nil
}

func (w *Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.pool.Start()
	}()

	if w.consumer != nil {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.zlog.Info().Msg("starting Redis Stream consumer")
			if err := w.consumer.Run(w.ctx); err != nil && err != context.Canceled {
				w.zlog.Error().Err(err).Msg("Redis Stream consumer error")
			}
		}()
	}

	if w.drainer != nil {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.zlog.Info().Msg("starting queue drain loop")
			if err := w.drainer.Run(w.ctx); err != nil && err != context.Canceled {
				w.zlog.Error().Err(err).Msg("queue drain loop error")
			}
		}()
	}

	<-w.ctx.Done()
}

func (w *Worker) Stop() {
	w.cancel()
	w.pool.Stop()
	w.wg.Wait()
}

func (w *Worker) Submit(msg *worker.Message) bool {
	return w.pool.Submit(msg)
}

func (w *Worker) GetMetrics() worker.PoolMetrics {
	return w.pool.GetMetrics()
}

func (w *Worker) Dependencies() *Dependencies {
	return w.deps
}
