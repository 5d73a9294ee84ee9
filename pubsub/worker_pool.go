package pubsub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/vechain/vrfjury/config"
	"github.com/vechain/vrfjury/types"
)

// Task represents a handler task to be executed
type Task struct {
	HandlerName string
	Handler     Handler
	Record      *types.Record
}

// WorkerPool manages a pool of workers to handle tasks concurrently
type WorkerPool struct {
	workers    int
	taskQueue  chan Task
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	mu         sync.RWMutex
	isShutdown bool
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workers int, queueSize int) *WorkerPool {
	if workers <= 0 {
		workers = config.DefaultWorkerPoolSize
	}
	if queueSize <= 0 {
		queueSize = config.DefaultTaskQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan Task, queueSize),
		ctx:       ctx,
		cancel:    cancel,
	}

	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker(i)
	}

	slog.Info("Worker pool started", "workers", workers, "queue_size", queueSize)
	return pool
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	slog.Debug("Worker started", "worker_id", id)

	for {
		select {
		case <-wp.ctx.Done():
			// drain what was queued before shutdown
			for task := range wp.taskQueue {
				wp.processTask(task, id)
			}
			slog.Debug("Worker shutting down", "worker_id", id)
			return
		case task, ok := <-wp.taskQueue:
			if !ok {
				slog.Debug("Task queue closed, worker shutting down", "worker_id", id)
				return
			}

			wp.processTask(task, id)
		}
	}
}

// processTask executes a single task, recovering from handler panics
func (wp *WorkerPool) processTask(task Task, workerID int) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 1024)
			for {
				n := runtime.Stack(buf, false)
				if n < len(buf) {
					buf = buf[:n]
					break
				}
				buf = make([]byte, 2*len(buf))
			}
			slog.Error("Worker panic recovered",
				"worker_id", workerID,
				"handler", task.HandlerName,
				"event", task.Record.Event.Name(),
				"seq", task.Record.Seq,
				"panic", r)

			// fmt so \n and \t are interpreted correctly
			fmt.Printf("Stack trace:\n%s\n", string(buf))
		}
	}()

	start := time.Now()

	if err := task.Handler(task.Record); err != nil {
		slog.Error("Failed to handle event",
			"worker_id", workerID,
			"handler", task.HandlerName,
			"event", task.Record.Event.Name(),
			"source", task.Record.Source,
			"seq", task.Record.Seq,
			"error", err)
	} else {
		slog.Debug("Task completed successfully",
			"worker_id", workerID,
			"handler", task.HandlerName,
			"event", task.Record.Event.Name(),
			"duration", time.Since(start),
			"seq", task.Record.Seq)
	}
}

// SubmitBatch submits multiple tasks to the worker pool
func (wp *WorkerPool) SubmitBatch(tasks []Task) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.isShutdown {
		return errors.New(config.ErrWorkerPoolShutdown)
	}

	for _, task := range tasks {
		select {
		case wp.taskQueue <- task:
		case <-wp.ctx.Done():
			return errors.New(config.ErrWorkerPoolShutdown)
		}
	}
	return nil
}

// Shutdown stops accepting tasks and waits for the queued ones to finish
func (wp *WorkerPool) Shutdown() {
	wp.mu.Lock()
	if !wp.isShutdown {
		wp.isShutdown = true
		close(wp.taskQueue)
		wp.cancel()
	}
	wp.mu.Unlock()

	slog.Info("Worker pool shutdown initiated, waiting for workers to complete")

	wp.wg.Wait()

	slog.Info("Worker pool shutdown completed")
}
