package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

var ErrRunQueued = errors.New("run already queued")

const defaultRunTimeout = 30 * time.Minute

// Scheduler runs the pipeline at startup and then on every interval tick.
// A single worker with a one-slot queue guarantees runs never overlap.
type Scheduler struct {
	runner     Runner
	history    *History
	interval   time.Duration
	runTimeout time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	taskQueue  chan TaskInterface
}

func NewScheduler(runner Runner, history *History, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		runner:     runner,
		history:    history,
		interval:   interval,
		runTimeout: defaultRunTimeout,
		ctx:        ctx,
		cancel:     cancel,
		taskQueue:  make(chan TaskInterface, 1),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueRun(TriggerStartup)

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueRun(TriggerSchedule)
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return ErrRunQueued
	}
}

// TriggerRun enqueues a run and returns its ID.
func (s *Scheduler) TriggerRun(trigger string) (string, error) {
	task := NewLoadFlightsTask(trigger, s.runner, s.history)
	if err := s.EnqueueTask(task); err != nil {
		return "", err
	}
	return task.GetID(), nil
}

// RunOnce executes a single run on the calling goroutine.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	task := NewLoadFlightsTask(TriggerOnce, s.runner, s.history)
	return s.executeTask(ctx, task)
}

func (s *Scheduler) enqueueRun(trigger string) {
	runID, err := s.TriggerRun(trigger)
	if err != nil {
		slog.Warn("Failed to enqueue LoadFlightsTask", "trigger", trigger, "error", err)
		return
	}
	slog.Debug("LoadFlightsTask enqueued", "trigger", trigger, "run_id", runID)
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			_ = s.executeTask(s.ctx, task)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(ctx context.Context, task TaskInterface) error {
	task.Start()

	taskCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err != nil {
		// Failed runs wait for the next trigger.
		slog.Error("Task execution failed", "type", string(task.GetType()), "id", task.GetID(),
			"trigger", task.GetTrigger(), "duration", task.GetDuration(), "error", err)
		return err
	}

	slog.Debug("Task completed", "type", string(task.GetType()), "id", task.GetID(),
		"duration", task.GetDuration())
	return nil
}
