// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"billing-chart-workers/internal/common/logger"
	"billing-chart-workers/internal/common/metrics"
)

type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Recorder receives one observation per handled job.
type Recorder interface {
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string)
}

// Job outcomes as seen by the gateway client.
const (
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusBPMNError  = "bpmn_error"
	StatusUnanswered = "unanswered"
)

// WorkerOptions tunes job activation for one task type.
type WorkerOptions struct {
	MaxJobsActive int
	Timeout       time.Duration
	PollInterval  time.Duration
	Recorder      Recorder
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// trackingClient notes which terminal command a handler issued.
type trackingClient struct {
	worker.JobClient
	status string
}

func (c *trackingClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	c.status = StatusCompleted
	return c.JobClient.NewCompleteJobCommand()
}

func (c *trackingClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	c.status = StatusFailed
	return c.JobClient.NewFailJobCommand()
}

func (c *trackingClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	c.status = StatusBPMNError
	return c.JobClient.NewThrowErrorCommand()
}

// Instrument wraps handler so every activation is tracked and timed under
// the task type. Handlers complete or fail their own jobs; rec may be nil.
func Instrument(taskType string, handler JobHandler, rec Recorder) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		active := metrics.WorkerJobsActive.WithLabelValues(taskType)
		active.Inc()
		defer active.Dec()

		tracked := &trackingClient{JobClient: client, status: StatusUnanswered}
		start := time.Now()
		defer func() {
			elapsed := time.Since(start)
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
			if rec != nil {
				ctx := context.Background()
				rec.RecordJobProcessed(ctx, taskType, tracked.status)
				rec.RecordJobDuration(ctx, taskType, elapsed, tracked.status)
			}
		}()
		handler.Handle(tracked, job)
	}
}

func NewWorker(
	client zbc.Client,
	taskType string,
	opts WorkerOptions,
	handler JobHandler,
	log logger.Logger,
) *CamundaWorker {
	step := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler, opts.Recorder))
	if opts.MaxJobsActive > 0 {
		step = step.MaxJobsActive(opts.MaxJobsActive)
	}
	if opts.Timeout > 0 {
		step = step.Timeout(opts.Timeout)
	}
	if opts.PollInterval > 0 {
		step = step.PollInterval(opts.PollInterval)
	}

	return &CamundaWorker{
		worker:   step.Open(),
		logger:   log,
		taskType: taskType,
	}
}

func (w *CamundaWorker) TaskType() string {
	return w.taskType
}

func (w *CamundaWorker) Start() {
	w.logger.Info("worker started", map[string]interface{}{"taskType": w.taskType})
}

// Stop closes the job worker. The shared gateway client is closed by its
// owner.
func (w *CamundaWorker) Stop(ctx context.Context) {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	done := make(chan struct{})
	go func() {
		w.worker.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("worker stop timed out", map[string]interface{}{"taskType": w.taskType})
	}
}
