// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"franchise-notifications/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// JobHandler completes or fails the job itself through client.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

type Worker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// StartWorker opens a job worker for taskType on c.
func StartWorker(c *Client, taskType string, maxJobsActive int, timeout time.Duration, handler JobHandler, log logger.Logger) *Worker {
	jobWorker := c.client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(maxJobsActive).
		Timeout(timeout).
		Name("notification-manager").
		Open()

	w := &Worker{
		worker:   jobWorker,
		logger:   log.WithFields(map[string]interface{}{"taskType": taskType}),
		taskType: taskType,
	}
	w.logger.Info("worker started", map[string]interface{}{"maxJobsActive": maxJobsActive})
	return w
}

// Stop closes the worker and waits for in-flight jobs.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}
