package createnotification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"franchise-notifications/internal/common/errors"
	"franchise-notifications/internal/common/logger"
	"franchise-notifications/internal/common/metrics"
	"franchise-notifications/internal/models"
	"franchise-notifications/internal/notification/service"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "notification.create"

// Creator is the part of the notification service this worker calls.
type Creator interface {
	Create(ctx context.Context, req *models.NotificationCreateRequest, actor *models.UserEmailInfo, override *models.EmailChannelConfig) (*service.CreateResult, error)
}

type Handler struct {
	config       *Config
	creator      Creator
	logger       logger.Logger
	errorHandler *errors.JobErrorHandler
}

type HandlerOptions struct {
	Config  *Config
	Creator Creator
	Logger  logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Creator == nil {
		return nil, fmt.Errorf("%s: notification service is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json", "stdout")
	}
	log = log.WithFields(map[string]interface{}{"worker": TaskType})

	return &Handler{
		config:       cfg,
		creator:      opts.Creator,
		logger:       log,
		errorHandler: errors.NewJobErrorHandler(log),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing create notification job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

// Execute creates the notification. Channel failures are reported in the
// output and never fail the job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.creator.Create(ctx, &input.NotificationCreateRequest, input.Actor, input.EmailOverride)
	if err != nil {
		return nil, err
	}
	return &Output{
		NotificationID:     result.Notification.ID,
		NotificationStatus: result.Notification.Status,
		ChannelResults:     result.ChannelResults,
	}, nil
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("failed to parse job variables: %v", err))
	}
	return parseVariables(variables)
}

func parseVariables(variables map[string]interface{}) (*Input, error) {
	if result := inputSchema.Validate(variables); !result.Valid {
		return nil, errors.NewValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}

	raw, err := json.Marshal(variables)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("failed to decode job variables: %v", err))
	}
	return &input, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		h.fail(ctx, client, job, errors.NewInternalError(err))
		return
	}
	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("create notification job completed", map[string]interface{}{
		"jobKey":         job.GetKey(),
		"notificationId": output.NotificationID,
	})
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.CodeOf(err))).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
