package marknotificationsread

import (
	"context"
	"fmt"
	"strings"
	"time"

	"franchise-notifications/internal/common/errors"
	"franchise-notifications/internal/common/logger"
	"franchise-notifications/internal/common/metrics"
	"franchise-notifications/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "notification.mark-read"

type StatusUpdater interface {
	MarkRead(ctx context.Context, ids []string, role models.Role) (*models.BatchUpdateResult, error)
	MarkAllRead(ctx context.Context, role models.Role) (*models.BatchUpdateResult, error)
}

type Handler struct {
	config       *Config
	updater      StatusUpdater
	logger       logger.Logger
	errorHandler *errors.JobErrorHandler
}

type HandlerOptions struct {
	Config  *Config
	Updater StatusUpdater
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
	if opts.Updater == nil {
		return nil, fmt.Errorf("%s: notification service is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json", "stdout")
	}
	log = log.WithFields(map[string]interface{}{"worker": TaskType})

	return &Handler{
		config:       cfg,
		updater:      opts.Updater,
		logger:       log,
		errorHandler: errors.NewJobErrorHandler(log),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

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

	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
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

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	var (
		result *models.BatchUpdateResult
		err    error
	)
	if input.IDs == nil {
		result, err = h.updater.MarkAllRead(ctx, input.Role)
	} else {
		result, err = h.updater.MarkRead(ctx, *input.IDs, input.Role)
	}
	if err != nil {
		return nil, err
	}

	out := &Output{UpdatedCount: result.UpdatedCount, UpdatedIDs: result.UpdatedIDs}
	if out.UpdatedIDs == nil {
		out.UpdatedIDs = []string{}
	}
	return out, nil
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

	input := &Input{Role: models.Role(variables["role"].(string))}
	if raw, ok := variables["ids"].([]interface{}); ok {
		ids := make([]string, 0, len(raw))
		for _, id := range raw {
			if s, ok := id.(string); ok {
				ids = append(ids, s)
			}
		}
		input.IDs = &ids
	}
	return input, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.CodeOf(err))).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
