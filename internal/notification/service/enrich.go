package service

import (
	"context"
	"time"

	"franchise-notifications/internal/common/logger"
	"franchise-notifications/internal/models"
	"franchise-notifications/internal/notification/directory"
)

// Enrichment is the optional display data looked up for a franchise. Empty
// fields mean the lookup was skipped or found nothing.
type Enrichment struct {
	FranchiseName string
	UserName      string
}

// MergeInto returns a copy of data with the enrichment added under keys the
// caller did not already set.
func (e Enrichment) MergeInto(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data)+2)
	for k, v := range data {
		out[k] = v
	}
	if _, set := out[models.DataKeyFranchiseName]; !set && e.FranchiseName != "" {
		out[models.DataKeyFranchiseName] = e.FranchiseName
	}
	if _, set := out[models.DataKeyUserName]; !set && e.UserName != "" {
		out[models.DataKeyUserName] = e.UserName
	}
	return out
}

type Enricher struct {
	directory directory.Directory
	timeout   time.Duration
	logger    logger.Logger
}

func NewEnricher(dir directory.Directory, timeout time.Duration, log logger.Logger) *Enricher {
	return &Enricher{
		directory: dir,
		timeout:   timeout,
		logger:    log.WithFields(map[string]interface{}{"component": "enricher"}),
	}
}

// Enrich looks up the franchise name and owner name that data is missing.
// It never fails: lookup errors and timeouts are logged and leave the
// corresponding field empty.
func (e *Enricher) Enrich(ctx context.Context, franchiseID string, data map[string]interface{}) Enrichment {
	var out Enrichment
	if e == nil || franchiseID == "" {
		return out
	}
	_, hasName := data[models.DataKeyFranchiseName]
	_, hasUser := data[models.DataKeyUserName]
	if hasName && hasUser {
		return out
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	if !hasName {
		name, err := e.directory.GetFranchiseName(ctx, franchiseID)
		if err != nil {
			e.warn("franchise name lookup failed", franchiseID, err)
		}
		out.FranchiseName = name
	}
	if !hasUser {
		owner, err := e.directory.GetFranchiseOwner(ctx, franchiseID)
		if err != nil {
			e.warn("franchise owner lookup failed", franchiseID, err)
		}
		out.UserName = owner.DisplayName()
	}
	return out
}

func (e *Enricher) warn(msg, franchiseID string, err error) {
	e.logger.Warn(msg, map[string]interface{}{
		"franchiseId": franchiseID,
		"error":       err.Error(),
	})
}
