package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jkoval/accesshub/internal/pkg/ctxlog"
	"github.com/jkoval/accesshub/internal/pkg/metrics"
)

// RecordUpdate is one entry of a per-record bulk update.
type RecordUpdate struct {
	ID   string
	Data map[string]interface{}
}

// BulkResult reports the outcome of a per-record bulk update. Errors
// are collected per record; the presence of errors does not fail the
// call and does not undo the updates that succeeded.
type BulkResult struct {
	UpdatedIDs []string
	Errors     []string
}

// BulkUpdateSame applies one field-update map to every existing user in
// ids as a single atomic write. Ids that match no user are skipped
// silently and do not count toward the returned total; only an
// infrastructure failure aborts the call.
func (s *Service) BulkUpdateSame(ctx context.Context, ids []string, data map[string]interface{}) (int64, error) {
	if len(ids) == 0 || len(data) == 0 {
		return 0, fmt.Errorf("%w: user_ids and update_data are required", ErrInvalidInput)
	}

	fields, err := ParseUpdateFields(data)
	if err != nil {
		return 0, err
	}

	count, err := s.repo.ApplyUpdateToAll(ctx, ids, fields)
	if err != nil {
		return 0, err
	}

	metrics.BulkUpdatedUsers.WithLabelValues("same_data").Add(float64(count))
	return count, nil
}

// BulkUpdateEach applies each record's field-update map independently.
// Every record is its own committed write: a failure is recorded
// against that record and processing continues, so later failures
// never roll back earlier successes. The caller inspects the error
// list to detect partial failure.
func (s *Service) BulkUpdateEach(ctx context.Context, updates []RecordUpdate) (*BulkResult, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: user_updates is required", ErrInvalidInput)
	}

	result := &BulkResult{
		UpdatedIDs: make([]string, 0, len(updates)),
		Errors:     make([]string, 0),
	}

	for _, update := range updates {
		if update.ID == "" || len(update.Data) == 0 {
			result.recordFailure(fmt.Sprintf("Invalid update data for user %s", update.ID))
			continue
		}

		fields, err := ParseUpdateFields(update.Data)
		if err != nil {
			result.recordFailure(fmt.Sprintf("Error updating user %s: %v", update.ID, err))
			continue
		}

		if err := s.repo.ApplyUpdate(ctx, update.ID, fields); err != nil {
			result.recordFailure(describeUpdateError(update.ID, err))
			continue
		}
		result.UpdatedIDs = append(result.UpdatedIDs, update.ID)
	}

	ctxlog.FromContext(ctx).Info("per-record bulk update finished",
		"updated", len(result.UpdatedIDs),
		"failed", len(result.Errors),
	)
	metrics.BulkUpdatedUsers.WithLabelValues("different_data").Add(float64(len(result.UpdatedIDs)))

	return result, nil
}

func (r *BulkResult) recordFailure(message string) {
	r.Errors = append(r.Errors, message)
	metrics.BulkUpdateFailures.Inc()
}

func describeUpdateError(id string, err error) string {
	if errors.Is(err, ErrUserNotFound) {
		return fmt.Sprintf("User with id %s not found", id)
	}
	return fmt.Sprintf("Error updating user %s: %v", id, err)
}
