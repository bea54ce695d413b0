// Package stream reacts to DynamoDB Streams events of the enrollments table
// and keeps hackathon counters in line with the approved enrollments.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/goliatone/go-hackathon-store/counter"
	"github.com/goliatone/go-hackathon-store/internal/dynamostore"
	"github.com/goliatone/go-hackathon-store/model"
)

const statusAttr = "status"

// Sweeper recounts the named hackathons. *counter.Sweeper implements it.
type Sweeper interface {
	SweepAll(ctx context.Context, hackathonNames []string) ([]counter.SweepResult, error)
}

// Handler processes enrollment stream events.
type Handler struct {
	sweeper     Sweeper
	logger      *slog.Logger
	settleDelay time.Duration
}

// Option configures a Handler.
type Option func(*Handler)

// WithSettleDelay sweeps again, after d, the hackathons whose counter the
// first sweep moved. A reconcile that was still in flight when the first
// sweep ran adds its delta on top of the recount, the second pass takes it
// back out. Zero disables the second pass.
func WithSettleDelay(d time.Duration) Option {
	return func(h *Handler) {
		h.settleDelay = d
	}
}

// NewHandler creates a new stream handler.
func NewHandler(sweeper Sweeper, logger *slog.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		sweeper: sweeper,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleEnrollmentChanges sweeps every hackathon with at least one record
// entering or leaving the approved status. It is designed to be used as an
// AWS Lambda handler. A failed sweep returns the error so the batch is
// retried.
func (h *Handler) HandleEnrollmentChanges(ctx context.Context, event events.DynamoDBEvent) error {
	var names []string
	seen := make(map[string]bool)
	for _, record := range event.Records {
		name, ok := h.affectedHackathon(record)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil
	}

	h.logger.Info("sweeping hackathon counters",
		"records", len(event.Records),
		"hackathons", len(names),
	)

	results, err := h.sweeper.SweepAll(ctx, names)
	if err != nil {
		return fmt.Errorf("sweep counters: %w", err)
	}
	moved := h.logAdjusted(results, "counter adjusted from stream")
	if len(moved) == 0 || h.settleDelay <= 0 {
		return nil
	}

	timer := time.NewTimer(h.settleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	results, err = h.sweeper.SweepAll(ctx, moved)
	if err != nil {
		return fmt.Errorf("settle sweep counters: %w", err)
	}
	h.logAdjusted(results, "counter adjusted after settle delay")
	return nil
}

// logAdjusted logs every changed result and returns the hackathons involved.
func (h *Handler) logAdjusted(results []counter.SweepResult, msg string) []string {
	var moved []string
	for _, res := range results {
		if !res.Changed() {
			continue
		}
		moved = append(moved, res.Hackathon)
		h.logger.Info(msg,
			"hackathon", res.Hackathon,
			"before", res.Before,
			"after", res.After,
		)
	}
	return moved
}

// affectedHackathon returns the partition of a record whose change moves
// the approved count.
func (h *Handler) affectedHackathon(record events.DynamoDBEventRecord) (string, bool) {
	oldStatus := getStatusAttr(record.Change.OldImage)
	newStatus := getStatusAttr(record.Change.NewImage)

	switch events.DynamoDBOperationType(record.EventName) {
	case events.DynamoDBOperationTypeInsert:
		oldStatus = model.EnrollmentStatusNone
	case events.DynamoDBOperationTypeRemove:
		newStatus = model.EnrollmentStatusNone
	case events.DynamoDBOperationTypeModify:
	default:
		h.logger.Debug("ignoring stream record", "eventID", record.EventID, "eventName", record.EventName)
		return "", false
	}

	if counter.Delta(oldStatus, newStatus) == 0 {
		return "", false
	}

	name := getStringAttr(record.Change.Keys, dynamostore.PartitionKeyAttr)
	if name == "" {
		name = getStringAttr(record.Change.NewImage, dynamostore.PartitionKeyAttr)
	}
	if name == "" {
		name = getStringAttr(record.Change.OldImage, dynamostore.PartitionKeyAttr)
	}
	if name == "" {
		h.logger.Warn("stream record without partition key", "eventID", record.EventID)
		return "", false
	}
	return model.NormalizeHackathonName(name), true
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// getStatusAttr reads the enrollment status from an image, none when absent.
func getStatusAttr(image map[string]events.DynamoDBAttributeValue) model.EnrollmentStatus {
	v, ok := image[statusAttr]
	if !ok || v.DataType() != events.DataTypeNumber {
		return model.EnrollmentStatusNone
	}
	n, err := strconv.Atoi(v.Number())
	if err != nil {
		return model.EnrollmentStatusNone
	}
	return model.EnrollmentStatus(n)
}
