package channel

import (
	"fmt"
)

type Outcome string

const (
	OutcomeDelivered          Outcome = "delivered"
	OutcomePartiallyDelivered Outcome = "partially_delivered"
	OutcomeFailed             Outcome = "failed"
	OutcomeSkipped            Outcome = "skipped"
)

// Result is one channel's delivery outcome. Success is true for delivered,
// partially delivered and skipped outcomes.
type Result struct {
	Channel     string   `json:"channel"`
	Outcome     Outcome  `json:"outcome"`
	Success     bool     `json:"success"`
	Error       string   `json:"error,omitempty"`
	Warning     string   `json:"warning,omitempty"`
	Attempted   int      `json:"attempted"`
	FailedCount int      `json:"failedCount"`
	MessageIDs  []string `json:"messageIds,omitempty"`

	Err error `json:"-"`
}

func Skipped(channel, reason string) Result {
	return Result{Channel: channel, Outcome: OutcomeSkipped, Success: true, Warning: reason}
}

func Failed(channel string, err error) Result {
	return Result{Channel: channel, Outcome: OutcomeFailed, Error: err.Error(), Err: err}
}

func Delivered(channel string, messageIDs ...string) Result {
	return Result{
		Channel:    channel,
		Outcome:    OutcomeDelivered,
		Success:    true,
		Attempted:  1,
		MessageIDs: messageIDs,
	}
}

// attempt is the outcome of a transmission to a single recipient.
type attempt struct {
	index     int
	recipient string
	messageID string
	err       error
}

// aggregate folds per-recipient attempts: all succeeded is delivered, some
// succeeded is a partial delivery with a "k/n failed" warning, none succeeded
// is a failure carrying the first error in recipient order.
func aggregate(channel string, attempts []attempt) Result {
	res := Result{Channel: channel, Attempted: len(attempts)}

	var firstErr error
	firstIdx := len(attempts)
	for _, a := range attempts {
		if a.err != nil {
			res.FailedCount++
			if a.index < firstIdx {
				firstIdx, firstErr = a.index, a.err
			}
			continue
		}
		if a.messageID != "" {
			res.MessageIDs = append(res.MessageIDs, a.messageID)
		}
	}

	switch {
	case res.FailedCount == 0:
		res.Outcome = OutcomeDelivered
		res.Success = true
	case res.FailedCount < res.Attempted:
		res.Outcome = OutcomePartiallyDelivered
		res.Success = true
		res.Warning = fmt.Sprintf("%d/%d failed", res.FailedCount, res.Attempted)
	default:
		res.Outcome = OutcomeFailed
		res.Err = firstErr
		res.Error = firstErr.Error()
	}
	return res
}
