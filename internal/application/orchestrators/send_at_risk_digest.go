package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	emailAdapter "catequesis/internal/adapters/email"
	"catequesis/internal/domain/report"
	"catequesis/internal/domain/risk"
)

// ErrNoDigestRecipients is returned when the digest has nobody to go to.
var ErrNoDigestRecipients = errors.New("at least one digest recipient is required")

// SendAtRiskDigestInput carries the at-risk listing to mail out.
type SendAtRiskDigestInput struct {
	To        []string
	Scope     string // human description of the filter, e.g. "Parroquia San José"
	Threshold float64
	Learners  []report.Row
}

// SendAtRiskDigestResult reports what was sent.
type SendAtRiskDigestResult struct {
	Sent     int  `json:"sent"`
	Learners int  `json:"learners"`
	Skipped  bool `json:"skipped"`
}

// SendAtRiskDigestDeps holds dependencies for SendAtRiskDigest.
type SendAtRiskDigestDeps struct {
	Sender emailAdapter.Sender
	From   string
	Now    func() time.Time // optional: if nil, time.Now is used
}

// ExecuteSendAtRiskDigest emails the at-risk listing, one message per recipient.
// PRE: len(To) > 0
// POST: Nothing is sent when there are no at-risk learners
func ExecuteSendAtRiskDigest(ctx context.Context, input SendAtRiskDigestInput, deps SendAtRiskDigestDeps) (SendAtRiskDigestResult, error) {
	if len(input.To) == 0 {
		return SendAtRiskDigestResult{}, ErrNoDigestRecipients
	}
	if len(input.Learners) == 0 {
		slog.Info("digest_event", "event", "at_risk_digest_skipped", "scope", input.Scope)
		return SendAtRiskDigestResult{Skipped: true}, nil
	}
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}

	threshold := input.Threshold
	if threshold == 0 {
		threshold = risk.AtRiskThreshold
	}
	title := fmt.Sprintf("Catequizandos en riesgo (%s)", now().Format("2006-01-02"))
	intro := fmt.Sprintf("%d catequizandos por debajo de %s de asistencia", len(input.Learners), risk.Format(threshold))
	if input.Scope != "" {
		intro += " en " + input.Scope
	}
	intro += "."

	html, err := report.Digest(title, intro, input.Learners)
	if err != nil {
		return SendAtRiskDigestResult{}, fmt.Errorf("render digest: %w", err)
	}

	msgs := make([]emailAdapter.Message, len(input.To))
	for i, to := range input.To {
		msgs[i] = emailAdapter.Message{
			To:      []string{to},
			From:    deps.From,
			Subject: title,
			HTML:    string(html),
			Text:    string(report.Markdown(input.Learners)),
		}
	}
	receipts, err := deps.Sender.SendBatch(ctx, msgs)
	if err != nil {
		return SendAtRiskDigestResult{Sent: len(receipts), Learners: len(input.Learners)}, fmt.Errorf("send digest: %w", err)
	}

	slog.Info("digest_event", "event", "at_risk_digest_sent",
		"scope", input.Scope, "recipients", len(receipts), "learners", len(input.Learners))
	return SendAtRiskDigestResult{Sent: len(receipts), Learners: len(input.Learners)}, nil
}
