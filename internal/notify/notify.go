// Package notify sends operator emails for import-run lifecycle
// events: a run pausing on duplicates, and a run completing.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/dbankston2409/mens-health-finder/internal/clinic"
	"github.com/dbankston2409/mens-health-finder/internal/pkg/logger"
)

// Notifier delivers run lifecycle notifications. Delivery is
// best-effort; a failed email never fails the run.
type Notifier interface {
	RunPaused(ctx context.Context, run *clinic.ImportRun)
	RunFinished(ctx context.Context, run *clinic.ImportRun)
}

// Noop discards all notifications. Used when no sender is configured
// and in tests.
type Noop struct{}

func (Noop) RunPaused(context.Context, *clinic.ImportRun)   {}
func (Noop) RunFinished(context.Context, *clinic.ImportRun) {}

// SESNotifier sends notifications through Amazon SESv2.
type SESNotifier struct {
	client     *sesv2.Client
	sender     string
	recipients []string
}

// NewSESNotifier builds an SES-backed notifier. Returns nil when
// sender or recipients are missing, so callers can fall back to Noop.
func NewSESNotifier(cfg aws.Config, sender string, recipients []string) *SESNotifier {
	if sender == "" || len(recipients) == 0 {
		return nil
	}
	return &SESNotifier{
		client:     sesv2.NewFromConfig(cfg),
		sender:     sender,
		recipients: recipients,
	}
}

func (n *SESNotifier) RunPaused(ctx context.Context, run *clinic.ImportRun) {
	subject := fmt.Sprintf("Import %s paused: %d duplicates need review", run.ID, len(run.Pending))
	var b strings.Builder
	fmt.Fprintf(&b, "Import run %s (source %s) paused with %d duplicate candidates.\n\n",
		run.ID, run.Source, len(run.Pending))
	for _, p := range run.Pending {
		fmt.Fprintf(&b, "  - %s (%s, %s): %s\n",
			p.Candidate.Name, p.Candidate.City, p.Candidate.State, p.MatchReason)
	}
	b.WriteString("\nPost merge/create/skip decisions to resume the run.\n")
	n.send(ctx, subject, b.String())
}

func (n *SESNotifier) RunFinished(ctx context.Context, run *clinic.ImportRun) {
	subject := fmt.Sprintf("Import %s %s: %d/%d succeeded", run.ID, run.Status, run.Success, run.Total)
	body := fmt.Sprintf(
		"Import run %s (source %s) finished with status %s.\n\n"+
			"  total:   %d\n  success: %d\n  failed:  %d\n"+
			"  created: %d\n  merged:  %d\n  skipped: %d\n",
		run.ID, run.Source, run.Status,
		run.Total, run.Success, run.Failed,
		run.Created, run.Merged, run.Skipped)
	if run.FailureLogKey != "" {
		body += fmt.Sprintf("\nFailure log: %s\n", run.FailureLogKey)
	}
	n.send(ctx, subject, body)
}

func (n *SESNotifier) send(ctx context.Context, subject, body string) {
	_, err := n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.sender),
		Destination:      &types.Destination{ToAddresses: n.recipients},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		logger.Warn("import notification failed", "subject", subject, "error", err.Error())
	}
}
