// Package notify emails the sales team after a successful intake. Delivery
// failure is logged and never surfaced to the form submitter.
package notify

import (
	"context"
	"fmt"

	"lead-intake/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// EmailSender is satisfied by *ses.Client and by the common/aws wrapper.
type EmailSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type Notifier struct {
	sender EmailSender
	from   string
	to     string
	logger logger.Logger
}

// Lead is the summary included in the notification email.
type Lead struct {
	Name        string
	Email       string
	ServiceType string
	ContactID   string
	PhotoCount  int
}

func New(sender EmailSender, from, to string, log logger.Logger) *Notifier {
	return &Notifier{
		sender: sender,
		from:   from,
		to:     to,
		logger: log,
	}
}

// LeadCaptured sends the sales notification for one captured lead.
func (n *Notifier) LeadCaptured(ctx context.Context, lead Lead) {
	subject := fmt.Sprintf("New discovery call request: %s", lead.Name)
	body := fmt.Sprintf(
		"A new discovery call request was captured.\n\nName: %s\nEmail: %s\nService type: %s\nCRM contact: %s\nPhotos attached: %d\n",
		lead.Name, lead.Email, lead.ServiceType, lead.ContactID, lead.PhotoCount,
	)

	_, err := n.sender.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(n.from),
		Destination: &types.Destination{
			ToAddresses: []string{n.to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		n.logger.Error("Sales notification email failed", map[string]interface{}{
			"contactId": lead.ContactID,
			"error":     err.Error(),
		})
		return
	}

	n.logger.Info("Sales notification sent", map[string]interface{}{
		"contactId": lead.ContactID,
	})
}
