package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
)

// resendBatchLimit is the most emails Resend accepts in one batch call.
const resendBatchLimit = 100

// ResendSender delivers mail through the Resend API.
type ResendSender struct {
	client  *resend.Client
	from    string
	replyTo string
	now     func() time.Time
}

// NewResendSender creates a sender that mails from the program address.
// PRE: apiKey is a Resend API key; from is a verified sender address
// POST: Returns a ready-to-use sender
func NewResendSender(apiKey, from, replyTo string) *ResendSender {
	return &ResendSender{
		client:  resend.NewClient(apiKey),
		from:    from,
		replyTo: replyTo,
		now:     time.Now,
	}
}

func (s *ResendSender) request(m Mail) *resend.SendEmailRequest {
	req := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{m.To},
		Subject: m.Subject,
		Html:    m.HTML,
		Text:    m.Text,
		ReplyTo: s.replyTo,
	}
	if m.Category != "" {
		req.Tags = []resend.Tag{{Name: "category", Value: m.Category}}
	}
	return req
}

// Deliver sends a single mail directly and larger sets through the batch endpoint.
// PRE: every Mail has a recipient and subject
// POST: Returns receipts for the mails accepted before any failure
func (s *ResendSender) Deliver(ctx context.Context, mails []Mail) ([]Receipt, error) {
	switch len(mails) {
	case 0:
		return nil, nil
	case 1:
		sent, err := s.client.Emails.SendWithContext(ctx, s.request(mails[0]))
		if err != nil {
			return nil, fmt.Errorf("resend send to %s: %w", mails[0].To, err)
		}
		slog.Info("email_event", "event", "email_sent", "message_id", sent.Id, "category", mails[0].Category)
		return []Receipt{{ID: sent.Id, Accepted: s.now()}}, nil
	}

	receipts := make([]Receipt, 0, len(mails))
	for start := 0; start < len(mails); start += resendBatchLimit {
		chunk := mails[start:min(start+resendBatchLimit, len(mails))]
		reqs := make([]*resend.SendEmailRequest, len(chunk))
		for i, m := range chunk {
			reqs[i] = s.request(m)
		}
		resp, err := s.client.Batch.SendWithContext(ctx, reqs)
		if err != nil {
			return receipts, fmt.Errorf("resend batch of %d: %w", len(chunk), err)
		}
		for _, item := range resp.Data {
			receipts = append(receipts, Receipt{ID: item.Id, Accepted: s.now()})
		}
	}
	slog.Info("email_event", "event", "email_batch_sent", "count", len(receipts))
	return receipts, nil
}
