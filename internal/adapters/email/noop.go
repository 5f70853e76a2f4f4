package email

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// LogSender writes mail to the log instead of delivering it. It is used when
// no Resend key is configured and keeps everything it saw for tests.
type LogSender struct {
	mu    sync.Mutex
	mails []Mail
}

// NewLogSender creates an empty LogSender.
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Deliver records the mails and returns a synthetic receipt for each.
// PRE: none
// POST: Never fails
func (s *LogSender) Deliver(_ context.Context, mails []Mail) ([]Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	receipts := make([]Receipt, len(mails))
	for i, m := range mails {
		s.mails = append(s.mails, m)
		receipts[i] = Receipt{ID: "log-" + strconv.Itoa(len(s.mails)), Accepted: time.Now()}
		slog.Debug("email_event", "event", "email_logged", "to", m.To, "subject", m.Subject)
	}
	return receipts, nil
}

// Delivered returns a copy of every mail seen so far.
func (s *LogSender) Delivered() []Mail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Mail(nil), s.mails...)
}
