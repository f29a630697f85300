package notify

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/workflow"
	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// Delivery is one attempted send.
type Delivery struct {
	Template  string
	Recipient string
	Err       error
}

// Report lists the sends made for one update.
type Report struct {
	Deliveries []Delivery
}

// Recipients returns the notified addresses in send order.
func (r Report) Recipients() []string {
	out := make([]string, 0, len(r.Deliveries))
	for _, d := range r.Deliveries {
		out = append(out, d.Recipient)
	}
	return out
}

// Failures counts sends that returned an error.
func (r Report) Failures() int {
	n := 0
	for _, d := range r.Deliveries {
		if d.Err != nil {
			n++
		}
	}
	return n
}

// Dispatcher fans an update out to submitter, CCs, assignee and queue CC.
type Dispatcher struct {
	mailer        Mailer
	logger        *zap.Logger
	metrics       *observability.Metrics
	defaultSender string
}

// NewDispatcher builds a Dispatcher. defaultSender is used for queues without
// a from address.
func NewDispatcher(mailer Mailer, logger *zap.Logger, metrics *observability.Metrics, defaultSender string) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{mailer: mailer, logger: logger, metrics: metrics, defaultSender: defaultSender}
}

// Dispatch sends the notifications for res. Send failures are logged and
// reported, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, res *workflow.UpdateResult, ccs []domain.TicketCC) Report {
	s := d.newRun(ctx, res.Ticket.ID, res.Queue, res.Context, res.Files)
	fu := res.FollowUp
	prefix := statusPrefix(fu.NewStatus)

	if fu.Public && (fu.Comment != "" || prefix == "resolved_" || prefix == "closed_") {
		s.send(prefix+"submitter", res.Ticket.SubmitterEmail)
		for _, cc := range ccs {
			s.send(prefix+"cc", cc.Address())
		}
	}

	if a := res.Assignee; a != nil && !domain.SameUser(a, res.Actor) && a.Email != "" && !s.seen(a.Email) {
		template := prefix + "owner"
		wants := a.Settings.EmailOnTicketChange
		if res.Reassigned {
			template = "assigned_owner"
			wants = a.Settings.EmailOnTicketAssign
		}
		if wants {
			s.send(template, a.Email)
		}
	}

	if cc := res.Queue.UpdatedTicketCC; cc != "" {
		template := prefix + "cc"
		if res.Reassigned {
			template = "assigned_cc"
		}
		s.send(template, cc)
	}
	return s.report
}

func statusPrefix(newStatus *domain.TicketStatus) string {
	if newStatus != nil {
		switch *newStatus {
		case domain.TicketStatusResolved:
			return "resolved_"
		case domain.TicketStatusClosed:
			return "closed_"
		}
	}
	return "updated_"
}

// DispatchCreated announces a new ticket to the submitter, the assignee and
// the queue's new and updated ticket CC addresses.
func (d *Dispatcher) DispatchCreated(ctx context.Context, ticket domain.Ticket, queue domain.Queue, assignee, actor *domain.User) Report {
	s := d.newRun(ctx, ticket.ID, queue, workflow.TemplateContext(ticket, queue, assignee), nil)
	s.send("newticket_submitter", ticket.SubmitterEmail)
	if assignee != nil && !domain.SameUser(assignee, actor) && assignee.Settings.EmailOnTicketAssign {
		s.send("assigned_owner", assignee.Email)
	}
	s.send("newticket_cc", queue.NewTicketCC)
	s.send("newticket_cc", queue.UpdatedTicketCC)
	return s.report
}

type sendRun struct {
	d        *Dispatcher
	ctx      context.Context
	ticketID string
	sender   string
	data     map[string]any
	files    []domain.Attachment
	sent     map[string]struct{}
	report   Report
}

func (d *Dispatcher) newRun(ctx context.Context, ticketID string, queue domain.Queue, data map[string]any, files []domain.Attachment) *sendRun {
	sender := queue.FromAddress
	if sender == "" {
		sender = d.defaultSender
	}
	return &sendRun{d: d, ctx: ctx, ticketID: ticketID, sender: sender, data: data, files: files, sent: map[string]struct{}{}}
}

func normalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

func (s *sendRun) seen(addr string) bool {
	_, ok := s.sent[normalizeAddress(addr)]
	return ok
}

func (s *sendRun) send(template, recipient string) {
	key := normalizeAddress(recipient)
	if key == "" {
		return
	}
	if _, dup := s.sent[key]; dup {
		return
	}
	s.sent[key] = struct{}{}

	err := s.d.mailer.SendTemplatedMessage(s.ctx, template, s.data, strings.TrimSpace(recipient), s.sender, s.files)
	if err != nil {
		err = errorutil.NewNotificationError(template, recipient, err)
		s.d.logger.Warn("notification failed",
			zap.String("ticket_id", s.ticketID),
			zap.String("template", template),
			zap.String("recipient", recipient),
			zap.Error(err))
	}
	s.d.metrics.RecordNotification(template, err != nil)
	s.report.Deliveries = append(s.report.Deliveries, Delivery{Template: template, Recipient: recipient, Err: err})
}
