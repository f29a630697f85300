package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/workflow"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// Report names accepted by RunReport.
const (
	ReportUserPriority           = "userpriority"
	ReportUserQueue              = "userqueue"
	ReportUserStatus             = "userstatus"
	ReportUserMonth              = "usermonth"
	ReportQueuePriority          = "queuepriority"
	ReportQueueStatus            = "queuestatus"
	ReportQueueMonth             = "queuemonth"
	ReportDaysUntilClosedByMonth = "daysuntilticketclosedbymonth"
)

var reportTitles = map[string]string{
	ReportUserPriority:           "User by Priority",
	ReportUserQueue:              "User by Queue",
	ReportUserStatus:             "User by Status",
	ReportUserMonth:              "User by Month",
	ReportQueuePriority:          "Queue by Priority",
	ReportQueueStatus:            "Queue by Status",
	ReportQueueMonth:             "Queue by Month",
	ReportDaysUntilClosedByMonth: "Days until ticket closed by Month",
}

// ReportNames lists the supported reports in display order.
var ReportNames = []string{
	ReportUserPriority,
	ReportUserQueue,
	ReportUserStatus,
	ReportUserMonth,
	ReportQueuePriority,
	ReportQueueStatus,
	ReportQueueMonth,
	ReportDaysUntilClosedByMonth,
}

// Report is a pivot table. Headings[0] names the row dimension.
type Report struct {
	Name     string      `json:"name"`
	Title    string      `json:"title"`
	Headings []string    `json:"headings"`
	Rows     []ReportRow `json:"rows"`
}

// ReportRow is one row of a pivot table, aligned with Headings[1:].
type ReportRow struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

// AgeBucket counts open tickets by age.
type AgeBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// BasicStats summarises ticket age and time to close.
type BasicStats struct {
	OpenByAge                    []AgeBucket `json:"open_by_age"`
	AverageDaysUntilClosed       float64     `json:"average_days_until_closed"`
	AverageDaysUntilClosedRecent float64     `json:"average_days_until_closed_last_60_days"`
}

// ReportService builds statistics over the tickets a user may see.
type ReportService struct {
	store    repository.Store
	searches *SavedSearchService
	cfg      config.HelpdeskConfig
	now      func() time.Time
}

// NewReportService creates the service. A nil now defaults to time.Now.
func NewReportService(store repository.Store, searches *SavedSearchService, cfg config.HelpdeskConfig, now func() time.Time) *ReportService {
	if now == nil {
		now = time.Now
	}
	return &ReportService{store: store, searches: searches, cfg: cfg, now: now}
}

// RunReport builds the named pivot. A non-empty savedSearchID narrows the
// tickets with that search's filter.
func (s *ReportService) RunReport(ctx context.Context, actor *domain.User, name, savedSearchID string) (*Report, error) {
	if err := requireStaff(s.cfg, actor); err != nil {
		return nil, err
	}
	title, ok := reportTitles[name]
	if !ok {
		return nil, apperrors.NewNotFound("report", map[string]any{"name": name})
	}

	filter := repository.TicketFilter{}
	if savedSearchID != "" {
		if s.searches == nil {
			return nil, apperrors.NewValidationError("saved searches unavailable", nil)
		}
		f, err := s.searches.Filter(ctx, actor, savedSearchID)
		if err != nil {
			return nil, err
		}
		filter = f
	}
	if name == ReportDaysUntilClosedByMonth {
		filter.Statuses = []domain.TicketStatus{domain.TicketStatusClosed}
	}
	filter, err := scopeFilter(ctx, s.store, s.cfg, actor, filter)
	if err != nil {
		return nil, err
	}
	tickets, err := s.store.Tickets().List(ctx, filter)
	if err != nil {
		return nil, err
	}

	queues, err := s.store.Queues().List(ctx)
	if err != nil {
		return nil, err
	}
	queueTitles := make(map[string]string, len(queues))
	var userQueues []string
	allowed := map[string]bool{}
	scoped, err := scopeFilter(ctx, s.store, s.cfg, actor, repository.TicketFilter{})
	if err != nil {
		return nil, err
	}
	for _, id := range scoped.QueueIDs {
		allowed[id] = true
	}
	for _, q := range queues {
		queueTitles[q.ID] = q.Title
		if scoped.QueueIDs == nil || allowed[q.ID] {
			userQueues = append(userQueues, q.Title)
		}
	}
	owners, err := s.ownerNames(ctx)
	if err != nil {
		return nil, err
	}

	var rowHeading string
	var columns []string
	switch name {
	case ReportUserPriority, ReportQueuePriority:
		for _, p := range domain.TicketPriorities {
			columns = append(columns, p.String())
		}
	case ReportUserStatus, ReportQueueStatus:
		for _, st := range domain.TicketStatuses {
			columns = append(columns, st.String())
		}
	case ReportUserQueue:
		columns = userQueues
	default:
		columns = monthPeriods(tickets)
	}
	switch name {
	case ReportUserPriority, ReportUserQueue, ReportUserStatus, ReportUserMonth:
		rowHeading = "User"
	default:
		rowHeading = "Queue"
	}

	counts := map[string]map[string]float64{}
	totals := map[string]map[string]float64{}
	for _, t := range tickets {
		var metric1, metric2 string
		switch name {
		case ReportUserPriority, ReportUserQueue, ReportUserStatus, ReportUserMonth:
			metric1 = workflow.OwnerDisplay(nil)
			if t.AssignedToID != nil {
				metric1 = owners[*t.AssignedToID]
				if metric1 == "" {
					metric1 = *t.AssignedToID
				}
			}
		default:
			metric1 = queueTitles[t.QueueID]
		}
		switch name {
		case ReportUserPriority, ReportQueuePriority:
			metric2 = t.Priority.String()
		case ReportUserStatus, ReportQueueStatus:
			metric2 = t.Status.String()
		case ReportUserQueue:
			metric2 = queueTitles[t.QueueID]
		default:
			metric2 = period(t.CreatedAt)
		}
		if counts[metric1] == nil {
			counts[metric1] = map[string]float64{}
			totals[metric1] = map[string]float64{}
		}
		counts[metric1][metric2]++
		if name == ReportDaysUntilClosedByMonth {
			totals[metric1][metric2] += float64(daysBetween(t.CreatedAt, t.UpdatedAt))
		}
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	report := &Report{
		Name:     name,
		Title:    title,
		Headings: append([]string{rowHeading}, columns...),
		Rows:     make([]ReportRow, 0, len(labels)),
	}
	for _, label := range labels {
		row := ReportRow{Label: label, Values: make([]float64, len(columns))}
		for i, col := range columns {
			n := counts[label][col]
			if name == ReportDaysUntilClosedByMonth {
				if n > 0 {
					row.Values[i] = totals[label][col] / n
				}
				continue
			}
			row.Values[i] = n
		}
		report.Rows = append(report.Rows, row)
	}
	return report, nil
}

// BasicStats buckets open tickets by age and averages days until close.
func (s *ReportService) BasicStats(ctx context.Context, actor *domain.User) (*BasicStats, error) {
	if err := requireStaff(s.cfg, actor); err != nil {
		return nil, err
	}
	filter, err := scopeFilter(ctx, s.store, s.cfg, actor, repository.TicketFilter{})
	if err != nil {
		return nil, err
	}
	tickets, err := s.store.Tickets().List(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := s.now()
	buckets := []AgeBucket{
		{Label: "Tickets < 30 days"},
		{Label: "Tickets 30 - 60 days"},
		{Label: "Tickets > 60 days"},
	}
	var closedDays, recentDays, closedCount, recentCount int
	recentFrom := now.AddDate(0, 0, -60)
	for _, t := range tickets {
		if t.Status.IsOpen() {
			switch age := now.Sub(t.CreatedAt); {
			case age < 30*24*time.Hour:
				buckets[0].Count++
			case age <= 60*24*time.Hour:
				buckets[1].Count++
			default:
				buckets[2].Count++
			}
		}
		if t.Status != domain.TicketStatusClosed {
			continue
		}
		days := daysBetween(t.CreatedAt, t.UpdatedAt)
		closedDays += days
		closedCount++
		if t.CreatedAt.After(recentFrom) {
			recentDays += days
			recentCount++
		}
	}

	stats := &BasicStats{OpenByAge: buckets}
	if closedCount > 0 {
		stats.AverageDaysUntilClosed = float64(closedDays) / float64(closedCount)
	}
	if recentCount > 0 {
		stats.AverageDaysUntilClosedRecent = float64(recentDays) / float64(recentCount)
	}
	return stats, nil
}

func (s *ReportService) ownerNames(ctx context.Context) (map[string]string, error) {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}

// monthPeriods spans the creation months of tickets, first to last inclusive.
func monthPeriods(tickets []domain.Ticket) []string {
	if len(tickets) == 0 {
		return nil
	}
	first, last := tickets[0].CreatedAt, tickets[0].CreatedAt
	for _, t := range tickets[1:] {
		if t.CreatedAt.Before(first) {
			first = t.CreatedAt
		}
		if t.CreatedAt.After(last) {
			last = t.CreatedAt
		}
	}
	var periods []string
	cur := time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(end) {
		periods = append(periods, period(cur))
		cur = cur.AddDate(0, 1, 0)
	}
	return periods
}

func period(t time.Time) string {
	return fmt.Sprintf("%d-%d", t.Year(), int(t.Month()))
}

func daysBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from) / (24 * time.Hour))
}
