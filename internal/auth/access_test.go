package auth

import (
	"reflect"
	"testing"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestHasQueueAccess(t *testing.T) {
	queue := domain.Queue{ID: "q-1", Slug: "billing"}
	perQueue := config.HelpdeskConfig{EnablePerQueueStaffPermission: true}

	tests := []struct {
		name string
		cfg  config.HelpdeskConfig
		user *domain.User
		want bool
	}{
		{name: "flag off", user: &domain.User{IsActive: true, IsStaff: true}, want: true},
		{name: "superuser", cfg: perQueue, user: &domain.User{IsActive: true, IsSuperuser: true}, want: true},
		{name: "granted", cfg: perQueue, user: &domain.User{IsActive: true, Permissions: []string{"helpdesk.queue_access_billing"}}, want: true},
		{name: "other queue", cfg: perQueue, user: &domain.User{IsActive: true, Permissions: []string{"helpdesk.queue_access_sales"}}},
		{name: "inactive", cfg: perQueue, user: &domain.User{Permissions: []string{"helpdesk.queue_access_billing"}}},
		{name: "nil user", cfg: perQueue},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasQueueAccess(tc.cfg, tc.user, queue); got != tc.want {
				t.Errorf("HasQueueAccess() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAccessibleQueueIDs(t *testing.T) {
	queues := []domain.Queue{{ID: "q-1", Slug: "billing"}, {ID: "q-2", Slug: "sales"}}
	cfg := config.HelpdeskConfig{EnablePerQueueStaffPermission: true}
	user := &domain.User{IsActive: true, Permissions: []string{"helpdesk.queue_access_sales"}}

	if got := AccessibleQueueIDs(cfg, user, queues); !reflect.DeepEqual(got, []string{"q-2"}) {
		t.Errorf("AccessibleQueueIDs() = %v", got)
	}
	if got := AccessibleQueueIDs(config.HelpdeskConfig{}, user, queues); got != nil {
		t.Errorf("AccessibleQueueIDs() without per-queue permissions = %v, want nil", got)
	}
	if got := AccessibleQueueIDs(cfg, &domain.User{IsActive: true}, queues); got == nil || len(got) != 0 {
		t.Errorf("AccessibleQueueIDs() for unprivileged user = %#v, want empty slice", got)
	}
}

func TestIsHelpdeskStaff(t *testing.T) {
	customer := &domain.User{IsActive: true}
	if IsHelpdeskStaff(config.HelpdeskConfig{}, customer) {
		t.Error("customer treated as staff")
	}
	if !IsHelpdeskStaff(config.HelpdeskConfig{AllowNonStaffTicketUpdate: true}, customer) {
		t.Error("AllowNonStaffTicketUpdate should admit active users")
	}
}
