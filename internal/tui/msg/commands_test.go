package msg

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/somesimplify/somectl/internal/api"
	"github.com/somesimplify/somectl/internal/calendar"
	"github.com/somesimplify/somectl/internal/identity"
	"github.com/somesimplify/somectl/internal/model"
	"github.com/somesimplify/somectl/internal/review"
	"github.com/somesimplify/somectl/internal/store"
	"github.com/somesimplify/somectl/internal/tenant"
	"github.com/somesimplify/somectl/internal/testutil"
)

func newClient(t *testing.T) (*testutil.Backend, *api.Client) {
	t.Helper()
	b := testutil.NewBackend(t)
	c, err := api.New(b.URL())
	if err != nil {
		t.Fatal(err)
	}
	return b, c
}

func TestResolveSession(t *testing.T) {
	b, c := newClient(t)
	b.User = model.Session{UserID: "u-1", Email: "a@example.com"}

	got, ok := ResolveSession(context.Background(), identity.NewResolver(c))().(SessionMsg)
	if !ok {
		t.Fatal("ResolveSession() did not return a SessionMsg")
	}
	if !got.State.Gate() || got.State.Session.UserID != "u-1" {
		t.Errorf("SessionMsg = %+v", got)
	}
}

func TestTenantCommands(t *testing.T) {
	b, c := newClient(t)
	b.Tenants = []model.Tenant{{ID: "t-1", Name: "Bakeri"}}
	st, err := store.NewFileStore(filepath.Join(t.TempDir(), "kv"))
	if err != nil {
		t.Fatal(err)
	}
	r := tenant.NewResolver(c, st, nil, nil)
	session := model.Session{UserID: "u-1", Authenticated: true}
	ctx := context.Background()

	tm := ResolveTenant(ctx, r, session)().(TenantsMsg)
	if tm.Err != nil || tm.Outcome.Kind != tenant.KindNeedsSelection {
		t.Fatalf("TenantsMsg = %+v", tm)
	}

	sel := SelectTenant(ctx, r, b.Tenants[0])().(TenantSelectedMsg)
	if sel.Err != nil || sel.Selection.Client.TenantID() != "t-1" {
		t.Fatalf("TenantSelectedMsg = %+v", sel)
	}

	created := CreateTenant(ctx, r, session, "  ")().(TenantSelectedMsg)
	if created.Err == nil {
		t.Error("CreateTenant() with a blank name should fail")
	}

	if fm := ForgetTenant(ctx, r)().(TenantForgottenMsg); fm.Err != nil {
		t.Errorf("TenantForgottenMsg = %+v", fm)
	}
	if id, _ := r.Current(ctx); id != "" {
		t.Errorf("Current() after forget = %q", id)
	}
}

func TestLoadMonth(t *testing.T) {
	b, c := newClient(t)
	b.AddPost("t-1", model.Post{Text: "hi", Status: model.StatusScheduled, PublishAt: ptr(time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC))})

	svc := calendar.NewService(c.ForTenant("t-1"))
	m := calendar.Month{Year: 2025, Month: time.March}
	got := LoadMonth(context.Background(), svc, m)().(MonthMsg)
	if got.Err != nil || got.Month != m || got.Grid.PostCount() != 1 {
		t.Errorf("MonthMsg = %+v", got)
	}
}

func TestQueueAndMutations(t *testing.T) {
	b, c := newClient(t)
	b.AddPost("t-1", model.Post{Text: "one", Status: model.StatusDraft})
	b.AddPost("t-1", model.Post{Text: "two", Status: model.StatusDraft})
	b.Suggested = time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)

	ctrl := review.NewController(c.ForTenant("t-1"))
	defer ctrl.Close()
	ctx := context.Background()

	if qm := LoadQueue(ctx, ctrl)().(QueueMsg); qm.Err != nil {
		t.Fatalf("QueueMsg = %+v", qm)
	}
	approved := Approve(ctx, ctrl)().(MutationMsg)
	if approved.Err != nil || approved.Action != "approve" || approved.Post.Status != model.StatusScheduled {
		t.Errorf("approve MutationMsg = %+v", approved)
	}
	rejected := Reject(ctx, ctrl)().(MutationMsg)
	if rejected.Err != nil || rejected.Action != "reject" || rejected.Post.Status != model.StatusRejected {
		t.Errorf("reject MutationMsg = %+v", rejected)
	}
}

func TestExpireNotification(t *testing.T) {
	got := ExpireNotification(7, time.Millisecond)()
	if em, ok := got.(NotificationExpiredMsg); !ok || em.ID != 7 {
		t.Errorf("ExpireNotification() = %#v", got)
	}
}

func ptr[T any](v T) *T { return &v }
