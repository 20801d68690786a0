package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Lazitesema/cashora-landing-haven/internal/backend"
	"github.com/Lazitesema/cashora-landing-haven/internal/models"
	"github.com/Lazitesema/cashora-landing-haven/internal/storage"
	"github.com/Lazitesema/cashora-landing-haven/internal/storage/memory"
)

func seedProfile(store *memory.Store, status models.Status, age time.Duration) models.Profile {
	dob := time.Date(1990, time.March, 4, 0, 0, 0, 0, time.UTC)
	p := models.Profile{
		ID:          uuid.New(),
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Username:    "ada-" + string(status),
		DateOfBirth: &dob,
		Nationality: "British",
		IDCardPath:  "ada/front.png",
		Role:        "superuser",
		Status:      status,
		Balance:     decimal.RequireFromString("42.5"),
		SendingFee:  models.Fee{Type: "flat", Value: decimal.NewFromInt(-1)},
		CreatedAt:   time.Now().Add(-age),
	}
	store.PutProfile(p)
	return p
}

func newTestPanel(t *testing.T, store Store) *Panel {
	t.Helper()
	objects, err := backend.NewObjects("https://files.example.com/")
	if err != nil {
		t.Fatalf("objects: %v", err)
	}
	return NewPanel(store, objects, nil)
}

func TestListCoercesProfiles(t *testing.T) {
	store := memory.NewStore()
	older := seedProfile(store, models.StatusApproved, time.Hour)
	newer := seedProfile(store, models.StatusPending, time.Minute)
	p := newTestPanel(t, store)

	rows, err := p.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != newer.ID || rows[1].ID != older.ID {
		t.Fatalf("rows = %+v", rows)
	}
	got := rows[0]
	if got.Role != models.RoleUser {
		t.Fatalf("role = %q, want user", got.Role)
	}
	if got.Name != "Ada Lovelace" || got.Balance != "$42.50" || !got.Actionable {
		t.Fatalf("row = %+v", got)
	}
	if rows[1].Actionable {
		t.Fatal("approved user should not be actionable")
	}
}

func TestGetBuildsDetail(t *testing.T) {
	store := memory.NewStore()
	seeded := seedProfile(store, models.StatusPending, time.Minute)
	store.PutLimit(models.UserLimit{UserID: seeded.ID, LimitType: models.LimitSending, Period: models.PeriodDaily, Amount: decimal.NewFromInt(500)})
	p := newTestPanel(t, store)

	d, err := p.Get(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.IDCardURL != "https://files.example.com/storage/v1/object/public/id_cards/ada/front.png" {
		t.Fatalf("id card url = %q", d.IDCardURL)
	}
	if d.DateOfBirth != "Mar 4, 1990" {
		t.Fatalf("date of birth = %q", d.DateOfBirth)
	}
	if d.SendingFee.Type != models.FeePercentage || !d.SendingFee.Value.IsZero() {
		t.Fatalf("sending fee = %+v", d.SendingFee)
	}
	if len(d.Limits) != 1 || d.Limits[0].LimitType != models.LimitSending {
		t.Fatalf("limits = %+v", d.Limits)
	}
}

func TestGetWithoutIDCard(t *testing.T) {
	store := memory.NewStore()
	seeded := seedProfile(store, models.StatusApproved, time.Minute)
	seeded.IDCardPath = ""
	store.PutProfile(seeded)
	p := newTestPanel(t, store)

	d, err := p.Get(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.IDCardURL != "" {
		t.Fatalf("id card url = %q, want empty", d.IDCardURL)
	}
	if d.Limits == nil {
		t.Fatal("limits should be an empty slice")
	}
}

func TestApproveAndReject(t *testing.T) {
	store := memory.NewStore()
	a := seedProfile(store, models.StatusPending, time.Minute)
	b := seedProfile(store, models.StatusApproved, time.Minute)
	b.Username = "other"
	store.PutProfile(b)
	p := newTestPanel(t, store)

	if err := p.Approve(context.Background(), a.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := p.Reject(context.Background(), b.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	for id, want := range map[uuid.UUID]models.Status{a.ID: models.StatusApproved, b.ID: models.StatusRejected} {
		got, err := store.GetProfile(context.Background(), id, false)
		if err != nil || got.Status != want {
			t.Fatalf("profile %s = %s, %v; want %s", id, got.Status, err, want)
		}
	}

	err := p.Approve(context.Background(), uuid.New())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if n := Notice(models.StatusApproved, err); n.Description != "User not found" {
		t.Fatalf("notice = %+v", n)
	}
	if n := Notice(models.StatusRejected, nil); n.Description != "User status updated to rejected" {
		t.Fatalf("notice = %+v", n)
	}
}

func TestLoadOverview(t *testing.T) {
	store := memory.NewStore()
	seedProfile(store, models.StatusPending, time.Minute)
	for _, kind := range []models.RequestKind{models.KindDeposit, models.KindDeposit, models.KindWithdrawal} {
		if _, err := store.CreateRequest(context.Background(), models.Request{Kind: kind, UserID: uuid.New(), Amount: decimal.NewFromInt(10)}); err != nil {
			t.Fatalf("create request: %v", err)
		}
	}

	o, err := LoadOverview(context.Background(), store)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	want := Overview{
		TotalUsers:         1,
		PendingDeposits:    2,
		PendingWithdrawals: 1,
		PendingRequests:    3,
		TotalDeposits:      "$0.00",
		TotalWithdrawals:   "$0.00",
	}
	if o != want {
		t.Fatalf("overview = %+v, want %+v", o, want)
	}
}

func TestLoadOverviewFailure(t *testing.T) {
	store := memory.NewStore()
	store.FailNext(errors.New("connection reset"))
	if _, err := LoadOverview(context.Background(), store); err == nil {
		t.Fatal("expected an error")
	}
}
