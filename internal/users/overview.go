package users

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Lazitesema/cashora-landing-haven/internal/models"
)

// Counter is the row counting the overview needs.
type Counter interface {
	CountProfiles(ctx context.Context) (int, error)
	CountRequests(ctx context.Context, kind models.RequestKind, status models.Status) (int, error)
}

// Overview is the admin landing page. Deposit and withdrawal totals are
// placeholders; balances are not aggregated.
type Overview struct {
	TotalUsers         int    `json:"total_users"`
	PendingDeposits    int    `json:"pending_deposits"`
	PendingWithdrawals int    `json:"pending_withdrawals"`
	PendingSendings    int    `json:"pending_sendings"`
	PendingRequests    int    `json:"pending_requests"`
	TotalDeposits      string `json:"total_deposits"`
	TotalWithdrawals   string `json:"total_withdrawals"`
}

// LoadOverview runs the counts concurrently; the first failure cancels the rest.
func LoadOverview(ctx context.Context, c Counter) (Overview, error) {
	var o Overview
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := c.CountProfiles(ctx)
		if err != nil {
			return fmt.Errorf("count profiles: %w", err)
		}
		o.TotalUsers = n
		return nil
	})
	pending := map[models.RequestKind]*int{
		models.KindDeposit:    &o.PendingDeposits,
		models.KindWithdrawal: &o.PendingWithdrawals,
		models.KindSending:    &o.PendingSendings,
	}
	for kind, dst := range pending {
		kind, dst := kind, dst
		g.Go(func() error {
			n, err := c.CountRequests(ctx, kind, models.StatusPending)
			if err != nil {
				return fmt.Errorf("count %s: %w", kind.Table(), err)
			}
			*dst = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	o.PendingRequests = o.PendingDeposits + o.PendingWithdrawals + o.PendingSendings
	o.TotalDeposits = money(decimal.Zero)
	o.TotalWithdrawals = money(decimal.Zero)
	return o, nil
}
