package escrow_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kelechi-dev/workbid/internal/errs"
	"github.com/kelechi-dev/workbid/internal/escrow"
	"github.com/kelechi-dev/workbid/internal/events"
	"github.com/kelechi-dev/workbid/internal/identity"
	"github.com/kelechi-dev/workbid/internal/market"
)

// Full marketplace flow: registration through bid acceptance, escrow and
// final payout.
func TestDesignWebsiteScenario(t *testing.T) {
	ctx := context.Background()
	bus := events.NewBus()

	registry := identity.NewRegistry(identity.NewMemoryStore(), bus)
	board := market.NewBoard(market.NewMemoryStore(), registry, bus)
	ledger := escrow.NewLedger(escrow.NewMemoryStore(), bus)

	client := "0xclient"
	provider := "0xprovider"

	require.NoError(t, registry.Register(ctx, "client", 34, client, identity.RoleClient))
	require.NoError(t, registry.Register(ctx, "serviceProvider", 34, provider, identity.RoleServiceProvider))

	jobID, err := board.CreateJob(ctx, client, "design website", time.Now().Add(7*24*time.Hour), 4000)
	require.NoError(t, err)

	require.NoError(t, board.PlaceBid(ctx, provider, jobID, 4000, "High-quality design work"))
	require.NoError(t, board.AcceptBid(ctx, client, jobID, provider, 4000))

	job, err := board.GetJobByID(ctx, jobID)
	require.NoError(t, err)
	require.Equal(t, market.JobClosed, job.Status)
	require.Equal(t, provider, job.SelectedServiceProvider)

	// price the agreement off the accepted bid
	price, err := board.AcceptedBidPrice(ctx, jobID)
	require.NoError(t, err)
	require.Equal(t, int64(4000), price)
	gross := escrow.GrossUp(price, escrow.DefaultCommissionRateBP)
	require.Equal(t, int64(4400), gross)

	agreementID, err := ledger.NewAgreement(ctx, client, provider, gross, price)
	require.NoError(t, err)

	require.NoError(t, ledger.DepositFunds(ctx, agreementID, gross, 4400))
	deposited, err := ledger.DepositedFunds(ctx, agreementID)
	require.NoError(t, err)
	require.Equal(t, int64(4400), deposited)

	require.NoError(t, ledger.ReleaseFunds(ctx, agreementID))

	balance, err := ledger.WithdrawableBalance(ctx, provider)
	require.NoError(t, err)
	require.Equal(t, int64(4000), balance)

	commission, err := ledger.PlatformCommission(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(400), commission)

	agreement, err := ledger.AgreementByID(ctx, agreementID)
	require.NoError(t, err)
	require.Equal(t, escrow.StateReleased, agreement.State)

	amount, err := ledger.Withdraw(ctx, agreementID)
	require.NoError(t, err)
	require.Equal(t, int64(4000), amount)

	balance, err = ledger.WithdrawableBalance(ctx, provider)
	require.NoError(t, err)
	require.Zero(t, balance)

	_, err = ledger.Withdraw(ctx, agreementID)
	require.ErrorIs(t, err, errs.ErrNoFunds)
}
