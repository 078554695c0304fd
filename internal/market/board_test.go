package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/kelechi-dev/workbid/internal/errs"
	"github.com/kelechi-dev/workbid/internal/events"
	"github.com/kelechi-dev/workbid/internal/identity"
)

const (
	clientAddr   = "0xclient"
	providerAddr = "0xprovider"
	otherProv    = "0xprovider2"
)

func TestBoardTestSuite(t *testing.T) {
	suite.Run(t, new(BoardTestSuite))
}

type BoardTestSuite struct {
	suite.Suite
	ctx      context.Context
	bus      *events.Bus
	registry *identity.Registry
	board    *Board
}

func (s *BoardTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.bus = events.NewBus()
	s.registry = identity.NewRegistry(identity.NewMemoryStore(), s.bus)
	s.board = NewBoard(NewMemoryStore(), s.registry, s.bus)

	s.Require().NoError(s.registry.Register(s.ctx, "Client", 40, clientAddr, identity.RoleClient))
	s.Require().NoError(s.registry.Register(s.ctx, "ServiceProvider", 30, providerAddr, identity.RoleServiceProvider))
	s.Require().NoError(s.registry.Register(s.ctx, "AnotherProvider", 35, otherProv, identity.RoleServiceProvider))
}

func (s *BoardTestSuite) createJob() int64 {
	id, err := s.board.CreateJob(s.ctx, clientAddr, "Fixing the roof", time.Now().Add(time.Hour), 100)
	s.Require().NoError(err)
	return id
}

func (s *BoardTestSuite) TestCreateJob() {
	deadline := time.Now().Add(time.Hour)
	id, err := s.board.CreateJob(s.ctx, clientAddr, "Fixing the roof", deadline, 100)
	s.Require().NoError(err)
	s.Equal(int64(1), id)

	job, err := s.board.GetJobByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("Fixing the roof", job.Description)
	s.Equal(int64(100), job.MaxBidValue)
	s.Equal(clientAddr, job.ClientAddress)
	s.Equal(JobOpen, job.Status)
	s.Empty(job.SelectedServiceProvider)
}

func (s *BoardTestSuite) TestCreateJobPastDeadline() {
	_, err := s.board.CreateJob(s.ctx, clientAddr, "Fixing the roof", time.Now().Add(-time.Hour), 100)
	s.ErrorIs(err, errs.ErrInvalidDeadline)
}

func (s *BoardTestSuite) TestCreateJobRequiresClientRole() {
	_, err := s.board.CreateJob(s.ctx, providerAddr, "job", time.Now().Add(time.Hour), 100)
	s.ErrorIs(err, errs.ErrUnauthorized)

	_, err = s.board.CreateJob(s.ctx, "0xstranger", "job", time.Now().Add(time.Hour), 100)
	s.ErrorIs(err, errs.ErrUnauthorized)
}

func (s *BoardTestSuite) TestJobIDsStrictlyIncrease() {
	var prev int64
	for i := 0; i < 5; i++ {
		id := s.createJob()
		s.Greater(id, prev)
		prev = id
	}
}

func (s *BoardTestSuite) TestGetJobByIDNotFound() {
	_, err := s.board.GetJobByID(s.ctx, 42)
	s.ErrorIs(err, errs.ErrNotFound)
}

func (s *BoardTestSuite) TestListAllJobs() {
	s.createJob()
	_, err := s.board.CreateJob(s.ctx, clientAddr, "design website", time.Now().Add(2*time.Hour), 4000)
	s.Require().NoError(err)

	list, err := s.board.ListAllJobs(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"Fixing the roof", "design website"}, list.Descriptions)
	s.Equal([]int64{100, 4000}, list.MaxBidValues)
	s.Len(list.Deadlines, 2)
}

func (s *BoardTestSuite) TestJobsByOwner() {
	s.Require().NoError(s.registry.Register(s.ctx, "Client2", 50, "0xclient2", identity.RoleClient))
	s.createJob()
	_, err := s.board.CreateJob(s.ctx, "0xclient2", "other job", time.Now().Add(time.Hour), 10)
	s.Require().NoError(err)

	mine, err := s.board.JobsByOwner(s.ctx, clientAddr)
	s.Require().NoError(err)
	s.Len(mine, 1)
	s.Equal("Fixing the roof", mine[0].Description)
}

func (s *BoardTestSuite) TestPlaceBid() {
	jobID := s.createJob()
	err := s.board.PlaceBid(s.ctx, providerAddr, jobID, 100, "We offer great service.")
	s.Require().NoError(err)

	bids, err := s.board.GetBids(s.ctx, jobID)
	s.Require().NoError(err)
	s.Require().Len(bids, 1)
	s.Equal(jobID, bids[0].JobID)
	s.Equal(int64(100), bids[0].Price)
	s.Equal("We offer great service.", bids[0].Details)
	s.Equal(providerAddr, bids[0].ServiceProviderAddress)
	s.False(bids[0].IsAccepted)
}

func (s *BoardTestSuite) TestPlaceBidRequiresProviderRole() {
	jobID := s.createJob()
	err := s.board.PlaceBid(s.ctx, clientAddr, jobID, 100, "details")
	s.ErrorIs(err, errs.ErrUnauthorized)
}

func (s *BoardTestSuite) TestPlaceBidUnknownJob() {
	err := s.board.PlaceBid(s.ctx, providerAddr, 42, 100, "details")
	s.ErrorIs(err, errs.ErrNotFound)
}

func (s *BoardTestSuite) TestDuplicateBidRejected() {
	jobID := s.createJob()
	s.Require().NoError(s.board.PlaceBid(s.ctx, providerAddr, jobID, 100, "We offer great service."))

	err := s.board.PlaceBid(s.ctx, providerAddr, jobID, 200, "New bid details")
	s.ErrorIs(err, errs.ErrDuplicateBid)

	// the original bid is untouched
	bids, err := s.board.GetBids(s.ctx, jobID)
	s.Require().NoError(err)
	s.Require().Len(bids, 1)
	s.Equal(int64(100), bids[0].Price)
}

func (s *BoardTestSuite) TestBidOnClosedJobRejected() {
	jobID := s.createJob()
	s.Require().NoError(s.board.PlaceBid(s.ctx, providerAddr, jobID, 100, "details"))
	s.Require().NoError(s.board.AcceptBid(s.ctx, clientAddr, jobID, providerAddr, 100))

	err := s.board.PlaceBid(s.ctx, otherProv, jobID, 90, "too late")
	s.ErrorIs(err, errs.ErrInvalidState)
}

func (s *BoardTestSuite) TestGetBidsOrderedByPlacement() {
	jobID := s.createJob()
	s.Require().NoError(s.board.PlaceBid(s.ctx, providerAddr, jobID, 100, "We offer great service."))
	s.Require().NoError(s.board.PlaceBid(s.ctx, otherProv, jobID, 200, "We provide better service."))

	bids, err := s.board.GetBids(s.ctx, jobID)
	s.Require().NoError(err)
	s.Require().Len(bids, 2)
	s.Equal(providerAddr, bids[0].ServiceProviderAddress)
	s.Equal(otherProv, bids[1].ServiceProviderAddress)
}

func (s *BoardTestSuite) TestGetBidsEmpty() {
	jobID := s.createJob()
	bids, err := s.board.GetBids(s.ctx, jobID)
	s.Require().NoError(err)
	s.Empty(bids)
}

func (s *BoardTestSuite) TestAcceptBid() {
	jobID := s.createJob()
	s.Require().NoError(s.board.PlaceBid(s.ctx, providerAddr, jobID, 100, "details"))

	ch, cancel := s.bus.Subscribe()
	defer cancel()

	s.Require().NoError(s.board.AcceptBid(s.ctx, clientAddr, jobID, providerAddr, 100))

	job, err := s.board.GetJobByID(s.ctx, jobID)
	s.Require().NoError(err)
	s.Equal(JobClosed, job.Status)
	s.Equal(providerAddr, job.SelectedServiceProvider)

	bids, err := s.board.GetBids(s.ctx, jobID)
	s.Require().NoError(err)
	s.True(bids[0].IsAccepted)

	evt := <-ch
	s.Equal(events.TypeBidAccepted, evt.Type)
	s.Equal(int64(100), evt.Amount)
	evt = <-ch
	s.Equal(events.TypeJobStatusUpdated, evt.Type)
}

func (s *BoardTestSuite) TestAcceptBidPaymentMismatch() {
	jobID := s.createJob()
	s.Require().NoError(s.board.PlaceBid(s.ctx, providerAddr, jobID, 100, "details"))

	err := s.board.AcceptBid(s.ctx, clientAddr, jobID, providerAddr, 50)
	s.ErrorIs(err, errs.ErrPaymentMismatch)

	// failed accept leaves the job open and the bid unaccepted
	job, err := s.board.GetJobByID(s.ctx, jobID)
	s.Require().NoError(err)
	s.Equal(JobOpen, job.Status)
	bids, _ := s.board.GetBids(s.ctx, jobID)
	s.False(bids[0].IsAccepted)
}

func (s *BoardTestSuite) TestAcceptBidOnlyByOwner() {
	jobID := s.createJob()
	s.Require().NoError(s.board.PlaceBid(s.ctx, providerAddr, jobID, 100, "details"))

	err := s.board.AcceptBid(s.ctx, providerAddr, jobID, providerAddr, 100)
	s.ErrorIs(err, errs.ErrUnauthorized)
}

func (s *BoardTestSuite) TestAcceptMissingBid() {
	jobID := s.createJob()
	err := s.board.AcceptBid(s.ctx, clientAddr, jobID, providerAddr, 100)
	s.ErrorIs(err, errs.ErrNotFound)
}

func (s *BoardTestSuite) TestClosedJobStaysClosed() {
	jobID := s.createJob()
	s.Require().NoError(s.board.PlaceBid(s.ctx, providerAddr, jobID, 100, "details"))
	s.Require().NoError(s.board.PlaceBid(s.ctx, otherProv, jobID, 90, "cheaper"))
	s.Require().NoError(s.board.AcceptBid(s.ctx, clientAddr, jobID, providerAddr, 100))

	err := s.board.AcceptBid(s.ctx, clientAddr, jobID, otherProv, 90)
	s.ErrorIs(err, errs.ErrInvalidState)

	job, _ := s.board.GetJobByID(s.ctx, jobID)
	s.Equal(JobClosed, job.Status)
	s.Equal(providerAddr, job.SelectedServiceProvider)
}

func (s *BoardTestSuite) TestAcceptedBidPrice() {
	jobID := s.createJob()
	s.Require().NoError(s.board.PlaceBid(s.ctx, providerAddr, jobID, 100, "details"))

	_, err := s.board.AcceptedBidPrice(s.ctx, jobID)
	s.ErrorIs(err, errs.ErrInvalidState)

	s.Require().NoError(s.board.AcceptBid(s.ctx, clientAddr, jobID, providerAddr, 100))

	price, err := s.board.AcceptedBidPrice(s.ctx, jobID)
	s.Require().NoError(err)
	s.Equal(int64(100), price)
}

func TestJobStatusString(t *testing.T) {
	assert.Equal(t, "open", JobOpen.String())
	assert.Equal(t, "closed", JobClosed.String())
}
