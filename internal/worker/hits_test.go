package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	mocks "github.com/vadimbarashkov/shortlink/mocks/worker"
)

type HitWorkerTestSuite struct {
	suite.Suite
	logger   *slog.Logger
	repoMock *mocks.MockHitIncrementer
}

func (suite *HitWorkerTestSuite) SetupSuite() {
	suite.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (suite *HitWorkerTestSuite) SetupSubTest() {
	suite.repoMock = mocks.NewMockHitIncrementer(suite.T())
}

func (suite *HitWorkerTestSuite) TearDownSubTest() {
	suite.repoMock.AssertExpectations(suite.T())
}

// runStopped runs w with an already cancelled context, which processes
// everything queued so far and returns.
func (suite *HitWorkerTestSuite) runStopped(w *HitWorker) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	suite.Require().NoError(w.Run(ctx))
}

func (suite *HitWorkerTestSuite) TestRecord() {
	suite.Run("drains queue on shutdown", func() {
		w := NewHitWorker(suite.repoMock, suite.logger, 2, 10, time.Second)
		suite.repoMock.On("IncrementHits", mock.Anything, "abc1234").Times(3).Return(nil)

		w.Record("abc1234")
		w.Record("abc1234")
		w.Record("abc1234")
		suite.runStopped(w)

		suite.repoMock.AssertNumberOfCalls(suite.T(), "IncrementHits", 3)
	})

	suite.Run("full queue drops hit", func() {
		w := NewHitWorker(suite.repoMock, suite.logger, 1, 1, time.Second)
		suite.repoMock.On("IncrementHits", mock.Anything, "first00").Once().Return(nil)

		w.Record("first00")
		w.Record("second0")
		suite.runStopped(w)

		suite.repoMock.AssertNotCalled(suite.T(), "IncrementHits", mock.Anything, "second0")
	})

	suite.Run("increment error does not stop worker", func() {
		w := NewHitWorker(suite.repoMock, suite.logger, 1, 10, time.Second)
		suite.repoMock.On("IncrementHits", mock.Anything, "first00").Once().Return(errors.New("unknown error"))
		suite.repoMock.On("IncrementHits", mock.Anything, "second0").Once().Return(nil)

		w.Record("first00")
		w.Record("second0")
		suite.runStopped(w)
	})

	suite.Run("increment has deadline", func() {
		w := NewHitWorker(suite.repoMock, suite.logger, 1, 10, time.Second)
		suite.repoMock.
			On("IncrementHits", mock.MatchedBy(func(ctx context.Context) bool {
				_, ok := ctx.Deadline()
				return ok && ctx.Err() == nil
			}), "abc1234").
			Once().
			Return(nil)

		w.Record("abc1234")
		suite.runStopped(w)
	})

	suite.Run("consumes while running", func() {
		w := NewHitWorker(suite.repoMock, suite.logger, 1, 10, time.Second)
		done := make(chan struct{})
		suite.repoMock.
			On("IncrementHits", mock.Anything, "abc1234").
			Once().
			Run(func(mock.Arguments) { close(done) }).
			Return(nil)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- w.Run(ctx) }()

		w.Record("abc1234")

		select {
		case <-done:
		case <-time.After(time.Second):
			suite.Fail("hit was not processed")
		}

		cancel()
		suite.NoError(<-errCh)
	})
}

func TestHitWorker(t *testing.T) {
	suite.Run(t, new(HitWorkerTestSuite))
}
