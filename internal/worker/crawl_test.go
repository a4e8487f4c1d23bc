package worker_test

import (
	"context"
	"errors"
	"testing"

	mockcrawler "sitepaths/internal/crawler/mock"
	"sitepaths/internal/tracker"
	"sitepaths/internal/worker"
	"sitepaths/pkg/logger"
	"sitepaths/pkg/serrors"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)
	m.Run()
}

func makeJob(id int64, name string) *river.Job[tracker.JobArgs] {
	return &river.Job[tracker.JobArgs]{
		JobRow: &rivertype.JobRow{ID: id, Attempt: 1},
		Args:   tracker.JobArgs{Domain: name},
	}
}

func TestCrawlWorker_Work_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mockcrawler.NewMockRunner(ctrl)
	w := worker.NewCrawlWorker(runner)

	runner.EXPECT().Run(gomock.Any(), "example.com").Return(nil)

	require.NoError(t, w.Work(context.Background(), makeJob(1, "example.com")))
}

func TestCrawlWorker_Work_UntrackedCancels(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mockcrawler.NewMockRunner(ctrl)
	w := worker.NewCrawlWorker(runner)

	runner.EXPECT().Run(gomock.Any(), "gone.example").
		Return(serrors.With(serrors.ErrNotFound, "domain gone.example is not tracked"))

	err := w.Work(context.Background(), makeJob(2, "gone.example"))
	var cancelErr *river.JobCancelError
	require.ErrorAs(t, err, &cancelErr)
}

func TestCrawlWorker_Work_FailureIsRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mockcrawler.NewMockRunner(ctrl)
	w := worker.NewCrawlWorker(runner)
	boom := errors.New("database is gone")

	runner.EXPECT().Run(gomock.Any(), "example.com").Return(boom)

	err := w.Work(context.Background(), makeJob(3, "example.com"))
	require.ErrorIs(t, err, boom)
	var cancelErr *river.JobCancelError
	require.NotErrorAs(t, err, &cancelErr)
}

func TestCrawlWorker_NoJobTimeout(t *testing.T) {
	w := worker.NewCrawlWorker(mockcrawler.NewMockRunner(gomock.NewController(t)))
	require.Negative(t, w.Timeout(makeJob(4, "example.com")))
}

func TestNewCrawlWorker_IsRiverWorker(t *testing.T) {
	var _ river.Worker[tracker.JobArgs] = worker.NewCrawlWorker(nil)

	workers := river.NewWorkers()
	require.NoError(t, river.AddWorkerSafely[tracker.JobArgs](workers, worker.NewCrawlWorker(nil)))
}
