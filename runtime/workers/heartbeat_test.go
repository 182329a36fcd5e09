package workers

import (
	"context"
	"direct-chat/domain"
	"direct-chat/mocks"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestHeartbeatWorker_Reports_Until_Canceled(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	registry := mocks.NewMockIRegistry(ctrl)

	// Then the online set is sampled at least once
	registry.EXPECT().SnapshotUserIDs().Return([]domain.UserID{"alice", "bob"}).MinTimes(1)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := NewHeartbeatWorker(log, registry, 20*time.Millisecond).Run(ctx)

	req.ErrorIs(err, context.DeadlineExceeded)
}
