package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/messismo/bar/internal/actorctx"
	auditdomain "github.com/messismo/bar/internal/audit/domain"
	"github.com/messismo/bar/internal/audit/repository"
	"github.com/messismo/bar/internal/clock"
	"github.com/messismo/bar/pkg/db"
	"github.com/messismo/bar/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T) (auditdomain.Service, *clock.FakeClock) {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	return NewService(Params{
		DB:    conn,
		Log:   zaptest.NewLogger(t),
		GenID: node,
		Clock: clk,
		Repo:  repository.Provide(),
	}), clk
}

func TestAuditLogStampsActorAndMasksEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := actorctx.WithActor(context.Background(), actorctx.Actor{UserID: snowflake.ID(10), Email: "boss@bar.test", Role: "ADMIN"})

	require.NoError(t, svc.AuditLog(ctx, auditdomain.ActionUserRoleChange, "user", "55", map[string]any{
		"target_email": "worker@bar.test",
		"role":         "MANAGER",
	}))

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	entry := resp.AuditLogs[0]
	assert.Equal(t, "boss@bar.test", entry.ActorEmail)
	assert.Equal(t, "ADMIN", entry.ActorRole)
	require.NotNil(t, entry.TargetID)
	assert.Equal(t, "55", *entry.TargetID)
	assert.Equal(t, "w****@bar.test", entry.Metadata["target_email"])
	assert.Equal(t, "MANAGER", entry.Metadata["role"])
}

func TestAuditLogWithoutActorIsSystem(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.AuditLog(context.Background(), auditdomain.ActionSettingUpdate, "setting", "points_conversion_rate", nil))

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{Action: auditdomain.ActionSettingUpdate})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, actorctx.SystemEmail, resp.AuditLogs[0].ActorEmail)
	assert.Nil(t, resp.AuditLogs[0].ActorID)
}

func TestAuditLogRejectsEmptyAction(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.AuditLog(context.Background(), " ", "order", "1", nil)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestListPagesNewestFirst(t *testing.T) {
	svc, clk := newTestService(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.AuditLog(context.Background(), auditdomain.ActionOrderClose, "order", "", nil))
		clk.Advance(time.Minute)
	}

	first, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageSize: 2},
	})
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 2)
	assert.True(t, first.HasMore)
	assert.True(t, first.AuditLogs[0].CreatedAt.After(first.AuditLogs[1].CreatedAt))

	second, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageSize: 2, PageToken: first.NextPageToken},
	})
	require.NoError(t, err)
	require.Len(t, second.AuditLogs, 1)
	assert.False(t, second.HasMore)

	_, err = svc.List(context.Background(), auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageToken: "not-a-token"},
	})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)
}
