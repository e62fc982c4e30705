package authorization

import (
	"context"
	"testing"

	"github.com/messismo/bar/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	enforcer, err := NewEnforcer(conn)
	require.NoError(t, err)
	return NewService(Params{Log: zaptest.NewLogger(t), Enforcer: enforcer})
}

func TestRoleHierarchy(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		role    string
		object  string
		action  string
		allowed bool
	}{
		{"EMPLOYEE", ObjectOrder, ActionOrderClose, true},
		{"EMPLOYEE", ObjectBenefit, ActionBenefitCreate, false},
		{"EMPLOYEE", ObjectProduct, ActionProductUpdate, false},
		{"VALIDATEDEMPLOYEE", ObjectProduct, ActionProductUpdate, true},
		{"VALIDATEDEMPLOYEE", ObjectOrder, ActionOrderView, true},
		{"MANAGER", ObjectBenefit, ActionBenefitCreate, true},
		{"MANAGER", ObjectSettings, ActionSettingsUpdate, true},
		{"MANAGER", ObjectOrder, ActionOrderCreate, true},
		{"MANAGER", ObjectAuditLog, ActionAuditLogView, false},
		{"ADMIN", ObjectAuditLog, ActionAuditLogView, true},
		{"ADMIN", ObjectBenefit, ActionBenefitDelete, true},
		{"ADMIN", ObjectOrder, ActionOrderClose, true},
		{"CLIENT", ObjectBenefit, ActionBenefitView, true},
		{"CLIENT", ObjectClientSelf, ActionClientSelfView, true},
		{"CLIENT", ObjectOrder, ActionOrderView, false},
		{"ADMIN", ObjectClientSelf, ActionClientSelfView, false},
	}
	for _, tc := range cases {
		err := svc.Authorize(ctx, tc.role, tc.object, tc.action)
		if tc.allowed {
			assert.NoError(t, err, "%s %s", tc.role, tc.action)
		} else {
			assert.ErrorIs(t, err, ErrForbidden, "%s %s", tc.role, tc.action)
		}
	}
}

func TestAuthorizeRejectsEmptyInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, "", ObjectOrder, ActionOrderView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, "ADMIN", "", ActionOrderView), ErrInvalidObject)
	assert.ErrorIs(t, svc.Authorize(ctx, "ADMIN", ObjectOrder, " "), ErrInvalidAction)
}

func TestSeedingTwiceIsHarmless(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	_, err = NewEnforcer(conn)
	require.NoError(t, err)
	enforcer, err := NewEnforcer(conn)
	require.NoError(t, err)

	policies, err := enforcer.GetPolicy()
	require.NoError(t, err)
	assert.Len(t, policies, 19)
}
