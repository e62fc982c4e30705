package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/messismo/bar/internal/actorctx"
	auditdomain "github.com/messismo/bar/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectBenefit    = "benefit"
	ObjectSettings   = "settings"
	ObjectPointsRate = "points_rate"
	ObjectClient     = "client"
	ObjectClientSelf = "client_self"
	ObjectOrder      = "order"
	ObjectProduct    = "product"
	ObjectUser       = "user"
	ObjectAuditLog   = "audit_log"
)

const (
	ActionBenefitView   = "benefit.view"
	ActionBenefitCreate = "benefit.create"
	ActionBenefitDelete = "benefit.delete"

	ActionSettingsView   = "settings.view"
	ActionSettingsUpdate = "settings.update"

	ActionPointsRateView = "points_rate.view"

	ActionClientView     = "client.view"
	ActionClientSelfView = "client_self.view"

	ActionOrderView   = "order.view"
	ActionOrderCreate = "order.create"
	ActionOrderUpdate = "order.update"
	ActionOrderClose  = "order.close"

	ActionProductView   = "product.view"
	ActionProductCreate = "product.create"
	ActionProductUpdate = "product.update"

	ActionUserManage = "user.manage"

	ActionAuditLogView = "audit_log.view"
)

const (
	roleAdmin             = "role:admin"
	roleManager           = "role:manager"
	roleValidatedEmployee = "role:validatedemployee"
	roleEmployee          = "role:employee"
	roleClient            = "role:client"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

// NewEnforcer loads the persisted policy and seeds the static role
// hierarchy. Seeding is idempotent across restarts.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, role string, object string, action string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject := fmt.Sprintf("role:%s", role)
	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, subject, object, action)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) auditDenied(ctx context.Context, subject string, object string, action string) {
	s.log.Debug("permission denied",
		zap.String("subject", subject),
		zap.String("object", object),
		zap.String("action", action),
	)
	if s.auditSvc == nil {
		return
	}
	targetID := ""
	if actor, ok := actorctx.ActorFromContext(ctx); ok {
		targetID = actor.UserID.String()
	}
	_ = s.auditSvc.AuditLog(ctx, auditdomain.ActionAuthorizationDenied, "authorization", targetID, map[string]any{
		"object":  object,
		"action":  action,
		"subject": subject,
	})
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Floor staff
		{roleEmployee, ObjectBenefit, ActionBenefitView},
		{roleEmployee, ObjectPointsRate, ActionPointsRateView},
		{roleEmployee, ObjectClient, ActionClientView},
		{roleEmployee, ObjectProduct, ActionProductView},
		{roleEmployee, ObjectOrder, ActionOrderView},
		{roleEmployee, ObjectOrder, ActionOrderCreate},
		{roleEmployee, ObjectOrder, ActionOrderUpdate},
		{roleEmployee, ObjectOrder, ActionOrderClose},

		{roleValidatedEmployee, ObjectProduct, ActionProductUpdate},

		{roleManager, ObjectBenefit, ActionBenefitCreate},
		{roleManager, ObjectBenefit, ActionBenefitDelete},
		{roleManager, ObjectSettings, ActionSettingsView},
		{roleManager, ObjectSettings, ActionSettingsUpdate},
		{roleManager, ObjectProduct, ActionProductCreate},
		{roleManager, ObjectUser, ActionUserManage},

		{roleAdmin, ObjectAuditLog, ActionAuditLogView},

		// Clients only see the catalog and their own data.
		{roleClient, ObjectBenefit, ActionBenefitView},
		{roleClient, ObjectPointsRate, ActionPointsRateView},
		{roleClient, ObjectClientSelf, ActionClientSelfView},
	}
	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}

	hierarchy := [][]string{
		{roleAdmin, roleManager},
		{roleManager, roleValidatedEmployee},
		{roleValidatedEmployee, roleEmployee},
	}
	for _, link := range hierarchy {
		if _, err := enforcer.AddGroupingPolicy(link); err != nil {
			return err
		}
	}
	return nil
}
