package security_test

import (
	"context"
	"testing"

	"github.com/cascadeweb/cascade/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rbac grants a permission when the user holds it in credentials.
type rbac struct {
	denied []*security.Denial
}

func (m *rbac) HasPermission(ctx context.Context, user *security.User, perm any, subject any) error {
	if user == nil {
		return security.Deny("anonymous")
	}
	if granted, ok := user.Credentials[perm.(string)]; ok && granted == true {
		return nil
	}
	return security.Deny("missing permission %v", perm)
}

func (m *rbac) Denies(denial *security.Denial) error {
	m.denied = append(m.denied, denial)
	return denial
}

func scopedContext(m security.Manager, u *security.User) context.Context {
	scope := security.NewScope(m)
	ctx := security.WithScope(context.Background(), scope)
	security.SetUser(ctx, u)
	return ctx
}

func TestGetUser_ExpiredUserIsNil(t *testing.T) {
	ctx := scopedContext(&rbac{}, &security.User{ID: "alice", Expired: true})
	assert.Nil(t, security.GetUser(ctx))
}

func TestHasPermissions_Granted(t *testing.T) {
	user := &security.User{ID: "alice", Credentials: map[string]any{"edit": true}}
	ctx := scopedContext(&rbac{}, user)

	assert.NoError(t, security.HasPermissions(ctx, "edit", nil))
}

func TestHasPermissions_Denied(t *testing.T) {
	user := &security.User{ID: "bob", Credentials: map[string]any{}}
	ctx := scopedContext(&rbac{}, user)

	err := security.HasPermissions(ctx, "edit", nil)
	var denial *security.Denial
	require.ErrorAs(t, err, &denial)
	assert.Contains(t, denial.Reason, "edit")
}

func TestCheckPermissions_RoutesThroughDeniesHook(t *testing.T) {
	manager := &rbac{}
	ctx := scopedContext(manager, nil)

	err := security.CheckPermissions(ctx, "edit", nil)
	require.Error(t, err)
	assert.Len(t, manager.denied, 1)
}

func TestWrap_GuardsAction(t *testing.T) {
	manager := &rbac{}
	user := &security.User{ID: "alice", Credentials: map[string]any{"edit": true}}

	ran := false
	action := security.Wrap(func(ctx context.Context) error {
		ran = true
		return nil
	}, "edit", nil)

	// Denied for the anonymous context.
	require.Error(t, action(scopedContext(manager, nil)))
	assert.False(t, ran)

	// Granted for alice.
	require.NoError(t, action(scopedContext(manager, user)))
	assert.True(t, ran)
}

func TestWrap_NilPermIsUnguarded(t *testing.T) {
	ran := false
	action := security.Wrap(func(ctx context.Context) error {
		ran = true
		return nil
	}, nil, nil)

	require.NoError(t, action(context.Background()))
	assert.True(t, ran)
}

func TestSetManager_SwapsPolicy(t *testing.T) {
	ctx := scopedContext(&rbac{}, nil)
	require.Error(t, security.CheckPermissions(ctx, "edit", nil))

	security.SetManager(ctx, nil)
	assert.NoError(t, security.CheckPermissions(ctx, "edit", nil), "no manager in scope grants access")
}
