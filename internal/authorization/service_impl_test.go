package authorization

import (
	"context"
	"testing"

	"github.com/AxelFernandez/agua-andre-sub000/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(t *testing.T) Service {
	t.Helper()
	db := testutil.OpenDB(t)
	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)
	return NewService(Params{DB: db, Log: zap.NewNop(), Enforcer: enforcer})
}

func TestAuthorize_Roles(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	admin := Actor{UsuarioID: "1001", Rol: "administrativo"}
	operario := Actor{UsuarioID: "1002", Rol: "operario"}
	cliente := Actor{UsuarioID: "1003", Rol: "cliente"}

	cases := []struct {
		name   string
		actor  Actor
		object string
		action string
		want   error
	}{
		{"admin aprueba pagos", admin, ObjectPago, ActionPagoRevisar, nil},
		{"admin verifica estados", admin, ObjectEstadoServicio, ActionEstadoVerificar, nil},
		{"operario registra lectura", operario, ObjectLectura, ActionCreate, nil},
		{"operario cobra en efectivo", operario, ObjectPago, ActionPagoEfectivo, nil},
		{"operario no revisa pagos", operario, ObjectPago, ActionPagoRevisar, ErrForbidden},
		{"operario no genera boletas", operario, ObjectBoleta, ActionBoletaGenerar, ErrForbidden},
		{"cliente ve boletas", cliente, ObjectBoleta, ActionView, nil},
		{"cliente sube comprobante", cliente, ObjectPago, ActionPagoComprobante, nil},
		{"cliente no ve auditoria", cliente, ObjectAuditoria, ActionView, ErrForbidden},
		{"system vence boletas", SystemActor(), ObjectBoleta, ActionBoletaVencer, nil},
		{"system no borra usuarios", SystemActor(), ObjectUsuario, ActionDelete, ErrForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Authorize(ctx, tc.actor, tc.object, tc.action)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAuthorize_RoleChangeReplacesGrant(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Authorize(ctx, Actor{UsuarioID: "2001", Rol: "administrativo"}, ObjectImportacion, ActionImportar))
	err := svc.Authorize(ctx, Actor{UsuarioID: "2001", Rol: "operario"}, ObjectImportacion, ActionImportar)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAuthorize_InvalidInput(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, Actor{UsuarioID: "abc", Rol: "cliente"}, ObjectBoleta, ActionView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, Actor{UsuarioID: "5", Rol: "root"}, ObjectBoleta, ActionView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, Actor{UsuarioID: "5", Rol: "cliente"}, " ", ActionView), ErrInvalidObject)
	assert.ErrorIs(t, svc.Authorize(ctx, Actor{UsuarioID: "5", Rol: "cliente"}, ObjectBoleta, ""), ErrInvalidAction)
}
