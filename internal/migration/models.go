package migration

import (
	auditoriadomain "github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/domain"
	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	lecturadomain "github.com/AxelFernandez/agua-andre-sub000/internal/lectura/domain"
	medidordomain "github.com/AxelFernandez/agua-andre-sub000/internal/medidor/domain"
	pagodomain "github.com/AxelFernandez/agua-andre-sub000/internal/pago/domain"
	tarifariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/domain"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	zonadomain "github.com/AxelFernandez/agua-andre-sub000/internal/zona/domain"
	"gorm.io/gorm"
)

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&zonadomain.Zona{},
		&usuariodomain.Usuario{},
		&medidordomain.Medidor{},
		&lecturadomain.Lectura{},
		&tarifariodomain.Tarifario{},
		&tarifariodomain.ConceptoFijo{},
		&tarifariodomain.EscalaConsumo{},
		&tarifariodomain.CargoExtra{},
		&tarifariodomain.ConfiguracionAvisos{},
		&tarifariodomain.PlanReconexion{},
		&boletadomain.Secuencia{},
		&boletadomain.Boleta{},
		&tarifariodomain.CargoAplicado{},
		&pagodomain.Pago{},
		&auditoriadomain.Registro{},
	}
}

// AutoMigrate creates the schema from the gorm models. It is used for
// sqlite databases; postgres runs the embedded SQL migrations.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
