package pdf

import (
	"context"

	"github.com/AxelFernandez/agua-andre-sub000/internal/boleta/detalle"
	"go.uber.org/fx"
)

var Module = fx.Module("pdf.provider",
	fx.Provide(New),
)

type Empresa struct {
	Nombre    string
	Direccion string
	CUIT      string
	Telefono  string
}

type Cliente struct {
	Nombre    string
	Padron    string
	Direccion string
}

// BoletaData is one boleta page. Detalle carries the already formatted
// amounts.
type BoletaData struct {
	Empresa Empresa
	Cliente Cliente
	Detalle detalle.Detalle
}

type ReciboData struct {
	Empresa      Empresa
	Cliente      Cliente
	NumeroBoleta string
	Periodo      string
	Monto        string
	FechaPago    string
	Metodo       string
	Observacion  string
}

type Provider interface {
	// GenerateBoletas renders one page per boleta into a single document.
	GenerateBoletas(ctx context.Context, boletas []BoletaData) ([]byte, error)
	GenerateRecibo(ctx context.Context, recibo ReciboData) ([]byte, error)
}
