package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AxelFernandez/agua-andre-sub000/internal/boleta/detalle"
	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	pagodomain "github.com/AxelFernandez/agua-andre-sub000/internal/pago/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/providers/pdf"
	"github.com/bwmarrin/snowflake"
)

// Recibo prints the receipt of an approved payment.
func (s *Service) Recibo(ctx context.Context, id string) ([]byte, error) {
	if s.pdf == nil {
		return nil, errors.New("pdf_provider_not_configured")
	}
	pagoID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || pagoID == 0 {
		return nil, pagodomain.ErrInvalidID
	}
	p, err := s.repo.FindByID(ctx, s.db, pagoID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, pagodomain.ErrNotFound
	}
	if p.Estado != pagodomain.EstadoAprobado {
		return nil, pagodomain.ErrPagoNoAprobado
	}
	b, err := s.boletaRepo.FindByID(ctx, s.db, p.BoletaID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, pagodomain.ErrNotFound
	}
	if err := verificarTitular(ctx, b); err != nil {
		return nil, err
	}
	u, err := s.usuarioRepo.FindByID(ctx, s.db, p.UsuarioID)
	if err != nil {
		return nil, err
	}

	empresa := config.DefaultOperacionConfig().Empresa
	if s.operacion != nil {
		empresa = s.operacion.Get().Empresa
	}
	data := pdf.ReciboData{
		Empresa: pdf.Empresa{
			Nombre:    empresa.Nombre,
			Direccion: empresa.Direccion,
			CUIT:      empresa.CUIT,
			Telefono:  empresa.Telefono,
		},
		NumeroBoleta: b.Numero,
		Periodo:      fmt.Sprintf("%s %d", detalle.NombreMes(b.Mes), b.Anio),
		Monto:        detalle.Dinero(p.Monto),
		FechaPago:    detalle.Fecha(p.FechaPago),
		Metodo:       string(p.Metodo),
	}
	if p.Observaciones != nil {
		data.Observacion = *p.Observaciones
	}
	if u != nil {
		data.Cliente = pdf.Cliente{Nombre: u.Nombre, Direccion: u.Direccion}
		if u.Padron != nil {
			data.Cliente.Padron = *u.Padron
		}
	}
	return s.pdf.GenerateRecibo(ctx, data)
}
