package service

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"

	auditoriadomain "github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/domain"
	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	pagodomain "github.com/AxelFernandez/agua-andre-sub000/internal/pago/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const comprobantesDir = "comprobantes"

// RegistrarComprobante stores a proof of transfer and puts the boleta in
// procesando until an administrator reviews it.
func (s *Service) RegistrarComprobante(ctx context.Context, req pagodomain.ComprobanteRequest) (*pagodomain.Response, error) {
	boletaID, err := snowflake.ParseString(strings.TrimSpace(req.BoletaID))
	if err != nil || boletaID == 0 {
		return nil, pagodomain.ErrInvalidBoleta
	}
	if !req.Monto.IsPositive() {
		return nil, pagodomain.ErrInvalidMonto
	}
	if req.Archivo == nil {
		return nil, pagodomain.ErrComprobanteRequerido
	}

	cfg := s.pagosConfig()
	data, err := io.ReadAll(io.LimitReader(req.Archivo, cfg.ComprobanteMaxBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, pagodomain.ErrComprobanteRequerido
	}
	if int64(len(data)) > cfg.ComprobanteMaxBytes {
		return nil, pagodomain.ErrComprobanteTamanio
	}
	mtype := mimetype.Detect(data)
	if !permitido(mtype, cfg.TiposPermitidos) {
		return nil, pagodomain.ErrComprobanteTipo
	}

	var (
		out *pagodomain.Pago
		key string
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.boletaRepo.FindByID(ctx, tx, boletaID)
		if err != nil {
			return err
		}
		if b == nil {
			return pagodomain.ErrNotFound
		}
		if err := verificarTitular(ctx, b); err != nil {
			return err
		}
		if b.Estado != boletadomain.EstadoPendiente && b.Estado != boletadomain.EstadoVencida {
			return pagodomain.ErrBoletaNoPagable
		}

		now := s.clock.Now()
		id := s.genID.Generate()
		key, err = s.storage.Save(ctx, nombreComprobante(b, id, mtype.Extension()), bytes.NewReader(data))
		if err != nil {
			return err
		}
		tipo := mtype.String()
		p := &pagodomain.Pago{
			ID:              id,
			BoletaID:        b.ID,
			UsuarioID:       b.UsuarioID,
			Monto:           req.Monto.Round(2),
			FechaPago:       now,
			Metodo:          pagodomain.MetodoTransferencia,
			Estado:          pagodomain.EstadoPendienteRevision,
			ComprobanteKey:  &key,
			ComprobanteTipo: &tipo,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.repo.Insert(ctx, tx, p); err != nil {
			return err
		}
		if err := s.boletaRepo.UpdateEstado(ctx, tx, b.ID, boletadomain.EstadoProcesando, nil, now); err != nil {
			return err
		}
		out = p

		return s.auditoria.Registrar(ctx, tx, auditoriadomain.Entrada{
			Modulo:      "pagos",
			Entidad:     "Pago",
			RegistroID:  p.ID.String(),
			Accion:      auditoriadomain.AccionCreacion,
			Descripcion: "Comprobante recibido para boleta " + b.Numero,
			DatosNuevos: p,
			Metadata: map[string]any{
				"archivo":      strings.TrimSpace(req.NombreArchivo),
				"content_type": tipo,
				"bytes":        len(data),
			},
		})
	})
	if err != nil {
		if key != "" {
			if rmErr := s.storage.Delete(context.WithoutCancel(ctx), key); rmErr != nil {
				s.log.Warn("failed to remove orphan comprobante", zap.String("key", key), zap.Error(rmErr))
			}
		}
		return nil, err
	}
	s.metrics.RecordPago(ctx, string(out.Metodo), string(out.Estado))
	return s.response(ctx, out)
}

func (s *Service) Comprobante(ctx context.Context, id string) (*pagodomain.Archivo, error) {
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
	if p.ComprobanteKey == nil {
		return nil, pagodomain.ErrSinComprobante
	}
	b, err := s.boletaRepo.FindByID(ctx, s.db, p.BoletaID)
	if err != nil {
		return nil, err
	}
	if b != nil {
		if err := verificarTitular(ctx, b); err != nil {
			return nil, err
		}
	}

	f, err := s.storage.Open(ctx, *p.ComprobanteKey)
	if err != nil {
		return nil, err
	}
	contentType := "application/octet-stream"
	if p.ComprobanteTipo != nil {
		contentType = *p.ComprobanteTipo
	}
	return &pagodomain.Archivo{
		Nombre:      path.Base(*p.ComprobanteKey),
		ContentType: contentType,
		Contenido:   f,
	}, nil
}

func (s *Service) pagosConfig() config.PagosConfig {
	cfg := config.DefaultOperacionConfig().Pagos
	if s.operacion != nil {
		cfg = s.operacion.Get().Pagos
	}
	if cfg.ComprobanteMaxBytes <= 0 {
		cfg.ComprobanteMaxBytes = config.DefaultOperacionConfig().Pagos.ComprobanteMaxBytes
	}
	return cfg
}

func permitido(mtype *mimetype.MIME, tipos []string) bool {
	for _, t := range tipos {
		if mtype.Is(strings.TrimSpace(t)) {
			return true
		}
	}
	return false
}

// nombreComprobante is comprobantes/<anio>/<numero-de-boleta>-<pago id><ext>.
func nombreComprobante(b *boletadomain.Boleta, id snowflake.ID, ext string) string {
	return path.Join(
		comprobantesDir,
		slug.Make(strings.TrimSpace(b.Numero))+"-"+id.String()+ext,
	)
}
