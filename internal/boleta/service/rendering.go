package service

import (
	"context"
	"errors"

	"github.com/AxelFernandez/agua-andre-sub000/internal/boleta/detalle"
	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/boleta/render"
	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	"github.com/AxelFernandez/agua-andre-sub000/internal/providers/pdf"
)

func (s *Service) RenderHTML(ctx context.Context, id string) (string, error) {
	if s.renderer == nil {
		return "", errors.New("renderer_not_configured")
	}
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	empresa := s.empresa()
	return s.renderer.RenderHTML(render.RenderInput{
		Empresa: render.Empresa{
			Nombre:    empresa.Nombre,
			Direccion: empresa.Direccion,
			CUIT:      empresa.CUIT,
			Telefono:  empresa.Telefono,
		},
		Cliente: render.Cliente(cliente(b)),
		Detalle: detalle.Componer(*b),
	})
}

func (s *Service) PDF(ctx context.Context, id string) ([]byte, error) {
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.generarPDF(ctx, []boletadomain.Response{*b})
}

// PDFPeriodo prints every boleta of the period into a single document.
func (s *Service) PDFPeriodo(ctx context.Context, req boletadomain.PeriodoRequest) ([]byte, error) {
	items, err := s.ListPeriodo(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, boletadomain.ErrNotFound
	}
	return s.generarPDF(ctx, items)
}

func (s *Service) generarPDF(ctx context.Context, items []boletadomain.Response) ([]byte, error) {
	if s.pdf == nil {
		return nil, errors.New("pdf_provider_not_configured")
	}
	empresa := s.empresa()
	data := make([]pdf.BoletaData, 0, len(items))
	for _, b := range items {
		data = append(data, pdf.BoletaData{
			Empresa: pdf.Empresa{
				Nombre:    empresa.Nombre,
				Direccion: empresa.Direccion,
				CUIT:      empresa.CUIT,
				Telefono:  empresa.Telefono,
			},
			Cliente: pdf.Cliente(cliente(&b)),
			Detalle: detalle.Componer(b),
		})
	}
	return s.pdf.GenerateBoletas(ctx, data)
}

func (s *Service) empresa() config.EmpresaConfig {
	if s.operacion == nil {
		return config.DefaultOperacionConfig().Empresa
	}
	return s.operacion.Get().Empresa
}

type clienteView struct {
	Nombre    string
	Padron    string
	Direccion string
}

func cliente(b *boletadomain.Response) clienteView {
	if b == nil || b.Usuario == nil {
		return clienteView{}
	}
	view := clienteView{
		Nombre:    b.Usuario.Nombre,
		Direccion: b.Usuario.Direccion,
	}
	if b.Usuario.Padron != nil {
		view.Padron = *b.Usuario.Padron
	}
	return view
}
