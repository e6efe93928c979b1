package render

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"

	"github.com/AxelFernandez/agua-andre-sub000/internal/boleta/detalle"
)

const boletaHTMLTemplate = `<!doctype html>
<html lang="es">
<head>
  <meta charset="utf-8" />
  <title>Boleta {{.Detalle.Numero}}</title>
  <style>
    :root { --primary: {{.PrimaryColor}}; }
    * { box-sizing: border-box; }
    body {
      margin: 0;
      padding: 40px;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      color: #1a1f36;
      background: #f7f9fc;
    }
    .boleta-card {
      background: #ffffff;
      max-width: 720px;
      margin: 0 auto;
      padding: 48px;
      border-radius: 4px;
      box-shadow: 0 2px 5px rgba(0,0,0,0.04);
    }
    .header { display: flex; justify-content: space-between; margin-bottom: 32px; }
    .header h1 { margin: 0; font-size: 22px; color: var(--primary); }
    .label { font-size: 11px; text-transform: uppercase; color: #8792a2; font-weight: 600; }
    .value { font-size: 14px; line-height: 1.5; }
    h2 { font-size: 13px; text-transform: uppercase; color: #8792a2; margin: 24px 0 8px; }
    table { width: 100%; border-collapse: collapse; }
    td { padding: 8px 0; border-bottom: 1px solid #e3e8ee; font-size: 14px; }
    .td-right { text-align: right; }
    .total td { font-weight: 700; font-size: 16px; border-bottom: none; }
  </style>
</head>
<body>
  <div class="boleta-card">
    <div class="header">
      <div>
        <h1>{{.Empresa.Nombre}}</h1>
        {{if .Empresa.Direccion}}<div class="value">{{.Empresa.Direccion}}</div>{{end}}
        {{if .Empresa.CUIT}}<div class="value">CUIT {{.Empresa.CUIT}}</div>{{end}}
      </div>
      <div>
        <div class="label">Boleta</div>
        <div class="value">{{.Detalle.Numero}}</div>
      </div>
    </div>

    <div>
      <div class="label">Cliente</div>
      <div class="value">
        <strong>{{.Cliente.Nombre}}</strong>{{if .Cliente.Padron}} · Padrón {{.Cliente.Padron}}{{end}}<br>
        {{.Cliente.Direccion}}
      </div>
    </div>

    {{range .Detalle.Secciones}}
    <h2>{{.Titulo}}</h2>
    <table{{if eq (print .Tipo) "total"}} class="total"{{end}}>
      <tbody>
        {{range .Filas}}
        <tr>
          <td>{{.Etiqueta}}</td>
          <td class="td-right">{{.Valor}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
    {{end}}
  </div>
</body>
</html>
`

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

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

type RenderInput struct {
	Empresa      Empresa
	Cliente      Cliente
	Detalle      detalle.Detalle
	PrimaryColor string
}

type Renderer interface {
	RenderHTML(input RenderInput) (string, error)
}

type HTMLRenderer struct {
	tpl *template.Template
}

func NewRenderer() Renderer {
	return &HTMLRenderer{
		tpl: template.Must(template.New("boleta").Parse(boletaHTMLTemplate)),
	}
}

func (r *HTMLRenderer) RenderHTML(input RenderInput) (string, error) {
	input.PrimaryColor = sanitizeColor(input.PrimaryColor)
	if strings.TrimSpace(input.Empresa.Nombre) == "" {
		input.Empresa.Nombre = "Servicio de Agua"
	}

	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, input); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func sanitizeColor(value string) string {
	trimmed := strings.TrimSpace(value)
	if hexColorPattern.MatchString(trimmed) {
		return trimmed
	}
	return "#0b5394"
}
