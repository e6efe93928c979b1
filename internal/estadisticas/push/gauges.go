package push

import (
	estadisticas "github.com/AxelFernandez/agua-andre-sub000/internal/estadisticas/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Gauges mirrors the dashboard summary as Prometheus gauges.
type Gauges struct {
	buildInfo       *prometheus.GaugeVec
	clientesActivos prometheus.Gauge
	clientesBaja    prometheus.Gauge
	porEstado       *prometheus.GaugeVec
	boletas         *prometheus.GaugeVec
	deuda           *prometheus.GaugeVec
	recaudadoMes    prometheus.Gauge
	pagosPendientes prometheus.Gauge
	ultimaMuestra   prometheus.Gauge
}

func NewGauges(registry *prometheus.Registry, version string) *Gauges {
	g := &Gauges{
		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "agua_build_info",
			Help: "Always 1, labelled with the running version.",
		}, []string{"version"}),
		clientesActivos: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agua_clientes_activos",
			Help: "Active customers.",
		}),
		clientesBaja: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agua_clientes_baja",
			Help: "Customers given de baja.",
		}),
		porEstado: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "agua_clientes_estado_servicio",
			Help: "Customers per service state.",
		}, []string{"estado"}),
		boletas: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "agua_boletas",
			Help: "Boletas per state.",
		}, []string{"estado"}),
		deuda: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "agua_deuda_pesos",
			Help: "Outstanding debt in pesos.",
		}, []string{"tipo"}),
		recaudadoMes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agua_recaudado_mes_pesos",
			Help: "Approved payments in the current month.",
		}),
		pagosPendientes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agua_pagos_pendientes_revision",
			Help: "Transfers waiting for review.",
		}),
		ultimaMuestra: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agua_resumen_ultima_muestra_timestamp_seconds",
			Help: "Unix time of the last successful sample.",
		}),
	}
	registry.MustRegister(g.buildInfo, g.clientesActivos, g.clientesBaja, g.porEstado, g.boletas,
		g.deuda, g.recaudadoMes, g.pagosPendientes, g.ultimaMuestra)
	g.buildInfo.WithLabelValues(version).Set(1)
	return g
}

// Observe replaces every gauge with the values of resumen. States missing
// from the summary drop back to zero.
func (g *Gauges) Observe(resumen *estadisticas.ResumenResponse, unix float64) {
	if g == nil || resumen == nil {
		return
	}
	g.clientesActivos.Set(float64(resumen.ClientesActivos))
	g.clientesBaja.Set(float64(resumen.ClientesDeBaja))

	g.porEstado.Reset()
	for estado, n := range resumen.PorEstadoServicio {
		g.porEstado.WithLabelValues(estado).Set(float64(n))
	}
	g.boletas.Reset()
	for estado, n := range resumen.BoletasPorEstado {
		g.boletas.WithLabelValues(estado).Set(float64(n))
	}

	g.deuda.WithLabelValues("total").Set(resumen.DeudaTotal.InexactFloat64())
	g.deuda.WithLabelValues("vencida").Set(resumen.DeudaVencida.InexactFloat64())
	g.recaudadoMes.Set(resumen.RecaudadoMes.InexactFloat64())
	g.pagosPendientes.Set(float64(resumen.PagosPendientes))
	g.ultimaMuestra.Set(unix)
}
