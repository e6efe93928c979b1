package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/AxelFernandez/agua-andre-sub000/internal/boleta/detalle"
	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/cliente"
	"github.com/spf13/cobra"
)

func (a *app) pagoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pago",
		Short: "Register and review payments",
	}
	cmd.AddCommand(a.pagoEfectivoCmd(), a.pagoComprobanteCmd(), a.pagoAprobarCmd(), a.pagoRechazarCmd())
	return cmd
}

func (a *app) pagosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagos",
		Short: "List payments",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "pendientes",
		Short: "List transfers waiting for review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pagos, err := a.client.PagosPendientes(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(pagos) == 0 {
				fmt.Fprintln(out, "No hay pagos pendientes de revisión")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tBOLETA\tPADRÓN\tMONTO\tFECHA")
			for _, p := range pagos {
				numero, padron := p.BoletaID, "-"
				if p.Boleta != nil {
					numero = p.Boleta.Numero
				}
				if p.Usuario != nil && p.Usuario.Padron != nil {
					padron = *p.Usuario.Padron
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, numero, padron, detalle.Dinero(p.Monto), detalle.Fecha(p.FechaPago))
			}
			return w.Flush()
		},
	})
	return cmd
}

func (a *app) pagoEfectivoCmd() *cobra.Command {
	var (
		boletaID      string
		monto         string
		fecha         string
		observaciones string
		yes           bool
	)
	cmd := &cobra.Command{
		Use:   "efectivo <padron|boletaId>",
		Short: "Register an in-person cash payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clave := strings.TrimSpace(args[0])
			var fechaPago time.Time
			if fecha != "" {
				parsed, err := time.ParseInLocation("2006-01-02", fecha, time.Local)
				if err != nil {
					return errors.New("fecha inválida, use AAAA-MM-DD")
				}
				fechaPago = parsed
			}

			var elegida *boletadomain.Response
			if clave != "" {
				candidatas, err := a.client.BuscarBoletasParaCobro(cmd.Context(), clave)
				if err != nil {
					return err
				}
				elegida = elegirBoleta(candidatas, boletaID)
				if elegida == nil && len(candidatas) > 1 {
					imprimirBoletas(cmd.OutOrStdout(), candidatas)
					fmt.Fprintln(cmd.OutOrStdout(), "Indique la boleta con --boleta")
				}
			}

			pago := cliente.PagoEfectivo{
				Clave:         clave,
				Boleta:        elegida,
				Monto:         monto,
				FechaPago:     fechaPago,
				Observaciones: observaciones,
			}
			if elegida != nil {
				importe := monto
				if importe == "" {
					importe = elegida.Total.StringFixed(2)
				}
				pregunta := fmt.Sprintf("¿Registrar pago en efectivo de $ %s para la boleta %s?", importe, elegida.Numero)
				if !a.confirmar(cmd, yes, pregunta) {
					return errCancelado
				}
			}
			cobro, err := a.client.RegistrarPagoEfectivo(cmd.Context(), pago)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pago %s registrado. Boleta %s: %s\n", cobro.Pago.ID, cobro.Boleta.Numero, cobro.Boleta.Estado)
			return nil
		},
	}
	cmd.Flags().StringVar(&boletaID, "boleta", "", "Boleta to pay when the customer has several")
	cmd.Flags().StringVar(&monto, "monto", "", "Amount without thousands separator, e.g. 15000 or 15000,50 (defaults to the boleta total)")
	cmd.Flags().StringVar(&fecha, "fecha", "", "Payment date AAAA-MM-DD (defaults to today)")
	cmd.Flags().StringVar(&observaciones, "observaciones", "", "Free-text notes")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	return cmd
}

// elegirBoleta picks the requested boleta, or the only unpaid one.
func elegirBoleta(candidatas []boletadomain.Response, id string) *boletadomain.Response {
	id = strings.TrimSpace(id)
	if id != "" {
		for i := range candidatas {
			if candidatas[i].ID == id || candidatas[i].Numero == id {
				return &candidatas[i]
			}
		}
		return nil
	}
	if len(candidatas) == 1 {
		return &candidatas[0]
	}
	var impaga *boletadomain.Response
	for i := range candidatas {
		if candidatas[i].Estado == boletadomain.EstadoPagada {
			continue
		}
		if impaga != nil {
			return nil
		}
		impaga = &candidatas[i]
	}
	return impaga
}

func (a *app) pagoComprobanteCmd() *cobra.Command {
	var monto string
	cmd := &cobra.Command{
		Use:   "comprobante <boletaId> <archivo>",
		Short: "Upload a transfer receipt for review",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			datos, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			pago, err := a.client.SubirComprobante(cmd.Context(), cliente.Comprobante{
				BoletaID: args[0],
				Monto:    monto,
				Nombre:   filepath.Base(args[1]),
				Datos:    datos,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Comprobante recibido. Pago %s en %s\n", pago.ID, pago.Estado)
			return nil
		},
	}
	cmd.Flags().StringVar(&monto, "monto", "", "Transferred amount, e.g. 15000 or 15000,50")
	return cmd
}

func (a *app) pagoAprobarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "aprobar <pagoId>",
		Short: "Approve a transfer; its boleta becomes pagada",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pago, err := a.client.AprobarPago(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pago %s %s\n", pago.ID, pago.Estado)
			return nil
		},
	}
}

func (a *app) pagoRechazarCmd() *cobra.Command {
	var observaciones string
	cmd := &cobra.Command{
		Use:   "rechazar <pagoId>",
		Short: "Reject a transfer; its boleta goes back to pendiente",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pago, err := a.client.RechazarPago(cmd.Context(), args[0], observaciones)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pago %s %s\n", pago.ID, pago.Estado)
			return nil
		},
	}
	cmd.Flags().StringVar(&observaciones, "observaciones", "", "Reason shown to the customer (required)")
	return cmd
}
