package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/AxelFernandez/agua-andre-sub000/internal/boleta/detalle"
	"github.com/AxelFernandez/agua-andre-sub000/internal/cliente"
	"github.com/spf13/cobra"
)

func (a *app) estadosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estados",
		Short: "Service-state operations",
	}

	var yes bool
	verificar := &cobra.Command{
		Use:   "verificar",
		Short: "Re-evaluate the service state of every customer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.confirmar(cmd, yes, "Se re-evaluará el estado de servicio de todos los clientes. ¿Continuar?") {
				return errCancelado
			}
			resp, err := a.client.VerificarEstados(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Clientes evaluados: %d  Cambios: %d\n", resp.Evaluados, len(resp.Transiciones))
			if len(resp.Transiciones) == 0 {
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PADRÓN\tDESDE\tHACIA")
			for _, t := range resp.Transiciones {
				fmt.Fprintf(w, "%s\t%s\t%s\n", t.Padron, t.Desde, t.Hacia)
			}
			return w.Flush()
		},
	}
	verificar.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")

	cmd.AddCommand(verificar)
	return cmd
}

func (a *app) reconexionCmd() *cobra.Command {
	var (
		contado bool
		cuotas  int
		estimar bool
		yes     bool
	)
	cmd := &cobra.Command{
		Use:   "reconexion <usuarioId|padron>",
		Short: "Reconnect a cut-off customer, at once or in installments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opcion := cliente.OpcionReconexion{PagoContado: contado || cuotas == 0, CantidadCuotas: cuotas}
			out := cmd.OutOrStdout()

			est, err := a.client.EstimarReconexion(cmd.Context(), opcion)
			if err != nil {
				return err
			}
			if est.CantidadCuotas == 1 {
				fmt.Fprintf(out, "Reconexión: %s en un pago\n", detalle.Dinero(est.MontoTotal))
			} else {
				fmt.Fprintf(out, "Reconexión: %s en %d cuotas de %s (última %s)\n",
					detalle.Dinero(est.MontoTotal), est.CantidadCuotas, detalle.Dinero(est.MontoCuota), detalle.Dinero(est.UltimaCuota))
			}
			if estimar {
				return nil
			}

			u, err := a.client.BuscarUsuario(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !a.confirmar(cmd, yes, fmt.Sprintf("¿Reconectar el servicio de %s?", u.Nombre)) {
				return errCancelado
			}
			resp, err := a.client.Reconectar(cmd.Context(), *u, opcion)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Servicio %s. Se facturará %s por cuota en %d cuota(s)\n",
				resp.EstadoServicio, detalle.Dinero(resp.MontoCuota), resp.CantidadCuotas)
			return nil
		},
	}
	cmd.Flags().BoolVar(&contado, "contado", false, "Single payment")
	cmd.Flags().IntVar(&cuotas, "cuotas", 0, "Number of installments (1-5)")
	cmd.Flags().BoolVar(&estimar, "estimar", false, "Only show the fee")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	cmd.MarkFlagsMutuallyExclusive("contado", "cuotas")
	return cmd
}
