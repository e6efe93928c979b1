package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/AxelFernandez/agua-andre-sub000/internal/boleta/detalle"
	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/cliente"
	"github.com/spf13/cobra"
)

func (a *app) boletasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "boletas <usuarioId|padron>",
		Short: "List a customer's boletas, one per period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.client.BuscarUsuario(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			boletas, err := a.client.BoletasDeUsuario(cmd.Context(), u.ID)
			if err != nil {
				return err
			}
			imprimirBoletas(cmd.OutOrStdout(), boletas)
			return nil
		},
	}
}

func (a *app) boletaCmd() *cobra.Command {
	var pdf string
	cmd := &cobra.Command{
		Use:   "boleta <id>",
		Short: "Show the breakdown of a boleta",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.client.DetalleBoleta(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), d.String())
			if pdf == "" {
				return nil
			}
			body, err := a.client.PDFBoleta(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return escribirArchivo(cmd, pdf, body)
		},
	}
	cmd.Flags().StringVar(&pdf, "pdf", "", "Also save the PDF to this path")
	return cmd
}

func (a *app) generarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generar",
		Short: "Generate boletas for a period",
	}

	var mes, anio int
	individual := &cobra.Command{
		Use:   "individual <usuarioId|padron>",
		Short: "Generate the boleta of one customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.client.BuscarUsuario(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			b, err := a.client.GenerarBoleta(cmd.Context(), cliente.Elegible{
				ID:                 u.ID,
				Activo:             u.Activo,
				ServicioDadoDeBaja: u.ServicioDadoDeBaja,
			}, mes, anio)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), detalle.Componer(*b).String())
			return nil
		},
	}

	var (
		pdf string
		yes bool
	)
	masivo := &cobra.Command{
		Use:   "masivo",
		Short: "Generate the boletas of every eligible customer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.confirmar(cmd, yes, fmt.Sprintf("¿Generar las boletas de %s %d para todos los clientes?", detalle.NombreMes(mes), anio)) {
				return errCancelado
			}
			resp, err := a.client.GenerarMasivo(cmd.Context(), mes, anio)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Clientes: %d  Generadas: %d  Existentes: %d  Errores: %d\n",
				resp.TotalClientes, resp.BoletasGeneradas, resp.BoletasExistentes, len(resp.Errores))
			for _, e := range resp.Errores {
				fmt.Fprintf(out, "  %s: %s\n", e.Padron, e.Error)
			}
			if pdf == "" {
				return nil
			}
			body, err := a.client.PDFBoletasPeriodo(cmd.Context(), mes, anio)
			if err != nil {
				return err
			}
			return escribirArchivo(cmd, pdf, body)
		},
	}
	masivo.Flags().StringVar(&pdf, "pdf", "", "Save the combined PDF of the period to this path")

	now := time.Now()
	for _, c := range []*cobra.Command{individual, masivo} {
		c.Flags().IntVar(&mes, "mes", int(now.Month()), "Month (1-12)")
		c.Flags().IntVar(&anio, "anio", now.Year(), "Year")
	}
	masivo.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")

	cmd.AddCommand(individual, masivo)
	return cmd
}

func (a *app) recalcularCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recalcular <boletaId>",
		Short: "Recompute an unpaid boleta with the active tariff",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.client.Boleta(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			nueva, err := a.client.Recalcular(cmd.Context(), *b)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), detalle.Componer(*nueva).String())
			return nil
		},
	}
}

func imprimirBoletas(out io.Writer, boletas []boletadomain.Response) {
	if len(boletas) == 0 {
		fmt.Fprintln(out, "Sin boletas")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNÚMERO\tPERÍODO\tTOTAL\tESTADO\tVENCE")
	for _, b := range boletas {
		fmt.Fprintf(w, "%s\t%s\t%s %d\t%s\t%s\t%s\n",
			b.ID, b.Numero, detalle.NombreMes(b.Mes), b.Anio, detalle.Dinero(b.Total), b.Estado, detalle.Fecha(b.FechaVencimiento))
	}
	_ = w.Flush()
}

func escribirArchivo(cmd *cobra.Command, path string, body []byte) error {
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Archivo guardado en %s\n", path)
	return nil
}
