package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/AxelFernandez/agua-andre-sub000/internal/cliente"
	"github.com/spf13/cobra"
)

func (a *app) auditoriaCmd() *cobra.Command {
	var (
		filtro      cliente.FiltroAuditoria
		desde       string
		hasta       string
		mostrarJSON bool
	)
	cmd := &cobra.Command{
		Use:   "auditoria",
		Short: "Query the audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if filtro.Desde, err = parseFecha(desde, false); err != nil {
				return err
			}
			if filtro.Hasta, err = parseFecha(hasta, true); err != nil {
				return err
			}
			resp, err := a.client.Auditoria(cmd.Context(), filtro)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FECHA\tMÓDULO\tACCIÓN\tENTIDAD\tREGISTRO\tUSUARIO\tDESCRIPCIÓN")
			for _, r := range resp.Registros {
				registro, usuario, descripcion := "-", "-", ""
				if r.RegistroID != nil {
					registro = *r.RegistroID
				}
				if r.UsuarioID != nil {
					usuario = r.UsuarioID.String()
				}
				if r.Descripcion != nil {
					descripcion = *r.Descripcion
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					r.CreadoEn.Local().Format("02/01/2006 15:04"), r.Modulo, r.Accion, r.Entidad, registro, usuario, descripcion)
				if mostrarJSON {
					fmt.Fprintf(w, "\tprevios: %s\t\t\t\t\t\n", string(r.DatosPrevios))
					fmt.Fprintf(w, "\tnuevos: %s\t\t\t\t\t\n", string(r.DatosNuevos))
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if resp.HasMore {
				fmt.Fprintf(out, "Hay más resultados: --page-token %s\n", resp.NextPageToken)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filtro.Modulo, "modulo", "", "Module (boletas, pagos, usuarios, ...)")
	cmd.Flags().StringVar(&filtro.Accion, "accion", "", "creacion, actualizacion, eliminacion or recalculo")
	cmd.Flags().StringVar(&filtro.UsuarioID, "usuario", "", "Acting user id")
	cmd.Flags().StringVar(&filtro.RegistroID, "registro", "", "Affected record id")
	cmd.Flags().StringVar(&desde, "desde", "", "From date AAAA-MM-DD")
	cmd.Flags().StringVar(&hasta, "hasta", "", "To date AAAA-MM-DD (inclusive)")
	cmd.Flags().IntVar(&filtro.Limit, "limit", 0, "Maximum rows")
	cmd.Flags().StringVar(&filtro.PageToken, "page-token", "", "Continue a previous listing")
	cmd.Flags().BoolVar(&mostrarJSON, "json", false, "Show the stored snapshots")
	return cmd
}

func parseFecha(value string, finDelDia bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return nil, errors.New("fecha inválida, use AAAA-MM-DD")
	}
	if finDelDia {
		t = t.Add(24*time.Hour - time.Second)
	}
	return &t, nil
}
