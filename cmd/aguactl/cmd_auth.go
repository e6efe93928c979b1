package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Start a session",
	}

	padronCmd := &cobra.Command{
		Use:   "padron <padron>",
		Short: "Log in as a customer with the padron number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.client.LoginPadron(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sesión iniciada: %s (%s)\n", u.Nombre, u.Rol)
			return nil
		},
	}

	var password string
	internoCmd := &cobra.Command{
		Use:   "interno <email>",
		Short: "Log in as staff with email and password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Contraseña: ")
				line, _ := bufio.NewReader(a.in).ReadString('\n')
				password = strings.TrimRight(line, "\r\n")
			}
			u, err := a.client.LoginInterno(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sesión iniciada: %s (%s)\n", u.Nombre, u.Rol)
			return nil
		},
	}
	internoCmd.Flags().StringVar(&password, "password", "", "Password (prompted when empty)")

	cmd.AddCommand(padronCmd, internoCmd)
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Sesión cerrada")
			return nil
		},
	}
}
