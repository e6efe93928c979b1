// Command aguactl is the operator console for the agua API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/AxelFernandez/agua-andre-sub000/internal/cliente"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type app struct {
	v      *viper.Viper
	in     io.Reader
	client *cliente.Client
}

func newRootCmd(in io.Reader) *cobra.Command {
	a := &app{v: viper.New(), in: in}
	a.v.SetEnvPrefix("AGUA")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "aguactl",
		Short:         "Operator console for the agua billing API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.connect(cmd)
		},
	}
	root.PersistentFlags().String("api-url", cliente.DefaultBaseURL, "API base URL (env AGUA_API_URL)")
	root.PersistentFlags().String("session-dir", defaultSessionDir(), "Directory holding the stored session (env AGUA_SESSION_DIR)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Log requests to stderr")
	_ = a.v.BindPFlag("api-url", root.PersistentFlags().Lookup("api-url"))
	_ = a.v.BindPFlag("session-dir", root.PersistentFlags().Lookup("session-dir"))
	_ = a.v.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.boletasCmd(),
		a.boletaCmd(),
		a.generarCmd(),
		a.recalcularCmd(),
		a.pagoCmd(),
		a.pagosCmd(),
		a.estadosCmd(),
		a.reconexionCmd(),
		a.auditoriaCmd(),
	)
	return root
}

func (a *app) connect(cmd *cobra.Command) error {
	store, err := cliente.NewFileStore(a.v.GetString("session-dir"))
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	sesion, err := cliente.CargarSesion(store)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	sesion.Suscribir(func(e cliente.SesionExpirada) {
		fmt.Fprintln(cmd.ErrOrStderr(), "La sesión expiró. Ingrese nuevamente con 'aguactl login'.")
	})

	log := zap.NewNop()
	if a.v.GetBool("verbose") {
		if l, err := zap.NewDevelopment(); err == nil {
			log = l
		}
	}
	a.client = cliente.New(a.v.GetString("api-url"), sesion, cliente.WithLogger(log))
	return nil
}

func defaultSessionDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".aguactl"
	}
	return filepath.Join(dir, "aguactl")
}

// confirmar asks a yes/no question on the command's input unless yes is set.
func (a *app) confirmar(cmd *cobra.Command, yes bool, pregunta string) bool {
	if yes {
		return true
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s [s/N]: ", pregunta)
	var respuesta string
	if _, err := fmt.Fscanln(a.in, &respuesta); err != nil {
		return false
	}
	respuesta = strings.ToLower(strings.TrimSpace(respuesta))
	return respuesta == "s" || respuesta == "si" || respuesta == "sí" || respuesta == "y"
}

var errCancelado = errors.New("operación cancelada")

// mensaje prefers the server or validation text; anything else is printed raw.
func mensaje(err error) string {
	var apiErr *cliente.APIError
	if errors.As(err, &apiErr) || cliente.EsValidacion(err) || errors.Is(err, cliente.ErrSesionExpirada) {
		return cliente.Mensaje(err)
	}
	return err.Error()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdin).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", mensaje(err))
		os.Exit(1)
	}
}
