package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	zoo "github.com/km-arc/go-beans/app"
	"github.com/km-arc/go-beans/framework/app"
	"github.com/km-arc/go-beans/framework/config"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	var envFiles []string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Boot the application and serve the inspector over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load(envFiles...)
			if path := v.GetString("manifest"); path != "" {
				cfg.Beans.Manifest = path
			}
			if v.GetBool("eager") {
				cfg.Beans.Eager = true
			}
			if cmd.Flags().Changed("port") {
				cfg.App.Port = v.GetString("port")
			}

			application := app.NewWithOptions(app.Options{
				Config:    cfg,
				LogWriter: cmd.ErrOrStderr(),
			})
			application.RegisterKinds(zoo.Kinds())
			if cfg.Beans.Manifest == "" {
				if err := application.Register(&zoo.AppServiceProvider{}); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return application.Run(ctx)
		},
	}
	cmd.Flags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")
	cmd.Flags().StringP("port", "p", "8000", "listen port, overrides APP_PORT")
	cmd.Flags().Bool("eager", false, "build every singleton at boot [BEANS_EAGER]")
	_ = v.BindPFlag("port", cmd.Flags().Lookup("port"))
	_ = v.BindPFlag("eager", cmd.Flags().Lookup("eager"))
	return cmd
}
