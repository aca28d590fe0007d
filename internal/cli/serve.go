package cli

import (
	"github.com/spf13/cobra"

	"pixelflow/internal/server"
)

func ServeAppCommand(root *rootOpts) *cobra.Command {
	var port string

	command := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the image processing API",
		Example: "pixelflow serve --port 3001",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}
			return server.StartServer(cmd.Context(), cfg)
		},
	}

	command.Flags().StringVar(&port, "port", "", "Port on which to start the server, overrides PORT")

	return command
}
