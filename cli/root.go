// Package cli hosts the aura command tree: the service entrypoint plus
// thin HTTP-client commands against a running instance.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const defaultServerURL = "http://localhost:8080"

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "aura",
		Short:         "Aura multi-engine consciousness analysis service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("server-url", "", "base URL of a running aura server (default $AURA_SERVER_URL or "+defaultServerURL+")")
	root.PersistentFlags().String("env-file", "", "load environment variables from this file before anything else")
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if envFile != "" {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("load env file %s: %w", envFile, err)
			}
			return nil
		}
		// A .env next to the binary is honoured when present.
		if _, err := os.Stat(".env"); err == nil {
			_ = godotenv.Load(".env")
		}
		return nil
	}
	root.AddCommand(
		ServeCmd(),
		EnginesCmd(),
		CalcCmd(),
		WorkflowCmd(),
		VersionCmd(),
	)
	return root
}

func serverURL(cmd *cobra.Command) string {
	if flag, _ := cmd.Flags().GetString("server-url"); flag != "" {
		return flag
	}
	if env := os.Getenv("AURA_SERVER_URL"); env != "" {
		return env
	}
	return defaultServerURL
}
