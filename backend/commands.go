package main

import (
	"encoding/json"
	"fmt"
	"io"

	"compliance-feed/backend/app/db"
	"compliance-feed/backend/app/services"
	"compliance-feed/backend/global"
	"compliance-feed/backend/initialize"
	"compliance-feed/backend/server"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newRootCmd() *cobra.Command {
	var configPath string
	rootCmd := &cobra.Command{
		Use:          "backend",
		Short:        "Command status tracking and query service",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")

	rootCmd.AddCommand(
		newServeCmd(&configPath),
		newMigrateCmd(&configPath),
		newStatusCmd(&configPath),
		newResolveCmd(&configPath),
	)
	return rootCmd
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP query API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := initialize.Build(ctx, *configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			// either one failing stops the other
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				if err := app.Agents.Watch(gctx); err != nil {
					return fmt.Errorf("agent map watch: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				return server.ServeHTTP(gctx, app.Cfg.HTTP.Host, app.Cfg.HTTP.Port, app.Router)
			})
			return g.Wait()
		},
	}
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := initialize.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			gdb, err := initialize.ConnectDB(cfg)
			if err != nil {
				return err
			}
			if err := db.Migrate(gdb); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			global.Logger.Info().Str("driver", cfg.DB.Driver).Msg("schema migrated")
			return nil
		},
	}
}

func newStatusCmd(configPath *string) *cobra.Command {
	var unredacted bool
	cmd := &cobra.Command{
		Use:   "status <commandId>",
		Short: "Print the status of one command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := initialize.Build(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			resp, err := app.Status.ByCommandID(cmd.Context(), args[0], services.QueryOptions{Unredacted: unredacted})
			if err != nil {
				return err
			}
			if resp == nil {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "command not found")
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().BoolVar(&unredacted, "unredacted", false, "show confidential fields")
	return cmd
}

func newResolveCmd(configPath *string) *cobra.Command {
	var clientVersion string
	cmd := &cobra.Command{
		Use:   "resolve <commandId> <agentId> <assetGroupId>",
		Short: "Resolve one target of a command against history and the live queue",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := initialize.Build(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := app.Resolver.Resolve(cmd.Context(), services.ResolveRequest{
				CommandID:     args[0],
				AgentID:       args[1],
				AssetGroupID:  args[2],
				ClientVersion: clientVersion,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{"responseCode": res.Code, "command": res.Command})
		},
	}
	cmd.Flags().StringVar(&clientVersion, "client-version", "", "caller protocol version used for the multi-tenant subject gate")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
