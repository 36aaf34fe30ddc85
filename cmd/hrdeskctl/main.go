package main

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"time"

	json "github.com/goccy/go-json"
	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/hrdesk/hrdesk/cmd/hrdeskctl/cli"
	"github.com/hrdesk/hrdesk/internal/rbac"
)

var redisAddr string

func main() {
	rootCmd := &cobra.Command{
		Use:   "hrdeskctl",
		Short: "Operator tooling for the HR desk API",
	}

	defaultRedis := os.Getenv("REDIS_ADDR")
	if defaultRedis == "" {
		defaultRedis = "127.0.0.1:6379"
	}
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", defaultRedis, "Redis address used by the job queue")

	rootCmd.AddCommand(permissionsCmd(), jobsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func permissionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permissions",
		Short: "Inspect the permission catalog",
	}
	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List every permission key with its display name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.WritePermissions(cmd.OutOrStdout(), rbac.DefaultCatalog(), asJSON)
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	cmd.AddCommand(list)
	return cmd
}

func jobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Manage background jobs",
	}

	trigger := &cobra.Command{
		Use:   "trigger <job>",
		Short: "Enqueue a job now (supported: " + cli.JobPurgeTokens + ")",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cli.NewJobsCLI(asynq.RedisClientOpt{Addr: redisAddr})
			defer c.Close()
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			info, err := c.Trigger(ctx, args[0], operator())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show default queue statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cli.NewJobsCLI(asynq.RedisClientOpt{Addr: redisAddr})
			defer c.Close()
			s, err := c.InspectQueue(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		},
	}

	cmd.AddCommand(trigger, stats)
	return cmd
}

func operator() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "hrdeskctl"
}
