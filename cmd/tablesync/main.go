// Command tablesync loads a catalog feed into relational tables.
//
//	tablesync --config job.yaml tables
//	tablesync --config job.yaml ddl offers
//	tablesync --config job.yaml sync offers
//	tablesync --config job.yaml sync-all
//	tablesync --config job.yaml validate
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	// register all backends with the storage factory; the job file picks one.
	_ "github.com/bayduroff/tableService/internal/storage/all"
)

// errTablesFailed marks a sync-all run that finished with failed tables. The
// failures have already been printed.
var errTablesFailed = errors.New("one or more tables failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errTablesFailed) {
			fmt.Fprintf(os.Stderr, "tablesync: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	cfgPath string
	verbose bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:           "tablesync",
		Short:         "Load a catalog feed into relational tables",
		Long:          "Reads an XML catalog feed, infers one table per collection and creates, verifies and upserts those tables in the configured database.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.PersistentFlags().StringVar(&g.cfgPath, "config", "tablesync.yaml", "job config path (.json, .yaml or .yml)")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose logs")

	rootCmd.AddCommand(
		newTablesCmd(g),
		newDDLCmd(g),
		newSyncCmd(g),
		newSyncAllCmd(g),
		newValidateCmd(g),
	)
	return rootCmd
}

// tablesCmd lists the tables a feed yields
func newTablesCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables found in the feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJob(cmd, g, false, func(j *job) error {
				names, err := j.orch.ListTables(cmd.Context())
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			})
		},
	}
}

// ddlCmd prints the canonical CREATE TABLE statement of one table
func newDDLCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "ddl [table]",
		Short: "Print the CREATE TABLE statement inferred for a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJob(cmd, g, false, func(j *job) error {
				stmt, err := j.orch.DescribeTable(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), stmt)
				return nil
			})
		},
	}
}

func newSyncCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "sync [table]",
		Short: "Create or verify one table and upsert its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJob(cmd, g, true, func(j *job) error {
				res, err := j.orch.SyncTable(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printResult(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
}

func newSyncAllCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-all",
		Short: "Sync every table in the feed",
		Long:  "Syncs every table in document order. A failing table does not stop the others; the command exits non-zero if any table failed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJob(cmd, g, true, func(j *job) error {
				rep, err := j.orch.SyncAll(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, res := range rep.Results {
					printResult(out, res)
				}
				for _, f := range rep.Failures {
					fmt.Fprintf(out, "%s: failed: %v\n", f.Table, f.Err)
				}
				fmt.Fprintf(out, "synced %d of %d tables, %d rows\n",
					len(rep.Results), len(rep.Results)+len(rep.Failures), rep.Rows())
				if len(rep.Failures) > 0 {
					return errTablesFailed
				}
				return nil
			})
		},
	}
}

func newValidateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the job config and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadJobConfig(cmd.ErrOrStderr(), g.cfgPath, true); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration is valid: %s\n", g.cfgPath)
			return nil
		},
	}
}
