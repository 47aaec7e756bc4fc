// Package main provides the ccc CLI entrypoint.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/collctx/ccc/internal/config"
	"github.com/collctx/ccc/internal/contextlog"
	"github.com/collctx/ccc/internal/dispatch"
	"github.com/collctx/ccc/internal/identity"
	"github.com/collctx/ccc/internal/render"
	"github.com/collctx/ccc/internal/store"
)

var version = "0.4.0"

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(dispatch.ExitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	var (
		pretty     bool
		configRoot string
	)

	cmd := &cobra.Command{
		Use:   "ccc [command...]",
		Short: "Collective Context Commander - multi-agent session and context tool",
		Long: `ccc lets several AI coding-assistant instances collaborate on a shared
project by exchanging short messages and persisting per-agent session
state between invocations.

Commands abbreviate: "ccc se sta cl2" expands to "ccc session start cl2".
Run "ccc help" for the full command list.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDispatcher(cmd, pretty, configRoot)
			if err != nil {
				return err
			}

			tokens := args
			free := ""
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				tokens = args[:dash]
				free = strings.Join(args[dash:], " ")
			}
			return d.Dispatch(tokens, free)
		},
	}

	// Global flags must precede the command; everything after the first
	// command token belongs to the abbreviation engine.
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVar(&pretty, "pretty", render.StdoutIsTerminal(), "Pretty print output")
	cmd.Flags().StringVar(&configRoot, "config-root", "", "State directory (default $CCC_CONFIG_ROOT or ~/.ccc)")
	cmd.CompletionOptions.DisableDefaultCmd = true

	return cmd
}

func buildDispatcher(cmd *cobra.Command, pretty bool, configRoot string) (*dispatch.Dispatcher, error) {
	env := config.Environment()
	if configRoot == "" {
		configRoot = env.ConfigRoot
	}

	paths := config.NewPaths(configRoot)
	if err := paths.Ensure(); err != nil {
		return nil, err
	}

	defs, err := config.LoadAgents(paths.AgentsFile)
	if err != nil {
		return nil, err
	}
	agents, err := identity.NewTable(defs)
	if err != nil {
		return nil, err
	}

	sessions, err := store.New(paths.Sessions, paths.Locks,
		store.WithLockTimeout(env.LockTimeout),
		store.WithLockStaleAfter(env.LockStaleAfter))
	if err != nil {
		return nil, err
	}

	contexts, err := contextlog.New(paths.Context, paths.Locks,
		contextlog.WithLockTimeout(env.LockTimeout),
		contextlog.WithLockStaleAfter(env.LockStaleAfter))
	if err != nil {
		return nil, err
	}

	return dispatch.New(dispatch.Deps{
		Agents:     agents,
		Sessions:   sessions,
		Contexts:   contexts,
		Renderer:   render.New(pretty),
		Out:        cmd.OutOrStdout(),
		Self:       env.Agent,
		Version:    version,
		ConfigRoot: configRoot,
	})
}
