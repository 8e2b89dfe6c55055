package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"substweet/internal/config"
	"substweet/internal/logging"
	"substweet/internal/poststate"
	"substweet/internal/services"
)

func newStateCommand(ctx *commandContext) *cobra.Command {
	var statePath string

	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or reset the resume state file",
	}
	stateCmd.PersistentFlags().StringVarP(&statePath, "state", "s", "", "State file (defaults to paths.state_file)")

	resolve := func() (*poststate.Store, error) {
		cfg, err := ctx.ensureConfig()
		if err != nil {
			return nil, err
		}
		path := cfg.Paths.StateFile
		if strings.TrimSpace(statePath) != "" {
			if path, err = config.ExpandPath(statePath); err != nil {
				return nil, err
			}
		}
		if path == "" {
			return nil, services.Wrap(services.ErrConfiguration, "state", "resolve", "no state file configured; pass --state or set paths.state_file", nil)
		}
		return poststate.NewStore(path, logging.NewNop()), nil
	}

	stateCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the saved resume point",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := resolve()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "State file: %s\n", store.Path())
			if _, err := os.Stat(store.Path()); os.IsNotExist(err) {
				fmt.Fprintln(out, "No saved state; the next run starts at the first caption")
				return nil
			}
			state := store.Load()
			if state.Skip != nil {
				fmt.Fprintf(out, "Resume at caption: %d\n", *state.Skip)
			} else {
				fmt.Fprintln(out, "Resume at caption: first")
			}
			if state.Parent != nil {
				fmt.Fprintf(out, "Thread parent: %s\n", *state.Parent)
			} else {
				fmt.Fprintln(out, "Thread parent: none")
			}
			return nil
		},
	})

	stateCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the saved resume point",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := resolve()
			if err != nil {
				return err
			}
			unlock, err := store.Lock()
			if err != nil {
				return err
			}
			defer unlock()
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", store.Path())
			return nil
		},
	})

	return stateCmd
}
