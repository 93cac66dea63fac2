package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leofalp/chatrelay/internal/app"
	"github.com/leofalp/chatrelay/internal/config"
	"github.com/leofalp/chatrelay/internal/httpapi"
	"github.com/leofalp/chatrelay/providers/memory"
)

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "chatrelay",
		Short:         "Relay chat messages to an LLM provider with per-user history",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "optional config file (yaml, toml, json)")

	// build resolves configuration and wires the application for a subcommand.
	build := func(cmd *cobra.Command) (*app.App, error) {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		return app.Build(cmd.Context(), cfg, app.WithLogOutput(cmd.ErrOrStderr()))
	}

	root.AddCommand(newServeCmd(build), newHistoryCmd(build))
	return root
}

type buildFunc func(cmd *cobra.Command) (*app.App, error)

func newServeCmd(build buildFunc) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := build(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.Config.HTTPAddr
			}
			return httpapi.NewServer(a.Relay, a.Logger).Run(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides HTTP_ADDR")
	return cmd
}

func newHistoryCmd(build buildFunc) *cobra.Command {
	history := &cobra.Command{
		Use:   "history",
		Short: "Inspect or clear a user's stored conversation",
	}

	var limit int
	show := &cobra.Command{
		Use:   "show <user-id>",
		Short: "Print the most recent messages for a user, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			messages, err := a.Relay.History(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(messages) == 0 {
				fmt.Fprintf(out, "no history for %s\n", args[0])
				return nil
			}
			for _, m := range messages {
				fmt.Fprintf(out, "%s: %s\n", m.Role, strings.TrimSpace(m.Content))
			}
			return nil
		},
	}
	show.Flags().IntVar(&limit, "limit", memory.DefaultHistoryLimit, "number of messages to show")

	clearCmd := &cobra.Command{
		Use:   "clear <user-id>",
		Short: "Delete every stored message for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Relay.Clear(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared history for %s\n", args[0])
			return nil
		},
	}

	history.AddCommand(show, clearCmd)
	return history
}
