package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/0xADE/ade-run/client/run"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var socket string

	cmd := &cobra.Command{
		Use:          "ade-run-cli",
		Short:        "Drive the ade-run-ctld launcher session from the command line",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&socket, "socket", "", "Socket path (default: $ADE_RUN_SOCK or /tmp/ade-<uid>/run)")

	connect := func() (*run.Client, error) {
		if socket != "" {
			return run.Dial(socket)
		}
		return run.NewClient()
	}

	// simple wraps a command that sends one request and prints the reply
	simple := func(use, short string, args cobra.PositionalArgs, do func(c *run.Client, args []string) (*run.Response, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := connect()
				if err != nil {
					return err
				}
				defer client.Close()

				resp, err := do(client, args)
				if resp != nil {
					resp.Print(cmd.OutOrStdout())
				}
				return err
			},
		}
	}

	cmd.AddCommand(
		simple("list", "Show the current view", cobra.NoArgs, func(c *run.Client, _ []string) (*run.Response, error) {
			return c.List()
		}),
		simple("query <text>", "Replace the query text", cobra.MaximumNArgs(1), func(c *run.Client, args []string) (*run.Response, error) {
			return c.Query(strings.Join(args, ""))
		}),
		simple("mode", "Switch to the next mode", cobra.NoArgs, func(c *run.Client, _ []string) (*run.Response, error) {
			return c.CycleMode()
		}),
		simple("setmode <name>", "Switch to the named mode", cobra.ExactArgs(1), func(c *run.Client, args []string) (*run.Response, error) {
			return c.SetMode(args[0])
		}),
		simple("modes", "List the configured modes", cobra.NoArgs, func(c *run.Client, _ []string) (*run.Response, error) {
			return c.Modes()
		}),
		simple("run <row>", "Launch a row of the current view", cobra.ExactArgs(1), func(c *run.Client, args []string) (*run.Response, error) {
			row, err := strconv.Atoi(args[0])
			if err != nil {
				return nil, fmt.Errorf("invalid row %q: %w", args[0], err)
			}
			return c.Run(row)
		}),
		simple("up", "Move the selection up", cobra.NoArgs, func(c *run.Client, _ []string) (*run.Response, error) {
			return c.Up()
		}),
		simple("down", "Move the selection down", cobra.NoArgs, func(c *run.Client, _ []string) (*run.Response, error) {
			return c.Down()
		}),
		simple("reset", "Clear the query and return to the first mode", cobra.NoArgs, func(c *run.Client, _ []string) (*run.Response, error) {
			return c.Reset()
		}),
		simple("cancel", "End the session without launching", cobra.NoArgs, func(c *run.Client, _ []string) (*run.Response, error) {
			return c.Cancel()
		}),
		&cobra.Command{
			Use:   "interactive",
			Short: "Read commands from stdin over one connection",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				client, err := connect()
				if err != nil {
					return err
				}
				defer client.Close()
				return runInteractive(cmd, client)
			},
		},
	)

	return cmd
}

func runInteractive(cmd *cobra.Command, client *run.Client) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	fmt.Fprintln(out, "Interactive mode. Type commands or 'exit' to quit.")
	fmt.Fprint(out, "> ")

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "exit" || line == "quit" {
			break
		}

		// Parse command
		parts, err := shellquote.Split(line)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Invalid input: %v\n", err)
			fmt.Fprint(out, "> ")
			continue
		}
		if len(parts) == 0 {
			fmt.Fprint(out, "> ")
			continue
		}

		args := parts[1:]
		if parts[0] == "query" || parts[0] == "setmode" {
			// Always text, even when it looks like a number
			for i := range args {
				args[i] = `"` + args[i]
			}
		}

		resp, err := client.Do(parts[0], args...)
		if resp != nil {
			resp.Print(out)
		}
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}

		fmt.Fprint(out, "> ")
	}

	return scanner.Err()
}
