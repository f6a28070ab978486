// Command shoplist is a CLI client for the shopping-list service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/and161185/shoplist/internal/client"
	"github.com/and161185/shoplist/internal/model"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

type globalOpts struct {
	addr    string
	timeout time.Duration
}

func defaultAddr() string {
	if v := os.Getenv("SHOPLIST_ADDR"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

// newRootCmd builds the command tree writing to out.
func newRootCmd(out io.Writer) *cobra.Command {
	opts := &globalOpts{}

	root := &cobra.Command{
		Use:           "shoplist",
		Short:         "shoplist - ordered shopping list client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.addr, "addr", defaultAddr(), "server base URL (env SHOPLIST_ADDR)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")

	newClient := func() *client.Client { return client.New(opts.addr, opts.timeout) }

	root.AddCommand(
		versionCmd(),
		listCmd(newClient),
		addCmd(newClient),
		toggleCmd(newClient),
		reorderCmd(newClient),
		swapCmd(newClient),
		healthCmd(newClient),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "shoplist %s (%s)\n", version, buildDate)
		},
	}
}

func listCmd(newClient func() *client.Client) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := newClient().List(cmd.Context())
			if err != nil {
				return err
			}
			return printItems(cmd.OutOrStdout(), items, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func addCmd(newClient func() *client.Client) *cobra.Command {
	var (
		shopped bool
		index   int32
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newClient().Add(cmd.Context(), model.NewItem{Name: args[0], IsShopped: shopped, OrderIndex: index})
		},
	}
	cmd.Flags().BoolVar(&shopped, "shopped", false, "mark as already shopped")
	cmd.Flags().Int32Var(&index, "index", 0, "order_index (index strategy only)")
	return cmd
}

func toggleCmd(newClient func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip the shopped flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return newClient().Toggle(cmd.Context(), id)
		},
	}
}

func reorderCmd(newClient func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <id> [--] <order_index>",
		Short: "Set an item's order_index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			idx, err := strconv.ParseInt(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("bad order_index %q: %w", args[1], err)
			}
			return newClient().Reorder(cmd.Context(), id, int32(idx))
		},
	}
}

func swapCmd(newClient func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "swap <id_a> <id_b>",
		Short: "Exchange the positions of two items",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parseID(args[0])
			if err != nil {
				return err
			}
			b, err := parseID(args[1])
			if err != nil {
				return err
			}
			return newClient().Swap(cmd.Context(), a, b)
		},
	}
}

func healthCmd(newClient func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the server can reach its store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := newClient().Health(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

// ---- utils ----

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad id %q: %w", s, err)
	}
	return id, nil
}

func printItems(w io.Writer, items []model.Item, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}
	if len(items) == 0 {
		fmt.Fprintln(w, "No items.")
		return nil
	}
	for _, it := range items {
		mark := " "
		if it.IsShopped {
			mark = "x"
		}
		fmt.Fprintf(w, "[%s] %d. %s (order %d)\n", mark, it.ID, it.Name, it.OrderIndex)
	}
	return nil
}

// ---- main ----

// main runs the command tree and exits non-zero on failure.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		cancel()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
