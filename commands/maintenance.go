package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"realestate-agent/config"
)

func cacheCmd(o *config.Overrides) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the Redis cache",
	}

	var pattern string
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete cached entries (all, or those matching --pattern)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), o)
			if err != nil {
				return err
			}
			defer a.close()

			if !a.cache.Enabled() {
				return fmt.Errorf("cache is not available")
			}
			if pattern == "" {
				a.cache.Clear(cmd.Context())
				fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
				return nil
			}
			n := a.cache.InvalidatePattern(cmd.Context(), pattern)
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d keys matching %q.\n", n, pattern)
			return nil
		},
	}
	clearCmd.Flags().StringVar(&pattern, "pattern", "", `glob of keys to delete, e.g. "search:*"`)

	cmd.AddCommand(clearCmd)
	return cmd
}

func healthCmd(o *config.Overrides) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check database and cache connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), o)
			if err != nil {
				return err
			}
			defer a.close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a.healthChecker().Check(cmd.Context()))
		},
	}
}
