package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aeon-video/sceneforge/internal/config"
	"github.com/aeon-video/sceneforge/internal/provider"
)

// NewProvidersCmd creates the providers command
func NewProvidersCmd(app *App) *cobra.Command {
	var capability string

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List configured generation providers",
		Long:  `Display the provider registry in fallback order, with limits and pricing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			cfg, err := config.Load(wd)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			registry, err := cfg.Registry()
			if err != nil {
				return fmt.Errorf("invalid provider registry: %w", err)
			}
			return printProviders(cmd.OutOrStdout(), registry, capability)
		},
	}

	cmd.Flags().StringVar(&capability, "capability", "", "Only show providers with this capability tag")

	return cmd
}

func printProviders(w io.Writer, registry *provider.Registry, capability string) error {
	ids := registry.IDs()
	if capability != "" {
		ids = registry.WithCapability(capability)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No providers match.")
		return nil
	}

	fmt.Fprintf(w, "%-10s %-35s %-8s %-8s %s\n", "ID", "MODEL", "MAX", "PRICE", "CAPABILITIES")
	for _, id := range ids {
		desc, _ := registry.Get(id)

		maxDur := "-"
		if desc.MaxUnitDurationSec > 0 {
			maxDur = fmt.Sprintf("%ds", desc.MaxUnitDurationSec)
		}

		caps := make([]string, 0, len(desc.Capabilities))
		for tag := range desc.Capabilities {
			caps = append(caps, tag)
		}
		sort.Strings(caps)

		fmt.Fprintf(w, "%-10s %-35s %-8s $%-7.2f %s\n",
			desc.ID,
			desc.UpstreamModel,
			maxDur,
			desc.PricePerUnit,
			strings.Join(caps, ", "),
		)
	}
	return nil
}
