package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/batchstore/internal/config"
)

func channelsCmd() *cobra.Command {
	var configDir string

	cmd := &cobra.Command{
		Use:   "channels",
		Short: "List the channels declared in batchstore.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configDir)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(cfg.Channels) == 0 {
				fmt.Fprintln(out, "no channels configured")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CHANNEL\tKIND\tSETTINGS")
			for _, name := range cfg.ChannelNames() {
				ch := cfg.Channels[name]
				fmt.Fprintf(tw, "%s\t%s\t%s\n", name, ch.Kind, describe(ch))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&configDir, "config", "c", ".", "Directory containing batchstore.json")
	return cmd
}

func describe(ch config.ChannelConfig) string {
	switch ch.Kind {
	case config.KindThrottle:
		return "interval=" + ch.Interval.Std().String()
	case config.KindDebounce:
		s := "wait=" + ch.Wait.Std().String()
		if ch.MaxWait > 0 {
			s += " maxWait=" + ch.MaxWait.Std().String()
		}
		return s
	case config.KindBudget:
		return fmt.Sprintf("window=%s max=%d", ch.Window.Std(), ch.Max)
	default:
		return "-"
	}
}
