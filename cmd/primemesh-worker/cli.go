package main

import (
    "context"

    "github.com/spf13/cobra"
)

// Options holds CLI options for the worker.
type Options struct {
    ConfigPath string
    Replicas   int
    Transport  string
    LogLevel   string
}

func newRootCmd(ctx context.Context, d deps, code *int) *cobra.Command {
    var opts Options
    cmd := &cobra.Command{
        Use:   "primemesh-worker",
        Short: "Wait for a primemesh master announcement and evaluate the chunks it sends",
        Example: `  primemesh-worker
  primemesh-worker --replicas 4 --transport quic`,
        Args:          cobra.NoArgs,
        SilenceUsage:  true,
        SilenceErrors: true,
        RunE: func(cmd *cobra.Command, _ []string) error {
            *code = run(ctx, opts, d)
            return nil
        },
    }
    cmd.CompletionOptions.DisableDefaultCmd = true
    f := cmd.Flags()
    f.StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
    f.IntVar(&opts.Replicas, "replicas", 0, "worker runtimes hosted by this process (default from config, 1)")
    f.StringVar(&opts.Transport, "transport", "", "peer transport: tcp or quic")
    f.StringVar(&opts.LogLevel, "log-level", "", "debug, info, warn or error")
    return cmd
}
