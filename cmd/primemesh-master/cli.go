package main

import (
    "context"
    "io"
    "time"

    "github.com/spf13/cobra"
)

// Options holds CLI options for the master. Zero values leave the config
// file or environment in charge.
type Options struct {
    ConfigPath string
    Window     time.Duration
    Transport  string
    Listen     string
    LogLevel   string
}

// newRootCmd wires flags to Options and stores run's exit code in *code.
func newRootCmd(ctx context.Context, in io.Reader, out io.Writer, d deps, code *int) *cobra.Command {
    var opts Options
    cmd := &cobra.Command{
        Use:   "primemesh-master",
        Short: "Decide whether the integers on stdin contain a composite number",
        Long: `primemesh-master reads whitespace-separated integers from stdin, announces
itself on the local multicast group, hands one chunk to every worker that
connects and prints the verdict.

Exit codes: 0 verdict printed, 1 no input, 2 unparseable input,
3 failure, 4 no workers discovered.`,
        Example: `  echo "2 3 5 7 11 13" | primemesh-master
  primemesh-master --window 2s --transport quic < numbers.txt`,
        Args:          cobra.NoArgs,
        SilenceUsage:  true,
        SilenceErrors: true,
        RunE: func(cmd *cobra.Command, _ []string) error {
            *code = run(ctx, opts, in, out, d)
            return nil
        },
    }
    cmd.CompletionOptions.DisableDefaultCmd = true
    f := cmd.Flags()
    f.StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
    f.DurationVar(&opts.Window, "window", 0, "discovery inactivity window (default from config, 5s)")
    f.StringVar(&opts.Transport, "transport", "", "peer transport: tcp or quic")
    f.StringVar(&opts.Listen, "listen", "", "listen address (default from config, :6000)")
    f.StringVar(&opts.LogLevel, "log-level", "", "debug, info, warn or error")
    return cmd
}
