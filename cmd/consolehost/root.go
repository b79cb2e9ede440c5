package main

import (
	"strings"

	"github.com/spf13/cobra"
)

const appName = "consolehost"

type options struct {
	dataDir  string
	logLevel string
	headless bool
	boot     string
	elf      string
	uri      string
	rdbPath  string
	ticks    uint64
}

// setTarget sorts a positional argument into a URI or a boot path.
func (o *options) setTarget(arg string) {
	if strings.Contains(arg, "://") {
		o.uri = arg
		return
	}
	o.boot = arg
}

func newRootCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   appName + " [image-or-uri]",
		Short: "Host shell for a console VM core",
		Long: "Runs the VM main loop. An argument containing \"://\" is handled as a\n" +
			"protocol activation URI, anything else as a path to boot.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.setTarget(args[0])
			}
			return run(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dataDir, "data-dir", "", "data directory (default: per-user application data)")
	f.StringVar(&opts.logLevel, "log-level", "info", "log level: trace, debug, info, warn, error")
	f.BoolVar(&opts.headless, "headless", false, "run without a window")
	f.StringVar(&opts.boot, "boot", "", "disc image, archive or ELF to boot")
	f.StringVar(&opts.elf, "elf", "", "executable to boot instead of the disc's own")
	f.StringVar(&opts.uri, "uri", "", "protocol activation URI")
	f.StringVar(&opts.rdbPath, "rdb", "", "game database (default: <data-dir>/resources/"+defaultRDB+")")
	f.Uint64Var(&opts.ticks, "ticks", 0, "stop the session after this many ticks (0 = no limit)")

	cmd.MarkFlagsMutuallyExclusive("boot", "uri")

	return cmd
}
