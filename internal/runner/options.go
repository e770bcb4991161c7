package runner

import (
	"os"
	"strconv"

	"github.com/logrusorgru/aurora/v4"
	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/formatter"
	"github.com/projectdiscovery/gologger/levels"
	envutil "github.com/projectdiscovery/utils/env"
)

var au *aurora.Aurora

var (
	ParallelismEnv = envutil.GetEnvOrDefault("LANSCOUT_PARALLELISM", "64")
	IntervalEnv    = envutil.GetEnvOrDefault("LANSCOUT_INTERVAL", "5")
)

// Options contains the configuration options for a scan or monitor run.
type Options struct {
	Interface string
	Cidrs     goflags.StringSlice
	Self      string

	Parallelism    int
	ProbeTimeoutMs int
	SettleMs       int

	Monitor         string
	IntervalSeconds int

	Watch         bool
	RescanSeconds int

	JSON    bool
	Verbose bool
	Silent  bool
	NoColor bool
	Version bool
}

// ParseOptions parses the command line flags provided by a user
func ParseOptions() *Options {
	options := &Options{}
	flagSet := goflags.NewFlagSet()

	flagSet.SetDescription(`lanscout discovers hosts on the local network segment and classifies their hardware addresses as vendor-assigned or locally-administered (randomized)`)

	defaultParallelism := 64
	if val, err := strconv.Atoi(ParallelismEnv); err == nil && val > 0 {
		defaultParallelism = val
	}
	defaultInterval := 5
	if val, err := strconv.Atoi(IntervalEnv); err == nil && val > 0 {
		defaultInterval = val
	}

	flagSet.CreateGroup("input", "Input",
		flagSet.StringVarP(&options.Interface, "interface", "i", "", "network interface to scan (default: auto-detect)"),
		flagSet.StringSliceVarP(&options.Cidrs, "cidr", "c", nil, "additional CIDR ranges to scan (comma separated)", goflags.CommaSeparatedStringSliceOptions),
		flagSet.StringVar(&options.Self, "self", "", "own IPv4 address to exclude from probing (default: interface address)"),
	)

	flagSet.CreateGroup("scan", "Scan",
		flagSet.IntVarP(&options.Parallelism, "parallelism", "p", defaultParallelism, "maximum concurrent probes"),
		flagSet.IntVarP(&options.ProbeTimeoutMs, "probe-timeout", "pt", 150, "per-probe timeout in milliseconds"),
		flagSet.IntVarP(&options.SettleMs, "settle", "st", 2000, "settle window in milliseconds before reading the neighbor table"),
		flagSet.BoolVarP(&options.Watch, "watch", "w", false, "rescan on a cadence and report joined/left hosts"),
		flagSet.IntVarP(&options.RescanSeconds, "rescan", "r", 30, "rescan cadence in seconds for watch mode"),
	)

	flagSet.CreateGroup("monitor", "Monitor",
		flagSet.StringVarP(&options.Monitor, "monitor", "m", "", "poll a single target IP and report ONLINE/OFFLINE each tick"),
		flagSet.IntVarP(&options.IntervalSeconds, "interval", "n", defaultInterval, "monitor poll cadence in seconds"),
	)

	flagSet.CreateGroup("output", "Output",
		flagSet.BoolVarP(&options.JSON, "json", "j", false, "write results as JSON lines"),
		flagSet.BoolVarP(&options.Verbose, "verbose", "v", false, "show verbose output"),
		flagSet.BoolVar(&options.Silent, "silent", false, "show only results"),
		flagSet.BoolVarP(&options.NoColor, "no-color", "nc", false, "disable output content coloring (ANSI escape codes)"),
		flagSet.BoolVar(&options.Version, "version", false, "show version of the project"),
	)

	if err := flagSet.Parse(); err != nil {
		gologger.Fatal().Msgf("%s\n", err)
	}

	options.configureOutput()

	showBanner()

	if options.Version {
		gologger.Info().Msgf("Current Version: %s\n", version)
		os.Exit(0)
	}

	return options
}

// configureOutput configures the output on the screen
func (options *Options) configureOutput() {
	if options.Verbose {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelVerbose)
	}
	if options.Silent {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelSilent)
	}
	if options.NoColor {
		gologger.DefaultLogger.SetFormatter(formatter.NewCLI(true))
	}
	au = aurora.New(aurora.WithColors(!options.NoColor))
}
