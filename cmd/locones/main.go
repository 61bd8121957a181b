// Package main implements the locones conformance runner: it executes ROMs
// on the emulated NES CPU and checks every instruction against a reference
// trace such as the published nestest log.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"

	"github.com/moriano/locones/internal/app"
	"github.com/moriano/locones/internal/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		romFile    = flag.String("rom", "", "Path to an iNES ROM; runs a single suite instead of the config file")
		logFile    = flag.String("log", "", "Reference trace for -rom")
		startPC    = flag.String("start-pc", "", "Hex start address for -rom (default: reset vector)")
		steps      = flag.Int("steps", 0, "Stop after this many instructions (0: whole log)")
		checkPPU   = flag.Bool("check-ppu", false, "Also compare the PPU scanline and dot")
		printTrace = flag.Bool("print-trace", false, "Print every executed instruction in trace format")
		configFile = flag.String("config", "", "Path to configuration file")
		suiteName  = flag.String("suite", "", "Run only the named suite from the configuration file")
		help       = flag.Bool("help", false, "Show help message")
		showVer    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()
	defer glog.Flush()

	if *help {
		printUsage()
		return 0
	}
	if *showVer {
		version.PrintBuildInfo(os.Stdout)
		return 0
	}

	config := app.NewConfig()
	if *romFile != "" {
		suite := app.SuiteConfig{
			ROM:      *romFile,
			Log:      *logFile,
			StartPC:  *startPC,
			MaxSteps: *steps,
			CheckPPU: *checkPPU,
		}
		if err := config.UseSuite(suite); err != nil {
			fmt.Fprintf(os.Stderr, "locones: %v\n", err)
			return 2
		}
	} else {
		path := *configFile
		if path == "" {
			path = app.GetDefaultConfigPath()
		}
		if err := config.LoadFromFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "locones: %v\n", err)
			return 2
		}
		if !config.IsLoaded() {
			glog.Infof("wrote default configuration to %s", config.GetConfigPath())
		} else {
			glog.V(1).Infof("using configuration %s", config.GetConfigPath())
		}
		if *suiteName != "" {
			suite, ok := config.Suite(*suiteName)
			if !ok {
				fmt.Fprintf(os.Stderr, "locones: no suite named %q in %s\n", *suiteName, config.GetConfigPath())
				return 2
			}
			if err := config.UseSuite(suite); err != nil {
				fmt.Fprintf(os.Stderr, "locones: %v\n", err)
				return 2
			}
		}
	}
	if *printTrace {
		config.Trace.PrintTrace = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	glog.V(1).Infof("%s", version.GetBuildInfo())
	results, err := app.NewRunner(config, os.Stdout).RunAll(ctx)

	report := app.NewReport(os.Stdout, config.Trace.Color)
	for _, res := range results {
		if res == nil {
			continue
		}
		if werr := report.Write(res); werr != nil {
			glog.Errorf("writing report: %v", werr)
		}
	}
	failed, werr := report.Summary(results)
	if werr != nil {
		glog.Errorf("writing summary: %v", werr)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "locones: interrupted: %v\n", err)
		return 130
	}
	if failed > 0 {
		return 1
	}
	return 0
}

func printUsage() {
	fmt.Println("locones - NES CPU conformance emulator")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  locones [options]                           # Run every suite in the config file")
	fmt.Println("  locones -rom <file> -log <file> [options]   # Run one ROM against one trace")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  locones -rom nestest.nes -log nestest.log -start-pc C000")
	fmt.Println("  locones -rom nestest.nes -log nestest.log -start-pc C000 -steps 5000 -print-trace")
	fmt.Println("  locones -config suites.json -v=1 -logtostderr")
	fmt.Println("  locones -config suites.json -suite nestest")
	fmt.Println()
	fmt.Println("CONFIGURATION:")
	fmt.Printf("  Config file: %s\n", app.GetDefaultConfigPath())
	fmt.Println()
	fmt.Println("SUPPORTED FORMATS:")
	fmt.Println("  - iNES (.nes), NROM (Mapper 0)")
	fmt.Println("  - nestest-style traces (PPU:sss,ddd CYC:n, CPUC:n or CYC:ddd SL:sss)")
}
