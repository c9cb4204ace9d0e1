package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/treefs/treefs"
	"github.com/treefs/treefs/config"
	"github.com/treefs/treefs/internal/util"
	"github.com/treefs/treefs/osfs"
)

func main() {
	// Parse command line arguments
	var (
		configPath string
		verbose    int
		doWatch    bool
		interval   float64
	)
	flag.StringVar(&configPath, "config", "", "Path to config file (yaml or json)")
	flag.StringVar(&configPath, "c", "", "--config (shorthand)")
	flag.BoolVar(&doWatch, "watch", false, "Watch the path for changes and print events until interrupted")
	flag.BoolVar(&doWatch, "w", false, "--watch (shorthand)")
	flag.Float64Var(&interval, "interval", 30, "Polling interval in seconds when the polling watch backend is used")
	flag.IntVar(&verbose, "verbose", 3, "Log verbosity level between 1 (error) and 5 (trace). Default is 3 (info).")
	flag.IntVar(&verbose, "v", 3, "--verbose (shorthand)")
	flag.Parse()

	// Initialize logger
	if verbose < 1 {
		verbose = 1
	}
	if verbose > 5 {
		verbose = 5
	}
	logLvls := [5]util.LogLevel{util.ErrorLevel, util.WarnLevel, util.InfoLevel, util.DebugLevel, util.TraceLevel}
	util.InitializeLogger(logLvls[verbose-1])
	logger := util.GetLogger("main")

	cfg := config.NewDefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = config.NewConfigFromFile(configPath)
		if err != nil {
			logger.Fatal().Err(err).Str("config", configPath).Msg("Failed to load config file")
		}
	}

	location := flag.Arg(0)
	fs, err := osfs.New("", cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize filesystem driver")
	}
	logger.Info().Str("root", fs.Identity().FilePath()).Bool("caseSensitive", fs.CaseSensitive()).Msg("Filesystem driver initialized")

	var entity treefs.Entity
	if location == "" {
		entity = fs.Root()
	} else {
		entity, err = fs.Resolve(location)
		if err != nil {
			logger.Fatal().Err(err).Str("path", location).Msg("Failed to resolve path")
		}
	}

	if d, ok := entity.(treefs.Directory); ok {
		children, err := d.Children()
		if err != nil {
			logger.Fatal().Err(err).Str("path", location).Msg("Failed to list directory")
		}
		for _, child := range children {
			kind := "file"
			if _, ok := child.(treefs.Directory); ok {
				kind = "dir"
			}
			logger.Info().Str("type", kind).Msg(child.Identity().FilePath())
		}
	}

	if !doWatch {
		return
	}

	w, err := entity.AddWatch(func(path string, op treefs.Op) {
		logger.Info().Str("op", string(op)).Msg(path)
	}, time.Duration(interval*float64(time.Second)))
	if err != nil {
		logger.Fatal().Err(err).Str("path", location).Msg("Failed to register watch")
	}
	logger.Info().Str("path", entity.Identity().FilePath()).Msg("Watching for changes, Ctrl-C to stop")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	w.Cancel()
	<-w.Done()
	logger.Info().Msg("Watch stopped")
}
