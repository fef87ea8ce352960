package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/primio/internal/config"
	"github.com/Faultbox/primio/internal/console"
	"github.com/Faultbox/primio/internal/logger"
	"github.com/Faultbox/primio/internal/reimport"
	"github.com/Faultbox/primio/internal/repo"
	"github.com/Faultbox/primio/internal/scene"
	"github.com/Faultbox/primio/pkg/rid"
)

// pollInterval is how often the foreground checks on a running import.
const pollInterval = 33 * time.Millisecond

var spinner = []byte(`|/-\`)

// loadEnvironment parses flags, loads config and logging, and opens the
// runtime directory's resource graph.
func loadEnvironment(fs *flag.FlagSet, args []string) (*config.Config, *repo.Graph) {
	cfgFlags := config.RegisterFlags(fs)
	fs.Parse(args)

	cfg, err := config.Load(cfgFlags)
	if err != nil {
		fatalf("loading config: %v", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fatalf("initializing logger: %v", err)
	}
	if cfgFlags.SaveRequested() {
		if err := cfg.Save(); err != nil {
			fatalf("saving config: %v", err)
		}
		logger.Info("config saved", zap.String("path", config.UserConfigPath()))
	}
	if cfg.Runtime.Dir == "" {
		fatalf("no runtime directory; pass -runtime or set runtime.dir in %s", config.ConfigDir())
	}

	graph, err := repo.Open(cfg.Runtime.Dir, logger.Log)
	if err != nil {
		fatalf("loading resource graph: %v", err)
	}
	logger.Sugar.Debugf("resource graph: %d resources in %d archives", graph.Len(), len(graph.Archives()))
	return cfg, graph
}

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	output := fs.String("o", "", "Output archive (default: next patch of the resource's archive family)")
	deletions := fs.String("delete", "", "Deletion list: text containing 16 hex digit resource ids")
	deletionFile := fs.String("delete-file", "", "Read the deletion list from a file")
	watch := fs.Bool("watch", false, "Re-import every time the scene file is saved")
	cfg, graph := loadEnvironment(fs, args)
	defer graph.Close()
	defer logger.Sync()
	defer func() {
		hits, misses := graph.CacheStats()
		logger.Debug("resource cache", zap.Int("hits", hits), zap.Int("misses", misses))
	}()

	if fs.NArg() < 1 {
		fatalf("usage: primio import [options] <scene.gltf>")
	}
	scenePath := fs.Arg(0)

	deletionText := *deletions
	if *deletionFile != "" {
		data, err := os.ReadFile(*deletionFile)
		if err != nil {
			fatalf("reading deletion list: %v", err)
		}
		deletionText += "\n" + string(data)
	}

	outputPath := *output
	if outputPath == "" {
		id, err := rid.FromPath(scenePath)
		if err != nil {
			fatalf("%v", err)
		}
		outputPath, err = reimport.DefaultOutputPath(graph, cfg.Runtime.Dir, id)
		if err != nil {
			fatalf("choosing output archive: %v", err)
		}
	}

	rec := &console.Recorder{}
	var con console.Console = rec
	if cfg.Logging.LogFile != "" {
		fileLog, err := logger.New(cfg.Logging.Level, logger.DefaultFileConfig(cfg.Logging.LogFile), false)
		if err != nil {
			logger.Warn("status log file unavailable", zap.String("path", cfg.Logging.LogFile), zap.Error(err))
		} else {
			con = console.Tee{rec, console.NewLogConsole(fileLog.Named("status"))}
		}
	}

	imp := reimport.New(graph, scene.NewLoader(logger.Log), con, logger.Log)
	req := reimport.Request{
		ScenePath:    scenePath,
		OutputPath:   outputPath,
		DeletionText: deletionText,
		Options:      reimport.OptionsFromConfig(cfg.Import),
	}

	if *watch {
		watchImport(imp, req, rec)
		return
	}

	_, err := waitWithSpinner(reimport.Start(imp, req), rec)
	exitOnImportError(err)
}

// waitWithSpinner polls the task, printing status lines as they arrive.
func waitWithSpinner(task *reimport.Task, rec *console.Recorder) (*reimport.Result, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	frame := 0
	for !task.Finished() {
		<-ticker.C
		printLines(rec.Drain())
		fmt.Fprintf(os.Stderr, "\r%c ", spinner[frame%len(spinner)])
		frame++
	}
	fmt.Fprint(os.Stderr, "\r  \r")

	res, err := task.Wait()
	printLines(rec.Drain())
	return res, err
}

func printLines(lines []console.Line) {
	for _, l := range lines {
		if l.Kind == console.KindError {
			fmt.Fprintf(os.Stderr, "\rError: %s\n", l.Text)
		} else {
			fmt.Printf("\r%s\n", l.Text)
		}
	}
}

func exitOnImportError(err error) {
	if err == nil {
		return
	}
	if reimport.IsFatal(err) {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(2)
	}
	os.Exit(1)
}

func watchImport(imp *reimport.Importer, req reimport.Request, rec *console.Recorder) {
	runner := reimport.NewRunner(imp)
	task, err := runner.Start(req)
	if err != nil {
		fatalf("%v", err)
	}
	if _, err := waitWithSpinner(task, rec); reimport.IsFatal(err) {
		exitOnImportError(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("Watching %s (Ctrl+C to stop)\n", req.ScenePath)
	err = reimport.Watch(ctx, runner, req, logger.Log, func(_ *reimport.Result, err error) {
		printLines(rec.Drain())
		if reimport.IsFatal(err) {
			logger.Error("fatal import error", zap.Error(err))
		}
	})
	if err != nil {
		fatalf("watching %s: %v", req.ScenePath, err)
	}
}
