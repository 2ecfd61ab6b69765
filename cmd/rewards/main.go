package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/bytspot/rewards/internal/achievement"
	"github.com/bytspot/rewards/internal/analytics"
	"github.com/bytspot/rewards/internal/config"
	"github.com/bytspot/rewards/internal/core"
	"github.com/bytspot/rewards/internal/engine"
	"github.com/bytspot/rewards/internal/scheduler"
	"github.com/bytspot/rewards/internal/score"
	"github.com/bytspot/rewards/internal/surface"
)

var BUILD_VERSION = "dev"

//go:embed config.default.yaml
var DEFAULT_CONFIG []byte

var configFile = flag.String("config", "", "use a custom config file instead of ~/.config/rewards/config.yaml")
var catalogFile = flag.String("catalog", "", "load achievements from a YAML catalog instead of the built-in one")
var unlockList = flag.String("unlock", "", "comma-separated achievement ids to unlock at startup")
var seed = flag.Uint64("seed", 0, "seed for reproducible randomness (0 seeds from the clock)")
var duration = flag.Duration("duration", time.Minute, "how long a headless run lasts")
var headless = flag.Bool("headless", false, "run without the terminal UI")
var statsFlag = flag.Bool("stats", false, "print recorded unlock statistics and exit")
var initConfig = flag.Bool("init-config", false, "write the default config file if none exists")

var helpFlag = flag.Bool("h", false, "display help information")
var versionFlag = flag.Bool("ver", false, "display build version")

const shutdownTimeout = time.Second

func main() {
	flag.Parse()
	os.Exit(realMain())
}

// realMain returns the process exit code so deferred cleanup runs before
// main exits
func realMain() int {
	if *versionFlag {
		fmt.Println(BUILD_VERSION)
		return 0
	}

	if *helpFlag {
		fmt.Println("Usage of rewards:")
		flag.PrintDefaults()
		return 0
	}

	paths, err := core.DefaultPaths()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to resolve data directory: %v\n", err)
		return 1
	}

	configPath := paths.ConfigFile
	if *configFile != "" {
		configPath = *configFile
	}

	if *initConfig {
		written, err := writeDefaultConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to write config: %v\n", err)
			return 1
		}
		if written {
			fmt.Printf("wrote %s\n", configPath)
		} else {
			fmt.Printf("%s already exists\n", configPath)
		}
		return 0
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *catalogFile != "" {
		cfg.CatalogFile = *catalogFile
	}

	logger, err := initializeLogger(cfg, paths.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() {
		_ = logger.Sync() // Flush any buffered log entries
	}()

	logger.Info("-------- new rewards session --------", zap.Any("args", os.Args))

	catalog, err := loadCatalog(cfg.CatalogFile)
	if err != nil {
		logger.Error("failed to load catalog", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	// Analytics is optional, continue without it
	recorder, err := initializeRecorder(cfg, paths, logger)
	if err != nil {
		logger.Warn("failed to initialize analytics", zap.Error(err))
		recorder = nil
	}
	if recorder != nil {
		defer recorder.Close()
	}

	if *statsFlag {
		if recorder == nil {
			fmt.Fprintln(os.Stderr, "analytics is disabled")
			return 1
		}
		if err := printStats(os.Stdout, recorder, 10); err != nil {
			logger.Error("failed to read analytics", zap.Error(err))
			return 1
		}
		return 0
	}

	if err := run(cfg, catalog, recorder, logger); err != nil {
		logger.Error("unhandled error", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func run(cfg config.Config, catalog *achievement.Catalog, recorder *analytics.Recorder, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := scheduler.NewLoop(logger)
	defer loop.Close()

	// The sink is bound before the loop starts so the loop goroutine sees it
	var sink func(engine.Frame)
	opts := engine.NewOptions()
	opts.Config = cfg.EngineConfig()
	opts.Logger = logger
	opts.Rand = newRand(*seed, logger)
	opts.FrameSink = func(f engine.Frame) {
		if sink != nil {
			sink(f)
		}
	}

	eng := engine.New(catalog, loop, opts)
	if recorder != nil {
		eng.OnUnlocked(recorder.Listener())
	}

	startup := parseUnlockList(*unlockList)
	for _, id := range startup {
		if _, ok := catalog.Lookup(id); !ok {
			logger.Warn("ignoring unknown achievement in -unlock", zap.String("id", id))
		}
	}

	interactive := !*headless && term.IsTerminal(int(os.Stdout.Fd()))
	if !interactive {
		var tracker score.Tracker
		eng.OnUnlocked(func(u achievement.Unlocked) {
			fmt.Fprintln(os.Stdout, unlockLine(u))
			if up := tracker.Add(u); up != nil {
				fmt.Fprintf(os.Stdout, "level up: Lv %d %s (%d XP)\n", up.NewLevel, up.NewTitle, tracker.TotalXP())
			}
		})
	}

	var program *tea.Program
	if interactive {
		program = tea.NewProgram(
			surface.New(catalog, eng, logger),
			tea.WithAltScreen(),
			tea.WithContext(ctx),
		)
		sink = surface.FrameSink(program)
	}

	loop.Start()
	loop.Post(eng.Start)
	for _, id := range startup {
		eng.Submit(id, nil)
	}

	var err error
	if interactive {
		_, err = program.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			err = nil
		}
	} else {
		runCtx, cancel := context.WithTimeout(ctx, *duration)
		<-runCtx.Done()
		cancel()
	}

	shutdown(loop, eng, logger)
	return err
}

// shutdown disposes the engine on its own loop and waits briefly for it
func shutdown(loop *scheduler.Loop, eng *engine.Engine, logger *zap.Logger) {
	done := make(chan struct{})
	loop.Post(func() {
		eng.Dispose()
		close(done)
	})

	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		logger.Warn("engine did not dispose in time")
	}
	loop.Close()
}

func initializeLogger(cfg config.Config, logFile string) (*zap.Logger, error) {
	logLevel := cfg.AtomicLevel()
	if BUILD_VERSION == "dev" {
		logLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	if cfg.CleanLogFile {
		_ = os.Remove(logFile)
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logLevel
	loggerConfig.OutputPaths = []string{
		logFile,
	}
	return loggerConfig.Build()
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	cfg = cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func loadCatalog(path string) (*achievement.Catalog, error) {
	if path == "" {
		return achievement.DefaultCatalog(), nil
	}
	return achievement.LoadCatalog(path)
}

func initializeRecorder(cfg config.Config, paths *core.Paths, logger *zap.Logger) (*analytics.Recorder, error) {
	if !cfg.Analytics.Enabled {
		return nil, nil
	}
	dbPath := cfg.Analytics.Path
	if dbPath == "" {
		dbPath = paths.AnalyticsFile
	}
	return analytics.NewRecorder(dbPath, logger)
}

// writeDefaultConfig writes the embedded default config unless path exists
func writeDefaultConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, DEFAULT_CONFIG, 0644); err != nil {
		return false, err
	}
	return true, nil
}

func parseUnlockList(s string) []string {
	ids := lo.Map(strings.Split(s, ","), func(id string, _ int) string {
		return strings.TrimSpace(id)
	})
	return lo.Uniq(lo.Compact(ids))
}

func newRand(seed uint64, logger *zap.Logger) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	logger.Debug("random source seeded", zap.Uint64("seed", seed))
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func unlockLine(u achievement.Unlocked) string {
	line := fmt.Sprintf("%s  %-18s %-9s %s", u.UnlockedAt.Format(time.TimeOnly), u.ID, u.Rarity, u.Title)
	if u.Progress != nil {
		line += fmt.Sprintf(" (%.0f/%.0f)", u.Progress.Current, u.Progress.Max)
	}
	return line
}

func printStats(w io.Writer, recorder *analytics.Recorder, limit int) error {
	total, err := recorder.TotalCount()
	if err != nil {
		return err
	}
	counts, err := recorder.CountByRarity()
	if err != nil {
		return err
	}
	recent, err := recorder.RecentUnlocks(limit)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s unlocks recorded\n", humanize.Comma(total))
	for _, r := range []achievement.Rarity{
		achievement.RarityCommon,
		achievement.RarityRare,
		achievement.RarityEpic,
		achievement.RarityLegendary,
	} {
		fmt.Fprintf(w, "  %-10s %d\n", r, counts[r])
	}

	if len(recent) > 0 {
		fmt.Fprintln(w, "recent:")
		for _, rec := range recent {
			fmt.Fprintf(w, "  %-18s %-9s %s\n", rec.AchievementID, rec.Rarity, humanize.Time(rec.UnlockedAt))
		}
	}
	return nil
}
