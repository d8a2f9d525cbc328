package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"filecrawl/internal/archive"
	"filecrawl/internal/checksum"
	"filecrawl/internal/config"
	"filecrawl/internal/fsutil"
	"filecrawl/internal/logger"
	"filecrawl/internal/node"
)

var (
	configPath  string
	logLevel    string
	locale      string
	showVersion bool
)

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	cfg      *config.Config
	fs       fsutil.FileSystem
	mounts   *archive.Registry
	provider *node.Provider
}

var current *app

func setup(cmd *cobra.Command) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if cmd.Flags().Changed("locale") {
		cfg.Locale = locale
	}
	if err := logger.InitLogger(cfg.Log.Logger()); err != nil {
		return err
	}

	fs := fsutil.NewOSFileSystem()
	mounts := archive.NewRegistry(cfg.Archive.MaxMounts)
	current = &app{
		cfg:    cfg,
		fs:     fs,
		mounts: mounts,
		provider: node.NewProvider(fs, mounts, node.Options{
			ArchiveSuffixes: cfg.Archive.Suffixes,
			Locale:          cfg.Locale,
		}),
	}
	logger.LogDebug("Configuration loaded (workers=%d, algorithm=%s)", cfg.Search.Workers, cfg.Checksum.Algorithm)
	return nil
}

func teardown() {
	if current != nil {
		current.mounts.Close()
	}
	logger.CloseLogger()
}

func (a *app) engine() *checksum.Engine {
	return checksum.NewEngine(checksum.Options{
		Workers:     a.cfg.Checksum.Workers,
		UseMMap:     a.cfg.Checksum.UseMMap,
		MinMMapSize: a.cfg.Checksum.MinMMapSize,
	})
}

// interruptible returns a context cancelled on Ctrl+C or SIGTERM.
func interruptible(what string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			fmt.Printf("\n%s interrupted by user\n", what)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func main() {
	var rootCmd = &cobra.Command{
		Use:   "filecrawl",
		Short: "Concurrent file search, tree browsing and hashing",
		Long: `filecrawl crawls directory trees concurrently, browses them as a tree
including the contents of zip archives, and computes file checksums.
Example: filecrawl search -e png -e jpg ~/Pictures /media/photos`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Printf("filecrawl v%s\n", Version)
				fmt.Printf("Build Time: %s\n", BuildTime)
				fmt.Printf("Git Commit: %s\n", GitCommit)
				return nil
			}
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ~/.config/filecrawl/config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&locale, "locale", "en", "Locale used to sort names")
	rootCmd.Flags().BoolVarP(&showVersion, "version-info", "V", false, "Show version information")

	rootCmd.AddCommand(newSearchCmd(), newTreeCmd(), newHashCmd(), newAlgorithmsCmd(), newWatchCmd())

	err := rootCmd.Execute()
	teardown()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
