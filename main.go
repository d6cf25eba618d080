package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"media-scanner/internal/album"
	"media-scanner/internal/exiftool"
	"media-scanner/internal/logging"
	"media-scanner/internal/media"
	"media-scanner/internal/scheduler"
	"media-scanner/internal/server"
	"media-scanner/internal/stale"
	"media-scanner/internal/startup"
	"media-scanner/internal/walker"
)

var cfg startup.Config

var rootCmd = &cobra.Command{
	Use:   "media-scanner ALBUM_ROOT",
	Short: "Incrementally scan a media tree into a content-addressed cache",
	Long: `media-scanner walks an album tree and maintains a cache of per-directory
JSON documents plus thumbnail renditions keyed by content hash. Repeat runs
only touch what changed: unmodified directories are served from cache,
touched-but-identical files are detected by hash, and identical files share
one thumbnail set.

Examples:
  media-scanner /srv/photos
  media-scanner --cache /srv/cache --salt /etc/scanner/salt /srv/photos
  media-scanner --remove-stale /srv/photos`,
	Args:          cobra.ExactArgs(1),
	RunE:          runScan,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve ALBUM_ROOT",
	Short: "Serve the cache and album files over HTTP",
	Args:  cobra.ExactArgs(1),
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfg.CacheRoot, "cache", "", "cache directory (default: sibling \"cache\" of ALBUM_ROOT)")
	rootCmd.Flags().StringVar(&cfg.SaltFile, "salt", "", "file containing the hash salt")
	rootCmd.Flags().BoolVar(&cfg.RemoveStale, "remove-stale", false, "delete stale cache entries instead of reporting them")
	rootCmd.Flags().BoolVar(&cfg.RescanIgnored, "rescan-ignored", false, "retry files previously recorded as unreadable")
	rootCmd.Flags().BoolVar(&cfg.NoLocation, "no-location", false, "strip GPS coordinates from the cache")

	serveCmd.Flags().StringVar(&cfg.Port, "port", "8080", "listen port")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.Fatal("%v", err)
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg.AlbumRoot = args[0]
	if err := cfg.Finalize(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	media.InitVips()
	defer media.ShutdownVips()

	// One exiftool subprocess serves the whole run.
	tool := exiftool.New()
	if err := tool.Acquire(); err != nil {
		return err
	}
	defer tool.Terminate()

	store := &album.Store{Root: cfg.CacheRoot}
	prober := &media.Prober{
		Extractor:  tool,
		Salt:       cfg.Salt,
		NoLocation: cfg.NoLocation,
	}

	start := time.Now()

	startup.LogScanPhase("walking album tree")
	w := &walker.Walker{
		AlbumRoot:     cfg.AlbumRoot,
		Store:         store,
		Prober:        prober,
		RescanIgnored: cfg.RescanIgnored,
	}
	res, err := w.Walk(ctx)
	if err != nil {
		return interrupted(ctx, err)
	}

	startup.LogScanPhase("generating thumbnails")
	sched := &scheduler.Scheduler{CacheRoot: cfg.CacheRoot}
	if err := sched.Run(ctx, res.Objects); err != nil {
		return interrupted(ctx, err)
	}

	// Only a completed walk and thumbnail phase make the expected set
	// trustworthy enough to sweep against.
	startup.LogScanPhase("stale cache sweep")
	collector := &stale.Collector{CacheRoot: cfg.CacheRoot, Remove: cfg.RemoveStale}
	staleCount, err := collector.Sweep(res.Albums, res.Objects)
	if err != nil {
		return err
	}

	startup.LogScanComplete(len(res.Albums), len(res.Objects), staleCount, time.Since(start))
	return nil
}

// interrupted distinguishes a signal-driven cancellation from a real
// failure; both exit non-zero but the former logs a clean shutdown.
func interrupted(ctx context.Context, err error) error {
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		startup.LogShutdownInitiated("signal")
		return errors.New("scan interrupted")
	}
	return err
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg.AlbumRoot = args[0]
	if err := cfg.Finalize(); err != nil {
		return err
	}
	router := server.New(cfg.AlbumRoot, cfg.CacheRoot)
	return server.ListenAndServe(":"+cfg.Port, router)
}
