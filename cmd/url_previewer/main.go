package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/link-previewer/common/config"
	"github.com/t2bot/link-previewer/common/logging"
	"github.com/t2bot/link-previewer/common/rcontext"
	"github.com/t2bot/link-previewer/common/version"
	"github.com/t2bot/link-previewer/metrics"
	"github.com/t2bot/link-previewer/previewer"
	"github.com/t2bot/link-previewer/thumbnailing"
)

func main() {
	configPath := flag.String("config", "url-previewer.yaml", "The path to the configuration")
	outDir := flag.String("o", "", "Directory to write thumbnails to. Nothing is written when empty.")
	writeFull := flag.Bool("full", false, "Also write the full image, fitted to the display area")
	area := flag.String("area", "1280x720", "The display area used for full images, as WxH")
	versionFlag := flag.Bool("version", false, "Prints the version and exits")
	flag.Parse()

	if *versionFlag {
		version.Print(false)
		return // exit 0
	}

	// Override config path with config for Docker users
	configEnv := os.Getenv("PREVIEWER_CONFIG")
	if configEnv != "" {
		configPath = &configEnv
	}

	areaW, areaH, err := parseArea(*area)
	if err != nil {
		panic(err)
	}

	config.Path = *configPath
	if config.Get().Sentry.Enabled {
		logrus.Info("Setting up Sentry for debugging...")
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.Get().Sentry.Dsn,
			Environment: config.Get().Sentry.Environment,
			Debug:       config.Get().Sentry.Debug,
			Release:     fmt.Sprintf("%s-%s", version.Version, version.GitCommit),
		})
		if err != nil {
			panic(err)
		}
	}
	defer sentry.Flush(2 * time.Second)
	defer sentry.Recover()

	err = logging.Setup(
		config.Get().General.LogDirectory,
		config.Get().General.LogColors,
		config.Get().General.JsonLogs,
		config.Get().General.LogLevel,
	)
	if err != nil {
		panic(err)
	}

	logrus.Info("Starting up...")
	version.Print(true)

	ctx := rcontext.Initial()
	ctx.Log.Info("Previewable types: ", strings.Join(thumbnailing.SupportedContentTypes(), ", "))
	svc, err := previewer.NewService(ctx)
	if err != nil {
		logrus.Fatal(err)
	}

	logrus.Info("Starting config watcher...")
	watcher := config.Watch()
	defer func(watcher *fsnotify.Watcher) {
		_ = watcher.Close()
	}(watcher)
	setupReloads(svc)

	metrics.Init(config.Get().Metrics)

	// Set up a listener for SIGINT
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		logrus.Warn("Stop signal received")
		svc.Stop()
	}()

	session := newSession(svc, *outDir, *writeFull, areaW, areaH)
	if flag.NArg() > 0 {
		for _, arg := range flag.Args() {
			session.handle(arg)
		}
	} else {
		logrus.Info("Reading URLs from stdin. Prefix a line with 'cancel ' to cancel that URL.")
		readLines(os.Stdin, session.handle)
	}

	session.wait(svc.Done())

	logrus.Info("Stopping metrics...")
	metrics.Stop()
	svc.Stop()

	// For debugging
	logrus.Info("Goodbye!")
}

func parseArea(s string) (int, int, error) {
	var w, h int
	if _, err := fmt.Sscanf(strings.ToLower(s), "%dx%d", &w, &h); err != nil {
		return 0, 0, fmt.Errorf("invalid display area %q: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid display area %q", s)
	}
	return w, h, nil
}

func readLines(r io.Reader, fn func(line string)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fn(line)
	}
	if err := scanner.Err(); err != nil {
		logrus.Error("Error reading input: ", err)
	}
}
