package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"

	"github.com/27180781/trivia-master-offline/internal/config"
	"github.com/27180781/trivia-master-offline/internal/game"
	"github.com/27180781/trivia-master-offline/internal/handlers"
	"github.com/27180781/trivia-master-offline/internal/store"
	"github.com/27180781/trivia-master-offline/internal/ws"
	staticserver "github.com/27180781/trivia-master-offline/static"
)

const version = "v1.0.0-dev"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`Trivia Master - offline presentation trivia server

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)

Environment Variables:
  PORT               Port to listen on (default: 8080)
  DB_PATH            SQLite database path (default: trivia.db)
  GAME_PACKAGE       Path to a .bravo game bundle; locks the server to it
  EXPORT_ENABLED     Append revealed questions to a game log (default: false)
  EXPORT_FILE        Path of the game log (default: game_log.txt)
  UPLOAD_MAX_BYTES   Maximum spreadsheet upload size (default: 10485760)

Examples:
  %s                  Start server with default settings
  %s --port 3000      Start server on port 3000

Visit http://localhost:8080 after starting the server.
`, os.Args[0], os.Args[0], os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("Trivia Master %s\n", version)
		return
	}

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)

	cfg := config.FromEnv()
	if *portFlag != "" {
		cfg.Port = *portFlag
	}

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		status := c.Writer.Status()
		dur := time.Since(start)
		zerologlog.Info().Str("path", path).Int("status", status).Dur("dur", dur).Msg("http")
	})

	// Healthcheck
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "version": version, "time": time.Now().UTC()})
	})

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		zerologlog.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}
	defer st.Close()

	settings, err := st.GameSettings()
	if err != nil {
		zerologlog.Warn().Err(err).Msg("falling back to default settings")
		settings = game.DefaultSettings()
	}

	// A game bundle at startup locks the server to its questions; the
	// upload and import routes refuse to touch a locked session.
	sessCfg := game.SessionConfig{Settings: settings}
	if cfg.PackagePath != "" {
		pkg, err := game.LoadPackageFile(cfg.PackagePath)
		if err != nil {
			zerologlog.Fatal().Err(err).Str("path", cfg.PackagePath).Msg("failed to load game package")
		}
		sessCfg = pkg.SessionConfig(settings)
		zerologlog.Info().Str("package", pkg.Meta.Name).Int("questions", len(pkg.Questions)).Msg("locked mode")
	}

	rm := game.NewManager()
	sess := rm.Create(sessCfg)
	zerologlog.Info().Str("code", sess.Code).Bool("locked", sess.Locked).Msg("session ready")

	sock := ws.New(rm, cfg)
	io := sock.Mount(r)
	defer io.Close()

	api := handlers.New(rm, st, sock, cfg)
	api.Register(r)

	// Serve frontend (if embedded build is present) for all other routes
	r.NoRoute(func(c *gin.Context) {
		staticserver.Handler().ServeHTTP(c.Writer, c.Request)
	})

	zerologlog.Info().Str("port", cfg.Port).Msg("listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		zerologlog.Fatal().Err(err).Msg("server exited")
	}
}
