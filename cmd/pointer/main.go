// pointer: HTTP and websocket service that turns IMU orientation samples
// into pointing rays and surface hit points
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-pointer/internal/config"
	"github.com/teslashibe/go-pointer/internal/log"
	"github.com/teslashibe/go-pointer/pkg/web"
)

var (
	version  = "0.1.0"
	port     = flag.String("port", config.Port(), "HTTP server port (env POINTER_PORT)")
	level    = flag.String("log-level", config.LogLevel(), "debug, info, warn or error (env POINTER_LOG_LEVEL)")
	profile  = flag.String("profile", config.ProfilePath(), "YAML profile for default sessions (env POINTER_PROFILE)")
	sessions = flag.Int("sessions", 0, "sessions to create at startup from the profile")
	debug    = flag.Bool("debug", false, "Log every HTTP request")
)

func main() {
	flag.Parse()
	log.Init(*level)

	if err := run(); err != nil {
		log.Error("pointer exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	p := config.DefaultProfile()
	if *profile != "" {
		loaded, err := config.LoadProfile(*profile)
		if err != nil {
			return err
		}
		p = *loaded
		log.Info("loaded profile", "path", *profile, "body_height", p.BodyHeight, "surface", p.Surface.Type)
	}

	srv := web.NewServer(web.Options{
		Port:    *port,
		Profile: &p,
		Debug:   *debug,
	})

	for i := 0; i < *sessions; i++ {
		sess, err := srv.CreateSession(p)
		if err != nil {
			return fmt.Errorf("failed to create startup session: %w", err)
		}
		fmt.Printf("   Session:   %s\n", sess.ID)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		fmt.Printf("pointer v%s\n", version)
		fmt.Printf("   Sessions:  %s/api/sessions\n", config.ServiceURL("localhost", *port))
		fmt.Printf("   Devices:   %s/ws/device/<session>\n", config.WebSocketURL("localhost", *port))
		fmt.Printf("   Metrics:   %s/metrics\n", config.ServiceURL("localhost", *port))
		errc <- srv.Start()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.ShutdownWithContext(shutdownCtx)
}
