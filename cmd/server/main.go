package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"dogloot/server/internal/app"
	"dogloot/server/internal/config"
	"dogloot/server/internal/httpapi"
	"dogloot/server/internal/persistence"
	"dogloot/server/internal/players"
	"dogloot/server/internal/registry"
	"dogloot/server/internal/snapshot"
	"dogloot/server/internal/strand"
	"dogloot/server/logging"
	"dogloot/server/logging/sinks"
	"dogloot/server/session"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("dogloot: %v", err)
	}
}

// multiListener fans a single OnTick notification out to every listener
// the server needs driven off the strand: the snapshot scheduler and the
// websocket broadcaster.
type multiListener []app.ApplicationListener

func (m multiListener) OnTick(dt time.Duration) {
	for _, l := range m {
		if l != nil {
			l.OnTick(dt)
		}
	}
}

func run() error {
	cli, err := config.ParseCLI(os.Args[1:])
	if err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}

	fileCfg, err := config.LoadFile(cli.ConfigFile)
	if err != nil {
		return err
	}
	maps, err := config.BuildMaps(fileCfg)
	if err != nil {
		return err
	}

	dbURL, err := config.DatabaseURL()
	if err != nil {
		return err
	}

	ctx := context.Background()

	logConfig := logging.DefaultConfig()
	logConfig.EnabledSinks = []string{"stdout-json"}
	router, err := logging.NewRouter(logging.SystemClock{}, logConfig, []logging.NamedSink{
		{Name: "stdout-json", Sink: sinks.NewJSON(os.Stdout, 0)},
	})
	if err != nil {
		return fmt.Errorf("constructing logging router: %w", err)
	}
	defer router.Close(ctx)

	uowFactory, err := persistence.NewPostgresFactory(ctx, dbURL, runtime.NumCPU())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer uowFactory.Close()

	playerReg := players.New()
	strandInstance := strand.New(256)
	defer strandInstance.Close()

	spawnPolicy := session.SpawnAtOrigin
	if cli.RandomizeSpawnPoints {
		spawnPolicy = session.SpawnOnRandomRoad
	}

	application := app.New(app.Config{
		Players:           playerReg,
		UnitOfWorkFactory: uowFactory,
		Strand:            strandInstance,
		ManualTickMode:    !cli.HasTickPeriod,
		Logger:            router,
	})

	reg := registry.New(registry.Config{
		Maps:            maps,
		SpawnPolicy:     spawnPolicy,
		RetireAfter:     time.Duration(fileCfg.DogRetirementTime * float64(time.Second)),
		LootPeriod:      time.Duration(fileCfg.LootGeneratorConfig.Period * float64(time.Second)),
		LootProbability: fileCfg.LootGeneratorConfig.Probability,
		Sink:            app.NewRegistrySink(application),
	})
	application.SetRegistry(reg)

	if cli.StateFile != "" {
		if err := loadSnapshot(cli.StateFile, reg, playerReg, spawnPolicy, fileCfg, application); err != nil {
			return fmt.Errorf("restoring snapshot: %w", err)
		}
	}

	var listeners multiListener
	if cli.HasSaveStatePeriod {
		listeners = append(listeners, snapshot.NewScheduler(cli.StateFile, cli.SaveStatePeriod, reg, playerReg, router))
	}
	streamHub := httpapi.NewStreamHub(reg, router)
	listeners = append(listeners, streamHub)
	application.SetListener(listeners)

	stopTicker := func() {}
	if cli.HasTickPeriod {
		stopTicker = startTicker(ctx, application, cli.TickPeriod, router)
	}
	defer stopTicker()

	mux := httpapi.NewMux(httpapi.Config{
		Application: application,
		WWWRoot:     cli.WWWRoot,
		Logger:      router,
		Stream:      streamHub,
	})

	srv := &http.Server{
		Addr:        ":8080",
		Handler:     mux,
		ReadTimeout: 120 * time.Second,
	}

	router.Publish(ctx, logging.Event{
		Message: "server started",
		Data:    map[string]any{"port": 8080, "address": srv.Addr},
	})

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	shutdownCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var exitErr error
	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			exitErr = err
		}
	case <-shutdownCtx.Done():
		timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(timeoutCtx); err != nil {
			exitErr = fmt.Errorf("graceful shutdown: %w", err)
		}
	}

	stopTicker()

	if cli.StateFile != "" {
		if err := snapshot.Flush(cli.StateFile, reg, playerReg); err != nil {
			router.Publish(ctx, logging.Event{
				Message:  "final snapshot flush failed",
				Severity: logging.SeverityError,
				Data:     map[string]any{"error": err.Error()},
			})
		}
	}

	router.Publish(ctx, logging.Event{
		Message: "server exited",
		Data:    map[string]any{"error": errString(exitErr)},
	})
	return exitErr
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// startTicker drives the simulation at a fixed cadence when --tick-period
// is set, instead of relying on manual /api/v1/game/tick calls. It returns
// a stop function the caller runs once at shutdown.
func startTicker(ctx context.Context, application *app.Application, period time.Duration, logger logging.Publisher) func() {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, period)
				if err := application.DriveTick(tickCtx, period); err != nil {
					logger.Publish(tickCtx, logging.Event{
						Message:  "tick failed",
						Severity: logging.SeverityError,
						Data:     map[string]any{"error": err.Error()},
					})
				}
				cancel()
			}
		}
	}()
	var once bool
	return func() {
		if !once {
			once = true
			close(stop)
		}
	}
}

func loadSnapshot(path string, reg *registry.Registry, playerReg *players.Registry, spawnPolicy session.SpawnPolicy, fileCfg *config.FileConfig, application *app.Application) error {
	state, ok, err := snapshot.Load(path)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	tuning := snapshot.Tuning{
		SpawnPolicy:     spawnPolicy,
		RetireAfter:     time.Duration(fileCfg.DogRetirementTime * float64(time.Second)),
		LootPeriod:      time.Duration(fileCfg.LootGeneratorConfig.Period * float64(time.Second)),
		LootProbability: fileCfg.LootGeneratorConfig.Probability,
		Sink:            app.NewRegistrySink(application),
	}
	return snapshot.Restore(state, reg, tuning, playerReg)
}
