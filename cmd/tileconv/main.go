package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/kdudkov/tilesmanager/pkg/config"
	"github.com/kdudkov/tilesmanager/pkg/mapper"
	"github.com/kdudkov/tilesmanager/pkg/model"
)

var errBorder = errors.New("tile is outside of border")

// state is replaced as a whole on config reload.
type state struct {
	cfg *config.Config
	tm  *mapper.TilesManager
	t1  *model.Tile
	t2  *model.Tile
}

func newState(cfg *config.Config) (*state, error) {
	t1, t2, err := cfg.BorderTiles()
	if err != nil {
		return nil, err
	}

	return &state{cfg: cfg, tm: cfg.Manager(), t1: t1, t2: t2}, nil
}

func (s *state) checkZoom(zoom int) error {
	if err := mapper.ValidZoom(zoom); err != nil {
		return err
	}

	if zoom > s.cfg.MaxZoom {
		return fmt.Errorf("zoom %d is above max zoom %d", zoom, s.cfg.MaxZoom)
	}

	return nil
}

func (s *state) checkBorder(t *model.Tile) error {
	if s.t1 != nil && s.t2 != nil && !t.InRect(s.t1, s.t2) {
		return errBorder
	}

	return nil
}

type App struct {
	configFile string
	logger     *zap.SugaredLogger
	st         atomic.Pointer[state]
}

func NewApp(cfg *config.Config, logger *zap.SugaredLogger) (*App, error) {
	st, err := newState(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{logger: logger}
	app.st.Store(st)

	return app, nil
}

func (app *App) state() *state {
	return app.st.Load()
}

// Convert prints the tile position of a single point.
func (app *App) Convert(w io.Writer, lat, lon float64, zoom int) error {
	st := app.state()

	if err := st.checkZoom(zoom); err != nil {
		return err
	}

	x, y := st.tm.LatLonToTile(lat, lon, zoom)
	_, _, ox, oy := st.tm.LatLonToTileIndex(lat, lon, zoom)
	t := model.TileAt(st.tm, lat, lon, zoom)

	if err := st.checkBorder(t); err != nil {
		return fmt.Errorf("%s: %w", t, err)
	}

	_, err := fmt.Fprintf(w, "%f,%f z=%d: x=%f y=%f tile %s offset %d,%d\n", lat, lon, zoom, x, y, t, ox, oy)

	return err
}

func (app *App) Reload() error {
	cfg, err := config.Load(app.configFile)
	if err != nil {
		return err
	}

	old := app.state().cfg

	if cfg.Addr != old.Addr {
		app.logger.Warnf("addr change to %s needs restart", cfg.Addr)
		cfg.Addr = old.Addr
	}

	cfg.Debug = cfg.Debug || old.Debug

	st, err := newState(cfg)
	if err != nil {
		return err
	}

	app.st.Store(st)
	app.logger.Infof("config reloaded, tms: %v, max zoom: %d", cfg.Tms, cfg.MaxZoom)

	return nil
}

func (app *App) Run() error {
	http := NewHttp(app)
	cfg := app.state().cfg

	app.logger.Infof("listening on %s, tms: %v, max zoom: %d", cfg.Addr, cfg.Tms, cfg.MaxZoom)

	go func() {
		if err := http.Listen(cfg.Addr); err != nil {
			app.logger.Errorw("http server error", "error", err)
		}
	}()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	defer watcher.Close()

	go app.watch(watcher)

	if err := watcher.Add(filepath.Dir(app.configFile)); err != nil {
		return err
	}

	app.loop()

	return http.Shutdown()
}

func (app *App) watch(watcher *fsnotify.Watcher) {
	name := filepath.Clean(app.configFile)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != name || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}

			app.logger.Debugf("event: %s", event)

			if err := app.Reload(); err != nil {
				app.logger.Errorw("config reload error, keeping old config", "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			app.logger.Errorw("watcher error", "error", err)
		}
	}
}

func (app *App) loop() {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	<-sigc
}

func newLogger(debug bool) *zap.SugaredLogger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}

	return logger.Sugar()
}

func main() {
	var configFile = flag.String("config", "tiles.yml", "config file")
	var addr = flag.String("addr", "", "listen address")
	var debug = flag.Bool("debug", false, "")
	var serve = flag.Bool("serve", false, "run http server")
	var ver = flag.Bool("version", false, "print version")
	var lat = flag.Float64("lat", 0, "latitude (degree)")
	var lon = flag.Float64("lon", 0, "longitude (degree)")
	var zoom = flag.Int("zoom", 14, "zoom level")

	flag.Parse()

	if *ver {
		fmt.Println(getVersionFull())
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}

	if *addr != "" {
		cfg.Addr = *addr
	}

	cfg.Debug = cfg.Debug || *debug

	logger := newLogger(cfg.Debug)

	app, err := NewApp(cfg, logger)
	if err == nil {
		app.configFile = *configFile

		if *serve {
			err = app.Run()
		} else {
			err = app.Convert(os.Stdout, *lat, *lon, *zoom)
		}
	}

	if err != nil {
		logger.Errorw("error", "error", err)
	}

	_ = logger.Sync()

	if err != nil {
		os.Exit(1)
	}
}
