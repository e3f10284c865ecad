package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/paulmach/orb"

	"github.com/kdudkov/tilesmanager/pkg/model"
)

func NewHttp(app *App) *fiber.App {
	f := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		EnablePrintRoutes:     false,
		ErrorHandler:          getErrorHandler(app),
	})

	if app.state().cfg.Debug {
		f.Use(logger.New(logger.Config{
			Format: "[${ip}]:${port} ${status} - ${method} ${path} ${queryParams}\n",
		}))
	}

	f.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))

	f.Get("/tilesize", getTileSizeHandler(app))
	f.Get("/tile", getTileHandler(app))
	f.Get("/latlon", getLatLonHandler(app))
	f.Get("/bounds/:zoom/:x/:y", getBoundsHandler(app))

	return f
}

func getErrorHandler(app *App) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
		}

		if code >= fiber.StatusInternalServerError {
			app.logger.Errorw("request error", "path", c.Path(), "error", err)
		}

		return c.Status(code).SendString(err.Error())
	}
}

func getTileSizeHandler(app *App) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"tileSize": app.state().tm.TileSize()})
	}
}

func getTileHandler(app *App) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		st := app.state()

		lat, err := queryFloat(c, "lat")
		if err != nil {
			return err
		}

		lon, err := queryFloat(c, "lon")
		if err != nil {
			return err
		}

		zoom, err := queryZoom(c, st)
		if err != nil {
			return err
		}

		t := model.TileAt(st.tm, lat, lon, zoom)
		if err := st.checkBorder(t); err != nil {
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("%s: %s", t, err))
		}

		x, y := st.tm.LatLonToTile(lat, lon, zoom)

		return c.JSON(fiber.Map{
			"x":    x,
			"y":    y,
			"zoom": zoom,
			"tile": t.String(),
		})
	}
}

func getLatLonHandler(app *App) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		st := app.state()

		x, err := queryFloat(c, "x")
		if err != nil {
			return err
		}

		y, err := queryFloat(c, "y")
		if err != nil {
			return err
		}

		zoom, err := queryZoom(c, st)
		if err != nil {
			return err
		}

		lat, lon := st.tm.TileToLatLon(x, y, zoom)

		return c.JSON(fiber.Map{"lat": lat, "lon": lon})
	}
}

func getBoundsHandler(app *App) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		st := app.state()

		t, err := model.ParseTile(c.Params("zoom") + "/" + c.Params("x") + "/" + c.Params("y"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := st.checkZoom(t.Z); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := st.checkBorder(t); err != nil {
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("%s: %s", t, err))
		}

		b, err := t.Bounds(st.tm)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return c.JSON(boundJSON(b))
	}
}

func boundJSON(b orb.Bound) fiber.Map {
	return fiber.Map{
		"minLat": b.Min.Lat(),
		"minLon": b.Min.Lon(),
		"maxLat": b.Max.Lat(),
		"maxLon": b.Max.Lon(),
	}
}

func queryFloat(c *fiber.Ctx, name string) (float64, error) {
	v, err := strconv.ParseFloat(c.Query(name), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("error: invalid %s value", name))
	}

	return v, nil
}

func queryZoom(c *fiber.Ctx, st *state) (int, error) {
	zoom, err := strconv.Atoi(c.Query("zoom"))
	if err != nil || st.checkZoom(zoom) != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "error: invalid zoom value")
	}

	return zoom, nil
}
