// Package api serves the sprite conversion pipeline over HTTP and websocket.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/tmpim/spritegrid"
)

// MaxUploadSize bounds uploaded images.
const MaxUploadSize = 16 << 20

// Server holds the routes and the shared quantizer.
type Server struct {
	quant    *spritegrid.Quantizer
	upgrader websocket.Upgrader
}

// NewServer returns a server converting with q. A nil q uses a fresh
// quantizer.
func NewServer(q *spritegrid.Quantizer) *Server {
	if q == nil {
		q = spritegrid.NewQuantizer(nil)
	}
	return &Server{
		quant: q,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 5 * time.Second,
		},
	}
}

// GridResponse is the JSON form of a conversion result.
type GridResponse struct {
	Width   int                  `json:"width"`
	Height  int                  `json:"height"`
	Palette *spritegrid.Palette  `json:"palette"`
	Grid    spritegrid.PixelGrid `json:"grid"`
}

// ClassifyRequest asks for single color lookups.
type ClassifyRequest struct {
	Palette json.RawMessage `json:"palette"`
	Colors  []string        `json:"colors"`
}

// ClassifyResponse holds one token per requested color.
type ClassifyResponse struct {
	Colors []spritegrid.PaletteColor `json:"colors"`
}

// Echo builds the echo instance with all routes registered.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = s.errorHandler(e.DefaultHTTPErrorHandler)

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(strconv.Itoa(MaxUploadSize/1024) + "K"))

	api := e.Group("/api")
	api.GET("/palettes", s.handlePalettes)
	api.POST("/quantize", s.handleQuantize)
	api.POST("/classify", s.handleClassify)
	api.GET("/live", s.handleLive)

	return e
}

func (s *Server) errorHandler(fallback echo.HTTPErrorHandler) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var he *echo.HTTPError
		if !errors.As(err, &he) {
			he = echo.NewHTTPError(statusFor(err), err.Error())
		}
		if he.Code >= http.StatusInternalServerError {
			spritegrid.Logger().Error("api: request failed",
				"path", c.Path(), "error", err)
		}
		fallback(he, c)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, spritegrid.ErrZoneNotFound):
		return http.StatusInternalServerError
	case errors.Is(err, spritegrid.ErrInvalidColorFormat),
		errors.Is(err, spritegrid.ErrInvalidPalette),
		errors.Is(err, spritegrid.ErrEmptyPalette),
		errors.Is(err, spritegrid.ErrInvalidOptions),
		errors.Is(err, spritegrid.ErrEmptySourceRegion):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) handlePalettes(c echo.Context) error {
	ids := spritegrid.BuiltinPaletteIDs()
	out := make([]*spritegrid.Palette, 0, len(ids))
	for _, id := range ids {
		p, _ := spritegrid.BuiltinPalette(id)
		out = append(out, p)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleQuantize(c echo.Context) error {
	palette, inline, err := resolvePalette([]byte(c.FormValue("palette")))
	if err != nil {
		return err
	}

	req, err := settingsFromForm(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing image upload")
	}
	file, err := fh.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	img, _, err := spritegrid.DecodeImage(file)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	grid, err := s.quantizer(inline).Quantize(img, palette, req.Width, req.Height, req.options())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &GridResponse{
		Width:   req.Width,
		Height:  req.Height,
		Palette: palette,
		Grid:    grid,
	})
}

func (s *Server) handleClassify(c echo.Context) error {
	var req ClassifyRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}

	palette, inline, err := resolvePalette(req.Palette)
	if err != nil {
		return err
	}

	cl, err := s.quantizer(inline).Classifier(palette, spritegrid.DefaultAlphaThreshold)
	if err != nil {
		return err
	}

	resp := ClassifyResponse{Colors: make([]spritegrid.PaletteColor, 0, len(req.Colors))}
	for _, hex := range req.Colors {
		tok, err := cl.ClassifyHex(hex)
		if err != nil {
			return err
		}
		resp.Colors = append(resp.Colors, tok)
	}

	return c.JSON(http.StatusOK, &resp)
}

// quantizer returns the shared quantizer for built-in palettes. Inline
// palettes get a quantizer of their own so client palettes never pile up in
// the shared cache.
func (s *Server) quantizer(inline bool) *spritegrid.Quantizer {
	if !inline {
		return s.quant
	}
	return spritegrid.NewQuantizer(spritegrid.NewZoneCache(s.quant.Cache().Options()))
}

// resolvePalette accepts either a built-in palette ID, bare or as a JSON
// string, or an inline JSON palette. Empty input selects the cc palette.
// inline reports whether the palette came from the client.
func resolvePalette(raw []byte) (p *spritegrid.Palette, inline bool, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return spritegrid.PaletteCC, false, nil
	}

	if raw[0] == '{' {
		p = new(spritegrid.Palette)
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, false, fmt.Errorf("%w: %s", spritegrid.ErrInvalidPalette, err.Error())
		}
		return p, true, nil
	}

	id := strings.Trim(string(raw), `"`)
	p, ok := spritegrid.BuiltinPalette(id)
	if !ok {
		return nil, false, fmt.Errorf("%w: unknown palette %q", spritegrid.ErrInvalidPalette, id)
	}
	return p, false, nil
}
