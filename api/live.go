package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo"
	"github.com/tmpim/spritegrid"
)

// Settings are the conversion parameters shared by the form and websocket
// endpoints.
type Settings struct {
	Palette          json.RawMessage `json:"palette,omitempty"`
	Width            int             `json:"width"`
	Height           int             `json:"height"`
	RemoveBackground bool            `json:"removeBackground"`
	Crop             bool            `json:"crop"`
	Tolerance        int             `json:"tolerance"`
}

func defaultSettings() Settings {
	opts := spritegrid.DefaultOptions()
	return Settings{
		Width:            16,
		Height:           16,
		RemoveBackground: opts.RemoveBackground,
		Crop:             opts.CropToContent,
		Tolerance:        opts.Tolerance,
	}
}

func (s Settings) options() spritegrid.Options {
	opts := spritegrid.DefaultOptions()
	opts.RemoveBackground = s.RemoveBackground
	opts.CropToContent = s.Crop
	opts.Tolerance = s.Tolerance
	return opts
}

func settingsFromForm(c echo.Context) (Settings, error) {
	s := defaultSettings()

	ints := map[string]*int{
		"width":     &s.Width,
		"height":    &s.Height,
		"tolerance": &s.Tolerance,
	}
	for name, dst := range ints {
		v := c.FormValue(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return s, echo.NewHTTPError(http.StatusBadRequest, name+" must be an integer")
		}
		*dst = n
	}

	bools := map[string]*bool{
		"removeBackground": &s.RemoveBackground,
		"crop":             &s.Crop,
	}
	for name, dst := range bools {
		v := c.FormValue(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return s, echo.NewHTTPError(http.StatusBadRequest, name+" must be a boolean")
		}
		*dst = b
	}

	return s, nil
}

// LiveMessage is sent to websocket clients after every frame.
type LiveMessage struct {
	Error string        `json:"error,omitempty"`
	Grid  *GridResponse `json:"grid,omitempty"`
}

// handleLive upgrades to a websocket. Text messages replace the settings,
// binary messages are images to convert with the current settings. Every
// message gets exactly one reply.
func (s *Server) handleLive(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	ws.SetReadLimit(MaxUploadSize)

	settings := defaultSettings()
	palette := spritegrid.PaletteCC
	quant := s.quant

	for {
		kind, data, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				spritegrid.Logger().Debug("api: live connection closed", "error", err)
			}
			return nil
		}

		var reply LiveMessage
		switch kind {
		case websocket.TextMessage:
			next := settings
			if err := json.Unmarshal(data, &next); err != nil {
				reply.Error = "invalid settings: " + err.Error()
				break
			}
			p, inline, err := resolvePalette(next.Palette)
			if err != nil {
				reply.Error = err.Error()
				break
			}
			settings, palette, quant = next, p, s.quantizer(inline)

		case websocket.BinaryMessage:
			grid, err := convert(quant, data, palette, settings)
			if err != nil {
				reply.Error = err.Error()
				break
			}
			reply.Grid = grid

		default:
			continue
		}

		if err := ws.WriteJSON(&reply); err != nil {
			return nil
		}
	}
}

func convert(q *spritegrid.Quantizer, data []byte, p *spritegrid.Palette, settings Settings) (*GridResponse, error) {
	img, _, err := spritegrid.DecodeImage(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	grid, err := q.Quantize(img, p, settings.Width, settings.Height, settings.options())
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}

	return &GridResponse{
		Width:   settings.Width,
		Height:  settings.Height,
		Palette: p,
		Grid:    grid,
	}, nil
}
