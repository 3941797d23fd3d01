package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/df07/go-sphere-pathtracer/pkg/renderer"
)

// Event types streamed to the client during a render
const (
	EventConsole  = "console"
	EventError    = "error"
	EventComplete = "complete"
)

// RenderEvent is one message of a render stream
type RenderEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// RenderComplete carries the finished image and its statistics
type RenderComplete struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	ImageData string `json:"imageData"` // Base64 encoded PNG
	Stats     Stats  `json:"stats"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// Stats represents render statistics
type Stats struct {
	TotalPixels      int     `json:"totalPixels"`
	SamplesPerPixel  int     `json:"samplesPerPixel"`
	TotalSamples     int     `json:"totalSamples"`
	Workers          int     `json:"workers"`
	SamplesPerSecond float64 `json:"samplesPerSecond"`
}

var renderCounter atomic.Int64

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleRender renders a scene and streams console output and the final image via SSE
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	setSSEHeaders(w)
	flusher, _ := w.(http.Flusher)

	emit := func(event RenderEvent) error {
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}

	req, err := parseRenderRequest(r.URL.Query())
	if err != nil {
		emitError(emit, fmt.Sprintf("Invalid request: %v", err))
		return
	}
	if err := s.streamRender(r.Context(), req, emit); err != nil {
		log.Printf("Render stream ended: %v", err)
	}
}

// handleRenderWS is handleRender over a websocket: each event is one JSON text message.
// Closing the socket cancels the render.
func (s *Server) handleRenderWS(w http.ResponseWriter, r *http.Request) {
	req, err := parseRenderRequest(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request: " + err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The client sends nothing; a read error means it went away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	emit := func(event RenderEvent) error {
		return conn.WriteJSON(event)
	}
	if err := s.streamRender(ctx, req, emit); err != nil {
		log.Printf("Render stream ended: %v", err)
		return
	}
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "render complete"))
}

// setSSEHeaders sets the required headers for Server-Sent Events
func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// streamRender runs one render and passes every event to emit from the calling goroutine.
// A render failure is reported as an error event; only emit failures and cancellation are returned.
func (s *Server) streamRender(ctx context.Context, req *RenderRequest, emit func(RenderEvent) error) error {
	consoleChan := make(chan ConsoleMessage, 64)
	renderID := fmt.Sprintf("render-%d", renderCounter.Add(1))
	logger := NewWebLogger(renderID, consoleChan)

	sceneObj, err := s.createScene(req)
	if err != nil {
		return emitError(emit, err.Error())
	}
	logger.Printf("Scene %q: %d spheres\n", req.Scene, sceneObj.World.Len())

	config := renderer.Config{
		Sampling: sceneObj.SamplingConfig,
		Workers:  req.Workers,
		Seed:     req.Seed,
	}
	raytracer := renderer.NewRaytracer(sceneObj.World, sceneObj.NewCamera(), config, logger)

	type outcome struct {
		result *renderer.RenderResult
		err    error
	}
	done := make(chan outcome, 1)
	startTime := time.Now()
	go func() {
		result, err := raytracer.Render(ctx)
		done <- outcome{result, err}
	}()

	for {
		select {
		case msg := <-consoleChan:
			if err := emitConsole(emit, msg); err != nil {
				return err
			}
		case out := <-done:
			if err := drainConsole(consoleChan, emit); err != nil {
				return err
			}
			if out.err != nil {
				return emitError(emit, fmt.Sprintf("Rendering failed: %v", out.err))
			}
			return emitComplete(emit, out.result, time.Since(startTime))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func drainConsole(consoleChan chan ConsoleMessage, emit func(RenderEvent) error) error {
	for {
		select {
		case msg := <-consoleChan:
			if err := emitConsole(emit, msg); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func emitConsole(emit func(RenderEvent) error, msg ConsoleMessage) error {
	return emitJSON(emit, EventConsole, msg)
}

func emitError(emit func(RenderEvent) error, message string) error {
	return emitJSON(emit, EventError, map[string]string{"message": message})
}

func emitComplete(emit func(RenderEvent) error, result *renderer.RenderResult, elapsed time.Duration) error {
	imageData, err := imageToBase64PNG(resultToImage(result))
	if err != nil {
		return emitError(emit, fmt.Sprintf("Encoding image failed: %v", err))
	}
	return emitJSON(emit, EventComplete, RenderComplete{
		Width:     result.Width,
		Height:    result.Height,
		ImageData: imageData,
		Stats: Stats{
			TotalPixels:      result.Stats.TotalPixels,
			SamplesPerPixel:  result.Stats.SamplesPerPixel,
			TotalSamples:     result.Stats.TotalSamples,
			Workers:          result.Stats.Workers,
			SamplesPerSecond: result.Stats.SamplesPerSecond(),
		},
		ElapsedMs: elapsed.Milliseconds(),
	})
}

func emitJSON(emit func(RenderEvent) error, eventType string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return emit(RenderEvent{Type: eventType, Data: data})
}
