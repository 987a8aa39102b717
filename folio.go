// Package folio serves a server-rendered site from a static route table and a
// persistent layout. Pages are Components rendered into the layout outlet; a
// websocket session can keep the layout mounted while the server re-resolves
// routes and sends back outlet content only.
package folio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/net/html"
)

// wsUpgrader is a Gorilla WebSocket instance, used to respond HTTP requests with WebSocket.
var wsUpgrader = websocket.Upgrader{}

// ChangeNotifier is implemented by content sources whose updates should re-render
// pages in open live sessions.
type ChangeNotifier interface {
	Subscribe() chan struct{}
	Unsubscribe(chan struct{})
}

// Handler serves routed pages wrapped in a Layout, along with assets and live sessions.
type Handler struct {
	// Router resolves request paths to page components.
	Router *Router

	// Layout wraps every rendered page.
	Layout *Layout

	// NotFound renders into the outlet when no route matches. If nil, the outlet stays
	// empty. The response status is 404 either way.
	NotFound Component

	// OnErrorComponent renders into the outlet when a page fails to render.
	// If not set, a standard "Internal Server Error" will be sent back to the client.
	OnErrorComponent Component

	// OnError is a callback that is called when an error occurs while serving a page.
	OnError func(*http.Request, error)

	// Assets, when set, are served before route resolution.
	Assets AssetCollector

	// Changes triggers re-rendering of the current page in live sessions.
	Changes ChangeNotifier

	// Metrics records route resolutions, render durations and live sessions.
	Metrics *Metrics

	// Logger configures logging for internal events.
	Logger *slog.Logger

	// init is used to initialize the handler only once.
	init sync.Once

	// logger is a private logger instance that is used to log internal events.
	logger *slog.Logger
}

// liveMessage is sent by the client to navigate within a live session.
type liveMessage struct {
	Path string `json:"path"`
}

// liveFrame is sent to the client with the outlet content of the current path.
// Nav holds the navigation re-rendered for the path. Matched is false when no
// route serves the path, so the client can load it as a regular document.
type liveFrame struct {
	Path    string `json:"path"`
	Status  int    `json:"status"`
	Matched bool   `json:"matched"`
	Title   string `json:"title"`
	Nav     string `json:"nav"`
	HTML    string `json:"html"`
}

// ServeHTTP implements the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.init.Do(func() {
		h.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		if h.Logger != nil {
			h.logger = h.Logger
		}
	})

	if err := h.handleRequest(w, r); err != nil {
		// A hijacked websocket connection has no HTTP response to write to.
		if !websocket.IsWebSocketUpgrade(r) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}

		h.logger.Error("Serve HTTP request", "url", r.URL.Redacted(), "error", err)

		if h.OnError != nil {
			h.OnError(r, err)
		}
	}
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) error {
	if h.Router == nil || h.Layout == nil {
		return errors.New("handler has no router or layout")
	}

	if h.Assets != nil {
		handled, err := h.Assets.ServeAsset(w, r)
		if handled || err != nil {
			return err
		}
	}

	if websocket.IsWebSocketUpgrade(r) {
		return h.serveLive(w, r)
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return nil
	}

	return h.servePage(w, r)
}

func (h *Handler) servePage(w http.ResponseWriter, r *http.Request) error {
	s, content, err := h.render(r, cleanPath(r.URL.EscapedPath()))
	if err != nil {
		return err
	}

	doc, err := h.Layout.Render(s, content)
	if err != nil {
		return fmt.Errorf("render layout: %w", err)
	}

	for k, vv := range s.Header() {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	if s.Status() != 0 {
		w.WriteHeader(s.Status())
	}

	if r.Method == http.MethodHead {
		return nil
	}

	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render HTML: %w", err)
	}
	return nil
}

// render resolves urlPath and renders the outlet content. For unmatched paths the
// scope status is 404 and the content is the NotFound component's output, if any.
func (h *Handler) render(r *http.Request, urlPath string) (*Scope, *html.Node, error) {
	m, ok := h.Router.Match(urlPath)
	if !ok {
		h.Metrics.observeResolution(unmatchedRoute)

		s := newScope(r, urlPath, nil)
		s.SetStatus(http.StatusNotFound)
		if h.NotFound == nil {
			return s, nil, nil
		}

		n, err := h.NotFound.Render(s)
		if err != nil {
			return s, nil, fmt.Errorf("render not found component: %w", err)
		}
		return s, n, nil
	}

	label := m.Route.Pattern
	h.Metrics.observeResolution(label)

	start := time.Now()
	defer func() { h.Metrics.observeRender(label, time.Since(start)) }()

	s := newScope(r, urlPath, m.Params)
	comp := &errorBoundary{page: m.Route.Page, fallback: h.OnErrorComponent}

	n, err := comp.Render(s)
	if err != nil {
		return s, nil, fmt.Errorf("render %s: %w", label, err)
	}
	return s, n, nil
}

// serveLive runs a live navigation session. The outlet of the current path is sent:
// 1. right after the upgrade
// 2. on each incoming navigation message, after moving to its path
// 3. whenever the content source reports a change
// The session ends when the client closes the connection.
func (h *Handler) serveLive(w http.ResponseWriter, r *http.Request) error {
	ws, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("upgrade websocket: %w", err)
	}
	defer ws.Close()

	h.Metrics.sessionStarted()
	defer h.Metrics.sessionEnded()

	current := cleanPath(r.URL.EscapedPath())
	if err := h.writeFrame(ws, r, current); err != nil {
		return err
	}

	var changes chan struct{}
	if h.Changes != nil {
		changes = h.Changes.Subscribe()
		defer h.Changes.Unsubscribe(changes)
	}

	navs := make(chan string)
	done := make(chan error, 1) // completion of the reader goroutine
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		for {
			var msg liveMessage
			if err := ws.ReadJSON(&msg); err != nil {
				if isMalformedMessage(err) {
					h.logger.Warn("Malformed live message", "url", r.URL.Redacted(), "error", err)
					continue
				}
				if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					err = nil
				} else {
					err = fmt.Errorf("read websocket message: %w", err)
				}
				done <- err
				return
			}

			select {
			case navs <- msg.Path:
			case <-stop:
				return
			}
		}
	}()

	for {
		select {
		case p := <-navs:
			if p != "" {
				u, err := url.Parse(p)
				if err != nil {
					h.logger.Warn("Invalid live navigation path", "path", p, "error", err)
					continue
				}
				current = cleanPath(u.EscapedPath())
			}
			if err := h.writeFrame(ws, r, current); err != nil {
				return err
			}
		case <-changes:
			if err := h.writeFrame(ws, r, current); err != nil {
				return err
			}
		case err := <-done:
			return err
		}
	}
}

// isMalformedMessage reports whether err comes from decoding a single message
// rather than from the connection.
func isMalformedMessage(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF)
}

// writeFrame renders urlPath and sends its outlet content. Render failures are
// reported to the client as a 500 frame and do not end the session.
func (h *Handler) writeFrame(ws *websocket.Conn, r *http.Request, urlPath string) error {
	_, matched := h.Router.Match(urlPath)
	frame := liveFrame{Path: urlPath, Status: http.StatusOK, Matched: matched}

	s, content, err := h.render(r, urlPath)
	if err != nil {
		h.logger.Error("Render live navigation", "path", urlPath, "error", err)
		if h.OnError != nil {
			h.OnError(r, err)
		}
		frame.Status = http.StatusInternalServerError
		frame.Title = h.Layout.PageTitle(nil)
		s = newScope(r, urlPath, nil)
	} else {
		if s.Status() != 0 {
			frame.Status = s.Status()
		}
		frame.Title = h.Layout.PageTitle(s)
		if frame.HTML, err = h.Layout.RenderOutlet(content); err != nil {
			return err
		}
	}

	nav, err := h.Layout.RenderNav(s)
	if err != nil {
		return err
	}
	if frame.Nav, err = RenderString(nav); err != nil {
		return fmt.Errorf("render navigation: %w", err)
	}

	if err := ws.WriteJSON(frame); err != nil {
		return fmt.Errorf("write websocket frame: %w", err)
	}
	return nil
}
