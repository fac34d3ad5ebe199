package pointmorph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DebugCommand is a request sent by a panel client.
//
//	{"op":"morph","target":2}
//	{"op":"size","value":0.6}
//	{"op":"colors","a":"#ff0000","b":"#00ff00"}
type DebugCommand struct {
	Op     string  `json:"op"`
	Target int     `json:"target,omitempty"`
	Value  float32 `json:"value,omitempty"`
	A      string  `json:"a,omitempty"`
	B      string  `json:"b,omitempty"`
}

// DebugSnapshot is broadcast to every client periodically.
type DebugSnapshot struct {
	Type       string   `json:"type"`
	Frame      uint64   `json:"frame"`
	State      string   `json:"state"`
	Phase      string   `json:"phase"`
	Index      int      `json:"index"`
	From       int      `json:"from"`
	To         int      `json:"to"`
	Progress   float32  `json:"progress"`
	Particles  int      `json:"particles"`
	Targets    []string `json:"targets"`
	Preemption string   `json:"preemption"`
	Size       float32  `json:"size"`
	FPS        float64  `json:"fps"`
	// Stages and Systems are milliseconds spent in the previous frame.
	Stages  map[string]float64 `json:"stages_ms,omitempty"`
	Systems map[string]float64 `json:"systems_ms,omitempty"`
}

type debugError struct {
	Type  string `json:"type"`
	Op    string `json:"op"`
	Error string `json:"error"`
}

// DebugPanel serves a websocket at /ws and the latest snapshot at /state.
// Handlers only enqueue commands; the main loop applies them.
type DebugPanel struct {
	listener net.Listener
	server   *http.Server
	upgrader websocket.Upgrader
	commands chan DebugCommand
	every    int
	frames   int
	logger   Logger

	mu      sync.RWMutex
	clients map[*websocket.Conn]*panelClient
	latest  DebugSnapshot
	closed  bool
}

func NewDebugPanel(listen string, every int, logger Logger) (*DebugPanel, error) {
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return nil, fmt.Errorf("debug panel: %w", err)
	}
	if every <= 0 {
		every = 30
	}

	p := &DebugPanel{
		listener: ln,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // local tool
			},
		},
		commands: make(chan DebugCommand, 64),
		every:    every,
		logger:   logger,
		clients:  make(map[*websocket.Conn]*panelClient),
		latest:   DebugSnapshot{Type: "state"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", p.handleWebSocket)
	mux.HandleFunc("/state", p.handleState)
	p.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := p.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Debug panel stopped: %v", err)
		}
	}()
	logger.Infof("Debug panel listening on %s", ln.Addr())
	return p, nil
}

func (p *DebugPanel) Addr() string {
	return p.listener.Addr().String()
}

func (p *DebugPanel) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		p.logger.Warnf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	client := &panelClient{conn: conn, send: make(chan any, clientQueueSize)}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.clients[conn] = client
	client.send <- p.latest
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.clients, conn)
		close(client.send)
		p.mu.Unlock()
	}()
	p.logger.Infof("Debug client connected: %s", r.RemoteAddr)

	go client.writeLoop(p.logger)

	for {
		var cmd DebugCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				p.logger.Debugf("Debug client %s: %v", r.RemoteAddr, err)
			}
			return
		}
		select {
		case p.commands <- cmd:
		default:
			p.logger.Warnf("Debug command queue full, dropping %q", cmd.Op)
		}
	}
}

func (p *DebugPanel) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(p.Snapshot()); err != nil {
		p.logger.Warnf("Debug state: %v", err)
	}
}

// Snapshot returns the most recently published snapshot.
func (p *DebugPanel) Snapshot() DebugSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// Publish stores snap and sends it to every client.
func (p *DebugPanel) Publish(snap DebugSnapshot) {
	p.mu.Lock()
	p.latest = snap
	p.mu.Unlock()
	p.broadcast(snap)
}

// broadcast queues msg for every client without blocking. A client whose
// queue is full misses the message.
func (p *DebugPanel) broadcast(msg any) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, client := range p.clients {
		select {
		case client.send <- msg:
		default:
			p.logger.Debugf("Debug client %s is slow, dropping message", client.conn.RemoteAddr())
		}
	}
}

const (
	clientQueueSize   = 16
	clientWriteTimeout = 2 * time.Second
)

// panelClient owns the writes to one connection.
type panelClient struct {
	conn *websocket.Conn
	send chan any
}

func (c *panelClient) writeLoop(logger Logger) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(clientWriteTimeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			logger.Debugf("Debug client %s: %v", c.conn.RemoteAddr(), err)
			// unblocks the read loop, which unregisters the client
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}

// Close stops the server and disconnects every client. Safe to call twice.
func (p *DebugPanel) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	for client := range p.clients {
		client.Close()
	}
	p.mu.Unlock()
	return p.server.Shutdown(ctx)
}

// apply runs one command against the cloud on the main loop.
func (p *DebugPanel) apply(cmd DebugCommand, cloud *ParticleCloud) error {
	if !cloud.Ready() {
		return errors.New("particle cloud not ready")
	}
	switch cmd.Op {
	case "morph":
		return cloud.Morph(cmd.Target)
	case "size":
		if cmd.Value <= 0 {
			return fmt.Errorf("size must be positive, got %v", cmd.Value)
		}
		cloud.Controller.Uniforms().Size = cmd.Value
	case "colors":
		u := cloud.Controller.Uniforms()
		if cmd.A != "" {
			a, err := ParseColor(cmd.A)
			if err != nil {
				return err
			}
			u.ColorA = a
		}
		if cmd.B != "" {
			b, err := ParseColor(cmd.B)
			if err != nil {
				return err
			}
			u.ColorB = b
		}
	default:
		return fmt.Errorf("unknown op %q", cmd.Op)
	}
	return nil
}

type DebugPanelModule struct {
	Listen          string
	BroadcastFrames int
}

// Install starts the panel. A panel that cannot listen is logged and
// skipped; the app runs without it.
func (mod DebugPanelModule) Install(app *App, cmd *Commands) {
	if mod.Listen == "" {
		return
	}
	panel, err := NewDebugPanel(mod.Listen, mod.BroadcastFrames, app.Logger().With("panel"))
	if err != nil {
		app.Logger().Errorf("%v", err)
		return
	}
	cmd.AddResources(panel)
	app.EnableProfiling()
	app.UseSystem(
		System(debugCommandSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
	app.UseSystem(
		System(debugBroadcastSystem).
			InStage(PostRender).
			RunAlways(),
	)
}

func debugCommandSystem(panel *DebugPanel, cloud *ParticleCloud) {
	for {
		select {
		case cmd := <-panel.commands:
			if err := panel.apply(cmd, cloud); err != nil {
				panel.logger.Warnf("Debug command %q: %v", cmd.Op, err)
				panel.broadcast(debugError{Type: "error", Op: cmd.Op, Error: err.Error()})
			}
		default:
			return
		}
	}
}

func debugBroadcastSystem(panel *DebugPanel, cloud *ParticleCloud, t *Time, cmd *Commands) {
	panel.frames++
	if panel.frames%panel.every != 0 {
		return
	}
	snap := snapshotCloud(cloud, t, cmd.State())
	snap.Stages, snap.Systems = profileMillis(cmd.LastProfile())
	panel.Publish(snap)
}

func profileMillis(p FrameProfile) (stages, systems map[string]float64) {
	if len(p.Stages) == 0 {
		return nil, nil
	}
	ms := func(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
	stages = make(map[string]float64, len(p.Stages))
	for name, d := range p.Stages {
		stages[name] = ms(d)
	}
	systems = make(map[string]float64, len(p.Systems))
	for name, d := range p.Systems {
		systems[name] = ms(d)
	}
	return stages, systems
}

func snapshotCloud(cloud *ParticleCloud, t *Time, state State) DebugSnapshot {
	snap := DebugSnapshot{
		Type:  "state",
		Frame: t.Frame,
		State: stateName(state),
	}
	if t.Dt > 0 {
		snap.FPS = 1 / t.Dt.Seconds()
	}
	if !cloud.Ready() {
		return snap
	}
	ctrl := cloud.Controller
	ms := ctrl.State()
	snap.Phase = ms.Phase.String()
	snap.Index = ctrl.Index()
	snap.From, snap.To = ms.From, ms.To
	snap.Progress = ctrl.Progress()
	snap.Particles = ctrl.Count()
	snap.Preemption = ctrl.Preemption().String()
	snap.Size = ctrl.Uniforms().Size
	for k := 0; k < ctrl.NumTargets(); k++ {
		snap.Targets = append(snap.Targets, ctrl.TargetName(k))
	}
	return snap
}

func stateName(s State) string {
	switch s {
	case StateLoading:
		return "loading"
	case StateRunning:
		return "running"
	case StateExiting:
		return "exiting"
	}
	return fmt.Sprintf("state(%d)", int(s))
}
