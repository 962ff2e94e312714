package websocket

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"phototriage/internal/logger"
)

// writeWait bounds a single send so one stalled viewer cannot hold up the rest.
const writeWait = 5 * time.Second

// HubService fans attempt results out to connected viewers. A viewer that
// connects between attempts is sent the most recent result first.
type HubService struct {
	viewers    map[*websocket.Conn]struct{}
	events     chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	quit       chan struct{}
	latest     []byte
	dropped    atomic.Int64
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		viewers:    make(map[*websocket.Conn]struct{}),
		events:     make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		quit:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves viewers until Stop is called.
func (h *HubService) Run() {
	for {
		select {
		case <-h.quit:
			h.mutex.Lock()
			for viewer := range h.viewers {
				viewer.Close()
			}
			h.viewers = make(map[*websocket.Conn]struct{})
			h.mutex.Unlock()
			return

		case viewer := <-h.register:
			if h.latest != nil && !h.send(viewer, h.latest) {
				viewer.Close()
				continue
			}
			h.mutex.Lock()
			h.viewers[viewer] = struct{}{}
			count := len(h.viewers)
			h.mutex.Unlock()
			h.logger.Info("👀 Viewer connected. Total: %d", count)

		case viewer := <-h.unregister:
			h.drop(viewer)

		case event := <-h.events:
			h.latest = event
			h.mutex.RLock()
			var failed []*websocket.Conn
			for viewer := range h.viewers {
				if !h.send(viewer, event) {
					failed = append(failed, viewer)
				}
			}
			h.mutex.RUnlock()
			for _, viewer := range failed {
				h.drop(viewer)
			}
		}
	}
}

func (h *HubService) send(viewer *websocket.Conn, event []byte) bool {
	viewer.SetWriteDeadline(time.Now().Add(writeWait))
	if err := viewer.WriteMessage(websocket.TextMessage, event); err != nil {
		h.logger.Warning("Failed to send event to viewer: %v", err)
		return false
	}
	return true
}

func (h *HubService) drop(viewer *websocket.Conn) {
	h.mutex.Lock()
	_, ok := h.viewers[viewer]
	delete(h.viewers, viewer)
	count := len(h.viewers)
	h.mutex.Unlock()

	if ok {
		viewer.Close()
		h.logger.Info("Viewer left. Total: %d", count)
	}
}

// Stop ends Run and disconnects every viewer.
func (h *HubService) Stop() {
	select {
	case <-h.quit:
	default:
		close(h.quit)
	}
}

func (h *HubService) Register(viewer *websocket.Conn) {
	select {
	case h.register <- viewer:
	case <-h.quit:
		viewer.Close()
	}
}

func (h *HubService) Unregister(viewer *websocket.Conn) {
	select {
	case h.unregister <- viewer:
	case <-h.quit:
	}
}

// Broadcast queues event for every viewer. It never blocks the caller; when
// the queue is full the event is dropped and counted.
func (h *HubService) Broadcast(event []byte) bool {
	select {
	case h.events <- event:
		return true
	default:
		h.dropped.Add(1)
		return false
	}
}

// Publish broadcasts v encoded as JSON.
func (h *HubService) Publish(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("Failed to encode event: %v", err)
		return
	}
	if !h.Broadcast(data) {
		h.logger.Warning("Event queue full, %d event(s) dropped so far", h.dropped.Load())
	}
}

// ViewerCount returns the number of connected viewers.
func (h *HubService) ViewerCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.viewers)
}

// Dropped returns how many events were discarded because the queue was full.
func (h *HubService) Dropped() int64 {
	return h.dropped.Load()
}
