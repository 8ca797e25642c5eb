package player

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/reelcast/reelcast/log"
)

// EventCallback receives property changes as (property, value) and other
// events as (event name, raw event object).
type EventCallback func(name string, data interface{})

// Observed properties, in observer id order.
var observed = []string{
	"paused-for-cache",
	"seeking",
	"time-pos",
	"pause",
	"eof-reached",
}

// EventListener keeps a connection to mpv open and dispatches its events.
// Observers are bound to the connection that registered them, so
// registration and reading share one connection.
type EventListener struct {
	socketPath string
	callback   EventCallback

	mu        sync.Mutex
	conn      net.Conn
	listening bool
	done      chan struct{}
}

// NewEventListener prepares a listener for the mpv socket at socketPath; events flow after Start.
func NewEventListener(socketPath string, callback EventCallback) *EventListener {
	return &EventListener{
		socketPath: socketPath,
		callback:   callback,
		done:       make(chan struct{}),
	}
}

// Start registers the observers and starts the read loop.
func (el *EventListener) Start() error {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.listening {
		return nil
	}

	conn, err := net.Dial("unix", el.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	r := bufio.NewReader(conn)
	if err := conn.SetDeadline(time.Now().Add(readDeadline)); err != nil {
		_ = conn.Close()
		return err
	}

	for i, name := range observed {
		if _, err := exchange(conn, r, []interface{}{"observe_property", i + 1, name}); err != nil {
			_ = conn.Close()
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}

	if err := conn.SetDeadline(time.Time{}); err != nil {
		_ = conn.Close()
		return err
	}

	el.conn = conn
	el.listening = true
	go el.readLoop(r)

	log.Infof("mpv: observing %v on %s", observed, el.socketPath)
	return nil
}

// Stop closes the connection and waits for the read loop to exit.
func (el *EventListener) Stop() {
	el.mu.Lock()
	if !el.listening {
		el.mu.Unlock()
		return
	}
	el.listening = false
	_ = el.conn.Close()
	el.mu.Unlock()

	<-el.done
}

// Done is closed once the read loop exits.
func (el *EventListener) Done() <-chan struct{} {
	return el.done
}

func (el *EventListener) readLoop(r *bufio.Reader) {
	defer close(el.done)

	for {
		line, err := r.ReadBytes('\n')
		if len(line) > 0 {
			el.dispatch(line)
		}
		if err != nil {
			if !errors.Is(err, net.ErrClosed) && !errors.Is(err, os.ErrDeadlineExceeded) {
				log.Debugf("mpv: event loop: %v", err)
			}
			return
		}
	}
}

type mpvEvent struct {
	Event string      `json:"event"`
	Name  string      `json:"name"`
	Data  interface{} `json:"data"`
}

// dispatch decodes one event line. Command replies and garbage are ignored.
func (el *EventListener) dispatch(line []byte) {
	if el.callback == nil {
		return
	}

	var event mpvEvent
	if err := json.Unmarshal(line, &event); err != nil || event.Event == "" {
		return
	}

	if event.Event == "property-change" {
		if event.Name != "" {
			el.callback(event.Name, event.Data)
		}
		return
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(line, &raw)
	el.callback(event.Event, raw)
}
