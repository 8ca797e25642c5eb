package player

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reelcast/reelcast/constant"
	"github.com/reelcast/reelcast/log"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
)

// MPV controls one mpv process over JSON-IPC.
type MPV struct {
	title      string
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}
	mu         sync.Mutex
}

// NewMPV returns an idle engine; the process starts on the first Load.
func NewMPV(title string) *MPV {
	exited := make(chan struct{})
	close(exited)
	return &MPV{title: sanitizeTitle(title), exited: exited}
}

// Load starts mpv on first use and afterwards swaps the stream in place so the
// window and the IPC socket survive quality changes.
func (m *MPV) Load(rawURL string, start time.Duration) error {
	target, err := sanitizeMediaTarget(rawURL)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}

	if !m.IsRunning() {
		return m.spawn(target, start)
	}

	// start is a global option that applies to the next loaded file.
	if _, err := m.sendCommand([]interface{}{"set_property", "start", formatSeconds(start)}); err != nil {
		return err
	}
	_, err = m.sendCommand([]interface{}{"loadfile", target, "replace"})
	return err
}

func (m *MPV) spawn(target string, start time.Duration) error {
	if m.socketPath == "" {
		m.socketPath = filepath.Join(os.TempDir(), fmt.Sprintf("%s-%s.sock", constant.Reelcast, uuid.NewString()[:8]))
	}

	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--input-ipc-server=" + m.socketPath,
		"--force-media-title=" + m.title,
		"--title=" + m.title,
		"--force-window=yes",
		"--idle=yes",
		"--user-agent=" + constant.UserAgent,
		"--start=" + formatSeconds(start),
		target,
	}

	m.cmd = exec.Command("mpv", args...)
	m.cmd.SysProcAttr = sysProcAttr()

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	m.exited = make(chan struct{})
	go func(cmd *exec.Cmd, exited chan struct{}) {
		_ = cmd.Wait()
		close(exited)
	}(m.cmd, m.exited)

	if err := m.waitForSocket(); err != nil {
		select {
		case <-m.exited:
		default:
			log.Warnf("mpv: killing process, socket never became ready")
			_ = killProcess(m.cmd)
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	return nil
}

// Wait returns a channel closed once the mpv process exits.
// It is already closed before the first Load.
func (m *MPV) Wait() <-chan struct{} {
	return m.exited
}

// waitForSocket polls until mpv accepts connections on its IPC socket.
func (m *MPV) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-m.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			_ = conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

// Position reads the current time-pos property.
func (m *MPV) Position() (time.Duration, error) {
	secs, err := m.getFloatProperty("time-pos")
	if err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Seek jumps to the absolute position pos.
func (m *MPV) Seek(pos time.Duration) error {
	_, err := m.sendCommand([]interface{}{"seek", pos.Seconds(), "absolute"})
	return err
}

// TogglePause flips the pause property.
func (m *MPV) TogglePause() error {
	_, err := m.sendCommand([]interface{}{"cycle", "pause"})
	return err
}

// IsRunning reports whether mpv answers on its socket.
func (m *MPV) IsRunning() bool {
	if m.socketPath == "" {
		return false
	}

	select {
	case <-m.exited:
		return false
	default:
	}

	_, err := m.sendCommand([]interface{}{"get_property", "pid"})
	return err == nil
}

// Listen starts an event listener on the mpv socket.
func (m *MPV) Listen(callback EventCallback) (*EventListener, error) {
	listener := NewEventListener(m.socketPath, callback)
	if err := listener.Start(); err != nil {
		return nil, err
	}
	return listener, nil
}

// Close asks mpv to quit and kills it if it does not exit in time.
func (m *MPV) Close() error {
	if m.socketPath == "" {
		return nil
	}

	_, _ = m.sendCommand([]interface{}{"quit"})

	select {
	case <-m.exited:
	case <-time.After(3 * time.Second):
		_ = killProcess(m.cmd)
	}

	_ = os.Remove(m.socketPath)
	return nil
}

func (m *MPV) getFloatProperty(name string) (float64, error) {
	data, err := m.sendCommand([]interface{}{"get_property", name})
	if err != nil {
		return 0, err
	}

	val, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("property %s: expected number, got %T", name, data)
	}
	return val, nil
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatInt(int64(d/time.Second), 10)
}

// sanitizeMediaTarget rejects anything mpv could parse as a flag and any
// scheme other than http(s) or a local path.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-'")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}

func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}
