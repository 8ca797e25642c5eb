package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// fakeMPV answers JSON-IPC commands on a unix socket and, once every
// observer is registered on a connection, pushes events on it.
type fakeMPV struct {
	path     string
	ln       net.Listener
	events   []string
	mu       sync.Mutex
	commands [][]interface{}
}

func startFakeMPV(events ...string) (*fakeMPV, error) {
	dir, err := os.MkdirTemp("", "rc")
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, "mpv.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}

	f := &fakeMPV{path: path, ln: ln, events: events}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go f.serve(conn)
		}
	}()
	return f, nil
}

func (f *fakeMPV) Close() {
	_ = f.ln.Close()
	_ = os.RemoveAll(filepath.Dir(f.path))
}

func (f *fakeMPV) Commands() [][]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]interface{}(nil), f.commands...)
}

func (f *fakeMPV) serve(conn net.Conn) {
	defer conn.Close()

	r := bufio.NewReader(conn)
	observers := 0
	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			return
		}

		var cmd ipcCommand
		if json.Unmarshal(line, &cmd) != nil || len(cmd.Command) == 0 {
			continue
		}

		f.mu.Lock()
		f.commands = append(f.commands, cmd.Command)
		f.mu.Unlock()

		var data interface{}
		if cmd.Command[0] == "get_property" {
			switch cmd.Command[1] {
			case "pid":
				data = 1234
			case "time-pos":
				data = 42.5
			}
		}

		// Unrelated broadcast that command replies must skip.
		_, _ = fmt.Fprintln(conn, `{"event":"playback-restart"}`)
		reply, _ := json.Marshal(ipcResponse{Data: data, Error: "success", RequestID: cmd.RequestID})
		_, _ = conn.Write(append(reply, '\n'))

		if cmd.Command[0] == "observe_property" {
			observers++
			if observers == len(observed) {
				for _, event := range f.events {
					_, _ = fmt.Fprintln(conn, event)
				}
			}
		}
	}
}

func TestMPV(t *testing.T) {
	Convey("Given an mpv instance that was never started", t, func() {
		mpv := NewMPV("Harbor\n(2019)")

		Convey("It is not running and has already exited", func() {
			So(mpv.IsRunning(), ShouldBeFalse)
			_, open := <-mpv.Wait()
			So(open, ShouldBeFalse)
			So(mpv.title, ShouldEqual, "Harbor (2019)")
		})

		Convey("It rejects targets that look like flags", func() {
			So(mpv.Load("--script=evil.lua", 0), ShouldNotBeNil)
			So(mpv.Load("ftp://cdn/v.mp4", 0), ShouldNotBeNil)
		})
	})

	Convey("Given a running mpv", t, func() {
		fake, err := startFakeMPV()
		So(err, ShouldBeNil)
		defer fake.Close()

		mpv := &MPV{socketPath: fake.path, exited: make(chan struct{})}

		Convey("Load swaps the stream in place at the requested position", func() {
			So(mpv.Load("https://cdn/v/720/index.m3u8", 95*time.Second+300*time.Millisecond), ShouldBeNil)

			commands := fake.Commands()
			So(commands, ShouldHaveLength, 3)
			So(commands[0], ShouldResemble, []interface{}{"get_property", "pid"})
			So(commands[1], ShouldResemble, []interface{}{"set_property", "start", "95"})
			So(commands[2], ShouldResemble, []interface{}{"loadfile", "https://cdn/v/720/index.m3u8", "replace"})
		})

		Convey("Position reads time-pos", func() {
			pos, err := mpv.Position()
			So(err, ShouldBeNil)
			So(pos, ShouldEqual, 42500*time.Millisecond)
		})

		Convey("Seek and pause are sent as commands", func() {
			So(mpv.Seek(90*time.Second), ShouldBeNil)
			So(mpv.TogglePause(), ShouldBeNil)

			commands := fake.Commands()
			So(commands[0], ShouldResemble, []interface{}{"seek", 90.0, "absolute"})
			So(commands[1], ShouldResemble, []interface{}{"cycle", "pause"})
		})
	})
}

func TestEventListener(t *testing.T) {
	Convey("Given mpv pushing events", t, func() {
		fake, err := startFakeMPV(
			`{"event":"property-change","id":1,"name":"paused-for-cache","data":true}`,
			`{"event":"property-change","id":3,"name":"time-pos","data":3.5}`,
			`not json`,
			`{"event":"end-file","reason":"eof"}`,
		)
		So(err, ShouldBeNil)
		defer fake.Close()

		type call struct {
			name string
			data interface{}
		}
		calls := make(chan call, 16)

		listener := NewEventListener(fake.path, func(name string, data interface{}) {
			calls <- call{name, data}
		})
		So(listener.Start(), ShouldBeNil)
		defer listener.Stop()

		Convey("Observers are registered on the listening connection", func() {
			commands := fake.Commands()
			So(commands, ShouldHaveLength, len(observed))
			So(commands[0], ShouldResemble, []interface{}{"observe_property", 1.0, "paused-for-cache"})
		})

		Convey("Property changes and other events reach the callback in order", func() {
			var got []call
			timeout := time.After(2 * time.Second)
			for len(got) < 3 {
				select {
				case c := <-calls:
					got = append(got, c)
				case <-timeout:
					So(len(got), ShouldEqual, 3)
					return
				}
			}

			So(got[0], ShouldResemble, call{"paused-for-cache", true})
			So(got[1], ShouldResemble, call{"time-pos", 3.5})
			So(got[2].name, ShouldEqual, "end-file")
			So(got[2].data.(map[string]interface{})["reason"], ShouldEqual, "eof")
		})

		Convey("Stop ends the read loop", func() {
			listener.Stop()
			select {
			case <-listener.Done():
			case <-time.After(time.Second):
			}
			_, open := <-listener.Done()
			So(open, ShouldBeFalse)
		})
	})
}

func TestSanitize(t *testing.T) {
	Convey("sanitizeMediaTarget", t, func() {
		target, err := sanitizeMediaTarget("  https://cdn/v.mp4 ")
		So(err, ShouldBeNil)
		So(target, ShouldEqual, "https://cdn/v.mp4")

		target, err = sanitizeMediaTarget("videos/../videos/a.mp4")
		So(err, ShouldBeNil)
		So(target, ShouldEqual, "videos/a.mp4")

		_, err = sanitizeMediaTarget("")
		So(err, ShouldNotBeNil)
		_, err = sanitizeMediaTarget("https://cdn/v.mp4\nnext")
		So(err, ShouldNotBeNil)
	})
}
