package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gioui.org/x/explorer"
	"github.com/felixgeelhaar/bolt/v3"
	"github.com/fsnotify/fsnotify"

	"git.sr.ht/~whereswaldon/omhviz/logging"
	"git.sr.ht/~whereswaldon/omhviz/omh"
	"git.sr.ht/~whereswaldon/omhviz/settings"
)

// Session is one immutable snapshot of chart input. Every change to the
// watched files produces a new Session; charts are rebuilt, never updated.
type Session struct {
	ID           string
	Source       string
	Observations []omh.Observation
	Options      settings.Options
	Err          error
}

type RWBox[T any] struct {
	t    T
	lock sync.RWMutex
}

func (r *RWBox[T]) Read(f func(*T)) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	f(&r.t)
}

func (r *RWBox[T]) Write(f func(*T)) {
	r.lock.Lock()
	defer r.lock.Unlock()
	f(&r.t)
}

// Datasource loads observation snapshots and publishes them as Sessions.
type Datasource struct {
	log     *bolt.Logger
	watcher *fsnotify.Watcher

	inputPath    string
	settingsPath string

	latest RWBox[Session]
	subs   RWBox[map[chan Session]struct{}]
}

// NewDatasource prepares a datasource reading inputPath ("-" for stdin)
// with user options from settingsPath (may be empty).
func NewDatasource(log *bolt.Logger, inputPath, settingsPath string) (*Datasource, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed creating file watcher: %w", err)
	}
	d := &Datasource{
		log:          log,
		watcher:      watcher,
		inputPath:    inputPath,
		settingsPath: settingsPath,
	}
	d.subs.Write(func(m *map[chan Session]struct{}) {
		*m = make(map[chan Session]struct{})
	})
	return d, nil
}

func (d *Datasource) Close() error {
	return d.watcher.Close()
}

func generateSessionID() string {
	return strings.Replace(time.Now().UTC().Format("20060102150405.000000000"), ".", "", 1)
}

// Sessions returns a channel that first yields the latest session (if any)
// and then every newer one until ctx is done. A slow reader only ever
// misses intermediate sessions, never the newest.
func (d *Datasource) Sessions(ctx context.Context) <-chan Session {
	out := make(chan Session, 1)
	// Subscribe and snapshot under one lock so no publish lands between.
	d.latest.Read(func(s *Session) {
		d.subs.Write(func(m *map[chan Session]struct{}) {
			(*m)[out] = struct{}{}
		})
		if s.ID == "" {
			return
		}
		select {
		case out <- *s:
		default:
		}
	})
	go func() {
		<-ctx.Done()
		d.subs.Write(func(m *map[chan Session]struct{}) {
			delete(*m, out)
		})
	}()
	return out
}

func (d *Datasource) publish(s Session) {
	d.latest.Write(func(l *Session) { *l = s })
	d.subs.Read(func(m *map[chan Session]struct{}) {
		for ch := range *m {
			// Replace any unread session with the newer one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	})
	e := logging.With(d.log.Info(), logging.Session(s.ID), logging.Path(s.Source), logging.Count("observations", len(s.Observations)), logging.Error(s.Err))
	e.Msg("published session")
}

func (d *Datasource) loadOptions() (settings.Options, error) {
	if d.settingsPath == "" {
		return settings.Options{}, nil
	}
	return settings.Load(d.settingsPath)
}

// Load reads the input once and publishes the resulting session.
func (d *Datasource) Load() {
	s := Session{ID: generateSessionID(), Source: d.inputPath}
	var err error
	s.Options, err = d.loadOptions()
	if err == nil {
		s.Observations, err = readFile(d.inputPath, d.log)
	}
	s.Err = err
	d.publish(s)
}

// LoadFromStream publishes a session from an already opened source, such
// as a file picked in the UI. The source is closed.
func (d *Datasource) LoadFromStream(name string, r io.ReadCloser) {
	defer r.Close()
	s := Session{ID: generateSessionID(), Source: name}
	var err error
	s.Options, err = d.loadOptions()
	if err == nil {
		s.Observations, err = ReadSnapshot(r, d.log)
	}
	s.Err = err
	d.publish(s)
}

// LoadFromFile asks the user for an observation file and publishes it.
func (d *Datasource) LoadFromFile(expl *explorer.Explorer) error {
	file, err := expl.ChooseFile(".json", ".ndjson", ".jsonl")
	if err != nil {
		return err
	}
	d.LoadFromStream("chosen file", file)
	return nil
}

// Run publishes the initial session and then keeps the published session
// current until ctx is done. Files are reloaded when they change on disk
// if watch is set. Standard input is streamed: a new session is published
// after every burst of complete lines.
func (d *Datasource) Run(ctx context.Context, watch bool) error {
	if d.inputPath == "-" {
		return d.streamStdin(ctx, os.Stdin)
	}
	d.Load()
	if !watch {
		<-ctx.Done()
		return nil
	}
	watched := map[string]bool{}
	for _, p := range []string{d.inputPath, d.settingsPath} {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		watched[abs] = true
		// Editors often replace files rather than writing them, so watch
		// the directory and filter by name.
		if err := d.watcher.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-d.watcher.Events:
			if !ok {
				return nil
			}
			abs, _ := filepath.Abs(ev.Name)
			if !watched[abs] || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			logging.With(d.log.Debug(), logging.Path(ev.Name)).Msg("input changed")
			d.Load()
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return nil
			}
			logging.With(d.log.Warn(), logging.Error(err)).Msg("file watcher error")
		}
	}
}

func (d *Datasource) streamStdin(ctx context.Context, r io.Reader) error {
	opts, err := d.loadOptions()
	if err != nil {
		d.publish(Session{ID: generateSessionID(), Source: "stdin", Err: err})
		return nil
	}
	br := bufio.NewReader(r)
	first, err := br.Peek(1)
	if err == nil && first[0] == '[' {
		obs, err := omh.Decode(br)
		d.publish(Session{ID: generateSessionID(), Source: "stdin", Observations: obs, Options: opts, Err: err})
		return nil
	}
	var (
		obs  []omh.Observation
		line int
	)
	for ctx.Err() == nil {
		b, err := br.ReadBytes('\n')
		obs = appendLine(d.log, obs, b, &line)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logging.With(d.log.Error(), logging.Error(err)).Msg("could not read observations")
			}
			d.publish(Session{ID: generateSessionID(), Source: "stdin", Observations: obs, Options: opts})
			return nil
		}
		if br.Buffered() == 0 {
			d.publish(Session{ID: generateSessionID(), Source: "stdin", Observations: obs, Options: opts})
		}
	}
	return nil
}

// appendLine decodes one NDJSON line onto obs. Blank lines are ignored.
// Malformed lines are skipped with a warning naming their line index.
func appendLine(log *bolt.Logger, obs []omh.Observation, b []byte, line *int) []omh.Observation {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return obs
	}
	index := *line
	*line++
	var o omh.Observation
	if err := json.Unmarshal(trimmed, &o); err != nil {
		logging.With(log.Warn(), logging.Observation(index), logging.Error(err)).Msg("skipping malformed observation")
		return obs
	}
	return append(obs, o)
}

func readFile(path string, log *bolt.Logger) ([]omh.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening observations: %w", err)
	}
	defer f.Close()
	return ReadSnapshot(f, log)
}

// ReadSnapshot decodes a JSON array of observations, or newline-delimited
// observations of which only the complete lines are used. Malformed lines
// are logged to log and skipped; a malformed array fails as a whole.
func ReadSnapshot(r io.Reader, log *bolt.Logger) ([]omh.Observation, error) {
	if log == nil {
		log = logging.Discard()
	}
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if first == '[' {
		return omh.Decode(br)
	}
	lines := bufio.NewReader(NewLineReader(br))
	var (
		obs  []omh.Observation
		line int
	)
	for {
		b, err := lines.ReadBytes('\n')
		obs = appendLine(log, obs, b, &line)
		if errors.Is(err, io.EOF) {
			return obs, nil
		}
		if err != nil {
			return obs, err
		}
	}
}

// peekNonSpace discards leading whitespace and returns the next byte
// without consuming it.
func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			_, _ = br.ReadByte()
		default:
			return b[0], nil
		}
	}
}
