package room

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chess-live-server/internal/archive"
	"github.com/park285/chess-live-server/internal/directory"
	"github.com/park285/chess-live-server/internal/game"
	"github.com/park285/chess-live-server/internal/obslog"
)

// Options configures a Registry. Directory and Archive are optional; a nil
// Engine falls back to the built-in chess rules.
type Options struct {
	Engine game.Engine
	// IdleTTL is how long a room may sit with zero participants before the
	// janitor removes it. Zero disables reaping entirely.
	IdleTTL   time.Duration
	Directory *directory.Directory
	Archive   *archive.Repository
}

// Registry is the process-wide mapping from room code to room. It is an
// explicitly constructed instance, passed to the connection-accepting
// component rather than living in package state.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
	opts  Options

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewRegistry(opts Options) *Registry {
	if opts.Engine == nil {
		opts.Engine = game.NewChessEngine()
	}
	reg := &Registry{
		rooms:  make(map[string]*Room),
		opts:   opts,
		stopCh: make(chan struct{}),
	}
	if opts.IdleTTL > 0 {
		reg.wg.Add(1)
		go reg.janitor()
	}
	return reg
}

// GetOrCreate returns the room for code, creating it on first reference.
// Idempotent and safe under concurrent first access: at most one live room
// instance ever exists per code. Looking a room up restarts its idle clock;
// a room the janitor already closed is replaced with a fresh one.
func (reg *Registry) GetOrCreate(code string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r, ok := reg.rooms[code]; ok && r.touch(time.Now()) {
		return r
	}
	r := newRoom(code, reg.opts.Engine, reg.opts.Directory, reg.opts.Archive)
	reg.rooms[code] = r
	obslog.L().Info("room_create", zap.String("room", code))
	return r
}

// Len reports how many rooms are currently registered.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// Close stops the janitor and waits for it.
func (reg *Registry) Close() {
	reg.stopOnce.Do(func() { close(reg.stopCh) })
	reg.wg.Wait()
}

func (reg *Registry) janitor() {
	defer reg.wg.Done()
	interval := reg.opts.IdleTTL
	if interval > time.Minute {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-reg.stopCh:
			return
		case now := <-t.C:
			reg.reapOnce(now)
		}
	}
}

// reapOnce closes and removes every room that has been empty longer than
// IdleTTL and returns how many were dropped. Rooms are closed before removal,
// so a connection holding a doomed instance sees Add fail and re-resolves the
// code instead of playing in an orphan. The session dies with the room; a
// later connection under the same code gets a fresh game.
func (reg *Registry) reapOnce(now time.Time) int {
	if reg.opts.IdleTTL <= 0 {
		return 0
	}
	reg.mu.Lock()
	var doomed []*Room
	for code, r := range reg.rooms {
		if r.closeIfIdle(now, reg.opts.IdleTTL) {
			doomed = append(doomed, r)
			delete(reg.rooms, code)
		}
	}
	reg.mu.Unlock()

	for _, r := range doomed {
		obslog.L().Info("room_reap", zap.String("room", r.Code()))
		if reg.opts.Directory != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := reg.opts.Directory.Remove(ctx, r.Code()); err != nil {
				obslog.L().Warn("directory_remove_error", zap.String("room", r.Code()), zap.Error(err))
			}
			cancel()
		}
	}
	return len(doomed)
}
