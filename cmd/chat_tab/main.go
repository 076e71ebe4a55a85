package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"tab_chat_sync/internal/chat/app"
	"tab_chat_sync/internal/chat/domain"
	"tab_chat_sync/internal/chat/view"
	"tab_chat_sync/pkg/config"
	"tab_chat_sync/pkg/logger"

	"go.uber.org/zap"
)

const helpText = `commands:
  <text>          send to the current room
  /nick <name>    change your display name
  /join <room>    switch room
  /rooms          list rooms
  /who            list users
  /focus /blur    simulate window focus changes
  /quit           leave`

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatTab, config.EnvConfig.ChatTabLogPath)
	defer logger.Log.Sync()

	cfg, err := config.LoadConfig[config.ChatTab](config.EnvConfig.ChatTab, config.EnvConfig.ChatTabYAMLPath)
	if err != nil {
		logger.Log.Fatal("load config", zap.Error(err))
	}
	logger.Log.SetDebugMode(cfg.Debug)
	syncCfg := cfg.Sync.WithDefaults()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := app.NewBackend(ctx, cfg.Redis, syncCfg.Namespace)
	if err != nil {
		logger.Log.Fatal("connect store", zap.Error(err))
	}
	defer backend.Close()

	screen := newScreen(os.Stdout)
	session := app.NewSession(app.SessionConfig{
		Store:        backend.Store(syncCfg.Namespace, cfg.Profile),
		Feed:         backend.Feed,
		PollInterval: syncCfg.PollInterval,
		SeedDemo:     cfg.SeedDemo,
		Options: []app.EngineOption{
			app.WithRooms(app.RoomsFromConfig(cfg.Rooms)),
			app.WithChangeListener(screen.render),
		},
	})
	if err := session.Start(ctx); err != nil {
		logger.Log.Fatal("start session", zap.Error(err))
	}

	fmt.Fprintln(os.Stdout, helpText)
	lines := readLines(os.Stdin)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case line, ok := <-lines:
			if !ok || !handleLine(ctx, session, screen, line) {
				break loop
			}
		}
	}

	// teardown: the offline write is the last thing the session does
	if err := session.Close(context.Background()); err != nil {
		logger.Log.Error("close session", zap.Error(err))
	}
}

func readLines(r io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			out <- scanner.Text()
		}
	}()
	return out
}

// handleLine run one input line, false means quit
func handleLine(ctx context.Context, session *app.Session, screen *screen, line string) bool {
	facade := session.Facade()
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")

	switch cmd {
	case "":
	case "/quit":
		return false
	case "/help":
		screen.println(helpText)
	case "/nick":
		facade.SetUsername(ctx, arg)
	case "/join":
		facade.JoinRoom(arg)
	case "/rooms":
		v := facade.View()
		for _, r := range v.Rooms {
			marker := " "
			if r.ID == v.CurrentRoomID {
				marker = "*"
			}
			screen.println(fmt.Sprintf("%s %-10s %s", marker, r.ID, r.Description))
		}
	case "/who":
		now := time.Now()
		online, offline := view.SplitOnline(facade.Users())
		for _, u := range online {
			screen.println(fmt.Sprintf("  online   %s", u.DisplayName))
		}
		for _, u := range offline {
			screen.println(fmt.Sprintf("  offline  %s (%s)", u.DisplayName, view.TimeSince(u.LastActiveAt, now)))
		}
	case "/focus":
		session.Presence().Focus(ctx)
	case "/blur":
		session.Presence().Blur(ctx)
	default:
		if strings.HasPrefix(cmd, "/") {
			screen.println("unknown command, /help for help")
			return true
		}
		facade.SendMessage(ctx, line)
	}
	return true
}

// screen print messages of the current room that were not printed yet
type screen struct {
	mu      sync.Mutex
	out     io.Writer
	room    string
	printed map[string]bool
}

func newScreen(out io.Writer) *screen {
	return &screen{out: out, printed: make(map[string]bool)}
}

func (s *screen) println(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, line)
}

func (s *screen) render(v domain.View) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if v.CurrentRoomID != s.room {
		s.room = v.CurrentRoomID
		s.printed = make(map[string]bool)
		fmt.Fprintf(s.out, "== #%s ==\n", view.RoomName(v.Rooms, v.CurrentRoomID))
	}
	for _, m := range view.MessagesInRoom(v.Messages, s.room) {
		if s.printed[m.ID] {
			continue
		}
		s.printed[m.ID] = true
		fmt.Fprintln(s.out, view.Line(m, now))
	}
}
