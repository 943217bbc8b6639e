package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/cvasquez/chesslink/internal/authclient"
	"github.com/cvasquez/chesslink/internal/config"
	"github.com/cvasquez/chesslink/internal/engine"
	"github.com/cvasquez/chesslink/internal/game"
	"github.com/cvasquez/chesslink/internal/history"
	"github.com/cvasquez/chesslink/internal/msgcat"
	"github.com/cvasquez/chesslink/internal/obslog"
	"github.com/cvasquez/chesslink/internal/present"
	"github.com/cvasquez/chesslink/internal/realtime"
	"github.com/cvasquez/chesslink/internal/session"
)

// App is the interactive command loop. One session controller lives at a
// time; login tears the previous one down.
type App struct {
	cfg     *config.AppConfig
	store   session.Store
	auth    *authclient.Client
	catalog *msgcat.Catalog
	histRep *history.Repository

	in     io.Reader
	reader *bufio.Reader
	out    io.Writer

	ctrl      *game.Controller
	presenter present.Presenter
}

func NewApp(cfg *config.AppConfig, store session.Store, auth *authclient.Client, catalog *msgcat.Catalog, histRep *history.Repository, in io.Reader, out io.Writer) *App {
	return &App{
		cfg:       cfg,
		store:     store,
		auth:      auth,
		catalog:   catalog,
		histRep:   histRep,
		in:        in,
		reader:    bufio.NewReader(in),
		out:       out,
		presenter: present.NewConsole(out),
	}
}

// Run reads commands until quit or EOF. A stored credential triggers an
// immediate connection attempt before the first prompt.
func (a *App) Run(ctx context.Context) error {
	if cred, err := a.store.Load(ctx); err == nil && cred != nil {
		fmt.Fprintln(a.out, a.catalog.MustRender("auth.logged_in", map[string]any{"Username": cred.Username}))
		if err := a.connect(ctx, cred); err != nil {
			obslog.L().Warn("auto_connect_failed", zap.Error(err))
		}
	}

	for {
		fmt.Fprint(a.out, "> ")
		line, err := a.readLine()
		if err != nil {
			a.teardown()
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if line == "" {
			continue
		}
		quit, err := a.dispatch(ctx, line)
		if err != nil {
			fmt.Fprintf(a.out, "error: %v\n", err)
		}
		if quit {
			break
		}
	}
	a.teardown()
	return nil
}

func (a *App) dispatch(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "help":
		a.printHelp()
	case "register":
		err = a.cmdRegister(ctx, args)
	case "login":
		err = a.cmdLogin(ctx, args)
	case "logout":
		err = a.cmdLogout(ctx)
	case "create":
		err = a.cmdCreate(ctx, args)
	case "join":
		err = a.cmdJoin(ctx, args)
	case "move":
		err = a.cmdMove(ctx, args)
	case "say":
		err = a.cmdSay(ctx, args)
	case "status":
		a.cmdStatus()
	case "quit", "exit":
		return true, nil
	default:
		err = fmt.Errorf("unknown command %q, try help", cmd)
	}
	return false, err
}

func (a *App) cmdRegister(ctx context.Context, args []string) error {
	username, err := a.argOrPrompt(args, "username: ")
	if err != nil {
		return err
	}
	password, err := a.readPassword()
	if err != nil {
		return err
	}
	if err := a.auth.Register(ctx, username, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, a.catalog.MustRender("auth.registered", nil))
	return nil
}

func (a *App) cmdLogin(ctx context.Context, args []string) error {
	username, err := a.argOrPrompt(args, "username: ")
	if err != nil {
		return err
	}
	password, err := a.readPassword()
	if err != nil {
		return err
	}
	cred, err := a.auth.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if err := a.store.Save(ctx, cred); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	fmt.Fprintln(a.out, a.catalog.MustRender("auth.logged_in", map[string]any{"Username": cred.Username}))
	return a.connect(ctx, cred)
}

func (a *App) cmdLogout(ctx context.Context) error {
	a.teardown()
	if err := a.store.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, a.catalog.MustRender("auth.logged_out", nil))
	return nil
}

func (a *App) cmdCreate(ctx context.Context, args []string) error {
	if a.ctrl == nil {
		return errors.New("login first")
	}
	roomID := ""
	if len(args) > 0 {
		roomID = args[0]
	}
	return a.ctrl.CreateRoom(ctx, roomID)
}

func (a *App) cmdJoin(ctx context.Context, args []string) error {
	if a.ctrl == nil {
		return errors.New("login first")
	}
	if len(args) == 0 {
		return errors.New("usage: join <room>")
	}
	return a.ctrl.JoinRoom(ctx, args[0])
}

func (a *App) cmdMove(ctx context.Context, args []string) error {
	if a.ctrl == nil {
		return errors.New("login first")
	}
	cand, err := ParseMove(args, a.cfg.DefaultPromotion)
	if err != nil {
		return err
	}
	return a.ctrl.SubmitMove(ctx, cand)
}

func (a *App) cmdSay(ctx context.Context, args []string) error {
	if a.ctrl == nil {
		return errors.New("login first")
	}
	return a.ctrl.SendChat(ctx, strings.Join(args, " "))
}

func (a *App) cmdStatus() {
	if a.ctrl == nil {
		fmt.Fprintln(a.out, "not connected")
		return
	}
	fmt.Fprintf(a.out, "phase=%s", a.ctrl.Phase())
	if room := a.ctrl.RoomID(); room != "" {
		fmt.Fprintf(a.out, " room=%s", room)
	}
	if color := a.ctrl.Color(); color != "" {
		fmt.Fprintf(a.out, " color=%s", color)
	}
	fmt.Fprintln(a.out)
}

func (a *App) connect(ctx context.Context, cred *session.Credential) error {
	a.teardown()

	channel := realtime.NewChannel(a.cfg.ServerWSURL,
		realtime.WithEmitTimeout(time.Duration(a.cfg.EmitTimeoutSec)*time.Second))
	token := cred.Token
	channel.SetHeaderProvider(func() map[string]string {
		return map[string]string{"Authorization": "Bearer " + token}
	})

	a.ctrl = game.NewController(game.Deps{
		Store:     a.store,
		Transport: channel,
		Engine:    engine.New(),
		Presenter: a.presenter,
		Catalog:   a.catalog,
		History:   a.histRep,
		Username:  cred.Username,
	})
	if err := a.ctrl.Start(ctx); err != nil {
		a.ctrl = nil
		return err
	}
	return nil
}

func (a *App) teardown() {
	if a.ctrl == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.ctrl.Close(ctx); err != nil {
		obslog.L().Warn("channel_close_failed", zap.Error(err))
	}
	a.ctrl = nil
}

func (a *App) printHelp() {
	fmt.Fprint(a.out, `commands:
  register [user]   create an account
  login [user]      login and connect
  logout            clear the stored session
  create [room]     create a room (id generated when omitted)
  join <room>       join an existing room
  move <from><to>   play a move, e.g. move e2e4 or move e7e8q
  say <text>        send a chat line
  status            show session state
  quit              exit
`)
}

// readPassword reads without echo on a real terminal and falls back to a
// plain line otherwise (tests, pipes).
func (a *App) readPassword() (string, error) {
	fmt.Fprint(a.out, "password: ")
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return a.readLine()
}

func (a *App) argOrPrompt(args []string, prompt string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0]), nil
	}
	fmt.Fprint(a.out, prompt)
	return a.readLine()
}

func (a *App) readLine() (string, error) {
	line, err := a.reader.ReadString('\n')
	if err != nil && strings.TrimSpace(line) == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ParseMove accepts "e2e4", "e2 e4", "e7e8q" and "e7 e8 q" forms. The
// promotion piece defaults when the target rank requires one.
func ParseMove(args []string, defaultPromotion string) (engine.Candidate, error) {
	joined := strings.ToLower(strings.Join(args, ""))
	if len(joined) < 4 || len(joined) > 5 {
		return engine.Candidate{}, errors.New("usage: move <from><to>[promotion], e.g. move e2e4")
	}
	cand := engine.Candidate{From: joined[:2], To: joined[2:4]}
	if len(joined) == 5 {
		cand.Promotion = joined[4:]
	} else if isPromotionRank(cand.To) {
		cand.Promotion = defaultPromotion
	}
	if !isSquare(cand.From) || !isSquare(cand.To) {
		return engine.Candidate{}, fmt.Errorf("bad squares in %q", joined)
	}
	return cand, nil
}

func isSquare(s string) bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}

func isPromotionRank(to string) bool {
	return len(to) == 2 && (to[1] == '8' || to[1] == '1')
}
