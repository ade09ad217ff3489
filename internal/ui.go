package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jroimartin/gocui"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const helpText = `Commands:
pm: <name> <word>  - Send a private message (first word only)
peerdatarequest    - Ask the server who is online
anything else      - Broadcast to everyone

Keybindings:
Ctrl-C             - Quit
Ctrl-H             - Toggle help
Tab                - Switch views
Enter              - Send message`

// ChatUI is a terminal frontend. Its messages view is the client's output and
// its input view feeds the client's input.
type ChatUI struct {
	gui        *gocui.Gui
	addr       string
	msgView    string
	inputView  string
	statusView string
	helpView   string
	showHelp   bool

	lines io.Writer

	mu      sync.Mutex
	pending strings.Builder
}

func NewChatUI(addr string, lines io.Writer) (*ChatUI, error) {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return nil, err
	}

	ui := &ChatUI{
		gui:        g,
		addr:       addr,
		msgView:    "messages",
		inputView:  "input",
		statusView: "status",
		helpView:   "help",
		lines:      lines,
	}

	g.SetManagerFunc(ui.layout)
	return ui, nil
}

func (ui *ChatUI) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	msgHeight := maxY - 6

	if v, err := g.SetView(ui.msgView, 0, 0, maxX-1, msgHeight); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Messages"
		v.Wrap = true
		v.Autoscroll = true
	}

	if v, err := g.SetView(ui.statusView, 0, msgHeight+1, maxX-1, msgHeight+3); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Status"
		v.Wrap = true
		fmt.Fprintf(v, "Connecting to %s | Ctrl-H: Help", SocketURL(ui.addr))
	}

	if v, err := g.SetView(ui.inputView, 0, msgHeight+3, maxX-1, maxY-1); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Input"
		v.Editable = true
		v.Wrap = true

		if _, err := g.SetCurrentView(ui.inputView); err != nil {
			return err
		}
	}

	if !ui.showHelp {
		if err := g.DeleteView(ui.helpView); err != nil && err != gocui.ErrUnknownView {
			return err
		}
		return nil
	}
	if v, err := g.SetView(ui.helpView, maxX/6, maxY/6, maxX*5/6, maxY*5/6); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Help"
		fmt.Fprintln(v, helpText)
	}
	return nil
}

// Write queues p for the messages view. Queued text is drained in order by
// whichever update runs first.
func (ui *ChatUI) Write(p []byte) (int, error) {
	ui.mu.Lock()
	ui.pending.Write(p)
	ui.mu.Unlock()

	ui.gui.Update(func(g *gocui.Gui) error {
		v, err := g.View(ui.msgView)
		if err != nil {
			return err
		}
		ui.mu.Lock()
		text := ui.pending.String()
		ui.pending.Reset()
		ui.mu.Unlock()
		_, err = io.WriteString(v, text)
		return err
	})
	return len(p), nil
}

func (ui *ChatUI) updateStatus(status string) {
	ui.gui.Update(func(g *gocui.Gui) error {
		v, err := g.View(ui.statusView)
		if err != nil {
			return err
		}
		v.Clear()
		fmt.Fprint(v, status)
		return nil
	})
}

func (ui *ChatUI) keybindings() error {
	if err := ui.gui.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone,
		func(g *gocui.Gui, _ *gocui.View) error {
			return gocui.ErrQuit
		}); err != nil {
		return err
	}

	if err := ui.gui.SetKeybinding("", gocui.KeyCtrlH, gocui.ModNone,
		func(_ *gocui.Gui, _ *gocui.View) error {
			ui.showHelp = !ui.showHelp
			return nil
		}); err != nil {
		return err
	}

	if err := ui.gui.SetKeybinding(ui.inputView, gocui.KeyEnter, gocui.ModNone,
		ui.handleInput); err != nil {
		return err
	}

	if err := ui.gui.SetKeybinding("", gocui.KeyTab, gocui.ModNone,
		func(g *gocui.Gui, v *gocui.View) error {
			next := ui.inputView
			if v != nil && v.Name() == ui.inputView {
				next = ui.msgView
			}
			_, err := g.SetCurrentView(next)
			return err
		}); err != nil {
		return err
	}

	return nil
}

// handleInput hands the input line to the client. Empty lines are sent too:
// they are valid empty broadcasts.
func (ui *ChatUI) handleInput(_ *gocui.Gui, v *gocui.View) error {
	line := strings.TrimRight(v.Buffer(), "\n")
	v.Clear()
	v.SetCursor(0, 0)

	if _, err := io.WriteString(ui.lines, line+"\n"); err != nil {
		// The session is over; nothing reads input any more.
		return gocui.ErrQuit
	}
	return nil
}

func (ui *ChatUI) Run() error {
	if err := ui.keybindings(); err != nil {
		return err
	}

	if err := ui.gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}

	return nil
}

// Quit stops the main loop from outside it.
func (ui *ChatUI) Quit() {
	ui.gui.Update(func(*gocui.Gui) error { return gocui.ErrQuit })
}

func (ui *ChatUI) Close() {
	ui.gui.Close()
}

// RunWithUI runs one session behind the terminal UI. Quitting the UI ends
// the input stream, which ends the session.
func RunWithUI(ctx context.Context, addr string, logger *zap.Logger) error {
	inputR, inputW := io.Pipe()

	ui, err := NewChatUI(addr, inputW)
	if err != nil {
		return err
	}
	defer ui.Close()

	client := NewClient(addr,
		WithInput(inputR),
		WithOutput(ui),
		WithLogger(logger),
		WithOnReady(func(name string) {
			ui.updateStatus(fmt.Sprintf("Connected to %s as %s | Ctrl-H: Help", SocketURL(addr), name))
		}),
	)

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(sessionCtx)
	g.Go(func() error {
		defer ui.Quit()
		defer inputR.Close()
		err := client.Connect(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		defer cancel()
		defer inputW.Close()
		return ui.Run()
	})
	return g.Wait()
}
