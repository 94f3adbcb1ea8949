package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/wachats/internal/bus"
	"github.com/matheus3301/wachats/internal/outbox"
	"github.com/matheus3301/wachats/internal/status"
	chatsync "github.com/matheus3301/wachats/internal/sync"
	"github.com/matheus3301/wachats/internal/tui/client"
	"github.com/matheus3301/wachats/internal/tui/keys"
	"github.com/matheus3301/wachats/internal/tui/model"
	"github.com/matheus3301/wachats/internal/tui/ui"
	"github.com/matheus3301/wachats/internal/tui/views"
	"github.com/matheus3301/wachats/internal/wa"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

const (
	pageMain    = "main"
	pageHelp    = "help"
	pageDetails = "details"

	viewList   = "list"
	viewThread = "thread"
)

// App is the main TUI application shell. Every field below the models is
// owned by the tview event goroutine.
type App struct {
	app      *tview.Application
	theme    *ui.Theme
	client   *client.Client
	vm       *model.ViewModel
	sender   *outbox.Sender
	machine  *status.Machine
	bus      *bus.Bus
	registry *keys.Registry
	logger   *zap.Logger

	profile      string
	pollInterval time.Duration
	started      time.Time

	root        *tview.Flex
	panes       *tview.Flex
	pages       *ui.Pages
	prompt      *ui.Prompt
	crumbs      *ui.Crumbs
	menu        *ui.Menu
	profileInfo *ui.ProfileInfo
	statusBar   *views.StatusBar
	flashBar    *ui.FlashBar
	list        *views.ConversationList
	thread      *views.MessageThread
	info        *views.ConversationInfo
	help        *views.HelpView

	layout       ui.Layout
	width        int
	threadOpen   bool
	promptOpen   bool
	listPoller   *chatsync.Poller
	threadPoller *chatsync.Poller
	threadCancel context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc
}

// AppParams carries everything NewApp needs.
type AppParams struct {
	Profile      string
	PollInterval time.Duration
	Client       *client.Client
	ViewModel    *model.ViewModel
	Sender       *outbox.Sender
	Machine      *status.Machine
	Bus          *bus.Bus
	Logger       *zap.Logger
}

// NewApp creates the TUI application.
func NewApp(p AppParams) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:          tview.NewApplication(),
		theme:        theme,
		client:       p.Client,
		vm:           p.ViewModel,
		sender:       p.Sender,
		machine:      p.Machine,
		bus:          p.Bus,
		registry:     keys.NewRegistry(),
		logger:       p.Logger,
		profile:      p.Profile,
		pollInterval: p.PollInterval,
		pages:        ui.NewPages(),
		prompt:       ui.NewPrompt(theme),
		crumbs:       ui.NewCrumbs(theme),
		menu:         ui.NewMenu(theme),
		profileInfo:  ui.NewProfileInfo(theme),
		statusBar:    views.NewStatusBar(theme),
		flashBar:     ui.NewFlashBar(theme),
		list:         views.NewConversationList(theme),
		thread:       views.NewMessageThread(theme, views.NewRenderer(theme, p.Client.MediaURL)),
		info:         views.NewConversationInfo(theme),
		help:         views.NewHelpView(theme),
		ctx:          ctx,
		cancel:       cancel,
	}
	a.listPoller = chatsync.NewPoller("conversations", a.pollInterval, a.vm.Conversations.Poll, a.logger)

	a.statusBar.SetProfile(p.Profile)
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal("quit", &keys.Action{
		Rune: 'q', Key: tcell.KeyRune,
		Handler: func() { a.app.Stop() },
	})
	a.registry.AddGlobal("help", &keys.Action{
		Rune: '?', Key: tcell.KeyRune,
		Handler: func() { a.showPage(pageHelp) },
	})
	a.registry.AddGlobal("command", &keys.Action{
		Rune: ':', Key: tcell.KeyRune,
		Handler: func() { a.openPrompt(ui.PromptCommand, "") },
	})
	a.registry.AddGlobal("refresh", &keys.Action{
		Key:     tcell.KeyCtrlR,
		Handler: a.refreshNow,
	})

	a.registry.AddView(viewList, "filter", &keys.Action{
		Rune: '/', Key: tcell.KeyRune,
		Handler: func() { a.openPrompt(ui.PromptFilter, a.list.Filter()) },
	})
	a.registry.AddView(viewList, "details", &keys.Action{
		Rune: 'd', Key: tcell.KeyRune,
		Handler: func() {
			if c, ok := a.list.Selected(); ok {
				a.showDetails(c)
			}
		},
	})
	a.registry.AddView(viewList, "clear", &keys.Action{
		Rune: '0', Key: tcell.KeyRune,
		Handler: a.list.ClearFilter,
	})
	for n := 1; n <= 9; n++ {
		a.registry.AddView(viewList, fmt.Sprintf("jump%d", n), &keys.Action{
			Rune: rune('0' + n), Key: tcell.KeyRune,
			Handler: func() {
				if c, ok := a.list.ByIndex(n); ok {
					a.openConversation(c)
				}
			},
		})
	}

	a.registry.AddView(viewThread, "compose", &keys.Action{
		Rune: 'i', Key: tcell.KeyRune,
		Handler: func() { a.app.SetFocus(a.thread.Composer()) },
	})
	a.registry.AddView(viewThread, "older", &keys.Action{
		Rune: 'o', Key: tcell.KeyRune,
		Handler: a.loadOlderMessages,
	})
	a.registry.AddView(viewThread, "details", &keys.Action{
		Rune: 'd', Key: tcell.KeyRune,
		Handler: func() {
			if c, ok := a.vm.Thread.Conversation(); ok {
				a.showDetails(c)
			}
		},
	})
}

func (a *App) setupCallbacks() {
	a.list.SetOnOpen(a.openConversation)
	a.list.SetOnNearEnd(a.loadOlderConversations)
	a.thread.SetOnSend(a.send)

	a.prompt.SetOnChange(func(mode ui.PromptMode, text string) {
		if mode == ui.PromptFilter {
			a.list.SetFilter(text)
		}
	})
	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.closePrompt()
		if mode == ui.PromptCommand {
			a.runCommand(ParseCommand(text))
		}
	})
	a.prompt.SetOnCancel(func() {
		if a.prompt.Mode() == ui.PromptFilter {
			a.list.ClearFilter()
		}
		a.closePrompt()
	})

	a.pages.SetOnChange(func([]string) { a.updateChrome() })
}

func (a *App) setupLayout() {
	header := tview.NewFlex().
		AddItem(a.profileInfo, 0, 2, false).
		AddItem(a.menu, 0, 3, false).
		AddItem(ui.NewLogo(a.theme), 26, 0, false)

	a.panes = tview.NewFlex()

	a.pages.AddPage(pageMain, a.panes, true, false)
	a.pages.AddPage(pageHelp, a.help, true, false)
	a.pages.AddPage(pageDetails, a.info, true, false)
	a.pages.Reset(pageMain)

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 4, 0, false).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.flashBar, 1, 0, false).
		AddItem(a.statusBar, 1, 0, false)

	a.applyLayout()
	a.app.SetRoot(a.root, true)

	a.app.SetBeforeDrawFunc(func(screen tcell.Screen) bool {
		if w, _ := screen.Size(); w != a.width {
			a.width = w
			a.applyLayout()
		}
		return false
	})
	a.app.SetInputCapture(a.handleKey)
}

func (a *App) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if a.promptOpen {
		return event
	}

	// The composer keeps every key except Esc, which returns to the thread.
	if a.app.GetFocus() == a.thread.Composer() {
		if event.Key() == tcell.KeyEscape {
			a.app.SetFocus(a.thread.Messages())
			a.updateChrome()
			return nil
		}
		return event
	}

	if event.Key() == tcell.KeyEscape {
		a.back()
		return nil
	}

	if a.registry.HandleEvent(a.currentView(), event) {
		return nil
	}
	return event
}

// currentView names the key scope for the focused pane.
func (a *App) currentView() string {
	if a.pages.Current() != pageMain {
		return a.pages.Current()
	}
	if a.layout.ShowsThread() && a.thread.HasFocus() {
		return viewThread
	}
	return viewList
}

// back closes the top overlay, or leaves the thread.
func (a *App) back() {
	if a.pages.Pop() != "" {
		a.focusMain()
		return
	}
	if a.currentView() != viewThread {
		if a.list.Filter() != "" {
			a.list.ClearFilter()
		}
		return
	}
	if a.layout == ui.LayoutSplit {
		a.app.SetFocus(a.list)
		a.updateChrome()
		return
	}
	a.closeThread()
}

func (a *App) applyLayout() {
	a.layout = ui.LayoutFor(a.width, a.threadOpen)
	a.panes.Clear()
	switch a.layout {
	case ui.LayoutSplit:
		a.panes.AddItem(a.list, 0, 2, false)
		a.panes.AddItem(a.thread, 0, 3, false)
	case ui.LayoutThread:
		a.panes.AddItem(a.thread, 0, 1, false)
	default:
		a.panes.AddItem(a.list, 0, 1, false)
	}
	a.focusMain()
}

// focusMain moves focus to a visible pane when the main page is on top.
func (a *App) focusMain() {
	if a.pages.Current() != pageMain {
		return
	}
	switch {
	case a.layout == ui.LayoutThread:
		if !a.thread.HasFocus() {
			a.app.SetFocus(a.thread.Messages())
		}
	case a.layout == ui.LayoutList:
		a.app.SetFocus(a.list)
	case !a.list.HasFocus() && !a.thread.HasFocus():
		a.app.SetFocus(a.list)
	}
	a.updateChrome()
}

func (a *App) showPage(name string) {
	a.pages.Push(name)
	switch name {
	case pageHelp:
		a.app.SetFocus(a.help)
	case pageDetails:
		a.app.SetFocus(a.info)
	}
}

func (a *App) showDetails(c wa.Conversation) {
	if fresh, ok := a.vm.Conversations.Find(c.ID); ok {
		c = fresh
	}
	messages := 0
	if open, ok := a.vm.Thread.Conversation(); ok && open.ID == c.ID {
		messages = len(a.vm.Thread.Messages())
	}
	mediaBase := a.client.BaseURL() + "/phones/" + c.PhoneNumberID + "/medias"
	a.info.Update(&c, messages, mediaBase)
	a.showPage(pageDetails)
}

func (a *App) openPrompt(mode ui.PromptMode, text string) {
	a.promptOpen = true
	a.prompt.Activate(mode, text)
	a.root.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) closePrompt() {
	a.promptOpen = false
	a.root.ResizeItem(a.prompt, 0, 0)
	a.focusMain()
}

func (a *App) runCommand(cmd Command) {
	switch cmd.Name {
	case CmdQuit:
		a.app.Stop()
	case CmdHelp:
		a.showPage(pageHelp)
	case CmdOpen:
		c, ok := a.list.FindByName(cmd.Args)
		if cmd.Args == "" || !ok {
			a.flashError(fmt.Sprintf("No conversation matches %q", cmd.Args))
			return
		}
		a.openConversation(c)
	case CmdRefresh:
		a.refreshNow()
	case CmdOlder:
		a.loadOlderConversations()
	case "":
	default:
		a.flashError(fmt.Sprintf("Unknown command %q", cmd.Name))
	}
}

// openConversation shows c in the thread pane and starts polling it. Any
// previous thread poller is stopped first.
func (a *App) openConversation(c wa.Conversation) {
	a.stopThread()

	ctx, cancel := context.WithCancel(a.ctx)
	a.threadCancel = cancel
	gen := a.vm.Thread.Switch(c)
	go func() {
		err := a.vm.Thread.Load(ctx, gen)
		if err != nil && !errors.Is(err, model.ErrStale) && !errors.Is(err, context.Canceled) {
			a.logger.Warn("failed to load conversation", zap.String("conversation_id", c.ID), zap.Error(err))
			a.flashError("Load failed: " + err.Error())
		}
	}()
	a.threadPoller = chatsync.NewPoller("thread", a.pollInterval, a.vm.Thread.Poll, a.logger.With(zap.String("conversation_id", c.ID)))
	a.threadPoller.Start(ctx)

	a.thread.ClearComposer()
	a.list.SetActive(c.ID)
	a.threadOpen = true
	a.pages.Reset(pageMain)
	a.applyLayout()
	a.app.SetFocus(a.thread.Messages())
	a.refresh()
}

func (a *App) closeThread() {
	a.stopThread()
	a.vm.Thread.Close()
	a.list.SetActive("")
	a.threadOpen = false
	a.applyLayout()
	a.refresh()
}

func (a *App) stopThread() {
	if a.threadCancel != nil {
		a.threadCancel()
		a.threadCancel = nil
	}
	if a.threadPoller != nil {
		a.threadPoller.Stop()
		a.threadPoller = nil
	}
}

// send submits the composer text. While a send is in flight the composer
// is disabled and further submits are ignored.
func (a *App) send(text string) {
	conv, ok := a.vm.Thread.Conversation()
	if !ok || a.sender.InFlight() {
		return
	}
	a.thread.SetSending(true)

	go func() {
		_, err := a.sender.Send(a.ctx, conv.ID, text)
		if errors.Is(err, outbox.ErrInFlight) {
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			a.vm.Flash.SetError("Send failed: "+err.Error(), model.DefaultFlashDuration)
		}
		a.app.QueueUpdateDraw(func() {
			a.thread.SetSending(false)
			if err == nil {
				if open, ok := a.vm.Thread.Conversation(); ok && open.ID == conv.ID {
					a.thread.ClearComposer()
				}
			}
			a.refresh()
		})
		if err == nil {
			if perr := a.vm.Thread.Poll(a.ctx); perr != nil && !errors.Is(perr, context.Canceled) {
				a.logger.Warn("poll after send failed", zap.Error(perr))
			}
		}
	}()
}

func (a *App) loadOlderConversations() {
	go func() {
		n, err := a.vm.Conversations.LoadOlder(a.ctx)
		switch {
		case errors.Is(err, context.Canceled):
		case err != nil:
			a.flashError(err.Error())
		case n > 0:
			a.flashInfo(fmt.Sprintf("Loaded %d older conversations", n))
		}
	}()
}

func (a *App) loadOlderMessages() {
	go func() {
		n, err := a.vm.Thread.LoadOlder(a.ctx)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, model.ErrStale):
		case err != nil:
			a.flashError(err.Error())
		case n == 0:
			a.flashInfo("No older messages")
		default:
			a.flashInfo(fmt.Sprintf("Loaded %d older messages", n))
		}
	}()
}

// refreshNow polls both views immediately instead of waiting for the next
// tick.
func (a *App) refreshNow() {
	go func() {
		if err := a.vm.Conversations.Poll(a.ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn("manual refresh failed", zap.Error(err))
		}
		if err := a.vm.Thread.Poll(a.ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn("manual refresh failed", zap.Error(err))
		}
		a.vm.Refresh()
	}()
}

func (a *App) flashError(msg string) {
	a.vm.Flash.SetError(msg, model.DefaultFlashDuration)
	a.vm.Refresh()
}

func (a *App) flashInfo(msg string) {
	a.vm.Flash.Set(msg, model.DefaultFlashDuration)
	a.vm.Refresh()
}

// refresh copies model state into the widgets.
func (a *App) refresh() {
	convs := a.vm.Conversations.Snapshot()
	a.list.Update(convs)

	msgs := a.vm.Thread.Messages()
	if conv, ok := a.vm.Thread.Conversation(); ok {
		a.thread.Update(&conv, msgs, a.vm.Thread.Loading())
	} else {
		a.thread.Update(nil, nil, false)
	}

	a.statusBar.SetState(a.machine.Current(), a.machine.LastError())
	switch msg, level := a.vm.Flash.Get(); level {
	case model.FlashError:
		a.flashBar.Err(msg)
	default:
		a.flashBar.Info(msg)
	}

	a.profileInfo.Update(&ui.ProfileData{
		Profile:       a.profile,
		Server:        a.client.BaseURL(),
		Status:        fmt.Sprintf("[%s]%s[-]", a.stateColor(), a.machine.Current()),
		Conversations: len(convs),
		Messages:      len(msgs),
		Uptime:        time.Since(a.started),
	})
	a.updateChrome()
}

func (a *App) stateColor() string {
	switch a.machine.Current() {
	case status.Online:
		return ui.ColorName(a.theme.OnlineColor)
	case status.Degraded:
		return ui.ColorName(a.theme.DegradedColor)
	case status.Offline:
		return ui.ColorName(a.theme.OfflineColor)
	default:
		return ui.ColorName(a.theme.FlashInfoColor)
	}
}

// updateChrome refreshes the menu and breadcrumbs for the focused view.
func (a *App) updateChrome() {
	var current ui.Component = a.list
	switch a.currentView() {
	case pageHelp:
		current = a.help
	case pageDetails:
		current = a.info
	case viewThread:
		current = a.thread
	}
	a.menu.Update(current.Hints())

	trail := []string{a.profile, a.list.Name()}
	if conv, ok := a.vm.Thread.Conversation(); ok && a.threadOpen {
		trail = append(trail, conv.DisplayName())
	}
	if a.pages.Current() != pageMain {
		trail = append(trail, current.Name())
	}
	a.crumbs.Update(trail)
}

// Start launches the initial load, the conversation poller and the redraw
// loop. It does not block.
func (a *App) Start() {
	a.started = time.Now()
	go a.vm.Watch(a.ctx, a.bus)
	go a.refreshLoop()
	go func() {
		if err := a.vm.Conversations.Load(a.ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn("initial conversation load failed", zap.Error(err))
			a.flashError("Could not reach " + a.client.BaseURL())
		}
	}()
	a.listPoller.Start(a.ctx)
	a.logger.Info("tui started", zap.String("server", a.client.BaseURL()), zap.Duration("poll_interval", a.pollInterval))
}

// refreshLoop redraws on model changes and once a second for the clock and
// flash expiry.
func (a *App) refreshLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-a.vm.RefreshCh():
		case <-ticker.C:
		case <-a.ctx.Done():
			return
		}
		a.app.QueueUpdateDraw(a.refresh)
	}
}

// Run starts the tview event loop and blocks until the application stops.
func (a *App) Run() error {
	return a.app.Run()
}

// Shutdown stops every poller and cancels outstanding requests.
func (a *App) Shutdown() {
	a.listPoller.Stop()
	if a.threadPoller != nil {
		a.threadPoller.Stop()
	}
	a.cancel()
	if n := a.bus.Dropped(); n > 0 {
		a.logger.Info("bus events dropped", zap.Int64("count", n))
	}
}

// Stop ends the tview event loop.
func (a *App) Stop() {
	a.app.Stop()
}
