package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Mohsinsiddi/assetcli/internal/action"
	"github.com/Mohsinsiddi/assetcli/internal/feed"
	"github.com/Mohsinsiddi/assetcli/internal/modal"
	"github.com/Mohsinsiddi/assetcli/internal/tx"
)

const (
	expireEvery   = 500 * time.Millisecond
	historyRows   = 6
	eventRows     = 8
	defaultWidth  = 100
	loadingLabel  = "Loading…"
	submitLabel   = "Submit"
	noticeMaxRows = 4
)

// SubmitFunc sends one filled-in form. It blocks until the submission is
// finished and is called off the UI goroutine.
type SubmitFunc func(d action.Descriptor, values map[string]string) tx.Result

// QuoteFunc prices a payable form from the fields filled in so far and
// returns the ETH amount to send. It is called off the UI goroutine.
type QuoteFunc func(d action.Descriptor, values map[string]string) (string, error)

// DappConfig is what the dapp screen needs from the connected session.
type DappConfig struct {
	Account  string
	Network  string
	Contract string
	Role     action.Role
	Mode     feed.Mode
	TTL      time.Duration
	TxURL    func(hash string) string
	Submit   SubmitFunc
	Quote    QuoteFunc
}

// ResetMsg tells the screen the session is no longer valid. The program
// quits and RunDapp returns Err.
type ResetMsg struct{ Err error }

type submitDoneMsg struct {
	function string
	result   tx.Result
}

type quoteDoneMsg struct {
	function string
	value    string
	err      error
}

type expireTickMsg time.Time

type flashMsg string

type pane int

const (
	paneActions pane = iota
	paneHistory
)

// DappModel is the bubbletea model of the interactive session.
type DappModel struct {
	cfg     DappConfig
	roles   []action.Role
	roleIdx int
	cursor  int
	focus   pane

	form     *modal.Controller
	fieldIdx int

	feed       *feed.Feed
	histCursor int
	busy       map[string]int
	flash      string
	width      int

	reset error

	open func(string) error
	copy func(string) error
}

// NewDappModel builds the initial screen.
func NewDappModel(cfg DappConfig) DappModel {
	roles := action.Roles()
	idx := 0
	for i, r := range roles {
		if r == cfg.Role {
			idx = i
		}
	}
	return DappModel{
		cfg:     cfg,
		roles:   roles,
		roleIdx: idx,
		form:    modal.New(),
		feed:    feed.New(cfg.Mode, cfg.TTL),
		busy:    make(map[string]int),
		width:   defaultWidth,
		open:    openBrowser,
		copy:    copyToClipboard,
	}
}

// Reset returns the error that ended the session, if any.
func (m DappModel) Reset() error { return m.reset }

// Feed exposes the session's notifications, history and events.
func (m DappModel) Feed() *feed.Feed { return m.feed }

func expireTick() tea.Cmd {
	return tea.Tick(expireEvery, func(t time.Time) tea.Msg { return expireTickMsg(t) })
}

func (m DappModel) Init() tea.Cmd { return expireTick() }

func (m DappModel) role() action.Role { return m.roles[m.roleIdx] }

func (m DappModel) actions() []action.Descriptor {
	ds, _ := action.Actions(m.role())
	return ds
}

func (m DappModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case expireTickMsg:
		m.feed.Expire(time.Time(msg))
		return m, expireTick()

	case NotifyMsg:
		m.feed.Notify(feed.Notification(msg))
		return m, nil

	case TxMsg:
		m.feed.Record(feed.PendingTransaction(msg))
		m.histCursor = len(m.feed.History()) - 1
		return m, nil

	case EventMsg:
		m.feed.AddEvent(feed.EventRecord(msg))
		return m, nil

	case submitDoneMsg:
		if m.busy[msg.function] > 1 {
			m.busy[msg.function]--
		} else {
			delete(m.busy, msg.function)
		}
		return m, nil

	case quoteDoneMsg:
		m.applyQuote(msg)
		return m, nil

	case flashMsg:
		m.flash = string(msg)
		return m, nil

	case ResetMsg:
		m.reset = msg.Err
		return m, tea.Quit

	case tea.KeyMsg:
		if m.form.State() == modal.Open {
			return m.updateForm(msg)
		}
		return m.updateMain(msg)
	}
	return m, nil
}

func (m DappModel) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.flash = ""
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "left", "shift+tab":
		m.selectRole((m.roleIdx + len(m.roles) - 1) % len(m.roles))
	case "right":
		m.selectRole((m.roleIdx + 1) % len(m.roles))
	case "1", "2", "3":
		if i := int(msg.String()[0] - '1'); i < len(m.roles) {
			m.selectRole(i)
		}
	case "tab":
		if m.focus == paneActions && len(m.feed.History()) > 0 {
			m.focus = paneHistory
		} else {
			m.focus = paneActions
		}
	case "up", "k":
		if m.focus == paneHistory {
			if m.histCursor > 0 {
				m.histCursor--
			}
		} else if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.focus == paneHistory {
			if m.histCursor < len(m.feed.History())-1 {
				m.histCursor++
			}
		} else if m.cursor < len(m.actions())-1 {
			m.cursor++
		}
	case "enter":
		if m.focus == paneActions {
			if ds := m.actions(); m.cursor < len(ds) {
				m.form.Open(ds[m.cursor])
				m.fieldIdx = 0
			}
		}
	case "o":
		if h, ok := m.selectedTx(); ok && m.cfg.TxURL != nil {
			url := m.cfg.TxURL(h.Hash)
			open := m.open
			return m, func() tea.Msg {
				if err := open(url); err != nil {
					return flashMsg(Err(err.Error()))
				}
				return flashMsg(Meta("opened " + url))
			}
		}
	case "c":
		if h, ok := m.selectedTx(); ok {
			cp := m.copy
			return m, func() tea.Msg {
				if err := cp(h.Hash); err != nil {
					return flashMsg(Err(err.Error()))
				}
				return flashMsg(Success("hash copied"))
			}
		}
	}
	return m, nil
}

func (m *DappModel) selectRole(i int) {
	if i == m.roleIdx {
		return
	}
	m.roleIdx = i
	m.cursor = 0
	m.focus = paneActions
}

func (m DappModel) selectedTx() (feed.PendingTransaction, bool) {
	hist := m.feed.History()
	if m.focus != paneHistory || m.histCursor < 0 || m.histCursor >= len(hist) {
		return feed.PendingTransaction{}, false
	}
	return hist[m.histCursor], true
}

func (m DappModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d, _ := m.form.Action()
	params := d.Params
	if len(params) == 0 {
		m.form.Cancel()
		return m, nil
	}
	name := params[m.fieldIdx].Name
	value, _ := m.form.Field(name)

	switch msg.Type {
	case tea.KeyEsc:
		m.form.Cancel()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyTab, tea.KeyDown:
		m.fieldIdx = (m.fieldIdx + 1) % len(params)
		return m, nil
	case tea.KeyShiftTab, tea.KeyUp:
		m.fieldIdx = (m.fieldIdx + len(params) - 1) % len(params)
		return m, nil
	case tea.KeyEnter:
		if !m.form.CanSubmit() {
			m.fieldIdx = (m.fieldIdx + 1) % len(params)
			return m, nil
		}
		var cmd tea.Cmd
		_ = m.form.Submit(func(d action.Descriptor, values map[string]string) {
			cmd = m.submitCmd(d, values)
		})
		return m, cmd
	case tea.KeyBackspace:
		if r := []rune(value); len(r) > 0 {
			_ = m.form.ChangeField(name, string(r[:len(r)-1]))
		}
		return m, nil
	case tea.KeyCtrlU:
		_ = m.form.ChangeField(name, "")
		return m, nil
	case tea.KeyCtrlP:
		return m, m.quoteCmd(d)
	case tea.KeySpace:
		_ = m.form.ChangeField(name, value+" ")
		return m, nil
	case tea.KeyRunes:
		_ = m.form.ChangeField(name, value+string(msg.Runes))
		return m, nil
	}
	return m, nil
}

// submitCmd marks d busy and runs the submission off the UI goroutine.
func (m DappModel) submitCmd(d action.Descriptor, values map[string]string) tea.Cmd {
	m.busy[d.Function]++
	submit := m.cfg.Submit
	return func() tea.Msg {
		var res tx.Result
		if submit != nil {
			res = submit(d, values)
		}
		return submitDoneMsg{function: d.Function, result: res}
	}
}

// quoteCmd asks for the price of the open payable form. Forms that do not
// send ETH, or screens without a quote source, ignore the key.
func (m DappModel) quoteCmd(d action.Descriptor) tea.Cmd {
	if !d.Payable || m.cfg.Quote == nil {
		return nil
	}
	quote := m.cfg.Quote
	values := m.form.Values()
	return func() tea.Msg {
		v, err := quote(d, values)
		return quoteDoneMsg{function: d.Function, value: v, err: err}
	}
}

// applyQuote fills the amount if the quoted form is still the one open.
func (m *DappModel) applyQuote(msg quoteDoneMsg) {
	d, ok := m.form.Action()
	if !ok || m.form.State() != modal.Open || d.Function != msg.function {
		return
	}
	if msg.err != nil {
		m.flash = Err(msg.err.Error())
		return
	}
	_ = m.form.ChangeField(action.ValueParam, msg.value)
	m.flash = Meta("price " + msg.value + " ETH")
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

func (m DappModel) View() string {
	var sb strings.Builder
	sb.WriteString(Banner())
	sb.WriteString(fmt.Sprintf("  %s  %s  %s %s\n\n",
		ChainName(m.cfg.Network),
		Addr(TruncateAddr(m.cfg.Account)),
		Meta("contract"),
		Addr(TruncateAddr(m.cfg.Contract)),
	))
	sb.WriteString(m.viewTabs() + "\n\n")

	if m.form.State() == modal.Open {
		sb.WriteString(m.viewForm())
	} else {
		sb.WriteString(m.viewActions())
	}

	sb.WriteString("\n" + m.viewNotifications())
	sb.WriteString("\n" + m.viewHistory())
	sb.WriteString("\n" + m.viewEvents())

	if m.flash != "" {
		sb.WriteString("\n  " + m.flash + "\n")
	}
	sb.WriteString("\n" + m.viewHelp() + "\n")
	return sb.String()
}

func (m DappModel) viewTabs() string {
	tabs := make([]string, len(m.roles))
	for i, r := range m.roles {
		label := fmt.Sprintf("%d %s", i+1, r.Title())
		if i == m.roleIdx {
			tabs[i] = StyleTabActive.Render(label)
		} else {
			tabs[i] = StyleTab.Render(label)
		}
	}
	return strings.Join(tabs, "")
}

func (m DappModel) viewActions() string {
	var sb strings.Builder
	for i, d := range m.actions() {
		prefix := "    "
		if i == m.cursor && m.focus == paneActions {
			prefix = "  ▸ "
		}
		label := submitLabel
		if m.busy[d.Function] > 0 {
			label = loadingLabel
		}
		line := prefix + padR(StyleValue.Render(d.Signature()), 52) + " " + Meta(d.Selector())
		if i == m.cursor && m.focus == paneActions {
			line = StyleSelected.Render(line)
		}
		sb.WriteString(line + "  " + StyleWarning.Render("["+label+"]") + "\n")
		if i == m.cursor && m.focus == paneActions && d.Description != "" {
			sb.WriteString("      " + Meta(d.Description) + "\n")
		}
	}
	return sb.String()
}

func (m DappModel) viewForm() string {
	d, _ := m.form.Action()
	var sb strings.Builder
	sb.WriteString(StyleTitle.Render(d.Function) + "\n")
	for i, p := range d.Params {
		value, errMsg := m.form.Field(p.Name)
		label := p.Name
		if d.IsValueParam(p) {
			label += " (ETH)"
		}
		shown := StyleValue.Render(value)
		if value == "" {
			shown = Meta(p.Kind.Hint())
		}
		cursor := " "
		if i == m.fieldIdx {
			cursor = "▸"
			shown = StyleValue.Render(value + "█")
		}
		sb.WriteString(fmt.Sprintf("%s %s %s\n", cursor, padR(Meta(label), 18), shown))
		if errMsg != "" {
			sb.WriteString("    " + StyleError.Render(errMsg) + "\n")
		}
	}
	status := Meta("fill every field to submit")
	if m.form.CanSubmit() {
		status = Success("ready")
	}
	sb.WriteString("\n" + status + "\n")
	return StyleBorder.Render(sb.String()) + "\n"
}

func (m DappModel) viewNotifications() string {
	ns := m.feed.Notifications()
	if len(ns) > noticeMaxRows {
		ns = ns[len(ns)-noticeMaxRows:]
	}
	var sb strings.Builder
	for _, n := range ns {
		sb.WriteString("  " + Notice(n.Level, n.Message) + "\n")
	}
	return sb.String()
}

func (m DappModel) viewHistory() string {
	hist := m.feed.History()
	var sb strings.Builder
	sb.WriteString(section(fmt.Sprintf("History (%d)", len(hist)), m.width) + "\n")
	if len(hist) == 0 {
		sb.WriteString("  " + Meta("no transactions yet") + "\n")
		return sb.String()
	}
	start := 0
	if len(hist) > historyRows {
		start = len(hist) - historyRows
		if m.histCursor < start {
			start = m.histCursor
		}
	}
	end := min(start+historyRows, len(hist))
	for i := start; i < end; i++ {
		h := hist[i]
		line := fmt.Sprintf("  %s  %s  %s",
			Meta(h.At.Format("15:04:05")),
			padR(Val(h.Action), 22),
			Addr(feed.ShortHash(h.Hash)),
		)
		if m.focus == paneHistory && i == m.histCursor {
			line = StyleSelected.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

func (m DappModel) viewEvents() string {
	evs := m.feed.Events()
	var sb strings.Builder
	sb.WriteString(section(fmt.Sprintf("Events (%d)", len(evs)), m.width) + "\n")
	if len(evs) > eventRows {
		evs = evs[:eventRows]
	}
	for _, e := range evs {
		sb.WriteString(fmt.Sprintf("  %s  %s %s  %s\n",
			Meta(fmt.Sprintf("#%d", e.Block)),
			StyleChain.Render(e.EventName),
			Val(strings.Join(e.Args, ", ")),
			Addr(feed.ShortHash(e.TxHash)),
		))
	}
	return sb.String()
}

func (m DappModel) viewHelp() string {
	if m.form.State() == modal.Open {
		if d, _ := m.form.Action(); d.Payable && m.cfg.Quote != nil {
			return Meta("  [ tab/↑↓ ] field   [ ctrl+p ] price   [ enter ] submit   [ ctrl+u ] clear   [ esc ] cancel")
		}
		return Meta("  [ tab/↑↓ ] field   [ enter ] submit   [ ctrl+u ] clear   [ esc ] cancel")
	}
	if m.focus == paneHistory {
		return Meta("  [ ↑↓ ] select   [ o ] explorer   [ c ] copy hash   [ tab ] actions   [ q ] quit")
	}
	return Meta("  [ ←→/1-3 ] role   [ ↑↓ ] action   [ enter ] open   [ tab ] history   [ q ] quit")
}

// ---------------------------------------------------------------------------
// Runner
// ---------------------------------------------------------------------------

// RunDapp runs the screen until the user quits, ctx ends, or watch returns
// an error. bus records reach the screen through Forward. When watch fails
// the returned error wraps its error, so callers can detect a session reset
// with errors.Is.
func RunDapp(ctx context.Context, m DappModel, bus *feed.Bus, watch func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if err := Forward(ctx, bus, p); err != nil {
		return err
	}
	if watch != nil {
		go func() {
			if err := watch(ctx); err != nil {
				p.Send(ResetMsg{Err: err})
			}
		}()
	}

	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("dapp: %w", err)
	}
	if fm, ok := final.(DappModel); ok && fm.reset != nil {
		return fm.reset
	}
	return nil
}
