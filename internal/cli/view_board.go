package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/dealboard/internal/board"
	"github.com/alexanderramin/dealboard/internal/cli/formatter"
	"github.com/alexanderramin/dealboard/internal/domain"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// stacksMsg carries a board notification into the update loop.
type stacksMsg []board.Stack

// boardLoadedMsg reports the initial load.
type boardLoadedMsg struct {
	stacks []board.Stack
	err    error
}

// actionDoneMsg reports a finished move, drop or refresh.
type actionDoneMsg struct {
	stacks  []board.Stack
	results []board.Result
	follow  string
	verb    string
	err     error
}

type boardKeyMap struct {
	Up, Down, Left, Right key.Binding
	MoveLeft, MoveRight   key.Binding
	Won, Lost, Archive    key.Binding
	Refresh, Help, Quit   key.Binding
}

func newBoardKeyMap() boardKeyMap {
	return boardKeyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev stage")),
		Right:     key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next stage")),
		MoveLeft:  key.NewBinding(key.WithKeys("shift+left", "H"), key.WithHelp("shift+←", "move card left")),
		MoveRight: key.NewBinding(key.WithKeys("shift+right", "L"), key.WithHelp("shift+→", "move card right")),
		Won:       key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "won")),
		Lost:      key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "lost")),
		Archive:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "archive")),
		Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k boardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.MoveLeft, k.MoveRight, k.Won, k.Lost, k.Archive, k.Help, k.Quit}
}

func (k boardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.MoveLeft, k.MoveRight},
		{k.Won, k.Lost, k.Archive},
		{k.Refresh, k.Help, k.Quit},
	}
}

// boardView is the interactive kanban board for one pipeline.
type boardView struct {
	ctx     context.Context
	board   *board.Board
	updates chan []board.Stack
	done    chan struct{}
	unsub   func()

	stacks  []board.Stack
	col     int
	row     int
	loading bool
	busy    bool
	status  string
	err     error
	width   int

	keys boardKeyMap
	help help.Model
}

func newBoardView(ctx context.Context, b *board.Board) *boardView {
	v := &boardView{
		ctx:     ctx,
		board:   b,
		updates: make(chan []board.Stack, 1),
		done:    make(chan struct{}),
		loading: true,
		keys:    newBoardKeyMap(),
		help:    help.New(),
	}
	v.unsub = b.Subscribe(v.push)
	return v
}

// push keeps only the latest notification; the view never needs stale ones.
func (v *boardView) push(stacks []board.Stack) {
	for {
		select {
		case v.updates <- stacks:
			return
		default:
		}
		select {
		case <-v.updates:
		default:
		}
	}
}

func (v *boardView) waitForStacks() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-v.updates:
			return stacksMsg(s)
		case <-v.done:
			return nil
		}
	}
}

func (v *boardView) Init() tea.Cmd {
	b, ctx := v.board, v.ctx
	load := func() tea.Msg {
		err := b.Load(ctx)
		return boardLoadedMsg{stacks: b.Stacks(), err: err}
	}
	return tea.Batch(load, v.waitForStacks())
}

func (v *boardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.help.Width = msg.Width
		return v, nil

	case boardLoadedMsg:
		v.loading = false
		if msg.err != nil {
			v.err = msg.err
			return v, nil
		}
		v.setStacks(msg.stacks, "")
		return v, nil

	case stacksMsg:
		v.setStacks(msg, v.selectedID())
		return v, v.waitForStacks()

	case actionDoneMsg:
		v.busy = false
		v.handleAction(msg)
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return v, nil
}

func (v *boardView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		v.teardown()
		return v, tea.Quit
	case key.Matches(msg, v.keys.Help):
		v.help.ShowAll = !v.help.ShowAll
		return v, nil
	}
	if v.loading || (v.err != nil && len(v.stacks) == 0) {
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Up):
		if v.row > 0 {
			v.row--
		}
	case key.Matches(msg, v.keys.Down):
		if v.col < len(v.stacks) && v.row < len(v.stacks[v.col].Cards)-1 {
			v.row++
		}
	case key.Matches(msg, v.keys.Left):
		v.focus(v.col - 1)
	case key.Matches(msg, v.keys.Right):
		v.focus(v.col + 1)
	case key.Matches(msg, v.keys.MoveLeft):
		return v, v.moveSelected(-1)
	case key.Matches(msg, v.keys.MoveRight):
		return v, v.moveSelected(+1)
	case key.Matches(msg, v.keys.Won):
		return v, v.dropSelected(string(domain.DealWon))
	case key.Matches(msg, v.keys.Lost):
		return v, v.dropSelected(string(domain.DealLost))
	case key.Matches(msg, v.keys.Archive):
		return v, v.dropSelected(string(domain.DealArchived))
	case key.Matches(msg, v.keys.Refresh):
		return v, v.refresh()
	}
	return v, nil
}

func (v *boardView) moveSelected(delta int) tea.Cmd {
	id := v.selectedID()
	to := v.col + delta
	if id == "" || v.busy || to < 0 || to >= len(v.stacks) {
		return nil
	}
	v.busy = true
	b, ctx := v.board, v.ctx
	toStack := v.stacks[to].ID
	index := v.row
	return func() tea.Msg {
		results, err := b.Move(ctx, id, toStack, index)
		return actionDoneMsg{stacks: b.Stacks(), results: results, follow: id, verb: "moved", err: err}
	}
}

func (v *boardView) dropSelected(target string) tea.Cmd {
	id := v.selectedID()
	if id == "" || v.busy {
		return nil
	}
	v.busy = true
	b, ctx := v.board, v.ctx
	return func() tea.Msg {
		r, err := b.Drop(ctx, id, target)
		var results []board.Result
		if err == nil {
			results = []board.Result{r}
		}
		return actionDoneMsg{stacks: b.Stacks(), results: results, verb: "marked " + target, err: err}
	}
}

func (v *boardView) refresh() tea.Cmd {
	if v.busy {
		return nil
	}
	v.busy = true
	b, ctx := v.board, v.ctx
	follow := v.selectedID()
	return func() tea.Msg {
		err := b.Refresh(ctx)
		return actionDoneMsg{stacks: b.Stacks(), follow: follow, verb: "refreshed", err: err}
	}
}

func (v *boardView) handleAction(msg actionDoneMsg) {
	v.setStacks(msg.stacks, msg.follow)
	switch {
	case msg.err != nil:
		v.status = formatter.StyleRed.Render(msg.err.Error())
	case board.Failed(msg.results) != nil:
		v.status = formatter.StyleRed.Render(board.Failed(msg.results).Error())
	case msg.verb == "refreshed":
		v.status = formatter.Dim("Board refreshed")
	case len(msg.results) == 0:
		v.status = ""
	default:
		v.status = formatter.StyleGreen.Render(fmt.Sprintf("%s %d deal(s)", capitalize(msg.verb), len(msg.results)))
	}
}

// setStacks swaps in new stacks and keeps the cursor on follow when it is
// still on the board.
func (v *boardView) setStacks(stacks []board.Stack, follow string) {
	v.stacks = stacks
	if follow != "" {
		for i, s := range stacks {
			if j := s.IndexOf(follow); j >= 0 {
				v.col, v.row = i, j
				return
			}
		}
	}
	v.focus(v.col)
}

func (v *boardView) focus(col int) {
	if len(v.stacks) == 0 {
		v.col, v.row = 0, 0
		return
	}
	v.col = min(max(col, 0), len(v.stacks)-1)
	v.row = min(v.row, len(v.stacks[v.col].Cards)-1)
	v.row = max(v.row, 0)
}

func (v *boardView) selectedID() string {
	if v.col >= len(v.stacks) {
		return ""
	}
	cards := v.stacks[v.col].Cards
	if v.row < 0 || v.row >= len(cards) {
		return ""
	}
	return cards[v.row].ID
}

func (v *boardView) teardown() {
	select {
	case <-v.done:
	default:
		close(v.done)
		v.unsub()
	}
}

func (v *boardView) columnWidth() int {
	if v.width <= 0 || len(v.stacks) == 0 {
		return 0
	}
	return max(v.width/len(v.stacks)-4, 14)
}

func (v *boardView) View() string {
	var b strings.Builder
	b.WriteString(formatter.Header(v.board.Pipeline().Name))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(formatter.Dim("Loading board..."))
	case v.err != nil && len(v.stacks) == 0:
		b.WriteString(formatter.StyleRed.Render("Error: " + v.err.Error()))
	default:
		b.WriteString(formatter.FormatBoard(v.stacks, formatter.BoardOptions{
			ColumnWidth:     v.columnWidth(),
			SelectedID:      v.selectedID(),
			FocusedStack:    v.col,
			ShowRestTargets: true,
		}))
	}

	b.WriteString("\n")
	if v.status != "" {
		b.WriteString(v.status + "\n")
	}
	b.WriteString(v.help.View(v.keys))
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
