// Package tui is a terminal front end over a simulation session: pick a
// model, edit its variable tables, run it and inspect the trajectory.
package tui

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/rmsim/internal/model"
	"github.com/san-kum/rmsim/internal/session"
	"github.com/san-kum/rmsim/internal/sim"
	"github.com/san-kum/rmsim/internal/variables"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

// tableOrder is the order tables are listed in the inputs view.
var tableOrder = []string{"parameters", "manipulated", "subroutine", "settings"}

type view int

const (
	viewMenu view = iota
	viewInputs
	viewResult
)

type row struct {
	table string
	id    string
}

type App struct {
	ctx      context.Context
	registry *model.Registry
	opts     session.Options

	view   view
	names  []string
	cursor int

	session *session.Session
	rows    []row
	rowCur  int
	editing bool
	editBuf string

	traj    *sim.Trajectory
	elapsed time.Duration
	column  int
	runs    int

	status string
	err    error

	width  int
	height int
}

// NewApp lists the registry's models. Sessions are opened with opts.
func NewApp(ctx context.Context, r *model.Registry, opts session.Options) App {
	return App{
		ctx:      ctx,
		registry: r,
		opts:     opts,
		names:    r.Names(),
		width:    80,
		height:   24,
	}
}

func (a App) Init() tea.Cmd { return nil }

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
	}
	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (App, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}
	switch a.view {
	case viewMenu:
		return a.menuKey(msg)
	case viewInputs:
		return a.inputsKey(msg)
	case viewResult:
		return a.resultKey(msg)
	}
	return a, nil
}

func (a App) menuKey(msg tea.KeyMsg) (App, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.names)-1 {
			a.cursor++
		}
	case "enter", " ":
		if len(a.names) == 0 {
			return a, nil
		}
		a.open(a.names[a.cursor])
	}
	return a, nil
}

func (a *App) open(name string) {
	s, err := session.Open(a.registry, name, a.opts)
	if err != nil {
		a.err = err
		return
	}
	a.session = s
	a.rows = nil
	tables := s.Tables()
	for _, key := range tableOrder {
		t, ok := tables[key]
		if !ok {
			continue
		}
		for _, id := range t.IDs() {
			a.rows = append(a.rows, row{table: key, id: id})
		}
	}
	a.rowCur = 0
	a.traj = nil
	a.runs = 0
	a.err = nil
	a.status = ""
	a.view = viewInputs
}

func (a App) inputsKey(msg tea.KeyMsg) (App, tea.Cmd) {
	if a.editing {
		switch msg.String() {
		case "enter":
			v, err := strconv.ParseFloat(a.editBuf, 64)
			if err != nil {
				a.err = fmt.Errorf("invalid value %q", a.editBuf)
			} else {
				a.set(a.rows[a.rowCur].id, v)
			}
			a.editing = false
			a.editBuf = ""
		case "esc":
			a.editing = false
			a.editBuf = ""
		case "backspace":
			if len(a.editBuf) > 0 {
				a.editBuf = a.editBuf[:len(a.editBuf)-1]
			}
		default:
			if msg.Type != tea.KeyRunes {
				break
			}
			// pasted text and fast typing arrive as one message
			for _, r := range msg.Runes {
				if strings.ContainsRune("0123456789.-+e", r) {
					a.editBuf += string(r)
				}
			}
		}
		return a, nil
	}

	switch msg.String() {
	case "q", "esc":
		a.view = viewMenu
		a.session = nil
	case "up", "k":
		if a.rowCur > 0 {
			a.rowCur--
		}
	case "down", "j":
		if a.rowCur < len(a.rows)-1 {
			a.rowCur++
		}
	case "enter", " ":
		if len(a.rows) > 0 {
			a.editing = true
			a.editBuf = strconv.FormatFloat(a.value(a.rows[a.rowCur]), 'g', -1, 64)
		}
	case "left", "h":
		a.nudge(-1)
	case "right", "l":
		a.nudge(1)
	case "r":
		a.run()
	case "x":
		a.reset(false)
	case "X":
		a.reset(true)
	}
	return a, nil
}

func (a App) resultKey(msg tea.KeyMsg) (App, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "esc", "i":
		a.view = viewInputs
	case "left", "h":
		if a.column > 0 {
			a.column--
		}
	case "right", "l":
		if a.traj != nil && a.column < len(a.traj.Columns)-1 {
			a.column++
		}
	case "r":
		a.run()
	case "x":
		a.reset(false)
	case "X":
		a.reset(true)
	}
	return a, nil
}

func (a App) value(r row) float64 {
	t := a.session.Tables()[r.table]
	v, _ := t.Value(r.id)
	return v
}

func (a *App) set(id string, v float64) {
	if err := a.session.SetInputs(map[string]float64{id: v}); err != nil {
		a.err = err
		return
	}
	a.err = nil
	a.status = fmt.Sprintf("%s = %g", id, v)
}

// nudge moves the selected value by a tenth of its magnitude.
func (a *App) nudge(dir float64) {
	if len(a.rows) == 0 {
		return
	}
	r := a.rows[a.rowCur]
	v := a.value(r)
	delta := math.Abs(v) * 0.1
	if delta == 0 {
		delta = 0.1
	}
	if r.table == "settings" && r.id == sim.SettingSteps {
		delta = math.Max(1, math.Round(delta))
	}
	a.set(r.id, v+dir*delta)
}

// run executes one simulation from the session's current state. It runs
// inside Update so the tables are never read while the run writes them.
func (a *App) run() {
	began := time.Now()
	traj, err := a.session.Run(a.ctx)
	a.elapsed = time.Since(began)
	if err != nil {
		a.err = err
		return
	}
	a.traj = traj
	a.runs++
	a.err = nil
	a.status = fmt.Sprintf("run %d finished in %v", a.runs, a.elapsed.Round(time.Microsecond))
	if a.column >= len(traj.Columns) {
		a.column = 0
	}
	a.view = viewResult
}

func (a *App) reset(all bool) {
	if !all {
		a.session.Reset()
		a.status = "manipulated variables reset"
		a.err = nil
		return
	}
	if _, err := a.session.ResetAll(); err != nil {
		a.err = err
		return
	}
	a.status = "all tables reset"
	a.err = nil
}

func (a App) View() string {
	switch a.view {
	case viewMenu:
		return a.viewMenu()
	case viewInputs:
		return a.viewInputs()
	case viewResult:
		return a.viewResult()
	}
	return ""
}

func (a App) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("             " + cyan.Render("r m s i m") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n\n")

	for i, name := range a.names {
		desc := ""
		if e, ok := a.registry.Lookup(name); ok {
			desc = e.Description
		}
		if i == a.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-12s", name)) + dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-12s", name)) + dimmer.Render(desc) + "\n")
		}
	}
	b.WriteString(a.footer("↑↓ select   enter open   q quit"))
	return b.String()
}

func (a App) viewInputs() string {
	var b strings.Builder
	b.WriteString("\n      " + cyan.Render(a.session.Name()) + "\n")

	table := ""
	for i, r := range a.rows {
		if r.table != table {
			table = r.table
			b.WriteString("\n      " + dim.Render(table) + "\n")
			b.WriteString(dimmer.Render("      "+strings.Repeat("─", 40)) + "\n")
		}
		rec, _ := a.session.Tables()[r.table].Get(r.id, variables.Current)
		val := fmt.Sprintf("%12.6g", rec.Value)
		if a.editing && i == a.rowCur {
			val = fmt.Sprintf("%12s", a.editBuf+"▋")
		}
		label := fmt.Sprintf("%-8s %-22s", r.id, truncate(rec.Label, 22))
		if i == a.rowCur {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(label) + magenta.Render(val) + " " + dim.Render(rec.Units) + "\n")
		} else {
			b.WriteString("        " + dim.Render(label) + dim.Render(val) + " " + dimmer.Render(rec.Units) + "\n")
		}
	}
	b.WriteString(a.footer("↑↓ select  ←→ adjust  enter edit  r run  x reset  X reset all  esc back"))
	return b.String()
}

func (a App) viewResult() string {
	var b strings.Builder
	tr := a.traj
	b.WriteString(fmt.Sprintf("\n   %s %s  %s\n", green.Render("●"), cyan.Render(a.session.Name()),
		dim.Render(fmt.Sprintf("%d rows, t %g to %g", tr.Len(), tr.Times[0], tr.EndTime(tr.Len()-1)))))

	id := tr.Columns[a.column]
	data, _ := tr.Column(id)
	w := a.width - 16
	if w < 30 {
		w = 30
	}
	h := a.height - 14
	if h < 6 {
		h = 6
	}
	b.WriteString("\n" + cyan.Render(asciigraph.Plot(data, asciigraph.Height(h), asciigraph.Width(w), asciigraph.Caption(id))) + "\n\n")

	final := tr.Final()
	var line strings.Builder
	line.WriteString("   ")
	for i, c := range tr.Columns {
		style := dim
		if i == a.column {
			style = white
		}
		line.WriteString(style.Render(fmt.Sprintf("%s=%.4g", c, final[c])) + "  ")
	}
	b.WriteString(line.String() + "\n")
	b.WriteString(a.footer("←→ state  r run again  i inputs  x reset  X reset all  q quit"))
	return b.String()
}

func (a App) footer(keys string) string {
	var b strings.Builder
	b.WriteString("\n")
	if a.err != nil {
		b.WriteString("      " + red.Render(a.err.Error()) + "\n")
	} else if a.status != "" {
		b.WriteString("      " + green.Render(a.status) + "\n")
	}
	b.WriteString(dim.Render("      "+keys) + "\n")
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
