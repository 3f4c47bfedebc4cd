package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"timeslice/pkg/timeslice"
)

// Styles.
var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	focusStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	checkedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	gainStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	statLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// Form fields, in focus order.
const (
	fieldInstrument = iota
	fieldHedge
	fieldEntry
	fieldExit
	fieldPosition
	fieldFilters
	fieldCount
)

var positions = []string{"long", "short"}

// Messages.
type timesMsg struct {
	instrument string
	times      []string
	err        error
}

type resultMsg struct {
	res *timeslice.BacktestResult
	err error
}

type model struct {
	client *timeslice.Client
	logger *slog.Logger

	instruments []string
	filters     []string

	// Form state. hedgeIdx 0 means no hedge; instrument indices shift by one.
	instIdx     int
	hedgeIdx    int
	times       []string
	entryIdx    int
	exitIdx     int
	positionIdx int
	filterOn    map[int]bool
	filterIdx   int
	focus       int

	running bool
	result  *timeslice.BacktestResult
	errMsg  string

	viewport      viewport.Model
	ready         bool
	width, height int
}

func initialModel(client *timeslice.Client, instruments, filters []string, logger *slog.Logger) model {
	m := model{
		client:      client,
		logger:      logger,
		instruments: instruments,
		filters:     filters,
		filterOn:    make(map[int]bool),
	}
	// Start with the daily filter when offered.
	for i, f := range filters {
		if f == "daily" {
			m.filterOn[i] = true
		}
	}
	return m
}

func (m model) Init() tea.Cmd {
	if len(m.instruments) > 0 {
		return m.loadTimes(m.instruments[m.instIdx])
	}
	return nil
}

func (m model) loadTimes(instrument string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		times, err := client.Times(ctx, instrument)
		return timesMsg{instrument: instrument, times: times, err: err}
	}
}

func (m model) runBacktest() tea.Cmd {
	if len(m.instruments) == 0 || len(m.times) == 0 {
		return nil
	}

	req := timeslice.BacktestRequest{
		Instrument: m.instruments[m.instIdx],
		EntryTime:  m.times[m.entryIdx],
		ExitTime:   m.times[m.exitIdx],
		Position:   positions[m.positionIdx],
	}
	if m.hedgeIdx > 0 {
		req.Hedge = m.instruments[m.hedgeIdx-1]
	}
	for i, on := range m.filterOn {
		if on {
			req.Filters = append(req.Filters, m.filters[i])
		}
	}

	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		res, err := client.Backtest(ctx, req)
		return resultMsg{res: res, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "down":
			m.focus = (m.focus + 1) % fieldCount
			return m, nil
		case "shift+tab", "up":
			m.focus = (m.focus + fieldCount - 1) % fieldCount
			return m, nil
		case "left":
			return m.cycle(-1)
		case "right":
			return m.cycle(1)
		case " ":
			if m.focus == fieldFilters && len(m.filters) > 0 {
				m.filterOn[m.filterIdx] = !m.filterOn[m.filterIdx]
			}
			return m, nil
		case "enter":
			if m.running {
				return m, nil
			}
			m.running = true
			m.errMsg = ""
			return m, m.runBacktest()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		formH := m.formHeight()
		vpHeight := m.height - formH - 2
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.viewport.SetContent(m.renderResult())
		return m, nil

	case timesMsg:
		if msg.err != nil {
			m.logger.Error("loading times", "instrument", msg.instrument, "error", msg.err)
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.times = msg.times
		m.entryIdx = 0
		m.exitIdx = len(m.times) - 1
		if m.exitIdx < 0 {
			m.exitIdx = 0
		}
		return m, nil

	case resultMsg:
		m.running = false
		if msg.err != nil {
			m.logger.Error("backtest", "error", msg.err)
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.result = msg.res
		m.logger.Info("backtest done", "instrument", msg.res.Instrument,
			"trades", msg.res.Stats.TradeCount)
		if m.ready {
			m.viewport.SetContent(m.renderResult())
			m.viewport.GotoTop()
		}
		return m, nil
	}

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

// cycle moves the focused field's value by delta, reloading times when the
// primary instrument changes.
func (m model) cycle(delta int) (tea.Model, tea.Cmd) {
	switch m.focus {
	case fieldInstrument:
		if n := len(m.instruments); n > 0 {
			m.instIdx = (m.instIdx + delta + n) % n
			return m, m.loadTimes(m.instruments[m.instIdx])
		}
	case fieldHedge:
		n := len(m.instruments) + 1
		m.hedgeIdx = (m.hedgeIdx + delta + n) % n
	case fieldEntry:
		if n := len(m.times); n > 0 {
			m.entryIdx = (m.entryIdx + delta + n) % n
		}
	case fieldExit:
		if n := len(m.times); n > 0 {
			m.exitIdx = (m.exitIdx + delta + n) % n
		}
	case fieldPosition:
		m.positionIdx = (m.positionIdx + delta + len(positions)) % len(positions)
	case fieldFilters:
		if n := len(m.filters); n > 0 {
			m.filterIdx = (m.filterIdx + delta + n) % n
		}
	}
	return m, nil
}

func (m model) formHeight() int {
	return fieldCount + 1
}

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := headerStyle.Render(padOrTrunc(" timeslice backtest viewer ", m.width))
	footer := footerStyle.Render(padOrTrunc(
		" q quit  tab/up/dn field  left/right value  space toggle filter  enter run", m.width))

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(m.renderForm())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(footer)
	return b.String()
}

func (m model) renderForm() string {
	var b strings.Builder

	row := func(field int, label, value string) {
		lbl := fmt.Sprintf("  %-12s", label)
		if m.focus == field {
			b.WriteString(focusStyle.Render(lbl))
		} else {
			b.WriteString(labelStyle.Render(lbl))
		}
		b.WriteString(" ")
		b.WriteString(value)
		b.WriteString("\n")
	}

	instrument := "(none loaded)"
	if len(m.instruments) > 0 {
		instrument = m.instruments[m.instIdx]
	}
	row(fieldInstrument, "instrument", valueStyle.Render(instrument))

	hedge := dimStyle.Render("none")
	if m.hedgeIdx > 0 {
		hedge = valueStyle.Render(m.instruments[m.hedgeIdx-1])
	}
	row(fieldHedge, "hedge", hedge)

	entry, exit := "--:--", "--:--"
	if len(m.times) > 0 {
		entry = m.times[m.entryIdx]
		exit = m.times[m.exitIdx]
	}
	row(fieldEntry, "entry", valueStyle.Render(entry))
	row(fieldExit, "exit", valueStyle.Render(exit))
	row(fieldPosition, "position", valueStyle.Render(positions[m.positionIdx]))

	var fs strings.Builder
	for i, f := range m.filters {
		mark := "[ ]"
		style := dimStyle
		if m.filterOn[i] {
			mark = "[x]"
			style = checkedStyle
		}
		cell := fmt.Sprintf("%s %s", mark, f)
		if m.focus == fieldFilters && i == m.filterIdx {
			cell = focusStyle.Render(cell)
		} else {
			cell = style.Render(cell)
		}
		fs.WriteString(cell)
		fs.WriteString("  ")
	}
	row(fieldFilters, "filters", fs.String())

	if m.running {
		b.WriteString(dimStyle.Render("  running..."))
	} else if m.errMsg != "" {
		b.WriteString(errStyle.Render("  " + m.errMsg))
	}
	return b.String()
}

func (m model) renderResult() string {
	if m.result == nil {
		return dimStyle.Render("  press enter to run a backtest")
	}
	res := m.result

	var b strings.Builder
	b.WriteString(statLineStyle.Render(fmt.Sprintf(
		"  trades: %d/%d dates   mean: %s   std: %s   avg gap: %.2fd   sharpe: %s",
		res.Stats.TradeCount, res.SelectedDates,
		formatStat(res.Stats.MeanPnL), formatStat(res.Stats.StdPnL),
		res.Stats.AvgGapDays, formatStat(res.Stats.Sharpe))))
	b.WriteString("\n\n")

	if len(res.Trades) == 0 {
		b.WriteString(dimStyle.Render("  (no trades for the given selection)"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(renderChart(res.Trades, m.width-4))
	b.WriteString("\n")

	b.WriteString(labelStyle.Render(fmt.Sprintf("  %-12s %8s %10s %10s", "date", "pnl", "cum", "diff")))
	b.WriteString("\n")
	for _, tr := range res.Trades {
		style := gainStyle
		if tr.PnL < 0 {
			style = lossStyle
		}
		line := fmt.Sprintf("  %-12s %8.2f %10.2f %10.2f", tr.Date, tr.PnL, tr.CumulativePnL, tr.PriceDiff)
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

// renderChart draws the cumulative PnL curve as a fixed-height column chart.
const chartHeight = 8

func renderChart(trades []timeslice.TradeRow, width int) string {
	if width < 10 {
		width = 10
	}
	n := len(trades)
	cols := n
	if cols > width {
		cols = width
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, tr := range trades {
		lo = math.Min(lo, tr.CumulativePnL)
		hi = math.Max(hi, tr.CumulativePnL)
	}
	lo = math.Min(lo, 0)
	hi = math.Max(hi, 0)
	span := hi - lo
	if span == 0 {
		span = 1
	}

	// Map each column to a trade and each cumulative value to a row.
	levels := make([]int, cols)
	for c := 0; c < cols; c++ {
		idx := c * n / cols
		v := trades[idx].CumulativePnL
		levels[c] = int(math.Round((v - lo) / span * float64(chartHeight-1)))
	}
	zeroRow := int(math.Round((0 - lo) / span * float64(chartHeight-1)))

	var b strings.Builder
	for row := chartHeight - 1; row >= 0; row-- {
		b.WriteString("  ")
		for c := 0; c < cols; c++ {
			switch {
			case levels[c] == row:
				if trades[c*n/cols].CumulativePnL >= 0 {
					b.WriteString(gainStyle.Render("●"))
				} else {
					b.WriteString(lossStyle.Render("●"))
				}
			case row == zeroRow:
				b.WriteString(dimStyle.Render("·"))
			default:
				b.WriteString(" ")
			}
		}
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %s .. %s  (cumulative)",
		trades[0].Date, trades[n-1].Date)))
	b.WriteString("\n")
	return b.String()
}

func formatStat(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

// padOrTrunc pads s with spaces to width, or truncates if longer.
func padOrTrunc(s string, width int) string {
	n := len(s)
	if n >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-n)
}

func main() {
	server := flag.String("server", "", "timeslice-server base URL (default $TIMESLICE_SERVER or http://127.0.0.1:8080)")
	flag.Parse()

	addr := *server
	if addr == "" {
		addr = os.Getenv("TIMESLICE_SERVER")
	}
	if addr == "" {
		addr = "http://127.0.0.1:8080"
	}

	logPath := fmt.Sprintf("/tmp/timeslice-tui-%s.log", time.Now().Format("2006-01-02"))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: slog.LevelInfo}))

	client := timeslice.NewClient(addr)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	instruments, err := client.Instruments(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connecting to %s: %v\n", addr, err)
		os.Exit(1)
	}
	if len(instruments) == 0 {
		fmt.Fprintln(os.Stderr, "server has no instruments loaded")
		os.Exit(1)
	}
	filters, err := client.Filters(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading filters: %v\n", err)
		os.Exit(1)
	}
	logger.Info("connected", "server", addr,
		"instruments", len(instruments), "filters", len(filters))

	p := tea.NewProgram(
		initialModel(client, instruments, filters, logger),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
