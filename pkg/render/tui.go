package render

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dkoosis/dlpstream/pkg/classify"
	"github.com/dkoosis/dlpstream/pkg/pipeline"
)

// maxMessages is the number of warning/error/stderr lines kept on screen.
const maxMessages = 5

// RunFunc runs one downloader invocation against sink and errOut.
type RunFunc func(ctx context.Context, sink classify.Sink, errOut io.Writer) (*pipeline.Result, error)

// TUIOptions configures RunTUI.
type TUIOptions struct {
	Title  string
	Theme  Theme
	Input  io.Reader // defaults to os.Stdin
	Output io.Writer // defaults to os.Stdout
}

type eventMsg struct{ ev classify.Event }
type stderrMsg string
type doneMsg struct {
	result *pipeline.Result
	err    error
}

// RunTUI runs the invocation while showing a live view of its events. The
// downloader's stderr is shown in the view instead of being written to the
// terminal. Quitting the view ("q" or ctrl+c) cancels the invocation.
func RunTUI(ctx context.Context, opts TUIOptions, run RunFunc) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	in := opts.Input
	if in == nil {
		in = os.Stdin
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	program := tea.NewProgram(newModel(opts.Title, opts.Theme),
		tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))

	done := make(chan doneMsg, 1)
	go func() {
		sink := classify.SinkFunc(func(ev classify.Event) error {
			program.Send(eventMsg{ev: ev})
			return nil
		})
		res, err := run(ctx, sink, stderrWriter{program: program})
		msg := doneMsg{result: res, err: err}
		done <- msg
		program.Send(msg)
	}()

	_, uiErr := program.Run()
	// The view may have been closed early; stop the run and collect it.
	cancel()
	msg := <-done
	if msg.err == nil && uiErr != nil && ctx.Err() == nil {
		return msg.result, uiErr
	}
	return msg.result, msg.err
}

// stderrWriter forwards downloader stderr into the view.
type stderrWriter struct {
	program *tea.Program
}

func (w stderrWriter) Write(p []byte) (int, error) {
	w.program.Send(stderrMsg(string(p)))
	return len(p), nil
}

type model struct {
	theme   Theme
	title   string
	spinner spinner.Model
	bar     progress.Model

	location string
	percent  float64
	detail   string
	playlist string
	position string
	messages []string
	events   int

	done    bool
	aborted bool
	result  *pipeline.Result
	err     error
}

func newModel(title string, theme Theme) model {
	if title == "" {
		title = "dlpstream"
	}
	bar := progress.New(progress.WithDefaultGradient())
	if theme.Name == "mono" {
		bar = progress.New(progress.WithSolidFill("7"))
	}
	bar.Width = 40
	return model{
		theme:   theme,
		title:   title,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		bar:     bar,
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.aborted = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-4, 10), 60)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case eventMsg:
		m.apply(msg.ev)
	case stderrMsg:
		for _, line := range strings.FieldsFunc(string(msg), func(r rune) bool { return r == '\n' || r == '\r' }) {
			m.pushMessage(m.theme.Muted.Render(line))
		}
	case doneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

// apply folds one event into the view state.
func (m *model) apply(ev classify.Event) {
	m.events++
	switch e := ev.(type) {
	case classify.Warning:
		m.pushMessage(m.theme.Warning.Render(m.theme.Icons.Warn + " " + e.Message))
	case classify.Error:
		m.pushMessage(m.theme.Error.Render(m.theme.Icons.Fail + " " + e.Message))
	case classify.AlreadyExists:
		m.percent = 100
		m.detail = "already downloaded"
	case classify.Location:
		m.location = e.Location
		m.percent = 0
		m.detail = ""
	case classify.Progress:
		if p, err := strconv.ParseFloat(strings.TrimSpace(e.Percent), 64); err == nil {
			m.percent = min(max(p, 0), 100)
		}
		m.detail = e.TotalSize + "MiB at " + e.Speed + "MiB/s ETA " + e.ETA
	case classify.StartingPlaylist:
		m.playlist = e.PlaylistName
	case classify.PlaylistIndex:
		m.position = e.Index + "/" + e.TotalIndex
	}
}

func (m *model) pushMessage(line string) {
	m.messages = append(m.messages, line)
	if len(m.messages) > maxMessages {
		m.messages = m.messages[len(m.messages)-maxMessages:]
	}
}

func (m model) View() string {
	var sb strings.Builder

	header := m.theme.Bold.Render(m.title)
	if !m.done {
		header = m.spinner.View() + " " + header
	}
	sb.WriteString(header + "\n")

	if m.playlist != "" {
		line := m.theme.Icons.Playlist + " " + m.playlist
		if m.position != "" {
			line += " " + m.theme.Muted.Render("("+m.position+")")
		}
		sb.WriteString(m.theme.Primary.Render(line) + "\n")
	}
	if m.location != "" {
		sb.WriteString(m.theme.Icons.File + " " + m.location + "\n")
	}
	sb.WriteString(m.bar.ViewAs(m.percent/100) + "\n")
	if m.detail != "" {
		sb.WriteString(m.theme.Muted.Render(m.detail) + "\n")
	}
	for _, line := range m.messages {
		sb.WriteString(line + "\n")
	}

	if m.done {
		sb.WriteString(m.summary() + "\n")
	} else {
		sb.WriteString(m.theme.Muted.Render("q to cancel") + "\n")
	}
	return sb.String()
}

func (m model) summary() string {
	switch {
	case m.err != nil:
		return m.theme.Error.Render(m.theme.Icons.Fail + " " + m.err.Error())
	case m.result != nil:
		return m.theme.Success.Render(m.theme.Icons.Done + " done, " + strconv.Itoa(m.result.Events) + " events")
	default:
		return m.theme.Success.Render(m.theme.Icons.Done + " done")
	}
}
