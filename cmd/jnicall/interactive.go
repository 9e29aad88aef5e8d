package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/jni-bridge/dispatch"
	"github.com/wippyai/jni-bridge/fixtures"
	"github.com/wippyai/jni-bridge/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err      error
	rt       *runtime.Runtime
	cfg      *runtime.Config
	targets  map[string]any
	result   string
	stats    string
	methods  []*dispatch.MethodBinding
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    modelState
}

type modelState int

const (
	stateSelectMethod modelState = iota
	stateInputArgs
	stateShowResult
)

func newInteractiveModel(cfg *runtime.Config) *interactiveModel {
	return &interactiveModel{
		cfg:     cfg,
		targets: make(map[string]any),
		state:   stateSelectMethod,
	}
}

type loadedMsg struct {
	err     error
	rt      *runtime.Runtime
	methods []*dispatch.MethodBinding
}

type callResultMsg struct {
	err    error
	result string
	stats  string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.load
}

func (m *interactiveModel) load() tea.Msg {
	table, err := fixtures.All()
	if err != nil {
		return loadedMsg{err: err}
	}

	var methods []*dispatch.MethodBinding
	for _, mb := range table.Methods() {
		if !mb.IsConstructor() && !mb.Native {
			methods = append(methods, mb)
		}
	}

	rt, err := runtime.New(context.Background(), table, m.cfg)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{rt: rt, methods: methods}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, m.quit()

		case "q":
			if m.state != stateInputArgs {
				return m, m.quit()
			}

		case "up":
			if m.state == stateSelectMethod && m.selected > 0 {
				m.selected--
			}

		case "down":
			if m.state == stateSelectMethod && m.selected < len(m.methods)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectMethod:
				if len(m.methods) == 0 {
					break
				}
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callMethod
				}
				m.state = stateInputArgs

			case stateInputArgs:
				return m, m.callMethod

			case stateShowResult:
				m.state = stateSelectMethod
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectMethod
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectMethod
				m.result = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.rt = msg.rt
		m.methods = msg.methods

	case callResultMsg:
		m.result = msg.result
		m.stats = msg.stats
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) quit() tea.Cmd {
	if m.rt != nil {
		m.rt.Close(context.Background())
	}
	return tea.Quit
}

func (m *interactiveModel) prepareInputs() {
	mb := m.methods[m.selected]
	m.inputs = make([]textinput.Model, len(mb.Sig.Params))
	for i, p := range mb.Sig.Params {
		ti := textinput.New()
		ti.Placeholder = p.String()
		ti.Prompt = fmt.Sprintf("arg%d: ", i)
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *interactiveModel) callMethod() tea.Msg {
	ctx := context.Background()
	if m.rt == nil {
		return callResultMsg{err: fmt.Errorf("runtime not loaded")}
	}

	mb := m.methods[m.selected]
	args := make([]any, len(m.inputs))
	for i, input := range m.inputs {
		v, err := parseValue(input.Value(), mb.Sig.Params[i])
		if err != nil {
			return callResultMsg{err: fmt.Errorf("arg%d: %w", i, err)}
		}
		args[i] = v
	}

	// Instance methods share one receiver per class across calls.
	var target any
	if !mb.Static {
		if target = m.targets[mb.Owner]; target == nil {
			obj, err := newTarget(ctx, m.rt, mb.Owner)
			if err != nil {
				return callResultMsg{err: fmt.Errorf("construct %s: %w", mb.Owner, err)}
			}
			target = obj
			m.targets[mb.Owner] = obj
		}
	}

	result, err := m.rt.Invoke(ctx, mb.Key(), target, args...)
	s := m.rt.Stats()
	stats := fmt.Sprintf("heap %d/%d bytes, %d views, %d locals, %d persistent",
		s.HeapBytesInUse, s.HeapSize, s.Views, s.Locals, s.Persistent)
	if err != nil {
		return callResultMsg{err: err, stats: stats}
	}
	if mb.Sig.IsVoid() {
		return callResultMsg{result: "(void)", stats: stats}
	}
	return callResultMsg{result: formatValue(result), stats: stats}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.rt == nil {
		return "Loading bindings..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("JNI Bridge"))
	b.WriteString(" ")
	b.WriteString(m.cfg.StringEncoding.String())
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectMethod:
		b.WriteString("Select a method to call:\n\n")
		for i, mb := range m.methods {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + describeMethod(mb)))
			} else {
				b.WriteString("  " + m.formatMethod(mb))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		mb := m.methods[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(mb.Key().String())))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(mb.Sig.Params[i].String()))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		mb := m.methods[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(mb.Key().String())))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render(m.stats))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatMethod(mb *dispatch.MethodBinding) string {
	params := make([]string, len(mb.Sig.Params))
	for i, p := range mb.Sig.Params {
		params[i] = typeStyle.Render(p.String())
	}
	prefix := ""
	if mb.Static {
		prefix = "static "
	}
	return prefix + typeStyle.Render(mb.Sig.Return.String()) + " " +
		funcStyle.Render(mb.Owner+"."+mb.Name) + "(" + strings.Join(params, ", ") + ")"
}

func runInteractive(cfg *runtime.Config) error {
	p := tea.NewProgram(newInteractiveModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
