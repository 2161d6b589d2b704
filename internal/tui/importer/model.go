// Package importer содержит модель экрана добавления файлов в библиотеку для TUI
package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hazadus/go-jukebox/internal/ingest"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Margin(1, 0)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(15)
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Margin(1, 0)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Margin(1, 0)
)

// Importer добавляет файлы или каталоги в библиотеку
type Importer interface {
	Import(ctx context.Context, paths []string) (ingest.Summary, error)
}

// ImportDoneMsg отправляется по завершении загрузки
type ImportDoneMsg struct {
	Summary ingest.Summary
	Err     error
}

// GoBackMsg отправляется при возврате к списку треков
type GoBackMsg struct{}

// Model представляет модель экрана добавления файлов
type Model struct {
	ctx      context.Context
	importer Importer
	input    textinput.Model
	running  bool
	err      string
	success  string
}

// NewModel создает новую модель экрана добавления
func NewModel(ctx context.Context, importer Importer, defaultPath string) *Model {
	input := textinput.New()
	input.Placeholder = "Путь к файлу или каталогу"
	input.SetValue(defaultPath)
	input.Focus()
	input.PromptStyle = focusedStyle
	input.TextStyle = focusedStyle

	return &Model{
		ctx:      ctx,
		importer: importer,
		input:    input,
	}
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Running сообщает, идет ли загрузка
func (m *Model) Running() bool {
	return m.running
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			if m.running {
				return m, nil
			}
			return m, func() tea.Msg {
				return GoBackMsg{}
			}

		case "enter":
			return m, m.startImport()
		}

	case ImportDoneMsg:
		m.running = false
		if msg.Err != nil {
			m.err = fmt.Sprintf("Ошибка загрузки: %v", msg.Err)
			m.success = ""
			return m, nil
		}
		m.err = ""
		m.success = fmt.Sprintf("Добавлено: %d, пропущено: %d, ошибок: %d",
			msg.Summary.Added, msg.Summary.Skipped, msg.Summary.Failed)
		return m, nil

	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 20
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// startImport запускает загрузку введенных путей
func (m *Model) startImport() tea.Cmd {
	if m.running {
		return nil
	}

	paths := strings.Fields(m.input.Value())
	if len(paths) == 0 {
		m.err = "Укажите путь к файлу или каталогу"
		m.success = ""
		return nil
	}

	m.running = true
	m.err = ""
	m.success = ""
	ctx, importer := m.ctx, m.importer
	return func() tea.Msg {
		summary, err := importer.Import(ctx, paths)
		return ImportDoneMsg{Summary: summary, Err: err}
	}
}

// View отображает модель
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Добавление треков"))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Путь:"))
	b.WriteString(" ")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if m.running {
		b.WriteString("Загрузка...\n")
	}

	if m.err != "" {
		b.WriteString(errorStyle.Render(m.err))
		b.WriteString("\n")
	}

	if m.success != "" {
		b.WriteString(successStyle.Render(m.success))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("Enter: добавить • Esc: назад"))
	return b.String()
}
