// Package player содержит модель экрана воспроизведения для TUI
package player

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hazadus/go-jukebox/internal/jukebox"
	"github.com/hazadus/go-jukebox/internal/utils"
)

// Шаги управления с клавиатуры
const (
	VolumeStep   = 0.1
	SeekStep     = 5 * time.Second
	TickInterval = 250 * time.Millisecond
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0000ff")).
			MarginBottom(1)

	trackInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1).
			MarginBottom(1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff0000")).
			Bold(true)
)

// Controller команды проигрывателя, доступные экрану (реализуется jukebox.Jukebox)
type Controller interface {
	Snapshot() jukebox.Snapshot
	TogglePlay(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	ToggleShuffle() bool
	ToggleRepeat() bool
	SetVolume(v float64)
	Seek(seconds float64)
}

// GoBackMsg отправляется для возврата к списку треков
type GoBackMsg struct{}

// TickMsg периодически обновляет состояние экрана
type TickMsg struct {
	id int64
}

// ActionResultMsg результат команды проигрывателя
type ActionResultMsg struct {
	Err error
}

var lastModelID atomic.Int64

// Model представляет модель экрана воспроизведения
type Model struct {
	id          int64
	ctx         context.Context
	controller  Controller
	snapshot    jukebox.Snapshot
	progressBar progress.Model
	err         error
	width       int
	height      int
}

// NewModel создает модель плеера поверх контроллера
func NewModel(ctx context.Context, controller Controller) *Model {
	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	return &Model{
		id:          lastModelID.Add(1),
		ctx:         ctx,
		controller:  controller,
		snapshot:    controller.Snapshot(),
		progressBar: prog,
	}
}

// Init запускает периодическое обновление
func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	id := m.id
	return tea.Tick(TickInterval, func(time.Time) tea.Msg {
		return TickMsg{id: id}
	})
}

// run выполняет команду проигрывателя вне цикла обработки сообщений
func (m *Model) run(action func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return ActionResultMsg{Err: action(ctx)}
	}
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progressBar.Width = max(10, min(60, msg.Width-10))
		return m, nil

	case TickMsg:
		// Тики от предыдущих экземпляров экрана не продлеваются
		if msg.id != m.id {
			return m, nil
		}
		m.snapshot = m.controller.Snapshot()
		return m, m.tick()

	case ActionResultMsg:
		m.err = msg.Err
		m.snapshot = m.controller.Snapshot()
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "esc":
		return func() tea.Msg {
			return GoBackMsg{}
		}

	case " ":
		return m.run(m.controller.TogglePlay)

	case "n":
		return m.run(m.controller.Next)

	case "p":
		return m.run(m.controller.Previous)

	case "s":
		m.controller.ToggleShuffle()

	case "r":
		m.controller.ToggleRepeat()

	case "+", "=":
		m.controller.SetVolume(m.snapshot.Volume + VolumeStep)

	case "-":
		m.controller.SetVolume(m.snapshot.Volume - VolumeStep)

	case "right":
		m.controller.Seek((m.snapshot.Current + SeekStep).Seconds())

	case "left":
		m.controller.Seek((m.snapshot.Current - SeekStep).Seconds())

	default:
		return nil
	}

	m.snapshot = m.controller.Snapshot()
	return nil
}

// View отображает модель
func (m *Model) View() string {
	snap := m.snapshot
	title := titleStyle.Render("🎵 Воспроизведение")

	if snap.Track == nil {
		body := "Трек не выбран"
		if err := m.lastError(); err != nil {
			body = errorStyle.Render(err.Error())
		}
		return fmt.Sprintf("%s\n\n%s\n\n%s", title, body,
			controlsStyle.Render("Нажмите 'q' или 'esc' для возврата"))
	}

	trackInfo := trackInfoStyle.Render(fmt.Sprintf(
		"🎤 %s\n🎵 %s\n🕒 %s",
		snap.Track.Artist,
		snap.Track.Title,
		utils.FormatLastPlayed(snap.Track.LastPlayed),
	))

	statusIcon := "⏸️"
	if snap.IsPlaying {
		statusIcon = "▶️"
	}
	statusText := statusStyle.Render(fmt.Sprintf("%s %s  🔊 %s  %s",
		statusIcon,
		formatStatus(snap.IsPlaying),
		utils.FormatVolume(snap.Volume),
		formatModes(snap.Shuffle, snap.Repeat),
	))

	var percent float64
	if snap.Total > 0 {
		percent = float64(snap.Current) / float64(snap.Total)
	}

	timeText := fmt.Sprintf("%s / %s",
		utils.FormatDuration(snap.Current),
		utils.FormatDuration(snap.Total),
	)

	view := fmt.Sprintf("%s\n\n%s\n\n%s\n\n%s\n%s",
		title,
		trackInfo,
		statusText,
		m.progressBar.ViewAs(percent),
		timeText,
	)
	if err := m.lastError(); err != nil {
		view += "\n\n" + errorStyle.Render(err.Error())
	}

	controls := controlsStyle.Render(
		"Пробел: пауза • n/p: следующий/предыдущий • s: перемешать • r: повтор • +/-: громкость • ←/→: перемотка • q: назад",
	)
	return view + "\n\n" + controls
}

func (m *Model) lastError() error {
	if m.err != nil {
		return m.err
	}
	return m.snapshot.LastError
}

func formatStatus(isPlaying bool) string {
	if isPlaying {
		return "Воспроизведение"
	}
	return "Пауза"
}

func formatModes(shuffle, repeat bool) string {
	modes := ""
	if shuffle {
		modes += "🔀"
	}
	if repeat {
		modes += "🔁"
	}
	return modes
}
