// Package app содержит основную логику TUI приложения
package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hazadus/go-jukebox/internal/data"
	"github.com/hazadus/go-jukebox/internal/tui/importer"
	tuiPlayer "github.com/hazadus/go-jukebox/internal/tui/player"
	"github.com/hazadus/go-jukebox/internal/tui/tracklist"
)

// ScreenType определяет тип текущего экрана
type ScreenType int

// Константы для типов экранов
const (
	// TracklistScreen - экран списка треков
	TracklistScreen ScreenType = iota
	// PlayerScreen - экран плеера
	PlayerScreen
	// ImportScreen - экран добавления файлов
	ImportScreen
)

// Jukebox команды проигрывателя, нужные интерфейсу (реализуется jukebox.Jukebox)
type Jukebox interface {
	tracklist.Library
	tuiPlayer.Controller
	Select(ctx context.Context, track data.Track) error
	Remove(ctx context.Context, id string) error
}

// MainModel представляет главную модель TUI
type MainModel struct {
	ctx            context.Context
	jukebox        Jukebox
	importer       importer.Importer
	importDir      string // Путь, предлагаемый на экране добавления
	currentScreen  ScreenType
	tracklistModel *tracklist.Model
	playerModel    *tuiPlayer.Model
	importModel    *importer.Model
	width, height  int
}

// NewMainModel создает новую главную модель
func NewMainModel(ctx context.Context, jukebox Jukebox, imp importer.Importer, importDir string) *MainModel {
	return &MainModel{
		ctx:            ctx,
		jukebox:        jukebox,
		importer:       imp,
		importDir:      importDir,
		currentScreen:  TracklistScreen,
		tracklistModel: tracklist.NewModel(jukebox),
	}
}

// Init инициализирует модель
func (m *MainModel) Init() tea.Cmd {
	return m.tracklistModel.Init()
}

// CurrentScreen возвращает активный экран
func (m *MainModel) CurrentScreen() ScreenType {
	return m.currentScreen
}

// showPlayer переключается на экран плеера
func (m *MainModel) showPlayer(cmds ...tea.Cmd) tea.Cmd {
	m.currentScreen = PlayerScreen
	m.playerModel = tuiPlayer.NewModel(m.ctx, m.jukebox)
	// Новому экрану нужны текущие размеры окна
	if m.width > 0 {
		m.playerModel.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	}
	return tea.Batch(append(cmds, m.playerModel.Init())...)
}

// Update обрабатывает сообщения
func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tracklist.TrackSelectedMsg:
		ctx, jb, track := m.ctx, m.jukebox, msg.Track
		return m, m.showPlayer(func() tea.Msg {
			return tuiPlayer.ActionResultMsg{Err: jb.Select(ctx, track)}
		})

	case tracklist.ShowPlayerMsg:
		return m, m.showPlayer()

	case tracklist.ShowImportMsg:
		if m.importer == nil {
			return m, nil
		}
		m.currentScreen = ImportScreen
		m.importModel = importer.NewModel(m.ctx, m.importer, m.importDir)
		if m.width > 0 {
			m.importModel.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		}
		return m, m.importModel.Init()

	case importer.GoBackMsg:
		m.currentScreen = TracklistScreen
		m.importModel = nil
		return m, m.tracklistModel.RefreshData()

	case tracklist.TrackDeleteMsg:
		ctx, jb, id := m.ctx, m.jukebox, msg.Track.ID
		return m, func() tea.Msg {
			return tracklist.TracksChangedMsg{Err: jb.Remove(ctx, id)}
		}

	case tuiPlayer.GoBackMsg:
		m.currentScreen = TracklistScreen
		m.playerModel = nil
		// Порядок мог измениться из-за перемешивания
		return m, m.tracklistModel.RefreshData()
	}

	return m, m.updateActive(msg)
}

// updateActive передает сообщение активному экрану
func (m *MainModel) updateActive(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.currentScreen {
	case TracklistScreen:
		m.tracklistModel, cmd = m.tracklistModel.Update(msg)

	case PlayerScreen:
		if m.playerModel != nil {
			updatedModel, playerCmd := m.playerModel.Update(msg)
			if playerModel, ok := updatedModel.(*tuiPlayer.Model); ok {
				m.playerModel = playerModel
			}
			cmd = playerCmd
		}

	case ImportScreen:
		if m.importModel != nil {
			m.importModel, cmd = m.importModel.Update(msg)
		}
	}
	return cmd
}

// View отображает интерфейс
func (m *MainModel) View() string {
	switch m.currentScreen {
	case TracklistScreen:
		return m.tracklistModel.View()

	case PlayerScreen:
		if m.playerModel != nil {
			return m.playerModel.View()
		}
		return "Ошибка: модель плеера не инициализирована"

	case ImportScreen:
		if m.importModel != nil {
			return m.importModel.View()
		}
		return "Ошибка: модель добавления не инициализирована"

	default:
		return "Неизвестный экран"
	}
}
