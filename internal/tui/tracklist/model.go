// Package tracklist содержит модель экрана списка треков для TUI
package tracklist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hazadus/go-jukebox/internal/data"
	"github.com/hazadus/go-jukebox/internal/utils"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	paginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
	errorStyle        = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("#ff0000"))
	quitTextStyle     = lipgloss.NewStyle().Margin(1, 0, 2, 4)
)

// Library источник треков для списка
type Library interface {
	Tracks() []data.Track
}

// TrackSelectedMsg отправляется при выборе трека для воспроизведения
type TrackSelectedMsg struct {
	Track data.Track
}

// TrackDeleteMsg отправляется при запросе удаления трека
type TrackDeleteMsg struct {
	Track data.Track
}

// ShowPlayerMsg отправляется для перехода на экран плеера без смены трека
type ShowPlayerMsg struct{}

// ShowImportMsg отправляется для перехода на экран добавления файлов
type ShowImportMsg struct{}

// TracksChangedMsg сообщает, что каталог изменился и список нужно перечитать
type TracksChangedMsg struct {
	Err error
}

// trackItem реализует интерфейс list.Item для трека
type trackItem struct {
	track data.Track
}

func (i trackItem) FilterValue() string {
	return fmt.Sprintf("%s %s", i.track.Artist, i.track.Title)
}

// trackItemDelegate реализует отображение элементов списка
type trackItemDelegate struct{}

func (d trackItemDelegate) Height() int                             { return 1 }
func (d trackItemDelegate) Spacing() int                            { return 0 }
func (d trackItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d trackItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(trackItem)
	if !ok {
		return
	}

	// Исполнитель | Название | Продолжительность
	str := fmt.Sprintf("%-4d %-20s %-50s %s",
		index+1,
		utils.TruncateString(i.track.Artist, 20),
		utils.TruncateString(i.track.Title, 50),
		i.track.Duration)

	fn := itemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	}

	fmt.Fprint(w, fn(str))
}

// Model представляет модель экрана списка треков
type Model struct {
	list     list.Model
	library  Library
	err      error
	quitting bool
}

// NewModel создает новую модель списка треков
func NewModel(library Library) *Model {
	l := list.New(toItems(library.Tracks()), trackItemDelegate{}, 0, 0)
	l.Title = "Треки"
	l.SetShowStatusBar(false)
	l.SetShowTitle(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle

	return &Model{
		list:    l,
		library: library,
	}
}

func toItems(tracks []data.Track) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	return items
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// RefreshData перечитывает треки без пересоздания модели
func (m *Model) RefreshData() tea.Cmd {
	return m.list.SetItems(toItems(m.library.Tracks()))
}

// Len возвращает количество треков в списке
func (m *Model) Len() int {
	return len(m.list.Items())
}

func (m *Model) selected() (data.Track, bool) {
	item, ok := m.list.SelectedItem().(trackItem)
	if !ok {
		return data.Track{}, false
	}
	return item.track, true
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4) // Место для справки
		return m, nil

	case TracksChangedMsg:
		m.err = msg.Err
		return m, m.RefreshData()

	case tea.KeyMsg:
		// Во время ввода фильтра клавиши обрабатывает список
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			if track, ok := m.selected(); ok {
				return m, func() tea.Msg {
					return TrackSelectedMsg{Track: track}
				}
			}
			return m, nil

		case "d":
			if track, ok := m.selected(); ok {
				return m, func() tea.Msg {
					return TrackDeleteMsg{Track: track}
				}
			}
			return m, nil

		case "tab":
			return m, func() tea.Msg {
				return ShowPlayerMsg{}
			}

		case "a":
			return m, func() tea.Msg {
				return ShowImportMsg{}
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View отображает модель
func (m *Model) View() string {
	if m.quitting {
		return quitTextStyle.Render("До свидания!")
	}

	view := m.list.View()
	if m.err != nil {
		view += "\n" + errorStyle.Render(m.err.Error())
	}
	extraHelp := helpStyle.Render("Enter: воспроизвести • a: добавить • d: удалить • /: поиск • tab: плеер • q: выход")
	return view + "\n" + extraHelp
}
