package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

type state int

const (
	stateLogin state = iota
	stateLookup
)

type RootModel struct {
	State    state
	Client   *Client
	Login    LoginModel
	Lookup   LookupModel
	Quitting bool
	width    int
	height   int
}

func NewRootModel(c *Client) RootModel {
	return RootModel{
		State:  stateLogin,
		Client: c,
		Login:  NewLoginModel(c),
	}
}

func (m RootModel) Init() tea.Cmd {
	return m.Login.Init()
}

func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.Lookup.Table.SetHeight(tableHeight(msg.Height))

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.Quitting = true
			return m, tea.Quit
		}

	case loginResultMsg:
		if msg.err == nil && m.State == stateLogin {
			m.State = stateLookup
			m.Lookup = NewLookupModel(m.Client, m.height)
			return m, m.Lookup.Init()
		}
	}

	var cmd tea.Cmd
	switch m.State {
	case stateLogin:
		m.Login, cmd = m.Login.Update(msg)
	case stateLookup:
		m.Lookup, cmd = m.Lookup.Update(msg)
	}
	return m, cmd
}

func (m RootModel) View() string {
	if m.Quitting {
		return "Bye!\n"
	}
	switch m.State {
	case stateLogin:
		return m.Login.View()
	case stateLookup:
		return m.Lookup.View()
	}
	return "Unknown state"
}
