package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"compliance-feed/backend/app/dto"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// LookupModel asks for a command id and shows its per-target status.
type LookupModel struct {
	Client     *Client
	Input      textinput.Model
	Spinner    spinner.Model
	Table      table.Model
	Loading    bool
	Unredacted bool
	Status     *dto.CommandStatusResponse
	NotFound   bool
	Err        error
}

type statusLoadedMsg struct {
	commandID string
	status    *dto.CommandStatusResponse
	err       error
}

func NewLookupModel(c *Client, height int) LookupModel {
	in := textinput.New()
	in.Placeholder = "command id"
	in.Prompt = focusedStyle.Render("Command: ")
	in.CharLimit = 64
	in.Width = 40
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	columns := []table.Column{
		{Title: "Agent", Width: 36},
		{Title: "Asset Group", Width: 36},
		{Title: "Qualifier", Width: 30},
		{Title: "Action", Width: 9},
		{Title: "Ingested", Width: 16},
		{Title: "Completed", Width: 16},
		{Title: "Forced", Width: 6},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(tableHeight(height)),
	)
	st := table.DefaultStyles()
	st.Header = st.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	st.Selected = st.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(st)

	return LookupModel{Client: c, Input: in, Spinner: sp, Table: t}
}

func tableHeight(height int) int {
	if height-16 < 5 {
		return 5
	}
	return height - 16
}

func (m LookupModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m LookupModel) Update(msg tea.Msg) (LookupModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Loading {
			return m, nil
		}
		switch msg.String() {
		case "enter":
			id := strings.TrimSpace(m.Input.Value())
			if id == "" {
				return m, nil
			}
			m.Loading, m.Err, m.NotFound = true, nil, false
			m.Input.Blur()
			m.Table.Blur()
			return m, tea.Batch(m.Spinner.Tick, m.fetchCmd(id, m.Unredacted))
		case "ctrl+u":
			m.Unredacted = !m.Unredacted
			return m, nil
		case "esc":
			m.Input.Focus()
			m.Table.Blur()
			return m, nil
		case "tab":
			if m.Input.Focused() {
				m.Input.Blur()
				m.Table.Focus()
			} else {
				m.Table.Blur()
				m.Input.Focus()
			}
			return m, nil
		}

	case statusLoadedMsg:
		m.Loading = false
		m.Input.Focus()
		m.Status, m.Err = msg.status, msg.err
		m.NotFound = msg.err == nil && msg.status == nil
		m.Table.SetRows(statusRows(msg.status))
		return m, nil

	case spinner.TickMsg:
		if !m.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	if m.Input.Focused() {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	} else {
		m.Table, cmd = m.Table.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m LookupModel) fetchCmd(id string, unredacted bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		st, err := m.Client.CommandStatus(ctx, id, unredacted)
		return statusLoadedMsg{commandID: id, status: st, err: err}
	}
}

func statusRows(st *dto.CommandStatusResponse) []table.Row {
	if st == nil {
		return nil
	}
	rows := make([]table.Row, 0, len(st.AssetGroupStatuses))
	for _, s := range st.AssetGroupStatuses {
		action := s.IngestionActionTaken
		if s.IngestionConflict {
			action += "!"
		}
		forced := ""
		if s.ForceCompleted {
			forced = "yes"
		}
		rows = append(rows, table.Row{
			s.AgentID,
			s.AssetGroupID,
			s.AssetGroupQualifier,
			action,
			formatTime(s.IngestionTime),
			formatTime(s.CompletedTime),
			forced,
		})
	}
	return rows
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func formatRate(r float64) string {
	if r < 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", r*100)
}

func (m LookupModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Command Status") + "\n\n")
	b.WriteString(m.Input.View())
	if m.Unredacted {
		label := "[unredacted]"
		if !m.Client.Trusted {
			label = "[unredacted requested, role not trusted]"
		}
		b.WriteString("  " + warnStyle.Render(label))
	}
	b.WriteString("\n\n")

	switch {
	case m.Loading:
		b.WriteString(m.Spinner.View() + " loading...\n")
	case m.Err != nil:
		b.WriteString(errorMessageStyle(m.Err.Error()) + "\n")
	case m.NotFound:
		b.WriteString(blurredStyle.Render("no such command") + "\n")
	case m.Status != nil:
		st := m.Status
		fmt.Fprintf(&b, "%s %s   %s %s   %s %s\n",
			labelStyle.Render("Type:"), st.CommandType,
			labelStyle.Render("Subject:"), st.SubjectType,
			labelStyle.Render("Requester:"), st.Requester)
		total, completed := "-", "-"
		if st.TotalCommandCount != nil {
			total = fmt.Sprint(*st.TotalCommandCount)
		}
		if st.CompletedCommandCount != nil {
			completed = fmt.Sprint(*st.CompletedCommandCount)
		}
		fmt.Fprintf(&b, "%s %s/%s   %s %s   %s %v\n",
			labelStyle.Render("Completed:"), completed, total,
			labelStyle.Render("Success rate:"), formatRate(st.CompletionSuccessRate),
			labelStyle.Render("Globally complete:"), st.IsGloballyComplete)
		if len(st.DataTypes) > 0 {
			fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Data types:"), strings.Join(st.DataTypes, ", "))
		}
		b.WriteString("\n" + m.Table.View() + "\n")
	}

	b.WriteString("\n")
	b.WriteString(blurredStyle.Render("Enter to look up, Tab to switch focus, ctrl+u to toggle redaction, ctrl+c to quit"))
	return docStyle.Render(b.String())
}
