package ui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrNothingToPick is returned by PickItem when no item can be chosen.
var ErrNothingToPick = errors.New("nothing to pick from")

// PickerItem is one entry of the picker.
type PickerItem struct {
	Label    string // e.g. wallet name
	SubLabel string // shown dimmed, e.g. address
	Value    string // returned on selection
	Current  bool   // marked with ✓ and focused first
	Disabled bool   // shown but never selectable
}

type pickerModel struct {
	title    string
	items    []PickerItem
	cursor   int
	selected *PickerItem
	quitting bool
}

func newPickerModel(title string, items []PickerItem) pickerModel {
	m := pickerModel{title: title, items: items, cursor: -1}
	for i, it := range items {
		if it.Disabled {
			continue
		}
		if m.cursor < 0 || it.Current {
			m.cursor = i
		}
		if it.Current {
			break
		}
	}
	return m
}

// move steps the cursor by dir over enabled items, wrapping around.
func (m *pickerModel) move(dir int) {
	n := len(m.items)
	for i := 1; i <= n; i++ {
		next := ((m.cursor+dir*i)%n + n) % n
		if !m.items[next].Disabled {
			m.cursor = next
			return
		}
	}
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || m.cursor < 0 {
		return m, nil
	}
	switch s := key.String(); s {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "up", "k", "shift+tab":
		m.move(-1)
	case "down", "j", "tab":
		m.move(1)
	case "enter", " ":
		item := m.items[m.cursor]
		m.selected = &item
		return m, tea.Quit
	default:
		if len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
			if i := int(s[0] - '1'); i < len(m.items) && !m.items[i].Disabled {
				m.cursor = i
			}
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(StyleTitle.Render("  "+m.title) + "\n\n")

	for i, item := range m.items {
		prefix := "    "
		if i == m.cursor {
			prefix = "  ▸ "
		}
		mark := "  "
		if item.Current {
			mark = "✓ "
		}

		label := fmt.Sprintf("%d %s%s", i+1, mark, item.Label)
		var line string
		if item.Disabled {
			line = prefix + StyleDim.Render(label)
		} else {
			line = prefix + StyleValue.Render(label)
		}
		if item.SubLabel != "" {
			line += "  " + StyleMeta.Render(item.SubLabel)
		}

		if i == m.cursor {
			sb.WriteString(StyleSelected.Render(line) + "\n")
		} else {
			sb.WriteString(line + "\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(StyleMeta.Render("  [ ↑↓ / jk / 1-9 ] navigate   [ Enter ] select   [ q ] cancel") + "\n")
	return sb.String()
}

// PickItem shows items and returns the chosen Value, or "" if the user
// cancels. It fails with ErrNothingToPick when every item is disabled.
func PickItem(title string, items []PickerItem) (string, error) {
	m := newPickerModel(title, items)
	if m.cursor < 0 {
		return "", ErrNothingToPick
	}

	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return "", fmt.Errorf("picker: %w", err)
	}
	fm := final.(pickerModel)
	if fm.quitting || fm.selected == nil {
		return "", nil
	}
	return fm.selected.Value, nil
}
