// Package tui implements the interactive cart view: move through the
// current items, toggle them off as they land in the basket, delete rows,
// and check the whole list out into history.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tallyho/tally/internal/cli"
	"github.com/tallyho/tally/internal/model"
	"github.com/tallyho/tally/internal/shop"
)

// Model holds the cart view state.
type Model struct {
	store      *shop.Store
	categories map[string]model.Category
	receipt    string
	status     string
	cart       []model.LineItem
	keys       KeyMap
	help       help.Model
	cursor     int
	width      int
}

// New builds a cart view over the given store.
func New(store *shop.Store) Model {
	m := Model{
		store: store,
		keys:  DefaultKeyMap(),
		help:  help.New(),
	}
	m.refresh()
	return m
}

// Receipt returns the rendered receipt when the session ended in a
// checkout, or "" otherwise.
func (m Model) Receipt() string {
	return m.receipt
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		ctx := context.Background()
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll

		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.cart)-1 {
				m.cursor++
			}

		case key.Matches(msg, m.keys.Toggle):
			if item, ok := m.selected(); ok {
				if err := m.store.ToggleItem(ctx, item.ID); err != nil {
					m.status = cli.FormatError(err.Error())
				}
				m.refresh()
			}

		case key.Matches(msg, m.keys.Delete):
			if item, ok := m.selected(); ok {
				if err := m.store.DeleteItems(ctx, []string{item.ID}, item.CategoryID); err != nil {
					m.status = cli.FormatError(err.Error())
				}
				m.refresh()
			}

		case key.Matches(msg, m.keys.Checkout):
			completed, err := m.store.FinishList(ctx)
			switch {
			case errors.Is(err, shop.ErrEmptyCart):
				m.status = cli.WarningStyle.Render("Nothing to check out.")
			case err != nil:
				// State moved to history in memory; surface the save
				// failure but still show the receipt.
				m.status = cli.FormatError(err.Error())
				fallthrough
			default:
				m.receipt = cli.Receipt(completed, m.store.Categories())
				m.refresh()
				return m, tea.Quit
			}
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(cli.FormatTitle("Shopping List") + "\n\n")

	if len(m.cart) == 0 {
		b.WriteString(cli.SubtleStyle.Render("The cart is empty. Add items with 'tally add'.") + "\n")
	}

	for i, item := range m.cart {
		cursor := "  "
		if i == m.cursor {
			cursor = cli.HeaderStyle.Render("> ")
		}

		checkbox := "[ ]"
		name := item.Name
		if item.Completed {
			checkbox = "[" + cli.SuccessIcon + "]"
			name = cli.CompletedStyle.Render(name)
		}

		categoryName := ""
		if cat, ok := m.categories[item.CategoryID]; ok {
			categoryName = cli.SubtleStyle.Render(cat.Name)
		}

		fmt.Fprintf(&b, "%s%s %-28s %2d × %8s  %s\n",
			cursor, checkbox, name, item.Quantity, cli.FormatAmount(item.UnitPrice), categoryName)
	}

	b.WriteString("\n" + cli.BoldStyle.Render("Subtotal: "+cli.FormatAmount(m.store.CartSubtotal())) + "\n")

	if m.status != "" {
		b.WriteString(m.status + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m *Model) refresh() {
	m.cart = m.store.Cart()
	m.categories = make(map[string]model.Category)
	for _, cat := range m.store.Categories() {
		m.categories[cat.ID] = cat
	}
	if m.cursor >= len(m.cart) {
		m.cursor = len(m.cart) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selected() (model.LineItem, bool) {
	if len(m.cart) == 0 || m.cursor >= len(m.cart) {
		return model.LineItem{}, false
	}
	return m.cart[m.cursor], true
}

// Run drives the cart view to completion and prints the checkout receipt
// if the session ended in one.
func Run(store *shop.Store) error {
	p := tea.NewProgram(New(store))
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("cart view failed: %w", err)
	}

	if m, ok := final.(Model); ok && m.Receipt() != "" {
		fmt.Println(m.Receipt())
	}
	return nil
}
