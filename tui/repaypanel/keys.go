package repaypanel

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit    key.Binding
	Next    key.Binding
	Prev    key.Binding
	Left    key.Binding
	Right   key.Binding
	Min     key.Binding
	Max     key.Binding
	Submit  key.Binding
	Dismiss key.Binding
}

var keys = keyMap{
	Quit:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	Next:    key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next")),
	Prev:    key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev")),
	Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "less")),
	Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "more")),
	Min:     key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "0%")),
	Max:     key.NewBinding(key.WithKeys("end"), key.WithHelp("end", "100%")),
	Submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "repay")),
	Dismiss: key.NewBinding(key.WithKeys("enter", "esc"), key.WithHelp("enter", "close")),
}
