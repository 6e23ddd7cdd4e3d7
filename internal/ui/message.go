package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/taan/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgBridgeUpdate MsgKind = iota
	MsgBridgeClosed
)

// bridgeUpdateMsg is the constructor for [MsgBridgeUpdate]
func bridgeUpdateMsg(u tasks.Update) Msg {
	return Msg{kind: MsgBridgeUpdate, data: u}
}

// bridgeClosedMsg is the constructor for [MsgBridgeClosed]
func bridgeClosedMsg() Msg {
	return Msg{kind: MsgBridgeClosed}
}
