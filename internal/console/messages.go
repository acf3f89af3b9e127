package console

import (
	"github.com/five82/bundlectl/internal/bundlegen"
	"github.com/five82/bundlectl/internal/socketio"
)

type (
	refreshResultMsg struct {
		seq     uint64
		bundles []bundlegen.Bundle
		err     error
	}
	generateResultMsg struct{ err error }
	deleteResultMsg   struct {
		name string
		err  error
	}
	formResultMsg struct {
		info bundlegen.FormInfo
		err  error
	}
	channelEventMsg  socketio.Event
	channelClosedMsg struct{}
)
