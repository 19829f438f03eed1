// Package notify presents pipeline results and failures to the user.
package notify

import (
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

type MessageType int

const (
	MsgTranslated MessageType = iota
	MsgCapturing
	MsgTranscribing
	MsgConfigReloaded
	MsgBusy
	MsgTriggerNotFound
	MsgCaptureTimeout
	MsgTranscriptionFailed
	MsgTranslationFailed
)

// Message is a resolved title/body pair. Body may contain {detail}.
type Message struct {
	Title   string
	Body    string
	IsError bool
}

// MessageDef describes a message and the config key that can override it.
type MessageDef struct {
	Type         MessageType
	ConfigKey    string
	DefaultTitle string
	DefaultBody  string
	IsError      bool
}

var MessageDefs = []MessageDef{
	{Type: MsgTranslated, ConfigKey: "translated", DefaultTitle: "Voicebridge", DefaultBody: "{detail}"},
	{Type: MsgCapturing, ConfigKey: "capturing", DefaultTitle: "Voicebridge", DefaultBody: "Capturing voice message..."},
	{Type: MsgTranscribing, ConfigKey: "transcribing", DefaultTitle: "Voicebridge", DefaultBody: "Transcribing..."},
	{Type: MsgConfigReloaded, ConfigKey: "config_reloaded", DefaultTitle: "Voicebridge", DefaultBody: "Config reloaded"},
	{Type: MsgBusy, ConfigKey: "busy", DefaultTitle: "Voicebridge", DefaultBody: "A translation is already running", IsError: true},
	{Type: MsgTriggerNotFound, ConfigKey: "trigger_not_found", DefaultTitle: "Voicebridge", DefaultBody: "No play control found in this message", IsError: true},
	{Type: MsgCaptureTimeout, ConfigKey: "capture_timeout", DefaultTitle: "Voicebridge", DefaultBody: "Timed out waiting for the audio resource", IsError: true},
	{Type: MsgTranscriptionFailed, ConfigKey: "transcription_failed", DefaultTitle: "Voicebridge", DefaultBody: "Transcription failed: {detail}", IsError: true},
	{Type: MsgTranslationFailed, ConfigKey: "translation_failed", DefaultTitle: "Voicebridge", DefaultBody: "Translation failed: {detail}", IsError: true},
}

// DefaultMessages returns every message with its default text.
func DefaultMessages() map[MessageType]Message {
	out := make(map[MessageType]Message, len(MessageDefs))
	for _, def := range MessageDefs {
		out[def.Type] = Message{Title: def.DefaultTitle, Body: def.DefaultBody, IsError: def.IsError}
	}
	return out
}

// Render substitutes detail into the message body.
func (m Message) Render(detail string) string {
	return strings.ReplaceAll(m.Body, "{detail}", detail)
}

type Notifier interface {
	Send(mt MessageType, detail string)
}

func lookup(messages map[MessageType]Message, mt MessageType) Message {
	if m, ok := messages[mt]; ok {
		return m
	}
	return DefaultMessages()[mt]
}

// Desktop shows messages through notify-send.
type Desktop struct {
	messages map[MessageType]Message
	log      *zap.SugaredLogger
	run      func(args ...string) error
}

func NewDesktop(messages map[MessageType]Message, log *zap.SugaredLogger) *Desktop {
	return &Desktop{messages: messages, log: log, run: runNotifySend}
}

func runNotifySend(args ...string) error {
	return exec.Command("notify-send", args...).Run()
}

func (d *Desktop) Send(mt MessageType, detail string) {
	m := lookup(d.messages, mt)
	args := []string{"-a", "Voicebridge"}
	if m.IsError {
		args = append(args, "-u", "critical")
	}
	args = append(args, m.Title, m.Render(detail))
	if err := d.run(args...); err != nil && d.log != nil {
		d.log.Warnw("failed to send notification", "error", err)
	}
}

// Log writes messages to the logger instead of the desktop.
type Log struct {
	messages map[MessageType]Message
	log      *zap.SugaredLogger
}

func NewLog(messages map[MessageType]Message, log *zap.SugaredLogger) *Log {
	return &Log{messages: messages, log: log}
}

func (l *Log) Send(mt MessageType, detail string) {
	m := lookup(l.messages, mt)
	if m.IsError {
		l.log.Errorw(m.Render(detail), "title", m.Title)
		return
	}
	l.log.Infow(m.Render(detail), "title", m.Title)
}

// Nop is a Notifier that does absolutely nothing.
// Useful in unit tests or headless builds.
type Nop struct{}

func (Nop) Send(MessageType, string) {}

// New picks a notifier by type: "desktop", "log" or "none".
func New(typ string, messages map[MessageType]Message, log *zap.SugaredLogger) Notifier {
	switch typ {
	case "desktop":
		return NewDesktop(messages, log)
	case "log":
		if log == nil {
			return Nop{}
		}
		return NewLog(messages, log)
	default:
		return Nop{}
	}
}
