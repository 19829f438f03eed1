// Package daemon serves the control bus: it runs translations on request,
// reports status, and follows config reloads.
package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/leonardotrapani/voicebridge/internal/bus"
	"github.com/leonardotrapani/voicebridge/internal/capture"
	"github.com/leonardotrapani/voicebridge/internal/config"
	"github.com/leonardotrapani/voicebridge/internal/download"
	"github.com/leonardotrapani/voicebridge/internal/host"
	"github.com/leonardotrapani/voicebridge/internal/logging"
	"github.com/leonardotrapani/voicebridge/internal/notify"
	"github.com/leonardotrapani/voicebridge/internal/pipeline"
	"github.com/leonardotrapani/voicebridge/internal/transcriber"
	"github.com/leonardotrapani/voicebridge/internal/translate"
	"go.uber.org/zap"
)

// Translator is the part of the orchestrator the daemon drives.
type Translator interface {
	TranslateVoiceMessage(ctx context.Context, region *host.Region, opts pipeline.Options) (*pipeline.Result, error)
	Status() pipeline.Status
	ClearCache() int
	UpdateConfig(p pipeline.Partial) error
	Cleanup()
}

type Options struct {
	Endpoint bus.Endpoint
	// Config, when set, is watched and live changes are applied.
	Config   *config.Manager
	Notifier notify.Notifier
	Log      *zap.SugaredLogger
}

type Daemon struct {
	mu       sync.RWMutex
	notifier notify.Notifier

	ctx    context.Context
	cancel context.CancelFunc

	tr       Translator
	endpoint bus.Endpoint
	config   *config.Manager
	log      *zap.SugaredLogger
}

func New(tr Translator, opts Options) *Daemon {
	n := opts.Notifier
	if n == nil {
		n = notify.Nop{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		notifier: n,
		ctx:      ctx,
		cancel:   cancel,
		tr:       tr,
		endpoint: opts.Endpoint,
		config:   opts.Config,
		log:      logging.OrNop(opts.Log).Named(logging.ComponentDaemon),
	}
}

// Stop asks a running daemon to shut down.
func (d *Daemon) Stop() { d.cancel() }

func (d *Daemon) Run() error {
	if err := d.endpoint.CheckExisting(); err != nil {
		return err
	}

	ln, err := d.endpoint.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := d.endpoint.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer d.endpoint.RemovePidFile()

	defer d.tr.Cleanup()

	if d.config != nil {
		d.config.OnChange(d.applyConfig)
		if err := d.config.StartWatching(d.ctx); err != nil {
			d.log.Warnw("config watching disabled", "error", err)
		}
		defer d.config.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			d.log.Infow("received signal, shutting down", "signal", sig.String())
			d.cancel()
		case <-d.ctx.Done():
		}
	}()

	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	d.log.Infow("daemon started", "socket", d.endpoint.SockPath())

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				d.log.Infow("shutdown requested")
				return nil
			}
			d.log.Errorw("accept failed", "error", err)
			return fmt.Errorf("accept failed: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.handle(c)
		}()
	}
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		d.log.Warnw("client read error", "error", err)
		fmt.Fprintf(c, "ERR read_error: %v\n", err)
		return
	}
	req, err := bus.ParseRequest(line)
	if err != nil {
		fmt.Fprintf(c, "ERR %v\n", err)
		return
	}

	switch req.Cmd {
	case bus.CmdTranslate:
		d.translate(c, req.Arg)
	case bus.CmdStatus:
		writeJSON(c, bus.ReplyStatus, d.tr.Status())
	case bus.CmdClearCache:
		fmt.Fprintf(c, "OK cleared=%d\n", d.tr.ClearCache())
	case bus.CmdVersion:
		fmt.Fprintf(c, "STATUS proto=%s\n", bus.ProtoVer)
	case bus.CmdQuit:
		fmt.Fprint(c, "OK quitting\n")
		d.cancel()
	default:
		d.log.Warnw("unknown command", "cmd", string(req.Cmd))
		fmt.Fprintf(c, "ERR unknown=%q\n", req.Cmd)
	}
}

func (d *Daemon) translate(c net.Conn, handle string) {
	if handle == "" {
		fmt.Fprint(c, "ERR missing handle\n")
		return
	}
	d.send(notify.MsgTranscribing, filepath.Base(handle))

	res, err := d.tr.TranslateVoiceMessage(d.ctx, nil, pipeline.Options{Handle: handle})
	if err != nil {
		mt, code := Classify(err)
		d.log.Warnw("translation failed", "handle", handle, "kind", code, "error", err)
		d.send(mt, err.Error())
		fmt.Fprintf(c, "ERR %s: %s\n", code, oneLine(err.Error()))
		return
	}
	d.send(notify.MsgTranslated, res.Translated)
	writeJSON(c, bus.ReplyResult, res)
}

func (d *Daemon) send(mt notify.MessageType, detail string) {
	d.mu.RLock()
	n := d.notifier
	d.mu.RUnlock()
	go n.Send(mt, detail)
}

// applyConfig pushes live settings into the translator and swaps the
// notifier. Anything else only takes effect after a restart.
func (d *Daemon) applyConfig(prev, next *config.Config) {
	if p, ok := next.SettingsChange(prev); ok {
		if err := d.tr.UpdateConfig(p); err != nil {
			d.log.Errorw("apply config", "error", err)
		}
	}
	if next.NeedsRestart(prev) {
		d.log.Warnw("config change needs a daemon restart to take effect")
	}

	n := next.ToNotifier(d.log)
	d.mu.Lock()
	d.notifier = n
	d.mu.Unlock()
	d.send(notify.MsgConfigReloaded, "")
}

// Classify maps a pipeline error to the notification it deserves and a short
// code for the bus reply.
func Classify(err error) (notify.MessageType, string) {
	var (
		terr *transcriber.Error
		serr *translate.ServiceError
		derr *download.Error
	)
	switch {
	case errors.Is(err, pipeline.ErrBusy):
		return notify.MsgBusy, "busy"
	case errors.Is(err, capture.ErrTriggerNotFound):
		return notify.MsgTriggerNotFound, "trigger_not_found"
	case errors.Is(err, capture.ErrTimeout):
		return notify.MsgCaptureTimeout, "capture_timeout"
	case errors.As(err, &derr):
		return notify.MsgTranscriptionFailed, "download_failed"
	case errors.As(err, &terr):
		return notify.MsgTranscriptionFailed, "transcription_failed"
	case errors.As(err, &serr):
		return notify.MsgTranslationFailed, "translation_failed"
	default:
		return notify.MsgTranslationFailed, "failed"
	}
}

func writeJSON(c net.Conn, kind string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintf(c, "ERR encode: %v\n", err)
		return
	}
	fmt.Fprintf(c, "%s %s\n", kind, b)
}

func oneLine(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r", " "), "\n", " ")
}
