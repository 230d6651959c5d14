package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill/message"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/subwatch/pkg/blink"
	"github.com/go-go-golems/subwatch/pkg/bus"
	"github.com/go-go-golems/subwatch/pkg/client"
	"github.com/go-go-golems/subwatch/pkg/config"
	"github.com/go-go-golems/subwatch/pkg/fragment"
	"github.com/go-go-golems/subwatch/pkg/logging"
	"github.com/go-go-golems/subwatch/pkg/longpoll"
	"github.com/go-go-golems/subwatch/pkg/notify"
	"github.com/go-go-golems/subwatch/pkg/refresh"
	"github.com/go-go-golems/subwatch/pkg/relay"
	"github.com/go-go-golems/subwatch/pkg/submit"
	"github.com/go-go-golems/subwatch/pkg/tui"
	"github.com/go-go-golems/subwatch/pkg/tui/models"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type watchOptions struct {
	Supervisor bool
	Headless   bool
}

func newWatchCmd(supervisor bool) *cobra.Command {
	opts := watchOptions{Supervisor: supervisor}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow your submission history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), cfg, opts)
		},
	}
	if supervisor {
		cmd.Use = "super"
		cmd.Short = "Follow every submission; blink the title while some are new"
	}
	cmd.Flags().BoolVar(&opts.Headless, "headless", false, "log events to stderr instead of opening the TUI")
	return cmd
}

type session struct {
	log       zerolog.Logger
	client    *client.Client
	pubsub    message.Publisher
	marker    *notify.Signal
	updater   *longpoll.Updater
	submitter *submit.Submitter
	relay     *relay.Relay
}

func newSession(cfg config.Config, opts watchOptions, log zerolog.Logger, pub message.Publisher) (*session, error) {
	cl, err := client.New(cfg.BaseURL, cfg.RequestTimeout)
	if err != nil {
		return nil, err
	}
	s := &session{log: log, client: cl, pubsub: pub}

	fetcher := refresh.New(cl, refresh.SubmissionsPath)
	if opts.Supervisor {
		fetcher.Path = refresh.SuperSubmissionsPath
		s.marker = notify.NewSignal(cfg.Marker())
		fetcher.Signal = s.marker
	}
	fetcher.Pub = pub
	fetcher.Log = log.With().Str("component", "refresh").Logger()

	s.updater = longpoll.New(cl, longpoll.FixedBackoff{Wait: cfg.ErrorSleep}, fetcher.Trigger)
	s.updater.Pub = pub
	s.updater.Log = log.With().Str("component", "longpoll").Logger()

	s.submitter = submit.NewSubmitter(cl, cfg.SubmitPath)
	s.submitter.Log = log.With().Str("component", "submit").Logger()

	s.relay = relay.New(cl, cfg.RelayClass)
	s.relay.Pub = pub
	s.relay.Log = log.With().Str("component", "relay").Logger()
	return s, nil
}

func runWatch(ctx context.Context, cfg config.Config, opts watchOptions) error {
	logOpts := logging.Options{Level: cfg.LogLevel}
	if !opts.Headless {
		logOpts.File = cfg.LogFile
	}
	log, closer, err := logging.New(logOpts)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ps := bus.NewPubSub()
	defer func() { _ = ps.Close() }()
	msgs, err := ps.Subscribe(ctx, bus.TopicEvents)
	if err != nil {
		return errors.Wrap(err, "subscribe events")
	}

	s, err := newSession(cfg, opts, log, ps)
	if err != nil {
		return err
	}
	log.Info().Str("base_url", s.client.BaseURL()).Bool("supervisor", opts.Supervisor).Msg("watching")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.updater.Run(gctx) })

	if opts.Headless {
		g.Go(func() error { return tui.Forward(gctx, msgs, logEvent(log), log) })
		if s.marker != nil {
			sink := blink.SinkFunc(func(title string) { log.Info().Str("title", title).Msg("title") })
			g.Go(func() error { return blink.New(cfg.Title, s.marker).Run(gctx, cfg.BlinkInterval, sink) })
		}
		return g.Wait()
	}

	model := models.NewRootModel(models.Options{
		Title:      cfg.Title,
		Supervisor: opts.Supervisor,
		BaseURL:    s.client.BaseURL(),
		RelayClass: cfg.RelayClass,
		Submit:     func(f submit.Form) error { return s.submitter.Submit(gctx, f) },
		Relay:      func(l fragment.Link) bool { return s.relay.Activate(gctx, l) },
	})
	p := tea.NewProgram(model, tea.WithAltScreen())

	g.Go(func() error { return tui.Forward(gctx, msgs, p.Send, log) })
	if s.marker != nil {
		g.Go(func() error { return blink.New(cfg.Title, s.marker).Run(gctx, cfg.BlinkInterval, tui.TitleSink(p.Send)) })
	}
	g.Go(func() error {
		// Leaving the UI ends the session.
		defer stop()
		if _, err := p.Run(); err != nil {
			return errors.Wrap(err, "run TUI")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		p.Quit()
		return nil
	})
	return g.Wait()
}

// logEvent is the headless stand-in for the TUI.
func logEvent(log zerolog.Logger) func(tea.Msg) {
	return func(msg tea.Msg) {
		switch v := msg.(type) {
		case tui.PollStatusMsg:
			if v.Ok {
				log.Debug().Int64("cursor", v.Cursor).Msg("poll")
				return
			}
			log.Warn().Str("error", v.Error).Dur("retry_in", v.RetryIn).Msg("poll failed")
		case tui.FragmentMsg:
			doc, err := fragment.ParseString(v.Content)
			if err != nil {
				log.Warn().Err(err).Str("path", v.Path).Msg("unreadable fragment")
				return
			}
			ev := log.Info().Str("path", v.Path).Int("rows", len(doc.Rows)).Bool("new", v.Blink)
			if len(doc.Rows) > 0 {
				ev = ev.Strs("latest", doc.Rows[0].Cells)
			}
			ev.Msg("history")
		case tui.RelaySentMsg:
			log.Info().Str("href", v.Href).Str("error", v.Error).Msg("relayed")
		}
	}
}
