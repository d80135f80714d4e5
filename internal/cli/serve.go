package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/callerid/internal/bridge"
	"github.com/roach88/callerid/internal/callstate"
	"github.com/roach88/callerid/internal/directory"
	"github.com/roach88/callerid/internal/photocache"
	"github.com/roach88/callerid/internal/platform"
	"github.com/roach88/callerid/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Listen string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the caller ID daemon",
		Long: `Run the caller ID daemon.

The daemon opens the record store (creating and migrating it as needed),
starts the call state machine and serves the HTTP API: record management
under /api, the dialer directory under /directory and telephony events
under /telephony. It stops gracefully on SIGINT or SIGTERM.

Example:
  callerid serve --db ./callerid.db
  callerid serve --listen :8421 --config ./callerid.yaml --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (overrides listen_addr)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	addr := e.cfg.ListenAddr
	if opts.Listen != "" {
		addr = opts.Listen
	}

	d, err := newDaemon(e)
	if err != nil {
		return e.formatter.fail(ExitCommandError, ErrCodeConfig, "failed to set up daemon", err)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return e.formatter.fail(ExitCommandError, ErrCodeServeFailed, "failed to listen", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			e.log.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := d.run(ctx, ln); err != nil {
		return e.formatter.fail(ExitFailure, ErrCodeServeFailed, "daemon stopped", err)
	}
	e.log.Info("daemon stopped")
	return nil
}

// daemon is the wired set of long-running components.
type daemon struct {
	env     *env
	photos  *photocache.Cache
	machine *callstate.Machine
	server  *server.Server
}

func newDaemon(e *env) (*daemon, error) {
	cfg := e.cfg

	photos, err := photocache.New(cfg.PhotoDir,
		photocache.WithTTL(cfg.PhotoTTL),
		photocache.WithLogger(e.log.Logger),
	)
	if err != nil {
		return nil, fmt.Errorf("photo cache: %w", err)
	}

	dev := platform.NewStatic(cfg.Platform.OverlayPermission, cfg.Platform.AutoGrant, cfg.Platform.SimCountry)
	windows := platform.NewLogWindowManager(e.log.Logger)

	dir := directory.New(directory.Config{
		Authority:     cfg.Authority,
		AppName:       cfg.AppName,
		DefaultLabel:  cfg.DefaultLabel,
		TokenTTL:      cfg.PhotoTTL,
		LookupTimeout: cfg.LookupTimeout,
	}, e.repo, photos, directory.WithLogger(e.log.Logger))

	machine := callstate.New(callstate.Config{
		AppName:       cfg.AppName,
		ShowAppIcon:   true,
		ShowDelay:     cfg.ShowDelay,
		LookupTimeout: cfg.LookupTimeout,
		LockScreen:    cfg.Platform.LockScreen,
	}, callstate.Deps{
		Lookup:     e.repo,
		Permission: dev,
		Popup:      e.repo,
		Windows:    windows,
	}, callstate.WithLogger(e.log.Logger))

	b := bridge.New(e.repo, dev, dev,
		bridge.WithDefaultCountry(cfg.DefaultCountry),
		bridge.WithLogger(e.log.Logger),
	)

	srv := server.New(b, dir, machine,
		server.WithLogger(e.log.Logger),
		server.WithCORSOrigins(cfg.CORSOrigins),
	)

	return &daemon{env: e, photos: photos, machine: machine, server: srv}, nil
}

// run serves on ln until ctx is done or a component fails.
func (d *daemon) run(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := d.machine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("call state machine: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return d.server.Serve(ctx, ln)
	})

	d.env.log.Info("daemon started",
		"addr", ln.Addr().String(),
		"db", d.env.cfg.DBPath,
		"photo_dir", d.photos.Dir(),
	)
	return g.Wait()
}
