package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/raysh454/phishcatcher/internal/allowlist"
	"github.com/raysh454/phishcatcher/internal/app"
	"github.com/raysh454/phishcatcher/internal/features"
	"github.com/raysh454/phishcatcher/internal/logging"
	"github.com/raysh454/phishcatcher/internal/server"
)

func newExplainCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "explain URL",
		Short: "Show how a URL is segmented and the features the classifier sees",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, done, err := o.application(cmd)
			if err != nil {
				return err
			}
			defer done()

			ex, err := a.Assessor.Explain(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if o.json() {
				return writeJSON(w, ex, true)
			}

			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "sanitized\t%s\n", ex.Sanitized)
			fmt.Fprintf(tw, "scheme\t%s\n", ex.Parts.Scheme)
			fmt.Fprintf(tw, "netloc\t%s\n", ex.Parts.Netloc)
			fmt.Fprintf(tw, "path\t%s\n", ex.Parts.Path)
			fmt.Fprintf(tw, "subdomain\t%s\n", ex.Parts.Subdomain)
			fmt.Fprintf(tw, "domain\t%s\n", ex.Parts.Domain)
			fmt.Fprintf(tw, "suffix\t%s\n", ex.Parts.Suffix)
			fmt.Fprintf(tw, "registered_domain\t%s\n", ex.Parts.RegisteredDomain)
			fmt.Fprintf(tw, "trusted\t%t\n", ex.Trusted)
			if ex.Lookalike != nil {
				fmt.Fprintf(tw, "lookalike\t%s (distance %d)\n", ex.Lookalike.Trusted, ex.Lookalike.Distance)
			}
			fmt.Fprintln(tw)
			for _, f := range ex.Features {
				fmt.Fprintf(tw, "%s\t%g\t%s\n", f.Name, f.Value, features.Describe(f.Name))
			}
			return tw.Flush()
		},
	}
}

func newServeCommand(o *options) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, done, err := o.application(cmd)
			if err != nil {
				return err
			}
			defer done()

			srv, err := server.NewServer(server.Config{ListenAddr: listen, App: a, Logger: a.Logger})
			if err != nil {
				return err
			}
			httpServer := srv.HTTPServer()

			errCh := make(chan error, 1)
			go func() {
				a.Logger.Info("listening", logging.Field{Key: "addr", Value: httpServer.Addr})
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-cmd.Context().Done():
			}

			a.Logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			srv.Close()
			return httpServer.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (default server.listen_addr)")
	return cmd
}

func newTrustedCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trusted",
		Short: "Curate the trusted-domain database",
		Long: "Curate the SQLite trusted-domain database named by trusted.database or --trusted-db. " +
			"Changes take effect the next time the classifier starts.",
	}
	cmd.AddCommand(newTrustedListCommand(o), newTrustedImportCommand(o), newTrustedRemoveCommand(o))
	return cmd
}

// store opens the trusted-domain database. The returned func closes it.
func (o *options) store(cmd *cobra.Command) (*allowlist.Store, func(), error) {
	cfg, err := o.config()
	if err != nil {
		return nil, nil, err
	}
	logger, logCloser := o.logger(cmd, cfg)
	var closers []io.Closer
	release := func() {
		for _, c := range closers {
			_ = c.Close()
		}
		_ = logCloser.Close()
	}
	store, err := app.OpenStore(cfg.Trusted.Database, logger, func(c io.Closer) { closers = append(closers, c) })
	if err != nil {
		release()
		return nil, nil, err
	}
	return store, release, nil
}

func newTrustedListCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List trusted domains in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := o.store(cmd)
			if err != nil {
				return err
			}
			defer done()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if o.json() {
				return writeJSON(w, entries, true)
			}
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Domain, e.Source, time.Unix(e.CreatedAt, 0).UTC().Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}

func newTrustedImportCommand(o *options) *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "import FILE|-",
		Short: "Add domains, one per line, to the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
				if source == "" {
					source = filepath.Base(args[0])
				}
			}
			if source == "" {
				source = "stdin"
			}
			domains, err := allowlist.ReadDomains(in)
			if err != nil {
				return err
			}

			store, done, err := o.store(cmd)
			if err != nil {
				return err
			}
			defer done()

			n, err := store.Import(cmd.Context(), domains, source)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d domains from %s\n", n, source)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Source tag stored with each domain (default: file name)")
	return cmd
}

func newTrustedRemoveCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "remove DOMAIN...",
		Short: "Remove domains from the database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := o.store(cmd)
			if err != nil {
				return err
			}
			defer done()

			for _, d := range args {
				if err := store.Remove(cmd.Context(), d); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newVersionCommand(o *options) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if o.json() {
				return writeJSON(w, o.info, true)
			}
			if quiet {
				fmt.Fprintln(w, o.info.Version)
				return nil
			}
			fmt.Fprintf(w, "phishcatcher %s\n", o.info.Version)
			fmt.Fprintf(w, "  commit:     %s\n", o.info.Commit)
			fmt.Fprintf(w, "  build date: %s\n", o.info.BuildDate)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print version number")
	return cmd
}
