// Package cli implements the phishcatcher command line: one-off and batch
// classification, link triage of saved HTML, trusted-domain curation and
// the API server.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raysh454/phishcatcher/internal/app"
	"github.com/raysh454/phishcatcher/internal/logging"
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

const (
	outputText = "text"
	outputJSON = "json"
)

// options holds the persistent flags shared by every command.
type options struct {
	configPath string
	output     string
	logLevel   string

	modelPath  string
	labelsPath string
	suffixPath string
	trustedDB  string

	info BuildInfo
}

// NewRootCommand builds the command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	o := &options{info: info}
	root := &cobra.Command{
		Use:           "phishcatcher",
		Short:         "Classify URLs as benign, phishing, malware or defacement",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch o.output {
			case outputText, outputJSON:
				return nil
			default:
				return fmt.Errorf("unknown output format %q (want text or json)", o.output)
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&o.configPath, "config", "c", "", "YAML config file")
	pf.StringVarP(&o.output, "output", "o", outputText, "Output format: text|json")
	pf.StringVar(&o.logLevel, "log-level", "", "Override logging.level (debug|info|warn|error)")
	pf.StringVar(&o.modelPath, "model", "", "Override model.path")
	pf.StringVar(&o.labelsPath, "labels", "", "Override model.labels_path")
	pf.StringVar(&o.suffixPath, "suffix-list", "", "Override suffix_list.path")
	pf.StringVar(&o.trustedDB, "trusted-db", "", "Override trusted.database")

	root.AddCommand(
		newClassifyCommand(o),
		newExplainCommand(o),
		newBatchCommand(o),
		newLinksCommand(o),
		newServeCommand(o),
		newTrustedCommand(o),
		newVersionCommand(o),
	)
	return root
}

// config loads the config file, if any, and applies flag overrides.
func (o *options) config() (*app.Config, error) {
	cfg := app.DefaultConfig()
	if o.configPath != "" {
		loaded, err := app.LoadConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.modelPath != "" {
		cfg.Model.Path = o.modelPath
	}
	if o.labelsPath != "" {
		cfg.Model.LabelsPath = o.labelsPath
	}
	if o.suffixPath != "" {
		cfg.Suffix.Path = o.suffixPath
	}
	if o.trustedDB != "" {
		cfg.Trusted.Database = o.trustedDB
	}
	return cfg, cfg.Validate()
}

// logger writes to the configured file, or to stderr so stdout stays
// machine-readable.
func (o *options) logger(cmd *cobra.Command, cfg *app.Config) (logging.Logger, io.Closer) {
	if cfg.Logging.File != "" {
		return logging.New("phishcatcher", cfg.Logging)
	}
	return logging.NewWriterLogger("phishcatcher", cmd.ErrOrStderr(), logging.ParseLevel(cfg.Logging.Level)), closerFunc(func() error { return nil })
}

// application loads config, logger and the Application. The returned func
// releases all three.
func (o *options) application(cmd *cobra.Command) (*app.Application, func(), error) {
	cfg, err := o.config()
	if err != nil {
		return nil, nil, err
	}
	logger, logCloser := o.logger(cmd, cfg)
	a, err := app.NewApplication(cmd.Context(), cfg, logger)
	if err != nil {
		_ = logCloser.Close()
		return nil, nil, err
	}
	return a, func() {
		_ = a.Shutdown(cmd.Context())
		_ = logCloser.Close()
	}, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func (o *options) json() bool { return o.output == outputJSON }

func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// readLines returns the non-blank, non-comment lines of r, trimmed.
func readLines(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, nil
}
