package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pankaj-dahiya-devops/awsinv/internal/config"
	"github.com/pankaj-dahiya-devops/awsinv/internal/engine"
	"github.com/pankaj-dahiya-devops/awsinv/internal/logging"
	"github.com/pankaj-dahiya-devops/awsinv/internal/models"
	"github.com/pankaj-dahiya-devops/awsinv/internal/output"
	"github.com/pankaj-dahiya-devops/awsinv/internal/providers/aws/common"
	awsinventory "github.com/pankaj-dahiya-devops/awsinv/internal/providers/aws/inventory"
	"github.com/pankaj-dahiya-devops/awsinv/internal/retry"
	"github.com/pankaj-dahiya-devops/awsinv/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "awsinv",
		Short:         "Read-only AWS account inventory",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "Config file path (default: $AWSINV_CONFIG or ~/.config/awsinv/config.yaml)")
	root.AddCommand(newInventoryCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info())
		},
	}
}

// inventorySettings is the fully resolved configuration of one inventory
// run: flags layered over the config file layered over built-in defaults.
type inventorySettings struct {
	Profile     string
	Region      string
	Output      string
	Format      engine.ReportFormat
	Concurrency int
	RetryDelay  time.Duration
	Transport   common.TransportOptions
	NoColor     bool
	Verbose     bool
}

func newInventoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Collect IAM users, EC2 instances, S3 buckets and security groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			s, err := resolveInventorySettings(cmd, cfg)
			if err != nil {
				return err
			}

			stderrTTY := term.IsTerminal(int(os.Stderr.Fd()))
			stdoutTTY := term.IsTerminal(int(os.Stdout.Fd()))
			color.NoColor = s.NoColor || !stdoutTTY

			logOut := &spinnerPausingWriter{w: cmd.ErrOrStderr()}
			if stderrTTY && !s.Verbose {
				logOut.spin = newInventorySpinner(cmd.ErrOrStderr())
			}

			logger := logging.Init(logOut, s.Verbose)
			guard := retry.NewGuard(s.RetryDelay, logger)
			eng := engine.NewInventoryEngine(
				common.NewDefaultAWSClientProvider(),
				awsinventory.NewDefaultInventoryCollector(guard, s.Concurrency),
				logger,
			)

			logOut.start()
			err = runInventory(cmd.Context(), eng, s, cmd.OutOrStdout(), !color.NoColor && s.Output == "")
			logOut.stop()
			return err
		},
	}

	cmd.Flags().String("profile", "", "AWS profile name (default: credential chain)")
	cmd.Flags().String("region", "", "AWS region to inventory (default: profile region)")
	cmd.Flags().String("output", "", "Write the report to this file instead of stdout")
	cmd.Flags().String("format", string(engine.ReportFormatJSON), "Output format: json or table")
	cmd.Flags().Int("concurrency", awsinventory.DefaultConcurrency, "Maximum concurrent per-user and per-bucket calls")
	cmd.Flags().Bool("no-color", false, "Disable coloured table output")
	cmd.Flags().Bool("verbose", false, "Log debug details to stderr")
	return cmd
}

// runInventory runs eng, renders the report into memory, and only then
// writes it to s.Output or stdout. A failed or interrupted run writes
// nothing.
func runInventory(ctx context.Context, eng engine.Engine, s inventorySettings, stdout io.Writer, colored bool) error {
	report, err := eng.RunInventory(ctx, engine.InventoryOptions{
		Profile:   s.Profile,
		Region:    s.Region,
		Transport: s.Transport,
	})
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := renderReport(&buf, report, s.Format, colored); err != nil {
		return err
	}

	if s.Output == "" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(s.Output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report file %q: %w", s.Output, err)
	}
	return nil
}

func renderReport(w io.Writer, report *models.InventoryReport, format engine.ReportFormat, colored bool) error {
	switch format {
	case engine.ReportFormatTable:
		output.RenderTable(w, report, output.TableOptions{Colored: colored})
		return nil
	default:
		return output.RenderJSON(w, report)
	}
}

// newInventorySpinner returns a progress spinner drawing on w. It is not
// started.
func newInventorySpinner(w io.Writer) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " Collecting inventory ..."
	return s
}

// spinnerPausingWriter is the log destination while a spinner may be
// running on the same stream. Each write stops the spinner, which clears its
// frame, writes the log line and restarts the spinner below it.
type spinnerPausingWriter struct {
	mu   sync.Mutex
	w    io.Writer
	spin *spinner.Spinner
}

func (p *spinnerPausingWriter) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.spin == nil || !p.spin.Active() {
		return p.w.Write(b)
	}
	p.spin.Stop()
	defer p.spin.Start()
	return p.w.Write(b)
}

func (p *spinnerPausingWriter) start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.spin != nil {
		p.spin.Start()
	}
}

// stop halts the spinner for good; later writes go straight through.
func (p *spinnerPausingWriter) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.spin != nil {
		p.spin.Stop()
		p.spin = nil
	}
}

// loadConfig reads the file named by --config or the default location.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.NewFileLoader(path).Load()
}

// resolveInventorySettings layers explicitly set flags over cfg over
// built-in defaults.
func resolveInventorySettings(cmd *cobra.Command, cfg *config.Config) (inventorySettings, error) {
	flags := cmd.Flags()
	s := inventorySettings{
		Profile:     cfg.AWS.DefaultProfile,
		Region:      cfg.AWS.DefaultRegion,
		Output:      cfg.Inventory.Output,
		Concurrency: cfg.Inventory.Concurrency,
		RetryDelay:  retry.DefaultDelay,
		Transport:   common.TransportOptions{MaxAttempts: cfg.Transport.MaxAttempts},
	}

	format := cfg.Inventory.Format
	if format == "" || flags.Changed("format") {
		format, _ = flags.GetString("format")
	}
	f, err := engine.ParseReportFormat(format)
	if err != nil {
		return s, err
	}
	s.Format = f

	if flags.Changed("profile") {
		s.Profile, _ = flags.GetString("profile")
	}
	if flags.Changed("region") {
		s.Region, _ = flags.GetString("region")
	}
	if flags.Changed("output") {
		s.Output, _ = flags.GetString("output")
	}
	if s.Concurrency == 0 || flags.Changed("concurrency") {
		s.Concurrency, _ = flags.GetInt("concurrency")
	}
	if s.Concurrency <= 0 {
		return s, fmt.Errorf("--concurrency must be positive, got %d", s.Concurrency)
	}
	s.NoColor, _ = flags.GetBool("no-color")
	s.Verbose, _ = flags.GetBool("verbose")

	// Durations were validated when the file was loaded.
	if d, _ := config.Duration(cfg.Inventory.RetryDelay); d > 0 {
		s.RetryDelay = d
	}
	s.Transport.ConnectTimeout, _ = config.Duration(cfg.Transport.ConnectTimeout)
	s.Transport.RequestTimeout, _ = config.Duration(cfg.Transport.RequestTimeout)

	return s, nil
}
