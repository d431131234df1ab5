// Package main provides a command-line runner for after-calculation hooks.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"spreadsheet-hooks/internal/app"
	"spreadsheet-hooks/internal/common/config"
	"spreadsheet-hooks/internal/common/logger"
	"spreadsheet-hooks/internal/common/validation"
	"spreadsheet-hooks/internal/hooks"
	"spreadsheet-hooks/internal/server"
	"spreadsheet-hooks/internal/workbook"
)

// errCancelled maps a cancel verdict to exit code 2.
var errCancelled = errors.New("hook cancelled")

var (
	configPath   string
	hookName     string
	requestID    string
	pretty       bool
	envelopePath string
	save         bool
	savePath     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "hookctl",
		Short:         "Run spreadsheet after-calculation hooks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&hookName, "hook", "payment-charge", "Hook to run")
	rootCmd.PersistentFlags().StringVar(&requestID, "request-id", "", "Invocation id forwarded to the hook")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a hook against a JSON envelope",
		Args:  cobra.NoArgs,
		RunE:  runEnvelope,
	}
	runCmd.Flags().StringVar(&envelopePath, "envelope", "", "Envelope file with request and response (- for stdin)")
	_ = runCmd.MarkFlagRequired("envelope")

	workbookCmd := &cobra.Command{
		Use:   "workbook [book.xlsx]",
		Short: "Run a hook against a workbook's defined names",
		Long: `Defined names starting with "i" are read as inputs and names starting
with "o" as outputs. Outputs are written back when the hook succeeds.`,
		Args: cobra.ExactArgs(1),
		RunE: runWorkbook,
	}
	workbookCmd.Flags().BoolVar(&save, "save", false, "Save outputs into the workbook")
	workbookCmd.Flags().StringVar(&savePath, "save-as", "", "Save outputs into a copy at this path")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List enabled hooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := buildRegistry()
			if err != nil {
				return err
			}
			for _, name := range registry.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, workbookCmd, listCmd)

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errCancelled) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func buildRegistry() (*hooks.Registry, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, "console", "stderr")
	return app.NewRegistry(app.Dependencies{
		Config:    cfg,
		ZapLogger: zapLog,
		Logger:    logger.NewZapAdapter(zapLog),
	})
}

func lookupHook() (hooks.AfterCalculationHook, error) {
	registry, err := buildRegistry()
	if err != nil {
		return nil, err
	}
	hook, ok := registry.Lookup(hookName)
	if !ok {
		return nil, fmt.Errorf("hook %q is not registered or disabled (available: %s)", hookName, strings.Join(registry.Names(), ", "))
	}
	return hook, nil
}

func runEnvelope(cmd *cobra.Command, args []string) error {
	var (
		body []byte
		err  error
	)
	if envelopePath == "-" {
		body, err = io.ReadAll(cmd.InOrStdin())
	} else {
		body, err = os.ReadFile(envelopePath)
	}
	if err != nil {
		return fmt.Errorf("failed to read envelope: %w", err)
	}

	result, err := validation.ValidateEnvelope(body)
	if err != nil {
		return fmt.Errorf("invalid envelope: %w", err)
	}
	if !result.Valid {
		return fmt.Errorf("invalid envelope: %s", strings.Join(result.GetErrorMessages(), "; "))
	}

	var env server.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("invalid envelope: %w", err)
	}
	if requestID != "" {
		env.Request.RequestID = requestID
	}

	hook, err := lookupHook()
	if err != nil {
		return err
	}

	verdict := hook.AfterCalculation(context.Background(), &env.Request, &env.Response)
	if err := printJSON(cmd, server.Result{Result: verdict, Response: &env.Response}); err != nil {
		return err
	}
	if verdict.Cancelled() {
		return errCancelled
	}
	return nil
}

func runWorkbook(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(args[0]); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", args[0])
	}

	hook, err := lookupHook()
	if err != nil {
		return err
	}

	wb, err := workbook.Open(args[0])
	if err != nil {
		return err
	}
	defer wb.Close()

	verdict, resp, err := wb.Run(context.Background(), hook, requestID)
	if err != nil {
		return err
	}
	if err := printJSON(cmd, server.Result{Result: verdict, Response: resp}); err != nil {
		return err
	}
	if verdict.Cancelled() {
		return errCancelled
	}

	switch {
	case savePath != "":
		if err := wb.SaveAs(savePath); err != nil {
			return fmt.Errorf("failed to save workbook: %w", err)
		}
	case save:
		if err := wb.Save(); err != nil {
			return fmt.Errorf("failed to save workbook: %w", err)
		}
	}
	return nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
