package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/finsync/internal/adapters/scraper"
	"github.com/SscSPs/finsync/internal/core/domain"
	"github.com/SscSPs/finsync/internal/core/services"
	"github.com/SscSPs/finsync/internal/platform/config"
	"github.com/SscSPs/finsync/internal/progress"
	"github.com/spf13/cobra"
)

var errSyncFailed = errors.New("sync failed")

type syncFlags struct {
	credentialID string
	vendor       string
	fields       map[string]string
	startDate    string
	billingCycle string
	resumeMode   string
	timeout      int
}

// newSyncCommand runs one sync session in-process and writes its event
// stream to stdout.
func newSyncCommand(logger *slog.Logger) *cobra.Command {
	var flags syncFlags

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync session and print its progress events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.toRequest()
			if err != nil {
				return err
			}

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			repos, closeStore, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			source := scraper.NewClient(cfg.ScraperURL,
				scraper.WithTimeout(cfg.ScraperTimeout),
				scraper.WithMaxFrameSize(cfg.ScraperMaxFrameSize),
			)
			container := services.NewServiceContainer(cfg, repos, source)

			stream, err := container.Sync.StartSession(ctx, req)
			if err != nil {
				return err
			}

			enc := progress.NewEncoder(os.Stdout)
			failed := false
			for ev := range stream.Events() {
				if err := enc.Encode(ev); err != nil {
					return err
				}
				if ev.Name == progress.EventError {
					failed = true
				}
			}
			if ctx.Err() != nil {
				logger.Warn("Sync aborted", slog.String("session_id", stream.SessionID()))
				return ctx.Err()
			}
			if failed {
				return errSyncFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.credentialID, "credential-id", "", "stored credential to sync")
	cmd.Flags().StringVar(&flags.vendor, "vendor", "", "vendor of inline credentials")
	cmd.Flags().StringToStringVar(&flags.fields, "field", nil, "inline credential field, key=value (repeatable)")
	cmd.Flags().StringVar(&flags.startDate, "start-date", "", "first day to fetch, YYYY-MM-DD")
	cmd.Flags().StringVar(&flags.billingCycle, "billing-cycle", "", "fetch from the first day of this month, YYYY-MM")
	cmd.Flags().StringVar(&flags.resumeMode, "resume", string(domain.ResumeFull), "full or gap_fill")
	cmd.Flags().IntVar(&flags.timeout, "timeout", 0, "source timeout in seconds")
	cmd.MarkFlagsOneRequired("credential-id", "field")
	cmd.MarkFlagsMutuallyExclusive("credential-id", "field")
	cmd.MarkFlagsMutuallyExclusive("start-date", "billing-cycle")

	return cmd
}

func (f syncFlags) toRequest() (domain.SyncRequest, error) {
	req := domain.SyncRequest{
		Credential: domain.Credential{
			CredentialID: f.credentialID,
			Vendor:       f.vendor,
			Fields:       f.fields,
		},
		BillingCycle: f.billingCycle,
		Options: domain.SyncOptions{
			ResumeMode:     domain.ResumeMode(f.resumeMode),
			TimeoutSeconds: f.timeout,
		},
	}
	if f.startDate != "" {
		start, err := time.Parse(domain.DateLayout, f.startDate)
		if err != nil {
			return req, fmt.Errorf("invalid --start-date %q, expected YYYY-MM-DD", f.startDate)
		}
		req.StartDate = start
	}
	return req, nil
}
