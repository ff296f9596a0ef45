package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"venuely/internal/bookings"
	"venuely/pkg/devtoken"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type OversellOptions struct {
	VenueID     string
	Attempts    int
	Concurrency int
	Guests      int
	Date        string
	Time        string
}

// OversellReport is the outcome of one burst of concurrent bookings against a venue
type OversellReport struct {
	VenueID         string `json:"venue_id"`
	RemainingBefore int    `json:"remaining_before"`
	RemainingAfter  int    `json:"remaining_after"`
	Attempts        int    `json:"attempts"`
	Confirmed       int    `json:"confirmed"`
	Rejected        int    `json:"rejected"`
	Conflicts       int    `json:"conflicts"`
	Throttled       int    `json:"throttled"`
	Errors          int    `json:"errors"`
	Oversold        bool   `json:"oversold"`
	// Drift is set when the seats consumed differ from what was confirmed; other traffic can cause it
	Drift bool `json:"drift"`
}

var oversellOpts OversellOptions

var oversellCmd = &cobra.Command{
	Use:   "oversell",
	Short: "Fire concurrent bookings at one venue and verify capacity holds",
	Long: `Each attempt books as a distinct user. The venue's remaining capacity is read before
and after the burst; the check fails if more seats were confirmed than were free.

Examples:
  loadcheck oversell --venue 1f0c... --attempts 50 --guests 2 --date 2030-01-02 --time 19:00`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient(baseURL, &http.Client{Timeout: timeout})
		sign := func(subject string) (string, error) {
			return devtoken.Sign(cfg.JWT, subject, "user", time.Hour)
		}

		report, err := runOversell(cmd.Context(), client, sign, oversellOpts)
		if err != nil {
			return err
		}
		fmt.Printf("📊 venue %s: %d free before, %d after\n", report.VenueID, report.RemainingBefore, report.RemainingAfter)
		fmt.Printf("   confirmed=%d rejected=%d conflicts=%d throttled=%d errors=%d\n",
			report.Confirmed, report.Rejected, report.Conflicts, report.Throttled, report.Errors)
		if report.Oversold {
			return fmt.Errorf("❌ venue oversold")
		}
		if report.Drift {
			fmt.Println("⚠️  seats consumed differ from confirmed bookings")
		}
		fmt.Println("✅ capacity held")
		return nil
	},
}

func init() {
	f := oversellCmd.Flags()
	f.StringVar(&oversellOpts.VenueID, "venue", "", "venue id")
	f.IntVar(&oversellOpts.Attempts, "attempts", 50, "number of booking attempts")
	f.IntVar(&oversellOpts.Concurrency, "concurrency", 16, "attempts in flight at once")
	f.IntVar(&oversellOpts.Guests, "guests", 1, "guests per booking")
	f.StringVar(&oversellOpts.Date, "date", "", "booking date YYYY-MM-DD")
	f.StringVar(&oversellOpts.Time, "time", "", "booking time HH:MM")
	_ = oversellCmd.MarkFlagRequired("venue")
	_ = oversellCmd.MarkFlagRequired("date")
	_ = oversellCmd.MarkFlagRequired("time")
}

func runOversell(ctx context.Context, client *apiClient, sign func(subject string) (string, error), opts OversellOptions) (OversellReport, error) {
	report := OversellReport{VenueID: opts.VenueID, Attempts: opts.Attempts}
	if opts.Attempts <= 0 || opts.Guests <= 0 {
		return report, fmt.Errorf("attempts and guests must be positive")
	}

	before, err := client.availability(ctx, opts.VenueID)
	if err != nil {
		return report, err
	}
	report.RemainingBefore = before.Remaining

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	runID := uuid.NewString()[:8]
	for i := 0; i < opts.Attempts; i++ {
		subject := fmt.Sprintf("loadcheck-%s-%d", runID, i)
		g.Go(func() error {
			token, err := sign(subject)
			if err != nil {
				return err
			}
			code, _, err := client.do(gctx, apiRequest{
				method:         http.MethodPost,
				path:           "/bookings",
				token:          token,
				idempotencyKey: subject,
				body: bookings.CreateBookingRequest{
					VenueID:     opts.VenueID,
					Guests:      opts.Guests,
					BookingDate: opts.Date,
					BookingTime: opts.Time,
				},
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.Errors++
			case code == http.StatusOK || code == http.StatusCreated:
				report.Confirmed++
			case code == http.StatusBadRequest:
				report.Rejected++
			case code == http.StatusConflict:
				report.Conflicts++
			case code == http.StatusTooManyRequests:
				report.Throttled++
			default:
				report.Errors++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	after, err := client.availability(ctx, opts.VenueID)
	if err != nil {
		return report, err
	}
	report.RemainingAfter = after.Remaining

	seats := report.Confirmed * opts.Guests
	report.Oversold = seats > report.RemainingBefore || report.RemainingAfter < 0
	report.Drift = report.RemainingBefore-report.RemainingAfter != seats
	return report, nil
}
