package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/bobmcallan/stocklens/internal/common"
	"github.com/bobmcallan/stocklens/internal/models"
	"github.com/bobmcallan/stocklens/internal/projection"
	"github.com/bobmcallan/stocklens/internal/services/analyzer"
	"github.com/bobmcallan/stocklens/internal/storage"
	"github.com/bobmcallan/stocklens/internal/storage/sqlite"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stocklens-import",
		Short: "Stocklens offline import tool",
		Long: `stocklens-import manages a Stocklens SQLite database directly,
without a running server: create the database, register accounts, and
import historical-quote spreadsheets.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("db", "data/stock_analysis.db", "path to the SQLite database")
	rootCmd.PersistentFlags().String("charts", "data/charts", "directory for rendered chart PNGs")

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newSignupCmd())
	rootCmd.AddCommand(newSigninCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newLatestCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func openStore(cmd *cobra.Command) (*sqlite.Store, error) {
	dbPath, _ := cmd.Flags().GetString("db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return sqlite.New(dbPath)
}

// resolveUser authenticates the --email/--password pair against the store.
func resolveUser(ctx context.Context, store *sqlite.Store, cmd *cobra.Command) (*models.UserAccount, error) {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	if email == "" || password == "" {
		return nil, fmt.Errorf("--email and --password are required")
	}

	user, err := store.GetUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	pw := []byte(password)
	if len(pw) > 72 {
		pw = pw[:72]
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), pw); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	return user, nil
}

func addCredentialFlags(cmd *cobra.Command) {
	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("password", "", "account password")
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database and schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			dbPath, _ := cmd.Flags().GetString("db")
			fmt.Printf("Database ready at %s\n", dbPath)
			return nil
		},
	}
}

func newSignupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			email = strings.TrimSpace(strings.ToLower(email))
			if email == "" || len(password) < 8 {
				return fmt.Errorf("--email is required and --password must be at least 8 characters")
			}

			if _, err := store.GetUser(ctx, email); err == nil {
				return fmt.Errorf("account %s already exists", email)
			}

			pw := []byte(password)
			if len(pw) > 72 {
				pw = pw[:72]
			}
			hash, err := bcrypt.GenerateFromPassword(pw, 10)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}

			now := time.Now().UTC()
			user := &models.UserAccount{
				UserID:       uuid.New().String(),
				Email:        email,
				PasswordHash: string(hash),
				CreatedAt:    now,
				ModifiedAt:   now,
			}
			if err := store.SaveUser(ctx, user); err != nil {
				return err
			}

			fmt.Printf("Account created: %s (%s)\n", email, user.UserID)
			return nil
		},
	}
	addCredentialFlags(cmd)
	return cmd
}

func newSigninCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Verify account credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			user, err := resolveUser(ctx, store, cmd)
			if err != nil {
				return err
			}
			fmt.Printf("Signed in as %s\n", user.Email)
			return nil
		},
	}
	addCredentialFlags(cmd)
	return cmd
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <spreadsheet.csv>",
		Short: "Analyze a historical-quotes spreadsheet and store the result",
		Long: `Parse a CSV of historical quotes, compute price projections, render
the chart, and save the analysis for the authenticated account.

When --name and --ticker are omitted they are read from a filename of
the form "<Stock Name> (<TICKER>) Historical Quotes.csv".`,
		Example: `  stocklens-import import --email a@b.com --password secret "Acme Corp (ACME) Historical Quotes.csv"
  stocklens-import import --email a@b.com --password secret --name "Acme Corp" --ticker ACME quotes.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			user, err := resolveUser(ctx, store, cmd)
			if err != nil {
				return err
			}

			path := args[0]
			name, _ := cmd.Flags().GetString("name")
			ticker, _ := cmd.Flags().GetString("ticker")
			if name == "" || ticker == "" {
				pn, pt, perr := parseQuotesFilename(filepath.Base(path))
				if perr != nil {
					return fmt.Errorf("%w; pass --name and --ticker explicitly", perr)
				}
				if name == "" {
					name = pn
				}
				if ticker == "" {
					ticker = pt
				}
			}

			policyName, _ := cmd.Flags().GetString("policy")
			scaleName, _ := cmd.Flags().GetString("scale")
			chartDir, _ := cmd.Flags().GetString("charts")

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open spreadsheet: %w", err)
			}
			defer f.Close()

			policy := projection.ForName(policyName, scaleName)
			svc := analyzer.NewService(store, policy, scaleName, chartDir, common.NewSilentLogger())

			result, err := svc.Analyze(ctx, user.UserID, name, ticker, "", f)
			if err != nil {
				return err
			}

			a := result.Analysis
			if !result.Saved {
				fmt.Printf("Ticker %s already analyzed; keeping the earlier record.\n", a.Ticker)
				return nil
			}

			fmt.Printf("Imported %s (%s)\n", a.StockName, a.Ticker)
			fmt.Printf("  Last close:    $%.2f on %s\n", a.LastPrice, a.LastDate.Format("2006-01-02"))
			fmt.Printf("  Today:         $%.2f\n", a.PredictionToday)
			fmt.Printf("  30 days:       $%.2f\n", a.Prediction30)
			fmt.Printf("  60 days:       $%.2f\n", a.Prediction60)
			fmt.Printf("  90 days:       $%.2f\n", a.Prediction90)
			if a.Accuracy != nil {
				fmt.Printf("  Fit accuracy:  %.2f%%\n", *a.Accuracy)
			}
			if result.ChartPath != "" {
				fmt.Printf("  Chart:         %s\n", result.ChartPath)
			}
			return nil
		},
	}
	addCredentialFlags(cmd)
	cmd.Flags().String("name", "", "stock display name")
	cmd.Flags().String("ticker", "", "ticker symbol")
	cmd.Flags().String("policy", "fixed", "projection policy (fixed or linear)")
	cmd.Flags().String("scale", "standard", "fixed-policy scale (standard or conservative)")
	return cmd
}

func newLatestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Show the analysis with the most recent trading date",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			user, err := resolveUser(ctx, store, cmd)
			if err != nil {
				return err
			}

			a, err := store.RetrieveLatest(ctx, user.UserID)
			if errors.Is(err, storage.ErrNotFound) {
				fmt.Println("No analyses yet.")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Printf("%s (%s)\n", a.StockName, a.Ticker)
			fmt.Printf("  Last close:  $%.2f on %s\n", a.LastPrice, a.LastDate.Format("2006-01-02"))
			fmt.Printf("  Today:       $%.2f\n", a.PredictionToday)
			fmt.Printf("  30/60/90:    $%.2f / $%.2f / $%.2f\n", a.Prediction30, a.Prediction60, a.Prediction90)
			fmt.Println(" ", a.Summary)
			return nil
		},
	}
	addCredentialFlags(cmd)
	return cmd
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <ticker>",
		Short: "Export a stored analysis as a text or CSV report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			user, err := resolveUser(ctx, store, cmd)
			if err != nil {
				return err
			}

			ticker := strings.ToUpper(strings.TrimSpace(args[0]))
			a, err := store.Get(ctx, user.UserID, ticker)
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("no analysis found for %s", ticker)
			}
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("format")
			report, err := renderReport(a, format)
			if err != nil {
				return err
			}

			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				fmt.Print(report)
				return nil
			}
			if err := os.WriteFile(out, []byte(report), 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			fmt.Printf("Report written to %s\n", out)
			return nil
		},
	}
	addCredentialFlags(cmd)
	cmd.Flags().String("format", "text", "report format (text or csv)")
	cmd.Flags().String("out", "", "write the report to a file instead of stdout")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(common.GetFullVersion())
		},
	}
}
