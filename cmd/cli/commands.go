package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/salesledger/internal/adapter/http/dto"
	"github.com/iho/salesledger/internal/domain"
	"github.com/iho/salesledger/internal/infrastructure/postgres"
)

var errInvalidAmount = errors.New("Valor inválido")

// parseAmount accepts "10.50" and "10,50".
func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil {
		return decimal.Zero, errInvalidAmount
	}
	amount, err := domain.CheckAmount(d)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, errInvalidAmount
	}
	return amount, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func addRangeFlags(cmd *cobra.Command, from, to *string) {
	cmd.Flags().StringVar(from, "from", "", "First day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(to, "to", "", "Last day to include (YYYY-MM-DD)")
}

func recordCmd(client func() *apiClient) *cobra.Command {
	var seller, amount, paymentMethod string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a sale",
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseAmount(amount)
			if err != nil {
				return err
			}

			resp, err := client().RecordSale(cmd.Context(), dto.RecordSaleRequest{
				Seller:        seller,
				Amount:        &value,
				PaymentMethod: paymentMethod,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Venda registrada (id %d)\n", resp.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&seller, "seller", "", "Seller name")
	cmd.Flags().StringVar(&amount, "amount", "", "Sale amount, e.g. 10.50")
	cmd.Flags().StringVar(&paymentMethod, "payment-method", "", "Payment method (dinheiro, cartao, pix)")
	_ = cmd.MarkFlagRequired("seller")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("payment-method")

	return cmd
}

func listCmd(client func() *apiClient) *cobra.Command {
	var from, to string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sales, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			sales, err := client().ListSales(cmd.Context(), from, to)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), sales)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tVENDEDORA\tVALOR\tPAGAMENTO\tDATA")
			for _, s := range sales {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
					s.ID, s.Seller, s.Amount.Decimal().StringFixed(domain.AmountPlaces), s.PaymentMethod,
					s.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}

	addRangeFlags(cmd, &from, &to)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")

	return cmd
}

func summaryCmd(client func() *apiClient) *cobra.Command {
	var from, to string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show totals per seller and overall",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := client().Summary(cmd.Context(), from, to)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), summary)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "VENDEDORA\tVENDAS\tTOTAL")
			for _, st := range summary.PerSeller {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", st.Seller, st.Count, st.Total.Decimal().StringFixed(domain.AmountPlaces))
			}
			fmt.Fprintf(tw, "TOTAL\t\t%s\n", summary.Total.Decimal().StringFixed(domain.AmountPlaces))
			return tw.Flush()
		},
	}

	addRangeFlags(cmd, &from, &to)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")

	return cmd
}

func exportCmd(client func() *apiClient) *cobra.Command {
	var from, to, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export sales as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			sales, err := client().ListSales(cmd.Context(), from, to)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			if err := writeSalesCSV(w, sales); err != nil {
				return err
			}

			if output != "" && output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d vendas exportadas para %s\n", len(sales), output)
			}
			return nil
		},
	}

	addRangeFlags(cmd, &from, &to)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")

	return cmd
}

func rosterCmd(client func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "roster",
		Short: "Show configured sellers and payment methods",
		RunE: func(cmd *cobra.Command, args []string) error {
			roster, err := client().Roster(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), roster)
		},
	}
}

func healthCmd(client func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the API is up",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := client().Health(cmd.Context())
			if err != nil {
				return err
			}
			if !status.OK {
				return errors.New("API não está saudável")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")

	requireURL := func() error {
		if databaseURL == "" {
			return errors.New("--database-url or DATABASE_URL is required")
		}
		return nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := requireURL(); err != nil {
					return err
				}
				return postgres.RunMigrations(databaseURL)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := requireURL(); err != nil {
					return err
				}
				return postgres.RunMigrationsDown(databaseURL)
			},
		},
	)

	return cmd
}
