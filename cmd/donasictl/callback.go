package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/anggiadiputra/donasiku-sub000/internal/modules/payments"
)

func callbackCmd() *cobra.Command {
	var (
		target       string
		merchantCode string
		apiKey       string
		amount       int64
		resultCode   string
		reference    string
		paymentCode  string
		dryRun       bool
	)

	cmd := &cobra.Command{
		Use:   "callback <merchantOrderId>",
		Short: "Send a signed gateway callback to a running server",
		Example: `  donasictl callback DN0123... --amount 150000
  donasictl callback DN0123... --amount 150000 --result 01 --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if merchantCode == "" || apiKey == "" {
				return errors.New("merchant code and api key are required (DUITKU_MERCHANT_CODE / DUITKU_API_KEY)")
			}
			if amount <= 0 {
				return errors.New("--amount must be positive")
			}
			if reference == "" {
				reference = merchantCode + "SIM" + time.Now().Format("150405")
			}

			form := payments.CallbackForm(merchantCode, apiKey, payments.CallbackEvent{
				MerchantOrderID: args[0],
				Amount:          amount,
				ResultCode:      resultCode,
				Reference:       reference,
				PaymentCode:     paymentCode,
			})
			body := form.Encode()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "POST %s\n%s\n", target, body)
			if dryRun {
				fmt.Fprintln(out, "[dry run] not sent")
				return nil
			}

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, target, strings.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			resp, err := (&http.Client{Timeout: 15 * time.Second}).Do(req)
			if err != nil {
				return fmt.Errorf("send callback: %w", err)
			}
			defer resp.Body.Close()

			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
			fmt.Fprintf(out, "\n%s\n%s\n", resp.Status, respBody)
			if resp.StatusCode >= 300 {
				return fmt.Errorf("server answered %d", resp.StatusCode)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "url", "http://localhost:8080/api/payments/callback", "callback endpoint")
	cmd.Flags().StringVar(&merchantCode, "merchant-code", os.Getenv("DUITKU_MERCHANT_CODE"), "merchant code")
	cmd.Flags().StringVar(&apiKey, "api-key", os.Getenv("DUITKU_API_KEY"), "merchant API key used to sign")
	cmd.Flags().Int64Var(&amount, "amount", 0, "amount exactly as stored on the transaction")
	cmd.Flags().StringVar(&resultCode, "result", payments.CodeSuccess, "result code: 00 paid, 01 failed")
	cmd.Flags().StringVar(&reference, "reference", "", "gateway reference (generated when empty)")
	cmd.Flags().StringVar(&paymentCode, "payment-code", "", "payment method code")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the signed body without sending")
	return cmd
}
