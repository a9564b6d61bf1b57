package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fekuna/repairshop-service/internal/order"
	"github.com/fekuna/repairshop-service/internal/order/dto"
	orderRepoPkg "github.com/fekuna/repairshop-service/internal/order/repository"
	orderUCPkg "github.com/fekuna/repairshop-service/internal/order/usecase"
	"github.com/spf13/cobra"
)

var (
	exportOut     string
	exportStatus  string
	exportOrderID string
	exportLimit   int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export orders or payments to an xlsx workbook",
}

var exportOrdersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Export orders, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd, "orders.xlsx", func(uc order.UseCase, w io.Writer) (int, error) {
			return uc.ExportOrders(cmd.Context(), w, &dto.OrderFilter{Status: exportStatus, Limit: exportLimit})
		})
	},
}

var exportPaymentsCmd = &cobra.Command{
	Use:   "payments",
	Short: "Export payments, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd, "payments.xlsx", func(uc order.UseCase, w io.Writer) (int, error) {
			return uc.ExportPayments(cmd.Context(), w, &dto.PaymentFilter{OrderID: exportOrderID, Limit: exportLimit})
		})
	},
}

func init() {
	exportCmd.PersistentFlags().StringVarP(&exportOut, "out", "o", "", "output file")
	exportCmd.PersistentFlags().IntVarP(&exportLimit, "limit", "n", 0, "maximum rows, 0 for all")
	exportOrdersCmd.Flags().StringVar(&exportStatus, "status", "", "only orders with this status")
	exportPaymentsCmd.Flags().StringVar(&exportOrderID, "order", "", "only payments for this order")

	exportCmd.AddCommand(exportOrdersCmd, exportPaymentsCmd)
}

func runExport(cmd *cobra.Command, defaultOut string, write func(order.UseCase, io.Writer) (int, error)) error {
	b, err := openBackends(cmd.Context())
	if err != nil {
		return err
	}
	uc := orderUCPkg.NewOrderUseCase(orderRepoPkg.NewDocRepository(b.store, b.notifier), appLog)

	out := exportOut
	if out == "" {
		out = defaultOut
	}
	var rows int
	err = writeFile(out, func(f *os.File) error {
		rows, err = write(uc, f)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d rows written to %s\n", rows, out)
	return nil
}
