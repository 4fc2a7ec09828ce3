package main

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/iho/salesledger/internal/adapter/http/dto"
	"github.com/iho/salesledger/internal/domain"
)

const csvHeader = "id,seller,amount,payment_method,created_at"

// writeSalesCSV writes one row per sale. The seller column is always quoted;
// other text columns are quoted only when they contain a separator, quote or newline.
func writeSalesCSV(w io.Writer, sales []dto.SaleResponse) error {
	bw := bufio.NewWriter(w)

	bw.WriteString(csvHeader)
	bw.WriteByte('\n')

	for _, s := range sales {
		bw.WriteString(strconv.FormatInt(s.ID, 10))
		bw.WriteByte(',')
		bw.WriteString(quote(s.Seller))
		bw.WriteByte(',')
		bw.WriteString(s.Amount.Decimal().StringFixed(domain.AmountPlaces))
		bw.WriteByte(',')
		bw.WriteString(quoteIfNeeded(s.PaymentMethod))
		bw.WriteByte(',')
		bw.WriteString(s.CreatedAt.UTC().Format(time.RFC3339))
		bw.WriteByte('\n')
	}

	return bw.Flush()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteIfNeeded(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return quote(s)
	}
	return s
}
