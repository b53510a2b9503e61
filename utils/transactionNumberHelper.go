package utils

import (
	"fmt"
	"time"
)

// DailyTransactionPrefix returns the 6-digit date code (YYMMDD) that starts
// every transaction number issued on that calendar day.
func DailyTransactionPrefix(now time.Time) string {
	return now.Format("060102")
}

// FormatTransactionNumber joins the daily prefix with a zero-padded 4 digit
// sequence: prefix 250401, seq 1 -> "2504010001".
func FormatTransactionNumber(prefix string, seq int64) string {
	return fmt.Sprintf("%s%04d", prefix, seq)
}
