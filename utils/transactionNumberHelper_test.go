package utils_test

import (
	"testing"
	"time"

	"github.com/warungtech/pos_backend/utils"
)

func TestDailyTransactionPrefix(t *testing.T) {
	cases := []struct {
		now  time.Time
		want string
	}{
		{time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC), "250401"},
		{time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC), "251231"},
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "260101"},
	}
	for _, tc := range cases {
		if got := utils.DailyTransactionPrefix(tc.now); got != tc.want {
			t.Errorf("DailyTransactionPrefix(%s) = %s, want %s", tc.now, got, tc.want)
		}
	}
}

func TestFormatTransactionNumber(t *testing.T) {
	prefix := utils.DailyTransactionPrefix(time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC))

	// sequential checkouts on the same day
	want := []string{"2504010001", "2504010002", "2504010003"}
	for i, w := range want {
		got := utils.FormatTransactionNumber(prefix, int64(i+1))
		if got != w {
			t.Errorf("seq %d = %s, want %s", i+1, got, w)
		}
		if len(got) != 10 {
			t.Errorf("number %s is %d chars, want 10", got, len(got))
		}
	}

	if got := utils.FormatTransactionNumber(prefix, 123); got != "2504010123" {
		t.Errorf("seq 123 = %s, want 2504010123", got)
	}
}
