package utils

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/warungtech/pos_backend/config"
)

var sequenceMutex sync.Mutex

// Daily counters expire on their own; two days is enough slack for clock skew.
const dailySequenceTTL = 48 * time.Hour

func dailySequenceKey[T any](businessId string, prefix string) string {
	return businessId + "-" + strings.ToLower(GetTypeName[T]()) + "_seq_" + prefix
}

// GetDailySequence returns the next sequence number for transactions sharing
// the given day prefix, per business. Redis INCR serves as an optimistic
// counter seeded from the DB count-by-prefix; the unique index on the number
// column is the actual correctness guarantee, this only minimizes retries.
func GetDailySequence[T any](ctx context.Context, businessId string, prefix string) (int64, error) {
	var model T
	sequenceMutex.Lock()
	defer sequenceMutex.Unlock()

	cacheKey := dailySequenceKey[T](businessId, prefix)
	db := config.GetDB()

	var lastSeqNo int64 = -1
	for {
		seqNo, err := config.GetRedisCounter(ctx, cacheKey)
		if err != nil {
			return 0, err
		}
		// First increment on this key, or redis unavailable: seed from the
		// count of existing numbers sharing the prefix.
		if seqNo <= 1 {
			seqNo, err = seedDailySequence[T](ctx, businessId, prefix, cacheKey)
			if err != nil {
				return 0, err
			}
		} else if err := config.ExpireRedisKey(ctx, cacheKey, dailySequenceTTL); err != nil {
			return 0, err
		}

		// Without redis the seed recomputes the same count+1 every pass; if
		// that number is taken the loop would never advance. Bail instead.
		if seqNo == lastSeqNo {
			return 0, ErrTransactionNumberConflict
		}
		lastSeqNo = seqNo

		// The counter can lag the table (another instance, restored backup);
		// skip numbers that are already taken.
		var taken int64
		if err := db.WithContext(ctx).Model(&model).
			Where("business_id = ? AND transaction_number = ?", businessId, FormatTransactionNumber(prefix, seqNo)).
			Count(&taken).Error; err != nil {
			return 0, err
		}
		if taken == 0 {
			return seqNo, nil
		}
	}
}

// seedDailySequence recomputes the counter from the DB under a best-effort
// cross-instance lock. Losing the lock race is harmless: the caller
// re-validates the number against the table either way.
func seedDailySequence[T any](ctx context.Context, businessId string, prefix string, cacheKey string) (int64, error) {
	var model T
	db := config.GetDB()

	if locker := config.GetRedisLock(); locker != nil {
		if lock, err := locker.Obtain(ctx, cacheKey+"_lock", 3*time.Second, nil); err == nil {
			defer lock.Release(ctx)
		}
	}

	// Another instance may have seeded while we waited on the lock.
	var cached int64
	if found, err := config.GetRedisObject(cacheKey, &cached); err == nil && found && cached > 1 {
		return config.GetRedisCounter(ctx, cacheKey)
	}

	var count int64
	if err := db.WithContext(ctx).Model(&model).
		Where("business_id = ? AND transaction_number LIKE ?", businessId, prefix+"%").
		Count(&count).Error; err != nil {
		return 0, err
	}

	seqNo := count + 1
	if err := config.SetRedisObject(cacheKey, &seqNo, dailySequenceTTL); err != nil {
		return 0, err
	}
	return seqNo, nil
}

// ResetDailySequence drops the cached counter so the next attempt reseeds
// from the DB. Called after a duplicate-number write failure.
func ResetDailySequence[T any](businessId string, prefix string) error {
	return config.RemoveRedisKey(dailySequenceKey[T](businessId, prefix))
}
