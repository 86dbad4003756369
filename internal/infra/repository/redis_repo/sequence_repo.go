package redis_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ISequenceRepository 提供以日為範圍的訂單流水號
type ISequenceRepository interface {
	// NextOrderSequence 取得指定日期的下一個流水號，從1開始
	NextOrderSequence(ctx context.Context, day time.Time) (int64, error)
}

type SequenceRepo struct {
	seqCache *redis.Client
}

func NewSequenceRepo(seqCache *redis.Client) *SequenceRepo {
	return &SequenceRepo{seqCache: seqCache}
}

func generateOrderSeqKey(day time.Time) string {
	return fmt.Sprintf("order:seq:%s", day.Format("20060102"))
}

// INCR之後補上48小時TTL，跨日的舊計數器自動清除
const nextSeqScript = `
local v = redis.call('INCR', KEYS[1])
if v == 1 then
	redis.call('EXPIRE', KEYS[1], ARGV[1])
end
return v
`

func (r *SequenceRepo) NextOrderSequence(ctx context.Context, day time.Time) (int64, error) {
	key := generateOrderSeqKey(day)
	result, err := r.seqCache.Eval(ctx, nextSeqScript, []string{key}, int((48 * time.Hour).Seconds())).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get order sequence: %w", err)
	}
	seq, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("%w: %T", ErrUnexpectedEvalType, result)
	}
	return seq, nil
}

var _ ISequenceRepository = (*SequenceRepo)(nil)
