package api

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"tree-adopt/internal/geofence"

	"github.com/redis/go-redis/v9"
)

const (
	dedupeBits   = 1 << 20
	dedupeHashes = 4
	dedupeWindow = 10 * time.Second
)

// submitFilter：短窗口内已成功领养的提交指纹
// 约束：Seen 只读不写；仅在写库成功后 Mark，写库失败的重试不会被拦截
type submitFilter interface {
	Seen(ctx context.Context, fp []byte) (bool, error)
	Mark(ctx context.Context, fp []byte) error
}

// 文档注释：计算布隆过滤器位置
// 参数：data 为参与哈希的字节序列，m 为位图大小，k 为哈希次数。
// 背景：使用 FNV64a 结合索引扰动生成 k 个位置，用于 GetBit/SetBit。
func bloomPositions(data []byte, m uint32, k int) []int64 {
	pos := make([]int64, k)
	for i := 0; i < k; i++ {
		h := fnv.New64a()
		h.Write([]byte{byte(i)})
		h.Write(data)
		pos[i] = int64(uint32(h.Sum64() % uint64(m)))
	}
	return pos
}

// 文档注释：基于 Redis 位图的布隆过滤器
// 背景：按 10 秒窗口分桶，键随窗口过期；误判时同一窗口内的不同提交可能被当作重复。
type bloomFilter struct {
	rc  *redis.Client
	now func() time.Time
}

func (b *bloomFilter) key() string {
	now := time.Now
	if b.now != nil {
		now = b.now
	}
	return dedupeKey(now())
}

func (b *bloomFilter) Seen(ctx context.Context, fp []byte) (bool, error) {
	key := b.key()
	for _, p := range bloomPositions(fp, dedupeBits, dedupeHashes) {
		v, err := b.rc.GetBit(ctx, key, p).Result()
		if err != nil {
			return false, err
		}
		if v == 0 {
			return false, nil
		}
	}
	return true, nil
}

func (b *bloomFilter) Mark(ctx context.Context, fp []byte) error {
	key := b.key()
	pipe := b.rc.Pipeline()
	for _, p := range bloomPositions(fp, dedupeBits, dedupeHashes) {
		pipe.SetBit(ctx, key, p, 1)
	}
	pipe.Expire(ctx, key, dedupeWindow)
	_, err := pipe.Exec(ctx)
	return err
}

// 同一客户端同一坐标的提交指纹
func pinFingerprint(ip string, pt geofence.Point) []byte {
	b := make([]byte, 0, 64)
	b = append(b, ip...)
	b = append(b, '|')
	b = strconv.AppendFloat(b, pt.Lat, 'f', 8, 64)
	b = append(b, ',')
	b = strconv.AppendFloat(b, pt.Lng, 'f', 8, 64)
	return b
}

func dedupeKey(now time.Time) string {
	return "pins:bloom:" + strconv.FormatInt(now.Unix()/int64(dedupeWindow/time.Second), 10)
}
