// 包 geocache：反地理编码结果缓存（进程内 LRU + 可选 Redis）
package geocache

import (
	"container/list"
	"sync"
	"time"
)

// 文档注释：本地 LRU 缓存（geohash 为键）
// 背景：区域编辑时同一顶点会被反复反查，进程内缓存减少外部调用次数。
// 约束：容量与 TTL 由构造参数决定；now 可注入，便于测试过期。
type LRU struct {
	mu   sync.Mutex
	cap  int
	ttl  time.Duration
	now  func() time.Time
	lst  *list.List
	dict map[string]*list.Element
}

type entry struct {
	k   string
	v   string
	exp time.Time
}

func NewLRU(capacity int, ttl time.Duration) *LRU {
	if capacity <= 0 {
		capacity = 1024
	}
	return &LRU{cap: capacity, ttl: ttl, now: time.Now, lst: list.New(), dict: make(map[string]*list.Element)}
}

// WithClock 替换时钟，返回自身
func (c *LRU) WithClock(now func() time.Time) *LRU {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
	return c
}

func (c *LRU) Get(k string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.dict[k]
	if !ok {
		return "", false
	}
	it := e.Value.(entry)
	if c.now().Before(it.exp) {
		c.lst.MoveToFront(e)
		return it.v, true
	}
	c.lst.Remove(e)
	delete(c.dict, k)
	return "", false
}

func (c *LRU) Set(k, v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	exp := c.now().Add(c.ttl)
	if e, ok := c.dict[k]; ok {
		e.Value = entry{k: k, v: v, exp: exp}
		c.lst.MoveToFront(e)
		return
	}
	c.dict[k] = c.lst.PushFront(entry{k: k, v: v, exp: exp})
	for c.lst.Len() > c.cap {
		back := c.lst.Back()
		delete(c.dict, back.Value.(entry).k)
		c.lst.Remove(back)
	}
}

func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lst.Len()
}
