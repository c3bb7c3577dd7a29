package sheets_test

import (
	"context"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/sheets"
)

var _ = Describe("MemoryCache", func() {
	It("returns rows until the ttl elapses", func() {
		ctx := context.Background()
		cache := sheets.NewMemoryCache()
		rows := []sheets.Row{{"id": "1"}}

		cache.Set(ctx, "quiz", rows, 50*time.Millisecond)
		got, ok := cache.Get(ctx, "quiz")
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(rows))

		Eventually(func() bool {
			_, ok := cache.Get(ctx, "quiz")
			return ok
		}).WithTimeout(time.Second).Should(BeFalse())
	})

	It("misses on unknown sheets", func() {
		_, ok := sheets.NewMemoryCache().Get(context.Background(), "none")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("RedisCache", func() {
	var (
		mr    *miniredis.Miniredis
		rdb   *redis.Client
		cache *sheets.RedisCache
		ctx   context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		mr = miniredis.RunT(GinkgoT())
		rdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		cache = sheets.NewRedisCache(rdb, "test:")
	})

	AfterEach(func() {
		_ = rdb.Close()
	})

	It("round-trips rows under the prefixed key", func() {
		rows := []sheets.Row{{"id": "1", "text": "曲名は?"}}
		cache.Set(ctx, "quiz", rows, time.Minute)

		Expect(mr.Exists("test:quiz")).To(BeTrue())
		got, ok := cache.Get(ctx, "quiz")
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(rows))
	})

	It("expires entries with the ttl", func() {
		cache.Set(ctx, "quiz", []sheets.Row{{"id": "1"}}, time.Minute)
		mr.FastForward(2 * time.Minute)

		_, ok := cache.Get(ctx, "quiz")
		Expect(ok).To(BeFalse())
	})

	It("treats a corrupt entry as a miss", func() {
		Expect(mr.Set("test:quiz", "not json")).To(Succeed())

		_, ok := cache.Get(ctx, "quiz")
		Expect(ok).To(BeFalse())
	})
})
