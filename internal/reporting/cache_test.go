package reporting_test

import (
	"context"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/frahmantamala/club-ledger/internal/reporting"
)

var _ = Describe("Cache", func() {
	var (
		mr     *miniredis.Miniredis
		client *redis.Client
		cache  *reporting.Cache
		ctx    context.Context
	)

	BeforeEach(func() {
		mr = miniredis.RunT(GinkgoT())
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		cache = reporting.NewCache(client, time.Minute)
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(client.Close()).To(Succeed())
	})

	It("serves the second fetch from redis", func() {
		calls := 0
		loader := func(context.Context) (interface{}, error) {
			calls++
			return map[string]int{"count": 3}, nil
		}

		key, err := cache.BuildKey(ctx, "summary", "2025-2026")
		Expect(err).NotTo(HaveOccurred())
		Expect(key).To(Equal("reports:summary:2025-2026:v1"))

		var first, second map[string]int
		Expect(cache.FetchJSON(ctx, key, &first, loader)).To(Succeed())
		Expect(cache.FetchJSON(ctx, key, &second, loader)).To(Succeed())

		Expect(calls).To(Equal(1))
		Expect(second).To(Equal(map[string]int{"count": 3}))
		Expect(mr.TTL(key)).To(Equal(time.Minute))
	})

	It("moves to a fresh key after invalidation", func() {
		before, err := cache.BuildKey(ctx, "summary")
		Expect(err).NotTo(HaveOccurred())

		Expect(cache.Invalidate(ctx)).To(Succeed())

		after, err := cache.BuildKey(ctx, "summary")
		Expect(err).NotTo(HaveOccurred())
		Expect(after).NotTo(Equal(before))
		Expect(after).To(Equal("reports:summary:v2"))
	})

	It("computes directly without a client", func() {
		var nilCache *reporting.Cache
		key, err := nilCache.BuildKey(ctx, "top", "10")
		Expect(err).NotTo(HaveOccurred())
		Expect(key).To(Equal("reports:top:10"))

		var out []int
		Expect(nilCache.FetchJSON(ctx, key, &out, func(context.Context) (interface{}, error) {
			return []int{1, 2}, nil
		})).To(Succeed())
		Expect(out).To(Equal([]int{1, 2}))
		Expect(nilCache.Invalidate(ctx)).To(Succeed())
	})

	It("reports redis outages to the caller", func() {
		mr.Close()
		_, err := cache.BuildKey(ctx, "summary")
		Expect(err).To(HaveOccurred())
	})
})
