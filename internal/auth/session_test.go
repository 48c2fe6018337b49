package auth_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/frahmantamala/document-workspace/internal/auth"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Suite")
}

var _ = Describe("SessionStore", func() {
	var (
		mr     *miniredis.Miniredis
		client *redis.Client
		store  *auth.SessionStore
		ctx    context.Context
	)

	BeforeEach(func() {
		var err error
		mr, err = miniredis.Run()
		Expect(err).NotTo(HaveOccurred())

		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		store = auth.NewSessionStore(client, testLogger())
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(client.Close()).To(Succeed())
		mr.Close()
	})

	Describe("refresh token rotation", func() {
		const userID = int64(42)

		It("rotates when the presented token matches the stored one", func() {
			Expect(store.StoreRefreshToken(ctx, userID, "token-a", time.Hour)).To(Succeed())

			ok, err := store.RotateRefreshToken(ctx, userID, "token-a", "token-b", time.Hour)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("rejects a replay of an already rotated token", func() {
			Expect(store.StoreRefreshToken(ctx, userID, "token-a", time.Hour)).To(Succeed())

			ok, err := store.RotateRefreshToken(ctx, userID, "token-a", "token-b", time.Hour)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			ok, err = store.RotateRefreshToken(ctx, userID, "token-a", "token-c", time.Hour)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())

			ok, err = store.RotateRefreshToken(ctx, userID, "token-b", "token-c", time.Hour)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("rejects rotation when no session exists", func() {
			ok, err := store.RotateRefreshToken(ctx, userID, "token-a", "token-b", time.Hour)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("rejects rotation after the session was deleted", func() {
			Expect(store.StoreRefreshToken(ctx, userID, "token-a", time.Hour)).To(Succeed())
			Expect(store.DeleteRefreshToken(ctx, userID)).To(Succeed())

			ok, err := store.RotateRefreshToken(ctx, userID, "token-a", "token-b", time.Hour)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("lets exactly one of many concurrent rotations win", func() {
			Expect(store.StoreRefreshToken(ctx, userID, "token-a", time.Hour)).To(Succeed())

			const workers = 8
			results := make(chan bool, workers)
			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(next string) {
					defer wg.Done()
					defer GinkgoRecover()
					ok, err := store.RotateRefreshToken(ctx, userID, "token-a", next, time.Hour)
					Expect(err).NotTo(HaveOccurred())
					results <- ok
				}(fmt.Sprintf("token-next-%d", i))
			}
			wg.Wait()
			close(results)

			wins := 0
			for ok := range results {
				if ok {
					wins++
				}
			}
			Expect(wins).To(Equal(1))
		})

		It("keeps one live session per user", func() {
			Expect(store.StoreRefreshToken(ctx, userID, "token-a", time.Hour)).To(Succeed())
			Expect(store.StoreRefreshToken(ctx, userID, "token-b", time.Hour)).To(Succeed())

			ok, err := store.RotateRefreshToken(ctx, userID, "token-a", "token-c", time.Hour)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("access token blacklist", func() {
		It("reports a blacklisted token until its TTL lapses", func() {
			Expect(store.BlacklistAccessToken(ctx, "access-1", time.Minute)).To(Succeed())

			revoked, err := store.IsAccessTokenBlacklisted(ctx, "access-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(revoked).To(BeTrue())

			mr.FastForward(2 * time.Minute)

			revoked, err = store.IsAccessTokenBlacklisted(ctx, "access-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(revoked).To(BeFalse())
		})

		It("does not blacklist a token that has already expired", func() {
			Expect(store.BlacklistAccessToken(ctx, "access-2", 0)).To(Succeed())

			revoked, err := store.IsAccessTokenBlacklisted(ctx, "access-2")
			Expect(err).NotTo(HaveOccurred())
			Expect(revoked).To(BeFalse())
		})

		It("does not report an unknown token", func() {
			revoked, err := store.IsAccessTokenBlacklisted(ctx, "never-seen")
			Expect(err).NotTo(HaveOccurred())
			Expect(revoked).To(BeFalse())
		})
	})

	Describe("password reset tokens", func() {
		It("redeems a stored token exactly once", func() {
			Expect(store.StorePasswordResetToken(ctx, "reset-1", 7, 15*time.Minute)).To(Succeed())

			userID, err := store.ConsumePasswordResetToken(ctx, "reset-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(userID).To(Equal(int64(7)))

			_, err = store.ConsumePasswordResetToken(ctx, "reset-1")
			Expect(err).To(MatchError(auth.ErrInvalidResetToken))
		})

		It("rejects a token past its TTL", func() {
			Expect(store.StorePasswordResetToken(ctx, "reset-2", 7, time.Minute)).To(Succeed())

			mr.FastForward(2 * time.Minute)

			_, err := store.ConsumePasswordResetToken(ctx, "reset-2")
			Expect(err).To(MatchError(auth.ErrInvalidResetToken))
		})

		It("rejects a token that was never issued", func() {
			_, err := store.ConsumePasswordResetToken(ctx, "made-up")
			Expect(err).To(MatchError(auth.ErrInvalidResetToken))
		})
	})
})
