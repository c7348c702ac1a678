package test_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/framehaus/framedesk/internal"
)

var _ = Describe("WithRetry", func() {
	opts := internal.RetryOptions{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}

	It("returns immediately on success", func() {
		calls := 0
		err := internal.WithRetry(context.Background(), opts, func() error {
			calls++
			return nil
		})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(calls).To(Equal(1))
	})
	It("retries transient failures until one succeeds", func() {
		calls := 0
		err := internal.WithRetry(context.Background(), opts, func() error {
			calls++
			if calls < 3 {
				return errors.New("flaky")
			}
			return nil
		})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(calls).To(Equal(3))
	})
	It("returns the last error once retries are exhausted", func() {
		calls := 0
		err := internal.WithRetry(context.Background(), opts, func() error {
			calls++
			return errors.New("still down")
		})
		Expect(err).Should(MatchError("still down"))
		Expect(calls).To(Equal(4))
	})
	It("stops waiting when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := internal.WithRetry(ctx, opts, func() error {
			return errors.New("down")
		})
		Expect(err).Should(Equal(context.Canceled))
	})
})
