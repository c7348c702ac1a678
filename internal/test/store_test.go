package test_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/framehaus/framedesk/internal"
	"github.com/framehaus/framedesk/internal/model"
)

func testOrder(id, status string, ts time.Time) model.Order {
	return model.Order{
		ID:        id,
		Timestamp: ts,
		Source:    model.OrderSourceDirect,
		Status:    status,
		Items: []model.Item{{
			ItemNumber:   "LJ123456",
			Size:         model.Size{Width: decimal.NewFromInt(16), Height: decimal.NewFromInt(20)},
			Preparedness: model.PreparednessJoin,
			Quantity:     1,
		}},
	}
}

var _ = Describe("FileStore", func() {
	var (
		dir   string
		store *internal.FileStore
		ctx   context.Context
	)
	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "framedesk-store")
		Expect(err).ShouldNot(HaveOccurred())

		logger, err := zap.NewDevelopment()
		Expect(err).ShouldNot(HaveOccurred())

		store, err = internal.NewFileStore(dir, logger.Sugar())
		Expect(err).ShouldNot(HaveOccurred())

		ctx = context.Background()
	})
	AfterEach(func() {
		os.RemoveAll(dir)
	})
	Context("Create and Get", func() {
		It("round-trips a record", func() {
			o := testOrder("abc123", model.OrderStatusPending, time.Now())

			err := store.Create(ctx, o)
			Expect(err).ShouldNot(HaveOccurred())

			got, err := store.Get(ctx, "abc123")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(got.ID).To(Equal("abc123"))
			Expect(got.Status).To(Equal(model.OrderStatusPending))
			Expect(got.Items).To(HaveLen(1))
			Expect(got.Items[0].Size.Width.Equal(decimal.NewFromInt(16))).To(BeTrue())
		})
		It("rejects a duplicate id", func() {
			o := testOrder("abc123", model.OrderStatusPending, time.Now())

			err := store.Create(ctx, o)
			Expect(err).ShouldNot(HaveOccurred())

			err = store.Create(ctx, o)
			Expect(err).Should(Equal(internal.ErrDuplicateOrderID))
		})
		It("returns not found for an unknown id", func() {
			_, err := store.Get(ctx, "nope")
			Expect(err).Should(Equal(internal.ErrOrderNotFound))
		})
		It("refuses ids that would escape the directory", func() {
			_, err := store.Get(ctx, "../evil")
			Expect(err).Should(Equal(internal.ErrOrderNotFound))
		})
	})
	Context("Update", func() {
		It("applies the mutation and persists it", func() {
			err := store.Create(ctx, testOrder("abc123", model.OrderStatusPending, time.Now()))
			Expect(err).ShouldNot(HaveOccurred())

			updated, err := store.Update(ctx, "abc123", func(o *model.Order) error {
				o.Status = model.OrderStatusProcessing
				return nil
			})
			Expect(err).ShouldNot(HaveOccurred())
			Expect(updated.Status).To(Equal(model.OrderStatusProcessing))

			got, err := store.Get(ctx, "abc123")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(got.Status).To(Equal(model.OrderStatusProcessing))
		})
		It("leaves the record untouched when the mutator fails", func() {
			err := store.Create(ctx, testOrder("abc123", model.OrderStatusPending, time.Now()))
			Expect(err).ShouldNot(HaveOccurred())

			_, err = store.Update(ctx, "abc123", func(o *model.Order) error {
				o.Status = model.OrderStatusCompleted
				return internal.ErrInvalidTransition
			})
			Expect(err).Should(Equal(internal.ErrInvalidTransition))

			got, err := store.Get(ctx, "abc123")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(got.Status).To(Equal(model.OrderStatusPending))
		})
		It("returns not found for an unknown id", func() {
			_, err := store.Update(ctx, "nope", func(o *model.Order) error { return nil })
			Expect(err).Should(Equal(internal.ErrOrderNotFound))
		})
	})
	Context("Delete", func() {
		It("removes the record and is idempotent", func() {
			err := store.Create(ctx, testOrder("abc123", model.OrderStatusCompleted, time.Now()))
			Expect(err).ShouldNot(HaveOccurred())

			Expect(store.Delete(ctx, "abc123")).Should(Succeed())

			_, err = store.Get(ctx, "abc123")
			Expect(err).Should(Equal(internal.ErrOrderNotFound))

			Expect(store.Delete(ctx, "abc123")).Should(Succeed())
		})
	})
	Context("List", func() {
		It("filters by status and sorts newest first", func() {
			now := time.Now()
			Expect(store.Create(ctx, testOrder("old-failed", model.OrderStatusFailed, now.Add(-2*time.Hour)))).Should(Succeed())
			Expect(store.Create(ctx, testOrder("new-failed", model.OrderStatusFailed, now))).Should(Succeed())
			Expect(store.Create(ctx, testOrder("done", model.OrderStatusCompleted, now.Add(-time.Hour)))).Should(Succeed())

			failed, err := store.List(ctx, model.OrderStatusFailed)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(failed).To(HaveLen(2))
			Expect(failed[0].ID).To(Equal("new-failed"))
			Expect(failed[1].ID).To(Equal("old-failed"))

			all, err := store.List(ctx, "")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(all).To(HaveLen(3))
			Expect(all[0].ItemCount).To(Equal(1))
		})
		It("skips unreadable records instead of failing the listing", func() {
			Expect(store.Create(ctx, testOrder("good", model.OrderStatusPending, time.Now()))).Should(Succeed())

			err := os.WriteFile(filepath.Join(dir, "corrupt.json"), []byte("{not json"), 0o644)
			Expect(err).ShouldNot(HaveOccurred())

			all, err := store.List(ctx, "")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(all).To(HaveLen(1))
			Expect(all[0].ID).To(Equal("good"))
		})
	})
	Context("Entries", func() {
		It("reports every record file with its age", func() {
			Expect(store.Create(ctx, testOrder("one", model.OrderStatusPending, time.Now()))).Should(Succeed())
			Expect(store.Create(ctx, testOrder("two", model.OrderStatusCompleted, time.Now()))).Should(Succeed())

			entries, err := store.Entries(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(entries).To(HaveLen(2))

			ids := []string{entries[0].ID, entries[1].ID}
			Expect(ids).To(ConsistOf("one", "two"))
		})
	})
})
