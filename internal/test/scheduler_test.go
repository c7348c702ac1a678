package test_test

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/golang/mock/gomock"
	"go.uber.org/zap"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/framehaus/framedesk/internal"
	mock_internal "github.com/framehaus/framedesk/internal/mock"
	"github.com/framehaus/framedesk/internal/model"
)

var _ = Describe("Scheduler", func() {
	var (
		dir        string
		store      *internal.FileStore
		ctrl       *gomock.Controller
		automation *mock_internal.MockIAutomation
		scheduler  *internal.Scheduler
		ctx        context.Context
	)
	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "framedesk-scheduler")
		Expect(err).ShouldNot(HaveOccurred())

		logger, err := zap.NewDevelopment()
		Expect(err).ShouldNot(HaveOccurred())

		store, err = internal.NewFileStore(dir, logger.Sugar())
		Expect(err).ShouldNot(HaveOccurred())

		ctrl = gomock.NewController(GinkgoT())
		automation = mock_internal.NewMockIAutomation(ctrl)

		engine := internal.NewEngine(store, automation, internal.NewMetrics(), logger.Sugar())
		scheduler = internal.NewScheduler(store, engine, logger.Sugar())
		ctx = context.Background()
	})
	AfterEach(func() {
		ctrl.Finish()
		os.RemoveAll(dir)
	})

	approved := func(id string, ts time.Time) model.Order {
		o := testOrder(id, model.OrderStatusApprovedForSchedule, ts)
		o.Source = model.OrderSourcePOS
		o.Scheduled = true
		return o
	}

	It("reports an empty run when nothing is approved", func() {
		Expect(store.Create(ctx, testOrder("pending-1", model.OrderStatusPending, time.Now()))).Should(Succeed())
		Expect(store.Create(ctx, testOrder("waiting-1", model.OrderStatusAwaitingApproval, time.Now()))).Should(Succeed())

		report, err := scheduler.RunOnce(ctx)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(report.ProcessedCount).To(Equal(0))
	})
	It("processes only approved scheduled orders, oldest first", func() {
		now := time.Now()
		Expect(store.Create(ctx, approved("pos-newer", now))).Should(Succeed())
		Expect(store.Create(ctx, approved("pos-older", now.Add(-time.Hour)))).Should(Succeed())
		Expect(store.Create(ctx, testOrder("pending-1", model.OrderStatusPending, now))).Should(Succeed())

		var processed []string
		automation.EXPECT().Process(ctx, gomock.Any()).Times(2).
			DoAndReturn(func(ctx context.Context, _ []model.Item) error {
				orders, err := store.All(ctx)
				Expect(err).ShouldNot(HaveOccurred())
				for _, o := range orders {
					if o.Status == model.OrderStatusProcessing {
						processed = append(processed, o.ID)
					}
				}
				return nil
			})

		report, err := scheduler.RunOnce(ctx)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(report.ProcessedCount).To(Equal(2))
		Expect(report.SuccessCount).To(Equal(2))
		Expect(report.FailureCount).To(Equal(0))
		Expect(processed).To(Equal([]string{"pos-older", "pos-newer"}))

		// the pending direct order was left alone
		order, err := store.Get(ctx, "pending-1")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(order.Status).To(Equal(model.OrderStatusPending))
	})
	It("isolates a failing order and keeps processing the rest", func() {
		now := time.Now()
		Expect(store.Create(ctx, approved("pos-bad", now.Add(-time.Hour)))).Should(Succeed())
		Expect(store.Create(ctx, approved("pos-good", now))).Should(Succeed())

		bad := automation.EXPECT().Process(ctx, gomock.Any()).Return(errors.New("cart rejected"))
		automation.EXPECT().Process(ctx, gomock.Any()).After(bad).Return(nil)

		report, err := scheduler.RunOnce(ctx)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(report.ProcessedCount).To(Equal(2))
		Expect(report.SuccessCount).To(Equal(1))
		Expect(report.FailureCount).To(Equal(1))
		Expect(report.Errors).To(HaveLen(1))
		Expect(report.Errors[0].ID).To(Equal("pos-bad"))

		failed, err := store.Get(ctx, "pos-bad")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(failed.Status).To(Equal(model.OrderStatusFailed))
		Expect(failed.Error).To(ContainSubstring("cart rejected"))

		ok, err := store.Get(ctx, "pos-good")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(ok.Status).To(Equal(model.OrderStatusCompleted))
	})
	It("picks up an order approved through the service", func() {
		logger, err := zap.NewDevelopment()
		Expect(err).ShouldNot(HaveOccurred())

		queue := mock_internal.NewMockEnqueuer(ctrl)
		srv := internal.NewService(store, queue, internal.NewMetrics(), logger.Sugar())

		res, err := srv.SubmitPosOrder(ctx, validPosInput())
		Expect(err).ShouldNot(HaveOccurred())

		_, err = srv.ApproveOrder(ctx, res.ID)
		Expect(err).ShouldNot(HaveOccurred())

		automation.EXPECT().Process(ctx, gomock.Any()).Return(nil)

		report, err := scheduler.RunOnce(ctx)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(report.ProcessedCount).To(Equal(1))

		order, err := store.Get(ctx, res.ID)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(order.Status).To(Equal(model.OrderStatusCompleted))
	})
})
