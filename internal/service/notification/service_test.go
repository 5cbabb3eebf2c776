package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gym-admin-service/internal/domain/event"
	"gym-admin-service/internal/domain/payment"
	"gym-admin-service/internal/domain/plan"
	"gym-admin-service/internal/domain/subscription"
	"gym-admin-service/internal/domain/user"
	"gym-admin-service/internal/repository/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func walkInEvent(t *testing.T) (*ReceiptService, *fakeMailer, event.Event) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	users := memory.NewUserRepository(store)
	plans := memory.NewPlanRepository(store)

	u := &user.User{FullName: "Jo <Student>", Email: "jo@uni.test", Category: user.CategoryStudent}
	require.NoError(t, users.Create(ctx, u))
	p := &plan.Plan{
		PlanCode:     "STU-30",
		Name:         "Student Monthly",
		UserCategory: user.CategoryStudent,
		Price:        decimal.RequireFromString("50"),
		Currency:     "KES",
		DurationDays: 30,
		IsActive:     true,
	}
	require.NoError(t, plans.Create(ctx, p))

	now := time.Now().UTC()
	sub := subscription.NewActive(u.ID, p, "SUB-RCPT", p.Price, "KES", false, now)
	sub.ID = 1
	pay := payment.NewCompleted(sub.ID, "PAY-RCPT", p.Price, "KES", payment.MethodCash, now)

	mailer := &fakeMailer{}
	svc := NewReceiptService(users, plans, mailer, 1, zap.NewNop())
	return svc, mailer, event.New(event.SubscriptionWalkInCreated, sub, pay)
}

func TestDeliverRendersReceipt(t *testing.T) {
	svc, mailer, e := walkInEvent(t)

	require.NoError(t, svc.Deliver(context.Background(), e))
	require.Equal(t, 1, mailer.count())

	mail := mailer.sent[0]
	assert.Equal(t, "jo@uni.test", mail.to)
	assert.Equal(t, "Payment receipt PAY-RCPT", mail.subject)
	assert.Contains(t, mail.body, "Jo &lt;Student&gt;")
	assert.Contains(t, mail.body, "50.00 KES")
	assert.Contains(t, mail.body, "Student Monthly")
	assert.Contains(t, mail.body, "SUB-RCPT")
}

func TestDeliverIgnoresOtherEvents(t *testing.T) {
	svc, mailer, e := walkInEvent(t)
	e.Type = event.SubscriptionExtended

	require.NoError(t, svc.Deliver(context.Background(), e))
	assert.Zero(t, mailer.count())
}

func TestPublishQueuesAndRunDelivers(t *testing.T) {
	svc, mailer, e := walkInEvent(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc.Publish(ctx, e)
	// Buffer is one; the second event is dropped rather than blocking.
	svc.Publish(ctx, e)

	go svc.Run(ctx)
	assert.Eventually(t, func() bool { return mailer.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestRunSurvivesMailerErrors(t *testing.T) {
	svc, mailer, e := walkInEvent(t)
	mailer.err = errors.New("smtp down")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()
	svc.Publish(ctx, e)

	assert.Eventually(t, func() bool { return len(svc.queue) == 0 }, time.Second, 10*time.Millisecond)
	cancel()
	<-done
	assert.Zero(t, mailer.count())
}
