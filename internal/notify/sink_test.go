package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type memStore struct {
	mu    sync.Mutex
	saved []domain.Notification
}

func (s *memStore) Create(_ context.Context, n *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, *n)
	return nil
}

type users map[string]*domain.User

func (u users) GetByID(_ context.Context, id string) (*domain.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, &domain.NotFoundError{Kind: "user", ID: id}
}

type mockSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (m *mockSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	return &ses.SendEmailOutput{}, nil
}

func TestSESSender_BuildsMessage(t *testing.T) {
	client := &mockSES{}
	sender := NewSESSenderWithClient(client, "onboarding@example.com")

	require.NoError(t, sender.SendEmail(context.Background(), "ada@example.com", "Task ready: Badge", "body"))
	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, []string{"ada@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "Task ready: Badge", *in.Message.Subject.Data)
	assert.Equal(t, "body", *in.Message.Body.Text.Data)
	assert.Equal(t, "onboarding@example.com", *in.Source)
}

func TestEmailSink_ResolvesRecipient(t *testing.T) {
	client := &mockSES{}
	sink := NewEmailSink(users{
		"u-1": {ID: "u-1", Email: "ada@example.com"},
		"u-2": {ID: "u-2"},
	}, NewSESSenderWithClient(client, "from@example.com"))
	ctx := context.Background()

	require.NoError(t, sink.Send(ctx, domain.Notification{RecipientID: "u-1", Title: "t", Body: "b"}))
	assert.Len(t, client.inputs, 1)

	err := sink.Send(ctx, domain.Notification{RecipientID: "u-2"})
	assert.ErrorIs(t, err, ErrNoEmailAddress)

	var nf *domain.NotFoundError
	assert.ErrorAs(t, sink.Send(ctx, domain.Notification{RecipientID: "u-9"}), &nf)
}

func TestChannelSink_EmailFailureKeepsInApp(t *testing.T) {
	store := &memStore{}
	client := &mockSES{err: errors.New("throttled")}
	sink := &ChannelSink{
		InApp: NewInAppSink(store),
		Email: NewEmailSink(users{"u-1": {ID: "u-1", Email: "ada@example.com"}}, NewSESSenderWithClient(client, "x@example.com")),
	}

	err := sink.Send(context.Background(), domain.Notification{ID: "n-1", RecipientID: "u-1", SendEmail: true, SendInApp: true})
	require.Error(t, err)
	require.Len(t, store.saved, 1)
	assert.False(t, store.saved[0].EmailSent)
}

func TestChannelSink_RoutesByFlags(t *testing.T) {
	store := &memStore{}
	client := &mockSES{}
	sink := &ChannelSink{
		InApp: NewInAppSink(store),
		Email: NewEmailSink(users{"u-1": {ID: "u-1", Email: "ada@example.com"}}, NewSESSenderWithClient(client, "x@example.com")),
	}
	ctx := context.Background()

	require.NoError(t, sink.Send(ctx, domain.Notification{ID: "n-1", RecipientID: "u-1", SendEmail: true, SendInApp: true}))
	require.Len(t, store.saved, 1)
	assert.True(t, store.saved[0].EmailSent)

	require.NoError(t, sink.Send(ctx, domain.Notification{ID: "n-2", RecipientID: "u-1", SendEmail: true}))
	assert.Len(t, store.saved, 1)
	assert.Len(t, client.inputs, 2)

	require.NoError(t, sink.Send(ctx, domain.Notification{ID: "n-3", RecipientID: "u-1", SendInApp: true}))
	assert.Len(t, store.saved, 2)
	assert.Len(t, client.inputs, 2)
}

func TestAsyncSink_DeliversAndDrains(t *testing.T) {
	store := &memStore{}
	metrics := NewMetrics(prometheus.NewRegistry())
	sink := NewAsyncSink(context.Background(), NewInAppSink(store), 3, 16, zaptest.NewLogger(t), metrics)

	for i := 0; i < 10; i++ {
		require.NoError(t, sink.Send(context.Background(), domain.Notification{RecipientID: "u-1"}))
	}
	sink.Close()

	assert.Len(t, store.saved, 10)
	assert.Equal(t, 10.0, testutil.ToFloat64(metrics.Delivered))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.Queued))

	// Sends after Close are dropped, not panics.
	require.NoError(t, sink.Send(context.Background(), domain.Notification{RecipientID: "u-1"}))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Dropped))
}

func TestAsyncSink_DropsWhenFull(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	var delivered int
	var mu sync.Mutex
	blocking := SinkFunc(func(context.Context, domain.Notification) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		mu.Lock()
		delivered++
		mu.Unlock()
		return nil
	})
	metrics := NewMetrics(nil)
	sink := NewAsyncSink(context.Background(), blocking, 1, 1, zaptest.NewLogger(t), metrics)

	require.NoError(t, sink.Send(context.Background(), domain.Notification{ID: "1"}))
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the first notification")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = sink.Send(context.Background(), domain.Notification{ID: "2"})
		_ = sink.Send(context.Background(), domain.Notification{ID: "3"})
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Send blocked on a full queue")
	}

	close(release)
	sink.Close()
	assert.Equal(t, 2, delivered)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Dropped))
}

func TestAsyncSink_CountsFailures(t *testing.T) {
	metrics := NewMetrics(nil)
	failing := SinkFunc(func(context.Context, domain.Notification) error { return errors.New("boom") })
	sink := NewAsyncSink(context.Background(), failing, 1, 4, zaptest.NewLogger(t), metrics)

	require.NoError(t, sink.Send(context.Background(), domain.Notification{ID: "1"}))
	sink.Close()
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Failed))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.Delivered))
}
