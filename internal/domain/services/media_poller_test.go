package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/athebyme/shopsync-service/pkg/dto"
	"github.com/stretchr/testify/require"
)

func newTestPoller(gw *fakeGateway, maxAttempts int) *MediaPoller {
	poller := NewMediaPoller(gw, nopLogger{}, maxAttempts, time.Second)
	poller.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return poller
}

func TestUploadAndAwaitAllReadyImmediately(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{}
	poller := newTestPoller(gw, 5)

	media := []dto.MediaInput{
		{OriginalSource: "https://cdn.example.com/a.jpg", Alt: "a"},
		{OriginalSource: "https://cdn.example.com/b.jpg", Alt: "b"},
	}

	ready, err := poller.UploadAndAwait(context.Background(), testStore(), "p1", media)
	require.NoError(t, err)
	require.Len(t, ready, 2)
	// Все записи терминальные сразу, опрос не понадобился
	require.Equal(t, []string{"UploadMedia"}, gw.Calls)
}

func TestUploadAndAwaitPollsUntilTerminal(t *testing.T) {
	t.Parallel()

	polls := 0
	gw := &fakeGateway{
		UploadMediaFn: func(productID string, media []dto.MediaInput) ([]dto.MediaRecord, error) {
			return []dto.MediaRecord{{ID: "m1", Status: dto.MediaStatusProcessing, Alt: "a"}}, nil
		},
		ProductMediaFn: func(productID string) ([]dto.MediaRecord, error) {
			polls++
			status := dto.MediaStatusProcessing
			if polls >= 3 {
				status = dto.MediaStatusReady
			}
			return []dto.MediaRecord{{ID: "m1", Status: status, Alt: "a"}}, nil
		},
	}
	poller := newTestPoller(gw, 10)

	ready, err := poller.UploadAndAwait(context.Background(), testStore(), "p1",
		[]dto.MediaInput{{OriginalSource: "https://cdn.example.com/a.jpg"}})
	require.NoError(t, err)
	require.Len(t, ready, 1)
	require.Equal(t, 3, polls)
}

func TestUploadAndAwaitKeepsPollingWhileCollectionIncomplete(t *testing.T) {
	t.Parallel()

	polls := 0
	gw := &fakeGateway{
		UploadMediaFn: func(productID string, media []dto.MediaInput) ([]dto.MediaRecord, error) {
			return []dto.MediaRecord{
				{ID: "m1", Status: dto.MediaStatusProcessing, Alt: "a"},
				{ID: "m2", Status: dto.MediaStatusProcessing, Alt: "b"},
			}, nil
		},
		ProductMediaFn: func(productID string) ([]dto.MediaRecord, error) {
			polls++
			// Сразу после загрузки коллекция медиа еще пуста
			if polls == 1 {
				return nil, nil
			}
			return []dto.MediaRecord{
				{ID: "m1", Status: dto.MediaStatusReady, Alt: "a"},
				{ID: "m2", Status: dto.MediaStatusReady, Alt: "b"},
			}, nil
		},
	}
	poller := newTestPoller(gw, 10)

	ready, err := poller.UploadAndAwait(context.Background(), testStore(), "p1",
		[]dto.MediaInput{{OriginalSource: "a"}, {OriginalSource: "b"}})
	require.NoError(t, err)
	require.Len(t, ready, 2, "пустой первый опрос не должен завершать ожидание")
	require.Equal(t, 2, polls)
}

func TestUploadAndAwaitBudgetExhaustedReturnsReadySubset(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{
		UploadMediaFn: func(productID string, media []dto.MediaInput) ([]dto.MediaRecord, error) {
			return []dto.MediaRecord{
				{ID: "m1", Status: dto.MediaStatusReady, Alt: "a"},
				{ID: "m2", Status: dto.MediaStatusProcessing, Alt: "b"},
			}, nil
		},
		ProductMediaFn: func(productID string) ([]dto.MediaRecord, error) {
			// Вторая запись так и не дошла до терминального статуса
			return []dto.MediaRecord{
				{ID: "m1", Status: dto.MediaStatusReady, Alt: "a"},
				{ID: "m2", Status: dto.MediaStatusProcessing, Alt: "b"},
			}, nil
		},
	}
	poller := newTestPoller(gw, 3)

	ready, err := poller.UploadAndAwait(context.Background(), testStore(), "p1",
		[]dto.MediaInput{{OriginalSource: "a"}, {OriginalSource: "b"}})
	require.NoError(t, err)
	require.Len(t, ready, 1)
	require.Equal(t, "m1", ready[0].ID)
}

func TestUploadAndAwaitNeverReturnsFailed(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{
		UploadMediaFn: func(productID string, media []dto.MediaInput) ([]dto.MediaRecord, error) {
			return []dto.MediaRecord{
				{ID: "m1", Status: dto.MediaStatusReady, Alt: "a"},
				{ID: "m2", Status: dto.MediaStatusFailed, Alt: "b"},
			}, nil
		},
	}
	poller := newTestPoller(gw, 5)

	ready, err := poller.UploadAndAwait(context.Background(), testStore(), "p1",
		[]dto.MediaInput{{OriginalSource: "a"}, {OriginalSource: "b"}})
	require.NoError(t, err)
	require.Len(t, ready, 1)
	require.Equal(t, "m1", ready[0].ID)
}

func TestUploadAndAwaitUploadErrorIsFatal(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{
		UploadMediaFn: func(productID string, media []dto.MediaInput) ([]dto.MediaRecord, error) {
			return nil, errors.New("network unreachable")
		},
	}
	poller := newTestPoller(gw, 5)

	_, err := poller.UploadAndAwait(context.Background(), testStore(), "p1",
		[]dto.MediaInput{{OriginalSource: "a"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to upload media")
}

func TestUploadAndAwaitEmptyInput(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{}
	poller := newTestPoller(gw, 5)

	ready, err := poller.UploadAndAwait(context.Background(), testStore(), "p1", nil)
	require.NoError(t, err)
	require.Empty(t, ready)
	require.Empty(t, gw.Calls)
}

func TestUploadAndAwaitPollErrorDoesNotAbort(t *testing.T) {
	t.Parallel()

	polls := 0
	gw := &fakeGateway{
		UploadMediaFn: func(productID string, media []dto.MediaInput) ([]dto.MediaRecord, error) {
			return []dto.MediaRecord{{ID: "m1", Status: dto.MediaStatusProcessing}}, nil
		},
		ProductMediaFn: func(productID string) ([]dto.MediaRecord, error) {
			polls++
			if polls == 1 {
				return nil, errors.New("temporary error")
			}
			return []dto.MediaRecord{{ID: "m1", Status: dto.MediaStatusReady}}, nil
		},
	}
	poller := newTestPoller(gw, 5)

	ready, err := poller.UploadAndAwait(context.Background(), testStore(), "p1",
		[]dto.MediaInput{{OriginalSource: "a"}})
	require.NoError(t, err)
	require.Len(t, ready, 1)
}
