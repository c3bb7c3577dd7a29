package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_RecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	for i, cmd := range []string{"music_quiz", "personality", "music_quiz"} {
		require.NoError(t, store.Record(ctx, models.PlayRecord{
			UserID:    42,
			ChatID:    42,
			Command:   cmd,
			Kind:      models.KindQuiz,
			Status:    models.PlayStatusFinished,
			Correct:   i,
			Total:     3,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, store.Record(ctx, models.PlayRecord{
		UserID: 7, ChatID: 7, Command: "music_quiz", Kind: models.KindQuiz,
		Status: models.PlayStatusTimedOut, CreatedAt: base,
	}))

	recs, err := store.Recent(ctx, 42, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 2, recs[0].Correct)
	assert.Equal(t, 1, recs[1].Correct)
	assert.NotEmpty(t, recs[0].ID)

	other, err := store.Recent(ctx, 7, 10)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, models.PlayStatusTimedOut, other[0].Status)
}

func TestStore_Disabled(t *testing.T) {
	store, err := Open("")
	require.NoError(t, err)
	assert.False(t, store.Enabled())

	require.NoError(t, store.Record(context.Background(), models.PlayRecord{UserID: 1}))
	recs, err := store.Recent(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.NoError(t, store.Close())
}
