package worker

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/novelhub/internal/models"
	"github.com/novelhub/internal/repository"
	"github.com/novelhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) DeleteOrphans() (int64, error) {
	s.calls.Add(1)
	return 0, s.err
}

func TestSweepRemovesOrphans(t *testing.T) {
	db := testutil.NewDB(t)
	author := testutil.CreateUser(t, db, "author")

	novel := &models.Novel{Title: "Kept", Description: "d", AuthorID: author.ID}
	require.NoError(t, db.Create(novel).Error)
	require.NoError(t, db.Create(&models.Chapter{NovelID: novel.ID, Title: "a", Content: "b", ChapterNumber: 1}).Error)
	require.NoError(t, db.Create(&models.Chapter{NovelID: uuid.New(), Title: "a", Content: "b", ChapterNumber: 1}).Error)

	sweeper := NewOrphanSweeper(repository.NewChapterRepository(db), time.Minute)
	assert.Equal(t, int64(1), sweeper.Sweep())
	assert.Equal(t, int64(0), sweeper.Sweep())

	var count int64
	require.NoError(t, db.Model(&models.Chapter{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSweepSurvivesErrors(t *testing.T) {
	sweeper := NewOrphanSweeper(&countingSweeper{err: errors.New("db down")}, time.Minute)
	assert.Zero(t, sweeper.Sweep())
}

func TestStartSweepsUntilStopped(t *testing.T) {
	fake := &countingSweeper{}
	sweeper := NewOrphanSweeper(fake, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		sweeper.Start()
		close(done)
	}()

	assert.Eventually(t, func() bool { return fake.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	sweeper.Stop()
	sweeper.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
