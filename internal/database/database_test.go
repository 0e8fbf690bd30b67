package database

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func memoryDialector(opened *int32) func() gorm.Dialector {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	return func() gorm.Dialector {
		atomic.AddInt32(opened, 1)
		return sqlite.Open(dsn)
	}
}

func TestConnOpensOnceUnderConcurrentFirstUse(t *testing.T) {
	var opened int32
	conn := NewConn(memoryDialector(&opened), nil)

	var wg sync.WaitGroup
	handles := make([]*gorm.DB, 16)
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			db, err := conn.DB()
			assert.NoError(t, err)
			handles[i] = db
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&opened))
	for _, h := range handles {
		assert.Same(t, handles[0], h)
	}
	require.NoError(t, conn.Close())
}

func TestConnCloseRejectsLaterUse(t *testing.T) {
	var opened int32
	conn := NewConn(memoryDialector(&opened), nil)

	db, err := conn.DB()
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())

	_, err = conn.DB()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCloseBeforeOpenIsNoop(t *testing.T) {
	var opened int32
	conn := NewConn(memoryDialector(&opened), nil)
	assert.NoError(t, conn.Close())
	assert.Equal(t, int32(0), atomic.LoadInt32(&opened))
}
