//go:build integration

package jobstate

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/voicediary/composite/internal/datastore"
	"github.com/voicediary/composite/internal/logger"
)

// setupMySQLStore starts a disposable MySQL server so the FOR UPDATE path of
// Acquire runs against a real row-locking engine.
func setupMySQLStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	container, err := tcmysql.Run(ctx, "mysql:8.0.36",
		tcmysql.WithDatabase("composite"),
		tcmysql.WithUsername("composite"),
		tcmysql.WithPassword("composite"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	log := logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
	mgr, err := datastore.NewMySQLManager(&datastore.MySQLConfig{
		Host:     host,
		Port:     port.Port(),
		Username: "composite",
		Password: "composite",
		Database: "composite",
		Logger:   log,
	})
	require.NoError(t, err)
	require.NoError(t, mgr.Initialize())
	t.Cleanup(func() { _ = mgr.Close() })

	return NewStore(mgr.DB(), time.Minute, WithLogger(log))
}

func TestMySQLStore_BarrierSingleWinner(t *testing.T) {
	s := setupMySQLStore(t)
	ctx := context.Background()

	const recordings = 20
	var winners atomic.Int32
	var wg sync.WaitGroup
	for id := uint64(1); id <= recordings; id++ {
		for _, side := range []Side{SideText, SideAudio} {
			wg.Add(1)
			go func(id uint64, side Side) {
				defer wg.Done()
				_, err := s.MarkDone(ctx, id, side)
				if !assert.NoError(t, err) {
					return
				}
				if lease, err := s.Acquire(ctx, id, ModeBarrier); err == nil {
					winners.Add(1)
					assert.NoError(t, s.Release(ctx, lease, nil))
				}
			}(id, side)
		}
	}
	wg.Wait()

	assert.Equal(t, int32(recordings), winners.Load())
	ready, err := s.ListReady(ctx, recordings)
	require.NoError(t, err)
	assert.Empty(t, ready)
}
