package worker

import (
	"log"
	"sync"
	"time"
)

// ChapterSweeper deletes chapters whose novel no longer exists
type ChapterSweeper interface {
	DeleteOrphans() (int64, error)
}

// OrphanSweeper periodically purges chapters left behind by deleted novels
type OrphanSweeper struct {
	chapters ChapterSweeper
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewOrphanSweeper creates a new orphan chapter sweeper
func NewOrphanSweeper(chapters ChapterSweeper, interval time.Duration) *OrphanSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &OrphanSweeper{
		chapters: chapters,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start runs one sweep immediately and then one per interval until Stop
func (w *OrphanSweeper) Start() {
	log.Printf("Orphan sweeper started with interval: %v", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Sweep()
	for {
		select {
		case <-ticker.C:
			w.Sweep()
		case <-w.stopChan:
			log.Println("Orphan sweeper stopped")
			return
		}
	}
}

// Stop stops the sweep loop
func (w *OrphanSweeper) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
}

// Sweep performs a single purge and returns how many chapters were removed
func (w *OrphanSweeper) Sweep() int64 {
	n, err := w.chapters.DeleteOrphans()
	if err != nil {
		log.Printf("Orphan sweeper: failed to delete orphan chapters: %v", err)
		return 0
	}
	if n > 0 {
		log.Printf("Orphan sweeper: removed %d orphan chapters", n)
	}
	return n
}
