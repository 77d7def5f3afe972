package aof

import (
	"bufio"
	"context"
	"os"
	"sync"
	"time"

	"github.com/R3E-Network/cachegrid/infrastructure/logging"
)

// FsyncPolicy selects how aggressively the writer forces data to disk
// (spec §4.7).
type FsyncPolicy string

const (
	FsyncAlways   FsyncPolicy = "always"
	FsyncEverysec FsyncPolicy = "everysec"
	FsyncNo       FsyncPolicy = "no"
)

// Config carries the Writer's construction parameters.
type Config struct {
	Path             string
	Policy           FsyncPolicy // default everysec
	RewriteThreshold int64       // bytes; default 64MiB
	Logger           *logging.Logger
}

const DefaultRewriteThreshold = 64 << 20

func (c *Config) setDefaults() {
	if c.Policy == "" {
		c.Policy = FsyncEverysec
	}
	if c.RewriteThreshold <= 0 {
		c.RewriteThreshold = DefaultRewriteThreshold
	}
}

// Writer appends records to the log file under the configured fsync
// policy (spec §4.7, §5: "Log flush suspends for I/O only in always mode;
// everysec flushes on a timer task; no never suspends").
type Writer struct {
	cfg Config
	log *logging.Logger

	mu   sync.Mutex
	file *os.File
	bw   *bufio.Writer
	size int64

	stop chan struct{}
	wg   sync.WaitGroup
}

// Open creates or appends to the log file at cfg.Path and, in everysec
// mode, starts the background flush ticker.
func Open(cfg Config) (*Writer, error) {
	cfg.setDefaults()
	log := cfg.Logger
	if log == nil {
		log = logging.New("aof", "info", "json")
	}

	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	w := &Writer{
		cfg:  cfg,
		log:  log,
		file: f,
		bw:   bufio.NewWriter(f),
		size: info.Size(),
		stop: make(chan struct{}),
	}
	if cfg.Policy == FsyncEverysec {
		w.wg.Add(1)
		go w.flushLoop()
	}
	return w, nil
}

// Append serialises and writes r, applying the configured fsync policy.
// A failed buffered write is returned in every mode; in always mode a failed
// flush or fsync is returned as well. Write failures are not counted, and a
// failed background flush in everysec mode is only logged.
func (w *Writer) Append(r Record) error {
	line := Encode(r) + "\n"

	w.mu.Lock()
	defer w.mu.Unlock()
	n, err := w.bw.WriteString(line)
	w.size += int64(n)
	if err != nil {
		return err
	}
	if w.cfg.Policy == FsyncAlways {
		if err := w.bw.Flush(); err != nil {
			return err
		}
		return w.file.Sync()
	}
	return nil
}

// Size returns the current on-disk-plus-buffered byte size, compared
// against RewriteThreshold to decide when compaction runs.
func (w *Writer) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// NeedsCompaction reports whether Size() has crossed the rewrite threshold.
func (w *Writer) NeedsCompaction() bool {
	return w.Size() >= w.cfg.RewriteThreshold
}

func (w *Writer) flushLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.flushAndSync()
		case <-w.stop:
			w.flushAndSync()
			return
		}
	}
}

func (w *Writer) flushAndSync() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.bw.Flush(); err != nil {
		w.log.Warn(context.Background(), "aof flush failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := w.file.Sync(); err != nil {
		w.log.Warn(context.Background(), "aof fsync failed", map[string]interface{}{"error": err.Error()})
	}
}

// Close stops the flush ticker (if running), flushes, and closes the file.
func (w *Writer) Close() error {
	if w.cfg.Policy == FsyncEverysec {
		close(w.stop)
		w.wg.Wait()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.bw.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
