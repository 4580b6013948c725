package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"svsboard/pkg/confirm"
	"svsboard/pkg/ocr"
	"svsboard/pkg/pipeline"
	"svsboard/pkg/store"
)

// ingestwatch back-fills leaderboard screenshots from a directory: every
// image is run through the pipeline and auto-accept tier results are
// committed. Lower tiers need a human and are only logged here.

var verbose bool

var extSupported = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
}

func main() {
	dirFlag := flag.String("dir", "screenshots", "directory to scan for leaderboard screenshots")
	submitter := flag.String("submitter-id", "", "submitter id the screenshots belong to")
	community := flag.String("community-id", "", "community scope for correction memory")
	dryRun := flag.Bool("dry-run", false, "run extraction but skip all DB writes")
	watch := flag.Bool("watch", false, "watch directory for new files")
	workers := flag.Int("workers", 0, "worker pool size (default NumCPU)")
	flag.BoolVar(&verbose, "verbose", false, "verbose per-file logging")
	flag.Parse()

	if *submitter == "" || *community == "" {
		log.Fatal("--submitter-id and --community-id are required")
	}

	cfg := pipeline.FromEnv()
	var db *gorm.DB
	if !*dryRun {
		db = mustInitDBFromEnv()
	}
	corrections, err := store.OpenCorrections(cfg.CorrectionsPath)
	if err != nil {
		log.Fatalf("open corrections: %v", err)
	}
	chain := ocr.NewChain(
		ocr.NewTesseract(cfg.OCRLanguage),
		ocr.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel),
	)

	ing := &ingester{
		pipe:      pipelineOrNil(cfg, db, chain, corrections, *dryRun),
		dir:       *dirFlag,
		submitter: *submitter,
		community: *community,
		dryRun:    *dryRun,
		chain:     chain,
	}

	files := listImageFiles(*dirFlag)
	log.Printf("Scanning %d files (workers=%d)", len(files), effectiveWorkers(*workers))
	ing.runPool(files, effectiveWorkers(*workers))

	if *watch {
		if err := ing.watchDirectory(); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
}

func pipelineOrNil(cfg pipeline.Config, db *gorm.DB, chain *ocr.Chain, corrections *store.Corrections, dryRun bool) *pipeline.Pipeline {
	if dryRun {
		return nil
	}
	return pipeline.New(cfg, db, chain, corrections)
}

func mustInitDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatalf("DB_DSN must be set in environment to run this tool")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return gdb
}

type ingester struct {
	pipe      *pipeline.Pipeline
	chain     *ocr.Chain
	dir       string
	submitter string
	community string
	dryRun    bool
}

func (in *ingester) runPool(files []string, workers int) {
	fileCh := make(chan string, len(files))
	for _, f := range files {
		fileCh <- f
	}
	close(fileCh)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range fileCh {
				in.processFile(f)
			}
		}()
	}
	wg.Wait()
}

func (in *ingester) processFile(name string) {
	path := filepath.Join(in.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("read %s: %v", name, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if in.dryRun {
		img, err := ocr.Prepare(data)
		if err != nil {
			log.Printf("%s: %v", name, err)
			return
		}
		lines, err := ocr.DetectRegions(ctx, in.chain, img, ocr.ProposeRegions(img))
		if err != nil {
			log.Printf("%s: %v", name, err)
			return
		}
		logV("%s: %d lines", name, len(lines))
		return
	}

	out, err := in.pipe.Process(ctx, pipeline.RawSubmission{
		SubmitterID: in.submitter,
		CommunityID: in.community,
		Image:       data,
		ReceivedAt:  time.Now(),
	})
	if err != nil {
		log.Printf("%s: pipeline failed: %v", name, err)
		return
	}
	switch out.State {
	case confirm.StateAutoAccepted:
		score, _ := out.Record.Score()
		log.Printf("%s: accepted score=%d overall=%.3f", name, score, out.Record.Overall)
	default:
		// batch mode has nobody to click a confirmation; drop the session
		_, _ = in.pipe.Resolve(out.SubmissionID, confirm.ActionCancel, nil)
		log.Printf("%s: skipped (%s, overall=%.3f), needs interactive review", name, out.State, out.Record.Overall)
	}
}

func (in *ingester) watchDirectory() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(in.dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", in.dir)

	// simple debounce map of pending files
	pending := map[string]time.Time{}
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create == fsnotify.Create {
				name := filepath.Base(ev.Name)
				if !isSupportedExt(name) {
					continue
				}
				pending[name] = time.Now()
			}
		case <-ticker.C:
			now := time.Now()
			for name, t := range pending {
				if now.Sub(t) > 300*time.Millisecond { // file write settled
					delete(pending, name)
					in.processFile(name)
				}
			}
		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", werr)
		}
	}
}

func listImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func isSupportedExt(name string) bool {
	return extSupported[strings.ToLower(filepath.Ext(name))]
}

func effectiveWorkers(w int) int {
	if w <= 0 {
		return runtime.NumCPU()
	}
	return w
}

func logV(format string, args ...any) {
	if verbose {
		log.Printf(format, args...)
	}
}
