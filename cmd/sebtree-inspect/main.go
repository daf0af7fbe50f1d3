// Command sebtree-inspect opens a sebtree page file, creates or loads the
// root leaf node, applies any requested inserts, and prints a debug dump of
// the resulting page. It doubles as a smoke-test harness for the page
// cache and node packages against a real file on disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/arvindsridhar/sebtree/internal/pagecache"
	"github.com/arvindsridhar/sebtree/pkg/logger"
	"github.com/arvindsridhar/sebtree/pkg/telemetry"
	"github.com/arvindsridhar/sebtree/sebtree/encoders"
	"github.com/arvindsridhar/sebtree/sebtree/node"
)

var (
	dbFile      = flag.String("db", "sebtree.db", "path to the page file to open or create")
	create      = flag.Bool("create", false, "create a new page file; fails if the file already exists")
	pageSize    = flag.Int("page_size", pagecache.DefaultPageSize, "page size in bytes, must match the file's page size when opening")
	poolSize    = flag.Int("pool_size", 16, "number of page frames held resident in the buffer pool")
	inlineKeys  = flag.Int("inline_keys_threshold", 64, "maximum encoded key size stored inline in the page")
	inlineVals  = flag.Int("inline_values_threshold", 64, "maximum encoded value size stored inline in the page")
	insertsFlag = flag.String("insert", "", "comma-separated key=value pairs to insert into the root leaf, e.g. a=1,b=2")
	metricsAddr = flag.String("metrics_addr", "", "address to serve Prometheus /metrics on, e.g. :9090; empty disables it")
	logLevel    = flag.String("log_level", "info", "log level (debug, info, warn, error)")
)

func main() {
	flag.Parse()

	zlogger, err := logger.New(logger.Config{
		Level:      *logLevel,
		Format:     "console",
		OutputFile: "stdout",
		Component:  "sebtree-inspect",
	})
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer zlogger.Sync()

	tel, shutdownTelemetry, err := telemetry.New(telemetry.Config{
		Enabled:        *metricsAddr != "",
		ServiceName:    "sebtree-inspect",
		PrometheusPort: prometheusPort(*metricsAddr),
	})
	if err != nil {
		zlogger.Fatal("setting up telemetry", zap.Error(err))
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			zlogger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	instruments, err := tel.PageCacheInstruments()
	if err != nil {
		zlogger.Fatal("building page cache instruments", zap.Error(err))
	}

	dm := pagecache.NewDiskManager(*dbFile, *pageSize)
	header, err := dm.OpenOrCreate(*create)
	if err != nil {
		zlogger.Fatal("opening page file", zap.String("path", *dbFile), zap.Error(err))
	}
	defer dm.Close()

	bpm := pagecache.NewBufferPoolManager(*poolSize, dm,
		pagecache.WithLogger(logger.Named(zlogger, "pagecache")),
		pagecache.WithInstruments(instruments))

	var page *pagecache.Page
	var rootID pagecache.PageID
	creating := header.RootPageID == pagecache.InvalidPageID
	if creating {
		page, rootID, err = bpm.NewPage()
		if err != nil {
			zlogger.Fatal("allocating root page", zap.Error(err))
		}
		if err := dm.UpdateHeader(func(h *pagecache.FileHeader) { h.RootPageID = rootID }); err != nil {
			zlogger.Fatal("persisting root page id", zap.Error(err))
		}
	} else {
		rootID = header.RootPageID
		page, err = bpm.FetchPage(rootID)
		if err != nil {
			zlogger.Fatal("fetching root page", zap.String("page_id", fmt.Sprint(rootID)), zap.Error(err))
		}
	}

	config := node.Config{
		PageBytes:             *pageSize,
		InlineKeysThreshold:   *inlineKeys,
		InlineValuesThreshold: *inlineVals,
	}
	keyProvider := encoders.NewConstantProvider[string](encoders.NewStringEncoder(*inlineKeys), 15)
	valueProvider := encoders.NewConstantProvider[string](encoders.NewStringEncoder(*inlineVals), 15)
	root := node.New[string, string](page, config, keyProvider, valueProvider, strings.Compare)

	if _, err := tel.NewNodeInstruments(func() int64 { return int64(root.GetFreeBytes()) }); err != nil {
		zlogger.Warn("building node instruments", zap.Error(err))
	}

	if creating {
		root.BeginCreate()
		if err := root.Create(true); err != nil {
			zlogger.Fatal("creating root leaf", zap.Error(err))
		}
		root.EndWrite()
		zlogger.Info("created root leaf", zap.Uint64("page_id", uint64(rootID)))
	}

	if pairs := parseInserts(*insertsFlag); len(pairs) > 0 {
		w, err := root.BeginWrite()
		if err != nil {
			zlogger.Fatal("beginning write session", zap.Error(err))
		}
		for _, kv := range pairs {
			// StringEncoder writes a 4-byte length prefix ahead of the bytes.
			keySize, valueSize := 4+len(kv.key), 4+len(kv.value)
			entrySize := w.FullEntrySize(keySize, valueSize)
			if err := w.CheckEntrySize(entrySize); err != nil {
				zlogger.Error("entry too large, skipping", zap.String("key", kv.key), zap.Error(err))
				continue
			}
			if !w.DeltaFits(entrySize) {
				zlogger.Error("page full, skipping remaining inserts", zap.String("key", kv.key))
				break
			}
			searchIndex := w.IndexOf(kv.key)
			if node.IsInsertionPoint(searchIndex) {
				w.InsertValue(searchIndex, kv.key, keySize, kv.value, valueSize)
			} else {
				w.UpdateValue(searchIndex, kv.value, valueSize, w.ValueSizeAt(searchIndex))
			}
		}
		w.EndWrite()
	}

	if err := bpm.UnpinPage(rootID, true); err != nil {
		zlogger.Warn("unpinning root page", zap.Error(err))
	}
	if err := bpm.FlushAllPages(); err != nil {
		zlogger.Fatal("flushing pages", zap.Error(err))
	}

	r, err := root.BeginRead()
	if err != nil {
		zlogger.Fatal("beginning read session for dump", zap.Error(err))
	}
	r.Dump(os.Stdout, 0)
	r.EndRead()

	if *metricsAddr != "" {
		zlogger.Info("serving metrics", zap.String("addr", *metricsAddr))
		waitForSignal()
	}
}

type kvPair struct {
	key, value string
}

// parseInserts splits the -insert flag's "k=v,k2=v2" syntax into ordered
// pairs, skipping malformed entries instead of aborting the whole run.
func parseInserts(raw string) []kvPair {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var pairs []kvPair
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		k, v, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		pairs = append(pairs, kvPair{key: k, value: v})
	}
	return pairs
}

// prometheusPort extracts the numeric port from an addr like ":9090", or 0
// if addr is empty (telemetry.New treats Enabled=false as authoritative).
func prometheusPort(addr string) int {
	_, portStr, ok := strings.Cut(addr, ":")
	if !ok {
		return 0
	}
	var port int
	fmt.Sscanf(portStr, "%d", &port)
	return port
}

// waitForSignal blocks until SIGINT or SIGTERM so the metrics server started
// by telemetry.New keeps serving until the operator is done inspecting it.
func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}
