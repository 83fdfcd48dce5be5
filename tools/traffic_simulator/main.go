package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/config"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/db"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/observability"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	server          string
	viewers         int
	totalReq        int
	conc            int
	duration        time.Duration
	rate            float64
	interactionRate float64
	stats           bool
	flush           bool
	redisAddr       string
	debug           bool
	label           string
	surgeInterval   time.Duration
	surgeDuration   time.Duration
	surgeMultiplier float64
	jitter          float64
)

var logger *zap.Logger

// HTTP client with proper resource limits
var httpClient *http.Client

var userAgents = []string{
	// Mobile
	"Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 12; Pixel 6 Pro) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.5735.196 Mobile Safari/537.36",
	"Mozilla/5.0 (Linux; Android 11; SAMSUNG SM-G991B) AppleWebKit/537.36 (KHTML, like Gecko) SamsungBrowser/15.0 Chrome/94.0.4606.61 Mobile Safari/537.36",
	"Mozilla/5.0 (iPad; CPU OS 15_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.2 Mobile/15E148 Safari/604.1",

	// Desktop
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_3_1) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:111.0) Gecko/20100101 Firefox/111.0",
}

var viewerIPs = []string{
	"192.0.2.1",
	"198.51.100.1",
	"203.0.113.1",
}

const statsInterval = 5 * time.Second

var (
	countSent         uint64
	countSuccess      uint64
	countFallbacks    uint64
	countErrors       uint64
	countImpressions  uint64
	countInteractions uint64
	countExpired      uint64
)

type fillResponse map[string]struct {
	Banner struct {
		ID        int    `json:"id"`
		BannerURL string `json:"bannerUrl"`
		Token     string `json:"token"`
	} `json:"banner"`
}

func main() {
	flag.StringVar(&server, "server", "http://localhost:8787", "banner server base URL")
	flag.IntVar(&viewers, "viewers", 100, "number of unique viewer ids to rotate through")
	flag.IntVar(&totalReq, "requests", 1000, "total slot requests to send")
	flag.IntVar(&conc, "concurrency", 20, "concurrent requests")
	flag.DurationVar(&duration, "duration", 0, "how long to run traffic (0 to disable)")
	flag.Float64Var(&rate, "rate", 0, "requests per second (0 for unlimited)")
	flag.Float64Var(&interactionRate, "interaction-rate", 0.05, "probability of an interaction per impression")
	flag.BoolVar(&stats, "stats", false, "print aggregated stats periodically")
	flag.BoolVar(&flush, "flush", false, "flush redis frequency counters before sending traffic")
	flag.StringVar(&redisAddr, "redis", "", "redis address (defaults to REDIS_ADDR)")
	flag.BoolVar(&debug, "debug", false, "enable verbose debug logs")
	flag.StringVar(&label, "label", "", "label to identify this run")
	flag.DurationVar(&surgeInterval, "surge-interval", 0, "interval between traffic surges (0 to disable)")
	flag.DurationVar(&surgeDuration, "surge-duration", 0, "duration of each surge window")
	flag.Float64Var(&surgeMultiplier, "surge-multiplier", 2.0, "requests multiplier during surge period")
	flag.Float64Var(&jitter, "jitter", 0.0, "random jitter factor for request spacing")
	flag.Parse()

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	var err error
	logger, err = observability.InitLoggerWithLevel(level, "traffic-simulator")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	httpClient = &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			Dial: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).Dial,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			MaxConnsPerHost:       50,
			IdleConnTimeout:       90 * time.Second,
		},
	}

	if label == "" {
		label = time.Now().Format(time.RFC3339)
	}

	if flush {
		cfg := config.Load()
		addr := redisAddr
		if addr == "" {
			addr = cfg.RedisAddr
		}
		store, err := db.InitRedis(addr)
		if err != nil {
			logger.Fatal("redis connect", zap.Error(err))
		}

		// Only frequency counters; campaign data lives in postgres.
		keys, err := store.Client.Keys(store.Ctx, "bannerfreq:*").Result()
		if err != nil {
			logger.Fatal("list frequency keys", zap.Error(err))
		}
		if len(keys) > 0 {
			if err := store.Client.Del(store.Ctx, keys...).Err(); err != nil {
				logger.Fatal("delete frequency keys", zap.Error(err))
			}
		}
		store.Close()
		logger.Info("redis frequency counters flushed", zap.String("addr", addr), zap.Int("keys_deleted", len(keys)))
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	var wg sync.WaitGroup
	sem := make(chan struct{}, conc)
	done := make(chan struct{})

	var baseInterval time.Duration
	if rate > 0 {
		baseInterval = time.Duration(float64(time.Second) / rate)
	} else if duration > 0 && totalReq > 0 {
		baseInterval = duration / time.Duration(totalReq)
	}

	start := time.Now()
	next := start

	if stats {
		go func() {
			ticker := time.NewTicker(statsInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					printStats()
				case <-done:
					printStats()
					return
				}
			}
		}()
	}
	for i := 0; ; i++ {
		if totalReq > 0 && i >= totalReq {
			break
		}
		if duration > 0 && time.Since(start) >= duration {
			break
		}
		if baseInterval > 0 {
			effective := baseInterval
			if surgeInterval > 0 && surgeDuration > 0 && surgeMultiplier > 0 {
				elapsed := time.Since(start)
				if elapsed%surgeInterval < surgeDuration {
					effective = time.Duration(float64(effective) / surgeMultiplier)
				}
			}
			if jitter > 0 {
				jf := 1 + (r.Float64()*2-1)*jitter
				if jf < 0.1 {
					jf = 0.1
				}
				effective = time.Duration(float64(effective) * jf)
			}
			now := time.Now()
			if now.Before(next) {
				time.Sleep(next.Sub(now))
			}
			next = next.Add(effective)
		}
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			simulateVisit(r.Int63())
		}()
	}
	wg.Wait()
	close(done)
	if !stats {
		printStats()
	}
}

// simulateVisit performs one storefront entry: request fills for every slot,
// then post an impression for each served banner and maybe an interaction.
func simulateVisit(seed int64) {
	r := rand.New(rand.NewSource(seed))
	atomic.AddUint64(&countSent, 1)

	viewerID := 1 + r.Intn(viewers)
	ua := userAgents[r.Intn(len(userAgents))]
	ip := viewerIPs[r.Intn(len(viewerIPs))]

	slotURL := fmt.Sprintf("%s/slots?viewer_id=%d", strings.TrimRight(server, "/"), viewerID)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, slotURL, nil)
	if err != nil {
		atomic.AddUint64(&countErrors, 1)
		logger.Error("request build error", zap.Error(err))
		return
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("X-Forwarded-For", ip)

	resp, err := httpClient.Do(req)
	if err != nil {
		atomic.AddUint64(&countErrors, 1)
		logger.Error("slot request error", zap.Error(err))
		return
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		atomic.AddUint64(&countErrors, 1)
		logger.Error("read body error", zap.Error(err))
		return
	}
	if resp.StatusCode != http.StatusOK {
		atomic.AddUint64(&countErrors, 1)
		logger.Error("unexpected status", zap.Int("status", resp.StatusCode), zap.String("body", strings.TrimSpace(string(body))))
		return
	}

	var fills fillResponse
	if err := json.Unmarshal(body, &fills); err != nil {
		atomic.AddUint64(&countErrors, 1)
		logger.Error("decode error", zap.Error(err), zap.String("body", strings.TrimSpace(string(body))))
		return
	}
	atomic.AddUint64(&countSuccess, 1)

	for slot, fill := range fills {
		if fill.Banner.ID == 0 || fill.Banner.Token == "" {
			atomic.AddUint64(&countFallbacks, 1)
			logger.Debug("fallback fill", zap.String("slot", slot), zap.Int("viewer_id", viewerID))
			continue
		}
		expired, ok := postEvent("/impression", fill.Banner.Token, ua, ip)
		if !ok {
			continue
		}
		atomic.AddUint64(&countImpressions, 1)
		if expired {
			atomic.AddUint64(&countExpired, 1)
		}
		if r.Float64() < interactionRate {
			if _, ok := postEvent("/interaction", fill.Banner.Token, ua, ip); ok {
				atomic.AddUint64(&countInteractions, 1)
			}
		}
		logger.Debug("served", zap.String("slot", slot), zap.Int("viewer_id", viewerID), zap.Int("banner_id", fill.Banner.ID), zap.Bool("expired", expired))
	}
}

func postEvent(path, tok, ua, ip string) (expired bool, ok bool) {
	u := strings.TrimRight(server, "/") + path + "?t=" + url.QueryEscape(tok)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		atomic.AddUint64(&countErrors, 1)
		logger.Error("event request build error", zap.String("path", path), zap.Error(err))
		return false, false
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("X-Forwarded-For", ip)

	resp, err := httpClient.Do(req)
	if err != nil {
		atomic.AddUint64(&countErrors, 1)
		logger.Error("event post error", zap.String("path", path), zap.Error(err))
		return false, false
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		atomic.AddUint64(&countErrors, 1)
		logger.Error("event read error", zap.String("path", path), zap.Error(err))
		return false, false
	}
	if resp.StatusCode != http.StatusOK {
		atomic.AddUint64(&countErrors, 1)
		logger.Error("event unexpected status", zap.String("path", path), zap.Int("status", resp.StatusCode), zap.String("body", strings.TrimSpace(string(body))))
		return false, false
	}
	var out struct {
		Expired bool `json:"expired"`
	}
	_ = json.Unmarshal(body, &out)
	return out.Expired, true
}

func printStats() {
	sent := atomic.LoadUint64(&countSent)
	succ := atomic.LoadUint64(&countSuccess)
	fb := atomic.LoadUint64(&countFallbacks)
	errs := atomic.LoadUint64(&countErrors)
	imp := atomic.LoadUint64(&countImpressions)
	inter := atomic.LoadUint64(&countInteractions)
	exp := atomic.LoadUint64(&countExpired)
	var ir float64
	if imp > 0 {
		ir = float64(inter) / float64(imp)
	}
	logger.Info("stats",
		zap.String("run", label),
		zap.Uint64("sent", sent),
		zap.Uint64("success", succ),
		zap.Uint64("fallbacks", fb),
		zap.Uint64("errors", errs),
		zap.Uint64("impressions", imp),
		zap.Uint64("interactions", inter),
		zap.Uint64("expired_triggers", exp),
		zap.Float64("interaction_rate", ir))
}
