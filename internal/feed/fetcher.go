package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/yockii/ai_report/internal/cache"
	"github.com/yockii/ai_report/pkg/config"
	"github.com/yockii/ai_report/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// 单个数据源响应体的上限
const maxFeedSize = 8 << 20

// Kind 内容接口的数据源
type Kind string

const (
	KindTech       Kind = "tech"
	KindInvestment Kind = "investment"
	KindTips       Kind = "tips"
	KindTrends     Kind = "trends"
)

// Kinds 一个周期的全部数据源
var Kinds = []Kind{KindTech, KindInvestment, KindTips, KindTrends}

// PeriodData 一个周期的四个数据源，缺失的数据源为空值
type PeriodData struct {
	Tech       gjson.Result
	Investment gjson.Result
	Tips       gjson.Result
	Trends     gjson.Result
}

func (d *PeriodData) set(kind Kind, value gjson.Result) {
	switch kind {
	case KindTech:
		d.Tech = value
	case KindInvestment:
		d.Investment = value
	case KindTips:
		d.Tips = value
	case KindTrends:
		d.Trends = value
	}
}

// Fetcher 内容接口客户端
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
	store      cache.Store
	ttl        time.Duration
}

// NewFetcher 创建内容接口客户端
func NewFetcher(baseURL string, timeout time.Duration, store cache.Store, ttl time.Duration) *Fetcher {
	if store == nil {
		store = cache.NopStore{}
	}
	return &Fetcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		store:      store,
		ttl:        ttl,
	}
}

// NewFetcherFromConfig 根据配置创建内容接口客户端
func NewFetcherFromConfig(store cache.Store) *Fetcher {
	return NewFetcher(
		config.GetString("content_api.base_url"),
		config.GetSeconds("content_api.timeout"),
		store,
		config.GetSeconds("cache.ttl"),
	)
}

// FetchPeriod 并发获取一个周期的四个数据源
//
// 单个数据源失败或返回非2xx时视为缺失，不影响其他数据源。
func (f *Fetcher) FetchPeriod(ctx context.Context, periodID string) (*PeriodData, error) {
	results := make([]gjson.Result, len(Kinds))
	if f.baseURL == "" {
		logger.Warn("未配置内容接口地址")
		return &PeriodData{}, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range Kinds {
		i, kind := i, kind
		g.Go(func() error {
			results[i] = f.fetchOne(gctx, kind, periodID)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	data := &PeriodData{}
	for i, kind := range Kinds {
		data.set(kind, results[i])
	}
	return data, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, kind Kind, periodID string) gjson.Result {
	key := fmt.Sprintf("%s/%s", kind, periodID)
	if cached, hit, err := f.store.Get(ctx, key); err == nil && hit {
		return gjson.ParseBytes(cached)
	}

	url := fmt.Sprintf("%s/%s/%s", f.baseURL, kind, periodID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		logger.Error("创建请求失败", logger.F("err", err))
		return gjson.Result{}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		logger.Warn("获取数据源失败", logger.F("url", url), logger.F("err", err))
		return gjson.Result{}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn("数据源返回错误", logger.F("url", url), logger.F("statusCode", resp.StatusCode))
		return gjson.Result{}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		logger.Warn("读取数据源失败", logger.F("url", url), logger.F("err", err))
		return gjson.Result{}
	}
	if !gjson.ValidBytes(body) {
		logger.Warn("数据源不是合法的JSON", logger.F("url", url))
		return gjson.Result{}
	}

	_ = f.store.Set(ctx, key, body, f.ttl)
	return gjson.ParseBytes(body)
}
