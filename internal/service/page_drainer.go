package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"marketplace_sync_v1_202610/internal/config"
	"marketplace_sync_v1_202610/internal/model"
	"marketplace_sync_v1_202610/pkg/marketplace"
)

// UpstreamClient 单页拉取
type UpstreamClient interface {
	FetchPage(ctx context.Context, entity marketplace.EntityType, creds marketplace.Credentials, cursor string) (*marketplace.Page, error)
}

// StoreRun 单个店铺一次运行的上下文
type StoreRun struct {
	Store    *model.StoreAccount
	SyncedAt time.Time
	// Pacer 同一店铺所有阶段共用，保证页间间隔
	Pacer *PagePacer
}

// PagePacer 翻页节奏：上一页请求结束后满 delay 才发起下一页
// 首页立即放行；delay <= 0 时不限速
type PagePacer struct {
	delay   time.Duration
	limiter *rate.Limiter
}

// NewPagePacer 创建翻页节奏器
func NewPagePacer(delay time.Duration) *PagePacer {
	if delay <= 0 {
		return &PagePacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &PagePacer{delay: delay, limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

// Wait 等待到可以发起下一页
func (p *PagePacer) Wait(ctx context.Context) error {
	if p == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}

// Done 一页请求结束，从 now 起重新计时
func (p *PagePacer) Done(now time.Time) {
	if p == nil || p.delay <= 0 {
		return
	}
	p.limiter = rate.NewLimiter(rate.Every(p.delay), 1)
	p.limiter.AllowN(now, 1)
}

// Credentials 店铺凭证
func (r *StoreRun) Credentials() marketplace.Credentials {
	return marketplace.Credentials{
		AppCredential: r.Store.AppSecret,
		AccessToken:   r.Store.APIToken,
	}
}

// PageDrainer 顺序翻页直到没有游标；可重试的传输错误按指数退避重试
type PageDrainer struct {
	client  UpstreamClient
	cfg     config.SyncConfig
	logger  *zap.Logger
	metrics *Metrics
}

// NewPageDrainer 创建翻页器
func NewPageDrainer(client UpstreamClient, cfg config.SyncConfig, logger *zap.Logger, metrics *Metrics) *PageDrainer {
	return &PageDrainer{client: client, cfg: cfg, logger: logger.Named("PageDrainer"), metrics: metrics}
}

// Drain 拉取全部页；任何一页最终失败则整个实体类型失败
func (d *PageDrainer) Drain(ctx context.Context, run *StoreRun, entity marketplace.EntityType) ([]json.RawMessage, error) {
	var records []json.RawMessage
	cursor := ""

	for page := 1; ; page++ {
		if err := run.Pacer.Wait(ctx); err != nil {
			return nil, fmt.Errorf("等待翻页间隔: %w", err)
		}

		p, err := d.fetchWithRetry(ctx, run, entity, cursor)
		run.Pacer.Done(time.Now())
		if err != nil {
			return nil, fmt.Errorf("拉取 %s 第 %d 页失败: %w", entity, page, err)
		}
		d.metrics.PagesFetched.WithLabelValues(string(entity)).Inc()
		records = append(records, p.Records...)

		d.logger.Debug("拉取一页",
			zap.Int64("store_id", run.Store.ID),
			zap.String("entity", string(entity)),
			zap.Int("page", page),
			zap.Int("records", len(p.Records)),
		)

		if p.Cursor == "" {
			return records, nil
		}
		if p.Cursor == cursor {
			return nil, fmt.Errorf("拉取 %s 第 %d 页: %w (%s)", entity, page, marketplace.ErrCursorStalled, cursor)
		}
		cursor = p.Cursor
	}
}

func (d *PageDrainer) fetchWithRetry(ctx context.Context, run *StoreRun, entity marketplace.EntityType, cursor string) (*marketplace.Page, error) {
	creds := run.Credentials()

	op := func() (*marketplace.Page, error) {
		page, err := d.client.FetchPage(ctx, entity, creds, cursor)
		if err == nil {
			return page, nil
		}
		// 调用方取消或到达运行截止时间才放弃；单次请求超时按网络错误重试
		if ctx.Err() != nil || !marketplace.IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	notify := func(err error, wait time.Duration) {
		d.metrics.FetchRetries.WithLabelValues(string(entity)).Inc()
		d.logger.Warn("拉取失败，准备重试",
			zap.Int64("store_id", run.Store.ID),
			zap.String("entity", string(entity)),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	return backoff.RetryNotifyWithData(op, d.newBackOff(ctx), notify)
}

func (d *PageDrainer) newBackOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = d.cfg.RetryInitialInterval
	if d.cfg.RetryMaxInterval > 0 {
		eb.MaxInterval = d.cfg.RetryMaxInterval
	}
	// 次数由 MaxRetries 控制
	eb.MaxElapsedTime = 0

	retries := d.cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)
}
