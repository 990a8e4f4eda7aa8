package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// EntityType 上游实体类型，同时是接口路径与响应中的记录数组字段名
type EntityType string

const (
	EntityProducts EntityType = "products"
	EntityOrders   EntityType = "orders"
)

// DefaultPageSize 每页记录数
const DefaultPageSize = 50

// Credentials 店铺凭证
type Credentials struct {
	AppCredential string // 应用凭证
	AccessToken   string // 店铺访问令牌
}

// Config 客户端配置
type Config struct {
	BaseURL             string
	PageSize            int
	Timeout             time.Duration
	AppCredentialHeader string
	AccessTokenHeader   string
	UserAgent           string
	Debug               bool
}

// Page 一页原始记录，Cursor 为空表示已是最后一页
type Page struct {
	Records []json.RawMessage
	Cursor  string
}

// Client 上游 API 客户端
// 只负责单页请求，重试与限速由调用方决定
type Client struct {
	http *resty.Client
	cfg  Config
}

// NewClient 创建客户端
func NewClient(cfg Config) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "marketplace-sync/1.0"
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetDebug(cfg.Debug).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", cfg.UserAgent)

	return &Client{http: client, cfg: cfg}
}

// FetchPage 拉取一页记录
func (c *Client) FetchPage(ctx context.Context, entity EntityType, creds Credentials, cursor string) (*Page, error) {
	var body map[string]json.RawMessage

	req := c.http.R().
		SetContext(ctx).
		SetHeader(c.cfg.AppCredentialHeader, creds.AppCredential).
		SetHeader(c.cfg.AccessTokenHeader, creds.AccessToken).
		SetQueryParam("limit", strconv.Itoa(c.cfg.PageSize)).
		ForceContentType("application/json").
		SetResult(&body)
	if cursor != "" {
		req.SetQueryParam("cursor", cursor)
	}

	resp, err := req.Get("/" + string(entity))
	if err != nil {
		if resp != nil && resp.StatusCode() != 0 {
			// 响应已到达但解析失败
			return nil, &TransportError{Entity: entity, StatusCode: resp.StatusCode(), Body: resp.String(), Err: err}
		}
		return nil, &TransportError{Entity: entity, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &TransportError{Entity: entity, StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	return decodePage(entity, body, resp)
}

func decodePage(entity EntityType, body map[string]json.RawMessage, resp *resty.Response) (*Page, error) {
	page := &Page{}
	if raw, ok := body[string(entity)]; ok && len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &page.Records); err != nil {
			return nil, &TransportError{
				Entity:     entity,
				StatusCode: resp.StatusCode(),
				Body:       resp.String(),
				Err:        fmt.Errorf("解析 %s 列表失败: %w", entity, err),
			}
		}
	}
	if raw, ok := body["cursor"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &page.Cursor); err != nil {
			return nil, &TransportError{
				Entity:     entity,
				StatusCode: resp.StatusCode(),
				Body:       resp.String(),
				Err:        fmt.Errorf("解析游标失败: %w", err),
			}
		}
	}
	return page, nil
}
