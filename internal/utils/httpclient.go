package utils

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient HTTP客户端，压测与探活用
type HTTPClient struct {
	httpClient *http.Client
	userAgent  string
}

// NewHTTPClient 创建新的HTTP客户端
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: "cinedb-loadgen/1.0",
	}
}

// Get 发送GET请求，调用方负责关闭响应体
func (c *HTTPClient) Get(url string) (*http.Response, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")
	return c.httpClient.Do(req)
}

// GetDiscard 发送GET请求并丢弃响应体，返回状态码。
// 读完响应体才能复用连接，压测时每个请求都走这里。
func (c *HTTPClient) GetDiscard(url string) (int, error) {
	resp, err := c.Get(url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return resp.StatusCode, fmt.Errorf("读取响应失败: %w", err)
	}
	return resp.StatusCode, nil
}
