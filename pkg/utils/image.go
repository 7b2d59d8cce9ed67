package utils

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// MaxDownloadSize 远程文件大小上限 (10MB)
const MaxDownloadSize = 10 << 20

// DownloadFile 下载网络文件，返回内容和 Content-Type
func DownloadFile(ctx context.Context, client *resty.Client, url string) ([]byte, string, error) {
	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, "", fmt.Errorf("下载失败: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, "", fmt.Errorf("下载失败: HTTP %d", resp.StatusCode())
	}

	data := resp.Body()
	if len(data) > MaxDownloadSize {
		return nil, "", fmt.Errorf("文件过大: %d bytes", len(data))
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}
