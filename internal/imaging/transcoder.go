package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Options 转码参数（引擎只透传，不关心压缩内部）
type Options struct {
	MaxDimension int
	Quality      int
}

// Transcoder 照片转码协作方：文件字节 -> 可内嵌的 data URL
// 引擎对内容不透明，只依赖 (fileName, fileSize) 做消费去重
type Transcoder interface {
	Transcode(ctx context.Context, fileName string, data []byte, opts Options) (string, error)
}

// ---- 远端转码服务 ----

// transcodeResponse 转码服务响应
type transcodeResponse struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
	URL    string `json:"url"`
}

// HTTPTranscoder 外部转码服务客户端
type HTTPTranscoder struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewHTTPTranscoder 创建转码服务客户端
func NewHTTPTranscoder(baseURL string, logger *zap.Logger) *HTTPTranscoder {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json")

	return &HTTPTranscoder{
		httpClient: client,
		logger:     logger,
	}
}

// Transcode 调用转码服务；失败由调用方按文件跳过，不终止整批
func (t *HTTPTranscoder) Transcode(ctx context.Context, fileName string, data []byte, opts Options) (string, error) {
	var response transcodeResponse
	resp, err := t.httpClient.R().
		SetContext(ctx).
		SetFileReader("file", fileName, bytes.NewReader(data)).
		SetQueryParam("max_dimension", fmt.Sprintf("%d", opts.MaxDimension)).
		SetQueryParam("quality", fmt.Sprintf("%d", opts.Quality)).
		SetResult(&response).
		Post("/imaging/v1/transcode")
	if err != nil {
		return "", fmt.Errorf("failed to call transcode service: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("transcode service returned HTTP %d", resp.StatusCode())
	}
	if response.Status != 0 {
		t.logger.Warn("transcode service rejected file",
			zap.String("file_name", fileName),
			zap.Int("status", response.Status),
			zap.String("msg", response.Msg),
		)
		return "", fmt.Errorf("transcode service error: %s", response.Msg)
	}
	return response.URL, nil
}

// ---- 本地回退 ----

// LocalTranscoder 未配置转码服务时的回退：原样编码为 data URL
type LocalTranscoder struct{}

// NewLocalTranscoder 创建本地回退转码器
func NewLocalTranscoder() *LocalTranscoder { return &LocalTranscoder{} }

// Transcode 原样 base64 内嵌；MIME 按扩展名判定
func (t *LocalTranscoder) Transcode(_ context.Context, fileName string, data []byte, _ Options) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty photo file: %s", fileName)
	}
	return "data:" + mimeByExt(fileName) + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func mimeByExt(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}
