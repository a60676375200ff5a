package filter

import (
	"bytes"
	"compress/gzip"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-authchain/types"
)

const (
	AlgorithmGzip   = "gzip"
	AlgorithmBrotli = "br"

	DefaultCompressionLevel     = 6
	DefaultCompressionThreshold = 1024
	minCompressionRatio         = 0.05
)

var compressibleTypes = []string{
	"application/json",
	"text/",
}

// CompressionFilter encodes response bodies above the threshold when the
// client accepts the configured algorithm.
type CompressionFilter struct {
	logger     types.Logger
	algorithm  string
	level      int
	threshold  int
	bufferPool sync.Pool
	compress   func(dst *bytes.Buffer, data []byte) error
}

func NewCompressionFilter(config *types.CompressionConfig, logger types.Logger) (*CompressionFilter, error) {
	if config == nil {
		return nil, types.Errorf(types.ErrConfigNotFound, "compression section")
	}

	c := &CompressionFilter{
		logger:    logger,
		algorithm: config.Algorithm,
		level:     config.Level,
		threshold: config.Threshold,
		bufferPool: sync.Pool{
			New: func() interface{} {
				return new(bytes.Buffer)
			},
		},
	}

	if c.algorithm == "" {
		c.algorithm = AlgorithmBrotli
	}
	if c.level == 0 {
		c.level = DefaultCompressionLevel
	}
	if c.threshold <= 0 {
		c.threshold = DefaultCompressionThreshold
	}

	switch c.algorithm {
	case AlgorithmBrotli:
		c.compress = c.compressBrotli
	case AlgorithmGzip:
		if c.level < gzip.HuffmanOnly || c.level > gzip.BestCompression {
			return nil, types.Errorf(types.ErrInvalidParameter, "gzip level %d", c.level)
		}
		c.compress = c.compressGzip
	default:
		return nil, types.Errorf(types.ErrInvalidParameter, "unsupported algorithm: %s", c.algorithm)
	}

	return c, nil
}

func (c *CompressionFilter) Name() string { return "compression" }

func (c *CompressionFilter) DoFilter(ctx *fasthttp.RequestCtx, next types.FastHTTPHandler) {
	accepts := bytes.Contains(ctx.Request.Header.Peek(fasthttp.HeaderAcceptEncoding), []byte(c.algorithm))

	next(ctx)

	if !accepts || len(ctx.Response.Header.Peek(fasthttp.HeaderContentEncoding)) > 0 {
		return
	}

	body := ctx.Response.Body()
	if len(body) < c.threshold || !compressible(ctx.Response.Header.ContentType()) {
		return
	}

	buf := c.bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer c.bufferPool.Put(buf)

	if err := c.compress(buf, body); err != nil {
		c.logger.Warn("Response compression failed", zap.String("algorithm", c.algorithm), zap.Error(err))
		return
	}

	if 1.0-float64(buf.Len())/float64(len(body)) < minCompressionRatio {
		return
	}

	ctx.Response.SetBody(buf.Bytes())
	ctx.Response.Header.SetContentEncoding(c.algorithm)
	ctx.Response.Header.Add(fasthttp.HeaderVary, fasthttp.HeaderAcceptEncoding)
}

func (c *CompressionFilter) compressBrotli(dst *bytes.Buffer, data []byte) error {
	writer := brotli.NewWriterLevel(dst, c.level)
	if _, err := writer.Write(data); err != nil {
		return err
	}
	return writer.Close()
}

func (c *CompressionFilter) compressGzip(dst *bytes.Buffer, data []byte) error {
	writer, err := gzip.NewWriterLevel(dst, c.level)
	if err != nil {
		return err
	}
	if _, err := writer.Write(data); err != nil {
		return err
	}
	return writer.Close()
}

func compressible(contentType []byte) bool {
	ct := strings.ToLower(string(contentType))
	if semicolon := strings.IndexByte(ct, ';'); semicolon != -1 {
		ct = ct[:semicolon]
	}
	ct = strings.TrimSpace(ct)

	for _, allowed := range compressibleTypes {
		if strings.HasPrefix(ct, allowed) {
			return true
		}
	}
	return false
}
