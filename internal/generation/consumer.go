package generation

import (
	"context"
	"errors"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const readBufferSize = 4096

// Consume 逐块读取响应体并解码为UTF-8文本，每读到一块即回调一次
//
// 跨块边界的多字节字符由解码器缓存到下一块，非法字节替换为 U+FFFD。
// context 取消后不再回调，返回取消原因。
func Consume(ctx context.Context, body io.Reader, onChunk func(chunk string)) error {
	reader := transform.NewReader(body, unicode.UTF8.NewDecoder())
	buf := make([]byte, readBufferSize)

	for {
		n, err := reader.Read(buf)
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		if n > 0 {
			onChunk(string(buf[:n]))
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
