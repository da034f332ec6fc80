package filesystem

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/spf13/afero"

	"litextract/pkg/contract"
)

// Options 为 FileSystem Reader 的可选配置（最小必要）。
type Options struct {
	// BufSize 为读缓冲区大小（字节）。默认 64KiB。
	BufSize int `json:"buf_size"`
	// MaxBytes: 单次输入的最大字节数。0 表示不限制。
	MaxBytes int64 `json:"max_bytes"`
}

// FileSystem 实现基于 afero 文件系统与 STDIN 的 Reader。
type FileSystem struct {
	fs       afero.Fs
	stdin    io.Reader
	bufSize  int
	maxBytes int64
}

// New 创建 FileSystem Reader；fs 为 nil 时使用操作系统文件系统。
func New(fs afero.Fs, opts *Options) *FileSystem {
	const defaultBuf = 64 * 1024
	if fs == nil {
		fs = afero.NewOsFs()
	}
	r := &FileSystem{fs: fs, stdin: os.Stdin, bufSize: defaultBuf}
	if opts != nil {
		if opts.BufSize > 0 {
			r.bufSize = opts.BufSize
		}
		if opts.MaxBytes > 0 {
			r.maxBytes = opts.MaxBytes
		}
	}
	return r
}

// WithStdin 替换 "-" 对应的输入流（测试与嵌入调用使用）。
func (r *FileSystem) WithStdin(in io.Reader) *FileSystem {
	r.stdin = in
	return r
}

var _ contract.Reader = (*FileSystem)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Read 一次性读入完整文本；"-" 读取 STDIN。
// 目录、非 UTF-8 内容与超限输入返回 ErrInvalidInput。
func (r *FileSystem) Read(ctx context.Context, path string) (contract.Source, error) {
	select {
	case <-ctx.Done():
		return contract.Source{}, ctx.Err()
	default:
	}
	if path == "" {
		return contract.Source{}, fmt.Errorf("reader: empty path: %w", contract.ErrInvalidInput)
	}
	if path == "-" {
		text, err := r.readAll(ctx, r.stdin)
		if err != nil {
			return contract.Source{}, err
		}
		return contract.Source{FileID: contract.FileID("stdin"), Text: text}, nil
	}

	info, err := r.fs.Stat(path)
	if err != nil {
		return contract.Source{}, err
	}
	if info.IsDir() {
		return contract.Source{}, fmt.Errorf("reader: %s is a directory: %w", path, contract.ErrInvalidInput)
	}
	if r.maxBytes > 0 && info.Size() > r.maxBytes {
		return contract.Source{}, fmt.Errorf("reader: %s is %d bytes, limit %d: %w", path, info.Size(), r.maxBytes, contract.ErrInvalidInput)
	}
	f, err := r.fs.Open(path)
	if err != nil {
		return contract.Source{}, err
	}
	defer f.Close()
	text, err := r.readAll(ctx, f)
	if err != nil {
		return contract.Source{}, err
	}
	return contract.Source{FileID: contract.NormalizeFileID(path), Text: text}, nil
}

func (r *FileSystem) readAll(ctx context.Context, in io.Reader) (string, error) {
	var src io.Reader = bufio.NewReaderSize(ctxReader{ctx: ctx, r: in}, r.bufSize)
	if r.maxBytes > 0 {
		// 多读一个字节用于判定超限
		src = io.LimitReader(src, r.maxBytes+1)
	}
	b, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	if r.maxBytes > 0 && int64(len(b)) > r.maxBytes {
		return "", fmt.Errorf("reader: input exceeds %d bytes: %w", r.maxBytes, contract.ErrInvalidInput)
	}
	b = bytes.TrimPrefix(b, utf8BOM)
	if !utf8.Valid(b) {
		return "", fmt.Errorf("reader: invalid UTF-8: %w", contract.ErrInvalidInput)
	}
	return string(b), nil
}

// ctxReader 在每次 Read 前检查取消。
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
