package xarchive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
	"github.com/omeyang/xeveapi/pkg/util/xfile"
)

// File 写入本地目录的归档。
type File struct {
	dir  string
	mode os.FileMode
	now  func() time.Time
}

// NewFile 创建以 dir 为根目录的文件归档，相对路径会被转换为绝对路径。
func NewFile(dir string, opts ...Option) (*File, error) {
	if dir == "" {
		return nil, ErrEmptyDir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("xarchive: resolve dir: %w", err)
	}
	o := applyOptions(opts)
	return &File{dir: abs, mode: o.FileMode, now: o.Now}, nil
}

// Dir 返回归档根目录。
func (f *File) Dir() string {
	return f.dir
}

// maxNameSuffix 同名文件已存在时追加序号的上限。
const maxNameSuffix = 1000

// Save 写入一份响应，返回前已 fsync。
// 目标文件已存在（同一时刻的同一调用）时追加 "-<n>" 序号，不覆盖已有归档。
func (f *File) Save(ctx context.Context, id xapi.Identity, raw []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := xfile.SafeJoin(f.dir, Path(id, f.now()))
	if err != nil {
		return fmt.Errorf("xarchive: %w", err)
	}
	if err := xfile.EnsureDir(full); err != nil {
		return fmt.Errorf("xarchive: create dir: %w", err)
	}
	file, err := f.create(full)
	if err != nil {
		return err
	}
	if _, err := file.Write(raw); err != nil {
		_ = file.Close()
		return fmt.Errorf("xarchive: write %s: %w", file.Name(), err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return fmt.Errorf("xarchive: sync %s: %w", file.Name(), err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("xarchive: close %s: %w", file.Name(), err)
	}
	return nil
}

// create 以 O_EXCL 创建 full，已存在时依次尝试 <name>-1.xml、<name>-2.xml ...
func (f *File) create(full string) (*os.File, error) {
	ext := filepath.Ext(full)
	stem := strings.TrimSuffix(full, ext)
	name := full
	for n := 1; ; n++ {
		file, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, f.mode)
		if err == nil {
			return file, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("xarchive: write %s: %w", name, err)
		}
		if n > maxNameSuffix {
			return nil, fmt.Errorf("%w: %s", ErrNameExhausted, full)
		}
		name = stem + "-" + strconv.Itoa(n) + ext
	}
}

var _ xapi.ArchiveStore = (*File)(nil)
