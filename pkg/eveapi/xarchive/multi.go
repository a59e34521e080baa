package xarchive

import (
	"context"
	"errors"

	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
)

// Multi 依次写入所有后端，任一失败不影响其余后端，错误合并返回。
type Multi []xapi.ArchiveStore

// Save 写入全部后端。
func (m Multi) Save(ctx context.Context, id xapi.Identity, raw []byte) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Save(ctx, id, raw); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ xapi.ArchiveStore = Multi(nil)
