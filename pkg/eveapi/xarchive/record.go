package xarchive

import (
	"path"
	"time"

	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
	"github.com/omeyang/xeveapi/pkg/util/xfile"
)

// PublicKeyDir 无 key ID 的公开调用使用的目录名。
const PublicKeyDir = "public"

// Record 一条归档记录，不包含凭证。
type Record struct {
	Key        string
	KeyID      string
	Scope      string
	Method     string
	Params     xapi.Params
	Body       []byte
	ArchivedAt time.Time
}

// NewRecord 由调用身份和原始响应构造记录。
func NewRecord(id xapi.Identity, raw []byte, at time.Time) Record {
	return Record{
		Key:        id.Key(),
		KeyID:      id.KeyID,
		Scope:      id.Scope,
		Method:     id.Method,
		Params:     id.Params.Clone(),
		Body:       raw,
		ArchivedAt: at.UTC(),
	}
}

// pathTimeLayout 文件名中的时间部分，精确到纳秒。
const pathTimeLayout = "150405.000000000"

// Path 返回归档的相对路径：
//
//	<YYYY-MM-DD>/<keyID|public>/<scope>/<method>_<hash>_<HHMMSS.nnnnnnnnn>.xml
//
// 各段经过 xfile.CleanSegment 净化，使用 '/' 分隔，可直接作为 S3 对象键。
func Path(id xapi.Identity, at time.Time) string {
	at = at.UTC()
	keyDir := PublicKeyDir
	if id.KeyID != "" {
		keyDir = xfile.CleanSegment(id.KeyID)
	}
	name := xfile.CleanSegment(id.Method) + "_" + id.Hash() + "_" + at.Format(pathTimeLayout) + ".xml"
	return path.Join(at.Format(time.DateOnly), keyDir, xfile.CleanSegment(id.Scope), name)
}
