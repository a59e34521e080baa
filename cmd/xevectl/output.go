package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
	"github.com/omeyang/xeveapi/pkg/eveapi/xresult"
)

// 输出格式。
const (
	outputXML  = "xml"
	outputJSON = "json"
	outputText = "text"
)

// printer 按所选格式输出结果。API 错误结果写到 stderr 并以退出码 1 结束。
type printer struct {
	format string
	out    io.Writer
	errOut io.Writer
}

func newPrinter(format string, out, errOut io.Writer) (*printer, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case outputXML, outputJSON, outputText:
		return &printer{format: f, out: out, errOut: errOut}, nil
	default:
		return nil, newUsageError("未知输出格式 %q", format)
	}
}

// Result 输出调用结果。
func (p *printer) Result(res *xresult.Result) error {
	if appErr := xapi.ApplicationError(res); appErr != nil {
		if p.format == outputXML {
			_, _ = p.errOut.Write(res.Raw())
		}
		fmt.Fprintf(p.errOut, "API 错误 %s: %s\n", appErr.Code, appErr.Message)
		return &exitError{code: 1}
	}

	switch p.format {
	case outputXML:
		_, err := p.out.Write(res.Raw())
		return err
	case outputJSON:
		return p.writeJSON(resultDocument(res))
	default:
		return p.writeText(res.Body().Flatten())
	}
}

// Access 输出 key 的访问状态。
func (p *printer) Access(state xapi.AccessState) error {
	fields := map[string]string{
		"keyType":    string(state.KeyType),
		"accessMask": strconv.FormatInt(state.AccessMask, 10),
	}
	if p.format == outputJSON {
		return p.writeJSON(fields)
	}
	return p.writeText(fields)
}

type document struct {
	Version     string            `json:"version,omitempty"`
	CurrentTime string            `json:"currentTime,omitempty"`
	CachedUntil string            `json:"cachedUntil,omitempty"`
	Result      map[string]string `json:"result"`
}

func resultDocument(res *xresult.Result) document {
	doc := document{
		Version: res.Version(),
		Result:  res.Body().Flatten(),
	}
	if t, ok := res.CurrentTime(); ok {
		doc.CurrentTime = t.Format(xresult.TimeLayout)
	}
	if t, ok := res.CachedUntil(); ok {
		doc.CachedUntil = t.Format(xresult.TimeLayout)
	}
	return doc
}

func (p *printer) writeJSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeText 按键名排序输出 key = value 行。
func (p *printer) writeText(fields map[string]string) error {
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		if _, err := fmt.Fprintf(p.out, "%s = %s\n", k, fields[k]); err != nil {
			return err
		}
	}
	return nil
}
