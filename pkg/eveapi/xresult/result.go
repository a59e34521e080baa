// Package xresult 把 EVE XML API 的原始响应投影为可导航的文档。
//
// 响应的两种形态：
//
//	<eveapi version="2">
//	  <currentTime>2014-01-01 00:00:00</currentTime>
//	  <result>...</result>
//	  <cachedUntil>2014-01-01 00:03:00</cachedUntil>
//	</eveapi>
//
//	<eveapi version="2"><error code="203">Authentication failure.</error>...</eveapi>
//
// 数据访问（[Result.Get]、[Result.Rowset]）都在 <result> 内进行；
// 没有 <result> 时以根元素为起点。根元素本身为 <error> 也视为错误响应。
package xresult

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
)

// TimeLayout EVE API 的时间格式（UTC）。
const TimeLayout = "2006-01-02 15:04:05"

// ErrParse 表示原始响应不是合法的 XML 文档。
var ErrParse = errors.New("xresult: parse failed")

// Result 一次调用的解析结果，只读，可在 goroutine 间共享。
type Result struct {
	raw  []byte
	root *etree.Element
	body *etree.Element
	err  *etree.Element
}

// Parse 解析原始响应。失败时返回包装了 ErrParse 的错误，错误文本携带解析器诊断。
// 对同一 raw 多次调用得到等价结果。
func Parse(raw []byte) (*Result, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrParse)
	}

	r := &Result{raw: raw, root: root, body: root}
	if root.Tag == "error" {
		r.err = root
	} else if e := root.SelectElement("error"); e != nil {
		r.err = e
	}
	if res := root.SelectElement("result"); res != nil {
		r.body = res
	}
	return r, nil
}

// Raw 返回原始响应字节，调用方不得修改。
func (r *Result) Raw() []byte { return r.raw }

// IsError 报告响应是否为应用层错误（含 <error> 元素）。
func (r *Result) IsError() bool { return r.err != nil }

// ErrorCode 返回 <error code="..."> 的值，非错误响应返回空串。
func (r *Result) ErrorCode() string {
	if r.err == nil {
		return ""
	}
	return r.err.SelectAttrValue("code", "")
}

// ErrorMessage 返回 <error> 的文本内容。
func (r *Result) ErrorMessage() string {
	if r.err == nil {
		return ""
	}
	return strings.TrimSpace(r.err.Text())
}

// Version 返回根元素的 version 属性。
func (r *Result) Version() string {
	return r.root.SelectAttrValue("version", "")
}

// CurrentTime 返回服务器时间，缺失或格式错误时 ok 为 false。
func (r *Result) CurrentTime() (time.Time, bool) {
	return r.Root().Get("currentTime").Time()
}

// CachedUntil 返回响应的缓存截止时间。
func (r *Result) CachedUntil() (time.Time, bool) {
	return r.Root().Get("cachedUntil").Time()
}

// CacheWindow 返回 cachedUntil - currentTime；两者使用同一服务器时钟，
// 不受本地时钟偏差影响。缺少任一字段或差值不为正时 ok 为 false。
func (r *Result) CacheWindow() (time.Duration, bool) {
	now, ok1 := r.CurrentTime()
	until, ok2 := r.CachedUntil()
	if !ok1 || !ok2 {
		return 0, false
	}
	d := until.Sub(now)
	if d <= 0 {
		return 0, false
	}
	return d, true
}

// CacheWindow 解析 raw 并返回其缓存窗口，解析失败时 ok 为 false。
func CacheWindow(raw []byte) (time.Duration, bool) {
	r, err := Parse(raw)
	if err != nil {
		return 0, false
	}
	return r.CacheWindow()
}

// Root 返回根元素节点。
func (r *Result) Root() Node { return Node{el: r.root} }

// Body 返回 <result> 节点（无 <result> 时为根元素）。
func (r *Result) Body() Node { return Node{el: r.body} }

// Get 在 <result> 内按名称取子节点，规则见 [Node.Get]。
func (r *Result) Get(name string) Node { return r.Body().Get(name) }

// Path 在 <result> 内按 "a.b.c" 逐级导航。
func (r *Result) Path(path string) Node { return r.Body().Path(path) }

// Rowset 返回 <result> 内名为 name 的 rowset 的所有行。
func (r *Result) Rowset(name string) []Node { return r.Body().Rowset(name) }

// Node 文档中的一个元素或属性值。零值表示不存在，所有方法对零值安全。
type Node struct {
	el      *etree.Element
	attr    string
	hasAttr bool
}

// Exists 报告节点是否存在。
func (n Node) Exists() bool { return n.el != nil || n.hasAttr }

// Name 返回元素标签名，属性节点返回空串。
func (n Node) Name() string {
	if n.el == nil {
		return ""
	}
	return n.el.Tag
}

// Get 按顺序解析 name：
//  1. 标签为 name 的子元素
//  2. name 属性等于 name 的 <rowset> 子元素
//  3. 当前元素上名为 name 的属性
func (n Node) Get(name string) Node {
	if n.el == nil {
		return Node{}
	}
	if child := n.el.SelectElement(name); child != nil {
		return Node{el: child}
	}
	for _, rs := range n.el.SelectElements("rowset") {
		if rs.SelectAttrValue("name", "") == name {
			return Node{el: rs}
		}
	}
	if a := n.el.SelectAttr(name); a != nil {
		return Node{attr: a.Value, hasAttr: true}
	}
	return Node{}
}

// Path 按 "." 分隔逐级调用 Get。
func (n Node) Path(path string) Node {
	cur := n
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			continue
		}
		cur = cur.Get(part)
		if !cur.Exists() {
			return Node{}
		}
	}
	return cur
}

// Attr 返回当前元素的属性值，不存在时返回空串。
func (n Node) Attr(name string) string {
	if n.el == nil {
		return ""
	}
	return n.el.SelectAttrValue(name, "")
}

// Attrs 返回当前元素的全部属性。
func (n Node) Attrs() map[string]string {
	if n.el == nil {
		return nil
	}
	out := make(map[string]string, len(n.el.Attr))
	for _, a := range n.el.Attr {
		out[a.Key] = a.Value
	}
	return out
}

// String 返回属性值或元素的文本内容（去除首尾空白）。
func (n Node) String() string {
	if n.hasAttr {
		return n.attr
	}
	if n.el == nil {
		return ""
	}
	return strings.TrimSpace(n.el.Text())
}

// Int64 将值解析为 int64，非数字返回 0。
func (n Node) Int64() int64 {
	v, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// Int 将值解析为 int，非数字返回 0。
func (n Node) Int() int { return int(n.Int64()) }

// Float64 将值解析为 float64，非数字返回 0。
func (n Node) Float64() float64 {
	v, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return 0
	}
	return v
}

// Bool 识别 "True"/"true"/"1"。
func (n Node) Bool() bool {
	switch strings.ToLower(n.String()) {
	case "true", "1":
		return true
	default:
		return false
	}
}

// Time 按 TimeLayout 解析为 UTC 时间。
func (n Node) Time() (time.Time, bool) {
	s := n.String()
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(TimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Children 返回全部子元素。
func (n Node) Children() []Node {
	if n.el == nil {
		return nil
	}
	children := n.el.ChildElements()
	out := make([]Node, 0, len(children))
	for _, c := range children {
		out = append(out, Node{el: c})
	}
	return out
}

// Rows 返回 rowset 节点下的 <row> 元素。
func (n Node) Rows() []Node {
	if n.el == nil {
		return nil
	}
	rows := n.el.SelectElements("row")
	out := make([]Node, 0, len(rows))
	for _, r := range rows {
		out = append(out, Node{el: r})
	}
	return out
}

// Rowset 返回名为 name 的 rowset 的行。
func (n Node) Rowset(name string) []Node {
	rs := n.Get(name)
	if rs.Name() != "rowset" {
		return nil
	}
	return rs.Rows()
}

// Flatten 把节点展开为 "path=value" 形式的扁平映射，供 CLI 输出使用。
// 行以 "[i]" 标记下标。
func (n Node) Flatten() map[string]string {
	out := make(map[string]string)
	flatten(n, "", out)
	return out
}

func flatten(n Node, prefix string, out map[string]string) {
	if n.hasAttr {
		out[prefix] = n.attr
		return
	}
	if n.el == nil {
		return
	}
	for _, a := range n.el.Attr {
		out[join(prefix, a.Key)] = a.Value
	}
	children := n.el.ChildElements()
	if len(children) == 0 {
		if text := strings.TrimSpace(n.el.Text()); text != "" || len(n.el.Attr) == 0 {
			out[prefix] = text
		}
		return
	}
	for _, c := range children {
		if c.Tag != "rowset" {
			flatten(Node{el: c}, join(prefix, c.Tag), out)
			continue
		}
		name := join(prefix, c.SelectAttrValue("name", "rowset"))
		for i, row := range c.SelectElements("row") {
			flatten(Node{el: row}, fmt.Sprintf("%s[%d]", name, i), out)
		}
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
