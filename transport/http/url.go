package http

import (
	"net/url"
	"strings"
)

// JoinURL 拼接 base 与路径段，段首尾多余的 "/" 会被去掉。
//
//	JoinURL("https://api.example.com/v1", "rides", id, "rate")
func JoinURL(base string, segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	for _, s := range segments {
		s = strings.Trim(s, "/")
		if s == "" {
			continue
		}
		b.WriteByte('/')
		b.WriteString(s)
	}
	return b.String()
}

// Path 构建带参数的相对路径，每个参数单独转义，防止 id 中的 "/" 改变路由
//
//	Path("rides", id, "rate") -> "/rides/<id>/rate"
func Path(segments ...string) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}
