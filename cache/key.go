package cache

import "strings"

// Key 分层的缓存 key，例如 {"rides", "detail", id}。
// 失效按前缀匹配，{"rides"} 覆盖所有行程相关条目。
type Key []string

// K 构造 Key
func K(parts ...string) Key {
	return Key(parts)
}

// HasPrefix 判断 k 是否以 prefix 开头，空前缀匹配所有 key
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i, p := range prefix {
		if k[i] != p {
			return false
		}
	}
	return true
}

// Append 返回追加了 parts 的新 Key，不修改 k
func (k Key) Append(parts ...string) Key {
	out := make(Key, 0, len(k)+len(parts))
	out = append(out, k...)
	return append(out, parts...)
}

func (k Key) String() string {
	return strings.Join(k, "/")
}

func (k Key) id() string {
	return strings.Join(k, "\x00")
}
