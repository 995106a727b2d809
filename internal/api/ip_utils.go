package api

import (
	"net"
	"net/http"
	"strings"
)

// 文档注释：获取客户端 IP（用于提交去重与日志）
// 背景：多层代理环境下，优先常见反向代理头，最后回退远端地址。
// 约束：头部存在伪造风险，结果只用于去重与日志，不参与鉴权。
func clientIP(r *http.Request) string {
	h := r.Header
	if x := h.Get("x-forwarded-for"); x != "" {
		return strings.TrimSpace(strings.Split(x, ",")[0])
	}
	if x := h.Get("cf-connecting-ip"); x != "" {
		return x
	}
	if x := h.Get("x-real-ip"); x != "" {
		return x
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
