// 包 version：构建信息，通过 -ldflags "-X tree-adopt/internal/version.Commit=..." 注入
package version

var Commit = "dev"
