package hook

import (
	"regexp"
	"strings"
	"sync"
)

// globCache 已编译 glob 模式缓存，钩子按文件重复构造时避免重复编译.
var globCache sync.Map

// matchGlob 以 shell-glob 语义匹配，* 可以跨越路径分隔符.
func matchGlob(pattern, s string) bool {
	var re *regexp.Regexp

	if v, ok := globCache.Load(pattern); ok {
		re = v.(*regexp.Regexp)
	} else {
		compiled, err := regexp.Compile(globToRegexp(pattern))
		if err != nil {
			return false
		}

		globCache.Store(pattern, compiled)
		re = compiled
	}

	return re.MatchString(s)
}

// globToRegexp 将 glob 模式翻译为锚定的正则表达式.
func globToRegexp(pattern string) string {
	var b strings.Builder

	b.WriteString(`^`)

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch c := runes[i]; c {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '[':
			j := i + 1
			if j < len(runes) && (runes[j] == '!' || runes[j] == '^') {
				j++
			}

			if j < len(runes) && runes[j] == ']' {
				j++
			}

			for j < len(runes) && runes[j] != ']' {
				j++
			}

			if j >= len(runes) {
				b.WriteString(`\[`)
			} else {
				class := string(runes[i+1 : j])
				class = strings.ReplaceAll(class, `\`, `\\`)

				if strings.HasPrefix(class, "!") {
					class = "^" + class[1:]
				}

				b.WriteString(`[` + class + `]`)
				i = j
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	b.WriteString(`$`)

	return b.String()
}
