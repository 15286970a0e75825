package llm

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/yockii/ai_report/internal/feed"
)

// 数据源没有所需语言时回退的语言
const fallbackLanguage = "de"

// localized 取 path.lang 下的列表，不存在时回退到德语
func localized(value gjson.Result, path, language string) []gjson.Result {
	prefix := ""
	if path != "" {
		prefix = path + "."
	}
	items := value.Get(prefix + language)
	if !items.Exists() || items.Type == gjson.Null {
		items = value.Get(prefix + fallbackLanguage)
	}
	return items.Array()
}

func or(value gjson.Result, def string) string {
	if s := value.String(); s != "" {
		return s
	}
	return def
}

// Condense 将一个周期的数据压缩为提示词中的markdown上下文
//
// 没有任何数据时返回空字符串。
func Condense(data *feed.PeriodData, language string) string {
	if data == nil {
		return ""
	}
	var lines []string
	section := func(title string, items []gjson.Result, line func(gjson.Result) string) {
		if len(items) == 0 {
			return
		}
		lines = append(lines, "## "+title)
		for _, item := range items {
			lines = append(lines, line(item))
		}
	}

	section("Tech News", localized(data.Tech, "", language), func(item gjson.Result) string {
		s := fmt.Sprintf("- [%s] (%s) %s", or(item.Get("category"), "General"), or(item.Get("impact"), "medium"), item.Get("content").String())
		if source := item.Get("source").String(); source != "" {
			s += " (Source: " + source + ")"
		}
		return s
	})
	section("Primary Market", localized(data.Investment, "primaryMarket", language), func(item gjson.Result) string {
		return fmt.Sprintf("- %s: %s (%s)", item.Get("company").String(), or(item.Get("amount"), "undisclosed"), or(item.Get("round"), "N/A"))
	})
	section("Secondary Market", localized(data.Investment, "secondaryMarket", language), func(item gjson.Result) string {
		sign := ""
		if item.Get("direction").String() == "up" {
			sign = "+"
		}
		return fmt.Sprintf("- %s: %s (%s%s)", item.Get("ticker").String(), item.Get("price").String(), sign, item.Get("change").String())
	})
	section("M&A", localized(data.Investment, "ma", language), func(item gjson.Result) string {
		return fmt.Sprintf("- %s → %s: %s", item.Get("acquirer").String(), item.Get("target").String(), or(item.Get("dealValue"), "undisclosed"))
	})
	section("Tips", localized(data.Tips, "", language), func(item gjson.Result) string {
		tip := item.Get("tip").String()
		if tip == "" {
			tip = item.Get("content").String()
		}
		return fmt.Sprintf("- [%s] %s (%s)", or(item.Get("difficulty"), "General"), tip, item.Get("platform").String())
	})
	section("Trends", localized(data.Trends, "trends", language), func(item gjson.Result) string {
		return fmt.Sprintf("- %s (%s)", item.Get("title").String(), item.Get("category").String())
	})

	return strings.Join(lines, "\n")
}
