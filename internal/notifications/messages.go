package notifications

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys double as the English text.
const (
	keyTitleAuditRequired  = "CustomsFlow - Audit Required"
	keyTitleAuditCompleted = "CustomsFlow - Audit Completed"
	keyTitleCleared        = "CustomsFlow - Cleared"
	keyTitleTest           = "CustomsFlow - Test"

	keyAuditRequired  = "Declaration %s requires manual audit"
	keyAuditCompleted = "Audit complete for %s (transaction %s)"
	keyCleared        = "Declaration %s cleared"
	keyTest           = "Notification system test"
	keyUnknown        = "unknown"
)

var messages = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	zh := map[string]string{
		keyTitleAuditRequired:  "CustomsFlow - 需要审核",
		keyTitleAuditCompleted: "CustomsFlow - 审核完成",
		keyTitleCleared:        "CustomsFlow - 已放行",
		keyTitleTest:           "CustomsFlow - 测试",
		keyAuditRequired:       "报关单 %s 需要人工审核",
		keyAuditCompleted:      "报关单 %s 审核完成 (交易号 %s)",
		keyCleared:             "报关单 %s 已放行",
		keyTest:                "通知系统测试",
		keyUnknown:             "未知",
	}
	for key, text := range zh {
		_ = b.SetString(language.English, key, key)
		_ = b.SetString(language.Chinese, key, text)
	}
	return b
}

// Language maps a configured language code onto a supported tag. Anything
// unrecognised falls back to English.
func Language(code string) language.Tag {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "zh", "zh-cn", "zh-hans":
		return language.Chinese
	default:
		return language.English
	}
}

func newPrinter(code string) *message.Printer {
	return message.NewPrinter(Language(code), message.Catalog(messages))
}
