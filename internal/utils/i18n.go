package utils

// Server-side messages for fixed keys. Questionnaire text is stored data and
// is not translated here.

var translations = map[string]map[string]string{
	"en": {
		"health.ok":             "ok",
		"error.invalid":         "The request is invalid.",
		"error.unauthorized":    "Please log in to continue.",
		"error.forbidden":       "Admin view is required.",
		"error.not_found":       "Not found.",
		"error.conflict":        "This email is already registered.",
		"error.internal":        "Something went wrong. Please try again.",
		"error.unknown_section": "Unknown section.",
		"auth.logged_out":       "You have been logged out.",
		"assessment.submitted":  "Assessment submitted successfully.",
		"profile.updated":       "Profile updated successfully.",
	},
	"zh": {
		"health.ok":             "好的",
		"error.invalid":         "请求无效。",
		"error.unauthorized":    "请先登录。",
		"error.forbidden":       "需要管理员视图。",
		"error.not_found":       "未找到。",
		"error.conflict":        "该邮箱已注册。",
		"error.internal":        "出现错误，请重试。",
		"error.unknown_section": "未知的页面。",
		"auth.logged_out":       "您已退出登录。",
		"assessment.submitted":  "评估已提交。",
		"profile.updated":       "个人资料已更新。",
	},
}

// T looks key up in locale, accepting regional tags, then in English.
// Unknown keys are returned as-is.
func T(locale, key string) string {
	if l, ok := supportedLocale(locale); ok {
		if v, ok := translations[l][key]; ok {
			return v
		}
	}
	if v, ok := translations["en"][key]; ok {
		return v
	}
	return key
}
