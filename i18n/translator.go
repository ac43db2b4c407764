// Package i18n localizes issue messages produced by the codec.
package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for Issue codes.
// data fills {placeholders} in the message (for example "key" or "type").
type Translator interface {
	Message(code string, data map[string]string) string
}

var dictionaries = map[string]map[string]string{
	"en": {
		"unsupported_shape":       "value has no representable dynamic shape",
		"unsupported_type":        "value of type {type} cannot be encoded",
		"malformed_scalar":        "key {key} is present but cannot be read as {type}",
		"missing_required_nested": "required nested record {key} is missing",
		"required":                "required key {key} is missing",
		"invalid_type":            "expected {expected}",
		"parse_error":             "parse error",
		"duplicate_key":           "duplicate key",
		"truncated":               "truncated",
	},
	"ja": {
		"unsupported_shape":       "表現できない値の形です",
		"unsupported_type":        "{type} 型の値はエンコードできません",
		"malformed_scalar":        "キー {key} の値を {type} として読み取れません",
		"missing_required_nested": "必須のネストしたレコード {key} がありません",
		"required":                "必須キー {key} がありません",
		"invalid_type":            "{expected} が必要です",
		"parse_error":             "解析エラー",
		"duplicate_key":           "キーが重複しています",
		"truncated":               "打ち切られました",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := dictionaries[t.lang][code]
	if !ok {
		return code
	}
	if len(data) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if _, ok := dictionaries[lang]; !ok {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation. nil restores English.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
