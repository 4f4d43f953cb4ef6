// Package locale holds the user-facing strings of easyref and picks the
// table matching the client's language.
package locale

import (
	"golang.org/x/text/language"
)

// Keys of the translation tables.
const (
	KindFigure  = "kind.fig"
	KindTable   = "kind.tbl"
	KindSection = "kind.sec"

	PrefixFigure   = "prefix.figure"
	PrefixTable    = "prefix.table"
	PrefixEquation = "prefix.equation"

	OptionFigureTitle    = "option.figureTitle"
	OptionTableTitle     = "option.tableTitle"
	OptionSubfigGrid     = "option.subfigGrid"
	OptionFigPrefix      = "option.figPrefix"
	OptionEqnPrefix      = "option.eqnPrefix"
	OptionTblPrefix      = "option.tblPrefix"
	OptionLinkReferences = "option.linkReferences"
	OptionNameInLink     = "option.nameInLink"

	CommandUpdateMetadata  = "command.updateMetadata"
	CommandNormalizeImages = "command.normalizeImages"

	MessageYAMLError     = "message.yamlError"
	MessageSettingsError = "message.settingsError"
	MessageNoDocument    = "message.noDocument"
)

var tables = map[string]map[string]string{
	"en": {
		KindFigure:  "Figure",
		KindTable:   "Table",
		KindSection: "Section",

		PrefixFigure:   "Figure",
		PrefixTable:    "Table",
		PrefixEquation: "Equation",

		OptionFigureTitle:    "Figure title",
		OptionTableTitle:     "Table title",
		OptionSubfigGrid:     "Sub-figure grid",
		OptionFigPrefix:      "Figure prefix",
		OptionEqnPrefix:      "Equation prefix",
		OptionTblPrefix:      "Table prefix",
		OptionLinkReferences: "Link references",
		OptionNameInLink:     "Name in link",

		CommandUpdateMetadata:  "Update reference metadata",
		CommandNormalizeImages: "Normalize image links",

		MessageYAMLError:     "Invalid YAML in additional reference template, please check and retry",
		MessageSettingsError: "Invalid easyref settings",
		MessageNoDocument:    "No open document",
	},
	"zh": {
		KindFigure:  "图",
		KindTable:   "表",
		KindSection: "章节",

		PrefixFigure:   "图",
		PrefixTable:    "表",
		PrefixEquation: "公式",

		OptionFigureTitle:    "图标题",
		OptionTableTitle:     "表标题",
		OptionSubfigGrid:     "子图网格",
		OptionFigPrefix:      "图引用前缀",
		OptionEqnPrefix:      "公式引用前缀",
		OptionTblPrefix:      "表引用前缀",
		OptionLinkReferences: "引用链接",
		OptionNameInLink:     "链接中包含名称",

		CommandUpdateMetadata:  "更新引用元数据",
		CommandNormalizeImages: "规范化图片链接",

		MessageYAMLError:     "YAML格式错误，请检查后重试",
		MessageSettingsError: "easyref 设置无效",
		MessageNoDocument:    "没有打开的文档",
	},
}

var (
	supported = []language.Tag{language.English, language.Chinese}
	matcher   = language.NewMatcher(supported)
)

// Translator looks up strings for one language. The zero value speaks
// English.
type Translator struct {
	lang string
}

// New returns a Translator for the best match of the given BCP 47 language
// preferences. Unknown or empty preferences fall back to English.
func New(preferences ...string) Translator {
	_, index := language.MatchStrings(matcher, preferences...)
	base, _ := supported[index].Base()
	return Translator{lang: base.String()}
}

// Language returns the base language code in use, "en" or "zh".
func (t Translator) Language() string {
	if t.lang == "" {
		return "en"
	}
	return t.lang
}

// T returns the translation of key. Missing keys fall back to English, then
// to the key itself.
func (t Translator) T(key string) string {
	if s, ok := tables[t.Language()][key]; ok {
		return s
	}
	if s, ok := tables["en"][key]; ok {
		return s
	}
	return key
}
