package biz

import (
	"strings"
	"unicode"

	"github.com/kart-io/astramed/internal/pkg/textutil"
)

// DefaultLanguage 请求未指定语言时使用的输出语言。
const DefaultLanguage = "Français"

// Locale 一种输出语言的固定文案。
type Locale struct {
	Code              string
	Disclaimer        string
	NoEvidence        string
	SynthesisFallback string
}

var (
	LocaleFR = &Locale{
		Code:              "fr",
		Disclaimer:        " Consultez un professionnel de santé.",
		NoEvidence:        "Aucune source pertinente trouvée.",
		SynthesisFallback: "Impossible de générer une réponse reformulée à partir des sources disponibles.",
	}
	LocaleEN = &Locale{
		Code:              "en",
		Disclaimer:        " Consult a healthcare professional.",
		NoEvidence:        "No relevant source found.",
		SynthesisFallback: "unable to produce a synthesized answer from available sources",
	}
	LocaleAR = &Locale{
		Code:              "ar",
		Disclaimer:        " استشر أخصائي الرعاية الصحية.",
		NoEvidence:        "لم يتم العثور على مصدر ذي صلة.",
		SynthesisFallback: "تعذر إنشاء إجابة معاد صياغتها من المصادر المتاحة.",
	}
)

var localeAliases = map[string]*Locale{}

func init() {
	aliases := map[*Locale][]string{
		LocaleFR: {"fr", "français", "francais", "french", "française"},
		LocaleEN: {"en", "english", "anglais", "inglés"},
		LocaleAR: {"ar", "arabic", "arabe", "العربية", "عربي"},
	}
	for loc, names := range aliases {
		for _, name := range names {
			localeAliases[textutil.Fold(name)] = loc
		}
	}
}

// ResolveLocale 把请求的 language 字段解析为文案包，未知语言回退法语。
// 支持 "fr"、"fr-FR"、"English"、"العربية" 等写法。
func ResolveLocale(language string) *Locale {
	key := textutil.Fold(strings.TrimSpace(language))
	if loc, ok := localeAliases[key]; ok {
		return loc
	}
	if i := strings.IndexAny(key, "-_"); i > 0 {
		if loc, ok := localeAliases[key[:i]]; ok {
			return loc
		}
	}
	return LocaleFR
}

// LanguageName 返回传给提示词的目标语言，空值使用默认语言。
func LanguageName(language string) string {
	if l := strings.TrimSpace(language); l != "" {
		return l
	}
	return DefaultLanguage
}

// EnsureDisclaimer 去掉文本中所有位置的免责声明后在结尾追加一次。
// 删除处的空白合并为一个空格，原空白含换行时保留一个换行。
func EnsureDisclaimer(text string, loc *Locale) string {
	if loc == nil {
		loc = LocaleFR
	}
	suffix := strings.TrimSpace(loc.Disclaimer)

	var (
		b   strings.Builder
		gap string // 上一段正文之后累积的空白
	)
	for _, part := range strings.Split(text, suffix) {
		body := strings.TrimSpace(part)
		if body == "" {
			gap += part
			continue
		}
		if b.Len() > 0 {
			gap += part[:len(part)-len(strings.TrimLeftFunc(part, unicode.IsSpace))]
			if strings.Contains(gap, "\n") {
				b.WriteByte('\n')
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString(body)
		gap = part[len(strings.TrimRightFunc(part, unicode.IsSpace)):]
	}
	if b.Len() == 0 {
		return suffix
	}
	return b.String() + loc.Disclaimer
}
