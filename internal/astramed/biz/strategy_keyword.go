package biz

import (
	"context"
	"strings"
	"unicode"

	"github.com/kart-io/astramed/internal/pkg/textutil"
)

// 医疗词表（法语、英语、阿拉伯语），匹配前统一小写并去除重音。
var (
	// 词干：任一词以此开头即命中
	medicalStems = []string{
		"symptom", "sympto", "maladi", "disease", "diabet", "cancer", "tumeur", "tumor", "tumour",
		"infect", "fievre", "fever", "douleur", "traitement", "treatment", "therap", "medica",
		"medicin", "medecin", "medic", "diagnos", "asthm", "allerg", "hypertens", "cardiaq",
		"cardiac", "cardio", "vaccin", "virus", "viral", "bacter", "antibio", "chirurg", "surger",
		"hepatit", "arthrit", "arthros", "migrain", "nause", "vomi", "diarrh", "constipat",
		"insulin", "glycem", "cholesterol", "epilep", "alzheimer", "parkinson", "depress",
		"anxiet", "anxiety", "syndrom", "chroniq", "chronic", "pathol", "pneumon", "bronch",
		"grippe", "posolog", "ordonnanc", "prescri", "hopital", "hospital", "blessur", "injur",
		"fractur", "inflamm", "eczema", "psoriasis", "anemi", "leucemi", "leukemi", "obesit",
		"obesity", "thyro", "renal", "kidney", "hepati", "poumon", "lung", "pulmon",
		"patholog", "gastroent", "gastrique", "gastrite", "gastric", "gastritis", "enterit",
		"derma", "neuro", "oncolog", "pediatr", "gyneco", "enceinte", "pregnan", "grossesse",
		"contracept", "sympt", "painful", "painkiller", "headach", "stomachach", "toothach",
	}
	// 短词：需要完整匹配
	medicalWords = []string{
		"maux", "toux", "cough", "flu", "covid", "sida", "hiv", "vih", "avc", "stroke",
		"ache", "rhume", "sang", "blood", "dose", "pill", "pilule", "doctor", "docteur",
		"nurse", "infirmier", "coeur", "cœur", "heart", "tension", "rash", "itch", "fatigue",
		"vertige", "dizziness", "sick", "ill", "malade", "soigner", "cure", "guerir", "mri", "irm",
		"gastro",
	}
	// 短语或阿拉伯语词：子串匹配
	medicalPhrases = []string{
		"mal de tete", "maux de tete", "mal de dos", "mal de gorge", "mal de ventre", "mal au ",
		"mal aux ", "mal a la ", "mal a l ", "crise cardiaque", "heart attack", "high blood pressure",
		"pression arterielle", "tension arterielle", "effets secondaires", "side effect",
		" in pain ", "chest pain", "back pain", "stomach pain", "joint pain", "pain relief",
		"أعراض", "عرض", "مرض", "السكري", "سكري", "علاج", "ألم", "دواء", "سرطان", "حمى",
		"تشخيص", "صداع", "طبيب", "مستشفى", "التهاب", "ضغط الدم", "عدوى", "لقاح",
	}
	// 弱词："santé"/"health" 单独出现多为寒暄（"À votre santé !"），
	// 只有同时出现限定词时才算医疗问题
	weakMedicalWords = []string{"sante", "health"}
	weakQualifiers   = []string{
		"probleme", "problem", "problems", "issue", "issues", "conseil", "conseils", "advice",
		"risque", "risques", "risk", "risks", "etat", "condition", "mentale", "mental", "bilan",
		"check", "checkup", "professionnel", "professional", "trouble", "troubles", "care",
		"soins", "concern", "concerns", "question", "questions",
	}
)

// KeywordStrategy 基于医疗词表的确定性路由。
type KeywordStrategy struct {
	stems      []string
	words      map[string]struct{}
	phrases    []string
	weak       map[string]struct{}
	qualifiers map[string]struct{}
}

var _ Strategy = (*KeywordStrategy)(nil)

// NewKeywordStrategy 创建关键词路由，extra 为额外的医疗词（按词干匹配）。
func NewKeywordStrategy(extra ...string) *KeywordStrategy {
	s := &KeywordStrategy{
		words:      toSet(medicalWords),
		weak:       toSet(weakMedicalWords),
		qualifiers: toSet(weakQualifiers),
	}
	for _, stem := range append(append([]string{}, medicalStems...), extra...) {
		if f := textutil.Fold(strings.TrimSpace(stem)); f != "" {
			s.stems = append(s.stems, f)
		}
	}
	for _, p := range medicalPhrases {
		s.phrases = append(s.phrases, textutil.Fold(p))
	}
	return s
}

// Name 返回策略名称。
func (s *KeywordStrategy) Name() string {
	return "keyword"
}

// Decide 命中任一医疗词即为 medical，否则为 general。
func (s *KeywordStrategy) Decide(_ context.Context, query string) (Route, error) {
	if s.IsMedical(query) {
		return RouteMedical, nil
	}
	return RouteGeneral, nil
}

// IsMedical 判断问题是否包含医疗词汇。
func (s *KeywordStrategy) IsMedical(query string) bool {
	folded := textutil.Fold(query)
	tokens := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var weak, qualified bool
	for _, tok := range tokens {
		if _, ok := s.words[tok]; ok {
			return true
		}
		for _, stem := range s.stems {
			if strings.HasPrefix(tok, stem) {
				return true
			}
		}
		if _, ok := s.weak[tok]; ok {
			weak = true
		}
		if _, ok := s.qualifiers[tok]; ok {
			qualified = true
		}
	}
	if weak && qualified {
		return true
	}

	normalized := " " + strings.Join(tokens, " ") + " "
	for _, p := range s.phrases {
		if strings.Contains(normalized, p) {
			return true
		}
	}
	return false
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[textutil.Fold(w)] = struct{}{}
	}
	return set
}
