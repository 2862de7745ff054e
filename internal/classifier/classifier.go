package classifier

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/xaenox/drive-assist/internal/models"
)

// ScheduleKeyword marks an utterance as a reminder request.
const ScheduleKeyword = "알람"

const shoppingSearchURL = "https://search.shopping.naver.com/search/all?query="

// ShoppingIcon prefixes shopping answers.
const ShoppingIcon = "🛒"

type accessory struct {
	category models.Category
	label    string
	keywords []string
}

// Declaration order decides ties: the first category with any matching
// keyword wins.
var accessories = []accessory{
	{models.CategoryEngineOil, "엔진오일", []string{"엔진오일", "오일", "오일갈아", "오일 교체", "오일 교환", "오일필터", "오일 필터", "윤활유"}},
	{models.CategoryAirFilter, "에어필터", []string{"에어필터", "캐빈필터", "공기필터", "에어컨필터", "공조필터"}},
	{models.CategoryBrakePad, "브레이크패드", []string{"브레이크패드", "패드", "브레이크 패드", "끼익", "브레이크 소리", "덜덜"}},
	{models.CategoryBrakeFluid, "브레이크액", []string{"브레이크액", "브레이크 오일", "dot3", "dot4"}},
	{models.CategoryCoolant, "냉각수", []string{"냉각수", "부동액", "쿨런트", "라디에이터", "과열"}},
	{models.CategoryBattery, "배터리", []string{"배터리", "방전", "축전지", "시동 안걸림"}},
	{models.CategoryTire, "타이어", []string{"타이어", "스노우타이어", "사계절 타이어", "트레드", "공기압", "펑크", "휠"}},
	{models.CategoryWiper, "와이퍼", []string{"와이퍼", "와이퍼 고무", "유리 닦는"}},
	{models.CategorySparkPlug, "점화플러그", []string{"점화플러그", "스파크플러그", "시동불량"}},
	{models.CategoryFuelAdditive, "연료첨가제", []string{"첨가제", "불스원샷", "인젝터 클리너"}},
	{models.CategoryOBDScanner, "OBD", []string{"obd", "스캐너", "코드리더기"}},
	{models.CategoryHeadlight, "전조등", []string{"전조등", "라이트", "램프", "hid", "led"}},
	{models.CategoryInteriorLight, "실내등", []string{"실내등", "룸램프"}},
	{models.CategoryDashcam, "블랙박스", []string{"블랙박스", "블박", "대시캠", "대쉬캠"}},
	{models.CategoryFuse, "퓨즈", []string{"퓨즈", "전기 안들어와", "전기 문제"}},
	{models.CategoryCarWash, "세차용품", []string{"세차", "왁스", "광택", "폼건", "카샴푸"}},
	{models.CategoryAirFreshener, "방향제", []string{"방향제", "탈취", "차 냄새"}},
	{models.CategoryCharger, "충전기", []string{"충전기", "시거잭", "usb 충전"}},
	{models.CategoryTireChain, "체인", []string{"체인", "스노우체인"}},
}

var purchaseWords = []string{
	"추천", "추천해줘", "추천해 줘",
	"사야", "사야돼", "사야 돼",
	"사야할까", "사야 할까",
	"사고싶", "사고 싶",
	"살까", "구매", "뭐 사",
	"골라줘", "고르",
}

// Result is the outcome of classifying a single utterance.
type Result struct {
	Intent   models.Intent
	Category models.Category
	Label    string
	// Shopping is set when an accessory is named together with a purchase
	// phrase. It holds even for schedule requests, which fall back to the
	// question path when no time can be parsed.
	Shopping bool
}

// Classify reports the candidate intent of text. The schedule keyword
// outranks everything else; a schedule request still needs a parseable
// time before it is honored.
func Classify(text string) Result {
	category, label, found := DetectAccessory(text)
	r := Result{
		Intent:   models.IntentQuestion,
		Category: category,
		Label:    label,
		Shopping: found && HasPurchaseIntent(text),
	}

	switch {
	case IsScheduleRequest(text):
		r.Intent = models.IntentSchedule
	case r.Shopping:
		r.Intent = models.IntentPurchase
	}
	return r
}

func IsScheduleRequest(text string) bool {
	return strings.Contains(text, ScheduleKeyword) ||
		strings.Contains(strings.ReplaceAll(text, " ", ""), ScheduleKeyword)
}

// DetectAccessory returns the first accessory category whose keywords
// appear in text, matching either the original text or its lowercase form.
func DetectAccessory(text string) (models.Category, string, bool) {
	lower := strings.ToLower(text)
	for _, a := range accessories {
		for _, kw := range a.keywords {
			if strings.Contains(text, kw) || strings.Contains(lower, strings.ToLower(kw)) {
				return a.category, a.label, true
			}
		}
	}
	return "", "", false
}

func HasPurchaseIntent(text string) bool {
	for _, w := range purchaseWords {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// ShoppingLink builds a product search URL for label, scoped to carModel
// when one is given.
func ShoppingLink(label, carModel string) string {
	q := label
	if carModel != "" {
		q = carModel + " " + label
	}
	return shoppingSearchURL + strings.ReplaceAll(url.QueryEscape(q), "+", "%20")
}

// ShoppingMessage is the answer that replaces a regular reply when the
// user wants to buy an accessory.
func ShoppingMessage(label, carModel string) string {
	return fmt.Sprintf("%s %s 추천 링크입니다:\n%s", ShoppingIcon, label, ShoppingLink(label, carModel))
}
