package classify

import (
	"strings"

	"golang.org/x/text/cases"
)

// Category buckets a job description by the kind of asset it concerns.
type Category string

const (
	CategoryServer   Category = "SERVER"
	CategoryApp      Category = "APP"
	CategoryEndpoint Category = "ENDPOINT"
	CategoryOther    Category = "OTHER"
)

// Tier bounds. DefaultTier applies when no rule matches.
const (
	MinTier     = 1
	MaxTier     = 5
	DefaultTier = 3
)

// Result is the derived priority tier and category for one description.
type Result struct {
	Tier     int
	Category Category
}

type tierRule struct {
	tier     int
	keywords []string
}

// Keyword sets mirror the upstream BMS classification exactly, including the
// Thai service-desk vocabulary. Rules are evaluated top to bottom; the first
// group containing a matching keyword wins.
var tierRules = []tierRule{
	{tier: 5, keywords: []string{
		"ระบบล่ม", "กู้ระบบ", "security", "server", "firewall", "database", "ความปลอดภัย",
	}},
	{tier: 4, keywords: []string{
		"ติดตั้งระบบใหม่", "เปลี่ยนอะไหล่", "ซ่อมบอร์ด", "ไวรัส", "กู้ข้อมูล", "คอมพิวเตอร์(ชำรุด)",
	}},
	{tier: 2, keywords: []string{
		"เพิ่มสายแลน", "ย้ายโทรศัพท์", "อินเทอร์เน็ต หลุด", "อินเทอร์เน็ต ช้า", "ไฟดับ",
	}},
	{tier: 1, keywords: []string{
		"ปรินเตอร์", "เครื่องพิมพ์", "พิมพ์ ไม่ได้", "ตั้งค่า", "เปลี่ยนรหัส", "เมาส์", "คีย์บอร์ด",
	}},
}

type categoryRule struct {
	category Category
	keywords []string
}

var categoryRules = []categoryRule{
	{category: CategoryServer, keywords: []string{
		"server", "database", "firewall", "network core", "ระบบล่ม", "กู้ระบบ",
	}},
	{category: CategoryApp, keywords: []string{
		"excel", "word", "windows", "ลงโปรแกรม", "ตั้งค่า", "รหัส",
	}},
	{category: CategoryEndpoint, keywords: []string{
		"คอม", "computer", "จอ", "ปรินเตอร์", "เครื่องพิมพ์", "พิมพ์", "เมาส์", "คีย์บอร์ด", "โทรศัพท์", "สายแลน",
	}},
}

// folder mirrors the case-insensitive collation of the upstream system; Thai
// has no case so folding only affects the Latin keywords.
var folder = cases.Fold()

// Classify maps a free-text description to a priority tier and category. It is
// deterministic and depends only on the input text.
func Classify(description string) Result {
	folded := folder.String(strings.TrimSpace(description))

	result := Result{Tier: DefaultTier, Category: CategoryOther}
	for _, rule := range tierRules {
		if containsAny(folded, rule.keywords) {
			result.Tier = rule.tier
			break
		}
	}
	for _, rule := range categoryRules {
		if containsAny(folded, rule.keywords) {
			result.Category = rule.category
			break
		}
	}
	return result
}

// Categories returns the fixed set of known categories.
func Categories() []Category {
	return []Category{CategoryServer, CategoryApp, CategoryEndpoint, CategoryOther}
}

func containsAny(folded string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(folded, folder.String(keyword)) {
			return true
		}
	}
	return false
}
