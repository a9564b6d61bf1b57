package pricing

import (
	"regexp"
	"strings"

	"github.com/fekuna/repairshop-service/internal/model"
)

const DefaultBrand = "iPhone"

var (
	digitRun        = regexp.MustCompile(`\d+`)
	leadingDigitRun = regexp.MustCompile(`^\d+`)
	rangeDelimiter  = regexp.MustCompile(`[-/]`)
)

// Selection is a user-selected model split into its generation number and variant.
type Selection struct {
	Number  string
	Variant string
}

// ParseSelection strips brand from selected and splits the rest into the first
// digit run and the remaining variant words ("iPhone 13 Pro Max" -> "13", "pro max").
func ParseSelection(brand, selected string) Selection {
	s := strings.TrimSpace(strings.ToLower(selected))
	s = strings.TrimSpace(strings.TrimPrefix(s, strings.ToLower(brand)))

	loc := digitRun.FindStringIndex(s)
	if loc == nil {
		return Selection{Variant: s}
	}
	variant := strings.Join(strings.Fields(s[:loc[0]]+" "+s[loc[1]:]), " ")
	return Selection{Number: s[loc[0]:loc[1]], Variant: variant}
}

// labelNumber is the generation a range label stands for. Ranges use the leading
// digits of their first part, plain labels their first digit run.
func labelNumber(label string) string {
	l := strings.TrimSpace(strings.ToLower(label))
	if rangeDelimiter.MatchString(l) {
		first := strings.TrimSpace(rangeDelimiter.Split(l, 2)[0])
		return leadingDigitRun.FindString(first)
	}
	return digitRun.FindString(l)
}

type Resolver struct {
	Brand string
}

// Resolve returns the price of the first entry whose generation equals the selected
// one. The variant takes no part: "12 Mini" and "12 Pro Max" both hit "12 - 12 Pro Max".
func (r Resolver) Resolve(category model.ServiceCategory, selected string) (model.Price, bool) {
	sel := ParseSelection(r.Brand, selected)
	if sel.Number == "" {
		return model.Price{}, false
	}
	for _, entry := range category.Entries {
		if labelNumber(entry.Model) == sel.Number {
			return entry.Price, true
		}
	}
	return model.Price{}, false
}

func ResolvePrice(category model.ServiceCategory, selected string) (model.Price, bool) {
	return Resolver{Brand: DefaultBrand}.Resolve(category, selected)
}
