package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"pschat/domain"
)

// FormatSettings decodes the per-format display bitmask.
type FormatSettings struct {
	Team           bool
	SearchShow     bool
	ChallengeShow  bool
	TournamentShow bool
	MaxLevel50     bool
	BestOfDefault  bool
}

func ParseFormatBitmask(bitmask int64) FormatSettings {
	return FormatSettings{
		Team:           bitmask&1 != 0,
		SearchShow:     bitmask&2 != 0,
		ChallengeShow:  bitmask&4 != 0,
		TournamentShow: bitmask&8 != 0,
		MaxLevel50:     bitmask&16 != 0,
		BestOfDefault:  bitmask&64 != 0,
	}
}

type Format struct {
	Gen      string
	Name     string
	ID       domain.UserID
	Settings FormatSettings
}

type FormatCategory struct {
	Name    string
	Column  int
	Formats []Format
}

type Formats struct {
	Categories []FormatCategory
}

// ParseFormats interprets the |formats| payload: ",<column>" opens a new
// category whose name is the following field, "[Gen N] Name,<hex>" adds a
// format to the current category, and the ",LL" sentinel is skipped.
func ParseFormats(fields []string) (*Formats, error) {
	result := &Formats{}
	nextIsCategory := false
	column := 1
	for _, field := range fields {
		switch {
		case nextIsCategory:
			result.Categories = append(result.Categories, FormatCategory{
				Name:   field,
				Column: column,
			})
			nextIsCategory = false
		case strings.HasPrefix(field, ",LL"):
			continue
		case strings.HasPrefix(field, ","):
			nextIsCategory = true
			if col, err := strconv.Atoi(field[1:]); err == nil {
				column = col
			}
		case strings.HasPrefix(field, "["):
			genPart, namePart, ok := strings.Cut(field, "]")
			if !ok || len(result.Categories) == 0 {
				return nil, fmt.Errorf("malformed format entry %q", field)
			}
			genWords := strings.Fields(genPart[1:])
			gen := ""
			if len(genWords) > 1 {
				gen = genWords[1]
			}
			name, mask, _ := strings.Cut(strings.TrimSpace(namePart), ",")
			bits, _ := strconv.ParseInt(mask, 16, 64)
			cat := &result.Categories[len(result.Categories)-1]
			cat.Formats = append(cat.Formats, Format{
				Gen:      gen,
				Name:     strings.TrimSpace(name),
				ID:       domain.ToID("gen" + gen + name),
				Settings: ParseFormatBitmask(bits),
			})
		default:
			return nil, fmt.Errorf("unknown format field %q", field)
		}
	}
	return result, nil
}
