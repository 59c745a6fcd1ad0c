package summary

import (
	"strings"
)

// Summary is the structured form of a summarizer reply. The Found flags
// tell an empty section apart from a missing one.
type Summary struct {
	TLDR             string   `json:"tldr" bson:"tldr"`
	KeyFeatures      []string `json:"keyFeatures" bson:"keyFeatures"`
	TLDRFound        bool     `json:"tldrFound" bson:"tldrFound"`
	KeyFeaturesFound bool     `json:"keyFeaturesFound" bson:"keyFeaturesFound"`
}

type section int

const (
	sectionNone section = iota
	sectionTLDR
	sectionFeatures
)

// ParseReply scans free text for a "TLDR:" and a "KEY FEATURES" section.
// Headers match case-insensitively and may carry markdown decoration. A
// missing section leaves its fields empty; ParseReply never fails.
func ParseReply(text string) Summary {
	s := Summary{KeyFeatures: []string{}}
	var tldr []string
	cur := sectionNone
	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if sec, rest, ok := header(raw); ok {
			cur = sec
			switch sec {
			case sectionTLDR:
				s.TLDRFound = true
				if rest != "" {
					tldr = append(tldr, rest)
				}
			case sectionFeatures:
				s.KeyFeaturesFound = true
				if item := bullet(rest); item != "" {
					s.KeyFeatures = append(s.KeyFeatures, item)
				}
			}
			continue
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		switch cur {
		case sectionTLDR:
			tldr = append(tldr, strings.Trim(line, "*_ "))
		case sectionFeatures:
			if item := bullet(line); item != "" {
				s.KeyFeatures = append(s.KeyFeatures, item)
			}
		}
	}
	s.TLDR = strings.Join(tldr, " ")
	return s
}

// header recognises a section header line and returns the text after it.
// Any title may sit between the header name and its colon, as in
// "KEY FEATURES MENTIONED BY USERS:". Without a colon the rest of the line
// must read as a short title.
func header(line string) (section, string, bool) {
	t := strings.TrimLeft(strings.TrimSpace(line), "#*_> ")
	upper := strings.ToUpper(t)
	var sec section
	var n int
	switch {
	case strings.HasPrefix(upper, "TL;DR"):
		sec, n = sectionTLDR, len("TL;DR")
	case strings.HasPrefix(upper, "TLDR"):
		sec, n = sectionTLDR, len("TLDR")
	case strings.HasPrefix(upper, "KEY FEATURES"):
		sec, n = sectionFeatures, len("KEY FEATURES")
	default:
		return sectionNone, "", false
	}
	rest := strings.TrimLeft(t[n:], "*_ ")
	switch i := strings.Index(rest, ":"); {
	case rest == "":
	case i >= 0 && isTitle(rest[:i]):
		rest = rest[i+1:]
	case i < 0 && isTitle(rest) && len(strings.Fields(rest)) <= maxBareTitleWords:
		rest = ""
	default:
		return sectionNone, "", false
	}
	return sec, strings.TrimSpace(strings.Trim(strings.TrimSpace(rest), "*_")), true
}

const maxBareTitleWords = 6

// isTitle rejects text that reads as a sentence rather than a header title.
func isTitle(s string) bool {
	return !strings.ContainsAny(strings.Trim(s, "*_ "), ".!?")
}

// bullet strips list markers ("-", "*", "•", "1.", "2)") from a line.
func bullet(line string) string {
	t := strings.TrimSpace(line)
	t = strings.TrimLeft(t, "-*•+ ")
	i := 0
	for i < len(t) && t[i] >= '0' && t[i] <= '9' {
		i++
	}
	if i > 0 && i < len(t) && (t[i] == '.' || t[i] == ')') {
		t = t[i+1:]
	}
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(t), "*_"))
}
