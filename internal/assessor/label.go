package assessor

import (
	"fmt"
	"strings"
)

// Label is the closed set of verdicts.
type Label string

const (
	Benign     Label = "Benign"
	Phishing   Label = "Phishing"
	Malware    Label = "Malware"
	Defacement Label = "Defacement"
)

// Labels lists every verdict.
var Labels = []Label{Benign, Phishing, Malware, Defacement}

// ParseLabel maps a decoder class name such as "phishing" onto a Label.
func ParseLabel(s string) (Label, error) {
	key := strings.TrimSpace(s)
	for _, l := range Labels {
		if strings.EqualFold(key, string(l)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown label %q", s)
}

func (l Label) String() string { return string(l) }
