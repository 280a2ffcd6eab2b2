package plan

import (
	"strings"

	"github.com/mmr-tortoise/shipyard/internal/model"
)

// Classify determines the commit kind and breaking flag from a commit's
// subject line and full message.
//
// Breaking detection accepts three conventional-commit spellings:
//   - "type!: subject" — the type prefix ends with "!"
//   - "type(scope)!: subject" — covered by the "!:" / "(!):" substrings
//   - a "BREAKING CHANGE:" marker anywhere in the message body,
//     matched case-insensitively
//
// A breaking commit is always classified KindBreaking regardless of its
// type prefix. Classification is total: anything that matches no known
// prefix is KindOther.
func Classify(subject, message string) (model.CommitKind, bool) {
	breaking := isBreaking(subject, message)
	if breaking {
		return model.KindBreaking, true
	}
	return classifySubject(subject), false
}

// isBreaking checks the subject header markers and the message body marker.
func isBreaking(subject, message string) bool {
	if strings.Contains(subject, "!:") || strings.Contains(subject, "(!):") {
		return true
	}
	// "refactor!(core): ..." style — the segment before the first colon
	// ends with "!". Only applies when the subject starts with a letter,
	// so arbitrary punctuation-led subjects are not misread.
	if len(subject) > 0 && isLetter(rune(subject[0])) {
		if head, _, ok := strings.Cut(subject, ":"); ok && strings.HasSuffix(head, "!") {
			return true
		}
	}
	return strings.Contains(strings.ToUpper(message), "BREAKING CHANGE:")
}

// classifySubject maps the conventional-commit type prefix to a kind.
// Prefix matching is case-insensitive and tolerant of scopes: the segment
// before the first colon is compared by prefix, so "feat(api)" matches
// "feat".
func classifySubject(subject string) model.CommitKind {
	head, _, _ := strings.Cut(strings.ToLower(subject), ":")
	switch {
	case strings.HasPrefix(head, "feat"):
		return model.KindFeat
	case strings.HasPrefix(head, "fix"):
		return model.KindFix
	case strings.HasPrefix(head, "perf"):
		return model.KindPerf
	case strings.HasPrefix(head, "refactor"):
		return model.KindRefactor
	case strings.HasPrefix(head, "docs"):
		return model.KindDocs
	case strings.HasPrefix(head, "build"):
		return model.KindBuild
	case strings.HasPrefix(head, "chore"):
		return model.KindChore
	default:
		return model.KindOther
	}
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
