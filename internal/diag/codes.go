package diag

import (
	"fmt"
	"strconv"
	"strings"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Разрешение имён
	ResInfo                Code = 1000
	ResUnresolvedReference Code = 1001
	ResAmbiguousReference  Code = 1002
	ResRedeclaration       Code = 1003
	ResInvisibleMember     Code = 1004
	ResUninitialized       Code = 1005
	ResRecursiveDependency Code = 1006

	// Типы
	TypInfo            Code = 2000
	TypMismatch        Code = 2001
	TypCannotInfer     Code = 2002
	TypUnsafeCall      Code = 2003
	TypUnusedValue     Code = 2004
	TypDeprecatedUsage Code = 2005

	// Хранилище фактов
	FctInfo             Code = 3000
	FctRewriteViolation Code = 3001
	FctWriteAfterFreeze Code = 3002
	FctDiagnosticLimit  Code = 3003

	// Скрипты
	ScrInfo            Code = 4000
	ScrExpectationFail Code = 4001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:            "Unknown error",
		ResInfo:                "Resolution information",
		ResUnresolvedReference: "Unresolved reference",
		ResAmbiguousReference:  "Ambiguous reference",
		ResRedeclaration:       "Conflicting declaration",
		ResInvisibleMember:     "Cannot access member",
		ResUninitialized:       "Variable used before initialization",
		ResRecursiveDependency: "Recursive dependency",
		TypInfo:                "Type information",
		TypMismatch:            "Type mismatch",
		TypCannotInfer:         "Cannot infer type",
		TypUnsafeCall:          "Unsafe call",
		TypUnusedValue:         "Unused value",
		TypDeprecatedUsage:     "Usage of deprecated element",
		FctInfo:                "Fact store information",
		FctRewriteViolation:    "Fact rewrite rejected",
		FctWriteAfterFreeze:    "Write to a frozen trace",
		FctDiagnosticLimit:     "Diagnostic limit reached",
		ScrInfo:                "Script information",
		ScrExpectationFail:     "Script expectation failed",
	}

	codePrefixes = []struct {
		prefix string
		base   int
	}{
		{"RES", 1000},
		{"TYP", 2000},
		{"FCT", 3000},
		{"SCR", 4000},
	}
)

func (c Code) ID() string {
	ic := int(c)
	for _, p := range codePrefixes {
		if ic >= p.base && ic < p.base+1000 {
			return fmt.Sprintf("%s%04d", p.prefix, ic)
		}
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// ParseCode accepts an ID ("RES1001") or a bare number ("1001").
func ParseCode(s string) (Code, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, p := range codePrefixes {
		if rest, ok := strings.CutPrefix(s, p.prefix); ok {
			s = rest
			break
		}
	}
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return UnknownCode, fmt.Errorf("invalid diagnostic code %q: %w", s, err)
	}
	return Code(n), nil
}
