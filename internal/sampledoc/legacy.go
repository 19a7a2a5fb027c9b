package sampledoc

import (
	"regexp"
	"strings"
)

var (
	aliasDeclPattern = regexp.MustCompile(`\s+xmlns:(ns\d+)="([^"]*)"`)
	firstTagPattern  = regexp.MustCompile(`<[A-Za-z_][^\s/>]*`)
)

// NormalizeNamespacePrefixes rewrites machine-generated nsN prefixes the
// way older consumers expect: aliases of the sequence namespace collapse
// into the default namespace and aliases of the XMLSchema-instance
// namespace collapse into "i". Canonical declarations are added to the root
// element when missing.
//
// This is plain substring replacement, not an XML transform. Text content
// that happens to contain "<ns0:" or a quoted "ns0:" is rewritten too.
func NormalizeNamespacePrefixes(text string) string {
	var seqAliases, xsiAliases []string
	for _, m := range aliasDeclPattern.FindAllStringSubmatch(text, -1) {
		switch m[2] {
		case NamespaceSequence:
			seqAliases = appendUnique(seqAliases, m[1])
		case NamespaceInstance:
			xsiAliases = appendUnique(xsiAliases, m[1])
		}
	}
	if len(seqAliases) == 0 && len(xsiAliases) == 0 {
		return text
	}

	text = aliasDeclPattern.ReplaceAllStringFunc(text, func(decl string) string {
		m := aliasDeclPattern.FindStringSubmatch(decl)
		if m[2] == NamespaceSequence || m[2] == NamespaceInstance {
			return ""
		}
		return decl
	})
	for _, alias := range seqAliases {
		text = strings.ReplaceAll(text, "</"+alias+":", "</")
		text = strings.ReplaceAll(text, "<"+alias+":", "<")
		text = strings.ReplaceAll(text, `"`+alias+":", `"`)
	}
	for _, alias := range xsiAliases {
		text = strings.ReplaceAll(text, " "+alias+":", " i:")
	}
	return ensureRootDeclarations(text, len(seqAliases) > 0, len(xsiAliases) > 0)
}

func ensureRootDeclarations(text string, needDefault, needInstance bool) string {
	loc := firstTagPattern.FindStringIndex(text)
	if loc == nil {
		return text
	}
	end := strings.IndexByte(text[loc[1]:], '>')
	if end < 0 {
		return text
	}
	tag := text[loc[0] : loc[1]+end]

	var decls string
	if needDefault && !strings.Contains(tag, `xmlns="`) {
		decls += ` xmlns="` + NamespaceSequence + `"`
	}
	if needInstance && !strings.Contains(tag, `xmlns:i="`) {
		decls += ` xmlns:i="` + NamespaceInstance + `"`
	}
	if decls == "" {
		return text
	}
	return text[:loc[1]] + decls + text[loc[1]:]
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
