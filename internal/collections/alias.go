package collections

import (
	"strings"

	"github.com/dreamware/strata/internal/state"
)

// AliasResolver maps a user-facing collection alias to the real collection
// name. A name that is not an alias resolves to itself.
type AliasResolver interface {
	ResolveSimpleAlias(name string) (string, error)
}

// ReaderAliases resolves aliases against the locally cached cluster view.
// Only simple (single-target, one-level) aliases resolve; an alias pointing
// at multiple collections is an error.
type ReaderAliases struct {
	Reader *state.Reader
}

func (a *ReaderAliases) ResolveSimpleAlias(name string) (string, error) {
	target, ok := a.Reader.Current().Aliases[name]
	if !ok {
		return name, nil
	}
	if strings.Contains(target, ",") {
		return "", &AliasResolutionError{Alias: name, Reason: "alias refers to multiple collections"}
	}
	return target, nil
}
