// Package rules holds the built-in rule set.
package rules

import (
	"github.com/scan-io-git/ansible-later/internal/candidate"
	"github.com/scan-io-git/ansible-later/internal/rule"
)

var (
	taskKinds = []candidate.Kind{candidate.KindPlaybook, candidate.KindTask, candidate.KindHandler}
	yamlKinds = []candidate.Kind{
		candidate.KindPlaybook, candidate.KindTask, candidate.KindHandler,
		candidate.KindRoleVars, candidate.KindHostVars, candidate.KindGroupVars, candidate.KindMeta,
	}
	varsKinds = []candidate.Kind{
		candidate.KindPlaybook, candidate.KindTask, candidate.KindHandler,
		candidate.KindRoleVars, candidate.KindHostVars, candidate.KindGroupVars,
	}
	templateKinds = []candidate.Kind{
		candidate.KindPlaybook, candidate.KindTask, candidate.KindHandler, candidate.KindTemplate,
	}
)

// Builtin returns the statically registered rules in registration order.
func Builtin() []rule.Rule {
	return []rule.Rule{
		NewTaskSeparation(),
		NewMetaMain(),
		NewUniqueNamedTask(),
		NewBracesSpaces(),
		NewScmInSrc(),
		NewNamedTask(),
		NewNameFormat(),
		NewCommandInsteadOfModule(),
		NewInstallUseLatest(),
		NewShellInsteadCommand(),
		NewCommandHasChanges(),
		NewCompareToEmptyString(),
		NewCompareToLiteralBool(),
		NewLiteralBoolFormat(),
		NewBecomeUser(),
		NewFilterSeparation(),
		NewCommandInsteadOfArgument(),
		NewFilePermissionMissing(),
		NewFilePermissionOctal(),
		NewMetaChangeFromDefault(),
		NewWhenFormat(),
		NewNestedJinja(),
		NewLocalAction(),
		NewRelativeRolePaths(),
		NewChangedInWhen(),
		NewDeprecatedBareVars(),
		NewFQCNBuiltin(),
		NewKeyOrder(),
		NewDeprecated(),
		NewVersionPinned(),
		NewYamlEmptyLines(),
		NewYamlIndent(),
		NewYamlHyphens(),
		NewYamlDocumentStart(),
		NewYamlColons(),
		NewYamlFile(),
		NewYamlHasContent(),
		NewNativeYaml(),
		NewYamlDocumentEnd(),
		NewYamlOctalValues(),
	}
}

// nestedLookup collects the values of key at any depth of a native document.
func nestedLookup(key string, doc any) []any {
	var found []any
	switch t := doc.(type) {
	case map[string]any:
		for k, v := range t {
			if k == key {
				found = append(found, v)
			}
			found = append(found, nestedLookup(key, v)...)
		}
	case []any:
		for _, item := range t {
			found = append(found, nestedLookup(key, item)...)
		}
	}
	return found
}
