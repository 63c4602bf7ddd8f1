package candidate

// Kind is the semantic type of a reviewed file.
type Kind int

const (
	KindUnknown Kind = iota
	KindTask
	KindHandler
	KindRoleVars
	KindGroupVars
	KindHostVars
	KindMeta
	KindArgumentSpecs
	KindCode
	KindInventory
	KindRolesfile
	KindMakefile
	KindTemplate
	KindFile
	KindPlaybook
	KindDoc
)

var kindNames = map[Kind]string{
	KindTask:          "task",
	KindHandler:       "handler",
	KindRoleVars:      "rolevars",
	KindGroupVars:     "groupvars",
	KindHostVars:      "hostvars",
	KindMeta:          "meta",
	KindArgumentSpecs: "argumentspecs",
	KindCode:          "code",
	KindInventory:     "inventory",
	KindRolesfile:     "rolesfile",
	KindMakefile:      "makefile",
	KindTemplate:      "template",
	KindFile:          "file",
	KindPlaybook:      "playbook",
	KindDoc:           "doc",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind is the inverse of Kind.String. Unknown names yield KindUnknown.
func ParseKind(name string) Kind {
	for k, n := range kindNames {
		if n == name {
			return k
		}
	}
	return KindUnknown
}

// IsRoleFile reports whether files of this kind live structurally inside a role.
func IsRoleFile(k Kind) bool {
	switch k {
	case KindTask, KindHandler, KindRoleVars, KindMeta, KindTemplate, KindFile:
		return true
	}
	return false
}

// ExpectsVersion reports whether a missing standards version is worth a warning.
func ExpectsVersion(k Kind) bool {
	switch k {
	case KindGroupVars, KindHostVars, KindCode, KindInventory, KindRolesfile, KindMakefile, KindDoc, KindUnknown:
		return false
	}
	return true
}

// ActionSection returns the top-level section name tasks are read from.
// Task and handler files are plain task lists; everything else holds plays.
func ActionSection(k Kind) string {
	switch k {
	case KindTask:
		return "tasks"
	case KindHandler:
		return "handlers"
	}
	return ""
}
