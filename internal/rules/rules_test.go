package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/ansible-later/internal/candidate"
	"github.com/scan-io-git/ansible-later/internal/rule"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
)

func newCandidate(t *testing.T, rel, content string, kind candidate.Kind) *candidate.Candidate {
	t.Helper()
	path := filepath.Join(t.TempDir(), rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return candidate.New(path, kind, nil)
}

func check(t *testing.T, r rule.Rule, c *candidate.Candidate) []rule.Finding {
	t.Helper()
	res := r.Check(c, config.Default())
	require.NotNil(t, res)
	assert.Equal(t, c.Path, res.Path)
	return res.Findings
}

func TestBuiltinUniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range Builtin() {
		id := r.Info().ID
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
		assert.NotEmpty(t, r.Info().Description, id)
		assert.NotEmpty(t, r.Info().Types, id)
	}
	assert.Len(t, seen, 40)
}

func TestUniqueNamedTask(t *testing.T) {
	content := `---
- name: Install package
  apt:
    name: nginx

- name: Install package
  apt:
    name: curl
`
	c := newCandidate(t, "roles/web/tasks/main.yml", content, candidate.KindTask)
	findings := check(t, NewUniqueNamedTask(), c)

	require.Len(t, findings, 1)
	assert.Equal(t, 6, findings[0].Line)
	assert.Equal(t, "name `Install package` appears multiple times", findings[0].Message)
}

func TestMetaMain(t *testing.T) {
	t.Run("missing platforms", func(t *testing.T) {
		content := `---
galaxy_info:
  author: me
  description: Web role
  min_ansible_version: "2.9"
dependencies: []
`
		c := newCandidate(t, "roles/web/meta/main.yml", content, candidate.KindMeta)
		findings := check(t, NewMetaMain(), c)

		require.Len(t, findings, 1)
		assert.Contains(t, findings[0].Message, "platforms")
	})

	t.Run("complete", func(t *testing.T) {
		content := `---
galaxy_info:
  author: me
  description: Web role
  min_ansible_version: "2.9"
  platforms:
    - name: Debian
dependencies: []
`
		c := newCandidate(t, "roles/web/meta/main.yml", content, candidate.KindMeta)
		assert.Empty(t, check(t, NewMetaMain(), c))
	})

	t.Run("missing galaxy_info", func(t *testing.T) {
		c := newCandidate(t, "roles/web/meta/main.yml", "---\ndependencies: []\n", candidate.KindMeta)
		findings := check(t, NewMetaMain(), c)

		require.Len(t, findings, 1)
		assert.Equal(t, "file should contain `galaxy_info` key", findings[0].Message)
	})
}

func TestBecomeUser(t *testing.T) {
	base := `---
- name: Restart service
  service:
    name: nginx
    state: restarted
  become: true
`
	c := newCandidate(t, "roles/web/tasks/main.yml", base, candidate.KindTask)
	findings := check(t, NewBecomeUser(), c)
	require.Len(t, findings, 1)
	assert.Equal(t, 2, findings[0].Line)

	c = newCandidate(t, "roles/web/tasks/main.yml", base+"  become_user: deploy\n", candidate.KindTask)
	assert.Empty(t, check(t, NewBecomeUser(), c))
}

func TestTaskSeparation(t *testing.T) {
	content := `---
- name: First
  debug:
    msg: a
- name: Second
  debug:
    msg: b

- name: Third
  debug:
    msg: c
`
	c := newCandidate(t, "roles/web/tasks/main.yml", content, candidate.KindTask)
	findings := check(t, NewTaskSeparation(), c)

	require.Len(t, findings, 1)
	assert.Equal(t, 5, findings[0].Line)
}

func TestNamedTaskAndFormat(t *testing.T) {
	content := `---
- apt:
    name: nginx

- debug:
    msg: skipped by exclude list

- name: lowercase name
  apt:
    name: curl
`
	c := newCandidate(t, "roles/web/tasks/main.yml", content, candidate.KindTask)

	findings := check(t, NewNamedTask(), c)
	require.Len(t, findings, 1)
	assert.Equal(t, "module `apt` used without or empty `name` attribute", findings[0].Message)

	findings = check(t, NewNameFormat(), c)
	require.Len(t, findings, 1)
	assert.Equal(t, 8, findings[0].Line)
}

func TestCommandRules(t *testing.T) {
	content := `---
- name: Clone
  command: git clone https://example.com/repo.git

- name: Registered
  command: git rev-parse HEAD
  register: rev

- name: Piped
  shell: git log | head -n 1

- name: Plain shell
  shell: echo hello

- name: Own mode
  command: chmod 0644 /tmp/file

- name: Guarded
  command: touch /tmp/flag creates=/tmp/flag
`
	c := newCandidate(t, "roles/web/tasks/main.yml", content, candidate.KindTask)

	findings := check(t, NewCommandInsteadOfModule(), c)
	require.Len(t, findings, 1)
	assert.Equal(t, 2, findings[0].Line)
	assert.Equal(t, "git command used in place of git module", findings[0].Message)

	findings = check(t, NewShellInsteadCommand(), c)
	require.Len(t, findings, 1)
	assert.Equal(t, 12, findings[0].Line)

	findings = check(t, NewCommandInsteadOfArgument(), c)
	require.Len(t, findings, 1)
	assert.Equal(t, "chmod used in place of file modules argument mode", findings[0].Message)

	findings = check(t, NewCommandHasChanges(), c)
	var lines []int
	for _, f := range findings {
		lines = append(lines, f.Line)
	}
	assert.Equal(t, []int{2, 5, 9, 12, 15}, lines)
}

func TestInstallUseLatest(t *testing.T) {
	content := `---
- name: Latest
  apt:
    name: nginx
    state: latest

- name: Present
  apt: name=curl state=present
`
	c := newCandidate(t, "roles/web/tasks/main.yml", content, candidate.KindTask)
	findings := check(t, NewInstallUseLatest(), c)

	require.Len(t, findings, 1)
	assert.Equal(t, 2, findings[0].Line)
}

func TestInvalidPermission(t *testing.T) {
	tests := []struct {
		mode int
		want bool
	}{
		{0o644, false},
		{0o755, false},
		{0o600, false},
		{0o777, false},
		{0o711, false},
		{644, true},
		{0o200, true},
		{0o470, true},
		{0o646, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, invalidPermission(tt.mode), "mode %o", tt.mode)
	}
}

func TestFilePermissionOctal(t *testing.T) {
	content := `---
- name: Decimal
  file:
    path: /tmp/a
    mode: 644

- name: Octal
  file:
    path: /tmp/b
    mode: 0644

- name: Quoted
  file:
    path: /tmp/c
    mode: "644"
`
	c := newCandidate(t, "roles/web/tasks/main.yml", content, candidate.KindTask)
	findings := check(t, NewFilePermissionOctal(), c)

	require.Len(t, findings, 1)
	assert.Equal(t, 2, findings[0].Line)
	assert.Equal(t, "`mode: 644` should be strings with a leading zero `mode: \"0644\"`", findings[0].Message)
}

func TestNativeYaml(t *testing.T) {
	content := `---
- name: Key value
  file: path=/tmp/x state=touch

- name: Free form
  command: echo hello

- name: Native
  file:
    path: /tmp/y
    state: touch
`
	c := newCandidate(t, "roles/web/tasks/main.yml", content, candidate.KindTask)
	findings := check(t, NewNativeYaml(), c)

	require.Len(t, findings, 1)
	assert.Equal(t, 2, findings[0].Line)
}

func TestBracesSpaces(t *testing.T) {
	content := `---
good: "{{ value }}"
bad: "{{value}}"
wide: "{{  value  }}"
raw: !unsafe "{{value}}"
`
	c := newCandidate(t, "roles/web/vars/main.yml", content, candidate.KindRoleVars)
	findings := check(t, NewBracesSpaces(), c)

	require.Len(t, findings, 2)
	assert.Equal(t, 3, findings[0].Line)
	assert.Equal(t, 4, findings[1].Line)
	assert.Equal(t, "no suitable numbers of spaces (min: 1 max: 1)", findings[0].Message)
}

func TestFiltersSeparated(t *testing.T) {
	tests := []struct {
		expr string
		want bool
	}{
		{" value | default(dummy) ", true},
		{" value|default(dummy) ", false},
		{" value |default(dummy) ", false},
		{" value  | default(dummy) ", false},
		{" a or b ", true},
		{" a || b ", true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, filtersSeparated(tt.expr))
		})
	}
}

func TestFilterSeparation(t *testing.T) {
	content := `---
good: "{{ value | regex_replace('a|b', 'c') }}"
bad: "{{ value|default('x') }}"
`
	c := newCandidate(t, "roles/web/vars/main.yml", content, candidate.KindRoleVars)
	findings := check(t, NewFilterSeparation(), c)

	require.Len(t, findings, 1)
	assert.Equal(t, 3, findings[0].Line)
}

func TestCompareRules(t *testing.T) {
	content := `---
- name: Compare
  debug:
    msg: hi
  when: value == ""

- name: Literal
  debug:
    msg: hi
  when: value == True
`
	c := newCandidate(t, "roles/web/tasks/main.yml", content, candidate.KindTask)

	findings := check(t, NewCompareToEmptyString(), c)
	require.Len(t, findings, 1)
	assert.Equal(t, 5, findings[0].Line)

	findings = check(t, NewCompareToLiteralBool(), c)
	require.Len(t, findings, 1)
	assert.Equal(t, 10, findings[0].Line)

	tpl := newCandidate(t, "roles/web/templates/app.conf.j2",
		"enabled = true\n{% if value == '' %}x{% endif %}\n", candidate.KindTemplate)
	findings = check(t, NewCompareToEmptyString(), tpl)
	require.Len(t, findings, 1)
	assert.Equal(t, 2, findings[0].Line)
}

func TestLiteralBoolFormat(t *testing.T) {
	content := `---
allowed: True
lower: true
other: yes
`
	c := newCandidate(t, "roles/web/defaults/main.yml", content, candidate.KindRoleVars)
	findings := check(t, NewLiteralBoolFormat(), c)

	require.Len(t, findings, 1)
	assert.Equal(t, 3, findings[0].Line)
	assert.Equal(t, "literal bools should be written as `True, False, yes, no`", findings[0].Message)
}

func TestTaskConditions(t *testing.T) {
	content := `---
- name: Templated when
  debug:
    msg: hi
  when: "{{ enabled }}"

- name: Changed when
  debug:
    msg: hi
  when: result.changed

- name: Combined
  debug:
    msg: hi
  when: result.changed and other

- name: Local
  local_action: command echo hi
`
	c := newCandidate(t, "roles/web/tasks/main.yml", content, candidate.KindTask)

	findings := check(t, NewWhenFormat(), c)
	require.Len(t, findings, 1)
	assert.Equal(t, 2, findings[0].Line)

	findings = check(t, NewChangedInWhen(), c)
	require.Len(t, findings, 1)
	assert.Equal(t, 7, findings[0].Line)

	findings = check(t, NewLocalAction(), c)
	require.Len(t, findings, 1)
	assert.Equal(t, 18, findings[0].Line)
}

func TestRelativeRolePaths(t *testing.T) {
	content := `---
- name: Relative
  copy:
    src: ../files/app.conf
    dest: /etc/app.conf

- name: Plain
  template:
    src: app.conf.j2
    dest: /etc/app.conf
`
	c := newCandidate(t, "roles/web/tasks/main.yml", content, candidate.KindTask)
	findings := check(t, NewRelativeRolePaths(), c)

	require.Len(t, findings, 1)
	assert.Equal(t, 2, findings[0].Line)
}

func TestDeprecatedSkipTag(t *testing.T) {
	content := `---
- name: Skipped
  command: echo hi
  tags:
    - skip_ansible_lint
`
	c := newCandidate(t, "roles/web/tasks/main.yml", content, candidate.KindTask)

	findings := check(t, NewDeprecated(), c)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "skip_ansible_later")

	// other rules do not see skipped tasks
	assert.Empty(t, check(t, NewCommandHasChanges(), c))
}

func TestVersionPinned(t *testing.T) {
	c := newCandidate(t, "site.yml", "---\n- hosts: all\n", candidate.KindPlaybook)
	c.Version = "0.2"

	findings := check(t, NewVersionPinned(), c)
	require.Len(t, findings, 1)
	assert.Equal(t, "Standards version not set. Using latest standards version 0.2", findings[0].Message)

	c.VersionPinned = true
	assert.Empty(t, check(t, NewVersionPinned(), c))
}

func TestMetaChangeFromDefault(t *testing.T) {
	content := `---
galaxy_info:
  author: your name
  description: Web role
  license: MIT
`
	c := newCandidate(t, "roles/web/meta/main.yml", content, candidate.KindMeta)
	findings := check(t, NewMetaChangeFromDefault(), c)

	require.Len(t, findings, 1)
	assert.Equal(t, "meta/main.yml default values should be changed for: `author: your name`", findings[0].Message)
}

func TestScmInSrc(t *testing.T) {
	content := `---
- src: git+https://example.com/role.git
- src: https://example.com/role.tar.gz
- name: plain
`
	c := newCandidate(t, "requirements.yml", content, candidate.KindRolesfile)
	findings := check(t, NewScmInSrc(), c)

	require.Len(t, findings, 1)
	assert.Equal(t, 2, findings[0].Line)
}

func TestYamlRules(t *testing.T) {
	t.Run("empty lines", func(t *testing.T) {
		c := newCandidate(t, "roles/web/vars/main.yml", "---\na: 1\n\n\n\nb: 2\n", candidate.KindRoleVars)
		findings := check(t, NewYamlEmptyLines(), c)
		require.Len(t, findings, 1)
		assert.Contains(t, findings[0].Message, "too many blank lines")
		v, ok := findings[0].Labels.Get("yamllint_rule")
		assert.True(t, ok)
		assert.Equal(t, "empty-lines", v)
	})

	t.Run("document start", func(t *testing.T) {
		c := newCandidate(t, "roles/web/vars/main.yml", "a: 1\n", candidate.KindRoleVars)
		findings := check(t, NewYamlDocumentStart(), c)
		require.Len(t, findings, 1)
		assert.Equal(t, 1, findings[0].Line)
	})

	t.Run("has content", func(t *testing.T) {
		c := newCandidate(t, "roles/web/vars/main.yml", "---\n# nothing\n", candidate.KindRoleVars)
		assert.Len(t, check(t, NewYamlHasContent(), c), 1)
	})

	t.Run("file extension", func(t *testing.T) {
		c := newCandidate(t, "site.yaml", "---\n- hosts: all\n", candidate.KindPlaybook)
		assert.Empty(t, check(t, NewYamlFile(), c))

		c = newCandidate(t, "roles/web/tasks/main", "---\n- debug: msg=hi\n", candidate.KindTask)
		assert.Len(t, check(t, NewYamlFile(), c), 1)
	})
}

func TestFaultyCandidateReportsOnce(t *testing.T) {
	c := newCandidate(t, "roles/web/tasks/main.yml", "---\n- name: Broken\n  debug: [\n", candidate.KindTask)

	findings := check(t, NewUniqueNamedTask(), c)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "syntax error")
	assert.True(t, c.Faulty)

	for _, r := range []rule.Rule{NewNamedTask(), NewBecomeUser(), NewYamlEmptyLines(), NewBracesSpaces()} {
		assert.Empty(t, check(t, r, c), r.Info().ID)
	}
}

func findingLines(findings []rule.Finding) []int {
	var lines []int
	for _, f := range findings {
		lines = append(lines, f.Line)
	}
	return lines
}

func TestFilePermissionMissing(t *testing.T) {
	c := newCandidate(t, "tasks/main.yml", `---
- name: Copy config
  copy:
    src: a
    dest: /etc/a

- name: Copy with mode
  copy:
    src: a
    dest: /etc/a
    mode: "0644"

- name: Remove file
  file:
    path: /tmp/x
    state: absent

- name: Touch file
  file:
    path: /tmp/x
    state: touch

- name: Add line
  lineinfile:
    path: /etc/x
    line: y
    create: true

- name: Preserve line
  lineinfile:
    path: /etc/x
    line: y
    mode: preserve
`, candidate.KindTask)

	findings := check(t, NewFilePermissionMissing(), c)
	assert.Equal(t, []int{2, 18, 23, 29}, findingLines(findings))
}

func TestNestedJinja(t *testing.T) {
	c := newCandidate(t, "tasks/main.yml", `---
- name: Nested
  debug:
    msg: "{{ list_one + {{ list_two | max }} }}"
- name: Fine
  debug:
    msg: "{{ list_one }}"
`, candidate.KindTask)

	findings := check(t, NewNestedJinja(), c)
	assert.Equal(t, []int{4}, findingLines(findings))
}

func TestDeprecatedBareVars(t *testing.T) {
	assert.True(t, hasJinja("{{ packages }}"))
	assert.False(t, hasJinja("packages"))
	assert.True(t, hasGlob("*.txt"))

	c := newCandidate(t, "tasks/main.yml", `---
- name: Bare
  debug:
    msg: "{{ item }}"
  with_items: packages

- name: Jinja
  debug:
    msg: "{{ item }}"
  with_items: "{{ packages }}"

- name: Glob
  debug:
    msg: "{{ item }}"
  with_fileglob: "*.txt"

- name: Sequence
  debug:
    msg: "{{ item }}"
  with_sequence: start=1 end=3

- name: Nested
  debug:
    msg: "{{ item }}"
  with_nested:
    - users
    - "{{ groups }}"
`, candidate.KindTask)

	findings := check(t, NewDeprecatedBareVars(), c)
	assert.Equal(t, []int{2, 22}, findingLines(findings))
	assert.Equal(t, "bare var 'packages' in 'with_items' must use full var syntax '{{ packages }}' or be converted to a list", findings[0].Message)
}

func TestFQCNBuiltin(t *testing.T) {
	c := newCandidate(t, "tasks/main.yml", `---
- name: Short
  copy:
    src: a
    dest: b
- name: Long
  ansible.builtin.copy:
    src: a
    dest: b
- name: Community
  community.general.ufw:
    rule: allow
`, candidate.KindTask)

	findings := check(t, NewFQCNBuiltin(), c)
	require.Len(t, findings, 1)
	assert.Equal(t, 2, findings[0].Line)
	assert.Equal(t, "use FQCN `ansible.builtin.copy` for module action `copy`", findings[0].Message)
}

func TestKeyOrder(t *testing.T) {
	c := newCandidate(t, "site.yml", `---
- hosts: all
  name: Play
  tasks:
    - name: Ok
      debug:
        msg: hi
    - debug:
        msg: hi
      name: Late name
`, candidate.KindPlaybook)

	findings := check(t, NewKeyOrder(), c)
	require.Len(t, findings, 2)
	assert.Equal(t, 8, findings[0].Line)
	assert.Equal(t, "task key order can be improved to `name, debug`", findings[0].Message)
	assert.Equal(t, 2, findings[1].Line)
	assert.Equal(t, "play key order can be improved to `name, hosts, tasks`", findings[1].Message)
}
