package rules

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/ansible-later/internal/candidate"
	"github.com/scan-io-git/ansible-later/internal/rule"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
)

type listedRule struct {
	rule.Meta
}

func (listedRule) Check(*candidate.Candidate, *config.Config) *rule.Result {
	return &rule.Result{}
}

func TestPrintRules(t *testing.T) {
	var buf bytes.Buffer
	err := printRules(&buf, []rule.Rule{
		listedRule{rule.Meta{ID: "ANS101", Description: "first", Version: "0.1", Types: []candidate.Kind{candidate.KindPlaybook, candidate.KindTask}}},
		listedRule{rule.Meta{Description: "anonymous"}},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"ID", "VERSION", "TYPES", "DESCRIPTION"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"ANS101", "0.1", "playbook,task", "first"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"-", "-", "anonymous"}, strings.Fields(lines[2]))
}
