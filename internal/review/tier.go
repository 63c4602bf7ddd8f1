package review

import "github.com/scan-io-git/ansible-later/internal/version"

// Tier is the severity class of a finding.
type Tier int

const (
	TierBestPractice Tier = iota
	TierFutureStandard
	TierViolation
)

func (t Tier) String() string {
	switch t {
	case TierBestPractice:
		return "best practice"
	case TierFutureStandard:
		return "future standard"
	case TierViolation:
		return "standard"
	}
	return "unknown"
}

// ClassifyTier compares a rule's minimum version with the candidate's resolved version.
// A rule without version is a best practice; equal versions count as applicable.
func ClassifyTier(ruleVersion, candidateVersion string) Tier {
	switch {
	case ruleVersion == "":
		return TierBestPractice
	case version.Greater(ruleVersion, candidateVersion):
		return TierFutureStandard
	default:
		return TierViolation
	}
}
