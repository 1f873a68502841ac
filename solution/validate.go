package solution

import (
	"fmt"
	"strings"
)

// ConfigurationIssue describes a project configuration entry that does not match
// any declared solution configuration.
type ConfigurationIssue struct {
	ProjectGUID string
	ProjectName string
	Key         string
}

// String formats the issue for display
func (i ConfigurationIssue) String() string {
	return fmt.Sprintf("%s (%s): %s has no matching solution configuration", i.ProjectName, i.ProjectGUID, i.Key)
}

// ValidateConfigurations reports ActiveCfg and Build.0 entries whose configuration
// is not declared in SolutionConfigurationPlatforms. Mutators do not enforce this.
func (s *Solution) ValidateConfigurations() []ConfigurationIssue {
	var issues []ConfigurationIssue
	for _, p := range s.Projects {
		if p.ConfigurationMap == nil {
			continue
		}
		for _, key := range p.ConfigurationMap.Keys() {
			cfg, suffix := SplitConfigurationKey(key)
			if !strings.EqualFold(suffix, SuffixActiveCfg) && !strings.EqualFold(suffix, SuffixBuild) {
				continue
			}
			if !s.hasConfiguration(cfg) {
				issues = append(issues, ConfigurationIssue{ProjectGUID: p.GUID, ProjectName: p.Name, Key: key})
			}
		}
	}
	return issues
}

func (s *Solution) hasConfiguration(c Configuration) bool {
	for _, existing := range s.Configurations {
		if existing.equal(c) {
			return true
		}
	}
	return false
}
