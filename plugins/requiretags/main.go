package main

import (
	"github.com/scan-io-git/ansible-later/internal/registry"
	"github.com/scan-io-git/ansible-later/pkg/shared"
	"github.com/scan-io-git/ansible-later/pkg/shared/logger"
)

func main() {
	log := logger.NewPluginLogger("requiretags")
	shared.ServeRules(registry.NewRuleServer(log, NewRequireTags()), log)
}
