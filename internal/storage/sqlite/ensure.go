package sqlite

import (
	"github.com/felixgeelhaar/mnemo/internal/calibration"
	"github.com/felixgeelhaar/mnemo/internal/daemon"
	"github.com/felixgeelhaar/mnemo/internal/grading"
	"github.com/felixgeelhaar/mnemo/internal/mastery"
)

// Ensure SQLite stores implement the service interfaces.
var (
	_ grading.AbilityStore  = (*AbilityStore)(nil)
	_ daemon.AbilityStore   = (*AbilityStore)(nil)
	_ calibration.ItemStore = (*ItemStore)(nil)
	_ daemon.ItemStore      = (*ItemStore)(nil)
	_ mastery.Store         = (*MasteryStore)(nil)
	_ daemon.ReviewStore    = (*ReviewStore)(nil)
)
