package repository

import (
	"github.com/felixgeelhaar/mnemo/internal/calibration"
	"github.com/felixgeelhaar/mnemo/internal/daemon"
	"github.com/felixgeelhaar/mnemo/internal/grading"
	"github.com/felixgeelhaar/mnemo/internal/mastery"
)

// Ensure repositories implement the service interfaces.
var (
	_ grading.AbilityStore  = (*AbilityRepository)(nil)
	_ daemon.AbilityStore   = (*AbilityRepository)(nil)
	_ calibration.ItemStore = (*ItemRepository)(nil)
	_ daemon.ItemStore      = (*ItemRepository)(nil)
	_ mastery.Store         = (*MasteryRepository)(nil)
	_ daemon.ReviewStore    = (*ReviewRepository)(nil)
	_ daemon.AttemptArchive = (*AttemptRepository)(nil)
)
