// services/scheduler.go
package services

import (
	"log"
	"time"

	"racquet-league-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartLifecycleScheduler flips tournaments from upcoming to in_progress once
// their start time passes. Completion is never set here; that is owned by the
// results submission (or an explicit status update).
func (s *TournamentService) StartLifecycleScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			var tournaments []models.Tournament
			now := time.Now()
			err := s.DB.Where("status = ? AND start_time <= ?", models.TournamentUpcoming, now).
				Find(&tournaments).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}

			for _, t := range tournaments {
				t.Status = models.TournamentInProgress
				if err := s.DB.Save(&t).Error; err != nil {
					log.Printf("[Scheduler] Failed to start tournament %s: %v", t.ID, err)
				} else {
					log.Printf("[Scheduler] Tournament now in progress: %s", t.Name)
				}
			}
		}),
	)
}
