package boot

import (
	"hbs/src/db"
	"hbs/src/lib"
	"hbs/src/models"
	"hbs/src/utils"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.Reservation{},
		&models.Transaction{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// InitScheduler starts the job scheduler and registers the recurring sweep
// that cancels unpaid holds left over from before a restart.
func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	j, err := sched.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			if err := utils.SweepExpiredHolds(); err != nil {
				log.Printf("Error sweeping expired holds: %s\n", err.Error())
			}
		}),
	)
	if err != nil {
		log.Printf("Error running job: %s\n", err.Error())
		return
	}
	log.Printf("Job ID: %s %s\n", j.Name(), j.ID().String())
}
